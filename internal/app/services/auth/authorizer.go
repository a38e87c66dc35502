package auth

import (
	"context"
	"errors"
	"strings"
)

var ErrUnauthenticated = errors.New("auth: viewer cannot be found")

// ViewerScoped is implemented by messages that may only run for an authenticated viewer.
type ViewerScoped interface {
	ViewerIdentity() string
}

// ViewerAuthorizer rejects viewer scoped messages that carry no viewer.
type ViewerAuthorizer struct{}

func (ViewerAuthorizer) Authorize(_ context.Context, message any) error {
	scoped, ok := message.(ViewerScoped)
	if !ok {
		return nil
	}
	if strings.TrimSpace(scoped.ViewerIdentity()) == "" {
		return ErrUnauthenticated
	}
	return nil
}

package middleware

import "context"

// Authorizer decides whether the viewer carried by a message may send it.
// Commands that do not expose a viewer are let through.
type Authorizer interface {
	Authorize(ctx context.Context, message any) error
}

func Authorization(a Authorizer) CommandMiddleware {
	if a == nil {
		panic("middleware: authorizer required")
	}
	return guardCommands(a.Authorize)
}

package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"tinyhouse/internal/domain/user"
)

var (
	ErrTokenRequired   = errors.New("auth: token is required")
	ErrUserRequired    = errors.New("auth: user is required")
	ErrTTLInvalid      = errors.New("auth: ttl must be positive")
	ErrSessionNotFound = errors.New("auth: session not found")
)

// Token is the opaque bearer value a viewer sends in the Authorization header.
type Token string

func (t Token) String() string {
	if len(t) <= 4 {
		return "****"
	}
	return "****" + string(t[len(t)-4:])
}

// Session ties a token to the viewer it authenticates until ExpiresAt.
type Session struct {
	Token     Token
	UserID    user.ID
	CreatedAt time.Time
	ExpiresAt time.Time
}

type CreateSessionParams struct {
	Token  Token
	UserID user.ID
	TTL    time.Duration
	Now    time.Time
}

func NewSession(p CreateSessionParams) (*Session, error) {
	token := Token(strings.TrimSpace(string(p.Token)))
	switch {
	case token == "":
		return nil, ErrTokenRequired
	case strings.TrimSpace(string(p.UserID)) == "":
		return nil, ErrUserRequired
	case p.TTL <= 0:
		return nil, ErrTTLInvalid
	}
	issued := p.Now
	if issued.IsZero() {
		issued = time.Now()
	}
	issued = issued.UTC()
	return &Session{Token: token, UserID: p.UserID, CreatedAt: issued, ExpiresAt: issued.Add(p.TTL)}, nil
}

// Remaining is how long the session stays valid after at; zero once expired.
func (s *Session) Remaining(at time.Time) time.Duration {
	if at.IsZero() {
		at = time.Now()
	}
	if left := s.ExpiresAt.Sub(at); left > 0 {
		return left
	}
	return 0
}

func (s *Session) Expired(at time.Time) bool {
	return s.Remaining(at) == 0
}

// SessionStore persists sessions by token. Get returns ErrSessionNotFound for unknown tokens.
type SessionStore interface {
	Save(ctx context.Context, session *Session) error
	Get(ctx context.Context, token Token) (*Session, error)
	Delete(ctx context.Context, token Token) error
}

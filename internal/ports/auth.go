// Package ports defines interfaces (hexagonal ports) implemented by adapters.
// Implementations live in internal/adapters; orchestration in internal/service.
package ports

import (
	"context"
	"errors"

	domainauth "github.com/edukit/admin-dashboard/internal/domain/auth"
)

// SessionStore persists and retrieves admin sessions.
type SessionStore interface {
	Save(ctx context.Context, sess domainauth.Session) error
	Get(ctx context.Context, id string) (domainauth.Session, error)
	Delete(ctx context.Context, id string) error
}

// Authenticator signs admins in and out against the platform.
type Authenticator interface {
	SignIn(ctx context.Context, creds domainauth.Credentials) (domainauth.Identity, domainauth.Tokens, error)
	SignOut(ctx context.Context, tokens domainauth.Tokens) error
}

// ErrSessionNotFound is returned by SessionStore.Get for missing or expired sessions.
var ErrSessionNotFound = errors.New("session not found")

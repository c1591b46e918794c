package ports

import (
	"context"

	"github.com/aretw0/loaves/pkg/domain"
)

// SessionStore defines the interface for persisting visitor sessions.
// Implementations must honor Session.ExpiresAt: an expired session is
// reported as domain.ErrSessionNotFound and left out of List.
type SessionStore interface {
	// Save persists the session for a given session ID.
	Save(ctx context.Context, sessionID string, sess *domain.Session) error

	// Load retrieves the session for a given session ID.
	// Returns domain.ErrSessionNotFound if the session does not exist or has expired.
	Load(ctx context.Context, sessionID string) (*domain.Session, error)

	// Delete removes the session for a given session ID.
	// Deleting an unknown session is not an error.
	Delete(ctx context.Context, sessionID string) error

	// List returns the IDs of live sessions.
	List(ctx context.Context) ([]string, error)
}

// Sweeper is implemented by stores that only evict expired sessions lazily.
// Backends with native expiry (Redis key TTL, Mongo TTL index) do not need it.
type Sweeper interface {
	// Sweep removes every expired session and returns how many were dropped.
	Sweep(ctx context.Context) (int, error)
}

package domain

import "time"

// Session is the server-side record of one visitor, identified by the
// session cookie. It owns the visitor's cart until it expires.
type Session struct {
	ID        string    `json:"id"`
	Cart      Cart      `json:"cart"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// ExpiresAt is when the session stops being served. Zero means never.
	ExpiresAt time.Time `json:"expires_at"`

	// Sealed holds the encrypted cart when the session is stored through
	// the encryption middleware. It is empty on decrypted sessions.
	Sealed []byte `json:"sealed,omitempty"`
}

// NewSession creates an empty session.
func NewSession(id string, now time.Time) *Session {
	return &Session{
		ID:        id,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Expired reports whether the session's time-to-live has elapsed at now.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// Snapshot returns a deep copy of the session.
func (s *Session) Snapshot() *Session {
	cp := *s
	cp.Cart = s.Cart.Snapshot()
	if s.Sealed != nil {
		cp.Sealed = append([]byte(nil), s.Sealed...)
	}
	return &cp
}

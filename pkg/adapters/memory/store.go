package memory

import (
	"context"
	"sync"
	"time"

	"github.com/aretw0/loaves/pkg/domain"
)

// Store implements ports.SessionStore in memory.
// Safe for concurrent use. Expired sessions are evicted lazily on access
// or eagerly by Sweep.
type Store struct {
	data map[string]*domain.Session
	mu   sync.RWMutex
	now  func() time.Time
}

// StoreOption configures the Store.
type StoreOption func(*Store)

// WithClock replaces time.Now when checking expiry.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		s.now = now
	}
}

// NewStore creates a new in-memory store.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		data: make(map[string]*domain.Session),
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save persists the session in memory.
func (s *Store) Save(ctx context.Context, sessionID string, sess *domain.Session) error {
	// Deep copy to ensure isolation, similar to serialization
	copied := sess.Snapshot()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[sessionID] = copied
	return nil
}

// Load retrieves the session from memory.
func (s *Store) Load(ctx context.Context, sessionID string) (*domain.Session, error) {
	s.mu.RLock()
	sess, ok := s.data[sessionID]
	s.mu.RUnlock()

	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	if sess.Expired(s.now()) {
		s.evict(sessionID, sess)
		return nil, domain.ErrSessionNotFound
	}

	// Copy on read so caller can't mutate store state directly by pointer
	return sess.Snapshot(), nil
}

// Delete removes the session.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, sessionID)
	return nil
}

// List returns live sessions.
func (s *Store) List(ctx context.Context) ([]string, error) {
	now := s.now()

	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := make([]string, 0, len(s.data))
	for id, sess := range s.data {
		if sess.Expired(now) {
			continue
		}
		sessions = append(sessions, id)
	}
	return sessions, nil
}

// Sweep removes every expired session and returns how many were dropped.
func (s *Store) Sweep(ctx context.Context) (int, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for id, sess := range s.data {
		if sess.Expired(now) {
			delete(s.data, id)
			n++
		}
	}
	return n, nil
}

// Len returns the number of entries held, expired ones included.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// evict drops the entry only if it was not replaced since it was read.
func (s *Store) evict(sessionID string, seen *domain.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data[sessionID] == seen {
		delete(s.data, sessionID)
	}
}

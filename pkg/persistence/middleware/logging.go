package middleware

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/aretw0/loaves/pkg/domain"
	"github.com/aretw0/loaves/pkg/ports"
)

type loggingMiddleware struct {
	next   ports.SessionStore
	logger *slog.Logger
}

// NewLoggingMiddleware logs every store call at debug level and failures at
// error level. A missing session is not a failure.
func NewLoggingMiddleware(logger *slog.Logger) Middleware {
	return func(next ports.SessionStore) ports.SessionStore {
		return &loggingMiddleware{next: next, logger: logger}
	}
}

func (m *loggingMiddleware) log(ctx context.Context, op, sessionID string, start time.Time, err error) {
	attrs := []any{
		"op", op,
		"session_id", sessionID,
		"duration", time.Since(start),
	}
	if err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
		m.logger.ErrorContext(ctx, "Session store failure", append(attrs, "err", err)...)
		return
	}
	m.logger.DebugContext(ctx, "Session store", attrs...)
}

func (m *loggingMiddleware) Save(ctx context.Context, sessionID string, sess *domain.Session) error {
	start := time.Now()
	err := m.next.Save(ctx, sessionID, sess)
	m.log(ctx, "save", sessionID, start, err)
	return err
}

func (m *loggingMiddleware) Load(ctx context.Context, sessionID string) (*domain.Session, error) {
	start := time.Now()
	sess, err := m.next.Load(ctx, sessionID)
	m.log(ctx, "load", sessionID, start, err)
	return sess, err
}

func (m *loggingMiddleware) Delete(ctx context.Context, sessionID string) error {
	start := time.Now()
	err := m.next.Delete(ctx, sessionID)
	m.log(ctx, "delete", sessionID, start, err)
	return err
}

func (m *loggingMiddleware) List(ctx context.Context) ([]string, error) {
	start := time.Now()
	ids, err := m.next.List(ctx)
	m.log(ctx, "list", "", start, err)
	return ids, err
}

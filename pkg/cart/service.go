package cart

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/aretw0/loaves/internal/logging"
	"github.com/aretw0/loaves/pkg/domain"
	"github.com/aretw0/loaves/pkg/ports"
	"github.com/aretw0/loaves/pkg/session"
)

// Service implements ports.CartService on top of a session.Manager.
type Service struct {
	sessions *session.Manager
	hooks    domain.CartHooks
	logger   *slog.Logger
	now      func() time.Time
}

var _ ports.CartService = (*Service)(nil)

// Option configures the Service.
type Option func(*Service)

// WithHooks registers lifecycle callbacks. Hooks run after the change is persisted.
func WithHooks(hooks domain.CartHooks) Option {
	return func(s *Service) {
		s.hooks = hooks
	}
}

// WithLogger configures a logger for the Service.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithClock replaces time.Now for event and receipt timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a cart service bound to the session manager.
func NewService(sessions *session.Manager, opts ...Option) *Service {
	s := &Service{
		sessions: sessions,
		logger:   logging.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the session's cart. Unknown, expired or anonymous sessions have
// an empty cart. Get never creates a session.
func (s *Service) Get(ctx context.Context, sessionID string) (domain.Cart, error) {
	if sessionID == "" {
		return domain.Cart{}, nil
	}
	sess, err := s.sessions.Load(ctx, sessionID)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return domain.Cart{}, nil
	}
	if err != nil {
		return domain.Cart{}, err
	}
	return sess.Cart.Snapshot(), nil
}

// Add puts one unit of item in the cart, creating the session on first use.
// An item already in the cart keeps its stored attributes and gains one unit.
func (s *Service) Add(ctx context.Context, sessionID string, item domain.LineItem) (domain.Cart, error) {
	var line domain.LineItem
	sess, err := s.sessions.Update(ctx, sessionID, func(sess *domain.Session) error {
		line = sess.Cart.Add(item)
		return nil
	})
	if err != nil {
		return domain.Cart{}, err
	}

	s.logger.Debug("Item added", "session_id", sessionID, "item_id", line.ID, "quantity", line.Quantity)
	s.emit(ctx, domain.EventItemAdded, sess, line.ID, line.Quantity)
	return sess.Cart.Snapshot(), nil
}

// UpdateQuantity sets the quantity of an item already in the cart.
// A quantity <= 0 removes it; an item that is not in the cart is left alone.
// A missing id or quantity is rejected with a *domain.ValidationError and the
// cart is not touched.
func (s *Service) UpdateQuantity(ctx context.Context, sessionID, id string, quantity *int) (domain.Cart, error) {
	if id == "" {
		return domain.Cart{}, &domain.ValidationError{Field: "id"}
	}
	if quantity == nil {
		return domain.Cart{}, &domain.ValidationError{Field: "quantity"}
	}
	q := *quantity

	var found bool
	sess, err := s.sessions.Update(ctx, sessionID, func(sess *domain.Session) error {
		found = sess.Cart.SetQuantity(id, q)
		return nil
	})
	if err != nil {
		return domain.Cart{}, err
	}

	if found {
		if q <= 0 {
			s.logger.Debug("Item removed", "session_id", sessionID, "item_id", id)
			s.emit(ctx, domain.EventItemRemoved, sess, id, 0)
		} else {
			s.logger.Debug("Quantity changed", "session_id", sessionID, "item_id", id, "quantity", q)
			s.emit(ctx, domain.EventQuantityChanged, sess, id, q)
		}
	}
	return sess.Cart.Snapshot(), nil
}

// Clear empties the cart by dropping the session record.
func (s *Service) Clear(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return domain.ErrMissingSession
	}
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return err
	}

	s.logger.Debug("Cart cleared", "session_id", sessionID)
	s.hooks.Emit(ctx, &domain.CartEvent{
		Timestamp: s.now(),
		Type:      domain.EventCartCleared,
		SessionID: sessionID,
	})
	return nil
}

// Checkout records the current cart as an order and clears it.
// Checking out an empty cart yields an empty receipt.
func (s *Service) Checkout(ctx context.Context, sessionID string) (domain.Receipt, error) {
	if sessionID == "" {
		return domain.Receipt{}, domain.ErrMissingSession
	}

	receipt := domain.Receipt{SessionID: sessionID, Items: []domain.LineItem{}}
	store := s.sessions.Store()
	err := s.sessions.WithLock(ctx, sessionID, func(ctx context.Context) error {
		sess, err := store.Load(ctx, sessionID)
		if errors.Is(err, domain.ErrSessionNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		receipt.Items = sess.Cart.Lines()
		receipt.Count = sess.Cart.Count()
		receipt.Total = sess.Cart.Total()
		return store.Delete(ctx, sessionID)
	})
	if err != nil {
		return domain.Receipt{}, err
	}
	receipt.PlacedAt = s.now()

	s.logger.Info("Order placed", "session_id", sessionID, "items", receipt.Count, "total", receipt.Total)
	s.hooks.Emit(ctx, &domain.CartEvent{
		Timestamp: receipt.PlacedAt,
		Type:      domain.EventCheckout,
		SessionID: sessionID,
		Quantity:  receipt.Count,
		Total:     receipt.Total,
	})
	return receipt, nil
}

func (s *Service) emit(ctx context.Context, typ domain.EventType, sess *domain.Session, itemID string, quantity int) {
	s.hooks.Emit(ctx, &domain.CartEvent{
		Timestamp: s.now(),
		Type:      typ,
		SessionID: sess.ID,
		ItemID:    itemID,
		Quantity:  quantity,
		Total:     sess.Cart.Total(),
	})
}

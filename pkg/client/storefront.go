package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/loaves/internal/logging"
	"github.com/aretw0/loaves/pkg/domain"
)

var (
	// ErrNoCard is returned for product IDs that have no card on the page.
	ErrNoCard = errors.New("no product card on the page")
	// ErrInactive is returned when stepping a control that is still in the add state.
	ErrInactive = errors.New("control is not active")
	// ErrNotCartPage is returned by Remove outside the cart page.
	ErrNotCartPage = errors.New("remove is only available on the cart page")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("storefront closed")
)

// CartAPI is the part of the Cart API a Storefront drives. *Client implements it.
type CartAPI interface {
	Cart(ctx context.Context) (domain.Cart, error)
	AddItem(ctx context.Context, item domain.LineItem) (domain.Cart, error)
	UpdateQuantity(ctx context.Context, id string, quantity int) (domain.Cart, error)
}

// ControlState is the state of a product card's cart control.
type ControlState int

const (
	// Idle shows the add affordance.
	Idle ControlState = iota
	// Active shows the decrement, quantity and increment controls.
	Active
)

func (s ControlState) String() string {
	if s == Active {
		return "active"
	}
	return "idle"
}

// Control is the rendered cart control of one card.
type Control struct {
	ID       string
	Title    string
	State    ControlState
	Quantity int
	Price    domain.Price
}

// ViewState is everything the page shows about the cart. It is recomputed
// from the local cart snapshot on every change.
type ViewState struct {
	// Count is the number of units in the local snapshot, shown on the
	// navigation badge. It includes items whose card is not on this page.
	Count        int
	BadgeVisible bool
	// Total sums quantity times card price over the cards on the page.
	Total    float64
	Empty    bool
	Controls []Control
}

// Control returns the control for the ID.
func (v ViewState) Control(id string) (Control, bool) {
	for _, c := range v.Controls {
		if c.ID == id {
			return c, true
		}
	}
	return Control{}, false
}

// Option configures the Storefront.
type Option func(*Storefront)

// WithLogger configures a logger for the Storefront.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Storefront) {
		s.logger = logger
	}
}

// WithReconcile toggles drift correction after the dispatcher drains.
// Enabled by default.
func WithReconcile(enabled bool) Option {
	return func(s *Storefront) {
		s.reconcile = enabled
	}
}

// WithOnChange registers a callback that receives every recomputed ViewState.
func WithOnChange(fn func(ViewState)) Option {
	return func(s *Storefront) {
		s.onChange = fn
	}
}

// WithCallTimeout bounds each queued API call. Defaults to DefaultTimeout.
func WithCallTimeout(d time.Duration) Option {
	return func(s *Storefront) {
		s.callTimeout = d
	}
}

type call struct {
	op string
	id string
	fn func(ctx context.Context) (domain.Cart, error)
}

// Storefront keeps the cart controls of a Page in step with the server cart.
type Storefront struct {
	api         CartAPI
	logger      *slog.Logger
	reconcile   bool
	onChange    func(ViewState)
	callTimeout time.Duration

	mu      sync.Mutex
	cond    *sync.Cond
	page    *Page
	local   domain.Cart
	server  domain.Cart
	queue   []call
	pending int
	idle    chan struct{}
	closed  bool
	done    chan struct{}
	viewSeq uint64 // bumped under mu for every published view

	notifyMu sync.Mutex
	notified uint64 // last sequence delivered to onChange
}

// NewStorefront starts a Storefront for page. Close must be called to stop
// its dispatcher.
func NewStorefront(api CartAPI, page *Page, opts ...Option) *Storefront {
	s := &Storefront{
		api:         api,
		logger:      logging.NewNop(),
		reconcile:   true,
		callTimeout: DefaultTimeout,
		page:        page,
		done:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.cond = sync.NewCond(&s.mu)
	go s.run()
	return s
}

// Sync fetches the server cart and makes every line item with a card on the
// page an active control with the stored quantity. Items without a card stay
// in the snapshot and count toward the badge. Queued calls are flushed first.
func (s *Storefront) Sync(ctx context.Context) error {
	if err := s.Flush(ctx); err != nil {
		return err
	}

	c, err := s.api.Cart(ctx)
	if err != nil {
		s.logger.Warn("Error restoring cart", "err", err)
		return fmt.Errorf("failed to restore cart: %w", err)
	}

	s.mu.Lock()
	s.local = c.Snapshot()
	s.server = c.Snapshot()
	view, seq := s.publishLocked()
	s.mu.Unlock()

	s.notify(view, seq)
	return nil
}

// Activate switches an idle control to active with one unit and queues the
// add-item call. Activating an active control does nothing.
func (s *Storefront) Activate(id string) error {
	return s.mutate(id, func(card domain.Product, quantity int) (*call, error) {
		if quantity > 0 {
			return nil, nil
		}
		item := card.LineItem()
		s.local.Add(item)
		return &call{op: "add item", id: id, fn: func(ctx context.Context) (domain.Cart, error) {
			return s.api.AddItem(ctx, item)
		}}, nil
	})
}

// Increment adds one unit to an active control.
func (s *Storefront) Increment(id string) error {
	return s.mutate(id, func(_ domain.Product, quantity int) (*call, error) {
		if quantity == 0 {
			return nil, ErrInactive
		}
		return s.setLocked(id, quantity+1), nil
	})
}

// Decrement removes one unit from an active control. At one unit the control
// returns to idle and the item is removed from the cart.
func (s *Storefront) Decrement(id string) error {
	return s.mutate(id, func(_ domain.Product, quantity int) (*call, error) {
		if quantity == 0 {
			return nil, ErrInactive
		}
		return s.setLocked(id, quantity-1), nil
	})
}

// Remove is the cart page removal control: it decrements, and at one unit
// removes the card from the page together with the item.
func (s *Storefront) Remove(id string) error {
	return s.mutate(id, func(_ domain.Product, quantity int) (*call, error) {
		if s.page.Kind != CartPage {
			return nil, ErrNotCartPage
		}
		if quantity == 0 {
			return nil, ErrInactive
		}
		if quantity == 1 {
			s.page.remove(id)
		}
		return s.setLocked(id, quantity-1), nil
	})
}

func (s *Storefront) setLocked(id string, quantity int) *call {
	s.local.SetQuantity(id, quantity)
	return &call{op: "update quantity", id: id, fn: func(ctx context.Context) (domain.Cart, error) {
		return s.api.UpdateQuantity(ctx, id, quantity)
	}}
}

// mutate applies fn to the local snapshot under the lock, queues the call it
// returns and publishes the new view.
func (s *Storefront) mutate(id string, fn func(card domain.Product, quantity int) (*call, error)) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	card, ok := s.page.Card(id)
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNoCard, id)
	}

	c, err := fn(card, s.local.Quantity(id))
	if err != nil || c == nil {
		s.mu.Unlock()
		return err
	}

	if s.pending == 0 {
		s.idle = make(chan struct{})
	}
	s.pending++
	s.queue = append(s.queue, *c)
	s.cond.Signal()

	view, seq := s.publishLocked()
	s.mu.Unlock()

	s.notify(view, seq)
	return nil
}

func (s *Storefront) run() {
	defer close(s.done)
	for {
		s.mu.Lock()
		for len(s.queue) == 0 && !s.closed {
			s.cond.Wait()
		}
		if len(s.queue) == 0 {
			s.mu.Unlock()
			return
		}
		c := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), s.callTimeout)
		server, err := c.fn(ctx)
		cancel()

		s.mu.Lock()
		var view *ViewState
		var seq uint64
		if err != nil {
			s.logger.Warn("Cart call failed", "op", c.op, "item_id", c.id, "err", err)
		} else {
			s.server = server
			if len(s.queue) == 0 && s.reconcile {
				view, seq = s.reconcileLocked()
			}
		}
		s.pending--
		if s.pending == 0 {
			close(s.idle)
			s.idle = nil
		}
		s.mu.Unlock()

		if view != nil {
			s.notify(*view, seq)
		}
	}
}

// reconcileLocked corrects the local snapshot toward the last server cart.
func (s *Storefront) reconcileLocked() (*ViewState, uint64) {
	diff := domain.DiffCarts(s.local, s.server)
	if diff == nil {
		return nil, 0
	}
	s.logger.Info("Reconciled cart drift", "changed", len(diff.Quantities), "added", len(diff.Added))
	s.local.Apply(diff)
	view, seq := s.publishLocked()
	return &view, seq
}

// publishLocked computes the view to hand to onChange and stamps it, so a
// view computed earlier is never delivered after a later one.
func (s *Storefront) publishLocked() (ViewState, uint64) {
	s.viewSeq++
	return s.viewLocked(), s.viewSeq
}

func (s *Storefront) viewLocked() ViewState {
	v := ViewState{
		Count:    s.local.Count(),
		Controls: make([]Control, 0, len(s.page.cards)),
	}
	for _, card := range s.page.cards {
		ctl := Control{
			ID:       card.ID,
			Title:    card.Title,
			Quantity: s.local.Quantity(card.ID),
			Price:    card.Price,
		}
		if ctl.Quantity > 0 {
			ctl.State = Active
			if card.Price.Valid() {
				v.Total += card.Price.Float() * float64(ctl.Quantity)
			}
		}
		v.Controls = append(v.Controls, ctl)
	}
	v.BadgeVisible = v.Count > 0
	v.Empty = v.Count == 0
	return v
}

func (s *Storefront) notify(v ViewState, seq uint64) {
	if s.onChange == nil {
		return
	}
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	if seq <= s.notified {
		return // superseded
	}
	s.notified = seq
	s.onChange(v)
}

// View returns the current view state.
func (s *Storefront) View() ViewState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

// Cart returns a copy of the local cart snapshot.
func (s *Storefront) Cart() domain.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.local.Snapshot()
}

// Flush waits until every queued call has completed.
func (s *Storefront) Flush(ctx context.Context) error {
	for {
		s.mu.Lock()
		idle := s.idle
		s.mu.Unlock()
		if idle == nil {
			return nil
		}
		select {
		case <-idle:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close drains the queue and stops the dispatcher. Further interactions
// return ErrClosed.
func (s *Storefront) Close() {
	s.mu.Lock()
	s.closed = true
	s.cond.Broadcast()
	s.mu.Unlock()
	<-s.done
}

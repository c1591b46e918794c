package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventItemAdded       EventType = "item_added"
	EventQuantityChanged EventType = "quantity_changed"
	EventItemRemoved     EventType = "item_removed"
	EventCartCleared     EventType = "cart_cleared"
	EventCheckout        EventType = "checkout"
)

// CartEvent describes one cart mutation.
type CartEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id"`
	ItemID    string    `json:"item_id,omitempty"`
	Quantity  int       `json:"quantity,omitempty"`
	Total     float64   `json:"total,omitempty"`
}

// CartHooks defines callbacks for cart observability.
type CartHooks struct {
	OnItemAdded       func(context.Context, *CartEvent)
	OnQuantityChanged func(context.Context, *CartEvent)
	OnItemRemoved     func(context.Context, *CartEvent)
	OnCartCleared     func(context.Context, *CartEvent)
	OnCheckout        func(context.Context, *CartEvent)
}

// Emit dispatches the event to the hook registered for its type.
func (h CartHooks) Emit(ctx context.Context, e *CartEvent) {
	var fn func(context.Context, *CartEvent)
	switch e.Type {
	case EventItemAdded:
		fn = h.OnItemAdded
	case EventQuantityChanged:
		fn = h.OnQuantityChanged
	case EventItemRemoved:
		fn = h.OnItemRemoved
	case EventCartCleared:
		fn = h.OnCartCleared
	case EventCheckout:
		fn = h.OnCheckout
	}
	if fn != nil {
		fn(ctx, e)
	}
}

// MergeHooks combines several hook sets; each event is delivered to all of them in order.
func MergeHooks(sets ...CartHooks) CartHooks {
	each := func(pick func(CartHooks) func(context.Context, *CartEvent)) func(context.Context, *CartEvent) {
		var fns []func(context.Context, *CartEvent)
		for _, h := range sets {
			if fn := pick(h); fn != nil {
				fns = append(fns, fn)
			}
		}
		if len(fns) == 0 {
			return nil
		}
		return func(ctx context.Context, e *CartEvent) {
			for _, fn := range fns {
				fn(ctx, e)
			}
		}
	}
	return CartHooks{
		OnItemAdded:       each(func(h CartHooks) func(context.Context, *CartEvent) { return h.OnItemAdded }),
		OnQuantityChanged: each(func(h CartHooks) func(context.Context, *CartEvent) { return h.OnQuantityChanged }),
		OnItemRemoved:     each(func(h CartHooks) func(context.Context, *CartEvent) { return h.OnItemRemoved }),
		OnCartCleared:     each(func(h CartHooks) func(context.Context, *CartEvent) { return h.OnCartCleared }),
		OnCheckout:        each(func(h CartHooks) func(context.Context, *CartEvent) { return h.OnCheckout }),
	}
}

package ports

import (
	"context"

	"github.com/aretw0/loaves/pkg/domain"
)

// CartService defines the cart operations used by driving adapters (e.g., HTTP, MCP).
// Every operation is scoped to one session ID.
type CartService interface {
	// Get returns the current cart, or an empty cart if the session has none.
	Get(ctx context.Context, sessionID string) (domain.Cart, error)

	// Add puts one unit of the item in the cart.
	Add(ctx context.Context, sessionID string, item domain.LineItem) (domain.Cart, error)

	// UpdateQuantity sets or removes a line item.
	// A nil quantity or empty id yields a *domain.ValidationError.
	UpdateQuantity(ctx context.Context, sessionID, id string, quantity *int) (domain.Cart, error)

	// Clear empties the cart.
	Clear(ctx context.Context, sessionID string) error

	// Checkout records the cart as an order and clears it.
	Checkout(ctx context.Context, sessionID string) (domain.Receipt, error)
}

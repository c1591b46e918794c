package ports

import (
	"context"

	"github.com/aretw0/loaves/pkg/domain"
)

// Catalog lists the product cards of the online-orders page.
type Catalog interface {
	// Products returns every product in display order.
	Products(ctx context.Context) ([]domain.Product, error)

	// Product returns a single product by ID.
	Product(ctx context.Context, id string) (domain.Product, error)
}

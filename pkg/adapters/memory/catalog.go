package memory

import (
	"context"
	"fmt"

	"github.com/aretw0/loaves/pkg/domain"
)

// Catalog implements ports.Catalog over a fixed list of products.
type Catalog struct {
	products []domain.Product
	byID     map[string]int
}

// NewCatalog creates a catalog that serves products in the given order.
func NewCatalog(products ...domain.Product) (*Catalog, error) {
	c := &Catalog{
		products: make([]domain.Product, 0, len(products)),
		byID:     make(map[string]int, len(products)),
	}
	for _, p := range products {
		if p.ID == "" {
			return nil, fmt.Errorf("product %q missing ID", p.Title)
		}
		if _, dup := c.byID[p.ID]; dup {
			return nil, fmt.Errorf("duplicate product ID: %s", p.ID)
		}
		c.byID[p.ID] = len(c.products)
		c.products = append(c.products, p)
	}
	return c, nil
}

// Products returns every product in display order.
func (c *Catalog) Products(ctx context.Context) ([]domain.Product, error) {
	out := make([]domain.Product, len(c.products))
	copy(out, c.products)
	return out, nil
}

// Product retrieves a product by ID.
func (c *Catalog) Product(ctx context.Context, id string) (domain.Product, error) {
	i, ok := c.byID[id]
	if !ok {
		return domain.Product{}, fmt.Errorf("%w: %s", domain.ErrProductNotFound, id)
	}
	return c.products[i], nil
}

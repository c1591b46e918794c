package tests

import (
	"context"
	"testing"

	"github.com/aretw0/loaves/pkg/domain"
	"github.com/aretw0/loaves/pkg/ports"
)

// CatalogContractTest is a reusable test suite that verifies if an adapter complies with ports.Catalog.
// expected lists the products the catalog was seeded with, in display order.
func CatalogContractTest(t *testing.T, catalog ports.Catalog, expected []domain.Product) {
	t.Helper()
	ctx := context.Background()

	t.Run("Products", func(t *testing.T) {
		products, err := catalog.Products(ctx)
		if err != nil {
			t.Fatalf("unexpected error listing products: %v", err)
		}
		if len(products) != len(expected) {
			t.Fatalf("expected %d products, got %d", len(expected), len(products))
		}
		for i, want := range expected {
			got := products[i]
			if got.ID != want.ID || got.Title != want.Title {
				t.Errorf("product %d: got %s/%q, want %s/%q", i, got.ID, got.Title, want.ID, want.Title)
			}
			if got.Price.Valid() != want.Price.Valid() || (want.Price.Valid() && got.Price.Float() != want.Price.Float()) {
				t.Errorf("product %s: price %v, want %v", want.ID, got.Price, want.Price)
			}
		}
	})

	t.Run("Product_Success", func(t *testing.T) {
		for _, want := range expected {
			got, err := catalog.Product(ctx, want.ID)
			if err != nil {
				t.Fatalf("unexpected error getting product %s: %v", want.ID, err)
			}
			if got.Text != want.Text {
				t.Errorf("text mismatch for %s. got %q, want %q", want.ID, got.Text, want.Text)
			}
		}
	})

	t.Run("Product_NotFound", func(t *testing.T) {
		_, err := catalog.Product(ctx, "non-existent-product")
		if err == nil {
			t.Error("expected error for non-existent product, got nil")
		}
	})
}

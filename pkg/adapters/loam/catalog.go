package loam

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/loam"
	"github.com/aretw0/loaves/pkg/domain"
)

// Catalog adapts a Loam repository of markdown product cards to ports.Catalog.
// The frontmatter carries the card attributes and the body is the card text.
type Catalog struct {
	Repo *loam.TypedRepository[ProductMetadata]
}

// New creates a new Loam catalog adapter.
func New(repo *loam.TypedRepository[ProductMetadata]) *Catalog {
	return &Catalog{
		Repo: repo,
	}
}

type entry struct {
	order   int
	product domain.Product
}

// Products lists every card, sorted by order and then ID.
func (c *Catalog) Products(ctx context.Context) ([]domain.Product, error) {
	docs, err := c.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	seen := make(map[string]string)
	entries := make([]entry, 0, len(docs))
	for _, listed := range docs {
		// List carries frontmatter only; the body comes from Get.
		doc, err := c.Repo.Get(ctx, listed.ID)
		if err != nil {
			return nil, fmt.Errorf("loam get failed for %s: %w", listed.ID, err)
		}
		p := toProduct(listed.ID, doc.Data, doc.Content)

		// Collision Detection
		if existing, ok := seen[p.ID]; ok {
			return nil, fmt.Errorf("collision detected: product '%s' is defined in both '%s' and '%s'", p.ID, existing, listed.ID)
		}
		seen[p.ID] = listed.ID
		entries = append(entries, entry{order: doc.Data.Order, product: p})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].order != entries[j].order {
			return entries[i].order < entries[j].order
		}
		return entries[i].product.ID < entries[j].product.ID
	})

	products := make([]domain.Product, len(entries))
	for i, e := range entries {
		products[i] = e.product
	}
	return products, nil
}

// Product retrieves one card by product ID.
func (c *Catalog) Product(ctx context.Context, id string) (domain.Product, error) {
	products, err := c.Products(ctx)
	if err != nil {
		return domain.Product{}, err
	}
	for _, p := range products {
		if p.ID == id {
			return p, nil
		}
	}
	return domain.Product{}, fmt.Errorf("%w: %s", domain.ErrProductNotFound, id)
}

func toProduct(docID string, meta ProductMetadata, content string) domain.Product {
	id := meta.ID
	if id == "" {
		id = trimExtension(docID)
	}
	return domain.Product{
		ID:       id,
		Title:    meta.Title,
		ImageURL: meta.Image,
		Text:     strings.TrimSpace(content),
		Price:    toPrice(meta.Price),
		Category: meta.Category,
	}
}

func toPrice(v any) domain.Price {
	switch p := v.(type) {
	case nil:
		return domain.NaNPrice()
	case float64:
		return domain.Price(p)
	case int:
		return domain.Price(p)
	case int64:
		return domain.Price(p)
	default:
		// strings and json.Number
		return domain.PriceFromString(fmt.Sprint(p))
	}
}

func trimExtension(id string) string {
	ext := filepath.Ext(id)
	if ext != "" {
		return filepath.ToSlash(strings.TrimSuffix(id, ext))
	}
	return filepath.ToSlash(id)
}

package loam

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/loam"
	"github.com/aretw0/loaves/pkg/domain"
	"github.com/aretw0/loaves/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRepo(t *testing.T, files map[string]string) *Catalog {
	t.Helper()

	dir, err := filepath.Abs(t.TempDir())
	require.NoError(t, err)

	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}

	repo, err := loam.Init(dir, loam.WithVersioning(false), loam.WithReadOnly(true))
	require.NoError(t, err, "Failed to init loam repo")

	return New(loam.NewTypedRepository[ProductMetadata](repo))
}

func TestCatalog_Contract(t *testing.T) {
	catalog := setupRepo(t, map[string]string{
		"sourdough.md": `---
title: Sourdough
price: "6.50"
image: /img/sourdough.jpg
category: bread
order: 1
---
Naturally leavened country loaf.`,
		"croissant.md": `---
title: Croissant
price: 3
category: pastry
order: 2
---
Laminated butter dough.`,
	})

	tests.CatalogContractTest(t, catalog, []domain.Product{
		{ID: "sourdough", Title: "Sourdough", Price: 6.5, Text: "Naturally leavened country loaf."},
		{ID: "croissant", Title: "Croissant", Price: 3, Text: "Laminated butter dough."},
	})
}

func TestCatalog_ExplicitIDAndAttributes(t *testing.T) {
	catalog := setupRepo(t, map[string]string{
		"file-name.md": `---
id: rye
title: Rye
price: "4.25"
image: /img/rye.jpg
category: bread
---
Dense.`,
	})

	p, err := catalog.Product(context.Background(), "rye")
	require.NoError(t, err)
	assert.Equal(t, "/img/rye.jpg", p.ImageURL)
	assert.Equal(t, "bread", p.Category)
	assert.Equal(t, domain.Price(4.25), p.Price)
	assert.Equal(t, "Dense.", p.Text, "the markdown body is the card text")

	_, err = catalog.Product(context.Background(), "file-name")
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestCatalog_NonNumericPrice(t *testing.T) {
	catalog := setupRepo(t, map[string]string{
		"mystery.md": `---
title: Mystery Bun
price: "market price"
---
Ask at the counter.`,
	})

	p, err := catalog.Product(context.Background(), "mystery")
	require.NoError(t, err)
	assert.False(t, p.Price.Valid())
}

func TestCatalog_Collision(t *testing.T) {
	catalog := setupRepo(t, map[string]string{
		"a.md": "---\nid: same\ntitle: A\n---\nA",
		"b.md": "---\nid: same\ntitle: B\n---\nB",
	})

	_, err := catalog.Products(context.Background())
	assert.ErrorContains(t, err, "collision")
}

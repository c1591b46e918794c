// Package catalog provides the product cards shown on the online-orders page.
package catalog

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aretw0/loam"
	loamAdapter "github.com/aretw0/loaves/pkg/adapters/loam"
	"github.com/aretw0/loaves/pkg/adapters/memory"
	"github.com/aretw0/loaves/pkg/domain"
	"github.com/aretw0/loaves/pkg/ports"
	"gopkg.in/yaml.v3"
)

//go:embed menu.yaml
var defaultMenu []byte

// menuFile is the YAML shape of a menu.
type menuFile struct {
	Products []menuProduct `yaml:"products"`
}

// menuProduct keeps the price as written so non-numeric prices survive as NaN.
type menuProduct struct {
	ID       string `yaml:"id"`
	Title    string `yaml:"title"`
	Price    string `yaml:"price"`
	ImageURL string `yaml:"imageURL"`
	Text     string `yaml:"text"`
	Category string `yaml:"category"`
}

// Default returns the built-in menu.
func Default() *memory.Catalog {
	c, err := Parse(defaultMenu)
	if err != nil {
		panic(fmt.Sprintf("embedded menu is invalid: %v", err))
	}
	return c
}

// FromYAML loads a menu file.
func FromYAML(path string) (*memory.Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read menu: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Parse decodes a YAML menu. Unknown keys are rejected.
func Parse(data []byte) (*memory.Catalog, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var menu menuFile
	if err := dec.Decode(&menu); err != nil {
		return nil, fmt.Errorf("failed to parse menu: %w", err)
	}

	products := make([]domain.Product, 0, len(menu.Products))
	for _, p := range menu.Products {
		products = append(products, domain.Product{
			ID:       p.ID,
			Title:    p.Title,
			ImageURL: p.ImageURL,
			Text:     p.Text,
			Price:    domain.PriceFromString(p.Price),
			Category: p.Category,
		})
	}
	return memory.NewCatalog(products...)
}

// NewLoam opens a directory of markdown product cards read-only.
func NewLoam(dir string) (*loamAdapter.Catalog, error) {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}

	repo, err := loam.Init(absPath,
		loam.WithVersioning(false),
		loam.WithReadOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize loam: %w", err)
	}

	return loamAdapter.New(loam.NewTypedRepository[loamAdapter.ProductMetadata](repo)), nil
}

// Open picks the catalog source for path: empty means the built-in menu,
// a directory is read with Loam and anything else is parsed as a YAML menu.
func Open(path string) (ports.Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	if info.IsDir() {
		return NewLoam(path)
	}
	return FromYAML(path)
}

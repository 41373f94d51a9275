// Package catalog provides the static, ordered list of coins offered for sale.
package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"io"

	"github.com/indiancoinstore/coinstore-backend/internal/app/model"
)

//go:embed coins.json
var defaultCoins []byte

// Catalog is immutable once built and safe for concurrent reads
type Catalog struct {
	products []model.Product
	index    map[string]int
}

// New validates products (non-empty unique ids, non-negative prices) and keeps
// their order.
func New(products []model.Product) (*Catalog, error) {
	c := &Catalog{
		products: make([]model.Product, 0, len(products)),
		index:    make(map[string]int, len(products)),
	}
	for i, p := range products {
		if p.ID == "" {
			return nil, fmt.Errorf("product %d has no id", i)
		}
		if _, dup := c.index[p.ID]; dup {
			return nil, fmt.Errorf("duplicate product id %q", p.ID)
		}
		if p.Price < 0 {
			return nil, fmt.Errorf("product %q has negative price", p.ID)
		}
		c.index[p.ID] = len(c.products)
		c.products = append(c.products, p)
	}
	return c, nil
}

// Default returns the catalog bundled with the binary
func Default() (*Catalog, error) {
	var products []model.Product
	if err := json.Unmarshal(defaultCoins, &products); err != nil {
		return nil, fmt.Errorf("decode bundled catalog: %w", err)
	}
	return New(products)
}

// LoadJSON reads a JSON array of products
func LoadJSON(r io.Reader) (*Catalog, error) {
	var products []model.Product
	if err := json.NewDecoder(r).Decode(&products); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return New(products)
}

// All returns a copy of every product in catalog order
func (c *Catalog) All() []model.Product {
	return append([]model.Product(nil), c.products...)
}

func (c *Catalog) Len() int { return len(c.products) }

// Get looks a product up by id
func (c *Catalog) Get(id string) (model.Product, bool) {
	i, ok := c.index[id]
	if !ok {
		return model.Product{}, false
	}
	return c.products[i], true
}

// Position returns the catalog index of id, or -1
func (c *Catalog) Position(id string) int {
	if i, ok := c.index[id]; ok {
		return i
	}
	return -1
}

// Categories lists "All" followed by each category in first-seen order
func (c *Catalog) Categories() []string {
	out := []string{model.CategoryAll}
	seen := map[model.ProductCategory]bool{}
	for _, p := range c.products {
		if p.Category == "" || seen[p.Category] {
			continue
		}
		seen[p.Category] = true
		out = append(out, string(p.Category))
	}
	return out
}

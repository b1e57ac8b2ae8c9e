package memory

import (
	"context"
	"sync"

	"storefront/domain/catalog"
)

// Catalog in-memory product catalog with atomic stock adjustment.
type Catalog struct {
	products map[string]catalog.Product
	mu       sync.Mutex
}

func NewCatalog(products ...catalog.Product) *Catalog {
	c := &Catalog{products: make(map[string]catalog.Product)}
	c.Seed(products...)
	return c
}

// Seed inserts or replaces products.
func (c *Catalog) Seed(products ...catalog.Product) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, p := range products {
		c.products[p.ID] = p
	}
}

func (c *Catalog) GetByID(_ context.Context, productID string) (*catalog.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.products[productID]
	if !ok {
		return nil, catalog.NewProductNotFoundError(productID)
	}
	return &p, nil
}

func (c *Catalog) AdjustStock(_ context.Context, productID string, delta int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.products[productID]
	if !ok {
		return catalog.NewProductNotFoundError(productID)
	}
	if p.Stock+delta < 0 {
		return catalog.NewInsufficientStockError(p.Name)
	}
	p.Stock += delta
	c.products[productID] = p
	return nil
}

var _ catalog.Catalog = (*Catalog)(nil)

/*
Package catalog is the slice of the product catalog the order engine depends on:
price and stock lookup plus compare-and-set stock adjustment.
*/
package catalog

import (
	"context"
	"errors"
	"fmt"

	"storefront/domain/shared"
)

var (
	ErrProductNotFound = fmt.Errorf("product %w", shared.ErrNotFound)

	// ErrInsufficientStock the requested quantity exceeds available stock
	ErrInsufficientStock = errors.New("insufficient stock")
)

// Product read model of a catalog product
type Product struct {
	ID    string
	Name  string
	Price shared.Money
	Image string
	Stock int
}

// HasStock reports whether quantity units are available.
func (p Product) HasStock(quantity int) bool {
	return quantity > 0 && p.Stock >= quantity
}

// Catalog ProductCatalog port
type Catalog interface {
	GetByID(ctx context.Context, productID string) (*Product, error)

	// AdjustStock applies delta atomically and fails with ErrInsufficientStock
	// if the resulting stock would be negative.
	AdjustStock(ctx context.Context, productID string, delta int) error
}

type catalogError struct {
	sentinel error
	message  string
	stack    []uintptr
}

func (e *catalogError) Error() string   { return e.message }
func (e *catalogError) Unwrap() error   { return e.sentinel }
func (e *catalogError) Stack() []string { return shared.FormatStack(e.stack) }

func NewProductNotFoundError(productID string) error {
	return &catalogError{
		sentinel: ErrProductNotFound,
		message:  "product not found: " + productID,
		stack:    shared.CaptureStack(3),
	}
}

func NewInsufficientStockError(name string) error {
	return &catalogError{
		sentinel: ErrInsufficientStock,
		message:  "Insufficient stock for " + name,
		stack:    shared.CaptureStack(3),
	}
}

package order

import (
	"context"

	"storefront/domain/shared"
)

// Repository Order repository interface
type Repository interface {
	// Save inserts a new order or updates an existing one with an optimistic
	// version check. Events are collected by the UoW, not published here.
	Save(ctx context.Context, order *Order) error

	FindByID(ctx context.Context, id string) (*Order, error)

	// FindByGatewayOrderID used by payment reconciliation
	FindByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*Order, error)

	// Search returns one page plus the total matching count, newest first.
	Search(ctx context.Context, criteria SearchCriteria) ([]*Order, int64, error)
}

// SearchCriteria query criteria for order listings
type SearchCriteria struct {
	Spec     shared.Specification[*Order]
	Page     int
	PageSize int
	// All disables paging
	All bool
}

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
	// MaxPage keeps Offset far from int overflow
	MaxPage = 1_000_000
)

// Normalize clamps paging to sane values (1-based pages).
func (c SearchCriteria) Normalize() SearchCriteria {
	if c.Page < 1 {
		c.Page = 1
	}
	if c.Page > MaxPage {
		c.Page = MaxPage
	}
	if c.PageSize < 1 {
		c.PageSize = DefaultPageSize
	}
	if c.PageSize > MaxPageSize {
		c.PageSize = MaxPageSize
	}
	return c
}

// Offset rows to skip for the current page
func (c SearchCriteria) Offset() int {
	return (c.Page - 1) * c.PageSize
}

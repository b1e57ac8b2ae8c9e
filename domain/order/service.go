package order

import (
	"context"
	"strings"

	"storefront/domain/catalog"
)

// LineRequest product id + quantity as submitted by the customer
type LineRequest struct {
	ProductID string
	Quantity  int
}

// DomainService Order domain service
// DDD principle: reads through ports to validate, never persists.
type DomainService struct {
	catalog catalog.Catalog
}

func NewDomainService(c catalog.Catalog) *DomainService {
	return &DomainService{catalog: c}
}

// ResolveItems looks up every product, checks that stock covers the total
// requested quantity per product, and snapshots name, price and image.
func (s *DomainService) ResolveItems(ctx context.Context, lines []LineRequest) ([]ItemRequest, error) {
	if len(lines) == 0 {
		return nil, NewEmptyOrderItemsError()
	}

	requested := make(map[string]int, len(lines))
	for _, line := range lines {
		if strings.TrimSpace(line.ProductID) == "" {
			return nil, NewInvalidQuantityError(line.ProductID)
		}
		if line.Quantity < 1 {
			return nil, NewInvalidQuantityError(line.ProductID)
		}
		requested[line.ProductID] += line.Quantity
	}

	products := make(map[string]*catalog.Product, len(requested))
	items := make([]ItemRequest, 0, len(lines))
	for _, line := range lines {
		product, ok := products[line.ProductID]
		if !ok {
			p, err := s.catalog.GetByID(ctx, line.ProductID)
			if err != nil {
				return nil, err
			}
			if !p.HasStock(requested[line.ProductID]) {
				return nil, catalog.NewInsufficientStockError(p.Name)
			}
			products[line.ProductID] = p
			product = p
		}

		items = append(items, ItemRequest{
			ProductID: product.ID,
			Name:      product.Name,
			Image:     product.Image,
			Price:     product.Price,
			Quantity:  line.Quantity,
		})
	}
	return items, nil
}

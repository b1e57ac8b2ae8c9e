package order

import (
	"context"

	"storefront/domain/catalog"
	"storefront/domain/order"

	"go.uber.org/zap"
)

// stockReservation 将订单行逐一扣减库存；失败时可按相反顺序归还已扣减的部分。
type stockReservation struct {
	catalog  catalog.Catalog
	reserved []order.Item
}

func newStockReservation(c catalog.Catalog) *stockReservation {
	return &stockReservation{catalog: c}
}

// Reserve stops at the first line the catalog refuses.
func (r *stockReservation) Reserve(ctx context.Context, items []order.Item) error {
	for _, item := range items {
		if err := r.catalog.AdjustStock(ctx, item.ProductID(), -item.Quantity()); err != nil {
			return err
		}
		r.reserved = append(r.reserved, item)
	}
	return nil
}

// Release best effort; failures are logged.
func (r *stockReservation) Release(ctx context.Context, log *zap.Logger) {
	for i := len(r.reserved) - 1; i >= 0; i-- {
		item := r.reserved[i]
		if err := r.catalog.AdjustStock(ctx, item.ProductID(), item.Quantity()); err != nil {
			log.Error("Failed to release reserved stock",
				zap.String("product_id", item.ProductID()),
				zap.Int("quantity", item.Quantity()),
				zap.Error(err))
		}
	}
	r.reserved = nil
}

package mysql

import (
	"context"
	"errors"
	"fmt"

	"storefront/domain/order"
	"storefront/infrastructure/persistence/mysql/po"
	"storefront/infrastructure/persistence/specification"

	"gorm.io/gorm"
)

// OrderRepository MySQL/GORM implementation of order repository
// Repository only persists the aggregate; events are saved to the outbox by the UoW.
type OrderRepository struct {
	db         *gorm.DB
	translator *specification.GormTranslator
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db, translator: specification.NewGormTranslator()}
}

// Save inserts a new order or updates with an optimistic version check.
// When called within UoW.Execute(), it uses the transaction from context.
func (r *OrderRepository) Save(ctx context.Context, o *order.Order) error {
	orderPO, err := po.FromOrderDomain(o)
	if err != nil {
		return fmt.Errorf("failed to map order %s: %w", o.ID(), err)
	}
	db := conn(ctx, r.db)

	if o.IsNew() {
		orderPO.Version = o.Version() + 1
		if err := db.Create(orderPO).Error; err != nil {
			return err
		}
	} else {
		err := updateVersioned(db, &po.OrderPO{}, o.ID(), o.Version(), map[string]any{
			"status":             orderPO.Status,
			"payment_status":     orderPO.PaymentStatus,
			"gateway_order_id":   orderPO.GatewayOrderID,
			"gateway_payment_id": orderPO.GatewayPaymentID,
			"payment_signature":  orderPO.PaymentSignature,
			"shipping":           orderPO.Shipping,
			"status_history":     orderPO.StatusHistory,
			"notes":              orderPO.Notes,
			"outcome":            orderPO.Outcome,
			"updated_at":         orderPO.UpdatedAt,
		})
		switch {
		case errors.Is(err, errRowMissing):
			return order.NewOrderNotFoundError(o.ID())
		case errors.Is(err, errVersionStale):
			return order.NewConcurrentModificationError(o.ID())
		case err != nil:
			return err
		}
	}

	o.IncrementVersionForSave()
	o.MarkPersisted()
	return nil
}

func (r *OrderRepository) FindByID(ctx context.Context, id string) (*order.Order, error) {
	var orderPO po.OrderPO
	if err := conn(ctx, r.db).First(&orderPO, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, order.NewOrderNotFoundError(id)
		}
		return nil, err
	}
	return orderPO.ToDomain()
}

func (r *OrderRepository) FindByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*order.Order, error) {
	var orderPO po.OrderPO
	err := conn(ctx, r.db).
		Where("gateway_order_id = ?", gatewayOrderID).
		Order("created_at DESC").
		First(&orderPO).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, order.NewOrderNotFoundError("razorpay:" + gatewayOrderID)
		}
		return nil, err
	}
	return orderPO.ToDomain()
}

// Search translates the specification into WHERE clauses; newest first.
func (r *OrderRepository) Search(ctx context.Context, criteria order.SearchCriteria) ([]*order.Order, int64, error) {
	scope, err := r.translator.Translate(criteria.Spec)
	if err != nil {
		return nil, 0, err
	}
	db := conn(ctx, r.db).Model(&po.OrderPO{}).Scopes(scope)

	var total int64
	if err := db.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query := db.Order("created_at DESC").Order("id DESC")
	if !criteria.All {
		criteria = criteria.Normalize()
		query = query.Offset(criteria.Offset()).Limit(criteria.PageSize)
	}

	var orderPOs []po.OrderPO
	if err := query.Find(&orderPOs).Error; err != nil {
		return nil, 0, err
	}

	orders := make([]*order.Order, 0, len(orderPOs))
	for i := range orderPOs {
		o, err := orderPOs[i].ToDomain()
		if err != nil {
			return nil, 0, err
		}
		orders = append(orders, o)
	}
	return orders, total, nil
}

// Compile-time interface implementation check
var _ order.Repository = (*OrderRepository)(nil)

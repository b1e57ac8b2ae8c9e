/*
Package memory 内存持久化实现，供本地开发、演示与测试使用。

仓储保存聚合的 DTO 快照而不是指针，读取时重建聚合，
避免调用方在未 Save 的情况下修改到仓储内的状态。
*/
package memory

import (
	"context"
	"sort"
	"sync"

	"storefront/domain/order"
)

// OrderRepository in-memory order.Repository
type OrderRepository struct {
	orders map[string]order.ReconstructionDTO
	mu     sync.RWMutex
}

func NewOrderRepository() *OrderRepository {
	return &OrderRepository{orders: make(map[string]order.ReconstructionDTO)}
}

func (r *OrderRepository) Save(_ context.Context, o *order.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, exists := r.orders[o.ID()]
	if o.IsNew() {
		if exists {
			return order.NewConcurrentModificationError(o.ID())
		}
	} else if !exists || existing.Version != o.Version() {
		return order.NewConcurrentModificationError(o.ID())
	}

	o.IncrementVersionForSave()
	o.MarkPersisted()
	r.orders[o.ID()] = o.ToDTO()
	return nil
}

func (r *OrderRepository) FindByID(_ context.Context, id string) (*order.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	dto, exists := r.orders[id]
	if !exists {
		return nil, order.NewOrderNotFoundError(id)
	}
	return order.RebuildFromDTO(dto), nil
}

func (r *OrderRepository) FindByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*order.Order, error) {
	matches, _, err := r.Search(ctx, order.SearchCriteria{
		Spec: order.ByGatewayOrderIDSpecification{GatewayOrderID: gatewayOrderID},
		All:  true,
	})
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, order.NewOrderNotFoundError("razorpay:" + gatewayOrderID)
	}
	return matches[0], nil
}

// Search filters with the specification in memory, newest first.
func (r *OrderRepository) Search(ctx context.Context, criteria order.SearchCriteria) ([]*order.Order, int64, error) {
	r.mu.RLock()
	matched := make([]*order.Order, 0, len(r.orders))
	for _, dto := range r.orders {
		o := order.RebuildFromDTO(dto)
		if criteria.Spec == nil || criteria.Spec.IsSatisfiedBy(ctx, o) {
			matched = append(matched, o)
		}
	}
	r.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].CreatedAt().Equal(matched[j].CreatedAt()) {
			return matched[i].ID() > matched[j].ID()
		}
		return matched[i].CreatedAt().After(matched[j].CreatedAt())
	})

	total := int64(len(matched))
	if criteria.All {
		return matched, total, nil
	}

	criteria = criteria.Normalize()
	start := criteria.Offset()
	if start >= len(matched) {
		return []*order.Order{}, total, nil
	}
	end := start + criteria.PageSize
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

var _ order.Repository = (*OrderRepository)(nil)

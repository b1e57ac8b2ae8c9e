package order

import (
	"context"
	"time"

	"storefront/domain/shared"
)

// ByUserIDSpecification filters orders by owner
type ByUserIDSpecification struct {
	UserID string
}

func (spec ByUserIDSpecification) IsSatisfiedBy(_ context.Context, entity *Order) bool {
	return entity.UserID() == spec.UserID
}

// ByStatusSpecification filters orders by status
type ByStatusSpecification struct {
	Status Status
}

func (spec ByStatusSpecification) IsSatisfiedBy(_ context.Context, entity *Order) bool {
	return entity.Status() == spec.Status
}

// ByGatewayOrderIDSpecification matches the stored razorpay order id
type ByGatewayOrderIDSpecification struct {
	GatewayOrderID string
}

func (spec ByGatewayOrderIDSpecification) IsSatisfiedBy(_ context.Context, entity *Order) bool {
	p := entity.Payment()
	return p != nil && spec.GatewayOrderID != "" && p.GatewayOrderID == spec.GatewayOrderID
}

// ByDateRangeSpecification filters orders by creation date range.
// Zero bounds are ignored.
type ByDateRangeSpecification struct {
	Start time.Time
	End   time.Time
}

func (spec ByDateRangeSpecification) IsSatisfiedBy(_ context.Context, entity *Order) bool {
	createdAt := entity.CreatedAt()
	if !spec.Start.IsZero() && createdAt.Before(spec.Start) {
		return false
	}
	if !spec.End.IsZero() && createdAt.After(spec.End) {
		return false
	}
	return true
}

// PendingRefundSpecification orders whose outcome still awaits a refund
type PendingRefundSpecification struct{}

func (PendingRefundSpecification) IsSatisfiedBy(_ context.Context, entity *Order) bool {
	outcome := entity.Outcome()
	return outcome != nil && outcome.Refund().Pending()
}

func NewByUserIDSpecification(userID string) shared.Specification[*Order] {
	return ByUserIDSpecification{UserID: userID}
}

func NewByStatusSpecification(status Status) shared.Specification[*Order] {
	return ByStatusSpecification{Status: status}
}

func NewByDateRangeSpecification(start, end time.Time) shared.Specification[*Order] {
	return ByDateRangeSpecification{Start: start, End: end}
}

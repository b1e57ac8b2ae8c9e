/*
Package specification translates order specifications into native queries:
GORM scopes for MySQL and BSON filters for MongoDB.
*/
package specification

import (
	"fmt"

	"storefront/domain/order"
	"storefront/domain/shared"

	"gorm.io/gorm"
)

// Scope a GORM query fragment
type Scope func(*gorm.DB) *gorm.DB

// ErrUnsupported returned for specification types without a native form
type ErrUnsupported struct {
	Spec any
}

func (e *ErrUnsupported) Error() string {
	return fmt.Sprintf("specification %T has no query translation", e.Spec)
}

// GormTranslator converts order specifications to GORM scopes
type GormTranslator struct{}

func NewGormTranslator() *GormTranslator {
	return &GormTranslator{}
}

// Translate returns a scope for spec; a nil spec matches everything.
func (t *GormTranslator) Translate(spec shared.Specification[*order.Order]) (Scope, error) {
	if spec == nil {
		return func(db *gorm.DB) *gorm.DB { return db }, nil
	}

	switch s := spec.(type) {
	case shared.AndSpecification[*order.Order]:
		scopes := make([]Scope, 0, len(s.Specs))
		for _, inner := range s.Specs {
			scope, err := t.Translate(inner)
			if err != nil {
				return nil, err
			}
			scopes = append(scopes, scope)
		}
		return func(db *gorm.DB) *gorm.DB {
			for _, scope := range scopes {
				db = scope(db)
			}
			return db
		}, nil
	case shared.NotSpecification[*order.Order]:
		return t.translateNot(s.Spec)
	}
	return t.translateConcrete(spec)
}

func (t *GormTranslator) translateConcrete(spec shared.Specification[*order.Order]) (Scope, error) {
	switch s := spec.(type) {
	case order.ByUserIDSpecification:
		return func(db *gorm.DB) *gorm.DB {
			return db.Where("user_id = ?", s.UserID)
		}, nil
	case order.ByStatusSpecification:
		return func(db *gorm.DB) *gorm.DB {
			return db.Where("status = ?", string(s.Status))
		}, nil
	case order.ByGatewayOrderIDSpecification:
		return func(db *gorm.DB) *gorm.DB {
			return db.Where("gateway_order_id = ? AND gateway_order_id <> ''", s.GatewayOrderID)
		}, nil
	case order.ByDateRangeSpecification:
		return func(db *gorm.DB) *gorm.DB {
			if !s.Start.IsZero() {
				db = db.Where("created_at >= ?", s.Start)
			}
			if !s.End.IsZero() {
				db = db.Where("created_at <= ?", s.End)
			}
			return db
		}, nil
	case order.PendingRefundSpecification:
		return func(db *gorm.DB) *gorm.DB {
			return db.Where("JSON_UNQUOTE(JSON_EXTRACT(outcome, '$.refund_status')) = ?", string(order.RefundStatusPending))
		}, nil
	}
	return nil, &ErrUnsupported{Spec: spec}
}

func (t *GormTranslator) translateNot(spec shared.Specification[*order.Order]) (Scope, error) {
	switch s := spec.(type) {
	case order.ByUserIDSpecification:
		return func(db *gorm.DB) *gorm.DB {
			return db.Where("user_id <> ?", s.UserID)
		}, nil
	case order.ByStatusSpecification:
		return func(db *gorm.DB) *gorm.DB {
			return db.Where("status <> ?", string(s.Status))
		}, nil
	case shared.NotSpecification[*order.Order]:
		return t.Translate(s.Spec)
	}
	return nil, &ErrUnsupported{Spec: shared.Not(spec)}
}

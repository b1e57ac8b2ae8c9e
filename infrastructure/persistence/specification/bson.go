package specification

import (
	"storefront/domain/order"
	"storefront/domain/shared"

	"go.mongodb.org/mongo-driver/bson"
)

// BSONTranslator converts order specifications to MongoDB filters
type BSONTranslator struct{}

func NewBSONTranslator() *BSONTranslator {
	return &BSONTranslator{}
}

// Translate returns a filter for spec; a nil spec matches everything.
func (t *BSONTranslator) Translate(spec shared.Specification[*order.Order]) (bson.M, error) {
	if spec == nil {
		return bson.M{}, nil
	}

	switch s := spec.(type) {
	case shared.AndSpecification[*order.Order]:
		if len(s.Specs) == 0 {
			return bson.M{}, nil
		}
		clauses := make(bson.A, 0, len(s.Specs))
		for _, inner := range s.Specs {
			f, err := t.Translate(inner)
			if err != nil {
				return nil, err
			}
			clauses = append(clauses, f)
		}
		return bson.M{"$and": clauses}, nil
	case shared.NotSpecification[*order.Order]:
		f, err := t.Translate(s.Spec)
		if err != nil {
			return nil, err
		}
		return bson.M{"$nor": bson.A{f}}, nil
	case order.ByUserIDSpecification:
		return bson.M{"user_id": s.UserID}, nil
	case order.ByStatusSpecification:
		return bson.M{"status": string(s.Status)}, nil
	case order.ByGatewayOrderIDSpecification:
		if s.GatewayOrderID == "" {
			return bson.M{"_id": bson.M{"$exists": false}}, nil
		}
		return bson.M{"payment.gateway_order_id": s.GatewayOrderID}, nil
	case order.ByDateRangeSpecification:
		created := bson.M{}
		if !s.Start.IsZero() {
			created["$gte"] = s.Start
		}
		if !s.End.IsZero() {
			created["$lte"] = s.End
		}
		if len(created) == 0 {
			return bson.M{}, nil
		}
		return bson.M{"created_at": created}, nil
	case order.PendingRefundSpecification:
		return bson.M{"outcome.refund_status": string(order.RefundStatusPending)}, nil
	}
	return nil, &ErrUnsupported{Spec: spec}
}

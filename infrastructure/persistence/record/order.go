/*
Package record holds the storage shapes of an order's value objects.
The same records are written as JSON columns by the MySQL adapter and as
embedded documents by the MongoDB adapter.
*/
package record

import (
	"time"

	"storefront/domain/order"
	"storefront/domain/shared"
)

// ItemRecord JSON shape of one order line
type ItemRecord struct {
	ID        string `json:"id" bson:"id"`
	ProductID string `json:"product_id" bson:"product_id"`
	Name      string `json:"name" bson:"name"`
	Image     string `json:"image,omitempty" bson:"image,omitempty"`
	Price     int64  `json:"price" bson:"price"`
	Quantity  int    `json:"quantity" bson:"quantity"`
}

type AddressRecord struct {
	FullName   string `json:"full_name" bson:"full_name"`
	Phone      string `json:"phone,omitempty" bson:"phone,omitempty"`
	Line1      string `json:"line1" bson:"line1"`
	Line2      string `json:"line2,omitempty" bson:"line2,omitempty"`
	City       string `json:"city" bson:"city"`
	State      string `json:"state,omitempty" bson:"state,omitempty"`
	PostalCode string `json:"postal_code" bson:"postal_code"`
	Country    string `json:"country,omitempty" bson:"country,omitempty"`
}

type ShippingRecord struct {
	TrackingNumber    string        `json:"tracking_number" bson:"tracking_number"`
	Carrier           string        `json:"carrier" bson:"carrier"`
	Method            string        `json:"method" bson:"method"`
	EstimatedDelivery time.Time     `json:"estimated_delivery" bson:"estimated_delivery"`
	Cost              int64         `json:"cost" bson:"cost"`
	Address           AddressRecord `json:"address" bson:"address"`
}

type StatusChangeRecord struct {
	Status    string    `json:"status" bson:"status"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
	Note      string    `json:"note,omitempty" bson:"note,omitempty"`
}

type NoteRecord struct {
	Content    string    `json:"content" bson:"content"`
	CreatedBy  string    `json:"created_by" bson:"created_by"`
	IsInternal bool      `json:"is_internal" bson:"is_internal"`
	Timestamp  time.Time `json:"timestamp" bson:"timestamp"`
}

// OutcomeRecord refund_status is queried by PendingRefundSpecification.
type OutcomeRecord struct {
	Kind                 string     `json:"kind" bson:"kind"`
	Reason               string     `json:"reason" bson:"reason"`
	RequestedAt          time.Time  `json:"requested_at" bson:"requested_at"`
	ReturnTrackingNumber string     `json:"return_tracking_number,omitempty" bson:"return_tracking_number,omitempty"`
	RefundStatus         string     `json:"refund_status" bson:"refund_status"`
	RefundedAmount       *int64     `json:"refunded_amount,omitempty" bson:"refunded_amount,omitempty"`
	RefundedAt           *time.Time `json:"refunded_at,omitempty" bson:"refunded_at,omitempty"`
}

// OrderDocument value-object snapshot of an order, shared by the SQL and
// document adapters.
type OrderDocument struct {
	Items         []ItemRecord
	Shipping      ShippingRecord
	StatusHistory []StatusChangeRecord
	Notes         []NoteRecord
	Outcome       *OutcomeRecord
}

// NewOrderDocument flattens the aggregate's value objects.
func NewOrderDocument(dto order.ReconstructionDTO) OrderDocument {
	doc := OrderDocument{
		Items:         make([]ItemRecord, len(dto.Items)),
		StatusHistory: make([]StatusChangeRecord, len(dto.StatusHistory)),
		Notes:         make([]NoteRecord, len(dto.Notes)),
	}
	for i, item := range dto.Items {
		doc.Items[i] = ItemRecord{
			ID:        item.ID(),
			ProductID: item.ProductID(),
			Name:      item.Name(),
			Image:     item.Image(),
			Price:     item.Price().Amount(),
			Quantity:  item.Quantity(),
		}
	}

	s := dto.Shipping
	doc.Shipping = ShippingRecord{
		TrackingNumber:    s.TrackingNumber,
		Carrier:           s.Carrier,
		Method:            s.Method,
		EstimatedDelivery: s.EstimatedDelivery,
		Cost:              s.Cost.Amount(),
		Address: AddressRecord{
			FullName:   s.Address.FullName,
			Phone:      s.Address.Phone,
			Line1:      s.Address.Line1,
			Line2:      s.Address.Line2,
			City:       s.Address.City,
			State:      s.Address.State,
			PostalCode: s.Address.PostalCode,
			Country:    s.Address.Country,
		},
	}

	for i, h := range dto.StatusHistory {
		doc.StatusHistory[i] = StatusChangeRecord{Status: string(h.Status), Timestamp: h.Timestamp, Note: h.Note}
	}
	for i, n := range dto.Notes {
		doc.Notes[i] = NoteRecord{Content: n.Content, CreatedBy: n.CreatedBy, IsInternal: n.IsInternal, Timestamp: n.Timestamp}
	}

	if out := dto.Outcome; out != nil {
		rec := &OutcomeRecord{
			Kind:                 string(out.Kind),
			Reason:               out.Reason,
			RequestedAt:          out.RequestedAt,
			ReturnTrackingNumber: out.ReturnTrackingNumber,
			RefundStatus:         string(out.RefundStatus),
		}
		if out.RefundedAmount != nil {
			amount := out.RefundedAmount.Amount()
			rec.RefundedAmount = &amount
		}
		if !out.RefundedAt.IsZero() {
			at := out.RefundedAt
			rec.RefundedAt = &at
		}
		doc.Outcome = rec
	}
	return doc
}

// Apply fills the value-object fields of dto; currency comes from the order row.
func (doc OrderDocument) Apply(dto *order.ReconstructionDTO, currency string) {
	money := func(amount int64) shared.Money { return *shared.NewMoney(amount, currency) }

	dto.Items = make([]order.Item, len(doc.Items))
	for i, rec := range doc.Items {
		dto.Items[i] = order.RebuildItemFromDTO(order.ItemReconstructionDTO{
			ID:        rec.ID,
			ProductID: rec.ProductID,
			Name:      rec.Name,
			Image:     rec.Image,
			Price:     money(rec.Price),
			Quantity:  rec.Quantity,
		})
	}

	a := doc.Shipping.Address
	dto.Shipping = order.Shipping{
		TrackingNumber:    doc.Shipping.TrackingNumber,
		Carrier:           doc.Shipping.Carrier,
		Method:            doc.Shipping.Method,
		EstimatedDelivery: doc.Shipping.EstimatedDelivery,
		Cost:              money(doc.Shipping.Cost),
		Address: order.Address{
			FullName:   a.FullName,
			Phone:      a.Phone,
			Line1:      a.Line1,
			Line2:      a.Line2,
			City:       a.City,
			State:      a.State,
			PostalCode: a.PostalCode,
			Country:    a.Country,
		},
	}

	dto.StatusHistory = make([]order.StatusChange, len(doc.StatusHistory))
	for i, h := range doc.StatusHistory {
		dto.StatusHistory[i] = order.StatusChange{Status: order.Status(h.Status), Timestamp: h.Timestamp, Note: h.Note}
	}
	dto.Notes = make([]order.Note, len(doc.Notes))
	for i, n := range doc.Notes {
		dto.Notes[i] = order.Note{Content: n.Content, CreatedBy: n.CreatedBy, IsInternal: n.IsInternal, Timestamp: n.Timestamp}
	}

	dto.Outcome = nil
	if rec := doc.Outcome; rec != nil {
		out := &order.OutcomeReconstructionDTO{
			Kind:                 order.OutcomeKind(rec.Kind),
			Reason:               rec.Reason,
			RequestedAt:          rec.RequestedAt,
			ReturnTrackingNumber: rec.ReturnTrackingNumber,
			RefundStatus:         order.RefundStatus(rec.RefundStatus),
		}
		if rec.RefundedAmount != nil {
			out.RefundedAmount = shared.NewMoney(*rec.RefundedAmount, currency)
		}
		if rec.RefundedAt != nil {
			out.RefundedAt = *rec.RefundedAt
		}
		dto.Outcome = out
	}
}

package po

import (
	"encoding/json"
	"fmt"
	"time"

	"storefront/domain/order"
	"storefront/domain/shared"
	"storefront/infrastructure/persistence/record"

	"gorm.io/datatypes"
)

// OrderPO Order persistence object
// Items, shipping, history, notes and the outcome are value snapshots owned by
// the aggregate; they are stored as JSON columns rather than child tables.
type OrderPO struct {
	ID               string         `gorm:"primaryKey;size:64"`
	UserID           string         `gorm:"size:64;index;not null"`
	Status           string         `gorm:"size:32;index;not null"`
	PaymentMethod    string         `gorm:"size:20;not null"`
	PaymentStatus    string         `gorm:"size:20;not null"`
	GatewayOrderID   string         `gorm:"size:64;index"`
	GatewayPaymentID string         `gorm:"size:64"`
	PaymentSignature string         `gorm:"size:255"`
	Currency         string         `gorm:"size:3;not null"`
	Subtotal         int64          `gorm:"not null"`
	Discount         int64          `gorm:"not null"`
	GrandTotal       int64          `gorm:"not null"`
	Items            datatypes.JSON `gorm:"not null"`
	Shipping         datatypes.JSON `gorm:"not null"`
	StatusHistory    datatypes.JSON
	Notes            datatypes.JSON
	Outcome          datatypes.JSON
	Version          int       `gorm:"default:0"`
	CreatedAt        time.Time `gorm:"index"`
	UpdatedAt        time.Time
}

func (OrderPO) TableName() string {
	return "orders"
}

// FromOrderDomain Convert domain model to persistence object
func FromOrderDomain(o *order.Order) (*OrderPO, error) {
	dto := o.ToDTO()
	doc := record.NewOrderDocument(dto)

	orderPO := &OrderPO{
		ID:            dto.ID,
		UserID:        dto.UserID,
		Status:        string(dto.Status),
		PaymentMethod: string(dto.PaymentMethod),
		PaymentStatus: string(dto.PaymentStatus),
		Currency:      dto.GrandTotal.Currency(),
		Subtotal:      dto.Subtotal.Amount(),
		Discount:      dto.Discount.Amount(),
		GrandTotal:    dto.GrandTotal.Amount(),
		Version:       dto.Version,
		CreatedAt:     dto.CreatedAt,
		UpdatedAt:     dto.UpdatedAt,
	}
	if p := dto.Payment; p != nil {
		orderPO.GatewayOrderID = p.GatewayOrderID
		orderPO.GatewayPaymentID = p.GatewayPaymentID
		orderPO.PaymentSignature = p.Signature
	}

	var err error
	if orderPO.Items, err = marshalJSON(doc.Items); err != nil {
		return nil, err
	}
	if orderPO.Shipping, err = marshalJSON(doc.Shipping); err != nil {
		return nil, err
	}
	if orderPO.StatusHistory, err = marshalJSON(doc.StatusHistory); err != nil {
		return nil, err
	}
	if orderPO.Notes, err = marshalJSON(doc.Notes); err != nil {
		return nil, err
	}
	if doc.Outcome != nil {
		if orderPO.Outcome, err = marshalJSON(doc.Outcome); err != nil {
			return nil, err
		}
	}
	return orderPO, nil
}

// ToDomain Convert persistence object to domain model
func (po *OrderPO) ToDomain() (*order.Order, error) {
	var doc record.OrderDocument
	if err := unmarshalJSON(po.Items, &doc.Items); err != nil {
		return nil, fmt.Errorf("order %s items: %w", po.ID, err)
	}
	if err := unmarshalJSON(po.Shipping, &doc.Shipping); err != nil {
		return nil, fmt.Errorf("order %s shipping: %w", po.ID, err)
	}
	if err := unmarshalJSON(po.StatusHistory, &doc.StatusHistory); err != nil {
		return nil, fmt.Errorf("order %s status history: %w", po.ID, err)
	}
	if err := unmarshalJSON(po.Notes, &doc.Notes); err != nil {
		return nil, fmt.Errorf("order %s notes: %w", po.ID, err)
	}
	if len(po.Outcome) > 0 && string(po.Outcome) != "null" {
		doc.Outcome = &record.OutcomeRecord{}
		if err := unmarshalJSON(po.Outcome, doc.Outcome); err != nil {
			return nil, fmt.Errorf("order %s outcome: %w", po.ID, err)
		}
	}

	dto := order.ReconstructionDTO{
		ID:            po.ID,
		UserID:        po.UserID,
		PaymentMethod: order.PaymentMethod(po.PaymentMethod),
		PaymentStatus: order.PaymentStatus(po.PaymentStatus),
		Status:        order.Status(po.Status),
		Subtotal:      *shared.NewMoney(po.Subtotal, po.Currency),
		Discount:      *shared.NewMoney(po.Discount, po.Currency),
		GrandTotal:    *shared.NewMoney(po.GrandTotal, po.Currency),
		Version:       po.Version,
		CreatedAt:     po.CreatedAt,
		UpdatedAt:     po.UpdatedAt,
	}
	if po.GatewayOrderID != "" || po.GatewayPaymentID != "" {
		dto.Payment = &order.PaymentDetails{
			GatewayOrderID:   po.GatewayOrderID,
			GatewayPaymentID: po.GatewayPaymentID,
			Signature:        po.PaymentSignature,
		}
	}
	doc.Apply(&dto, po.Currency)
	return order.RebuildFromDTO(dto), nil
}

func marshalJSON(v any) (datatypes.JSON, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(data), nil
}

func unmarshalJSON(data datatypes.JSON, v any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}

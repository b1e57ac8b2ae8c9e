package order

import (
	"strings"
	"time"

	"storefront/domain/shared"
)

// Status Order fulfillment status. The enumeration is closed.
type Status string

const (
	StatusPending        Status = "pending"
	StatusProcessing     Status = "processing"
	StatusPacked         Status = "packed"
	StatusShipped        Status = "shipped"
	StatusOutForDelivery Status = "out_for_delivery"
	StatusDelivered      Status = "delivered"
	StatusCancelled      Status = "cancelled"
	StatusReturned       Status = "returned"
	StatusRefunded       Status = "refunded"
)

var allStatuses = []Status{
	StatusPending, StatusProcessing, StatusPacked, StatusShipped, StatusOutForDelivery,
	StatusDelivered, StatusCancelled, StatusReturned, StatusRefunded,
}

// ParseStatus rejects anything outside the enumeration.
func ParseStatus(raw string) (Status, error) {
	s := Status(strings.TrimSpace(raw))
	if s.IsValid() {
		return s, nil
	}
	if s == "" {
		return "", NewInvalidStatusError(raw, "status is required")
	}
	return "", NewInvalidStatusError(raw, "unknown order status: "+raw)
}

func (s Status) IsValid() bool {
	for _, known := range allStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Cancellable reports whether a customer may still cancel.
func (s Status) Cancellable() bool {
	return s == StatusPending || s == StatusProcessing
}

func AllStatuses() []Status {
	return append([]Status(nil), allStatuses...)
}

// PaymentMethod how the customer pays
type PaymentMethod string

const (
	PaymentMethodCOD        PaymentMethod = "cod"
	PaymentMethodGPay       PaymentMethod = "gpay"
	PaymentMethodUPI        PaymentMethod = "upi"
	PaymentMethodNetBanking PaymentMethod = "netbanking"
	PaymentMethodCard       PaymentMethod = "card"
)

func ParsePaymentMethod(raw string) (PaymentMethod, error) {
	m := PaymentMethod(strings.ToLower(strings.TrimSpace(raw)))
	switch m {
	case PaymentMethodCOD, PaymentMethodGPay, PaymentMethodUPI, PaymentMethodNetBanking, PaymentMethodCard:
		return m, nil
	}
	return "", shared.NewValidationError("order", "paymentMethod", "unsupported payment method: "+raw)
}

// InitialPaymentStatus cash on delivery stays pending; online methods are
// optimistically paid and reconciled by signature verification.
func (m PaymentMethod) InitialPaymentStatus() PaymentStatus {
	if m == PaymentMethodCOD {
		return PaymentStatusPending
	}
	return PaymentStatusPaid
}

type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
)

// PaymentDetails gateway identifiers captured for an order
type PaymentDetails struct {
	GatewayOrderID   string
	GatewayPaymentID string
	Signature        string
}

// IsComplete reports whether all three gateway values are present.
func (p PaymentDetails) IsComplete() bool {
	return p.GatewayOrderID != "" && p.GatewayPaymentID != "" && p.Signature != ""
}

// Address shipping destination
type Address struct {
	FullName   string
	Phone      string
	Line1      string
	Line2      string
	City       string
	State      string
	PostalCode string
	Country    string
}

func (a Address) Validate() error {
	switch {
	case strings.TrimSpace(a.FullName) == "":
		return shared.NewValidationError("order", "shippingAddress.fullName", "shipping address requires a recipient name")
	case strings.TrimSpace(a.Line1) == "":
		return shared.NewValidationError("order", "shippingAddress.line1", "shipping address requires a street line")
	case strings.TrimSpace(a.City) == "":
		return shared.NewValidationError("order", "shippingAddress.city", "shipping address requires a city")
	case strings.TrimSpace(a.PostalCode) == "":
		return shared.NewValidationError("order", "shippingAddress.postalCode", "shipping address requires a postal code")
	}
	return nil
}

// Shipping carrier assignment and delivery estimate
type Shipping struct {
	TrackingNumber    string
	Carrier           string
	Method            string
	EstimatedDelivery time.Time
	Cost              shared.Money
	Address           Address
}

// StatusChange one statusHistory entry
type StatusChange struct {
	Status    Status
	Timestamp time.Time
	Note      string
}

// Note admin or customer annotation
type Note struct {
	Content    string
	CreatedBy  string
	IsInternal bool
	Timestamp  time.Time
}

// Package notification defines the outbound customer notification port.
package notification

import "context"

// Kind notification template selector
type Kind string

const (
	KindOrderConfirmation Kind = "orderConfirmation"
	KindOrderStatusUpdate Kind = "orderStatusUpdate"
	KindOrderCancellation Kind = "orderCancellation"
	KindReturnRequest     Kind = "returnRequest"
	KindRefundProcessed   Kind = "refundProcessed"
)

// Message one notification to a single recipient
type Message struct {
	Recipient     string
	RecipientName string
	Kind          Kind
	Subject       string
	Payload       map[string]any
}

// Sender NotificationSender port. Callers treat errors as best-effort.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Subject default subject line per kind
func (k Kind) Subject(orderID string) string {
	short := orderID
	if len(short) > 8 {
		short = short[len(short)-8:]
	}
	switch k {
	case KindOrderConfirmation:
		return "Order Confirmation - #" + short
	case KindOrderStatusUpdate:
		return "Order Update - #" + short
	case KindOrderCancellation:
		return "Order Cancelled - #" + short
	case KindReturnRequest:
		return "Return Request Received - #" + short
	case KindRefundProcessed:
		return "Refund Processed - #" + short
	}
	return "Your order #" + short
}

package order

import (
	"time"

	"storefront/domain/shared"
)

const (
	EventOrderPlaced      = "order.placed"
	EventStatusChanged    = "order.status_changed"
	EventOrderCancelled   = "order.cancelled"
	EventReturnRequested  = "order.return_requested"
	EventRefundProcessed  = "order.refund_processed"
	EventPaymentCaptured  = "order.payment_captured"
	EventPlacementAborted = "order.placement_aborted"
)

type OrderPlacedEvent struct {
	orderID    string
	userID     string
	grandTotal shared.Money
	method     PaymentMethod
	occurredOn time.Time
}

func NewOrderPlacedEvent(orderID, userID string, grandTotal shared.Money, method PaymentMethod, at time.Time) *OrderPlacedEvent {
	return &OrderPlacedEvent{orderID: orderID, userID: userID, grandTotal: grandTotal, method: method, occurredOn: at}
}

func (e *OrderPlacedEvent) EventName() string        { return EventOrderPlaced }
func (e *OrderPlacedEvent) OccurredOn() time.Time    { return e.occurredOn }
func (e *OrderPlacedEvent) GetAggregateID() string   { return e.orderID }
func (e *OrderPlacedEvent) UserID() string           { return e.userID }
func (e *OrderPlacedEvent) GrandTotal() shared.Money { return e.grandTotal }
func (e *OrderPlacedEvent) Payload() map[string]any {
	return map[string]any{
		"order_id":       e.orderID,
		"user_id":        e.userID,
		"grand_total":    e.grandTotal.Amount(),
		"currency":       e.grandTotal.Currency(),
		"payment_method": string(e.method),
	}
}

type OrderStatusChangedEvent struct {
	orderID    string
	userID     string
	previous   Status
	current    Status
	note       string
	occurredOn time.Time
}

func NewOrderStatusChangedEvent(orderID, userID string, previous, current Status, note string, at time.Time) *OrderStatusChangedEvent {
	return &OrderStatusChangedEvent{orderID: orderID, userID: userID, previous: previous, current: current, note: note, occurredOn: at}
}

func (e *OrderStatusChangedEvent) EventName() string      { return EventStatusChanged }
func (e *OrderStatusChangedEvent) OccurredOn() time.Time  { return e.occurredOn }
func (e *OrderStatusChangedEvent) GetAggregateID() string { return e.orderID }
func (e *OrderStatusChangedEvent) Previous() Status       { return e.previous }
func (e *OrderStatusChangedEvent) Current() Status        { return e.current }
func (e *OrderStatusChangedEvent) Payload() map[string]any {
	return map[string]any{
		"order_id":        e.orderID,
		"user_id":         e.userID,
		"previous_status": string(e.previous),
		"status":          string(e.current),
		"note":            e.note,
	}
}

type OrderCancelledEvent struct {
	orderID    string
	userID     string
	reason     string
	occurredOn time.Time
}

func NewOrderCancelledEvent(orderID, userID, reason string, at time.Time) *OrderCancelledEvent {
	return &OrderCancelledEvent{orderID: orderID, userID: userID, reason: reason, occurredOn: at}
}

func (e *OrderCancelledEvent) EventName() string      { return EventOrderCancelled }
func (e *OrderCancelledEvent) OccurredOn() time.Time  { return e.occurredOn }
func (e *OrderCancelledEvent) GetAggregateID() string { return e.orderID }
func (e *OrderCancelledEvent) Reason() string         { return e.reason }
func (e *OrderCancelledEvent) Payload() map[string]any {
	return map[string]any{"order_id": e.orderID, "user_id": e.userID, "reason": e.reason}
}

type ReturnRequestedEvent struct {
	orderID        string
	userID         string
	reason         string
	trackingNumber string
	occurredOn     time.Time
}

func NewReturnRequestedEvent(orderID, userID, reason, trackingNumber string, at time.Time) *ReturnRequestedEvent {
	return &ReturnRequestedEvent{orderID: orderID, userID: userID, reason: reason, trackingNumber: trackingNumber, occurredOn: at}
}

func (e *ReturnRequestedEvent) EventName() string      { return EventReturnRequested }
func (e *ReturnRequestedEvent) OccurredOn() time.Time  { return e.occurredOn }
func (e *ReturnRequestedEvent) GetAggregateID() string { return e.orderID }
func (e *ReturnRequestedEvent) Payload() map[string]any {
	return map[string]any{
		"order_id":               e.orderID,
		"user_id":                e.userID,
		"reason":                 e.reason,
		"return_tracking_number": e.trackingNumber,
	}
}

type RefundProcessedEvent struct {
	orderID    string
	userID     string
	branch     OutcomeKind
	amount     shared.Money
	occurredOn time.Time
}

func NewRefundProcessedEvent(orderID, userID string, branch OutcomeKind, amount shared.Money, at time.Time) *RefundProcessedEvent {
	return &RefundProcessedEvent{orderID: orderID, userID: userID, branch: branch, amount: amount, occurredOn: at}
}

func (e *RefundProcessedEvent) EventName() string      { return EventRefundProcessed }
func (e *RefundProcessedEvent) OccurredOn() time.Time  { return e.occurredOn }
func (e *RefundProcessedEvent) GetAggregateID() string { return e.orderID }
func (e *RefundProcessedEvent) Amount() shared.Money   { return e.amount }
func (e *RefundProcessedEvent) Payload() map[string]any {
	return map[string]any{
		"order_id": e.orderID,
		"user_id":  e.userID,
		"branch":   string(e.branch),
		"amount":   e.amount.Amount(),
		"currency": e.amount.Currency(),
	}
}

type PaymentCapturedEvent struct {
	orderID          string
	userID           string
	gatewayOrderID   string
	gatewayPaymentID string
	occurredOn       time.Time
}

func NewPaymentCapturedEvent(orderID, userID string, details PaymentDetails, at time.Time) *PaymentCapturedEvent {
	return &PaymentCapturedEvent{
		orderID:          orderID,
		userID:           userID,
		gatewayOrderID:   details.GatewayOrderID,
		gatewayPaymentID: details.GatewayPaymentID,
		occurredOn:       at,
	}
}

func (e *PaymentCapturedEvent) EventName() string      { return EventPaymentCaptured }
func (e *PaymentCapturedEvent) OccurredOn() time.Time  { return e.occurredOn }
func (e *PaymentCapturedEvent) GetAggregateID() string { return e.orderID }
func (e *PaymentCapturedEvent) Payload() map[string]any {
	return map[string]any{
		"order_id":            e.orderID,
		"user_id":             e.userID,
		"razorpay_order_id":   e.gatewayOrderID,
		"razorpay_payment_id": e.gatewayPaymentID,
	}
}

// PlacementAbortedEvent stock could not be reserved after the order was stored.
type PlacementAbortedEvent struct {
	orderID    string
	userID     string
	reason     string
	occurredOn time.Time
}

func (e *PlacementAbortedEvent) EventName() string      { return EventPlacementAborted }
func (e *PlacementAbortedEvent) OccurredOn() time.Time  { return e.occurredOn }
func (e *PlacementAbortedEvent) GetAggregateID() string { return e.orderID }
func (e *PlacementAbortedEvent) Payload() map[string]any {
	return map[string]any{"order_id": e.orderID, "user_id": e.userID, "reason": e.reason}
}

/*
Package notification turns committed order events into customer notifications.

Delivery is best-effort: every failure is logged and swallowed so a broken mail
provider never fails an order operation or blocks the outbox.
*/
package notification

import (
	"context"
	"errors"

	"storefront/domain/notification"
	"storefront/domain/order"
	"storefront/domain/shared"
	"storefront/domain/user"
	"storefront/pkg/logger"

	"go.uber.org/zap"
)

// kindByEvent 事件到通知类型的映射；未列出的事件不发送通知
var kindByEvent = map[string]notification.Kind{
	order.EventOrderPlaced:     notification.KindOrderConfirmation,
	order.EventStatusChanged:   notification.KindOrderStatusUpdate,
	order.EventOrderCancelled:  notification.KindOrderCancellation,
	order.EventReturnRequested: notification.KindReturnRequest,
	order.EventRefundProcessed: notification.KindRefundProcessed,
}

// Dispatcher shared.EventHandler that sends one notification per order event
type Dispatcher struct {
	orders    order.Repository
	directory user.Directory
	sender    notification.Sender
}

func NewDispatcher(orders order.Repository, directory user.Directory, sender notification.Sender) *Dispatcher {
	return &Dispatcher{orders: orders, directory: directory, sender: sender}
}

func (d *Dispatcher) Name() string { return "notification-dispatcher" }

// Subscribe registers the dispatcher for every notifiable event.
func (d *Dispatcher) Subscribe(bus *shared.EventBus) error {
	for eventName := range kindByEvent {
		if err := bus.Subscribe(eventName, d); err != nil {
			return err
		}
	}
	return nil
}

// Handle never returns an error.
func (d *Dispatcher) Handle(ctx context.Context, event shared.DomainEvent) error {
	kind, ok := kindByEvent[event.EventName()]
	if !ok {
		return nil
	}
	log := logger.FromContext(ctx).With(
		zap.String("event", event.EventName()),
		zap.String("order_id", event.GetAggregateID()),
		zap.String("kind", string(kind)))

	msg, err := d.buildMessage(ctx, kind, event)
	if err != nil {
		if errors.Is(err, errNoRecipient) {
			log.Debug("Notification skipped: no recipient")
			return nil
		}
		log.Warn("Failed to prepare notification", zap.Error(err))
		return nil
	}

	if err := d.sender.Send(ctx, *msg); err != nil {
		log.Error("Failed to send notification", zap.Error(err))
		return nil
	}
	log.Info("Notification sent", zap.String("recipient", maskEmail(msg.Recipient)))
	return nil
}

var errNoRecipient = errors.New("order owner has no email address")

func maskEmail(address string) string {
	email, err := user.NewEmail(address)
	if err != nil {
		return ""
	}
	return email.Masked()
}

func (d *Dispatcher) buildMessage(ctx context.Context, kind notification.Kind, event shared.DomainEvent) (*notification.Message, error) {
	o, err := d.orders.FindByID(ctx, event.GetAggregateID())
	if err != nil {
		return nil, err
	}
	owner, err := d.directory.FindByID(ctx, o.UserID())
	if err != nil {
		return nil, err
	}
	if owner.Email().IsZero() {
		return nil, errNoRecipient
	}

	return &notification.Message{
		Recipient:     owner.Email().Value(),
		RecipientName: owner.Name(),
		Kind:          kind,
		Subject:       kind.Subject(o.ID()),
		Payload:       orderPayload(o, event),
	}, nil
}

// eventFields payload keys copied over the order snapshot. The worker may
// deliver several events of one order after later changes were committed.
var eventFields = map[string]string{
	"status":                 "status",
	"note":                   "note",
	"reason":                 "reason",
	"return_tracking_number": "returnTrackingNumber",
}

// orderPayload template variables: the current order, overridden by what the
// event itself recorded.
func orderPayload(o *order.Order, event shared.DomainEvent) map[string]any {
	items := make([]map[string]any, 0, len(o.Items()))
	for _, item := range o.Items() {
		items = append(items, map[string]any{
			"name":     item.Name(),
			"quantity": item.Quantity(),
			"price":    item.Price().Decimal().StringFixed(2),
		})
	}

	payload := map[string]any{
		"orderId":           o.ID(),
		"status":            string(o.Status()),
		"paymentMethod":     string(o.PaymentMethod()),
		"paymentStatus":     string(o.PaymentStatus()),
		"grandTotal":        o.GrandTotal().Decimal().StringFixed(2),
		"currency":          o.GrandTotal().Currency(),
		"trackingNumber":    o.Shipping().TrackingNumber,
		"carrier":           o.Shipping().Carrier,
		"estimatedDelivery": o.EstimatedDelivery().Format("2006-01-02"),
		"items":             items,
	}

	if history := o.StatusHistory(); len(history) > 0 {
		payload["note"] = history[len(history)-1].Note
	}
	if outcome := o.Outcome(); outcome != nil {
		payload["reason"] = outcome.Reason()
		if r := outcome.Refund(); !r.Pending() && r.Amount != nil {
			payload["refundAmount"] = r.Amount.Decimal().StringFixed(2)
		}
		if ret, ok := outcome.(*order.Return); ok && ret.ReturnTrackingNumber() != "" {
			payload["returnTrackingNumber"] = ret.ReturnTrackingNumber()
		}
	}
	if p, ok := event.(shared.EventPayloader); ok {
		data := p.Payload()
		for from, to := range eventFields {
			if v, ok := data[from].(string); ok {
				payload[to] = v
			}
		}
	}
	payload["occurredAt"] = event.OccurredOn()
	return payload
}

var _ shared.EventHandler = (*Dispatcher)(nil)

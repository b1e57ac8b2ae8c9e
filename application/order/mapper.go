package order

import (
	"time"

	"storefront/domain/order"
	"storefront/domain/shared"

	"github.com/shopspring/decimal"
)

func toAddress(req AddressRequest) order.Address {
	return order.Address{
		FullName:   req.FullName,
		Phone:      req.Phone,
		Line1:      req.Line1,
		Line2:      req.Line2,
		City:       req.City,
		State:      req.State,
		PostalCode: req.PostalCode,
		Country:    req.Country,
	}
}

func fromAddress(a order.Address) AddressRequest {
	return AddressRequest{
		FullName:   a.FullName,
		Phone:      a.Phone,
		Line1:      a.Line1,
		Line2:      a.Line2,
		City:       a.City,
		State:      a.State,
		PostalCode: a.PostalCode,
		Country:    a.Country,
	}
}

func toLineRequests(items []OrderItemRequest) []order.LineRequest {
	lines := make([]order.LineRequest, len(items))
	for i, item := range items {
		lines[i] = order.LineRequest{ProductID: item.ProductID, Quantity: item.Quantity}
	}
	return lines
}

func toPaymentDetails(req *PaymentRequest) *order.PaymentDetails {
	if req == nil || (req.GatewayOrderID == "" && req.GatewayPaymentID == "" && req.Signature == "") {
		return nil
	}
	return &order.PaymentDetails{
		GatewayOrderID:   req.GatewayOrderID,
		GatewayPaymentID: req.GatewayPaymentID,
		Signature:        req.Signature,
	}
}

func toItemResponses(items []order.Item) []OrderItemResponse {
	responses := make([]OrderItemResponse, len(items))
	for i, item := range items {
		line, err := item.LineTotal()
		if err != nil {
			line = shared.Zero(item.Price().Currency())
		}
		responses[i] = OrderItemResponse{
			ID:        item.ID(),
			ProductID: item.ProductID(),
			Name:      item.Name(),
			Image:     item.Image(),
			Price:     item.Price().Decimal(),
			Quantity:  item.Quantity(),
			LineTotal: line.Decimal(),
		}
	}
	return responses
}

func toShippingResponse(s order.Shipping) ShippingResponse {
	return ShippingResponse{
		TrackingNumber:    s.TrackingNumber,
		Carrier:           s.Carrier,
		Method:            s.Method,
		EstimatedDelivery: s.EstimatedDelivery,
		ShippingCost:      s.Cost.Decimal(),
		Address:           fromAddress(s.Address),
	}
}

func toStatusHistory(history []order.StatusChange) []StatusChangeResponse {
	responses := make([]StatusChangeResponse, len(history))
	for i, h := range history {
		responses[i] = StatusChangeResponse{Status: string(h.Status), Timestamp: h.Timestamp, Note: h.Note}
	}
	return responses
}

func toNotes(notes []order.Note) []NoteResponse {
	responses := make([]NoteResponse, len(notes))
	for i, n := range notes {
		responses[i] = NoteResponse{Content: n.Content, CreatedBy: n.CreatedBy, IsInternal: n.IsInternal, Timestamp: n.Timestamp}
	}
	return responses
}

func refundFields(r order.Refund) (*decimal.Decimal, *time.Time) {
	if r.Pending() || r.Amount == nil {
		return nil, nil
	}
	amount := r.Amount.Decimal()
	at := r.Processed
	return &amount, &at
}

// toOrderResponse includeInternal=false hides admin-only notes
func toOrderResponse(o *order.Order, includeInternal bool) *OrderResponse {
	notes := o.Notes()
	if !includeInternal {
		notes = o.CustomerNotes()
	}

	resp := &OrderResponse{
		ID:            o.ID(),
		UserID:        o.UserID(),
		Items:         toItemResponses(o.Items()),
		Shipping:      toShippingResponse(o.Shipping()),
		PaymentMethod: string(o.PaymentMethod()),
		PaymentStatus: string(o.PaymentStatus()),
		Status:        string(o.Status()),
		StatusHistory: toStatusHistory(o.StatusHistory()),
		Notes:         toNotes(notes),
		Subtotal:      o.Subtotal().Decimal(),
		Discount:      o.Discount().Decimal(),
		GrandTotal:    o.GrandTotal().Decimal(),
		Currency:      o.GrandTotal().Currency(),
		CreatedAt:     o.CreatedAt(),
		UpdatedAt:     o.UpdatedAt(),
	}
	if p := o.Payment(); p != nil {
		resp.Payment = &PaymentRequest{
			GatewayOrderID:   p.GatewayOrderID,
			GatewayPaymentID: p.GatewayPaymentID,
			Signature:        p.Signature,
		}
	}

	switch outcome := o.Outcome().(type) {
	case *order.Cancellation:
		amount, at := refundFields(outcome.Refund())
		resp.Cancellation = &CancellationResponse{
			IsCancelled:    true,
			Reason:         outcome.Reason(),
			CancelledAt:    outcome.RequestedAt(),
			RefundStatus:   string(outcome.Refund().Status),
			RefundedAmount: amount,
			RefundedAt:     at,
		}
	case *order.Return:
		amount, at := refundFields(outcome.Refund())
		resp.Return = &ReturnResponse{
			IsReturned:     true,
			Reason:         outcome.Reason(),
			ReturnedAt:     outcome.RequestedAt(),
			TrackingNumber: outcome.ReturnTrackingNumber(),
			RefundStatus:   string(outcome.Refund().Status),
			RefundedAmount: amount,
			RefundedAt:     at,
		}
	}
	return resp
}

func toOrderResponses(orders []*order.Order, includeInternal bool) []*OrderResponse {
	responses := make([]*OrderResponse, len(orders))
	for i, o := range orders {
		responses[i] = toOrderResponse(o, includeInternal)
	}
	return responses
}

func toTrackingResponse(o *order.Order) *TrackingResponse {
	return &TrackingResponse{
		OrderID:           o.ID(),
		Status:            string(o.Status()),
		StatusHistory:     toStatusHistory(o.StatusHistory()),
		Shipping:          toShippingResponse(o.Shipping()),
		Items:             toItemResponses(o.Items()),
		CreatedAt:         o.CreatedAt(),
		EstimatedDelivery: o.EstimatedDelivery(),
	}
}

/*
Package order Order subdomain - the fulfillment aggregate.

Order is the aggregate root for an order's items snapshot, shipping assignment,
payment state, status history, notes and post-placement outcome. All fields are
private; state changes go through methods that keep the audit trail consistent
and record domain events for the unit of work to collect.
*/
package order

import (
	"fmt"
	"strings"
	"time"

	"storefront/domain/shared"

	"github.com/google/uuid"
)

const (
	DefaultCancellationReason = "Customer requested cancellation"
	DefaultReturnReason       = "Customer requested return"
	StockShortageReason       = "insufficient stock"
)

// Order aggregate root
type Order struct {
	id            string
	userID        string
	items         []Item
	shipping      Shipping
	paymentMethod PaymentMethod
	paymentStatus PaymentStatus
	payment       *PaymentDetails
	status        Status
	statusHistory []StatusChange
	notes         []Note
	outcome       FulfillmentOutcome
	subtotal      shared.Money
	discount      shared.Money
	grandTotal    shared.Money
	version       int // Optimistic lock version number
	createdAt     time.Time
	updatedAt     time.Time

	events []shared.DomainEvent
	isNew  bool
}

// Item snapshot of a catalog product at placement time. Immutable.
type Item struct {
	id        string
	productID string
	name      string
	image     string
	price     shared.Money
	quantity  int
}

// ItemRequest one resolved order line
type ItemRequest struct {
	ProductID string
	Name      string
	Image     string
	Price     shared.Money
	Quantity  int
}

// PlaceOptions everything needed to place an order
type PlaceOptions struct {
	UserID        string
	Items         []ItemRequest
	PaymentMethod PaymentMethod
	Payment       *PaymentDetails
	Shipping      Shipping
	Discount      shared.Money
	PlacedAt      time.Time
}

// NewOrder places a new order. statusHistory starts empty; the first entry is
// appended by the first status change.
func NewOrder(opts PlaceOptions) (*Order, error) {
	if strings.TrimSpace(opts.UserID) == "" {
		return nil, shared.NewValidationError("order", "userId", "user is required")
	}
	if len(opts.Items) == 0 {
		return nil, NewEmptyOrderItemsError()
	}
	if err := opts.Shipping.Address.Validate(); err != nil {
		return nil, err
	}

	currency := opts.Shipping.Cost.Currency()
	if currency == "" {
		currency = shared.DefaultCurrency
	}

	items := make([]Item, len(opts.Items))
	subtotal := shared.Zero(currency)
	for i, req := range opts.Items {
		if req.Quantity < 1 {
			return nil, NewInvalidQuantityError(req.ProductID)
		}
		if req.Price.IsNegative() {
			return nil, shared.NewValidationError("order", "items.price", "price cannot be negative")
		}

		id, err := uuid.NewV7()
		if err != nil {
			return nil, fmt.Errorf("failed to generate order item ID: %w", err)
		}
		items[i] = Item{
			id:        id.String(),
			productID: req.ProductID,
			name:      req.Name,
			image:     req.Image,
			price:     req.Price,
			quantity:  req.Quantity,
		}

		line, err := items[i].LineTotal()
		if err != nil {
			return nil, err
		}
		sum, err := subtotal.Add(line)
		if err != nil {
			return nil, err
		}
		subtotal = *sum
	}

	discount := opts.Discount
	if discount.Currency() == "" {
		discount = shared.Zero(currency)
	}
	grandTotal, err := computeGrandTotal(subtotal, opts.Shipping.Cost, discount)
	if err != nil {
		return nil, err
	}

	orderID, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate order ID: %w", err)
	}

	placedAt := opts.PlacedAt
	if placedAt.IsZero() {
		placedAt = time.Now()
	}

	o := &Order{
		id:            orderID.String(),
		userID:        opts.UserID,
		items:         items,
		shipping:      opts.Shipping,
		paymentMethod: opts.PaymentMethod,
		paymentStatus: opts.PaymentMethod.InitialPaymentStatus(),
		status:        StatusPending,
		subtotal:      subtotal,
		discount:      discount,
		grandTotal:    grandTotal,
		createdAt:     placedAt,
		updatedAt:     placedAt,
		isNew:         true,
	}
	if opts.Payment != nil {
		details := *opts.Payment
		o.payment = &details
	}

	o.recordEvent(NewOrderPlacedEvent(o.id, o.userID, o.grandTotal, o.paymentMethod, placedAt))
	return o, nil
}

// computeGrandTotal grandTotal = subtotal + shipping - discount
func computeGrandTotal(subtotal, shippingCost, discount shared.Money) (shared.Money, error) {
	if shippingCost.Currency() == "" {
		shippingCost = shared.Zero(subtotal.Currency())
	}
	if shippingCost.IsNegative() {
		return shared.Money{}, shared.NewValidationError("order", "shipping.cost", "shipping cost cannot be negative")
	}
	if discount.IsNegative() {
		return shared.Money{}, NewInvalidDiscountError("discount cannot be negative")
	}

	gross, err := subtotal.Add(shippingCost)
	if err != nil {
		return shared.Money{}, err
	}
	if discount.IsGreaterThan(*gross) {
		return shared.Money{}, NewInvalidDiscountError("discount cannot exceed order value")
	}
	total, err := gross.Subtract(discount)
	if err != nil {
		return shared.Money{}, err
	}
	return *total, nil
}

// ============================================================================
// Lifecycle behaviour
// ============================================================================

// UpdateStatus sets any status of the enumeration and appends exactly one
// history entry. Transitions are not restricted.
func (o *Order) UpdateStatus(next Status, note string, at time.Time) error {
	if !next.IsValid() {
		return NewInvalidStatusError(string(next), "unknown order status: "+string(next))
	}
	previous := o.status
	o.transition(next, note, at)
	o.recordEvent(NewOrderStatusChangedEvent(o.id, o.userID, previous, next, note, at))
	return nil
}

// AddNote appends a note; blank content is ignored.
func (o *Order) AddNote(content, createdBy string, internal bool, at time.Time) {
	content = strings.TrimSpace(content)
	if content == "" {
		return
	}
	o.notes = append(o.notes, Note{Content: content, CreatedBy: createdBy, IsInternal: internal, Timestamp: at})
	o.updatedAt = at
}

// Cancel customer cancellation, allowed only before the order enters the
// physical fulfillment pipeline. Stock is not restored.
func (o *Order) Cancel(reason string, at time.Time) error {
	if !o.status.Cancellable() || o.outcome != nil {
		return NewInvalidOrderStateError("Order cannot be cancelled at this stage")
	}
	reason = defaultIfBlank(reason, DefaultCancellationReason)

	o.outcome = &Cancellation{
		reason:      reason,
		requestedAt: at,
		refund:      Refund{Status: RefundStatusPending},
	}
	o.transition(StatusCancelled, reason, at)
	o.recordEvent(NewOrderCancelledEvent(o.id, o.userID, reason, at))
	return nil
}

// RequestReturn records a return against a delivered order. The status stays
// delivered; the return is tracked as the order's outcome.
func (o *Order) RequestReturn(reason, returnTrackingNumber string, at time.Time) error {
	if o.status != StatusDelivered {
		return NewInvalidOrderStateError("Only delivered orders can be returned")
	}
	if o.outcome != nil {
		return NewInvalidOrderStateError("A " + string(o.outcome.Kind()) + " has already been recorded for this order")
	}
	reason = defaultIfBlank(reason, DefaultReturnReason)

	o.outcome = &Return{
		reason:               reason,
		requestedAt:          at,
		returnTrackingNumber: strings.TrimSpace(returnTrackingNumber),
		refund:               Refund{Status: RefundStatusPending},
	}
	o.updatedAt = at
	o.recordEvent(NewReturnRequestedEvent(o.id, o.userID, reason, returnTrackingNumber, at))
	return nil
}

// ProcessRefund completes the pending refund on the active outcome.
// A nil amount refunds the grand total.
func (o *Order) ProcessRefund(amount *shared.Money, at time.Time) (shared.Money, error) {
	if o.outcome == nil || !o.outcome.Refund().Pending() {
		return shared.Money{}, NewNoPendingRefundError()
	}

	refunded := o.grandTotal
	if amount != nil {
		refunded = *amount
		if refunded.Currency() != o.grandTotal.Currency() {
			return shared.Money{}, NewInvalidRefundAmountError("refund currency must be " + o.grandTotal.Currency())
		}
		if refunded.IsNegative() {
			return shared.Money{}, NewInvalidRefundAmountError("refund amount cannot be negative")
		}
		if refunded.IsGreaterThan(o.grandTotal) {
			return shared.Money{}, NewInvalidRefundAmountError("refund amount cannot exceed the order total")
		}
	}

	o.outcome.complete(refunded, at)
	o.updatedAt = at
	o.recordEvent(NewRefundProcessedEvent(o.id, o.userID, o.outcome.Kind(), refunded, at))
	return refunded, nil
}

// CapturePayment marks the order paid with verified gateway identifiers.
func (o *Order) CapturePayment(details PaymentDetails, at time.Time) {
	o.payment = &details
	o.paymentStatus = PaymentStatusPaid
	o.updatedAt = at
	o.recordEvent(NewPaymentCapturedEvent(o.id, o.userID, details, at))
}

// AbortPlacement compensates a placement whose stock reservation failed.
func (o *Order) AbortPlacement(reason string, at time.Time) {
	reason = defaultIfBlank(reason, StockShortageReason)
	o.outcome = &Cancellation{
		reason:      reason,
		requestedAt: at,
		refund:      Refund{Status: RefundStatusPending},
	}
	o.transition(StatusCancelled, reason, at)
	o.recordEvent(&PlacementAbortedEvent{orderID: o.id, userID: o.userID, reason: reason, occurredOn: at})
}

// transition is the single place status and statusHistory change together.
func (o *Order) transition(next Status, note string, at time.Time) {
	o.status = next
	o.statusHistory = append(o.statusHistory, StatusChange{Status: next, Timestamp: at, Note: note})
	o.updatedAt = at
}

func (o *Order) recordEvent(event shared.DomainEvent) {
	o.events = append(o.events, event)
}

func defaultIfBlank(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return strings.TrimSpace(value)
}

// IsOwnedBy ownership check used by customer operations
func (o *Order) IsOwnedBy(userID string) bool {
	return userID != "" && o.userID == userID
}

// ============================================================================
// ReconstructionDTO - For Repository Layer Use Only
// ============================================================================

type ReconstructionDTO struct {
	ID            string
	UserID        string
	Items         []Item
	Shipping      Shipping
	PaymentMethod PaymentMethod
	PaymentStatus PaymentStatus
	Payment       *PaymentDetails
	Status        Status
	StatusHistory []StatusChange
	Notes         []Note
	Outcome       *OutcomeReconstructionDTO
	Subtotal      shared.Money
	Discount      shared.Money
	GrandTotal    shared.Money
	Version       int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// RebuildFromDTO ⚠️ repository implementations only
func RebuildFromDTO(dto ReconstructionDTO) *Order {
	o := &Order{
		id:            dto.ID,
		userID:        dto.UserID,
		items:         append([]Item(nil), dto.Items...),
		shipping:      dto.Shipping,
		paymentMethod: dto.PaymentMethod,
		paymentStatus: dto.PaymentStatus,
		status:        dto.Status,
		statusHistory: append([]StatusChange(nil), dto.StatusHistory...),
		notes:         append([]Note(nil), dto.Notes...),
		outcome:       RebuildOutcome(dto.Outcome),
		subtotal:      dto.Subtotal,
		discount:      dto.Discount,
		grandTotal:    dto.GrandTotal,
		version:       dto.Version,
		createdAt:     dto.CreatedAt,
		updatedAt:     dto.UpdatedAt,
		isNew:         false,
	}
	if dto.Payment != nil {
		payment := *dto.Payment
		o.payment = &payment
	}
	return o
}

// ToDTO flattens the aggregate for persistence adapters.
func (o *Order) ToDTO() ReconstructionDTO {
	dto := ReconstructionDTO{
		ID:            o.id,
		UserID:        o.userID,
		Items:         o.Items(),
		Shipping:      o.shipping,
		PaymentMethod: o.paymentMethod,
		PaymentStatus: o.paymentStatus,
		Status:        o.status,
		StatusHistory: o.StatusHistory(),
		Notes:         o.Notes(),
		Outcome:       OutcomeToDTO(o.outcome),
		Subtotal:      o.subtotal,
		Discount:      o.discount,
		GrandTotal:    o.grandTotal,
		Version:       o.version,
		CreatedAt:     o.createdAt,
		UpdatedAt:     o.updatedAt,
	}
	if o.payment != nil {
		payment := *o.payment
		dto.Payment = &payment
	}
	return dto
}

type ItemReconstructionDTO struct {
	ID        string
	ProductID string
	Name      string
	Image     string
	Price     shared.Money
	Quantity  int
}

func RebuildItemFromDTO(dto ItemReconstructionDTO) Item {
	return Item{
		id:        dto.ID,
		productID: dto.ProductID,
		name:      dto.Name,
		image:     dto.Image,
		price:     dto.Price,
		quantity:  dto.Quantity,
	}
}

// ============================================================================
// Persistence bookkeeping
// ============================================================================

// IncrementVersionForSave is called by repositories after a successful write.
func (o *Order) IncrementVersionForSave() {
	o.version++
}

// IsNew true until the aggregate has been persisted once.
func (o *Order) IsNew() bool { return o.isNew }

func (o *Order) MarkPersisted() { o.isNew = false }

// PullEvents returns and clears recorded events.
func (o *Order) PullEvents() []shared.DomainEvent {
	events := o.events
	o.events = nil
	return events
}

// ============================================================================
// Getters
// ============================================================================

func (o *Order) ID() string                        { return o.id }
func (o *Order) UserID() string                    { return o.userID }
func (o *Order) Shipping() Shipping                { return o.shipping }
func (o *Order) PaymentMethod() PaymentMethod      { return o.paymentMethod }
func (o *Order) PaymentStatus() PaymentStatus      { return o.paymentStatus }
func (o *Order) Status() Status                    { return o.status }
func (o *Order) Outcome() FulfillmentOutcome       { return o.outcome }
func (o *Order) Subtotal() shared.Money            { return o.subtotal }
func (o *Order) Discount() shared.Money            { return o.discount }
func (o *Order) GrandTotal() shared.Money          { return o.grandTotal }
func (o *Order) Version() int                      { return o.version }
func (o *Order) CreatedAt() time.Time              { return o.createdAt }
func (o *Order) UpdatedAt() time.Time              { return o.updatedAt }
func (o *Order) EstimatedDelivery() time.Time      { return o.shipping.EstimatedDelivery }
func (o *Order) ShippingAddress() Address          { return o.shipping.Address }

// Payment returns a copy of the gateway details, or nil.
func (o *Order) Payment() *PaymentDetails {
	if o.payment == nil {
		return nil
	}
	p := *o.payment
	return &p
}

func (o *Order) Items() []Item {
	items := make([]Item, len(o.items))
	copy(items, o.items)
	return items
}

func (o *Order) StatusHistory() []StatusChange {
	history := make([]StatusChange, len(o.statusHistory))
	copy(history, o.statusHistory)
	return history
}

func (o *Order) Notes() []Note {
	notes := make([]Note, len(o.notes))
	copy(notes, o.notes)
	return notes
}

// CustomerNotes notes visible to the order owner
func (o *Order) CustomerNotes() []Note {
	var visible []Note
	for _, n := range o.notes {
		if !n.IsInternal {
			visible = append(visible, n)
		}
	}
	return visible
}

func (item Item) ID() string          { return item.id }
func (item Item) ProductID() string   { return item.productID }
func (item Item) Name() string        { return item.name }
func (item Item) Image() string       { return item.image }
func (item Item) Price() shared.Money { return item.price }
func (item Item) Quantity() int       { return item.quantity }

// LineTotal price × quantity
func (item Item) LineTotal() (shared.Money, error) {
	total, err := item.price.Multiply(item.quantity)
	if err != nil {
		return shared.Money{}, err
	}
	return *total, nil
}

var _ shared.AggregateRoot = (*Order)(nil)

package order

import (
	"time"

	"storefront/domain/shared"
)

type RefundStatus string

const (
	RefundStatusPending   RefundStatus = "pending"
	RefundStatusCompleted RefundStatus = "completed"
)

type OutcomeKind string

const (
	OutcomeCancellation OutcomeKind = "cancellation"
	OutcomeReturn       OutcomeKind = "return"
)

// Refund bookkeeping shared by both outcome branches.
type Refund struct {
	Status    RefundStatus
	Amount    *shared.Money
	Processed time.Time
}

func (r Refund) Pending() bool { return r.Status == RefundStatusPending }

// FulfillmentOutcome is the post-placement branch an order took.
// An order holds at most one: nil, *Cancellation or *Return.
type FulfillmentOutcome interface {
	Kind() OutcomeKind
	Reason() string
	RequestedAt() time.Time
	Refund() Refund

	complete(amount shared.Money, at time.Time)
}

type Cancellation struct {
	reason      string
	requestedAt time.Time
	refund      Refund
}

func (c *Cancellation) Kind() OutcomeKind      { return OutcomeCancellation }
func (c *Cancellation) Reason() string         { return c.reason }
func (c *Cancellation) RequestedAt() time.Time { return c.requestedAt }
func (c *Cancellation) Refund() Refund         { return c.refund }

func (c *Cancellation) complete(amount shared.Money, at time.Time) {
	c.refund = Refund{Status: RefundStatusCompleted, Amount: &amount, Processed: at}
}

type Return struct {
	reason               string
	requestedAt          time.Time
	returnTrackingNumber string
	refund               Refund
}

func (r *Return) Kind() OutcomeKind            { return OutcomeReturn }
func (r *Return) Reason() string               { return r.reason }
func (r *Return) RequestedAt() time.Time       { return r.requestedAt }
func (r *Return) Refund() Refund               { return r.refund }
func (r *Return) ReturnTrackingNumber() string { return r.returnTrackingNumber }

func (r *Return) complete(amount shared.Money, at time.Time) {
	r.refund = Refund{Status: RefundStatusCompleted, Amount: &amount, Processed: at}
}

// OutcomeReconstructionDTO rebuilds an outcome from storage.
type OutcomeReconstructionDTO struct {
	Kind                 OutcomeKind
	Reason               string
	RequestedAt          time.Time
	ReturnTrackingNumber string
	RefundStatus         RefundStatus
	RefundedAmount       *shared.Money
	RefundedAt           time.Time
}

func RebuildOutcome(dto *OutcomeReconstructionDTO) FulfillmentOutcome {
	if dto == nil {
		return nil
	}
	refund := Refund{Status: dto.RefundStatus, Amount: dto.RefundedAmount, Processed: dto.RefundedAt}
	switch dto.Kind {
	case OutcomeCancellation:
		return &Cancellation{reason: dto.Reason, requestedAt: dto.RequestedAt, refund: refund}
	case OutcomeReturn:
		return &Return{
			reason:               dto.Reason,
			requestedAt:          dto.RequestedAt,
			returnTrackingNumber: dto.ReturnTrackingNumber,
			refund:               refund,
		}
	}
	return nil
}

// OutcomeToDTO flattens an outcome for persistence adapters.
func OutcomeToDTO(outcome FulfillmentOutcome) *OutcomeReconstructionDTO {
	if outcome == nil {
		return nil
	}
	refund := outcome.Refund()
	dto := &OutcomeReconstructionDTO{
		Kind:           outcome.Kind(),
		Reason:         outcome.Reason(),
		RequestedAt:    outcome.RequestedAt(),
		RefundStatus:   refund.Status,
		RefundedAmount: refund.Amount,
		RefundedAt:     refund.Processed,
	}
	if ret, ok := outcome.(*Return); ok {
		dto.ReturnTrackingNumber = ret.returnTrackingNumber
	}
	return dto
}

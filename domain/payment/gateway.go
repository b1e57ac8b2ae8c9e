/*
Package payment holds the payment gateway port and the signature check that
ties a client-side checkout back to a gateway order.
*/
package payment

import (
	"context"
	"errors"

	"storefront/domain/shared"
)

var (
	// ErrSignatureInvalid signature does not match HMAC(secret, orderId|paymentId)
	ErrSignatureInvalid = errors.New("invalid payment signature")

	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
)

// RemoteOrder gateway-side order created before checkout
type RemoteOrder struct {
	ID       string
	Amount   shared.Money
	Receipt  string
	Status   string
	Currency string
}

// RefundReceipt gateway acknowledgement of a refund
type RefundReceipt struct {
	ID     string
	Amount shared.Money
	Status string
}

// Gateway PaymentGateway port
type Gateway interface {
	CreateRemoteOrder(ctx context.Context, amount shared.Money, receipt string) (*RemoteOrder, error)
	Refund(ctx context.Context, paymentID string, amount shared.Money) (*RefundReceipt, error)
}

type signatureError struct {
	stack []uintptr
}

func (e *signatureError) Error() string   { return "Payment verification failed" }
func (e *signatureError) Unwrap() error   { return ErrSignatureInvalid }
func (e *signatureError) Stack() []string { return shared.FormatStack(e.stack) }

func NewSignatureInvalidError() error {
	return &signatureError{stack: shared.CaptureStack(3)}
}

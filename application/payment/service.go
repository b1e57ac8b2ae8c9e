/*
Package payment Application Layer - gateway checkout and signature reconciliation.
*/
package payment

import (
	"context"
	"errors"
	"strings"
	"time"

	"storefront/domain/order"
	"storefront/domain/payment"
	"storefront/domain/shared"
	"storefront/pkg/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// CreatePaymentOrderRequest amount in major units (rupees)
type CreatePaymentOrderRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// CreatePaymentOrderResponse amount in minor units, as the checkout widget expects
type CreatePaymentOrderResponse struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt,omitempty"`
	Status   string `json:"status,omitempty"`
	KeyID    string `json:"key,omitempty"`
}

type VerifySignatureRequest struct {
	GatewayOrderID   string `json:"razorpay_order_id"`
	GatewayPaymentID string `json:"razorpay_payment_id"`
	Signature        string `json:"razorpay_signature"`
}

type VerifySignatureResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	// OrderID set when a local order was reconciled
	OrderID string `json:"orderId,omitempty"`
}

// ApplicationService payment application service
type ApplicationService struct {
	gateway    payment.Gateway
	verifier   *payment.SignatureVerifier
	orders     order.Repository
	uowFactory shared.UnitOfWorkFactory
	keyID      string
	currency   string
	clock      func() time.Time
	tracer     trace.Tracer
}

func NewApplicationService(
	gateway payment.Gateway,
	verifier *payment.SignatureVerifier,
	orders order.Repository,
	uowFactory shared.UnitOfWorkFactory,
	keyID, currency string,
) *ApplicationService {
	if currency == "" {
		currency = shared.DefaultCurrency
	}
	return &ApplicationService{
		gateway:    gateway,
		verifier:   verifier,
		orders:     orders,
		uowFactory: uowFactory,
		keyID:      keyID,
		currency:   currency,
		clock:      time.Now,
		tracer:     otel.Tracer("storefront/application/payment"),
	}
}

// CreatePaymentOrder opens a gateway order for the checkout widget.
func (s *ApplicationService) CreatePaymentOrder(ctx context.Context, req CreatePaymentOrderRequest) (resp *CreatePaymentOrderResponse, err error) {
	ctx, span := s.tracer.Start(ctx, "payment.CreatePaymentOrder")
	defer func() { endSpan(span, err) }()

	if !req.Amount.IsPositive() {
		return nil, shared.NewValidationError("payment", "amount", "Invalid amount")
	}
	amount, err := shared.MoneyFromDecimal(req.Amount, s.currency)
	if err != nil {
		return nil, shared.NewValidationError("payment", "amount", err.Error())
	}

	if s.gateway == nil {
		return nil, payment.ErrGatewayUnavailable
	}

	receipt := "rcpt_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:20]
	remote, err := s.gateway.CreateRemoteOrder(ctx, *amount, receipt)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("payment.gateway_order_id", remote.ID))

	return &CreatePaymentOrderResponse{
		ID:       remote.ID,
		Amount:   remote.Amount.Amount(),
		Currency: remote.Amount.Currency(),
		Receipt:  remote.Receipt,
		Status:   remote.Status,
		KeyID:    s.keyID,
	}, nil
}

// VerifyPaymentSignature checks the checkout signature and, on a match, marks
// the order carrying this gateway order id as paid. Success does not depend on
// a local order existing; reconciliation failures are logged only.
func (s *ApplicationService) VerifyPaymentSignature(ctx context.Context, req VerifySignatureRequest) (resp *VerifySignatureResponse, err error) {
	ctx, span := s.tracer.Start(ctx, "payment.VerifyPaymentSignature",
		trace.WithAttributes(attribute.String("payment.gateway_order_id", req.GatewayOrderID)))
	defer func() { endSpan(span, err) }()

	if req.GatewayOrderID == "" || req.GatewayPaymentID == "" || req.Signature == "" {
		return nil, shared.NewValidationError("payment", "signature", "Missing required signature fields")
	}
	if err := s.verifier.Verify(req.GatewayOrderID, req.GatewayPaymentID, req.Signature); err != nil {
		logger.FromContext(ctx).Warn("Payment signature mismatch", zap.String("razorpay_order_id", req.GatewayOrderID))
		return nil, err
	}

	resp = &VerifySignatureResponse{Success: true, Message: "Payment verified successfully"}
	orderID, err := s.reconcile(ctx, req)
	if err != nil {
		logger.FromContext(ctx).Error("Failed to reconcile verified payment",
			zap.String("razorpay_order_id", req.GatewayOrderID),
			zap.Error(err))
		return resp, nil
	}
	resp.OrderID = orderID
	return resp, nil
}

func (s *ApplicationService) reconcile(ctx context.Context, req VerifySignatureRequest) (string, error) {
	details := order.PaymentDetails{
		GatewayOrderID:   req.GatewayOrderID,
		GatewayPaymentID: req.GatewayPaymentID,
		Signature:        req.Signature,
	}

	uow := s.uowFactory.New()
	var orderID string
	err := uow.Execute(ctx, func(ctx context.Context) error {
		orderID = ""
		o, err := s.orders.FindByGatewayOrderID(ctx, req.GatewayOrderID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return nil
			}
			return err
		}
		o.CapturePayment(details, s.clock())
		if err := s.orders.Save(ctx, o); err != nil {
			return err
		}
		uow.RegisterDirty(o)
		orderID = o.ID()
		return nil
	})
	return orderID, err
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

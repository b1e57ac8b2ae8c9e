package payment

import (
	"context"
	"errors"
	"testing"
	"time"

	"storefront/domain/order"
	"storefront/domain/payment"
	"storefront/domain/shared"
	"storefront/infrastructure/persistence/memory"
	"storefront/infrastructure/persistence/retry"
	"storefront/pkg/logger"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type stubGateway struct {
	receipts []string
	err      error
}

func (g *stubGateway) CreateRemoteOrder(_ context.Context, amount shared.Money, receipt string) (*payment.RemoteOrder, error) {
	if g.err != nil {
		return nil, g.err
	}
	g.receipts = append(g.receipts, receipt)
	return &payment.RemoteOrder{ID: "order_Nx1", Amount: amount, Receipt: receipt, Status: "created"}, nil
}

func (g *stubGateway) Refund(context.Context, string, shared.Money) (*payment.RefundReceipt, error) {
	return nil, errors.New("not used")
}

type brokenRepository struct {
	*memory.OrderRepository
}

func (brokenRepository) FindByGatewayOrderID(context.Context, string) (*order.Order, error) {
	return nil, errors.New("connection reset")
}

func newService(t *testing.T, gateway payment.Gateway, orders order.Repository) (*ApplicationService, *payment.SignatureVerifier, *memory.OutboxStore) {
	t.Helper()
	verifier, err := payment.NewSignatureVerifier("checkout-secret")
	require.NoError(t, err)
	outbox := memory.NewOutboxStore()
	svc := NewApplicationService(gateway, verifier, orders, memory.NewUnitOfWorkFactory(outbox, retry.Config{}), "rzp_test_key", "INR")
	return svc, verifier, outbox
}

func placeAwaitingPayment(t *testing.T, orders order.Repository, gatewayOrderID string) *order.Order {
	t.Helper()
	o, err := order.NewOrder(order.PlaceOptions{
		UserID: "user-1",
		Items: []order.ItemRequest{
			{ProductID: "p1", Name: "Shirt", Price: *shared.NewMoney(49900, "INR"), Quantity: 1},
		},
		PaymentMethod: order.PaymentMethodCOD,
		Payment:       &order.PaymentDetails{GatewayOrderID: gatewayOrderID},
		Shipping: order.Shipping{
			TrackingNumber: "TRK000001001",
			Cost:           shared.Zero("INR"),
			Address:        order.Address{FullName: "Asha", Line1: "1 Main St", City: "Pune", PostalCode: "411001"},
		},
		PlacedAt: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.NoError(t, orders.Save(context.Background(), o))
	o.PullEvents()
	return o
}

func TestCreatePaymentOrder(t *testing.T) {
	gateway := &stubGateway{}
	svc, _, _ := newService(t, gateway, memory.NewOrderRepository())

	resp, err := svc.CreatePaymentOrder(context.Background(), CreatePaymentOrderRequest{Amount: decimal.RequireFromString("499.50")})
	require.NoError(t, err)

	assert.Equal(t, "order_Nx1", resp.ID)
	assert.Equal(t, int64(49950), resp.Amount)
	assert.Equal(t, "INR", resp.Currency)
	assert.Equal(t, "rzp_test_key", resp.KeyID)
	require.Len(t, gateway.receipts, 1)
	assert.Regexp(t, `^rcpt_[0-9a-f]{20}$`, gateway.receipts[0])
}

func TestCreatePaymentOrderRejections(t *testing.T) {
	ctx := context.Background()

	svc, _, _ := newService(t, &stubGateway{}, memory.NewOrderRepository())
	for _, amount := range []string{"0", "-10"} {
		_, err := svc.CreatePaymentOrder(ctx, CreatePaymentOrderRequest{Amount: decimal.RequireFromString(amount)})
		assert.ErrorIs(t, err, shared.ErrInvalidInput, amount)
	}

	noGateway, _, _ := newService(t, nil, memory.NewOrderRepository())
	_, err := noGateway.CreatePaymentOrder(ctx, CreatePaymentOrderRequest{Amount: decimal.NewFromInt(10)})
	assert.ErrorIs(t, err, payment.ErrGatewayUnavailable)

	failing, _, _ := newService(t, &stubGateway{err: payment.ErrGatewayUnavailable}, memory.NewOrderRepository())
	_, err = failing.CreatePaymentOrder(ctx, CreatePaymentOrderRequest{Amount: decimal.NewFromInt(10)})
	assert.ErrorIs(t, err, payment.ErrGatewayUnavailable)
}

func TestVerifyPaymentSignatureReconcilesOrder(t *testing.T) {
	orders := memory.NewOrderRepository()
	svc, verifier, outbox := newService(t, &stubGateway{}, orders)
	placed := placeAwaitingPayment(t, orders, "order_abc")

	resp, err := svc.VerifyPaymentSignature(context.Background(), VerifySignatureRequest{
		GatewayOrderID:   "order_abc",
		GatewayPaymentID: "pay_abc",
		Signature:        verifier.Sign("order_abc", "pay_abc"),
	})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, "Payment verified successfully", resp.Message)
	assert.Equal(t, placed.ID(), resp.OrderID)

	stored, err := orders.FindByID(context.Background(), placed.ID())
	require.NoError(t, err)
	assert.Equal(t, order.PaymentStatusPaid, stored.PaymentStatus())
	assert.Equal(t, "pay_abc", stored.Payment().GatewayPaymentID)

	pending, err := outbox.GetPendingEvents(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, order.EventPaymentCaptured, pending[0].EventType)
}

func TestVerifyPaymentSignatureWithoutLocalOrder(t *testing.T) {
	svc, verifier, outbox := newService(t, &stubGateway{}, memory.NewOrderRepository())

	resp, err := svc.VerifyPaymentSignature(context.Background(), VerifySignatureRequest{
		GatewayOrderID:   "order_unknown",
		GatewayPaymentID: "pay_1",
		Signature:        verifier.Sign("order_unknown", "pay_1"),
	})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Empty(t, resp.OrderID)
	assert.Zero(t, outbox.Pending())
}

func TestVerifyPaymentSignatureRejections(t *testing.T) {
	svc, verifier, _ := newService(t, &stubGateway{}, memory.NewOrderRepository())
	ctx := context.Background()

	_, err := svc.VerifyPaymentSignature(ctx, VerifySignatureRequest{GatewayOrderID: "order_1", GatewayPaymentID: "pay_1"})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	_, err = svc.VerifyPaymentSignature(ctx, VerifySignatureRequest{
		GatewayOrderID:   "order_1",
		GatewayPaymentID: "pay_2",
		Signature:        verifier.Sign("order_1", "pay_1"),
	})
	require.ErrorIs(t, err, payment.ErrSignatureInvalid)
	assert.Equal(t, "Payment verification failed", err.Error())
}

func TestVerifyPaymentSignatureLogsReconcileFailure(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	defer logger.Replace(zap.New(core))()

	svc, verifier, _ := newService(t, &stubGateway{}, brokenRepository{memory.NewOrderRepository()})
	resp, err := svc.VerifyPaymentSignature(context.Background(), VerifySignatureRequest{
		GatewayOrderID:   "order_1",
		GatewayPaymentID: "pay_1",
		Signature:        verifier.Sign("order_1", "pay_1"),
	})
	require.NoError(t, err)
	assert.True(t, resp.Success)

	entries := logs.FilterMessage("Failed to reconcile verified payment").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
	assert.Equal(t, "order_1", entries[0].ContextMap()["razorpay_order_id"])
}

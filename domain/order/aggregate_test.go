package order

import (
	"testing"
	"time"

	"storefront/domain/shared"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var placedAt = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

func inr(minor int64) shared.Money { return *shared.NewMoney(minor, "INR") }

func testAddress() Address {
	return Address{FullName: "Asha Rao", Line1: "12 MG Road", City: "Bengaluru", PostalCode: "560001", Country: "IN"}
}

func placeOrder(t *testing.T, method PaymentMethod, mutate ...func(*PlaceOptions)) *Order {
	t.Helper()
	opts := PlaceOptions{
		UserID: "user-1",
		Items: []ItemRequest{
			{ProductID: "p1", Name: "Shirt", Price: inr(50000), Quantity: 2},
			{ProductID: "p2", Name: "Cap", Price: inr(19900), Quantity: 1},
		},
		PaymentMethod: method,
		Shipping:      Shipping{TrackingNumber: "TRK000001123", Cost: inr(4900), Address: testAddress()},
		Discount:      inr(10000),
		PlacedAt:      placedAt,
	}
	for _, m := range mutate {
		m(&opts)
	}
	o, err := NewOrder(opts)
	require.NoError(t, err)
	return o
}

func deliver(t *testing.T, o *Order) {
	t.Helper()
	require.NoError(t, o.UpdateStatus(StatusDelivered, "", placedAt.Add(72*time.Hour)))
}

func TestNewOrderTotals(t *testing.T) {
	o := placeOrder(t, PaymentMethodGPay)

	assert.Equal(t, int64(119900), o.Subtotal().Amount())
	// 119900 + 4900 - 10000
	assert.Equal(t, int64(114800), o.GrandTotal().Amount())
	assert.Equal(t, "INR", o.GrandTotal().Currency())
	assert.Equal(t, StatusPending, o.Status())
	assert.Empty(t, o.StatusHistory())
	assert.Nil(t, o.Outcome())
	assert.True(t, o.IsNew())
	assert.Len(t, o.Items(), 2)

	events := o.PullEvents()
	require.Len(t, events, 1)
	assert.Equal(t, EventOrderPlaced, events[0].EventName())
	assert.Empty(t, o.PullEvents())
}

func TestNewOrderInitialPaymentStatus(t *testing.T) {
	assert.Equal(t, PaymentStatusPaid, placeOrder(t, PaymentMethodGPay).PaymentStatus())
	assert.Equal(t, PaymentStatusPaid, placeOrder(t, PaymentMethodCard).PaymentStatus())
	assert.Equal(t, PaymentStatusPending, placeOrder(t, PaymentMethodCOD).PaymentStatus())
}

func TestNewOrderValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*PlaceOptions)
		target error
	}{
		{"no items", func(o *PlaceOptions) { o.Items = nil }, ErrEmptyOrderItems},
		{"zero quantity", func(o *PlaceOptions) { o.Items[0].Quantity = 0 }, ErrInvalidQuantity},
		{"discount above value", func(o *PlaceOptions) { o.Discount = inr(1_000_000) }, ErrInvalidDiscount},
		{"negative discount", func(o *PlaceOptions) { o.Discount = inr(-1) }, ErrInvalidDiscount},
		{"missing address", func(o *PlaceOptions) { o.Shipping.Address = Address{} }, shared.ErrInvalidInput},
		{"missing user", func(o *PlaceOptions) { o.UserID = "" }, shared.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := PlaceOptions{
				UserID:        "user-1",
				Items:         []ItemRequest{{ProductID: "p1", Name: "Shirt", Price: inr(50000), Quantity: 1}},
				PaymentMethod: PaymentMethodCOD,
				Shipping:      Shipping{Cost: inr(0), Address: testAddress()},
				PlacedAt:      placedAt,
			}
			tt.mutate(&opts)
			_, err := NewOrder(opts)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.target)
		})
	}
}

func TestUpdateStatusAppendsHistory(t *testing.T) {
	o := placeOrder(t, PaymentMethodCOD)
	o.PullEvents()

	require.NoError(t, o.UpdateStatus(StatusShipped, "left warehouse", placedAt.Add(time.Hour)))
	require.NoError(t, o.UpdateStatus(StatusPending, "", placedAt.Add(2*time.Hour)))

	history := o.StatusHistory()
	require.Len(t, history, 2)
	assert.Equal(t, StatusShipped, history[0].Status)
	assert.Equal(t, "left warehouse", history[0].Note)
	assert.Equal(t, StatusPending, history[1].Status)
	assert.Equal(t, StatusPending, o.Status())
	assert.Len(t, o.PullEvents(), 2)

	err := o.UpdateStatus(Status("teleported"), "", placedAt)
	assert.ErrorIs(t, err, ErrInvalidStatus)
	assert.Len(t, o.StatusHistory(), 2)
}

func TestCancel(t *testing.T) {
	t.Run("pending with default reason", func(t *testing.T) {
		o := placeOrder(t, PaymentMethodGPay)
		require.NoError(t, o.Cancel("  ", placedAt.Add(time.Minute)))

		assert.Equal(t, StatusCancelled, o.Status())
		require.NotNil(t, o.Outcome())
		assert.Equal(t, OutcomeCancellation, o.Outcome().Kind())
		assert.Equal(t, DefaultCancellationReason, o.Outcome().Reason())
		assert.True(t, o.Outcome().Refund().Pending())

		history := o.StatusHistory()
		require.Len(t, history, 1)
		assert.Equal(t, DefaultCancellationReason, history[0].Note)
	})

	t.Run("processing allowed", func(t *testing.T) {
		o := placeOrder(t, PaymentMethodCOD)
		require.NoError(t, o.UpdateStatus(StatusProcessing, "", placedAt))
		assert.NoError(t, o.Cancel("changed my mind", placedAt))
	})

	for _, status := range []Status{StatusPacked, StatusShipped, StatusDelivered, StatusCancelled} {
		t.Run("rejected when "+string(status), func(t *testing.T) {
			o := placeOrder(t, PaymentMethodCOD)
			require.NoError(t, o.UpdateStatus(status, "", placedAt))
			err := o.Cancel("", placedAt)
			assert.ErrorIs(t, err, ErrInvalidOrderState)
			assert.Equal(t, "Order cannot be cancelled at this stage", err.Error())
		})
	}

	t.Run("second cancel rejected", func(t *testing.T) {
		o := placeOrder(t, PaymentMethodCOD)
		require.NoError(t, o.Cancel("", placedAt))
		require.NoError(t, o.UpdateStatus(StatusPending, "reopened", placedAt))
		assert.ErrorIs(t, o.Cancel("", placedAt), ErrInvalidOrderState)
	})
}

func TestRequestReturn(t *testing.T) {
	o := placeOrder(t, PaymentMethodGPay)

	err := o.RequestReturn("too small", "", placedAt)
	require.ErrorIs(t, err, ErrInvalidOrderState)
	assert.Equal(t, "Only delivered orders can be returned", err.Error())

	deliver(t, o)
	historyLen := len(o.StatusHistory())
	require.NoError(t, o.RequestReturn("", " RTN123 ", placedAt.Add(96*time.Hour)))

	assert.Equal(t, StatusDelivered, o.Status())
	assert.Len(t, o.StatusHistory(), historyLen)

	ret, ok := o.Outcome().(*Return)
	require.True(t, ok)
	assert.Equal(t, DefaultReturnReason, ret.Reason())
	assert.Equal(t, "RTN123", ret.ReturnTrackingNumber())
	assert.True(t, ret.Refund().Pending())

	assert.ErrorIs(t, o.RequestReturn("again", "", placedAt), ErrInvalidOrderState)
}

func TestProcessRefund(t *testing.T) {
	t.Run("no outcome", func(t *testing.T) {
		o := placeOrder(t, PaymentMethodGPay)
		_, err := o.ProcessRefund(nil, placedAt)
		assert.ErrorIs(t, err, ErrNoPendingRefund)
	})

	t.Run("full refund of cancellation", func(t *testing.T) {
		o := placeOrder(t, PaymentMethodGPay)
		require.NoError(t, o.Cancel("", placedAt))
		o.PullEvents()

		refunded, err := o.ProcessRefund(nil, placedAt.Add(time.Hour))
		require.NoError(t, err)
		assert.True(t, refunded.Equals(o.GrandTotal()))

		refund := o.Outcome().Refund()
		assert.Equal(t, RefundStatusCompleted, refund.Status)
		require.NotNil(t, refund.Amount)
		assert.Equal(t, o.GrandTotal().Amount(), refund.Amount.Amount())
		assert.Equal(t, placedAt.Add(time.Hour), refund.Processed)

		events := o.PullEvents()
		require.Len(t, events, 1)
		assert.Equal(t, EventRefundProcessed, events[0].EventName())

		_, err = o.ProcessRefund(nil, placedAt)
		assert.ErrorIs(t, err, ErrNoPendingRefund)
	})

	t.Run("partial refund of return", func(t *testing.T) {
		o := placeOrder(t, PaymentMethodGPay)
		deliver(t, o)
		require.NoError(t, o.RequestReturn("", "", placedAt))

		amount := inr(5000)
		refunded, err := o.ProcessRefund(&amount, placedAt)
		require.NoError(t, err)
		assert.Equal(t, int64(5000), refunded.Amount())
		assert.Equal(t, StatusDelivered, o.Status())
	})

	t.Run("amount out of range", func(t *testing.T) {
		o := placeOrder(t, PaymentMethodGPay)
		require.NoError(t, o.Cancel("", placedAt))

		tooMuch := inr(o.GrandTotal().Amount() + 1)
		_, err := o.ProcessRefund(&tooMuch, placedAt)
		assert.ErrorIs(t, err, ErrInvalidRefundAmount)

		negative := inr(-1)
		_, err = o.ProcessRefund(&negative, placedAt)
		assert.ErrorIs(t, err, ErrInvalidRefundAmount)

		usd := *shared.NewMoney(100, "USD")
		_, err = o.ProcessRefund(&usd, placedAt)
		assert.ErrorIs(t, err, ErrInvalidRefundAmount)

		assert.True(t, o.Outcome().Refund().Pending())
	})
}

func TestCapturePayment(t *testing.T) {
	o := placeOrder(t, PaymentMethodCOD)
	o.PullEvents()

	details := PaymentDetails{GatewayOrderID: "order_1", GatewayPaymentID: "pay_1", Signature: "sig"}
	o.CapturePayment(details, placedAt)

	assert.Equal(t, PaymentStatusPaid, o.PaymentStatus())
	require.NotNil(t, o.Payment())
	assert.Equal(t, details, *o.Payment())
	events := o.PullEvents()
	require.Len(t, events, 1)
	assert.Equal(t, EventPaymentCaptured, events[0].EventName())
}

func TestAbortPlacement(t *testing.T) {
	o := placeOrder(t, PaymentMethodGPay)
	o.AbortPlacement("", placedAt)

	assert.Equal(t, StatusCancelled, o.Status())
	require.NotNil(t, o.Outcome())
	assert.Equal(t, StockShortageReason, o.Outcome().Reason())
	require.Len(t, o.StatusHistory(), 1)
}

func TestReconstructionKeepsState(t *testing.T) {
	o := placeOrder(t, PaymentMethodGPay)
	deliver(t, o)
	require.NoError(t, o.RequestReturn("wrong size", "RTN1", placedAt))
	o.AddNote("handled by ops", "admin-1", true, placedAt)
	o.AddNote("please hurry", "user-1", false, placedAt)
	o.IncrementVersionForSave()

	rebuilt := RebuildFromDTO(o.ToDTO())

	assert.Equal(t, o.ID(), rebuilt.ID())
	assert.Equal(t, o.Version(), rebuilt.Version())
	assert.False(t, rebuilt.IsNew())
	assert.Equal(t, o.StatusHistory(), rebuilt.StatusHistory())
	assert.Equal(t, OutcomeReturn, rebuilt.Outcome().Kind())
	assert.Len(t, rebuilt.Notes(), 2)
	require.Len(t, rebuilt.CustomerNotes(), 1)
	assert.Equal(t, "please hurry", rebuilt.CustomerNotes()[0].Content)
	assert.Empty(t, rebuilt.PullEvents())
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus(" shipped ")
	require.NoError(t, err)
	assert.Equal(t, StatusShipped, s)

	_, err = ParseStatus("")
	assert.ErrorIs(t, err, ErrInvalidStatus)
	_, err = ParseStatus("lost")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestSearchCriteriaNormalize(t *testing.T) {
	c := SearchCriteria{Page: 1<<62 + 1, PageSize: 500}.Normalize()
	assert.Equal(t, MaxPage, c.Page)
	assert.Equal(t, MaxPageSize, c.PageSize)
	assert.Positive(t, c.Offset())

	c = SearchCriteria{Page: -3}.Normalize()
	assert.Equal(t, 1, c.Page)
	assert.Equal(t, DefaultPageSize, c.PageSize)
	assert.Zero(t, c.Offset())
}

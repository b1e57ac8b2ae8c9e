package razorpay

import (
	"context"
	"testing"

	"storefront/domain/shared"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGatewayRequiresKeys(t *testing.T) {
	_, err := NewGateway("", "secret")
	assert.Error(t, err)
	_, err = NewGateway("rzp_test_key", "")
	assert.Error(t, err)

	g, err := NewGateway("rzp_test_key", "secret")
	require.NoError(t, err)
	assert.NotNil(t, g.client)
}

func TestGatewayHonoursCancelledContext(t *testing.T) {
	g, err := NewGateway("rzp_test_key", "secret")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = g.CreateRemoteOrder(ctx, *shared.NewMoney(49900, "INR"), "rcpt_1")
	assert.ErrorIs(t, err, context.Canceled)
	_, err = g.Refund(ctx, "pay_1", *shared.NewMoney(100, "INR"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestResponseFieldHelpers(t *testing.T) {
	body := map[string]interface{}{
		"id":     "order_Nx1",
		"amount": float64(49900),
		"count":  3,
		"empty":  "",
	}

	assert.Equal(t, "order_Nx1", stringField(body, "id", "fallback"))
	assert.Equal(t, "fallback", stringField(body, "empty", "fallback"))
	assert.Equal(t, "fallback", stringField(body, "amount", "fallback"))

	assert.Equal(t, int64(49900), int64Field(body, "amount", 0))
	assert.Equal(t, int64(3), int64Field(body, "count", 0))
	assert.Equal(t, int64(7), int64Field(body, "missing", 7))
}

// Package razorpay implements the payment gateway port on razorpay-go.
package razorpay

import (
	"context"
	"errors"
	"fmt"

	"storefront/domain/payment"
	"storefront/domain/shared"

	rzp "github.com/razorpay/razorpay-go"
)

// Gateway razorpay-backed payment.Gateway
type Gateway struct {
	client *rzp.Client
}

func NewGateway(keyID, keySecret string) (*Gateway, error) {
	if keyID == "" || keySecret == "" {
		return nil, errors.New("razorpay key id and secret are required")
	}
	return &Gateway{client: rzp.NewClient(keyID, keySecret)}, nil
}

// CreateRemoteOrder amounts are sent in minor units (paise) with auto-capture.
func (g *Gateway) CreateRemoteOrder(ctx context.Context, amount shared.Money, receipt string) (*payment.RemoteOrder, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data := map[string]interface{}{
		"amount":          amount.Amount(),
		"currency":        amount.Currency(),
		"receipt":         receipt,
		"payment_capture": 1,
	}
	body, err := g.client.Order.Create(data, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: create order: %v", payment.ErrGatewayUnavailable, err)
	}

	id, _ := body["id"].(string)
	if id == "" {
		return nil, fmt.Errorf("%w: create order: response has no id", payment.ErrGatewayUnavailable)
	}
	currency := stringField(body, "currency", amount.Currency())
	return &payment.RemoteOrder{
		ID:       id,
		Amount:   *shared.NewMoney(int64Field(body, "amount", amount.Amount()), currency),
		Receipt:  stringField(body, "receipt", receipt),
		Status:   stringField(body, "status", ""),
		Currency: currency,
	}, nil
}

// Refund amount in minor units against a captured payment.
func (g *Gateway) Refund(ctx context.Context, paymentID string, amount shared.Money) (*payment.RefundReceipt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	body, err := g.client.Payment.Refund(paymentID, int(amount.Amount()), nil, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: refund payment %s: %v", payment.ErrGatewayUnavailable, paymentID, err)
	}
	return &payment.RefundReceipt{
		ID:     stringField(body, "id", ""),
		Amount: *shared.NewMoney(int64Field(body, "amount", amount.Amount()), amount.Currency()),
		Status: stringField(body, "status", ""),
	}, nil
}

func stringField(body map[string]interface{}, key, fallback string) string {
	if v, ok := body[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

// int64Field JSON numbers decode as float64
func int64Field(body map[string]interface{}, key string, fallback int64) int64 {
	switch v := body[key].(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case int:
		return int64(v)
	}
	return fallback
}

var _ payment.Gateway = (*Gateway)(nil)

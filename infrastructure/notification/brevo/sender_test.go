package brevo

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"storefront/domain/notification"

	brevoapi "github.com/getbrevo/brevo-go/lib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func confirmation() notification.Message {
	return notification.Message{
		Recipient:     "asha@example.com",
		RecipientName: "Asha Rao",
		Kind:          notification.KindOrderConfirmation,
		Subject:       "Order Confirmation - #1234abcd",
		Payload: map[string]any{
			"orderId":           "ord-1234abcd",
			"currency":          "INR",
			"grandTotal":        "1148.00",
			"trackingNumber":    "TRK123456789",
			"carrier":           "Standard Shipping",
			"estimatedDelivery": "2024-03-05",
			"items": []map[string]any{
				{"name": "Shirt <XL>", "quantity": 2, "price": "500.00"},
			},
		},
	}
}

func newTestSender(t *testing.T, url string) *Sender {
	t.Helper()
	s, err := NewSender(Config{
		APIKey:      "xkeysib-test",
		BaseURL:     url,
		SenderName:  "Storefront",
		SenderEmail: "no-reply@storefront.test",
		MaxAttempts: 2,
	}, nil)
	require.NoError(t, err)
	return s
}

func TestNewSenderValidation(t *testing.T) {
	_, err := NewSender(Config{SenderEmail: "a@b.c"}, nil)
	assert.Error(t, err)
	_, err = NewSender(Config{APIKey: "k"}, nil)
	assert.Error(t, err)

	s, err := NewSender(Config{APIKey: "k", SenderEmail: "a@b.c"}, nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultBaseURL, s.cfg.BaseURL)
	assert.Equal(t, 3, s.retry.MaxAttempts)
}

func TestSendPostsEmail(t *testing.T) {
	var got brevoapi.SendSmtpEmail
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/smtp/email", r.URL.Path)
		assert.Equal(t, "xkeysib-test", r.Header.Get("api-key"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"messageId":"<abc@smtp-relay>"}`))
	}))
	defer server.Close()

	require.NoError(t, newTestSender(t, server.URL).Send(context.Background(), confirmation()))

	require.NotNil(t, got.Sender)
	assert.Equal(t, "no-reply@storefront.test", got.Sender.Email)
	require.Len(t, got.To, 1)
	assert.Equal(t, "asha@example.com", got.To[0].Email)
	assert.Equal(t, "Order Confirmation - #1234abcd", got.Subject)
	assert.Equal(t, []string{"orderConfirmation"}, got.Tags)
	assert.Contains(t, got.HtmlContent, "TRK123456789")
	assert.Contains(t, got.HtmlContent, "INR 1148.00")
	assert.Contains(t, got.HtmlContent, "Shirt &lt;XL&gt;")
}

func TestSendRetriesServerErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"messageId":"<def@smtp-relay>"}`))
	}))
	defer server.Close()

	require.NoError(t, newTestSender(t, server.URL).Send(context.Background(), confirmation()))
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestSendDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":"invalid_parameter"}`))
	}))
	defer server.Close()

	err := newTestSender(t, server.URL).Send(context.Background(), confirmation())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "brevo responded 400")
	assert.Contains(t, err.Error(), "invalid_parameter")
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestRenderEveryKind(t *testing.T) {
	kinds := []notification.Kind{
		notification.KindOrderConfirmation,
		notification.KindOrderStatusUpdate,
		notification.KindOrderCancellation,
		notification.KindReturnRequest,
		notification.KindRefundProcessed,
	}
	payload := map[string]any{"orderId": "ord-1", "status": "shipped", "reason": "late", "refundAmount": "10.00", "currency": "INR"}
	for _, kind := range kinds {
		html, err := render(notification.Message{Kind: kind, Payload: payload})
		require.NoError(t, err, kind)
		assert.Contains(t, html, "ord-1", kind)
	}

	_, err := render(notification.Message{Kind: "unknown"})
	assert.Error(t, err)
}

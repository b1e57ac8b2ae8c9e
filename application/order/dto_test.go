package order

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRefundRequestKeys(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"refundedAmount", `{"refundedAmount": 200}`, "200"},
		{"amount", `{"amount": "150.50"}`, "150.5"},
		{"refundedAmount wins", `{"amount": 1, "refundedAmount": 2}`, "2"},
		{"empty", `{}`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req RefundRequest
			require.NoError(t, json.Unmarshal([]byte(tt.body), &req))
			if tt.want == "" {
				assert.Nil(t, req.Amount)
				return
			}
			require.NotNil(t, req.Amount)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(*req.Amount), req.Amount.String())
		})
	}

	var req RefundRequest
	assert.Error(t, json.Unmarshal([]byte(`{"refundedAmount": "lots"}`), &req))
}

package po

import (
	"encoding/json"
	"testing"
	"time"

	"storefront/domain/order"
	"storefront/domain/shared"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromDomainEvent(t *testing.T) {
	placedAt := time.Date(2024, 3, 1, 15, 0, 0, 0, time.FixedZone("IST", 5*3600+1800))
	event := order.NewOrderPlacedEvent("ord-1", "user-1", *shared.NewMoney(114800, "INR"), order.PaymentMethodCOD, placedAt)

	first, err := FromDomainEvent(event)
	require.NoError(t, err)
	second, err := FromDomainEvent(event)
	require.NoError(t, err)

	assert.Equal(t, OutboxPending, first.Status)
	assert.Equal(t, "ord-1", first.AggregateID)
	assert.Equal(t, order.EventOrderPlaced, first.EventType)
	assert.Equal(t, time.UTC, first.OccurredAt.Location())
	assert.True(t, first.OccurredAt.Equal(placedAt))
	assert.Less(t, first.ID, second.ID, "ids sort in creation order")
	assert.True(t, json.Valid(first.Payload))

	msg := first.ToMessage()
	assert.Equal(t, first.ID, msg.ID)
	assert.Equal(t, string(first.Payload), msg.Payload)
}

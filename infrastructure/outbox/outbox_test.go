package outbox_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"storefront/domain/order"
	"storefront/domain/shared"
	"storefront/infrastructure/outbox"
	"storefront/infrastructure/persistence/memory"
	"storefront/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

var occurred = time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

func placedEvent(orderID string) shared.DomainEvent {
	return order.NewOrderPlacedEvent(orderID, "user-1", *shared.NewMoney(114800, "INR"), order.PaymentMethodGPay, occurred)
}

type recordingPublisher struct {
	mu       sync.Mutex
	types    []string
	failures map[string]error
}

func (p *recordingPublisher) Publish(_ context.Context, eventType, _ string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.failures[eventType]; err != nil {
		return err
	}
	p.types = append(p.types, eventType)
	return nil
}

func TestEncodeDecode(t *testing.T) {
	payload, err := outbox.Encode(placedEvent("ord-1"))
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"event_name": "order.placed",
		"aggregate_id": "ord-1",
		"occurred_on": "2024-03-01T09:30:00Z",
		"data": {
			"order_id": "ord-1",
			"user_id": "user-1",
			"grand_total": 114800,
			"currency": "INR",
			"payment_method": "gpay"
		}
	}`, payload)

	event, err := outbox.Decode("", payload)
	require.NoError(t, err)
	assert.Equal(t, order.EventOrderPlaced, event.EventName())
	assert.Equal(t, "ord-1", event.GetAggregateID())
	assert.True(t, occurred.Equal(event.OccurredOn()))
	assert.Equal(t, "user-1", event.String("user_id"))
	assert.Empty(t, event.String("grand_total"))

	renamed, err := outbox.Decode("order.legacy", payload)
	require.NoError(t, err)
	assert.Equal(t, "order.legacy", renamed.EventName())

	_, err = outbox.Decode("", "{not json")
	assert.Error(t, err)
}

func TestNewWorkerValidation(t *testing.T) {
	store := memory.NewOutboxStore()
	pub := &recordingPublisher{}

	tests := []struct {
		name      string
		store     outbox.Store
		publisher outbox.Publisher
		interval  time.Duration
		batch     int
		retries   int
	}{
		{"missing store", nil, pub, time.Second, 10, 3},
		{"missing publisher", store, nil, time.Second, 10, 3},
		{"zero interval", store, pub, 0, 10, 3},
		{"zero batch", store, pub, time.Second, 0, 3},
		{"zero retries", store, pub, time.Second, 10, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := outbox.NewWorker(tt.store, tt.publisher, tt.interval, tt.batch, tt.retries)
			assert.Error(t, err)
		})
	}
}

func TestProcessBatchPublishesInOrder(t *testing.T) {
	ctx := context.Background()
	store := memory.NewOutboxStore()
	require.NoError(t, store.SaveEvent(ctx, placedEvent("ord-1")))
	require.NoError(t, store.SaveEvent(ctx, order.NewOrderCancelledEvent("ord-1", "user-1", "changed my mind", occurred)))
	require.NoError(t, store.SaveEvent(ctx, placedEvent("ord-2")))

	pub := &recordingPublisher{}
	worker, err := outbox.NewWorker(store, pub, time.Second, 2, 3)
	require.NoError(t, err)

	n, err := worker.ProcessBatch(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{order.EventOrderPlaced, order.EventOrderCancelled}, pub.types)
	assert.Equal(t, 1, store.Pending())

	n, err = worker.ProcessBatch(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Zero(t, store.Pending())
}

func TestProcessBatchRetriesThenGivesUp(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	defer logger.Replace(zap.New(core))()

	ctx := context.Background()
	store := memory.NewOutboxStore()
	require.NoError(t, store.SaveEvent(ctx, placedEvent("ord-1")))

	pub := &recordingPublisher{failures: map[string]error{order.EventOrderPlaced: errors.New("broker unavailable")}}
	worker, err := outbox.NewWorker(store, pub, time.Second, 10, 2)
	require.NoError(t, err)

	n, err := worker.ProcessBatch(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, 1, store.Pending())

	pending, err := store.GetPendingEvents(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, 1, pending[0].RetryCount)

	_, err = worker.ProcessBatch(ctx)
	require.NoError(t, err)
	assert.Zero(t, store.Pending(), "event is parked after max retries")
	assert.Equal(t, 2, logs.FilterMessage("Outbox publish failed").Len())
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	store := memory.NewOutboxStore()
	require.NoError(t, store.SaveEvent(ctx, placedEvent("ord-1")))

	pub := &recordingPublisher{}
	worker, err := outbox.NewWorker(store, pub, 10*time.Millisecond, 10, 3)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- worker.Run(ctx) }()

	assert.Eventually(t, func() bool { return store.Pending() == 0 }, time.Second, 10*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}

func TestDispatchPublisherDeliversToBus(t *testing.T) {
	bus := shared.NewEventBus()
	var got []shared.DomainEvent
	require.NoError(t, bus.Subscribe(order.EventOrderPlaced, shared.NewFuncHandler("capture", func(_ context.Context, e shared.DomainEvent) error {
		got = append(got, e)
		return nil
	})))

	payload, err := outbox.Encode(placedEvent("ord-9"))
	require.NoError(t, err)

	pub := outbox.NewDispatchPublisher(bus)
	require.NoError(t, pub.Publish(context.Background(), order.EventOrderPlaced, payload))

	require.Len(t, got, 1)
	assert.Equal(t, "ord-9", got[0].GetAggregateID())

	assert.Error(t, pub.Publish(context.Background(), order.EventOrderPlaced, "garbage"))
	assert.NoError(t, pub.Publish(context.Background(), "order.archived", "garbage"), "no subscribers, nothing to decode")
}

func TestLoggingPublisher(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	defer logger.Replace(zap.New(core))()

	pub := &outbox.LoggingPublisher{}
	require.NoError(t, pub.Publish(context.Background(), "order.placed", `{"x":1}`))

	entries := logs.FilterMessage("Outbox event published").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "order.placed", entries[0].ContextMap()["event_type"])
}

type reclaimingStore struct {
	*memory.OutboxStore
	requeued   int64
	err        error
	staleAfter []time.Duration
}

func (s *reclaimingStore) RequeueStale(_ context.Context, olderThan time.Duration) (int64, error) {
	s.staleAfter = append(s.staleAfter, olderThan)
	return s.requeued, s.err
}

func TestProcessBatchRequeuesStaleClaims(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	defer logger.Replace(zap.New(core))()

	ctx := context.Background()
	store := &reclaimingStore{OutboxStore: memory.NewOutboxStore(), requeued: 2}
	require.NoError(t, store.SaveEvent(ctx, placedEvent("ord-1")))

	worker, err := outbox.NewWorker(store, &recordingPublisher{}, time.Second, 10, 3)
	require.NoError(t, err)

	n, err := worker.ProcessBatch(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []time.Duration{outbox.DefaultStaleAfter}, store.staleAfter)
	require.Equal(t, 1, logs.FilterMessage("Requeued stale outbox events").Len())

	// a failing requeue never blocks publishing
	store.err = errors.New("connection reset")
	require.NoError(t, store.SaveEvent(ctx, placedEvent("ord-2")))
	n, err = worker.ProcessBatch(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, logs.FilterMessage("Failed to requeue stale outbox events").Len())
}

package outbox

import (
	"context"
	"fmt"
	"time"

	"storefront/pkg/logger"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

const metricNamespace = "storefront/outbox"

// Message one stored outbox row
type Message struct {
	ID          string
	AggregateID string
	EventType   string
	Payload     string
	RetryCount  int
}

// Store outbox persistence used by the worker (mysql, mongo)
type Store interface {
	GetPendingEvents(ctx context.Context, limit int) ([]Message, error)

	// MarkEventProcessing claims a pending event; an error means someone else has it.
	MarkEventProcessing(ctx context.Context, eventID string) error
	MarkEventPublished(ctx context.Context, eventID string) error

	// MarkEventFailed returns the event to pending until maxRetries is reached.
	MarkEventFailed(ctx context.Context, eventID string, maxRetries int) error
}

// Reclaimer stores that can release claims left behind by a crashed worker.
type Reclaimer interface {
	RequeueStale(ctx context.Context, olderThan time.Duration) (int64, error)
}

// DefaultStaleAfter PROCESSING claims older than this are returned to pending.
const DefaultStaleAfter = 5 * time.Minute

type Publisher interface {
	Publish(ctx context.Context, eventType, payload string) error
}

type Worker struct {
	store        Store
	publisher    Publisher
	pollInterval time.Duration
	batchSize    int
	maxRetries   int
	staleAfter   time.Duration

	published     metric.Int64Counter
	failed        metric.Int64Counter
	batchDuration metric.Float64Histogram
}

func NewWorker(
	store Store,
	publisher Publisher,
	pollInterval time.Duration,
	batchSize int,
	maxRetries int,
) (*Worker, error) {
	if store == nil {
		return nil, fmt.Errorf("outbox store is required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher is required")
	}
	if pollInterval <= 0 {
		return nil, fmt.Errorf("poll interval must be positive")
	}
	if batchSize <= 0 {
		return nil, fmt.Errorf("batch size must be positive")
	}
	if maxRetries <= 0 {
		return nil, fmt.Errorf("max retries must be positive")
	}

	w := &Worker{
		store:        store,
		publisher:    publisher,
		pollInterval: pollInterval,
		batchSize:    batchSize,
		maxRetries:   maxRetries,
		staleAfter:   DefaultStaleAfter,
	}
	w.registerMetrics(otel.GetMeterProvider().Meter(metricNamespace))
	return w, nil
}

// registerMetrics instruments that fail to register stay nil and are skipped.
func (w *Worker) registerMetrics(meter metric.Meter) {
	var err error
	if w.published, err = meter.Int64Counter(
		"outbox.events.published",
		metric.WithDescription("Outbox events handed to the publisher"),
	); err != nil {
		logger.Warn("outbox: unable to register published counter", zap.Error(err))
	}
	if w.failed, err = meter.Int64Counter(
		"outbox.events.failed",
		metric.WithDescription("Outbox publish attempts that failed"),
	); err != nil {
		logger.Warn("outbox: unable to register failed counter", zap.Error(err))
	}
	if w.batchDuration, err = meter.Float64Histogram(
		"outbox.batch.duration",
		metric.WithUnit("ms"),
		metric.WithDescription("Time spent processing one outbox batch"),
	); err != nil {
		logger.Warn("outbox: unable to register batch duration histogram", zap.Error(err))
	}
}

// Run polls until ctx is cancelled; returns ctx.Err().
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	logger.Info("Outbox worker started",
		zap.Duration("poll_interval", w.pollInterval),
		zap.Int("batch_size", w.batchSize))

	for {
		select {
		case <-ctx.Done():
			logger.Info("Outbox worker stopped")
			return ctx.Err()
		case <-ticker.C:
			if _, err := w.ProcessBatch(ctx); err != nil {
				logger.Error("Outbox batch processing failed", zap.Error(err))
			}
		}
	}
}

// ProcessBatch publishes up to batchSize pending events; returns how many were published.
func (w *Worker) ProcessBatch(ctx context.Context) (int, error) {
	start := time.Now()
	defer func() {
		if w.batchDuration != nil {
			w.batchDuration.Record(ctx, float64(time.Since(start))/float64(time.Millisecond))
		}
	}()

	w.requeueStale(ctx)

	events, err := w.store.GetPendingEvents(ctx, w.batchSize)
	if err != nil {
		return 0, err
	}

	published := 0
	for _, event := range events {
		if err := w.store.MarkEventProcessing(ctx, event.ID); err != nil {
			logger.Warn("Skip outbox event due to lock contention",
				zap.String("event_id", event.ID),
				zap.Error(err),
			)
			continue
		}

		if err := w.publisher.Publish(ctx, event.EventType, event.Payload); err != nil {
			logger.Warn("Outbox publish failed",
				zap.String("event_id", event.ID),
				zap.String("event_type", event.EventType),
				zap.Int("retry_count", event.RetryCount),
				zap.Error(err),
			)
			if w.failed != nil {
				w.failed.Add(ctx, 1, metric.WithAttributes(attribute.String("event_type", event.EventType)))
			}
			if failErr := w.store.MarkEventFailed(ctx, event.ID, w.maxRetries); failErr != nil {
				logger.Error("Failed to mark outbox event as failed",
					zap.String("event_id", event.ID),
					zap.Error(failErr),
				)
			}
			continue
		}

		if err := w.store.MarkEventPublished(ctx, event.ID); err != nil {
			logger.Error("Failed to mark outbox event as published",
				zap.String("event_id", event.ID),
				zap.Error(err),
			)
			continue
		}
		published++
		if w.published != nil {
			w.published.Add(ctx, 1, metric.WithAttributes(attribute.String("event_type", event.EventType)))
		}
	}

	return published, nil
}

func (w *Worker) requeueStale(ctx context.Context) {
	reclaimer, ok := w.store.(Reclaimer)
	if !ok {
		return
	}
	n, err := reclaimer.RequeueStale(ctx, w.staleAfter)
	if err != nil {
		logger.Warn("Failed to requeue stale outbox events", zap.Error(err))
		return
	}
	if n > 0 {
		logger.Warn("Requeued stale outbox events",
			zap.Int64("count", n),
			zap.Duration("stale_after", w.staleAfter))
	}
}

package mongo

import (
	"context"
	"fmt"
	"time"

	"storefront/domain/shared"
	"storefront/infrastructure/outbox"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	statusPending    = "PENDING"
	statusProcessing = "PROCESSING"
	statusPublished  = "PUBLISHED"
	statusFailed     = "FAILED"
)

type outboxDocument struct {
	ID          string    `bson:"_id"`
	AggregateID string    `bson:"aggregate_id"`
	EventType   string    `bson:"event_type"`
	Payload     string    `bson:"payload"`
	Status      string    `bson:"status"`
	RetryCount  int       `bson:"retry_count"`
	CreatedAt   time.Time `bson:"created_at"`
	UpdatedAt   time.Time `bson:"updated_at"`
}

// OutboxRepository outbox_events collection; SaveEvent joins the session in ctx.
type OutboxRepository struct {
	coll *mongo.Collection
}

func NewOutboxRepository(db *mongo.Database) *OutboxRepository {
	return &OutboxRepository{coll: db.Collection(outboxCollection)}
}

func (r *OutboxRepository) SaveEvent(ctx context.Context, event shared.DomainEvent) error {
	return r.SaveEvents(ctx, []shared.DomainEvent{event})
}

// SaveEvents one InsertMany; joins the session transaction carried by ctx.
func (r *OutboxRepository) SaveEvents(ctx context.Context, events []shared.DomainEvent) error {
	if len(events) == 0 {
		return nil
	}
	now := time.Now().UTC()
	docs := make([]interface{}, 0, len(events))
	for _, event := range events {
		if err := shared.ValidateEvent(event); err != nil {
			return fmt.Errorf("invalid domain event: %w", err)
		}
		payload, err := outbox.Encode(event)
		if err != nil {
			return fmt.Errorf("failed to encode %s: %w", event.EventName(), err)
		}
		docs = append(docs, outboxDocument{
			ID:          uuid.New().String(),
			AggregateID: event.GetAggregateID(),
			EventType:   event.EventName(),
			Payload:     payload,
			Status:      statusPending,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
	}

	if _, err := r.coll.InsertMany(ctx, docs, options.InsertMany().SetOrdered(true)); err != nil {
		return fmt.Errorf("failed to save events to outbox: %w", err)
	}
	return nil
}

func (r *OutboxRepository) GetPendingEvents(ctx context.Context, limit int) ([]outbox.Message, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}}).
		SetLimit(int64(limit))
	cursor, err := r.coll.Find(ctx, bson.M{"status": statusPending}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to get pending events: %w", err)
	}
	var docs []outboxDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode pending events: %w", err)
	}

	messages := make([]outbox.Message, len(docs))
	for i, doc := range docs {
		messages[i] = outbox.Message{
			ID:          doc.ID,
			AggregateID: doc.AggregateID,
			EventType:   doc.EventType,
			Payload:     doc.Payload,
			RetryCount:  doc.RetryCount,
		}
	}
	return messages, nil
}

func (r *OutboxRepository) MarkEventProcessing(ctx context.Context, eventID string) error {
	result, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": eventID, "status": statusPending},
		bson.M{"$set": bson.M{"status": statusProcessing, "updated_at": time.Now().UTC()}})
	if err != nil {
		return err
	}
	if result.ModifiedCount == 0 {
		return fmt.Errorf("event not found or already being processed: %s", eventID)
	}
	return nil
}

func (r *OutboxRepository) MarkEventPublished(ctx context.Context, eventID string) error {
	result, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": eventID, "status": statusProcessing},
		bson.M{"$set": bson.M{"status": statusPublished, "updated_at": time.Now().UTC()}})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("event not in processing: %s", eventID)
	}
	return nil
}

// MarkEventFailed pipeline update: the attempt is counted and the status
// decided in one atomic write.
func (r *OutboxRepository) MarkEventFailed(ctx context.Context, eventID string, maxRetries int) error {
	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"retry_count": bson.M{"$add": bson.A{"$retry_count", 1}},
			"updated_at":  time.Now().UTC(),
		}}},
		{{Key: "$set", Value: bson.M{
			"status": bson.M{"$cond": bson.A{
				bson.M{"$gte": bson.A{"$retry_count", maxRetries}},
				statusFailed,
				statusPending,
			}},
		}}},
	}
	result, err := r.coll.UpdateOne(ctx, bson.M{"_id": eventID, "status": statusProcessing}, pipeline)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("event not in processing: %s", eventID)
	}
	return nil
}

// RequeueStale releases claims older than olderThan back to pending.
func (r *OutboxRepository) RequeueStale(ctx context.Context, olderThan time.Duration) (int64, error) {
	now := time.Now().UTC()
	result, err := r.coll.UpdateMany(ctx,
		bson.M{"status": statusProcessing, "updated_at": bson.M{"$lt": now.Add(-olderThan)}},
		bson.M{"$set": bson.M{"status": statusPending, "updated_at": now}})
	if err != nil {
		return 0, fmt.Errorf("failed to requeue stale events: %w", err)
	}
	return result.ModifiedCount, nil
}

var (
	_ shared.OutboxRepository = (*OutboxRepository)(nil)
	_ outbox.Store            = (*OutboxRepository)(nil)
	_ outbox.Reclaimer        = (*OutboxRepository)(nil)
)

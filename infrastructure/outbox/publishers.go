package outbox

import (
	"context"
	"fmt"

	"storefront/domain/shared"
	"storefront/pkg/logger"

	"cloud.google.com/go/pubsub"
	"go.uber.org/zap"
)

// LoggingPublisher only logs; useful when nothing consumes events.
type LoggingPublisher struct{}

func (p *LoggingPublisher) Publish(ctx context.Context, eventType, payload string) error {
	logger.FromContext(ctx).Info("Outbox event published",
		zap.String("event_type", eventType),
		zap.String("payload", payload),
	)
	return nil
}

// DispatchPublisher decodes the stored event and hands it to the in-process bus.
type DispatchPublisher struct {
	bus *shared.EventBus
}

func NewDispatchPublisher(bus *shared.EventBus) *DispatchPublisher {
	return &DispatchPublisher{bus: bus}
}

// Publish events nobody subscribed to are acknowledged without decoding.
func (p *DispatchPublisher) Publish(ctx context.Context, eventType, payload string) error {
	if !p.bus.HasSubscribers(eventType) {
		return nil
	}
	event, err := Decode(eventType, payload)
	if err != nil {
		return err
	}
	return p.bus.Publish(ctx, event)
}

// PubSubPublisher publishes to a Google Cloud Pub/Sub topic; subscribers
// receive the envelope as message data and the event name as an attribute.
type PubSubPublisher struct {
	client *pubsub.Client
	topic  *pubsub.Topic
}

func NewPubSubPublisher(ctx context.Context, projectID, topicID string) (*PubSubPublisher, error) {
	client, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create pubsub client: %w", err)
	}
	topic := client.Topic(topicID)
	topic.EnableMessageOrdering = true
	return &PubSubPublisher{client: client, topic: topic}, nil
}

func (p *PubSubPublisher) Publish(ctx context.Context, eventType, payload string) error {
	event, err := Decode(eventType, payload)
	if err != nil {
		return err
	}
	result := p.topic.Publish(ctx, &pubsub.Message{
		Data: []byte(payload),
		Attributes: map[string]string{
			"event_type":   eventType,
			"aggregate_id": event.AggregateID,
		},
		// 同一订单的事件保持顺序
		OrderingKey: event.AggregateID,
	})
	if _, err := result.Get(ctx); err != nil {
		p.topic.ResumePublish(event.AggregateID)
		return fmt.Errorf("failed to publish %s to pubsub: %w", eventType, err)
	}
	return nil
}

// Close flushes pending messages.
func (p *PubSubPublisher) Close() error {
	p.topic.Stop()
	return p.client.Close()
}

var (
	_ Publisher = (*LoggingPublisher)(nil)
	_ Publisher = (*DispatchPublisher)(nil)
	_ Publisher = (*PubSubPublisher)(nil)
)

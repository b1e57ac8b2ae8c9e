/*
Package outbox relays events saved by the transactional outbox to a publisher.

Events are stored as a JSON envelope {event_name, aggregate_id, occurred_on,
data}; data is the event's Payload() when it implements shared.EventPayloader.
*/
package outbox

import (
	"encoding/json"
	"fmt"
	"time"

	"storefront/domain/shared"
)

type envelope struct {
	EventName   string         `json:"event_name"`
	AggregateID string         `json:"aggregate_id"`
	OccurredOn  time.Time      `json:"occurred_on"`
	Data        map[string]any `json:"data,omitempty"`
}

// Encode serializes a domain event for storage in the outbox.
func Encode(event shared.DomainEvent) (string, error) {
	env := envelope{
		EventName:   event.EventName(),
		AggregateID: event.GetAggregateID(),
		OccurredOn:  event.OccurredOn(),
	}
	if p, ok := event.(shared.EventPayloader); ok {
		env.Data = p.Payload()
	}
	data, err := json.Marshal(env)
	if err != nil {
		return "", fmt.Errorf("failed to encode event %s: %w", event.EventName(), err)
	}
	return string(data), nil
}

// Decode rebuilds a stored event. eventType wins over the envelope name.
func Decode(eventType, payload string) (*shared.RecordedEvent, error) {
	var env envelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		return nil, fmt.Errorf("failed to decode outbox payload: %w", err)
	}
	name := eventType
	if name == "" {
		name = env.EventName
	}
	return &shared.RecordedEvent{
		Name:        name,
		AggregateID: env.AggregateID,
		Occurred:    env.OccurredOn,
		Data:        env.Data,
	}, nil
}

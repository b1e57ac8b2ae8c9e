package shared

import (
	"context"
	"errors"
	"time"
)

// DomainEvent 聚合产生的事件信封
type DomainEvent interface {
	EventName() string
	OccurredOn() time.Time
	GetAggregateID() string
}

// EventPayloader is implemented by events that carry data beyond the envelope.
// The outbox serialises Payload() next to name, aggregate id and timestamp.
type EventPayloader interface {
	Payload() map[string]any
}

type EventHandler interface {
	Handle(ctx context.Context, event DomainEvent) error
	Name() string
}

var (
	errNilEvent       = errors.New("event cannot be nil")
	errEmptyEventName = errors.New("event name cannot be empty")
	errEmptyAggregate = errors.New("aggregate ID cannot be empty")
	errZeroOccurrence = errors.New("occurred on time cannot be zero")
)

// ValidateEvent envelope completeness; payload contents are not inspected.
func ValidateEvent(event DomainEvent) error {
	switch {
	case event == nil:
		return errNilEvent
	case event.EventName() == "":
		return errEmptyEventName
	case event.GetAggregateID() == "":
		return errEmptyAggregate
	case event.OccurredOn().IsZero():
		return errZeroOccurrence
	}
	return nil
}

// RecordedEvent 从 outbox 还原的事件，只保留信封与载荷
type RecordedEvent struct {
	Name        string
	AggregateID string
	Occurred    time.Time
	Data        map[string]any
}

func (e *RecordedEvent) EventName() string       { return e.Name }
func (e *RecordedEvent) OccurredOn() time.Time   { return e.Occurred }
func (e *RecordedEvent) GetAggregateID() string  { return e.AggregateID }
func (e *RecordedEvent) Payload() map[string]any { return e.Data }

// String reads a string field from the payload; missing or non-string yields "".
func (e *RecordedEvent) String(key string) string {
	v, _ := e.Data[key].(string)
	return v
}

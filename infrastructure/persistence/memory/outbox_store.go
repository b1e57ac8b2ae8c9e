package memory

import (
	"context"
	"fmt"
	"sync"

	"storefront/domain/shared"
	"storefront/infrastructure/outbox"

	"github.com/google/uuid"
)

type outboxStatus string

const (
	outboxPending    outboxStatus = "PENDING"
	outboxProcessing outboxStatus = "PROCESSING"
	outboxPublished  outboxStatus = "PUBLISHED"
	outboxFailed     outboxStatus = "FAILED"
)

type outboxEntry struct {
	message outbox.Message
	status  outboxStatus
}

// OutboxStore in-memory outbox; the same worker relays it as in the SQL backends.
type OutboxStore struct {
	entries []*outboxEntry
	mu      sync.Mutex
}

func NewOutboxStore() *OutboxStore {
	return &OutboxStore{}
}

func (s *OutboxStore) SaveEvent(_ context.Context, event shared.DomainEvent) error {
	if err := shared.ValidateEvent(event); err != nil {
		return fmt.Errorf("invalid domain event: %w", err)
	}
	payload, err := outbox.Encode(event)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, &outboxEntry{
		message: outbox.Message{
			ID:          uuid.NewString(),
			AggregateID: event.GetAggregateID(),
			EventType:   event.EventName(),
			Payload:     payload,
		},
		status: outboxPending,
	})
	return nil
}

// GetPendingEvents oldest first
func (s *OutboxStore) GetPendingEvents(_ context.Context, limit int) ([]outbox.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var pending []outbox.Message
	for _, e := range s.entries {
		if e.status != outboxPending {
			continue
		}
		pending = append(pending, e.message)
		if limit > 0 && len(pending) >= limit {
			break
		}
	}
	return pending, nil
}

func (s *OutboxStore) MarkEventProcessing(_ context.Context, eventID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.find(eventID)
	if e == nil || e.status != outboxPending {
		return fmt.Errorf("event not found or already being processed: %s", eventID)
	}
	e.status = outboxProcessing
	return nil
}

func (s *OutboxStore) MarkEventPublished(_ context.Context, eventID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.find(eventID)
	if e == nil {
		return fmt.Errorf("event not found: %s", eventID)
	}
	e.status = outboxPublished
	return nil
}

func (s *OutboxStore) MarkEventFailed(_ context.Context, eventID string, maxRetries int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.find(eventID)
	if e == nil {
		return fmt.Errorf("event not found: %s", eventID)
	}
	e.message.RetryCount++
	if e.message.RetryCount < maxRetries {
		e.status = outboxPending
	} else {
		e.status = outboxFailed
	}
	return nil
}

// Pending number of events still waiting to be relayed
func (s *OutboxStore) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, e := range s.entries {
		if e.status == outboxPending {
			n++
		}
	}
	return n
}

func (s *OutboxStore) find(eventID string) *outboxEntry {
	for _, e := range s.entries {
		if e.message.ID == eventID {
			return e
		}
	}
	return nil
}

var (
	_ outbox.Store            = (*OutboxStore)(nil)
	_ shared.OutboxRepository = (*OutboxStore)(nil)
)

package po

import (
	"time"

	"storefront/domain/shared"
	"storefront/infrastructure/outbox"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// outbox 行状态：PENDING -> PROCESSING -> PUBLISHED，失败回到 PENDING，重试用尽为 FAILED
const (
	OutboxPending    = "PENDING"
	OutboxProcessing = "PROCESSING"
	OutboxPublished  = "PUBLISHED"
	OutboxFailed     = "FAILED"
)

// OutboxEventPO ids are UUIDv7 so insertion order follows time; the worker
// polls by (status, created_at).
type OutboxEventPO struct {
	ID          string         `gorm:"primaryKey;size:64"`
	AggregateID string         `gorm:"size:64;index;not null"`
	EventType   string         `gorm:"size:100;not null"`
	Payload     datatypes.JSON `gorm:"not null"`
	Status      string         `gorm:"size:20;not null;default:PENDING;index:idx_outbox_poll,priority:1"`
	RetryCount  int            `gorm:"not null;default:0"`
	OccurredAt  time.Time      `gorm:"not null"`
	CreatedAt   time.Time      `gorm:"index:idx_outbox_poll,priority:2"`
	UpdatedAt   time.Time
}

func (OutboxEventPO) TableName() string { return "outbox_events" }

func FromDomainEvent(event shared.DomainEvent) (*OutboxEventPO, error) {
	payload, err := outbox.Encode(event)
	if err != nil {
		return nil, err
	}
	id, err := uuid.NewV7()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &OutboxEventPO{
		ID:          id.String(),
		AggregateID: event.GetAggregateID(),
		EventType:   event.EventName(),
		Payload:     datatypes.JSON(payload),
		Status:      OutboxPending,
		OccurredAt:  event.OccurredOn().UTC(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

func (row *OutboxEventPO) ToMessage() outbox.Message {
	return outbox.Message{
		ID:          row.ID,
		AggregateID: row.AggregateID,
		EventType:   row.EventType,
		Payload:     string(row.Payload),
		RetryCount:  row.RetryCount,
	}
}

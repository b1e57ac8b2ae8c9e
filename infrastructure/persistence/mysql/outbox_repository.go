package mysql

import (
	"context"
	"fmt"
	"time"

	"storefront/domain/shared"
	"storefront/infrastructure/outbox"
	"storefront/infrastructure/persistence/mysql/po"

	"gorm.io/gorm"
)

// OutboxRepository outbox_events table. Events are inserted inside the UoW
// transaction; the worker claims rows by flipping PENDING to PROCESSING.
type OutboxRepository struct {
	db *gorm.DB
}

func NewOutboxRepository(db *gorm.DB) *OutboxRepository {
	return &OutboxRepository{db: db}
}

func (r *OutboxRepository) events(ctx context.Context) *gorm.DB {
	return conn(ctx, r.db).Model(&po.OutboxEventPO{})
}

// SaveEvent single-event variant of SaveEvents
func (r *OutboxRepository) SaveEvent(ctx context.Context, event shared.DomainEvent) error {
	return r.SaveEvents(ctx, []shared.DomainEvent{event})
}

// SaveEvents inserts all events with one statement. Outside a UoW the insert
// is its own implicit transaction.
func (r *OutboxRepository) SaveEvents(ctx context.Context, events []shared.DomainEvent) error {
	if len(events) == 0 {
		return nil
	}
	rows := make([]*po.OutboxEventPO, 0, len(events))
	for _, event := range events {
		if err := shared.ValidateEvent(event); err != nil {
			return fmt.Errorf("invalid domain event: %w", err)
		}
		row, err := po.FromDomainEvent(event)
		if err != nil {
			return fmt.Errorf("failed to encode %s: %w", event.EventName(), err)
		}
		rows = append(rows, row)
	}

	if err := conn(ctx, r.db).Create(&rows).Error; err != nil {
		return fmt.Errorf("failed to save events to outbox: %w", err)
	}
	return nil
}

// GetPendingEvents oldest first
func (r *OutboxRepository) GetPendingEvents(ctx context.Context, limit int) ([]outbox.Message, error) {
	var rows []po.OutboxEventPO
	if err := r.events(ctx).
		Where("status = ?", po.OutboxPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to get pending events: %w", err)
	}

	messages := make([]outbox.Message, len(rows))
	for i := range rows {
		messages[i] = rows[i].ToMessage()
	}
	return messages, nil
}

// MarkEventProcessing 条件更新，并发 worker 中只有一个能抢到
func (r *OutboxRepository) MarkEventProcessing(ctx context.Context, eventID string) error {
	claimed, err := r.transition(ctx, eventID, po.OutboxPending, map[string]any{
		"status": po.OutboxProcessing,
	})
	if err != nil {
		return err
	}
	if !claimed {
		return fmt.Errorf("event not found or already being processed: %s", eventID)
	}
	return nil
}

func (r *OutboxRepository) MarkEventPublished(ctx context.Context, eventID string) error {
	done, err := r.transition(ctx, eventID, po.OutboxProcessing, map[string]any{
		"status": po.OutboxPublished,
	})
	if err != nil {
		return err
	}
	if !done {
		return fmt.Errorf("event not in processing: %s", eventID)
	}
	return nil
}

// MarkEventFailed counts the attempt and parks the row as FAILED once
// maxRetries attempts are used, all in one statement.
// gorm sorts map keys and MySQL applies SET left to right, so the CASE
// already sees the incremented retry_count.
func (r *OutboxRepository) MarkEventFailed(ctx context.Context, eventID string, maxRetries int) error {
	done, err := r.transition(ctx, eventID, po.OutboxProcessing, map[string]any{
		"retry_count": gorm.Expr("retry_count + 1"),
		"status": gorm.Expr("CASE WHEN retry_count >= ? THEN ? ELSE ? END",
			maxRetries, po.OutboxFailed, po.OutboxPending),
	})
	if err != nil {
		return err
	}
	if !done {
		return fmt.Errorf("event not in processing: %s", eventID)
	}
	return nil
}

// RequeueStale returns rows stuck in PROCESSING (a worker died mid-publish)
// to PENDING. The publish may be repeated; consumers must tolerate duplicates.
func (r *OutboxRepository) RequeueStale(ctx context.Context, olderThan time.Duration) (int64, error) {
	result := r.events(ctx).
		Where("status = ? AND updated_at < ?", po.OutboxProcessing, time.Now().Add(-olderThan)).
		Updates(map[string]any{
			"status":     po.OutboxPending,
			"updated_at": gorm.Expr("NOW()"),
		})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to requeue stale events: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (r *OutboxRepository) transition(ctx context.Context, eventID string, from string, updates map[string]any) (bool, error) {
	updates["updated_at"] = gorm.Expr("NOW()")
	result := r.events(ctx).
		Where("id = ? AND status = ?", eventID, from).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

var (
	_ shared.OutboxRepository = (*OutboxRepository)(nil)
	_ outbox.Store            = (*OutboxRepository)(nil)
	_ outbox.Reclaimer        = (*OutboxRepository)(nil)
)

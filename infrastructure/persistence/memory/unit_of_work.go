package memory

import (
	"context"
	"fmt"

	"storefront/domain/shared"
	"storefront/infrastructure/persistence/retry"
)

// UnitOfWork has no rollback: writes made inside fn stay even when fn fails.
// Callers check shared.RequiresCompensation and undo partial work themselves.
// Events of registered aggregates go to the outbox after fn succeeds.
type UnitOfWork struct {
	outbox      shared.OutboxRepository
	aggregates  []shared.AggregateRoot
	retryConfig retry.Config
}

func NewUnitOfWork(outbox shared.OutboxRepository, retryConfig retry.Config) *UnitOfWork {
	return &UnitOfWork{outbox: outbox, retryConfig: retryConfig}
}

func (u *UnitOfWork) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	executeOnce := func(ctx context.Context) error {
		u.aggregates = make([]shared.AggregateRoot, 0)

		if err := fn(ctx); err != nil {
			return err
		}

		for _, agg := range u.aggregates {
			for _, event := range agg.PullEvents() {
				if u.outbox == nil {
					continue
				}
				if err := u.outbox.SaveEvent(ctx, event); err != nil {
					return fmt.Errorf("failed to save event to outbox: %w", err)
				}
			}
		}
		return nil
	}

	return retry.ExecuteWithRetry(ctx, u.retryConfig, executeOnce)
}

func (u *UnitOfWork) RegisterNew(aggregate shared.AggregateRoot) {
	u.aggregates = append(u.aggregates, aggregate)
}

func (u *UnitOfWork) RegisterDirty(aggregate shared.AggregateRoot) {
	u.aggregates = append(u.aggregates, aggregate)
}

func (u *UnitOfWork) RegisterRemoved(aggregate shared.AggregateRoot) {
	u.aggregates = append(u.aggregates, aggregate)
}

func (u *UnitOfWork) RequiresCompensation() bool { return true }

type UnitOfWorkFactory struct {
	outbox      shared.OutboxRepository
	retryConfig retry.Config
}

func NewUnitOfWorkFactory(outbox shared.OutboxRepository, retryConfig retry.Config) *UnitOfWorkFactory {
	return &UnitOfWorkFactory{outbox: outbox, retryConfig: retryConfig}
}

func (f *UnitOfWorkFactory) New() shared.UnitOfWork {
	return NewUnitOfWork(f.outbox, f.retryConfig)
}

var (
	_ shared.UnitOfWork        = (*UnitOfWork)(nil)
	_ shared.Compensating      = (*UnitOfWork)(nil)
	_ shared.UnitOfWorkFactory = (*UnitOfWorkFactory)(nil)
)

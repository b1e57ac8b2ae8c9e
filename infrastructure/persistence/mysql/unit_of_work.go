package mysql

import (
	"context"

	"storefront/domain/shared"
	"storefront/infrastructure/persistence"
	"storefront/infrastructure/persistence/retry"

	"gorm.io/gorm"
)

// UnitOfWork one GORM transaction per attempt. Repositories pick the
// transaction up from ctx; events of registered aggregates are inserted into
// outbox_events before commit, so an order change and its notification event
// are stored together or not at all.
type UnitOfWork struct {
	db          *gorm.DB
	outbox      *OutboxRepository
	aggregates  []shared.AggregateRoot
	retryConfig retry.Config
}

func NewUnitOfWork(db *gorm.DB, retryConfig retry.Config) *UnitOfWork {
	return &UnitOfWork{
		db:          db,
		outbox:      NewOutboxRepository(db),
		retryConfig: retryConfig,
	}
}

// Execute retries the whole transaction on version conflicts, deadlocks and
// lock wait timeouts. fn must therefore be safe to run again.
func (u *UnitOfWork) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	return retry.ExecuteWithRetry(ctx, u.retryConfig, func(ctx context.Context) error {
		u.aggregates = u.aggregates[:0]

		return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			txCtx := persistence.ContextWithTx(ctx, tx)
			if err := fn(txCtx); err != nil {
				return err
			}

			var events []shared.DomainEvent
			for _, agg := range u.aggregates {
				events = append(events, agg.PullEvents()...)
			}
			return u.outbox.SaveEvents(txCtx, events)
		})
	})
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

// UnitOfWorkFactory 每个用例一个 UnitOfWork
type UnitOfWorkFactory struct {
	db          *gorm.DB
	retryConfig retry.Config
}

func NewUnitOfWorkFactory(db *gorm.DB, retryConfig retry.Config) *UnitOfWorkFactory {
	return &UnitOfWorkFactory{db: db, retryConfig: retryConfig}
}

func (f *UnitOfWorkFactory) New() shared.UnitOfWork {
	return NewUnitOfWork(f.db, f.retryConfig)
}

var (
	_ shared.UnitOfWork        = (*UnitOfWork)(nil)
	_ shared.UnitOfWorkFactory = (*UnitOfWorkFactory)(nil)
)

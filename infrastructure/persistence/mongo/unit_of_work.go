package mongo

import (
	"context"
	"fmt"

	"storefront/domain/shared"
	"storefront/infrastructure/persistence/retry"

	"go.mongodb.org/mongo-driver/mongo"
)

// UnitOfWork runs fn inside a session transaction; events of registered
// aggregates are inserted into the outbox collection before commit.
type UnitOfWork struct {
	client      *mongo.Client
	outbox      *OutboxRepository
	aggregates  []shared.AggregateRoot
	retryConfig retry.Config
}

func NewUnitOfWork(client *mongo.Client, db *mongo.Database, retryConfig retry.Config) *UnitOfWork {
	if retryConfig.RetryPredicate == nil {
		retryConfig.RetryPredicate = IsTransient
	}
	return &UnitOfWork{
		client:      client,
		outbox:      NewOutboxRepository(db),
		retryConfig: retryConfig,
	}
}

func (u *UnitOfWork) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	executeOnce := func(ctx context.Context) error {
		session, err := u.client.StartSession()
		if err != nil {
			return fmt.Errorf("failed to start session: %w", err)
		}
		defer session.EndSession(ctx)

		_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
			u.aggregates = make([]shared.AggregateRoot, 0)

			if err := fn(sc); err != nil {
				return nil, err
			}
			var events []shared.DomainEvent
			for _, agg := range u.aggregates {
				events = append(events, agg.PullEvents()...)
			}
			return nil, u.outbox.SaveEvents(sc, events)
		})
		return err
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

type UnitOfWorkFactory struct {
	client      *mongo.Client
	db          *mongo.Database
	retryConfig retry.Config
}

func NewUnitOfWorkFactory(client *mongo.Client, db *mongo.Database, retryConfig retry.Config) *UnitOfWorkFactory {
	return &UnitOfWorkFactory{client: client, db: db, retryConfig: retryConfig}
}

func (f *UnitOfWorkFactory) New() shared.UnitOfWork {
	return NewUnitOfWork(f.client, f.db, f.retryConfig)
}

var (
	_ shared.UnitOfWork        = (*UnitOfWork)(nil)
	_ shared.UnitOfWorkFactory = (*UnitOfWorkFactory)(nil)
)

package cmd

import (
	"context"
	"fmt"

	"storefront/api/health"
	"storefront/config"
	"storefront/domain/catalog"
	"storefront/domain/order"
	"storefront/domain/shared"
	"storefront/domain/user"
	"storefront/infrastructure/outbox"
	"storefront/infrastructure/persistence/memory"
	mongostore "storefront/infrastructure/persistence/mongo"
	"storefront/infrastructure/persistence/mysql"
	"storefront/infrastructure/persistence/retry"
	"storefront/pkg/logger"

	"go.uber.org/zap"
)

// Backend persistence adapters for one database type
type Backend struct {
	Orders     order.Repository
	Catalog    catalog.Catalog
	Users      user.Repository
	UnitOfWork shared.UnitOfWorkFactory
	Outbox     outbox.Store
	Ping       health.Pinger
	Close      func(ctx context.Context) error
}

// OpenBackend connects the configured store. Products are seeded only into
// the in-memory catalog.
func OpenBackend(ctx context.Context, cfg *config.Config, seed []catalog.Product) (*Backend, error) {
	retryConfig := retry.FromAppConfig(cfg)

	switch cfg.Database.Type {
	case "mysql":
		return openMySQL(ctx, cfg, retryConfig)
	case "mongo":
		return openMongo(ctx, cfg, retryConfig)
	case "memory":
		logger.Info("Using in-memory persistence layer", zap.Int("seed_products", len(seed)))
		store := memory.NewOutboxStore()
		return &Backend{
			Orders:     memory.NewOrderRepository(),
			Catalog:    memory.NewCatalog(seed...),
			Users:      memory.NewUserRepository(),
			UnitOfWork: memory.NewUnitOfWorkFactory(store, retryConfig),
			Outbox:     store,
			Close:      func(context.Context) error { return nil },
		}, nil
	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.Database.Type)
	}
}

// mysqlOptions maps the database section onto the gorm connection options.
func mysqlOptions(cfg *config.Config) mysql.Options {
	return mysql.Options{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		Username:        cfg.Database.Username,
		Password:        cfg.Database.Password,
		Database:        cfg.Database.Database,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		LogLevel:        cfg.Log.Level,
		AutoMigrate:     cfg.Database.AutoMigrate,
	}
}

func openMySQL(ctx context.Context, cfg *config.Config, retryConfig retry.Config) (*Backend, error) {
	logger.Info("Using MySQL/GORM persistence layer")

	db, err := mysql.Open(ctx, mysqlOptions(cfg))
	if err != nil {
		return nil, err
	}
	return &Backend{
		Orders:     mysql.NewOrderRepository(db),
		Catalog:    mysql.NewProductRepository(db),
		Users:      mysql.NewUserRepository(db),
		UnitOfWork: mysql.NewUnitOfWorkFactory(db, retryConfig),
		Outbox:     mysql.NewOutboxRepository(db),
		Ping:       func(ctx context.Context) error { return mysql.Ping(ctx, db) },
		Close:      func(context.Context) error { return mysql.Close(db) },
	}, nil
}

func openMongo(ctx context.Context, cfg *config.Config, retryConfig retry.Config) (*Backend, error) {
	logger.Info("Using MongoDB persistence layer")

	client, db, err := mongostore.Connect(ctx, mongostore.Config{
		URI:            cfg.Database.Mongo.URI,
		Database:       cfg.Database.Mongo.Database,
		ConnectTimeout: cfg.Database.Mongo.ConnectTimeout,
	})
	if err != nil {
		return nil, err
	}
	if err := mongostore.EnsureIndexes(ctx, db); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to create mongodb indexes: %w", err)
	}

	retryConfig.RetryPredicate = mongostore.IsTransient
	return &Backend{
		Orders:     mongostore.NewOrderRepository(db),
		Catalog:    mongostore.NewProductRepository(db),
		Users:      mongostore.NewUserRepository(db),
		UnitOfWork: mongostore.NewUnitOfWorkFactory(client, db, retryConfig),
		Outbox:     mongostore.NewOutboxRepository(db),
		Ping: func(ctx context.Context) error {
			return client.Ping(ctx, nil)
		},
		Close: client.Disconnect,
	}, nil
}

package mysql

import (
	"context"
	"fmt"
	"net"
	"time"

	"storefront/infrastructure/persistence/mysql/po"
	"storefront/pkg/logger"

	mysqlDriver "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// Options connection settings; zero pool values fall back to the defaults below.
type Options struct {
	Host            string
	Port            string
	Username        string
	Password        string
	Database        string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	// LogLevel gorm log level name, see logger.ParseGormLevel
	LogLevel    string
	AutoMigrate bool
}

const (
	defaultMaxOpenConns    = 25
	defaultMaxIdleConns    = 10
	defaultConnMaxLifetime = 10 * time.Minute
	defaultConnMaxIdleTime = 5 * time.Minute
)

// DSN utf8mb4, UTC timestamps, parseTime on
func (o Options) DSN() string {
	c := mysqlDriver.NewConfig()
	c.User = o.Username
	c.Passwd = o.Password
	c.Net = "tcp"
	c.Addr = net.JoinHostPort(o.Host, o.Port)
	c.DBName = o.Database
	c.ParseTime = true
	c.Loc = time.UTC
	c.Collation = "utf8mb4_unicode_ci"
	c.ReadTimeout = 10 * time.Second
	c.WriteTimeout = 10 * time.Second
	c.Params = map[string]string{"charset": "utf8mb4"}
	return c.FormatDSN()
}

func (o Options) pool() (maxOpen, maxIdle int, lifetime, idle time.Duration) {
	maxOpen = o.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = defaultMaxOpenConns
	}
	maxIdle = o.MaxIdleConns
	if maxIdle <= 0 {
		maxIdle = defaultMaxIdleConns
	}
	lifetime, idle = o.ConnMaxLifetime, o.ConnMaxIdleTime
	if lifetime <= 0 {
		lifetime = defaultConnMaxLifetime
	}
	if idle <= 0 {
		idle = defaultConnMaxIdleTime
	}
	return maxOpen, min(maxIdle, maxOpen), lifetime, idle
}

// Open connects, verifies the server answers and migrates when asked.
// gorm errors are translated so duplicate keys surface as gorm.ErrDuplicatedKey.
func Open(ctx context.Context, o Options) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(o.DSN()), &gorm.Config{
		Logger:                 logger.NewGormLogger(logger.ParseGormLevel(o.LogLevel)),
		TranslateError:         true,
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open mysql: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	maxOpen, maxIdle, lifetime, idle := o.pool()
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(maxIdle)
	sqlDB.SetConnMaxLifetime(lifetime)
	sqlDB.SetConnMaxIdleTime(idle)

	if err := Ping(ctx, db); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping mysql at %s: %w", net.JoinHostPort(o.Host, o.Port), err)
	}
	if o.AutoMigrate {
		if err := Migrate(db.WithContext(ctx)); err != nil {
			_ = sqlDB.Close()
			return nil, err
		}
	}

	logger.Info("Database connected",
		zap.String("host", o.Host),
		zap.String("database", o.Database),
		zap.Int("max_open_conns", maxOpen),
		zap.Int("max_idle_conns", maxIdle))
	return db, nil
}

// Ping used by the readiness probe.
func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Migrate creates or updates the tables owned by this adapter.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&po.OrderPO{}, &po.ProductPO{}, &po.UserPO{}, &po.OutboxEventPO{}); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	logger.Info("Database schema migrated")
	return nil
}

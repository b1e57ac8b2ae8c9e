// Package retry re-runs units of work that failed on transient persistence
// errors: optimistic-lock conflicts, deadlocks and lock wait timeouts.
package retry

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"strings"
	"time"

	"storefront/config"
	"storefront/domain/order"
	"storefront/domain/user"
	"storefront/pkg/logger"

	mysqlDriver "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Config zero value disables retries
type Config struct {
	Enabled                       bool
	MaxAttempts                   int
	InitialDelay                  time.Duration
	MaxDelay                      time.Duration
	BackoffFactor                 float64
	JitterEnabled                 bool
	RetryOnConcurrentModification bool
	RetryOnDeadlock               bool
	RetryOnLockTimeout            bool

	// RetryPredicate backend-specific transient errors (mongo labels)
	RetryPredicate func(error) bool
}

var DefaultConfig = FromSettings(config.RetryConfig{
	Enabled:                       true,
	MaxAttempts:                   3,
	InitialDelay:                  100 * time.Millisecond,
	MaxDelay:                      2 * time.Second,
	BackoffFactor:                 2.0,
	JitterEnabled:                 true,
	RetryOnConcurrentModification: true,
	RetryOnDeadlock:               true,
	RetryOnLockTimeout:            true,
})

// FromSettings database.retry section as a Config
func FromSettings(s config.RetryConfig) Config {
	return Config{
		Enabled:                       s.Enabled,
		MaxAttempts:                   s.MaxAttempts,
		InitialDelay:                  s.InitialDelay,
		MaxDelay:                      s.MaxDelay,
		BackoffFactor:                 s.BackoffFactor,
		JitterEnabled:                 s.JitterEnabled,
		RetryOnConcurrentModification: s.RetryOnConcurrentModification,
		RetryOnDeadlock:               s.RetryOnDeadlock,
		RetryOnLockTimeout:            s.RetryOnLockTimeout,
	}
}

func FromAppConfig(appConfig *config.Config) Config {
	return FromSettings(appConfig.Database.Retry)
}

type reason string

const (
	notRetryable reason = ""
	conflict     reason = "concurrent_modification"
	deadlock     reason = "deadlock"
	lockTimeout  reason = "lock_wait_timeout"
	transient    reason = "transient"
)

// MySQL server error numbers
var mysqlReasons = map[uint16]reason{
	1213: deadlock,
	1205: lockTimeout,
}

func (c Config) allows(r reason) bool {
	switch r {
	case conflict:
		return c.RetryOnConcurrentModification
	case deadlock:
		return c.RetryOnDeadlock
	case lockTimeout:
		return c.RetryOnLockTimeout
	}
	return r == transient
}

func (c Config) classify(err error) reason {
	switch {
	case err == nil, errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return notRetryable
	case c.RetryPredicate != nil && c.RetryPredicate(err):
		return transient
	case errors.Is(err, order.ErrConcurrentModification), errors.Is(err, user.ErrConcurrentModification):
		return conflict
	case errors.Is(err, gorm.ErrInvalidTransaction):
		return transient
	}

	var mysqlErr *mysqlDriver.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlReasons[mysqlErr.Number]
	}

	// drivers that only surface the server message
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "deadlock"):
		return deadlock
	case strings.Contains(msg, "lock wait timeout"):
		return lockTimeout
	}
	return notRetryable
}

func IsRetryableError(err error, cfg Config) bool {
	r := cfg.classify(err)
	return r != notRetryable && cfg.allows(r)
}

// ExponentialBackoffWithJitter initial × factor^(attempt-1), capped at
// MaxDelay, then ±20% jitter when enabled.
func ExponentialBackoffWithJitter(attempt int, cfg Config) time.Duration {
	if attempt <= 0 {
		return 0
	}
	delay := float64(cfg.InitialDelay) * math.Pow(math.Max(cfg.BackoffFactor, 1), float64(attempt-1))
	if cfg.MaxDelay > 0 {
		delay = math.Min(delay, float64(cfg.MaxDelay))
	}
	if cfg.JitterEnabled {
		delay *= 0.8 + 0.4*rand.Float64()
	}
	return time.Duration(math.Max(delay, 0))
}

// ExecuteWithRetry runs fn up to MaxAttempts times while its error is retryable.
// The last error is returned unchanged.
func ExecuteWithRetry(ctx context.Context, cfg Config, fn func(ctx context.Context) error) error {
	if !cfg.Enabled || cfg.MaxAttempts <= 1 {
		return fn(ctx)
	}

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := fn(ctx)
		if err == nil {
			return nil
		}
		r := cfg.classify(err)
		if r == notRetryable || !cfg.allows(r) || attempt >= cfg.MaxAttempts {
			return err
		}

		delay := ExponentialBackoffWithJitter(attempt, cfg)
		logger.FromContext(ctx).Debug("Retrying unit of work",
			zap.String("reason", string(r)),
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err))
		if err := sleep(ctx, delay); err != nil {
			return err
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

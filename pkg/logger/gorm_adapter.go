package logger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
)

const (
	DefaultSlowQueryThreshold = 200 * time.Millisecond
	defaultMaxSQLLength       = 2048
)

// GormLogger writes gorm output through the global zap logger, tagged with the
// request id of the calling context. Record-not-found is an expected outcome
// of order and product lookups and is logged at debug only.
type GormLogger struct {
	level         gormlogger.LogLevel
	slowThreshold time.Duration
	maxSQLLength  int
}

type GormOption func(*GormLogger)

// WithSlowThreshold zero disables slow-query warnings
func WithSlowThreshold(d time.Duration) GormOption {
	return func(l *GormLogger) { l.slowThreshold = d }
}

// WithMaxSQLLength longer statements are cut (JSON item columns can be large)
func WithMaxSQLLength(n int) GormOption {
	return func(l *GormLogger) { l.maxSQLLength = n }
}

func NewGormLogger(level gormlogger.LogLevel, opts ...GormOption) *GormLogger {
	l := &GormLogger{
		level:         level,
		slowThreshold: DefaultSlowQueryThreshold,
		maxSQLLength:  defaultMaxSQLLength,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// ParseGormLevel maps the database log_level setting; unknown values mean warn.
func ParseGormLevel(level string) gormlogger.LogLevel {
	switch level {
	case "debug", "info":
		return gormlogger.Info
	case "error":
		return gormlogger.Error
	case "silent":
		return gormlogger.Silent
	default:
		return gormlogger.Warn
	}
}

func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.level = level
	return &clone
}

func (l *GormLogger) Info(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Info {
		FromContext(ctx).Info(fmt.Sprintf(msg, args...), zap.String("component", "gorm"))
	}
}

func (l *GormLogger) Warn(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Warn {
		FromContext(ctx).Warn(fmt.Sprintf(msg, args...), zap.String("component", "gorm"))
	}
}

func (l *GormLogger) Error(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Error {
		FromContext(ctx).Error(fmt.Sprintf(msg, args...), zap.String("component", "gorm"))
	}
}

func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()
	fields := []zap.Field{
		zap.String("component", "gorm"),
		zap.String("sql", l.truncate(sql)),
		zap.Int64("rows", rows),
		zap.Duration("elapsed", elapsed),
	}
	log := FromContext(ctx)

	switch {
	case err != nil && errors.Is(err, gormlogger.ErrRecordNotFound):
		log.Debug("Record not found", fields...)
	case err != nil && l.level >= gormlogger.Error:
		log.Error("Database operation failed", append(fields, zap.Error(err))...)
	case l.slowThreshold > 0 && elapsed > l.slowThreshold && l.level >= gormlogger.Warn:
		log.Warn("Slow SQL query", append(fields, zap.Duration("threshold", l.slowThreshold))...)
	case l.level >= gormlogger.Info:
		log.Info("SQL query executed", fields...)
	}
}

func (l *GormLogger) truncate(sql string) string {
	if l.maxSQLLength <= 0 || len(sql) <= l.maxSQLLength {
		return sql
	}
	return sql[:l.maxSQLLength] + "...(truncated)"
}

var _ gormlogger.Interface = (*GormLogger)(nil)

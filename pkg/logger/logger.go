/*
Package logger 全局 zap 日志。

Init 之前全局日志器为 nil，包级函数静默，L() 返回 Nop；
请求链路通过 FromContext 带上 request_id。
*/
package logger

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"storefront/config"
	"storefront/infrastructure/persistence"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	log   *zap.Logger
	level = zap.NewAtomicLevel()
)

// Init output "stdout" (default), "file", or "both"
func Init(cfg *config.LogConfig, env string) error {
	level.SetLevel(parseLevel(cfg.Level))
	encoder := newEncoder(cfg.Format, env)

	var cores []zapcore.Core
	if cfg.Output != "file" {
		cores = append(cores, zapcore.NewCore(encoder, zapcore.Lock(os.Stdout), level))
	}
	if cfg.Output == "file" || cfg.Output == "both" {
		sink, err := rollingFile(cfg)
		if err != nil {
			return err
		}
		cores = append(cores, zapcore.NewCore(encoder.Clone(), sink, level))
	}

	log = zap.New(zapcore.NewTee(cores...),
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
		zap.Fields(zap.String("env", env)))
	return nil
}

func isDevelopment(env string) bool {
	return env == "dev" || env == "development"
}

func newEncoder(format, env string) zapcore.Encoder {
	ec := zap.NewProductionEncoderConfig()
	ec.TimeKey = "time"
	ec.EncodeTime = zapcore.ISO8601TimeEncoder
	ec.EncodeDuration = zapcore.StringDurationEncoder

	if format == "console" || (format == "" && isDevelopment(env)) {
		ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return zapcore.NewConsoleEncoder(ec)
	}
	return zapcore.NewJSONEncoder(ec)
}

func rollingFile(cfg *config.LogConfig) (zapcore.WriteSyncer, error) {
	if cfg.FilePath == "" {
		return nil, errors.New("log.file_path is required for file output")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	return zapcore.AddSync(&lumberjack.Logger{
		Filename:   cfg.FilePath,
		MaxSize:    orDefault(cfg.MaxSize, 10),
		MaxBackups: orDefault(cfg.MaxBackups, 5),
		MaxAge:     orDefault(cfg.MaxAge, 7),
		Compress:   cfg.Compress,
	}), nil
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

func parseLevel(s string) zapcore.Level {
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(strings.ToLower(s))); err != nil || l > zapcore.ErrorLevel {
		return zapcore.InfoLevel
	}
	return l
}

// SetLevel 运行时调整级别，未知值按 info
func SetLevel(s string) { level.SetLevel(parseLevel(s)) }

// L 永不为 nil
func L() *zap.Logger {
	if log == nil {
		return zap.NewNop()
	}
	return log
}

// Replace 替换全局日志器，返回恢复函数（测试用）
func Replace(l *zap.Logger) (restore func()) {
	prev := log
	log = l
	return func() { log = prev }
}

// FromContext request-scoped logger
func FromContext(ctx context.Context) *zap.Logger {
	if id := persistence.RequestIDFromContext(ctx); id != "" {
		return L().With(zap.String("request_id", id))
	}
	return L()
}

// Sync flushes buffered entries. Terminals and pipes reject fsync; that is not
// reported as an error.
func Sync() error {
	if log == nil {
		return nil
	}
	err := log.Sync()
	if errors.Is(err, syscall.EINVAL) || errors.Is(err, syscall.ENOTTY) || errors.Is(err, syscall.EBADF) {
		return nil
	}
	return err
}

func Debug(msg string, fields ...zap.Field) { L().Debug(msg, fields...) }
func Info(msg string, fields ...zap.Field)  { L().Info(msg, fields...) }
func Warn(msg string, fields ...zap.Field)  { L().Warn(msg, fields...) }
func Error(msg string, fields ...zap.Field) { L().Error(msg, fields...) }

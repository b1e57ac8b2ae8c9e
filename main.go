package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"storefront/cmd"
	"storefront/config"
	"storefront/pkg/logger"

	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Printf("Application failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var configPath string
	flag.StringVar(&configPath, "config", "", "Path to config file")
	flag.Parse()

	loader, err := config.NewLoader(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg, err := loader.Config()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	if err := logger.Init(&cfg.Log, cfg.App.Env); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	// 仅日志级别支持热更新，其它配置需重启
	loader.Watch(func(next *config.Config) {
		logger.SetLevel(next.Log.Level)
		logger.Info("Config reloaded", zap.String("file", loader.ConfigFile()), zap.String("log_level", next.Log.Level))
	}, func(err error) {
		logger.Warn("Config reload failed", zap.Error(err))
	})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	app, err := cmd.NewBuilder(cfg).Build(ctx)
	if err != nil {
		logger.Error("Failed to build application", zap.Error(err))
		return err
	}
	return app.Run(ctx)
}

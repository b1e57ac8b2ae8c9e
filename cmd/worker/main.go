// Command worker drains the outbox of a shared mysql or mongo database.
// With -once it publishes a single batch and exits (cron style).
package main

import (
	"context"
	"errors"
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
	configPath := flag.String("config", "", "Path to config file")
	once := flag.Bool("once", false, "Process one batch and exit")
	flag.Parse()

	if err := run(*configPath, *once); err != nil {
		fmt.Fprintf(os.Stderr, "worker: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, once bool) error {
	cfg, err := config.Load(configPath)
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

	switch {
	case !cfg.Worker.Enabled:
		logger.Info("Outbox worker is disabled by config; exiting")
		return nil
	case cfg.Database.Type == "memory":
		return errors.New("the standalone worker needs a shared database (mysql or mongo)")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backend, err := cmd.OpenBackend(ctx, cfg, nil)
	if err != nil {
		return fmt.Errorf("failed to open %s backend: %w", cfg.Database.Type, err)
	}
	defer func() { _ = backend.Close(context.Background()) }()

	sender, err := cmd.NewSender(cfg)
	if err != nil {
		return err
	}
	publisher, closePublisher, err := cmd.NewPublisher(ctx, cfg, backend, sender)
	if err != nil {
		return err
	}
	defer func() { _ = closePublisher() }()

	worker, err := cmd.NewWorker(cfg, backend, publisher)
	if err != nil {
		return fmt.Errorf("failed to create outbox worker: %w", err)
	}

	log := logger.L().With(
		zap.String("database", cfg.Database.Type),
		zap.String("publisher", cfg.Outbox.Publisher))

	if once {
		n, err := worker.ProcessBatch(ctx)
		if err != nil {
			return fmt.Errorf("outbox batch failed: %w", err)
		}
		log.Info("Outbox batch processed", zap.Int("events", n))
		return nil
	}

	log.Info("Outbox worker started",
		zap.Duration("poll_interval", cfg.Worker.PollInterval),
		zap.Int("batch_size", cfg.Worker.BatchSize),
		zap.Int("max_retries", cfg.Worker.MaxRetries))
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("outbox worker exited with error: %w", err)
	}
	log.Info("Outbox worker stopped")
	return nil
}

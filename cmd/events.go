package cmd

import (
	"context"
	"fmt"

	notificationapp "storefront/application/notification"
	"storefront/config"
	"storefront/domain/notification"
	"storefront/domain/shared"
	"storefront/infrastructure/notification/brevo"
	"storefront/infrastructure/notification/logsender"
	"storefront/infrastructure/outbox"
	"storefront/pkg/logger"

	"go.uber.org/zap"
)

// NewSender picks the notification provider.
func NewSender(cfg *config.Config) (notification.Sender, error) {
	switch cfg.Notification.Provider {
	case "brevo":
		return brevo.NewSender(brevo.Config{
			APIKey:      cfg.Notification.BrevoAPIKey,
			BaseURL:     cfg.Notification.BrevoURL,
			SenderName:  cfg.Notification.SenderName,
			SenderEmail: cfg.Notification.SenderEmail,
			MaxAttempts: cfg.Notification.MaxAttempts,
			Timeout:     cfg.Notification.Timeout,
		}, nil)
	case "log", "":
		return logsender.Sender{}, nil
	default:
		return nil, fmt.Errorf("unsupported notification provider: %s", cfg.Notification.Provider)
	}
}

// NewPublisher builds the outbox publisher. The dispatcher publisher routes
// events through an in-process bus to the notification dispatcher.
func NewPublisher(ctx context.Context, cfg *config.Config, backend *Backend, sender notification.Sender) (outbox.Publisher, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Outbox.Publisher {
	case "dispatcher", "":
		bus := shared.NewEventBus()
		dispatcher := notificationapp.NewDispatcher(backend.Orders, backend.Users, sender)
		if err := dispatcher.Subscribe(bus); err != nil {
			return nil, nil, fmt.Errorf("failed to subscribe notification dispatcher: %w", err)
		}
		return outbox.NewDispatchPublisher(bus), noop, nil
	case "log":
		return &outbox.LoggingPublisher{}, noop, nil
	case "pubsub":
		publisher, err := outbox.NewPubSubPublisher(ctx, cfg.Outbox.PubSub.ProjectID, cfg.Outbox.PubSub.Topic)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("Publishing outbox events to Pub/Sub",
			zap.String("project_id", cfg.Outbox.PubSub.ProjectID),
			zap.String("topic", cfg.Outbox.PubSub.Topic))
		return publisher, publisher.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported outbox publisher: %s", cfg.Outbox.Publisher)
	}
}

// NewWorker outbox worker over the backend's store.
func NewWorker(cfg *config.Config, backend *Backend, publisher outbox.Publisher) (*outbox.Worker, error) {
	return outbox.NewWorker(
		backend.Outbox,
		publisher,
		cfg.Worker.PollInterval,
		cfg.Worker.BatchSize,
		cfg.Worker.MaxRetries,
	)
}

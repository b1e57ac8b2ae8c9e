// Package logsender is the notification sender used when no mail provider is configured.
package logsender

import (
	"context"

	"storefront/domain/notification"
	"storefront/pkg/logger"

	"go.uber.org/zap"
)

type Sender struct{}

func (Sender) Send(ctx context.Context, msg notification.Message) error {
	logger.FromContext(ctx).Info("Notification",
		zap.String("recipient", msg.Recipient),
		zap.String("kind", string(msg.Kind)),
		zap.String("subject", msg.Subject),
		zap.Any("payload", msg.Payload))
	return nil
}

var _ notification.Sender = Sender{}

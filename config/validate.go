package config

import (
	"errors"
	"fmt"
)

// Validate reports every setting that has no usable default, not just the first.
func (c *Config) Validate() error {
	var errs []error
	require := func(ok bool, msg string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(msg, args...))
		}
	}
	oneOf := func(key, value string, allowed ...string) bool {
		for _, a := range allowed {
			if value == a {
				return true
			}
		}
		errs = append(errs, fmt.Errorf("unsupported %s: %q", key, value))
		return false
	}

	oneOf("database type", c.Database.Type, "memory", "mysql", "mongo")
	require(c.Payment.Razorpay.KeySecret != "", "payment.razorpay.key_secret is required")
	require(!c.IsProduction() || c.Auth.JWTSecret != "", "auth.jwt_secret is required in production")

	if oneOf("notification provider", c.Notification.Provider, "log", "brevo") && c.Notification.Provider == "brevo" {
		require(c.Notification.BrevoAPIKey != "", "notification.brevo_api_key is required for the brevo provider")
	}
	if oneOf("outbox publisher", c.Outbox.Publisher, "dispatcher", "log", "pubsub") && c.Outbox.Publisher == "pubsub" {
		require(c.Outbox.PubSub.ProjectID != "" && c.Outbox.PubSub.Topic != "",
			"outbox.pubsub.project_id and outbox.pubsub.topic are required")
	}
	if c.Log.Output == "file" || c.Log.Output == "both" {
		require(c.Log.FilePath != "", "log.file_path is required for %s output", c.Log.Output)
	}

	return errors.Join(errs...)
}

/*
Package brevo sends transactional email through the Brevo (Sendinblue) API.
*/
package brevo

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"storefront/domain/notification"
	"storefront/infrastructure/persistence/retry"
	"storefront/pkg/logger"

	brevoapi "github.com/getbrevo/brevo-go/lib"
	"go.uber.org/zap"
)

const DefaultBaseURL = "https://api.brevo.com/v3"

type Config struct {
	APIKey      string
	BaseURL     string
	SenderName  string
	SenderEmail string
	MaxAttempts int
	Timeout     time.Duration
}

// Sender notification.Sender over the Brevo API
type Sender struct {
	cfg    Config
	emails *brevoapi.TransactionalEmailsApiService
	retry  retry.Config
}

func NewSender(cfg Config, client *http.Client) (*Sender, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("brevo api key is required")
	}
	if cfg.SenderEmail == "" {
		return nil, errors.New("brevo sender email is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}

	apiCfg := brevoapi.NewConfiguration()
	apiCfg.BasePath = cfg.BaseURL
	apiCfg.HTTPClient = client
	apiCfg.AddDefaultHeader("api-key", cfg.APIKey)

	rc := retry.DefaultConfig
	rc.MaxAttempts = cfg.MaxAttempts
	rc.InitialDelay = 200 * time.Millisecond
	rc.MaxDelay = 5 * time.Second
	rc.RetryOnConcurrentModification = false
	rc.RetryOnDeadlock = false
	rc.RetryOnLockTimeout = false
	rc.RetryPredicate = isTransient

	return &Sender{
		cfg:    cfg,
		emails: brevoapi.NewAPIClient(apiCfg).TransactionalEmailsApi,
		retry:  rc,
	}, nil
}

// Send retries 429 and 5xx responses plus transport errors.
func (s *Sender) Send(ctx context.Context, msg notification.Message) error {
	html, err := render(msg)
	if err != nil {
		return err
	}
	var params interface{} = msg.Payload
	email := brevoapi.SendSmtpEmail{
		Sender:      &brevoapi.SendSmtpEmailSender{Email: s.cfg.SenderEmail, Name: s.cfg.SenderName},
		To:          []brevoapi.SendSmtpEmailTo{{Email: msg.Recipient, Name: msg.RecipientName}},
		Subject:     msg.Subject,
		HtmlContent: html,
		Params:      &params,
		Tags:        []string{string(msg.Kind)},
	}

	attempt := 0
	return retry.ExecuteWithRetry(ctx, s.retry, func(ctx context.Context) error {
		attempt++
		err := s.send(ctx, email)
		if err != nil {
			logger.FromContext(ctx).Warn("Brevo send attempt failed",
				zap.Int("attempt", attempt),
				zap.String("kind", string(msg.Kind)),
				zap.Error(err))
		}
		return err
	})
}

func (s *Sender) send(ctx context.Context, email brevoapi.SendSmtpEmail) error {
	created, resp, err := s.emails.SendTransacEmail(ctx, email)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err == nil {
		logger.FromContext(ctx).Debug("Brevo accepted email", zap.String("message_id", created.MessageId))
		return nil
	}
	if resp == nil {
		return &transientError{err: err}
	}

	detail := err.Error()
	var apiErr brevoapi.GenericSwaggerError
	if errors.As(err, &apiErr) && len(apiErr.Body()) > 0 {
		detail = strings.TrimSpace(string(apiErr.Body()))
	}
	statusErr := fmt.Errorf("brevo responded %d: %s", resp.StatusCode, detail)
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return &transientError{err: statusErr}
	}
	return statusErr
}

type transientError struct{ err error }

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

func isTransient(err error) bool {
	var t *transientError
	return errors.As(err, &t)
}

var _ notification.Sender = (*Sender)(nil)

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "storefront", cfg.App.Name)
	assert.Equal(t, "memory", cfg.Database.Type)
	assert.Equal(t, "INR", cfg.Payment.Currency)
	assert.Equal(t, "dispatcher", cfg.Outbox.Publisher)
	assert.Equal(t, "log", cfg.Notification.Provider)
	assert.Equal(t, 2*time.Second, cfg.Worker.PollInterval)
	assert.Equal(t, 100*time.Millisecond, cfg.Database.Retry.InitialDelay)
	assert.Equal(t, 86400, cfg.CORS.MaxAge)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoadFileAndEnvironment(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
app:
  env: production
database:
  type: mongo
  mongo:
    uri: mongodb://db:27017/?replicaSet=rs0
payment:
  razorpay:
    key_id: rzp_live_key
worker:
  batch_size: 25
`), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("STOREFRONT_AUTH_JWT_SECRET=from-dotenv\n"), 0o600))
	t.Setenv("STOREFRONT_PAYMENT_RAZORPAY_KEY_SECRET", "from-env")
	t.Cleanup(func() { os.Unsetenv("STOREFRONT_AUTH_JWT_SECRET") })

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "mongo", cfg.Database.Type)
	assert.Equal(t, "mongodb://db:27017/?replicaSet=rs0", cfg.Database.Mongo.URI)
	assert.Equal(t, "rzp_live_key", cfg.Payment.Razorpay.KeyID)
	assert.Equal(t, "from-env", cfg.Payment.Razorpay.KeySecret)
	assert.Equal(t, "from-dotenv", cfg.Auth.JWTSecret)
	assert.Equal(t, 25, cfg.Worker.BatchSize)
	assert.NoError(t, cfg.Validate())
}

func TestLoadRejectsBrokenFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("app: [unclosed"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			App:          AppConfig{Env: "development"},
			Database:     DatabaseConfig{Type: "memory"},
			Payment:      PaymentConfig{Razorpay: RazorpayConfig{KeySecret: "secret"}},
			Notification: NotificationConfig{Provider: "log"},
			Outbox:       OutboxConfig{Publisher: "dispatcher"},
		}
	}
	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown database", func(c *Config) { c.Database.Type = "sqlite" }},
		{"missing razorpay secret", func(c *Config) { c.Payment.Razorpay.KeySecret = "" }},
		{"production without jwt secret", func(c *Config) { c.App.Env = "production" }},
		{"brevo without key", func(c *Config) { c.Notification.Provider = "brevo" }},
		{"unknown provider", func(c *Config) { c.Notification.Provider = "pigeon" }},
		{"pubsub without topic", func(c *Config) {
			c.Outbox.Publisher = "pubsub"
			c.Outbox.PubSub.ProjectID = "shop-prod"
		}},
		{"unknown publisher", func(c *Config) { c.Outbox.Publisher = "kafka" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoaderConfigFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	onDefaults, err := NewLoader("")
	require.NoError(t, err)
	assert.Empty(t, onDefaults.ConfigFile())
	onDefaults.Watch(func(*Config) { t.Fatal("no file to watch") }, nil)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("log:\n  level: debug\n"), 0o600))
	found, err := NewLoader("")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "config.yaml"), found.ConfigFile())

	cfg, err := found.Config()
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestValidateReportsEveryProblem(t *testing.T) {
	cfg := &Config{
		Database:     DatabaseConfig{Type: "sqlite"},
		Notification: NotificationConfig{Provider: "log"},
		Outbox:       OutboxConfig{Publisher: "dispatcher"},
		Log:          LogConfig{Output: "both"},
	}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unsupported database type: "sqlite"`)
	assert.Contains(t, err.Error(), "payment.razorpay.key_secret is required")
	assert.Contains(t, err.Error(), "log.file_path is required for both output")
}

// chdir changes the working directory for the rest of the test and restores
// it on cleanup (equivalent of testing.T.Chdir, which needs Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatalf("restore working directory: %v", err)
		}
	})
}

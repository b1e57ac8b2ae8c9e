package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "STOREFRONT"

var defaults = map[string]any{
	"app.name":    "storefront",
	"app.version": "1.0.0",
	"app.env":     "development",

	"server.port":               "8080",
	"server.read_timeout":       "30s",
	"server.write_timeout":      "30s",
	"server.shutdown_timeout":   "10s",
	"server.rate_limit.enabled": true,
	"server.rate_limit.rate":    100,
	"server.rate_limit.burst":   200,

	"database.type":                  "memory",
	"database.host":                  "localhost",
	"database.port":                  "3306",
	"database.username":              "root",
	"database.password":              "",
	"database.database":              "storefront",
	"database.max_open_conns":        25,
	"database.max_idle_conns":        5,
	"database.conn_max_lifetime":     "5m",
	"database.auto_migrate":          true,
	"database.mongo.uri":             "mongodb://localhost:27017/?replicaSet=rs0",
	"database.mongo.database":        "storefront",
	"database.mongo.connect_timeout": "10s",

	"database.retry.enabled":                          true,
	"database.retry.max_attempts":                     3,
	"database.retry.initial_delay":                    "100ms",
	"database.retry.max_delay":                        "2s",
	"database.retry.backoff_factor":                   2.0,
	"database.retry.jitter_enabled":                   true,
	"database.retry.retry_on_concurrent_modification": true,
	"database.retry.retry_on_deadlock":                true,
	"database.retry.retry_on_lock_timeout":            true,

	"log.level":       "info",
	"log.format":      "console",
	"log.output":      "stdout",
	"log.file_path":   "logs/app.log",
	"log.max_size":    100,
	"log.max_backups": 7,
	"log.max_age":     30,
	"log.compress":    true,

	"cors.allow_origins":     []string{"http://localhost:3000"},
	"cors.allow_methods":     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
	"cors.allow_headers":     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
	"cors.allow_credentials": true,
	"cors.max_age":           86400,

	"auth.jwt_secret": "",

	"payment.razorpay.key_id":     "",
	"payment.razorpay.key_secret": "",
	"payment.currency":            "INR",
	"payment.refund_via_gateway":  false,

	"notification.provider":      "log",
	"notification.brevo_api_key": "",
	"notification.brevo_url":     "https://api.brevo.com/v3",
	"notification.sender_name":   "Storefront",
	"notification.sender_email":  "no-reply@storefront.local",
	"notification.max_attempts":  3,
	"notification.timeout":       "10s",

	"worker.enabled":       true,
	"worker.poll_interval": "2s",
	"worker.batch_size":    100,
	"worker.max_retries":   5,

	"outbox.publisher":         "dispatcher",
	"outbox.pubsub.project_id": "",
	"outbox.pubsub.topic":      "order-events",
}

// Loader owns the viper instance behind a Config so the file can be watched.
type Loader struct {
	v        *viper.Viper
	fromFile bool
	mu       sync.Mutex
}

// NewLoader reads .env (if present) and the config file. Without configPath,
// config.yaml is searched in . and ./config; a missing file means defaults.
func NewLoader(configPath string) (*Loader, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	l := &Loader{v: v}
	err := v.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	switch {
	case err == nil:
		l.fromFile = true
	case errors.As(err, &notFound):
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return l, nil
}

// Config decodes the current settings.
func (l *Loader) Config() (*Config, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// ConfigFile path of the file in use, "" when running on defaults.
func (l *Loader) ConfigFile() string {
	if !l.fromFile {
		return ""
	}
	return l.v.ConfigFileUsed()
}

// Watch calls onChange with the re-read config after every write to the file.
// Decode failures go to onError. No-op without a config file.
func (l *Loader) Watch(onChange func(*Config), onError func(error)) {
	if !l.fromFile {
		return
	}
	l.v.OnConfigChange(func(e fsnotify.Event) {
		cfg, err := l.Config()
		if err != nil {
			if onError != nil {
				onError(fmt.Errorf("%s: %w", e.Name, err))
			}
			return
		}
		onChange(cfg)
	})
	l.v.WatchConfig()
}

// Load one-shot NewLoader + Config
func Load(configPath string) (*Config, error) {
	l, err := NewLoader(configPath)
	if err != nil {
		return nil, err
	}
	return l.Config()
}

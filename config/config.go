package config

import "time"

// Config 全部运行配置。来源优先级：环境变量 STOREFRONT_* > .env > 配置文件 > 默认值
type Config struct {
	App          AppConfig          `mapstructure:"app"`
	Server       ServerConfig       `mapstructure:"server"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Log          LogConfig          `mapstructure:"log"`
	CORS         CORSConfig         `mapstructure:"cors"`
	Auth         AuthConfig         `mapstructure:"auth"`
	Payment      PaymentConfig      `mapstructure:"payment"`
	Notification NotificationConfig `mapstructure:"notification"`
	Worker       WorkerConfig       `mapstructure:"worker"`
	Outbox       OutboxConfig       `mapstructure:"outbox"`
}

type AppConfig struct {
	Name    string `mapstructure:"name"`
	Version string `mapstructure:"version"`
	Env     string `mapstructure:"env"` // development, staging, production
}

// ServerConfig HTTP 服务
type ServerConfig struct {
	Port            string          `mapstructure:"port"`
	ReadTimeout     time.Duration   `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration   `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration   `mapstructure:"shutdown_timeout"`
	RateLimit       RateLimitConfig `mapstructure:"rate_limit"`
}

// RateLimitConfig per client IP token bucket
type RateLimitConfig struct {
	Enabled bool    `mapstructure:"enabled"`
	Rate    float64 `mapstructure:"rate"` // tokens per second
	Burst   int     `mapstructure:"burst"`
}

// DatabaseConfig 存储后端；Host 等字段只对 mysql 生效
type DatabaseConfig struct {
	Type            string        `mapstructure:"type"` // memory, mysql, mongo
	Host            string        `mapstructure:"host"`
	Port            string        `mapstructure:"port"`
	Username        string        `mapstructure:"username"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
	Mongo           MongoConfig   `mapstructure:"mongo"`
	Retry           RetryConfig   `mapstructure:"retry"`
}

// MongoConfig MongoDB connection; transactions need a replica set.
type MongoConfig struct {
	URI            string        `mapstructure:"uri"`
	Database       string        `mapstructure:"database"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

// RetryConfig unit-of-work retry on version conflicts and lock errors
type RetryConfig struct {
	Enabled                       bool          `mapstructure:"enabled"`
	MaxAttempts                   int           `mapstructure:"max_attempts"`
	InitialDelay                  time.Duration `mapstructure:"initial_delay"`
	MaxDelay                      time.Duration `mapstructure:"max_delay"`
	BackoffFactor                 float64       `mapstructure:"backoff_factor"`
	JitterEnabled                 bool          `mapstructure:"jitter_enabled"`
	RetryOnConcurrentModification bool          `mapstructure:"retry_on_concurrent_modification"`
	RetryOnDeadlock               bool          `mapstructure:"retry_on_deadlock"`
	RetryOnLockTimeout            bool          `mapstructure:"retry_on_lock_timeout"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`  // debug, info, warn, error
	Format     string `mapstructure:"format"` // json, console
	Output     string `mapstructure:"output"` // stdout, file, both
	FilePath   string `mapstructure:"file_path"`
	MaxSize    int    `mapstructure:"max_size"` // MB
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"` // days
	Compress   bool   `mapstructure:"compress"`
}

type CORSConfig struct {
	AllowOrigins     []string `mapstructure:"allow_origins"`
	AllowMethods     []string `mapstructure:"allow_methods"`
	AllowHeaders     []string `mapstructure:"allow_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

// AuthConfig bearer token verification
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
}

// PaymentConfig Razorpay gateway
type PaymentConfig struct {
	Razorpay         RazorpayConfig `mapstructure:"razorpay"`
	Currency         string         `mapstructure:"currency"`
	RefundViaGateway bool           `mapstructure:"refund_via_gateway"`
}

type RazorpayConfig struct {
	KeyID     string `mapstructure:"key_id"`
	KeySecret string `mapstructure:"key_secret"`
}

// NotificationConfig transactional email
type NotificationConfig struct {
	Provider    string        `mapstructure:"provider"` // log, brevo
	BrevoAPIKey string        `mapstructure:"brevo_api_key"`
	BrevoURL    string        `mapstructure:"brevo_url"`
	SenderName  string        `mapstructure:"sender_name"`
	SenderEmail string        `mapstructure:"sender_email"`
	MaxAttempts int           `mapstructure:"max_attempts"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// WorkerConfig outbox worker
type WorkerConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	BatchSize    int           `mapstructure:"batch_size"`
	MaxRetries   int           `mapstructure:"max_retries"`
}

// OutboxConfig where outbox events go
type OutboxConfig struct {
	Publisher string       `mapstructure:"publisher"` // dispatcher, log, pubsub
	PubSub    PubSubConfig `mapstructure:"pubsub"`
}

type PubSubConfig struct {
	ProjectID string `mapstructure:"project_id"`
	Topic     string `mapstructure:"topic"`
}

func (c *Config) IsDevelopment() bool { return c.App.Env == "development" }

func (c *Config) IsProduction() bool { return c.App.Env == "production" }

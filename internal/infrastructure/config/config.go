package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Log       LogConfig
	HTTP      HTTPConfig
	Redis     RedisConfig
	Storage   StorageConfig
	Webhook   WebhookConfig
	Telemetry TelemetryConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	IdleTimeout      time.Duration
	MaxHeaderBytes   int
	MaxBodySize      int64
	CORSAllowOrigins []string
	CORSAllowMethods []string
	CORSAllowHeaders []string
	TrustedProxies   []string
}

// RedisConfig holds Redis connection settings for the shared idempotency store
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// StorageConfig holds the durable payment store settings.
// The store is a PostgREST-style endpoint written to with service-level
// credentials; URL and ServiceRoleKey are required at startup.
type StorageConfig struct {
	URL            string
	ServiceRoleKey string
	PaymentsTable  string
	RequestTimeout time.Duration
}

// WebhookConfig holds webhook ingestion settings
type WebhookConfig struct {
	// FreshnessWindow is how long a seen idempotency key stays a duplicate
	FreshnessWindow time.Duration
	// CacheMaxEntries is the in-process idempotency cache ceiling
	CacheMaxEntries int
	// StripeWebhookSecret enables cryptographic Stripe-Signature verification.
	// Empty falls back to a presence-only header check (development only).
	StripeWebhookSecret string
	// TelegramSecretToken, when set, must match X-Telegram-Bot-Api-Secret-Token
	TelegramSecretToken string
	// RequireSharedStore refuses startup when Redis is unavailable instead of
	// degrading to process-local deduplication
	RequireSharedStore bool
}

// TelemetryConfig holds OpenTelemetry settings
type TelemetryConfig struct {
	Enabled           bool
	CollectorEndpoint string
	SamplingRatio     float64
	ServiceName       string
	Insecure          bool
}

// Load reads configuration from config.toml and NEUROPUL_* environment
// variables, applies defaults, and validates the result
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix("NEUROPUL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:      v.GetDuration("http.read_timeout"),
			WriteTimeout:     v.GetDuration("http.write_timeout"),
			IdleTimeout:      v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes:   v.GetInt("http.max_header_bytes"),
			MaxBodySize:      v.GetInt64("http.max_body_size"),
			CORSAllowOrigins: v.GetStringSlice("http.cors_allow_origins"),
			CORSAllowMethods: v.GetStringSlice("http.cors_allow_methods"),
			CORSAllowHeaders: v.GetStringSlice("http.cors_allow_headers"),
			TrustedProxies:   v.GetStringSlice("http.trusted_proxies"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Storage: StorageConfig{
			URL:            v.GetString("storage.url"),
			ServiceRoleKey: v.GetString("storage.service_role_key"),
			PaymentsTable:  v.GetString("storage.payments_table"),
			RequestTimeout: v.GetDuration("storage.request_timeout"),
		},
		Webhook: WebhookConfig{
			FreshnessWindow:     v.GetDuration("webhook.freshness_window"),
			CacheMaxEntries:     v.GetInt("webhook.cache_max_entries"),
			StripeWebhookSecret: v.GetString("webhook.stripe_webhook_secret"),
			TelegramSecretToken: v.GetString("webhook.telegram_secret_token"),
			RequireSharedStore:  v.GetBool("webhook.require_shared_store"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "neuropul-payments"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		if cfg.App.Env == "production" {
			cfg.Log.Format = "json"
		} else {
			cfg.Log.Format = "console"
		}
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}

	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 30 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 65536 // webhook payloads are small
	}
	if len(cfg.HTTP.CORSAllowOrigins) == 0 {
		cfg.HTTP.CORSAllowOrigins = []string{"*"}
	}
	if len(cfg.HTTP.CORSAllowMethods) == 0 {
		cfg.HTTP.CORSAllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	}
	if len(cfg.HTTP.CORSAllowHeaders) == 0 {
		cfg.HTTP.CORSAllowHeaders = []string{
			"Content-Type", "Authorization", "X-Client-Info", "Apikey",
			"X-Idempotency-Key", "Stripe-Signature",
		}
	}

	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}

	if cfg.Storage.PaymentsTable == "" {
		cfg.Storage.PaymentsTable = "payments_log"
	}
	if cfg.Storage.RequestTimeout == 0 {
		cfg.Storage.RequestTimeout = 10 * time.Second
	}

	if cfg.Webhook.FreshnessWindow == 0 {
		cfg.Webhook.FreshnessWindow = 15 * time.Minute
	}
	if cfg.Webhook.CacheMaxEntries == 0 {
		cfg.Webhook.CacheMaxEntries = 10000
	}

	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = cfg.App.Name
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
}

// validate checks that required configuration is present.
// Missing storage credentials are a fatal startup condition: the process
// must refuse to serve rather than silently drop writes.
func (c *Config) validate() error {
	if c.Storage.URL == "" {
		return fmt.Errorf("storage.url is required (set NEUROPUL_STORAGE_URL)")
	}
	if _, err := url.ParseRequestURI(c.Storage.URL); err != nil {
		return fmt.Errorf("storage.url is not a valid URL: %w", err)
	}
	if c.Storage.ServiceRoleKey == "" {
		return fmt.Errorf("storage.service_role_key is required (set NEUROPUL_STORAGE_SERVICE_ROLE_KEY)")
	}
	if c.Webhook.FreshnessWindow < 0 {
		return fmt.Errorf("webhook.freshness_window must not be negative")
	}
	if c.App.Env == "production" && c.Webhook.StripeWebhookSecret == "" {
		return fmt.Errorf("webhook.stripe_webhook_secret is required in production")
	}
	return nil
}

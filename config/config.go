// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Payment    PaymentConfig    `yaml:"payment"`
	Auth       AuthConfig       `yaml:"auth"`
	KeyService KeyServiceConfig `yaml:"key_service"`
	Email      EmailConfig      `yaml:"email"`
	Reminders  RemindersConfig  `yaml:"reminders"`
	Outbox     OutboxConfig     `yaml:"outbox"`
	Logging    LoggingConfig    `yaml:"logging"`
	Metrics    MetricsConfig    `yaml:"metrics"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// DatabaseConfig configures the database.
type DatabaseConfig struct {
	Driver string `yaml:"driver"` // "sqlite" or "memory"
	DSN    string `yaml:"dsn"`
}

// PaymentConfig configures the payment gateway.
// Use "stripe" for live payments or "noop" for development.
type PaymentConfig struct {
	Mode          string `yaml:"mode"` // "stripe" or "noop"
	StripeKey     string `yaml:"stripe_key,omitempty"`
	StripePublic  string `yaml:"stripe_public_key,omitempty"`
	WebhookSecret string `yaml:"webhook_secret,omitempty"`
}

// AuthConfig configures session tokens.
type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret,omitempty"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

// KeyServiceConfig configures the external key-issuance service.
type KeyServiceConfig struct {
	URL     string        `yaml:"url"`
	APIKey  string        `yaml:"api_key,omitempty"`
	Timeout time.Duration `yaml:"timeout,omitempty"`
}

// EmailConfig configures outgoing email.
// Use "smtp" for real delivery or "noop" to drop mail.
type EmailConfig struct {
	Mode     string `yaml:"mode"` // "smtp" or "noop"
	Host     string `yaml:"host,omitempty"`
	Port     int    `yaml:"port,omitempty"`
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`
	From     string `yaml:"from,omitempty"`
}

// RemindersConfig configures the renewal reminder sweep.
type RemindersConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Interval time.Duration `yaml:"interval"`
}

// OutboxConfig configures the key-operation retry worker.
type OutboxConfig struct {
	Interval time.Duration `yaml:"interval"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "console"
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"` // Enable /metrics endpoint
	Path    string `yaml:"path"`    // Custom path (default: /metrics)
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variables
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// Apply environment variable overrides
	applyEnvOverrides(&cfg)

	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// LoadFromEnv creates configuration entirely from environment variables.
// This is useful for Docker deployments where no config file is needed.
//
// Environment variables:
//
//	SHOPGATE_SERVER_HOST        - Server host (default: 0.0.0.0)
//	SHOPGATE_SERVER_PORT        - Server port (default: 8080)
//	SHOPGATE_DATABASE_DRIVER    - Database driver: sqlite or memory (default: sqlite)
//	SHOPGATE_DATABASE_DSN       - Database path (default: shopgate.db)
//	SHOPGATE_PAYMENT_MODE       - Payment mode: stripe or noop (default: noop)
//	SHOPGATE_STRIPE_KEY         - Stripe secret key
//	SHOPGATE_WEBHOOK_SECRET     - Stripe webhook signing secret
//	SHOPGATE_JWT_SECRET         - JWT signing secret
//	SHOPGATE_KEY_SERVICE_URL    - External key service base URL
//	SHOPGATE_KEY_SERVICE_APIKEY - External key service credential
//	SHOPGATE_EMAIL_MODE         - Email mode: smtp or noop (default: noop)
//	SHOPGATE_LOG_LEVEL          - Log level: debug, info, warn, error (default: info)
//	SHOPGATE_LOG_FORMAT         - Log format: json or console (default: json)
//	SHOPGATE_METRICS_ENABLED    - Enable /metrics endpoint (default: true)
func LoadFromEnv() (*Config, error) {
	var cfg Config

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// LoadWithFallback tries to load from file, falls back to environment
// variables.
func LoadWithFallback(path string) (*Config, error) {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}
	return LoadFromEnv()
}

// applyEnvOverrides applies SHOPGATE_* environment variables to the
// config. Environment variables always override file-based
// configuration.
func applyEnvOverrides(cfg *Config) {
	// Server configuration
	if v := os.Getenv("SHOPGATE_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("SHOPGATE_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("SHOPGATE_SERVER_READ_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.ReadTimeout = d
		}
	}
	if v := os.Getenv("SHOPGATE_SERVER_WRITE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.WriteTimeout = d
		}
	}

	// Database configuration
	if v := os.Getenv("SHOPGATE_DATABASE_DRIVER"); v != "" {
		cfg.Database.Driver = v
	}
	if v := os.Getenv("SHOPGATE_DATABASE_DSN"); v != "" {
		cfg.Database.DSN = v
	}

	// Payment configuration
	if v := os.Getenv("SHOPGATE_PAYMENT_MODE"); v != "" {
		cfg.Payment.Mode = v
	}
	if v := os.Getenv("SHOPGATE_STRIPE_KEY"); v != "" {
		cfg.Payment.StripeKey = v
	}
	if v := os.Getenv("SHOPGATE_STRIPE_PUBLIC_KEY"); v != "" {
		cfg.Payment.StripePublic = v
	}
	if v := os.Getenv("SHOPGATE_WEBHOOK_SECRET"); v != "" {
		cfg.Payment.WebhookSecret = v
	}

	// Auth configuration
	if v := os.Getenv("SHOPGATE_JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
	if v := os.Getenv("SHOPGATE_TOKEN_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Auth.TokenTTL = d
		}
	}

	// Key service configuration
	if v := os.Getenv("SHOPGATE_KEY_SERVICE_URL"); v != "" {
		cfg.KeyService.URL = v
	}
	if v := os.Getenv("SHOPGATE_KEY_SERVICE_APIKEY"); v != "" {
		cfg.KeyService.APIKey = v
	}
	if v := os.Getenv("SHOPGATE_KEY_SERVICE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.KeyService.Timeout = d
		}
	}

	// Email configuration
	if v := os.Getenv("SHOPGATE_EMAIL_MODE"); v != "" {
		cfg.Email.Mode = v
	}
	if v := os.Getenv("SHOPGATE_EMAIL_HOST"); v != "" {
		cfg.Email.Host = v
	}
	if v := os.Getenv("SHOPGATE_EMAIL_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Email.Port = port
		}
	}
	if v := os.Getenv("SHOPGATE_EMAIL_FROM"); v != "" {
		cfg.Email.From = v
	}

	// Reminder configuration
	if v := os.Getenv("SHOPGATE_REMINDERS_ENABLED"); v != "" {
		cfg.Reminders.Enabled = parseBool(v)
	}
	if v := os.Getenv("SHOPGATE_REMINDERS_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Reminders.Interval = d
		}
	}

	// Outbox configuration
	if v := os.Getenv("SHOPGATE_OUTBOX_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Outbox.Interval = d
		}
	}

	// Logging configuration
	if v := os.Getenv("SHOPGATE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("SHOPGATE_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}

	// Metrics configuration
	if v := os.Getenv("SHOPGATE_METRICS_ENABLED"); v != "" {
		cfg.Metrics.Enabled = parseBool(v)
	}
	if v := os.Getenv("SHOPGATE_METRICS_PATH"); v != "" {
		cfg.Metrics.Path = v
	}
}

// parseBool parses a boolean from common string values.
func parseBool(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	return v == "true" || v == "1" || v == "yes" || v == "on"
}

func setDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 30 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 60 * time.Second
	}

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "sqlite"
	}
	if cfg.Database.DSN == "" {
		cfg.Database.DSN = "shopgate.db"
	}

	if cfg.Payment.Mode == "" {
		cfg.Payment.Mode = "noop"
	}

	if cfg.Auth.TokenTTL == 0 {
		cfg.Auth.TokenTTL = 24 * time.Hour
	}

	if cfg.KeyService.Timeout == 0 {
		cfg.KeyService.Timeout = 10 * time.Second
	}

	if cfg.Email.Mode == "" {
		cfg.Email.Mode = "noop"
	}
	if cfg.Email.Port == 0 {
		cfg.Email.Port = 587
	}

	if cfg.Reminders.Interval == 0 {
		cfg.Reminders.Interval = 24 * time.Hour
	}

	if cfg.Outbox.Interval == 0 {
		cfg.Outbox.Interval = time.Minute
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
}

func validate(cfg *Config) error {
	validDrivers := map[string]bool{"sqlite": true, "memory": true}
	if !validDrivers[cfg.Database.Driver] {
		return fmt.Errorf("database.driver must be 'sqlite' or 'memory', got %q", cfg.Database.Driver)
	}

	validPaymentModes := map[string]bool{"stripe": true, "noop": true}
	if !validPaymentModes[cfg.Payment.Mode] {
		return fmt.Errorf("payment.mode must be 'stripe' or 'noop', got %q", cfg.Payment.Mode)
	}
	if cfg.Payment.Mode == "stripe" && cfg.Payment.StripeKey == "" {
		return fmt.Errorf("payment.stripe_key is required when payment.mode is 'stripe'")
	}

	validEmailModes := map[string]bool{"smtp": true, "noop": true}
	if !validEmailModes[cfg.Email.Mode] {
		return fmt.Errorf("email.mode must be 'smtp' or 'noop', got %q", cfg.Email.Mode)
	}
	if cfg.Email.Mode == "smtp" {
		if cfg.Email.Host == "" {
			return fmt.Errorf("email.host is required when email.mode is 'smtp'")
		}
		if cfg.Email.From == "" {
			return fmt.Errorf("email.from is required when email.mode is 'smtp'")
		}
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}

	return nil
}

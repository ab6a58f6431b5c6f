package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 9000\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("port = %d", cfg.Server.Port)
	}
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("host = %q", cfg.Server.Host)
	}
	if cfg.Database.Driver != "sqlite" || cfg.Database.DSN != "shopgate.db" {
		t.Errorf("database = %+v", cfg.Database)
	}
	if cfg.Payment.Mode != "noop" {
		t.Errorf("payment mode = %q", cfg.Payment.Mode)
	}
	if cfg.Email.Mode != "noop" || cfg.Email.Port != 587 {
		t.Errorf("email = %+v", cfg.Email)
	}
	if cfg.Auth.TokenTTL != 24*time.Hour {
		t.Errorf("token ttl = %v", cfg.Auth.TokenTTL)
	}
	if cfg.Reminders.Interval != 24*time.Hour {
		t.Errorf("reminder interval = %v", cfg.Reminders.Interval)
	}
	if cfg.Outbox.Interval != time.Minute {
		t.Errorf("outbox interval = %v", cfg.Outbox.Interval)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Errorf("logging = %+v", cfg.Logging)
	}
	if cfg.Metrics.Path != "/metrics" {
		t.Errorf("metrics path = %q", cfg.Metrics.Path)
	}
}

func TestLoadFullConfig(t *testing.T) {
	path := writeConfig(t, `
server:
  host: 127.0.0.1
  port: 8443
database:
  driver: sqlite
  dsn: /var/lib/shopgate/store.db
payment:
  mode: stripe
  stripe_key: sk_test_123
  webhook_secret: whsec_456
auth:
  jwt_secret: super-secret
  token_ttl: 2h
key_service:
  url: https://keys.example.com
  api_key: ks_789
  timeout: 5s
email:
  mode: smtp
  host: smtp.example.com
  port: 2525
  from: store@example.com
reminders:
  enabled: true
  interval: 12h
logging:
  level: debug
  format: console
metrics:
  enabled: true
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Payment.Mode != "stripe" || cfg.Payment.StripeKey != "sk_test_123" {
		t.Errorf("payment = %+v", cfg.Payment)
	}
	if cfg.Payment.WebhookSecret != "whsec_456" {
		t.Errorf("webhook secret = %q", cfg.Payment.WebhookSecret)
	}
	if cfg.Auth.TokenTTL != 2*time.Hour {
		t.Errorf("token ttl = %v", cfg.Auth.TokenTTL)
	}
	if cfg.KeyService.URL != "https://keys.example.com" || cfg.KeyService.Timeout != 5*time.Second {
		t.Errorf("key service = %+v", cfg.KeyService)
	}
	if cfg.Email.Port != 2525 {
		t.Errorf("email port = %d", cfg.Email.Port)
	}
	if !cfg.Reminders.Enabled || cfg.Reminders.Interval != 12*time.Hour {
		t.Errorf("reminders = %+v", cfg.Reminders)
	}
}

func TestLoadExpandsEnvVars(t *testing.T) {
	t.Setenv("TEST_STRIPE_KEY", "sk_from_env")
	path := writeConfig(t, `
payment:
  mode: stripe
  stripe_key: ${TEST_STRIPE_KEY}
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Payment.StripeKey != "sk_from_env" {
		t.Errorf("stripe key = %q", cfg.Payment.StripeKey)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("SHOPGATE_SERVER_PORT", "9999")
	t.Setenv("SHOPGATE_LOG_LEVEL", "warn")
	path := writeConfig(t, "server:\n  port: 8080\nlogging:\n  level: info\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("port = %d, want 9999", cfg.Server.Port)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("level = %q, want warn", cfg.Logging.Level)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("SHOPGATE_DATABASE_DRIVER", "memory")
	t.Setenv("SHOPGATE_PAYMENT_MODE", "stripe")
	t.Setenv("SHOPGATE_STRIPE_KEY", "sk_env")
	t.Setenv("SHOPGATE_KEY_SERVICE_URL", "https://keys.example.com")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("load from env: %v", err)
	}
	if cfg.Database.Driver != "memory" {
		t.Errorf("driver = %q", cfg.Database.Driver)
	}
	if cfg.Payment.StripeKey != "sk_env" {
		t.Errorf("stripe key = %q", cfg.Payment.StripeKey)
	}
}

func TestValidationErrors(t *testing.T) {
	cases := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{"bad driver", "database:\n  driver: postgres\n", "database.driver"},
		{"bad payment mode", "payment:\n  mode: paddle\n", "payment.mode"},
		{"stripe without key", "payment:\n  mode: stripe\n", "payment.stripe_key"},
		{"smtp without host", "email:\n  mode: smtp\n  from: a@b.com\n", "email.host"},
		{"smtp without from", "email:\n  mode: smtp\n  host: smtp.example.com\n", "email.from"},
		{"bad log level", "logging:\n  level: verbose\n", "logging.level"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeConfig(t, tc.yaml)
			_, err := Load(path)
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("err = %v, want mention of %s", err, tc.wantErr)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadWithFallback(t *testing.T) {
	// Missing file falls back to env-only config.
	cfg, err := LoadWithFallback(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("fallback: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("port = %d", cfg.Server.Port)
	}
}

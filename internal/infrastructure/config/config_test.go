package config_test

import (
	"os"
	"testing"
	"time"

	"github.com/iho/gowallet/internal/infrastructure/config"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}

	if cfg.DatabaseURL == "" {
		t.Fatalf("expected default database URL to be set")
	}

	if cfg.HTTPPort != "8080" {
		t.Fatalf("expected default HTTP port 8080, got %s", cfg.HTTPPort)
	}

	if cfg.Store != config.StorePostgres {
		t.Fatalf("expected postgres store by default, got %s", cfg.Store)
	}

	if cfg.DefaultCurrency != "USD" {
		t.Fatalf("expected USD default currency, got %s", cfg.DefaultCurrency)
	}

	if cfg.OutboxStream != "stream:wallet" {
		t.Fatalf("unexpected outbox stream %s", cfg.OutboxStream)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("LEDGER_STORE", "memory")
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("REDIS_URL", "redis://example")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("DATABASE_TIMEOUT", "45s")
	t.Setenv("JWT_SECRET", "top-secret")
	t.Setenv("LEDGER_LOCK_TIMEOUT", "2s")
	t.Setenv("RATE_LIMIT_RPS", "0.5")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}

	if cfg.Store != config.StoreMemory {
		t.Fatalf("expected memory store, got %s", cfg.Store)
	}

	if cfg.DatabaseURL != "postgres://example" {
		t.Fatalf("expected custom database URL, got %s", cfg.DatabaseURL)
	}

	if cfg.RedisURL != "redis://example" {
		t.Fatalf("expected custom redis URL, got %s", cfg.RedisURL)
	}

	if cfg.HTTPPort != "9090" {
		t.Fatalf("expected HTTP port override, got %s", cfg.HTTPPort)
	}

	if cfg.DatabaseTimeout != 45*time.Second {
		t.Fatalf("expected database timeout override, got %s", cfg.DatabaseTimeout)
	}

	if cfg.LockTimeout != 2*time.Second {
		t.Fatalf("expected lock timeout override, got %s", cfg.LockTimeout)
	}

	if cfg.JWTSecret != "top-secret" {
		t.Fatalf("expected JWT secret to be set, got %q", cfg.JWTSecret)
	}

	if cfg.RateLimitRPS != 0.5 {
		t.Fatalf("expected rate limit override, got %v", cfg.RateLimitRPS)
	}
}

func TestLoadInvalidDuration(t *testing.T) {
	original := os.Getenv("HTTP_READ_TIMEOUT")
	t.Setenv("HTTP_READ_TIMEOUT", "not-a-duration")
	t.Cleanup(func() {
		t.Setenv("HTTP_READ_TIMEOUT", original)
	})

	if _, err := config.Load(); err == nil {
		t.Fatalf("expected error for invalid duration")
	}
}

func TestLoadRejectsUnknownStore(t *testing.T) {
	t.Setenv("LEDGER_STORE", "sqlite")

	if _, err := config.Load(); err == nil {
		t.Fatalf("expected error for unknown store")
	}
}

func TestValidateTimeouts(t *testing.T) {
	cfg := &config.Config{
		Store:              config.StoreMemory,
		LockTimeout:        5 * time.Second,
		TransactionTimeout: time.Second,
	}

	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error when transaction timeout is shorter than lock timeout")
	}

	cfg.TransactionTimeout = 10 * time.Second
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

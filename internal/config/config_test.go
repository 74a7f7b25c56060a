//go:build !integration

package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"ticket-payment-service/internal/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	t.Run("should apply defaults for omitted fields", func(t *testing.T) {
		path := writeConfig(t, `
gateway:
  access_token: "tok"
database:
  url: "postgres://localhost/tickets"
`)
		cfg, err := config.LoadConfig(path, true)
		if err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		if cfg.Server.Port != 3000 {
			t.Errorf("expected default port 3000, got %d", cfg.Server.Port)
		}
		if cfg.Gateway.BaseURL != "https://api.mercadopago.com" {
			t.Errorf("unexpected default gateway base url %q", cfg.Gateway.BaseURL)
		}
		if cfg.Gateway.MaxRetries != 3 {
			t.Errorf("expected 3 default submission retries, got %d", cfg.Gateway.MaxRetries)
		}
		if cfg.Reconciler.Interval != time.Minute || cfg.Reconciler.MaxFetchAttempts != 4 {
			t.Errorf("unexpected reconciler defaults: %+v", cfg.Reconciler)
		}
		if !cfg.Runtime.Dev {
			t.Error("expected dev flag carried into runtime config")
		}
	})

	t.Run("should keep explicit values", func(t *testing.T) {
		path := writeConfig(t, `
server:
  port: 8080
gateway:
  access_token: "tok"
  timeout: 3s
database:
  url: "postgres://localhost/tickets"
reconciler:
  stale_after: 30m
`)
		cfg, err := config.LoadConfig(path, false)
		if err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		if cfg.Server.Port != 8080 {
			t.Errorf("expected port 8080, got %d", cfg.Server.Port)
		}
		if cfg.Gateway.Timeout != 3*time.Second {
			t.Errorf("expected 3s timeout, got %s", cfg.Gateway.Timeout)
		}
		if cfg.Reconciler.StaleAfter != 30*time.Minute {
			t.Errorf("expected 30m stale_after, got %s", cfg.Reconciler.StaleAfter)
		}
	})

	t.Run("should require the gateway access token", func(t *testing.T) {
		path := writeConfig(t, `
database:
  url: "postgres://localhost/tickets"
`)
		if _, err := config.LoadConfig(path, false); err == nil {
			t.Fatal("expected an error for a missing access token")
		}
	})

	t.Run("should require the database url", func(t *testing.T) {
		path := writeConfig(t, `
gateway:
  access_token: "tok"
`)
		if _, err := config.LoadConfig(path, false); err == nil {
			t.Fatal("expected an error for a missing database url")
		}
	})

	t.Run("should fail on unreadable paths", func(t *testing.T) {
		if _, err := config.LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"), false); err == nil {
			t.Fatal("expected an error for a missing file")
		}
	})
}

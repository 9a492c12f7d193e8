package config

import (
	"testing"
	"time"
)

func setBaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("AUTH_JWT_SECRET", "test-secret")
	t.Setenv("STORAGE_DRIVER", "noop")
	t.Setenv("MESSAGING_ENABLED", "false")
	t.Setenv("CACHE_ENABLED", "false")
}

func TestNewDefaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := New()
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if cfg.Cache.Driver != "noop" {
		t.Fatalf("expected noop cache when disabled, got %s", cfg.Cache.Driver)
	}
	if cfg.Messaging.Driver != "noop" {
		t.Fatalf("expected noop messaging when disabled, got %s", cfg.Messaging.Driver)
	}
	if cfg.Database.ReaderDSN != cfg.Database.WriterDSN {
		t.Fatal("reader DSN should default to writer DSN")
	}
	if cfg.Suggestions.LowStockThreshold != 10 {
		t.Fatalf("expected low stock threshold 10, got %d", cfg.Suggestions.LowStockThreshold)
	}
	if cfg.Suggestions.MaxItems != 6 {
		t.Fatalf("expected 6 suggestions max, got %d", cfg.Suggestions.MaxItems)
	}
	if cfg.Cache.OrderTTL != 30*time.Second || cfg.Cache.OrderTTL >= cfg.Cache.DefaultTTL {
		t.Fatalf("orders should cache for less than the default ttl, got %v", cfg.Cache.OrderTTL)
	}
	if cfg.Storage.PlaceholderPath != "/placeholder.svg" {
		t.Fatalf("unexpected placeholder %q", cfg.Storage.PlaceholderPath)
	}
}

func TestNewRequiresJWTSecret(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("AUTH_JWT_SECRET", "")

	if _, err := New(); err == nil {
		t.Fatal("expected error without AUTH_JWT_SECRET")
	}
}

func TestNewSupabaseStorageRequiresCredentials(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("STORAGE_DRIVER", "supabase")
	t.Setenv("SUPABASE_URL", "")

	if _, err := New(); err == nil {
		t.Fatal("expected error for supabase storage without url")
	}

	t.Setenv("SUPABASE_URL", "https://demo.supabase.co/")
	t.Setenv("SUPABASE_SERVICE_KEY", "service-key")
	cfg, err := New()
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if cfg.Storage.URL != "https://demo.supabase.co" {
		t.Fatalf("expected trailing slash trimmed, got %s", cfg.Storage.URL)
	}
}

func TestNewRejectsUnknownDatabaseDriver(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("DB_DRIVER", "oracle")

	if _, err := New(); err == nil {
		t.Fatal("expected error for unsupported database driver")
	}
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("X_DURATION", "90s")
	t.Setenv("X_SLICE", " a, ,b ")
	t.Setenv("X_FLOAT", "12.5")
	t.Setenv("X_BAD_INT", "nope")

	if got := getEnvAsDuration("X_DURATION", time.Second); got != 90*time.Second {
		t.Fatalf("expected 90s, got %s", got)
	}
	if got := getEnvAsStringSlice("X_SLICE", nil); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("unexpected slice %v", got)
	}
	if got := getEnvAsFloat("X_FLOAT", 0); got != 12.5 {
		t.Fatalf("expected 12.5, got %f", got)
	}
	if got := getEnvAsInt("X_BAD_INT", 7); got != 7 {
		t.Fatalf("expected default on parse failure, got %d", got)
	}
}

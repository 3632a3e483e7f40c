package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "")
	t.Setenv("STORAGE_DIR", "")
	t.Setenv("SHUTDOWN_TIMEOUT_SECONDS", "")
	t.Setenv("SHUTDOWN_TIMEOUT", "")
	t.Setenv("LOG_FORMAT", "")
	t.Setenv("PORT", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.StorageBackend != BackendFile || cfg.StorageDir != defaultStorageDir {
		t.Fatalf("unexpected storage defaults: %+v", cfg)
	}
	if cfg.ShutdownPeriod != defaultShutdownDelay {
		t.Fatalf("expected default shutdown period, got %s", cfg.ShutdownPeriod)
	}
	if cfg.Address() != ":8080" {
		t.Fatalf("unexpected address %s", cfg.Address())
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "memory")
	t.Setenv("SHUTDOWN_TIMEOUT_SECONDS", "3")
	t.Setenv("IDEMPOTENCY_TTL", "90m")
	t.Setenv("LOG_FORMAT", "TEXT")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.StorageBackend != BackendMemory {
		t.Fatalf("expected memory backend, got %s", cfg.StorageBackend)
	}
	if cfg.ShutdownPeriod != 3*time.Second {
		t.Fatalf("expected 3s shutdown, got %s", cfg.ShutdownPeriod)
	}
	if cfg.IdempotencyTTL != 90*time.Minute {
		t.Fatalf("expected 90m ttl, got %s", cfg.IdempotencyTTL)
	}
	if cfg.LogFormat != "text" {
		t.Fatalf("expected text log format, got %s", cfg.LogFormat)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := map[string][2]string{
		"postgres without url": {"STORAGE_BACKEND", "postgres"},
		"unknown backend":      {"STORAGE_BACKEND", "s3"},
		"bad shutdown":         {"SHUTDOWN_TIMEOUT_SECONDS", "soon"},
		"bad log format":       {"LOG_FORMAT", "xml"},
	}
	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv("DATABASE_URL", "")
			t.Setenv(kv[0], kv[1])
			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s=%s", kv[0], kv[1])
			}
		})
	}
}

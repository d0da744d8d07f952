package config

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Server.Port != "8080" {
		t.Fatalf("Server.Port = %q, want 8080", cfg.Server.Port)
	}
	if cfg.Storage.Backend != BackendFile {
		t.Fatalf("Storage.Backend = %q, want %q", cfg.Storage.Backend, BackendFile)
	}
	if cfg.Auth.Leeway != 30*time.Second {
		t.Fatalf("Auth.Leeway = %v, want 30s", cfg.Auth.Leeway)
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("STORAGE_BACKEND", "redis")
	t.Setenv("REDIS_URL", "redis://cache:6379/1")
	t.Setenv("TLS_ENABLED", "true")
	t.Setenv("AUTH_SECRET", "s3cret")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Server.Port != "9090" || cfg.Storage.Backend != BackendRedis || !cfg.TLS.Enabled {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.Redis.URL != "redis://cache:6379/1" || cfg.Auth.Secret != "s3cret" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestLoadConfigRejectsUnknownBackend(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "etcd")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

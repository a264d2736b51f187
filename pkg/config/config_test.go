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
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Adapter != "none" {
		t.Errorf("expected adapter none, got %s", cfg.Adapter)
	}
	if cfg.Journal.Backend != "memory" {
		t.Errorf("expected memory journal, got %s", cfg.Journal.Backend)
	}
	if cfg.Session.TurnTimeout != 5*time.Second {
		t.Errorf("expected 5s turn timeout, got %v", cfg.Session.TurnTimeout)
	}
	if cfg.ReapSchedule != "@every 5m" {
		t.Errorf("expected default reap schedule, got %s", cfg.ReapSchedule)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `
adapter: openai
openai_key: sk-test
adapter_model: gpt-4o
redis:
  addr: localhost:6379
  prefix: "calmloop:"
  session_ttl: 24h
journal:
  backend: memory
session:
  turn_timeout: 3s
  idle_timeout: 10m
reap_schedule: "@every 1m"
observability_port: 9191
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Adapter != "openai" || cfg.AdapterModel != "gpt-4o" {
		t.Errorf("adapter config mismatch: %s/%s", cfg.Adapter, cfg.AdapterModel)
	}
	if cfg.Redis.Addr != "localhost:6379" {
		t.Errorf("redis addr mismatch: %s", cfg.Redis.Addr)
	}
	if cfg.Session.TurnTimeout != 3*time.Second {
		t.Errorf("expected 3s turn timeout, got %v", cfg.Session.TurnTimeout)
	}
	if cfg.Session.IdleTimeout != 10*time.Minute {
		t.Errorf("expected 10m idle timeout, got %v", cfg.Session.IdleTimeout)
	}
	// history_timeout was omitted and stays zero; the registry applies
	// its own default.
	if cfg.Session.HistoryTimeout != 0 {
		t.Errorf("expected zero history timeout, got %v", cfg.Session.HistoryTimeout)
	}
	if cfg.ObservabilityPort != 9191 {
		t.Errorf("expected port 9191, got %d", cfg.ObservabilityPort)
	}

	ttl, err := cfg.Redis.TTL()
	if err != nil {
		t.Fatalf("TTL failed: %v", err)
	}
	if ttl != 24*time.Hour {
		t.Errorf("expected 24h TTL, got %v", ttl)
	}
}

func TestLoadRejectsDeeplyNestedYAML(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 30; i++ {
		for j := 0; j < i; j++ {
			b.WriteString("  ")
		}
		b.WriteString("a:\n")
	}
	path := writeConfig(t, b.String())

	if _, err := Load(path); err == nil {
		t.Error("expected error for deeply nested config")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestEnvFallback(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-from-env")
	t.Setenv("REDIS_ADDR", "redis-env:6379")

	path := writeConfig(t, "adapter: openai\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.OpenAIKey != "sk-from-env" {
		t.Errorf("expected env API key, got %q", cfg.OpenAIKey)
	}
	if cfg.Redis.Addr != "redis-env:6379" {
		t.Errorf("expected env redis addr, got %q", cfg.Redis.Addr)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults are valid", func(c *Config) {}, false},
		{"openai without key", func(c *Config) { c.Adapter = "openai" }, true},
		{"openai with key", func(c *Config) { c.Adapter = "openai"; c.OpenAIKey = "sk" }, false},
		{"gemini without key", func(c *Config) { c.Adapter = "gemini" }, true},
		{"unknown adapter", func(c *Config) { c.Adapter = "llama" }, true},
		{"firestore without project", func(c *Config) { c.Journal.Backend = "firestore" }, true},
		{"firestore with project", func(c *Config) { c.Journal.Backend = "firestore"; c.GCPProject = "p" }, false},
		{"unknown journal backend", func(c *Config) { c.Journal.Backend = "s3" }, true},
		{"bad session ttl", func(c *Config) { c.Redis.SessionTTL = "tomorrow" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr && err == nil {
				t.Error("expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

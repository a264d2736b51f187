// Package config loads the application configuration from YAML, with
// environment fallbacks for secrets.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/calmloop-dev/calmloop/pkg/session"
)

// Config represents the application configuration.
type Config struct {
	// API keys
	OpenAIKey string `yaml:"openai_key"`
	GeminiKey string `yaml:"gemini_key"`

	// GCP configuration (journal store)
	GCPProject     string `yaml:"gcp_project"`
	GCPCredentials string `yaml:"gcp_credentials"`

	// Adapter selects the live conversation backend: none, openai, gemini.
	Adapter string `yaml:"adapter"`
	// AdapterModel overrides the adapter's default model.
	AdapterModel string `yaml:"adapter_model"`
	// ConnectRatePerMin caps upstream connection attempts per minute.
	ConnectRatePerMin int `yaml:"connect_rate_per_min"`

	// Redis is the durable conversation tier. An empty address runs
	// every session memory-only.
	Redis RedisConfig `yaml:"redis"`

	// Journal selects where derived journal entries go: memory, firestore.
	Journal JournalConfig `yaml:"journal"`

	// Session holds the registry tuning knobs.
	Session session.Config `yaml:"session"`

	// ReapSchedule is the cron expression for the idle-session reaper.
	ReapSchedule string `yaml:"reap_schedule"`

	// ObservabilityPort serves /health and /metrics. 0 disables the server.
	ObservabilityPort int `yaml:"observability_port"`
}

// RedisConfig holds the durable tier connection settings.
type RedisConfig struct {
	Addr       string `yaml:"addr"`
	Password   string `yaml:"password"`
	DB         int    `yaml:"db"`
	Prefix     string `yaml:"prefix"`
	SessionTTL string `yaml:"session_ttl"`
}

// TTL parses the configured session TTL. Empty means never expire.
func (r RedisConfig) TTL() (time.Duration, error) {
	if r.SessionTTL == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(r.SessionTTL)
	if err != nil {
		return 0, fmt.Errorf("invalid session_ttl %q: %w", r.SessionTTL, err)
	}
	return d, nil
}

// JournalConfig holds the journal store settings.
type JournalConfig struct {
	Backend    string `yaml:"backend"`
	Collection string `yaml:"collection"`
}

// Default returns the configuration used when no file is given: fallback
// responder only, memory-only storage, in-memory journal.
func Default() *Config {
	return &Config{
		Adapter:           "none",
		ConnectRatePerMin: 10,
		Journal:           JournalConfig{Backend: "memory"},
		Session:           session.DefaultConfig(),
		ReapSchedule:      "@every 5m",
		ObservabilityPort: 9090,
	}
}

// Load reads configuration from a YAML file. An empty path yields the
// defaults. Secrets missing from the file fall back to the environment.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := safeUnmarshal(data, cfg); err != nil {
			return nil, err
		}
	}

	applyDefaults(cfg)
	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Adapter == "" {
		cfg.Adapter = "none"
	}
	if cfg.ConnectRatePerMin <= 0 {
		cfg.ConnectRatePerMin = 10
	}
	if cfg.Journal.Backend == "" {
		cfg.Journal.Backend = "memory"
	}
	if cfg.ReapSchedule == "" {
		cfg.ReapSchedule = "@every 5m"
	}
}

func applyEnv(cfg *Config) {
	if cfg.OpenAIKey == "" {
		cfg.OpenAIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.GeminiKey == "" {
		cfg.GeminiKey = os.Getenv("GOOGLE_API_KEY")
	}
	if cfg.GCPProject == "" {
		cfg.GCPProject = os.Getenv("GCP_PROJECT")
	}
	if cfg.GCPCredentials == "" {
		cfg.GCPCredentials = os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")
	}
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = os.Getenv("REDIS_ADDR")
	}
	if cfg.Redis.Password == "" {
		cfg.Redis.Password = os.Getenv("REDIS_PASSWORD")
	}
	if cfg.Redis.DB == 0 {
		if db, err := strconv.Atoi(os.Getenv("REDIS_DB")); err == nil {
			cfg.Redis.DB = db
		}
	}
}

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	switch c.Adapter {
	case "none":
	case "openai":
		if c.OpenAIKey == "" {
			return fmt.Errorf("adapter %q requires openai_key or OPENAI_API_KEY", c.Adapter)
		}
	case "gemini":
		if c.GeminiKey == "" {
			return fmt.Errorf("adapter %q requires gemini_key or GOOGLE_API_KEY", c.Adapter)
		}
	default:
		return fmt.Errorf("unknown adapter %q (want none, openai or gemini)", c.Adapter)
	}

	switch c.Journal.Backend {
	case "memory":
	case "firestore":
		if c.GCPProject == "" {
			return fmt.Errorf("journal backend %q requires gcp_project or GCP_PROJECT", c.Journal.Backend)
		}
	default:
		return fmt.Errorf("unknown journal backend %q (want memory or firestore)", c.Journal.Backend)
	}

	if _, err := c.Redis.TTL(); err != nil {
		return err
	}

	return nil
}

package session

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds registry tuning knobs from YAML.
type Config struct {
	// TurnTimeout bounds the wait for a live-channel reply before the
	// turn falls back to the canned responder.
	// Default: 5s.
	TurnTimeout time.Duration `yaml:"turn_timeout"`

	// HistoryTimeout bounds the recent-history fetch at session start.
	// Default: 2s.
	HistoryTimeout time.Duration `yaml:"history_timeout"`

	// IdleTimeout is how long a session may sit without a turn before the
	// reaper ends it.
	// Default: 30m.
	IdleTimeout time.Duration `yaml:"idle_timeout"`
}

// DefaultConfig returns the default registry configuration.
func DefaultConfig() Config {
	return Config{
		TurnTimeout:    5 * time.Second,
		HistoryTimeout: 2 * time.Second,
		IdleTimeout:    30 * time.Minute,
	}
}

// UnmarshalYAML accepts duration strings ("5s", "30m") for the timeout
// fields.
func (c *Config) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		TurnTimeout    string `yaml:"turn_timeout"`
		HistoryTimeout string `yaml:"history_timeout"`
		IdleTimeout    string `yaml:"idle_timeout"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}

	parse := func(field, s string, dst *time.Duration) error {
		if s == "" {
			return nil
		}
		d, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", field, s, err)
		}
		*dst = d
		return nil
	}

	if err := parse("turn_timeout", raw.TurnTimeout, &c.TurnTimeout); err != nil {
		return err
	}
	if err := parse("history_timeout", raw.HistoryTimeout, &c.HistoryTimeout); err != nil {
		return err
	}
	return parse("idle_timeout", raw.IdleTimeout, &c.IdleTimeout)
}

func (c Config) withDefaults() Config {
	out := c
	def := DefaultConfig()
	if out.TurnTimeout <= 0 {
		out.TurnTimeout = def.TurnTimeout
	}
	if out.HistoryTimeout <= 0 {
		out.HistoryTimeout = def.HistoryTimeout
	}
	if out.IdleTimeout <= 0 {
		out.IdleTimeout = def.IdleTimeout
	}
	return out
}

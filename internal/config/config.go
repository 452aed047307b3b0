package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ServerConfig holds configuration for the runhub coordinator.
type ServerConfig struct {
	Addr      string // Listen address (default ":8080")
	LogLevel  string // Log level: debug, info, warn, error
	LogFormat string // Log format: text, json

	// HeartbeatTimeout is how long a runner may go without a heartbeat
	// before it is considered stale.
	HeartbeatTimeout time.Duration

	// ClaimGrace is how long a claimed or running run may sit on a stale
	// runner before the sweep fails it as orphaned.
	ClaimGrace time.Duration

	// SweepInterval is how often the stale-claim sweep runs.
	SweepInterval time.Duration

	// PollSlice bounds one wait cycle inside a long poll; the dispatcher
	// re-checks for work at least this often even without a wake.
	PollSlice time.Duration

	// MaxPollWait caps the max_wait a runner may request on a poll.
	MaxPollWait time.Duration

	// HistoryPath is the SQLite database path for the terminal-run
	// archive. ":memory:" keeps it in-process; empty disables archiving.
	HistoryPath string
}

// DefaultServerConfig returns sensible defaults.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:             ":8080",
		LogLevel:         "info",
		LogFormat:        "text",
		HeartbeatTimeout: 30 * time.Second,
		ClaimGrace:       2 * time.Minute,
		SweepInterval:    30 * time.Second,
		PollSlice:        time.Second,
		MaxPollWait:      60 * time.Second,
	}
}

// fileConfig mirrors ServerConfig for YAML decoding; durations are strings
// so operators can write "90s" or "5m".
type fileConfig struct {
	Addr             string `yaml:"addr"`
	LogLevel         string `yaml:"log_level"`
	LogFormat        string `yaml:"log_format"`
	HeartbeatTimeout string `yaml:"heartbeat_timeout"`
	ClaimGrace       string `yaml:"claim_grace"`
	SweepInterval    string `yaml:"sweep_interval"`
	PollSlice        string `yaml:"poll_slice"`
	MaxPollWait      string `yaml:"max_poll_wait"`
	HistoryPath      string `yaml:"history_path"`
}

// LoadFile overlays settings from a YAML file onto cfg. Fields absent from
// the file keep their current values.
func LoadFile(path string, cfg *ServerConfig) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	if fc.Addr != "" {
		cfg.Addr = fc.Addr
	}
	if fc.LogLevel != "" {
		cfg.LogLevel = fc.LogLevel
	}
	if fc.LogFormat != "" {
		cfg.LogFormat = fc.LogFormat
	}
	if fc.HistoryPath != "" {
		cfg.HistoryPath = fc.HistoryPath
	}

	for _, d := range []struct {
		raw  string
		name string
		dst  *time.Duration
	}{
		{fc.HeartbeatTimeout, "heartbeat_timeout", &cfg.HeartbeatTimeout},
		{fc.ClaimGrace, "claim_grace", &cfg.ClaimGrace},
		{fc.SweepInterval, "sweep_interval", &cfg.SweepInterval},
		{fc.PollSlice, "poll_slice", &cfg.PollSlice},
		{fc.MaxPollWait, "max_poll_wait", &cfg.MaxPollWait},
	} {
		if d.raw == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("config %s: %s: %w", path, d.name, err)
		}
		if parsed <= 0 {
			return fmt.Errorf("config %s: %s must be positive", path, d.name)
		}
		*d.dst = parsed
	}

	return nil
}

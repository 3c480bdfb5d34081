package config

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/bodoithienha2026/WebRDP/internal/domain"
)

// StorageConfig locates the durable database.
type StorageConfig struct {
	DBPath string `toml:"db_path"`
}

// APIConfig tunes the HTTP surface.
type APIConfig struct {
	ListenAddr        string `toml:"listen_addr"`
	RequestsPerMinute int    `toml:"requests_per_minute"`
	CORSOrigin        string `toml:"cors_origin"`
}

// EngineConfig tunes the simulation rules.
type EngineConfig struct {
	TickIntervalMS     int   `toml:"tick_interval_ms"`
	ActivityLogSize    int   `toml:"activity_log_size"`
	LeaseBaseSeconds   int64 `toml:"lease_base_seconds"`
	LeaseCreateCost    int64 `toml:"lease_create_cost"`
	LeaseExtendCost    int64 `toml:"lease_extend_cost"`
	LeaseExtendSeconds int64 `toml:"lease_extend_seconds"`
	LatencyMinMS       int   `toml:"latency_min_ms"`
	LatencyMaxMS       int   `toml:"latency_max_ms"`

	Tasks map[string]TaskOverride `toml:"tasks"`
}

// TaskOverride adjusts one built-in task. Zero fields keep the stock
// value; the task table itself is fixed, only rewards, cooldowns, and
// labels change.
type TaskOverride struct {
	Label        string `toml:"label"`
	Reward       int64  `toml:"reward"`
	CooldownSecs int64  `toml:"cooldown_secs"`
}

// LogConfig tunes logging output.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Config holds the full runtime configuration.
type Config struct {
	Storage StorageConfig `toml:"storage"`
	API     APIConfig     `toml:"api"`
	Engine  EngineConfig  `toml:"engine"`
	Log     LogConfig     `toml:"log"`
}

// Default returns the stock configuration used when no file exists.
// The database path is left empty for the caller to resolve against its
// data directory.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads a TOML config file, applies defaults for anything unset,
// and validates.
func Load(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// TickInterval returns the reconcile cadence as a duration.
func (c EngineConfig) TickInterval() time.Duration {
	return time.Duration(c.TickIntervalMS) * time.Millisecond
}

// Latency returns the simulated operation latency bounds.
func (c EngineConfig) Latency() (time.Duration, time.Duration) {
	return time.Duration(c.LatencyMinMS) * time.Millisecond,
		time.Duration(c.LatencyMaxMS) * time.Millisecond
}

func (c *Config) applyDefaults() {
	if c.API.ListenAddr == "" {
		c.API.ListenAddr = "127.0.0.1:8712"
	}
	if c.API.RequestsPerMinute == 0 {
		c.API.RequestsPerMinute = 120
	}
	if c.API.CORSOrigin == "" {
		c.API.CORSOrigin = "*"
	}
	if c.Engine.TickIntervalMS == 0 {
		c.Engine.TickIntervalMS = 1000
	}
	if c.Engine.ActivityLogSize == 0 {
		c.Engine.ActivityLogSize = 6
	}
	if c.Engine.LeaseBaseSeconds == 0 {
		c.Engine.LeaseBaseSeconds = 21600
	}
	if c.Engine.LeaseCreateCost == 0 {
		c.Engine.LeaseCreateCost = 10
	}
	if c.Engine.LeaseExtendCost == 0 {
		c.Engine.LeaseExtendCost = 50
	}
	if c.Engine.LeaseExtendSeconds == 0 {
		c.Engine.LeaseExtendSeconds = 3600
	}
	if c.Engine.LatencyMinMS == 0 {
		c.Engine.LatencyMinMS = 850
	}
	if c.Engine.LatencyMaxMS == 0 {
		c.Engine.LatencyMaxMS = 1350
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
}

func (c *Config) validate() error {
	var problems []string

	if c.API.RequestsPerMinute < 0 {
		problems = append(problems, "requests_per_minute must not be negative")
	}
	if c.Engine.TickIntervalMS < 0 {
		problems = append(problems, "tick_interval_ms must not be negative")
	}
	if c.Engine.ActivityLogSize < 0 {
		problems = append(problems, "activity_log_size must not be negative")
	}
	if c.Engine.LeaseBaseSeconds < 0 {
		problems = append(problems, "lease_base_seconds must not be negative")
	}
	if c.Engine.LeaseCreateCost < 0 || c.Engine.LeaseExtendCost < 0 {
		problems = append(problems, "lease costs must not be negative")
	}
	if c.Engine.LeaseExtendSeconds < 0 {
		problems = append(problems, "lease_extend_seconds must not be negative")
	}
	if c.Engine.LatencyMinMS < 0 || c.Engine.LatencyMaxMS < 0 {
		problems = append(problems, "latency bounds must not be negative")
	}
	if c.Engine.LatencyMinMS > c.Engine.LatencyMaxMS {
		problems = append(problems, "latency_min_ms exceeds latency_max_ms")
	}
	for name, ov := range c.Engine.Tasks {
		switch domain.TaskType(name) {
		case domain.TaskVideo, domain.TaskShort, domain.TaskDaily:
		default:
			problems = append(problems, fmt.Sprintf("unknown task %q in [engine.tasks]", name))
		}
		if ov.Reward < 0 {
			problems = append(problems, fmt.Sprintf("task %q reward must not be negative", name))
		}
		if ov.CooldownSecs < 0 {
			problems = append(problems, fmt.Sprintf("task %q cooldown_secs must not be negative", name))
		}
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		problems = append(problems, fmt.Sprintf("unknown log level %q", c.Log.Level))
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		problems = append(problems, fmt.Sprintf("unknown log format %q", c.Log.Format))
	}

	if len(problems) > 0 {
		return &domain.EngineError{
			Code:    domain.ErrConfigInvalid.Code,
			Message: fmt.Sprintf("%s: %v", domain.ErrConfigInvalid.Message, problems),
		}
	}
	return nil
}

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bodoithienha2026/WebRDP/internal/domain"
)

// validTOML returns a configuration overriding a few fields, leaving the
// rest to defaults.
func validTOML() string {
	return `
[storage]
db_path = "/tmp/webrdp-test.db"

[api]
listen_addr = "127.0.0.1:9321"

[engine]
lease_base_seconds = 120
latency_min_ms = 10
latency_max_ms = 20
`
}

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	p := filepath.Join(dir, "webrdp.toml")
	if err := os.WriteFile(p, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return p
}

func TestLoad_Valid(t *testing.T) {
	path := writeConfig(t, t.TempDir(), validTOML())

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Storage.DBPath != "/tmp/webrdp-test.db" {
		t.Errorf("DBPath = %q, want /tmp/webrdp-test.db", cfg.Storage.DBPath)
	}
	if cfg.API.ListenAddr != "127.0.0.1:9321" {
		t.Errorf("ListenAddr = %q, want 127.0.0.1:9321", cfg.API.ListenAddr)
	}
	if cfg.Engine.LeaseBaseSeconds != 120 {
		t.Errorf("LeaseBaseSeconds = %d, want 120", cfg.Engine.LeaseBaseSeconds)
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load("/nonexistent/path/webrdp.toml")
	if err == nil {
		t.Fatal("expected error for missing file, got nil")
	}
}

func TestLoad_InvalidTOML(t *testing.T) {
	path := writeConfig(t, t.TempDir(), `[storage`)

	_, err := Load(path)
	if err == nil {
		t.Fatal("expected error for invalid TOML, got nil")
	}
}

func TestLoad_DefaultsApplied(t *testing.T) {
	path := writeConfig(t, t.TempDir(), validTOML())

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.API.RequestsPerMinute != 120 {
		t.Errorf("RequestsPerMinute = %d, want 120", cfg.API.RequestsPerMinute)
	}
	if cfg.Engine.TickIntervalMS != 1000 {
		t.Errorf("TickIntervalMS = %d, want 1000", cfg.Engine.TickIntervalMS)
	}
	if cfg.Engine.ActivityLogSize != 6 {
		t.Errorf("ActivityLogSize = %d, want 6", cfg.Engine.ActivityLogSize)
	}
	if cfg.Engine.LeaseCreateCost != 10 {
		t.Errorf("LeaseCreateCost = %d, want 10", cfg.Engine.LeaseCreateCost)
	}
	if cfg.Engine.LeaseExtendCost != 50 {
		t.Errorf("LeaseExtendCost = %d, want 50", cfg.Engine.LeaseExtendCost)
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "json" {
		t.Errorf("Log = %+v, want info/json", cfg.Log)
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.API.ListenAddr != "127.0.0.1:8712" {
		t.Errorf("ListenAddr = %q, want 127.0.0.1:8712", cfg.API.ListenAddr)
	}
	if cfg.Engine.LeaseBaseSeconds != 21600 {
		t.Errorf("LeaseBaseSeconds = %d, want 21600", cfg.Engine.LeaseBaseSeconds)
	}
	if cfg.Engine.LatencyMinMS != 850 || cfg.Engine.LatencyMaxMS != 1350 {
		t.Errorf("latency = %d..%d, want 850..1350", cfg.Engine.LatencyMinMS, cfg.Engine.LatencyMaxMS)
	}
	if cfg.Storage.DBPath != "" {
		t.Errorf("DBPath = %q, want empty for caller to resolve", cfg.Storage.DBPath)
	}
}

func TestLoad_CollectsProblems(t *testing.T) {
	path := writeConfig(t, t.TempDir(), `
[engine]
latency_min_ms = 500
latency_max_ms = 100

[log]
level = "loud"
`)

	_, err := Load(path)
	if err == nil {
		t.Fatal("expected validation error, got nil")
	}
	engineErr, ok := err.(*domain.EngineError)
	if !ok {
		t.Fatalf("expected EngineError, got %T", err)
	}
	if engineErr.Code != domain.ErrConfigInvalid.Code {
		t.Errorf("Code = %d, want %d", engineErr.Code, domain.ErrConfigInvalid.Code)
	}
	// Both problems are reported together, not just the first.
	if !strings.Contains(engineErr.Message, "latency_min_ms") || !strings.Contains(engineErr.Message, "log level") {
		t.Errorf("Message = %q, want both problems listed", engineErr.Message)
	}
}

func TestLoad_NegativeValues(t *testing.T) {
	path := writeConfig(t, t.TempDir(), `
[engine]
lease_create_cost = -5
`)

	_, err := Load(path)
	if err == nil {
		t.Fatal("expected validation error, got nil")
	}
}

func TestEngineConfig_Durations(t *testing.T) {
	cfg := Default()

	if got := cfg.Engine.TickInterval(); got != time.Second {
		t.Errorf("TickInterval = %v, want 1s", got)
	}
	min, max := cfg.Engine.Latency()
	if min != 850*time.Millisecond || max != 1350*time.Millisecond {
		t.Errorf("Latency = %v..%v, want 850ms..1350ms", min, max)
	}
}

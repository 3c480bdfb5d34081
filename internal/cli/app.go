package cli

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/bodoithienha2026/WebRDP/internal/clock"
	"github.com/bodoithienha2026/WebRDP/internal/config"
	"github.com/bodoithienha2026/WebRDP/internal/domain"
	"github.com/bodoithienha2026/WebRDP/internal/engine"
	"github.com/bodoithienha2026/WebRDP/internal/guard"
	"github.com/bodoithienha2026/WebRDP/internal/provision"
	"github.com/bodoithienha2026/WebRDP/internal/store"
)

// app bundles everything a command needs over one open database.
type app struct {
	cfg    *config.Config
	db     *sql.DB
	log    *zap.Logger
	trail  *store.AuditTrail
	engine *engine.Engine
	guard  *guard.Guard
	delay  provision.Delay
}

// openApp loads configuration, opens the database, and builds the
// engine. Callers must Close.
func openApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	log, err := newLogger(cfg.Log)
	if err != nil {
		return nil, err
	}

	dbPath, err := resolveDBPath(cfg)
	if err != nil {
		return nil, err
	}

	db, err := store.NewDB(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	trail := store.NewAuditTrail(db, log)
	min, max := cfg.Engine.Latency()
	eng := engine.New(clock.System{}, store.NewDurable(db, log), store.NewSessionStore(), trail, engine.Config{
		Tasks: taskSpecs(cfg.Engine),
		Lease: engine.LeaseConfig{
			BaseSeconds:   cfg.Engine.LeaseBaseSeconds,
			CreateCost:    cfg.Engine.LeaseCreateCost,
			ExtendCost:    cfg.Engine.LeaseExtendCost,
			ExtendSeconds: cfg.Engine.LeaseExtendSeconds,
		},
		ActivityLogSize: cfg.Engine.ActivityLogSize,
	})

	return &app{
		cfg:    cfg,
		db:     db,
		log:    log,
		trail:  trail,
		engine: eng,
		guard:  guard.NewGuard(guard.Config{RequestsPerMinute: cfg.API.RequestsPerMinute}),
		delay:  provision.Delay{Min: min, Max: max},
	}, nil
}

func (a *app) Close() {
	a.db.Close()
	_ = a.log.Sync()
}

// loadConfig resolves the config file and falls back to defaults when
// none exists anywhere.
func loadConfig() (*config.Config, error) {
	path := flagConfig
	if path == "" {
		path = os.Getenv("WEBRDP_CONFIG")
	}
	if path == "" {
		path = discoverConfig()
	}
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

// discoverConfig looks for webrdp.toml in the cwd, then next to the
// executable.
func discoverConfig() string {
	if _, err := os.Stat("webrdp.toml"); err == nil {
		return "webrdp.toml"
	}
	if exe, err := os.Executable(); err == nil {
		candidate := filepath.Join(filepath.Dir(exe), "webrdp.toml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

// taskSpecs applies config overrides to the stock task table. Order and
// membership stay fixed.
func taskSpecs(cfg config.EngineConfig) []domain.TaskSpec {
	specs := engine.DefaultTasks()
	for i, spec := range specs {
		ov, ok := cfg.Tasks[string(spec.Type)]
		if !ok {
			continue
		}
		if ov.Label != "" {
			specs[i].Label = ov.Label
		}
		if ov.Reward > 0 {
			specs[i].Reward = ov.Reward
		}
		if ov.CooldownSecs > 0 {
			specs[i].Cooldown = time.Duration(ov.CooldownSecs) * time.Second
		}
	}
	return specs
}

// resolveDBPath picks the database location: explicit config path, else
// the data directory, created on demand.
func resolveDBPath(cfg *config.Config) (string, error) {
	if cfg.Storage.DBPath != "" {
		return cfg.Storage.DBPath, nil
	}

	dir := flagDataDir
	if dir == "" {
		dir = os.Getenv("WEBRDP_HOME")
	}
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		dir = filepath.Join(home, ".webrdp")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("create data directory: %w", err)
	}
	return filepath.Join(dir, "webrdp.db"), nil
}

func newLogger(cfg config.LogConfig) (*zap.Logger, error) {
	var zcfg zap.Config
	if cfg.Format == "console" {
		zcfg = zap.NewDevelopmentConfig()
	} else {
		zcfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)

	return zcfg.Build()
}

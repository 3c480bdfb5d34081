package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/bodoithienha2026/WebRDP/internal/domain"
)

// Durable wraps the database with the engine's best-effort persistence
// contract: loads fall back instead of failing and saves never surface
// infrastructure errors. The one condition reported distinctly is a
// version conflict, so the caller can reconcile with a concurrent writer.
type Durable struct {
	db   *sql.DB
	repo *StateRepo
	log  *zap.Logger
}

// NewDurable creates a Durable over an open database. A nil logger disables
// degrade logging.
func NewDurable(db *sql.DB, log *zap.Logger) *Durable {
	if log == nil {
		log = zap.NewNop()
	}
	return &Durable{db: db, repo: &StateRepo{}, log: log}
}

// Load unmarshals the payload stored under key into out. The bool reports
// whether out now holds a usable value; when it is false the caller must
// keep its fallback, since a corrupt payload may have partially decoded.
// The returned version is the row's real version even for corrupt
// payloads, so a later Save can overwrite them.
func (d *Durable) Load(ctx context.Context, key string, out any) (int64, bool) {
	payload, version, err := d.repo.Get(ctx, d.db, key)
	if err != nil {
		d.log.Debug("state load failed, using fallback", zap.String("key", key), zap.Error(err))
		return 0, false
	}
	if version == 0 {
		return 0, false
	}
	if err := json.Unmarshal([]byte(payload), out); err != nil {
		d.log.Debug("state payload corrupt, using fallback", zap.String("key", key), zap.Error(err))
		return version, false
	}
	return version, true
}

// Save marshals v under key with optimistic versioning and returns the
// version now in effect. A version conflict returns ErrStateConflict; any
// other failure is swallowed and the previous version is returned,
// degrading persistence to in-memory-only for this cycle.
func (d *Durable) Save(ctx context.Context, key string, v any, expected int64) (int64, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		d.log.Debug("state marshal failed", zap.String("key", key), zap.Error(err))
		return expected, nil
	}

	version, err := d.repo.Put(ctx, d.db, key, string(payload), expected, time.Now().Unix())
	if err != nil {
		if err == domain.ErrStateConflict {
			return expected, err
		}
		d.log.Debug("state save failed", zap.String("key", key), zap.Error(err))
		return expected, nil
	}
	return version, nil
}

// Version returns the version currently stored under key; an absent key
// reads as version 0. The bool is false when the store could not answer,
// so a transient read failure is not mistaken for a missing key.
func (d *Durable) Version(ctx context.Context, key string) (int64, bool) {
	version, err := d.repo.Version(ctx, d.db, key)
	if err != nil {
		d.log.Debug("state version read failed", zap.String("key", key), zap.Error(err))
		return 0, false
	}
	return version, true
}

// Wipe clears every durable key. Used by factory reset; failures are
// swallowed like any other persistence failure.
func (d *Durable) Wipe(ctx context.Context) {
	if err := d.repo.DeleteAll(ctx, d.db); err != nil {
		d.log.Debug("state wipe failed", zap.Error(err))
	}
}

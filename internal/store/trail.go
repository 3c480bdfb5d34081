package store

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"

	"github.com/bodoithienha2026/WebRDP/internal/domain"
)

// AuditTrail records engine operations best-effort. Write failures are
// logged and swallowed so auditing never affects an operation's outcome.
type AuditTrail struct {
	db   *sql.DB
	repo *AuditRepo
	log  *zap.Logger
}

// NewAuditTrail creates an AuditTrail over an open database.
func NewAuditTrail(db *sql.DB, log *zap.Logger) *AuditTrail {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuditTrail{db: db, repo: &AuditRepo{}, log: log}
}

// Record appends one operation to the trail.
func (t *AuditTrail) Record(ctx context.Context, at time.Time, op, outcome, detail string) {
	rec := domain.AuditRecord{At: at, Op: op, Outcome: outcome, Detail: detail}
	if err := t.repo.Record(ctx, t.db, rec); err != nil {
		t.log.Debug("audit record failed", zap.String("op", op), zap.Error(err))
	}
}

// Recent returns the most recent records, newest first.
func (t *AuditTrail) Recent(ctx context.Context, limit int) ([]domain.AuditRecord, error) {
	return t.repo.ListRecent(ctx, t.db, limit)
}

// Wipe clears the trail. Used by factory reset.
func (t *AuditTrail) Wipe(ctx context.Context) {
	if err := t.repo.DeleteAll(ctx, t.db); err != nil {
		t.log.Debug("audit wipe failed", zap.Error(err))
	}
}

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/bodoithienha2026/WebRDP/internal/domain"
)

// AuditRepo handles persistence for the operation audit trail.
type AuditRepo struct{}

// Record inserts an audit record.
func (r *AuditRepo) Record(ctx context.Context, db *sql.DB, rec domain.AuditRecord) error {
	const q = `INSERT INTO audit_log (at, op, outcome, detail) VALUES (?, ?, ?, ?)`
	_, err := db.ExecContext(ctx, q,
		rec.At.Unix(),
		rec.Op,
		rec.Outcome,
		rec.Detail,
	)
	if err != nil {
		return fmt.Errorf("record audit: %w", err)
	}
	return nil
}

// ListRecent returns the most recent audit records, newest first.
func (r *AuditRepo) ListRecent(ctx context.Context, db *sql.DB, limit int) ([]domain.AuditRecord, error) {
	const q = `SELECT seq, at, op, outcome, detail
FROM audit_log
ORDER BY seq DESC
LIMIT ?`

	rows, err := db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("list audit records: %w", err)
	}
	defer rows.Close()

	var records []domain.AuditRecord
	for rows.Next() {
		var a domain.AuditRecord
		var atUnix int64
		if err := rows.Scan(&a.Seq, &atUnix, &a.Op, &a.Outcome, &a.Detail); err != nil {
			return nil, fmt.Errorf("scan audit record: %w", err)
		}
		a.At = time.Unix(atUnix, 0).UTC()
		records = append(records, a)
	}
	return records, rows.Err()
}

// DeleteAll clears the audit trail. Used by factory reset.
func (r *AuditRepo) DeleteAll(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, `DELETE FROM audit_log`); err != nil {
		return fmt.Errorf("delete audit records: %w", err)
	}
	return nil
}

package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/bodoithienha2026/WebRDP/internal/domain"
)

// StateRepo handles persistence for versioned state blobs.
type StateRepo struct{}

// Get returns the payload and version stored under key.
// A missing key returns an empty payload and version 0 without error.
func (r *StateRepo) Get(ctx context.Context, db *sql.DB, key string) (string, int64, error) {
	const q = `SELECT payload, version FROM kv_state WHERE key = ?`

	row := db.QueryRowContext(ctx, q, key)

	var payload string
	var version int64
	err := row.Scan(&payload, &version)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", 0, nil
		}
		return "", 0, fmt.Errorf("get state %q: %w", key, err)
	}
	return payload, version, nil
}

// Version returns the version stored under key, or 0 when the key is absent.
func (r *StateRepo) Version(ctx context.Context, db *sql.DB, key string) (int64, error) {
	const q = `SELECT version FROM kv_state WHERE key = ?`

	var version int64
	err := db.QueryRowContext(ctx, q, key).Scan(&version)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, nil
		}
		return 0, fmt.Errorf("get state version %q: %w", key, err)
	}
	return version, nil
}

// Put saves the payload under key using optimistic locking and returns the
// new version. Pass expected 0 to insert a fresh key. A version mismatch,
// including a fresh insert racing an existing row, returns ErrStateConflict.
func (r *StateRepo) Put(ctx context.Context, db *sql.DB, key, payload string, expected, atUnix int64) (int64, error) {
	if expected == 0 {
		const q = `INSERT OR IGNORE INTO kv_state (key, payload, version, updated_at) VALUES (?, ?, 1, ?)`
		res, err := db.ExecContext(ctx, q, key, payload, atUnix)
		if err != nil {
			return 0, fmt.Errorf("insert state %q: %w", key, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("check rows affected: %w", err)
		}
		if n == 0 {
			return 0, domain.ErrStateConflict
		}
		return 1, nil
	}

	const q = `UPDATE kv_state SET payload = ?, version = version + 1, updated_at = ? WHERE key = ? AND version = ?`
	res, err := db.ExecContext(ctx, q, payload, atUnix, key, expected)
	if err != nil {
		return 0, fmt.Errorf("update state %q: %w", key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("check rows affected: %w", err)
	}
	if n == 0 {
		return 0, domain.ErrStateConflict
	}
	return expected + 1, nil
}

// DeleteAll removes every stored key. Used by factory reset.
func (r *StateRepo) DeleteAll(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, `DELETE FROM kv_state`); err != nil {
		return fmt.Errorf("delete state: %w", err)
	}
	return nil
}

package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bodoithienha2026/WebRDP/internal/domain"
)

func TestAuditRepo_RecordAndListRecent(t *testing.T) {
	db := newTestDB(t)
	repo := &AuditRepo{}
	ctx := context.Background()

	at := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		rec := domain.AuditRecord{
			At:      at.Add(time.Duration(i) * time.Minute),
			Op:      fmt.Sprintf("op-%d", i),
			Outcome: "ok",
		}
		if err := repo.Record(ctx, db, rec); err != nil {
			t.Fatalf("Record %d: %v", i, err)
		}
	}

	records, err := repo.ListRecent(ctx, db, 2)
	if err != nil {
		t.Fatalf("ListRecent: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("len(records) = %d, want 2", len(records))
	}
	if records[0].Op != "op-2" || records[1].Op != "op-1" {
		t.Errorf("records not newest first: got %s, %s", records[0].Op, records[1].Op)
	}
	if !records[0].At.Equal(at.Add(2 * time.Minute)) {
		t.Errorf("At = %v, want %v", records[0].At, at.Add(2*time.Minute))
	}
}

func TestAuditRepo_DeleteAll(t *testing.T) {
	db := newTestDB(t)
	repo := &AuditRepo{}
	ctx := context.Background()

	rec := domain.AuditRecord{At: time.Now(), Op: "claim_task", Outcome: "ok"}
	if err := repo.Record(ctx, db, rec); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := repo.DeleteAll(ctx, db); err != nil {
		t.Fatalf("DeleteAll: %v", err)
	}

	records, err := repo.ListRecent(ctx, db, 10)
	if err != nil {
		t.Fatalf("ListRecent: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("len(records) after DeleteAll = %d, want 0", len(records))
	}
}

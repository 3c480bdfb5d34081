package provision

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/bodoithienha2026/WebRDP/internal/clock"
	"github.com/bodoithienha2026/WebRDP/internal/domain"
	"github.com/bodoithienha2026/WebRDP/internal/engine"
	"github.com/bodoithienha2026/WebRDP/internal/store"
)

func newTestEngine(t *testing.T) *engine.Engine {
	t.Helper()
	db, err := store.NewDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return engine.New(
		clock.System{},
		store.NewDurable(db, nil),
		store.NewSessionStore(),
		store.NewAuditTrail(db, nil),
		engine.DefaultConfig(),
	)
}

func fund(t *testing.T, eng *engine.Engine) {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if _, err := eng.ClaimTask(ctx, domain.TaskVideo); err != nil {
			t.Fatalf("claim %d: %v", i, err)
		}
	}
}

func waitForStatus(t *testing.T, eng *engine.Engine, want domain.LeaseStatus) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		if snap := eng.Snapshot(context.Background()); snap.Lease.Status == want {
			return
		}
		select {
		case <-deadline:
			snap := eng.Snapshot(context.Background())
			t.Fatalf("lease status = %q, want %q", snap.Lease.Status, want)
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestDelay_DurationBounds(t *testing.T) {
	d := Delay{Min: 850 * time.Millisecond, Max: 1350 * time.Millisecond}
	for i := 0; i < 100; i++ {
		got := d.Duration()
		if got < d.Min || got > d.Max {
			t.Fatalf("Duration() = %v, want within [%v, %v]", got, d.Min, d.Max)
		}
	}
}

func TestDelay_DegenerateRange(t *testing.T) {
	d := Delay{Min: 100 * time.Millisecond, Max: 100 * time.Millisecond}
	if got := d.Duration(); got != 100*time.Millisecond {
		t.Errorf("Duration() = %v, want 100ms", got)
	}
}

func TestDelay_WaitCanceled(t *testing.T) {
	d := Delay{Min: time.Minute, Max: time.Minute}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- d.Wait(ctx) }()
	cancel()

	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("Wait returned %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Wait did not return after cancel")
	}
}

func TestRunner_FinishesCreatedLease(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreTopFunction("database/sql.(*DB).connectionOpener"))

	eng := newTestEngine(t)
	fund(t, eng)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r := NewRunner(eng, Delay{Min: time.Millisecond, Max: 5 * time.Millisecond}, nil)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = r.Run(ctx)
	}()

	if err := eng.CreateLease(ctx); err != nil {
		t.Fatalf("CreateLease: %v", err)
	}
	waitForStatus(t, eng, domain.LeaseRunning)

	snap := eng.Snapshot(ctx)
	if snap.Lease.TimeLeftSec != 21600 {
		t.Errorf("TimeLeftSec = %d, want 21600", snap.Lease.TimeLeftSec)
	}

	cancel()
	<-done
}

func TestRunner_RecoversLeftoverProvisioning(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreTopFunction("database/sql.(*DB).connectionOpener"))

	eng := newTestEngine(t)
	fund(t, eng)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The lease is created before the runner exists, modeling a process
	// that died between debit and completion.
	if err := eng.CreateLease(ctx); err != nil {
		t.Fatalf("CreateLease: %v", err)
	}

	r := NewRunner(eng, Delay{Min: time.Millisecond, Max: 5 * time.Millisecond}, nil)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = r.Run(ctx)
	}()

	waitForStatus(t, eng, domain.LeaseRunning)

	cancel()
	<-done
}

package engine

import (
	"fmt"
	"testing"
	"time"

	"github.com/bodoithienha2026/WebRDP/internal/clock"
	"github.com/bodoithienha2026/WebRDP/internal/domain"
)

func newTestLease(clk clock.Clock, cfg LeaseConfig) *LeaseEngine {
	return &LeaseEngine{
		Clock:  clk,
		Ledger: &Ledger{Clock: clk, Tasks: NewTaskRegistry(DefaultTasks()), LogSize: 6},
		Config: cfg,
	}
}

var testLeaseConfig = LeaseConfig{
	BaseSeconds:   3600,
	CreateCost:    10,
	ExtendCost:    50,
	ExtendSeconds: 3600,
}

func TestIsValidTransition(t *testing.T) {
	tests := []struct {
		from  domain.LeaseStatus
		to    domain.LeaseStatus
		valid bool
	}{
		{domain.LeaseStopped, domain.LeaseProvisioning, true},
		{domain.LeaseProvisioning, domain.LeaseRunning, true},
		{domain.LeaseRunning, domain.LeaseStopped, true},
		// Invalid transitions:
		{domain.LeaseStopped, domain.LeaseRunning, false},
		{domain.LeaseProvisioning, domain.LeaseStopped, false},
		{domain.LeaseRunning, domain.LeaseProvisioning, false},
		{domain.LeaseStopped, domain.LeaseStopped, false},
		{domain.LeaseRunning, domain.LeaseRunning, false},
	}

	for _, tt := range tests {
		name := fmt.Sprintf("%s->%s", tt.from, tt.to)
		t.Run(name, func(t *testing.T) {
			got := IsValidTransition(tt.from, tt.to)
			if got != tt.valid {
				t.Errorf("IsValidTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.valid)
			}
		})
	}
}

func TestLease_CreateInsufficientFunds(t *testing.T) {
	clk := clock.NewManual(time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC))
	le := newTestLease(clk, testLeaseConfig)
	st := domain.NewState()
	st.Balance = 9

	err := le.Create(&st)
	if domain.ErrCode(err) != domain.ErrInsufficientFunds.Code {
		t.Fatalf("Create: err = %v, want insufficient funds", err)
	}
	if st.Lease.Status != domain.LeaseStopped {
		t.Errorf("Status = %q after failed create, want stopped", st.Lease.Status)
	}
	if st.Balance != 9 {
		t.Errorf("Balance = %d after failed create, want 9", st.Balance)
	}
}

func TestLease_CreateDebitsAndProvisions(t *testing.T) {
	clk := clock.NewManual(time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC))
	le := newTestLease(clk, testLeaseConfig)
	st := domain.NewState()
	st.Balance = 10

	if err := le.Create(&st); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if st.Balance != 0 {
		t.Errorf("Balance = %d, want 0", st.Balance)
	}
	if st.Lease.Status != domain.LeaseProvisioning {
		t.Errorf("Status = %q, want provisioning", st.Lease.Status)
	}
	if st.Lease.ID == "" {
		t.Error("lease ID is empty")
	}
	if st.Lease.TimeLeftSec != 0 {
		t.Errorf("TimeLeftSec = %d before provisioning completes, want 0", st.Lease.TimeLeftSec)
	}
}

func TestLease_CreateWhileActive(t *testing.T) {
	clk := clock.NewManual(time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC))
	le := newTestLease(clk, testLeaseConfig)
	st := domain.NewState()
	st.Balance = 100

	if err := le.Create(&st); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := le.Create(&st); domain.ErrCode(err) != domain.ErrAlreadyActive.Code {
		t.Errorf("second Create: err = %v, want already active", err)
	}

	if err := le.CompleteProvisioning(&st); err != nil {
		t.Fatalf("CompleteProvisioning: %v", err)
	}
	if err := le.Create(&st); domain.ErrCode(err) != domain.ErrAlreadyActive.Code {
		t.Errorf("Create while running: err = %v, want already active", err)
	}
}

func TestLease_CompleteProvisioning(t *testing.T) {
	clk := clock.NewManual(time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC))
	le := newTestLease(clk, testLeaseConfig)
	st := domain.NewState()
	st.Balance = 10

	if err := le.CompleteProvisioning(&st); domain.ErrCode(err) != domain.ErrInvalidTransition.Code {
		t.Fatalf("CompleteProvisioning on stopped lease: err = %v, want invalid transition", err)
	}

	if err := le.Create(&st); err != nil {
		t.Fatalf("Create: %v", err)
	}
	clk.Advance(1200 * time.Millisecond)
	if err := le.CompleteProvisioning(&st); err != nil {
		t.Fatalf("CompleteProvisioning: %v", err)
	}

	if st.Lease.Status != domain.LeaseRunning {
		t.Errorf("Status = %q, want running", st.Lease.Status)
	}
	// The countdown starts at completion with the full duration; the
	// provisioning delay costs nothing.
	if st.Lease.TimeLeftSec != 3600 {
		t.Errorf("TimeLeftSec = %d, want 3600", st.Lease.TimeLeftSec)
	}
	if !st.Lease.LastReconcile.Equal(clk.Now()) {
		t.Errorf("LastReconcile = %v, want %v", st.Lease.LastReconcile, clk.Now())
	}
}

func TestLease_ReconcileCountdown(t *testing.T) {
	clk := clock.NewManual(time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC))
	le := newTestLease(clk, testLeaseConfig)
	st := domain.NewState()
	st.Balance = 10

	if err := le.Create(&st); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := le.CompleteProvisioning(&st); err != nil {
		t.Fatalf("CompleteProvisioning: %v", err)
	}

	clk.Advance(1500 * time.Second)
	consumed, expired := le.Reconcile(&st)
	if consumed != 1500 || expired {
		t.Fatalf("Reconcile = (%d, %v), want (1500, false)", consumed, expired)
	}
	if st.Lease.TimeLeftSec != 2100 {
		t.Errorf("TimeLeftSec = %d, want 2100", st.Lease.TimeLeftSec)
	}
	if st.Lease.Status != domain.LeaseRunning {
		t.Errorf("Status = %q, want running", st.Lease.Status)
	}

	// A gap longer than the remaining time consumes only what was left
	// and stops the lease.
	clk.Advance(2200 * time.Second)
	consumed, expired = le.Reconcile(&st)
	if consumed != 2100 || !expired {
		t.Fatalf("Reconcile = (%d, %v), want (2100, true)", consumed, expired)
	}
	if st.Lease.TimeLeftSec != 0 {
		t.Errorf("TimeLeftSec = %d, want 0", st.Lease.TimeLeftSec)
	}
	if st.Lease.Status != domain.LeaseStopped {
		t.Errorf("Status = %q, want stopped", st.Lease.Status)
	}
}

func TestLease_ReconcileCarriesFraction(t *testing.T) {
	clk := clock.NewManual(time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC))
	le := newTestLease(clk, testLeaseConfig)
	st := domain.NewState()
	st.Balance = 10

	if err := le.Create(&st); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := le.CompleteProvisioning(&st); err != nil {
		t.Fatalf("CompleteProvisioning: %v", err)
	}

	// Five 900ms ticks: 4.5s of wall time must cost exactly 4 seconds,
	// with the 500ms remainder carried, never dropped.
	for i := 0; i < 5; i++ {
		clk.Advance(900 * time.Millisecond)
		le.Reconcile(&st)
	}
	if st.Lease.TimeLeftSec != 3596 {
		t.Errorf("TimeLeftSec = %d after 4.5s, want 3596", st.Lease.TimeLeftSec)
	}
}

func TestLease_ReconcileClockBackwards(t *testing.T) {
	clk := clock.NewManual(time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC))
	le := newTestLease(clk, testLeaseConfig)
	st := domain.NewState()
	st.Balance = 10

	if err := le.Create(&st); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := le.CompleteProvisioning(&st); err != nil {
		t.Fatalf("CompleteProvisioning: %v", err)
	}

	clk.Set(clk.Now().Add(-time.Hour))
	consumed, expired := le.Reconcile(&st)
	if consumed != 0 || expired {
		t.Errorf("Reconcile = (%d, %v) with clock behind, want (0, false)", consumed, expired)
	}
	if st.Lease.TimeLeftSec != 3600 {
		t.Errorf("TimeLeftSec = %d, want untouched 3600", st.Lease.TimeLeftSec)
	}
}

func TestLease_StopFreezesRemaining(t *testing.T) {
	clk := clock.NewManual(time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC))
	le := newTestLease(clk, testLeaseConfig)
	st := domain.NewState()
	st.Balance = 10

	if err := le.Stop(&st); domain.ErrCode(err) != domain.ErrNotRunning.Code {
		t.Fatalf("Stop on stopped lease: err = %v, want not running", err)
	}

	if err := le.Create(&st); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := le.CompleteProvisioning(&st); err != nil {
		t.Fatalf("CompleteProvisioning: %v", err)
	}

	clk.Advance(100 * time.Second)
	if err := le.Stop(&st); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if st.Lease.Status != domain.LeaseStopped {
		t.Errorf("Status = %q, want stopped", st.Lease.Status)
	}
	if st.Lease.TimeLeftSec != 3500 {
		t.Errorf("TimeLeftSec = %d, want 3500", st.Lease.TimeLeftSec)
	}

	// Frozen time does not drain.
	clk.Advance(time.Hour)
	le.Reconcile(&st)
	if st.Lease.TimeLeftSec != 3500 {
		t.Errorf("TimeLeftSec = %d after stop, want frozen 3500", st.Lease.TimeLeftSec)
	}
}

func TestLease_StopAfterExpiry(t *testing.T) {
	clk := clock.NewManual(time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC))
	le := newTestLease(clk, testLeaseConfig)
	st := domain.NewState()
	st.Balance = 10

	if err := le.Create(&st); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := le.CompleteProvisioning(&st); err != nil {
		t.Fatalf("CompleteProvisioning: %v", err)
	}

	// The lease ran out during the gap, so stop sees it already stopped.
	clk.Advance(2 * time.Hour)
	if err := le.Stop(&st); domain.ErrCode(err) != domain.ErrNotRunning.Code {
		t.Errorf("Stop after expiry: err = %v, want not running", err)
	}
}

func TestLease_ExtendRunning(t *testing.T) {
	clk := clock.NewManual(time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC))
	le := newTestLease(clk, testLeaseConfig)
	st := domain.NewState()
	st.Balance = 60

	if err := le.Create(&st); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := le.CompleteProvisioning(&st); err != nil {
		t.Fatalf("CompleteProvisioning: %v", err)
	}

	if err := le.Extend(&st); err != nil {
		t.Fatalf("Extend: %v", err)
	}
	if st.Balance != 0 {
		t.Errorf("Balance = %d, want 0", st.Balance)
	}
	if st.Lease.TimeLeftSec != 7200 {
		t.Errorf("TimeLeftSec = %d, want 7200", st.Lease.TimeLeftSec)
	}
	if st.Lease.Status != domain.LeaseRunning {
		t.Errorf("Status = %q, want still running", st.Lease.Status)
	}
}

func TestLease_ExtendStoppedWithRemaining(t *testing.T) {
	clk := clock.NewManual(time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC))
	le := newTestLease(clk, testLeaseConfig)
	st := domain.NewState()
	st.Balance = 60

	if err := le.Create(&st); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := le.CompleteProvisioning(&st); err != nil {
		t.Fatalf("CompleteProvisioning: %v", err)
	}
	if err := le.Stop(&st); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	// Banking more time on a paused server is allowed and does not
	// restart it.
	if err := le.Extend(&st); err != nil {
		t.Fatalf("Extend: %v", err)
	}
	if st.Lease.TimeLeftSec != 7200 {
		t.Errorf("TimeLeftSec = %d, want 7200", st.Lease.TimeLeftSec)
	}
	if st.Lease.Status != domain.LeaseStopped {
		t.Errorf("Status = %q, want still stopped", st.Lease.Status)
	}
}

func TestLease_ExtendNothingLeft(t *testing.T) {
	clk := clock.NewManual(time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC))
	le := newTestLease(clk, testLeaseConfig)
	st := domain.NewState()
	st.Balance = 60

	if err := le.Extend(&st); err != domain.ErrNothingToExtend {
		t.Errorf("Extend on fresh state: err = %v, want ErrNothingToExtend", err)
	}

	if err := le.Create(&st); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := le.CompleteProvisioning(&st); err != nil {
		t.Fatalf("CompleteProvisioning: %v", err)
	}
	clk.Advance(2 * time.Hour)

	// Expired in the gap: the reconcile inside Extend observes zero
	// remaining before the purchase check.
	if err := le.Extend(&st); err != domain.ErrNothingToExtend {
		t.Errorf("Extend after expiry: err = %v, want ErrNothingToExtend", err)
	}
	if st.Balance != 50 {
		t.Errorf("Balance = %d, want 50 untouched", st.Balance)
	}
}

func TestLease_ExtendInsufficientFunds(t *testing.T) {
	clk := clock.NewManual(time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC))
	le := newTestLease(clk, testLeaseConfig)
	st := domain.NewState()
	st.Balance = 59

	if err := le.Create(&st); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := le.CompleteProvisioning(&st); err != nil {
		t.Fatalf("CompleteProvisioning: %v", err)
	}

	if err := le.Extend(&st); domain.ErrCode(err) != domain.ErrInsufficientFunds.Code {
		t.Fatalf("Extend: err = %v, want insufficient funds", err)
	}
	if st.Lease.TimeLeftSec != 3600 {
		t.Errorf("TimeLeftSec = %d, want unchanged 3600", st.Lease.TimeLeftSec)
	}
}

func TestLease_CreateAfterExpiredGap(t *testing.T) {
	clk := clock.NewManual(time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC))
	le := newTestLease(clk, testLeaseConfig)
	st := domain.NewState()
	st.Balance = 20

	if err := le.Create(&st); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := le.CompleteProvisioning(&st); err != nil {
		t.Fatalf("CompleteProvisioning: %v", err)
	}

	// The old lease expired while nobody was looking; a fresh create
	// must succeed without an explicit stop.
	clk.Advance(2 * time.Hour)
	if err := le.Create(&st); err != nil {
		t.Fatalf("Create after expiry: %v", err)
	}
	if st.Lease.Status != domain.LeaseProvisioning {
		t.Errorf("Status = %q, want provisioning", st.Lease.Status)
	}
	if st.Balance != 0 {
		t.Errorf("Balance = %d, want 0", st.Balance)
	}
}

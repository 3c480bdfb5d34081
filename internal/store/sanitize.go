package store

import (
	"fmt"
	"time"

	"github.com/bodoithienha2026/WebRDP/internal/domain"
)

var validLeaseStatuses = map[domain.LeaseStatus]bool{
	domain.LeaseStopped:      true,
	domain.LeaseProvisioning: true,
	domain.LeaseRunning:      true,
}

// Sanitize repairs a loaded state blob so the engine never operates on
// values outside its invariants, and returns a list describing each
// repair. A blob that needed no repairs comes back unchanged with an
// empty list.
func Sanitize(st domain.State) (domain.State, []string) {
	var repairs []string

	if st.Cooldowns == nil {
		st.Cooldowns = make(map[domain.TaskType]time.Time)
	}

	if st.Balance < 0 {
		repairs = append(repairs, fmt.Sprintf("balance %d clamped to 0", st.Balance))
		st.Balance = 0
	}
	if st.LifetimeEarned < 0 {
		repairs = append(repairs, fmt.Sprintf("lifetime earned %d clamped to 0", st.LifetimeEarned))
		st.LifetimeEarned = 0
	}
	if st.LifetimeSpent < 0 {
		repairs = append(repairs, fmt.Sprintf("lifetime spent %d clamped to 0", st.LifetimeSpent))
		st.LifetimeSpent = 0
	}
	if st.Daily.Earned < 0 {
		repairs = append(repairs, fmt.Sprintf("daily earned %d clamped to 0", st.Daily.Earned))
		st.Daily.Earned = 0
	}

	if !validLeaseStatuses[st.Lease.Status] {
		repairs = append(repairs, fmt.Sprintf("unknown lease status %q reset to stopped", st.Lease.Status))
		st.Lease.Status = domain.LeaseStopped
	}
	if st.Lease.TimeLeftSec < 0 {
		repairs = append(repairs, fmt.Sprintf("lease time left %d clamped to 0", st.Lease.TimeLeftSec))
		st.Lease.TimeLeftSec = 0
	}
	if st.Lease.Status == domain.LeaseRunning && st.Lease.LastReconcile.IsZero() {
		repairs = append(repairs, "running lease has no reconcile timestamp, stopped")
		st.Lease.Status = domain.LeaseStopped
	}
	if st.Lease.Status == domain.LeaseRunning && st.Lease.TimeLeftSec == 0 {
		repairs = append(repairs, "running lease has no time left, stopped")
		st.Lease.Status = domain.LeaseStopped
	}

	return st, repairs
}

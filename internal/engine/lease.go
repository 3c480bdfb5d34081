package engine

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/bodoithienha2026/WebRDP/internal/clock"
	"github.com/bodoithienha2026/WebRDP/internal/domain"
)

// validTransitions defines the legal lease status transitions.
var validTransitions = map[domain.LeaseStatus]map[domain.LeaseStatus]bool{
	domain.LeaseStopped:      {domain.LeaseProvisioning: true},
	domain.LeaseProvisioning: {domain.LeaseRunning: true},
	domain.LeaseRunning:      {domain.LeaseStopped: true},
}

// IsValidTransition checks if a lease status transition is legal.
func IsValidTransition(from, to domain.LeaseStatus) bool {
	targets, ok := validTransitions[from]
	if !ok {
		return false
	}
	return targets[to]
}

// Activity labels for lease spending.
const (
	labelDeploy = "New server deployment"
	labelExtend = "Extended server time"
)

// LeaseConfig holds the server lease economics.
type LeaseConfig struct {
	BaseSeconds   int64
	CreateCost    int64
	ExtendCost    int64
	ExtendSeconds int64
}

// LeaseEngine applies the server lifecycle rules to the state container.
// Every operation reconciles elapsed time first, so an expired lease is
// observed as stopped before the operation's own checks run.
type LeaseEngine struct {
	Clock  clock.Clock
	Ledger *Ledger
	Config LeaseConfig
}

// Reconcile applies elapsed wall-clock time to a running lease. Whole
// elapsed seconds are subtracted from the remaining time and the
// reconcile timestamp advances by exactly that many seconds, carrying
// the fractional remainder into the next call. Reaching zero stops the
// lease. Returns the seconds consumed and whether the lease expired.
func (e *LeaseEngine) Reconcile(st *domain.State) (int64, bool) {
	if st.Lease.Status != domain.LeaseRunning {
		return 0, false
	}
	elapsed := e.Clock.Now().Sub(st.Lease.LastReconcile)
	whole := int64(elapsed / time.Second)
	if whole <= 0 {
		return 0, false
	}
	st.Lease.LastReconcile = st.Lease.LastReconcile.Add(time.Duration(whole) * time.Second)
	if whole >= st.Lease.TimeLeftSec {
		consumed := st.Lease.TimeLeftSec
		st.Lease.TimeLeftSec = 0
		_ = e.transition(st, domain.LeaseStopped)
		return consumed, true
	}
	st.Lease.TimeLeftSec -= whole
	return whole, false
}

// Create debits the deployment cost and moves the lease to provisioning.
// The debit happens before any provisioning delay and is not refunded if
// the flow is abandoned; a crash mid-delay leaves the lease durably
// provisioning for recovery to finish.
func (e *LeaseEngine) Create(st *domain.State) error {
	e.Reconcile(st)
	if st.Lease.Status != domain.LeaseStopped {
		return domain.NewEngineError(
			domain.ErrAlreadyActive.Code,
			fmt.Sprintf("server is %s", st.Lease.Status),
		)
	}
	if err := e.Ledger.Debit(st, e.Config.CreateCost, labelDeploy); err != nil {
		return err
	}
	if err := e.transition(st, domain.LeaseProvisioning); err != nil {
		return err
	}
	st.Lease.ID = uuid.NewString()
	st.Lease.TimeLeftSec = 0
	st.Lease.LastReconcile = e.Clock.Now()
	return nil
}

// CompleteProvisioning moves a provisioning lease to running with the
// full base duration. The countdown starts here, not at creation.
func (e *LeaseEngine) CompleteProvisioning(st *domain.State) error {
	if st.Lease.Status != domain.LeaseProvisioning {
		return domain.NewEngineError(
			domain.ErrInvalidTransition.Code,
			fmt.Sprintf("cannot finish provisioning while %s", st.Lease.Status),
		)
	}
	if err := e.transition(st, domain.LeaseRunning); err != nil {
		return err
	}
	st.Lease.TimeLeftSec = e.Config.BaseSeconds
	st.Lease.LastReconcile = e.Clock.Now()
	return nil
}

// Stop pauses a running server. Remaining time is frozen, not refunded,
// and survives until the next deployment overwrites it.
func (e *LeaseEngine) Stop(st *domain.State) error {
	e.Reconcile(st)
	if st.Lease.Status != domain.LeaseRunning {
		return domain.NewEngineError(
			domain.ErrNotRunning.Code,
			fmt.Sprintf("server is %s", st.Lease.Status),
		)
	}
	if err := e.transition(st, domain.LeaseStopped); err != nil {
		return err
	}
	st.Lease.LastReconcile = e.Clock.Now()
	return nil
}

// Extend buys more server time. It works on a stopped server as long as
// frozen time remains, and never changes the status.
func (e *LeaseEngine) Extend(st *domain.State) error {
	e.Reconcile(st)
	if st.Lease.TimeLeftSec <= 0 {
		return domain.ErrNothingToExtend
	}
	if err := e.Ledger.Debit(st, e.Config.ExtendCost, labelExtend); err != nil {
		return err
	}
	st.Lease.TimeLeftSec += e.Config.ExtendSeconds
	return nil
}

func (e *LeaseEngine) transition(st *domain.State, to domain.LeaseStatus) error {
	from := st.Lease.Status
	if !IsValidTransition(from, to) {
		return domain.NewEngineError(
			domain.ErrInvalidTransition.Code,
			fmt.Sprintf("illegal transition %s -> %s", from, to),
		)
	}
	st.Lease.Status = to
	return nil
}

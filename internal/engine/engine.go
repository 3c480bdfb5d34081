package engine

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/bodoithienha2026/WebRDP/internal/clock"
	"github.com/bodoithienha2026/WebRDP/internal/domain"
	"github.com/bodoithienha2026/WebRDP/internal/store"
)

// Durable storage keys. StateKey is the single blob all processes share;
// SessionEarnedKey lives in the run-scoped store and resets on restart.
const (
	StateKey         = "app-state"
	SessionEarnedKey = "session-earned"
)

// Config tunes the engine rules. Zero fields take the defaults below.
type Config struct {
	Tasks           []domain.TaskSpec
	Lease           LeaseConfig
	ActivityLogSize int
}

// DefaultConfig returns the stock rules: the built-in task table, a
// six-hour lease, and a six-entry activity log.
func DefaultConfig() Config {
	return Config{
		Tasks: DefaultTasks(),
		Lease: LeaseConfig{
			BaseSeconds:   21600,
			CreateCost:    10,
			ExtendCost:    50,
			ExtendSeconds: 3600,
		},
		ActivityLogSize: 6,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if len(c.Tasks) == 0 {
		c.Tasks = def.Tasks
	}
	if c.Lease.BaseSeconds <= 0 {
		c.Lease.BaseSeconds = def.Lease.BaseSeconds
	}
	if c.Lease.CreateCost <= 0 {
		c.Lease.CreateCost = def.Lease.CreateCost
	}
	if c.Lease.ExtendCost <= 0 {
		c.Lease.ExtendCost = def.Lease.ExtendCost
	}
	if c.Lease.ExtendSeconds <= 0 {
		c.Lease.ExtendSeconds = def.Lease.ExtendSeconds
	}
	if c.ActivityLogSize <= 0 {
		c.ActivityLogSize = def.ActivityLogSize
	}
	return c
}

// Engine owns the state container and serializes every mutation behind
// one mutex. All operations follow the same shape: reconcile elapsed
// time, apply the change, persist, then announce. Persistence conflicts
// with another process are resolved by reloading and retrying the
// operation against the merged state.
type Engine struct {
	mu      sync.Mutex
	clock   clock.Clock
	durable *store.Durable
	session *store.SessionStore
	trail   *store.AuditTrail
	hub     *Hub

	gate   *DailyGate
	ledger *Ledger
	lease  *LeaseEngine
	meter  *ProgressMeter

	state         domain.State
	version       int64
	sessionEarned int64
	pending       []domain.Event
}

// New loads durable state, repairs what it can, and returns a ready
// engine. A missing, unreadable, or corrupt blob starts from the zero
// state rather than failing.
func New(clk clock.Clock, durable *store.Durable, session *store.SessionStore, trail *store.AuditTrail, cfg Config) *Engine {
	cfg = cfg.withDefaults()
	ledger := &Ledger{Clock: clk, Tasks: NewTaskRegistry(cfg.Tasks), LogSize: cfg.ActivityLogSize}
	e := &Engine{
		clock:   clk,
		durable: durable,
		session: session,
		trail:   trail,
		hub:     NewHub(),
		gate:    &DailyGate{Clock: clk},
		ledger:  ledger,
		lease:   &LeaseEngine{Clock: clk, Ledger: ledger, Config: cfg.Lease},
		meter:   &ProgressMeter{Target: cfg.Lease.CreateCost},
		state:   domain.NewState(),
	}

	ctx := context.Background()
	loaded := domain.NewState()
	version, ok := e.durable.Load(ctx, StateKey, &loaded)
	e.version = version
	if ok {
		st, repairs := store.Sanitize(loaded)
		e.state = st
		if len(repairs) > 0 {
			e.trail.Record(ctx, clk.Now(), "load", "repaired", strings.Join(repairs, "; "))
		}
	}
	if len(e.state.Activity) > cfg.ActivityLogSize {
		e.state.Activity = e.state.Activity[:cfg.ActivityLogSize]
	}

	// First-run initialization of the daily window is not a rollover
	// worth announcing; events flow only once subscribers can exist.
	e.gate.Reconcile(&e.state.Daily)
	e.persistLocked(ctx)

	e.session.Load(SessionEarnedKey, &e.sessionEarned)
	return e
}

// Events exposes the engine's notification hub.
func (e *Engine) Events() *Hub { return e.hub }

// ClaimTask claims the given task and returns the points awarded.
func (e *Engine) ClaimTask(ctx context.Context, t domain.TaskType) (int64, error) {
	var reward int64
	err := e.run(ctx, "claim_task", func() (string, error) {
		reward = 0
		r, err := e.ledger.ClaimTask(&e.state, t)
		if err != nil {
			return "", err
		}
		spec, err := e.ledger.Tasks.Get(t)
		if err != nil {
			return "", err
		}
		e.ledger.Credit(&e.state, r, spec.Label)
		reward = r
		e.queue(domain.EventTaskClaimed, string(t))
		return fmt.Sprintf("%s +%d", t, r), nil
	})
	if err != nil {
		return 0, err
	}
	e.addSessionEarned(reward)
	return reward, nil
}

// CreateLease deploys a new server: it debits the creation cost and
// leaves the lease provisioning for the runner to finish.
func (e *Engine) CreateLease(ctx context.Context) error {
	return e.run(ctx, "create_lease", func() (string, error) {
		if err := e.lease.Create(&e.state); err != nil {
			return "", err
		}
		e.queue(domain.EventLeaseCreated, e.state.Lease.ID)
		return e.state.Lease.ID, nil
	})
}

// CompleteProvisioning finishes the provisioning flow, starting the
// lease countdown at the full base duration.
func (e *Engine) CompleteProvisioning(ctx context.Context) error {
	return e.run(ctx, "complete_provisioning", func() (string, error) {
		if err := e.lease.CompleteProvisioning(&e.state); err != nil {
			return "", err
		}
		e.queue(domain.EventLeaseRunning, e.state.Lease.ID)
		return e.state.Lease.ID, nil
	})
}

// StopLease pauses the running server, freezing its remaining time.
func (e *Engine) StopLease(ctx context.Context) error {
	return e.run(ctx, "stop_lease", func() (string, error) {
		if err := e.lease.Stop(&e.state); err != nil {
			return "", err
		}
		e.queue(domain.EventLeaseStopped, e.state.Lease.ID)
		return e.state.Lease.ID, nil
	})
}

// ExtendLease buys additional time on the current lease.
func (e *Engine) ExtendLease(ctx context.Context) error {
	return e.run(ctx, "extend_lease", func() (string, error) {
		if err := e.lease.Extend(&e.state); err != nil {
			return "", err
		}
		e.queue(domain.EventLeaseExtended, e.state.Lease.ID)
		return fmt.Sprintf("%s +%ds", e.state.Lease.ID, e.lease.Config.ExtendSeconds), nil
	})
}

// Snapshot reconciles, persists any changes, and returns a read-only
// view of the world. The returned value shares nothing with engine
// internals.
func (e *Engine) Snapshot(ctx context.Context) domain.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.pending = nil
	if e.reconcileLocked() {
		e.persistLocked(ctx)
	}
	snap := e.snapshotLocked()
	e.flushPending()
	return snap
}

// Tick drives one reconciliation step. It first refreshes from durable
// storage when another process has written, so cross-process changes
// surface within one tick interval.
func (e *Engine) Tick(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.pending = nil
	if v, ok := e.durable.Version(ctx, StateKey); ok && v != e.version {
		e.reloadLocked(ctx)
	}
	if e.reconcileLocked() {
		e.persistLocked(ctx)
	}
	e.flushPending()
}

// Reset wipes durable state, the audit trail, and the run-scoped store,
// then reinitializes to the zero state.
func (e *Engine) Reset(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.pending = nil
	e.durable.Wipe(ctx)
	e.trail.Wipe(ctx)
	e.session.Wipe()

	e.state = domain.NewState()
	e.version = 0
	e.sessionEarned = 0
	e.gate.Reconcile(&e.state.Daily)
	e.persistLocked(ctx)

	e.trail.Record(ctx, e.clock.Now(), "reset", "ok", "")
	e.queue(domain.EventStateReset, "")
	e.flushPending()
	return nil
}

// run executes op as one atomic reconcile-apply-persist step. A version
// conflict reloads the durable state and retries against the merged
// view; the retry budget exhausting surfaces ErrStateConflict.
func (e *Engine) run(ctx context.Context, op string, fn func() (string, error)) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	for attempt := 0; attempt < 3; attempt++ {
		e.pending = nil
		e.reconcileLocked()
		detail, opErr := fn()
		if opErr != nil {
			// Reconcile effects persist even when the operation fails.
			e.persistLocked(ctx)
			e.trail.Record(ctx, e.clock.Now(), op, "error", opErr.Error())
			e.flushPending()
			return opErr
		}
		if e.persistLocked(ctx) {
			e.trail.Record(ctx, e.clock.Now(), op, "ok", detail)
			e.flushPending()
			return nil
		}
	}

	e.trail.Record(ctx, e.clock.Now(), op, "error", domain.ErrStateConflict.Message)
	return domain.ErrStateConflict
}

// reconcileLocked rolls the daily window and applies elapsed lease time,
// queueing an event for each boundary crossed. Reports whether state
// changed.
func (e *Engine) reconcileLocked() bool {
	changed := false
	if e.gate.Reconcile(&e.state.Daily) {
		e.queue(domain.EventDailyRefreshed, e.state.Daily.UTCDate)
		changed = true
	}
	consumed, expired := e.lease.Reconcile(&e.state)
	if consumed > 0 {
		changed = true
	}
	if expired {
		e.queue(domain.EventLeaseExpired, e.state.Lease.ID)
	}
	return changed
}

// persistLocked saves the state blob and reports whether this engine's
// view survived. On a version conflict the durable copy replaces the
// in-memory state and the result is false.
func (e *Engine) persistLocked(ctx context.Context) bool {
	v, err := e.durable.Save(ctx, StateKey, e.state, e.version)
	if err == nil {
		e.version = v
		return true
	}
	e.reloadLocked(ctx)
	return false
}

func (e *Engine) reloadLocked(ctx context.Context) {
	loaded := domain.NewState()
	version, ok := e.durable.Load(ctx, StateKey, &loaded)
	e.version = version
	if !ok {
		e.state = domain.NewState()
	} else {
		e.state, _ = store.Sanitize(loaded)
	}
	e.gate.Reconcile(&e.state.Daily)
}

func (e *Engine) snapshotLocked() domain.Snapshot {
	activity := make([]domain.ActivityEntry, len(e.state.Activity))
	copy(activity, e.state.Activity)
	return domain.Snapshot{
		Balance:        e.state.Balance,
		LifetimeEarned: e.state.LifetimeEarned,
		LifetimeSpent:  e.state.LifetimeSpent,
		Daily:          e.state.Daily,
		Lease:          e.state.Lease,
		Tasks:          e.ledger.Availability(&e.state),
		Activity:       activity,
		SessionEarned:  e.sessionEarned,
		Progress:       e.meter.Measure(e.sessionEarned),
		TakenAt:        e.clock.Now(),
	}
}

// addSessionEarned bumps the run-scoped earnings counter. The counter is
// display-only and intentionally outside the durable blob.
func (e *Engine) addSessionEarned(amount int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sessionEarned += amount
	e.session.Save(SessionEarnedKey, e.sessionEarned)
}

func (e *Engine) queue(t domain.EventType, detail string) {
	e.pending = append(e.pending, domain.Event{Type: t, At: e.clock.Now(), Detail: detail})
}

func (e *Engine) flushPending() {
	for _, ev := range e.pending {
		e.hub.Publish(ev)
	}
	e.pending = nil
}

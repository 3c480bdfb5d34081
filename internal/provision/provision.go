// Package provision runs the simulated side of the provisioning flow:
// the artificial latency on claims and deployments, and the background
// runner that finishes leases the engine left in the provisioning state.
package provision

import (
	"context"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/bodoithienha2026/WebRDP/internal/domain"
	"github.com/bodoithienha2026/WebRDP/internal/engine"
)

// Delay models operation latency as a uniform random duration.
type Delay struct {
	Min time.Duration
	Max time.Duration
}

// DefaultDelay matches the stock simulated latency window.
func DefaultDelay() Delay {
	return Delay{Min: 850 * time.Millisecond, Max: 1350 * time.Millisecond}
}

// Duration picks a latency in [Min, Max].
func (d Delay) Duration() time.Duration {
	if d.Max <= d.Min {
		return d.Min
	}
	return d.Min + time.Duration(rand.Int63n(int64(d.Max-d.Min)+1))
}

// Wait sleeps for one random latency, returning early with the context
// error when canceled.
func (d Delay) Wait(ctx context.Context) error {
	timer := time.NewTimer(d.Duration())
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Runner completes provisioning leases after the simulated delay. The
// debit already happened at creation; only the transition to running is
// outstanding, so a crash between the two is recovered here on startup.
type Runner struct {
	Engine *engine.Engine
	Delay  Delay
	Log    *zap.Logger
}

func NewRunner(eng *engine.Engine, delay Delay, log *zap.Logger) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{Engine: eng, Delay: delay, Log: log}
}

// Run blocks until the context is canceled. It first finishes any lease
// left provisioning by a previous process, then finishes one lease per
// creation event.
func (r *Runner) Run(ctx context.Context) error {
	ch, cancel := r.Engine.Events().Subscribe(16)
	defer cancel()

	if snap := r.Engine.Snapshot(ctx); snap.Lease.Status == domain.LeaseProvisioning {
		r.Log.Info("recovering provisioning lease from previous run",
			zap.String("lease_id", snap.Lease.ID))
		r.finish(ctx, snap.Lease.ID)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-ch:
			if !ok {
				return nil
			}
			if ev.Type != domain.EventLeaseCreated {
				continue
			}
			r.finish(ctx, ev.Detail)
		}
	}
}

func (r *Runner) finish(ctx context.Context, leaseID string) {
	if err := r.Delay.Wait(ctx); err != nil {
		return
	}
	if err := r.Engine.CompleteProvisioning(ctx); err != nil {
		// Usually a concurrent stop or reset beat us to the lease.
		r.Log.Warn("provisioning completion failed",
			zap.String("lease_id", leaseID), zap.Error(err))
		return
	}
	r.Log.Info("server provisioned", zap.String("lease_id", leaseID))
}

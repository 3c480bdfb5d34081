// Package metrics exposes Prometheus instrumentation for the daemon.
// The engine itself stays unobserved; the HTTP layer and the daemon's
// event loop feed these from the outside.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bodoithienha2026/WebRDP/internal/domain"
)

// TaskClaims counts claim attempts by task type and outcome.
var TaskClaims = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "webrdp",
	Subsystem: "tasks",
	Name:      "claims_total",
	Help:      "Total task claim attempts by type and outcome.",
}, []string{"type", "outcome"})

// PointsEarned counts points credited across all tasks.
var PointsEarned = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "webrdp",
	Subsystem: "points",
	Name:      "earned_total",
	Help:      "Total points credited.",
})

// PointsSpent counts points debited by deployments and extensions.
var PointsSpent = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "webrdp",
	Subsystem: "points",
	Name:      "spent_total",
	Help:      "Total points spent.",
})

// Balance mirrors the current spendable balance.
var Balance = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "webrdp",
	Subsystem: "points",
	Name:      "balance",
	Help:      "Current spendable point balance.",
})

// LeaseTransitions counts lease lifecycle events by type.
var LeaseTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "webrdp",
	Subsystem: "lease",
	Name:      "transitions_total",
	Help:      "Total lease lifecycle events by type.",
}, []string{"event"})

// LeaseTimeLeft mirrors the remaining lease seconds.
var LeaseTimeLeft = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "webrdp",
	Subsystem: "lease",
	Name:      "time_left_seconds",
	Help:      "Remaining lease time in seconds.",
})

// LeaseRunning reports whether a server is currently running.
var LeaseRunning = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "webrdp",
	Subsystem: "lease",
	Name:      "running",
	Help:      "Whether a server lease is running (1) or not (0).",
})

// APIRequests counts HTTP requests by route and status class.
var APIRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "webrdp",
	Subsystem: "api",
	Name:      "requests_total",
	Help:      "Total API requests by route and status.",
}, []string{"route", "status"})

// OpFailures counts rejected engine operations by operation and error
// code.
var OpFailures = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "webrdp",
	Subsystem: "engine",
	Name:      "op_failures_total",
	Help:      "Total rejected engine operations by operation and code.",
}, []string{"op", "code"})

// ObserveSnapshot refreshes the state gauges from a snapshot.
func ObserveSnapshot(snap domain.Snapshot) {
	Balance.Set(float64(snap.Balance))
	LeaseTimeLeft.Set(float64(snap.Lease.TimeLeftSec))
	if snap.Lease.Status == domain.LeaseRunning {
		LeaseRunning.Set(1)
	} else {
		LeaseRunning.Set(0)
	}
}

// ObserveEvent records lease lifecycle events as transition counts.
func ObserveEvent(ev domain.Event) {
	switch ev.Type {
	case domain.EventLeaseCreated, domain.EventLeaseRunning, domain.EventLeaseStopped,
		domain.EventLeaseExtended, domain.EventLeaseExpired:
		LeaseTransitions.WithLabelValues(string(ev.Type)).Inc()
	}
}

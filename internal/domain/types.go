// Package domain defines the core types for the WebRDP rewards engine.
package domain

import "time"

// TaskType identifies a claimable reward task.
type TaskType string

const (
	TaskVideo TaskType = "video"
	TaskShort TaskType = "short"
	TaskDaily TaskType = "daily"
)

// LeaseStatus represents the lifecycle state of the leased server.
type LeaseStatus string

const (
	LeaseStopped      LeaseStatus = "stopped"
	LeaseProvisioning LeaseStatus = "provisioning"
	LeaseRunning      LeaseStatus = "running"
)

// TaskSpec is the static configuration for one task type.
// Cooldown is zero for tasks claimable back to back. The daily bonus is
// gated by the UTC date key instead and ignores Cooldown entirely.
type TaskSpec struct {
	Type     TaskType
	Label    string
	Reward   int64
	Cooldown time.Duration
}

// DailyWindow is the current UTC calendar day's accounting. Rolling to a
// new day resets Earned and clears DailyClaimedDate; the points balance
// is lifetime-cumulative and is never reset by a rollover.
type DailyWindow struct {
	UTCDate          string `json:"utc_date"`
	Earned           int64  `json:"earned"`
	DailyClaimedDate string `json:"daily_claimed_date,omitempty"`
}

// ActivityEntry is one line of the bounded recent-activity log.
type ActivityEntry struct {
	ID    string    `json:"id"`
	Label string    `json:"label"`
	Delta int64     `json:"delta"`
	At    time.Time `json:"at"`
}

// Lease is the state of the leased server. TimeLeftSec only ever
// decreases by elapsed wall-clock time while Status is running.
type Lease struct {
	ID            string      `json:"id,omitempty"`
	Status        LeaseStatus `json:"status"`
	TimeLeftSec   int64       `json:"time_left_sec"`
	LastReconcile time.Time   `json:"last_reconcile"`
}

// State is the full durable engine state, persisted as a single blob.
type State struct {
	Balance        int64                  `json:"balance"`
	LifetimeEarned int64                  `json:"lifetime_earned"`
	LifetimeSpent  int64                  `json:"lifetime_spent"`
	Daily          DailyWindow            `json:"daily"`
	Cooldowns      map[TaskType]time.Time `json:"cooldowns"`
	Lease          Lease                  `json:"lease"`
	Activity       []ActivityEntry        `json:"activity"`
}

// NewState returns the zeroed first-run state.
func NewState() State {
	return State{
		Cooldowns: make(map[TaskType]time.Time),
		Lease:     Lease{Status: LeaseStopped},
	}
}

// Availability reasons reported in task snapshots.
const (
	ReasonOnCooldown   = "cooldown"
	ReasonClaimedToday = "claimed"
)

// TaskAvailability reports whether one task can be claimed right now.
type TaskAvailability struct {
	Type         TaskType `json:"type"`
	Label        string   `json:"label"`
	Reward       int64    `json:"reward"`
	Available    bool     `json:"available"`
	Reason       string   `json:"reason,omitempty"`
	RemainingSec int64    `json:"remaining_sec,omitempty"`
}

// RedemptionProgress measures session earnings against the cheapest redemption.
type RedemptionProgress struct {
	Earned int64   `json:"earned"`
	Target int64   `json:"target"`
	Ratio  float64 `json:"ratio"`
}

// Snapshot is the read-only view of engine state exposed for rendering.
type Snapshot struct {
	Balance        int64              `json:"balance"`
	LifetimeEarned int64              `json:"lifetime_earned"`
	LifetimeSpent  int64              `json:"lifetime_spent"`
	Daily          DailyWindow        `json:"daily"`
	Lease          Lease              `json:"lease"`
	Tasks          []TaskAvailability `json:"tasks"`
	Activity       []ActivityEntry    `json:"activity"`
	SessionEarned  int64              `json:"session_earned"`
	Progress       RedemptionProgress `json:"progress"`
	TakenAt        time.Time          `json:"taken_at"`
}

// EventType classifies engine notifications.
type EventType string

const (
	EventTaskClaimed    EventType = "task_claimed"
	EventDailyRefreshed EventType = "daily_refreshed"
	EventLeaseCreated   EventType = "lease_created"
	EventLeaseRunning   EventType = "lease_running"
	EventLeaseStopped   EventType = "lease_stopped"
	EventLeaseExtended  EventType = "lease_extended"
	EventLeaseExpired   EventType = "lease_expired"
	EventStateReset     EventType = "state_reset"
)

// Event is an engine notification published to subscribers.
type Event struct {
	Type   EventType `json:"type"`
	At     time.Time `json:"at"`
	Detail string    `json:"detail,omitempty"`
}

// AuditRecord is one row of the operation audit trail.
type AuditRecord struct {
	Seq     int64     `json:"seq"`
	At      time.Time `json:"at"`
	Op      string    `json:"op"`
	Outcome string    `json:"outcome"`
	Detail  string    `json:"detail,omitempty"`
}

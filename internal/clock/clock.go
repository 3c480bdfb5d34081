// Package clock supplies the current instant and the UTC date key used
// for daily gating.
package clock

import (
	"sync"
	"time"
)

const dateKeyLayout = "2006-01-02"

// Clock is the engine's only source of time. UTCDateKey identifies the
// current UTC calendar day and is stable across host timezones.
type Clock interface {
	Now() time.Time
	UTCDateKey() string
}

// DateKey returns the UTC date key for an arbitrary instant.
func DateKey(t time.Time) string {
	return t.UTC().Format(dateKeyLayout)
}

// System reads the host clock.
type System struct{}

// Now returns the current instant.
func (System) Now() time.Time { return time.Now() }

// UTCDateKey returns today's UTC date key.
func (System) UTCDateKey() string { return DateKey(time.Now()) }

// Manual is a settable clock for tests.
type Manual struct {
	mu  sync.Mutex
	now time.Time
}

// NewManual creates a Manual clock pinned to start.
func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

// Now returns the pinned instant.
func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// UTCDateKey returns the date key for the pinned instant.
func (m *Manual) UTCDateKey() string {
	return DateKey(m.Now())
}

// Advance moves the clock forward by d.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	m.now = m.now.Add(d)
	m.mu.Unlock()
}

// Set pins the clock to t.
func (m *Manual) Set(t time.Time) {
	m.mu.Lock()
	m.now = t
	m.mu.Unlock()
}

package engine

import (
	"github.com/bodoithienha2026/WebRDP/internal/clock"
	"github.com/bodoithienha2026/WebRDP/internal/domain"
)

// DailyGate lazily rolls the daily accounting window when the UTC date
// changes. It has no timer of its own; callers reconcile before any
// read or mutation that depends on today.
type DailyGate struct {
	Clock clock.Clock
}

// Reconcile brings the window to the current UTC date and reports
// whether it rolled. Rolling zeroes today's earnings and re-arms the
// daily bonus. A claim marker left over from a prior day is cleared
// even when the window itself is already current.
func (g *DailyGate) Reconcile(w *domain.DailyWindow) bool {
	today := g.Clock.UTCDateKey()
	rolled := false
	if w.UTCDate != today {
		w.UTCDate = today
		w.Earned = 0
		w.DailyClaimedDate = ""
		rolled = true
	}
	if w.DailyClaimedDate != "" && w.DailyClaimedDate != today {
		w.DailyClaimedDate = ""
	}
	return rolled
}

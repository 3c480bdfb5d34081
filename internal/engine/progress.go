package engine

import "github.com/bodoithienha2026/WebRDP/internal/domain"

// ProgressMeter measures run earnings against the cheapest redemption,
// the deployment cost of a server lease.
type ProgressMeter struct {
	Target int64
}

// Measure returns progress toward the first redemption. The ratio is
// clamped to [0, 1] so overshoot reads as complete.
func (m *ProgressMeter) Measure(earned int64) domain.RedemptionProgress {
	p := domain.RedemptionProgress{Earned: earned, Target: m.Target}
	if m.Target <= 0 {
		return p
	}
	p.Ratio = float64(earned) / float64(m.Target)
	if p.Ratio > 1 {
		p.Ratio = 1
	}
	return p
}

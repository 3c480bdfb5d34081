// Package engine implements the rewards-and-provisioning rules: point
// accrual, task cooldowns, the daily bonus gate, and the server lease
// lifecycle, composed behind a single mutation facade.
package engine

import (
	"time"

	"github.com/bodoithienha2026/WebRDP/internal/domain"
)

// TaskRegistry is the static table of claimable tasks. Registration order
// is preserved for display.
type TaskRegistry struct {
	specs map[domain.TaskType]domain.TaskSpec
	order []domain.TaskType
}

// NewTaskRegistry creates a registry from the given specs. A duplicate
// type keeps the first registration.
func NewTaskRegistry(specs []domain.TaskSpec) *TaskRegistry {
	r := &TaskRegistry{specs: make(map[domain.TaskType]domain.TaskSpec)}
	for _, spec := range specs {
		if _, exists := r.specs[spec.Type]; exists {
			continue
		}
		r.specs[spec.Type] = spec
		r.order = append(r.order, spec.Type)
	}
	return r
}

// DefaultTasks returns the stock task table.
func DefaultTasks() []domain.TaskSpec {
	return []domain.TaskSpec{
		{Type: domain.TaskVideo, Label: "Watched sponsor video", Reward: 5, Cooldown: 0},
		{Type: domain.TaskShort, Label: "Viewed short clip", Reward: 2, Cooldown: 25 * time.Second},
		{Type: domain.TaskDaily, Label: "Claimed daily bonus", Reward: 10},
	}
}

// Get returns the spec for a task type, or ErrUnknownTask.
func (r *TaskRegistry) Get(t domain.TaskType) (domain.TaskSpec, error) {
	spec, ok := r.specs[t]
	if !ok {
		return domain.TaskSpec{}, domain.ErrUnknownTask
	}
	return spec, nil
}

// All returns every spec in registration order.
func (r *TaskRegistry) All() []domain.TaskSpec {
	specs := make([]domain.TaskSpec, 0, len(r.order))
	for _, t := range r.order {
		specs = append(specs, r.specs[t])
	}
	return specs
}

package engine

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/bodoithienha2026/WebRDP/internal/clock"
	"github.com/bodoithienha2026/WebRDP/internal/domain"
)

// Ledger applies point accrual and spending rules to the state container.
// Repeatable tasks are gated by absolute cooldown instants; the daily
// bonus is gated by the UTC date key alone. The two mechanisms are
// deliberately separate.
type Ledger struct {
	Clock   clock.Clock
	Tasks   *TaskRegistry
	LogSize int
}

// Credit adds amount to the balance and today's earnings and logs the
// activity. Amounts are caller-validated to be positive.
func (l *Ledger) Credit(st *domain.State, amount int64, label string) {
	st.Balance += amount
	st.LifetimeEarned += amount
	st.Daily.Earned += amount
	l.appendActivity(st, label, amount)
}

// Debit removes amount from the balance after checking sufficiency.
// The balance never goes negative; an oversized debit fails whole.
func (l *Ledger) Debit(st *domain.State, amount int64, label string) error {
	if st.Balance < amount {
		return domain.NewEngineError(
			domain.ErrInsufficientFunds.Code,
			fmt.Sprintf("need %d points, have %d", amount, st.Balance),
		)
	}
	st.Balance -= amount
	st.LifetimeSpent += amount
	l.appendActivity(st, label, -amount)
	return nil
}

// ClaimTask checks the task's gate and arms it, returning the reward for
// the caller to credit. The daily window must have been reconciled to
// the current date before the daily bonus is checked.
func (l *Ledger) ClaimTask(st *domain.State, t domain.TaskType) (int64, error) {
	spec, err := l.Tasks.Get(t)
	if err != nil {
		return 0, err
	}

	if t == domain.TaskDaily {
		today := l.Clock.UTCDateKey()
		if st.Daily.DailyClaimedDate == today {
			return 0, domain.ErrAlreadyClaimedToday
		}
		st.Daily.DailyClaimedDate = today
		return spec.Reward, nil
	}

	now := l.Clock.Now()
	if until, ok := st.Cooldowns[t]; ok && now.Before(until) {
		return 0, domain.NewEngineError(
			domain.ErrOnCooldown.Code,
			fmt.Sprintf("%s available in %ds", t, ceilSeconds(until.Sub(now))),
		)
	}
	if spec.Cooldown > 0 {
		st.Cooldowns[t] = now.Add(spec.Cooldown)
	}
	return spec.Reward, nil
}

// Availability reports the claim status of every task for a snapshot.
func (l *Ledger) Availability(st *domain.State) []domain.TaskAvailability {
	now := l.Clock.Now()
	today := l.Clock.UTCDateKey()

	specs := l.Tasks.All()
	avail := make([]domain.TaskAvailability, 0, len(specs))
	for _, spec := range specs {
		ta := domain.TaskAvailability{
			Type:      spec.Type,
			Label:     spec.Label,
			Reward:    spec.Reward,
			Available: true,
		}
		if spec.Type == domain.TaskDaily {
			if st.Daily.DailyClaimedDate == today {
				ta.Available = false
				ta.Reason = domain.ReasonClaimedToday
			}
		} else if until, ok := st.Cooldowns[spec.Type]; ok && now.Before(until) {
			ta.Available = false
			ta.Reason = domain.ReasonOnCooldown
			ta.RemainingSec = ceilSeconds(until.Sub(now))
		}
		avail = append(avail, ta)
	}
	return avail
}

func (l *Ledger) appendActivity(st *domain.State, label string, delta int64) {
	entry := domain.ActivityEntry{
		ID:    uuid.NewString(),
		Label: label,
		Delta: delta,
		At:    l.Clock.Now(),
	}
	st.Activity = append([]domain.ActivityEntry{entry}, st.Activity...)
	if len(st.Activity) > l.LogSize {
		st.Activity = st.Activity[:l.LogSize]
	}
}

func ceilSeconds(d time.Duration) int64 {
	if d <= 0 {
		return 0
	}
	return int64((d + time.Second - 1) / time.Second)
}

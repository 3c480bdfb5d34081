package engine

import (
	"context"
	"sync"
	"time"
)

// Ticker drives the engine's periodic reconciliation. Between ticks no
// countdown runs anywhere; the engine recomputes everything from wall
// clock when poked.
type Ticker struct {
	Engine   *Engine
	Interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewTicker creates a Ticker with a default one-second cadence.
func NewTicker(e *Engine, interval time.Duration) *Ticker {
	if interval <= 0 {
		interval = time.Second
	}
	return &Ticker{
		Engine:   e,
		Interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Run ticks the engine until the context is canceled or Stop is called.
// It blocks, so it slots directly into an errgroup.
func (t *Ticker) Run(ctx context.Context) error {
	ticker := time.NewTicker(t.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-t.stopCh:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			t.Engine.Tick(ctx)
		}
	}
}

// Stop signals Run to return. Safe to call multiple times.
func (t *Ticker) Stop() {
	t.stopOnce.Do(func() { close(t.stopCh) })
}

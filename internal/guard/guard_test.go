package guard

import (
	"testing"

	"github.com/bodoithienha2026/WebRDP/internal/domain"
)

func TestAllow_WithinLimit(t *testing.T) {
	g := NewGuard(Config{RequestsPerMinute: 5})
	for i := 0; i < 5; i++ {
		if err := g.Allow("10.0.0.1"); err != nil {
			t.Fatalf("Allow iteration %d: %v", i, err)
		}
	}
}

func TestAllow_Throttles(t *testing.T) {
	g := NewGuard(Config{RequestsPerMinute: 5})
	for i := 0; i < 5; i++ {
		if err := g.Allow("10.0.0.1"); err != nil {
			t.Fatalf("Allow iteration %d: %v", i, err)
		}
	}

	if err := g.Allow("10.0.0.1"); err != domain.ErrThrottled {
		t.Fatalf("expected ErrThrottled, got %v", err)
	}
}

func TestAllow_ClientsAreIndependent(t *testing.T) {
	g := NewGuard(Config{RequestsPerMinute: 2})
	for i := 0; i < 2; i++ {
		if err := g.Allow("10.0.0.1"); err != nil {
			t.Fatalf("Allow iteration %d: %v", i, err)
		}
	}
	if err := g.Allow("10.0.0.1"); err != domain.ErrThrottled {
		t.Fatalf("expected ErrThrottled for first client, got %v", err)
	}

	// A different client has its own bucket.
	if err := g.Allow("10.0.0.2"); err != nil {
		t.Errorf("Allow for second client: %v", err)
	}
}

func TestAllow_WindowResets(t *testing.T) {
	g := NewGuard(Config{RequestsPerMinute: 5})

	for i := 0; i < 5; i++ {
		if err := g.Allow("10.0.0.1"); err != nil {
			t.Fatalf("Allow iteration %d: %v", i, err)
		}
	}
	if err := g.Allow("10.0.0.1"); err != domain.ErrThrottled {
		t.Fatalf("expected ErrThrottled, got %v", err)
	}

	// Simulate window expiry by moving windowStart back.
	g.mu.Lock()
	g.buckets["10.0.0.1"].windowStart -= 61
	g.mu.Unlock()

	if err := g.Allow("10.0.0.1"); err != nil {
		t.Fatalf("Allow after window reset: %v", err)
	}
}

func TestNewGuard_DefaultLimit(t *testing.T) {
	g := NewGuard(Config{})
	if g.Config.RequestsPerMinute != 60 {
		t.Errorf("RequestsPerMinute = %d, want default 60", g.Config.RequestsPerMinute)
	}
}

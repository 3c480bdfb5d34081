// Package guard enforces request-level protections in front of the
// engine. The HTTP layer consults it before every mutation.
package guard

import (
	"sync"
	"time"

	"github.com/bodoithienha2026/WebRDP/internal/domain"
)

// Config holds the per-client rate limit.
type Config struct {
	RequestsPerMinute int
}

// Guard enforces a per-client sliding window rate limit. Clients are
// keyed by whatever the caller finds meaningful, usually remote address.
type Guard struct {
	Config Config

	mu      sync.Mutex
	buckets map[string]*rateBucket
}

type rateBucket struct {
	count       int
	windowStart int64
}

// NewGuard creates a Guard, defaulting the limit when unset.
func NewGuard(cfg Config) *Guard {
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = 60
	}
	return &Guard{Config: cfg, buckets: make(map[string]*rateBucket)}
}

// Allow counts one request for the client. The window is 60 seconds;
// exceeding the configured limit inside it returns ErrThrottled.
func (g *Guard) Allow(clientKey string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := time.Now().Unix()
	bucket, ok := g.buckets[clientKey]
	if !ok {
		g.buckets[clientKey] = &rateBucket{count: 1, windowStart: now}
		return nil
	}

	if now-bucket.windowStart > 60 {
		bucket.count = 1
		bucket.windowStart = now
		return nil
	}

	if bucket.count >= g.Config.RequestsPerMinute {
		return domain.ErrThrottled
	}

	bucket.count++
	return nil
}

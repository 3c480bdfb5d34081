package engine

import (
	"sync"

	"github.com/bodoithienha2026/WebRDP/internal/domain"
)

// Hub fans engine events out to subscribers. Publish never blocks: a
// subscriber whose buffer is full misses that event and catches up from
// the next snapshot.
type Hub struct {
	mu   sync.Mutex
	subs map[int]chan domain.Event
	next int
}

func NewHub() *Hub {
	return &Hub{subs: make(map[int]chan domain.Event)}
}

// Subscribe registers a buffered subscriber. The returned cancel func
// removes the subscription and closes the channel; it is safe to call
// more than once.
func (h *Hub) Subscribe(buffer int) (<-chan domain.Event, func()) {
	if buffer <= 0 {
		buffer = 1
	}
	h.mu.Lock()
	id := h.next
	h.next++
	ch := make(chan domain.Event, buffer)
	h.subs[id] = ch
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if sub, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// Publish delivers ev to every subscriber with buffer room.
func (h *Hub) Publish(ev domain.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

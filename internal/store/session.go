package store

import (
	"encoding/json"
	"sync"
)

// SessionStore holds run-scoped values that do not survive a restart. It
// mirrors the durable store's load/save contract in memory and backs the
// session-earned counter.
type SessionStore struct {
	mu     sync.RWMutex
	values map[string][]byte
}

// NewSessionStore creates an empty run-scoped store.
func NewSessionStore() *SessionStore {
	return &SessionStore{values: make(map[string][]byte)}
}

// Load unmarshals the value stored under key into out, reporting whether
// a usable value was found. Absent or corrupt values leave the caller's
// fallback in place.
func (s *SessionStore) Load(key string, out any) bool {
	s.mu.RLock()
	raw, ok := s.values[key]
	s.mu.RUnlock()
	if !ok {
		return false
	}
	return json.Unmarshal(raw, out) == nil
}

// Save stores v under key, reporting success.
func (s *SessionStore) Save(key string, v any) bool {
	raw, err := json.Marshal(v)
	if err != nil {
		return false
	}
	s.mu.Lock()
	s.values[key] = raw
	s.mu.Unlock()
	return true
}

// Wipe discards every stored value.
func (s *SessionStore) Wipe() {
	s.mu.Lock()
	s.values = make(map[string][]byte)
	s.mu.Unlock()
}

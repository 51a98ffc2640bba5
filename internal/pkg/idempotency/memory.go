package idempotency

import (
	"context"
	"sync"
	"time"
)

type clocker interface {
	Now() time.Time
}

// MemoryTracker is a process-local Ledger. Expired keys are dropped lazily on
// the next claim of the same key or by Sweep.
type MemoryTracker struct {
	mu    sync.Mutex
	clock clocker
	keys  map[string]time.Time
}

// NewMemory returns an empty MemoryTracker.
func NewMemory(clock clocker) *MemoryTracker {
	return &MemoryTracker{
		clock: clock,
		keys:  make(map[string]time.Time),
	}
}

// Claim records key until now+ttl.
func (m *MemoryTracker) Claim(_ context.Context, key string, ttl time.Duration) (bool, error) {
	if key == "" {
		return false, ErrInvalidKey
	}

	now := m.clock.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	if until, ok := m.keys[key]; ok && now.Before(until) {
		return false, nil
	}

	m.keys[key] = now.Add(normalizeTTL(ttl))
	return true, nil
}

// Sweep removes expired keys and returns how many were removed.
func (m *MemoryTracker) Sweep(_ context.Context) (int64, error) {
	now := m.clock.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for key, until := range m.keys {
		if !now.Before(until) {
			delete(m.keys, key)
			n++
		}
	}

	return n, nil
}

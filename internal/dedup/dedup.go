// Package dedup suppresses repeated log lines for the same data-quality
// problem. Caches are created per engine and injected; nothing here is
// process-global.
package dedup

import (
	"context"
	"sync"
	"time"
)

// Cache remembers keys it has seen.
type Cache interface {
	// FirstSeen records key and reports whether it was not seen before (or
	// its previous sighting has expired).
	FirstSeen(ctx context.Context, key string) bool
}

const defaultMaxEntries = 10_000

// Memory is an in-process Cache with a TTL and a size bound. When full, it
// forgets everything rather than tracking LRU order.
type Memory struct {
	mu         sync.Mutex
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
	seen       map[string]time.Time
}

// NewMemory builds a Memory cache. A zero ttl never expires entries.
func NewMemory(ttl time.Duration) *Memory {
	return &Memory{
		ttl:        ttl,
		maxEntries: defaultMaxEntries,
		now:        time.Now,
		seen:       make(map[string]time.Time),
	}
}

func (m *Memory) FirstSeen(_ context.Context, key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if at, ok := m.seen[key]; ok {
		if m.ttl <= 0 || now.Sub(at) < m.ttl {
			return false
		}
	}
	if len(m.seen) >= m.maxEntries {
		m.seen = make(map[string]time.Time)
	}
	m.seen[key] = now
	return true
}

// Len reports how many keys are currently remembered.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.seen)
}

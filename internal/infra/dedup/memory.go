// Package dedup remembers inbound event keys so redelivered webhooks are dropped.
package dedup

import (
	"context"
	"sync"
	"time"

	"github.com/runoshun/agent-swarm/internal/domain"
)

// Memory is a process-local deduper. Entries older than the TTL are swept on
// every call.
type Memory struct {
	seen map[string]time.Time
	now  func() time.Time
	ttl  time.Duration
	mu   sync.Mutex
}

var _ domain.EventDeduper = (*Memory)(nil)

// NewMemory creates a deduper that forgets keys after ttl. A ttl of zero or
// less means domain.DefaultDedupTTL.
func NewMemory(ttl time.Duration) *Memory {
	ttl = windowOrDefault(ttl)
	return &Memory{seen: make(map[string]time.Time), ttl: ttl, now: time.Now}
}

// Seen records key and reports whether it was already recorded within the TTL.
func (m *Memory) Seen(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for k, at := range m.seen {
		if now.Sub(at) >= m.ttl {
			delete(m.seen, k)
		}
	}
	if _, ok := m.seen[key]; ok {
		return true, nil
	}
	m.seen[key] = now
	return false, nil
}

// Len returns the number of remembered keys.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.seen)
}

func windowOrDefault(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return domain.DefaultDedupTTL
	}
	return ttl
}

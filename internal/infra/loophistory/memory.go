// Package loophistory stores per-session tool-call windows for the loop guard.
package loophistory

import (
	"context"
	"slices"
	"sync"

	"github.com/runoshun/agent-swarm/internal/domain"
)

// Memory keeps windows in process memory. Suitable when every tool call of a
// session is recorded by the same process.
type Memory struct {
	windows map[string][]domain.ToolCallRecord
	mu      sync.Mutex
}

var _ domain.ToolCallHistory = (*Memory)(nil)

// NewMemory creates an empty in-memory history.
func NewMemory() *Memory {
	return &Memory{windows: make(map[string][]domain.ToolCallRecord)}
}

// Append adds rec and evicts the oldest entries beyond capacity.
func (m *Memory) Append(_ context.Context, sessionKey string, rec domain.ToolCallRecord, capacity int) ([]domain.ToolCallRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	w := append(m.windows[sessionKey], rec)
	if capacity > 0 && len(w) > capacity {
		w = slices.Clone(w[len(w)-capacity:])
	}
	m.windows[sessionKey] = w
	return slices.Clone(w), nil
}

// Clear discards the session window.
func (m *Memory) Clear(_ context.Context, sessionKey string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.windows, sessionKey)
	return nil
}

// Sessions returns the number of tracked sessions.
func (m *Memory) Sessions() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.windows)
}

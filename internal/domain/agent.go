package domain

import (
	"slices"
	"time"
)

// AgentStatus represents the availability of an agent.
type AgentStatus string

// Agent statuses.
const (
	AgentIdle    AgentStatus = "idle"
	AgentBusy    AgentStatus = "busy"
	AgentOffline AgentStatus = "offline"
)

// IsValid returns true if the status is a known value.
func (s AgentStatus) IsValid() bool {
	return s == AgentIdle || s == AgentBusy || s == AgentOffline
}

// Agent is a worker or lead identity that executes tasks.
// Fields are ordered to minimize memory padding.
type Agent struct {
	UpdatedAt    time.Time   `json:"updatedAt"`
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Role         string      `json:"role,omitempty"`
	Status       AgentStatus `json:"status"`
	Capabilities []string    `json:"capabilities,omitempty"`
	IsLead       bool        `json:"isLead"`
}

// HasCapability returns true if the agent advertises the capability.
func (a *Agent) HasCapability(c string) bool {
	return slices.Contains(a.Capabilities, c)
}

// IsOnline returns true if the agent is not offline.
func (a *Agent) IsOnline() bool {
	return a.Status != AgentOffline
}

// PickLead selects the lead agent that should receive routed messages.
// Online leads are preferred; among equals the most recently updated wins,
// then the lowest ID so the choice is deterministic. Returns nil if no agent is a lead.
func PickLead(agents []*Agent) *Agent {
	var best *Agent
	for _, a := range agents {
		if !a.IsLead {
			continue
		}
		if best == nil || leadBefore(a, best) {
			best = a
		}
	}
	return best
}

func leadBefore(a, b *Agent) bool {
	if a.IsOnline() != b.IsOnline() {
		return a.IsOnline()
	}
	if !a.UpdatedAt.Equal(b.UpdatedAt) {
		return a.UpdatedAt.After(b.UpdatedAt)
	}
	return a.ID < b.ID
}

package domain

import (
	"sort"
	"time"
)

// RedactedValue replaces secret values in display output.
const RedactedValue = "********"

// ConfigScope is the level a config entry applies to.
type ConfigScope string

// Config scopes, from least to most specific.
const (
	ScopeGlobal ConfigScope = "global"
	ScopeAgent  ConfigScope = "agent"
	ScopeRepo   ConfigScope = "repo"
)

// IsValid returns true if the scope is a known value.
func (s ConfigScope) IsValid() bool {
	return s == ScopeGlobal || s == ScopeAgent || s == ScopeRepo
}

// ConfigEntry is a key/value setting at one scope.
// At most one entry exists per (Key, Scope, ScopeID).
// Fields are ordered to minimize memory padding.
type ConfigEntry struct {
	UpdatedAt   time.Time   `json:"updatedAt"`
	Key         string      `json:"key"`
	Value       string      `json:"value"`
	Scope       ConfigScope `json:"scope"`
	ScopeID     string      `json:"scopeId,omitempty"`
	Description string      `json:"description,omitempty"`
	IsSecret    bool        `json:"isSecret"`
}

// Validate checks the entry's identity fields.
func (e *ConfigEntry) Validate() error {
	if e.Key == "" {
		return ErrEmptyKey
	}
	return ValidateScope(e.Scope, e.ScopeID)
}

// ValidateScope checks that scopeID is present for agent/repo scope and absent for global.
func ValidateScope(scope ConfigScope, scopeID string) error {
	if !scope.IsValid() {
		return ErrInvalidScope
	}
	if (scope == ScopeGlobal) != (scopeID == "") {
		return ErrInvalidScope
	}
	return nil
}

// ConfigContext is the resolution context. Empty fields are not consulted.
type ConfigContext struct {
	AgentID string
	RepoID  string
}

// rank returns how specific e is for ctx, or -1 if e does not apply.
func (c ConfigContext) rank(e *ConfigEntry) int {
	switch e.Scope {
	case ScopeRepo:
		if c.RepoID != "" && e.ScopeID == c.RepoID {
			return 2
		}
	case ScopeAgent:
		if c.AgentID != "" && e.ScopeID == c.AgentID {
			return 1
		}
	case ScopeGlobal:
		return 0
	}
	return -1
}

// ResolveConfig returns the effective entry for key in ctx: repo beats agent beats global.
// Returns nil if no applicable entry exists.
func ResolveConfig(entries []*ConfigEntry, key string, ctx ConfigContext) *ConfigEntry {
	var best *ConfigEntry
	bestRank := -1
	for _, e := range entries {
		if e.Key != key {
			continue
		}
		if r := ctx.rank(e); r > bestRank {
			best, bestRank = e, r
		}
	}
	return best
}

// ResolveAllConfig returns one effective entry per distinct key, sorted by key.
func ResolveAllConfig(entries []*ConfigEntry, ctx ConfigContext) []*ConfigEntry {
	best := make(map[string]*ConfigEntry)
	ranks := make(map[string]int)
	for _, e := range entries {
		r := ctx.rank(e)
		if r < 0 {
			continue
		}
		if prev, ok := ranks[e.Key]; ok && prev >= r {
			continue
		}
		best[e.Key] = e
		ranks[e.Key] = r
	}

	out := make([]*ConfigEntry, 0, len(best))
	for _, e := range best {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// MaskSecrets returns copies of entries with secret values replaced by RedactedValue.
// When reveal is true the entries are copied unchanged.
func MaskSecrets(entries []*ConfigEntry, reveal bool) []*ConfigEntry {
	out := make([]*ConfigEntry, 0, len(entries))
	for _, e := range entries {
		c := *e
		if c.IsSecret && !reveal {
			c.Value = RedactedValue
		}
		out = append(out, &c)
	}
	return out
}

// ConfigFilter specifies criteria for listing stored entries.
type ConfigFilter struct {
	Scope   ConfigScope
	ScopeID string
	Key     string
}

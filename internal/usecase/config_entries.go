package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/runoshun/agent-swarm/internal/domain"
)

// ResolveConfigInput contains the parameters for resolving config values.
type ResolveConfigInput struct {
	Key     string // Empty = resolve every key
	AgentID string
	RepoID  string
	Reveal  bool // Show secret values
}

// ResolveConfigOutput contains the effective entries, one per key.
type ResolveConfigOutput struct {
	Entries []*domain.ConfigEntry
}

// ResolveConfig returns the effective value of one key or of all keys for a
// context. Repo scope wins over agent scope, which wins over global.
type ResolveConfig struct {
	entries domain.ConfigRepository
}

// NewResolveConfig creates a new ResolveConfig use case.
func NewResolveConfig(entries domain.ConfigRepository) *ResolveConfig {
	return &ResolveConfig{entries: entries}
}

// Execute resolves. A missing key yields an empty result, not an error.
func (uc *ResolveConfig) Execute(ctx context.Context, in ResolveConfigInput) (*ResolveConfigOutput, error) {
	cctx := domain.ConfigContext{AgentID: in.AgentID, RepoID: in.RepoID}
	key := strings.TrimSpace(in.Key)

	candidates, err := uc.entries.Applicable(ctx, cctx, key)
	if err != nil {
		return nil, fmt.Errorf("load config entries: %w", err)
	}

	var resolved []*domain.ConfigEntry
	if key != "" {
		if e := domain.ResolveConfig(candidates, key, cctx); e != nil {
			resolved = []*domain.ConfigEntry{e}
		}
	} else {
		resolved = domain.ResolveAllConfig(candidates, cctx)
	}
	return &ResolveConfigOutput{Entries: domain.MaskSecrets(resolved, in.Reveal)}, nil
}

// SetConfigInput contains the parameters for writing a config entry.
type SetConfigInput struct {
	Caller      domain.Caller
	Key         string
	Value       string
	Scope       domain.ConfigScope
	ScopeID     string
	Description string
	IsSecret    bool
}

// SetConfigOutput contains the stored entry with its value masked if secret.
type SetConfigOutput struct {
	Entry *domain.ConfigEntry
}

// SetConfig creates or replaces the entry for (key, scope, scopeID).
type SetConfig struct {
	entries domain.ConfigRepository
	clock   domain.Clock
	logger  *slog.Logger
}

// NewSetConfig creates a new SetConfig use case.
func NewSetConfig(entries domain.ConfigRepository, clock domain.Clock, logger *slog.Logger) *SetConfig {
	return &SetConfig{entries: entries, clock: clock, logger: orDiscard(logger)}
}

// Execute validates, authorizes and upserts.
func (uc *SetConfig) Execute(ctx context.Context, in SetConfigInput) (*SetConfigOutput, error) {
	entry := &domain.ConfigEntry{
		Key:         strings.TrimSpace(in.Key),
		Value:       in.Value,
		Scope:       in.Scope,
		ScopeID:     strings.TrimSpace(in.ScopeID),
		Description: in.Description,
		IsSecret:    in.IsSecret,
		UpdatedAt:   uc.clock.Now(),
	}
	if err := entry.Validate(); err != nil {
		return nil, err
	}
	if err := domain.AuthorizeConfig(in.Caller, entry.Scope, entry.ScopeID); err != nil {
		return nil, err
	}
	if err := uc.entries.Upsert(ctx, entry); err != nil {
		return nil, fmt.Errorf("save config entry: %w", err)
	}
	uc.logger.Info("config entry set", "key", entry.Key, "scope", entry.Scope, "scope_id", entry.ScopeID, "secret", entry.IsSecret)
	return &SetConfigOutput{Entry: domain.MaskSecrets([]*domain.ConfigEntry{entry}, false)[0]}, nil
}

// DeleteConfigInput identifies the entry to remove.
type DeleteConfigInput struct {
	Caller  domain.Caller
	Key     string
	Scope   domain.ConfigScope
	ScopeID string
}

// DeleteConfig removes one entry.
type DeleteConfig struct {
	entries domain.ConfigRepository
	logger  *slog.Logger
}

// NewDeleteConfig creates a new DeleteConfig use case.
func NewDeleteConfig(entries domain.ConfigRepository, logger *slog.Logger) *DeleteConfig {
	return &DeleteConfig{entries: entries, logger: orDiscard(logger)}
}

// Execute deletes the entry.
func (uc *DeleteConfig) Execute(ctx context.Context, in DeleteConfigInput) error {
	key := strings.TrimSpace(in.Key)
	if key == "" {
		return domain.ErrEmptyKey
	}
	scopeID := strings.TrimSpace(in.ScopeID)
	if err := domain.ValidateScope(in.Scope, scopeID); err != nil {
		return err
	}
	if err := domain.AuthorizeConfig(in.Caller, in.Scope, scopeID); err != nil {
		return err
	}
	if err := uc.entries.Delete(ctx, key, in.Scope, scopeID); err != nil {
		return fmt.Errorf("delete config entry: %w", err)
	}
	uc.logger.Info("config entry deleted", "key", key, "scope", in.Scope, "scope_id", scopeID)
	return nil
}

// ListConfigInput contains the parameters for listing stored entries.
type ListConfigInput struct {
	Filter domain.ConfigFilter
	Reveal bool
}

// ListConfig lists stored entries without resolution.
type ListConfig struct {
	entries domain.ConfigRepository
}

// NewListConfig creates a new ListConfig use case.
func NewListConfig(entries domain.ConfigRepository) *ListConfig {
	return &ListConfig{entries: entries}
}

// Execute returns the matching entries, secrets masked unless Reveal.
func (uc *ListConfig) Execute(ctx context.Context, in ListConfigInput) ([]*domain.ConfigEntry, error) {
	if in.Filter.Scope != "" && !in.Filter.Scope.IsValid() {
		return nil, domain.ErrInvalidScope
	}
	out, err := uc.entries.List(ctx, in.Filter)
	if err != nil {
		return nil, fmt.Errorf("list config entries: %w", err)
	}
	return domain.MaskSecrets(out, in.Reveal), nil
}

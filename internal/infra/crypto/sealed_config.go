package crypto

import (
	"context"
	"fmt"

	"github.com/runoshun/agent-swarm/internal/domain"
)

// SealedConfig wraps a ConfigRepository so that secret values are encrypted
// before they are stored and decrypted when read back.
type SealedConfig struct {
	inner domain.ConfigRepository
	enc   *Sealer
}

var _ domain.ConfigRepository = (*SealedConfig)(nil)

// NewSealedConfig decorates inner with enc.
func NewSealedConfig(inner domain.ConfigRepository, enc *Sealer) *SealedConfig {
	return &SealedConfig{inner: inner, enc: enc}
}

func (s *SealedConfig) Upsert(ctx context.Context, e *domain.ConfigEntry) error {
	if !e.IsSecret || IsSealed(e.Value) {
		return s.inner.Upsert(ctx, e)
	}
	sealed, err := s.enc.Seal(e.Value)
	if err != nil {
		return fmt.Errorf("seal %s: %w", e.Key, err)
	}
	stored := *e
	stored.Value = sealed
	return s.inner.Upsert(ctx, &stored)
}

func (s *SealedConfig) Delete(ctx context.Context, key string, scope domain.ConfigScope, scopeID string) error {
	return s.inner.Delete(ctx, key, scope, scopeID)
}

func (s *SealedConfig) List(ctx context.Context, filter domain.ConfigFilter) ([]*domain.ConfigEntry, error) {
	entries, err := s.inner.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return s.open(entries)
}

func (s *SealedConfig) Applicable(ctx context.Context, cctx domain.ConfigContext, key string) ([]*domain.ConfigEntry, error) {
	entries, err := s.inner.Applicable(ctx, cctx, key)
	if err != nil {
		return nil, err
	}
	return s.open(entries)
}

func (s *SealedConfig) open(entries []*domain.ConfigEntry) ([]*domain.ConfigEntry, error) {
	for _, e := range entries {
		if !IsSealed(e.Value) {
			continue
		}
		plain, err := s.enc.Open(e.Value)
		if err != nil {
			return nil, fmt.Errorf("open %s (%s %s): %w", e.Key, e.Scope, e.ScopeID, err)
		}
		e.Value = plain
	}
	return entries, nil
}

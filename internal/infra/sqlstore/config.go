package sqlstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/runoshun/agent-swarm/internal/domain"
)

const configColumns = `config_key, value, scope, scope_id, description, is_secret, updated_at`

// ConfigStore implements domain.ConfigRepository.
type ConfigStore struct {
	s *Store
}

var _ domain.ConfigRepository = (*ConfigStore)(nil)

func scanConfig(row scanner) (*domain.ConfigEntry, error) {
	var (
		e        domain.ConfigEntry
		scope    string
		isSecret int
		updated  int64
	)
	if err := row.Scan(&e.Key, &e.Value, &scope, &e.ScopeID, &e.Description, &isSecret, &updated); err != nil {
		return nil, err
	}
	e.Scope = domain.ConfigScope(scope)
	e.IsSecret = isSecret != 0
	e.UpdatedAt = fromMillis(updated)
	return &e, nil
}

func (cs *ConfigStore) query(ctx context.Context, query string, args ...any) ([]*domain.ConfigEntry, error) {
	rows, err := cs.s.db.QueryContext(ctx, cs.s.q(query), args...)
	if err != nil {
		return nil, fmt.Errorf("list config entries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*domain.ConfigEntry
	for rows.Next() {
		e, err := scanConfig(rows)
		if err != nil {
			return nil, fmt.Errorf("read config entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Upsert creates or replaces the entry for (Key, Scope, ScopeID).
func (cs *ConfigStore) Upsert(ctx context.Context, e *domain.ConfigEntry) error {
	_, err := cs.s.db.ExecContext(ctx, cs.s.q(`INSERT INTO config_entries (`+configColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (config_key, scope, scope_id) DO UPDATE SET
  value = excluded.value, description = excluded.description,
  is_secret = excluded.is_secret, updated_at = excluded.updated_at`),
		e.Key, e.Value, string(e.Scope), e.ScopeID, e.Description, boolInt(e.IsSecret), millis(e.UpdatedAt))
	if err != nil {
		return fmt.Errorf("upsert config entry: %w", err)
	}
	return nil
}

// Delete removes the entry for (key, scope, scopeID).
func (cs *ConfigStore) Delete(ctx context.Context, key string, scope domain.ConfigScope, scopeID string) error {
	res, err := cs.s.db.ExecContext(ctx, cs.s.q(`DELETE FROM config_entries WHERE config_key = ? AND scope = ? AND scope_id = ?`),
		key, string(scope), scopeID)
	if err != nil {
		return fmt.Errorf("delete config entry: %w", err)
	}
	n, err := affected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s (%s %s)", domain.ErrConfigNotFound, key, scope, scopeID)
	}
	return nil
}

// List retrieves stored entries matching the filter.
func (cs *ConfigStore) List(ctx context.Context, filter domain.ConfigFilter) ([]*domain.ConfigEntry, error) {
	var (
		where []string
		args  []any
	)
	if filter.Scope != "" {
		where = append(where, "scope = ?")
		args = append(args, string(filter.Scope))
	}
	if filter.ScopeID != "" {
		where = append(where, "scope_id = ?")
		args = append(args, filter.ScopeID)
	}
	if filter.Key != "" {
		where = append(where, "config_key = ?")
		args = append(args, filter.Key)
	}
	query := `SELECT ` + configColumns + ` FROM config_entries`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	return cs.query(ctx, query+" ORDER BY config_key, scope, scope_id", args...)
}

// Applicable retrieves the global entries plus those scoped to cctx's agent or repo.
func (cs *ConfigStore) Applicable(ctx context.Context, cctx domain.ConfigContext, key string) ([]*domain.ConfigEntry, error) {
	scopes := []string{"scope = ?"}
	args := []any{string(domain.ScopeGlobal)}
	if cctx.AgentID != "" {
		scopes = append(scopes, "(scope = ? AND scope_id = ?)")
		args = append(args, string(domain.ScopeAgent), cctx.AgentID)
	}
	if cctx.RepoID != "" {
		scopes = append(scopes, "(scope = ? AND scope_id = ?)")
		args = append(args, string(domain.ScopeRepo), cctx.RepoID)
	}
	query := `SELECT ` + configColumns + ` FROM config_entries WHERE (` + strings.Join(scopes, " OR ") + `)`
	if key != "" {
		query += " AND config_key = ?"
		args = append(args, key)
	}
	return cs.query(ctx, query+" ORDER BY config_key", args...)
}

package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/runoshun/agent-swarm/internal/domain"
)

const agentColumns = `id, name, role, status, capabilities, is_lead, updated_at`

// AgentStore implements domain.AgentRepository.
type AgentStore struct {
	s *Store
}

var _ domain.AgentRepository = (*AgentStore)(nil)

func scanAgent(row scanner) (*domain.Agent, error) {
	var (
		a            domain.Agent
		status, caps string
		isLead       int
		updated      int64
	)
	if err := row.Scan(&a.ID, &a.Name, &a.Role, &status, &caps, &isLead, &updated); err != nil {
		return nil, err
	}
	a.Status = domain.AgentStatus(status)
	a.IsLead = isLead != 0
	a.UpdatedAt = fromMillis(updated)
	var err error
	if a.Capabilities, err = decodeList(caps); err != nil {
		return nil, err
	}
	return &a, nil
}

// Get retrieves an agent by ID. Returns nil if not found.
func (as *AgentStore) Get(ctx context.Context, id string) (*domain.Agent, error) {
	a, err := scanAgent(as.s.db.QueryRowContext(ctx, as.s.q(`SELECT `+agentColumns+` FROM agents WHERE id = ?`), id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read agent: %w", err)
	}
	return a, nil
}

// List retrieves all agents ordered by ID.
func (as *AgentStore) List(ctx context.Context) ([]*domain.Agent, error) {
	rows, err := as.s.db.QueryContext(ctx, `SELECT `+agentColumns+` FROM agents ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list agents: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var agents []*domain.Agent
	for rows.Next() {
		a, err := scanAgent(rows)
		if err != nil {
			return nil, fmt.Errorf("read agent: %w", err)
		}
		agents = append(agents, a)
	}
	return agents, rows.Err()
}

// Create inserts a new agent.
func (as *AgentStore) Create(ctx context.Context, a *domain.Agent) error {
	_, err := as.s.db.ExecContext(ctx, as.s.q(`INSERT INTO agents (`+agentColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`),
		a.ID, a.Name, a.Role, string(a.Status), encodeList(a.Capabilities), boolInt(a.IsLead), millis(a.UpdatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", domain.ErrAgentExists, a.ID)
		}
		return fmt.Errorf("insert agent: %w", err)
	}
	return nil
}

// SetStatus updates an agent's status.
func (as *AgentStore) SetStatus(ctx context.Context, id string, status domain.AgentStatus, now time.Time) error {
	res, err := as.s.db.ExecContext(ctx, as.s.q(`UPDATE agents SET status = ?, updated_at = ? WHERE id = ?`),
		string(status), millis(now), id)
	if err != nil {
		return fmt.Errorf("update agent: %w", err)
	}
	n, err := affected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", domain.ErrAgentNotFound, id)
	}
	return nil
}

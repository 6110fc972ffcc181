package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/runoshun/agent-swarm/internal/domain"
)

const epicColumns = `id, name, goal, description, status, created_by_agent_id, lead_agent_id, tags, priority, created_at, updated_at`

// EpicStore implements domain.EpicRepository.
type EpicStore struct {
	s *Store
}

var _ domain.EpicRepository = (*EpicStore)(nil)

func scanEpic(row scanner) (*domain.Epic, error) {
	var (
		e                domain.Epic
		status, tags     string
		created, updated int64
	)
	if err := row.Scan(&e.ID, &e.Name, &e.Goal, &e.Description, &status, &e.CreatedByAgentID, &e.LeadAgentID,
		&tags, &e.Priority, &created, &updated); err != nil {
		return nil, err
	}
	e.Status = domain.EpicStatus(status)
	e.CreatedAt = fromMillis(created)
	e.UpdatedAt = fromMillis(updated)
	var err error
	if e.Tags, err = decodeList(tags); err != nil {
		return nil, err
	}
	return &e, nil
}

// Get retrieves an epic by ID. Returns nil if not found.
func (es *EpicStore) Get(ctx context.Context, id string) (*domain.Epic, error) {
	e, err := scanEpic(es.s.db.QueryRowContext(ctx, es.s.q(`SELECT `+epicColumns+` FROM epics WHERE id = ?`), id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read epic: %w", err)
	}
	return e, nil
}

// List retrieves epics matching the filter, oldest first.
func (es *EpicStore) List(ctx context.Context, filter domain.EpicFilter) ([]*domain.Epic, error) {
	var (
		where []string
		args  []any
	)
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.LeadAgentID != "" {
		where = append(where, "lead_agent_id = ?")
		args = append(args, filter.LeadAgentID)
	}
	query := `SELECT ` + epicColumns + ` FROM epics`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at, id"

	rows, err := es.s.db.QueryContext(ctx, es.s.q(query), args...)
	if err != nil {
		return nil, fmt.Errorf("list epics: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var epics []*domain.Epic
	for rows.Next() {
		e, err := scanEpic(rows)
		if err != nil {
			return nil, fmt.Errorf("read epic: %w", err)
		}
		epics = append(epics, e)
	}
	return epics, rows.Err()
}

// Create inserts a new epic.
func (es *EpicStore) Create(ctx context.Context, e *domain.Epic) error {
	_, err := es.s.db.ExecContext(ctx, es.s.q(`INSERT INTO epics (`+epicColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		e.ID, e.Name, e.Goal, e.Description, string(e.Status), e.CreatedByAgentID, e.LeadAgentID,
		encodeList(e.Tags), e.Priority, millis(e.CreatedAt), millis(e.UpdatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: epic %s already exists", domain.ErrConflict, e.ID)
		}
		return fmt.Errorf("insert epic: %w", err)
	}
	return nil
}

// Update replaces an existing epic.
func (es *EpicStore) Update(ctx context.Context, e *domain.Epic) error {
	res, err := es.s.db.ExecContext(ctx, es.s.q(`UPDATE epics SET name = ?, goal = ?, description = ?, status = ?,
lead_agent_id = ?, tags = ?, priority = ?, updated_at = ? WHERE id = ?`),
		e.Name, e.Goal, e.Description, string(e.Status), e.LeadAgentID, encodeList(e.Tags), e.Priority, millis(e.UpdatedAt), e.ID)
	if err != nil {
		return fmt.Errorf("update epic: %w", err)
	}
	n, err := affected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", domain.ErrEpicNotFound, e.ID)
	}
	return nil
}

// Delete removes an epic and unlinks its tasks in one transaction.
func (es *EpicStore) Delete(ctx context.Context, id string, now time.Time) (int, error) {
	var unlinked int64
	err := es.s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, es.s.q(`DELETE FROM epics WHERE id = ?`), id)
		if err != nil {
			return fmt.Errorf("delete epic: %w", err)
		}
		n, err := affected(res)
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("%w: %s", domain.ErrEpicNotFound, id)
		}

		res, err = tx.ExecContext(ctx, es.s.q(`UPDATE tasks SET epic_id = '', updated_at = ? WHERE epic_id = ?`), millis(now), id)
		if err != nil {
			return fmt.Errorf("unlink tasks: %w", err)
		}
		unlinked, err = affected(res)
		return err
	})
	if err != nil {
		return 0, err
	}
	return int(unlinked), nil
}

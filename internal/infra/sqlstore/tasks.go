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

const taskColumns = `id, description, status, agent_id, epic_id, parent_task_id, source, task_type,
thread_id, created_by, idempotency_key, failure_reason, tags, priority, created_at, updated_at`

// TaskStore implements domain.TaskRepository.
type TaskStore struct {
	s *Store
}

var _ domain.TaskRepository = (*TaskStore)(nil)

func scanTask(row scanner) (*domain.Task, error) {
	var (
		t                    domain.Task
		status, source, tags string
		created, updated     int64
	)
	err := row.Scan(&t.ID, &t.Description, &status, &t.AgentID, &t.EpicID, &t.ParentTaskID, &source, &t.TaskType,
		&t.ThreadID, &t.CreatedBy, &t.IdempotencyKey, &t.FailureReason, &tags, &t.Priority, &created, &updated)
	if err != nil {
		return nil, err
	}
	t.Status = domain.Status(status)
	t.Source = domain.Source(source)
	t.CreatedAt = fromMillis(created)
	t.UpdatedAt = fromMillis(updated)
	if t.Tags, err = decodeList(tags); err != nil {
		return nil, err
	}
	return &t, nil
}

func (ts *TaskStore) queryOne(ctx context.Context, query string, args ...any) (*domain.Task, error) {
	t, err := scanTask(ts.s.db.QueryRowContext(ctx, ts.s.q(query), args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read task: %w", err)
	}
	return t, nil
}

// Get retrieves a task by ID. Returns nil if not found.
func (ts *TaskStore) Get(ctx context.Context, id string) (*domain.Task, error) {
	return ts.queryOne(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
}

// List retrieves tasks matching the filter, oldest first.
func (ts *TaskStore) List(ctx context.Context, filter domain.TaskFilter) ([]*domain.Task, error) {
	var (
		where []string
		args  []any
	)
	if len(filter.Statuses) > 0 {
		where = append(where, "status IN ("+placeholders(len(filter.Statuses))+")")
		for _, st := range filter.Statuses {
			args = append(args, string(st))
		}
	}
	if filter.AgentID != "" {
		where = append(where, "agent_id = ?")
		args = append(args, filter.AgentID)
	}
	if filter.EpicID != "" {
		where = append(where, "epic_id = ?")
		args = append(args, filter.EpicID)
	}
	if filter.Source != "" {
		where = append(where, "source = ?")
		args = append(args, string(filter.Source))
	}
	if filter.ThreadID != "" {
		where = append(where, "thread_id = ?")
		args = append(args, filter.ThreadID)
	}

	query := `SELECT ` + taskColumns + ` FROM tasks`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at, id"
	// Tags live in a JSON column, so the tag filter and its limit run in Go.
	if filter.Limit > 0 && filter.Tag == "" {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	rows, err := ts.s.db.QueryContext(ctx, ts.s.q(query), args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var tasks []*domain.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("read task: %w", err)
		}
		if filter.Tag != "" && !t.HasTag(filter.Tag) {
			continue
		}
		tasks = append(tasks, t)
		if filter.Limit > 0 && len(tasks) == filter.Limit {
			break
		}
	}
	return tasks, rows.Err()
}

func (ts *TaskStore) insert(ctx context.Context, db execer, t *domain.Task) error {
	_, err := db.ExecContext(ctx, ts.s.q(`INSERT INTO tasks (`+taskColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		t.ID, t.Description, string(t.Status), t.AgentID, t.EpicID, t.ParentTaskID, string(t.Source), t.TaskType,
		t.ThreadID, t.CreatedBy, t.IdempotencyKey, t.FailureReason, encodeList(t.Tags), t.Priority,
		millis(t.CreatedAt), millis(t.UpdatedAt))
	return err
}

// Create inserts a new task.
// The epic link is re-checked in the same transaction as the insert, so a
// concurrent EpicStore.Delete either sees the new task or makes Create fail.
func (ts *TaskStore) Create(ctx context.Context, t *domain.Task) error {
	return ts.s.withTx(ctx, func(tx *sql.Tx) error {
		if t.EpicID != "" {
			if err := ts.lockEpic(ctx, tx, t.EpicID); err != nil {
				return err
			}
		}
		if err := ts.insert(ctx, tx, t); err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: task %s already exists", domain.ErrConflict, t.ID)
			}
			return fmt.Errorf("insert task: %w", err)
		}
		return nil
	})
}

// lockEpic fails with ErrEpicNotFound unless the epic exists. On postgres the
// row stays share-locked until tx ends.
func (ts *TaskStore) lockEpic(ctx context.Context, tx *sql.Tx, epicID string) error {
	query := `SELECT id FROM epics WHERE id = ?`
	if ts.s.postgres {
		query += " FOR SHARE"
	}
	var id string
	err := tx.QueryRowContext(ctx, ts.s.q(query), epicID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", domain.ErrEpicNotFound, epicID)
	}
	if err != nil {
		return fmt.Errorf("check epic: %w", err)
	}
	return nil
}

// Claim moves a claimable task to in_progress for agentID in one conditional update.
func (ts *TaskStore) Claim(ctx context.Context, id, agentID string, now time.Time) (*domain.Task, error) {
	res, err := ts.s.db.ExecContext(ctx, ts.s.q(`UPDATE tasks SET status = ?, agent_id = ?, updated_at = ?
WHERE id = ? AND (status = ? OR (status = ? AND agent_id = ?))`),
		string(domain.StatusInProgress), agentID, millis(now),
		id, string(domain.StatusUnassigned), string(domain.StatusOffered), agentID)
	if err != nil {
		return nil, fmt.Errorf("claim task: %w", err)
	}
	n, err := affected(res)
	if err != nil {
		return nil, err
	}

	t, err := ts.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, domain.ErrTaskNotFound
	}
	if n == 0 {
		return nil, domain.ErrClaimConflict
	}
	return t, nil
}

// CompareAndSwap writes next only if the stored task still has prevStatus and prevAgentID.
func (ts *TaskStore) CompareAndSwap(ctx context.Context, next *domain.Task, prevStatus domain.Status, prevAgentID string) error {
	res, err := ts.s.db.ExecContext(ctx, ts.s.q(`UPDATE tasks SET description = ?, status = ?, agent_id = ?, epic_id = ?,
parent_task_id = ?, task_type = ?, thread_id = ?, failure_reason = ?, tags = ?, priority = ?, updated_at = ?
WHERE id = ? AND status = ? AND agent_id = ?`),
		next.Description, string(next.Status), next.AgentID, next.EpicID,
		next.ParentTaskID, next.TaskType, next.ThreadID, next.FailureReason, encodeList(next.Tags), next.Priority, millis(next.UpdatedAt),
		next.ID, string(prevStatus), prevAgentID)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	n, err := affected(res)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	cur, err := ts.Get(ctx, next.ID)
	if err != nil {
		return err
	}
	if cur == nil {
		return domain.ErrTaskNotFound
	}
	return domain.ErrTaskModified
}

// LatestByThread returns the most recently created task of source in threadID.
func (ts *TaskStore) LatestByThread(ctx context.Context, source domain.Source, threadID string) (*domain.Task, error) {
	return ts.queryOne(ctx, `SELECT `+taskColumns+` FROM tasks
WHERE source = ? AND thread_id = ? ORDER BY created_at DESC, id DESC LIMIT 1`, string(source), threadID)
}

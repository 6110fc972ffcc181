package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/runoshun/agent-swarm/internal/domain"
)

const scheduleColumns = `id, name, task_template, cron_expression, interval_ms, timezone, target_agent_id, task_type,
created_by_agent_id, last_error, tags, priority, enabled, last_run_at, next_run_at, created_at, updated_at`

// ScheduleStore implements domain.ScheduleRepository.
type ScheduleStore struct {
	s *Store
}

var _ domain.ScheduleRepository = (*ScheduleStore)(nil)

func scanSchedule(row scanner) (*domain.ScheduledTask, error) {
	var (
		st               domain.ScheduledTask
		tags             string
		enabled          int
		lastRun, nextRun sql.NullInt64
		created, updated int64
	)
	if err := row.Scan(&st.ID, &st.Name, &st.TaskTemplate, &st.CronExpression, &st.IntervalMs, &st.Timezone,
		&st.TargetAgentID, &st.TaskType, &st.CreatedByAgentID, &st.LastError, &tags, &st.Priority, &enabled,
		&lastRun, &nextRun, &created, &updated); err != nil {
		return nil, err
	}
	st.Enabled = enabled != 0
	st.LastRunAt = fromNullMillis(lastRun)
	st.NextRunAt = fromNullMillis(nextRun)
	st.CreatedAt = fromMillis(created)
	st.UpdatedAt = fromMillis(updated)
	var err error
	if st.Tags, err = decodeList(tags); err != nil {
		return nil, err
	}
	return &st, nil
}

func (ss *ScheduleStore) queryOne(ctx context.Context, query string, args ...any) (*domain.ScheduledTask, error) {
	st, err := scanSchedule(ss.s.db.QueryRowContext(ctx, ss.s.q(query), args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read schedule: %w", err)
	}
	return st, nil
}

func (ss *ScheduleStore) queryMany(ctx context.Context, query string, args ...any) ([]*domain.ScheduledTask, error) {
	rows, err := ss.s.db.QueryContext(ctx, ss.s.q(query), args...)
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*domain.ScheduledTask
	for rows.Next() {
		st, err := scanSchedule(rows)
		if err != nil {
			return nil, fmt.Errorf("read schedule: %w", err)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// Get retrieves a schedule by ID. Returns nil if not found.
func (ss *ScheduleStore) Get(ctx context.Context, id string) (*domain.ScheduledTask, error) {
	return ss.queryOne(ctx, `SELECT `+scheduleColumns+` FROM schedules WHERE id = ?`, id)
}

// GetByName retrieves a schedule by name. Returns nil if not found.
func (ss *ScheduleStore) GetByName(ctx context.Context, name string) (*domain.ScheduledTask, error) {
	return ss.queryOne(ctx, `SELECT `+scheduleColumns+` FROM schedules WHERE name = ?`, name)
}

// List retrieves schedules ordered by name.
func (ss *ScheduleStore) List(ctx context.Context, filter domain.ScheduleFilter) ([]*domain.ScheduledTask, error) {
	if filter.EnabledOnly {
		return ss.queryMany(ctx, `SELECT `+scheduleColumns+` FROM schedules WHERE enabled = 1 ORDER BY name`)
	}
	return ss.queryMany(ctx, `SELECT `+scheduleColumns+` FROM schedules ORDER BY name`)
}

// Due retrieves enabled schedules whose next run is at or before now, earliest first.
func (ss *ScheduleStore) Due(ctx context.Context, now time.Time) ([]*domain.ScheduledTask, error) {
	return ss.queryMany(ctx, `SELECT `+scheduleColumns+` FROM schedules
WHERE enabled = 1 AND next_run_at IS NOT NULL AND next_run_at <= ? ORDER BY next_run_at, name`, millis(now))
}

// Create inserts a schedule.
func (ss *ScheduleStore) Create(ctx context.Context, st *domain.ScheduledTask) error {
	_, err := ss.s.db.ExecContext(ctx, ss.s.q(`INSERT INTO schedules (`+scheduleColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		st.ID, st.Name, st.TaskTemplate, st.CronExpression, st.IntervalMs, st.Timezone, st.TargetAgentID, st.TaskType,
		st.CreatedByAgentID, st.LastError, encodeList(st.Tags), st.Priority, boolInt(st.Enabled),
		nullMillis(st.LastRunAt), nullMillis(st.NextRunAt), millis(st.CreatedAt), millis(st.UpdatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", domain.ErrScheduleExists, st.Name)
		}
		return fmt.Errorf("insert schedule: %w", err)
	}
	return nil
}

func (ss *ScheduleStore) update(ctx context.Context, db execer, st *domain.ScheduledTask, guard string, guardArgs ...any) (int64, error) {
	args := []any{
		st.Name, st.TaskTemplate, st.CronExpression, st.IntervalMs, st.Timezone, st.TargetAgentID, st.TaskType,
		st.LastError, encodeList(st.Tags), st.Priority, boolInt(st.Enabled),
		nullMillis(st.LastRunAt), nullMillis(st.NextRunAt), millis(st.UpdatedAt), st.ID,
	}
	res, err := db.ExecContext(ctx, ss.s.q(`UPDATE schedules SET name = ?, task_template = ?, cron_expression = ?,
interval_ms = ?, timezone = ?, target_agent_id = ?, task_type = ?, last_error = ?, tags = ?, priority = ?,
enabled = ?, last_run_at = ?, next_run_at = ?, updated_at = ? WHERE id = ?`+guard), append(args, guardArgs...)...)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("%w: %s", domain.ErrScheduleExists, st.Name)
		}
		return 0, fmt.Errorf("update schedule: %w", err)
	}
	return affected(res)
}

// Update replaces a schedule if nobody wrote it since prevUpdatedAt was read.
// RecordRun bumps updated_at, so an edit racing a tick cannot roll back the run.
func (ss *ScheduleStore) Update(ctx context.Context, st *domain.ScheduledTask, prevUpdatedAt time.Time) error {
	n, err := ss.update(ctx, ss.s.db, st, " AND updated_at = ?", millis(prevUpdatedAt))
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	cur, err := ss.Get(ctx, st.ID)
	if err != nil {
		return err
	}
	if cur == nil {
		return fmt.Errorf("%w: %s", domain.ErrScheduleNotFound, st.ID)
	}
	return domain.ErrScheduleModified
}

// Delete removes a schedule. Tasks it materialized are kept.
func (ss *ScheduleStore) Delete(ctx context.Context, id string) error {
	res, err := ss.s.db.ExecContext(ctx, ss.s.q(`DELETE FROM schedules WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete schedule: %w", err)
	}
	n, err := affected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", domain.ErrScheduleNotFound, id)
	}
	return nil
}

// RecordRun advances st and inserts task in one transaction, guarded on the stored
// schedule still being enabled with NextRunAt == prevNextRun. A repeated idempotency
// key means another scheduler already materialized this run.
func (ss *ScheduleStore) RecordRun(ctx context.Context, st *domain.ScheduledTask, prevNextRun time.Time, task *domain.Task) error {
	tasks := ss.s.Tasks()
	return ss.s.withTx(ctx, func(tx *sql.Tx) error {
		n, err := ss.update(ctx, tx, st, " AND enabled = 1 AND next_run_at = ?", millis(prevNextRun))
		if err != nil {
			return err
		}
		if n == 0 {
			return domain.ErrScheduleModified
		}
		if task == nil {
			return nil
		}
		if err := tasks.insert(ctx, tx, task); err != nil {
			if isUniqueViolation(err) {
				return domain.ErrScheduleModified
			}
			return fmt.Errorf("insert scheduled task: %w", err)
		}
		return nil
	})
}

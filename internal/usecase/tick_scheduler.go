package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/runoshun/agent-swarm/internal/domain"
	"github.com/runoshun/agent-swarm/internal/usecase/shared"
)

// Schedule fire outcomes reported to metrics.
const (
	FireMaterialized = "materialized"
	FireSkipped      = "skipped"
	FireDisabled     = "disabled"
	FireFailed       = "failed"
)

// TickSchedulerInput contains the parameters for one scheduler pass.
type TickSchedulerInput struct {
	Now time.Time // Zero = clock time
}

// FiredSchedule describes one materialization.
type FiredSchedule struct {
	Due          time.Time
	NextRunAt    time.Time
	ScheduleID   string
	ScheduleName string
	TaskID       string
}

// TickSchedulerOutput summarizes a scheduler pass.
type TickSchedulerOutput struct {
	Fired    []FiredSchedule
	Disabled []string // Schedules disabled because their next run could not be computed
	Skipped  []string // Schedules changed concurrently; nothing was created
	Warnings []string
}

// TickScheduler materializes every due schedule into a task and advances it.
// A schedule that was due several times while the process was down fires once
// and then advances from now.
type TickScheduler struct {
	schedules domain.ScheduleRepository
	agents    domain.AgentRepository
	ids       domain.IDGenerator
	clock     domain.Clock
	metrics   domain.MetricsRecorder
	signal    *shared.SessionSignaler
	logger    *slog.Logger
}

// NewTickScheduler creates a new TickScheduler use case.
func NewTickScheduler(
	schedules domain.ScheduleRepository,
	tasks domain.TaskRepository,
	agents domain.AgentRepository,
	notifier domain.TaskNotifier,
	ids domain.IDGenerator,
	clock domain.Clock,
	metrics domain.MetricsRecorder,
	logger *slog.Logger,
) *TickScheduler {
	return &TickScheduler{
		schedules: schedules,
		agents:    agents,
		ids:       ids,
		clock:     clock,
		metrics:   orNopMetrics(metrics),
		signal:    shared.NewSessionSignaler(notifier, agents, tasks, logger),
		logger:    orDiscard(logger),
	}
}

// Execute runs one pass. Failures of individual schedules are logged and the
// pass continues; only listing due schedules can fail the whole pass.
func (uc *TickScheduler) Execute(ctx context.Context, in TickSchedulerInput) (*TickSchedulerOutput, error) {
	now := in.Now
	if now.IsZero() {
		now = uc.clock.Now()
	}

	due, err := uc.schedules.Due(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("list due schedules: %w", err)
	}

	out := &TickSchedulerOutput{}
	for _, s := range due {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		uc.fire(ctx, s, now, out)
	}
	return out, nil
}

func (uc *TickScheduler) fire(ctx context.Context, s *domain.ScheduledTask, now time.Time, out *TickSchedulerOutput) {
	if !s.IsDue(now) {
		return
	}
	prev := *s.NextRunAt
	log := uc.logger.With("schedule", s.ID, "name", s.Name)

	next, err := domain.CalculateNextRun(s, now)
	if err != nil {
		s.Enabled = false
		s.NextRunAt = nil
		s.LastError = err.Error()
		s.UpdatedAt = now
		if rerr := uc.schedules.RecordRun(ctx, s, prev, nil); rerr != nil && !errors.Is(rerr, domain.ErrScheduleModified) {
			log.Error("disable schedule failed", "error", rerr)
			out.Warnings = append(out.Warnings, fmt.Sprintf("%s: %v", s.Name, rerr))
			uc.metrics.RecordScheduleFire(ctx, FireFailed)
			return
		}
		log.Warn("schedule disabled", "error", err)
		out.Disabled = append(out.Disabled, s.Name)
		uc.metrics.RecordScheduleFire(ctx, FireDisabled)
		return
	}

	task := domain.TaskFromSchedule(s, uc.ids.NewID(), prev, now)
	if task.AgentID != "" {
		agent, err := uc.agents.Get(ctx, task.AgentID)
		if err != nil || agent == nil {
			log.Warn("target agent unavailable, task goes to the pool", "agent", task.AgentID, "error", err)
			task.AgentID = ""
			task.Status = domain.StatusUnassigned
		}
	}

	s.LastRunAt = &now
	s.NextRunAt = &next
	s.LastError = ""
	s.UpdatedAt = now
	if err := uc.schedules.RecordRun(ctx, s, prev, task); err != nil {
		if errors.Is(err, domain.ErrScheduleModified) {
			log.Info("schedule changed concurrently, skipped")
			out.Skipped = append(out.Skipped, s.Name)
			uc.metrics.RecordScheduleFire(ctx, FireSkipped)
			return
		}
		log.Error("materialize schedule failed", "error", err)
		out.Warnings = append(out.Warnings, fmt.Sprintf("%s: %v", s.Name, err))
		uc.metrics.RecordScheduleFire(ctx, FireFailed)
		return
	}

	log.Info("schedule fired", "task", task.ID, "due", prev, "next_run", next)
	uc.metrics.RecordScheduleFire(ctx, FireMaterialized)
	uc.metrics.RecordTaskOp(ctx, "create", task.Status)
	out.Fired = append(out.Fired, FiredSchedule{
		ScheduleID:   s.ID,
		ScheduleName: s.Name,
		TaskID:       task.ID,
		Due:          prev,
		NextRunAt:    next,
	})
	out.Warnings = append(out.Warnings, uc.signal.TaskChanged(ctx, task, now)...)
}

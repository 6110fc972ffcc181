package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/runoshun/agent-swarm/internal/domain"
	"github.com/runoshun/agent-swarm/internal/usecase/shared"
)

// RunScheduleNowOutput contains the task materialized out of band.
type RunScheduleNowOutput struct {
	Task     *domain.Task
	Warnings []string
}

// RunScheduleNow materializes a schedule immediately without moving its cadence.
type RunScheduleNow struct {
	schedules domain.ScheduleRepository
	tasks     domain.TaskRepository
	ids       domain.IDGenerator
	clock     domain.Clock
	metrics   domain.MetricsRecorder
	signal    *shared.SessionSignaler
	logger    *slog.Logger
}

// NewRunScheduleNow creates a new RunScheduleNow use case.
func NewRunScheduleNow(
	schedules domain.ScheduleRepository,
	tasks domain.TaskRepository,
	agents domain.AgentRepository,
	notifier domain.TaskNotifier,
	ids domain.IDGenerator,
	clock domain.Clock,
	metrics domain.MetricsRecorder,
	logger *slog.Logger,
) *RunScheduleNow {
	return &RunScheduleNow{
		schedules: schedules,
		tasks:     tasks,
		ids:       ids,
		clock:     clock,
		metrics:   orNopMetrics(metrics),
		signal:    shared.NewSessionSignaler(notifier, agents, tasks, logger),
		logger:    orDiscard(logger),
	}
}

// Execute creates the task and records the run time. NextRunAt is untouched.
func (uc *RunScheduleNow) Execute(ctx context.Context, scheduleID string) (*RunScheduleNowOutput, error) {
	s, err := shared.GetSchedule(ctx, uc.schedules, scheduleID)
	if err != nil {
		return nil, err
	}

	now := uc.clock.Now()
	task := domain.TaskFromSchedule(s, uc.ids.NewID(), now, now)
	if err := uc.tasks.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("save task: %w", err)
	}
	uc.metrics.RecordTaskOp(ctx, "create", task.Status)

	var warnings []string
	prev := s.UpdatedAt
	s.LastRunAt = &now
	s.UpdatedAt = now
	if err := uc.schedules.Update(ctx, s, prev); err != nil {
		uc.logger.Warn("record manual run failed", "schedule", s.ID, "error", err)
		warnings = append(warnings, fmt.Sprintf("last run not recorded: %v", err))
	}
	uc.logger.Info("schedule run manually", "schedule", s.ID, "task", task.ID)

	warnings = append(warnings, uc.signal.TaskChanged(ctx, task, now)...)
	return &RunScheduleNowOutput{Task: task, Warnings: warnings}, nil
}

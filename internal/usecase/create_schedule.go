package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/runoshun/agent-swarm/internal/domain"
	"github.com/runoshun/agent-swarm/internal/usecase/shared"
)

// CreateScheduleInput contains the parameters for creating a recurring task.
// Fields are ordered to minimize memory padding.
type CreateScheduleInput struct {
	StartAt        *time.Time // First run of an interval schedule (default: now + interval)
	Priority       *int
	Enabled        *bool // Default: true
	Caller         domain.Caller
	Name           string
	TaskTemplate   string
	CronExpression string
	Timezone       string
	TargetAgentID  string
	TaskType       string
	Tags           []string
	IntervalMs     int64
}

// CreateScheduleOutput contains the created schedule.
type CreateScheduleOutput struct {
	Schedule *domain.ScheduledTask
}

// CreateSchedule is the use case for creating a recurring task.
type CreateSchedule struct {
	schedules domain.ScheduleRepository
	agents    domain.AgentRepository
	ids       domain.IDGenerator
	clock     domain.Clock
	logger    *slog.Logger
}

// NewCreateSchedule creates a new CreateSchedule use case.
func NewCreateSchedule(schedules domain.ScheduleRepository, agents domain.AgentRepository, ids domain.IDGenerator, clock domain.Clock, logger *slog.Logger) *CreateSchedule {
	return &CreateSchedule{schedules: schedules, agents: agents, ids: ids, clock: clock, logger: orDiscard(logger)}
}

// Execute validates and stores the schedule with its first NextRunAt.
func (uc *CreateSchedule) Execute(ctx context.Context, in CreateScheduleInput) (*CreateScheduleOutput, error) {
	now := uc.clock.Now()
	enabled := true
	if in.Enabled != nil {
		enabled = *in.Enabled
	}
	priority := domain.DefaultPriority
	if in.Priority != nil {
		priority = *in.Priority
	}

	s := &domain.ScheduledTask{
		ID:               uc.ids.NewID(),
		Name:             strings.TrimSpace(in.Name),
		TaskTemplate:     strings.TrimSpace(in.TaskTemplate),
		CronExpression:   strings.TrimSpace(in.CronExpression),
		IntervalMs:       in.IntervalMs,
		Timezone:         in.Timezone,
		TargetAgentID:    in.TargetAgentID,
		TaskType:         in.TaskType,
		Tags:             domain.NormalizeTags(in.Tags),
		Priority:         priority,
		Enabled:          enabled,
		CreatedByAgentID: in.Caller.AgentID,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if s.Timezone == "" {
		s.Timezone = domain.DefaultTimezone
	}
	if err := validateSchedule(ctx, uc.agents, s); err != nil {
		return nil, err
	}

	existing, err := uc.schedules.GetByName(ctx, s.Name)
	if err != nil {
		return nil, fmt.Errorf("get schedule: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrScheduleExists, s.Name)
	}

	if err := planNextRun(s, now, in.StartAt); err != nil {
		return nil, err
	}
	if err := uc.schedules.Create(ctx, s); err != nil {
		return nil, fmt.Errorf("save schedule: %w", err)
	}
	uc.logger.Info("schedule created", "schedule", s.ID, "name", s.Name, "next_run", s.NextRunAt)
	return &CreateScheduleOutput{Schedule: s}, nil
}

// validateSchedule checks everything about s except name uniqueness.
func validateSchedule(ctx context.Context, agents domain.AgentRepository, s *domain.ScheduledTask) error {
	if s.Name == "" {
		return domain.ErrEmptyName
	}
	if s.TaskTemplate == "" {
		return domain.ErrEmptyDescription
	}
	if err := s.ValidateCadence(); err != nil {
		return err
	}
	if err := domain.ValidatePriority(s.Priority); err != nil {
		return err
	}
	if s.TargetAgentID != "" {
		if _, err := shared.GetAgent(ctx, agents, s.TargetAgentID); err != nil {
			return err
		}
	}
	return nil
}

// planNextRun sets NextRunAt consistently with Enabled and the cadence.
// startAt only applies to interval schedules.
func planNextRun(s *domain.ScheduledTask, now time.Time, startAt *time.Time) error {
	if !s.Enabled {
		s.NextRunAt = nil
		return nil
	}
	if startAt != nil && !s.IsCron() {
		t := startAt.UTC()
		s.NextRunAt = &t
		return nil
	}
	next, err := domain.CalculateNextRun(s, now)
	if err != nil {
		return err
	}
	s.NextRunAt = &next
	s.LastError = ""
	return nil
}

package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/runoshun/agent-swarm/internal/domain"
	"github.com/runoshun/agent-swarm/internal/usecase/shared"
)

// UpdateScheduleInput contains the parameters for editing a schedule.
type UpdateScheduleInput struct {
	Name       *string // Rename
	ScheduleID string  // ID or name
	Patch      domain.SchedulePatch
}

// UpdateScheduleOutput contains the updated schedule.
type UpdateScheduleOutput struct {
	Schedule *domain.ScheduledTask
}

// UpdateSchedule edits a schedule and recomputes its next run.
type UpdateSchedule struct {
	schedules domain.ScheduleRepository
	agents    domain.AgentRepository
	clock     domain.Clock
	logger    *slog.Logger
}

// NewUpdateSchedule creates a new UpdateSchedule use case.
func NewUpdateSchedule(schedules domain.ScheduleRepository, agents domain.AgentRepository, clock domain.Clock, logger *slog.Logger) *UpdateSchedule {
	return &UpdateSchedule{schedules: schedules, agents: agents, clock: clock, logger: orDiscard(logger)}
}

// Execute applies the edits.
func (uc *UpdateSchedule) Execute(ctx context.Context, in UpdateScheduleInput) (*UpdateScheduleOutput, error) {
	if in.Name == nil && in.Patch.IsEmpty() {
		return nil, domain.ErrNoFieldsToUpdate
	}
	s, err := shared.GetSchedule(ctx, uc.schedules, in.ScheduleID)
	if err != nil {
		return nil, err
	}

	prev := s.UpdatedAt
	if in.Name != nil {
		s.Name = strings.TrimSpace(*in.Name)
	}
	in.Patch.Apply(s)
	if s.Timezone == "" {
		s.Timezone = domain.DefaultTimezone
	}
	if err := validateSchedule(ctx, uc.agents, s); err != nil {
		return nil, err
	}

	now := uc.clock.Now()
	if err := planNextRun(s, now, nil); err != nil {
		return nil, err
	}
	s.UpdatedAt = now
	if err := uc.schedules.Update(ctx, s, prev); err != nil {
		return nil, fmt.Errorf("save schedule: %w", err)
	}
	uc.logger.Info("schedule updated", "schedule", s.ID, "next_run", s.NextRunAt)
	return &UpdateScheduleOutput{Schedule: s}, nil
}

// SetScheduleEnabledInput contains the parameters for enabling or disabling a schedule.
type SetScheduleEnabledInput struct {
	ScheduleID string // ID or name
	Enabled    bool
}

// SetScheduleEnabled toggles a schedule. Disabling clears the next run;
// enabling recomputes it from now and clears any recorded error.
type SetScheduleEnabled struct {
	schedules domain.ScheduleRepository
	clock     domain.Clock
	logger    *slog.Logger
}

// NewSetScheduleEnabled creates a new SetScheduleEnabled use case.
func NewSetScheduleEnabled(schedules domain.ScheduleRepository, clock domain.Clock, logger *slog.Logger) *SetScheduleEnabled {
	return &SetScheduleEnabled{schedules: schedules, clock: clock, logger: orDiscard(logger)}
}

// Execute applies the toggle.
func (uc *SetScheduleEnabled) Execute(ctx context.Context, in SetScheduleEnabledInput) (*UpdateScheduleOutput, error) {
	s, err := shared.GetSchedule(ctx, uc.schedules, in.ScheduleID)
	if err != nil {
		return nil, err
	}

	prev := s.UpdatedAt
	now := uc.clock.Now()
	s.Enabled = in.Enabled
	if err := planNextRun(s, now, nil); err != nil {
		return nil, err
	}
	s.UpdatedAt = now
	if err := uc.schedules.Update(ctx, s, prev); err != nil {
		return nil, fmt.Errorf("save schedule: %w", err)
	}
	uc.logger.Info("schedule toggled", "schedule", s.ID, "enabled", s.Enabled)
	return &UpdateScheduleOutput{Schedule: s}, nil
}

// DeleteSchedule removes a schedule. Tasks it created are kept.
type DeleteSchedule struct {
	schedules domain.ScheduleRepository
	logger    *slog.Logger
}

// NewDeleteSchedule creates a new DeleteSchedule use case.
func NewDeleteSchedule(schedules domain.ScheduleRepository, logger *slog.Logger) *DeleteSchedule {
	return &DeleteSchedule{schedules: schedules, logger: orDiscard(logger)}
}

// Execute deletes the schedule identified by ID or name.
func (uc *DeleteSchedule) Execute(ctx context.Context, scheduleID string) error {
	s, err := shared.GetSchedule(ctx, uc.schedules, scheduleID)
	if err != nil {
		return err
	}
	if err := uc.schedules.Delete(ctx, s.ID); err != nil {
		return fmt.Errorf("delete schedule: %w", err)
	}
	uc.logger.Info("schedule deleted", "schedule", s.ID, "name", s.Name)
	return nil
}

// ListSchedules lists schedules.
type ListSchedules struct {
	schedules domain.ScheduleRepository
}

// NewListSchedules creates a new ListSchedules use case.
func NewListSchedules(schedules domain.ScheduleRepository) *ListSchedules {
	return &ListSchedules{schedules: schedules}
}

// Execute returns schedules matching filter.
func (uc *ListSchedules) Execute(ctx context.Context, filter domain.ScheduleFilter) ([]*domain.ScheduledTask, error) {
	out, err := uc.schedules.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	return out, nil
}

// GetSchedule shows one schedule.
type GetSchedule struct {
	schedules domain.ScheduleRepository
}

// NewGetSchedule creates a new GetSchedule use case.
func NewGetSchedule(schedules domain.ScheduleRepository) *GetSchedule {
	return &GetSchedule{schedules: schedules}
}

// Execute returns the schedule identified by ID or name.
func (uc *GetSchedule) Execute(ctx context.Context, scheduleID string) (*domain.ScheduledTask, error) {
	return shared.GetSchedule(ctx, uc.schedules, scheduleID)
}

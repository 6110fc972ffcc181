package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/runoshun/agent-swarm/internal/domain"
)

// ApplySchedulesInput contains schedule definitions keyed by name.
type ApplySchedulesInput struct {
	Caller    domain.Caller
	Schedules []domain.ScheduledTask
}

// ApplySchedulesOutput lists what changed.
type ApplySchedulesOutput struct {
	Created []string
	Updated []string
}

// ApplySchedules creates or updates schedules by name from a manifest.
// All definitions are validated before anything is written.
type ApplySchedules struct {
	schedules domain.ScheduleRepository
	agents    domain.AgentRepository
	ids       domain.IDGenerator
	clock     domain.Clock
	logger    *slog.Logger
}

// NewApplySchedules creates a new ApplySchedules use case.
func NewApplySchedules(schedules domain.ScheduleRepository, agents domain.AgentRepository, ids domain.IDGenerator, clock domain.Clock, logger *slog.Logger) *ApplySchedules {
	return &ApplySchedules{schedules: schedules, agents: agents, ids: ids, clock: clock, logger: orDiscard(logger)}
}

// Execute applies the manifest.
func (uc *ApplySchedules) Execute(ctx context.Context, in ApplySchedulesInput) (*ApplySchedulesOutput, error) {
	now := uc.clock.Now()
	seen := make(map[string]bool)
	planned := make([]*domain.ScheduledTask, 0, len(in.Schedules))
	existing := make([]bool, 0, len(in.Schedules))
	prevUpdated := make([]time.Time, 0, len(in.Schedules))

	for i := range in.Schedules {
		def := in.Schedules[i]
		def.Name = strings.TrimSpace(def.Name)
		def.TaskTemplate = strings.TrimSpace(def.TaskTemplate)
		def.CronExpression = strings.TrimSpace(def.CronExpression)
		if def.Timezone == "" {
			def.Timezone = domain.DefaultTimezone
		}
		if def.Priority == 0 {
			def.Priority = domain.DefaultPriority
		}
		def.Tags = domain.NormalizeTags(def.Tags)
		if seen[def.Name] {
			return nil, fmt.Errorf("%w: duplicate schedule %q in manifest", domain.ErrValidation, def.Name)
		}
		seen[def.Name] = true

		if err := validateSchedule(ctx, uc.agents, &def); err != nil {
			return nil, fmt.Errorf("schedule %q: %w", def.Name, err)
		}

		current, err := uc.schedules.GetByName(ctx, def.Name)
		if err != nil {
			return nil, fmt.Errorf("get schedule: %w", err)
		}
		s := &def
		var prev time.Time
		if current != nil {
			prev = current.UpdatedAt
			s = current
			s.TaskTemplate = def.TaskTemplate
			s.CronExpression = def.CronExpression
			s.IntervalMs = def.IntervalMs
			s.Timezone = def.Timezone
			s.TargetAgentID = def.TargetAgentID
			s.TaskType = def.TaskType
			s.Tags = def.Tags
			s.Priority = def.Priority
			s.Enabled = def.Enabled
		} else {
			s.ID = uc.ids.NewID()
			s.CreatedByAgentID = in.Caller.AgentID
			s.CreatedAt = now
		}
		s.UpdatedAt = now
		if err := planNextRun(s, now, nil); err != nil {
			return nil, fmt.Errorf("schedule %q: %w", def.Name, err)
		}
		planned = append(planned, s)
		existing = append(existing, current != nil)
		prevUpdated = append(prevUpdated, prev)
	}

	out := &ApplySchedulesOutput{}
	for i, s := range planned {
		if existing[i] {
			if err := uc.schedules.Update(ctx, s, prevUpdated[i]); err != nil {
				return out, fmt.Errorf("update schedule %q: %w", s.Name, err)
			}
			out.Updated = append(out.Updated, s.Name)
			continue
		}
		if err := uc.schedules.Create(ctx, s); err != nil {
			return out, fmt.Errorf("create schedule %q: %w", s.Name, err)
		}
		out.Created = append(out.Created, s.Name)
	}
	uc.logger.Info("schedules applied", "created", len(out.Created), "updated", len(out.Updated))
	return out, nil
}

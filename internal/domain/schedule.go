package domain

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata" // Schedules must resolve timezones on hosts without a zoneinfo database.

	"github.com/robfig/cron/v3"
)

// DefaultTimezone is used when a schedule does not name one.
const DefaultTimezone = "UTC"

// ScheduledTask is a template that produces tasks on a cadence.
// Exactly one of CronExpression or IntervalMs is set.
// Fields are ordered to minimize memory padding.
type ScheduledTask struct {
	CreatedAt        time.Time  `json:"createdAt" yaml:"-"`
	UpdatedAt        time.Time  `json:"updatedAt" yaml:"-"`
	LastRunAt        *time.Time `json:"lastRunAt,omitempty" yaml:"-"`
	NextRunAt        *time.Time `json:"nextRunAt,omitempty" yaml:"-"`
	ID               string     `json:"id" yaml:"-"`
	Name             string     `json:"name" yaml:"name"`
	TaskTemplate     string     `json:"taskTemplate" yaml:"template"`
	CronExpression   string     `json:"cronExpression,omitempty" yaml:"cron,omitempty"`
	Timezone         string     `json:"timezone" yaml:"timezone,omitempty"`
	TargetAgentID    string     `json:"targetAgentId,omitempty" yaml:"agent,omitempty"`
	TaskType         string     `json:"taskType,omitempty" yaml:"type,omitempty"`
	CreatedByAgentID string     `json:"createdByAgentId,omitempty" yaml:"-"`
	LastError        string     `json:"lastError,omitempty" yaml:"-"`
	Tags             []string   `json:"tags,omitempty" yaml:"tags,omitempty"`
	IntervalMs       int64      `json:"intervalMs,omitempty" yaml:"interval_ms,omitempty"`
	Priority         int        `json:"priority" yaml:"priority,omitempty"`
	Enabled          bool       `json:"enabled" yaml:"enabled"`
}

// IsCron returns true if the schedule uses a cron expression.
func (s *ScheduledTask) IsCron() bool {
	return s.CronExpression != ""
}

// IsDue reports whether the schedule should materialize at now.
func (s *ScheduledTask) IsDue(now time.Time) bool {
	return s.Enabled && s.NextRunAt != nil && !s.NextRunAt.After(now)
}

// ValidateCadence checks that exactly one cadence is set and that it is usable.
func (s *ScheduledTask) ValidateCadence() error {
	hasCron := strings.TrimSpace(s.CronExpression) != ""
	hasInterval := s.IntervalMs != 0
	switch {
	case hasCron && hasInterval:
		return ErrBothCadences
	case !hasCron && !hasInterval:
		return ErrNoCadence
	case hasInterval && s.IntervalMs < 0:
		return fmt.Errorf("%w: interval must be positive", ErrInvalidSchedule)
	}
	if _, err := s.location(); err != nil {
		return err
	}
	if hasCron {
		if _, err := parseCron(s.CronExpression); err != nil {
			return err
		}
	}
	return nil
}

// CalculateNextRun returns the next materialization time strictly after from.
// Cron schedules are evaluated in the schedule's timezone at minute granularity;
// interval schedules add IntervalMs to from.
func CalculateNextRun(s *ScheduledTask, from time.Time) (time.Time, error) {
	if err := s.ValidateCadence(); err != nil {
		return time.Time{}, err
	}
	if !s.IsCron() {
		return from.Add(time.Duration(s.IntervalMs) * time.Millisecond), nil
	}

	loc, _ := s.location()
	sched, _ := parseCron(s.CronExpression)
	next := sched.Next(from.In(loc))
	if next.IsZero() {
		return time.Time{}, ErrNoFutureRun
	}
	return next.UTC(), nil
}

func (s *ScheduledTask) location() (*time.Location, error) {
	tz := s.Timezone
	if tz == "" {
		tz = DefaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("%w: unknown timezone %q", ErrInvalidSchedule, tz)
	}
	return loc, nil
}

func parseCron(expr string) (cron.Schedule, error) {
	sched, err := cron.ParseStandard(strings.TrimSpace(expr))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidSchedule, err.Error())
	}
	return sched, nil
}

// ScheduleFilter specifies criteria for listing schedules.
type ScheduleFilter struct {
	EnabledOnly bool
}

// SchedulePatch holds the editable fields of a schedule. Nil fields are left unchanged.
// Setting CronExpression clears IntervalMs and vice versa.
type SchedulePatch struct {
	TaskTemplate   *string
	CronExpression *string
	IntervalMs     *int64
	Timezone       *string
	TargetAgentID  *string
	TaskType       *string
	Tags           *[]string
	Priority       *int
}

// IsEmpty returns true if the patch changes nothing.
func (p SchedulePatch) IsEmpty() bool {
	return p.TaskTemplate == nil && p.CronExpression == nil && p.IntervalMs == nil &&
		p.Timezone == nil && p.TargetAgentID == nil && p.TaskType == nil &&
		p.Tags == nil && p.Priority == nil
}

// Apply writes the patch onto s.
func (p SchedulePatch) Apply(s *ScheduledTask) {
	if p.TaskTemplate != nil {
		s.TaskTemplate = *p.TaskTemplate
	}
	if p.CronExpression != nil {
		s.CronExpression = *p.CronExpression
		if *p.CronExpression != "" {
			s.IntervalMs = 0
		}
	}
	if p.IntervalMs != nil {
		s.IntervalMs = *p.IntervalMs
		if *p.IntervalMs != 0 {
			s.CronExpression = ""
		}
	}
	if p.Timezone != nil {
		s.Timezone = *p.Timezone
	}
	if p.TargetAgentID != nil {
		s.TargetAgentID = *p.TargetAgentID
	}
	if p.TaskType != nil {
		s.TaskType = *p.TaskType
	}
	if p.Tags != nil {
		s.Tags = NormalizeTags(*p.Tags)
	}
	if p.Priority != nil {
		s.Priority = *p.Priority
	}
}

// TaskFromSchedule builds the task a schedule materializes at due.
func TaskFromSchedule(s *ScheduledTask, id string, due, now time.Time) *Task {
	status := StatusUnassigned
	if s.TargetAgentID != "" {
		status = StatusOffered
	}
	return &Task{
		ID:             id,
		Description:    s.TaskTemplate,
		Status:         status,
		AgentID:        s.TargetAgentID,
		Source:         SourceSchedule,
		TaskType:       s.TaskType,
		CreatedBy:      s.CreatedByAgentID,
		IdempotencyKey: ScheduleIdempotencyKey(s.ID, due),
		Tags:           append([]string(nil), s.Tags...),
		Priority:       s.Priority,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

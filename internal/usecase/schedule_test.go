package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/runoshun/agent-swarm/internal/domain"
	"github.com/runoshun/agent-swarm/internal/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (f *fixture) tick() *usecase.TickScheduler {
	return usecase.NewTickScheduler(f.schedules, f.tasks, f.agents, f.notifier, f.ids, f.clock, f.metrics, nil)
}

func (f *fixture) addSchedule(s *domain.ScheduledTask) *domain.ScheduledTask {
	if s.Timezone == "" {
		s.Timezone = domain.DefaultTimezone
	}
	if s.Priority == 0 {
		s.Priority = domain.DefaultPriority
	}
	f.schedules.Schedules[s.ID] = s
	return s
}

func TestCreateSchedule_Execute(t *testing.T) {
	t.Run("cron schedule gets first run", func(t *testing.T) {
		f := newFixture()

		out, err := usecase.NewCreateSchedule(f.schedules, f.agents, f.ids, f.clock, nil).Execute(context.Background(), usecase.CreateScheduleInput{
			Name:           "standup",
			TaskTemplate:   "post the standup summary",
			CronExpression: "0 9 * * *",
		})

		require.NoError(t, err)
		s := out.Schedule
		assert.True(t, s.Enabled)
		assert.Equal(t, domain.DefaultTimezone, s.Timezone)
		require.NotNil(t, s.NextRunAt)
		assert.Equal(t, time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC), *s.NextRunAt)
		assert.Len(t, f.schedules.Schedules, 1)
	})

	t.Run("interval schedule with start time", func(t *testing.T) {
		f := newFixture()
		start := baseTime.Add(5 * time.Minute)

		out, err := usecase.NewCreateSchedule(f.schedules, f.agents, f.ids, f.clock, nil).Execute(context.Background(), usecase.CreateScheduleInput{
			Name:         "poll",
			TaskTemplate: "poll the queue",
			IntervalMs:   60_000,
			StartAt:      &start,
		})

		require.NoError(t, err)
		assert.Equal(t, start, *out.Schedule.NextRunAt)
	})

	t.Run("disabled schedule has no next run", func(t *testing.T) {
		f := newFixture()

		out, err := usecase.NewCreateSchedule(f.schedules, f.agents, f.ids, f.clock, nil).Execute(context.Background(), usecase.CreateScheduleInput{
			Name:         "later",
			TaskTemplate: "x",
			IntervalMs:   1000,
			Enabled:      ptr(false),
		})

		require.NoError(t, err)
		assert.Nil(t, out.Schedule.NextRunAt)
	})

	t.Run("validation", func(t *testing.T) {
		tests := []struct {
			name string
			in   usecase.CreateScheduleInput
			want error
		}{
			{"no name", usecase.CreateScheduleInput{TaskTemplate: "x", IntervalMs: 1}, domain.ErrEmptyName},
			{"no template", usecase.CreateScheduleInput{Name: "n", IntervalMs: 1}, domain.ErrEmptyDescription},
			{"no cadence", usecase.CreateScheduleInput{Name: "n", TaskTemplate: "x"}, domain.ErrNoCadence},
			{"both cadences", usecase.CreateScheduleInput{Name: "n", TaskTemplate: "x", IntervalMs: 1, CronExpression: "* * * * *"}, domain.ErrBothCadences},
			{"bad cron", usecase.CreateScheduleInput{Name: "n", TaskTemplate: "x", CronExpression: "every day"}, domain.ErrInvalidSchedule},
			{"bad timezone", usecase.CreateScheduleInput{Name: "n", TaskTemplate: "x", IntervalMs: 1, Timezone: "Mars/Olympus"}, domain.ErrInvalidSchedule},
			{"unknown agent", usecase.CreateScheduleInput{Name: "n", TaskTemplate: "x", IntervalMs: 1, TargetAgentID: "ghost"}, domain.ErrAgentNotFound},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				f := newFixture()
				_, err := usecase.NewCreateSchedule(f.schedules, f.agents, f.ids, f.clock, nil).Execute(context.Background(), tt.in)
				assert.ErrorIs(t, err, tt.want)
				assert.Empty(t, f.schedules.Schedules)
			})
		}
	})

	t.Run("duplicate name", func(t *testing.T) {
		f := newFixture()
		f.addSchedule(&domain.ScheduledTask{ID: "s1", Name: "standup", TaskTemplate: "x", IntervalMs: 1})

		_, err := usecase.NewCreateSchedule(f.schedules, f.agents, f.ids, f.clock, nil).Execute(context.Background(), usecase.CreateScheduleInput{
			Name: "standup", TaskTemplate: "y", IntervalMs: 1,
		})

		assert.ErrorIs(t, err, domain.ErrScheduleExists)
	})
}

func TestUpdateSchedule_Execute(t *testing.T) {
	t.Run("switching to cron recomputes next run", func(t *testing.T) {
		f := newFixture()
		next := baseTime.Add(time.Minute)
		f.addSchedule(&domain.ScheduledTask{ID: "s1", Name: "poll", TaskTemplate: "x", IntervalMs: 60_000, Enabled: true, NextRunAt: &next})

		out, err := usecase.NewUpdateSchedule(f.schedules, f.agents, f.clock, nil).Execute(context.Background(), usecase.UpdateScheduleInput{
			ScheduleID: "poll",
			Patch:      domain.SchedulePatch{CronExpression: ptr("30 10 * * *")},
		})

		require.NoError(t, err)
		assert.Zero(t, out.Schedule.IntervalMs)
		assert.Equal(t, time.Date(2024, 1, 1, 10, 30, 0, 0, time.UTC), *out.Schedule.NextRunAt)
	})

	t.Run("edit racing a run does not roll it back", func(t *testing.T) {
		f := newFixture()
		next := baseTime.Add(time.Minute)
		f.addSchedule(&domain.ScheduledTask{ID: "s1", Name: "poll", TaskTemplate: "x", IntervalMs: 60_000, Enabled: true, NextRunAt: &next})
		ranAt := baseTime.Add(time.Second)
		f.schedules.AfterRead = func() {
			stored := f.schedules.Schedules["s1"]
			stored.LastRunAt = &ranAt
			stored.UpdatedAt = ranAt
		}

		_, err := usecase.NewUpdateSchedule(f.schedules, f.agents, f.clock, nil).Execute(context.Background(), usecase.UpdateScheduleInput{
			ScheduleID: "s1",
			Patch:      domain.SchedulePatch{Priority: ptr(10)},
		})

		assert.ErrorIs(t, err, domain.ErrScheduleModified)
		stored := f.schedules.Schedules["s1"]
		require.NotNil(t, stored.LastRunAt)
		assert.Equal(t, ranAt, *stored.LastRunAt)
		assert.NotEqual(t, 10, stored.Priority)
	})

	t.Run("nothing to update", func(t *testing.T) {
		f := newFixture()
		_, err := usecase.NewUpdateSchedule(f.schedules, f.agents, f.clock, nil).Execute(context.Background(), usecase.UpdateScheduleInput{ScheduleID: "s1"})
		assert.ErrorIs(t, err, domain.ErrNoFieldsToUpdate)
	})

	t.Run("missing schedule", func(t *testing.T) {
		f := newFixture()
		_, err := usecase.NewUpdateSchedule(f.schedules, f.agents, f.clock, nil).Execute(context.Background(), usecase.UpdateScheduleInput{
			ScheduleID: "nope", Patch: domain.SchedulePatch{Priority: ptr(10)},
		})
		assert.ErrorIs(t, err, domain.ErrScheduleNotFound)
	})
}

func TestSetScheduleEnabled_Execute(t *testing.T) {
	f := newFixture()
	f.addSchedule(&domain.ScheduledTask{ID: "s1", Name: "poll", TaskTemplate: "x", IntervalMs: 60_000, LastError: "boom"})
	uc := usecase.NewSetScheduleEnabled(f.schedules, f.clock, nil)

	out, err := uc.Execute(context.Background(), usecase.SetScheduleEnabledInput{ScheduleID: "s1", Enabled: true})
	require.NoError(t, err)
	assert.Equal(t, baseTime.Add(time.Minute), *out.Schedule.NextRunAt)
	assert.Empty(t, out.Schedule.LastError)

	out, err = uc.Execute(context.Background(), usecase.SetScheduleEnabledInput{ScheduleID: "s1", Enabled: false})
	require.NoError(t, err)
	assert.Nil(t, out.Schedule.NextRunAt)
	assert.False(t, f.schedules.Schedules["s1"].Enabled)
}

func TestDeleteSchedule_KeepsTasks(t *testing.T) {
	f := newFixture()
	f.addSchedule(&domain.ScheduledTask{ID: "s1", Name: "poll", TaskTemplate: "x", IntervalMs: 1})
	task := pooledTask("t1")
	task.Source = domain.SourceSchedule
	f.tasks.Add(task)

	require.NoError(t, usecase.NewDeleteSchedule(f.schedules, nil).Execute(context.Background(), "poll"))

	assert.Empty(t, f.schedules.Schedules)
	assert.Len(t, f.tasks.Tasks, 1)
}

func TestTickScheduler_Execute(t *testing.T) {
	t.Run("materializes due schedule and advances it", func(t *testing.T) {
		f := newFixture(worker("w1"))
		due := baseTime.Add(-time.Second)
		f.addSchedule(&domain.ScheduledTask{
			ID: "s1", Name: "report", TaskTemplate: "weekly report", CronExpression: "0 10 * * *",
			TargetAgentID: "w1", Tags: []string{"report"}, Enabled: true, NextRunAt: &due,
		})

		out, err := f.tick().Execute(context.Background(), usecase.TickSchedulerInput{})

		require.NoError(t, err)
		require.Len(t, out.Fired, 1)
		fired := out.Fired[0]
		assert.Equal(t, due, fired.Due)
		assert.Equal(t, time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC), fired.NextRunAt)

		task := f.tasks.Tasks[fired.TaskID]
		require.NotNil(t, task)
		assert.Equal(t, "weekly report", task.Description)
		assert.Equal(t, domain.StatusOffered, task.Status)
		assert.Equal(t, "w1", task.AgentID)
		assert.Equal(t, domain.SourceSchedule, task.Source)
		assert.Equal(t, domain.ScheduleIdempotencyKey("s1", due), task.IdempotencyKey)

		stored := f.schedules.Schedules["s1"]
		assert.Equal(t, baseTime, *stored.LastRunAt)
		assert.Equal(t, fired.NextRunAt, *stored.NextRunAt)
		assert.Equal(t, 1, f.metrics.ScheduleFires[usecase.FireMaterialized])
		require.Len(t, f.notifier.Recorded(), 1)
	})

	t.Run("not yet due", func(t *testing.T) {
		f := newFixture()
		next := baseTime.Add(time.Second)
		f.addSchedule(&domain.ScheduledTask{ID: "s1", Name: "n", TaskTemplate: "x", IntervalMs: 1000, Enabled: true, NextRunAt: &next})

		out, err := f.tick().Execute(context.Background(), usecase.TickSchedulerInput{})

		require.NoError(t, err)
		assert.Empty(t, out.Fired)
		assert.Empty(t, f.tasks.Tasks)
	})

	t.Run("missed ticks fire once and advance from now", func(t *testing.T) {
		f := newFixture()
		due := baseTime.Add(-3 * time.Hour)
		f.addSchedule(&domain.ScheduledTask{ID: "s1", Name: "hourly", TaskTemplate: "x", IntervalMs: time.Hour.Milliseconds(), Enabled: true, NextRunAt: &due})

		out, err := f.tick().Execute(context.Background(), usecase.TickSchedulerInput{})
		require.NoError(t, err)
		require.Len(t, out.Fired, 1)
		assert.Equal(t, baseTime.Add(time.Hour), out.Fired[0].NextRunAt)

		again, err := f.tick().Execute(context.Background(), usecase.TickSchedulerInput{})
		require.NoError(t, err)
		assert.Empty(t, again.Fired)
		assert.Len(t, f.tasks.Tasks, 1)
	})

	t.Run("schedule disabled after listing does not fire", func(t *testing.T) {
		f := newFixture()
		due := baseTime
		s := f.addSchedule(&domain.ScheduledTask{ID: "s1", Name: "n", TaskTemplate: "x", IntervalMs: 1000, Enabled: true, NextRunAt: &due})
		stale := *s
		s.Enabled = false
		s.NextRunAt = nil

		// Simulate the race: the tick holds a copy read before the disable.
		f.schedules.Schedules["s1"] = s
		err := f.schedules.RecordRun(context.Background(), &stale, due, domain.TaskFromSchedule(&stale, "t1", due, baseTime))

		assert.ErrorIs(t, err, domain.ErrScheduleModified)
		assert.Empty(t, f.tasks.Tasks)
	})

	t.Run("concurrent change is skipped", func(t *testing.T) {
		f := newFixture()
		due := baseTime
		f.addSchedule(&domain.ScheduledTask{ID: "s1", Name: "n", TaskTemplate: "x", IntervalMs: 1000, Enabled: true, NextRunAt: &due})
		f.schedules.RecordRunErr = domain.ErrScheduleModified

		out, err := f.tick().Execute(context.Background(), usecase.TickSchedulerInput{})

		require.NoError(t, err)
		assert.Equal(t, []string{"n"}, out.Skipped)
		assert.Empty(t, out.Fired)
		assert.Equal(t, 1, f.metrics.ScheduleFires[usecase.FireSkipped])
	})

	t.Run("schedule without future run is disabled", func(t *testing.T) {
		f := newFixture()
		due := baseTime
		f.addSchedule(&domain.ScheduledTask{ID: "s1", Name: "never", TaskTemplate: "x", CronExpression: "0 0 30 2 *", Enabled: true, NextRunAt: &due})

		out, err := f.tick().Execute(context.Background(), usecase.TickSchedulerInput{})

		require.NoError(t, err)
		assert.Equal(t, []string{"never"}, out.Disabled)
		assert.Empty(t, f.tasks.Tasks)
		stored := f.schedules.Schedules["s1"]
		assert.False(t, stored.Enabled)
		assert.Nil(t, stored.NextRunAt)
		assert.NotEmpty(t, stored.LastError)
	})

	t.Run("missing target agent sends task to the pool", func(t *testing.T) {
		f := newFixture()
		due := baseTime
		f.addSchedule(&domain.ScheduledTask{ID: "s1", Name: "n", TaskTemplate: "x", IntervalMs: 1000, TargetAgentID: "gone", Enabled: true, NextRunAt: &due})

		out, err := f.tick().Execute(context.Background(), usecase.TickSchedulerInput{})

		require.NoError(t, err)
		require.Len(t, out.Fired, 1)
		task := f.tasks.Tasks[out.Fired[0].TaskID]
		assert.Equal(t, domain.StatusUnassigned, task.Status)
		assert.Empty(t, task.AgentID)
	})
}

func TestRunScheduleNow_Execute(t *testing.T) {
	f := newFixture()
	next := baseTime.Add(time.Hour)
	f.addSchedule(&domain.ScheduledTask{ID: "s1", Name: "n", TaskTemplate: "x", IntervalMs: time.Hour.Milliseconds(), Enabled: true, NextRunAt: &next})

	out, err := usecase.NewRunScheduleNow(f.schedules, f.tasks, f.agents, f.notifier, f.ids, f.clock, f.metrics, nil).Execute(context.Background(), "n")

	require.NoError(t, err)
	assert.Empty(t, out.Warnings)
	assert.Equal(t, domain.SourceSchedule, out.Task.Source)
	stored := f.schedules.Schedules["s1"]
	assert.Equal(t, baseTime, *stored.LastRunAt)
	assert.Equal(t, next, *stored.NextRunAt, "cadence is untouched")
}

func TestApplySchedules_Execute(t *testing.T) {
	t.Run("creates and updates by name", func(t *testing.T) {
		f := newFixture()
		f.addSchedule(&domain.ScheduledTask{ID: "s1", Name: "existing", TaskTemplate: "old", IntervalMs: 1000, Enabled: true, CreatedByAgentID: "lead-1"})

		out, err := usecase.NewApplySchedules(f.schedules, f.agents, f.ids, f.clock, nil).Execute(context.Background(), usecase.ApplySchedulesInput{
			Schedules: []domain.ScheduledTask{
				{Name: "existing", TaskTemplate: "new", CronExpression: "0 12 * * *", Enabled: true},
				{Name: "fresh", TaskTemplate: "hello", IntervalMs: 60_000, Enabled: true},
			},
		})

		require.NoError(t, err)
		assert.Equal(t, []string{"fresh"}, out.Created)
		assert.Equal(t, []string{"existing"}, out.Updated)

		existing := f.schedules.Schedules["s1"]
		assert.Equal(t, "new", existing.TaskTemplate)
		assert.Zero(t, existing.IntervalMs)
		assert.Equal(t, "lead-1", existing.CreatedByAgentID)
		assert.Equal(t, time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC), *existing.NextRunAt)
		assert.Len(t, f.schedules.Schedules, 2)
	})

	t.Run("invalid definition writes nothing", func(t *testing.T) {
		f := newFixture()

		_, err := usecase.NewApplySchedules(f.schedules, f.agents, f.ids, f.clock, nil).Execute(context.Background(), usecase.ApplySchedulesInput{
			Schedules: []domain.ScheduledTask{
				{Name: "ok", TaskTemplate: "x", IntervalMs: 1000, Enabled: true},
				{Name: "bad", TaskTemplate: "x"},
			},
		})

		assert.ErrorIs(t, err, domain.ErrNoCadence)
		assert.Empty(t, f.schedules.Schedules)
	})

	t.Run("duplicate names rejected", func(t *testing.T) {
		f := newFixture()

		_, err := usecase.NewApplySchedules(f.schedules, f.agents, f.ids, f.clock, nil).Execute(context.Background(), usecase.ApplySchedulesInput{
			Schedules: []domain.ScheduledTask{
				{Name: "a", TaskTemplate: "x", IntervalMs: 1000},
				{Name: "a", TaskTemplate: "y", IntervalMs: 1000},
			},
		})

		assert.ErrorIs(t, err, domain.ErrValidation)
	})
}

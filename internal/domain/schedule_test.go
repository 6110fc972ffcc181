package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateNextRun_DailyCronUTC(t *testing.T) {
	s := &ScheduledTask{CronExpression: "0 9 * * *", Timezone: "UTC"}
	from := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

	got, err := CalculateNextRun(s, from)

	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC), got)
}

func TestCalculateNextRun_Deterministic(t *testing.T) {
	s := &ScheduledTask{CronExpression: "*/15 * * * *"}
	from := time.Date(2024, 3, 5, 12, 7, 30, 0, time.UTC)

	first, err := CalculateNextRun(s, from)
	require.NoError(t, err)
	second, err := CalculateNextRun(s, from)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, time.Date(2024, 3, 5, 12, 15, 0, 0, time.UTC), first)
}

func TestCalculateNextRun_StrictlyAfter(t *testing.T) {
	s := &ScheduledTask{CronExpression: "0 9 * * *"}
	from := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

	got, err := CalculateNextRun(s, from)

	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC), got)
}

func TestCalculateNextRun_Timezone(t *testing.T) {
	s := &ScheduledTask{CronExpression: "0 9 * * *", Timezone: "Asia/Tokyo"}
	from := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC) // 19:00 in Tokyo

	got, err := CalculateNextRun(s, from)

	require.NoError(t, err)
	// 09:00 JST is 00:00 UTC.
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), got)
}

func TestCalculateNextRun_Interval(t *testing.T) {
	s := &ScheduledTask{IntervalMs: 90_000}
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	got, err := CalculateNextRun(s, from)

	require.NoError(t, err)
	assert.Equal(t, from.Add(90*time.Second), got)
}

func TestCalculateNextRun_Errors(t *testing.T) {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name     string
		schedule ScheduledTask
		wantErr  error
	}{
		{"no cadence", ScheduledTask{}, ErrNoCadence},
		{"both cadences", ScheduledTask{CronExpression: "* * * * *", IntervalMs: 1000}, ErrBothCadences},
		{"malformed cron", ScheduledTask{CronExpression: "not a cron"}, ErrInvalidSchedule},
		{"six fields", ScheduledTask{CronExpression: "0 0 9 * * *"}, ErrInvalidSchedule},
		{"unknown timezone", ScheduledTask{CronExpression: "0 9 * * *", Timezone: "Mars/Olympus"}, ErrInvalidSchedule},
		{"negative interval", ScheduledTask{IntervalMs: -5}, ErrInvalidSchedule},
		{"never occurs", ScheduledTask{CronExpression: "0 0 30 2 *"}, ErrNoFutureRun},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CalculateNextRun(&tt.schedule, from)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, KindInvalidSchedule, KindOf(err))
		})
	}
}

func TestScheduledTask_IsDue(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	assert.True(t, (&ScheduledTask{Enabled: true, NextRunAt: &past}).IsDue(now))
	assert.True(t, (&ScheduledTask{Enabled: true, NextRunAt: &now}).IsDue(now))
	assert.False(t, (&ScheduledTask{Enabled: true, NextRunAt: &future}).IsDue(now))
	assert.False(t, (&ScheduledTask{Enabled: false, NextRunAt: &past}).IsDue(now))
	assert.False(t, (&ScheduledTask{Enabled: true}).IsDue(now))
}

func TestSchedulePatch_Apply(t *testing.T) {
	s := &ScheduledTask{CronExpression: "0 9 * * *", TaskTemplate: "old"}
	interval := int64(60_000)
	template := "new"

	patch := SchedulePatch{IntervalMs: &interval, TaskTemplate: &template}
	require.False(t, patch.IsEmpty())
	patch.Apply(s)

	assert.Equal(t, "", s.CronExpression)
	assert.Equal(t, int64(60_000), s.IntervalMs)
	assert.Equal(t, "new", s.TaskTemplate)
	assert.True(t, SchedulePatch{}.IsEmpty())
}

func TestTaskFromSchedule(t *testing.T) {
	now := time.Date(2024, 1, 2, 9, 0, 5, 0, time.UTC)
	due := time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC)
	s := &ScheduledTask{
		ID:            "s1",
		TaskTemplate:  "Daily report",
		TargetAgentID: "a1",
		TaskType:      "report",
		Tags:          []string{"daily"},
		Priority:      70,
	}

	task := TaskFromSchedule(s, "t1", due, now)

	assert.Equal(t, "t1", task.ID)
	assert.Equal(t, "Daily report", task.Description)
	assert.Equal(t, StatusOffered, task.Status)
	assert.Equal(t, "a1", task.AgentID)
	assert.Equal(t, SourceSchedule, task.Source)
	assert.Equal(t, "report", task.TaskType)
	assert.Equal(t, []string{"daily"}, task.Tags)
	assert.Equal(t, 70, task.Priority)
	assert.Equal(t, ScheduleIdempotencyKey("s1", due), task.IdempotencyKey)

	s.TargetAgentID = ""
	assert.Equal(t, StatusUnassigned, TaskFromSchedule(s, "t2", due, now).Status)
}

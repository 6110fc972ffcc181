package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTask_CanBeClaimedBy(t *testing.T) {
	tests := []struct {
		name    string
		task    Task
		agentID string
		want    bool
	}{
		{"pool task, any agent", Task{Status: StatusUnassigned}, "a1", true},
		{"offered to me", Task{Status: StatusOffered, AgentID: "a1"}, "a1", true},
		{"offered to someone else", Task{Status: StatusOffered, AgentID: "a2"}, "a1", false},
		{"already in progress", Task{Status: StatusInProgress, AgentID: "a1"}, "a1", false},
		{"terminal", Task{Status: StatusCompleted}, "a1", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.task.CanBeClaimedBy(tt.agentID))
		})
	}
}

func TestValidatePriority(t *testing.T) {
	assert.NoError(t, ValidatePriority(0))
	assert.NoError(t, ValidatePriority(100))
	assert.ErrorIs(t, ValidatePriority(-1), ErrInvalidPriority)
	assert.ErrorIs(t, ValidatePriority(101), ErrValidation)
}

func TestNormalizeTags(t *testing.T) {
	assert.Nil(t, NormalizeTags(nil))
	assert.Nil(t, NormalizeTags([]string{" ", ""}))
	assert.Equal(t, []string{"a", "b"}, NormalizeTags([]string{" b", "a", "b ", "a"}))
}

func TestScheduleIdempotencyKey(t *testing.T) {
	due := time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, "s1@1704186000000", ScheduleIdempotencyKey("s1", due))
}

func TestTaskFilter_Matches(t *testing.T) {
	task := &Task{
		Status:   StatusOffered,
		AgentID:  "a1",
		EpicID:   "e1",
		Source:   SourceSlack,
		ThreadID: "t1",
		Tags:     []string{"urgent"},
	}

	assert.True(t, TaskFilter{}.Matches(task))
	assert.True(t, TaskFilter{Statuses: []Status{StatusOffered, StatusUnassigned}}.Matches(task))
	assert.False(t, TaskFilter{Statuses: []Status{StatusCompleted}}.Matches(task))
	assert.True(t, TaskFilter{AgentID: "a1", EpicID: "e1", Source: SourceSlack, ThreadID: "t1", Tag: "urgent"}.Matches(task))
	assert.False(t, TaskFilter{AgentID: "a2"}.Matches(task))
	assert.False(t, TaskFilter{Tag: "later"}.Matches(task))
}

func TestNewTaskEvent(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	task := &Task{ID: "t2", AgentID: "a1", ParentTaskID: "t1", Status: StatusOffered}

	ev := NewTaskEvent(task, now)

	require.Equal(t, "t2", ev.TaskID)
	assert.Equal(t, "a1", ev.AgentID)
	assert.Equal(t, "t1", ev.ParentTaskID)
	assert.Equal(t, StatusOffered, ev.Status)
	assert.Equal(t, now, ev.At)
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindNotFound, KindOf(ErrTaskNotFound))
	assert.Equal(t, KindConflict, KindOf(ErrClaimConflict))
	assert.Equal(t, KindInvalidTransition, KindOf(ErrTaskTerminal))
	assert.Equal(t, KindInvalidSchedule, KindOf(ErrNoCadence))
	assert.Equal(t, KindUnauthorized, KindOf(ErrMissingCaller))
	assert.Equal(t, KindValidation, KindOf(ErrEmptyDescription))
	assert.Equal(t, KindInternal, KindOf(assert.AnError))
}

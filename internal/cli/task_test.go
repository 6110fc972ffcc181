package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runoshun/agent-swarm/internal/domain"
)

func TestTaskCreate_Pool(t *testing.T) {
	env := newTestEnv()

	out, _, err := env.run(t, "task", "create", "Write the release notes", "--tag", "docs", "--priority", "70")

	require.NoError(t, err)
	assert.Contains(t, out, "Created task id-1 (unassigned)")
	task := env.tasks.Tasks["id-1"]
	require.NotNil(t, task)
	assert.Equal(t, domain.StatusUnassigned, task.Status)
	assert.Equal(t, 70, task.Priority)
	assert.Equal(t, []string{"docs"}, task.Tags)
	assert.Equal(t, domain.SourceManual, task.Source)
}

func TestTaskCreate_OfferedToAgent(t *testing.T) {
	env := newTestEnv(worker("worker-1"))

	out, _, err := env.run(t, "task", "create", "Fix flaky test", "--agent", "worker-1")

	require.NoError(t, err)
	assert.Contains(t, out, "(offered)")
	assert.Equal(t, "worker-1", env.tasks.Tasks["id-1"].AgentID)
	require.Len(t, env.notifier.Recorded(), 1)
}

func TestTaskCreate_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want error
	}{
		{"empty description", []string{"task", "create", "   "}, domain.ErrEmptyDescription},
		{"unknown agent", []string{"task", "create", "x", "--agent", "ghost"}, domain.ErrAgentNotFound},
		{"priority out of range", []string{"task", "create", "x", "--priority", "101"}, domain.ErrInvalidPriority},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv()
			_, _, err := env.run(t, tt.args...)
			assert.ErrorIs(t, err, tt.want)
			assert.Empty(t, env.tasks.Tasks)
		})
	}
}

func TestTaskList(t *testing.T) {
	env := newTestEnv(worker("worker-1"))
	_, _, err := env.run(t, "task", "create", "Pool task")
	require.NoError(t, err)
	_, _, err = env.run(t, "task", "create", "Offered task", "--agent", "worker-1")
	require.NoError(t, err)

	out, _, err := env.run(t, "task", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Pool task")
	assert.Contains(t, out, "Offered task")

	out, _, err = env.run(t, "task", "list", "--status", "offered")
	require.NoError(t, err)
	assert.NotContains(t, out, "Pool task")
	assert.Contains(t, out, "Offered task")

	out, _, err = env.run(t, "task", "list", "--json")
	require.NoError(t, err)
	var tasks []*domain.Task
	require.NoError(t, json.Unmarshal([]byte(out), &tasks))
	assert.Len(t, tasks, 2)
}

func TestTaskList_Empty(t *testing.T) {
	env := newTestEnv()
	out, _, err := env.run(t, "task", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No tasks found")
}

func TestTaskList_InvalidStatus(t *testing.T) {
	env := newTestEnv()
	_, _, err := env.run(t, "task", "list", "--status", "todo")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestTaskClaim(t *testing.T) {
	env := newTestEnv(worker("worker-1"), worker("worker-2"))
	_, _, err := env.run(t, "task", "create", "Pool task")
	require.NoError(t, err)

	out, _, err := env.run(t, "--as", "worker-1", "task", "claim", "id-1")
	require.NoError(t, err)
	assert.Contains(t, out, "Claimed task id-1")
	assert.Equal(t, domain.StatusInProgress, env.tasks.Tasks["id-1"].Status)
	assert.Equal(t, "worker-1", env.tasks.Tasks["id-1"].AgentID)

	_, _, err = env.run(t, "--as", "worker-2", "task", "claim", "id-1")
	assert.ErrorIs(t, err, domain.ErrClaimConflict)
}

func TestTaskClaim_RequiresAs(t *testing.T) {
	env := newTestEnv()
	_, _, err := env.run(t, "task", "claim", "id-1")
	assert.ErrorIs(t, err, domain.ErrMissingCaller)
}

func TestTaskDecline(t *testing.T) {
	env := newTestEnv(worker("worker-1"))
	_, _, err := env.run(t, "task", "create", "Offered task", "--agent", "worker-1")
	require.NoError(t, err)

	out, _, err := env.run(t, "--as", "worker-1", "task", "decline", "id-1")

	require.NoError(t, err)
	assert.Contains(t, out, "Declined task id-1 (unassigned)")
	assert.Empty(t, env.tasks.Tasks["id-1"].AgentID)
}

func TestTaskStatus(t *testing.T) {
	env := newTestEnv(worker("worker-1"))
	_, _, err := env.run(t, "task", "create", "Pool task")
	require.NoError(t, err)
	_, _, err = env.run(t, "--as", "worker-1", "task", "claim", "id-1")
	require.NoError(t, err)

	out, _, err := env.run(t, "--as", "worker-1", "task", "status", "id-1", "completed")

	require.NoError(t, err)
	assert.Contains(t, out, "Task id-1: in_progress -> completed")
	assert.Equal(t, domain.StatusCompleted, env.tasks.Tasks["id-1"].Status)

	_, _, err = env.run(t, "--as", "worker-1", "task", "status", "id-1", "in_progress")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestTaskStatus_Unknown(t *testing.T) {
	env := newTestEnv()
	_, _, err := env.run(t, "task", "status", "id-1", "done")
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)
}

func TestTaskShow(t *testing.T) {
	env := newTestEnv()
	_, _, err := env.run(t, "task", "create", "Investigate latency", "--type", "research")
	require.NoError(t, err)

	out, _, err := env.run(t, "task", "show", "id-1")

	require.NoError(t, err)
	assert.Contains(t, out, "ID: id-1")
	assert.Contains(t, out, "Type: research")
	assert.Contains(t, out, "Investigate latency")

	_, _, err = env.run(t, "task", "show", "missing")
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)
}

func TestTaskFollowUp(t *testing.T) {
	env := newTestEnv(worker("worker-1"))
	_, _, err := env.run(t, "task", "create", "Original", "--agent", "worker-1", "--thread", "th-1")
	require.NoError(t, err)

	out, _, err := env.run(t, "task", "follow-up", "id-1", "Customer replied")

	require.NoError(t, err)
	assert.Contains(t, out, "Created follow-up task id-2 (offered)")
	follow := env.tasks.Tasks["id-2"]
	require.NotNil(t, follow)
	assert.Equal(t, "id-1", follow.ParentTaskID)
	assert.Equal(t, "worker-1", follow.AgentID)
	assert.Equal(t, "th-1", follow.ThreadID)
}

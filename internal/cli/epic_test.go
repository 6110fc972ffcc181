package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runoshun/agent-swarm/internal/domain"
)

func TestEpicCreate(t *testing.T) {
	env := newTestEnv(worker("worker-1"))

	out, _, err := env.run(t, "--as", "worker-1", "epic", "create", "Billing v2", "--goal", "Invoices in EUR", "--tag", "billing")

	require.NoError(t, err)
	assert.Contains(t, out, "Created epic id-1 (draft)")
	epic := env.epics.Epics["id-1"]
	require.NotNil(t, epic)
	assert.Equal(t, "Billing v2", epic.Name)
	assert.Equal(t, "worker-1", epic.CreatedByAgentID)
	assert.Equal(t, domain.EpicDraft, epic.Status)
}

func TestEpicUpdate_Authorization(t *testing.T) {
	env := newTestEnv(worker("worker-1"), worker("worker-2"), lead("lead"))
	_, _, err := env.run(t, "--as", "worker-1", "epic", "create", "Billing v2")
	require.NoError(t, err)

	_, _, err = env.run(t, "--as", "worker-2", "epic", "update", "id-1", "--status", "active")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	out, _, err := env.run(t, "--as", "worker-1", "epic", "update", "id-1", "--status", "active")
	require.NoError(t, err)
	assert.Contains(t, out, "Updated epic id-1")
	assert.Equal(t, domain.EpicActive, env.epics.Epics["id-1"].Status)

	_, _, err = env.run(t, "--as", "lead", "epic", "update", "id-1", "--priority", "90")
	require.NoError(t, err)
	assert.Equal(t, 90, env.epics.Epics["id-1"].Priority)
}

func TestEpicUpdate_NoFields(t *testing.T) {
	env := newTestEnv()
	_, _, err := env.run(t, "epic", "create", "Billing v2")
	require.NoError(t, err)

	_, _, err = env.run(t, "epic", "update", "id-1")
	assert.ErrorIs(t, err, domain.ErrNoFieldsToUpdate)
}

func TestEpicShowAndDelete(t *testing.T) {
	env := newTestEnv()
	_, _, err := env.run(t, "epic", "create", "Billing v2")
	require.NoError(t, err)
	_, _, err = env.run(t, "task", "create", "Add currency column", "--epic", "id-1")
	require.NoError(t, err)

	out, _, err := env.run(t, "epic", "show", "id-1")
	require.NoError(t, err)
	assert.Contains(t, out, "Name: Billing v2")
	assert.Contains(t, out, "Tasks (1):")
	assert.Contains(t, out, "Add currency column")

	out, _, err = env.run(t, "epic", "delete", "id-1")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted epic id-1 (1 tasks unlinked)")
	assert.Empty(t, env.tasks.Tasks["id-2"].EpicID)
	assert.NotContains(t, env.epics.Epics, "id-1")
}

func TestEpicList(t *testing.T) {
	env := newTestEnv()
	_, _, err := env.run(t, "epic", "create", "Draft epic")
	require.NoError(t, err)
	_, _, err = env.run(t, "epic", "create", "Active epic", "--status", "active")
	require.NoError(t, err)

	out, _, err := env.run(t, "epic", "list", "--status", "active")

	require.NoError(t, err)
	assert.Contains(t, out, "Active epic")
	assert.NotContains(t, out, "Draft epic")
}

package cli

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runoshun/agent-swarm/internal/app"
	"github.com/runoshun/agent-swarm/internal/domain"
	"github.com/runoshun/agent-swarm/internal/testutil"
)

var testNow = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

// testEnv bundles a container wired to in-memory mocks.
type testEnv struct {
	c         *app.Container
	tasks     *testutil.MockTaskRepository
	agents    *testutil.MockAgentRepository
	epics     *testutil.MockEpicRepository
	schedules *testutil.MockScheduleRepository
	inbox     *testutil.MockInboxRepository
	history   *testutil.MockToolHistory
	notifier  *testutil.MockNotifier
}

func newTestEnv(agents ...*domain.Agent) *testEnv {
	tasks := testutil.NewMockTaskRepository()
	env := &testEnv{
		tasks:     tasks,
		agents:    testutil.NewMockAgentRepository(agents...),
		epics:     testutil.NewMockEpicRepository(tasks),
		schedules: testutil.NewMockScheduleRepository(tasks),
		inbox:     testutil.NewMockInboxRepository(),
		history:   &testutil.MockToolHistory{},
		notifier:  &testutil.MockNotifier{},
	}
	env.c = app.NewWithDeps(app.Config{}, app.Deps{
		Tasks:         env.tasks,
		Agents:        env.agents,
		Epics:         env.epics,
		Schedules:     env.schedules,
		ConfigEntries: testutil.NewMockConfigRepository(),
		Inbox:         env.inbox,
		ToolHistory:   env.history,
		Deduper:       &testutil.MockDeduper{},
		Notifier:      env.notifier,
		IDs:           &testutil.MockIDGenerator{},
		Clock:         &testutil.MockClock{NowTime: testNow},
	}, nil)
	return env
}

// run executes the root command with args and returns stdout and stderr.
func (e *testEnv) run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv(EnvAgentID, "")
	root := NewRootCommand(e.c, "test")
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), errOut.String(), err
}

func worker(id string) *domain.Agent {
	return &domain.Agent{ID: id, Name: id, Status: domain.AgentIdle}
}

func lead(id string) *domain.Agent {
	return &domain.Agent{ID: id, Name: id, Status: domain.AgentIdle, IsLead: true}
}

func TestRootCommand_Version(t *testing.T) {
	env := newTestEnv()
	out, _, err := env.run(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "test")
}

func TestRootCommand_Groups(t *testing.T) {
	root := NewRootCommand(newTestEnv().c, "test")

	groups := map[string]string{}
	for _, cmd := range root.Commands() {
		groups[cmd.Name()] = cmd.GroupID
	}
	assert.Equal(t, groupSetup, groups["init"])
	assert.Equal(t, groupSetup, groups["serve"])
	assert.Equal(t, groupWork, groups["task"])
	assert.Equal(t, groupWork, groups["epic"])
	assert.Equal(t, groupAutomation, groups["schedule"])
	assert.Equal(t, groupAutomation, groups["loop"])
}

func TestRootCommand_RequiresInitializedStore(t *testing.T) {
	env := newTestEnv()
	env.c.Tasks = nil

	_, _, err := env.run(t, "task", "list")
	assert.ErrorIs(t, err, domain.ErrNotInitialized)

	_, _, err = env.run(t, "config", "set", "model", "large")
	assert.ErrorIs(t, err, domain.ErrNotInitialized)
}

func TestRootCommand_NoStoreCommandsRunUninitialized(t *testing.T) {
	env := newTestEnv()
	env.c.Tasks = nil

	out, _, err := env.run(t, "config", "template")
	require.NoError(t, err)
	assert.Contains(t, out, "[store]")

	_, _, err = env.run(t, "help", "task")
	assert.NoError(t, err)
}

func TestRootCommand_PrintsConfigWarnings(t *testing.T) {
	env := newTestEnv()
	env.c.AppConfig.Warnings = []string{"unknown key foo"}

	_, stderr, err := env.run(t, "agent", "list")
	require.NoError(t, err)
	assert.Contains(t, stderr, "Warning: unknown key foo")
}

func TestRootCommand_AsUnknownAgent(t *testing.T) {
	env := newTestEnv()

	_, _, err := env.run(t, "--as", "ghost", "epic", "create", "Launch")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runoshun/agent-swarm/internal/domain"
)

// chdirTemp runs the test in a fresh directory with no config or env overrides.
func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg"))
	t.Setenv("SWARM_DATA_DIR", "")
	t.Setenv("SWARM_DB_DSN", "")
	t.Setenv("SWARM_REDIS_URL", "")
	t.Setenv("SWARM_AGENT_ID", "")
	return dir
}

func TestRun_Version(t *testing.T) {
	chdirTemp(t)
	var out bytes.Buffer

	err := run(t.Context(), []string{"--version"}, &out, &out)

	require.NoError(t, err)
	assert.Contains(t, out.String(), version)
}

func TestRun_NotInitialized(t *testing.T) {
	chdirTemp(t)
	var out bytes.Buffer

	err := run(t.Context(), []string{"task", "list"}, &out, &out)

	assert.ErrorIs(t, err, domain.ErrNotInitialized)
}

func TestRun_InitThenUse(t *testing.T) {
	dir := chdirTemp(t)
	var out bytes.Buffer

	require.NoError(t, run(t.Context(), []string{"init"}, &out, &out))
	assert.FileExists(t, filepath.Join(dir, domain.DataDirName, domain.DBFileName))

	out.Reset()
	require.NoError(t, run(t.Context(), []string{"agent", "register", "Worker", "--id", "worker-1"}, &out, &out))
	require.NoError(t, run(t.Context(), []string{"task", "create", "Ship it", "--agent", "worker-1"}, &out, &out))

	out.Reset()
	require.NoError(t, run(t.Context(), []string{"--as", "worker-1", "task", "list", "--status", "offered"}, &out, &out))
	assert.Contains(t, out.String(), "Ship it")
}

func TestRun_LoopRecordAcrossInvocations(t *testing.T) {
	chdirTemp(t)
	var out bytes.Buffer
	require.NoError(t, run(t.Context(), []string{"init"}, &out, &out))

	record := []string{"loop", "record", "--session", "s1", "--tool", "read_file", "--args", `{"path":"main.go"}`}
	for i := 1; i < domain.RepeatWarn; i++ {
		out.Reset()
		require.NoError(t, run(t.Context(), record, &out, &out), "call %d", i)
		assert.Equal(t, "none\n", out.String(), "call %d", i)
	}

	out.Reset()
	require.NoError(t, run(t.Context(), record, &out, &out))
	assert.True(t, strings.HasPrefix(out.String(), "warning: read_file called 8 times"), out.String())

	for i := domain.RepeatWarn + 1; i < domain.RepeatCritical; i++ {
		require.NoError(t, run(t.Context(), record, &out, &out), "call %d", i)
	}
	out.Reset()
	err := run(t.Context(), record, &out, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "blocked")
	assert.True(t, strings.HasPrefix(out.String(), "critical"), out.String())

	require.NoError(t, run(t.Context(), []string{"loop", "clear", "s1"}, &out, &out))
	out.Reset()
	require.NoError(t, run(t.Context(), record, &out, &out))
	assert.Equal(t, "none\n", out.String())
}

func TestRun_RouteRedeliveryAcrossInvocations(t *testing.T) {
	dir := chdirTemp(t)
	var out bytes.Buffer
	require.NoError(t, run(t.Context(), []string{"init"}, &out, &out))
	event := filepath.Join(dir, "event.json")
	require.NoError(t, os.WriteFile(event, []byte(`{
		"id": "Ev01", "kind": "chat.message", "source": "slack",
		"chat": {"channelId": "C0123", "user": "U1", "text": "deploy failed", "ts": "1700000000.000100"}
	}`), 0o644))

	out.Reset()
	require.NoError(t, run(t.Context(), []string{"route", "-f", event}, &out, &out))
	assert.Contains(t, out.String(), "Branch: pool_task")

	out.Reset()
	require.NoError(t, run(t.Context(), []string{"route", "-f", event}, &out, &out))
	assert.Contains(t, out.String(), "Branch: duplicate")

	out.Reset()
	require.NoError(t, run(t.Context(), []string{"task", "list", "--json"}, &out, &out))
	var tasks []domain.Task
	require.NoError(t, json.Unmarshal(out.Bytes(), &tasks))
	assert.Len(t, tasks, 1)
}

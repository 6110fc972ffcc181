package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runoshun/agent-swarm/internal/app"
	"github.com/runoshun/agent-swarm/internal/domain"
)

// newConfigTestContainer creates an uninitialized container rooted in a temp
// directory, using the real config loader and manager.
func newConfigTestContainer(t *testing.T) (*app.Container, string) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg"))
	t.Setenv(app.EnvDataDir, "")
	t.Setenv("SWARM_DB_DSN", "")
	t.Setenv("SWARM_REDIS_URL", "")
	t.Setenv(EnvAgentID, "")

	c, err := app.NewUninitialized(dir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close(t.Context()) })
	return c, dir
}

func execute(t *testing.T, c *app.Container, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand(c, "test")
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func TestInit_CreatesConfigAndStore(t *testing.T) {
	c, dir := newConfigTestContainer(t)

	out, err := execute(t, c, "init")

	require.NoError(t, err)
	assert.Contains(t, out, "Created config file:")
	assert.Contains(t, out, "Initialized store:")
	assert.FileExists(t, filepath.Join(dir, domain.DataDirName, domain.ConfigFileName))
	assert.FileExists(t, filepath.Join(dir, domain.DataDirName, domain.DBFileName))

	out, err = execute(t, c, "init")
	require.NoError(t, err)
	assert.Contains(t, out, "Config file exists:")

	ready, err := app.New(t.Context(), dir)
	require.NoError(t, err)
	assert.True(t, ready.Ready())
	assert.NoError(t, ready.Ping(t.Context()))
	assert.NoError(t, ready.Close(t.Context()))
}

func TestConfigInit_Exists(t *testing.T) {
	c, _ := newConfigTestContainer(t)

	_, err := execute(t, c, "config", "init")
	require.NoError(t, err)

	_, err = execute(t, c, "config", "init")
	assert.ErrorIs(t, err, domain.ErrConfigExists)
}

func TestConfigInit_Global(t *testing.T) {
	c, dir := newConfigTestContainer(t)

	out, err := execute(t, c, "config", "init", "--global")

	require.NoError(t, err)
	assert.Contains(t, out, filepath.Join(dir, "xdg"))
}

func TestConfigShow_MasksSecrets(t *testing.T) {
	c, dir := newConfigTestContainer(t)
	dataDir := filepath.Join(dir, domain.DataDirName)
	require.NoError(t, os.MkdirAll(dataDir, 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, domain.ConfigFileName), []byte(`
[webhooks]
slack_signing_secret = "very-secret"

[scheduler]
interval = "45s"
`), 0o600))

	out, err := execute(t, c, "config", "show")

	require.NoError(t, err)
	assert.Contains(t, out, "[Loaded from]")
	assert.Contains(t, out, "[Effective Config]")
	assert.Contains(t, out, domain.RedactedValue)
	assert.NotContains(t, out, "very-secret")
	assert.Contains(t, out, "45s")
}

func TestConfigEntries_SetGetListDelete(t *testing.T) {
	env := newTestEnv(worker("worker-1"))

	out, _, err := env.run(t, "config", "set", "model", "large")
	require.NoError(t, err)
	assert.Contains(t, out, "Set model (global)")

	_, _, err = env.run(t, "--as", "worker-1", "config", "set", "model", "small", "--scope", "agent", "--scope-id", "worker-1")
	require.NoError(t, err)

	out, _, err = env.run(t, "config", "get", "model")
	require.NoError(t, err)
	assert.Equal(t, "large\n", out)

	out, _, err = env.run(t, "--as", "worker-1", "config", "get", "model")
	require.NoError(t, err)
	assert.Equal(t, "small\n", out)

	out, _, err = env.run(t, "config", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "large")
	assert.Contains(t, out, "small")

	out, _, err = env.run(t, "config", "rm", "model")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted model")

	_, _, err = env.run(t, "config", "get", "model")
	assert.ErrorIs(t, err, domain.ErrConfigNotFound)
}

func TestConfigSet_Authorization(t *testing.T) {
	env := newTestEnv(worker("worker-1"), worker("worker-2"))

	_, _, err := env.run(t, "--as", "worker-1", "config", "set", "model", "large")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, _, err = env.run(t, "--as", "worker-1", "config", "set", "model", "x", "--scope", "agent", "--scope-id", "worker-2")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestConfigSet_SecretIsMasked(t *testing.T) {
	env := newTestEnv()
	_, _, err := env.run(t, "config", "set", "api_key", "abc123", "--secret")
	require.NoError(t, err)

	out, _, err := env.run(t, "config", "list")
	require.NoError(t, err)
	assert.NotContains(t, out, "abc123")
	assert.Contains(t, out, domain.RedactedValue)

	out, _, err = env.run(t, "config", "get", "api_key", "--reveal")
	require.NoError(t, err)
	assert.Equal(t, "abc123\n", out)
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/runoshun/agent-swarm/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_GetLocalConfigInfo(t *testing.T) {
	t.Run("returns info when file exists", func(t *testing.T) {
		dataDir := t.TempDir()
		content := "[log]\nlevel = \"debug\""
		writeConfig(t, dataDir, content)

		info := NewManagerWithGlobalDir(dataDir, "").GetLocalConfigInfo()

		assert.Equal(t, filepath.Join(dataDir, domain.ConfigFileName), info.Path)
		assert.Equal(t, content, info.Content)
		assert.True(t, info.Exists)
	})

	t.Run("returns info when file does not exist", func(t *testing.T) {
		dataDir := t.TempDir()

		info := NewManagerWithGlobalDir(dataDir, "").GetLocalConfigInfo()

		assert.Equal(t, filepath.Join(dataDir, domain.ConfigFileName), info.Path)
		assert.Empty(t, info.Content)
		assert.False(t, info.Exists)
	})
}

func TestManager_GetGlobalConfigInfo(t *testing.T) {
	t.Run("returns empty info when global dir is empty", func(t *testing.T) {
		info := NewManagerWithGlobalDir("", "").GetGlobalConfigInfo()

		assert.Empty(t, info.Path)
		assert.False(t, info.Exists)
	})

	t.Run("returns info when file exists", func(t *testing.T) {
		globalDir := t.TempDir()
		writeConfig(t, globalDir, "[log]\nlevel = \"warn\"")

		info := NewManagerWithGlobalDir("", globalDir).GetGlobalConfigInfo()

		assert.True(t, info.Exists)
		assert.Contains(t, info.Content, "warn")
	})
}

func TestManager_InitLocalConfig(t *testing.T) {
	t.Run("creates data dir and template", func(t *testing.T) {
		dataDir := filepath.Join(t.TempDir(), ".swarm")
		manager := NewManagerWithGlobalDir(dataDir, "")

		require.NoError(t, manager.InitLocalConfig())

		path := filepath.Join(dataDir, domain.ConfigFileName)
		content, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, domain.RenderConfigTemplate(), string(content))

		st, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0600), st.Mode().Perm())
	})

	t.Run("template loads without warnings", func(t *testing.T) {
		dataDir := t.TempDir()
		require.NoError(t, NewManagerWithGlobalDir(dataDir, "").InitLocalConfig())

		cfg, err := NewLoaderWithGlobalDir(dataDir, "").WithEnv(noEnv).Load()
		require.NoError(t, err)
		assert.Empty(t, cfg.Warnings)
	})

	t.Run("returns error when file exists", func(t *testing.T) {
		dataDir := t.TempDir()
		writeConfig(t, dataDir, "")

		err := NewManagerWithGlobalDir(dataDir, "").InitLocalConfig()
		assert.ErrorIs(t, err, domain.ErrConfigExists)
	})
}

func TestManager_InitGlobalConfig(t *testing.T) {
	t.Run("creates global dir", func(t *testing.T) {
		globalDir := filepath.Join(t.TempDir(), "agent-swarm")

		require.NoError(t, NewManagerWithGlobalDir("", globalDir).InitGlobalConfig())

		_, err := os.Stat(filepath.Join(globalDir, domain.ConfigFileName))
		assert.NoError(t, err)
	})

	t.Run("errors without global dir", func(t *testing.T) {
		assert.Error(t, NewManagerWithGlobalDir("", "").InitGlobalConfig())
	})
}

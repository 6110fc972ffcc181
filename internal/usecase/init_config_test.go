package usecase_test

import (
	"context"
	"testing"

	"github.com/runoshun/agent-swarm/internal/domain"
	"github.com/runoshun/agent-swarm/internal/testutil"
	"github.com/runoshun/agent-swarm/internal/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitConfig_Execute(t *testing.T) {
	t.Run("creates local config", func(t *testing.T) {
		manager := testutil.NewMockConfigManager()
		manager.LocalConfigInfo = domain.ConfigInfo{Path: "/work/.swarm/config.toml"}

		out, err := usecase.NewInitConfig(manager, nil).Execute(context.Background(), usecase.InitConfigInput{})

		require.NoError(t, err)
		assert.Equal(t, "/work/.swarm/config.toml", out.Path)
		assert.True(t, manager.InitLocalCalled)
		assert.False(t, manager.InitGlobalCalled)
	})

	t.Run("creates global config", func(t *testing.T) {
		manager := testutil.NewMockConfigManager()
		manager.GlobalConfigInfo = domain.ConfigInfo{Path: "/home/test/.config/agent-swarm/config.toml"}

		out, err := usecase.NewInitConfig(manager, nil).Execute(context.Background(), usecase.InitConfigInput{Global: true})

		require.NoError(t, err)
		assert.Equal(t, "/home/test/.config/agent-swarm/config.toml", out.Path)
		assert.False(t, manager.InitLocalCalled)
		assert.True(t, manager.InitGlobalCalled)
	})

	t.Run("returns error when config already exists", func(t *testing.T) {
		manager := testutil.NewMockConfigManager()
		manager.LocalConfigInfo = domain.ConfigInfo{Path: "/work/.swarm/config.toml", Exists: true}
		manager.InitLocalErr = domain.ErrConfigExists

		_, err := usecase.NewInitConfig(manager, nil).Execute(context.Background(), usecase.InitConfigInput{})

		assert.ErrorIs(t, err, domain.ErrConfigExists)
	})
}

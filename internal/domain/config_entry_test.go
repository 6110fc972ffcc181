package domain

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveConfig_Precedence(t *testing.T) {
	entries := []*ConfigEntry{
		{Key: "x", Value: "A", Scope: ScopeGlobal},
		{Key: "x", Value: "B", Scope: ScopeAgent, ScopeID: "a1"},
		{Key: "x", Value: "C", Scope: ScopeRepo, ScopeID: "r1"},
	}

	tests := []struct {
		name string
		ctx  ConfigContext
		want string
	}{
		{"no context", ConfigContext{}, "A"},
		{"matching agent", ConfigContext{AgentID: "a1"}, "B"},
		{"other agent", ConfigContext{AgentID: "a2"}, "A"},
		{"repo beats agent", ConfigContext{AgentID: "a1", RepoID: "r1"}, "C"},
		{"other repo falls back to agent", ConfigContext{AgentID: "a1", RepoID: "r2"}, "B"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveConfig(entries, "x", tt.ctx)
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got.Value)
		})
	}
}

func TestResolveConfig_Absent(t *testing.T) {
	entries := []*ConfigEntry{
		{Key: "x", Value: "B", Scope: ScopeAgent, ScopeID: "a1"},
	}

	assert.Nil(t, ResolveConfig(entries, "y", ConfigContext{AgentID: "a1"}))
	assert.Nil(t, ResolveConfig(entries, "x", ConfigContext{AgentID: "a2"}))
}

func TestResolveConfig_OrderIndependent(t *testing.T) {
	entries := []*ConfigEntry{
		{Key: "x", Value: "A", Scope: ScopeGlobal},
		{Key: "x", Value: "B", Scope: ScopeAgent, ScopeID: "a1"},
		{Key: "x", Value: "B2", Scope: ScopeAgent, ScopeID: "a2"},
		{Key: "x", Value: "C", Scope: ScopeRepo, ScopeID: "r1"},
		{Key: "y", Value: "Y", Scope: ScopeGlobal},
	}
	ctx := ConfigContext{AgentID: "a2"}

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 20; i++ {
		shuffled := append([]*ConfigEntry(nil), entries...)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

		got := ResolveConfig(shuffled, "x", ctx)
		require.NotNil(t, got)
		assert.Equal(t, "B2", got.Value)

		all := ResolveAllConfig(shuffled, ctx)
		require.Len(t, all, 2)
		assert.Equal(t, "B2", all[0].Value)
		assert.Equal(t, "Y", all[1].Value)
	}
}

func TestResolveAllConfig_SortedByKey(t *testing.T) {
	entries := []*ConfigEntry{
		{Key: "zeta", Value: "1", Scope: ScopeGlobal},
		{Key: "alpha", Value: "2", Scope: ScopeRepo, ScopeID: "r1"},
		{Key: "alpha", Value: "3", Scope: ScopeGlobal},
		{Key: "mid", Value: "4", Scope: ScopeAgent, ScopeID: "other"},
	}

	all := ResolveAllConfig(entries, ConfigContext{RepoID: "r1"})

	require.Len(t, all, 2)
	assert.Equal(t, "alpha", all[0].Key)
	assert.Equal(t, "2", all[0].Value)
	assert.Equal(t, "zeta", all[1].Key)
}

func TestMaskSecrets(t *testing.T) {
	entries := []*ConfigEntry{
		{Key: "token", Value: "s3cret", IsSecret: true},
		{Key: "model", Value: "large"},
	}

	masked := MaskSecrets(entries, false)
	assert.Equal(t, RedactedValue, masked[0].Value)
	assert.Equal(t, "large", masked[1].Value)
	assert.Equal(t, "s3cret", entries[0].Value, "stored entries must not be modified")

	revealed := MaskSecrets(entries, true)
	assert.Equal(t, "s3cret", revealed[0].Value)
}

func TestValidateScope(t *testing.T) {
	assert.NoError(t, ValidateScope(ScopeGlobal, ""))
	assert.NoError(t, ValidateScope(ScopeAgent, "a1"))
	assert.NoError(t, ValidateScope(ScopeRepo, "r1"))
	assert.ErrorIs(t, ValidateScope(ScopeGlobal, "a1"), ErrInvalidScope)
	assert.ErrorIs(t, ValidateScope(ScopeAgent, ""), ErrInvalidScope)
	assert.ErrorIs(t, ValidateScope("team", "x"), ErrInvalidScope)

	e := &ConfigEntry{Scope: ScopeGlobal}
	assert.ErrorIs(t, e.Validate(), ErrEmptyKey)
}

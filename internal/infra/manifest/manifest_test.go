package manifest

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runoshun/agent-swarm/internal/domain"
)

const sample = `
schedules:
  - name: nightly-triage
    template: Triage new issues
    cron: "0 9 * * 1-5"
    timezone: Europe/Berlin
    agent: triager
    tags: [ops]
  - name: heartbeat
    template: Post status
    interval: 30m
    enabled: false
`

func TestParse(t *testing.T) {
	got, err := Parse([]byte(sample))
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "nightly-triage", got[0].Name)
	assert.Equal(t, "0 9 * * 1-5", got[0].CronExpression)
	assert.Equal(t, "triager", got[0].TargetAgentID)
	assert.Equal(t, []string{"ops"}, got[0].Tags)
	assert.True(t, got[0].Enabled, "enabled by default")

	assert.Equal(t, (30 * time.Minute).Milliseconds(), got[1].IntervalMs)
	assert.False(t, got[1].Enabled)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"unknown field", "schedules:\n  - name: a\n    every: 1h\n"},
		{"bad interval", "schedules:\n  - name: a\n    interval: soon\n"},
		{"both intervals", "schedules:\n  - name: a\n    interval: 1h\n    interval_ms: 1000\n"},
		{"not yaml", "schedules: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

func TestParse_Empty(t *testing.T) {
	got, err := Parse(nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestLoadAndMarshal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schedules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))

	loaded, err := Load(path)
	require.NoError(t, err)

	ptrs := make([]*domain.ScheduledTask, len(loaded))
	for i := range loaded {
		ptrs[i] = &loaded[i]
	}
	out, err := Marshal(ptrs)
	require.NoError(t, err)

	again, err := Parse(out)
	require.NoError(t, err)
	assert.Equal(t, loaded, again)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "read manifest")
}

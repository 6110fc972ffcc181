package sqlstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/runoshun/agent-swarm/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func call(tool string, i int) domain.ToolCallRecord {
	return domain.ToolCallRecord{ToolName: tool, ArgsHash: "h", Timestamp: t0.Add(time.Duration(i) * time.Second)}
}

func TestToolCallStore_AppendTrimsToCapacity(t *testing.T) {
	tc := newTestStore(t).ToolCalls()
	ctx := context.Background()

	var window []domain.ToolCallRecord
	var err error
	for i := range 5 {
		window, err = tc.Append(ctx, "s1", call("read", i), 3)
		require.NoError(t, err)
	}

	require.Len(t, window, 3)
	assert.Equal(t, t0.Add(2*time.Second), window[0].Timestamp, "oldest entries are evicted")
	assert.Equal(t, t0.Add(4*time.Second), window[2].Timestamp)

	other, err := tc.Append(ctx, "s2", call("grep", 0), 3)
	require.NoError(t, err)
	assert.Len(t, other, 1, "sessions do not share windows")
}

func TestToolCallStore_Clear(t *testing.T) {
	tc := newTestStore(t).ToolCalls()
	ctx := context.Background()
	for i := range 3 {
		_, err := tc.Append(ctx, "s1", call("read", i), domain.ToolWindowCapacity)
		require.NoError(t, err)
	}

	require.NoError(t, tc.Clear(ctx, "s1"))
	window, err := tc.Append(ctx, "s1", call("read", 9), domain.ToolWindowCapacity)

	require.NoError(t, err)
	require.Len(t, window, 1)
	assert.Equal(t, "read", window[0].ToolName)
}

func TestToolCallStore_SharedAcrossHandles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "swarm.db")
	ctx := context.Background()

	for i := range 4 {
		s, err := Open(ctx, DriverSQLite, path)
		require.NoError(t, err)
		window, err := s.ToolCalls().Append(ctx, "s1", call("read", i), domain.ToolWindowCapacity)
		require.NoError(t, err)
		assert.Len(t, window, i+1)
		require.NoError(t, s.Close())
	}
}

func TestEventStore_Seen(t *testing.T) {
	es := newTestStore(t).Events(time.Minute)
	now := t0
	es.now = func() time.Time { return now }
	ctx := context.Background()

	seen, err := es.Seen(ctx, "slack:Ev1")
	require.NoError(t, err)
	assert.False(t, seen)

	seen, err = es.Seen(ctx, "slack:Ev1")
	require.NoError(t, err)
	assert.True(t, seen)

	now = now.Add(59 * time.Second)
	seen, err = es.Seen(ctx, "slack:Ev1")
	require.NoError(t, err)
	assert.True(t, seen, "still inside the window")

	now = t0.Add(time.Minute)
	seen, err = es.Seen(ctx, "slack:Ev1")
	require.NoError(t, err)
	assert.False(t, seen, "expired keys are forgotten")
}

func TestEventStore_NonPositiveTTLUsesDefault(t *testing.T) {
	s := newTestStore(t)

	assert.Equal(t, domain.DefaultDedupTTL, s.Events(0).ttl)
	assert.Equal(t, domain.DefaultDedupTTL, s.Events(-time.Second).ttl)
}

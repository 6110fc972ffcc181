package loophistory

import (
	"context"
	"testing"
	"time"

	"github.com/runoshun/agent-swarm/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(tool string, i int) domain.ToolCallRecord {
	return domain.ToolCallRecord{
		Timestamp: time.Date(2024, 1, 1, 0, 0, i, 0, time.UTC),
		ToolName:  tool,
		ArgsHash:  "h",
	}
}

func TestMemory_AppendTrimsToCapacity(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	var window []domain.ToolCallRecord
	for i := 0; i < 5; i++ {
		var err error
		window, err = m.Append(ctx, "s1", record("read", i), 3)
		require.NoError(t, err)
	}

	require.Len(t, window, 3)
	assert.Equal(t, 2, window[0].Timestamp.Second())
	assert.Equal(t, 4, window[2].Timestamp.Second())
}

func TestMemory_ReturnedWindowIsACopy(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	window, err := m.Append(ctx, "s1", record("read", 0), 10)
	require.NoError(t, err)
	window[0].ToolName = "mutated"

	again, err := m.Append(ctx, "s1", record("read", 1), 10)
	require.NoError(t, err)
	assert.Equal(t, "read", again[0].ToolName)
}

func TestMemory_Clear(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	_, err := m.Append(ctx, "s1", record("read", 0), 10)
	require.NoError(t, err)
	_, err = m.Append(ctx, "s2", record("read", 0), 10)
	require.NoError(t, err)

	require.NoError(t, m.Clear(ctx, "s1"))

	assert.Equal(t, 1, m.Sessions())
	window, err := m.Append(ctx, "s1", record("write", 1), 10)
	require.NoError(t, err)
	require.Len(t, window, 1)
	assert.Equal(t, "write", window[0].ToolName)
}

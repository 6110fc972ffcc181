package domain

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// window simulates a session history, returning the check after each call.
type window struct {
	records []ToolCallRecord
}

func (w *window) call(tool string, args map[string]any) LoopCheck {
	w.records = append(w.records, ToolCallRecord{ToolName: tool, ArgsHash: HashArgs(args), Timestamp: time.Unix(int64(len(w.records)), 0)})
	if len(w.records) > ToolWindowCapacity {
		w.records = w.records[len(w.records)-ToolWindowCapacity:]
	}
	return EvaluateWindow(w.records)
}

func TestHashArgs_OrderIndependent(t *testing.T) {
	a := map[string]any{"path": "/tmp", "mode": 1, "opts": map[string]any{"b": true, "a": []any{1, 2}}}
	b := map[string]any{"opts": map[string]any{"a": []any{1, 2}, "b": true}, "mode": 1, "path": "/tmp"}

	assert.Equal(t, HashArgs(a), HashArgs(b))
	assert.Len(t, HashArgs(a), 16)
	assert.NotEqual(t, HashArgs(a), HashArgs(map[string]any{"path": "/var"}))
}

func TestEvaluateWindow_ExactRepeat(t *testing.T) {
	w := &window{}
	args := map[string]any{"q": "status"}

	var check LoopCheck
	for i := 1; i <= 7; i++ {
		check = w.call("search", args)
		assert.Equal(t, SeverityNone, check.Severity, "call %d", i)
	}

	check = w.call("search", args)
	assert.Equal(t, SeverityWarning, check.Severity)
	assert.False(t, check.Blocked)
	assert.Contains(t, check.Reason, "8 times")
	assert.Contains(t, check.Reason, "search")
	assert.Equal(t, 8, check.Count)

	for i := 9; i <= 14; i++ {
		check = w.call("search", args)
		assert.Equal(t, SeverityWarning, check.Severity, "call %d", i)
	}

	check = w.call("search", args)
	assert.Equal(t, SeverityCritical, check.Severity)
	assert.True(t, check.Blocked)
	assert.Contains(t, check.Reason, "15 times")
}

func TestEvaluateWindow_DistinctArgsNeverCritical(t *testing.T) {
	w := &window{}
	for i := 0; i < 20; i++ {
		check := w.call("read", map[string]any{"line": i})
		assert.NotEqual(t, SeverityCritical, check.Severity, "call %d", i)
		assert.False(t, check.Blocked)
	}
}

func TestEvaluateWindow_PingPong(t *testing.T) {
	w := &window{}
	a := map[string]any{"file": "a.go"}
	b := map[string]any{"cmd": "go test"}

	var check LoopCheck
	for i := 0; i < 14; i++ {
		if i%2 == 0 {
			check = w.call("edit", a)
		} else {
			check = w.call("run", b)
		}
	}

	assert.Equal(t, SeverityCritical, check.Severity)
	assert.True(t, check.Blocked)
	assert.Contains(t, check.Reason, "ping-pong")
	assert.Contains(t, check.Reason, "edit")
	assert.Contains(t, check.Reason, "run")
}

func TestEvaluateWindow_PingPongWarningOnShortWindow(t *testing.T) {
	w := &window{}
	var check LoopCheck
	for i := 0; i < 6; i++ {
		check = w.call(fmt.Sprintf("tool%d", i%2), nil)
	}

	assert.Equal(t, SeverityWarning, check.Severity)
	assert.False(t, check.Blocked)
	assert.Contains(t, check.Reason, "ping-pong")
}

func TestEvaluateWindow_PingPongBelowRatio(t *testing.T) {
	w := &window{}
	var check LoopCheck
	// 4 A, 4 B, 4 distinct: top two cover 8 of 12 (< 80%).
	for i := 0; i < 4; i++ {
		w.call("a", nil)
		w.call("b", nil)
		check = w.call("c", map[string]any{"i": i})
	}

	assert.Equal(t, SeverityNone, check.Severity)
}

func TestEvaluateWindow_CriticalDominates(t *testing.T) {
	// 14 identical calls: exact-repeat is a warning (14), but a single repeated
	// pair is not a ping-pong. The 15th crosses into critical.
	w := &window{}
	for i := 0; i < 14; i++ {
		w.call("same", nil)
	}
	check := w.call("same", nil)
	require.Equal(t, SeverityCritical, check.Severity)
	assert.NotContains(t, check.Reason, "ping-pong")
}

func TestEvaluateWindow_RepeatReasonWinsOnTie(t *testing.T) {
	// 8 x A then alternating B/A: exact-repeat warns for A, ping-pong warns too.
	w := &window{}
	for i := 0; i < 7; i++ {
		w.call("a", nil)
	}
	w.call("b", nil)
	check := w.call("a", nil)

	require.Equal(t, SeverityWarning, check.Severity)
	assert.Contains(t, check.Reason, "8 times")
}

func TestEvaluateWindow_Empty(t *testing.T) {
	assert.Equal(t, SeverityNone, EvaluateWindow(nil).Severity)
}

func TestEvaluateWindow_WindowEvictsOldest(t *testing.T) {
	w := &window{}
	for i := 0; i < 10; i++ {
		w.call("old", nil)
	}
	for i := 0; i < 30; i++ {
		w.call("new", map[string]any{"i": i})
	}

	require.Len(t, w.records, ToolWindowCapacity)
	for _, r := range w.records {
		assert.Equal(t, "new", r.ToolName)
	}
}

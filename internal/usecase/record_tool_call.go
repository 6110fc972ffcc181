package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/runoshun/agent-swarm/internal/domain"
)

// RecordToolCallInput describes one tool invocation in a session.
type RecordToolCallInput struct {
	Args       map[string]any
	SessionKey string
	ToolName   string
}

// RecordToolCall appends a call to the session window and reports whether the
// session is looping. A critical result means the caller must not execute the tool.
type RecordToolCall struct {
	history domain.ToolCallHistory
	clock   domain.Clock
	metrics domain.MetricsRecorder
	logger  *slog.Logger
}

// NewRecordToolCall creates a new RecordToolCall use case.
func NewRecordToolCall(history domain.ToolCallHistory, clock domain.Clock, metrics domain.MetricsRecorder, logger *slog.Logger) *RecordToolCall {
	return &RecordToolCall{history: history, clock: clock, metrics: orNopMetrics(metrics), logger: orDiscard(logger)}
}

// Execute records the call and evaluates the resulting window.
func (uc *RecordToolCall) Execute(ctx context.Context, in RecordToolCallInput) (*domain.LoopCheck, error) {
	sessionKey := strings.TrimSpace(in.SessionKey)
	if sessionKey == "" {
		return nil, domain.ErrEmptySessionKey
	}
	toolName := strings.TrimSpace(in.ToolName)
	if toolName == "" {
		return nil, domain.ErrEmptyToolName
	}

	rec := domain.ToolCallRecord{
		Timestamp: uc.clock.Now(),
		ToolName:  toolName,
		ArgsHash:  domain.HashArgs(in.Args),
	}
	window, err := uc.history.Append(ctx, sessionKey, rec, domain.ToolWindowCapacity)
	if err != nil {
		return nil, fmt.Errorf("append tool call: %w", err)
	}

	check := domain.EvaluateWindow(window)
	if check.Severity != domain.SeverityNone {
		uc.metrics.RecordLoopSignal(ctx, check.Severity)
		uc.logger.Warn("tool loop detected",
			"session", sessionKey, "tool", toolName, "severity", check.Severity, "count", check.Count, "blocked", check.Blocked)
	}
	return &check, nil
}

// ClearToolHistory discards a session's window, e.g. when the session ends.
type ClearToolHistory struct {
	history domain.ToolCallHistory
}

// NewClearToolHistory creates a new ClearToolHistory use case.
func NewClearToolHistory(history domain.ToolCallHistory) *ClearToolHistory {
	return &ClearToolHistory{history: history}
}

// Execute clears the window.
func (uc *ClearToolHistory) Execute(ctx context.Context, sessionKey string) error {
	sessionKey = strings.TrimSpace(sessionKey)
	if sessionKey == "" {
		return domain.ErrEmptySessionKey
	}
	if err := uc.history.Clear(ctx, sessionKey); err != nil {
		return fmt.Errorf("clear tool history: %w", err)
	}
	return nil
}

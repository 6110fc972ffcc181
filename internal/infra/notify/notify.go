// Package notify tells the session-spawning layer about task status changes.
//
// Events are published as JSON on "<subject>.<status>", e.g. "swarm.tasks.offered".
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/runoshun/agent-swarm/internal/domain"
)

// Drivers accepted by New.
const (
	DriverLog   = "log"
	DriverRedis = "redis"
	DriverNATS  = "nats"
	DriverNone  = "none"
)

// Notifier is a TaskNotifier that owns a connection.
type Notifier interface {
	domain.TaskNotifier
	Close() error
}

// New builds the notifier selected by driver.
func New(driver, url, subject string, logger *slog.Logger) (Notifier, error) {
	if subject == "" {
		subject = domain.DefaultNotifySubject
	}
	switch driver {
	case DriverLog, "":
		return NewLog(logger), nil
	case DriverNone:
		return Nop{}, nil
	case DriverRedis:
		return NewRedis(url, subject)
	case DriverNATS:
		return NewNATS(url, subject)
	default:
		return nil, fmt.Errorf("unknown notify driver %q", driver)
	}
}

// Subject returns the subject an event is published on.
func Subject(prefix string, event domain.TaskEvent) string {
	return prefix + "." + string(event.Status)
}

func encode(event domain.TaskEvent) ([]byte, error) {
	raw, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("encode task event: %w", err)
	}
	return raw, nil
}

// Nop drops every event.
type Nop struct{}

func (Nop) Notify(context.Context, domain.TaskEvent) error { return nil }
func (Nop) Close() error                                   { return nil }

// Log writes events to the structured log. Useful when the spawning layer tails the daemon log.
type Log struct {
	logger *slog.Logger
}

// NewLog creates a log notifier.
func NewLog(logger *slog.Logger) *Log {
	if logger == nil {
		logger = slog.Default()
	}
	return &Log{logger: logger}
}

func (l *Log) Notify(ctx context.Context, event domain.TaskEvent) error {
	l.logger.InfoContext(ctx, "task event",
		"task_id", event.TaskID,
		"status", string(event.Status),
		"agent_id", event.AgentID,
		"parent_task_id", event.ParentTaskID,
	)
	return nil
}

func (l *Log) Close() error { return nil }

package shared

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/runoshun/agent-swarm/internal/domain"
)

// SessionSignaler performs the best-effort side effects that follow a committed
// task change: announcing it to the session-spawning layer and keeping the
// assignee's availability in step. Failures are logged and returned as warnings;
// they never undo the task change.
type SessionSignaler struct {
	notifier domain.TaskNotifier
	agents   domain.AgentRepository
	tasks    domain.TaskRepository
	logger   *slog.Logger
}

// NewSessionSignaler creates a SessionSignaler. notifier may be nil.
func NewSessionSignaler(notifier domain.TaskNotifier, agents domain.AgentRepository, tasks domain.TaskRepository, logger *slog.Logger) *SessionSignaler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &SessionSignaler{notifier: notifier, agents: agents, tasks: tasks, logger: logger}
}

// TaskChanged runs the side effects for task having entered its current status.
func (s *SessionSignaler) TaskChanged(ctx context.Context, task *domain.Task, now time.Time) []string {
	var warnings []string

	if task.AgentID != "" {
		if w := s.syncAgent(ctx, task, now); w != "" {
			warnings = append(warnings, w)
		}
	}

	if s.notifier != nil && task.Status.NotifiesSession() {
		if err := s.notifier.Notify(ctx, domain.NewTaskEvent(task, now)); err != nil {
			s.logger.Warn("task notification failed", "task", task.ID, "status", task.Status, "error", err)
			warnings = append(warnings, fmt.Sprintf("notification failed: %v", err))
		}
	}
	return warnings
}

// syncAgent marks the assignee busy while it works and idle when it has nothing left.
func (s *SessionSignaler) syncAgent(ctx context.Context, task *domain.Task, now time.Time) string {
	if s.agents == nil {
		return ""
	}

	var next domain.AgentStatus
	switch {
	case task.Status == domain.StatusInProgress:
		next = domain.AgentBusy
	case task.Status.IsTerminal() || task.Status == domain.StatusPaused || task.Status == domain.StatusReviewing:
		active, err := s.tasks.List(ctx, domain.TaskFilter{
			Statuses: []domain.Status{domain.StatusInProgress},
			AgentID:  task.AgentID,
			Limit:    1,
		})
		if err != nil {
			s.logger.Warn("list active tasks failed", "agent", task.AgentID, "error", err)
			return fmt.Sprintf("agent status not updated: %v", err)
		}
		if len(active) > 0 {
			return ""
		}
		next = domain.AgentIdle
	default:
		return ""
	}

	agent, err := s.agents.Get(ctx, task.AgentID)
	if err != nil || agent == nil || agent.Status == next || agent.Status == domain.AgentOffline {
		return ""
	}
	if err := s.agents.SetStatus(ctx, task.AgentID, next, now); err != nil {
		s.logger.Warn("agent status update failed", "agent", task.AgentID, "status", next, "error", err)
		return fmt.Sprintf("agent status not updated: %v", err)
	}
	return ""
}

package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/runoshun/agent-swarm/internal/domain"
	"github.com/runoshun/agent-swarm/internal/usecase/shared"
)

// ClaimTaskInput contains the parameters for claiming a task.
type ClaimTaskInput struct {
	TaskID  string // Task to claim (required)
	AgentID string // Claiming agent (required)
}

// ClaimTaskOutput contains the result of claiming a task.
type ClaimTaskOutput struct {
	Task     *domain.Task
	Warnings []string
}

// ClaimTask is the use case for taking exclusive ownership of a task.
type ClaimTask struct {
	tasks   domain.TaskRepository
	agents  domain.AgentRepository
	clock   domain.Clock
	metrics domain.MetricsRecorder
	signal  *shared.SessionSignaler
	logger  *slog.Logger
}

// NewClaimTask creates a new ClaimTask use case.
func NewClaimTask(
	tasks domain.TaskRepository,
	agents domain.AgentRepository,
	notifier domain.TaskNotifier,
	clock domain.Clock,
	metrics domain.MetricsRecorder,
	logger *slog.Logger,
) *ClaimTask {
	return &ClaimTask{
		tasks:   tasks,
		agents:  agents,
		clock:   clock,
		metrics: orNopMetrics(metrics),
		signal:  shared.NewSessionSignaler(notifier, agents, tasks, logger),
		logger:  orDiscard(logger),
	}
}

// Execute claims the task. It succeeds only if the task is unassigned or offered
// to in.AgentID; otherwise it returns domain.ErrClaimConflict and the task is
// left as it was.
func (uc *ClaimTask) Execute(ctx context.Context, in ClaimTaskInput) (*ClaimTaskOutput, error) {
	if in.AgentID == "" {
		return nil, domain.ErrMissingCaller
	}
	if _, err := shared.GetAgent(ctx, uc.agents, in.AgentID); err != nil {
		return nil, err
	}

	now := uc.clock.Now()
	task, err := uc.tasks.Claim(ctx, in.TaskID, in.AgentID, now)
	if err != nil {
		if errors.Is(err, domain.ErrClaimConflict) {
			uc.metrics.RecordClaim(ctx, false)
			uc.logger.Debug("claim lost", "task", in.TaskID, "agent", in.AgentID)
		}
		return nil, err
	}

	uc.metrics.RecordClaim(ctx, true)
	uc.metrics.RecordTaskOp(ctx, "claim", task.Status)
	uc.logger.Info("task claimed", "task", task.ID, "agent", in.AgentID)

	warnings := uc.signal.TaskChanged(ctx, task, now)
	return &ClaimTaskOutput{Task: task, Warnings: warnings}, nil
}

package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/runoshun/agent-swarm/internal/domain"
	"github.com/runoshun/agent-swarm/internal/usecase/shared"
)

// UpdateTaskStatusInput contains the parameters for a lifecycle transition.
// Fields are ordered to minimize memory padding.
type UpdateTaskStatusInput struct {
	TaskID  string
	Status  domain.Status
	By      string // Acting agent (empty = system)
	AgentID string // Target agent when offering, or the agent starting a pool task
	Reason  string // Recorded when failing or cancelling
}

// UpdateTaskStatusOutput contains the result of a transition.
type UpdateTaskStatusOutput struct {
	Task     *domain.Task
	Previous domain.Status
	Warnings []string
}

// UpdateTaskStatus is the use case for moving a task along its lifecycle.
type UpdateTaskStatus struct {
	tasks   domain.TaskRepository
	agents  domain.AgentRepository
	clock   domain.Clock
	metrics domain.MetricsRecorder
	signal  *shared.SessionSignaler
	logger  *slog.Logger
}

// NewUpdateTaskStatus creates a new UpdateTaskStatus use case.
func NewUpdateTaskStatus(
	tasks domain.TaskRepository,
	agents domain.AgentRepository,
	notifier domain.TaskNotifier,
	clock domain.Clock,
	metrics domain.MetricsRecorder,
	logger *slog.Logger,
) *UpdateTaskStatus {
	return &UpdateTaskStatus{
		tasks:   tasks,
		agents:  agents,
		clock:   clock,
		metrics: orNopMetrics(metrics),
		signal:  shared.NewSessionSignaler(notifier, agents, tasks, logger),
		logger:  orDiscard(logger),
	}
}

// Execute validates and applies the transition. The write is conditional on the
// status and assignee read here, so a concurrent change makes it fail with
// domain.ErrTaskModified instead of being overwritten.
func (uc *UpdateTaskStatus) Execute(ctx context.Context, in UpdateTaskStatusInput) (*UpdateTaskStatusOutput, error) {
	if !in.Status.IsValid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidStatus, in.Status)
	}

	task, err := shared.GetTask(ctx, uc.tasks, in.TaskID)
	if err != nil {
		return nil, err
	}
	if task.Status.IsTerminal() {
		return nil, fmt.Errorf("%w: task %s is %s", domain.ErrTaskTerminal, task.ID, task.Status)
	}
	if !task.Status.CanTransitionTo(in.Status) {
		return nil, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, task.Status, in.Status)
	}

	next := *task
	next.Status = in.Status
	next.UpdatedAt = uc.clock.Now()

	switch in.Status {
	case domain.StatusOffered:
		if in.AgentID == "" {
			return nil, fmt.Errorf("%w: offering a task requires a target agent", domain.ErrValidation)
		}
		if _, err := shared.GetAgent(ctx, uc.agents, in.AgentID); err != nil {
			return nil, err
		}
		next.AgentID = in.AgentID
	case domain.StatusUnassigned:
		caller := domain.System
		if in.By != "" {
			by, err := shared.GetAgent(ctx, uc.agents, in.By)
			if err != nil {
				return nil, err
			}
			caller = domain.Caller{AgentID: by.ID, IsLead: by.IsLead}
		}
		if err := domain.AuthorizeRelease(caller, task); err != nil {
			return nil, err
		}
		next.AgentID = ""
	case domain.StatusInProgress:
		if next.AgentID == "" {
			agentID := in.AgentID
			if agentID == "" {
				agentID = in.By
			}
			if agentID == "" {
				return nil, fmt.Errorf("%w: starting a pool task requires an agent", domain.ErrValidation)
			}
			if _, err := shared.GetAgent(ctx, uc.agents, agentID); err != nil {
				return nil, err
			}
			next.AgentID = agentID
		}
	case domain.StatusFailed, domain.StatusCancelled:
		if in.Reason != "" {
			next.FailureReason = in.Reason
		}
	}

	if err := uc.tasks.CompareAndSwap(ctx, &next, task.Status, task.AgentID); err != nil {
		return nil, err
	}
	uc.metrics.RecordTaskOp(ctx, "update_status", next.Status)
	uc.logger.Info("task status changed", "task", task.ID, "from", task.Status, "to", next.Status, "by", in.By)

	warnings := uc.signal.TaskChanged(ctx, &next, next.UpdatedAt)
	return &UpdateTaskStatusOutput{Task: &next, Previous: task.Status, Warnings: warnings}, nil
}

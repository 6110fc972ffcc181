package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/runoshun/agent-swarm/internal/domain"
	"github.com/runoshun/agent-swarm/internal/usecase/shared"
)

// DeclineTaskInput contains the parameters for declining an offered task.
type DeclineTaskInput struct {
	TaskID  string
	AgentID string // The agent the task is offered to
}

// DeclineTaskOutput contains the result of declining a task.
type DeclineTaskOutput struct {
	Task *domain.Task
}

// DeclineTask returns an offered task to the pool.
type DeclineTask struct {
	tasks   domain.TaskRepository
	clock   domain.Clock
	metrics domain.MetricsRecorder
	logger  *slog.Logger
}

// NewDeclineTask creates a new DeclineTask use case.
func NewDeclineTask(tasks domain.TaskRepository, clock domain.Clock, metrics domain.MetricsRecorder, logger *slog.Logger) *DeclineTask {
	return &DeclineTask{
		tasks:   tasks,
		clock:   clock,
		metrics: orNopMetrics(metrics),
		logger:  orDiscard(logger),
	}
}

// Execute moves the task from offered back to unassigned and clears the assignee.
func (uc *DeclineTask) Execute(ctx context.Context, in DeclineTaskInput) (*DeclineTaskOutput, error) {
	if in.AgentID == "" {
		return nil, domain.ErrMissingCaller
	}
	task, err := shared.GetTask(ctx, uc.tasks, in.TaskID)
	if err != nil {
		return nil, err
	}
	if task.Status != domain.StatusOffered {
		return nil, fmt.Errorf("%w: cannot decline a task that is %s", domain.ErrInvalidTransition, task.Status)
	}
	if err := domain.AuthorizeRelease(domain.Caller{AgentID: in.AgentID}, task); err != nil {
		return nil, err
	}

	next := *task
	next.Status = domain.StatusUnassigned
	next.AgentID = ""
	next.UpdatedAt = uc.clock.Now()

	if err := uc.tasks.CompareAndSwap(ctx, &next, task.Status, task.AgentID); err != nil {
		return nil, err
	}
	uc.metrics.RecordTaskOp(ctx, "decline", next.Status)
	uc.logger.Info("task declined", "task", task.ID, "agent", in.AgentID)

	return &DeclineTaskOutput{Task: &next}, nil
}

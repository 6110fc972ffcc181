package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/runoshun/agent-swarm/internal/domain"
	"github.com/runoshun/agent-swarm/internal/usecase/shared"
)

// CreateFollowUpTaskInput contains the parameters for a follow-up task.
type CreateFollowUpTaskInput struct {
	ParentTaskID string
	Description  string
	CreatedBy    string
	Source       domain.Source // Defaults to the parent's source
}

// CreateFollowUpTaskOutput contains the created follow-up.
type CreateFollowUpTaskOutput struct {
	Task     *domain.Task
	Warnings []string
}

// CreateFollowUpTask creates a task that resumes its parent's execution session.
type CreateFollowUpTask struct {
	tasks   domain.TaskRepository
	ids     domain.IDGenerator
	clock   domain.Clock
	metrics domain.MetricsRecorder
	signal  *shared.SessionSignaler
	logger  *slog.Logger
}

// NewCreateFollowUpTask creates a new CreateFollowUpTask use case.
func NewCreateFollowUpTask(
	tasks domain.TaskRepository,
	agents domain.AgentRepository,
	notifier domain.TaskNotifier,
	ids domain.IDGenerator,
	clock domain.Clock,
	metrics domain.MetricsRecorder,
	logger *slog.Logger,
) *CreateFollowUpTask {
	return &CreateFollowUpTask{
		tasks:   tasks,
		ids:     ids,
		clock:   clock,
		metrics: orNopMetrics(metrics),
		signal:  shared.NewSessionSignaler(notifier, agents, tasks, logger),
		logger:  orDiscard(logger),
	}
}

// Execute creates the follow-up. It goes to the parent's assignee (offered) or,
// when the parent has none, to the pool. Epic, thread, type, tags and priority
// are inherited.
func (uc *CreateFollowUpTask) Execute(ctx context.Context, in CreateFollowUpTaskInput) (*CreateFollowUpTaskOutput, error) {
	description := strings.TrimSpace(in.Description)
	if description == "" {
		return nil, domain.ErrEmptyDescription
	}

	parent, err := uc.tasks.Get(ctx, in.ParentTaskID)
	if err != nil {
		return nil, fmt.Errorf("get parent task: %w", err)
	}
	if parent == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrParentNotFound, in.ParentTaskID)
	}

	source := in.Source
	if source == "" {
		source = parent.Source
	}

	status := domain.StatusUnassigned
	if parent.AgentID != "" {
		status = domain.StatusOffered
	}

	now := uc.clock.Now()
	task := &domain.Task{
		ID:           uc.ids.NewID(),
		Description:  description,
		Status:       status,
		AgentID:      parent.AgentID,
		EpicID:       parent.EpicID,
		ParentTaskID: parent.ID,
		Source:       source,
		TaskType:     parent.TaskType,
		ThreadID:     parent.ThreadID,
		CreatedBy:    in.CreatedBy,
		Tags:         append([]string(nil), parent.Tags...),
		Priority:     parent.Priority,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := uc.tasks.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("save task: %w", err)
	}
	uc.metrics.RecordTaskOp(ctx, "follow_up", task.Status)
	uc.logger.Info("follow-up task created", "task", task.ID, "parent", parent.ID, "agent", task.AgentID)

	warnings := uc.signal.TaskChanged(ctx, task, now)
	return &CreateFollowUpTaskOutput{Task: task, Warnings: warnings}, nil
}

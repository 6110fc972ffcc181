// Package usecase contains application use cases.
package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/runoshun/agent-swarm/internal/domain"
	"github.com/runoshun/agent-swarm/internal/usecase/shared"
)

// CreateTaskInput contains the parameters for creating a task.
// Fields are ordered to minimize memory padding.
type CreateTaskInput struct {
	Priority     *int          // 0-100 (nil = default)
	Description  string        // What to do (required)
	AgentID      string        // Direct assignment (optional)
	EpicID       string        // Owning epic (optional)
	ParentTaskID string        // Session-continuity parent (optional)
	Source       domain.Source // Origin (default: manual)
	TaskType     string        // Free-form classification (optional)
	ThreadID     string        // External conversation linkage (optional)
	CreatedBy    string        // Creating agent (empty = system)
	Tags         []string      // Tags (optional)
}

// CreateTaskOutput contains the result of creating a task.
type CreateTaskOutput struct {
	Task     *domain.Task
	Warnings []string // Best-effort side effects that failed
}

// CreateTask is the use case for creating a task.
// Fields are ordered to minimize memory padding.
type CreateTask struct {
	tasks   domain.TaskRepository
	agents  domain.AgentRepository
	epics   domain.EpicRepository
	ids     domain.IDGenerator
	clock   domain.Clock
	metrics domain.MetricsRecorder
	signal  *shared.SessionSignaler
	logger  *slog.Logger
}

// NewCreateTask creates a new CreateTask use case.
func NewCreateTask(
	tasks domain.TaskRepository,
	agents domain.AgentRepository,
	epics domain.EpicRepository,
	notifier domain.TaskNotifier,
	ids domain.IDGenerator,
	clock domain.Clock,
	metrics domain.MetricsRecorder,
	logger *slog.Logger,
) *CreateTask {
	return &CreateTask{
		tasks:   tasks,
		agents:  agents,
		epics:   epics,
		ids:     ids,
		clock:   clock,
		metrics: orNopMetrics(metrics),
		signal:  shared.NewSessionSignaler(notifier, agents, tasks, logger),
		logger:  orDiscard(logger),
	}
}

// Execute creates a task. Assigning to another agent offers the task; assigning
// to the creating agent starts it immediately.
func (uc *CreateTask) Execute(ctx context.Context, in CreateTaskInput) (*CreateTaskOutput, error) {
	description := strings.TrimSpace(in.Description)
	if description == "" {
		return nil, domain.ErrEmptyDescription
	}

	priority := domain.DefaultPriority
	if in.Priority != nil {
		priority = *in.Priority
	}
	if err := domain.ValidatePriority(priority); err != nil {
		return nil, err
	}

	source := in.Source
	if source == "" {
		source = domain.SourceManual
	}
	if !source.IsValid() {
		return nil, fmt.Errorf("%w: unknown source %q", domain.ErrValidation, source)
	}

	if in.AgentID != "" {
		if _, err := shared.GetAgent(ctx, uc.agents, in.AgentID); err != nil {
			return nil, err
		}
	}
	if in.EpicID != "" {
		if _, err := shared.GetEpic(ctx, uc.epics, in.EpicID); err != nil {
			return nil, err
		}
	}
	if in.ParentTaskID != "" {
		parent, err := uc.tasks.Get(ctx, in.ParentTaskID)
		if err != nil {
			return nil, fmt.Errorf("get parent task: %w", err)
		}
		if parent == nil {
			return nil, fmt.Errorf("%w: %s", domain.ErrParentNotFound, in.ParentTaskID)
		}
	}

	status := domain.StatusUnassigned
	switch {
	case in.AgentID != "" && in.AgentID == in.CreatedBy:
		status = domain.StatusInProgress
	case in.AgentID != "":
		status = domain.StatusOffered
	}

	now := uc.clock.Now()
	task := &domain.Task{
		ID:           uc.ids.NewID(),
		Description:  description,
		Status:       status,
		AgentID:      in.AgentID,
		EpicID:       in.EpicID,
		ParentTaskID: in.ParentTaskID,
		Source:       source,
		TaskType:     in.TaskType,
		ThreadID:     in.ThreadID,
		CreatedBy:    in.CreatedBy,
		Tags:         domain.NormalizeTags(in.Tags),
		Priority:     priority,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := uc.tasks.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("save task: %w", err)
	}
	uc.metrics.RecordTaskOp(ctx, "create", task.Status)
	uc.logger.Info("task created", "task", task.ID, "status", task.Status, "agent", task.AgentID, "source", task.Source)

	warnings := uc.signal.TaskChanged(ctx, task, now)
	return &CreateTaskOutput{Task: task, Warnings: warnings}, nil
}

func orDiscard(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return logger
}

func orNopMetrics(m domain.MetricsRecorder) domain.MetricsRecorder {
	if m == nil {
		return domain.NopMetrics{}
	}
	return m
}

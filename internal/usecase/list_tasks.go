package usecase

import (
	"context"
	"fmt"

	"github.com/runoshun/agent-swarm/internal/domain"
	"github.com/runoshun/agent-swarm/internal/usecase/shared"
)

// ListTasksInput contains the parameters for listing tasks.
type ListTasksInput struct {
	Filter domain.TaskFilter
}

// ListTasksOutput contains the matching tasks.
type ListTasksOutput struct {
	Tasks []*domain.Task
}

// ListTasks is the use case for listing tasks.
type ListTasks struct {
	tasks domain.TaskRepository
}

// NewListTasks creates a new ListTasks use case.
func NewListTasks(tasks domain.TaskRepository) *ListTasks {
	return &ListTasks{tasks: tasks}
}

// Execute returns tasks matching the filter.
func (uc *ListTasks) Execute(ctx context.Context, in ListTasksInput) (*ListTasksOutput, error) {
	for _, s := range in.Filter.Statuses {
		if !s.IsValid() {
			return nil, fmt.Errorf("%w: %q", domain.ErrInvalidStatus, s)
		}
	}
	tasks, err := uc.tasks.List(ctx, in.Filter)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return &ListTasksOutput{Tasks: tasks}, nil
}

// GetTaskInput contains the parameters for showing a task.
type GetTaskInput struct {
	TaskID string
}

// GetTaskOutput contains the task.
type GetTaskOutput struct {
	Task *domain.Task
}

// GetTask is the use case for showing one task.
type GetTask struct {
	tasks domain.TaskRepository
}

// NewGetTask creates a new GetTask use case.
func NewGetTask(tasks domain.TaskRepository) *GetTask {
	return &GetTask{tasks: tasks}
}

// Execute returns the task or domain.ErrTaskNotFound.
func (uc *GetTask) Execute(ctx context.Context, in GetTaskInput) (*GetTaskOutput, error) {
	task, err := shared.GetTask(ctx, uc.tasks, in.TaskID)
	if err != nil {
		return nil, err
	}
	return &GetTaskOutput{Task: task}, nil
}

// Package shared provides shared utilities for use cases.
package shared

import (
	"context"
	"fmt"

	"github.com/runoshun/agent-swarm/internal/domain"
)

// GetTask retrieves a task by ID and returns domain.ErrTaskNotFound if not found.
// This centralizes the common pattern of:
//
//	task, err := repo.Get(ctx, taskID)
//	if err != nil { return nil, fmt.Errorf("get task: %w", err) }
//	if task == nil { return nil, domain.ErrTaskNotFound }
func GetTask(ctx context.Context, repo domain.TaskRepository, taskID string) (*domain.Task, error) {
	task, err := repo.Get(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	if task == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrTaskNotFound, taskID)
	}
	return task, nil
}

// GetAgent retrieves an agent by ID and returns domain.ErrAgentNotFound if not found.
func GetAgent(ctx context.Context, repo domain.AgentRepository, agentID string) (*domain.Agent, error) {
	agent, err := repo.Get(ctx, agentID)
	if err != nil {
		return nil, fmt.Errorf("get agent: %w", err)
	}
	if agent == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrAgentNotFound, agentID)
	}
	return agent, nil
}

// GetEpic retrieves an epic by ID and returns domain.ErrEpicNotFound if not found.
func GetEpic(ctx context.Context, repo domain.EpicRepository, epicID string) (*domain.Epic, error) {
	epic, err := repo.Get(ctx, epicID)
	if err != nil {
		return nil, fmt.Errorf("get epic: %w", err)
	}
	if epic == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrEpicNotFound, epicID)
	}
	return epic, nil
}

// GetSchedule retrieves a schedule by ID, falling back to its name.
// Returns domain.ErrScheduleNotFound if neither matches.
func GetSchedule(ctx context.Context, repo domain.ScheduleRepository, idOrName string) (*domain.ScheduledTask, error) {
	s, err := repo.Get(ctx, idOrName)
	if err != nil {
		return nil, fmt.Errorf("get schedule: %w", err)
	}
	if s != nil {
		return s, nil
	}
	s, err = repo.GetByName(ctx, idOrName)
	if err != nil {
		return nil, fmt.Errorf("get schedule: %w", err)
	}
	if s == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrScheduleNotFound, idOrName)
	}
	return s, nil
}

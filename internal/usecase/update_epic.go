package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/runoshun/agent-swarm/internal/domain"
	"github.com/runoshun/agent-swarm/internal/usecase/shared"
)

// UpdateEpicInput contains the parameters for editing an epic.
// Nil fields are left unchanged.
type UpdateEpicInput struct {
	Caller      domain.Caller
	Name        *string
	Goal        *string
	Description *string
	Status      *domain.EpicStatus
	LeadAgentID *string
	Tags        *[]string
	Priority    *int
	EpicID      string
}

// UpdateEpicOutput contains the updated epic.
type UpdateEpicOutput struct {
	Epic *domain.Epic
}

// UpdateEpic is the use case for editing an epic.
type UpdateEpic struct {
	epics  domain.EpicRepository
	agents domain.AgentRepository
	clock  domain.Clock
	logger *slog.Logger
}

// NewUpdateEpic creates a new UpdateEpic use case.
func NewUpdateEpic(epics domain.EpicRepository, agents domain.AgentRepository, clock domain.Clock, logger *slog.Logger) *UpdateEpic {
	return &UpdateEpic{epics: epics, agents: agents, clock: clock, logger: orDiscard(logger)}
}

// Execute applies the edits if the caller may mutate the epic.
func (uc *UpdateEpic) Execute(ctx context.Context, in UpdateEpicInput) (*UpdateEpicOutput, error) {
	epic, err := shared.GetEpic(ctx, uc.epics, in.EpicID)
	if err != nil {
		return nil, err
	}
	if err := domain.AuthorizeEpic(in.Caller, epic, domain.ActionMutate); err != nil {
		return nil, err
	}

	changed := false
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, domain.ErrEmptyName
		}
		epic.Name = name
		changed = true
	}
	if in.Goal != nil {
		epic.Goal = *in.Goal
		changed = true
	}
	if in.Description != nil {
		epic.Description = *in.Description
		changed = true
	}
	if in.Status != nil {
		if !in.Status.IsValid() {
			return nil, fmt.Errorf("%w: %q", domain.ErrInvalidEpicStatus, *in.Status)
		}
		epic.Status = *in.Status
		changed = true
	}
	if in.LeadAgentID != nil {
		if *in.LeadAgentID != "" {
			if _, err := shared.GetAgent(ctx, uc.agents, *in.LeadAgentID); err != nil {
				return nil, err
			}
		}
		epic.LeadAgentID = *in.LeadAgentID
		changed = true
	}
	if in.Tags != nil {
		epic.Tags = domain.NormalizeTags(*in.Tags)
		changed = true
	}
	if in.Priority != nil {
		if err := domain.ValidatePriority(*in.Priority); err != nil {
			return nil, err
		}
		epic.Priority = *in.Priority
		changed = true
	}
	if !changed {
		return nil, domain.ErrNoFieldsToUpdate
	}

	epic.UpdatedAt = uc.clock.Now()
	if err := uc.epics.Update(ctx, epic); err != nil {
		return nil, fmt.Errorf("save epic: %w", err)
	}
	uc.logger.Info("epic updated", "epic", epic.ID, "by", in.Caller.AgentID)
	return &UpdateEpicOutput{Epic: epic}, nil
}

package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/runoshun/agent-swarm/internal/domain"
	"github.com/runoshun/agent-swarm/internal/usecase/shared"
)

// CreateEpicInput contains the parameters for creating an epic.
// Fields are ordered to minimize memory padding.
type CreateEpicInput struct {
	Caller      domain.Caller
	Priority    *int
	Name        string
	Goal        string
	Description string
	Status      domain.EpicStatus // Default: draft
	LeadAgentID string
	Tags        []string
}

// CreateEpicOutput contains the created epic.
type CreateEpicOutput struct {
	Epic *domain.Epic
}

// CreateEpic is the use case for creating an epic.
type CreateEpic struct {
	epics  domain.EpicRepository
	agents domain.AgentRepository
	ids    domain.IDGenerator
	clock  domain.Clock
	logger *slog.Logger
}

// NewCreateEpic creates a new CreateEpic use case.
func NewCreateEpic(epics domain.EpicRepository, agents domain.AgentRepository, ids domain.IDGenerator, clock domain.Clock, logger *slog.Logger) *CreateEpic {
	return &CreateEpic{epics: epics, agents: agents, ids: ids, clock: clock, logger: orDiscard(logger)}
}

// Execute creates the epic owned by the caller.
func (uc *CreateEpic) Execute(ctx context.Context, in CreateEpicInput) (*CreateEpicOutput, error) {
	if in.Caller.AgentID == "" && !in.Caller.IsLead {
		return nil, domain.ErrMissingCaller
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domain.ErrEmptyName
	}
	status := in.Status
	if status == "" {
		status = domain.EpicDraft
	}
	if !status.IsValid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidEpicStatus, status)
	}
	priority := domain.DefaultPriority
	if in.Priority != nil {
		priority = *in.Priority
	}
	if err := domain.ValidatePriority(priority); err != nil {
		return nil, err
	}
	if in.LeadAgentID != "" {
		if _, err := shared.GetAgent(ctx, uc.agents, in.LeadAgentID); err != nil {
			return nil, err
		}
	}

	now := uc.clock.Now()
	epic := &domain.Epic{
		ID:               uc.ids.NewID(),
		Name:             name,
		Goal:             in.Goal,
		Description:      in.Description,
		Status:           status,
		CreatedByAgentID: in.Caller.AgentID,
		LeadAgentID:      in.LeadAgentID,
		Tags:             domain.NormalizeTags(in.Tags),
		Priority:         priority,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := uc.epics.Create(ctx, epic); err != nil {
		return nil, fmt.Errorf("save epic: %w", err)
	}
	uc.logger.Info("epic created", "epic", epic.ID, "name", epic.Name, "by", in.Caller.AgentID)
	return &CreateEpicOutput{Epic: epic}, nil
}

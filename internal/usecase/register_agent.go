package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/runoshun/agent-swarm/internal/domain"
	"github.com/runoshun/agent-swarm/internal/usecase/shared"
)

// RegisterAgentInput contains the parameters for registering an agent.
type RegisterAgentInput struct {
	ID           string // Optional; generated when empty
	Name         string
	Role         string
	Capabilities []string
	IsLead       bool
}

// RegisterAgentOutput contains the registered agent.
type RegisterAgentOutput struct {
	Agent *domain.Agent
}

// RegisterAgent adds a worker or lead identity to the swarm.
type RegisterAgent struct {
	agents domain.AgentRepository
	ids    domain.IDGenerator
	clock  domain.Clock
	logger *slog.Logger
}

// NewRegisterAgent creates a new RegisterAgent use case.
func NewRegisterAgent(agents domain.AgentRepository, ids domain.IDGenerator, clock domain.Clock, logger *slog.Logger) *RegisterAgent {
	return &RegisterAgent{agents: agents, ids: ids, clock: clock, logger: orDiscard(logger)}
}

// Execute registers the agent in idle state.
func (uc *RegisterAgent) Execute(ctx context.Context, in RegisterAgentInput) (*RegisterAgentOutput, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domain.ErrEmptyName
	}
	id := strings.TrimSpace(in.ID)
	if id == "" {
		id = uc.ids.NewID()
	}

	agent := &domain.Agent{
		ID:           id,
		Name:         name,
		Role:         in.Role,
		IsLead:       in.IsLead,
		Capabilities: domain.NormalizeTags(in.Capabilities),
		Status:       domain.AgentIdle,
		UpdatedAt:    uc.clock.Now(),
	}
	if err := uc.agents.Create(ctx, agent); err != nil {
		return nil, fmt.Errorf("register agent: %w", err)
	}
	uc.logger.Info("agent registered", "agent", agent.ID, "name", agent.Name, "lead", agent.IsLead)
	return &RegisterAgentOutput{Agent: agent}, nil
}

// SetAgentStatusInput contains the parameters for changing availability.
type SetAgentStatusInput struct {
	AgentID string
	Status  domain.AgentStatus
}

// SetAgentStatusOutput contains the updated agent.
type SetAgentStatusOutput struct {
	Agent *domain.Agent
}

// SetAgentStatus changes an agent's availability.
type SetAgentStatus struct {
	agents domain.AgentRepository
	clock  domain.Clock
}

// NewSetAgentStatus creates a new SetAgentStatus use case.
func NewSetAgentStatus(agents domain.AgentRepository, clock domain.Clock) *SetAgentStatus {
	return &SetAgentStatus{agents: agents, clock: clock}
}

// Execute sets the status.
func (uc *SetAgentStatus) Execute(ctx context.Context, in SetAgentStatusInput) (*SetAgentStatusOutput, error) {
	if !in.Status.IsValid() {
		return nil, fmt.Errorf("%w: unknown agent status %q", domain.ErrValidation, in.Status)
	}
	agent, err := shared.GetAgent(ctx, uc.agents, in.AgentID)
	if err != nil {
		return nil, err
	}
	now := uc.clock.Now()
	if err := uc.agents.SetStatus(ctx, agent.ID, in.Status, now); err != nil {
		return nil, fmt.Errorf("set agent status: %w", err)
	}
	agent.Status = in.Status
	agent.UpdatedAt = now
	return &SetAgentStatusOutput{Agent: agent}, nil
}

// ListAgentsOutput contains all agents.
type ListAgentsOutput struct {
	Agents []*domain.Agent
}

// ListAgents lists registered agents.
type ListAgents struct {
	agents domain.AgentRepository
}

// NewListAgents creates a new ListAgents use case.
func NewListAgents(agents domain.AgentRepository) *ListAgents {
	return &ListAgents{agents: agents}
}

// Execute returns all agents.
func (uc *ListAgents) Execute(ctx context.Context) (*ListAgentsOutput, error) {
	agents, err := uc.agents.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list agents: %w", err)
	}
	return &ListAgentsOutput{Agents: agents}, nil
}

// GetAgent shows one agent.
type GetAgent struct {
	agents domain.AgentRepository
}

// NewGetAgent creates a new GetAgent use case.
func NewGetAgent(agents domain.AgentRepository) *GetAgent {
	return &GetAgent{agents: agents}
}

// Execute returns the agent or domain.ErrAgentNotFound.
func (uc *GetAgent) Execute(ctx context.Context, agentID string) (*domain.Agent, error) {
	return shared.GetAgent(ctx, uc.agents, agentID)
}

package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/runoshun/agent-swarm/internal/domain"
	"github.com/runoshun/agent-swarm/internal/usecase/shared"
)

// RegisterInboxMappingInput binds an external inbox or channel to an agent.
type RegisterInboxMappingInput struct {
	Caller     domain.Caller
	Provider   domain.Source
	ExternalID string
	AgentID    string
}

// RegisterInboxMapping creates or replaces a channel mapping.
type RegisterInboxMapping struct {
	inbox  domain.InboxRepository
	agents domain.AgentRepository
	ids    domain.IDGenerator
	clock  domain.Clock
	logger *slog.Logger
}

// NewRegisterInboxMapping creates a new RegisterInboxMapping use case.
func NewRegisterInboxMapping(inbox domain.InboxRepository, agents domain.AgentRepository, ids domain.IDGenerator, clock domain.Clock, logger *slog.Logger) *RegisterInboxMapping {
	return &RegisterInboxMapping{inbox: inbox, agents: agents, ids: ids, clock: clock, logger: orDiscard(logger)}
}

// Execute stores the mapping.
func (uc *RegisterInboxMapping) Execute(ctx context.Context, in RegisterInboxMappingInput) (*domain.InboxMapping, error) {
	if err := domain.AuthorizeChannel(in.Caller); err != nil {
		return nil, err
	}
	if in.Provider != domain.SourceAgentMail && in.Provider != domain.SourceSlack {
		return nil, fmt.Errorf("%w: unsupported provider %q", domain.ErrValidation, in.Provider)
	}
	externalID := strings.TrimSpace(in.ExternalID)
	if externalID == "" {
		return nil, fmt.Errorf("%w: external id is required", domain.ErrValidation)
	}
	if _, err := shared.GetAgent(ctx, uc.agents, in.AgentID); err != nil {
		return nil, err
	}

	m := &domain.InboxMapping{
		ID:         uc.ids.NewID(),
		Provider:   in.Provider,
		ExternalID: externalID,
		AgentID:    in.AgentID,
		CreatedAt:  uc.clock.Now(),
	}
	if err := uc.inbox.SaveMapping(ctx, m); err != nil {
		return nil, fmt.Errorf("save inbox mapping: %w", err)
	}
	uc.logger.Info("inbox mapping registered", "provider", m.Provider, "external_id", m.ExternalID, "agent", m.AgentID)
	return m, nil
}

// RemoveInboxMappingInput identifies the mapping to remove.
type RemoveInboxMappingInput struct {
	Caller     domain.Caller
	Provider   domain.Source
	ExternalID string
}

// RemoveInboxMapping deletes a channel mapping.
type RemoveInboxMapping struct {
	inbox  domain.InboxRepository
	logger *slog.Logger
}

// NewRemoveInboxMapping creates a new RemoveInboxMapping use case.
func NewRemoveInboxMapping(inbox domain.InboxRepository, logger *slog.Logger) *RemoveInboxMapping {
	return &RemoveInboxMapping{inbox: inbox, logger: orDiscard(logger)}
}

// Execute removes the mapping.
func (uc *RemoveInboxMapping) Execute(ctx context.Context, in RemoveInboxMappingInput) error {
	if err := domain.AuthorizeChannel(in.Caller); err != nil {
		return err
	}
	if err := uc.inbox.DeleteMapping(ctx, in.Provider, strings.TrimSpace(in.ExternalID)); err != nil {
		return fmt.Errorf("delete inbox mapping: %w", err)
	}
	uc.logger.Info("inbox mapping removed", "provider", in.Provider, "external_id", in.ExternalID)
	return nil
}

// ListInboxMappings lists channel mappings.
type ListInboxMappings struct {
	inbox domain.InboxRepository
}

// NewListInboxMappings creates a new ListInboxMappings use case.
func NewListInboxMappings(inbox domain.InboxRepository) *ListInboxMappings {
	return &ListInboxMappings{inbox: inbox}
}

// Execute returns every mapping. Listing is open to any caller with an identity.
func (uc *ListInboxMappings) Execute(ctx context.Context) ([]*domain.InboxMapping, error) {
	out, err := uc.inbox.ListMappings(ctx)
	if err != nil {
		return nil, fmt.Errorf("list inbox mappings: %w", err)
	}
	return out, nil
}

// ListInboxMessages lists messages delivered to agents by the router.
type ListInboxMessages struct {
	inbox domain.InboxRepository
}

// NewListInboxMessages creates a new ListInboxMessages use case.
func NewListInboxMessages(inbox domain.InboxRepository) *ListInboxMessages {
	return &ListInboxMessages{inbox: inbox}
}

// Execute returns messages matching filter, newest first.
func (uc *ListInboxMessages) Execute(ctx context.Context, filter domain.MessageFilter) ([]*domain.InboxMessage, error) {
	out, err := uc.inbox.ListMessages(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list inbox messages: %w", err)
	}
	return out, nil
}

// MarkMessageRead flags an inbox message as read.
type MarkMessageRead struct {
	inbox domain.InboxRepository
}

// NewMarkMessageRead creates a new MarkMessageRead use case.
func NewMarkMessageRead(inbox domain.InboxRepository) *MarkMessageRead {
	return &MarkMessageRead{inbox: inbox}
}

// Execute marks the message.
func (uc *MarkMessageRead) Execute(ctx context.Context, id string) error {
	if err := uc.inbox.MarkRead(ctx, id); err != nil {
		return fmt.Errorf("mark message read: %w", err)
	}
	return nil
}

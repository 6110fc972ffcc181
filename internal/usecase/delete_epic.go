package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/runoshun/agent-swarm/internal/domain"
	"github.com/runoshun/agent-swarm/internal/usecase/shared"
)

// DeleteEpicInput contains the parameters for deleting an epic.
type DeleteEpicInput struct {
	Caller domain.Caller
	EpicID string
}

// DeleteEpicOutput contains the result of deleting an epic.
type DeleteEpicOutput struct {
	UnlinkedTasks int // Tasks whose epic was cleared
}

// DeleteEpic removes an epic. Its tasks are unlinked, never deleted.
type DeleteEpic struct {
	epics  domain.EpicRepository
	clock  domain.Clock
	logger *slog.Logger
}

// NewDeleteEpic creates a new DeleteEpic use case.
func NewDeleteEpic(epics domain.EpicRepository, clock domain.Clock, logger *slog.Logger) *DeleteEpic {
	return &DeleteEpic{epics: epics, clock: clock, logger: orDiscard(logger)}
}

// Execute deletes the epic if the caller is its creator or a swarm lead.
func (uc *DeleteEpic) Execute(ctx context.Context, in DeleteEpicInput) (*DeleteEpicOutput, error) {
	epic, err := shared.GetEpic(ctx, uc.epics, in.EpicID)
	if err != nil {
		return nil, err
	}
	if err := domain.AuthorizeEpic(in.Caller, epic, domain.ActionDelete); err != nil {
		return nil, err
	}

	n, err := uc.epics.Delete(ctx, epic.ID, uc.clock.Now())
	if err != nil {
		return nil, fmt.Errorf("delete epic: %w", err)
	}
	uc.logger.Info("epic deleted", "epic", epic.ID, "unlinked_tasks", n, "by", in.Caller.AgentID)
	return &DeleteEpicOutput{UnlinkedTasks: n}, nil
}

// ListEpicsOutput contains matching epics.
type ListEpicsOutput struct {
	Epics []*domain.Epic
}

// ListEpics lists epics.
type ListEpics struct {
	epics domain.EpicRepository
}

// NewListEpics creates a new ListEpics use case.
func NewListEpics(epics domain.EpicRepository) *ListEpics {
	return &ListEpics{epics: epics}
}

// Execute returns epics matching filter.
func (uc *ListEpics) Execute(ctx context.Context, filter domain.EpicFilter) (*ListEpicsOutput, error) {
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidEpicStatus, filter.Status)
	}
	epics, err := uc.epics.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list epics: %w", err)
	}
	return &ListEpicsOutput{Epics: epics}, nil
}

// GetEpic shows one epic.
type GetEpic struct {
	epics domain.EpicRepository
}

// NewGetEpic creates a new GetEpic use case.
func NewGetEpic(epics domain.EpicRepository) *GetEpic {
	return &GetEpic{epics: epics}
}

// Execute returns the epic or domain.ErrEpicNotFound.
func (uc *GetEpic) Execute(ctx context.Context, epicID string) (*domain.Epic, error) {
	return shared.GetEpic(ctx, uc.epics, epicID)
}

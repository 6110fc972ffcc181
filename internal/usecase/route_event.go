package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/runoshun/agent-swarm/internal/domain"
)

// Route branches, in evaluation order.
const (
	RouteDuplicate     = "duplicate"
	RouteIgnored       = "ignored"
	RouteFollowUp      = "follow_up"
	RouteMappedMessage = "mapped_message"
	RouteMappedTask    = "mapped_task"
	RouteLeadMessage   = "lead_message"
	RoutePoolTask      = "pool_task"
)

// RouteEventOutput names the branch taken and what was created.
type RouteEventOutput struct {
	Branch    string
	TaskID    string // Set for task branches
	MessageID string // Set for message branches
	AgentID   string // Recipient, if any
	Warnings  []string
	Duplicate bool
}

// RouteEvent turns an inbound webhook event into a task or an inbox message.
// Finding no agent is not an error: the event lands in the pool instead.
type RouteEvent struct {
	dedup    domain.EventDeduper
	tasks    domain.TaskRepository
	agents   domain.AgentRepository
	inbox    domain.InboxRepository
	create   *CreateTask
	followUp *CreateFollowUpTask
	ids      domain.IDGenerator
	clock    domain.Clock
	metrics  domain.MetricsRecorder
	logger   *slog.Logger
}

// NewRouteEvent creates a new RouteEvent use case.
func NewRouteEvent(
	dedup domain.EventDeduper,
	tasks domain.TaskRepository,
	agents domain.AgentRepository,
	epics domain.EpicRepository,
	inbox domain.InboxRepository,
	notifier domain.TaskNotifier,
	ids domain.IDGenerator,
	clock domain.Clock,
	metrics domain.MetricsRecorder,
	logger *slog.Logger,
) *RouteEvent {
	return &RouteEvent{
		dedup:    dedup,
		tasks:    tasks,
		agents:   agents,
		inbox:    inbox,
		create:   NewCreateTask(tasks, agents, epics, notifier, ids, clock, metrics, logger),
		followUp: NewCreateFollowUpTask(tasks, agents, notifier, ids, clock, metrics, logger),
		ids:      ids,
		clock:    clock,
		metrics:  orNopMetrics(metrics),
		logger:   orDiscard(logger),
	}
}

// Execute routes ev. The first matching rule wins:
// thread continuation, channel mapping, a lead agent, the task pool.
func (uc *RouteEvent) Execute(ctx context.Context, ev *domain.InboundEvent) (*RouteEventOutput, error) {
	if err := ev.Validate(); err != nil {
		return nil, err
	}
	log := uc.logger.With("event", ev.Key(), "kind", ev.Kind)

	seen, err := uc.dedup.Seen(ctx, ev.Key())
	if err != nil {
		// Fail open: a lost dedup check is better than a lost event.
		log.Warn("dedup check failed", "error", err)
	}
	if seen {
		log.Debug("duplicate event dropped")
		uc.metrics.RecordRoute(ctx, ev.Source, RouteDuplicate)
		return &RouteEventOutput{Branch: RouteDuplicate, Duplicate: true}, nil
	}

	if ev.Kind == domain.EventUnknown {
		typ := ""
		if ev.Unknown != nil {
			typ = ev.Unknown.Type
		}
		log.Info("unhandled event ignored", "type", typ)
		uc.metrics.RecordRoute(ctx, ev.Source, RouteIgnored)
		return &RouteEventOutput{Branch: RouteIgnored}, nil
	}

	out, err := uc.route(ctx, ev, log)
	if err != nil {
		return nil, err
	}
	uc.metrics.RecordRoute(ctx, ev.Source, out.Branch)
	log.Info("event routed", "branch", out.Branch, "task", out.TaskID, "message", out.MessageID, "agent", out.AgentID)
	return out, nil
}

func (uc *RouteEvent) route(ctx context.Context, ev *domain.InboundEvent, log *slog.Logger) (*RouteEventOutput, error) {
	if threadID := ev.ThreadID(); threadID != "" {
		parent, err := uc.tasks.LatestByThread(ctx, ev.Source, threadID)
		if err != nil {
			return nil, fmt.Errorf("find thread task: %w", err)
		}
		if parent != nil {
			res, err := uc.followUp.Execute(ctx, CreateFollowUpTaskInput{
				ParentTaskID: parent.ID,
				Description:  ev.Describe(),
				Source:       ev.Source,
			})
			if err != nil {
				return nil, err
			}
			return &RouteEventOutput{Branch: RouteFollowUp, TaskID: res.Task.ID, AgentID: res.Task.AgentID, Warnings: res.Warnings}, nil
		}
	}

	var warnings []string
	if channel := ev.ChannelID(); channel != "" {
		mapping, err := uc.inbox.GetMapping(ctx, ev.Source, channel)
		if err != nil {
			return nil, fmt.Errorf("get inbox mapping: %w", err)
		}
		if mapping != nil {
			agent, err := uc.agents.Get(ctx, mapping.AgentID)
			if err != nil {
				return nil, fmt.Errorf("get agent: %w", err)
			}
			switch {
			case agent == nil:
				log.Warn("mapped agent no longer exists", "agent", mapping.AgentID, "channel", channel)
				warnings = append(warnings, fmt.Sprintf("mapping %s points to missing agent %s", channel, mapping.AgentID))
			case agent.IsLead:
				out, err := uc.deliver(ctx, ev, agent.ID, RouteMappedMessage)
				if err != nil {
					return nil, err
				}
				out.Warnings = append(warnings, out.Warnings...)
				return out, nil
			default:
				return uc.createTask(ctx, ev, agent.ID, RouteMappedTask, warnings)
			}
		}
	}

	agents, err := uc.agents.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list agents: %w", err)
	}
	if lead := domain.PickLead(agents); lead != nil {
		out, err := uc.deliver(ctx, ev, lead.ID, RouteLeadMessage)
		if err != nil {
			return nil, err
		}
		out.Warnings = append(warnings, out.Warnings...)
		return out, nil
	}

	return uc.createTask(ctx, ev, "", RoutePoolTask, warnings)
}

func (uc *RouteEvent) deliver(ctx context.Context, ev *domain.InboundEvent, agentID, branch string) (*RouteEventOutput, error) {
	msg := domain.MessageFromEvent(ev, uc.ids.NewID(), agentID, uc.clock.Now())
	if err := uc.inbox.CreateMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("save inbox message: %w", err)
	}
	return &RouteEventOutput{Branch: branch, MessageID: msg.ID, AgentID: agentID}, nil
}

func (uc *RouteEvent) createTask(ctx context.Context, ev *domain.InboundEvent, agentID, branch string, warnings []string) (*RouteEventOutput, error) {
	res, err := uc.create.Execute(ctx, CreateTaskInput{
		Description: ev.Describe(),
		AgentID:     agentID,
		Source:      ev.Source,
		ThreadID:    ev.ThreadID(),
	})
	if err != nil {
		if errors.Is(err, domain.ErrAgentNotFound) && agentID != "" {
			return uc.createTask(ctx, ev, "", RoutePoolTask, append(warnings, err.Error()))
		}
		return nil, err
	}
	return &RouteEventOutput{
		Branch:   branch,
		TaskID:   res.Task.ID,
		AgentID:  res.Task.AgentID,
		Warnings: append(warnings, res.Warnings...),
	}, nil
}

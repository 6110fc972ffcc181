package domain

import "fmt"

// Caller is the identity invoking an operation, supplied by the transport layer.
type Caller struct {
	AgentID string
	IsLead  bool
}

// System is the caller used for work the engine does on its own behalf
// (scheduler, event router). It holds lead rights.
var System = Caller{AgentID: "", IsLead: true}

// Action is what a caller wants to do with a resource.
type Action string

// Actions checked by the authorization predicates.
const (
	ActionMutate Action = "mutate"
	ActionDelete Action = "delete"
)

// AuthorizeEpic decides whether caller may perform action on epic.
// Creator, epic lead or a swarm lead may mutate; only creator or swarm lead may delete.
func AuthorizeEpic(caller Caller, epic *Epic, action Action) error {
	if caller.IsLead {
		return nil
	}
	if caller.AgentID == "" {
		return ErrMissingCaller
	}
	if caller.AgentID == epic.CreatedByAgentID {
		return nil
	}
	if action == ActionMutate && epic.LeadAgentID != "" && caller.AgentID == epic.LeadAgentID {
		return nil
	}
	return ErrUnauthorized
}

// AuthorizeRelease decides whether caller may send an offered task back to the
// pool. The offered agent may decline it; a swarm lead may withdraw it.
func AuthorizeRelease(caller Caller, task *Task) error {
	if caller.IsLead {
		return nil
	}
	if caller.AgentID == "" {
		return ErrMissingCaller
	}
	if caller.AgentID == task.AgentID {
		return nil
	}
	return fmt.Errorf("%w: task is offered to another agent", ErrUnauthorized)
}

// AuthorizeConfig decides whether caller may write or delete entries at scope/scopeID.
// Global and repo scope require a lead; an agent may manage its own agent-scope entries.
func AuthorizeConfig(caller Caller, scope ConfigScope, scopeID string) error {
	if caller.IsLead {
		return nil
	}
	if caller.AgentID == "" {
		return ErrMissingCaller
	}
	if scope == ScopeAgent && scopeID == caller.AgentID {
		return nil
	}
	return ErrUnauthorized
}

// AuthorizeChannel decides whether caller may manage inbox/channel mappings.
func AuthorizeChannel(caller Caller) error {
	if caller.IsLead {
		return nil
	}
	if caller.AgentID == "" {
		return ErrMissingCaller
	}
	return ErrUnauthorized
}

package domain

// Status represents the lifecycle state of a task.
type Status string

const (
	StatusUnassigned Status = "unassigned"  // In the shared pool, any eligible agent may claim
	StatusOffered    Status = "offered"     // Targeted at one agent, awaiting accept or decline
	StatusInProgress Status = "in_progress" // Claimed and being worked on
	StatusPaused     Status = "paused"      // Work suspended by the assignee or a lead
	StatusReviewing  Status = "reviewing"   // Work handed in, under review
	StatusCompleted  Status = "completed"   // Done
	StatusFailed     Status = "failed"      // Gave up or errored
	StatusCancelled  Status = "cancelled"   // Withdrawn; tasks are never deleted
)

// AllStatuses returns all valid status values.
func AllStatuses() []Status {
	return []Status{
		StatusUnassigned,
		StatusOffered,
		StatusInProgress,
		StatusPaused,
		StatusReviewing,
		StatusCompleted,
		StatusFailed,
		StatusCancelled,
	}
}

// transitions defines the allowed status transitions.
// Flow: unassigned → offered → in_progress → reviewing → completed
//
//	 ↑          │          │  ↑        │
//	 └─decline──┘          ↓  │        └── (changes requested) → in_progress
//	                      paused
//
// failed and cancelled are reachable from every non-terminal state.
var transitions = map[Status][]Status{
	StatusUnassigned: {StatusOffered, StatusInProgress, StatusFailed, StatusCancelled},
	StatusOffered:    {StatusInProgress, StatusUnassigned, StatusFailed, StatusCancelled},
	StatusInProgress: {StatusReviewing, StatusCompleted, StatusPaused, StatusFailed, StatusCancelled},
	StatusPaused:     {StatusInProgress, StatusFailed, StatusCancelled},
	StatusReviewing:  {StatusCompleted, StatusInProgress, StatusFailed, StatusCancelled},
	StatusCompleted:  {},
	StatusFailed:     {},
	StatusCancelled:  {},
}

// CanTransitionTo returns true if the status can transition to the target status.
func (s Status) CanTransitionTo(target Status) bool {
	allowed, ok := transitions[s]
	if !ok {
		return false
	}
	for _, t := range allowed {
		if t == target {
			return true
		}
	}
	return false
}

// IsTerminal returns true if the status is a terminal state.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// IsClaimable returns true if a task in this status can be claimed by some agent.
func (s Status) IsClaimable() bool {
	return s == StatusUnassigned || s == StatusOffered
}

// NotifiesSession reports whether entering this status must be announced to the
// session-spawning layer.
func (s Status) NotifiesSession() bool {
	return s == StatusOffered || s == StatusInProgress || s == StatusCompleted
}

// Display returns a human-readable representation of the status.
func (s Status) Display() string {
	switch s {
	case StatusUnassigned:
		return "Unassigned"
	case StatusOffered:
		return "Offered"
	case StatusInProgress:
		return "In Progress"
	case StatusPaused:
		return "Paused"
	case StatusReviewing:
		return "Reviewing"
	case StatusCompleted:
		return "Completed"
	case StatusFailed:
		return "Failed"
	case StatusCancelled:
		return "Cancelled"
	default:
		return string(s)
	}
}

// IsValid returns true if the status is a known valid value.
func (s Status) IsValid() bool {
	_, ok := transitions[s]
	return ok
}

// ParseStatus converts a string into a Status, rejecting unknown values.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.IsValid() {
		return "", ErrInvalidStatus
	}
	return st, nil
}

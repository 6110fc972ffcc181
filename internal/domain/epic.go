package domain

import "time"

// EpicStatus represents the lifecycle state of an epic.
type EpicStatus string

// Epic statuses.
const (
	EpicDraft     EpicStatus = "draft"
	EpicActive    EpicStatus = "active"
	EpicPaused    EpicStatus = "paused"
	EpicCompleted EpicStatus = "completed"
	EpicCancelled EpicStatus = "cancelled"
)

// IsValid returns true if the status is a known value.
func (s EpicStatus) IsValid() bool {
	switch s {
	case EpicDraft, EpicActive, EpicPaused, EpicCompleted, EpicCancelled:
		return true
	default:
		return false
	}
}

// Epic groups tasks toward a goal.
// Fields are ordered to minimize memory padding.
type Epic struct {
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	Goal             string     `json:"goal,omitempty"`
	Description      string     `json:"description,omitempty"`
	Status           EpicStatus `json:"status"`
	CreatedByAgentID string     `json:"createdByAgentId"`
	LeadAgentID      string     `json:"leadAgentId,omitempty"`
	Tags             []string   `json:"tags,omitempty"`
	Priority         int        `json:"priority"`
}

// Package domain contains core business entities and interfaces.
package domain

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// Source identifies where a task came from.
type Source string

// Known task sources.
const (
	SourceManual    Source = "manual"
	SourceAgentMail Source = "agentmail"
	SourceSlack     Source = "slack"
	SourceSchedule  Source = "schedule"
)

// IsValid returns true if the source is a known value.
func (s Source) IsValid() bool {
	switch s {
	case SourceManual, SourceAgentMail, SourceSlack, SourceSchedule:
		return true
	default:
		return false
	}
}

// Priority bounds.
const (
	MinPriority     = 0
	MaxPriority     = 100
	DefaultPriority = 50
)

// Task represents a unit of work executed by an agent.
// Fields are ordered to minimize memory padding.
type Task struct {
	CreatedAt      time.Time `json:"createdAt"`                // Creation time
	UpdatedAt      time.Time `json:"updatedAt"`                // Last mutation time
	ID             string    `json:"id"`                       // Task ID
	Description    string    `json:"description"`              // What to do (required)
	Status         Status    `json:"status"`                   // Current status
	AgentID        string    `json:"agentId,omitempty"`        // Assignee (empty = pool)
	EpicID         string    `json:"epicId,omitempty"`         // Owning epic (empty = none)
	ParentTaskID   string    `json:"parentTaskId,omitempty"`   // Session-continuity link
	Source         Source    `json:"source"`                   // Where the task came from
	TaskType       string    `json:"taskType,omitempty"`       // Free-form classification
	ThreadID       string    `json:"threadId,omitempty"`       // External conversation linkage
	CreatedBy      string    `json:"createdBy,omitempty"`      // Creating agent (empty = system)
	IdempotencyKey string    `json:"idempotencyKey,omitempty"` // Set for scheduled materializations
	FailureReason  string    `json:"failureReason,omitempty"`  // Reason recorded on failed/cancelled
	Tags           []string  `json:"tags,omitempty"`           // Tags
	Priority       int       `json:"priority"`                 // 0-100
}

// IsAssigned returns true if the task has an assignee.
func (t *Task) IsAssigned() bool {
	return t.AgentID != ""
}

// IsFollowUp returns true if the task resumes the session of a parent task.
func (t *Task) IsFollowUp() bool {
	return t.ParentTaskID != ""
}

// CanBeClaimedBy reports whether agentID may claim the task in its current state.
// Unassigned tasks may be claimed by anyone; offered tasks only by their target.
func (t *Task) CanBeClaimedBy(agentID string) bool {
	switch t.Status {
	case StatusUnassigned:
		return true
	case StatusOffered:
		return t.AgentID == agentID
	default:
		return false
	}
}

// HasTag returns true if the task carries the tag.
func (t *Task) HasTag(tag string) bool {
	return slices.Contains(t.Tags, tag)
}

// ValidatePriority checks that p lies within the allowed range.
func ValidatePriority(p int) error {
	if p < MinPriority || p > MaxPriority {
		return ErrInvalidPriority
	}
	return nil
}

// NormalizeTags trims, drops empties and sorts tags, removing duplicates.
func NormalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" || slices.Contains(out, tag) {
			continue
		}
		out = append(out, tag)
	}
	if len(out) == 0 {
		return nil
	}
	slices.Sort(out)
	return out
}

// ScheduleIdempotencyKey returns the key that makes a scheduled materialization unique.
func ScheduleIdempotencyKey(scheduleID string, due time.Time) string {
	return fmt.Sprintf("%s@%d", scheduleID, due.UnixMilli())
}

// TaskFilter specifies criteria for listing tasks.
// Empty fields do not filter.
type TaskFilter struct {
	Statuses []Status
	AgentID  string
	EpicID   string
	Source   Source
	ThreadID string
	Tag      string
	Limit    int
}

// Matches reports whether task satisfies the filter.
func (f TaskFilter) Matches(t *Task) bool {
	if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, t.Status) {
		return false
	}
	if f.AgentID != "" && t.AgentID != f.AgentID {
		return false
	}
	if f.EpicID != "" && t.EpicID != f.EpicID {
		return false
	}
	if f.Source != "" && t.Source != f.Source {
		return false
	}
	if f.ThreadID != "" && t.ThreadID != f.ThreadID {
		return false
	}
	if f.Tag != "" && !t.HasTag(f.Tag) {
		return false
	}
	return true
}

// TaskEvent is published to the session-spawning layer after a task enters a
// status it must act on.
type TaskEvent struct {
	At           time.Time `json:"at"`
	TaskID       string    `json:"taskId"`
	AgentID      string    `json:"agentId,omitempty"`
	ParentTaskID string    `json:"parentTaskId,omitempty"` // Non-empty = resume the parent's session
	Status       Status    `json:"status"`
}

// NewTaskEvent builds the event announcing task's current status.
func NewTaskEvent(t *Task, at time.Time) TaskEvent {
	return TaskEvent{
		At:           at,
		TaskID:       t.ID,
		AgentID:      t.AgentID,
		ParentTaskID: t.ParentTaskID,
		Status:       t.Status,
	}
}

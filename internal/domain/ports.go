package domain

import (
	"context"
	"time"
)

// TaskRepository manages task persistence.
// Status changes go through Claim or CompareAndSwap so that concurrent writers
// cannot both succeed.
type TaskRepository interface {
	// Get retrieves a task by ID. Returns nil if not found.
	Get(ctx context.Context, id string) (*Task, error)

	// List retrieves tasks matching the filter, oldest first.
	List(ctx context.Context, filter TaskFilter) ([]*Task, error)

	// Create inserts a new task.
	Create(ctx context.Context, task *Task) error

	// Claim moves a claimable task to in_progress for agentID in one conditional
	// update. Returns ErrClaimConflict if the task is not claimable by agentID,
	// ErrTaskNotFound if it does not exist.
	Claim(ctx context.Context, id, agentID string, now time.Time) (*Task, error)

	// CompareAndSwap writes next only if the stored task still has prevStatus and
	// prevAgentID. Returns ErrTaskModified otherwise.
	CompareAndSwap(ctx context.Context, next *Task, prevStatus Status, prevAgentID string) error

	// LatestByThread returns the most recently created task of source in threadID.
	// Returns nil if none.
	LatestByThread(ctx context.Context, source Source, threadID string) (*Task, error)
}

// AgentRepository manages agent persistence.
type AgentRepository interface {
	// Get retrieves an agent by ID. Returns nil if not found.
	Get(ctx context.Context, id string) (*Agent, error)

	// List retrieves all agents ordered by ID.
	List(ctx context.Context) ([]*Agent, error)

	// Create inserts a new agent. Returns ErrAgentExists on duplicate ID.
	Create(ctx context.Context, agent *Agent) error

	// SetStatus updates an agent's status. Returns ErrAgentNotFound if missing.
	SetStatus(ctx context.Context, id string, status AgentStatus, now time.Time) error
}

// EpicFilter specifies criteria for listing epics.
type EpicFilter struct {
	Status      EpicStatus
	LeadAgentID string
}

// EpicRepository manages epic persistence.
type EpicRepository interface {
	// Get retrieves an epic by ID. Returns nil if not found.
	Get(ctx context.Context, id string) (*Epic, error)

	// List retrieves epics matching the filter.
	List(ctx context.Context, filter EpicFilter) ([]*Epic, error)

	// Create inserts a new epic.
	Create(ctx context.Context, epic *Epic) error

	// Update replaces an existing epic.
	Update(ctx context.Context, epic *Epic) error

	// Delete removes an epic and clears the epic of every linked task in one
	// transaction. Task statuses are left unchanged. Returns the number of tasks unlinked.
	Delete(ctx context.Context, id string, now time.Time) (int, error)
}

// ScheduleRepository manages scheduled task persistence.
type ScheduleRepository interface {
	// Get retrieves a schedule by ID. Returns nil if not found.
	Get(ctx context.Context, id string) (*ScheduledTask, error)

	// GetByName retrieves a schedule by its unique name. Returns nil if not found.
	GetByName(ctx context.Context, name string) (*ScheduledTask, error)

	// List retrieves schedules ordered by name.
	List(ctx context.Context, filter ScheduleFilter) ([]*ScheduledTask, error)

	// Due retrieves enabled schedules whose next run is at or before now.
	Due(ctx context.Context, now time.Time) ([]*ScheduledTask, error)

	// Create inserts a schedule. Returns ErrScheduleExists if the name is taken.
	Create(ctx context.Context, s *ScheduledTask) error

	// Update replaces a schedule, but only if the stored UpdatedAt still equals
	// prevUpdatedAt. Returns ErrScheduleModified when it does not, and
	// ErrScheduleExists if renamed onto a taken name.
	Update(ctx context.Context, s *ScheduledTask, prevUpdatedAt time.Time) error

	// Delete removes a schedule. Materialized tasks are kept.
	Delete(ctx context.Context, id string) error

	// RecordRun inserts task and writes s in one transaction, but only if the stored
	// schedule is still enabled with NextRunAt equal to prevNextRun. Returns
	// ErrScheduleModified when the guard fails or the task was already materialized.
	RecordRun(ctx context.Context, s *ScheduledTask, prevNextRun time.Time, task *Task) error
}

// ConfigRepository manages config entry persistence.
type ConfigRepository interface {
	// Upsert creates or replaces the entry for (Key, Scope, ScopeID).
	Upsert(ctx context.Context, entry *ConfigEntry) error

	// Delete removes the entry for (key, scope, scopeID). Returns ErrConfigNotFound if missing.
	Delete(ctx context.Context, key string, scope ConfigScope, scopeID string) error

	// List retrieves stored entries matching the filter.
	List(ctx context.Context, filter ConfigFilter) ([]*ConfigEntry, error)

	// Applicable retrieves every entry that could apply in cctx, optionally limited to key.
	Applicable(ctx context.Context, cctx ConfigContext, key string) ([]*ConfigEntry, error)
}

// InboxRepository manages inbox mappings and messages.
type InboxRepository interface {
	// SaveMapping creates or replaces the mapping for (Provider, ExternalID).
	SaveMapping(ctx context.Context, m *InboxMapping) error

	// GetMapping returns the mapping for an external inbox or channel. Returns nil if none.
	GetMapping(ctx context.Context, provider Source, externalID string) (*InboxMapping, error)

	// DeleteMapping removes a mapping. Returns ErrMappingNotFound if missing.
	DeleteMapping(ctx context.Context, provider Source, externalID string) error

	// ListMappings retrieves all mappings.
	ListMappings(ctx context.Context) ([]*InboxMapping, error)

	// CreateMessage inserts an inbox message.
	CreateMessage(ctx context.Context, msg *InboxMessage) error

	// ListMessages retrieves messages, newest first.
	ListMessages(ctx context.Context, filter MessageFilter) ([]*InboxMessage, error)

	// MarkRead flags a message as read. Returns ErrMessageNotFound if missing.
	MarkRead(ctx context.Context, id string) error
}

// ToolCallHistory stores per-session tool-call windows.
type ToolCallHistory interface {
	// Append adds rec to the session window, evicting the oldest entries beyond
	// capacity, and returns the window after the append, oldest first.
	Append(ctx context.Context, sessionKey string, rec ToolCallRecord, capacity int) ([]ToolCallRecord, error)

	// Clear discards the session window.
	Clear(ctx context.Context, sessionKey string) error
}

// EventDeduper remembers recently seen inbound event keys.
type EventDeduper interface {
	// Seen records key and reports whether it was already recorded within the TTL.
	Seen(ctx context.Context, key string) (bool, error)
}

// TaskNotifier informs the session-spawning layer about task status changes.
type TaskNotifier interface {
	Notify(ctx context.Context, event TaskEvent) error
}

// MetricsRecorder receives engine counters.
type MetricsRecorder interface {
	RecordTaskOp(ctx context.Context, op string, status Status)
	RecordClaim(ctx context.Context, won bool)
	RecordScheduleFire(ctx context.Context, outcome string)
	RecordRoute(ctx context.Context, source Source, branch string)
	RecordLoopSignal(ctx context.Context, severity Severity)
}

// NopMetrics discards all measurements.
type NopMetrics struct{}

func (NopMetrics) RecordTaskOp(context.Context, string, Status) {}
func (NopMetrics) RecordClaim(context.Context, bool) {}
func (NopMetrics) RecordScheduleFire(context.Context, string) {}
func (NopMetrics) RecordRoute(context.Context, Source, string) {}
func (NopMetrics) RecordLoopSignal(context.Context, Severity) {}

// IDGenerator creates entity identifiers.
type IDGenerator interface {
	NewID() string
}

// Clock provides time operations for testability.
type Clock interface {
	Now() time.Time
}

// RealClock implements Clock using the system clock.
type RealClock struct{}

// Now returns the current time.
func (RealClock) Now() time.Time {
	return time.Now()
}

// Package testutil provides shared test utilities and mock implementations.
package testutil

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/runoshun/agent-swarm/internal/domain"
)

// MockClock is a test double for domain.Clock.
type MockClock struct {
	NowTime time.Time
}

// Now returns the configured time.
func (m *MockClock) Now() time.Time {
	return m.NowTime
}

// MockIDGenerator returns sequential IDs with a fixed prefix.
type MockIDGenerator struct {
	Prefix string
	mu     sync.Mutex
	n      int
}

// NewID returns the next ID.
func (m *MockIDGenerator) NewID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.n++
	prefix := m.Prefix
	if prefix == "" {
		prefix = "id"
	}
	return fmt.Sprintf("%s-%d", prefix, m.n)
}

func copyTask(t *domain.Task) *domain.Task {
	c := *t
	c.Tags = slices.Clone(t.Tags)
	return &c
}

// MockTaskRepository is a test double for domain.TaskRepository.
// It is safe for concurrent use so claim races can be exercised.
// Fields are ordered to minimize memory padding.
type MockTaskRepository struct {
	Tasks     map[string]*domain.Task
	GetErr    error
	CreateErr error
	CASErr    error
	ListErr   error
	mu        sync.Mutex
}

// NewMockTaskRepository creates a new MockTaskRepository with initialized maps.
func NewMockTaskRepository() *MockTaskRepository {
	return &MockTaskRepository{
		Tasks: make(map[string]*domain.Task),
	}
}

// Add stores a task directly, bypassing Create.
func (m *MockTaskRepository) Add(t *domain.Task) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Tasks[t.ID] = copyTask(t)
}

// Get retrieves a task by ID.
func (m *MockTaskRepository) Get(_ context.Context, id string) (*domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	t, ok := m.Tasks[id]
	if !ok {
		return nil, nil
	}
	return copyTask(t), nil
}

// List returns tasks matching the filter, ordered by creation time then ID.
func (m *MockTaskRepository) List(_ context.Context, filter domain.TaskFilter) ([]*domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	var tasks []*domain.Task
	for _, t := range m.Tasks {
		if filter.Matches(t) {
			tasks = append(tasks, copyTask(t))
		}
	}
	sort.Slice(tasks, func(i, j int) bool {
		if !tasks[i].CreatedAt.Equal(tasks[j].CreatedAt) {
			return tasks[i].CreatedAt.Before(tasks[j].CreatedAt)
		}
		return tasks[i].ID < tasks[j].ID
	})
	if filter.Limit > 0 && len(tasks) > filter.Limit {
		tasks = tasks[:filter.Limit]
	}
	return tasks, nil
}

// Create inserts a task.
func (m *MockTaskRepository) Create(_ context.Context, t *domain.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateErr != nil {
		return m.CreateErr
	}
	m.Tasks[t.ID] = copyTask(t)
	return nil
}

// Claim moves a claimable task to in_progress.
func (m *MockTaskRepository) Claim(_ context.Context, id, agentID string, now time.Time) (*domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.Tasks[id]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	if !t.CanBeClaimedBy(agentID) {
		return nil, domain.ErrClaimConflict
	}
	t.Status = domain.StatusInProgress
	t.AgentID = agentID
	t.UpdatedAt = now
	return copyTask(t), nil
}

// CompareAndSwap writes next if the stored status and assignee are unchanged.
func (m *MockTaskRepository) CompareAndSwap(_ context.Context, next *domain.Task, prevStatus domain.Status, prevAgentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CASErr != nil {
		return m.CASErr
	}
	t, ok := m.Tasks[next.ID]
	if !ok {
		return domain.ErrTaskNotFound
	}
	if t.Status != prevStatus || t.AgentID != prevAgentID {
		return domain.ErrTaskModified
	}
	m.Tasks[next.ID] = copyTask(next)
	return nil
}

// LatestByThread returns the newest task in a thread.
func (m *MockTaskRepository) LatestByThread(_ context.Context, source domain.Source, threadID string) (*domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var latest *domain.Task
	for _, t := range m.Tasks {
		if t.Source != source || t.ThreadID != threadID {
			continue
		}
		if latest == nil || t.CreatedAt.After(latest.CreatedAt) ||
			(t.CreatedAt.Equal(latest.CreatedAt) && t.ID > latest.ID) {
			latest = t
		}
	}
	if latest == nil {
		return nil, nil
	}
	return copyTask(latest), nil
}

// MockAgentRepository is a test double for domain.AgentRepository.
type MockAgentRepository struct {
	Agents       map[string]*domain.Agent
	GetErr       error
	SetStatusErr error
	mu           sync.Mutex
}

// NewMockAgentRepository creates a new MockAgentRepository.
func NewMockAgentRepository(agents ...*domain.Agent) *MockAgentRepository {
	m := &MockAgentRepository{Agents: make(map[string]*domain.Agent)}
	for _, a := range agents {
		m.Agents[a.ID] = a
	}
	return m
}

// Get retrieves an agent by ID.
func (m *MockAgentRepository) Get(_ context.Context, id string) (*domain.Agent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	a, ok := m.Agents[id]
	if !ok {
		return nil, nil
	}
	c := *a
	return &c, nil
}

// List returns all agents ordered by ID.
func (m *MockAgentRepository) List(_ context.Context) ([]*domain.Agent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	agents := make([]*domain.Agent, 0, len(m.Agents))
	for _, a := range m.Agents {
		c := *a
		agents = append(agents, &c)
	}
	sort.Slice(agents, func(i, j int) bool { return agents[i].ID < agents[j].ID })
	return agents, nil
}

// Create inserts an agent.
func (m *MockAgentRepository) Create(_ context.Context, a *domain.Agent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Agents[a.ID]; ok {
		return domain.ErrAgentExists
	}
	c := *a
	m.Agents[a.ID] = &c
	return nil
}

// SetStatus updates an agent's status.
func (m *MockAgentRepository) SetStatus(_ context.Context, id string, status domain.AgentStatus, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SetStatusErr != nil {
		return m.SetStatusErr
	}
	a, ok := m.Agents[id]
	if !ok {
		return domain.ErrAgentNotFound
	}
	a.Status = status
	a.UpdatedAt = now
	return nil
}

// MockEpicRepository is a test double for domain.EpicRepository.
// Delete unlinks tasks held by Tasks, when set.
type MockEpicRepository struct {
	Epics     map[string]*domain.Epic
	Tasks     *MockTaskRepository
	DeleteErr error
}

// NewMockEpicRepository creates a new MockEpicRepository.
func NewMockEpicRepository(tasks *MockTaskRepository) *MockEpicRepository {
	return &MockEpicRepository{Epics: make(map[string]*domain.Epic), Tasks: tasks}
}

// Get retrieves an epic by ID.
func (m *MockEpicRepository) Get(_ context.Context, id string) (*domain.Epic, error) {
	e, ok := m.Epics[id]
	if !ok {
		return nil, nil
	}
	c := *e
	return &c, nil
}

// List returns epics matching the filter, ordered by ID.
func (m *MockEpicRepository) List(_ context.Context, filter domain.EpicFilter) ([]*domain.Epic, error) {
	var epics []*domain.Epic
	for _, e := range m.Epics {
		if filter.Status != "" && e.Status != filter.Status {
			continue
		}
		if filter.LeadAgentID != "" && e.LeadAgentID != filter.LeadAgentID {
			continue
		}
		c := *e
		epics = append(epics, &c)
	}
	sort.Slice(epics, func(i, j int) bool { return epics[i].ID < epics[j].ID })
	return epics, nil
}

// Create inserts an epic.
func (m *MockEpicRepository) Create(_ context.Context, e *domain.Epic) error {
	c := *e
	m.Epics[e.ID] = &c
	return nil
}

// Update replaces an epic.
func (m *MockEpicRepository) Update(_ context.Context, e *domain.Epic) error {
	if _, ok := m.Epics[e.ID]; !ok {
		return domain.ErrEpicNotFound
	}
	c := *e
	m.Epics[e.ID] = &c
	return nil
}

// Delete removes an epic and unlinks its tasks.
func (m *MockEpicRepository) Delete(_ context.Context, id string, now time.Time) (int, error) {
	if m.DeleteErr != nil {
		return 0, m.DeleteErr
	}
	if _, ok := m.Epics[id]; !ok {
		return 0, domain.ErrEpicNotFound
	}
	delete(m.Epics, id)
	n := 0
	if m.Tasks != nil {
		m.Tasks.mu.Lock()
		defer m.Tasks.mu.Unlock()
		for _, t := range m.Tasks.Tasks {
			if t.EpicID == id {
				t.EpicID = ""
				t.UpdatedAt = now
				n++
			}
		}
	}
	return n, nil
}

// MockScheduleRepository is a test double for domain.ScheduleRepository.
// RecordRun writes the task into Tasks.
type MockScheduleRepository struct {
	Schedules    map[string]*domain.ScheduledTask
	Tasks        *MockTaskRepository
	RecordRunErr error
	keys         map[string]bool
	RecordCalls  int
	// AfterRead runs once after the next Get or GetByName, simulating a
	// concurrent writer between a read and the following Update.
	AfterRead func()
}

func (m *MockScheduleRepository) afterRead() {
	if fn := m.AfterRead; fn != nil {
		m.AfterRead = nil
		fn()
	}
}

// NewMockScheduleRepository creates a new MockScheduleRepository.
func NewMockScheduleRepository(tasks *MockTaskRepository) *MockScheduleRepository {
	return &MockScheduleRepository{
		Schedules: make(map[string]*domain.ScheduledTask),
		Tasks:     tasks,
		keys:      make(map[string]bool),
	}
}

func copySchedule(s *domain.ScheduledTask) *domain.ScheduledTask {
	c := *s
	c.Tags = slices.Clone(s.Tags)
	if s.NextRunAt != nil {
		t := *s.NextRunAt
		c.NextRunAt = &t
	}
	if s.LastRunAt != nil {
		t := *s.LastRunAt
		c.LastRunAt = &t
	}
	return &c
}

// Get retrieves a schedule by ID.
func (m *MockScheduleRepository) Get(_ context.Context, id string) (*domain.ScheduledTask, error) {
	s, ok := m.Schedules[id]
	if !ok {
		return nil, nil
	}
	defer m.afterRead()
	return copySchedule(s), nil
}

// GetByName retrieves a schedule by name.
func (m *MockScheduleRepository) GetByName(_ context.Context, name string) (*domain.ScheduledTask, error) {
	for _, s := range m.Schedules {
		if s.Name == name {
			defer m.afterRead()
			return copySchedule(s), nil
		}
	}
	return nil, nil
}

// List returns schedules ordered by name.
func (m *MockScheduleRepository) List(_ context.Context, filter domain.ScheduleFilter) ([]*domain.ScheduledTask, error) {
	var out []*domain.ScheduledTask
	for _, s := range m.Schedules {
		if filter.EnabledOnly && !s.Enabled {
			continue
		}
		out = append(out, copySchedule(s))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Due returns enabled schedules due at now.
func (m *MockScheduleRepository) Due(_ context.Context, now time.Time) ([]*domain.ScheduledTask, error) {
	var out []*domain.ScheduledTask
	for _, s := range m.Schedules {
		if s.IsDue(now) {
			out = append(out, copySchedule(s))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Create inserts a schedule.
func (m *MockScheduleRepository) Create(_ context.Context, s *domain.ScheduledTask) error {
	for _, existing := range m.Schedules {
		if existing.Name == s.Name {
			return domain.ErrScheduleExists
		}
	}
	m.Schedules[s.ID] = copySchedule(s)
	return nil
}

// Update replaces a schedule if its UpdatedAt still equals prevUpdatedAt.
func (m *MockScheduleRepository) Update(_ context.Context, s *domain.ScheduledTask, prevUpdatedAt time.Time) error {
	stored, ok := m.Schedules[s.ID]
	if !ok {
		return domain.ErrScheduleNotFound
	}
	if !stored.UpdatedAt.Equal(prevUpdatedAt) {
		return domain.ErrScheduleModified
	}
	for _, existing := range m.Schedules {
		if existing.ID != s.ID && existing.Name == s.Name {
			return domain.ErrScheduleExists
		}
	}
	m.Schedules[s.ID] = copySchedule(s)
	return nil
}

// Delete removes a schedule.
func (m *MockScheduleRepository) Delete(_ context.Context, id string) error {
	if _, ok := m.Schedules[id]; !ok {
		return domain.ErrScheduleNotFound
	}
	delete(m.Schedules, id)
	return nil
}

// RecordRun stores task and s if the schedule guard still holds.
func (m *MockScheduleRepository) RecordRun(ctx context.Context, s *domain.ScheduledTask, prevNextRun time.Time, task *domain.Task) error {
	m.RecordCalls++
	if m.RecordRunErr != nil {
		return m.RecordRunErr
	}
	stored, ok := m.Schedules[s.ID]
	if !ok {
		return domain.ErrScheduleNotFound
	}
	if !stored.Enabled || stored.NextRunAt == nil || !stored.NextRunAt.Equal(prevNextRun) {
		return domain.ErrScheduleModified
	}
	if task != nil {
		if m.keys[task.IdempotencyKey] {
			return domain.ErrScheduleModified
		}
		m.keys[task.IdempotencyKey] = true
		if m.Tasks != nil {
			if err := m.Tasks.Create(ctx, task); err != nil {
				return err
			}
		}
	}
	m.Schedules[s.ID] = copySchedule(s)
	return nil
}

// MockConfigRepository is a test double for domain.ConfigRepository.
type MockConfigRepository struct {
	Entries   []*domain.ConfigEntry
	UpsertErr error
}

// NewMockConfigRepository creates a new MockConfigRepository.
func NewMockConfigRepository(entries ...*domain.ConfigEntry) *MockConfigRepository {
	return &MockConfigRepository{Entries: entries}
}

func sameIdentity(e *domain.ConfigEntry, key string, scope domain.ConfigScope, scopeID string) bool {
	return e.Key == key && e.Scope == scope && e.ScopeID == scopeID
}

// Upsert creates or replaces an entry.
func (m *MockConfigRepository) Upsert(_ context.Context, entry *domain.ConfigEntry) error {
	if m.UpsertErr != nil {
		return m.UpsertErr
	}
	c := *entry
	for i, e := range m.Entries {
		if sameIdentity(e, entry.Key, entry.Scope, entry.ScopeID) {
			m.Entries[i] = &c
			return nil
		}
	}
	m.Entries = append(m.Entries, &c)
	return nil
}

// Delete removes an entry.
func (m *MockConfigRepository) Delete(_ context.Context, key string, scope domain.ConfigScope, scopeID string) error {
	for i, e := range m.Entries {
		if sameIdentity(e, key, scope, scopeID) {
			m.Entries = slices.Delete(m.Entries, i, i+1)
			return nil
		}
	}
	return domain.ErrConfigNotFound
}

// List returns entries matching the filter.
func (m *MockConfigRepository) List(_ context.Context, filter domain.ConfigFilter) ([]*domain.ConfigEntry, error) {
	var out []*domain.ConfigEntry
	for _, e := range m.Entries {
		if filter.Scope != "" && e.Scope != filter.Scope {
			continue
		}
		if filter.ScopeID != "" && e.ScopeID != filter.ScopeID {
			continue
		}
		if filter.Key != "" && e.Key != filter.Key {
			continue
		}
		c := *e
		out = append(out, &c)
	}
	return out, nil
}

// Applicable returns every stored entry for key (or all keys); resolution filters the rest.
func (m *MockConfigRepository) Applicable(ctx context.Context, _ domain.ConfigContext, key string) ([]*domain.ConfigEntry, error) {
	return m.List(ctx, domain.ConfigFilter{Key: key})
}

// MockInboxRepository is a test double for domain.InboxRepository.
type MockInboxRepository struct {
	Mappings  map[string]*domain.InboxMapping
	Messages  []*domain.InboxMessage
	CreateErr error
	mu        sync.Mutex
}

// NewMockInboxRepository creates a new MockInboxRepository.
func NewMockInboxRepository() *MockInboxRepository {
	return &MockInboxRepository{Mappings: make(map[string]*domain.InboxMapping)}
}

func mappingKey(provider domain.Source, externalID string) string {
	return string(provider) + "/" + externalID
}

// SaveMapping stores a mapping.
func (m *MockInboxRepository) SaveMapping(_ context.Context, mapping *domain.InboxMapping) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *mapping
	m.Mappings[mappingKey(mapping.Provider, mapping.ExternalID)] = &c
	return nil
}

// GetMapping returns a mapping.
func (m *MockInboxRepository) GetMapping(_ context.Context, provider domain.Source, externalID string) (*domain.InboxMapping, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	mp, ok := m.Mappings[mappingKey(provider, externalID)]
	if !ok {
		return nil, nil
	}
	c := *mp
	return &c, nil
}

// DeleteMapping removes a mapping.
func (m *MockInboxRepository) DeleteMapping(_ context.Context, provider domain.Source, externalID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := mappingKey(provider, externalID)
	if _, ok := m.Mappings[key]; !ok {
		return domain.ErrMappingNotFound
	}
	delete(m.Mappings, key)
	return nil
}

// ListMappings returns all mappings ordered by provider and external ID.
func (m *MockInboxRepository) ListMappings(_ context.Context) ([]*domain.InboxMapping, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.InboxMapping, 0, len(m.Mappings))
	for _, mp := range m.Mappings {
		c := *mp
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool {
		return mappingKey(out[i].Provider, out[i].ExternalID) < mappingKey(out[j].Provider, out[j].ExternalID)
	})
	return out, nil
}

// CreateMessage stores a message.
func (m *MockInboxRepository) CreateMessage(_ context.Context, msg *domain.InboxMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateErr != nil {
		return m.CreateErr
	}
	c := *msg
	m.Messages = append(m.Messages, &c)
	return nil
}

// ListMessages returns messages, newest first.
func (m *MockInboxRepository) ListMessages(_ context.Context, filter domain.MessageFilter) ([]*domain.InboxMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.InboxMessage
	for i := len(m.Messages) - 1; i >= 0; i-- {
		msg := m.Messages[i]
		if filter.AgentID != "" && msg.AgentID != filter.AgentID {
			continue
		}
		if filter.UnreadOnly && msg.Read {
			continue
		}
		c := *msg
		out = append(out, &c)
		if filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}
	return out, nil
}

// MarkRead flags a message as read.
func (m *MockInboxRepository) MarkRead(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, msg := range m.Messages {
		if msg.ID == id {
			msg.Read = true
			return nil
		}
	}
	return domain.ErrMessageNotFound
}

// MockNotifier records published task events.
type MockNotifier struct {
	Err    error
	Events []domain.TaskEvent
	mu     sync.Mutex
}

// Notify records the event.
func (m *MockNotifier) Notify(_ context.Context, ev domain.TaskEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Events = append(m.Events, ev)
	return nil
}

// Recorded returns a copy of the recorded events.
func (m *MockNotifier) Recorded() []domain.TaskEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.Events)
}

// MockDeduper is a test double for domain.EventDeduper backed by a set.
type MockDeduper struct {
	Err  error
	seen map[string]bool
	mu   sync.Mutex
}

// Seen records key and reports whether it was recorded before.
func (m *MockDeduper) Seen(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return false, m.Err
	}
	if m.seen == nil {
		m.seen = make(map[string]bool)
	}
	if m.seen[key] {
		return true, nil
	}
	m.seen[key] = true
	return false, nil
}

// MockToolHistory is a test double for domain.ToolCallHistory.
type MockToolHistory struct {
	AppendErr error
	windows   map[string][]domain.ToolCallRecord
	mu        sync.Mutex
}

// Append adds rec to the session window and trims it to capacity.
func (m *MockToolHistory) Append(_ context.Context, sessionKey string, rec domain.ToolCallRecord, capacity int) ([]domain.ToolCallRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.AppendErr != nil {
		return nil, m.AppendErr
	}
	if m.windows == nil {
		m.windows = make(map[string][]domain.ToolCallRecord)
	}
	w := append(m.windows[sessionKey], rec)
	if len(w) > capacity {
		w = w[len(w)-capacity:]
	}
	m.windows[sessionKey] = w
	return slices.Clone(w), nil
}

// Clear discards the session window.
func (m *MockToolHistory) Clear(_ context.Context, sessionKey string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.windows, sessionKey)
	return nil
}

// Len returns the size of a session window.
func (m *MockToolHistory) Len(sessionKey string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.windows[sessionKey])
}

// MockMetrics counts recorded measurements by label.
type MockMetrics struct {
	TaskOps       map[string]int
	Claims        map[bool]int
	ScheduleFires map[string]int
	Routes        map[string]int
	LoopSignals   map[domain.Severity]int
	mu            sync.Mutex
}

// NewMockMetrics creates a new MockMetrics.
func NewMockMetrics() *MockMetrics {
	return &MockMetrics{
		TaskOps:       make(map[string]int),
		Claims:        make(map[bool]int),
		ScheduleFires: make(map[string]int),
		Routes:        make(map[string]int),
		LoopSignals:   make(map[domain.Severity]int),
	}
}

// RecordTaskOp counts op.
func (m *MockMetrics) RecordTaskOp(_ context.Context, op string, _ domain.Status) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TaskOps[op]++
}

// RecordClaim counts claim outcomes.
func (m *MockMetrics) RecordClaim(_ context.Context, won bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Claims[won]++
}

// RecordScheduleFire counts outcomes.
func (m *MockMetrics) RecordScheduleFire(_ context.Context, outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ScheduleFires[outcome]++
}

// RecordRoute counts branches.
func (m *MockMetrics) RecordRoute(_ context.Context, _ domain.Source, branch string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Routes[branch]++
}

// RecordLoopSignal counts severities.
func (m *MockMetrics) RecordLoopSignal(_ context.Context, severity domain.Severity) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LoopSignals[severity]++
}

// MockConfigManager is a test double for domain.ConfigManager.
type MockConfigManager struct {
	InitLocalErr     error
	InitGlobalErr    error
	LocalConfigInfo  domain.ConfigInfo
	GlobalConfigInfo domain.ConfigInfo
	InitLocalCalled  bool
	InitGlobalCalled bool
}

// NewMockConfigManager creates a new MockConfigManager.
func NewMockConfigManager() *MockConfigManager {
	return &MockConfigManager{}
}

// GetLocalConfigInfo returns the configured info.
func (m *MockConfigManager) GetLocalConfigInfo() domain.ConfigInfo {
	return m.LocalConfigInfo
}

// GetGlobalConfigInfo returns the configured info.
func (m *MockConfigManager) GetGlobalConfigInfo() domain.ConfigInfo {
	return m.GlobalConfigInfo
}

// InitLocalConfig records the call.
func (m *MockConfigManager) InitLocalConfig() error {
	m.InitLocalCalled = true
	return m.InitLocalErr
}

// InitGlobalConfig records the call.
func (m *MockConfigManager) InitGlobalConfig() error {
	m.InitGlobalCalled = true
	return m.InitGlobalErr
}

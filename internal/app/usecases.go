package app

import "github.com/runoshun/agent-swarm/internal/usecase"

// UseCase factory methods

// InitConfigUseCase returns a new InitConfig use case.
func (c *Container) InitConfigUseCase() *usecase.InitConfig {
	return usecase.NewInitConfig(c.ConfigManager, c.Logger)
}

// RegisterAgentUseCase returns a new RegisterAgent use case.
func (c *Container) RegisterAgentUseCase() *usecase.RegisterAgent {
	return usecase.NewRegisterAgent(c.Agents, c.IDs, c.Clock, c.Logger)
}

// SetAgentStatusUseCase returns a new SetAgentStatus use case.
func (c *Container) SetAgentStatusUseCase() *usecase.SetAgentStatus {
	return usecase.NewSetAgentStatus(c.Agents, c.Clock)
}

// ListAgentsUseCase returns a new ListAgents use case.
func (c *Container) ListAgentsUseCase() *usecase.ListAgents {
	return usecase.NewListAgents(c.Agents)
}

// GetAgentUseCase returns a new GetAgent use case.
func (c *Container) GetAgentUseCase() *usecase.GetAgent {
	return usecase.NewGetAgent(c.Agents)
}

// CreateTaskUseCase returns a new CreateTask use case.
func (c *Container) CreateTaskUseCase() *usecase.CreateTask {
	return usecase.NewCreateTask(c.Tasks, c.Agents, c.Epics, c.Notifier, c.IDs, c.Clock, c.Metrics, c.Logger)
}

// CreateFollowUpTaskUseCase returns a new CreateFollowUpTask use case.
func (c *Container) CreateFollowUpTaskUseCase() *usecase.CreateFollowUpTask {
	return usecase.NewCreateFollowUpTask(c.Tasks, c.Agents, c.Notifier, c.IDs, c.Clock, c.Metrics, c.Logger)
}

// ClaimTaskUseCase returns a new ClaimTask use case.
func (c *Container) ClaimTaskUseCase() *usecase.ClaimTask {
	return usecase.NewClaimTask(c.Tasks, c.Agents, c.Notifier, c.Clock, c.Metrics, c.Logger)
}

// DeclineTaskUseCase returns a new DeclineTask use case.
func (c *Container) DeclineTaskUseCase() *usecase.DeclineTask {
	return usecase.NewDeclineTask(c.Tasks, c.Clock, c.Metrics, c.Logger)
}

// UpdateTaskStatusUseCase returns a new UpdateTaskStatus use case.
func (c *Container) UpdateTaskStatusUseCase() *usecase.UpdateTaskStatus {
	return usecase.NewUpdateTaskStatus(c.Tasks, c.Agents, c.Notifier, c.Clock, c.Metrics, c.Logger)
}

// ListTasksUseCase returns a new ListTasks use case.
func (c *Container) ListTasksUseCase() *usecase.ListTasks {
	return usecase.NewListTasks(c.Tasks)
}

// GetTaskUseCase returns a new GetTask use case.
func (c *Container) GetTaskUseCase() *usecase.GetTask {
	return usecase.NewGetTask(c.Tasks)
}

// CreateEpicUseCase returns a new CreateEpic use case.
func (c *Container) CreateEpicUseCase() *usecase.CreateEpic {
	return usecase.NewCreateEpic(c.Epics, c.Agents, c.IDs, c.Clock, c.Logger)
}

// UpdateEpicUseCase returns a new UpdateEpic use case.
func (c *Container) UpdateEpicUseCase() *usecase.UpdateEpic {
	return usecase.NewUpdateEpic(c.Epics, c.Agents, c.Clock, c.Logger)
}

// DeleteEpicUseCase returns a new DeleteEpic use case.
func (c *Container) DeleteEpicUseCase() *usecase.DeleteEpic {
	return usecase.NewDeleteEpic(c.Epics, c.Clock, c.Logger)
}

// ListEpicsUseCase returns a new ListEpics use case.
func (c *Container) ListEpicsUseCase() *usecase.ListEpics {
	return usecase.NewListEpics(c.Epics)
}

// GetEpicUseCase returns a new GetEpic use case.
func (c *Container) GetEpicUseCase() *usecase.GetEpic {
	return usecase.NewGetEpic(c.Epics)
}

// CreateScheduleUseCase returns a new CreateSchedule use case.
func (c *Container) CreateScheduleUseCase() *usecase.CreateSchedule {
	return usecase.NewCreateSchedule(c.Schedules, c.Agents, c.IDs, c.Clock, c.Logger)
}

// UpdateScheduleUseCase returns a new UpdateSchedule use case.
func (c *Container) UpdateScheduleUseCase() *usecase.UpdateSchedule {
	return usecase.NewUpdateSchedule(c.Schedules, c.Agents, c.Clock, c.Logger)
}

// SetScheduleEnabledUseCase returns a new SetScheduleEnabled use case.
func (c *Container) SetScheduleEnabledUseCase() *usecase.SetScheduleEnabled {
	return usecase.NewSetScheduleEnabled(c.Schedules, c.Clock, c.Logger)
}

// DeleteScheduleUseCase returns a new DeleteSchedule use case.
func (c *Container) DeleteScheduleUseCase() *usecase.DeleteSchedule {
	return usecase.NewDeleteSchedule(c.Schedules, c.Logger)
}

// ListSchedulesUseCase returns a new ListSchedules use case.
func (c *Container) ListSchedulesUseCase() *usecase.ListSchedules {
	return usecase.NewListSchedules(c.Schedules)
}

// GetScheduleUseCase returns a new GetSchedule use case.
func (c *Container) GetScheduleUseCase() *usecase.GetSchedule {
	return usecase.NewGetSchedule(c.Schedules)
}

// ApplySchedulesUseCase returns a new ApplySchedules use case.
func (c *Container) ApplySchedulesUseCase() *usecase.ApplySchedules {
	return usecase.NewApplySchedules(c.Schedules, c.Agents, c.IDs, c.Clock, c.Logger)
}

// RunScheduleNowUseCase returns a new RunScheduleNow use case.
func (c *Container) RunScheduleNowUseCase() *usecase.RunScheduleNow {
	return usecase.NewRunScheduleNow(c.Schedules, c.Tasks, c.Agents, c.Notifier, c.IDs, c.Clock, c.Metrics, c.Logger)
}

// TickSchedulerUseCase returns a new TickScheduler use case.
func (c *Container) TickSchedulerUseCase() *usecase.TickScheduler {
	return usecase.NewTickScheduler(c.Schedules, c.Tasks, c.Agents, c.Notifier, c.IDs, c.Clock, c.Metrics, c.Logger)
}

// ResolveConfigUseCase returns a new ResolveConfig use case.
func (c *Container) ResolveConfigUseCase() *usecase.ResolveConfig {
	return usecase.NewResolveConfig(c.ConfigEntries)
}

// SetConfigUseCase returns a new SetConfig use case.
func (c *Container) SetConfigUseCase() *usecase.SetConfig {
	return usecase.NewSetConfig(c.ConfigEntries, c.Clock, c.Logger)
}

// DeleteConfigUseCase returns a new DeleteConfig use case.
func (c *Container) DeleteConfigUseCase() *usecase.DeleteConfig {
	return usecase.NewDeleteConfig(c.ConfigEntries, c.Logger)
}

// ListConfigUseCase returns a new ListConfig use case.
func (c *Container) ListConfigUseCase() *usecase.ListConfig {
	return usecase.NewListConfig(c.ConfigEntries)
}

// RecordToolCallUseCase returns a new RecordToolCall use case.
func (c *Container) RecordToolCallUseCase() *usecase.RecordToolCall {
	return usecase.NewRecordToolCall(c.ToolHistory, c.Clock, c.Metrics, c.Logger)
}

// ClearToolHistoryUseCase returns a new ClearToolHistory use case.
func (c *Container) ClearToolHistoryUseCase() *usecase.ClearToolHistory {
	return usecase.NewClearToolHistory(c.ToolHistory)
}

// RouteEventUseCase returns a new RouteEvent use case.
func (c *Container) RouteEventUseCase() *usecase.RouteEvent {
	return usecase.NewRouteEvent(c.Deduper, c.Tasks, c.Agents, c.Epics, c.Inbox, c.Notifier, c.IDs, c.Clock, c.Metrics, c.Logger)
}

// RegisterInboxMappingUseCase returns a new RegisterInboxMapping use case.
func (c *Container) RegisterInboxMappingUseCase() *usecase.RegisterInboxMapping {
	return usecase.NewRegisterInboxMapping(c.Inbox, c.Agents, c.IDs, c.Clock, c.Logger)
}

// RemoveInboxMappingUseCase returns a new RemoveInboxMapping use case.
func (c *Container) RemoveInboxMappingUseCase() *usecase.RemoveInboxMapping {
	return usecase.NewRemoveInboxMapping(c.Inbox, c.Logger)
}

// ListInboxMappingsUseCase returns a new ListInboxMappings use case.
func (c *Container) ListInboxMappingsUseCase() *usecase.ListInboxMappings {
	return usecase.NewListInboxMappings(c.Inbox)
}

// ListInboxMessagesUseCase returns a new ListInboxMessages use case.
func (c *Container) ListInboxMessagesUseCase() *usecase.ListInboxMessages {
	return usecase.NewListInboxMessages(c.Inbox)
}

// MarkMessageReadUseCase returns a new MarkMessageRead use case.
func (c *Container) MarkMessageReadUseCase() *usecase.MarkMessageRead {
	return usecase.NewMarkMessageRead(c.Inbox)
}

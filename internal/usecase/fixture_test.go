package usecase_test

import (
	"time"

	"github.com/runoshun/agent-swarm/internal/domain"
	"github.com/runoshun/agent-swarm/internal/testutil"
)

var baseTime = time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

type fixture struct {
	clock     *testutil.MockClock
	ids       *testutil.MockIDGenerator
	tasks     *testutil.MockTaskRepository
	agents    *testutil.MockAgentRepository
	epics     *testutil.MockEpicRepository
	schedules *testutil.MockScheduleRepository
	inbox     *testutil.MockInboxRepository
	notifier  *testutil.MockNotifier
	metrics   *testutil.MockMetrics
}

func newFixture(agents ...*domain.Agent) *fixture {
	tasks := testutil.NewMockTaskRepository()
	return &fixture{
		clock:     &testutil.MockClock{NowTime: baseTime},
		ids:       &testutil.MockIDGenerator{},
		tasks:     tasks,
		agents:    testutil.NewMockAgentRepository(agents...),
		epics:     testutil.NewMockEpicRepository(tasks),
		schedules: testutil.NewMockScheduleRepository(tasks),
		inbox:     testutil.NewMockInboxRepository(),
		notifier:  &testutil.MockNotifier{},
		metrics:   testutil.NewMockMetrics(),
	}
}

func worker(id string) *domain.Agent {
	return &domain.Agent{ID: id, Name: id, Status: domain.AgentIdle, UpdatedAt: baseTime}
}

func lead(id string) *domain.Agent {
	a := worker(id)
	a.IsLead = true
	return a
}

func pooledTask(id string) *domain.Task {
	return &domain.Task{
		ID:          id,
		Description: "task " + id,
		Status:      domain.StatusUnassigned,
		Source:      domain.SourceManual,
		Priority:    domain.DefaultPriority,
		CreatedAt:   baseTime,
		UpdatedAt:   baseTime,
	}
}

func ptr[T any](v T) *T { return &v }

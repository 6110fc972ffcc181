package sqlstore

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/runoshun/agent-swarm/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), DriverSQLite, filepath.Join(t.TempDir(), "data", "swarm.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newTask(id string, status domain.Status, agentID string) *domain.Task {
	return &domain.Task{
		ID:          id,
		Description: "task " + id,
		Status:      status,
		AgentID:     agentID,
		Source:      domain.SourceManual,
		Priority:    domain.DefaultPriority,
		CreatedAt:   t0,
		UpdatedAt:   t0,
	}
}

func TestOpen_MigratesOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "swarm.db")

	s, err := Open(context.Background(), DriverSQLite, path)
	require.NoError(t, err)
	require.NoError(t, s.Tasks().Create(context.Background(), newTask("t1", domain.StatusUnassigned, "")))
	require.NoError(t, s.Close())

	s, err = Open(context.Background(), DriverSQLite, path)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	got, err := s.Tasks().Get(context.Background(), "t1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.NoError(t, s.Ping(context.Background()))
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "mysql", "x")
	assert.ErrorContains(t, err, "unsupported store driver")
}

func TestStore_Rebind(t *testing.T) {
	pg := &Store{postgres: true}
	assert.Equal(t, "SELECT a FROM t WHERE x = $1 AND y IN ($2, $3)", pg.q("SELECT a FROM t WHERE x = ? AND y IN (?, ?)"))

	lite := &Store{}
	assert.Equal(t, "x = ?", lite.q("x = ?"))
}

func TestTaskStore_RoundTrip(t *testing.T) {
	ts := newTestStore(t).Tasks()
	ctx := context.Background()

	task := newTask("t1", domain.StatusOffered, "w1")
	task.Tags = []string{"ops", "urgent"}
	task.ThreadID = "th"
	task.Source = domain.SourceSlack
	require.NoError(t, ts.Create(ctx, task))

	got, err := ts.Get(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, task, got)

	missing, err := ts.Get(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	err = ts.Create(ctx, task)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestTaskStore_List(t *testing.T) {
	ts := newTestStore(t).Tasks()
	ctx := context.Background()

	for i, id := range []string{"a", "b", "c", "d"} {
		task := newTask(id, domain.StatusUnassigned, "")
		task.CreatedAt = t0.Add(time.Duration(i) * time.Minute)
		if id == "b" || id == "d" {
			task.Status = domain.StatusInProgress
			task.AgentID = "w1"
			task.Tags = []string{"x"}
		}
		require.NoError(t, ts.Create(ctx, task))
	}

	tests := []struct {
		name   string
		filter domain.TaskFilter
		want   []string
	}{
		{"all oldest first", domain.TaskFilter{}, []string{"a", "b", "c", "d"}},
		{"by status", domain.TaskFilter{Statuses: []domain.Status{domain.StatusUnassigned}}, []string{"a", "c"}},
		{"by agent", domain.TaskFilter{AgentID: "w1"}, []string{"b", "d"}},
		{"limit", domain.TaskFilter{Limit: 3}, []string{"a", "b", "c"}},
		{"tag with limit", domain.TaskFilter{Tag: "x", Limit: 1}, []string{"b"}},
		{"no match", domain.TaskFilter{EpicID: "e"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tasks, err := ts.List(ctx, tt.filter)
			require.NoError(t, err)
			var ids []string
			for _, task := range tasks {
				ids = append(ids, task.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestTaskStore_Claim(t *testing.T) {
	ts := newTestStore(t).Tasks()
	ctx := context.Background()
	require.NoError(t, ts.Create(ctx, newTask("pool", domain.StatusUnassigned, "")))
	require.NoError(t, ts.Create(ctx, newTask("offer", domain.StatusOffered, "w1")))

	t.Run("offered to someone else", func(t *testing.T) {
		_, err := ts.Claim(ctx, "offer", "w2", t0)
		assert.ErrorIs(t, err, domain.ErrClaimConflict)
	})

	t.Run("offered target claims", func(t *testing.T) {
		got, err := ts.Claim(ctx, "offer", "w1", t0.Add(time.Minute))
		require.NoError(t, err)
		assert.Equal(t, domain.StatusInProgress, got.Status)
		assert.True(t, got.UpdatedAt.Equal(t0.Add(time.Minute)))
	})

	t.Run("missing", func(t *testing.T) {
		_, err := ts.Claim(ctx, "ghost", "w1", t0)
		assert.ErrorIs(t, err, domain.ErrTaskNotFound)
	})

	t.Run("concurrent claims have one winner", func(t *testing.T) {
		var (
			wg   sync.WaitGroup
			mu   sync.Mutex
			wins []string
		)
		for i := 0; i < 8; i++ {
			agent := string(rune('a' + i))
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := ts.Claim(ctx, "pool", agent, t0); err == nil {
					mu.Lock()
					wins = append(wins, agent)
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		require.Len(t, wins, 1)
		got, err := ts.Get(ctx, "pool")
		require.NoError(t, err)
		assert.Equal(t, wins[0], got.AgentID)
	})
}

func TestTaskStore_CompareAndSwap(t *testing.T) {
	ts := newTestStore(t).Tasks()
	ctx := context.Background()
	require.NoError(t, ts.Create(ctx, newTask("t1", domain.StatusInProgress, "w1")))

	next := newTask("t1", domain.StatusCompleted, "w1")
	next.UpdatedAt = t0.Add(time.Hour)

	err := ts.CompareAndSwap(ctx, next, domain.StatusOffered, "w1")
	assert.ErrorIs(t, err, domain.ErrTaskModified)

	require.NoError(t, ts.CompareAndSwap(ctx, next, domain.StatusInProgress, "w1"))
	got, err := ts.Get(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, got.Status)

	next.ID = "ghost"
	assert.ErrorIs(t, ts.CompareAndSwap(ctx, next, domain.StatusInProgress, "w1"), domain.ErrTaskNotFound)
}

func TestTaskStore_LatestByThread(t *testing.T) {
	ts := newTestStore(t).Tasks()
	ctx := context.Background()
	for i, id := range []string{"first", "second"} {
		task := newTask(id, domain.StatusCompleted, "w1")
		task.Source = domain.SourceSlack
		task.ThreadID = "100.1"
		task.CreatedAt = t0.Add(time.Duration(i) * time.Second)
		require.NoError(t, ts.Create(ctx, task))
	}

	got, err := ts.LatestByThread(ctx, domain.SourceSlack, "100.1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "second", got.ID)

	none, err := ts.LatestByThread(ctx, domain.SourceAgentMail, "100.1")
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestAgentStore(t *testing.T) {
	as := newTestStore(t).Agents()
	ctx := context.Background()

	a := &domain.Agent{ID: "w1", Name: "Worker", Status: domain.AgentIdle, Capabilities: []string{"go"}, UpdatedAt: t0}
	require.NoError(t, as.Create(ctx, a))
	require.NoError(t, as.Create(ctx, &domain.Agent{ID: "boss", Name: "Boss", IsLead: true, Status: domain.AgentIdle, UpdatedAt: t0}))
	assert.ErrorIs(t, as.Create(ctx, a), domain.ErrAgentExists)

	require.NoError(t, as.SetStatus(ctx, "w1", domain.AgentBusy, t0.Add(time.Minute)))
	got, err := as.Get(ctx, "w1")
	require.NoError(t, err)
	assert.Equal(t, domain.AgentBusy, got.Status)
	assert.Equal(t, []string{"go"}, got.Capabilities)

	all, err := as.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "boss", all[0].ID)
	assert.True(t, all[0].IsLead)

	assert.ErrorIs(t, as.SetStatus(ctx, "ghost", domain.AgentIdle, t0), domain.ErrAgentNotFound)
}

func TestEpicStore_DeleteUnlinksTasks(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	es, ts := s.Epics(), s.Tasks()

	require.NoError(t, es.Create(ctx, &domain.Epic{ID: "e1", Name: "Launch", Status: domain.EpicActive, CreatedByAgentID: "w1", Priority: 50, CreatedAt: t0, UpdatedAt: t0}))
	for _, id := range []string{"t1", "t2"} {
		task := newTask(id, domain.StatusInProgress, "w1")
		task.EpicID = "e1"
		require.NoError(t, ts.Create(ctx, task))
	}
	require.NoError(t, ts.Create(ctx, newTask("t3", domain.StatusUnassigned, "")))

	n, err := es.Delete(ctx, "e1", t0.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	gone, err := es.Get(ctx, "e1")
	require.NoError(t, err)
	assert.Nil(t, gone)

	task, err := ts.Get(ctx, "t1")
	require.NoError(t, err)
	assert.Empty(t, task.EpicID)
	assert.Equal(t, domain.StatusInProgress, task.Status)

	_, err = es.Delete(ctx, "e1", t0)
	assert.ErrorIs(t, err, domain.ErrEpicNotFound)
}

func TestTaskStore_CreateRequiresEpic(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	es, ts := s.Epics(), s.Tasks()

	orphan := newTask("t1", domain.StatusUnassigned, "")
	orphan.EpicID = "missing"
	assert.ErrorIs(t, ts.Create(ctx, orphan), domain.ErrEpicNotFound)
	got, err := ts.Get(ctx, "t1")
	require.NoError(t, err)
	assert.Nil(t, got, "nothing inserted")

	require.NoError(t, es.Create(ctx, &domain.Epic{ID: "e1", Name: "Launch", Status: domain.EpicActive, Priority: 50, CreatedAt: t0, UpdatedAt: t0}))
	_, err = es.Delete(ctx, "e1", t0)
	require.NoError(t, err)

	late := newTask("t2", domain.StatusUnassigned, "")
	late.EpicID = "e1"
	assert.ErrorIs(t, ts.Create(ctx, late), domain.ErrEpicNotFound)

	var dangling int
	require.NoError(t, s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tasks WHERE epic_id <> ''`).Scan(&dangling))
	assert.Zero(t, dangling)
}

func TestEpicStore_UpdateAndList(t *testing.T) {
	es := newTestStore(t).Epics()
	ctx := context.Background()
	e := &domain.Epic{ID: "e1", Name: "A", Status: domain.EpicDraft, Priority: 50, CreatedAt: t0, UpdatedAt: t0}
	require.NoError(t, es.Create(ctx, e))

	e.Status = domain.EpicActive
	e.LeadAgentID = "boss"
	e.Tags = []string{"q1"}
	require.NoError(t, es.Update(ctx, e))

	list, err := es.List(ctx, domain.EpicFilter{LeadAgentID: "boss"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, domain.EpicActive, list[0].Status)
	assert.Equal(t, []string{"q1"}, list[0].Tags)

	e.ID = "ghost"
	assert.ErrorIs(t, es.Update(ctx, e), domain.ErrEpicNotFound)
}

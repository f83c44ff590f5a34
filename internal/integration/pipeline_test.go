//go:build integration

package integration_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pgagent "github.com/alanyang/shiftdesk/internal/adapter/postgres/agent"
	pgeventbus "github.com/alanyang/shiftdesk/internal/adapter/postgres/eventbus"
	pglocker "github.com/alanyang/shiftdesk/internal/adapter/postgres/locker"
	pgtask "github.com/alanyang/shiftdesk/internal/adapter/postgres/task"
	domainagent "github.com/alanyang/shiftdesk/internal/domain/agent"
	"github.com/alanyang/shiftdesk/internal/domain/dispatch"
	"github.com/alanyang/shiftdesk/internal/domain/pipeline"
	domaintask "github.com/alanyang/shiftdesk/internal/domain/task"
	agentsvc "github.com/alanyang/shiftdesk/internal/service/agent"
	distsvc "github.com/alanyang/shiftdesk/internal/service/distributor"
	drainersvc "github.com/alanyang/shiftdesk/internal/service/drainer"
	"github.com/alanyang/shiftdesk/internal/service/snapshot"
	tasksvc "github.com/alanyang/shiftdesk/internal/service/task"
	"github.com/alanyang/shiftdesk/internal/testutil"
)

// ── test harness ──────────────────────────────────────────────────────────────

var tenAM = time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC)

var dayShift = domainagent.Schedule{WorkStart: "09:00", WorkEnd: "17:00", LunchStart: "13:00", LunchEnd: "14:00"}

// inlineDrain runs the drainer synchronously so assertions can follow each call.
type inlineDrain struct {
	t *testing.T
	d *drainersvc.Service
}

func (i inlineDrain) Trigger() {
	_, err := i.d.DrainUntilStable(context.Background(), 0)
	assert.NoError(i.t, err)
}

type testServices struct {
	agentSvc *agentsvc.Service
	taskSvc  *tasksvc.Service
	notifier *testutil.CaptureNotifier
}

func newTestServices(t *testing.T) *testServices {
	t.Helper()
	pool := testutil.SetupTestDB(t)

	agentRepo := pgagent.New(pool)
	taskRepo := pgtask.New(pool)
	bus := pgeventbus.New(pool)
	locker := pglocker.New(pool)
	notifier := &testutil.CaptureNotifier{}

	loader := snapshot.NewLoader(agentRepo, taskRepo, time.UTC).WithClock(func() time.Time { return tenAM })
	drain := drainersvc.NewService(taskRepo, loader, bus, notifier, pipeline.DefaultConfig, locker)

	return &testServices{
		agentSvc: agentsvc.NewService(agentRepo, taskRepo, bus, locker),
		taskSvc: tasksvc.NewService(taskRepo, loader, distsvc.NewService(dispatch.StrategyRotation),
			bus, notifier, pipeline.DefaultConfig, locker, inlineDrain{t: t, d: drain}),
		notifier: notifier,
	}
}

func (s *testServices) agent(t *testing.T, name string) int64 {
	t.Helper()
	a, err := s.agentSvc.Create(context.Background(), name, name+"@example.com", dayShift, domainagent.RoleAgente, true)
	require.NoError(t, err)
	// Rotation order follows created_at; keep it strictly increasing.
	time.Sleep(2 * time.Millisecond)
	return a.ID
}

func (s *testServices) create(t *testing.T, desc string, typ dispatch.AssignmentType) domaintask.Task {
	t.Helper()
	created, err := s.taskSvc.Create(context.Background(), dispatch.Request{Description: desc, Mode: dispatch.ModeAuto, Type: typ})
	require.NoError(t, err)
	return created
}

func (s *testServices) get(t *testing.T, id int64) domaintask.Task {
	t.Helper()
	got, err := s.taskSvc.GetByID(context.Background(), id)
	require.NoError(t, err)
	return got
}

func notifiedTasks(calls []testutil.NotifyCall) []int64 {
	var ids []int64
	for _, c := range calls {
		if m, ok := c.Event.(map[string]any); ok {
			if id, ok := m["task_id"].(int64); ok {
				ids = append(ids, id)
			}
		}
	}
	return ids
}

// ── scenarios ────────────────────────────────────────────────────────────────

func TestPipeline_RotationBacklogAndPool(t *testing.T) {
	s := newTestServices(t)
	ctx := context.Background()
	ana := s.agent(t, "ana")
	bruno := s.agent(t, "bruno")

	t1 := s.create(t, "password reset", dispatch.TypeAvailability)
	t2 := s.create(t, "vpn down", dispatch.TypeAvailability)
	t3 := s.create(t, "printer jam", dispatch.TypeAvailability)
	t4 := s.create(t, "new laptop", dispatch.TypeDirect)

	assert.Equal(t, domaintask.StatusActive, t1.Status)
	assert.Equal(t, ana, *t1.AssignedTo)
	assert.Equal(t, domaintask.StatusActive, t2.Status)
	assert.Equal(t, bruno, *t2.AssignedTo)
	assert.Equal(t, domaintask.StatusPending, t3.Status)
	assert.Nil(t, t3.AssignedTo, "nobody free: the task waits in the pool")
	assert.Equal(t, domaintask.StatusPending, t4.Status)
	assert.Equal(t, ana, *t4.AssignedTo, "direct placement queues on the next agent in rotation")

	// Ana finishes: her own backlog comes before the pool.
	_, err := s.taskSvc.Complete(ctx, t1.ID)
	require.NoError(t, err)
	assert.Equal(t, domaintask.StatusActive, s.get(t, t4.ID).Status)
	assert.Equal(t, domaintask.StatusPending, s.get(t, t3.ID).Status)

	// Bruno finishes: he drains the pool.
	_, err = s.taskSvc.Complete(ctx, t2.ID)
	require.NoError(t, err)
	got := s.get(t, t3.ID)
	assert.Equal(t, domaintask.StatusActive, got.Status)
	assert.Equal(t, bruno, *got.AssignedTo)

	assert.Equal(t, []int64{t1.ID, t4.ID}, notifiedTasks(s.notifier.AgentNotifications(ana)))
	assert.Equal(t, []int64{t2.ID, t3.ID}, notifiedTasks(s.notifier.AgentNotifications(bruno)))

	stats, err := s.taskSvc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Completed)
	assert.Equal(t, 2, stats.Active)
	assert.Equal(t, 0, stats.Pending)
}

func TestPipeline_ReassignToBusyAgentQueues(t *testing.T) {
	s := newTestServices(t)
	ctx := context.Background()
	ana := s.agent(t, "ana")
	bruno := s.agent(t, "bruno")

	t1 := s.create(t, "first", dispatch.TypeAvailability)
	t2 := s.create(t, "second", dispatch.TypeAvailability)
	require.Equal(t, ana, *t1.AssignedTo)
	require.Equal(t, bruno, *t2.AssignedTo)

	moved, err := s.taskSvc.Reassign(ctx, t1.ID, bruno, false)
	require.NoError(t, err)
	assert.Equal(t, domaintask.StatusPending, moved.Status, "bruno is busy with t2")
	assert.Equal(t, 1, moved.ReassignCount)

	_, err = s.taskSvc.Cancel(ctx, t2.ID)
	require.NoError(t, err)

	got := s.get(t, t1.ID)
	assert.Equal(t, domaintask.StatusActive, got.Status, "bruno picks up his backlog once free")
	assert.Equal(t, bruno, *got.AssignedTo)
}

func TestPipeline_ConcurrentCreatesNeverDoubleBook(t *testing.T) {
	s := newTestServices(t)
	ctx := context.Background()
	s.agent(t, "ana")
	s.agent(t, "bruno")

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.taskSvc.Create(ctx, dispatch.Request{Description: "burst", Mode: dispatch.ModeAuto, Type: dispatch.TypeAvailability})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	all, err := s.taskSvc.List(ctx, domaintask.ListFilters{})
	require.NoError(t, err)
	require.Len(t, all, 10)
	assert.Empty(t, dispatch.BusyAgents(all))

	active := 0
	for _, tk := range all {
		if tk.Status == domaintask.StatusActive {
			active++
		}
	}
	assert.Equal(t, 2, active)
}

package dispatch_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainagent "github.com/alanyang/shiftdesk/internal/domain/agent"
	"github.com/alanyang/shiftdesk/internal/domain/dispatch"
	domaintask "github.com/alanyang/shiftdesk/internal/domain/task"
)

func TestPendingFIFO(t *testing.T) {
	tasks := []domaintask.Task{
		pendingTask(3, nil, at(9, 5)),
		activeTask(4, 1),
		pendingTask(2, nil, at(9, 0)),
		pendingTask(1, nil, at(9, 5)),
	}
	got := dispatch.PendingFIFO(tasks)
	require.Len(t, got, 3)
	assert.Equal(t, []int64{2, 1, 3}, []int64{got[0].ID, got[1].ID, got[2].ID})
}

func TestPlanDrain(t *testing.T) {
	now := at(10, 0)

	tests := []struct {
		name   string
		agents []domainagent.Agent
		tasks  []domaintask.Task
		want   dispatch.Assignment
		wantOK bool
	}{
		{
			name:   "no agents",
			tasks:  []domaintask.Task{pendingTask(1, nil, at(9, 0))},
			wantOK: false,
		},
		{
			name:   "no pending tasks",
			agents: []domainagent.Agent{worker(1)},
			tasks:  []domaintask.Task{activeTask(1, 2)},
			wantOK: false,
		},
		{
			name:   "oldest unassigned task goes first",
			agents: []domainagent.Agent{worker(1)},
			tasks: []domaintask.Task{
				pendingTask(2, nil, at(9, 5)),
				pendingTask(1, nil, at(9, 0)),
			},
			want:   dispatch.Assignment{TaskID: 1, AgentID: 1},
			wantOK: true,
		},
		{
			name:   "own backlog beats older pool task",
			agents: []domainagent.Agent{worker(2)},
			tasks: []domaintask.Task{
				pendingTask(1, nil, at(10, 0)),
				pendingTask(2, ptr(2), at(10, 5)),
			},
			want:   dispatch.Assignment{TaskID: 2, AgentID: 2, Backlog: true},
			wantOK: true,
		},
		{
			name:   "oldest task within own backlog",
			agents: []domainagent.Agent{worker(2)},
			tasks: []domaintask.Task{
				pendingTask(5, ptr(2), at(9, 30)),
				pendingTask(4, ptr(2), at(9, 10)),
			},
			want:   dispatch.Assignment{TaskID: 4, AgentID: 2, Backlog: true},
			wantOK: true,
		},
		{
			name:   "busy agent is derived from active task, not the flag",
			agents: []domainagent.Agent{worker(1), worker(2)},
			tasks: []domaintask.Task{
				activeTask(9, 1),
				pendingTask(1, nil, at(9, 0)),
			},
			want:   dispatch.Assignment{TaskID: 1, AgentID: 2},
			wantOK: true,
		},
		{
			name:   "another agent's backlog is never stolen",
			agents: []domainagent.Agent{worker(1)},
			tasks: []domaintask.Task{
				pendingTask(1, ptr(2), at(9, 0)),
			},
			wantOK: false,
		},
		{
			name:   "first free agent in list order wins",
			agents: []domainagent.Agent{worker(3), worker(1)},
			tasks: []domaintask.Task{
				pendingTask(1, ptr(1), at(9, 0)),
				pendingTask(2, nil, at(9, 1)),
			},
			want:   dispatch.Assignment{TaskID: 2, AgentID: 3},
			wantOK: true,
		},
		{
			name:   "desk and disabled agents are skipped",
			agents: []domainagent.Agent{desk(1), func() domainagent.Agent { a := worker(2); a.Active = false; return a }()},
			tasks:  []domaintask.Task{pendingTask(1, nil, at(9, 0))},
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := dispatch.PlanDrain(tt.agents, tt.tasks, now)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestPlanDrain_OnLunch(t *testing.T) {
	agents := []domainagent.Agent{worker(1)}
	tasks := []domaintask.Task{pendingTask(1, nil, at(9, 0))}
	_, ok := dispatch.PlanDrain(agents, tasks, at(13, 30))
	assert.False(t, ok)
}

// Applying plans until none is returned never produces two active tasks per agent.
func TestPlanDrain_FixedPointKeepsBusyInvariant(t *testing.T) {
	now := at(10, 0)
	agents := []domainagent.Agent{worker(1), worker(2), worker(3)}
	tasks := []domaintask.Task{
		activeTask(1, 1),
		pendingTask(2, nil, at(9, 0)),
		pendingTask(3, ptr(1), at(9, 1)),
		pendingTask(4, nil, at(9, 2)),
		pendingTask(5, nil, at(9, 3)),
		pendingTask(6, ptr(3), at(9, 4)),
	}

	for pass := 0; pass < 10; pass++ {
		plan, ok := dispatch.PlanDrain(agents, tasks, now)
		if !ok {
			break
		}
		for i := range tasks {
			if tasks[i].ID == plan.TaskID {
				require.Equal(t, domaintask.StatusPending, tasks[i].Status)
				tasks[i].Status = domaintask.StatusActive
				tasks[i].AssignedTo = ptr(plan.AgentID)
			}
		}
		assert.Empty(t, dispatch.BusyAgents(tasks), "pass %d", pass)
	}

	status := map[int64]domaintask.Status{}
	owner := map[int64]int64{}
	for _, tk := range tasks {
		status[tk.ID] = tk.Status
		if tk.AssignedTo != nil {
			owner[tk.ID] = *tk.AssignedTo
		}
	}
	// agent 2 takes the oldest pool task, agent 3 its own backlog, agent 1 stays busy.
	assert.Equal(t, domaintask.StatusActive, status[2])
	assert.Equal(t, int64(2), owner[2])
	assert.Equal(t, domaintask.StatusActive, status[6])
	assert.Equal(t, domaintask.StatusPending, status[3])
	assert.Equal(t, domaintask.StatusPending, status[4])
}

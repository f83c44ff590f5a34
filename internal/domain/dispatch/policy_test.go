package dispatch_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainagent "github.com/alanyang/shiftdesk/internal/domain/agent"
	"github.com/alanyang/shiftdesk/internal/domain/dispatch"
	domaintask "github.com/alanyang/shiftdesk/internal/domain/task"
)

func snapshot(agents []domainagent.Agent, tasks []domaintask.Task, hh, mm int) dispatch.Snapshot {
	return dispatch.NewSnapshot(agents, tasks, at(hh, mm))
}

func TestDecide_Validation(t *testing.T) {
	snap := snapshot([]domainagent.Agent{worker(1)}, nil, 10, 0)

	tests := []struct {
		name    string
		req     dispatch.Request
		wantErr error
	}{
		{name: "empty description", req: dispatch.Request{Description: "", Mode: dispatch.ModeAuto, Type: dispatch.TypeAvailability}, wantErr: dispatch.ErrEmptyDescription},
		{name: "whitespace description", req: dispatch.Request{Description: "  \t\n", Mode: dispatch.ModeAuto, Type: dispatch.TypeAvailability}, wantErr: dispatch.ErrEmptyDescription},
		{name: "unknown mode", req: dispatch.Request{Description: "x", Mode: "robot", Type: dispatch.TypeAvailability}, wantErr: dispatch.ErrInvalidMode},
		{name: "unknown type", req: dispatch.Request{Description: "x", Mode: dispatch.ModeAuto, Type: "later"}, wantErr: dispatch.ErrInvalidMode},
		{name: "manual without agent", req: dispatch.Request{Description: "x", Mode: dispatch.ModeManual, Type: dispatch.TypeAvailability}, wantErr: dispatch.ErrNoAgentSelected},
		{name: "manual unknown agent", req: dispatch.Request{Description: "x", Mode: dispatch.ModeManual, Type: dispatch.TypeAvailability, AgentID: ptr(42)}, wantErr: dispatch.ErrAgentNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := dispatch.Decide(tt.req, snap, 0, dispatch.StrategyRotation)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			assert.True(t, dispatch.IsValidation(err))
		})
	}
}

// Scenario: A busy, B free, cursor 0 → task active on B, cursor becomes 1.
func TestDecide_AutoAvailability_SkipsBusyAgent(t *testing.T) {
	agents := []domainagent.Agent{worker(1), worker(2)}
	tasks := []domaintask.Task{activeTask(100, 1)}

	d, err := dispatch.Decide(dispatch.Request{Description: " fix printer ", Mode: dispatch.ModeAuto, Type: dispatch.TypeAvailability},
		snapshot(agents, tasks, 10, 0), 0, dispatch.StrategyRotation)
	require.NoError(t, err)

	assert.Equal(t, "fix printer", d.Description)
	assert.Equal(t, domaintask.StatusActive, d.Status)
	require.NotNil(t, d.AssignedTo)
	assert.Equal(t, int64(2), *d.AssignedTo)
	assert.True(t, d.Advance)
	assert.Equal(t, 0, d.NextCursor, "cursor wraps to (1+1) mod 2")
}

func TestDecide_AutoAvailability_AdvancesCursor(t *testing.T) {
	agents := []domainagent.Agent{worker(1), worker(2), worker(3)}

	d, err := dispatch.Decide(dispatch.Request{Description: "x", Mode: dispatch.ModeAuto, Type: dispatch.TypeAvailability},
		snapshot(agents, nil, 10, 0), 0, dispatch.StrategyRotation)
	require.NoError(t, err)
	assert.Equal(t, int64(1), *d.AssignedTo)
	assert.Equal(t, 1, d.NextCursor)
}

// Scenario: no eligible agents → pending in the pool.
func TestDecide_AutoAvailability_NoAgentQueuesUnassigned(t *testing.T) {
	agents := []domainagent.Agent{worker(1), desk(2)}

	d, err := dispatch.Decide(dispatch.Request{Description: "x", Mode: dispatch.ModeAuto, Type: dispatch.TypeAvailability},
		snapshot(agents, nil, 13, 30), 0, dispatch.StrategyRotation)
	require.NoError(t, err)
	assert.Equal(t, domaintask.StatusPending, d.Status)
	assert.Nil(t, d.AssignedTo)
	assert.False(t, d.Advance)
}

func TestDecide_AutoDirect(t *testing.T) {
	agents := []domainagent.Agent{worker(1), worker(2)}
	tasks := []domaintask.Task{activeTask(100, 1), activeTask(101, 2)}

	d, err := dispatch.Decide(dispatch.Request{Description: "x", Mode: dispatch.ModeAuto, Type: dispatch.TypeDirect},
		snapshot(agents, tasks, 10, 0), 1, dispatch.StrategyRotation)
	require.NoError(t, err)
	assert.Equal(t, domaintask.StatusPending, d.Status, "direct placement queues even on a busy agent")
	assert.Equal(t, int64(2), *d.AssignedTo)
	assert.True(t, d.Advance)
	assert.Equal(t, 0, d.NextCursor)
}

func TestDecide_AutoDirect_NoEligibleAgentRejects(t *testing.T) {
	agents := []domainagent.Agent{worker(1)}

	_, err := dispatch.Decide(dispatch.Request{Description: "x", Mode: dispatch.ModeAuto, Type: dispatch.TypeDirect},
		snapshot(agents, nil, 20, 0), 0, dispatch.StrategyRotation)
	assert.True(t, errors.Is(err, dispatch.ErrNoEligibleAgent))
	assert.False(t, dispatch.IsValidation(err))
}

func TestDecide_Manual(t *testing.T) {
	agents := []domainagent.Agent{worker(1), worker(2), desk(3)}
	tasks := []domaintask.Task{activeTask(100, 1)}

	tests := []struct {
		name       string
		agentID    int64
		typ        dispatch.AssignmentType
		hh         int
		wantStatus domaintask.Status
		wantErr    error
	}{
		// Scenario: chosen agent busy, type availability → queued on that agent.
		{name: "busy agent queues", agentID: 1, typ: dispatch.TypeAvailability, hh: 10, wantStatus: domaintask.StatusPending},
		{name: "free agent activates", agentID: 2, typ: dispatch.TypeAvailability, hh: 10, wantStatus: domaintask.StatusActive},
		{name: "direct always queues", agentID: 2, typ: dispatch.TypeDirect, hh: 10, wantStatus: domaintask.StatusPending},
		{name: "agent on lunch rejected", agentID: 2, typ: dispatch.TypeAvailability, hh: 13, wantErr: dispatch.ErrAgentIneligible},
		{name: "desk agent rejected", agentID: 3, typ: dispatch.TypeAvailability, hh: 10, wantErr: dispatch.ErrAgentIneligible},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := dispatch.Decide(
				dispatch.Request{Description: "x", Mode: dispatch.ModeManual, Type: tt.typ, AgentID: ptr(tt.agentID)},
				snapshot(agents, tasks, tt.hh, 30), 0, dispatch.StrategyRotation)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, d.Status)
			assert.Equal(t, tt.agentID, *d.AssignedTo)
			assert.False(t, d.Advance, "manual assignment never moves the rotation")
		})
	}
}

func TestDecide_LoadStrategy(t *testing.T) {
	agents := []domainagent.Agent{worker(1), worker(2)}
	tasks := []domaintask.Task{pendingTask(10, ptr(1), at(9, 0))}

	d, err := dispatch.Decide(dispatch.Request{Description: "x", Mode: dispatch.ModeAuto, Type: dispatch.TypeAvailability},
		snapshot(agents, tasks, 10, 0), 0, dispatch.StrategyLoad)
	require.NoError(t, err)
	assert.Equal(t, domaintask.StatusActive, d.Status)
	assert.Equal(t, int64(2), *d.AssignedTo)
	assert.False(t, d.Advance)

	// The least loaded agent is busy → pool.
	tasks = []domaintask.Task{activeTask(11, 1), pendingTask(12, ptr(2), at(9, 0)), pendingTask(13, ptr(2), at(9, 1))}
	d, err = dispatch.Decide(dispatch.Request{Description: "x", Mode: dispatch.ModeAuto, Type: dispatch.TypeAvailability},
		snapshot(agents, tasks, 10, 0), 0, dispatch.StrategyLoad)
	require.NoError(t, err)
	assert.Equal(t, domaintask.StatusPending, d.Status)
	assert.Nil(t, d.AssignedTo)

	d, err = dispatch.Decide(dispatch.Request{Description: "x", Mode: dispatch.ModeAuto, Type: dispatch.TypeDirect},
		snapshot(agents, tasks, 10, 0), 0, dispatch.StrategyLoad)
	require.NoError(t, err)
	assert.Equal(t, domaintask.StatusPending, d.Status)
	assert.Equal(t, int64(1), *d.AssignedTo)
}

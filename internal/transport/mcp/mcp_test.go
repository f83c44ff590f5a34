package mcp_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyang/shiftdesk/internal/domain/event"
	"github.com/alanyang/shiftdesk/internal/domain/pipeline"
	domaintask "github.com/alanyang/shiftdesk/internal/domain/task"
	mcptransport "github.com/alanyang/shiftdesk/internal/transport/mcp"
)

func TestNew_ExposesHandlerAndRegistry(t *testing.T) {
	reg := mcptransport.NewSessionRegistry()
	srv := mcptransport.New(reg, nil, nil)

	assert.NotNil(t, srv.Handler())
	assert.Same(t, reg, srv.Registry())
}

// Agents are told about work only when it becomes active.
func TestPipeline_NotifiesOnlyOnActivation(t *testing.T) {
	tests := []struct {
		status      domaintask.Status
		wantEvent   event.Type
		wantNotify  bool
		freesFromUp bool
	}{
		{domaintask.StatusPending, event.TypeTaskReassigned, false, true},
		{domaintask.StatusActive, event.TypeTaskAssigned, true, false},
		{domaintask.StatusCompleted, event.TypeTaskCompleted, false, true},
		{domaintask.StatusCancelled, event.TypeTaskCancelled, false, true},
	}

	for _, tc := range tests {
		action, ok := pipeline.DefaultConfig[tc.status]
		require.True(t, ok, "status %s should have a pipeline action", tc.status)
		assert.Equal(t, tc.wantEvent, action.Event, "status %s event", tc.status)
		assert.Equal(t, tc.wantNotify, action.NotifyAgent, "status %s notify", tc.status)
		assert.Equal(t, tc.freesFromUp, pipeline.DefaultConfig.FreesAgent(domaintask.StatusActive, tc.status), "status %s frees", tc.status)
	}
	assert.False(t, pipeline.DefaultConfig.FreesAgent(domaintask.StatusPending, domaintask.StatusCancelled))
}

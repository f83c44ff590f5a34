package mcp_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mcptransport "github.com/alanyang/shiftdesk/internal/transport/mcp"
)

func TestNotifyAgent_AgentOffline_NoOp(t *testing.T) {
	reg := mcptransport.NewSessionRegistry()

	err := reg.NotifyAgent(context.Background(), 7, map[string]string{"event": "task_assigned"})
	assert.NoError(t, err, "NotifyAgent for disconnected agent must be a no-op")
}

func TestNotifyAgent_ServerNotSet(t *testing.T) {
	reg := mcptransport.NewSessionRegistry()
	reg.Register("session-1", 7)

	err := reg.NotifyAgent(context.Background(), 7, map[string]string{"event": "task_assigned"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not initialized")
}

func TestRegistry_RegisterUnregister(t *testing.T) {
	reg := mcptransport.NewSessionRegistry()

	reg.Register("session-1", 42)
	assert.True(t, reg.IsConnected(42))

	got, ok := reg.Unregister("session-1")
	assert.True(t, ok)
	assert.Equal(t, int64(42), got)
	assert.False(t, reg.IsConnected(42))
}

func TestRegistry_ReattachReplacesSession(t *testing.T) {
	reg := mcptransport.NewSessionRegistry()

	reg.Register("session-old", 42)
	reg.Register("session-new", 42)

	_, ok := reg.Unregister("session-old")
	assert.False(t, ok, "old session should not exist after re-attach")
	assert.True(t, reg.IsConnected(42))
}

func TestRegistry_SessionSwitchesAgent(t *testing.T) {
	reg := mcptransport.NewSessionRegistry()

	reg.Register("session-1", 1)
	reg.Register("session-1", 2)

	assert.False(t, reg.IsConnected(1))
	assert.True(t, reg.IsConnected(2))
}

func TestRegistry_UnregisterNonExistentSession(t *testing.T) {
	reg := mcptransport.NewSessionRegistry()
	got, ok := reg.Unregister("does-not-exist")
	assert.False(t, ok)
	assert.Zero(t, got)
}

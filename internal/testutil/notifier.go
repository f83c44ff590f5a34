//go:build integration

package testutil

import (
	"context"
	"sync"
)

// NotifyCall records a single notification delivered by CaptureNotifier.
type NotifyCall struct {
	AgentID int64
	Event   any
}

// CaptureNotifier records every AgentNotifier call. Safe for concurrent use.
type CaptureNotifier struct {
	mu    sync.Mutex
	Calls []NotifyCall
}

func (c *CaptureNotifier) NotifyAgent(_ context.Context, agentID int64, event any) error {
	c.mu.Lock()
	c.Calls = append(c.Calls, NotifyCall{AgentID: agentID, Event: event})
	c.mu.Unlock()
	return nil
}

// AgentNotifications returns all calls made for a specific agentID.
func (c *CaptureNotifier) AgentNotifications(agentID int64) []NotifyCall {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []NotifyCall
	for _, call := range c.Calls {
		if call.AgentID == agentID {
			out = append(out, call)
		}
	}
	return out
}

func (c *CaptureNotifier) Reset() {
	c.mu.Lock()
	c.Calls = nil
	c.mu.Unlock()
}

package notifier

import (
	"context"
)

// AgentNotifier pushes an event to a specific agent's active session.
// Agents without a session are skipped silently.
type AgentNotifier interface {
	NotifyAgent(ctx context.Context, agentID int64, event any) error
}

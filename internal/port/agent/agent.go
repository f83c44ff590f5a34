package agent

import (
	"context"
	"errors"

	domainagent "github.com/alanyang/shiftdesk/internal/domain/agent"
)

var (
	ErrNotFound = errors.New("agent not found")
	// ErrHasOpenTasks is returned by Delete while a pending or active task is
	// assigned to the agent.
	ErrHasOpenTasks = errors.New("agent still holds pending or active tasks")
)

// Repository manages agent state. List returns agents in ascending creation order,
// which is the order the rotation cursor walks. Available is never read from or
// written to storage.
type Repository interface {
	Create(ctx context.Context, a domainagent.Agent) (domainagent.Agent, error)
	GetByID(ctx context.Context, id int64) (domainagent.Agent, error)
	List(ctx context.Context, filters domainagent.ListFilters) ([]domainagent.Agent, error)
	Update(ctx context.Context, a domainagent.Agent) (domainagent.Agent, error)
	// Delete removes the agent only if it holds no pending or active task, checked
	// in the same statement. Finished tasks keep their row with assigned_to cleared.
	Delete(ctx context.Context, id int64) error
}

package pipeline

import (
	"github.com/alanyang/shiftdesk/internal/domain/event"
	"github.com/alanyang/shiftdesk/internal/domain/task"
)

// StageAction defines what the service should do when a task enters a given status.
type StageAction struct {
	// Event is published on entry to this status.
	Event event.Type

	// NotifyAgent pushes the event to the assigned agent's session.
	NotifyAgent bool

	// FreesAgent means entering this status from active releases the agent, so a
	// drain pass must follow to hand it queued work.
	FreesAgent bool
}

// Config maps each task status to the action the service should take on entry.
type Config map[task.Status]StageAction

// DefaultConfig drives the task lifecycle. To add a stage, extend this map.
var DefaultConfig = Config{
	task.StatusPending: {
		Event:      event.TypeTaskReassigned,
		FreesAgent: true, // active→pending happens when a task is moved to a busy agent
	},
	task.StatusActive: {
		Event:       event.TypeTaskAssigned,
		NotifyAgent: true,
	},
	task.StatusCompleted: {
		Event:      event.TypeTaskCompleted,
		FreesAgent: true,
	},
	task.StatusCancelled: {
		Event:      event.TypeTaskCancelled,
		FreesAgent: true,
	},
}

// FreesAgent reports whether moving a task from `from` into `to` releases its agent.
func (c Config) FreesAgent(from, to task.Status) bool {
	if from != task.StatusActive {
		return false
	}
	action, ok := c[to]
	return ok && action.FreesAgent
}

package dispatch

import (
	"cmp"
	"slices"
	"time"

	domainagent "github.com/alanyang/shiftdesk/internal/domain/agent"
	domaintask "github.com/alanyang/shiftdesk/internal/domain/task"
)

// Assignment is one pending task matched to one free agent.
type Assignment struct {
	TaskID  int64 `json:"task_id"`
	AgentID int64 `json:"agent_id"`
	// Backlog is true when the task was already queued on the agent.
	Backlog bool `json:"backlog"`
}

// PendingFIFO returns the pending tasks oldest first. Ties on CreatedAt fall back to id.
func PendingFIFO(tasks []domaintask.Task) []domaintask.Task {
	out := make([]domaintask.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.Status == domaintask.StatusPending {
			out = append(out, t)
		}
	}
	slices.SortStableFunc(out, func(a, b domaintask.Task) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}

// PlanDrain picks at most one assignment for a reconciliation pass. Free agents are
// visited in list order; each drains its own backlog before the unassigned pool.
// Availability is derived from tasks, not read from the agents.
func PlanDrain(agents []domainagent.Agent, tasks []domaintask.Task, now time.Time) (Assignment, bool) {
	avail := ComputeAvailability(agents, tasks)

	free := make([]domainagent.Agent, 0, len(agents))
	for _, a := range agents {
		if a.Active && EligibleAt(a, now) && avail[a.ID] {
			free = append(free, a)
		}
	}
	if len(free) == 0 {
		return Assignment{}, false
	}

	pending := PendingFIFO(tasks)
	if len(pending) == 0 {
		return Assignment{}, false
	}

	for _, a := range free {
		for _, t := range pending {
			if t.IsAssignedTo(a.ID) {
				return Assignment{TaskID: t.ID, AgentID: a.ID, Backlog: true}, true
			}
		}
		for _, t := range pending {
			if t.AssignedTo == nil {
				return Assignment{TaskID: t.ID, AgentID: a.ID}, true
			}
		}
	}
	return Assignment{}, false
}

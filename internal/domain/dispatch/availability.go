package dispatch

import (
	domainagent "github.com/alanyang/shiftdesk/internal/domain/agent"
	domaintask "github.com/alanyang/shiftdesk/internal/domain/task"
)

// ComputeAvailability maps every agent id to true unless a task in active status
// is assigned to it.
func ComputeAvailability(agents []domainagent.Agent, tasks []domaintask.Task) map[int64]bool {
	out := make(map[int64]bool, len(agents))
	for _, a := range agents {
		out[a.ID] = true
	}
	for _, t := range tasks {
		if t.Status == domaintask.StatusActive && t.AssignedTo != nil {
			if _, ok := out[*t.AssignedTo]; ok {
				out[*t.AssignedTo] = false
			}
		}
	}
	return out
}

// WithAvailability returns a copy of agents with Available derived from tasks.
func WithAvailability(agents []domainagent.Agent, tasks []domaintask.Task) []domainagent.Agent {
	avail := ComputeAvailability(agents, tasks)
	out := make([]domainagent.Agent, len(agents))
	for i, a := range agents {
		a.Available = avail[a.ID]
		out[i] = a
	}
	return out
}

// BusyAgents returns the agent ids holding more than one active task. A healthy
// snapshot returns an empty map.
func BusyAgents(tasks []domaintask.Task) map[int64]int {
	counts := make(map[int64]int)
	for _, t := range tasks {
		if t.Status == domaintask.StatusActive && t.AssignedTo != nil {
			counts[*t.AssignedTo]++
		}
	}
	for id, n := range counts {
		if n < 2 {
			delete(counts, id)
		}
	}
	return counts
}

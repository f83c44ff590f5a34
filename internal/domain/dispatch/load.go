package dispatch

import (
	"time"

	domainagent "github.com/alanyang/shiftdesk/internal/domain/agent"
	domaintask "github.com/alanyang/shiftdesk/internal/domain/task"
)

// LeastLoaded returns the original index of the schedule-eligible worker holding
// the fewest active+pending tasks. Ties go to the first minimum in list order.
func LeastLoaded(agents []domainagent.Agent, tasks []domaintask.Task, now time.Time) int {
	load := make(map[int64]int, len(agents))
	for _, t := range tasks {
		if t.AssignedTo == nil {
			continue
		}
		if t.Status == domaintask.StatusActive || t.Status == domaintask.StatusPending {
			load[*t.AssignedTo]++
		}
	}

	best, bestLoad := NotFound, 0
	for i, a := range agents {
		if !EligibleAt(a, now) {
			continue
		}
		if n := load[a.ID]; best == NotFound || n < bestLoad {
			best, bestLoad = i, n
		}
	}
	return best
}

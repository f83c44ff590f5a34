package dispatch

import (
	"time"

	domainagent "github.com/alanyang/shiftdesk/internal/domain/agent"
)

// NotFound is returned by the selectors when no agent qualifies.
const NotFound = -1

// workerIndexes returns the positions in agents of every agent whose role receives work.
func workerIndexes(agents []domainagent.Agent) []int {
	out := make([]int, 0, len(agents))
	for i, a := range agents {
		if a.Role.ReceivesWork() {
			out = append(out, i)
		}
	}
	return out
}

func mod(a, n int) int {
	r := a % n
	if r < 0 {
		r += n
	}
	return r
}

// NextAvailable scans the worker agents circularly starting at cursor mod workerCount
// and returns the original index of the first one that is available, schedule-eligible
// and enabled. Returns NotFound when a full lap finds nobody.
func NextAvailable(agents []domainagent.Agent, cursor int, now time.Time) int {
	workers := workerIndexes(agents)
	n := len(workers)
	if n == 0 {
		return NotFound
	}

	start := mod(cursor, n)
	for step := 0; step < n; step++ {
		idx := workers[(start+step)%n]
		a := agents[idx]
		if a.Available && EligibleAt(a, now) && a.Active {
			return idx
		}
	}
	return NotFound
}

// NextIgnoringAvailability picks the single slot cursor mod eligibleCount among the
// schedule-eligible workers, ignoring whether they are busy. Used for direct
// placement that queues the task on the agent.
func NextIgnoringAvailability(agents []domainagent.Agent, cursor int, now time.Time) int {
	eligible := make([]int, 0, len(agents))
	for i, a := range agents {
		if EligibleAt(a, now) {
			eligible = append(eligible, i)
		}
	}
	if len(eligible) == 0 {
		return NotFound
	}
	return eligible[mod(cursor, len(eligible))]
}

// NextCursor returns the rotation cursor that follows a selection at original index found.
// The cursor lives in the worker-filtered index space, so mixed Agente/Mesa lists
// still rotate through every worker before repeating.
func NextCursor(agents []domainagent.Agent, found int) int {
	workers := workerIndexes(agents)
	for slot, idx := range workers {
		if idx == found {
			return (slot + 1) % len(workers)
		}
	}
	return 0
}

package dispatch

import (
	"fmt"
	"strings"
	"time"

	domainagent "github.com/alanyang/shiftdesk/internal/domain/agent"
	domaintask "github.com/alanyang/shiftdesk/internal/domain/task"
)

type Mode string

const (
	ModeAuto   Mode = "auto"
	ModeManual Mode = "manual"
)

type AssignmentType string

const (
	// TypeAvailability places the task on a free agent, or in the pool if nobody is free.
	TypeAvailability AssignmentType = "availability"
	// TypeDirect queues the task on an agent without activating it.
	TypeDirect AssignmentType = "direct"
)

type Strategy string

const (
	StrategyRotation Strategy = "rotation"
	StrategyLoad     Strategy = "load"
)

// Request is a task creation request as submitted by a dispatcher.
type Request struct {
	Description string
	Mode        Mode
	Type        AssignmentType
	AgentID     *int64 // manual mode only
}

// Snapshot is the agent/task state a decision is made against.
type Snapshot struct {
	Agents []domainagent.Agent
	Tasks  []domaintask.Task
	Now    time.Time
}

// NewSnapshot derives agent availability from tasks.
func NewSnapshot(agents []domainagent.Agent, tasks []domaintask.Task, now time.Time) Snapshot {
	return Snapshot{
		Agents: WithAvailability(agents, tasks),
		Tasks:  tasks,
		Now:    now,
	}
}

// Decision is the outcome of the assignment policy for one request.
type Decision struct {
	Description string
	Status      domaintask.Status
	AssignedTo  *int64
	// Advance is true when the rotation cursor must move to NextCursor once the
	// task has been stored.
	Advance    bool
	NextCursor int
}

// Decide applies the assignment policy. It has no side effects; the caller stores
// the task and advances the cursor.
func Decide(req Request, snap Snapshot, cursor int, strategy Strategy) (Decision, error) {
	desc := strings.TrimSpace(req.Description)
	if desc == "" {
		return Decision{}, ErrEmptyDescription
	}
	if req.Type != TypeAvailability && req.Type != TypeDirect {
		return Decision{}, fmt.Errorf("%w: type %q", ErrInvalidMode, req.Type)
	}

	switch req.Mode {
	case ModeAuto:
		return decideAuto(desc, req.Type, snap, cursor, strategy)
	case ModeManual:
		return decideManual(desc, req, snap)
	}
	return Decision{}, fmt.Errorf("%w: mode %q", ErrInvalidMode, req.Mode)
}

func decideAuto(desc string, typ AssignmentType, snap Snapshot, cursor int, strategy Strategy) (Decision, error) {
	agents := snap.Agents

	if typ == TypeDirect {
		var idx int
		if strategy == StrategyLoad {
			idx = LeastLoaded(agents, snap.Tasks, snap.Now)
		} else {
			idx = NextIgnoringAvailability(agents, cursor, snap.Now)
		}
		if idx == NotFound {
			return Decision{}, ErrNoEligibleAgent
		}
		id := agents[idx].ID
		return Decision{
			Description: desc,
			Status:      domaintask.StatusPending,
			AssignedTo:  &id,
			Advance:     strategy != StrategyLoad,
			NextCursor:  NextCursor(agents, idx),
		}, nil
	}

	idx := NotFound
	if strategy == StrategyLoad {
		if i := LeastLoaded(agents, snap.Tasks, snap.Now); i != NotFound && agents[i].Available {
			idx = i
		}
	} else {
		idx = NextAvailable(agents, cursor, snap.Now)
	}
	if idx == NotFound {
		return Decision{Description: desc, Status: domaintask.StatusPending}, nil
	}

	id := agents[idx].ID
	return Decision{
		Description: desc,
		Status:      domaintask.StatusActive,
		AssignedTo:  &id,
		Advance:     strategy != StrategyLoad,
		NextCursor:  NextCursor(agents, idx),
	}, nil
}

func decideManual(desc string, req Request, snap Snapshot) (Decision, error) {
	if req.AgentID == nil {
		return Decision{}, ErrNoAgentSelected
	}

	var chosen *domainagent.Agent
	for i := range snap.Agents {
		if snap.Agents[i].ID == *req.AgentID {
			chosen = &snap.Agents[i]
			break
		}
	}
	if chosen == nil {
		return Decision{}, fmt.Errorf("%w: %d", ErrAgentNotFound, *req.AgentID)
	}
	if !EligibleAt(*chosen, snap.Now) {
		return Decision{}, fmt.Errorf("%w: %d", ErrAgentIneligible, chosen.ID)
	}

	id := chosen.ID
	status := domaintask.StatusActive
	if req.Type == TypeDirect || !chosen.Available {
		status = domaintask.StatusPending
	}
	return Decision{
		Description: desc,
		Status:      status,
		AssignedTo:  &id,
	}, nil
}

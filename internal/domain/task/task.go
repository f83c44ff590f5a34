package task

import (
	"time"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

var validTransitions = map[Status][]Status{
	StatusPending:   {StatusActive, StatusPending, StatusCompleted, StatusCancelled},
	StatusActive:    {StatusCompleted, StatusCancelled, StatusPending, StatusActive},
	StatusCompleted: {},
	StatusCancelled: {},
}

// CanTransitionTo reports whether the lifecycle allows moving from s to target.
// pending→pending and active→active are reassignments that keep the status.
func (s Status) CanTransitionTo(target Status) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

func (s Status) Valid() bool {
	_, ok := validTransitions[s]
	return ok
}

type Task struct {
	ID               int64      `json:"id"`
	Description      string     `json:"description"`
	AssignedTo       *int64     `json:"assigned_to"`
	Status           Status     `json:"status"`
	CreatedAt        time.Time  `json:"created_at"`
	LastReassignedAt *time.Time `json:"last_reassigned_at,omitempty"`
	ReassignCount    int        `json:"reassign_count"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
}

func New(description string, assignedTo *int64, status Status) Task {
	return Task{
		Description: description,
		AssignedTo:  assignedTo,
		Status:      status,
		CreatedAt:   time.Now().UTC(),
	}
}

// IsAssignedTo reports whether the task is assigned to the given agent.
func (t Task) IsAssignedTo(agentID int64) bool {
	return t.AssignedTo != nil && *t.AssignedTo == agentID
}

type ListFilters struct {
	Status      *Status
	Open        bool // status IN ('pending', 'active')
	AssignedTo  *int64
	Unassigned  bool // WHERE assigned_to IS NULL
	OldestFirst bool // ORDER BY created_at ASC, id ASC (default is DESC)
}

// Matches reports whether t satisfies every set filter. Adapters without a query
// language use it to evaluate List.
func (f ListFilters) Matches(t Task) bool {
	if f.Status != nil && t.Status != *f.Status {
		return false
	}
	if f.Open && t.Status != StatusPending && t.Status != StatusActive {
		return false
	}
	if f.AssignedTo != nil && !t.IsAssignedTo(*f.AssignedTo) {
		return false
	}
	if f.Unassigned && t.AssignedTo != nil {
		return false
	}
	return true
}

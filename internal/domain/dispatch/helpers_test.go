package dispatch_test

import (
	"time"

	domainagent "github.com/alanyang/shiftdesk/internal/domain/agent"
	domaintask "github.com/alanyang/shiftdesk/internal/domain/task"
)

var officeHours = domainagent.Schedule{
	WorkStart:  "09:00",
	WorkEnd:    "17:00",
	LunchStart: "13:00",
	LunchEnd:   "14:00",
}

func at(hh, mm int) time.Time {
	return time.Date(2026, time.March, 2, hh, mm, 0, 0, time.UTC)
}

func worker(id int64) domainagent.Agent {
	return domainagent.Agent{
		ID:        id,
		Name:      "agent",
		Schedule:  officeHours,
		Active:    true,
		Role:      domainagent.RoleAgente,
		Available: true,
	}
}

func desk(id int64) domainagent.Agent {
	a := worker(id)
	a.Role = domainagent.RoleMesa
	return a
}

func busy(a domainagent.Agent) domainagent.Agent {
	a.Available = false
	return a
}

func ptr(id int64) *int64 { return &id }

func pendingTask(id int64, assignedTo *int64, created time.Time) domaintask.Task {
	return domaintask.Task{ID: id, Description: "t", Status: domaintask.StatusPending, AssignedTo: assignedTo, CreatedAt: created}
}

func activeTask(id, agentID int64) domaintask.Task {
	return domaintask.Task{ID: id, Description: "t", Status: domaintask.StatusActive, AssignedTo: ptr(agentID), CreatedAt: at(8, 0)}
}

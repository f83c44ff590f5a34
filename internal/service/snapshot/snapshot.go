package snapshot

import (
	"context"
	"fmt"
	"time"

	domainagent "github.com/alanyang/shiftdesk/internal/domain/agent"
	"github.com/alanyang/shiftdesk/internal/domain/dispatch"
	domaintask "github.com/alanyang/shiftdesk/internal/domain/task"
	portagent "github.com/alanyang/shiftdesk/internal/port/agent"
	porttask "github.com/alanyang/shiftdesk/internal/port/task"
)

// Loader reads the agent list and the open tasks and stamps them with the current
// wall-clock time in the configured location. Agent availability is derived here
// on every load.
type Loader struct {
	agents portagent.Repository
	tasks  porttask.Repository
	loc    *time.Location
	now    func() time.Time
}

func NewLoader(agents portagent.Repository, tasks porttask.Repository, loc *time.Location) *Loader {
	if loc == nil {
		loc = time.Local
	}
	return &Loader{agents: agents, tasks: tasks, loc: loc, now: time.Now}
}

// WithClock replaces the time source. Used by tests.
func (l *Loader) WithClock(now func() time.Time) *Loader {
	l.now = now
	return l
}

// Now returns the current time in the schedule location.
func (l *Loader) Now() time.Time {
	return l.now().In(l.loc)
}

func (l *Loader) Load(ctx context.Context) (dispatch.Snapshot, error) {
	agents, err := l.agents.List(ctx, domainagent.ListFilters{})
	if err != nil {
		return dispatch.Snapshot{}, fmt.Errorf("load agents: %w", err)
	}
	tasks, err := l.tasks.List(ctx, domaintask.ListFilters{Open: true, OldestFirst: true})
	if err != nil {
		return dispatch.Snapshot{}, fmt.Errorf("load open tasks: %w", err)
	}
	return dispatch.NewSnapshot(agents, tasks, l.Now()), nil
}

package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	domainagent "github.com/alanyang/shiftdesk/internal/domain/agent"
	"github.com/alanyang/shiftdesk/internal/domain/dispatch"
	"github.com/alanyang/shiftdesk/internal/domain/event"
	"github.com/alanyang/shiftdesk/internal/domain/pipeline"
	domaintask "github.com/alanyang/shiftdesk/internal/domain/task"
	portdist "github.com/alanyang/shiftdesk/internal/port/distributor"
	portbus "github.com/alanyang/shiftdesk/internal/port/eventbus"
	portlocker "github.com/alanyang/shiftdesk/internal/port/locker"
	portnotifier "github.com/alanyang/shiftdesk/internal/port/notifier"
	porttask "github.com/alanyang/shiftdesk/internal/port/task"
	"github.com/alanyang/shiftdesk/internal/service/snapshot"
)

var (
	ErrTaskNotFound  = porttask.ErrNotFound
	ErrTaskNotActive = errors.New("task is not active")
	ErrTaskTerminal  = errors.New("task is already completed or cancelled")
)

// DrainTrigger asks for a pending-queue pass without waiting for it.
type DrainTrigger interface {
	Trigger()
}

// Service manages the task lifecycle: creation through the assignment policy,
// completion, cancellation and reassignment.
type Service struct {
	repo           porttask.Repository
	snapshots      *snapshot.Loader
	dist           portdist.Distributor
	bus            portbus.EventBus
	agentNotifier  portnotifier.AgentNotifier
	pipelineConfig pipeline.Config
	locker         portlocker.AdvisoryLocker
	drain          DrainTrigger
}

func NewService(
	repo porttask.Repository,
	snapshots *snapshot.Loader,
	dist portdist.Distributor,
	bus portbus.EventBus,
	agentNotifier portnotifier.AgentNotifier,
	pipelineConfig pipeline.Config,
	locker portlocker.AdvisoryLocker,
	drain DrainTrigger,
) *Service {
	return &Service{
		repo:           repo,
		snapshots:      snapshots,
		dist:           dist,
		bus:            bus,
		agentNotifier:  agentNotifier,
		pipelineConfig: pipelineConfig,
		locker:         locker,
		drain:          drain,
	}
}

// Create runs the assignment policy and stores the resulting task. Snapshot,
// decision, insert and cursor advance all happen under the dispatch lock, so two
// concurrent creates never both activate a task on the same agent.
func (s *Service) Create(ctx context.Context, req dispatch.Request) (domaintask.Task, error) {
	var created domaintask.Task
	err := s.locker.WithLock(ctx, portlocker.DispatchKey, func(ctx context.Context) error {
		snap, err := s.snapshots.Load(ctx)
		if err != nil {
			return err
		}
		d, err := s.dist.Decide(req, snap)
		if err != nil {
			return err
		}

		t := domaintask.New(d.Description, d.AssignedTo, d.Status)
		created, err = s.repo.Insert(ctx, t)
		if err != nil {
			return fmt.Errorf("insert task: %w", err)
		}
		s.dist.Commit(d)
		return nil
	})
	if err != nil {
		return domaintask.Task{}, fmt.Errorf("create task: %w", err)
	}

	slog.InfoContext(ctx, "task created",
		"task_id", created.ID, "status", created.Status, "assigned_to", created.AssignedTo,
		"mode", req.Mode, "type", req.Type)

	if err := s.bus.Publish(ctx, event.New(event.TypeTaskCreated, created.ID)); err != nil {
		slog.ErrorContext(ctx, "failed to publish TaskCreated event", "task_id", created.ID, "error", err)
	}
	if created.Status == domaintask.StatusActive {
		s.enter(ctx, created)
	}
	return created, nil
}

func (s *Service) GetByID(ctx context.Context, id int64) (domaintask.Task, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return domaintask.Task{}, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

func (s *Service) List(ctx context.Context, filters domaintask.ListFilters) ([]domaintask.Task, error) {
	tasks, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

// ListPending returns the pending tasks oldest first, restricted to one agent's
// backlog when agentID is set.
func (s *Service) ListPending(ctx context.Context, agentID *int64) ([]domaintask.Task, error) {
	status := domaintask.StatusPending
	tasks, err := s.repo.List(ctx, domaintask.ListFilters{
		Status:      &status,
		AssignedTo:  agentID,
		OldestFirst: true,
	})
	if err != nil {
		return nil, fmt.Errorf("list pending tasks: %w", err)
	}
	return tasks, nil
}

type Stats struct {
	Pending   int `json:"pending"`
	Active    int `json:"active"`
	Completed int `json:"completed"`
	Cancelled int `json:"cancelled"`
	// Unassigned counts pending tasks in the shared pool.
	Unassigned int `json:"unassigned"`
}

func (s *Service) Stats(ctx context.Context) (Stats, error) {
	tasks, err := s.repo.List(ctx, domaintask.ListFilters{})
	if err != nil {
		return Stats{}, fmt.Errorf("task stats: %w", err)
	}
	var st Stats
	for _, t := range tasks {
		switch t.Status {
		case domaintask.StatusPending:
			st.Pending++
			if t.AssignedTo == nil {
				st.Unassigned++
			}
		case domaintask.StatusActive:
			st.Active++
		case domaintask.StatusCompleted:
			st.Completed++
		case domaintask.StatusCancelled:
			st.Cancelled++
		}
	}
	return st, nil
}

// Complete finishes an active task. Completing a terminal task is a no-op that
// returns it unchanged; a pending task cannot be completed.
func (s *Service) Complete(ctx context.Context, id int64) (domaintask.Task, error) {
	return s.finish(ctx, id, domaintask.StatusCompleted, []domaintask.Status{domaintask.StatusActive})
}

// Cancel withdraws an active or pending task. Cancelling a terminal task is a no-op.
func (s *Service) Cancel(ctx context.Context, id int64) (domaintask.Task, error) {
	return s.finish(ctx, id, domaintask.StatusCancelled, []domaintask.Status{domaintask.StatusActive, domaintask.StatusPending})
}

func (s *Service) finish(ctx context.Context, id int64, to domaintask.Status, from []domaintask.Status) (domaintask.Task, error) {
	for {
		t, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return domaintask.Task{}, fmt.Errorf("%s task: %w", verb(to), err)
		}
		if t.Status.IsTerminal() {
			return t, nil
		}
		if !slices.Contains(from, t.Status) {
			return domaintask.Task{}, fmt.Errorf("%s task %d: %w (status %s)", verb(to), id, ErrTaskNotActive, t.Status)
		}

		now := s.snapshots.Now()
		applied, err := s.repo.UpdateStatus(ctx, id, []domaintask.Status{t.Status}, to, now)
		if err != nil {
			return domaintask.Task{}, fmt.Errorf("%s task: %w", verb(to), err)
		}
		if !applied {
			// Status moved underneath us; re-read and decide again.
			slog.InfoContext(ctx, "task status changed concurrently, retrying", "task_id", id, "to", to)
			continue
		}

		prev := t.Status
		t.Status = to
		t.CompletedAt = &now
		slog.InfoContext(ctx, "task finished", "task_id", id, "from", prev, "to", to)

		s.enter(ctx, t)
		if s.pipelineConfig.FreesAgent(prev, to) {
			s.drain.Trigger()
		}
		return t, nil
	}
}

// Reassign moves a non-terminal task to agentID and bumps its reassignment counter.
// The task stays pending when keepPending is set or when the target agent is already
// working on another task; otherwise it becomes active.
func (s *Service) Reassign(ctx context.Context, id, agentID int64, keepPending bool) (domaintask.Task, error) {
	var prev, updated domaintask.Task
	err := s.locker.WithLock(ctx, portlocker.DispatchKey, func(ctx context.Context) error {
		t, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if t.Status.IsTerminal() {
			return fmt.Errorf("task %d: %w", id, ErrTaskTerminal)
		}

		snap, err := s.snapshots.Load(ctx)
		if err != nil {
			return err
		}
		idx := slices.IndexFunc(snap.Agents, func(a domainagent.Agent) bool { return a.ID == agentID })
		if idx < 0 {
			return fmt.Errorf("%w: %d", dispatch.ErrAgentNotFound, agentID)
		}
		if !dispatch.EligibleAt(snap.Agents[idx], snap.Now) {
			return fmt.Errorf("%w: %d", dispatch.ErrAgentIneligible, agentID)
		}

		status := domaintask.StatusActive
		if keepPending || busyElsewhere(snap.Tasks, agentID, id) {
			status = domaintask.StatusPending
		}
		if !t.Status.CanTransitionTo(status) {
			return fmt.Errorf("task %d: %w", id, ErrTaskTerminal)
		}

		updated, err = s.repo.Reassign(ctx, id, agentID, status, snap.Now)
		if err != nil {
			return err
		}
		prev = t
		return nil
	})
	if err != nil {
		return domaintask.Task{}, fmt.Errorf("reassign task: %w", err)
	}

	slog.InfoContext(ctx, "task reassigned",
		"task_id", id, "from_agent", prev.AssignedTo, "to_agent", agentID,
		"status", updated.Status, "reassign_count", updated.ReassignCount)

	if err := s.bus.Publish(ctx, event.New(event.TypeTaskReassigned, id)); err != nil {
		slog.ErrorContext(ctx, "failed to publish TaskReassigned event", "task_id", id, "error", err)
	}
	if updated.Status == domaintask.StatusActive {
		s.enter(ctx, updated)
	}

	// The previous agent is free again when an active task leaves it.
	movedAway := prev.Status == domaintask.StatusActive && !prev.IsAssignedTo(agentID)
	if movedAway || s.pipelineConfig.FreesAgent(prev.Status, updated.Status) {
		s.drain.Trigger()
	}
	return updated, nil
}

// enter publishes the stage event for t's current status and notifies the assigned
// agent when the stage asks for it.
func (s *Service) enter(ctx context.Context, t domaintask.Task) {
	action, ok := s.pipelineConfig[t.Status]
	if !ok {
		return
	}
	if action.Event != "" {
		if err := s.bus.Publish(ctx, event.New(action.Event, t.ID)); err != nil {
			slog.ErrorContext(ctx, "failed to publish task event", "task_id", t.ID, "event", action.Event, "error", err)
		}
	}
	if action.NotifyAgent && t.AssignedTo != nil {
		if err := s.agentNotifier.NotifyAgent(ctx, *t.AssignedTo, map[string]any{
			"event": "task_assigned", "task_id": t.ID, "description": t.Description,
		}); err != nil {
			slog.ErrorContext(ctx, "failed to notify agent", "agent_id", *t.AssignedTo, "task_id", t.ID, "error", err)
		}
	}
}

// busyElsewhere reports whether agentID holds an active task other than taskID.
func busyElsewhere(tasks []domaintask.Task, agentID, taskID int64) bool {
	for _, t := range tasks {
		if t.ID != taskID && t.Status == domaintask.StatusActive && t.IsAssignedTo(agentID) {
			return true
		}
	}
	return false
}

func verb(to domaintask.Status) string {
	if to == domaintask.StatusCompleted {
		return "complete"
	}
	return "cancel"
}

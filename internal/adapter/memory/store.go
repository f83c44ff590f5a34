package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	domainagent "github.com/alanyang/shiftdesk/internal/domain/agent"
	domaintask "github.com/alanyang/shiftdesk/internal/domain/task"
	portagent "github.com/alanyang/shiftdesk/internal/port/agent"
	porttask "github.com/alanyang/shiftdesk/internal/port/task"
)

var (
	_ portagent.Repository = (*AgentRepository)(nil)
	_ porttask.Repository  = (*TaskRepository)(nil)
)

// Store keeps agents and tasks in process memory. Every write is applied under one
// mutex, so the conditional updates behave like the Postgres row-level ones.
type Store struct {
	mu sync.Mutex

	agents    map[int64]domainagent.Agent
	tasks     map[int64]domaintask.Task
	nextAgent int64
	nextTask  int64
}

func NewStore() *Store {
	return &Store{
		agents: make(map[int64]domainagent.Agent),
		tasks:  make(map[int64]domaintask.Task),
	}
}

func (s *Store) Agents() *AgentRepository { return &AgentRepository{s: s} }
func (s *Store) Tasks() *TaskRepository   { return &TaskRepository{s: s} }

type AgentRepository struct{ s *Store }

func (r *AgentRepository) Create(_ context.Context, a domainagent.Agent) (domainagent.Agent, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.nextAgent++
	a.ID = r.s.nextAgent
	a.Available = false
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	r.s.agents[a.ID] = a
	return a, nil
}

func (r *AgentRepository) GetByID(_ context.Context, id int64) (domainagent.Agent, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	a, ok := r.s.agents[id]
	if !ok {
		return domainagent.Agent{}, fmt.Errorf("agent %d: %w", id, portagent.ErrNotFound)
	}
	return a, nil
}

func (r *AgentRepository) List(_ context.Context, filters domainagent.ListFilters) ([]domainagent.Agent, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := make([]domainagent.Agent, 0, len(r.s.agents))
	for _, a := range r.s.agents {
		if filters.Matches(a) {
			out = append(out, a)
		}
	}
	slices.SortFunc(out, func(a, b domainagent.Agent) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out, nil
}

func (r *AgentRepository) Update(_ context.Context, a domainagent.Agent) (domainagent.Agent, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.agents[a.ID]
	if !ok {
		return domainagent.Agent{}, fmt.Errorf("agent %d: %w", a.ID, portagent.ErrNotFound)
	}
	a.CreatedAt = existing.CreatedAt
	a.Available = false
	r.s.agents[a.ID] = a
	return a, nil
}

func (r *AgentRepository) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.agents[id]; !ok {
		return fmt.Errorf("agent %d: %w", id, portagent.ErrNotFound)
	}
	for _, t := range r.s.tasks {
		if t.IsAssignedTo(id) && !t.Status.IsTerminal() {
			return fmt.Errorf("agent %d: %w", id, portagent.ErrHasOpenTasks)
		}
	}
	delete(r.s.agents, id)
	// matches ON DELETE SET NULL
	for tid, t := range r.s.tasks {
		if t.IsAssignedTo(id) {
			t.AssignedTo = nil
			r.s.tasks[tid] = t
		}
	}
	return nil
}

type TaskRepository struct{ s *Store }

func (r *TaskRepository) Insert(_ context.Context, t domaintask.Task) (domaintask.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.nextTask++
	t.ID = r.s.nextTask
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	r.s.tasks[t.ID] = t
	return t, nil
}

func (r *TaskRepository) GetByID(_ context.Context, id int64) (domaintask.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t, ok := r.s.tasks[id]
	if !ok {
		return domaintask.Task{}, fmt.Errorf("task %d: %w", id, porttask.ErrNotFound)
	}
	return t, nil
}

func (r *TaskRepository) List(_ context.Context, filters domaintask.ListFilters) ([]domaintask.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := make([]domaintask.Task, 0, len(r.s.tasks))
	for _, t := range r.s.tasks {
		if filters.Matches(t) {
			out = append(out, t)
		}
	}
	slices.SortFunc(out, func(a, b domaintask.Task) int {
		c := a.CreatedAt.Compare(b.CreatedAt)
		if c == 0 {
			c = cmp.Compare(a.ID, b.ID)
		}
		if filters.OldestFirst {
			return c
		}
		return -c
	})
	return out, nil
}

func (r *TaskRepository) UpdateStatus(_ context.Context, id int64, from []domaintask.Status, to domaintask.Status, at time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t, ok := r.s.tasks[id]
	if !ok {
		return false, fmt.Errorf("task %d: %w", id, porttask.ErrNotFound)
	}
	if !slices.Contains(from, t.Status) {
		return false, nil
	}
	t.Status = to
	if to.IsTerminal() {
		t.CompletedAt = &at
	}
	r.s.tasks[id] = t
	return true, nil
}

func (r *TaskRepository) Reassign(_ context.Context, id, agentID int64, status domaintask.Status, at time.Time) (domaintask.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t, ok := r.s.tasks[id]
	if !ok || t.Status.IsTerminal() {
		return domaintask.Task{}, fmt.Errorf("open task %d: %w", id, porttask.ErrNotFound)
	}
	t.AssignedTo = &agentID
	t.Status = status
	t.LastReassignedAt = &at
	t.ReassignCount++
	r.s.tasks[id] = t
	return t, nil
}

func (r *TaskRepository) AssignPending(_ context.Context, id, agentID int64) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t, ok := r.s.tasks[id]
	if !ok {
		return false, fmt.Errorf("task %d: %w", id, porttask.ErrNotFound)
	}
	if t.Status != domaintask.StatusPending {
		return false, nil
	}
	t.AssignedTo = &agentID
	t.Status = domaintask.StatusActive
	r.s.tasks[id] = t
	return true, nil
}

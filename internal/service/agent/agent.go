package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	domainagent "github.com/alanyang/shiftdesk/internal/domain/agent"
	"github.com/alanyang/shiftdesk/internal/domain/dispatch"
	"github.com/alanyang/shiftdesk/internal/domain/event"
	domaintask "github.com/alanyang/shiftdesk/internal/domain/task"
	portagent "github.com/alanyang/shiftdesk/internal/port/agent"
	portbus "github.com/alanyang/shiftdesk/internal/port/eventbus"
	portlocker "github.com/alanyang/shiftdesk/internal/port/locker"
	porttask "github.com/alanyang/shiftdesk/internal/port/task"
)

var (
	ErrAgentNotFound = portagent.ErrNotFound
	ErrEmptyName     = errors.New("agent name is empty")
	// ErrAgentHasTasks is returned when deleting an agent that still holds open tasks.
	ErrAgentHasTasks = portagent.ErrHasOpenTasks
)

// Service is the agent directory. Availability is always derived from the open
// task set, never stored.
type Service struct {
	repo     portagent.Repository
	taskRepo porttask.Repository
	bus      portbus.EventBus
	locker   portlocker.AdvisoryLocker
}

func NewService(repo portagent.Repository, taskRepo porttask.Repository, bus portbus.EventBus, locker portlocker.AdvisoryLocker) *Service {
	return &Service{repo: repo, taskRepo: taskRepo, bus: bus, locker: locker}
}

// Update carries the fields to change; nil fields keep their stored value.
type Update struct {
	Name     *string
	Email    *string
	Schedule *domainagent.Schedule
	Active   *bool
	Role     *domainagent.Role
}

func (s *Service) Create(ctx context.Context, name, email string, schedule domainagent.Schedule, role domainagent.Role, active bool) (domainagent.Agent, error) {
	a := domainagent.New(strings.TrimSpace(name), strings.TrimSpace(email), schedule, role, active)
	if err := validate(a); err != nil {
		return domainagent.Agent{}, fmt.Errorf("create agent: %w", err)
	}

	created, err := s.repo.Create(ctx, a)
	if err != nil {
		return domainagent.Agent{}, fmt.Errorf("create agent: %w", err)
	}
	created.Available = true

	if err := s.bus.Publish(ctx, event.New(event.TypeAgentCreated, created.ID)); err != nil {
		slog.ErrorContext(ctx, "failed to publish AgentCreated event", "agent_id", created.ID, "error", err)
	}
	return created, nil
}

func (s *Service) GetByID(ctx context.Context, id int64) (domainagent.Agent, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return domainagent.Agent{}, fmt.Errorf("get agent: %w", err)
	}
	open, err := s.openTasks(ctx, &id)
	if err != nil {
		return domainagent.Agent{}, fmt.Errorf("get agent: %w", err)
	}
	return dispatch.WithAvailability([]domainagent.Agent{a}, open)[0], nil
}

func (s *Service) List(ctx context.Context, filters domainagent.ListFilters) ([]domainagent.Agent, error) {
	agents, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("list agents: %w", err)
	}
	open, err := s.openTasks(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("list agents: %w", err)
	}
	return dispatch.WithAvailability(agents, open), nil
}

func (s *Service) Update(ctx context.Context, id int64, u Update) (domainagent.Agent, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return domainagent.Agent{}, fmt.Errorf("update agent: %w", err)
	}
	if u.Name != nil {
		a.Name = strings.TrimSpace(*u.Name)
	}
	if u.Email != nil {
		a.Email = strings.TrimSpace(*u.Email)
	}
	if u.Schedule != nil {
		a.Schedule = *u.Schedule
	}
	if u.Active != nil {
		a.Active = *u.Active
	}
	if u.Role != nil {
		a.Role = *u.Role
	}
	if err := validate(a); err != nil {
		return domainagent.Agent{}, fmt.Errorf("update agent: %w", err)
	}

	updated, err := s.repo.Update(ctx, a)
	if err != nil {
		return domainagent.Agent{}, fmt.Errorf("update agent: %w", err)
	}
	open, err := s.openTasks(ctx, &id)
	if err != nil {
		return domainagent.Agent{}, fmt.Errorf("update agent: %w", err)
	}
	updated = dispatch.WithAvailability([]domainagent.Agent{updated}, open)[0]

	if err := s.bus.Publish(ctx, event.New(event.TypeAgentUpdated, id)); err != nil {
		slog.ErrorContext(ctx, "failed to publish AgentUpdated event", "agent_id", id, "error", err)
	}
	return updated, nil
}

// Delete removes an agent that holds no pending or active task. Finished tasks
// keep their history; Postgres clears their assigned_to. It runs under the
// dispatch lock so no create, reassign or drain pass hands the agent work between
// the check and the delete; the repository re-checks in the delete itself.
func (s *Service) Delete(ctx context.Context, id int64) error {
	err := s.locker.WithLock(ctx, portlocker.DispatchKey, func(ctx context.Context) error {
		open, err := s.openTasks(ctx, &id)
		if err != nil {
			return err
		}
		if len(open) > 0 {
			return fmt.Errorf("agent %d: %w (%d open)", id, ErrAgentHasTasks, len(open))
		}
		return s.repo.Delete(ctx, id)
	})
	if err != nil {
		return fmt.Errorf("delete agent: %w", err)
	}
	if err := s.bus.Publish(ctx, event.New(event.TypeAgentDeleted, id)); err != nil {
		slog.ErrorContext(ctx, "failed to publish AgentDeleted event", "agent_id", id, "error", err)
	}
	return nil
}

func (s *Service) openTasks(ctx context.Context, agentID *int64) ([]domaintask.Task, error) {
	tasks, err := s.taskRepo.List(ctx, domaintask.ListFilters{Open: true, AssignedTo: agentID})
	if err != nil {
		return nil, fmt.Errorf("load open tasks: %w", err)
	}
	return tasks, nil
}

func validate(a domainagent.Agent) error {
	if a.Name == "" {
		return ErrEmptyName
	}
	switch a.Role {
	case domainagent.RoleAgente, domainagent.RoleMesa:
	default:
		return fmt.Errorf("%w: %d", domainagent.ErrInvalidRole, int(a.Role))
	}
	return dispatch.ValidateSchedule(a.Schedule)
}

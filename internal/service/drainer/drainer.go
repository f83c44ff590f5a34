package drainer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alanyang/shiftdesk/internal/domain/dispatch"
	"github.com/alanyang/shiftdesk/internal/domain/event"
	"github.com/alanyang/shiftdesk/internal/domain/pipeline"
	domaintask "github.com/alanyang/shiftdesk/internal/domain/task"
	portbus "github.com/alanyang/shiftdesk/internal/port/eventbus"
	portlocker "github.com/alanyang/shiftdesk/internal/port/locker"
	portnotifier "github.com/alanyang/shiftdesk/internal/port/notifier"
	porttask "github.com/alanyang/shiftdesk/internal/port/task"
	"github.com/alanyang/shiftdesk/internal/service/snapshot"
)

// DefaultMaxPasses bounds DrainUntilStable. Each pass assigns at most one task, so
// this is also the largest backlog drained in one go.
const DefaultMaxPasses = 256

// Service hands pending tasks to free agents, one assignment per pass.
type Service struct {
	tasks          porttask.Repository
	snapshots      *snapshot.Loader
	bus            portbus.EventBus
	agentNotifier  portnotifier.AgentNotifier
	pipelineConfig pipeline.Config
	locker         portlocker.AdvisoryLocker
}

func NewService(
	tasks porttask.Repository,
	snapshots *snapshot.Loader,
	bus portbus.EventBus,
	agentNotifier portnotifier.AgentNotifier,
	pipelineConfig pipeline.Config,
	locker portlocker.AdvisoryLocker,
) *Service {
	return &Service{
		tasks:          tasks,
		snapshots:      snapshots,
		bus:            bus,
		agentNotifier:  agentNotifier,
		pipelineConfig: pipelineConfig,
		locker:         locker,
	}
}

// DrainOnce runs one reconciliation pass under the dispatch lock. It reports the
// assignment made, if any. A plan that lost a race against another writer is
// reported as no assignment; the next pass sees the fresh state.
func (s *Service) DrainOnce(ctx context.Context) (dispatch.Assignment, bool, error) {
	var (
		made    dispatch.Assignment
		applied bool
	)
	err := s.locker.WithLock(ctx, portlocker.DispatchKey, func(ctx context.Context) error {
		snap, err := s.snapshots.Load(ctx)
		if err != nil {
			return err
		}
		plan, ok := dispatch.PlanDrain(snap.Agents, snap.Tasks, snap.Now)
		if !ok {
			return nil
		}
		applied, err = s.tasks.AssignPending(ctx, plan.TaskID, plan.AgentID)
		if err != nil {
			return fmt.Errorf("assign task %d to agent %d: %w", plan.TaskID, plan.AgentID, err)
		}
		if !applied {
			slog.InfoContext(ctx, "drain: task no longer pending", "task_id", plan.TaskID)
			return nil
		}
		made = plan
		return nil
	})
	if err != nil {
		return dispatch.Assignment{}, false, fmt.Errorf("drain pass: %w", err)
	}
	if !applied {
		return dispatch.Assignment{}, false, nil
	}

	slog.InfoContext(ctx, "drain: task assigned",
		"task_id", made.TaskID, "agent_id", made.AgentID, "backlog", made.Backlog)
	s.announce(ctx, made)
	return made, true, nil
}

// DrainUntilStable repeats DrainOnce until a pass assigns nothing or maxPasses is
// reached. It returns every assignment made, in order.
func (s *Service) DrainUntilStable(ctx context.Context, maxPasses int) ([]dispatch.Assignment, error) {
	if maxPasses <= 0 {
		maxPasses = DefaultMaxPasses
	}
	var out []dispatch.Assignment
	for i := 0; i < maxPasses; i++ {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		a, ok, err := s.DrainOnce(ctx)
		if err != nil {
			return out, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, a)
	}
	slog.WarnContext(ctx, "drain: pass limit reached", "passes", maxPasses)
	return out, nil
}

func (s *Service) announce(ctx context.Context, a dispatch.Assignment) {
	action := s.pipelineConfig[domaintask.StatusActive]
	if action.Event != "" {
		if err := s.bus.Publish(ctx, event.New(action.Event, a.TaskID)); err != nil {
			slog.ErrorContext(ctx, "failed to publish TaskAssigned event", "task_id", a.TaskID, "error", err)
		}
	}
	if action.NotifyAgent {
		if err := s.agentNotifier.NotifyAgent(ctx, a.AgentID, map[string]any{
			"event": "task_assigned", "task_id": a.TaskID,
		}); err != nil {
			slog.ErrorContext(ctx, "failed to notify agent", "agent_id", a.AgentID, "task_id", a.TaskID, "error", err)
		}
	}
}

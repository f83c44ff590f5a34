package drainer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"

	"github.com/alanyang/shiftdesk/internal/domain/dispatch"
	"github.com/alanyang/shiftdesk/internal/domain/event"
	portbus "github.com/alanyang/shiftdesk/internal/port/eventbus"
)

// DefaultRefreshInterval is how often the reconciler re-evaluates the schedule
// windows when nothing else happens.
const DefaultRefreshInterval = 30 * time.Second

type Drainer interface {
	DrainUntilStable(ctx context.Context, maxPasses int) ([]dispatch.Assignment, error)
}

// Reconciler re-runs the drainer whenever agents or tasks change and on a fixed
// interval, since schedule windows open and close without any write. Triggers that
// arrive while a pass is running collapse into one follow-up pass.
type Reconciler struct {
	drainer   Drainer
	bus       portbus.EventBus
	interval  time.Duration
	maxPasses int

	trigger chan struct{}
	wg      *conc.WaitGroup

	mu     sync.Mutex
	cancel context.CancelFunc
	subs   []portbus.Subscription
}

func NewReconciler(drainer Drainer, bus portbus.EventBus, interval time.Duration) *Reconciler {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	return &Reconciler{
		drainer:   drainer,
		bus:       bus,
		interval:  interval,
		maxPasses: DefaultMaxPasses,
		trigger:   make(chan struct{}, 1),
		wg:        conc.NewWaitGroup(),
	}
}

// Start subscribes to the task and agent channels and launches the loop. The first
// pass runs immediately so work queued while the process was down is picked up.
func (r *Reconciler) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)

	var subs []portbus.Subscription
	for _, ch := range []event.Channel{event.ChannelTask, event.ChannelAgent} {
		sub, err := r.bus.Subscribe(ctx, ch, r.onChange)
		if err != nil {
			cancel()
			for _, s := range subs {
				s.Unsubscribe()
			}
			return fmt.Errorf("subscribe to %s channel: %w", ch, err)
		}
		subs = append(subs, sub)
	}

	r.mu.Lock()
	r.cancel = cancel
	r.subs = subs
	r.mu.Unlock()

	r.Trigger()
	r.wg.Go(func() { r.run(ctx) })
	return nil
}

// Stop cancels the loop and waits for an in-flight pass to finish.
func (r *Reconciler) Stop() {
	r.mu.Lock()
	cancel, subs := r.cancel, r.subs
	r.cancel, r.subs = nil, nil
	r.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	for _, s := range subs {
		s.Unsubscribe()
	}
	r.wg.Wait()
}

// Trigger requests a pass without blocking.
func (r *Reconciler) Trigger() {
	select {
	case r.trigger <- struct{}{}:
	default:
	}
}

func (r *Reconciler) onChange(_ context.Context, e event.Event) {
	// Refresh events are emitted by the ticker below, which already runs a pass.
	if e.Type == event.TypeRefresh {
		return
	}
	r.Trigger()
}

func (r *Reconciler) run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.trigger:
			r.pass(ctx)
		case <-ticker.C:
			r.pass(ctx)
			if err := r.bus.Publish(ctx, event.New(event.TypeRefresh, 0)); err != nil && ctx.Err() == nil {
				slog.ErrorContext(ctx, "reconciler: failed to publish refresh", "error", err)
			}
		}
	}
}

func (r *Reconciler) pass(ctx context.Context) {
	var catcher panics.Catcher
	catcher.Try(func() {
		assignments, err := r.drainer.DrainUntilStable(ctx, r.maxPasses)
		if err != nil {
			if ctx.Err() == nil {
				slog.ErrorContext(ctx, "reconciler: drain failed", "error", err)
			}
			return
		}
		if len(assignments) > 0 {
			slog.InfoContext(ctx, "reconciler: pending tasks assigned", "count", len(assignments))
		}
	})
	if rec := catcher.Recovered(); rec != nil {
		slog.ErrorContext(ctx, "reconciler: drain panicked", "error", rec.AsError())
	}
}

package wire

import (
	"context"
	"fmt"
	"log/slog"
)

// Start bridges domain events to websocket clients and launches the reconciler.
// The reconciler's first pass hands out work queued while the process was down.
func (a *App) Start(ctx context.Context) error {
	subs, err := a.Hub.Bridge(ctx, a.bus)
	if err != nil {
		return fmt.Errorf("bridging websocket hub: %w", err)
	}
	a.subs = subs

	if err := a.Reconciler.Start(ctx); err != nil {
		a.unsubscribe()
		return fmt.Errorf("starting reconciler: %w", err)
	}
	slog.InfoContext(ctx, "background workers started")
	return nil
}

// Close stops background work and releases the database pool. Call it after the
// HTTP server has shut down.
func (a *App) Close() {
	a.Reconciler.Stop()
	a.unsubscribe()
	if a.Pool != nil {
		a.Pool.Close()
	}
}

func (a *App) unsubscribe() {
	for _, s := range a.subs {
		s.Unsubscribe()
	}
	a.subs = nil
}

package memory

import (
	"context"
	"sync"

	portlocker "github.com/alanyang/shiftdesk/internal/port/locker"
)

var _ portlocker.AdvisoryLocker = (*Locker)(nil)

// Locker is the single-process stand-in for Postgres advisory locks. Locks are
// not reentrant.
type Locker struct {
	mu    sync.Mutex
	locks map[int64]chan struct{}
}

func NewLocker() *Locker {
	return &Locker{locks: make(map[int64]chan struct{})}
}

func (l *Locker) WithLock(ctx context.Context, key int64, fn func(ctx context.Context) error) error {
	l.mu.Lock()
	sem, ok := l.locks[key]
	if !ok {
		sem = make(chan struct{}, 1)
		l.locks[key] = sem
	}
	l.mu.Unlock()

	select {
	case sem <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-sem }()

	return fn(ctx)
}

package drainer_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/alanyang/shiftdesk/internal/adapter/memory"
	"github.com/alanyang/shiftdesk/internal/domain/dispatch"
	"github.com/alanyang/shiftdesk/internal/domain/event"
	"github.com/alanyang/shiftdesk/internal/mocks"
	"github.com/alanyang/shiftdesk/internal/service/drainer"
)

type fakeDrainer struct {
	calls atomic.Int32
	err   error
	panic bool
}

func (f *fakeDrainer) DrainUntilStable(_ context.Context, _ int) ([]dispatch.Assignment, error) {
	f.calls.Add(1)
	if f.panic {
		panic("boom")
	}
	return nil, f.err
}

func TestReconciler_RunsInitialPass(t *testing.T) {
	d := &fakeDrainer{}
	r := drainer.NewReconciler(d, memory.NewEventBus(), time.Hour)

	require.NoError(t, r.Start(context.Background()))
	t.Cleanup(r.Stop)

	assert.Eventually(t, func() bool { return d.calls.Load() >= 1 }, time.Second, 5*time.Millisecond)
}

func TestReconciler_ReactsToEvents(t *testing.T) {
	d := &fakeDrainer{}
	bus := memory.NewEventBus()
	r := drainer.NewReconciler(d, bus, time.Hour)

	require.NoError(t, r.Start(context.Background()))
	t.Cleanup(r.Stop)
	require.Eventually(t, func() bool { return d.calls.Load() >= 1 }, time.Second, 5*time.Millisecond)

	before := d.calls.Load()
	require.NoError(t, bus.Publish(context.Background(), event.New(event.TypeTaskCompleted, 7)))
	assert.Eventually(t, func() bool { return d.calls.Load() > before }, time.Second, 5*time.Millisecond)

	before = d.calls.Load()
	require.NoError(t, bus.Publish(context.Background(), event.New(event.TypeAgentUpdated, 3)))
	assert.Eventually(t, func() bool { return d.calls.Load() > before }, time.Second, 5*time.Millisecond)
}

func TestReconciler_TickerRunsPasses(t *testing.T) {
	d := &fakeDrainer{}
	r := drainer.NewReconciler(d, memory.NewEventBus(), 10*time.Millisecond)

	require.NoError(t, r.Start(context.Background()))
	t.Cleanup(r.Stop)

	assert.Eventually(t, func() bool { return d.calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
}

func TestReconciler_SurvivesFailingPasses(t *testing.T) {
	tests := []struct {
		name string
		d    *fakeDrainer
	}{
		{name: "error", d: &fakeDrainer{err: errors.New("db down")}},
		{name: "panic", d: &fakeDrainer{panic: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := drainer.NewReconciler(tt.d, memory.NewEventBus(), 10*time.Millisecond)
			require.NoError(t, r.Start(context.Background()))
			t.Cleanup(r.Stop)

			assert.Eventually(t, func() bool { return tt.d.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
		})
	}
}

func TestReconciler_StopEndsLoop(t *testing.T) {
	d := &fakeDrainer{}
	r := drainer.NewReconciler(d, memory.NewEventBus(), 5*time.Millisecond)
	require.NoError(t, r.Start(context.Background()))
	require.Eventually(t, func() bool { return d.calls.Load() >= 1 }, time.Second, time.Millisecond)

	r.Stop()
	stopped := d.calls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, stopped, d.calls.Load())

	// second Stop is a no-op
	r.Stop()
}

func TestReconciler_SubscribeFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	bus := mocks.NewMockEventBus(ctrl)
	taskSub := mocks.NewMockSubscription(ctrl)

	bus.EXPECT().Subscribe(gomock.Any(), event.ChannelTask, gomock.Any()).Return(taskSub, nil)
	bus.EXPECT().Subscribe(gomock.Any(), event.ChannelAgent, gomock.Any()).Return(nil, errors.New("listen failed"))
	taskSub.EXPECT().Unsubscribe()

	r := drainer.NewReconciler(&fakeDrainer{}, bus, time.Hour)
	err := r.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "agent")
}

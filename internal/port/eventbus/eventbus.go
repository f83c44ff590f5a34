package eventbus

import (
	"context"

	"github.com/alanyang/shiftdesk/internal/domain/event"
)

type Handler func(ctx context.Context, e event.Event)

type Subscription interface {
	Unsubscribe()
}

// EventBus fans change notifications out per table channel. Subscribers reload
// whatever state they need; events carry identifiers only.
type EventBus interface {
	Publish(ctx context.Context, e event.Event) error
	Subscribe(ctx context.Context, ch event.Channel, handler Handler) (Subscription, error)
}

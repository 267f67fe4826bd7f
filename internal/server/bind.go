package server

import (
	"context"

	"github.com/dukerupert/academy/internal/container"
	"github.com/dukerupert/academy/internal/handler"
	"github.com/dukerupert/academy/internal/model"
	ws "github.com/dukerupert/academy/internal/websocket"
)

// binding adapts a typed container to the bridge's handler.Collection.
type binding[T model.Entity] struct {
	c *container.Container[T]
}

// Bind publishes every change of c on hub and returns the collection the
// resource handler serves. The returned stop function detaches the feed.
func Bind[T model.Entity](c *container.Container[T], hub *ws.Hub) (handler.Collection, func()) {
	stop := c.Subscribe(func(ch container.Change[T]) {
		switch ch.Action {
		case container.ActionLoading:
			return
		case container.ActionFailed:
			hub.PublishError(c.Name(), ch.ID, ch.Snapshot.Err)
		case container.ActionListed, container.ActionRestored:
			hub.Publish(c.Name(), ch.Action, ch.ID, ch.Snapshot.Pagination)
		default:
			hub.Publish(c.Name(), ch.Action, ch.ID, nil)
		}
	})
	return &binding[T]{c: c}, stop
}

func (b *binding[T]) Name() string { return b.c.Name() }

func (b *binding[T]) State() any { return b.c.Snapshot() }

func (b *binding[T]) Load(ctx context.Context, q model.Query) error {
	_, err := b.c.List(ctx, q)
	return err
}

func (b *binding[T]) Refresh(ctx context.Context) error { return b.c.Refresh(ctx) }

func (b *binding[T]) Fetch(ctx context.Context, id string) (any, error) {
	return b.c.Get(ctx, id)
}

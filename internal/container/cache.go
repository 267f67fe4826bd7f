package container

import (
	"context"
	"slices"

	"github.com/dukerupert/academy/internal/model"
)

type cached[T model.Entity] struct {
	Items      []T              `json:"items"`
	Pagination model.Pagination `json:"pagination"`
}

// persist writes the collection to the cache. Failures are logged only.
func (c *Container[T]) persist(ctx context.Context) {
	if c.cache == nil {
		return
	}
	c.mu.Lock()
	payload := cached[T]{Items: slices.Clone(c.items), Pagination: c.pagination}
	c.mu.Unlock()

	if err := c.cache.Save(context.WithoutCancel(ctx), c.name, payload); err != nil {
		c.logger.Warn("save snapshot", "error", err)
	}
}

// Restore loads the last persisted collection, provided no operation has
// populated the container yet. It reports whether anything was loaded.
func (c *Container[T]) Restore(ctx context.Context) (bool, error) {
	if c.cache == nil {
		return false, nil
	}
	var payload cached[T]
	ok, err := c.cache.Load(ctx, c.name, &payload)
	if err != nil || !ok {
		return false, err
	}

	c.mu.Lock()
	if c.closed || c.applied > 0 {
		c.mu.Unlock()
		return false, nil
	}
	c.items = payload.Items
	c.pagination = payload.Pagination
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.logger.Info("restored snapshot", "count", len(payload.Items))
	c.publish(ActionRestored, "", snap)
	return true, nil
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"

	"github.com/dukerupert/academy/internal/api"
	"github.com/dukerupert/academy/internal/container"
	"github.com/dukerupert/academy/internal/handler"
	"github.com/dukerupert/academy/internal/model"
	"github.com/dukerupert/academy/internal/server"
	ws "github.com/dukerupert/academy/internal/websocket"
)

// entity erases the type of one container so commands can be generated
// for every resource.
type entity struct {
	spec    api.Spec
	list    func(ctx context.Context, q model.Query) (any, error)
	get     func(ctx context.Context, id string) (any, error)
	create  func(ctx context.Context, raw []byte) (any, error)
	update  func(ctx context.Context, id string, patch model.Patch) (any, error)
	status  func(ctx context.Context, id, status string) (any, error)
	remove  func(ctx context.Context, id string) error
	refresh func(ctx context.Context) error
	restore func(ctx context.Context) (bool, error)
	bind    func(hub *ws.Hub) (handler.Collection, func())
	close   func()
}

func newEntity[T model.Entity](client *api.Client, spec api.Spec, cache container.Cache, logger *slog.Logger) *entity {
	c := container.ForResource(api.NewResource[T](client, spec), cache, logger)
	return &entity{
		spec: spec,
		list: func(ctx context.Context, q model.Query) (any, error) { return c.List(ctx, q) },
		get:  func(ctx context.Context, id string) (any, error) { return c.Get(ctx, id) },
		create: func(ctx context.Context, raw []byte) (any, error) {
			var draft T
			if err := json.Unmarshal(raw, &draft); err != nil {
				return nil, fmt.Errorf("decode %s: %w", spec.Name, err)
			}
			return c.Create(ctx, draft)
		},
		update: func(ctx context.Context, id string, patch model.Patch) (any, error) {
			return c.Update(ctx, id, patch)
		},
		status: func(ctx context.Context, id, status string) (any, error) {
			return c.UpdateStatus(ctx, id, status)
		},
		remove:  c.Delete,
		refresh: c.Refresh,
		restore: c.Restore,
		bind: func(hub *ws.Hub) (handler.Collection, func()) {
			return server.Bind(c, hub)
		},
		close: c.Close,
	}
}

// entities builds one container per platform resource.
func entities(client *api.Client, cache container.Cache, logger *slog.Logger) map[string]*entity {
	return map[string]*entity{
		api.Formations.Name:  newEntity[model.Formation](client, api.Formations, cache, logger),
		api.Courses.Name:     newEntity[model.Course](client, api.Courses, cache, logger),
		api.Enterprises.Name: newEntity[model.Enterprise](client, api.Enterprises, cache, logger),
		api.Centers.Name:     newEntity[model.Center](client, api.Centers, cache, logger),
		api.Jobs.Name:        newEntity[model.Job](client, api.Jobs, cache, logger),
		api.BlogPosts.Name:   newEntity[model.BlogPost](client, api.BlogPosts, cache, logger),
		api.Users.Name:       newEntity[model.User](client, api.Users, cache, logger),
	}
}

func sortedNames(m map[string]*entity) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

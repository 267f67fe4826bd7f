package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/dukerupert/academy/internal/model"
)

// Collection is one entity container as the bridge sees it.
type Collection interface {
	Name() string
	// State returns the container snapshot ready for encoding.
	State() any
	Load(ctx context.Context, q model.Query) error
	Refresh(ctx context.Context) error
	Fetch(ctx context.Context, id string) (any, error)
}

type ResourceHandler struct {
	collections map[string]Collection
	logger      *slog.Logger
}

func NewResourceHandler(logger *slog.Logger, collections ...Collection) *ResourceHandler {
	m := make(map[string]Collection, len(collections))
	for _, c := range collections {
		m[c.Name()] = c
	}
	return &ResourceHandler{collections: m, logger: logger}
}

func (h *ResourceHandler) lookup(w http.ResponseWriter, r *http.Request) (Collection, bool) {
	name := r.PathValue("resource")
	c, ok := h.collections[name]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown resource " + name})
	}
	return c, ok
}

// List returns the container snapshot. Query parameters trigger a fresh
// list call with those filters first.
func (h *ResourceHandler) List(w http.ResponseWriter, r *http.Request) {
	c, ok := h.lookup(w, r)
	if !ok {
		return
	}
	if len(r.URL.Query()) > 0 {
		q, err := parseQuery(r.URL.Query())
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		if err := c.Load(r.Context(), q); err != nil {
			h.logger.Warn("list failed", "resource", c.Name(), "error", err)
			writeError(w, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, c.State())
}

func (h *ResourceHandler) Get(w http.ResponseWriter, r *http.Request) {
	c, ok := h.lookup(w, r)
	if !ok {
		return
	}
	v, err := c.Fetch(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// Refresh repeats the container's last list call.
func (h *ResourceHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	c, ok := h.lookup(w, r)
	if !ok {
		return
	}
	if err := c.Refresh(r.Context()); err != nil {
		h.logger.Warn("refresh failed", "resource", c.Name(), "error", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c.State())
}

// parseQuery reads page, limit, sort and order; every other parameter is a
// filter.
func parseQuery(v url.Values) (model.Query, error) {
	var q model.Query
	for key := range v {
		val := v.Get(key)
		switch key {
		case "page", "limit":
			n, err := strconv.Atoi(val)
			if err != nil || n < 1 {
				return model.Query{}, fmt.Errorf("%s must be a positive integer", key)
			}
			if key == "page" {
				q.Page = n
			} else {
				q.Limit = n
			}
		case "sort":
			q.Sort = val
		case "order":
			switch model.SortOrder(val) {
			case model.SortAsc, model.SortDesc:
				q.Order = model.SortOrder(val)
			default:
				return model.Query{}, fmt.Errorf("order must be asc or desc")
			}
		default:
			if q.Filters == nil {
				q.Filters = make(map[string]string)
			}
			q.Filters[key] = val
		}
	}
	return q, nil
}

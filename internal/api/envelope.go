package api

import (
	"bytes"
	"encoding/json"

	"github.com/dukerupert/academy/internal/model"
)

// metaBlock is the `meta` pagination convention.
type metaBlock struct {
	CurrentPage  int `json:"currentPage"`
	ItemsPerPage int `json:"itemsPerPage"`
	TotalItems   int `json:"totalItems"`
	TotalPages   int `json:"totalPages"`
}

// paginationBlock is the `pagination` convention.
type paginationBlock struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

type listEnvelope[T any] struct {
	Data       *[]T             `json:"data"`
	Meta       *metaBlock       `json:"meta"`
	Pagination *paginationBlock `json:"pagination"`
}

type itemEnvelope struct {
	Data json.RawMessage `json:"data"`
}

func (e listEnvelope[T]) page() model.Page[T] {
	items := *e.Data
	p := model.Pagination{Page: 1, Limit: len(items), Total: len(items), TotalPages: 1}
	switch {
	case e.Pagination != nil:
		p = model.Pagination{
			Page:       e.Pagination.Page,
			Limit:      e.Pagination.Limit,
			Total:      e.Pagination.Total,
			TotalPages: e.Pagination.Pages,
		}
	case e.Meta != nil:
		p = model.Pagination{
			Page:       e.Meta.CurrentPage,
			Limit:      e.Meta.ItemsPerPage,
			Total:      e.Meta.TotalItems,
			TotalPages: e.Meta.TotalPages,
		}
	}
	if p.TotalPages == 0 && p.Limit > 0 {
		p.TotalPages = (p.Total + p.Limit - 1) / p.Limit
	}
	return model.Page[T]{Items: items, Pagination: p}
}

func decodeList[T any](body []byte) (model.Page[T], bool) {
	var env listEnvelope[T]
	if err := json.Unmarshal(body, &env); err != nil || env.Data == nil {
		return model.Page[T]{}, false
	}
	return env.page(), true
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// decodeItem reads a single entity from {data: {...}} or, when bare is set,
// from the body itself. The decoded entity must carry an id.
func decodeItem[T model.Entity](body []byte, bare bool) (T, bool) {
	var zero T
	var env itemEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return zero, false
	}

	raw := json.RawMessage(body)
	if !isNull(env.Data) {
		raw = env.Data
	} else if !bare {
		return zero, false
	}

	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return zero, false
	}
	if v.EntityID() == "" {
		return zero, false
	}
	return v, true
}

// decodeEvents accepts a bare array or {data: [...]}.
func decodeEvents(body []byte) ([]model.RawEvent, bool) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var events []model.RawEvent
		if err := json.Unmarshal(trimmed, &events); err != nil {
			return nil, false
		}
		return events, true
	}
	var env struct {
		Data *[]model.RawEvent `json:"data"`
	}
	if err := json.Unmarshal(trimmed, &env); err != nil || env.Data == nil {
		return nil, false
	}
	return *env.Data, true
}

type errorBody struct {
	Message json.RawMessage `json:"message"`
	Error   string          `json:"error"`
}

// serverMessage pulls the conventional message field from an error body. Some
// validation errors send message as an array of strings.
func serverMessage(body []byte) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		return ""
	}
	if !isNull(eb.Message) {
		var s string
		if err := json.Unmarshal(eb.Message, &s); err == nil && s != "" {
			return s
		}
		var list []string
		if err := json.Unmarshal(eb.Message, &list); err == nil && len(list) > 0 {
			return joinMessages(list)
		}
	}
	return eb.Error
}

func joinMessages(list []string) string {
	var b bytes.Buffer
	for i, m := range list {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(m)
	}
	return b.String()
}

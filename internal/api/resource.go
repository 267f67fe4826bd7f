package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/dukerupert/academy/internal/model"
)

// Spec describes one REST collection.
type Spec struct {
	// Name identifies the resource in logs and change notifications.
	Name string
	Path string
	// BareEntity marks resources whose single-entity endpoints may answer
	// without the {data: ...} envelope.
	BareEntity bool
	// Statuses lists the values accepted by UpdateStatus. Empty means any.
	Statuses []string
}

var (
	Formations  = Spec{Name: "formation", Path: "/formations", Statuses: model.PublicationStatuses}
	Courses     = Spec{Name: "course", Path: "/courses", BareEntity: true, Statuses: model.PublicationStatuses}
	Enterprises = Spec{Name: "enterprise", Path: "/enterprises", Statuses: model.OrganizationStatuses}
	Centers     = Spec{Name: "center", Path: "/centers", BareEntity: true, Statuses: model.OrganizationStatuses}
	Jobs        = Spec{Name: "job", Path: "/jobs", Statuses: model.JobStatuses}
	BlogPosts   = Spec{Name: "blog", Path: "/blogs", BareEntity: true, Statuses: model.PublicationStatuses}
	Users       = Spec{Name: "user", Path: "/users", Statuses: model.UserStatuses}
)

// Specs lists every resource the platform exposes, keyed by name.
var Specs = map[string]Spec{
	Formations.Name:  Formations,
	Courses.Name:     Courses,
	Enterprises.Name: Enterprises,
	Centers.Name:     Centers,
	Jobs.Name:        Jobs,
	BlogPosts.Name:   BlogPosts,
	Users.Name:       Users,
}

// Resource is a typed CRUD facade over one collection.
type Resource[T model.Entity] struct {
	client *Client
	spec   Spec
}

func NewResource[T model.Entity](c *Client, spec Spec) *Resource[T] {
	return &Resource[T]{client: c, spec: spec}
}

func (r *Resource[T]) Spec() Spec { return r.spec }

func (r *Resource[T]) itemPath(id string) string {
	return r.spec.Path + "/" + url.PathEscape(id)
}

// List fetches one page of the collection.
func (r *Resource[T]) List(ctx context.Context, q model.Query) (model.Page[T], error) {
	resp, err := r.client.do(ctx, http.MethodGet, r.spec.Path, q.Values(), nil)
	if err != nil {
		return model.Page[T]{}, err
	}
	page, ok := decodeList[T](resp.body)
	if !ok {
		return model.Page[T]{}, shapeError(http.MethodGet, r.spec.Path, resp.requestID, "missing data array")
	}
	return page, nil
}

func (r *Resource[T]) Get(ctx context.Context, id string) (T, error) {
	return r.item(ctx, http.MethodGet, r.itemPath(id), nil)
}

// Create posts a draft; the server assigns id and timestamps.
func (r *Resource[T]) Create(ctx context.Context, draft T) (T, error) {
	return r.item(ctx, http.MethodPost, r.spec.Path, draft)
}

// Update sends a partial update merged server-side.
func (r *Resource[T]) Update(ctx context.Context, id string, patch model.Patch) (T, error) {
	return r.item(ctx, http.MethodPatch, r.itemPath(id), patch)
}

func (r *Resource[T]) UpdateStatus(ctx context.Context, id, status string) (T, error) {
	return r.item(ctx, http.MethodPatch, r.itemPath(id)+"/status", map[string]string{"status": status})
}

func (r *Resource[T]) Delete(ctx context.Context, id string) error {
	_, err := r.client.do(ctx, http.MethodDelete, r.itemPath(id), nil, nil)
	return err
}

func (r *Resource[T]) item(ctx context.Context, method, path string, payload any) (T, error) {
	var zero T
	resp, err := r.client.do(ctx, method, path, nil, payload)
	if err != nil {
		return zero, err
	}
	v, ok := decodeItem[T](resp.body, r.spec.BareEntity)
	if !ok {
		return zero, shapeError(method, path, resp.requestID, "missing data object")
	}
	return v, nil
}

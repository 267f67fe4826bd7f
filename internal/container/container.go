package container

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/dukerupert/academy/internal/api"
	"github.com/dukerupert/academy/internal/model"
)

var (
	ErrClosed        = errors.New("container: closed")
	ErrInvalidDraft  = errors.New("container: invalid draft")
	ErrInvalidStatus = errors.New("container: invalid status")
)

// Status is the container's operation state.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusError:
		return "error"
	default:
		return "idle"
	}
}

func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Status) UnmarshalText(b []byte) error {
	switch string(b) {
	case "idle":
		*s = StatusIdle
	case "loading":
		*s = StatusLoading
	case "error":
		*s = StatusError
	default:
		return fmt.Errorf("unknown container status %q", b)
	}
	return nil
}

// Remote is the collection a container mirrors. *api.Resource satisfies it.
type Remote[T model.Entity] interface {
	List(ctx context.Context, q model.Query) (model.Page[T], error)
	Get(ctx context.Context, id string) (T, error)
	Create(ctx context.Context, draft T) (T, error)
	Update(ctx context.Context, id string, patch model.Patch) (T, error)
	UpdateStatus(ctx context.Context, id, status string) (T, error)
	Delete(ctx context.Context, id string) error
}

// Cache persists the collection between processes.
type Cache interface {
	Load(ctx context.Context, resource string, dst any) (bool, error)
	Save(ctx context.Context, resource string, v any) error
}

// Snapshot is a copy of the container state; mutating it has no effect on
// the container.
type Snapshot[T model.Entity] struct {
	Items      []T              `json:"items"`
	Current    *T               `json:"current,omitempty"`
	Status     Status           `json:"status"`
	Err        string           `json:"error,omitempty"`
	Pagination model.Pagination `json:"pagination"`
}

// Change is delivered to subscribers after every state transition.
type Change[T model.Entity] struct {
	Action   string
	ID       string
	Snapshot Snapshot[T]
}

const (
	ActionLoading       = "loading"
	ActionListed        = "listed"
	ActionFetched       = "fetched"
	ActionCreated       = "created"
	ActionUpdated       = "updated"
	ActionStatusChanged = "status_changed"
	ActionDeleted       = "deleted"
	ActionFailed        = "failed"
	ActionRestored      = "restored"
)

// Options configures a Container.
type Options struct {
	Name string
	// Statuses restricts UpdateStatus. Empty allows any value.
	Statuses []string
	Logger   *slog.Logger
	Cache    Cache
	Validate *validator.Validate
}

// Container holds one collection of entities mirrored from a remote
// resource. Operations may overlap: each takes a sequence number, read
// results older than the last applied operation are discarded, and Status
// always describes the most recently started operation.
type Container[T model.Entity] struct {
	remote   Remote[T]
	name     string
	statuses []string
	logger   *slog.Logger
	cache    Cache
	validate *validator.Validate

	ctx    context.Context
	cancel context.CancelFunc

	mu         sync.Mutex
	items      []T
	current    *T
	status     Status
	errMsg     string
	pagination model.Pagination
	lastQuery  model.Query
	issued     uint64
	applied    uint64
	closed     bool
	subs       map[int]func(Change[T])
	nextSub    int
}

// New creates an empty container over remote.
func New[T model.Entity](remote Remote[T], opts Options) *Container[T] {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	v := opts.Validate
	if v == nil {
		v = validator.New(validator.WithRequiredStructEnabled())
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Container[T]{
		remote:   remote,
		name:     opts.Name,
		statuses: opts.Statuses,
		logger:   logger.With("resource", opts.Name),
		cache:    opts.Cache,
		validate: v,
		ctx:      ctx,
		cancel:   cancel,
		subs:     make(map[int]func(Change[T])),
	}
}

// ForResource builds a container over an API resource using its spec.
func ForResource[T model.Entity](r *api.Resource[T], cache Cache, logger *slog.Logger) *Container[T] {
	spec := r.Spec()
	return New[T](r, Options{Name: spec.Name, Statuses: spec.Statuses, Logger: logger, Cache: cache})
}

func (c *Container[T]) Name() string { return c.name }

// Snapshot returns a copy of the current state.
func (c *Container[T]) Snapshot() Snapshot[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Container[T]) snapshotLocked() Snapshot[T] {
	s := Snapshot[T]{
		Items:      slices.Clone(c.items),
		Status:     c.status,
		Err:        c.errMsg,
		Pagination: c.pagination,
	}
	if s.Items == nil {
		s.Items = []T{}
	}
	if c.current != nil {
		cur := *c.current
		s.Current = &cur
	}
	return s
}

// Subscribe registers fn for every change and returns a function removing it.
// fn runs on the goroutine that completed the operation.
func (c *Container[T]) Subscribe(fn func(Change[T])) func() {
	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}

func (c *Container[T]) publish(action, id string, snap Snapshot[T]) {
	c.mu.Lock()
	subs := make([]func(Change[T]), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	c.mu.Unlock()

	for _, fn := range subs {
		fn(Change[T]{Action: action, ID: id, Snapshot: snap})
	}
}

// Close cancels in-flight requests. Results arriving afterwards are dropped
// and later operations fail with ErrClosed.
func (c *Container[T]) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.cancel()
}

// begin starts an operation: Loading, error cleared, new sequence number.
func (c *Container[T]) begin() (uint64, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return 0, ErrClosed
	}
	c.issued++
	seq := c.issued
	c.status = StatusLoading
	c.errMsg = ""
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.publish(ActionLoading, "", snap)
	return seq, nil
}

// opContext ties a request to both the caller and the container lifetime.
func (c *Container[T]) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(c.ctx, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

// settleLocked ends operation seq. Only the latest issued operation writes
// Status, so an older completion cannot hide a newer one still loading.
func (c *Container[T]) settleLocked(seq uint64, err error) {
	if seq != c.issued {
		return
	}
	if err != nil {
		c.status = StatusError
		c.errMsg = messageFor(err)
		return
	}
	c.status = StatusIdle
	c.errMsg = ""
}

func messageFor(err error) string {
	if errors.Is(err, ErrInvalidDraft) || errors.Is(err, ErrInvalidStatus) {
		return err.Error()
	}
	return api.Message(err)
}

// finish applies the outcome of operation seq under the lock and notifies
// subscribers. apply runs only on success and reports whether state changed.
func (c *Container[T]) finish(seq uint64, opErr error, action, id string, apply func() bool) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		c.logger.Debug("dropping result after close", "action", action, "seq", seq)
		return ErrClosed
	}
	if opErr == nil && apply != nil && !apply() {
		c.logger.Debug("discarding stale result", "action", action, "seq", seq, "applied", c.applied)
	}
	c.settleLocked(seq, opErr)
	snap := c.snapshotLocked()
	c.mu.Unlock()

	if opErr != nil {
		c.logger.Warn("operation failed", "action", action, "id", id, "error", opErr)
		c.publish(ActionFailed, id, snap)
		return opErr
	}
	c.publish(action, id, snap)
	return nil
}

func (c *Container[T]) indexLocked(id string) int {
	return slices.IndexFunc(c.items, func(v T) bool { return v.EntityID() == id })
}

func (c *Container[T]) markAppliedLocked(seq uint64) {
	if seq > c.applied {
		c.applied = seq
	}
}

// List fetches a page and replaces the collection with it.
func (c *Container[T]) List(ctx context.Context, q model.Query) (model.Page[T], error) {
	seq, err := c.begin()
	if err != nil {
		return model.Page[T]{}, err
	}
	ctx, done := c.opContext(ctx)
	defer done()

	page, err := c.remote.List(ctx, q)
	err = c.finish(seq, err, ActionListed, "", func() bool {
		if seq <= c.applied {
			return false
		}
		c.items = slices.Clone(page.Items)
		c.pagination = page.Pagination
		c.lastQuery = q
		c.applied = seq
		return true
	})
	if err != nil {
		return model.Page[T]{}, err
	}
	c.persist(ctx)
	return page, nil
}

// Refresh repeats the last successful list query.
func (c *Container[T]) Refresh(ctx context.Context) error {
	c.mu.Lock()
	q := c.lastQuery
	c.mu.Unlock()
	_, err := c.List(ctx, q)
	return err
}

// Get fetches one entity and makes it Current. The collection is untouched.
// A not-found answer clears Current without entering the error state; the
// returned error still satisfies errors.Is(err, api.ErrNotFound).
func (c *Container[T]) Get(ctx context.Context, id string) (T, error) {
	var zero T
	seq, err := c.begin()
	if err != nil {
		return zero, err
	}
	ctx, done := c.opContext(ctx)
	defer done()

	v, err := c.remote.Get(ctx, id)
	if errors.Is(err, api.ErrNotFound) {
		c.finish(seq, nil, ActionFetched, id, func() bool {
			if seq <= c.applied {
				return false
			}
			c.current = nil
			c.applied = seq
			return true
		})
		return zero, err
	}
	err = c.finish(seq, err, ActionFetched, id, func() bool {
		if seq <= c.applied {
			return false
		}
		c.current = &v
		c.applied = seq
		return true
	})
	if err != nil {
		return zero, err
	}
	return v, nil
}

// Create validates the draft, posts it and appends the server's entity.
// Creation is idempotent on id: if a newer list already brought the entity
// in, it is replaced rather than appended twice.
func (c *Container[T]) Create(ctx context.Context, draft T) (T, error) {
	var zero T
	seq, err := c.begin()
	if err != nil {
		return zero, err
	}
	if err := c.checkDraft(draft); err != nil {
		return zero, c.finish(seq, err, ActionCreated, "", nil)
	}
	ctx, done := c.opContext(ctx)
	defer done()

	v, err := c.remote.Create(ctx, draft)
	err = c.finish(seq, err, ActionCreated, v.EntityID(), func() bool {
		if i := c.indexLocked(v.EntityID()); i >= 0 {
			c.items[i] = v
		} else {
			c.items = append(c.items, v)
		}
		c.markAppliedLocked(seq)
		return true
	})
	if err != nil {
		return zero, err
	}
	c.persist(ctx)
	return v, nil
}

func (c *Container[T]) checkDraft(draft T) error {
	if draft.EntityID() != "" {
		return fmt.Errorf("%w: id is assigned by the server", ErrInvalidDraft)
	}
	if ts, ok := any(draft).(model.Timestamped); ok {
		created, updated := ts.Timestamps()
		if !created.IsZero() || !updated.IsZero() {
			return fmt.Errorf("%w: timestamps are assigned by the server", ErrInvalidDraft)
		}
	}
	if err := c.validate.Struct(draft); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("%w: %s failed on %s", ErrInvalidDraft, verrs[0].Field(), verrs[0].Tag())
		}
		return fmt.Errorf("%w: %v", ErrInvalidDraft, err)
	}
	return nil
}

// Update patches an entity and replaces it in the collection. An id absent
// from the collection leaves it unchanged.
func (c *Container[T]) Update(ctx context.Context, id string, patch model.Patch) (T, error) {
	seq, err := c.begin()
	if err != nil {
		var zero T
		return zero, err
	}
	ctx, done := c.opContext(ctx)
	defer done()

	v, err := c.remote.Update(ctx, id, patch)
	return c.replace(ctx, seq, id, v, err, ActionUpdated)
}

// UpdateStatus changes only the status field; reconciliation matches Update.
func (c *Container[T]) UpdateStatus(ctx context.Context, id, status string) (T, error) {
	var zero T
	seq, err := c.begin()
	if err != nil {
		return zero, err
	}
	if len(c.statuses) > 0 && !slices.Contains(c.statuses, status) {
		return zero, c.finish(seq, fmt.Errorf("%w: %q not in %v", ErrInvalidStatus, status, c.statuses), ActionStatusChanged, id, nil)
	}
	ctx, done := c.opContext(ctx)
	defer done()

	v, err := c.remote.UpdateStatus(ctx, id, status)
	return c.replace(ctx, seq, id, v, err, ActionStatusChanged)
}

func (c *Container[T]) replace(ctx context.Context, seq uint64, id string, v T, opErr error, action string) (T, error) {
	var zero T
	err := c.finish(seq, opErr, action, id, func() bool {
		if i := c.indexLocked(id); i >= 0 {
			c.items[i] = v
		} else {
			c.logger.Debug("updated entity not in collection", "id", id)
		}
		if c.current != nil && (*c.current).EntityID() == id {
			cur := v
			c.current = &cur
		}
		c.markAppliedLocked(seq)
		return true
	})
	if err != nil {
		return zero, err
	}
	c.persist(ctx)
	return v, nil
}

// Delete removes an entity remotely, then locally, clearing Current if it
// referenced it.
func (c *Container[T]) Delete(ctx context.Context, id string) error {
	seq, err := c.begin()
	if err != nil {
		return err
	}
	ctx, done := c.opContext(ctx)
	defer done()

	err = c.remote.Delete(ctx, id)
	err = c.finish(seq, err, ActionDeleted, id, func() bool {
		if i := c.indexLocked(id); i >= 0 {
			c.items = slices.Delete(c.items, i, i+1)
		}
		if c.current != nil && (*c.current).EntityID() == id {
			c.current = nil
		}
		c.markAppliedLocked(seq)
		return true
	})
	if err != nil {
		return err
	}
	c.persist(ctx)
	return nil
}

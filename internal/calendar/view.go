package calendar

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/dukerupert/academy/internal/api"
	"github.com/dukerupert/academy/internal/model"
)

var ErrClosed = errors.New("calendar: view closed")

// Fetcher returns the events of a window in the order the source sent them.
type Fetcher interface {
	Events(ctx context.Context, w Window) ([]model.Event, error)
}

type FetcherFunc func(ctx context.Context, w Window) ([]model.Event, error)

func (f FetcherFunc) Events(ctx context.Context, w Window) ([]model.Event, error) { return f(ctx, w) }

type State int

const (
	StateLoading State = iota
	StateReady
	StateError
)

func (s State) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateError:
		return "error"
	default:
		return "loading"
	}
}

func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *State) UnmarshalText(b []byte) error {
	switch string(b) {
	case "loading":
		*s = StateLoading
	case "ready":
		*s = StateReady
	case "error":
		*s = StateError
	default:
		return fmt.Errorf("unknown view state %q", b)
	}
	return nil
}

// Snapshot is a copy of a view's state.
type Snapshot struct {
	Anchor  time.Time     `json:"anchor"`
	Window  Window        `json:"window"`
	State   State         `json:"state"`
	Events  []model.Event `json:"events"`
	Buckets Buckets       `json:"buckets"`
	Err     string        `json:"error,omitempty"`
}

type ViewOptions struct {
	Granularity Granularity
	Anchor      time.Time
	Location    *time.Location
	Logger      *slog.Logger
}

// View tracks one calendar window and its events. Every navigation starts a
// new fetch; only the most recent one may settle the view.
type View struct {
	fetcher Fetcher
	loc     *time.Location
	logger  *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	anchor   time.Time
	gran     Granularity
	state    State
	events   []model.Event
	buckets  Buckets
	errMsg   string
	seq      uint64
	inflight context.CancelFunc
	closed   bool
	subs     map[int]func(Snapshot)
	nextSub  int
}

// NewView creates a view in the Loading state. Call Load to fetch the first
// window.
func NewView(f Fetcher, opts ViewOptions) *View {
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	anchor := opts.Anchor
	if anchor.IsZero() {
		anchor = time.Now()
	}
	ctx, cancel := context.WithCancel(context.Background())
	v := &View{
		fetcher: f,
		loc:     loc,
		logger:  logger.With("component", "calendar"),
		ctx:     ctx,
		cancel:  cancel,
		anchor:  anchor.In(loc),
		gran:    opts.Granularity,
		subs:    make(map[int]func(Snapshot)),
	}
	v.buckets = Bucket(v.windowLocked(), nil, loc)
	return v
}

func (v *View) Location() *time.Location { return v.loc }

func (v *View) windowLocked() Window { return WindowFor(v.anchor, v.gran) }

func (v *View) Snapshot() Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.snapshotLocked()
}

func (v *View) snapshotLocked() Snapshot {
	events := slices.Clone(v.events)
	if events == nil {
		events = []model.Event{}
	}
	return Snapshot{
		Anchor:  v.anchor,
		Window:  v.windowLocked(),
		State:   v.state,
		Events:  events,
		Buckets: v.buckets.clone(),
		Err:     v.errMsg,
	}
}

// Subscribe registers fn for every state change and returns a function
// removing it.
func (v *View) Subscribe(fn func(Snapshot)) func() {
	v.mu.Lock()
	id := v.nextSub
	v.nextSub++
	v.subs[id] = fn
	v.mu.Unlock()

	return func() {
		v.mu.Lock()
		delete(v.subs, id)
		v.mu.Unlock()
	}
}

func (v *View) publish(s Snapshot) {
	v.mu.Lock()
	subs := make([]func(Snapshot), 0, len(v.subs))
	for _, fn := range v.subs {
		subs = append(subs, fn)
	}
	v.mu.Unlock()

	for _, fn := range subs {
		fn(s)
	}
}

// Load fetches the current window.
func (v *View) Load(ctx context.Context) error {
	return v.move(ctx, func() {})
}

// Refresh is Load under the name callers use for a periodic reload.
func (v *View) Refresh(ctx context.Context) error { return v.Load(ctx) }

func (v *View) Next(ctx context.Context) error {
	return v.move(ctx, func() { v.anchor = Navigate(v.anchor, v.gran, 1) })
}

func (v *View) Previous(ctx context.Context) error {
	return v.move(ctx, func() { v.anchor = Navigate(v.anchor, v.gran, -1) })
}

// Jump moves the anchor to date.
func (v *View) Jump(ctx context.Context, date time.Time) error {
	return v.move(ctx, func() { v.anchor = date.In(v.loc) })
}

func (v *View) SetGranularity(ctx context.Context, g Granularity) error {
	return v.move(ctx, func() { v.gran = g })
}

// move applies a navigation, enters Loading and fetches the new window. A
// fetch superseded by a later navigation is cancelled, its result dropped,
// and move returns nil.
func (v *View) move(ctx context.Context, navigate func()) error {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return ErrClosed
	}
	navigate()
	v.seq++
	seq := v.seq
	if v.inflight != nil {
		v.inflight()
	}
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(v.ctx, cancel)
	v.inflight = cancel
	w := v.windowLocked()
	v.state = StateLoading
	v.errMsg = ""
	loading := v.snapshotLocked()
	v.mu.Unlock()
	defer func() {
		stop()
		cancel()
	}()

	v.publish(loading)
	v.logger.Debug("fetching window", "granularity", w.Granularity, "start", w.Start, "end", w.End, "seq", seq)

	events, err := v.fetcher.Events(ctx, w)

	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return ErrClosed
	}
	if seq != v.seq {
		v.mu.Unlock()
		v.logger.Debug("discarding stale window", "seq", seq, "error", err)
		return nil
	}
	v.inflight = nil
	if err != nil {
		v.state = StateError
		v.errMsg = api.Message(err)
	} else {
		v.state = StateReady
		v.events = events
		v.buckets = Bucket(w, events, v.loc)
	}
	snap := v.snapshotLocked()
	v.mu.Unlock()

	if err != nil {
		v.logger.Warn("calendar fetch failed", "start", w.Start, "error", err)
	}
	v.publish(snap)
	return err
}

// Close cancels any in-flight fetch. Later calls return ErrClosed.
func (v *View) Close() {
	v.mu.Lock()
	v.closed = true
	v.mu.Unlock()
	v.cancel()
}

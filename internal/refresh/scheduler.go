package refresh

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"
)

// Job refreshes one collection or view.
type Job func(ctx context.Context) error

// Recorder persists the outcome of each run. *store.RefreshRunStore
// satisfies it.
type Recorder interface {
	Record(ctx context.Context, job string, started time.Time, d time.Duration, err error) error
}

type Options struct {
	Location *time.Location
	Timeout  time.Duration
	// Parallel bounds RunNow. Zero means 4.
	Parallel int
	Recorder Recorder
	Logger   *slog.Logger
}

type namedJob struct {
	name string
	job  Job
}

// Scheduler runs every registered job on one cron schedule. A job still
// running when its next tick fires is skipped for that tick.
type Scheduler struct {
	cron     *cron.Cron
	spec     string
	timeout  time.Duration
	parallel int
	recorder Recorder
	logger   *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu   sync.Mutex
	jobs []namedJob
}

// New validates spec (standard five-field cron syntax or a descriptor such
// as @every 5m) and creates a stopped scheduler.
func New(spec string, opts Options) (*Scheduler, error) {
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("parse refresh schedule %q: %w", spec, err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "refresh")
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	if opts.Timeout == 0 {
		opts.Timeout = 2 * time.Minute
	}
	if opts.Parallel == 0 {
		opts.Parallel = 4
	}

	cl := cronLogger{logger}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:     cron.New(cron.WithLocation(loc), cron.WithLogger(cl), cron.WithChain(cron.Recover(cl))),
		spec:     spec,
		timeout:  opts.Timeout,
		parallel: opts.Parallel,
		recorder: opts.Recorder,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// Add registers job under name on the scheduler's schedule.
func (s *Scheduler) Add(name string, job Job) error {
	var running sync.Mutex
	_, err := s.cron.AddFunc(s.spec, func() {
		if !running.TryLock() {
			s.logger.Info("refresh still running, skipping tick", "job", name)
			return
		}
		defer running.Unlock()
		s.run(s.ctx, name, job)
	})
	if err != nil {
		return fmt.Errorf("schedule %s: %w", name, err)
	}
	s.mu.Lock()
	s.jobs = append(s.jobs, namedJob{name: name, job: job})
	s.mu.Unlock()
	return nil
}

func (s *Scheduler) run(ctx context.Context, name string, job Job) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	started := time.Now()
	err := job(ctx)
	d := time.Since(started)
	if err != nil {
		s.logger.Warn("refresh failed", "job", name, "duration", d, "error", err)
	} else {
		s.logger.Debug("refresh done", "job", name, "duration", d)
	}

	if s.recorder != nil {
		if rerr := s.recorder.Record(context.WithoutCancel(ctx), name, started, d, err); rerr != nil {
			s.logger.Error("record refresh run", "job", name, "error", rerr)
		}
	}
	return err
}

// RunNow runs every job once, concurrently, and returns all failures
// joined.
func (s *Scheduler) RunNow(ctx context.Context) error {
	s.mu.Lock()
	jobs := append([]namedJob(nil), s.jobs...)
	s.mu.Unlock()

	var (
		g    errgroup.Group
		mu   sync.Mutex
		errs []error
	)
	g.SetLimit(s.parallel)
	for _, j := range jobs {
		g.Go(func() error {
			if err := s.run(ctx, j.name, j.job); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", j.name, err))
				mu.Unlock()
			}
			return nil
		})
	}
	g.Wait()
	return errors.Join(errs...)
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("refresh scheduler started", "schedule", s.spec, "jobs", len(s.jobs))
}

// Stop cancels running jobs and waits for them to return.
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
}

// Next reports when the next tick fires; zero before Start.
func (s *Scheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

// cronLogger routes cron's internal logging to slog.
type cronLogger struct{ l *slog.Logger }

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.l.Debug(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.l.Error(msg, append(keysAndValues, "error", err)...)
}

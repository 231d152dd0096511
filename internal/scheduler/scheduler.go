package scheduler

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// DefaultTick is how often the driver checks the timer table.
const DefaultTick = 60 * time.Second

// Job is one schedulable activity. now is the driver's view of the current time in the
// scheduler's location.
type Job func(ctx context.Context, now time.Time) error

// Result describes one job firing.
type Result struct {
	Name     string
	Started  time.Time
	Duration time.Duration
	Err      error
}

type entry struct {
	name     string
	spec     string
	timeout  time.Duration
	job      Job
	schedule cron.Schedule
	next     time.Time
}

// EntryInfo is a read-only view of a timer table row.
type EntryInfo struct {
	Name    string
	Spec    string
	Timeout time.Duration
	Next    time.Time
}

// ErrUnknownJob is returned by RunNow for an unregistered name.
var ErrUnknownJob = errors.New("unknown job")

// Scheduler is a single-goroutine timer table. Due jobs run one at a time, to completion, in
// registration order, so no two jobs ever touch the stores concurrently.
type Scheduler struct {
	mu       sync.Mutex
	entries  []*entry
	parser   cron.Parser
	loc      *time.Location
	tick     time.Duration
	now      func() time.Time
	logger   zerolog.Logger
	OnResult func(Result)
}

// New creates an empty scheduler evaluating schedules in loc.
func New(loc *time.Location, tick time.Duration, logger zerolog.Logger) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	if tick <= 0 {
		tick = DefaultTick
	}
	return &Scheduler{
		parser: cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
		loc:    loc,
		tick:   tick,
		now:    time.Now,
		logger: logger.With().Str("component", "scheduler").Logger(),
	}
}

// Register adds a job. spec accepts five or six cron fields, descriptors such as
// "@every 60s" or "@daily", and an optional CRON_TZ= prefix. A zero timeout means unbounded.
func (s *Scheduler) Register(name, spec string, timeout time.Duration, job Job) error {
	if job == nil {
		return fmt.Errorf("register %s: nil job", name)
	}
	sched, err := s.parser.Parse(spec)
	if err != nil {
		return fmt.Errorf("register %s: parse %q: %w", name, spec, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.entries {
		if e.name == name {
			return fmt.Errorf("register %s: duplicate job name", name)
		}
	}
	e := &entry{name: name, spec: spec, timeout: timeout, job: job, schedule: sched}
	e.next = sched.Next(s.now().In(s.loc))
	s.entries = append(s.entries, e)
	s.logger.Info().Str("job", name).Str("spec", spec).Time("next", e.next).Msg("job registered")
	return nil
}

// Entries lists the timer table.
func (s *Scheduler) Entries() []EntryInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]EntryInfo, len(s.entries))
	for i, e := range s.entries {
		out[i] = EntryInfo{Name: e.name, Spec: e.spec, Timeout: e.timeout, Next: e.next}
	}
	return out
}

// Location returns the zone schedules are evaluated in.
func (s *Scheduler) Location() *time.Location { return s.loc }

// Run drives the timer table until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()
	s.logger.Info().Dur("tick", s.tick).Int("jobs", len(s.Entries())).Msg("scheduler started")

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			s.RunPending(ctx, s.now())
		}
	}
}

// RunPending fires every entry that is due at now and reschedules it from now. A missed
// occurrence fires once, not once per missed slot.
func (s *Scheduler) RunPending(ctx context.Context, now time.Time) []Result {
	now = now.In(s.loc)

	s.mu.Lock()
	var due []*entry
	for _, e := range s.entries {
		if !now.Before(e.next) {
			due = append(due, e)
		}
	}
	s.mu.Unlock()

	var results []Result
	for _, e := range due {
		if ctx.Err() != nil {
			break
		}
		results = append(results, s.fire(ctx, e, now))

		s.mu.Lock()
		e.next = e.schedule.Next(now)
		s.mu.Unlock()
	}
	return results
}

// RunNow fires the named job immediately without touching its schedule.
func (s *Scheduler) RunNow(ctx context.Context, name string) (Result, error) {
	s.mu.Lock()
	var target *entry
	for _, e := range s.entries {
		if e.name == name {
			target = e
			break
		}
	}
	s.mu.Unlock()
	if target == nil {
		return Result{}, fmt.Errorf("%w: %s", ErrUnknownJob, name)
	}
	res := s.fire(ctx, target, s.now().In(s.loc))
	return res, res.Err
}

func (s *Scheduler) fire(ctx context.Context, e *entry, now time.Time) (res Result) {
	res = Result{Name: e.name, Started: now}
	start := time.Now()

	jobCtx := ctx
	if e.timeout > 0 {
		var cancel context.CancelFunc
		jobCtx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			res.Err = fmt.Errorf("job %s panicked: %v", e.name, r)
			s.logger.Error().Str("job", e.name).Interface("panic", r).Bytes("stack", debug.Stack()).Msg("job panicked")
		}
		res.Duration = time.Since(start)
		if errors.Is(jobCtx.Err(), context.DeadlineExceeded) && res.Err == nil {
			res.Err = fmt.Errorf("job %s: %w", e.name, context.DeadlineExceeded)
		}
		s.report(res)
	}()

	s.logger.Debug().Str("job", e.name).Msg("job firing")
	res.Err = e.job(jobCtx, now)
	return res
}

func (s *Scheduler) report(res Result) {
	ev := s.logger.Info()
	if res.Err != nil {
		ev = s.logger.Error().Err(res.Err)
	}
	ev.Str("job", res.Name).Dur("took", res.Duration).Msg("job finished")
	if s.OnResult != nil {
		s.OnResult(res)
	}
}

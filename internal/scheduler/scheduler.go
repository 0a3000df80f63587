// Package scheduler drives the crawl cycle: collect listings from every
// source, persist the unseen articles and notify each of them once.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/jonesrussell/north-cloud/newswatch/internal/domain"
	"github.com/jonesrussell/north-cloud/newswatch/internal/logger"
	"github.com/jonesrussell/north-cloud/newswatch/internal/metrics"
)

// DefaultInterval is the pause between two cycle starts.
const DefaultInterval = 600 * time.Second

var (
	// ErrCycleInProgress is returned by RunCycle while another cycle is running.
	ErrCycleInProgress = errors.New("crawl cycle already in progress")
	// ErrNoUpcomingRun is returned for cron expressions that never fire.
	ErrNoUpcomingRun = errors.New("schedule has no upcoming run")
	// ErrCyclePanic marks a cycle aborted by a panic in one of its collaborators.
	ErrCyclePanic = errors.New("crawl cycle panicked")
)

// State is the scheduler state.
type State int32

const (
	StateIdle State = iota
	StateCrawling
)

func (s State) String() string {
	if s == StateCrawling {
		return "crawling"
	}
	return "idle"
}

// Collector gathers the current listings of every source.
type Collector interface {
	CollectAll(ctx context.Context) []domain.Article
}

// Store persists a batch and returns the articles that were new.
// On failure it still returns the articles committed before the error.
type Store interface {
	Insert(ctx context.Context, batch []domain.Article) ([]domain.Article, error)
}

// Dispatcher notifies articles and returns how many were delivered.
type Dispatcher interface {
	Dispatch(ctx context.Context, articles []domain.Article) int
}

// CycleReport summarizes one crawl cycle.
type CycleReport struct {
	CycleID   string        `json:"cycle_id"`
	StartedAt time.Time     `json:"started_at"`
	Collected int           `json:"collected"`
	New       int           `json:"new"`
	Notified  int           `json:"notified"`
	Duration  time.Duration `json:"duration"`
	Error     string        `json:"error,omitempty"`
}

// Scheduler runs crawl cycles on a schedule. At most one cycle runs at a time.
type Scheduler struct {
	collector  Collector
	store      Store
	dispatcher Dispatcher

	schedule cron.Schedule
	metrics  metrics.Recorder
	hook     func(CycleReport, error)
	now      func() time.Time
	log      logger.Logger
	events   events

	state atomic.Int32

	mu   sync.RWMutex
	last *CycleReport

	wg sync.WaitGroup
}

// New creates a scheduler. Without options it runs every DefaultInterval.
func New(collector Collector, store Store, dispatcher Dispatcher, log logger.Logger, opts ...Option) *Scheduler {
	if log == nil {
		log = logger.NewNop()
	}

	s := &Scheduler{
		collector:  collector,
		store:      store,
		dispatcher: dispatcher,
		schedule:   cron.Every(DefaultInterval),
		metrics:    metrics.Nop{},
		now:        time.Now,
		log:        log,
	}

	for _, opt := range opts {
		opt(s)
	}

	s.events = events{log: s.log}

	return s
}

// ParseSchedule returns the cron schedule for expr, or a fixed interval
// schedule when expr is empty.
func ParseSchedule(expr string, interval time.Duration) (cron.Schedule, error) {
	if expr == "" {
		if interval <= 0 {
			interval = DefaultInterval
		}
		return cron.Every(interval), nil
	}

	schedule, err := cron.ParseStandard(expr)
	if err != nil {
		return nil, fmt.Errorf("parse schedule %q: %w", expr, err)
	}
	if schedule.Next(time.Now()).IsZero() {
		return nil, fmt.Errorf("parse schedule %q: %w", expr, ErrNoUpcomingRun)
	}

	return schedule, nil
}

// State returns the current scheduler state.
func (s *Scheduler) State() State {
	return State(s.state.Load())
}

// LastReport returns the report of the most recent finished cycle.
func (s *Scheduler) LastReport() (CycleReport, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.last == nil {
		return CycleReport{}, false
	}

	return *s.last, true
}

// RunCycle runs one cycle synchronously. It returns ErrCycleInProgress
// without doing any work when a cycle is already running.
func (s *Scheduler) RunCycle(ctx context.Context) (CycleReport, error) {
	if !s.begin() {
		s.metrics.CycleSkipped()
		return CycleReport{}, ErrCycleInProgress
	}
	defer s.end()

	return s.cycle(ctx)
}

// Run starts the first cycle immediately, then one per schedule tick,
// until ctx is cancelled. A tick that fires while a cycle is still
// running is dropped. Run waits for the running cycle before returning.
// A schedule with no upcoming run leaves Run idle until cancellation.
func (s *Scheduler) Run(ctx context.Context) error {
	next := s.schedule.Next(s.now())
	s.events.started(next)

	s.tick(ctx)

	for {
		var (
			timer *time.Timer
			fired <-chan time.Time
		)
		if next.IsZero() {
			s.events.exhausted()
		} else {
			timer = time.NewTimer(max(time.Until(next), 0))
			fired = timer.C
		}

		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			s.events.draining()
			s.wg.Wait()
			s.events.stopped(true)
			return nil
		case <-fired:
			next = s.schedule.Next(s.now())
			s.tick(ctx)
		}
	}
}

// tick launches a cycle in the background unless one is already running.
func (s *Scheduler) tick(ctx context.Context) {
	if !s.begin() {
		s.metrics.CycleSkipped()
		s.events.tickSkipped(s.schedule.Next(s.now()))
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.end()

		// Failures are already logged and recorded.
		_, _ = s.cycle(ctx)
	}()
}

func (s *Scheduler) begin() bool {
	return s.state.CompareAndSwap(int32(StateIdle), int32(StateCrawling))
}

func (s *Scheduler) end() {
	s.state.Store(int32(StateIdle))
}

// cycle runs the pipeline and records its outcome. A panic inside the
// pipeline fails the cycle instead of the process. The caller holds the
// crawling state.
func (s *Scheduler) cycle(ctx context.Context) (CycleReport, error) {
	report := CycleReport{
		CycleID:   uuid.NewString(),
		StartedAt: s.now(),
	}
	log := s.log.With(logger.CycleID(report.CycleID))

	if err := ctx.Err(); err != nil {
		return report, err
	}

	s.events.cycleStarted(log)

	pipelineErr := s.guardedPipeline(ctx, &report)

	report.Duration = s.now().Sub(report.StartedAt)

	var err error
	if pipelineErr != nil {
		err = fmt.Errorf("cycle %s: %w", report.CycleID, pipelineErr)
		report.Error = err.Error()
		s.metrics.CycleFailed()
		s.events.cycleFailed(log, report, err)
	} else {
		s.metrics.CycleCompleted(report.Collected, report.New, report.Duration)
		s.events.cycleCompleted(log, report)
	}

	s.record(report)
	if s.hook != nil {
		s.hook(report, err)
	}

	return report, err
}

func (s *Scheduler) guardedPipeline(ctx context.Context, report *CycleReport) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: %v", ErrCyclePanic, p)
		}
	}()

	return s.pipeline(ctx, report)
}

// pipeline is collect, persist, notify. It returns the store error, if any.
func (s *Scheduler) pipeline(ctx context.Context, report *CycleReport) error {
	collected := s.collector.CollectAll(ctx)
	report.Collected = len(collected)

	inserted, storeErr := s.store.Insert(ctx, collected)
	report.New = len(inserted)

	// Whatever was committed is new to the store and must be announced,
	// even when the rest of the batch failed.
	if len(inserted) > 0 {
		report.Notified = s.dispatcher.Dispatch(ctx, inserted)
	}

	return storeErr
}

func (s *Scheduler) record(r CycleReport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = &r
}

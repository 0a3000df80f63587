package scheduler

import (
	"time"

	"github.com/robfig/cron/v3"

	"github.com/jonesrussell/north-cloud/newswatch/internal/metrics"
)

// Option is a functional option for configuring the Scheduler.
type Option func(*Scheduler)

// WithInterval runs a cycle every d.
// Default: 600 seconds
func WithInterval(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.schedule = cron.Every(d)
		}
	}
}

// WithSchedule replaces the fixed interval with an arbitrary cron schedule.
func WithSchedule(schedule cron.Schedule) Option {
	return func(s *Scheduler) {
		if schedule != nil {
			s.schedule = schedule
		}
	}
}

// WithMetrics sets the recorder for cycle metrics.
// Default: metrics.Nop
func WithMetrics(m metrics.Recorder) Option {
	return func(s *Scheduler) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithCycleHook registers fn to be called after every finished cycle.
func WithCycleHook(fn func(CycleReport, error)) Option {
	return func(s *Scheduler) {
		s.hook = fn
	}
}

// WithClock overrides the time source. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		if now != nil {
			s.now = now
		}
	}
}

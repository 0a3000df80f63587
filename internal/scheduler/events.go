package scheduler

import (
	"time"

	"github.com/jonesrussell/north-cloud/newswatch/internal/logger"
)

// events wraps the scheduler logger with one method per lifecycle event.
type events struct {
	log logger.Logger
}

func (e events) started(next time.Time) {
	e.log.Info("Scheduler started",
		logger.String("next_run_at", next.Format(time.RFC3339)),
	)
}

func (e events) stopped(graceful bool) {
	e.log.Info("Scheduler stopped",
		logger.Bool("graceful", graceful),
	)
}

func (e events) exhausted() {
	e.log.Warn("Schedule has no upcoming run, waiting for shutdown")
}

func (e events) draining() {
	e.log.Info("Scheduler draining, waiting for the running cycle")
}

func (e events) tickSkipped(next time.Time) {
	e.log.Warn("Previous cycle still running, skipping tick",
		logger.String("next_run_at", next.Format(time.RFC3339)),
	)
}

func (e events) cycleStarted(log logger.Logger) {
	log.Info("Cycle started")
}

func (e events) cycleCompleted(log logger.Logger, r CycleReport) {
	log.Info("Cycle completed",
		logger.Int("collected", r.Collected),
		logger.Int("new", r.New),
		logger.Int("notified", r.Notified),
		logger.Duration("duration", r.Duration),
	)
}

func (e events) cycleFailed(log logger.Logger, r CycleReport, err error) {
	log.Error("Cycle failed",
		logger.Error(err),
		logger.Int("collected", r.Collected),
		logger.Int("new", r.New),
		logger.Int("notified", r.Notified),
		logger.Duration("duration", r.Duration),
	)
}

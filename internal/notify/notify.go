// Package notify delivers new-article notifications to one or more sinks.
// Delivery is best effort: a failing sink is logged and never fails a cycle.
package notify

//go:generate mockgen -source=notify.go -destination=mocks/mock_notifier.go -package=mocks

import (
	"context"
	"errors"
	"fmt"

	"github.com/jonesrussell/north-cloud/newswatch/internal/domain"
	"github.com/jonesrussell/north-cloud/newswatch/internal/logger"
	"github.com/jonesrussell/north-cloud/newswatch/internal/metrics"
)

// NotificationTitle heads every notification.
const NotificationTitle = "📰 Nova Notícia!"

// ErrNotificationFailure wraps sink delivery errors.
var ErrNotificationFailure = errors.New("notification failure")

// Notifier is a notification sink.
type Notifier interface {
	Name() string
	Notify(ctx context.Context, article domain.Article) error
}

// Dispatcher sends every new article to all sinks in order.
type Dispatcher struct {
	sinks   []Notifier
	metrics metrics.Recorder
	log     logger.Logger
}

// NewDispatcher creates a dispatcher. A nil recorder disables metrics.
func NewDispatcher(log logger.Logger, m metrics.Recorder, sinks ...Notifier) *Dispatcher {
	if m == nil {
		m = metrics.Nop{}
	}
	return &Dispatcher{sinks: sinks, metrics: m, log: log}
}

// Sinks returns the sink names in delivery order.
func (d *Dispatcher) Sinks() []string {
	names := make([]string, len(d.sinks))
	for i, s := range d.sinks {
		names[i] = s.Name()
	}
	return names
}

// Dispatch notifies each article once per sink and returns the number of
// articles delivered by at least one sink. Failures are logged and
// swallowed. Cancellation stops delivery of the remaining articles.
func (d *Dispatcher) Dispatch(ctx context.Context, articles []domain.Article) int {
	delivered := 0

	for i, article := range articles {
		if ctx.Err() != nil {
			d.log.Warn("Notification delivery cancelled",
				logger.Int("pending", len(articles)-i),
			)
			break
		}

		if d.notifyOne(ctx, article) {
			delivered++
		}
	}

	return delivered
}

func (d *Dispatcher) notifyOne(ctx context.Context, article domain.Article) bool {
	ok := false

	for _, sink := range d.sinks {
		if err := deliver(ctx, sink, article); err != nil {
			err = fmt.Errorf("%w: %s: %w", ErrNotificationFailure, sink.Name(), err)
			d.log.Warn("Failed to deliver notification",
				logger.String("sink", sink.Name()),
				logger.String("link", article.Link),
				logger.Error(err),
			)
			d.metrics.NotificationFailed(sink.Name())
			continue
		}

		d.metrics.NotificationSent(sink.Name())
		ok = true
	}

	return ok
}

// deliver calls the sink and turns a panic into an error.
func deliver(ctx context.Context, sink Notifier, article domain.Article) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()

	return sink.Notify(ctx, article)
}

// Package metrics provides the Prometheus metrics of the crawl pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	// Namespace is the namespace for all newswatch metrics.
	Namespace = "newswatch"

	statusOK     = "ok"
	statusFailed = "failed"
)

// Recorder receives pipeline events. Metrics implements it; Nop discards them.
type Recorder interface {
	SourceFetched(source string, articles int, duration time.Duration)
	SourceFailed(source, errorType string)
	SourceSkipped(source string)
	BreakerStateChanged(source string, state int)
	CycleCompleted(collected, inserted int, duration time.Duration)
	CycleFailed()
	CycleSkipped()
	NotificationSent(sink string)
	NotificationFailed(sink string)
}

// Metrics holds all Prometheus collectors.
type Metrics struct {
	SourceFetchTotal    *prometheus.CounterVec
	SourceArticlesTotal *prometheus.CounterVec
	SourceFetchSeconds  *prometheus.HistogramVec
	SourceErrorsTotal   *prometheus.CounterVec
	SourceSkippedTotal  *prometheus.CounterVec
	BreakerState        *prometheus.GaugeVec

	CyclesTotal           *prometheus.CounterVec
	CycleDurationSeconds  prometheus.Histogram
	ArticlesCollected     prometheus.Counter
	ArticlesInsertedTotal prometheus.Counter
	LastCycleTimestamp    prometheus.Gauge

	NotificationsTotal *prometheus.CounterVec
}

// New creates and registers all collectors on reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	factory := promauto.With(reg)
	m := &Metrics{}

	m.initSourceMetrics(factory)
	m.initCycleMetrics(factory)

	m.NotificationsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "notifications_total",
			Help:      "Notifications delivered per sink and status",
		},
		[]string{"sink", "status"},
	)

	return m
}

func (m *Metrics) initSourceMetrics(factory promauto.Factory) {
	m.SourceFetchTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "source",
			Name:      "fetch_total",
			Help:      "Source fetches per status",
		},
		[]string{"source", "status"},
	)

	m.SourceArticlesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "source",
			Name:      "articles_total",
			Help:      "Listing entries extracted per source",
		},
		[]string{"source"},
	)

	m.SourceFetchSeconds = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "source",
			Name:      "fetch_duration_seconds",
			Help:      "Duration of a full source fetch",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10),
		},
		[]string{"source"},
	)

	m.SourceErrorsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "source",
			Name:      "errors_total",
			Help:      "Source fetch failures by error type",
		},
		[]string{"source", "error_type"},
	)

	m.SourceSkippedTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "source",
			Name:      "skipped_total",
			Help:      "Fetches skipped because the source circuit was open",
		},
		[]string{"source"},
	)

	m.BreakerState = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: "source",
			Name:      "circuit_state",
			Help:      "Circuit breaker state per source (0=closed, 1=open, 2=half-open)",
		},
		[]string{"source"},
	)
}

func (m *Metrics) initCycleMetrics(factory promauto.Factory) {
	m.CyclesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "cycle",
			Name:      "total",
			Help:      "Crawl cycles by outcome",
		},
		[]string{"status"},
	)

	m.CycleDurationSeconds = factory.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "cycle",
			Name:      "duration_seconds",
			Help:      "Duration of a crawl cycle",
			Buckets:   prometheus.ExponentialBuckets(0.25, 2, 10),
		},
	)

	m.ArticlesCollected = factory.NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "cycle",
			Name:      "articles_collected_total",
			Help:      "Listing entries collected across all sources",
		},
	)

	m.ArticlesInsertedTotal = factory.NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "cycle",
			Name:      "articles_new_total",
			Help:      "Articles stored for the first time",
		},
	)

	m.LastCycleTimestamp = factory.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: "cycle",
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last completed cycle",
		},
	)
}

func (m *Metrics) SourceFetched(source string, articles int, duration time.Duration) {
	m.SourceFetchTotal.WithLabelValues(source, statusOK).Inc()
	m.SourceArticlesTotal.WithLabelValues(source).Add(float64(articles))
	m.SourceFetchSeconds.WithLabelValues(source).Observe(duration.Seconds())
}

func (m *Metrics) SourceFailed(source, errorType string) {
	if errorType == "" {
		errorType = "unknown"
	}
	m.SourceFetchTotal.WithLabelValues(source, statusFailed).Inc()
	m.SourceErrorsTotal.WithLabelValues(source, errorType).Inc()
}

func (m *Metrics) SourceSkipped(source string) {
	m.SourceSkippedTotal.WithLabelValues(source).Inc()
}

func (m *Metrics) BreakerStateChanged(source string, state int) {
	m.BreakerState.WithLabelValues(source).Set(float64(state))
}

func (m *Metrics) CycleCompleted(collected, inserted int, duration time.Duration) {
	m.CyclesTotal.WithLabelValues(statusOK).Inc()
	m.CycleDurationSeconds.Observe(duration.Seconds())
	m.ArticlesCollected.Add(float64(collected))
	m.ArticlesInsertedTotal.Add(float64(inserted))
	m.LastCycleTimestamp.SetToCurrentTime()
}

func (m *Metrics) CycleFailed() {
	m.CyclesTotal.WithLabelValues(statusFailed).Inc()
}

func (m *Metrics) CycleSkipped() {
	m.CyclesTotal.WithLabelValues("skipped").Inc()
}

func (m *Metrics) NotificationSent(sink string) {
	m.NotificationsTotal.WithLabelValues(sink, statusOK).Inc()
}

func (m *Metrics) NotificationFailed(sink string) {
	m.NotificationsTotal.WithLabelValues(sink, statusFailed).Inc()
}

// Nop discards every event.
type Nop struct{}

func (Nop) SourceFetched(string, int, time.Duration) {}
func (Nop) SourceFailed(string, string)              {}
func (Nop) SourceSkipped(string)                     {}
func (Nop) BreakerStateChanged(string, int)          {}
func (Nop) CycleCompleted(int, int, time.Duration)   {}
func (Nop) CycleFailed()                             {}
func (Nop) CycleSkipped()                            {}
func (Nop) NotificationSent(string)                  {}
func (Nop) NotificationFailed(string)                {}

var (
	_ Recorder = (*Metrics)(nil)
	_ Recorder = Nop{}
)

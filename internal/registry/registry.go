// Package registry runs every configured source adapter concurrently and
// merges their listings into one batch.
package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jonesrussell/north-cloud/newswatch/internal/circuitbreaker"
	"github.com/jonesrussell/north-cloud/newswatch/internal/domain"
	"github.com/jonesrussell/north-cloud/newswatch/internal/fetcher"
	"github.com/jonesrussell/north-cloud/newswatch/internal/logger"
	"github.com/jonesrussell/north-cloud/newswatch/internal/metrics"
	"github.com/jonesrussell/north-cloud/newswatch/internal/sources"
)

// ErrDuplicateSource is returned when two adapters share a name.
var ErrDuplicateSource = errors.New("source already registered")

const defaultMaxConcurrency = 4

type entry struct {
	adapter sources.Adapter
	breaker *circuitbreaker.Breaker
}

// Registry holds the source adapters in registration order.
type Registry struct {
	mu             sync.RWMutex
	entries        []entry
	names          map[string]struct{}
	maxConcurrency int
	breakerCfg     *circuitbreaker.Config
	metrics        metrics.Recorder
	log            logger.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithMaxConcurrency caps the number of adapters fetching at once.
func WithMaxConcurrency(n int) Option {
	return func(r *Registry) {
		if n > 0 {
			r.maxConcurrency = n
		}
	}
}

// WithCircuitBreaker guards every adapter registered afterwards with its own breaker.
func WithCircuitBreaker(cfg circuitbreaker.Config) Option {
	return func(r *Registry) {
		r.breakerCfg = &cfg
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m metrics.Recorder) Option {
	return func(r *Registry) {
		if m != nil {
			r.metrics = m
		}
	}
}

// New creates an empty registry.
func New(log logger.Logger, opts ...Option) *Registry {
	r := &Registry{
		names:          make(map[string]struct{}),
		maxConcurrency: defaultMaxConcurrency,
		metrics:        metrics.Nop{},
		log:            log,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Register appends an adapter. Adapters contribute to CollectAll in registration order.
func (r *Registry) Register(adapter sources.Adapter) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := adapter.Name()
	if _, exists := r.names[name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateSource, name)
	}
	r.names[name] = struct{}{}

	e := entry{adapter: adapter}
	if r.breakerCfg != nil {
		cfg := *r.breakerCfg
		cfg.OnStateChange = func(from, to circuitbreaker.State) {
			r.metrics.BreakerStateChanged(name, int(to))
			r.log.Warn("Source circuit state changed",
				logger.Source(name),
				logger.String("from", from.String()),
				logger.String("to", to.String()),
			)
		}
		e.breaker = circuitbreaker.New(cfg)
	}

	r.entries = append(r.entries, e)
	return nil
}

// Names returns adapter names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, len(r.entries))
	for i, e := range r.entries {
		names[i] = e.adapter.Name()
	}
	return names
}

// Len returns the number of registered adapters.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// CollectAll fetches every adapter concurrently and concatenates their
// results source by source in registration order. A failing, panicking or
// cancelled adapter contributes whatever it returned and never affects the
// others.
func (r *Registry) CollectAll(ctx context.Context) []domain.Article {
	r.mu.RLock()
	entries := make([]entry, len(r.entries))
	copy(entries, r.entries)
	r.mu.RUnlock()

	results := make([][]domain.Article, len(entries))

	var g errgroup.Group
	g.SetLimit(r.maxConcurrency)

	for i, e := range entries {
		g.Go(func() error {
			results[i] = r.collect(ctx, e)
			return nil
		})
	}
	_ = g.Wait()

	total := 0
	for _, batch := range results {
		total += len(batch)
	}

	merged := make([]domain.Article, 0, total)
	for _, batch := range results {
		merged = append(merged, batch...)
	}

	return merged
}

func (r *Registry) collect(ctx context.Context, e entry) (articles []domain.Article) {
	name := e.adapter.Name()

	defer func() {
		if p := recover(); p != nil {
			r.log.Error("Source adapter panicked",
				logger.Source(name),
				logger.Any("panic", p),
			)
			r.metrics.SourceFailed(name, "panic")
			r.record(e, false)
			articles = nil
		}
	}()

	if e.breaker != nil {
		if err := e.breaker.Allow(); err != nil {
			r.log.Info("Skipping source with open circuit", logger.Source(name), logger.Error(err))
			r.metrics.SourceSkipped(name)
			return nil
		}
	}

	start := time.Now()
	articles, err := e.adapter.Fetch(ctx)
	elapsed := time.Since(start)

	if err != nil {
		r.log.Warn("Source fetch reported errors",
			logger.Source(name),
			logger.Int("articles", len(articles)),
			logger.Duration("duration", elapsed),
			logger.Error(err),
		)
		r.metrics.SourceFailed(name, errorType(err))
	}

	if err == nil || len(articles) > 0 {
		r.metrics.SourceFetched(name, len(articles), elapsed)
	}

	// Partial results count as a healthy source.
	r.record(e, len(articles) > 0 || err == nil)

	r.log.Debug("Source fetched",
		logger.Source(name),
		logger.Int("articles", len(articles)),
		logger.Duration("duration", elapsed),
	)

	return articles
}

func (r *Registry) record(e entry, success bool) {
	if e.breaker != nil {
		e.breaker.Record(success)
	}
}

func errorType(err error) string {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	case errors.Is(err, sources.ErrParse):
		return "parse_error"
	case errors.Is(err, sources.ErrEmptyListing) && fetcher.TypeOf(err) == "":
		return "empty_listing"
	default:
		return string(fetcher.TypeOf(err))
	}
}

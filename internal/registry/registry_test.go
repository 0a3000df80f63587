package registry_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/newswatch/internal/circuitbreaker"
	"github.com/jonesrussell/north-cloud/newswatch/internal/domain"
	"github.com/jonesrussell/north-cloud/newswatch/internal/logger"
	"github.com/jonesrussell/north-cloud/newswatch/internal/registry"
)

type fakeAdapter struct {
	name     string
	articles []domain.Article
	err      error
	delay    time.Duration
	panics   bool
	calls    atomic.Int32
}

func (f *fakeAdapter) Name() string { return f.name }

func (f *fakeAdapter) Fetch(ctx context.Context) ([]domain.Article, error) {
	f.calls.Add(1)
	if f.panics {
		panic("selector exploded")
	}
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.articles, f.err
}

func articles(source string, links ...string) []domain.Article {
	out := make([]domain.Article, 0, len(links))
	for _, link := range links {
		out = append(out, domain.Article{Title: "t " + link, Link: link, Source: source})
	}
	return out
}

func links(batch []domain.Article) []string {
	out := make([]string, len(batch))
	for i, a := range batch {
		out[i] = a.Link
	}
	return out
}

func TestCollectAll_PreservesRegistrationOrder(t *testing.T) {
	t.Parallel()

	slow := &fakeAdapter{name: "A", articles: articles("A", "a1", "a2"), delay: 20 * time.Millisecond}
	fast := &fakeAdapter{name: "B", articles: articles("B", "b1")}

	r := registry.New(logger.NewNop())
	require.NoError(t, r.Register(slow))
	require.NoError(t, r.Register(fast))

	got := r.CollectAll(context.Background())
	assert.Equal(t, []string{"a1", "a2", "b1"}, links(got))
	assert.Equal(t, []string{"A", "B"}, r.Names())
}

func TestCollectAll_FailingSourceDoesNotBlockOthers(t *testing.T) {
	t.Parallel()

	failing := &fakeAdapter{name: "down", err: errors.New("connection refused")}
	partial := &fakeAdapter{name: "partial", articles: articles("partial", "p1"), err: errors.New("page 2: HTTP 500")}
	healthy := &fakeAdapter{name: "up", articles: articles("up", "u1", "u2")}
	panicking := &fakeAdapter{name: "panics", panics: true}

	r := registry.New(logger.NewNop())
	for _, a := range []*fakeAdapter{failing, partial, panicking, healthy} {
		require.NoError(t, r.Register(a))
	}

	got := r.CollectAll(context.Background())
	assert.Equal(t, []string{"p1", "u1", "u2"}, links(got))
}

func TestCollectAll_Empty(t *testing.T) {
	t.Parallel()

	r := registry.New(logger.NewNop())
	assert.Empty(t, r.CollectAll(context.Background()))
	assert.Equal(t, 0, r.Len())
}

func TestRegister_RejectsDuplicateNames(t *testing.T) {
	t.Parallel()

	r := registry.New(logger.NewNop())
	require.NoError(t, r.Register(&fakeAdapter{name: "CM7"}))

	err := r.Register(&fakeAdapter{name: "CM7"})
	assert.ErrorIs(t, err, registry.ErrDuplicateSource)
}

func TestCollectAll_RespectsConcurrencyLimit(t *testing.T) {
	t.Parallel()

	var inFlight, peak atomic.Int32
	track := func(name string) *trackingAdapter {
		return &trackingAdapter{name: name, inFlight: &inFlight, peak: &peak}
	}

	r := registry.New(logger.NewNop(), registry.WithMaxConcurrency(2))
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		require.NoError(t, r.Register(track(name)))
	}

	r.CollectAll(context.Background())
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

type trackingAdapter struct {
	name     string
	inFlight *atomic.Int32
	peak     *atomic.Int32
}

func (a *trackingAdapter) Name() string { return a.name }

func (a *trackingAdapter) Fetch(context.Context) ([]domain.Article, error) {
	n := a.inFlight.Add(1)
	defer a.inFlight.Add(-1)
	for {
		p := a.peak.Load()
		if n <= p || a.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(10 * time.Millisecond)
	return nil, nil
}

func TestCollectAll_CircuitBreakerSkipsFailingSource(t *testing.T) {
	t.Parallel()

	failing := &fakeAdapter{name: "down", err: errors.New("dns failure")}
	healthy := &fakeAdapter{name: "up", articles: articles("up", "u1")}

	r := registry.New(logger.NewNop(), registry.WithCircuitBreaker(circuitbreaker.Config{
		FailureThreshold: 1,
		OpenTimeout:      time.Hour,
	}))
	require.NoError(t, r.Register(failing))
	require.NoError(t, r.Register(healthy))

	r.CollectAll(context.Background())
	got := r.CollectAll(context.Background())

	assert.Equal(t, []string{"u1"}, links(got))
	assert.Equal(t, int32(1), failing.calls.Load())
	assert.Equal(t, int32(2), healthy.calls.Load())
}

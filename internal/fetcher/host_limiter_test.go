//nolint:testpackage // Testing unexported limiter
package fetcher

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHostLimiter_SpacesSameHost(t *testing.T) {
	t.Parallel()

	interval := 50 * time.Millisecond
	limiter := newHostLimiter(interval)
	ctx := context.Background()

	start := time.Now()
	require.NoError(t, limiter.wait(ctx, "https://cm7brasil.com/noticias/policia"))
	require.NoError(t, limiter.wait(ctx, "https://cm7brasil.com/noticias/policia/page/2"))

	assert.GreaterOrEqual(t, time.Since(start), interval-5*time.Millisecond)
}

func TestHostLimiter_HostsAreIndependent(t *testing.T) {
	t.Parallel()

	limiter := newHostLimiter(time.Hour)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	require.NoError(t, limiter.wait(ctx, "https://cm7brasil.com/"))
	require.NoError(t, limiter.wait(ctx, "https://www.portaldoholanda.com.br/"))
}

func TestHostLimiter_Disabled(t *testing.T) {
	t.Parallel()

	var nilLimiter *hostLimiter
	require.NoError(t, nilLimiter.wait(context.Background(), "https://cm7brasil.com/"))

	limiter := newHostLimiter(0)
	for range 5 {
		require.NoError(t, limiter.wait(context.Background(), "https://cm7brasil.com/"))
	}
}

func TestHostLimiter_ContextCancelled(t *testing.T) {
	t.Parallel()

	limiter := newHostLimiter(time.Hour)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	require.NoError(t, limiter.wait(ctx, "https://cm7brasil.com/"))
	assert.Error(t, limiter.wait(ctx, "https://cm7brasil.com/"))
}

func TestHostLimiter_MissingHost(t *testing.T) {
	t.Parallel()

	limiter := newHostLimiter(time.Second)
	assert.Error(t, limiter.wait(context.Background(), "/relative/path"))
}

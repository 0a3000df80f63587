package fetcher

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// hostLimiter spaces requests to the same host by a minimum interval.
// A zero interval disables it.
type hostLimiter struct {
	mu       sync.RWMutex
	limiters map[string]*rate.Limiter
	interval time.Duration
}

func newHostLimiter(interval time.Duration) *hostLimiter {
	return &hostLimiter{
		limiters: make(map[string]*rate.Limiter),
		interval: interval,
	}
}

// wait blocks until a request to rawURL's host may be sent.
func (h *hostLimiter) wait(ctx context.Context, rawURL string) error {
	if h == nil || h.interval <= 0 {
		return nil
	}

	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return fmt.Errorf("rate limit %q: missing host", rawURL)
	}

	return h.limiterFor(u.Host).Wait(ctx)
}

func (h *hostLimiter) limiterFor(host string) *rate.Limiter {
	h.mu.RLock()
	limiter, ok := h.limiters[host]
	h.mu.RUnlock()
	if ok {
		return limiter
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if limiter, ok = h.limiters[host]; ok {
		return limiter
	}

	limiter = rate.NewLimiter(rate.Every(h.interval), 1)
	h.limiters[host] = limiter
	return limiter
}

package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/jonesrussell/north-cloud/newswatch/internal/logger"
)

const acceptHeader = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"

// HTTPFetcher implements PageFetcher using net/http. Transient failures are
// retried with exponential backoff within a single Fetch call.
type HTTPFetcher struct {
	client  *http.Client
	cfg     Config
	limiter *hostLimiter
	log     logger.Logger
}

// NewHTTPFetcher creates a fetcher. A nil client gets one built from cfg.
func NewHTTPFetcher(client *http.Client, cfg Config, log logger.Logger) *HTTPFetcher {
	cfg = cfg.WithDefaults()
	if client == nil {
		client = NewHTTPClient(cfg.RequestTimeout)
	}

	return &HTTPFetcher{
		client:  client,
		cfg:     cfg,
		limiter: newHostLimiter(cfg.MinHostInterval),
		log:     log,
	}
}

// Fetch performs a GET for url and returns the UTF-8 body.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (*Page, error) {
	return withRetry(ctx, f.cfg, f.log, url, func() (*Page, error) {
		return f.fetchOnce(ctx, url)
	})
}

func (f *HTTPFetcher) fetchOnce(ctx context.Context, url string) (*Page, error) {
	if err := f.limiter.wait(ctx, url); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", f.cfg.UserAgent)
	req.Header.Set("Accept", acceptHeader)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, ClassifyNetworkError(err, url)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, f.cfg.MaxBodyBytes))
		return nil, ClassifyHTTPStatus(resp.StatusCode, url)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, f.cfg.MaxBodyBytes))
	if err != nil {
		return nil, ClassifyNetworkError(fmt.Errorf("read response body: %w", err), url)
	}

	contentType := resp.Header.Get("Content-Type")
	body, err := toUTF8(raw, contentType)
	if err != nil {
		return nil, err
	}

	return &Page{
		URL:         resp.Request.URL.String(),
		StatusCode:  resp.StatusCode,
		Body:        body,
		ContentType: contentType,
	}, nil
}

// Package fetcher retrieves listing pages over HTTP and hands back their
// bodies as UTF-8.
package fetcher

import (
	"context"
	"net/http"
	"time"
)

// Page is a successfully fetched listing page.
type Page struct {
	// URL is the final URL after redirects.
	URL        string
	StatusCode int
	// Body is the response body converted to UTF-8.
	Body        []byte
	ContentType string
}

// PageFetcher fetches a single page. Non-2xx responses and transport
// failures are reported as *FetchError.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (*Page, error)
}

const (
	defaultRequestTimeout = 30 * time.Second
	defaultMaxBodyBytes   = 10 * 1024 * 1024
	defaultMaxAttempts    = 3
	defaultInitialDelay   = 500 * time.Millisecond
	defaultMaxDelay       = 10 * time.Second
	defaultUserAgent      = "newswatch/1.0"

	maxIdleConnsPerHost   = 10
	idleConnTimeout       = 90 * time.Second
	tlsHandshakeTimeout   = 10 * time.Second
	expectContinueTimeout = 1 * time.Second
)

// Config holds fetcher settings.
type Config struct {
	UserAgent      string
	RequestTimeout time.Duration
	MaxBodyBytes   int64
	// MaxAttempts counts the first try. 1 disables retries.
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	// MinHostInterval spaces requests to the same host. Zero disables it.
	MinHostInterval time.Duration
}

// WithDefaults returns a copy of the config with zero values replaced by defaults.
func (c Config) WithDefaults() Config {
	if c.UserAgent == "" {
		c.UserAgent = defaultUserAgent
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = defaultRequestTimeout
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = defaultMaxBodyBytes
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = defaultMaxAttempts
	}
	if c.InitialDelay <= 0 {
		c.InitialDelay = defaultInitialDelay
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = defaultMaxDelay
	}
	return c
}

// NewHTTPClient builds the client used for listing requests. The timeout
// bounds each request including redirects and body read.
func NewHTTPClient(timeout time.Duration) *http.Client {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConnsPerHost:   maxIdleConnsPerHost,
		IdleConnTimeout:       idleConnTimeout,
		ResponseHeaderTimeout: timeout,
		TLSHandshakeTimeout:   tlsHandshakeTimeout,
		ExpectContinueTimeout: expectContinueTimeout,
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}

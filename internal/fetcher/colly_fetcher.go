package fetcher

import (
	"bytes"
	"context"
	"errors"
	"strings"

	"github.com/gocolly/colly/v2"

	"github.com/jonesrussell/north-cloud/newswatch/internal/logger"
)

// CollyFetcher implements PageFetcher on top of a colly collector. It shares
// the retry policy and per-host spacing of HTTPFetcher.
type CollyFetcher struct {
	cfg     Config
	limiter *hostLimiter
	log     logger.Logger
}

// NewCollyFetcher creates a colly backed fetcher.
func NewCollyFetcher(cfg Config, log logger.Logger) *CollyFetcher {
	cfg = cfg.WithDefaults()
	return &CollyFetcher{
		cfg:     cfg,
		limiter: newHostLimiter(cfg.MinHostInterval),
		log:     log,
	}
}

// Fetch visits url, retrying transient failures. A failed visit is
// returned as a classified *FetchError.
func (f *CollyFetcher) Fetch(ctx context.Context, url string) (*Page, error) {
	return withRetry(ctx, f.cfg, f.log, url, func() (*Page, error) {
		return f.visit(ctx, url)
	})
}

// visit runs a single request on a fresh collector.
func (f *CollyFetcher) visit(ctx context.Context, url string) (*Page, error) {
	if err := f.limiter.wait(ctx, url); err != nil {
		return nil, err
	}

	c := colly.NewCollector(
		colly.StdlibContext(ctx),
		colly.UserAgent(f.cfg.UserAgent),
		colly.MaxBodySize(int(f.cfg.MaxBodyBytes)),
		colly.AllowURLRevisit(),
	)
	c.SetRequestTimeout(f.cfg.RequestTimeout)

	var (
		page     *Page
		visitErr error
	)

	c.OnResponse(func(r *colly.Response) {
		contentType := r.Headers.Get("Content-Type")
		body, err := collyBody(r.Body, contentType)
		if err != nil {
			visitErr = err
			return
		}

		page = &Page{
			URL:         r.Request.URL.String(),
			StatusCode:  r.StatusCode,
			Body:        body,
			ContentType: contentType,
		}
	})

	c.OnError(func(r *colly.Response, err error) {
		if r != nil && r.StatusCode > 0 {
			visitErr = ClassifyHTTPStatus(r.StatusCode, url)
			return
		}
		visitErr = ClassifyNetworkError(err, url)
	})

	if err := c.Visit(url); err != nil && visitErr == nil {
		visitErr = ClassifyNetworkError(err, url)
	}
	c.Wait()

	if visitErr != nil {
		f.log.Debug("Colly visit failed", logger.URL(url), logger.Error(visitErr))
		return nil, visitErr
	}
	if page == nil {
		return nil, ClassifyNetworkError(errors.New("no response"), url)
	}

	return page, nil
}

// collyBody returns body as UTF-8. Colly already converts bodies whose
// Content-Type names a charset; the rest are decoded from a BOM or meta tag.
func collyBody(body []byte, contentType string) ([]byte, error) {
	if strings.Contains(strings.ToLower(contentType), "charset=") {
		return bytes.ToValidUTF8(body, []byte("�")), nil
	}
	return toUTF8(body, contentType)
}

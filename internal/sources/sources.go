// Package sources turns news listing pages into article entries. Each
// source kind is an Adapter variant built from a config.SourceConfig.
package sources

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/jonesrussell/north-cloud/newswatch/internal/config"
	"github.com/jonesrussell/north-cloud/newswatch/internal/domain"
	"github.com/jonesrussell/north-cloud/newswatch/internal/fetcher"
	"github.com/jonesrussell/north-cloud/newswatch/internal/logger"
)

// Adapter fetches the current listing of one news source.
//
// Fetch returns every entry it could extract, in page order then in-page
// order. A non-nil error is diagnostic: it joins page level failures
// (*fetcher.FetchError, ErrParse, ErrEmptyListing) and may accompany a
// partial result.
type Adapter interface {
	Name() string
	Fetch(ctx context.Context) ([]domain.Article, error)
}

var (
	// ErrEmptyListing is reported for a page that yielded no cards.
	ErrEmptyListing = errors.New("no articles found on page")
	// ErrParse is reported for a page whose body could not be parsed.
	ErrParse = errors.New("parse listing")
	// ErrUnknownKind is returned by New for an unregistered source kind.
	ErrUnknownKind = errors.New("unknown source kind")
)

// Factory builds an Adapter for one configured source.
type Factory func(cfg config.SourceConfig, f fetcher.PageFetcher, log logger.Logger) (Adapter, error)

var factories = map[string]Factory{
	config.KindCM7:           NewCM7,
	config.KindPortalHolanda: NewPortalHolanda,
	config.KindSelector:      NewSelector,
	config.KindFeed:          NewFeed,
}

// New builds the adapter registered for cfg.Kind.
func New(cfg config.SourceConfig, f fetcher.PageFetcher, log logger.Logger) (Adapter, error) {
	factory, ok := factories[cfg.Kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, cfg.Kind)
	}

	adapter, err := factory(cfg, f, log.With(logger.Source(cfg.Name)))
	if err != nil {
		return nil, fmt.Errorf("source %q: %w", cfg.Name, err)
	}
	return adapter, nil
}

// Kinds lists the registered source kinds.
func Kinds() []string {
	kinds := make([]string, 0, len(factories))
	for kind := range factories {
		kinds = append(kinds, kind)
	}
	return kinds
}

// resolveURL resolves href against base. It rejects empty, fragment-only
// and non-http(s) links.
func resolveURL(base *url.URL, href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return "", false
	}

	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}

	resolved := ref
	if base != nil {
		resolved = base.ResolveReference(ref)
	}
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return "", false
	}
	if resolved.Host == "" {
		return "", false
	}

	resolved.Fragment = ""
	return resolved.String(), true
}

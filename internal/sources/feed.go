package sources

import (
	"context"
	"fmt"
	"net/url"
	"regexp"

	"github.com/mmcdole/gofeed"

	"github.com/jonesrussell/north-cloud/newswatch/internal/config"
	"github.com/jonesrussell/north-cloud/newswatch/internal/domain"
	"github.com/jonesrussell/north-cloud/newswatch/internal/fetcher"
	"github.com/jonesrussell/north-cloud/newswatch/internal/logger"
)

// xmlEncodingDecl matches the encoding attribute of an XML prolog. Bodies
// arrive already decoded to UTF-8, so the declaration is rewritten before
// parsing to stop the XML decoder from converting a second time.
var xmlEncodingDecl = regexp.MustCompile(`^(\s*<\?xml[^>]*encoding=["'])[^"']+(["'])`)

// FeedAdapter reads an RSS or Atom feed as a listing.
type FeedAdapter struct {
	name    string
	feedURL string
	fetcher fetcher.PageFetcher
	log     logger.Logger
}

// NewFeed builds a feed adapter for cfg.BaseURL.
func NewFeed(cfg config.SourceConfig, f fetcher.PageFetcher, log logger.Logger) (Adapter, error) {
	return &FeedAdapter{
		name:    cfg.Name,
		feedURL: cfg.BaseURL,
		fetcher: f,
		log:     log,
	}, nil
}

// Name returns the source name.
func (a *FeedAdapter) Name() string {
	return a.name
}

// Fetch returns the feed items in document order. Items without a title or
// link are skipped.
func (a *FeedAdapter) Fetch(ctx context.Context) ([]domain.Article, error) {
	page, err := a.fetcher.Fetch(ctx, a.feedURL)
	if err != nil {
		a.log.Warn("Failed to fetch feed",
			logger.URL(a.feedURL),
			logger.String("error_type", string(fetcher.TypeOf(err))),
			logger.Error(err),
		)
		return nil, err
	}

	body := xmlEncodingDecl.ReplaceAllString(string(page.Body), "${1}UTF-8${2}")

	feed, err := gofeed.NewParser().ParseString(body)
	if err != nil {
		a.log.Warn("Failed to parse feed", logger.URL(a.feedURL), logger.Error(err))
		return nil, fmt.Errorf("%w %s: %w", ErrParse, a.feedURL, err)
	}

	if len(feed.Items) == 0 {
		a.log.Info("No articles found in feed", logger.URL(a.feedURL))
		return nil, fmt.Errorf("%w: %s", ErrEmptyListing, a.feedURL)
	}

	base, _ := url.Parse(page.URL)
	articles := make([]domain.Article, 0, len(feed.Items))

	for _, item := range feed.Items {
		link, ok := resolveURL(base, item.Link)
		if !ok {
			continue
		}
		if article, ok := domain.NewArticle(a.name, item.Title, link); ok {
			articles = append(articles, article)
		}
	}

	return articles, nil
}

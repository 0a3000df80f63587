package sources

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonesrussell/north-cloud/newswatch/internal/config"
	"github.com/jonesrussell/north-cloud/newswatch/internal/domain"
	"github.com/jonesrussell/north-cloud/newswatch/internal/fetcher"
	"github.com/jonesrussell/north-cloud/newswatch/internal/logger"
)

// Selectors locate article cards on an HTML listing page. An empty Link
// means the first a[href] inside the card.
type Selectors struct {
	Card  string
	Title string
	Link  string
}

const defaultLinkSelector = "a[href]"

// ListingAdapter scrapes article cards from a fixed list of HTML pages.
type ListingAdapter struct {
	name      string
	pages     []string
	selectors Selectors
	fetcher   fetcher.PageFetcher
	log       logger.Logger
}

// NewListingAdapter creates an adapter over the given page URLs.
func NewListingAdapter(
	name string,
	pages []string,
	selectors Selectors,
	f fetcher.PageFetcher,
	log logger.Logger,
) *ListingAdapter {
	if selectors.Link == "" {
		selectors.Link = defaultLinkSelector
	}

	return &ListingAdapter{
		name:      name,
		pages:     pages,
		selectors: selectors,
		fetcher:   f,
		log:       log,
	}
}

// CM7 listing markup.
const (
	cm7CardSelector  = "article.cm7-card"
	cm7TitleSelector = "h2.cm7-card-title"
)

// NewCM7 builds the paginated CM7 Brasil adapter: <base_url>/page/<n>/.
func NewCM7(cfg config.SourceConfig, f fetcher.PageFetcher, log logger.Logger) (Adapter, error) {
	base := strings.TrimRight(cfg.BaseURL, "/")
	pages := make([]string, 0, cfg.PageCount)
	for n := 1; n <= cfg.PageCount; n++ {
		pages = append(pages, fmt.Sprintf("%s/page/%d/", base, n))
	}

	return NewListingAdapter(cfg.Name, pages, Selectors{
		Card:  cm7CardSelector,
		Title: cm7TitleSelector,
	}, f, log), nil
}

// Portal do Holanda listing markup.
const (
	holandaListingPath  = "/policial"
	holandaCardSelector = "div.columns"
	holandaLinkSelector = "h3.destaque.titulo a"
)

// NewPortalHolanda builds the single page Portal do Holanda adapter.
func NewPortalHolanda(cfg config.SourceConfig, f fetcher.PageFetcher, log logger.Logger) (Adapter, error) {
	page := strings.TrimRight(cfg.BaseURL, "/") + holandaListingPath

	return NewListingAdapter(cfg.Name, []string{page}, Selectors{
		Card:  holandaCardSelector,
		Title: holandaLinkSelector,
		Link:  holandaLinkSelector,
	}, f, log), nil
}

const pagePlaceholder = "{page}"

// NewSelector builds an adapter from configured selectors. The page URL
// template may contain {page}; without it only one page is fetched.
func NewSelector(cfg config.SourceConfig, f fetcher.PageFetcher, log logger.Logger) (Adapter, error) {
	sel := cfg.Selectors
	if sel.PageURL == "" || sel.Card == "" || sel.Title == "" {
		return nil, config.ErrMissingSelectors
	}

	var pages []string
	if strings.Contains(sel.PageURL, pagePlaceholder) {
		for n := 1; n <= cfg.PageCount; n++ {
			pages = append(pages, strings.ReplaceAll(sel.PageURL, pagePlaceholder, strconv.Itoa(n)))
		}
	} else {
		pages = []string{sel.PageURL}
	}

	return NewListingAdapter(cfg.Name, pages, Selectors{
		Card:  sel.Card,
		Title: sel.Title,
		Link:  sel.Link,
	}, f, log), nil
}

// Name returns the source name.
func (a *ListingAdapter) Name() string {
	return a.name
}

// Pages returns the listing URLs fetched on every call.
func (a *ListingAdapter) Pages() []string {
	return a.pages
}

// Fetch fetches every page in order. A failing page is logged and skipped.
func (a *ListingAdapter) Fetch(ctx context.Context) ([]domain.Article, error) {
	var (
		articles []domain.Article
		errs     []error
	)

	for i, pageURL := range a.pages {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		found, err := a.fetchPage(ctx, pageURL)
		if err != nil {
			a.logPageError(i+1, pageURL, err)
			errs = append(errs, fmt.Errorf("page %d: %w", i+1, err))
		}
		articles = append(articles, found...)
	}

	return articles, errors.Join(errs...)
}

func (a *ListingAdapter) fetchPage(ctx context.Context, pageURL string) ([]domain.Article, error) {
	page, err := a.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.Body))
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrParse, pageURL, err)
	}

	base, err := url.Parse(page.URL)
	if err != nil {
		base, _ = url.Parse(pageURL)
	}

	cards := doc.Find(a.selectors.Card)
	if cards.Length() == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyListing, pageURL)
	}

	articles := make([]domain.Article, 0, cards.Length())
	skipped := 0

	cards.Each(func(_ int, card *goquery.Selection) {
		title := card.Find(a.selectors.Title).First().Text()
		href, _ := card.Find(a.selectors.Link).First().Attr("href")

		link, ok := resolveURL(base, href)
		if !ok {
			skipped++
			return
		}

		article, ok := domain.NewArticle(a.name, title, link)
		if !ok {
			skipped++
			return
		}
		articles = append(articles, article)
	})

	a.log.Debug("Parsed listing page",
		logger.URL(pageURL),
		logger.Int("cards", cards.Length()),
		logger.Int("articles", len(articles)),
		logger.Int("skipped", skipped),
	)

	return articles, nil
}

func (a *ListingAdapter) logPageError(pageNum int, pageURL string, err error) {
	fields := []logger.Field{
		logger.Int("page", pageNum),
		logger.URL(pageURL),
		logger.Error(err),
	}

	switch {
	case errors.Is(err, ErrEmptyListing):
		a.log.Info("No articles found on page", fields...)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		a.log.Debug("Listing page fetch cancelled", fields...)
	default:
		if t := fetcher.TypeOf(err); t != "" {
			fields = append(fields, logger.String("error_type", string(t)))
		}
		a.log.Warn("Failed to fetch listing page", fields...)
	}
}

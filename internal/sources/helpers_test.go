package sources_test

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/jonesrussell/north-cloud/newswatch/internal/fetcher"
)

// stubFetcher serves canned bodies keyed by URL. Unknown URLs return a 404 FetchError.
type stubFetcher struct {
	mu        sync.Mutex
	pages     map[string]string
	errs      map[string]error
	requested []string
}

func newStubFetcher() *stubFetcher {
	return &stubFetcher{pages: make(map[string]string), errs: make(map[string]error)}
}

func (s *stubFetcher) withPage(url, body string) *stubFetcher {
	s.pages[url] = body
	return s
}

func (s *stubFetcher) withError(url string, err error) *stubFetcher {
	s.errs[url] = err
	return s
}

func (s *stubFetcher) Fetch(_ context.Context, url string) (*fetcher.Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.requested = append(s.requested, url)
	if err, ok := s.errs[url]; ok {
		return nil, err
	}
	body, ok := s.pages[url]
	if !ok {
		return nil, fetcher.ClassifyHTTPStatus(http.StatusNotFound, url)
	}
	return &fetcher.Page{URL: url, StatusCode: http.StatusOK, Body: []byte(body)}, nil
}

func cm7Card(title, href string) string {
	return fmt.Sprintf(`<article class="cm7-card"><a href="%s"><img src="x.jpg"></a>
<h2 class="h3 cm7-card-title">%s</h2></article>`, href, title)
}

func htmlPage(inner ...string) string {
	body := "<html><body>"
	for _, s := range inner {
		body += s
	}
	return body + "</body></html>"
}

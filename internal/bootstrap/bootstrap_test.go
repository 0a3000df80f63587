package bootstrap_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/newswatch/internal/bootstrap"
	"github.com/jonesrussell/north-cloud/newswatch/internal/config"
	"github.com/jonesrussell/north-cloud/newswatch/internal/fetcher"
	"github.com/jonesrussell/north-cloud/newswatch/internal/logger"
	"github.com/jonesrussell/north-cloud/newswatch/internal/metrics"
)

const cm7Listing = `<html><body>
<article class="cm7-card"><h2 class="cm7-card-title">Operação prende suspeito</h2><a href="/noticias/policia/operacao">ler</a></article>
<article class="cm7-card"><h2 class="cm7-card-title">Acidente na BR-174</h2><a href="/noticias/policia/acidente">ler</a></article>
</body></html>`

func newListingServer(t *testing.T) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, cm7Listing)
	}))
	t.Cleanup(srv.Close)

	return srv
}

func testConfig(t *testing.T, baseURL string) *config.Config {
	t.Helper()

	cfg := &config.Config{
		Sources: []config.SourceConfig{
			{Name: "CM7", Kind: config.KindCM7, BaseURL: baseURL, PageCount: 1},
		},
		Store: config.StoreConfig{Path: filepath.Join(t.TempDir(), "news.db")},
	}
	config.SetDefaults(cfg)
	require.NoError(t, cfg.Validate())

	return cfg
}

func TestBuild_RunsCycleEndToEnd(t *testing.T) {
	t.Parallel()

	srv := newListingServer(t)
	deps := &bootstrap.CommandDeps{Logger: logger.NewNop(), Config: testConfig(t, srv.URL)}

	app, err := bootstrap.Build(context.Background(), deps)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })

	assert.Nil(t, app.Server)

	first, err := app.Scheduler.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, first.Collected)
	assert.Equal(t, 2, first.New)
	assert.Equal(t, 2, first.Notified)

	second, err := app.Scheduler.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, second.Collected)
	assert.Zero(t, second.New)

	recent, err := app.Store.Articles.RecentN(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, srv.URL+"/noticias/policia/acidente", recent[0].Link)
}

func TestBuild_SameTitleFromTwoSources(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/cm7/page/1/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, `<article class="cm7-card"><h2 class="cm7-card-title">Fire downtown</h2><a href="/cm7/fire">ler</a></article>`)
	})
	mux.HandleFunc("/daily/news", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, `<ul>
<li class="item"><h3>Fire downtown</h3><a href="/daily/fire">more</a></li>
<li class="item"><h3>Flood warning</h3><a href="/daily/flood">more</a></li>
</ul>`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	cfg := testConfig(t, srv.URL+"/cm7")
	cfg.Sources = append(cfg.Sources, config.SourceConfig{
		Name:      "Daily",
		Kind:      config.KindSelector,
		PageCount: 1,
		Selectors: config.SelectorsConfig{PageURL: srv.URL + "/daily/news", Card: "li.item", Title: "h3"},
	})
	require.NoError(t, cfg.Validate())

	app, err := bootstrap.Build(context.Background(), &bootstrap.CommandDeps{Logger: logger.NewNop(), Config: cfg})
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })

	first, err := app.Scheduler.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, first.Collected)
	assert.Equal(t, 3, first.New)
	assert.Equal(t, 3, first.Notified)

	repeat, err := app.Scheduler.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, repeat.Collected)
	assert.Zero(t, repeat.New)
	assert.Zero(t, repeat.Notified)

	count, err := app.Store.Articles.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	recent, err := app.Store.Articles.RecentN(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, srv.URL+"/daily/flood", recent[0].Link)
	assert.Equal(t, "Flood warning", recent[0].Title)
	assert.Equal(t, srv.URL+"/daily/fire", recent[1].Link)
	assert.Equal(t, "Fire downtown", recent[1].Title)
	assert.Equal(t, "Daily", recent[1].Source)
}

func TestBuild_WithServer(t *testing.T) {
	t.Parallel()

	srv := newListingServer(t)
	cfg := testConfig(t, srv.URL)
	cfg.Server.Enabled = true

	app, err := bootstrap.Build(context.Background(), &bootstrap.CommandDeps{Logger: logger.NewNop(), Config: cfg})
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })

	require.NotNil(t, app.Server)

	w := httptest.NewRecorder()
	app.Server.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", http.NoBody))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSetupFetcher_Engine(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t, "https://example.com").Crawler

	_, isHTTP := bootstrap.SetupFetcher(cfg, logger.NewNop()).(*fetcher.HTTPFetcher)
	assert.True(t, isHTTP)

	cfg.Engine = config.EngineColly
	_, isColly := bootstrap.SetupFetcher(cfg, logger.NewNop()).(*fetcher.CollyFetcher)
	assert.True(t, isColly)
}

func TestSetupRegistry_SkipsDisabledSources(t *testing.T) {
	t.Parallel()

	disabled := false
	cfg := testConfig(t, "https://example.com")
	cfg.Sources = append(cfg.Sources, config.SourceConfig{
		Name: "Off", Kind: config.KindCM7, BaseURL: "https://example.org", PageCount: 1, Enabled: &disabled,
	})

	reg, err := bootstrap.SetupRegistry(cfg, bootstrap.SetupFetcher(cfg.Crawler, logger.NewNop()), metrics.Nop{}, logger.NewNop())

	require.NoError(t, err)
	assert.Equal(t, []string{"CM7"}, reg.Names())
}

func TestSetupNotifiers(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)

	cfg := testConfig(t, "https://example.com").Notify
	cfg.Redis.Enabled = true
	cfg.Redis.Address = mr.Addr()

	components, err := bootstrap.SetupNotifiers(context.Background(), cfg, metrics.Nop{}, logger.NewNop())

	require.NoError(t, err)
	assert.Equal(t, []string{"log", "redis"}, components.Dispatcher.Sinks())
}

func TestSetupNotifiers_UnreachableRedis(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t, "https://example.com").Notify
	cfg.Redis.Enabled = true
	cfg.Redis.Address = "127.0.0.1:1"

	_, err := bootstrap.SetupNotifiers(context.Background(), cfg, metrics.Nop{}, logger.NewNop())

	require.Error(t, err)
}

func TestSetupScheduler_InvalidSchedule(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t, "https://example.com").Crawler
	cfg.Schedule = "every now and then"

	_, err := bootstrap.SetupScheduler(cfg, nil, nil, nil, metrics.Nop{}, logger.NewNop())

	require.Error(t, err)
}

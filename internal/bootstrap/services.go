package bootstrap

import (
	"context"
	"fmt"

	"github.com/jonesrussell/north-cloud/newswatch/internal/circuitbreaker"
	"github.com/jonesrussell/north-cloud/newswatch/internal/config"
	"github.com/jonesrussell/north-cloud/newswatch/internal/database"
	"github.com/jonesrussell/north-cloud/newswatch/internal/fetcher"
	"github.com/jonesrussell/north-cloud/newswatch/internal/logger"
	"github.com/jonesrussell/north-cloud/newswatch/internal/metrics"
	"github.com/jonesrussell/north-cloud/newswatch/internal/notify"
	"github.com/jonesrussell/north-cloud/newswatch/internal/registry"
	"github.com/jonesrussell/north-cloud/newswatch/internal/scheduler"
	"github.com/jonesrussell/north-cloud/newswatch/internal/sources"
)

// SetupFetcher builds the page fetcher selected by cfg.Engine.
func SetupFetcher(cfg config.CrawlerConfig, log logger.Logger) fetcher.PageFetcher {
	fcfg := fetcher.Config{
		UserAgent:       cfg.UserAgent,
		RequestTimeout:  cfg.RequestTimeout,
		MaxBodyBytes:    cfg.MaxBodyBytes,
		MaxAttempts:     cfg.Retry.MaxAttempts,
		InitialDelay:    cfg.Retry.InitialDelay,
		MaxDelay:        cfg.Retry.MaxDelay,
		MinHostInterval: cfg.MinHostInterval,
	}.WithDefaults()

	if cfg.Engine == config.EngineColly {
		log.Info("Using colly page fetcher")
		return fetcher.NewCollyFetcher(fcfg, logger.WithComponent(log, "fetcher"))
	}

	return fetcher.NewHTTPFetcher(fetcher.NewHTTPClient(fcfg.RequestTimeout), fcfg, logger.WithComponent(log, "fetcher"))
}

// SetupRegistry builds one adapter per enabled source.
func SetupRegistry(
	cfg *config.Config,
	pages fetcher.PageFetcher,
	m metrics.Recorder,
	log logger.Logger,
) (*registry.Registry, error) {
	reg := registry.New(logger.WithComponent(log, "registry"),
		registry.WithMaxConcurrency(cfg.Crawler.MaxConcurrency),
		registry.WithMetrics(m),
		registry.WithCircuitBreaker(circuitbreaker.Config{
			FailureThreshold: cfg.Crawler.Breaker.FailureThreshold,
			OpenTimeout:      cfg.Crawler.Breaker.OpenTimeout,
		}),
	)

	for _, src := range cfg.EnabledSources() {
		adapter, err := sources.New(src, pages, log)
		if err != nil {
			return nil, fmt.Errorf("source %q: %w", src.Name, err)
		}
		if err = reg.Register(adapter); err != nil {
			return nil, err
		}
	}

	log.Info("Sources registered", logger.Strings("sources", reg.Names()))

	return reg, nil
}

// NotifierComponents holds the dispatcher and the sink resources to release.
type NotifierComponents struct {
	Dispatcher *notify.Dispatcher
	closers    []func() error
}

// SetupNotifiers builds every enabled sink. A sink that cannot start is a
// startup error.
func SetupNotifiers(
	ctx context.Context,
	cfg config.NotifyConfig,
	m metrics.Recorder,
	log logger.Logger,
) (*NotifierComponents, error) {
	components := &NotifierComponents{}
	var sinks []notify.Notifier

	if cfg.Log.IsEnabled() {
		sinks = append(sinks, notify.NewLogNotifier(log))
	}

	if cfg.Telegram.Enabled {
		tg, err := notify.NewTelegramNotifier(notify.TelegramConfig{
			Token:    cfg.Telegram.Token,
			ChatID:   cfg.Telegram.ChatID,
			Endpoint: cfg.Telegram.Endpoint,
		})
		if err != nil {
			return nil, fmt.Errorf("telegram sink: %w", err)
		}
		sinks = append(sinks, tg)
	}

	if cfg.Redis.Enabled {
		client, err := notify.NewRedisClient(ctx, notify.RedisConfig{
			Address:  cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, fmt.Errorf("redis sink: %w", err)
		}
		components.closers = append(components.closers, client.Close)
		sinks = append(sinks, notify.NewRedisNotifier(client, cfg.Redis.Channel))
	}

	components.Dispatcher = notify.NewDispatcher(logger.WithComponent(log, "notify"), m, sinks...)
	log.Info("Notification sinks ready", logger.Strings("sinks", components.Dispatcher.Sinks()))

	return components, nil
}

// SetupScheduler wires the crawl cycle with the configured schedule.
func SetupScheduler(
	cfg config.CrawlerConfig,
	collector scheduler.Collector,
	store *database.ArticleStore,
	dispatcher scheduler.Dispatcher,
	m metrics.Recorder,
	log logger.Logger,
) (*scheduler.Scheduler, error) {
	schedule, err := scheduler.ParseSchedule(cfg.Schedule, cfg.Interval())
	if err != nil {
		return nil, err
	}

	return scheduler.New(collector, store, dispatcher, logger.WithComponent(log, "scheduler"),
		scheduler.WithSchedule(schedule),
		scheduler.WithMetrics(m),
	), nil
}

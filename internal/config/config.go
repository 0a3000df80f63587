// Package config loads and validates the newswatch service configuration.
//
// Values come from a YAML file, then .env files and `env` tagged
// environment variables, then defaults. Environment always wins.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/jonesrussell/north-cloud/newswatch/internal/logger"
)

// Source kinds understood by the sources package.
const (
	KindCM7           = "cm7"
	KindPortalHolanda = "portal_holanda"
	KindSelector      = "selector"
	KindFeed          = "feed"
)

// Fetch engines.
const (
	EngineHTTP  = "http"
	EngineColly = "colly"
)

// Defaults.
const (
	DefaultIntervalSeconds  = 600
	DefaultUserAgent        = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/110.0.0.0 Safari/537.36"
	DefaultRequestTimeout   = 30 * time.Second
	DefaultMaxConcurrency   = 4
	DefaultRetryAttempts    = 3
	DefaultRetryDelay       = 500 * time.Millisecond
	DefaultRetryMaxDelay    = 10 * time.Second
	DefaultFailureThreshold = 5
	DefaultOpenTimeout      = 30 * time.Minute
	DefaultStorePath        = "news.db"
	DefaultRedisChannel     = "newswatch:articles"
	DefaultServerPort       = 8090
	DefaultMaxBodyBytes     = 10 * 1024 * 1024
)

// Config is the root configuration document.
type Config struct {
	Crawler CrawlerConfig  `yaml:"crawler"`
	Sources []SourceConfig `yaml:"sources"`
	Store   StoreConfig    `yaml:"store"`
	Notify  NotifyConfig   `yaml:"notify"`
	Server  ServerConfig   `yaml:"server"`
	Logging logger.Config  `yaml:"logging"`
}

// CrawlerConfig controls the crawl cycle and outbound requests.
type CrawlerConfig struct {
	// IntervalSeconds is the delay between two cycles.
	IntervalSeconds int `env:"NEWSWATCH_INTERVAL_SECONDS" yaml:"interval_seconds"`
	// Schedule is an optional cron expression that replaces IntervalSeconds.
	Schedule string `env:"NEWSWATCH_SCHEDULE" yaml:"schedule"`
	// UserAgent is sent on every request.
	UserAgent string `env:"NEWSWATCH_USER_AGENT" yaml:"user_agent"`
	// RequestTimeout bounds each HTTP call.
	RequestTimeout time.Duration `env:"NEWSWATCH_REQUEST_TIMEOUT" yaml:"request_timeout"`
	// MinHostInterval spaces two requests to the same host. Zero disables it.
	MinHostInterval time.Duration `env:"NEWSWATCH_MIN_HOST_INTERVAL" yaml:"min_host_interval"`
	// MaxConcurrency caps the number of sources fetched at once.
	MaxConcurrency int `env:"NEWSWATCH_MAX_CONCURRENCY" yaml:"max_concurrency"`
	// MaxBodyBytes caps the size of a listing page.
	MaxBodyBytes int64 `yaml:"max_body_bytes"`
	// Engine selects the page fetcher: "http" or "colly".
	Engine  string        `env:"NEWSWATCH_ENGINE" yaml:"engine"`
	Retry   RetryConfig   `yaml:"retry"`
	Breaker BreakerConfig `yaml:"breaker"`
}

// RetryConfig controls retries of transient page failures.
type RetryConfig struct {
	MaxAttempts  int           `yaml:"max_attempts"`
	InitialDelay time.Duration `yaml:"initial_delay"`
	MaxDelay     time.Duration `yaml:"max_delay"`
}

// BreakerConfig controls the per-source circuit breaker.
type BreakerConfig struct {
	FailureThreshold int           `yaml:"failure_threshold"`
	OpenTimeout      time.Duration `yaml:"open_timeout"`
}

// SourceConfig describes one listing to watch.
type SourceConfig struct {
	Name      string          `yaml:"name"`
	Kind      string          `yaml:"kind"`
	BaseURL   string          `yaml:"base_url"`
	PageCount int             `yaml:"page_count"`
	Enabled   *bool           `yaml:"enabled"`
	Selectors SelectorsConfig `yaml:"selectors"`
}

// SelectorsConfig holds CSS selectors for the generic selector kind.
// PageURL may contain "{page}" which is replaced by the page number. An
// empty Link selects the first a[href] inside the card.
type SelectorsConfig struct {
	PageURL string `yaml:"page_url"`
	Card    string `yaml:"card"`
	Title   string `yaml:"title"`
	Link    string `yaml:"link"`
}

// IsEnabled reports whether the source takes part in crawl cycles.
// Sources are enabled unless explicitly disabled.
func (s SourceConfig) IsEnabled() bool {
	return s.Enabled == nil || *s.Enabled
}

// StoreConfig locates the article database. A postgres:// or postgresql://
// DSN selects Postgres, anything else is a SQLite file path.
type StoreConfig struct {
	Path string `env:"NEWSWATCH_STORE_PATH" yaml:"path"`
}

// NotifyConfig enables notification sinks.
type NotifyConfig struct {
	Log      LogSinkConfig      `yaml:"log"`
	Telegram TelegramSinkConfig `yaml:"telegram"`
	Redis    RedisSinkConfig    `yaml:"redis"`
}

// LogSinkConfig controls the log sink. It is on unless disabled.
type LogSinkConfig struct {
	Enabled *bool `yaml:"enabled"`
}

// IsEnabled reports whether the log sink is active.
func (c LogSinkConfig) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// TelegramSinkConfig configures the Telegram bot sink.
type TelegramSinkConfig struct {
	Enabled bool   `env:"NEWSWATCH_TELEGRAM_ENABLED" yaml:"enabled"`
	Token   string `env:"NEWSWATCH_TELEGRAM_TOKEN"   yaml:"token"`
	ChatID  int64  `env:"NEWSWATCH_TELEGRAM_CHAT_ID" yaml:"chat_id"`
	// Endpoint overrides the Bot API endpoint format.
	Endpoint string `yaml:"endpoint"`
}

// RedisSinkConfig configures the Redis pub/sub sink.
type RedisSinkConfig struct {
	Enabled  bool   `env:"NEWSWATCH_REDIS_ENABLED"  yaml:"enabled"`
	Address  string `env:"NEWSWATCH_REDIS_ADDRESS"  yaml:"address"`
	Password string `env:"NEWSWATCH_REDIS_PASSWORD" yaml:"password"`
	DB       int    `yaml:"db"`
	Channel  string `yaml:"channel"`
}

// ServerConfig configures the read-only HTTP API.
type ServerConfig struct {
	Enabled bool `env:"NEWSWATCH_SERVER_ENABLED" yaml:"enabled"`
	Port    int  `env:"NEWSWATCH_SERVER_PORT"    yaml:"port"`
}

// Validation errors.
var (
	ErrNoEnabledSources    = errors.New("no enabled sources configured")
	ErrDuplicateSourceName = errors.New("duplicate source name")
	ErrUnknownSourceKind   = errors.New("unknown source kind")
	ErrInvalidBaseURL      = errors.New("base_url must be an absolute http(s) URL")
	ErrInvalidPageCount    = errors.New("page_count must be at least 1")
	ErrMissingSelectors    = errors.New("selector sources need page_url, card and title selectors")
	ErrInvalidInterval     = errors.New("interval_seconds must be positive")
	ErrInvalidSchedule     = errors.New("invalid cron schedule")
	ErrInvalidEngine       = errors.New("engine must be http or colly")
	ErrMissingStorePath    = errors.New("store path is required")
	ErrTelegramCredentials = errors.New("telegram sink needs token and chat_id")
	ErrMissingRedisAddress = errors.New("redis sink needs an address")
	ErrInvalidLogLevel     = errors.New("invalid log level")
	ErrInvalidLogEncoding  = errors.New("log encoding must be json or console")
	ErrInvalidServerPort   = errors.New("server port must be between 1 and 65535")
)

// Load resolves, reads, defaults and validates the configuration.
func Load(path string) (*Config, error) {
	cfg, err := LoadWithDefaults(ResolvePath(path), SetDefaults)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if err = cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// DefaultSources returns the listings watched when none are configured.
func DefaultSources() []SourceConfig {
	return []SourceConfig{
		{Name: "CM7", Kind: KindCM7, BaseURL: "https://cm7brasil.com/noticias/policia", PageCount: 2},
		{Name: "PortalHolanda", Kind: KindPortalHolanda, BaseURL: "https://www.portaldoholanda.com.br", PageCount: 1},
	}
}

// SetDefaults fills zero values.
func SetDefaults(cfg *Config) {
	c := &cfg.Crawler
	if c.IntervalSeconds == 0 {
		c.IntervalSeconds = DefaultIntervalSeconds
	}
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = DefaultRequestTimeout
	}
	if c.MaxConcurrency <= 0 {
		c.MaxConcurrency = DefaultMaxConcurrency
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if c.Engine == "" {
		c.Engine = EngineHTTP
	}
	if c.Retry.MaxAttempts == 0 {
		c.Retry.MaxAttempts = DefaultRetryAttempts
	}
	if c.Retry.InitialDelay == 0 {
		c.Retry.InitialDelay = DefaultRetryDelay
	}
	if c.Retry.MaxDelay == 0 {
		c.Retry.MaxDelay = DefaultRetryMaxDelay
	}
	if c.Breaker.FailureThreshold == 0 {
		c.Breaker.FailureThreshold = DefaultFailureThreshold
	}
	if c.Breaker.OpenTimeout == 0 {
		c.Breaker.OpenTimeout = DefaultOpenTimeout
	}

	if len(cfg.Sources) == 0 {
		cfg.Sources = DefaultSources()
	}
	for i := range cfg.Sources {
		if cfg.Sources[i].PageCount == 0 {
			cfg.Sources[i].PageCount = 1
		}
	}

	if cfg.Store.Path == "" {
		cfg.Store.Path = DefaultStorePath
	}
	if cfg.Notify.Redis.Channel == "" {
		cfg.Notify.Redis.Channel = DefaultRedisChannel
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultServerPort
	}

	cfg.Logging.SetDefaults()
}

// Interval returns the fixed cycle interval.
func (c *CrawlerConfig) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds) * time.Second
}

// EnabledSources returns the sources that take part in crawl cycles.
func (c *Config) EnabledSources() []SourceConfig {
	enabled := make([]SourceConfig, 0, len(c.Sources))
	for _, src := range c.Sources {
		if src.IsEnabled() {
			enabled = append(enabled, src)
		}
	}
	return enabled
}

// Validate checks the whole configuration and reports every problem found.
func (c *Config) Validate() error {
	errs := c.validateSources()

	if c.Crawler.Schedule != "" {
		sched, err := cron.ParseStandard(c.Crawler.Schedule)
		switch {
		case err != nil:
			errs = append(errs, fmt.Errorf("%w %q: %w", ErrInvalidSchedule, c.Crawler.Schedule, err))
		case sched.Next(time.Now()).IsZero():
			errs = append(errs, fmt.Errorf("%w %q: never fires", ErrInvalidSchedule, c.Crawler.Schedule))
		}
	} else if c.Crawler.IntervalSeconds <= 0 {
		errs = append(errs, ErrInvalidInterval)
	}

	if c.Crawler.Engine != EngineHTTP && c.Crawler.Engine != EngineColly {
		errs = append(errs, fmt.Errorf("%w: %q", ErrInvalidEngine, c.Crawler.Engine))
	}
	if c.Store.Path == "" {
		errs = append(errs, ErrMissingStorePath)
	}
	if c.Notify.Telegram.Enabled && (c.Notify.Telegram.Token == "" || c.Notify.Telegram.ChatID == 0) {
		errs = append(errs, ErrTelegramCredentials)
	}
	if c.Notify.Redis.Enabled && c.Notify.Redis.Address == "" {
		errs = append(errs, ErrMissingRedisAddress)
	}
	if c.Server.Enabled && (c.Server.Port < 1 || c.Server.Port > 65535) {
		errs = append(errs, fmt.Errorf("%w: %d", ErrInvalidServerPort, c.Server.Port))
	}
	if !slices.Contains(logger.ValidLevels, c.Logging.Level) {
		errs = append(errs, fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.Logging.Level))
	}
	if c.Logging.Encoding != logger.EncodingJSON && c.Logging.Encoding != logger.EncodingConsole {
		errs = append(errs, fmt.Errorf("%w: %q", ErrInvalidLogEncoding, c.Logging.Encoding))
	}

	return errors.Join(errs...)
}

func (c *Config) validateSources() []error {
	var errs []error
	seen := make(map[string]struct{}, len(c.Sources))
	enabled := 0

	for _, src := range c.Sources {
		if _, dup := seen[src.Name]; dup {
			errs = append(errs, fmt.Errorf("source %q: %w", src.Name, ErrDuplicateSourceName))
		}
		seen[src.Name] = struct{}{}

		if !src.IsEnabled() {
			continue
		}
		enabled++

		if err := validateSource(src); err != nil {
			errs = append(errs, fmt.Errorf("source %q: %w", src.Name, err))
		}
	}

	if enabled == 0 {
		errs = append(errs, ErrNoEnabledSources)
	}
	return errs
}

func validateSource(src SourceConfig) error {
	switch src.Kind {
	case KindCM7, KindPortalHolanda, KindFeed:
	case KindSelector:
		sel := src.Selectors
		if sel.PageURL == "" || sel.Card == "" || sel.Title == "" {
			return ErrMissingSelectors
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownSourceKind, src.Kind)
	}

	if src.Kind != KindSelector && !isAbsoluteHTTP(src.BaseURL) {
		return fmt.Errorf("%w: %q", ErrInvalidBaseURL, src.BaseURL)
	}
	if src.PageCount < 1 {
		return ErrInvalidPageCount
	}
	return nil
}

func isAbsoluteHTTP(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

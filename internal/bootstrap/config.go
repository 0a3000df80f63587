package bootstrap

import (
	"errors"
	"fmt"

	"github.com/jonesrussell/north-cloud/newswatch/internal/config"
	"github.com/jonesrussell/north-cloud/newswatch/internal/logger"
)

var (
	errLoggerRequired = errors.New("logger is required")
	errConfigRequired = errors.New("config is required")
)

// Options carries the global CLI flags.
type Options struct {
	ConfigPath string
	Debug      bool
}

// CommandDeps holds the config and logger shared by every command.
type CommandDeps struct {
	Logger logger.Logger
	Config *config.Config
}

// NewCommandDeps loads the config and creates the logger.
func NewCommandDeps(opts Options) (*CommandDeps, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if opts.Debug {
		cfg.Logging.Level = "debug"
		cfg.Logging.Development = true
		cfg.Logging.Encoding = logger.EncodingConsole
	}

	log, err := logger.New(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	deps := &CommandDeps{
		Logger: log.With(logger.String("service", "newswatch")),
		Config: cfg,
	}

	if validateErr := deps.Validate(); validateErr != nil {
		return nil, fmt.Errorf("validate deps: %w", validateErr)
	}

	return deps, nil
}

// Validate ensures both dependencies are set.
func (d *CommandDeps) Validate() error {
	if d.Logger == nil {
		return errLoggerRequired
	}
	if d.Config == nil {
		return errConfigRequired
	}
	return nil
}

// Package bootstrap handles application initialization and lifecycle management
// for the newswatch service.
//
// The bootstrap process follows these phases:
//   - Phase 1: Config & Logger - Load configuration and create logger
//   - Phase 2: Store - Open the article database and ensure the schema
//   - Phase 3: Sources - Build the page fetcher, source adapters and registry
//   - Phase 4: Notifiers - Build the enabled notification sinks
//   - Phase 5: Scheduler - Wire the crawl cycle
//   - Phase 6: Server - Create the read API (if enabled)
//   - Phase 7: Run - Run cycles until interrupt or error
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jonesrussell/north-cloud/newswatch/internal/api"
	"github.com/jonesrussell/north-cloud/newswatch/internal/logger"
	"github.com/jonesrussell/north-cloud/newswatch/internal/metrics"
	"github.com/jonesrussell/north-cloud/newswatch/internal/scheduler"
)

// Version is set at build time with -ldflags "-X ...bootstrap.Version=...".
var Version = "dev"

// App holds the wired components of a running service.
type App struct {
	Deps      *CommandDeps
	Store     *StoreComponents
	Registry  *prometheus.Registry
	Scheduler *scheduler.Scheduler
	Server    *api.Server

	closers []func() error
}

// Build runs phases 2 to 6.
func Build(ctx context.Context, deps *CommandDeps) (*App, error) {
	app := &App{
		Deps:     deps,
		Registry: prometheus.NewRegistry(),
	}

	m := metrics.New(app.Registry)

	// Phase 2: Store
	store, err := SetupStore(ctx, deps.Config.Store, deps.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to setup store: %w", err)
	}
	app.Store = store
	app.closers = append(app.closers, store.DB.Close)

	// Phase 3: Sources
	reg, err := SetupRegistry(deps.Config, SetupFetcher(deps.Config.Crawler, deps.Logger), m, deps.Logger)
	if err != nil {
		_ = app.Close()
		return nil, fmt.Errorf("failed to setup sources: %w", err)
	}

	// Phase 4: Notifiers
	notifiers, err := SetupNotifiers(ctx, deps.Config.Notify, m, deps.Logger)
	if err != nil {
		_ = app.Close()
		return nil, fmt.Errorf("failed to setup notifiers: %w", err)
	}
	app.closers = append(app.closers, notifiers.closers...)

	// Phase 5: Scheduler
	sched, err := SetupScheduler(deps.Config.Crawler, reg, store.Articles, notifiers.Dispatcher, m, deps.Logger)
	if err != nil {
		_ = app.Close()
		return nil, fmt.Errorf("failed to setup scheduler: %w", err)
	}
	app.Scheduler = sched

	// Phase 6: Server
	if deps.Config.Server.Enabled {
		app.Server = SetupHTTPServer(deps, store.Articles, sched, app.Registry)
	}

	return app, nil
}

// Close releases every resource in reverse order of acquisition.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// Start builds the service and runs it until SIGINT or SIGTERM.
func Start(ctx context.Context, opts Options) error {
	// Phase 1: Config & Logger
	deps, err := NewCommandDeps(opts)
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}
	defer func() { _ = deps.Logger.Sync() }()

	app, err := Build(ctx, deps)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := app.Close(); closeErr != nil {
			deps.Logger.Error("Failed to release resources", logger.Error(closeErr))
		}
	}()

	// Phase 7: Run until interrupt or error
	return RunUntilInterrupt(ctx, deps.Logger, app.Scheduler, app.Server)
}

// RunOnce builds the service, runs a single cycle and returns its report.
func RunOnce(ctx context.Context, opts Options) (scheduler.CycleReport, error) {
	deps, err := NewCommandDeps(opts)
	if err != nil {
		return scheduler.CycleReport{}, fmt.Errorf("failed to initialize dependencies: %w", err)
	}
	defer func() { _ = deps.Logger.Sync() }()

	app, err := Build(ctx, deps)
	if err != nil {
		return scheduler.CycleReport{}, err
	}
	defer func() { _ = app.Close() }()

	return app.Scheduler.RunCycle(ctx)
}

// OpenStore runs phases 1 and 2 only, for read commands.
// The caller must close the returned DB.
func OpenStore(ctx context.Context, opts Options) (*StoreComponents, error) {
	deps, err := NewCommandDeps(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize dependencies: %w", err)
	}

	return SetupStore(ctx, deps.Config.Store, deps.Logger)
}

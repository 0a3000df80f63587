package bootstrap

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonesrussell/north-cloud/newswatch/internal/api"
	"github.com/jonesrussell/north-cloud/newswatch/internal/logger"
	"github.com/jonesrussell/north-cloud/newswatch/internal/scheduler"
)

// RunUntilInterrupt runs the scheduler (and the server, if any) until
// SIGINT, SIGTERM, ctx cancellation or a server error.
func RunUntilInterrupt(
	ctx context.Context,
	log logger.Logger,
	sched *scheduler.Scheduler,
	server *api.Server,
) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var serverErr <-chan error
	if server != nil {
		serverErr = server.StartAsync()
	}

	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()

	schedDone := make(chan error, 1)
	go func() { schedDone <- sched.Run(runCtx) }()

	var runErr error
	select {
	case <-ctx.Done():
		log.Info("Shutdown signal received")
	case err, ok := <-serverErr:
		if ok && err != nil {
			log.Error("Server error", logger.Error(err))
			runErr = fmt.Errorf("server error: %w", err)
		}
	}

	return Shutdown(log, cancelRun, schedDone, server, runErr)
}

// Shutdown stops the scheduler, waiting for a running cycle, then the server.
func Shutdown(
	log logger.Logger,
	cancelScheduler context.CancelFunc,
	schedDone <-chan error,
	server *api.Server,
	runErr error,
) error {
	log.Info("Stopping scheduler")
	cancelScheduler()
	if err := <-schedDone; err != nil {
		log.Error("Scheduler stopped with error", logger.Error(err))
	}

	if server != nil {
		log.Info("Stopping HTTP server")
		//nolint:contextcheck // the run context is already cancelled
		if err := server.Shutdown(context.Background()); err != nil {
			log.Error("Failed to stop server", logger.Error(err))
			if runErr == nil {
				runErr = fmt.Errorf("failed to stop server: %w", err)
			}
		}
	}

	log.Info("Service stopped")
	return runErr
}

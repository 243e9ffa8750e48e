package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/trailway/trailway/internal/watch"
)

// shutdownTimeout bounds how long in-flight requests may take to drain.
const shutdownTimeout = 10 * time.Second

// run starts the async scheduler, the optional features watcher, and the
// HTTP server, then blocks until a shutdown signal arrives.
func (app *application) run() error {
	app.engine.Start()
	defer app.engine.Stop()

	runCtx, cancelRun := context.WithCancel(context.Background())
	defer cancelRun()

	if app.config.Features.Watch {
		watcher, err := watch.New(app.config.Features.Dir, app.rescan, app.logger)
		if err != nil {
			return fmt.Errorf("failed to create features watcher: %w", err)
		}
		go watcher.Start(runCtx)
	}

	app.router.Store(app.setupRouter())
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", app.config.Server.Port),
		Handler: app,
	}

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		app.logger.Info("starting server", "port", app.config.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case <-shutdownCh:
		app.logger.Info("shutting down server...")
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	app.logger.Info("server shutdown completed")
	return nil
}

// rescan rebuilds the route list after the features tree changed and
// swaps in a router mounted from the new list. A failed rescan keeps
// the previous router serving.
func (app *application) rescan() {
	if _, err := app.engine.Rescan(); err != nil {
		app.logger.Error("feature rescan failed, keeping previous routes", "error", err)
		return
	}
	app.router.Store(app.setupRouter())
	app.logger.Info("feature rescan complete", "routes", len(app.engine.Routes()))
}

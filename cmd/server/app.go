package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/trailway/trailway/internal/api/middleware"
	"github.com/trailway/trailway/internal/auth"
	"github.com/trailway/trailway/internal/config"
	"github.com/trailway/trailway/internal/engine"
	"github.com/trailway/trailway/internal/feature"
	"github.com/trailway/trailway/internal/task"
)

// application holds the long-lived dependencies of the demo server.
type application struct {
	config *config.Config
	logger *slog.Logger
	engine *engine.Engine
	store  *widgetStore
	tokens *auth.TokenService

	// router is the currently served router. Watch-mode rescans build a
	// fresh router from the new route list and swap it in atomically, so
	// in-flight requests keep the router they started on.
	router atomic.Pointer[chi.Mux]
}

// ServeHTTP dispatches to the current router.
func (app *application) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	app.router.Load().ServeHTTP(w, r)
}

// newApplication wires the registry, engine, and demo services, and
// performs the initial feature scan.
func newApplication(cfg *config.Config, log *slog.Logger) (*application, error) {
	app := &application{
		config: cfg,
		logger: log,
		store:  newWidgetStore(),
	}

	if cfg.Auth.JWTSecret != "" {
		tokens, err := auth.NewTokenService(cfg.Auth)
		if err != nil {
			return nil, fmt.Errorf("failed to create token service: %w", err)
		}
		app.tokens = tokens
	}

	dir, err := filepath.Abs(cfg.Features.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve features directory: %w", err)
	}
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("features directory %s is not readable: %w", dir, err)
	}

	registry := feature.NewRegistry()
	app.registerFunctions(registry)

	app.engine = engine.New(
		os.DirFS(filepath.Dir(dir)),
		engine.Config{
			Root:  filepath.Base(dir),
			Debug: cfg.Server.Debug,
			Scheduler: task.SchedulerConfig{
				WorkerCount: cfg.Async.Workers,
				QueueSize:   cfg.Async.QueueSize,
			},
		},
		registry,
		log,
	)

	if _, err := app.engine.Scan(); err != nil {
		return nil, err
	}
	return app, nil
}

// setupRouter builds the chi router: standard middleware in front,
// scanned feature routes behind.
func (app *application) setupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Trace)

	app.engine.Mount(r)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("failed to write health check response", "error", err)
		}
	})

	return r
}

// Package engine assembles the resolver, scanner, pipeline and async
// scheduler into one unit: scan a features tree once, then mount the
// ranked routes onto a chi router that dispatches matching requests to
// their step pipelines.
package engine

import (
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/trailway/trailway/internal/convention"
	"github.com/trailway/trailway/internal/feature"
	"github.com/trailway/trailway/internal/pipeline"
	"github.com/trailway/trailway/internal/scanner"
	"github.com/trailway/trailway/internal/task"
)

// Config holds engine construction options.
type Config struct {
	// Root is the directory within the filesystem to scan, usually
	// "features".
	Root string

	// Debug enables stack traces in error responses. Never enable it in
	// production-like configurations.
	Debug bool

	// Scheduler configures the async task scheduler.
	Scheduler task.SchedulerConfig
}

// Engine owns the scanned route definitions and the shared async
// scheduler. The route list is immutable after Scan; Rescan builds a
// fresh list rather than mutating the old one.
type Engine struct {
	fsys      fs.FS
	config    Config
	registry  *feature.Registry
	resolver  *convention.Resolver
	scanner   *scanner.Scanner
	scheduler *task.Scheduler
	logger    *slog.Logger

	mu     sync.RWMutex
	routes []*feature.RouteDefinition
}

// New creates an Engine reading the features tree from fsys.
func New(fsys fs.FS, config Config, registry *feature.Registry, logger *slog.Logger) *Engine {
	resolver := convention.NewResolver(convention.WithFS(fsys))
	return &Engine{
		fsys:      fsys,
		config:    config,
		registry:  registry,
		resolver:  resolver,
		scanner:   scanner.New(fsys, resolver, registry, logger),
		scheduler: task.NewScheduler(config.Scheduler, logger),
		logger:    logger,
	}
}

// Registry returns the function registry routes resolve against.
func (e *Engine) Registry() *feature.Registry {
	return e.registry
}

// Start launches the async scheduler workers.
func (e *Engine) Start() {
	e.scheduler.Start()
}

// Stop shuts down the async scheduler, waiting for in-flight jobs.
func (e *Engine) Stop() {
	e.scheduler.Stop()
}

// Scan discovers the route definitions under the configured root and
// retains them for Mount.
func (e *Engine) Scan() ([]*feature.RouteDefinition, error) {
	routes, err := e.scanner.Scan(e.config.Root)
	if err != nil {
		return nil, fmt.Errorf("feature scan failed: %w", err)
	}
	e.mu.Lock()
	e.routes = routes
	e.mu.Unlock()
	return routes, nil
}

// Rescan clears the convention cache and scans again. Used by watch
// mode when the features tree changes on disk.
func (e *Engine) Rescan() ([]*feature.RouteDefinition, error) {
	e.resolver.Reset()
	return e.Scan()
}

// Routes returns the current route definitions in priority order.
func (e *Engine) Routes() []*feature.RouteDefinition {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.routes
}

// Mount registers every scanned route on the router, in priority order,
// each dispatching to its own pipeline runner.
func (e *Engine) Mount(r chi.Router) {
	for _, rd := range e.Routes() {
		runner := pipeline.NewRunner(rd, e.scheduler, e.logger, e.config.Debug)
		r.Method(string(rd.Method), chiPattern(rd.Path), runner)
		e.logger.Info("route mounted", "method", rd.Method, "path", rd.Path)
	}
}

// chiPattern converts a ":name" route pattern into chi's "{name}" form.
func chiPattern(path string) string {
	segs := feature.SplitPath(path)
	if len(segs) == 0 {
		return "/"
	}
	var b strings.Builder
	for _, seg := range segs {
		b.WriteByte('/')
		if strings.HasPrefix(seg, ":") {
			b.WriteByte('{')
			b.WriteString(seg[1:])
			b.WriteByte('}')
		} else {
			b.WriteString(seg)
		}
	}
	return b.String()
}

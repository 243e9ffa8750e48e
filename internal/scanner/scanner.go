package scanner

import (
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/trailway/trailway/internal/convention"
	"github.com/trailway/trailway/internal/feature"
)

// Scanner walks a features tree and produces ranked route definitions.
type Scanner struct {
	fsys     fs.FS
	resolver *convention.Resolver
	registry *feature.Registry
	logger   *slog.Logger
	validate *validator.Validate
}

// New creates a Scanner reading from fsys. The resolver should share the
// same filesystem so its steps/async-tasks detection sees the same tree.
func New(fsys fs.FS, resolver *convention.Resolver, registry *feature.Registry, logger *slog.Logger) *Scanner {
	return &Scanner{
		fsys:     fsys,
		resolver: resolver,
		registry: registry,
		logger:   logger,
		validate: validator.New(),
	}
}

// Scan discovers every method-boundary directory under root and returns
// one route definition per boundary, ordered by match priority. An empty
// tree yields an empty list; a malformed feature (unsupported verb, bad
// step file name, unregistered function) fails the whole scan with a
// descriptive error rather than silently skipping the route.
func (s *Scanner) Scan(root string) ([]*feature.RouteDefinition, error) {
	var boundaries []string

	err := fs.WalkDir(s.fsys, root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("failed to walk features tree at %s: %w", p, err)
		}
		if !d.IsDir() {
			return nil
		}
		if p != root && skipEntry(d.Name()) {
			return fs.SkipDir
		}
		if strings.HasPrefix(d.Name(), "@") {
			boundaries = append(boundaries, p)
			// Step and async-task files live below the boundary; they
			// are read per boundary, not walked.
			return fs.SkipDir
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	routes := make([]*feature.RouteDefinition, 0, len(boundaries))
	for _, dir := range boundaries {
		rd, err := s.buildRoute(dir, root)
		if err != nil {
			return nil, err
		}
		routes = append(routes, rd)
		s.logger.Debug("discovered route",
			"method", rd.Method,
			"path", rd.Path,
			"steps", len(rd.Steps),
			"async_tasks", len(rd.AsyncTasks),
			"dir", dir)
	}

	SortRoutes(routes)

	s.logger.Info("feature scan complete", "root", root, "routes", len(routes))
	return routes, nil
}

// buildRoute assembles the route definition for one method boundary.
func (s *Scanner) buildRoute(boundaryDir, root string) (*feature.RouteDefinition, error) {
	res, err := s.resolver.Resolve(boundaryDir, root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", boundaryDir, err)
	}

	ov, err := loadOverride(s.fsys, boundaryDir, s.validate)
	if err != nil {
		return nil, err
	}

	rd := &feature.RouteDefinition{
		Method: res.Method,
		Path:   res.Path,
		Dir:    boundaryDir,
	}

	stepsDir := res.StepsDir
	tasksDir := res.AsyncTasksDir

	if ov != nil {
		if ov.Method != "" {
			rd.Method = feature.Methods[ov.Method]
		}
		if ov.Path != "" {
			rd.Path = ov.Path
		}
		if ov.Steps != "" {
			stepsDir = path.Join(boundaryDir, ov.Steps)
		}
		if ov.AsyncTasks != "" {
			tasksDir = path.Join(boundaryDir, ov.AsyncTasks)
		}
		if ov.Initializer != "" {
			init, err := s.registry.Initializer(ov.Initializer)
			if err != nil {
				return nil, fmt.Errorf("route %s: %w", boundaryDir, err)
			}
			rd.Initializer = init
		}
		if ov.ErrorHook != "" {
			hook, err := s.registry.ErrorHook(ov.ErrorHook)
			if err != nil {
				return nil, fmt.Errorf("route %s: %w", boundaryDir, err)
			}
			rd.ErrorHook = hook
		}
	}

	if stepsDir != "" {
		rd.Steps, err = s.readSteps(stepsDir)
		if err != nil {
			return nil, fmt.Errorf("route %s: %w", boundaryDir, err)
		}
	}
	if tasksDir != "" {
		rd.AsyncTasks, err = s.readTasks(tasksDir)
		if err != nil {
			return nil, fmt.Errorf("route %s: %w", boundaryDir, err)
		}
	}

	return rd, nil
}

// readSteps builds the ordered step descriptor list from a steps
// directory. Ordering key is the numeric prefix, ties broken by name.
func (s *Scanner) readSteps(dir string) ([]feature.StepDescriptor, error) {
	entries, err := fs.ReadDir(s.fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read steps directory %s: %w", dir, err)
	}

	var steps []feature.StepDescriptor
	for _, entry := range entries {
		if entry.IsDir() || skipEntry(entry.Name()) {
			continue
		}
		parsed, err := parseStepFileName(entry.Name())
		if err != nil {
			return nil, err
		}
		fn, err := s.registry.Step(parsed.name)
		if err != nil {
			return nil, fmt.Errorf("step file %s: %w", path.Join(dir, entry.Name()), err)
		}
		steps = append(steps, feature.StepDescriptor{
			Order:  parsed.order,
			Name:   parsed.name,
			Source: path.Join(dir, entry.Name()),
			Fn:     fn,
		})
	}

	sort.SliceStable(steps, func(i, j int) bool {
		if steps[i].Order != steps[j].Order {
			return steps[i].Order < steps[j].Order
		}
		return steps[i].Name < steps[j].Name
	})
	return steps, nil
}

// readTasks builds the async task descriptor list. Numeric prefixes are
// honored when present; unprefixed files sort by name.
func (s *Scanner) readTasks(dir string) ([]feature.AsyncTaskDescriptor, error) {
	entries, err := fs.ReadDir(s.fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read async-tasks directory %s: %w", dir, err)
	}

	var tasks []feature.AsyncTaskDescriptor
	for _, entry := range entries {
		if entry.IsDir() || skipEntry(entry.Name()) {
			continue
		}
		parsed := parseTaskFileName(entry.Name())
		fn, err := s.registry.Task(parsed.name)
		if err != nil {
			return nil, fmt.Errorf("async task file %s: %w", path.Join(dir, entry.Name()), err)
		}
		tasks = append(tasks, feature.AsyncTaskDescriptor{
			Order:  parsed.order,
			Name:   parsed.name,
			Source: path.Join(dir, entry.Name()),
			Fn:     fn,
		})
	}

	sort.SliceStable(tasks, func(i, j int) bool {
		if tasks[i].Order != tasks[j].Order {
			return tasks[i].Order < tasks[j].Order
		}
		return tasks[i].Name < tasks[j].Name
	})
	return tasks, nil
}

// Package convention infers routing information from the shape of a
// features directory tree. A directory named "@get" (or any other
// supported verb) marks a method boundary; every directory between the
// features root and the boundary becomes a path segment, with
// "[name]" directories becoming ":name" parameters.
package convention

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/trailway/trailway/internal/feature"
)

// Resolver-level errors.
var (
	// ErrNoFeaturesRoot is returned when no enclosing features root can
	// be located and none was supplied.
	ErrNoFeaturesRoot = errors.New("no features root found")

	// ErrNotMethodBoundary is returned when the given path contains no
	// method-boundary directory.
	ErrNotMethodBoundary = errors.New("no method boundary in path")
)

// DefaultRootName is the directory name treated as the features root when
// no explicit root is supplied.
const DefaultRootName = "features"

// Subdirectory names with conventional meaning under a method boundary.
const (
	StepsDirName      = "steps"
	AsyncTasksDirName = "async-tasks"
)

// Resolution is the outcome of resolving one path against the naming
// convention.
type Resolution struct {
	// Method is the verb encoded by the method-boundary directory.
	Method feature.Method

	// Path is the ":name"-style route pattern.
	Path string

	// BoundaryDir is the method-boundary directory, slash-separated.
	BoundaryDir string

	// StepsDir is the steps subdirectory under the boundary, or "" when
	// none exists (or when the Resolver has no filesystem to check).
	StepsDir string

	// AsyncTasksDir mirrors StepsDir for async tasks.
	AsyncTasksDir string
}

// Resolver turns file paths into Resolutions. Results are cached per
// method-boundary directory; the cache is process-scoped state owned by
// the Resolver instance, with an explicit Reset for tests and watch-mode
// rescans.
type Resolver struct {
	rootName string
	fsys     fs.FS
	cache    *Cache
}

// Option customizes a Resolver.
type Option func(*Resolver)

// WithRootName overrides the directory name recognized as the features
// root when no explicit root is passed to Resolve.
func WithRootName(name string) Option {
	return func(r *Resolver) {
		r.rootName = name
	}
}

// WithFS supplies the filesystem used to detect steps and async-tasks
// subdirectories under a method boundary. Without it, resolution still
// infers method and path but reports no subdirectories.
func WithFS(fsys fs.FS) Option {
	return func(r *Resolver) {
		r.fsys = fsys
	}
}

// NewResolver returns a Resolver with an empty cache.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{
		rootName: DefaultRootName,
		cache:    NewCache(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Reset clears the resolution cache.
func (r *Resolver) Reset() {
	r.cache.Reset()
}

// Resolve infers {method, path} for filePath. featuresRoot, when
// non-empty, names the directory whose descendants form path segments;
// when empty, the nearest ancestor directory named like the configured
// root is used, and resolution fails if none exists.
//
// filePath may point at the method-boundary directory itself or at any
// file or directory beneath it (a step file, the steps directory, ...).
func (r *Resolver) Resolve(filePath, featuresRoot string) (*Resolution, error) {
	segs := splitClean(filePath)

	boundary := methodBoundaryIndex(segs)
	if boundary < 0 {
		return nil, fmt.Errorf("%w: %q", ErrNotMethodBoundary, filePath)
	}
	boundaryDir := path.Join(segs[:boundary+1]...)

	if res, ok := r.cache.Get(boundaryDir); ok {
		return res, nil
	}

	rootIdx, err := r.rootIndex(segs, boundary, featuresRoot, filePath)
	if err != nil {
		return nil, err
	}

	verb := strings.TrimPrefix(segs[boundary], "@")
	method, ok := feature.Methods[strings.ToLower(verb)]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported verb %q in %q", ErrNotMethodBoundary, verb, filePath)
	}

	res := &Resolution{
		Method:      method,
		Path:        buildPath(segs[rootIdx+1 : boundary]),
		BoundaryDir: boundaryDir,
	}
	if r.fsys != nil {
		if dirExists(r.fsys, path.Join(boundaryDir, StepsDirName)) {
			res.StepsDir = path.Join(boundaryDir, StepsDirName)
		}
		if dirExists(r.fsys, path.Join(boundaryDir, AsyncTasksDirName)) {
			res.AsyncTasksDir = path.Join(boundaryDir, AsyncTasksDirName)
		}
	}
	r.cache.Put(boundaryDir, res)
	return res, nil
}

func dirExists(fsys fs.FS, name string) bool {
	info, err := fs.Stat(fsys, name)
	return err == nil && info.IsDir()
}

// rootIndex locates the features root within segs. The boundary index is
// exclusive: the root must be an ancestor of the method boundary.
func (r *Resolver) rootIndex(segs []string, boundary int, featuresRoot, filePath string) (int, error) {
	if featuresRoot != "" {
		rootSegs := splitClean(featuresRoot)
		idx := len(rootSegs) - 1
		if !prefixed(segs, rootSegs) || idx >= boundary {
			return 0, fmt.Errorf(
				"%w: %q is not under features root %q", ErrNoFeaturesRoot, filePath, featuresRoot)
		}
		return idx, nil
	}

	// Nearest ancestor named like the root, searching upward from the
	// method boundary.
	for i := boundary - 1; i >= 0; i-- {
		if segs[i] == r.rootName {
			return i, nil
		}
	}
	return 0, fmt.Errorf(
		"%w: no ancestor of %q is named %q and no explicit root was supplied",
		ErrNoFeaturesRoot, filePath, r.rootName)
}

// methodBoundaryIndex returns the index of the deepest "@verb" segment,
// or -1 when none exists.
func methodBoundaryIndex(segs []string) int {
	for i := len(segs) - 1; i >= 0; i-- {
		if strings.HasPrefix(segs[i], "@") {
			return i
		}
	}
	return -1
}

// buildPath joins directory segments into a route pattern, translating
// "[name]" into ":name". An empty segment list yields "/".
func buildPath(segs []string) string {
	if len(segs) == 0 {
		return "/"
	}
	var b strings.Builder
	for _, seg := range segs {
		b.WriteByte('/')
		if strings.HasPrefix(seg, "[") && strings.HasSuffix(seg, "]") {
			b.WriteByte(':')
			b.WriteString(seg[1 : len(seg)-1])
		} else {
			b.WriteString(seg)
		}
	}
	return b.String()
}

func splitClean(p string) []string {
	p = path.Clean(strings.ReplaceAll(p, "\\", "/"))
	var segs []string
	for _, seg := range strings.Split(p, "/") {
		if seg != "" && seg != "." {
			segs = append(segs, seg)
		}
	}
	return segs
}

func prefixed(segs, prefix []string) bool {
	if len(prefix) > len(segs) {
		return false
	}
	for i, seg := range prefix {
		if segs[i] != seg {
			return false
		}
	}
	return true
}

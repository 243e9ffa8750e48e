package scanner

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trailway/trailway/internal/convention"
	"github.com/trailway/trailway/internal/feature"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func nopStep(ctx context.Context, fc *feature.Context, w http.ResponseWriter, r *http.Request) error {
	return nil
}

func nopTask(ctx context.Context, fc *feature.Context) error { return nil }

// testRegistry registers the function names used across the fixture trees.
func testRegistry() *feature.Registry {
	reg := feature.NewRegistry()
	for _, name := range []string{
		"validate-input", "check-auth", "load-record", "render",
		"list-posts", "show-post", "search-posts", "about-page",
	} {
		reg.RegisterStep(name, nopStep)
	}
	reg.RegisterTask("notify-email", nopTask)
	reg.RegisterTask("record-access", nopTask)
	reg.RegisterInitializer("request-clock", func(ctx context.Context, fc *feature.Context, r *http.Request) error {
		return nil
	})
	reg.RegisterErrorHook("on-failure", func(ctx context.Context, err error, fc *feature.Context, w http.ResponseWriter, r *http.Request) (*feature.RetryDirective, error) {
		return nil, nil
	})
	return reg
}

func newTestScanner(fsys fstest.MapFS, reg *feature.Registry) *Scanner {
	resolver := convention.NewResolver(convention.WithFS(fsys))
	return New(fsys, resolver, reg, testLogger())
}

func TestScanEmptyTree(t *testing.T) {
	fsys := fstest.MapFS{
		"features/.keep": {Data: []byte{}},
	}
	s := newTestScanner(fsys, testRegistry())

	routes, err := s.Scan("features")
	require.NoError(t, err)
	assert.Empty(t, routes)
}

func TestScanSingleRoute(t *testing.T) {
	fsys := fstest.MapFS{
		"features/users/[id]/@get/steps/100-check-auth.md":  {Data: []byte{}},
		"features/users/[id]/@get/steps/200-load-record.md": {Data: []byte{}},
		"features/users/[id]/@get/steps/300-render.md":      {Data: []byte{}},
	}
	s := newTestScanner(fsys, testRegistry())

	routes, err := s.Scan("features")
	require.NoError(t, err)
	require.Len(t, routes, 1)

	rd := routes[0]
	assert.Equal(t, feature.MethodGet, rd.Method)
	assert.Equal(t, "/users/:id", rd.Path)
	require.Len(t, rd.Steps, 3)
	assert.Equal(t, "check-auth", rd.Steps[0].Name)
	assert.Equal(t, "load-record", rd.Steps[1].Name)
	assert.Equal(t, "render", rd.Steps[2].Name)
}

func TestScanStepOrderingWithInsertedStep(t *testing.T) {
	// A step numbered 150 slots between 100 and 200 without renumbering.
	fsys := fstest.MapFS{
		"features/orders/@post/steps/100-validate-input.md": {Data: []byte{}},
		"features/orders/@post/steps/300-render.md":         {Data: []byte{}},
		"features/orders/@post/steps/150-check-auth.md":     {Data: []byte{}},
		"features/orders/@post/steps/200-load-record.md":    {Data: []byte{}},
	}
	s := newTestScanner(fsys, testRegistry())

	routes, err := s.Scan("features")
	require.NoError(t, err)
	require.Len(t, routes, 1)

	var orders []int
	for _, st := range routes[0].Steps {
		orders = append(orders, st.Order)
	}
	assert.Equal(t, []int{100, 150, 200, 300}, orders)
}

func TestScanRoutePriority(t *testing.T) {
	// Literal siblings must rank ahead of the parameter route sharing
	// their prefix, whatever order the walk discovers them in.
	fsys := fstest.MapFS{
		"features/blog/[slug]/@get/steps/100-show-post.md":  {Data: []byte{}},
		"features/blog/about/@get/steps/100-about-page.md":  {Data: []byte{}},
		"features/blog/search/@get/steps/100-search-posts.md": {Data: []byte{}},
		"features/blog/@get/steps/100-list-posts.md":        {Data: []byte{}},
	}
	s := newTestScanner(fsys, testRegistry())

	routes, err := s.Scan("features")
	require.NoError(t, err)
	require.Len(t, routes, 4)

	var paths []string
	for _, rd := range routes {
		paths = append(paths, rd.Path)
	}
	assert.Equal(t, []string{"/blog/about", "/blog/search", "/blog", "/blog/:slug"}, paths)
}

func TestScanAsyncTasks(t *testing.T) {
	fsys := fstest.MapFS{
		"features/widgets/@get/steps/100-list-posts.md":          {Data: []byte{}},
		"features/widgets/@get/async-tasks/record-access.md":     {Data: []byte{}},
		"features/widgets/@get/async-tasks/100-notify-email.md":  {Data: []byte{}},
	}
	s := newTestScanner(fsys, testRegistry())

	routes, err := s.Scan("features")
	require.NoError(t, err)
	require.Len(t, routes, 1)

	tasks := routes[0].AsyncTasks
	require.Len(t, tasks, 2)
	// Unprefixed names sort as order zero, ahead of prefixed ones.
	assert.Equal(t, "record-access", tasks[0].Name)
	assert.Equal(t, "notify-email", tasks[1].Name)
}

func TestScanOverrideFile(t *testing.T) {
	fsys := fstest.MapFS{
		"features/legacy/@get/feature.yaml": {Data: []byte(
			"method: post\npath: /v2/legacy\ninitializer: request-clock\nerror_hook: on-failure\n")},
		"features/legacy/@get/steps/100-validate-input.md": {Data: []byte{}},
	}
	s := newTestScanner(fsys, testRegistry())

	routes, err := s.Scan("features")
	require.NoError(t, err)
	require.Len(t, routes, 1)

	rd := routes[0]
	assert.Equal(t, feature.MethodPost, rd.Method)
	assert.Equal(t, "/v2/legacy", rd.Path)
	assert.NotNil(t, rd.Initializer)
	assert.NotNil(t, rd.ErrorHook)
}

func TestScanOverrideInvalidMethod(t *testing.T) {
	fsys := fstest.MapFS{
		"features/x/@get/feature.yaml":              {Data: []byte("method: teleport\n")},
		"features/x/@get/steps/100-validate-input.md": {Data: []byte{}},
	}
	s := newTestScanner(fsys, testRegistry())

	_, err := s.Scan("features")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid override file")
}

func TestScanOverrideInvalidPath(t *testing.T) {
	fsys := fstest.MapFS{
		"features/x/@get/feature.yaml":              {Data: []byte("path: no-slash\n")},
		"features/x/@get/steps/100-validate-input.md": {Data: []byte{}},
	}
	s := newTestScanner(fsys, testRegistry())

	_, err := s.Scan("features")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid override file")
}

func TestScanUnregisteredStepFails(t *testing.T) {
	fsys := fstest.MapFS{
		"features/x/@get/steps/100-no-such-step.md": {Data: []byte{}},
	}
	s := newTestScanner(fsys, testRegistry())

	_, err := s.Scan("features")
	require.Error(t, err)
	assert.ErrorIs(t, err, feature.ErrStepNotRegistered)
}

func TestScanBadStepFileName(t *testing.T) {
	fsys := fstest.MapFS{
		"features/x/@get/steps/validate-input.md": {Data: []byte{}},
	}
	s := newTestScanner(fsys, testRegistry())

	_, err := s.Scan("features")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBadStepFileName)
}

func TestScanSkipsHiddenEntries(t *testing.T) {
	fsys := fstest.MapFS{
		"features/x/@get/steps/100-validate-input.md": {Data: []byte{}},
		"features/x/@get/steps/.draft.md":             {Data: []byte{}},
		"features/x/@get/steps/_notes.md":             {Data: []byte{}},
		"features/_wip/@post/steps/100-bogus.md":      {Data: []byte{}},
	}
	s := newTestScanner(fsys, testRegistry())

	routes, err := s.Scan("features")
	require.NoError(t, err)
	require.Len(t, routes, 1)
	assert.Len(t, routes[0].Steps, 1)
}

func TestParseStepFileName(t *testing.T) {
	p, err := parseStepFileName("100-validate-input.md")
	require.NoError(t, err)
	assert.Equal(t, 100, p.order)
	assert.Equal(t, "validate-input", p.name)

	p, err = parseStepFileName("2-load.ts")
	require.NoError(t, err)
	assert.Equal(t, 2, p.order)
	assert.Equal(t, "load", p.name)

	_, err = parseStepFileName("validate-input.md")
	assert.ErrorIs(t, err, ErrBadStepFileName)
	_, err = parseStepFileName("abc-load.md")
	assert.ErrorIs(t, err, ErrBadStepFileName)
}

func TestParseTaskFileNameTolerant(t *testing.T) {
	p := parseTaskFileName("notify-email.md")
	assert.Equal(t, 0, p.order)
	assert.Equal(t, "notify-email", p.name)

	p = parseTaskFileName("200-notify-email.md")
	assert.Equal(t, 200, p.order)
	assert.Equal(t, "notify-email", p.name)
}

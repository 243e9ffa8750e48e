package convention

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trailway/trailway/internal/feature"
)

func TestResolveInfersMethodAndPath(t *testing.T) {
	r := NewResolver()

	res, err := r.Resolve("app/features/users/[id]/@get", "app/features")
	require.NoError(t, err)
	assert.Equal(t, feature.MethodGet, res.Method)
	assert.Equal(t, "/users/:id", res.Path)
	assert.Equal(t, "app/features/users/[id]/@get", res.BoundaryDir)
}

func TestResolveFromFileBelowBoundary(t *testing.T) {
	r := NewResolver()

	res, err := r.Resolve("features/orders/@post/steps/100-validate-input.md", "features")
	require.NoError(t, err)
	assert.Equal(t, feature.MethodPost, res.Method)
	assert.Equal(t, "/orders", res.Path)
	assert.Equal(t, "features/orders/@post", res.BoundaryDir)
}

func TestResolveNearestRootAncestor(t *testing.T) {
	r := NewResolver()

	// No explicit root: the nearest ancestor named "features" wins, even
	// when a higher one exists.
	res, err := r.Resolve("features/x/features/blog/[slug]/@delete", "")
	require.NoError(t, err)
	assert.Equal(t, feature.MethodDelete, res.Method)
	assert.Equal(t, "/blog/:slug", res.Path)
}

func TestResolveNoFeaturesRoot(t *testing.T) {
	r := NewResolver()

	_, err := r.Resolve("src/handlers/users/@get", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoFeaturesRoot)
}

func TestResolveOutsideExplicitRoot(t *testing.T) {
	r := NewResolver()

	_, err := r.Resolve("other/users/@get", "features")
	assert.ErrorIs(t, err, ErrNoFeaturesRoot)
}

func TestResolveNoMethodBoundary(t *testing.T) {
	r := NewResolver()

	_, err := r.Resolve("features/users/[id]/steps", "features")
	assert.ErrorIs(t, err, ErrNotMethodBoundary)
}

func TestResolveUnsupportedVerb(t *testing.T) {
	r := NewResolver()

	_, err := r.Resolve("features/users/@teleport", "features")
	assert.ErrorIs(t, err, ErrNotMethodBoundary)
}

func TestResolveRootLevelBoundary(t *testing.T) {
	r := NewResolver()

	res, err := r.Resolve("features/@get", "features")
	require.NoError(t, err)
	assert.Equal(t, "/", res.Path)
}

func TestResolveDeepestBoundaryWins(t *testing.T) {
	r := NewResolver()

	// A nested boundary is its own feature; the deeper "@" marks it.
	res, err := r.Resolve("features/@get/extra/@post", "features")
	require.NoError(t, err)
	assert.Equal(t, feature.MethodPost, res.Method)
}

func TestResolveDetectsSubdirectories(t *testing.T) {
	fsys := fstest.MapFS{
		"features/users/@get/steps/100-list-users.md":       {Data: []byte{}},
		"features/users/@get/async-tasks/record-access.md":  {Data: []byte{}},
		"features/users/[id]/@get/steps/100-load-user.md":   {Data: []byte{}},
	}
	r := NewResolver(WithFS(fsys))

	res, err := r.Resolve("features/users/@get", "features")
	require.NoError(t, err)
	assert.Equal(t, "features/users/@get/steps", res.StepsDir)
	assert.Equal(t, "features/users/@get/async-tasks", res.AsyncTasksDir)

	res, err = r.Resolve("features/users/[id]/@get", "features")
	require.NoError(t, err)
	assert.Equal(t, "features/users/[id]/@get/steps", res.StepsDir)
	assert.Empty(t, res.AsyncTasksDir)
}

func TestResolveCachesPerBoundary(t *testing.T) {
	r := NewResolver()

	first, err := r.Resolve("features/users/@get/steps/100-a.md", "features")
	require.NoError(t, err)
	second, err := r.Resolve("features/users/@get/steps/200-b.md", "features")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, r.cache.Len())

	r.Reset()
	assert.Equal(t, 0, r.cache.Len())

	third, err := r.Resolve("features/users/@get", "features")
	require.NoError(t, err)
	assert.NotSame(t, first, third)
}

func TestResolveCustomRootName(t *testing.T) {
	r := NewResolver(WithRootName("routes"))

	res, err := r.Resolve("app/routes/health/@get", "")
	require.NoError(t, err)
	assert.Equal(t, "/health", res.Path)
}

package feature

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitPath(t *testing.T) {
	assert.Empty(t, SplitPath("/"))
	assert.Empty(t, SplitPath(""))
	assert.Equal(t, []string{"users"}, SplitPath("/users"))
	assert.Equal(t, []string{"users", ":id"}, SplitPath("/users/:id"))
	assert.Equal(t, []string{"blog", "search"}, SplitPath("/blog/search/"))
}

func TestSegmentCounts(t *testing.T) {
	rd := &RouteDefinition{Path: "/users/:id/posts/:slug"}
	assert.Equal(t, 2, rd.LiteralSegments())
	assert.Equal(t, 2, rd.ParamSegments())

	root := &RouteDefinition{Path: "/"}
	assert.Equal(t, 0, root.LiteralSegments())
	assert.Equal(t, 0, root.ParamSegments())
}

package scanner

import (
	"sort"

	"github.com/trailway/trailway/internal/feature"
)

// SortRoutes orders routes so a more specific route always precedes a
// less specific one sharing a prefix, regardless of discovery order.
// Priority is (literal segment count, descending), then (parameter
// segment count, ascending), then path and method alphabetically as the
// final tie-break.
func SortRoutes(routes []*feature.RouteDefinition) {
	sort.SliceStable(routes, func(i, j int) bool {
		li, lj := routes[i].LiteralSegments(), routes[j].LiteralSegments()
		if li != lj {
			return li > lj
		}
		pi, pj := routes[i].ParamSegments(), routes[j].ParamSegments()
		if pi != pj {
			return pi < pj
		}
		if routes[i].Path != routes[j].Path {
			return routes[i].Path < routes[j].Path
		}
		return routes[i].Method < routes[j].Method
	})
}

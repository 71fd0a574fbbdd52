package region

import (
	"tenure/internal/source"
)

// ConstraintGraph indexes constraints by their Sup region, so walking a
// region's outgoing edges follows "r outlives s" links downstream.
type ConstraintGraph struct {
	out [][]ConstraintID
}

// BuildGraph groups the constraint set by Sup. Region IDs must already
// be validated against numRegions.
func BuildGraph(set *ConstraintSet, numRegions uint32) *ConstraintGraph {
	out := make([][]ConstraintID, numRegions+1)
	set.Each(func(id ConstraintID, c *OutlivesConstraint) {
		out[c.Sup] = append(out[c.Sup], id)
	})
	return &ConstraintGraph{out: out}
}

// NumRegions reports how many regions the graph was built over.
func (g *ConstraintGraph) NumRegions() int { return len(g.out) - 1 }

// EachOutgoing visits every constraint leaving r. The static region is
// special-cased: since `'static` outlives everything, its stored edges
// are replaced by a synthetic `static <= s` edge for every region s, so
// paths can route through static even when no explicit constraint was
// recorded. Synthetic edges are Internal and hold at all locations.
func (g *ConstraintGraph) EachOutgoing(set *ConstraintSet, static, r RegionID, fn func(OutlivesConstraint)) {
	if static.IsValid() && r == static {
		for s := 1; s < len(g.out); s++ {
			if RegionID(s) == static {
				continue
			}
			fn(OutlivesConstraint{
				Sup:       static,
				Sub:       RegionID(s),
				Category:  CategoryInternal,
				Locations: AllLocations(source.Span{}),
			})
		}
		return
	}
	if int(r) >= len(g.out) {
		return
	}
	for _, id := range g.out[r] {
		fn(*set.Get(id))
	}
}

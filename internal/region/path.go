package region

import (
	"fmt"
	"slices"
)

type traceKind uint8

const (
	traceNotVisited traceKind = iota
	traceStart
	traceVia
)

// trace records how the search reached a region. For traceVia the
// constraint is stored by value: synthetic static edges never live in
// the arena, so an ID would not be enough.
type trace struct {
	kind traceKind
	via  OutlivesConstraint
}

// FindPath searches breadth-first along outgoing constraints from
// `from` until it dequeues a region satisfying target, then returns the
// constraint path that led there and the region found. BFS order makes
// the result a shortest path in edge count. When `from` itself
// satisfies target the path is empty. ok is false when no satisfying
// region is reachable.
func (inf *Inference) FindPath(from RegionID, target func(RegionID) bool) ([]OutlivesConstraint, RegionID, bool) {
	states := make([]trace, inf.numRegions+1)
	if !from.IsValid() || int(from) >= len(states) {
		return nil, NoRegionID, false
	}
	states[from] = trace{kind: traceStart}

	queue := []RegionID{from}
	for len(queue) > 0 {
		r := queue[0]
		queue = queue[1:]

		if target(r) {
			var path []OutlivesConstraint
			for p := r; ; {
				switch t := states[p]; t.kind {
				case traceVia:
					path = append(path, t.via)
					p = t.via.Sup
				case traceStart:
					slices.Reverse(path)
					return path, r, true
				default:
					panic(fmt.Errorf("region %s dequeued without trace", p))
				}
			}
		}

		inf.EachOutgoing(r, func(c OutlivesConstraint) {
			sub := c.Sub
			if states[sub].kind == traceNotVisited {
				states[sub] = trace{kind: traceVia, via: c}
				queue = append(queue, sub)
			}
		})
	}
	return nil, NoRegionID, false
}

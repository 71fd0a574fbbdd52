package region

import "testing"

func TestFindPathTakesShortestRoute(t *testing.T) {
	// r1 -> r2 -> r4 competes with r1 -> r3 -> r5 -> r4.
	inf := fixture{
		numRegions: 5,
		edges: []OutlivesConstraint{
			edge(1, 2, CategoryBoring, sp(0, 1)),
			edge(1, 3, CategoryBoring, sp(1, 2)),
			edge(2, 4, CategoryBoring, sp(2, 3)),
			edge(3, 5, CategoryBoring, sp(3, 4)),
			edge(5, 4, CategoryBoring, sp(4, 5)),
		},
	}.build()

	path, target, ok := inf.FindPath(1, func(r RegionID) bool { return r == 4 })
	if !ok {
		t.Fatalf("FindPath(r1, r4) found no path")
	}
	if target != 4 {
		t.Errorf("target = %v, want r4", target)
	}
	if len(path) != 2 {
		t.Fatalf("path length = %d, want 2: %v", len(path), path)
	}
	if path[0].Sup != 1 || path[0].Sub != 2 || path[1].Sup != 2 || path[1].Sub != 4 {
		t.Errorf("path = %v, want r1 -> r2 -> r4", path)
	}
}

func TestFindPathStartSatisfiesTarget(t *testing.T) {
	inf := fixture{
		numRegions: 2,
		edges:      []OutlivesConstraint{edge(1, 2, CategoryBoring, sp(0, 1))},
	}.build()

	path, target, ok := inf.FindPath(1, func(r RegionID) bool { return r == 1 })
	if !ok {
		t.Fatalf("FindPath(r1, r1) found no path")
	}
	if len(path) != 0 {
		t.Errorf("path = %v, want empty", path)
	}
	if target != 1 {
		t.Errorf("target = %v, want r1", target)
	}
}

func TestFindPathUnreachable(t *testing.T) {
	inf := fixture{
		numRegions: 3,
		edges:      []OutlivesConstraint{edge(1, 2, CategoryBoring, sp(0, 1))},
	}.build()

	if _, _, ok := inf.FindPath(1, func(r RegionID) bool { return r == 3 }); ok {
		t.Errorf("FindPath(r1, r3) ok = true, want false")
	}
}

func TestFindPathRoutesThroughStatic(t *testing.T) {
	// The only recorded edge is r1 -> static; the leg onward to r3 exists
	// purely as a synthetic static edge.
	inf := fixture{
		numRegions: 3,
		static:     2,
		edges:      []OutlivesConstraint{edge(1, 2, CategoryAssignment, sp(5, 9))},
	}.build()

	path, target, ok := inf.FindPath(1, func(r RegionID) bool { return r == 3 })
	if !ok {
		t.Fatalf("FindPath(r1, r3) found no path through static")
	}
	if target != 3 || len(path) != 2 {
		t.Fatalf("path = %v target = %v, want two edges ending at r3", path, target)
	}
	leg := path[1]
	if leg.Sup != 2 || leg.Sub != 3 {
		t.Errorf("second leg = %v, want static -> r3", leg)
	}
	if leg.Category != CategoryInternal {
		t.Errorf("synthetic edge category = %v, want %v", leg.Category, CategoryInternal)
	}
	if !leg.Locations.IsAll() {
		t.Errorf("synthetic edge locations = %v, want all", leg.Locations)
	}
}

func TestFindPathVisitsEachRegionOnce(t *testing.T) {
	// A cycle must not loop the search.
	inf := fixture{
		numRegions: 3,
		edges: []OutlivesConstraint{
			edge(1, 2, CategoryBoring, sp(0, 1)),
			edge(2, 1, CategoryBoring, sp(1, 2)),
			edge(2, 3, CategoryBoring, sp(2, 3)),
		},
	}.build()

	path, _, ok := inf.FindPath(1, func(r RegionID) bool { return r == 3 })
	if !ok {
		t.Fatalf("FindPath(r1, r3) found no path")
	}
	if len(path) != 2 {
		t.Errorf("path length = %d, want 2", len(path))
	}
}

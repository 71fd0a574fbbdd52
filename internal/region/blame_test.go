package region

import (
	"errors"
	"testing"
)

// Chain r1 -> r2 -> r3 -> r4, every region in its own group: the edge
// entering the target is the closest qualifying one and wins.
func TestBestBlamePrefersEdgeNearestTarget(t *testing.T) {
	inf := fixture{
		numRegions: 4,
		edges: []OutlivesConstraint{
			edge(1, 2, CategoryAssignment, sp(0, 4)),
			edge(2, 3, CategoryAssignment, sp(10, 14)),
			edge(3, 4, CategoryAssignment, sp(20, 24)),
		},
		groups: []GroupID{0, 1, 2, 3, 4},
	}.build()

	blame, err := inf.BestBlame(1, 4)
	if err != nil {
		t.Fatalf("BestBlame: %v", err)
	}
	if blame.Constraint.Sup != 3 || blame.Constraint.Sub != 4 {
		t.Errorf("blamed %v, want the r3 -> r4 edge", blame.Constraint)
	}
	if blame.Span != sp(20, 24) {
		t.Errorf("blame span = %v, want %v", blame.Span, sp(20, 24))
	}
}

// Same chain, but r2, r3, r4 share a group: edges inside the target's
// group are skipped, so the crossing edge r1 -> r2 is blamed.
func TestBestBlamePicksGroupCrossingEdge(t *testing.T) {
	inf := fixture{
		numRegions: 4,
		edges: []OutlivesConstraint{
			edge(1, 2, CategoryAssignment, sp(0, 4)),
			edge(2, 3, CategoryAssignment, sp(10, 14)),
			edge(3, 4, CategoryAssignment, sp(20, 24)),
		},
		groups: []GroupID{0, 1, 2, 2, 2},
	}.build()

	blame, err := inf.BestBlame(1, 4)
	if err != nil {
		t.Fatalf("BestBlame: %v", err)
	}
	if blame.Constraint.Sup != 1 || blame.Constraint.Sub != 2 {
		t.Errorf("blamed %v, want the r1 -> r2 edge", blame.Constraint)
	}
}

// All four regions in one group: no edge qualifies structurally and the
// fallback sorts by category preference.
func TestBestBlameFallbackSortsByCategory(t *testing.T) {
	inf := fixture{
		numRegions: 4,
		edges: []OutlivesConstraint{
			edge(1, 2, CategoryTypeAnnotation, sp(0, 4)),
			edge(2, 3, CategoryCast, sp(10, 14)),
			edge(3, 4, CategoryCallArgument, sp(20, 24)),
		},
		groups: []GroupID{0, 1, 1, 1, 1},
	}.build()

	blame, err := inf.BestBlame(1, 4)
	if err != nil {
		t.Fatalf("BestBlame: %v", err)
	}
	if blame.Category != CategoryCast {
		t.Errorf("blame category = %v, want %v", blame.Category, CategoryCast)
	}
	if blame.Span != sp(10, 14) {
		t.Errorf("blame span = %v, want the cast edge's", blame.Span)
	}
}

func TestBestBlameSkipsBookkeepingCategories(t *testing.T) {
	inf := fixture{
		numRegions: 3,
		edges: []OutlivesConstraint{
			edge(1, 2, CategoryReturn, sp(0, 4)),
			edge(2, 3, CategoryBoring, sp(10, 14)),
		},
		groups: []GroupID{0, 1, 2, 3},
	}.build()

	blame, err := inf.BestBlame(1, 3)
	if err != nil {
		t.Fatalf("BestBlame: %v", err)
	}
	if blame.Category != CategoryReturn {
		t.Errorf("blame category = %v, want %v: boring edges are never picked by the scan",
			blame.Category, CategoryReturn)
	}
}

func TestBestBlameNoPath(t *testing.T) {
	inf := fixture{numRegions: 2}.build()

	_, err := inf.BestBlame(1, 2)
	if !errors.Is(err, ErrNoPath) {
		t.Fatalf("BestBlame err = %v, want ErrNoPath", err)
	}
}

func TestBestBlameDegenerateSelfViolation(t *testing.T) {
	inf := fixture{
		numRegions: 2,
		edges:      []OutlivesConstraint{edge(1, 2, CategoryBoring, sp(0, 1))},
	}.build()

	_, err := inf.BestBlame(1, 1)
	if !errors.Is(err, ErrNoPath) {
		t.Fatalf("BestBlame(r1, r1) err = %v, want ErrNoPath for the empty path", err)
	}
}

func TestFindBlameSpanIdempotent(t *testing.T) {
	inf := fixture{
		numRegions: 3,
		edges: []OutlivesConstraint{
			edge(1, 2, CategoryAssignment, sp(0, 4)),
			edge(2, 3, CategoryReturn, sp(10, 14)),
		},
		groups: []GroupID{0, 1, 2, 3},
	}.build()

	first, err := inf.FindBlameSpan(1, 3)
	if err != nil {
		t.Fatalf("FindBlameSpan: %v", err)
	}
	second, err := inf.FindBlameSpan(1, 3)
	if err != nil {
		t.Fatalf("FindBlameSpan (second call): %v", err)
	}
	if first != second {
		t.Errorf("FindBlameSpan returned %v then %v, want identical spans", first, second)
	}
}

func TestFindLiveSubregion(t *testing.T) {
	at := Location{Block: 1, Statement: 2}
	inf := fixture{
		numRegions: 3,
		edges: []OutlivesConstraint{
			edge(1, 2, CategoryBoring, sp(0, 1)),
			edge(2, 3, CategoryBoring, sp(1, 2)),
		},
		live: map[RegionID][]Location{3: {at}},
	}.build()

	r, err := inf.FindLiveSubregion(1, at)
	if err != nil {
		t.Fatalf("FindLiveSubregion: %v", err)
	}
	if r != 3 {
		t.Errorf("FindLiveSubregion = %v, want r3", r)
	}

	if _, err := inf.FindLiveSubregion(1, Location{Block: 9, Statement: 9}); !errors.Is(err, ErrNoPath) {
		t.Errorf("err = %v, want ErrNoPath when nothing is live there", err)
	}
}

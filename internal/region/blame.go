package region

import (
	"errors"
	"fmt"
	"sort"

	"tenure/internal/source"
)

// ErrNoPath means a claimed violation has no constraint path backing it.
// That is a solver/bundle fault, never something to show as a user
// diagnostic.
var ErrNoPath = errors.New("no constraint path between regions")

// Blame is the constraint chosen to explain a violation: the edge, its
// category and its resolved source span.
type Blame struct {
	Constraint OutlivesConstraint
	Category   ConstraintCategory
	Span       source.Span
}

// BestBlame picks the constraint to report for the violated obligation
// `fr: outlivedFr`. It finds the shortest path from fr to outlivedFr,
// then scans the path backward for the last edge with an interesting
// category whose Sup is not already unified with the path target. When
// every edge fails that test, the path is sorted by category preference
// and the best edge wins.
//
// The target test is identity, not group membership: a search stopping
// at any region of outlivedFr's group would cut the path short, and in
// the degenerate all-one-group case would find fr itself with an empty
// path where the fallback should run instead.
func (inf *Inference) BestBlame(fr, outlivedFr RegionID) (Blame, error) {
	path, target, ok := inf.FindPath(fr, func(r RegionID) bool {
		return r == outlivedFr
	})
	if !ok {
		return Blame{}, fmt.Errorf("blame %s: %s: %w", fr, outlivedFr, ErrNoPath)
	}
	if len(path) == 0 {
		return Blame{}, fmt.Errorf("blame %s: %s: empty path: %w", fr, outlivedFr, ErrNoPath)
	}

	blames := make([]Blame, len(path))
	for i, c := range path {
		blames[i] = Blame{
			Constraint: c,
			Category:   c.Category,
			Span:       c.Locations.Span(inf.Body),
		}
	}

	// Prefer the final interesting edge that is not internal to the
	// target's group: Sup and Sub are unified within a group, so an
	// edge inside it adds nothing the user can act on.
	targetGroup := inf.Groups.Group(target)
	for i := len(path) - 1; i >= 0; i-- {
		if !blameworthy(path[i].Category) {
			continue
		}
		if inf.Groups.Group(path[i].Sup) == targetGroup {
			continue
		}
		return blames[i], nil
	}

	// Only bookkeeping or in-group edges remain; fall back to the most
	// interesting category. Stable sort keeps path order within a
	// category, so earlier edges win ties.
	sort.SliceStable(blames, func(i, j int) bool {
		return blames[i].Category < blames[j].Category
	})
	return blames[0], nil
}

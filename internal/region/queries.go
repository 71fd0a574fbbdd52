package region

import (
	"fmt"

	"tenure/internal/source"
)

// FindLiveSubregion returns some region reachable from fr that is live
// at the given location. Used to answer "why is fr required to be live
// here": the returned region is the witness.
func (inf *Inference) FindLiveSubregion(fr RegionID, at Location) (RegionID, error) {
	_, r, ok := inf.FindPath(fr, func(r RegionID) bool {
		return inf.Liveness.LiveAt(r, at)
	})
	if !ok {
		return NoRegionID, fmt.Errorf("no live subregion of %s at %s: %w", fr, at, ErrNoPath)
	}
	return r, nil
}

// FindBlameSpan resolves the violated obligation `fr1: fr2` to the span
// of its blamed constraint, without emitting anything. Idempotent.
func (inf *Inference) FindBlameSpan(fr1, fr2 RegionID) (source.Span, error) {
	blame, err := inf.BestBlame(fr1, fr2)
	if err != nil {
		return source.Span{}, err
	}
	return blame.Span, nil
}

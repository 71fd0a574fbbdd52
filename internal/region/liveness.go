package region

// LivenessValues records, per region, the set of body locations where the
// region's value is live. The solver computes these; bundles carry them so
// queries like FindLiveSubregion can run without re-solving.
type LivenessValues struct {
	points map[RegionID]map[Location]struct{}
}

// NewLivenessValues creates an empty liveness table.
func NewLivenessValues() *LivenessValues {
	return &LivenessValues{points: make(map[RegionID]map[Location]struct{})}
}

// Add marks r as live at the given location.
func (lv *LivenessValues) Add(r RegionID, at Location) {
	set := lv.points[r]
	if set == nil {
		set = make(map[Location]struct{})
		lv.points[r] = set
	}
	set[at] = struct{}{}
}

// LiveAt reports whether r is live at the given location.
func (lv *LivenessValues) LiveAt(r RegionID, at Location) bool {
	if lv == nil {
		return false
	}
	_, ok := lv.points[r][at]
	return ok
}

// PointCount reports how many live points r has.
func (lv *LivenessValues) PointCount(r RegionID) int {
	if lv == nil {
		return 0
	}
	return len(lv.points[r])
}

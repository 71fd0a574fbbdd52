package region

import "fmt"

type (
	// RegionID identifies an inference region (lifetime variable) inside
	// one analyzed body. IDs are dense and 1-based; 0 is reserved.
	RegionID uint32
	// ConstraintID identifies an outlives constraint in a ConstraintSet.
	ConstraintID uint32
	// GroupID identifies a mutually-outliving group of regions (a strongly
	// connected component of the constraint graph).
	GroupID uint32
)

const (
	NoRegionID     RegionID     = 0
	NoConstraintID ConstraintID = 0
	NoGroupID      GroupID      = 0
)

func (r RegionID) IsValid() bool {
	return r != NoRegionID
}

func (r RegionID) String() string {
	return fmt.Sprintf("r%d", uint32(r))
}

func (c ConstraintID) IsValid() bool {
	return c != NoConstraintID
}

func (g GroupID) IsValid() bool {
	return g != NoGroupID
}

package region

import (
	"fmt"

	"fortio.org/safecast"

	"tenure/internal/source"
)

// Locations records where a constraint was introduced: either a single
// point in the function body or everywhere at once. All-locations
// constraints carry their own span; single-location constraints resolve
// their span through the body.
type Locations struct {
	all  bool
	span source.Span
	at   Location
}

// AllLocations builds a constraint placement that holds everywhere in
// the body, reported at the given span.
func AllLocations(span source.Span) Locations {
	return Locations{all: true, span: span}
}

// SingleLocation builds a constraint placement anchored at one point.
func SingleLocation(at Location) Locations {
	return Locations{at: at}
}

// IsAll reports whether the constraint holds at every location.
func (l Locations) IsAll() bool { return l.all }

// At returns the single anchor point. Only meaningful when !IsAll.
func (l Locations) At() Location { return l.at }

// Span resolves the placement to a source span using the body for
// single-location constraints.
func (l Locations) Span(body *Body) source.Span {
	if l.all {
		return l.span
	}
	return body.SpanAt(l.at)
}

func (l Locations) String() string {
	if l.all {
		return "all"
	}
	return l.at.String()
}

// OutlivesConstraint requires that Sup outlive Sub: every point where
// Sub is live, Sup must be live too.
type OutlivesConstraint struct {
	Sup       RegionID
	Sub       RegionID
	Category  ConstraintCategory
	Locations Locations
}

func (c OutlivesConstraint) String() string {
	return fmt.Sprintf("%s: %s <= %s", c.Sup, c.Sub, c.Category)
}

// ConstraintSet stores all outlives constraints in a compact
// slice-based arena.
type ConstraintSet struct {
	data []OutlivesConstraint
}

// NewConstraintSet creates an arena with optional capacity hint.
func NewConstraintSet(capacity uint32) *ConstraintSet {
	if capacity == 0 {
		capacity = 32
	}
	return &ConstraintSet{
		data: make([]OutlivesConstraint, 1, capacity+1), // index 0 reserved for NoConstraintID
	}
}

// Push allocates a new constraint and returns its ID.
func (s *ConstraintSet) Push(c OutlivesConstraint) ConstraintID {
	value, err := safecast.Conv[uint32](len(s.data))
	if err != nil {
		panic(fmt.Errorf("constraint arena overflow: %w", err))
	}
	id := ConstraintID(value)
	s.data = append(s.data, c)
	return id
}

// Get returns the constraint pointer or nil if ID is invalid.
func (s *ConstraintSet) Get(id ConstraintID) *OutlivesConstraint {
	if !id.IsValid() || int(id) >= len(s.data) {
		return nil
	}
	return &s.data[id]
}

// Len reports the total number of constraints excluding the sentinel.
func (s *ConstraintSet) Len() int { return len(s.data) - 1 }

// Data exposes the underlying slice without the sentinel.
func (s *ConstraintSet) Data() []OutlivesConstraint {
	if len(s.data) <= 1 {
		return nil
	}
	return s.data[1:]
}

// Each calls fn for every constraint in insertion order.
func (s *ConstraintSet) Each(fn func(ConstraintID, *OutlivesConstraint)) {
	for i := 1; i < len(s.data); i++ {
		fn(ConstraintID(i), &s.data[i])
	}
}

package region

import (
	"fmt"

	"tenure/internal/source"
)

// NameSource records where a region name came from: written by the user
// or invented by the reporter.
type NameSource uint8

const (
	NameUser NameSource = iota
	NameSynthesized
)

// Name is a printable region name like `'a`, `'static` or `'1`.
type Name struct {
	Text   string
	Source NameSource
}

func (n Name) String() string { return n.Text }

// RegionNamer resolves regions to names and to the variables whose types
// mention them. Both lookups may fail: not every region has a written
// name, and not every region flows through a user variable.
type RegionNamer interface {
	RegionName(r RegionID) (Name, bool)
	VarAndSpan(r RegionID) (string, source.Span, bool)
}

type varInfo struct {
	name string
	span source.Span
}

// NameTable is the bundle-backed RegionNamer: lifetime names from region
// declarations, variable names and spans from the solver's capture of
// where each region entered the body.
type NameTable struct {
	names map[RegionID]Name
	vars  map[RegionID]varInfo
}

// NewNameTable creates an empty table.
func NewNameTable() *NameTable {
	return &NameTable{
		names: make(map[RegionID]Name),
		vars:  make(map[RegionID]varInfo),
	}
}

// SetName records the written lifetime name of r.
func (t *NameTable) SetName(r RegionID, text string) {
	t.names[r] = Name{Text: text, Source: NameUser}
}

// SetVar records the variable associated with r and the span to point
// at when naming it.
func (t *NameTable) SetVar(r RegionID, name string, span source.Span) {
	t.vars[r] = varInfo{name: name, span: span}
}

func (t *NameTable) RegionName(r RegionID) (Name, bool) {
	n, ok := t.names[r]
	return n, ok
}

func (t *NameTable) VarAndSpan(r RegionID) (string, source.Span, bool) {
	v, ok := t.vars[r]
	return v.name, v.span, ok
}

// nameSynthesizer wraps a namer for the scope of one diagnostic: regions
// the namer cannot name get `'1`, `'2`, ... in first-use order, and the
// same region always resolves to the same text within the diagnostic.
type nameSynthesizer struct {
	namer   RegionNamer
	counter int
	cache   map[RegionID]Name
}

func newNameSynthesizer(namer RegionNamer) *nameSynthesizer {
	return &nameSynthesizer{namer: namer, counter: 1, cache: make(map[RegionID]Name)}
}

func (s *nameSynthesizer) name(r RegionID) Name {
	if n, ok := s.cache[r]; ok {
		return n
	}
	n, ok := s.namer.RegionName(r)
	if !ok {
		n = Name{Text: fmt.Sprintf("'%d", s.counter), Source: NameSynthesized}
		s.counter++
	}
	s.cache[r] = n
	return n
}

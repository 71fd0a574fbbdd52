package region

// ExternalKind classifies how an inference region maps back to a region
// the user can see in the source.
type ExternalKind uint8

const (
	// ExternalNone marks regions that exist only inside the inference,
	// with no user-facing counterpart.
	ExternalNone ExternalKind = iota
	// ExternalStatic is the `'static` region.
	ExternalStatic
	// ExternalNamed is a lifetime the user wrote, like `'a`.
	ExternalNamed
	// ExternalAnonymous is a signature region with no written name.
	ExternalAnonymous
)

// ExternalRegion is the user-facing identity of a universal region.
type ExternalRegion struct {
	Kind ExternalKind
	Name string
}

// UniversalRegions tracks which regions are universally quantified for
// the analyzed body, which of those are local to it, and the static
// region. All slices are indexed by RegionID with slot 0 unused.
type UniversalRegions struct {
	static    RegionID
	universal []bool
	local     []bool
	names     []string
}

// NewUniversalRegions builds the table for numRegions regions. Marking
// happens afterwards via MarkUniversal and SetStatic.
func NewUniversalRegions(numRegions uint32) *UniversalRegions {
	return &UniversalRegions{
		universal: make([]bool, numRegions+1),
		local:     make([]bool, numRegions+1),
		names:     make([]string, numRegions+1),
	}
}

// MarkUniversal registers r as universally quantified. Local means the
// region was introduced by the analyzed body itself rather than by an
// enclosing item; name is the written lifetime name, empty when the
// region is anonymous.
func (u *UniversalRegions) MarkUniversal(r RegionID, local bool, name string) {
	if !r.IsValid() || int(r) >= len(u.universal) {
		return
	}
	u.universal[r] = true
	u.local[r] = local
	u.names[r] = name
}

// SetStatic registers r as the `'static` region. Static is universal,
// never local.
func (u *UniversalRegions) SetStatic(r RegionID) {
	if !r.IsValid() || int(r) >= len(u.universal) {
		return
	}
	u.static = r
	u.universal[r] = true
	u.local[r] = false
}

// Static returns the `'static` region, or NoRegionID when the bundle
// declared none.
func (u *UniversalRegions) Static() RegionID { return u.static }

// IsUniversal reports whether r is universally quantified.
func (u *UniversalRegions) IsUniversal(r RegionID) bool {
	return r.IsValid() && int(r) < len(u.universal) && u.universal[r]
}

// IsLocal reports whether r is a local free region: universal, and
// introduced by the analyzed body rather than an enclosing item.
func (u *UniversalRegions) IsLocal(r RegionID) bool {
	return r.IsValid() && int(r) < len(u.local) && u.local[r]
}

// External maps r back to its user-facing region. Only universal
// regions have one.
func (u *UniversalRegions) External(r RegionID) (ExternalRegion, bool) {
	if !u.IsUniversal(r) {
		return ExternalRegion{}, false
	}
	switch {
	case r == u.static:
		return ExternalRegion{Kind: ExternalStatic, Name: "'static"}, true
	case u.names[r] != "":
		return ExternalRegion{Kind: ExternalNamed, Name: u.names[r]}, true
	default:
		return ExternalRegion{Kind: ExternalAnonymous}, true
	}
}

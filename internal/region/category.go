package region

// ConstraintCategory records why an outlives constraint was introduced.
// Declaration order doubles as the blame preference order used by the
// fallback in BestBlame: lower values are more interesting to report.
// Do not reorder.
type ConstraintCategory uint8

const (
	CategoryAssignment ConstraintCategory = iota
	CategoryReturn
	CategoryCast
	CategoryCallArgument
	CategoryTypeAnnotation
	CategoryClosureBounds
	CategorySizedBound
	CategoryCopyBound
	CategoryOpaqueType
	CategoryBoring
	CategoryBoringNoLocation
	CategoryInternal
)

// Phrase renders the category as the prefix of a "requires that ..."
// label. Non-empty phrases carry their own trailing space; bookkeeping
// categories render empty so the label starts at "requires".
func (c ConstraintCategory) Phrase() string {
	switch c {
	case CategoryAssignment:
		return "assignment "
	case CategoryReturn:
		return "returning this value "
	case CategoryCast:
		return "cast "
	case CategoryCallArgument:
		return "argument "
	case CategoryTypeAnnotation:
		return "type annotation "
	case CategoryClosureBounds:
		return "closure body "
	case CategorySizedBound:
		return "proving this value is `Sized` "
	case CategoryCopyBound:
		return "copying this value "
	case CategoryOpaqueType:
		return "opaque type "
	case CategoryBoring, CategoryBoringNoLocation, CategoryInternal:
		return ""
	}
	return ""
}

func (c ConstraintCategory) String() string {
	switch c {
	case CategoryAssignment:
		return "assignment"
	case CategoryReturn:
		return "return"
	case CategoryCast:
		return "cast"
	case CategoryCallArgument:
		return "call-argument"
	case CategoryTypeAnnotation:
		return "type-annotation"
	case CategoryClosureBounds:
		return "closure-bounds"
	case CategorySizedBound:
		return "sized-bound"
	case CategoryCopyBound:
		return "copy-bound"
	case CategoryOpaqueType:
		return "opaque-type"
	case CategoryBoring:
		return "boring"
	case CategoryBoringNoLocation:
		return "boring-no-location"
	case CategoryInternal:
		return "internal"
	}
	return "unknown"
}

// ParseCategory maps the wire form used in bundles back to a category.
func ParseCategory(s string) (ConstraintCategory, bool) {
	switch s {
	case "assignment":
		return CategoryAssignment, true
	case "return":
		return CategoryReturn, true
	case "cast":
		return CategoryCast, true
	case "call-argument":
		return CategoryCallArgument, true
	case "type-annotation":
		return CategoryTypeAnnotation, true
	case "closure-bounds":
		return CategoryClosureBounds, true
	case "sized-bound":
		return CategorySizedBound, true
	case "copy-bound":
		return CategoryCopyBound, true
	case "opaque-type":
		return CategoryOpaqueType, true
	case "boring":
		return CategoryBoring, true
	case "boring-no-location":
		return CategoryBoringNoLocation, true
	case "internal":
		return CategoryInternal, true
	}
	return CategoryBoring, false
}

// blameworthy reports whether the backward scan in BestBlame may select
// this category. Bookkeeping and opaque-type edges are skipped there and
// only reachable through the sorted fallback.
func blameworthy(c ConstraintCategory) bool {
	switch c {
	case CategoryOpaqueType, CategoryBoring, CategoryBoringNoLocation, CategoryInternal:
		return false
	}
	return true
}

package region

import (
	"strings"
	"testing"
)

func TestCategoryPhrases(t *testing.T) {
	tests := []struct {
		cat  ConstraintCategory
		want string
	}{
		{CategoryAssignment, "assignment "},
		{CategoryReturn, "returning this value "},
		{CategoryCast, "cast "},
		{CategoryCallArgument, "argument "},
		{CategoryTypeAnnotation, "type annotation "},
		{CategoryClosureBounds, "closure body "},
		{CategorySizedBound, "proving this value is `Sized` "},
		{CategoryCopyBound, "copying this value "},
		{CategoryOpaqueType, "opaque type "},
		{CategoryBoring, ""},
		{CategoryBoringNoLocation, ""},
		{CategoryInternal, ""},
	}
	for _, tt := range tests {
		t.Run(tt.cat.String(), func(t *testing.T) {
			got := tt.cat.Phrase()
			if got != tt.want {
				t.Errorf("Phrase() = %q, want %q", got, tt.want)
			}
			if got != "" && (!strings.HasSuffix(got, " ") || strings.HasSuffix(got, "  ")) {
				t.Errorf("Phrase() = %q, want exactly one trailing space", got)
			}
		})
	}
}

// The ordinal order doubles as blame preference and must not drift: a
// reorder silently changes which edge gets blamed in ambiguous graphs.
func TestCategoryOrdinalOrder(t *testing.T) {
	order := []ConstraintCategory{
		CategoryAssignment,
		CategoryReturn,
		CategoryCast,
		CategoryCallArgument,
		CategoryTypeAnnotation,
		CategoryClosureBounds,
		CategorySizedBound,
		CategoryCopyBound,
		CategoryOpaqueType,
		CategoryBoring,
		CategoryBoringNoLocation,
		CategoryInternal,
	}
	for i, cat := range order {
		if int(cat) != i {
			t.Errorf("%s has ordinal %d, want %d", cat, int(cat), i)
		}
	}
}

func TestParseCategory(t *testing.T) {
	for c := CategoryAssignment; c <= CategoryInternal; c++ {
		got, ok := ParseCategory(c.String())
		if !ok || got != c {
			t.Errorf("ParseCategory(%q) = %v, %v, want %v, true", c.String(), got, ok, c)
		}
	}
	if _, ok := ParseCategory("sideways"); ok {
		t.Errorf("ParseCategory(%q) ok = true, want false", "sideways")
	}
}

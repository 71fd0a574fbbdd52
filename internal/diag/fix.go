package diag

import (
	"fmt"

	"tenure/internal/source"
)

// FixKind is a coarse classification of a fix suggestion.
type FixKind uint8

const (
	FixKindQuickFix FixKind = iota
	FixKindRefactor
	FixKindRewrite
)

func (k FixKind) String() string {
	switch k {
	case FixKindQuickFix:
		return "quickfix"
	case FixKindRefactor:
		return "refactor"
	case FixKindRewrite:
		return "rewrite"
	}
	return "unknown"
}

// FixApplicability states how confident the producer is that applying the
// fix keeps the program meaning intact.
type FixApplicability uint8

const (
	// FixApplicabilityAlwaysSafe marks edits that can be applied without
	// review (machine-applicable).
	FixApplicabilityAlwaysSafe FixApplicability = iota
	FixApplicabilitySafeWithHeuristics
	FixApplicabilityManualReview
)

func (a FixApplicability) String() string {
	switch a {
	case FixApplicabilityAlwaysSafe:
		return "always-safe"
	case FixApplicabilitySafeWithHeuristics:
		return "safe-with-heuristics"
	case FixApplicabilityManualReview:
		return "manual-review"
	}
	return "unknown"
}

// TextEdit replaces the text under Span with NewText. OldText, when
// non-empty, is a guard: the engine refuses the edit if the file no longer
// contains it at Span.
type TextEdit struct {
	Span    source.Span
	NewText string
	OldText string
}

// FixBuildContext carries the data lazy fix builders may need.
type FixBuildContext struct {
	FileSet *source.FileSet
}

// FixThunk builds edits on demand. Used when edits need source text that
// is cheaper to read at apply/render time than at report time.
type FixThunk func(FixBuildContext) ([]TextEdit, error)

// Fix is a suggested correction. It is data-only apart from the optional
// Thunk; formatters and the fix engine expand thunks via Resolve or
// MaterializeFixes.
type Fix struct {
	ID            string
	Title         string
	Kind          FixKind
	Applicability FixApplicability
	IsPreferred   bool
	RequiresAll   bool
	Edits         []TextEdit
	Thunk         FixThunk
}

// Resolve returns a copy of the fix with Edits materialized. On thunk
// failure the returned copy keeps the metadata so callers can still render
// the title alongside the error.
func (f *Fix) Resolve(ctx FixBuildContext) (Fix, error) {
	if f == nil {
		return Fix{}, fmt.Errorf("diag: resolve nil fix")
	}
	out := *f
	out.Thunk = nil
	out.Edits = append([]TextEdit(nil), f.Edits...)
	if f.Thunk != nil && len(out.Edits) == 0 {
		edits, err := f.Thunk(ctx)
		if err != nil {
			return out, err
		}
		out.Edits = edits
	}
	return out, nil
}

// MaterializeFixes resolves every fix in order. The first failure aborts,
// so a partially materialized set is never applied.
func MaterializeFixes(ctx FixBuildContext, fixes []*Fix) ([]Fix, error) {
	out := make([]Fix, 0, len(fixes))
	for i, f := range fixes {
		resolved, err := f.Resolve(ctx)
		if err != nil {
			return nil, fmt.Errorf("fix %d (%s): %w", i, resolved.Title, err)
		}
		out = append(out, resolved)
	}
	return out, nil
}

package fix

import (
	"testing"

	"tenure/internal/diag"
	"tenure/internal/source"
)

func TestReplaceSpanDefaults(t *testing.T) {
	span := source.Span{File: 0, Start: 0, End: 3}
	f := ReplaceSpan("swap keyword", span, "const", "let")

	if f.Kind != diag.FixKindQuickFix {
		t.Errorf("kind = %v, want quickfix", f.Kind)
	}
	if f.Applicability != diag.FixApplicabilityAlwaysSafe {
		t.Errorf("applicability = %v, want always-safe", f.Applicability)
	}
	if f.ID != "" || f.IsPreferred || f.RequiresAll {
		t.Errorf("unexpected metadata: %+v", f)
	}
	if len(f.Edits) != 1 {
		t.Fatalf("edits = %d, want 1", len(f.Edits))
	}
	edit := f.Edits[0]
	if edit.Span != span || edit.NewText != "const" || edit.OldText != "let" {
		t.Errorf("edit = %+v", edit)
	}
}

func TestReplaceSpanOptions(t *testing.T) {
	span := source.Span{File: 0, Start: 4, End: 9}
	f := ReplaceSpan("retitle", span, "new", "old",
		WithID("custom-id"),
		WithKind(diag.FixKindRewrite),
		WithApplicability(diag.FixApplicabilityManualReview),
		Preferred(),
		WithRequiresAll(),
	)

	if f.ID != "custom-id" {
		t.Errorf("id = %q", f.ID)
	}
	if f.Kind != diag.FixKindRewrite {
		t.Errorf("kind = %v", f.Kind)
	}
	if f.Applicability != diag.FixApplicabilityManualReview {
		t.Errorf("applicability = %v", f.Applicability)
	}
	if !f.IsPreferred || !f.RequiresAll {
		t.Errorf("flags: preferred=%v requiresAll=%v", f.IsPreferred, f.RequiresAll)
	}
}

func TestNilOptionIgnored(t *testing.T) {
	var nilOpt Option
	f := ReplaceSpan("swap", source.Span{Start: 0, End: 1}, "b", "a", nilOpt, WithID("kept"))
	if f.ID != "kept" {
		t.Errorf("id = %q, want options after a nil one to still apply", f.ID)
	}
}

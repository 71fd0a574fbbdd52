package fix

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"tenure/internal/diag"
	"tenure/internal/source"
)

func diskFile(t *testing.T, name, content string) (*source.FileSet, source.FileID, string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	fs := source.NewFileSetWithBase(dir)
	id, err := fs.Load(path)
	if err != nil {
		t.Fatalf("load %s: %v", name, err)
	}
	return fs, id, path
}

func fixDiag(primary source.Span, msg string, fixes ...*diag.Fix) *diag.Diagnostic {
	return &diag.Diagnostic{
		Severity: diag.SevError,
		Code:     diag.RgnOutlives,
		Message:  msg,
		Primary:  primary,
		Fixes:    fixes,
	}
}

func readBack(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

func TestApplyReplacesText(t *testing.T) {
	fs, id, path := diskFile(t, "make.sg", "fn make() -> opaque Counter {}\n")
	span := source.Span{File: id, Start: 13, End: 27}

	f := ReplaceSpan("add bound", span, "opaque Counter + 'a", "opaque Counter",
		WithID("opaque-return-bound"))
	res, err := Apply(fs, []*diag.Diagnostic{fixDiag(span, "unsatisfied lifetime constraints", f)},
		ApplyOptions{Mode: ApplyModeOnce})
	if err != nil {
		t.Fatalf("Apply returned error: %v", err)
	}

	if len(res.Applied) != 1 || res.Applied[0].ID != "opaque-return-bound" {
		t.Fatalf("applied = %+v", res.Applied)
	}
	if res.Applied[0].EditCount != 1 {
		t.Fatalf("edit count = %d, want 1", res.Applied[0].EditCount)
	}
	if got := readBack(t, path); got != "fn make() -> opaque Counter + 'a {}\n" {
		t.Fatalf("file after apply = %q", got)
	}
	if len(res.FileChanges) != 1 || res.FileChanges[0].EditCount != 1 {
		t.Fatalf("file changes = %+v", res.FileChanges)
	}
}

func TestApplyGuardMismatchSkips(t *testing.T) {
	fs, id, path := diskFile(t, "make.sg", "fn make() -> opaque Counter {}\n")
	span := source.Span{File: id, Start: 13, End: 27}

	f := ReplaceSpan("add bound", span, "whatever", "stale text")
	res, err := Apply(fs, []*diag.Diagnostic{fixDiag(span, "msg", f)},
		ApplyOptions{Mode: ApplyModeOnce})
	if !errors.Is(err, ErrNoFixes) {
		t.Fatalf("expected ErrNoFixes, got %v", err)
	}
	if len(res.Skipped) != 1 || res.Skipped[0].Reason != "existing text does not match expected content" {
		t.Fatalf("skipped = %+v", res.Skipped)
	}
	if got := readBack(t, path); got != "fn make() -> opaque Counter {}\n" {
		t.Fatalf("file must be untouched, got %q", got)
	}
}

func TestApplyDryRun(t *testing.T) {
	fs, id, path := diskFile(t, "make.sg", "fn make() -> opaque Counter {}\n")
	span := source.Span{File: id, Start: 13, End: 27}

	f := ReplaceSpan("add bound", span, "opaque Counter + 'a", "opaque Counter")
	res, err := Apply(fs, []*diag.Diagnostic{fixDiag(span, "msg", f)},
		ApplyOptions{Mode: ApplyModeOnce, DryRun: true})
	if err != nil {
		t.Fatalf("Apply returned error: %v", err)
	}
	if !res.DryRun || len(res.Applied) != 1 {
		t.Fatalf("result = %+v", res)
	}
	if got := readBack(t, path); got != "fn make() -> opaque Counter {}\n" {
		t.Fatalf("dry run must not write, got %q", got)
	}
	if len(res.FileChanges) != 1 {
		t.Fatalf("file changes = %+v", res.FileChanges)
	}
	change := res.FileChanges[0]
	if string(change.Before) == string(change.After) {
		t.Fatal("change must carry the staged content")
	}
	if !strings.Contains(string(change.After), "opaque Counter + 'a") {
		t.Fatalf("after = %q", change.After)
	}
}

func TestApplyVirtualFileSkips(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("inline.sg", []byte("fn make() -> opaque Counter {}\n"))
	span := source.Span{File: id, Start: 13, End: 27}

	f := ReplaceSpan("add bound", span, "opaque Counter + 'a", "opaque Counter")
	res, err := Apply(fs, []*diag.Diagnostic{fixDiag(span, "msg", f)},
		ApplyOptions{Mode: ApplyModeOnce})
	if !errors.Is(err, ErrNoFixes) {
		t.Fatalf("expected ErrNoFixes, got %v", err)
	}
	if len(res.Skipped) != 1 || res.Skipped[0].Reason != "target file is virtual" {
		t.Fatalf("skipped = %+v", res.Skipped)
	}
}

func TestApplyModeAllAppliesEverySafeFix(t *testing.T) {
	fs, id, path := diskFile(t, "pair.sg", "aa bb cc\n")

	first := ReplaceSpan("grow aa", source.Span{File: id, Start: 0, End: 2}, "xxxx", "aa")
	second := ReplaceSpan("shrink bb", source.Span{File: id, Start: 3, End: 5}, "y", "bb")
	risky := ReplaceSpan("touch cc", source.Span{File: id, Start: 6, End: 8}, "z", "cc",
		WithApplicability(diag.FixApplicabilitySafeWithHeuristics))

	diags := []*diag.Diagnostic{
		fixDiag(source.Span{File: id, Start: 0, End: 2}, "first", first),
		fixDiag(source.Span{File: id, Start: 3, End: 5}, "second", second),
		fixDiag(source.Span{File: id, Start: 6, End: 8}, "third", risky),
	}
	res, err := Apply(fs, diags, ApplyOptions{Mode: ApplyModeAll})
	if err != nil {
		t.Fatalf("Apply returned error: %v", err)
	}
	if len(res.Applied) != 2 {
		t.Fatalf("applied = %+v", res.Applied)
	}
	if len(res.Skipped) != 1 || !strings.Contains(res.Skipped[0].Reason, "safe-with-heuristics") {
		t.Fatalf("skipped = %+v", res.Skipped)
	}
	// Both edits use original-file offsets; the second must land right
	// even though the first changed the file length.
	if got := readBack(t, path); got != "xxxx y cc\n" {
		t.Fatalf("file after apply = %q", got)
	}
	if len(res.FileChanges) != 1 || res.FileChanges[0].EditCount != 2 {
		t.Fatalf("file changes = %+v", res.FileChanges)
	}
}

func TestApplyModeOncePrefersAlwaysSafe(t *testing.T) {
	fs, id, path := diskFile(t, "pair.sg", "aa bb\n")

	risky := ReplaceSpan("touch aa", source.Span{File: id, Start: 0, End: 2}, "x", "aa",
		WithApplicability(diag.FixApplicabilityManualReview))
	safe := ReplaceSpan("touch bb", source.Span{File: id, Start: 3, End: 5}, "y", "bb")

	diags := []*diag.Diagnostic{
		fixDiag(source.Span{File: id, Start: 0, End: 2}, "first", risky),
		fixDiag(source.Span{File: id, Start: 3, End: 5}, "second", safe),
	}
	res, err := Apply(fs, diags, ApplyOptions{Mode: ApplyModeOnce})
	if err != nil {
		t.Fatalf("Apply returned error: %v", err)
	}
	if len(res.Applied) != 1 || res.Applied[0].Title != "touch bb" {
		t.Fatalf("applied = %+v", res.Applied)
	}
	if got := readBack(t, path); got != "aa y\n" {
		t.Fatalf("file after apply = %q", got)
	}
}

func TestApplyModeIDSelectsAllMatches(t *testing.T) {
	fs, id, path := diskFile(t, "pair.sg", "aa bb cc\n")

	one := ReplaceSpan("first site", source.Span{File: id, Start: 0, End: 2}, "x", "aa",
		WithID("shared-kind"))
	two := ReplaceSpan("second site", source.Span{File: id, Start: 3, End: 5}, "y", "bb",
		WithID("shared-kind"))
	other := ReplaceSpan("other", source.Span{File: id, Start: 6, End: 8}, "z", "cc",
		WithID("other-kind"))

	diags := []*diag.Diagnostic{
		fixDiag(source.Span{File: id, Start: 0, End: 2}, "first", one),
		fixDiag(source.Span{File: id, Start: 3, End: 5}, "second", two),
		fixDiag(source.Span{File: id, Start: 6, End: 8}, "third", other),
	}
	res, err := Apply(fs, diags, ApplyOptions{Mode: ApplyModeID, TargetID: "shared-kind"})
	if err != nil {
		t.Fatalf("Apply returned error: %v", err)
	}
	if len(res.Applied) != 2 {
		t.Fatalf("applied = %+v", res.Applied)
	}
	if got := readBack(t, path); got != "x y cc\n" {
		t.Fatalf("file after apply = %q", got)
	}
}

func TestApplyModeIDNotFound(t *testing.T) {
	fs, id, _ := diskFile(t, "make.sg", "fn make() -> opaque Counter {}\n")
	span := source.Span{File: id, Start: 13, End: 27}

	f := ReplaceSpan("add bound", span, "opaque Counter + 'a", "opaque Counter",
		WithID("opaque-return-bound"))
	res, err := Apply(fs, []*diag.Diagnostic{fixDiag(span, "msg", f)},
		ApplyOptions{Mode: ApplyModeID, TargetID: "nope"})
	if !errors.Is(err, ErrNoFixes) {
		t.Fatalf("expected ErrNoFixes, got %v", err)
	}
	if len(res.Skipped) != 1 || res.Skipped[0].Reason != "fix id not found" {
		t.Fatalf("skipped = %+v", res.Skipped)
	}
}

func TestApplyConflictingFixSkipsSecond(t *testing.T) {
	fs, id, path := diskFile(t, "pair.sg", "aa bb\n")

	first := ReplaceSpan("wide", source.Span{File: id, Start: 0, End: 5}, "zzz", "aa bb")
	second := ReplaceSpan("narrow", source.Span{File: id, Start: 3, End: 5}, "y", "bb")

	diags := []*diag.Diagnostic{
		fixDiag(source.Span{File: id, Start: 0, End: 5}, "first", first),
		fixDiag(source.Span{File: id, Start: 3, End: 5}, "second", second),
	}
	res, err := Apply(fs, diags, ApplyOptions{Mode: ApplyModeAll})
	if err != nil {
		t.Fatalf("Apply returned error: %v", err)
	}
	if len(res.Applied) != 1 || res.Applied[0].Title != "wide" {
		t.Fatalf("applied = %+v", res.Applied)
	}
	if len(res.Skipped) != 1 || !strings.Contains(res.Skipped[0].Reason, "conflicts with previously applied edits") {
		t.Fatalf("skipped = %+v", res.Skipped)
	}
	if got := readBack(t, path); got != "zzz\n" {
		t.Fatalf("file after apply = %q", got)
	}
}

func TestApplyRequiresAllGating(t *testing.T) {
	fs, id, path := diskFile(t, "make.sg", "fn make() -> opaque Counter {}\n")
	span := source.Span{File: id, Start: 13, End: 27}

	f := ReplaceSpan("add bound", span, "opaque Counter + 'a", "opaque Counter",
		WithRequiresAll())
	diags := []*diag.Diagnostic{fixDiag(span, "msg", f)}

	res, err := Apply(fs, diags, ApplyOptions{Mode: ApplyModeOnce})
	if !errors.Is(err, ErrNoFixes) {
		t.Fatalf("expected ErrNoFixes in once mode, got %v", err)
	}
	if len(res.Skipped) != 1 || res.Skipped[0].Reason != "fix requires all fixes to be applied" {
		t.Fatalf("skipped = %+v", res.Skipped)
	}

	if _, err := Apply(fs, diags, ApplyOptions{Mode: ApplyModeAll}); err != nil {
		t.Fatalf("all mode should apply it: %v", err)
	}
	if got := readBack(t, path); got != "fn make() -> opaque Counter + 'a {}\n" {
		t.Fatalf("file after apply = %q", got)
	}
}

func TestGatherCandidatesSkipsDuplicateFixIDs(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("test.sg", []byte("fn make() {}\n"))
	span := source.Span{File: id, Start: 0, End: 2}

	diagnostics := []*diag.Diagnostic{fixDiag(span, "msg",
		ReplaceSpan("once", span, "x", "fn", WithID("fix-duplicate")),
		ReplaceSpan("again", span, "y", "fn", WithID("fix-duplicate")),
	)}

	candidates, skips := gatherCandidates(diag.FixBuildContext{FileSet: fs}, diagnostics)
	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(candidates))
	}
	if len(skips) != 1 || skips[0].ID != "fix-duplicate" || skips[0].Reason != "duplicate fix id" {
		t.Fatalf("skips = %+v", skips)
	}
}

func TestGatherCandidatesKeepsStableIDAcrossSites(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("test.sg", []byte("aa bb\n"))

	diagnostics := []*diag.Diagnostic{
		fixDiag(source.Span{File: id, Start: 0, End: 2}, "first",
			ReplaceSpan("a", source.Span{File: id, Start: 0, End: 2}, "x", "aa", WithID("same-kind"))),
		fixDiag(source.Span{File: id, Start: 3, End: 5}, "second",
			ReplaceSpan("b", source.Span{File: id, Start: 3, End: 5}, "y", "bb", WithID("same-kind"))),
	}

	candidates, skips := gatherCandidates(diag.FixBuildContext{FileSet: fs}, diagnostics)
	if len(candidates) != 2 || len(skips) != 0 {
		t.Fatalf("candidates = %d skips = %+v; same id at distinct spans must survive",
			len(candidates), skips)
	}
}

func TestSpansConflict(t *testing.T) {
	mk := func(start, end uint32) diag.TextEdit {
		return diag.TextEdit{Span: source.Span{Start: start, End: end}}
	}
	tests := []struct {
		name string
		a, b diag.TextEdit
		want bool
	}{
		{"disjoint", mk(0, 2), mk(3, 5), false},
		{"overlap", mk(0, 4), mk(3, 5), true},
		{"nested", mk(0, 9), mk(2, 3), true},
		{"touching halves", mk(0, 3), mk(3, 5), false},
		{"two insertions same point", mk(3, 3), mk(3, 3), false},
		{"insertion inside span", mk(2, 2), mk(0, 4), true},
		{"insertion at span end", mk(4, 4), mk(0, 4), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := spansConflict(tt.a, tt.b); got != tt.want {
				t.Fatalf("spansConflict = %v, want %v", got, tt.want)
			}
			if got := spansConflict(tt.b, tt.a); got != tt.want {
				t.Fatalf("spansConflict reversed = %v, want %v", got, tt.want)
			}
		})
	}
}

// Package fix applies the machine-applicable suggestions attached to
// diagnostics. Edits are validated against the current file content
// (OldText guards), staged in memory per file, and written back
// atomically per run; a fix either lands whole or is skipped with a
// reason.
package fix

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"tenure/internal/diag"
	"tenure/internal/source"
)

// ErrNoFixes is returned when no fixes were applied.
var ErrNoFixes = errors.New("no applicable fixes found")

// ApplyMode selects which candidate fixes to apply.
type ApplyMode uint8

const (
	// ApplyModeOnce applies the first fix, preferring always-safe ones.
	ApplyModeOnce ApplyMode = iota
	// ApplyModeAll applies every always-safe fix.
	ApplyModeAll
	// ApplyModeID applies every fix whose ID matches TargetID.
	ApplyModeID
)

// ApplyOptions configures fix selection and application.
type ApplyOptions struct {
	Mode     ApplyMode
	TargetID string
	// DryRun stages and validates every edit but writes nothing back.
	DryRun bool
}

// AppliedFix records one successfully applied fix.
type AppliedFix struct {
	ID            string
	Title         string
	Code          diag.Code
	Message       string
	Applicability diag.FixApplicability
	PrimaryPath   string
	EditCount     int
}

// SkippedFix records a fix that was not applied and why.
type SkippedFix struct {
	ID     string
	Title  string
	Reason string
}

// FileChange summarises the modifications to one file. Before and After
// carry the full old and new contents so callers can render a diff.
type FileChange struct {
	Path      string
	EditCount int
	Before    []byte
	After     []byte
}

// ApplyResult aggregates applied fixes, skipped ones, and file changes.
type ApplyResult struct {
	Applied     []AppliedFix
	Skipped     []SkippedFix
	FileChanges []FileChange
	DryRun      bool
}

type candidate struct {
	diag  *diag.Diagnostic
	fix   diag.Fix
	order int
}

// Apply materializes the fixes carried by diagnostics, selects a subset
// according to opts, and applies them against fs. Unless opts.DryRun is
// set, changed files are written back in place.
func Apply(fs *source.FileSet, diagnostics []*diag.Diagnostic, opts ApplyOptions) (*ApplyResult, error) {
	result := &ApplyResult{
		Applied:     make([]AppliedFix, 0),
		Skipped:     make([]SkippedFix, 0),
		FileChanges: make([]FileChange, 0),
		DryRun:      opts.DryRun,
	}
	if fs == nil {
		return result, fmt.Errorf("fix: FileSet is nil")
	}

	ctx := diag.FixBuildContext{FileSet: fs}
	candidates, buildSkips := gatherCandidates(ctx, diagnostics)
	result.Skipped = append(result.Skipped, buildSkips...)
	if len(candidates) == 0 {
		return result, ErrNoFixes
	}

	sortCandidates(candidates)

	selected, selectionSkips := selectCandidates(candidates, opts)
	result.Skipped = append(result.Skipped, selectionSkips...)
	if len(selected) == 0 {
		return result, ErrNoFixes
	}

	p := newPatcher(fs)
	for _, cand := range selected {
		applied, skip := p.stage(cand)
		if skip != nil {
			result.Skipped = append(result.Skipped, *skip)
			continue
		}
		result.Applied = append(result.Applied, applied)
	}
	if len(result.Applied) == 0 {
		return result, ErrNoFixes
	}

	changes, err := p.flush(opts.DryRun)
	result.FileChanges = append(result.FileChanges, changes...)
	if err != nil {
		return result, err
	}
	return result, nil
}

// gatherCandidates materializes fixes into candidates. Fixes whose
// thunk fails, fixes without edits, and repeats of an already-seen fix
// ID at the same primary span are recorded as skips. Candidates keep
// their discovery order so later sorting stays stable.
func gatherCandidates(ctx diag.FixBuildContext, diagnostics []*diag.Diagnostic) ([]candidate, []SkippedFix) {
	cands := make([]candidate, 0)
	skips := make([]SkippedFix, 0)
	seen := make(map[string]bool)

	order := 0
	for _, d := range diagnostics {
		if d == nil || len(d.Fixes) == 0 {
			continue
		}

		resolved, err := diag.MaterializeFixes(ctx, d.Fixes)
		if err != nil {
			skips = append(skips, SkippedFix{
				Title:  d.Message,
				Reason: fmt.Sprintf("failed to build fixes: %v", err),
			})
			continue
		}

		for idx, f := range resolved {
			if len(f.Edits) == 0 {
				skips = append(skips, SkippedFix{
					ID:     f.ID,
					Title:  f.Title,
					Reason: "fix has no edits",
				})
				continue
			}
			if f.ID == "" {
				f.ID = fmt.Sprintf("%s-%d-%d-%d", d.Code.ID(), d.Primary.File, d.Primary.Start, idx)
			}
			// Stable IDs repeat across sites; dedup only within one
			// primary span so directory runs keep every instance.
			key := fmt.Sprintf("%s@%d:%d:%d", f.ID, d.Primary.File, d.Primary.Start, d.Primary.End)
			if seen[key] {
				skips = append(skips, SkippedFix{
					ID:     f.ID,
					Title:  f.Title,
					Reason: "duplicate fix id",
				})
				continue
			}
			seen[key] = true

			cands = append(cands, candidate{diag: d, fix: f, order: order})
			order++
		}
	}
	return cands, skips
}

// sortCandidates orders candidates deterministically: by file, span,
// discovery order, code, preference, ID, title.
func sortCandidates(candidates []candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		di, dj := candidates[i].diag, candidates[j].diag
		if di.Primary.File != dj.Primary.File {
			return di.Primary.File < dj.Primary.File
		}
		if di.Primary.Start != dj.Primary.Start {
			return di.Primary.Start < dj.Primary.Start
		}
		if di.Primary.End != dj.Primary.End {
			return di.Primary.End < dj.Primary.End
		}
		if candidates[i].order != candidates[j].order {
			return candidates[i].order < candidates[j].order
		}
		if di.Code != dj.Code {
			return di.Code < dj.Code
		}
		if candidates[i].fix.IsPreferred != candidates[j].fix.IsPreferred {
			return candidates[i].fix.IsPreferred
		}
		if candidates[i].fix.ID != candidates[j].fix.ID {
			return candidates[i].fix.ID < candidates[j].fix.ID
		}
		return candidates[i].fix.Title < candidates[j].fix.Title
	})
}

func selectCandidates(candidates []candidate, opts ApplyOptions) ([]candidate, []SkippedFix) {
	switch opts.Mode {
	case ApplyModeID:
		selected := make([]candidate, 0)
		skipped := make([]SkippedFix, 0)
		for _, cand := range candidates {
			if cand.fix.ID != opts.TargetID {
				continue
			}
			if cand.fix.RequiresAll {
				skipped = append(skipped, SkippedFix{
					ID:     cand.fix.ID,
					Title:  cand.fix.Title,
					Reason: "fix requires all fixes to be applied",
				})
				continue
			}
			selected = append(selected, cand)
		}
		if len(selected) == 0 && len(skipped) == 0 {
			skipped = append(skipped, SkippedFix{
				ID:     opts.TargetID,
				Reason: "fix id not found",
			})
		}
		return selected, skipped

	case ApplyModeAll:
		selected := make([]candidate, 0, len(candidates))
		skipped := make([]SkippedFix, 0)
		for _, cand := range candidates {
			if cand.fix.Applicability == diag.FixApplicabilityAlwaysSafe {
				selected = append(selected, cand)
				continue
			}
			skipped = append(skipped, SkippedFix{
				ID:     cand.fix.ID,
				Title:  cand.fix.Title,
				Reason: fmt.Sprintf("applicability is %s", cand.fix.Applicability.String()),
			})
		}
		return selected, skipped

	case ApplyModeOnce:
		var selected []candidate
		var fallback *candidate
		skipped := make([]SkippedFix, 0)
		for i := range candidates {
			cand := candidates[i]
			if cand.fix.RequiresAll {
				skipped = append(skipped, SkippedFix{
					ID:     cand.fix.ID,
					Title:  cand.fix.Title,
					Reason: "fix requires all fixes to be applied",
				})
				continue
			}
			if cand.fix.Applicability == diag.FixApplicabilityAlwaysSafe {
				selected = []candidate{cand}
				break
			}
			if fallback == nil {
				tmp := cand
				fallback = &tmp
			}
		}
		if len(selected) == 0 && fallback != nil {
			selected = []candidate{*fallback}
		}
		return selected, skipped

	default:
		return nil, nil
	}
}

// patcher stages fixes one at a time against in-memory copies of the
// target files. Each fix lands whole across all its files or not at
// all; edits keep original-file coordinates and are translated to the
// working buffer through the cumulative delta of everything already
// applied.
type patcher struct {
	fs        *source.FileSet
	baseDir   string
	buffers   map[source.FileID][]byte
	applied   map[source.FileID][]diag.TextEdit
	editCount map[source.FileID]int
}

func newPatcher(fs *source.FileSet) *patcher {
	return &patcher{
		fs:        fs,
		baseDir:   fs.BaseDir(),
		buffers:   make(map[source.FileID][]byte),
		applied:   make(map[source.FileID][]diag.TextEdit),
		editCount: make(map[source.FileID]int),
	}
}

func (p *patcher) skip(cand candidate, reason string) *SkippedFix {
	return &SkippedFix{ID: cand.fix.ID, Title: cand.fix.Title, Reason: reason}
}

func (p *patcher) stage(cand candidate) (AppliedFix, *SkippedFix) {
	buckets := groupEditsByFile(cand.fix.Edits)

	stagedBuffers := make(map[source.FileID][]byte)
	stagedApplied := make(map[source.FileID][]diag.TextEdit)
	stagedCounts := make(map[source.FileID]int)
	totalEdits := 0

	for fileID, edits := range buckets {
		file := p.fs.Get(fileID)
		if file.Flags&source.FileVirtual != 0 {
			return AppliedFix{}, p.skip(cand, "target file is virtual")
		}
		if conflictsWithExisting(p.applied[fileID], edits) {
			return AppliedFix{}, p.skip(cand, fmt.Sprintf(
				"conflicts with previously applied edits in %s", file.FormatPath("auto", p.baseDir)))
		}

		working := p.buffers[fileID]
		if working == nil {
			working = file.Content
		}
		working = append([]byte(nil), working...)

		// back-to-front so earlier spans keep their offsets within
		// this fix
		sort.SliceStable(edits, func(i, j int) bool {
			if edits[i].Span.Start == edits[j].Span.Start {
				return edits[i].Span.End > edits[j].Span.End
			}
			return edits[i].Span.Start > edits[j].Span.Start
		})

		appliedHere := append([]diag.TextEdit(nil), p.applied[fileID]...)
		for _, edit := range edits {
			start := int(edit.Span.Start) + cumulativeDelta(appliedHere, int(edit.Span.Start))
			end := int(edit.Span.End) + cumulativeDelta(appliedHere, int(edit.Span.End))
			if start < 0 || end < start || end > len(working) {
				return AppliedFix{}, p.skip(cand, "edit span out of range")
			}
			if edit.OldText != "" && string(working[start:end]) != edit.OldText {
				return AppliedFix{}, p.skip(cand, "existing text does not match expected content")
			}
			suffix := append([]byte(nil), working[end:]...)
			working = append(append(working[:start], []byte(edit.NewText)...), suffix...)
			appliedHere = insertEditSorted(appliedHere, edit)
		}

		stagedBuffers[fileID] = working
		stagedApplied[fileID] = appliedHere
		stagedCounts[fileID] = len(edits)
		totalEdits += len(edits)
	}

	for fileID, buf := range stagedBuffers {
		p.buffers[fileID] = buf
		p.applied[fileID] = stagedApplied[fileID]
		p.editCount[fileID] += stagedCounts[fileID]
	}

	return AppliedFix{
		ID:            cand.fix.ID,
		Title:         cand.fix.Title,
		Code:          cand.diag.Code,
		Message:       cand.diag.Message,
		Applicability: cand.fix.Applicability,
		PrimaryPath:   formatFilePath(p.fs, cand.diag.Primary.File),
		EditCount:     totalEdits,
	}, nil
}

// flush writes dirty buffers back to disk, preserving each file's mode,
// and returns per-file change summaries sorted by path. In dry-run mode
// the summaries are returned without touching the filesystem.
func (p *patcher) flush(dryRun bool) ([]FileChange, error) {
	changes := make([]FileChange, 0, len(p.buffers))
	for fileID, buf := range p.buffers {
		file := p.fs.Get(fileID)
		change := FileChange{
			Path:      file.FormatPath("relative", p.baseDir),
			EditCount: p.editCount[fileID],
			Before:    append([]byte(nil), file.Content...),
			After:     buf,
		}
		if !dryRun {
			mode := os.FileMode(0o644)
			if info, err := os.Stat(file.Path); err == nil {
				mode = info.Mode()
			}
			if err := os.WriteFile(file.Path, buf, mode); err != nil {
				return changes, fmt.Errorf("write %s: %w", file.Path, err)
			}
		}
		changes = append(changes, change)
	}
	sort.SliceStable(changes, func(i, j int) bool {
		return changes[i].Path < changes[j].Path
	})
	return changes, nil
}

func conflictsWithExisting(existing, edits []diag.TextEdit) bool {
	for _, prev := range existing {
		for _, cand := range edits {
			if spansConflict(prev, cand) {
				return true
			}
		}
	}
	return false
}

// spansConflict treats spans as half-open [Start, End). Two insertions
// (zero-length) never conflict; an insertion conflicts with a span that
// strictly contains its position; two replacements conflict on any
// overlap.
func spansConflict(a, b diag.TextEdit) bool {
	aStart, aEnd := a.Span.Start, a.Span.End
	bStart, bEnd := b.Span.Start, b.Span.End

	if aStart == aEnd && bStart == bEnd {
		return false
	}
	if aStart == aEnd {
		return bStart <= aStart && aStart < bEnd
	}
	if bStart == bEnd {
		return aStart <= bStart && bStart < aEnd
	}
	return aStart < bEnd && bStart < aEnd
}

func groupEditsByFile(edits []diag.TextEdit) map[source.FileID][]diag.TextEdit {
	buckets := make(map[source.FileID][]diag.TextEdit)
	for _, edit := range edits {
		buckets[edit.Span.File] = append(buckets[edit.Span.File], edit)
	}
	return buckets
}

// cumulativeDelta sums the length changes of edits (sorted by start)
// that end at or before pos, translating an original-file offset into
// the working buffer.
func cumulativeDelta(edits []diag.TextEdit, pos int) int {
	delta := 0
	for _, e := range edits {
		eStart := int(e.Span.Start)
		if eStart > pos {
			break
		}
		eEnd := int(e.Span.End)
		if eEnd <= pos {
			delta += len(e.NewText) - (eEnd - eStart)
		}
	}
	return delta
}

func insertEditSorted(edits []diag.TextEdit, edit diag.TextEdit) []diag.TextEdit {
	insertIdx := sort.Search(len(edits), func(i int) bool {
		if edits[i].Span.Start == edit.Span.Start {
			return edits[i].Span.End >= edit.Span.End
		}
		return edits[i].Span.Start > edit.Span.Start
	})
	edits = append(edits, diag.TextEdit{})
	copy(edits[insertIdx+1:], edits[insertIdx:])
	edits[insertIdx] = edit
	return edits
}

func formatFilePath(fs *source.FileSet, fileID source.FileID) string {
	if fs == nil {
		return ""
	}
	file := fs.Get(fileID)
	if file == nil {
		return ""
	}
	return file.FormatPath("auto", fs.BaseDir())
}

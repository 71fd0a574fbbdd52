package diagfmt

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"tenure/internal/diag"
	"tenure/internal/source"
)

// Pretty renders diagnostics as annotated source snippets, one block per
// diagnostic:
//
//	error[RGN3002]: `x` does not live long enough
//	  --> src/demo.sg:1:24
//	   |
//	 1 | fn make() -> &'a i32 { &x }
//	   |                        ^^
//	   |
//
// followed by notes and fix suggestions when enabled. Diagnostics render
// in bag order; callers sort the bag first.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) error {
	bw := bufio.NewWriter(w)
	ew := &errWriter{w: bw}
	pal := newPalette(opts.Color)

	for i, d := range bag.Items() {
		if i > 0 {
			ew.print("\n")
		}
		writePretty(ew, d, fs, opts, pal)
	}

	if ew.err != nil {
		return ew.err
	}
	return bw.Flush()
}

// errWriter captures the first write error and short-circuits the rest,
// so the render path does not check every Fprintf.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, a ...any) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, a...)
}

func (ew *errWriter) print(s string) {
	if ew.err != nil {
		return
	}
	_, ew.err = io.WriteString(ew.w, s)
}

// palette holds the lipgloss styles Pretty uses. newPalette(false) returns
// identity styles, so plain output never touches ANSI codes.
type palette struct {
	err    lipgloss.Style
	warn   lipgloss.Style
	info   lipgloss.Style
	gutter lipgloss.Style
	bold   lipgloss.Style
	label  lipgloss.Style
}

func newPalette(color bool) palette {
	if !color {
		plain := lipgloss.NewStyle()
		return palette{err: plain, warn: plain, info: plain, gutter: plain, bold: plain, label: plain}
	}
	return palette{
		err:    lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
		warn:   lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Bold(true),
		info:   lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true),
		gutter: lipgloss.NewStyle().Foreground(lipgloss.Color("4")).Bold(true),
		bold:   lipgloss.NewStyle().Bold(true),
		label:  lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
	}
}

func (p palette) severity(sev diag.Severity) lipgloss.Style {
	switch sev {
	case diag.SevError:
		return p.err
	case diag.SevWarning:
		return p.warn
	default:
		return p.info
	}
}

func severityWord(sev diag.Severity) string {
	switch sev {
	case diag.SevError:
		return "error"
	case diag.SevWarning:
		return "warning"
	default:
		return "info"
	}
}

func writePretty(ew *errWriter, d *diag.Diagnostic, fs *source.FileSet, opts PrettyOpts, pal palette) {
	sevStyle := pal.severity(d.Severity)
	head := fmt.Sprintf("%s[%s]", severityWord(d.Severity), d.Code.ID())
	ew.printf("%s: %s\n", sevStyle.Render(head), pal.bold.Render(d.Message))

	if int(d.Primary.File) < fs.Len() {
		ew.printf("  %s %s\n", pal.gutter.Render("-->"), spanLocation(fs, d.Primary, opts.PathMode))
		writeSnippet(ew, d, fs, opts, pal, sevStyle)
	}

	if opts.ShowNotes {
		writeNotes(ew, d, fs, opts, pal)
	}
	if opts.ShowFixes {
		writeFixes(ew, d, fs, opts, pal)
	}
}

func writeSnippet(ew *errWriter, d *diag.Diagnostic, fs *source.FileSet, opts PrettyOpts, pal palette, sevStyle lipgloss.Style) {
	f := fs.Get(d.Primary.File)
	start, end := fs.Resolve(d.Primary)

	context := opts.Context
	if context < 0 {
		context = 0
	}
	first := start.Line
	if uint32(context) < first {
		first -= uint32(context)
	} else {
		first = 1
	}
	lineCount := uint32(len(f.LineIdx) + 1)
	last := start.Line + uint32(context)
	if last > lineCount {
		last = lineCount
	}

	gutterWidth := len(fmt.Sprintf("%d", last))
	pad := strings.Repeat(" ", gutterWidth)

	ew.printf(" %s\n", pal.gutter.Render(pad+" |"))
	for line := first; line <= last; line++ {
		display := expandTabs(f.GetLine(line))
		if opts.Width > 0 {
			display = truncateLine(display, int(opts.Width))
		}
		num := fmt.Sprintf("%*d", gutterWidth, line)
		ew.printf(" %s %s\n", pal.gutter.Render(num+" |"), display)
		if line == start.Line {
			writeUnderline(ew, f, start, end, gutterWidth, opts, pal, sevStyle)
		}
	}
	ew.printf(" %s\n", pal.gutter.Render(pad+" |"))
}

// writeUnderline puts carets under the primary span on its first line.
// Alignment is computed in display columns, so tabs and wide runes in the
// prefix do not skew the carets.
func writeUnderline(ew *errWriter, f *source.File, start, end source.LineCol, gutterWidth int, opts PrettyOpts, pal palette, sevStyle lipgloss.Style) {
	lineText := f.GetLine(start.Line)

	startByte := int(start.Col) - 1
	if startByte > len(lineText) {
		startByte = len(lineText)
	}
	endByte := len(lineText)
	if end.Line == start.Line {
		endByte = int(end.Col) - 1
		if endByte > len(lineText) {
			endByte = len(lineText)
		}
	}
	if endByte < startByte {
		endByte = startByte
	}

	caretPad := runewidth.StringWidth(expandTabs(lineText[:startByte]))
	caretLen := runewidth.StringWidth(expandTabs(lineText[startByte:endByte]))
	if caretLen == 0 {
		// zero-width spans (insertion points) still get one caret
		caretLen = 1
	}

	if opts.Width > 0 {
		width := int(opts.Width)
		if caretPad >= width {
			return
		}
		if caretPad+caretLen > width {
			caretLen = width - caretPad
		}
	}

	pad := strings.Repeat(" ", gutterWidth)
	ew.printf(" %s %s%s\n",
		pal.gutter.Render(pad+" |"),
		strings.Repeat(" ", caretPad),
		sevStyle.Render(strings.Repeat("^", caretLen)))
}

func writeNotes(ew *errWriter, d *diag.Diagnostic, fs *source.FileSet, opts PrettyOpts, pal palette) {
	for _, note := range d.Notes {
		if note.Span == (source.Span{}) || int(note.Span.File) >= fs.Len() {
			ew.printf("   %s %s\n", pal.label.Render("= note:"), note.Msg)
			continue
		}
		ew.printf("  %s %s: %s\n", pal.label.Render("note:"), spanLocation(fs, note.Span, opts.PathMode), note.Msg)
	}
}

func writeFixes(ew *errWriter, d *diag.Diagnostic, fs *source.FileSet, opts PrettyOpts, pal palette) {
	ctx := diag.FixBuildContext{FileSet: fs}
	for i, f := range d.Fixes {
		resolved, err := f.Resolve(ctx)
		label := pal.label.Render(fmt.Sprintf("fix #%d:", i+1))
		if err != nil {
			ew.printf("  %s %s (%s; build failed: %v)\n", label, resolved.Title, fixMeta(resolved), err)
			continue
		}
		ew.printf("  %s %s (%s)\n", label, resolved.Title, fixMeta(resolved))
		for _, edit := range resolved.Edits {
			ew.printf("      apply=%q at %s\n", edit.NewText, spanLocation(fs, edit.Span, opts.PathMode))
			if !opts.ShowPreview {
				continue
			}
			preview, perr := buildFixEditPreview(fs, edit)
			if perr != nil {
				continue
			}
			ew.print("      preview:\n")
			for _, line := range preview.before {
				ew.printf("        - %s\n", line)
			}
			for _, line := range preview.after {
				ew.printf("        + %s\n", line)
			}
		}
	}
}

func fixMeta(f diag.Fix) string {
	parts := make([]string, 0, 4)
	if f.ID != "" {
		parts = append(parts, "id="+f.ID)
	}
	parts = append(parts, f.Kind.String(), f.Applicability.String())
	if f.IsPreferred {
		parts = append(parts, "preferred")
	}
	return strings.Join(parts, ", ")
}

func spanLocation(fs *source.FileSet, span source.Span, mode PathMode) string {
	f := fs.Get(span.File)
	start, _ := fs.Resolve(span)
	return fmt.Sprintf("%s:%d:%d", displayPath(f, fs, mode), start.Line, start.Col)
}

func displayPath(f *source.File, fs *source.FileSet, mode PathMode) string {
	switch mode {
	case PathModeAbsolute:
		return f.FormatPath("absolute", "")
	case PathModeRelative:
		return f.FormatPath("relative", fs.BaseDir())
	case PathModeBasename:
		return f.FormatPath("basename", "")
	case PathModeAuto:
		return f.FormatPath("auto", "")
	default:
		return f.Path
	}
}

func expandTabs(s string) string {
	return strings.ReplaceAll(s, "\t", "    ")
}

func truncateLine(s string, width int) string {
	if width <= 0 || runewidth.StringWidth(s) <= width {
		return s
	}
	if width <= 3 {
		return runewidth.Truncate(s, width, "")
	}
	return runewidth.Truncate(s, width-3, "...")
}

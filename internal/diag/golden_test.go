package diag

import (
	"testing"

	"tenure/internal/source"
)

func TestFormatGoldenDiagnostics(t *testing.T) {
	fs := source.NewFileSet()
	fs.SetBaseDir("/workspace")

	userFile := fs.Add("/workspace/testdata/golden/sample.sg", []byte("a\nb\n"), 0)
	bundleFile := fs.Add("/workspace/testdata/golden/sample.toml", []byte("x\n"), 0)

	diags := []*Diagnostic{
		{
			Severity: SevError,
			Code:     RgnOutlives,
			Message:  "first line\nsecond",
			Primary:  source.Span{File: userFile, Start: 0, End: 1},
			Notes: []Note{
				{Span: source.Span{File: userFile, Start: 2, End: 3}, Msg: "note line"},
			},
		},
		{
			Severity: SevWarning,
			Code:     RgnInfo,
			Message:  "another",
			Primary:  source.Span{File: userFile, Start: 2, End: 3},
		},
		{
			// loader entry, dropped from golden output
			Severity: SevError,
			Code:     BndBadSpan,
			Message:  "span out of bounds",
			Primary:  source.Span{File: bundleFile, Start: 0, End: 1},
		},
	}

	expected := "error RGN3002 testdata/golden/sample.sg:1:1 first line second\n" +
		"note RGN3002 testdata/golden/sample.sg:2:1 note line\n" +
		"warning RGN3000 testdata/golden/sample.sg:2:1 another"

	if got := FormatGoldenDiagnostics(diags, fs, true); got != expected {
		t.Fatalf("unexpected golden diagnostics:\nwant:\n%s\n\ngot:\n%s", expected, got)
	}
}

func TestFormatShortDiagnosticsKeepsTooling(t *testing.T) {
	fs := source.NewFileSet()
	fs.SetBaseDir("/workspace")

	bundleFile := fs.Add("/workspace/bad.toml", []byte("x = 1\n"), 0)

	diags := []*Diagnostic{
		{
			Severity: SevError,
			Code:     BndBadSpan,
			Message:  "span out of bounds",
			Primary:  source.Span{File: bundleFile, Start: 0, End: 1},
		},
	}

	expected := "error BND1004 bad.toml:1:1 span out of bounds"
	if got := FormatShortDiagnostics(diags, fs, false); got != expected {
		t.Fatalf("unexpected short diagnostics:\nwant:\n%s\ngot:\n%s", expected, got)
	}
}

package diagfmt

import (
	"bytes"
	"strings"
	"testing"

	"tenure/internal/diag"
	"tenure/internal/source"
)

func TestShortSortsByPosition(t *testing.T) {
	fs := source.NewFileSet()
	content := []byte("fn make() -> &'a i32 {\n    let x = 1;\n    &x\n}\n")
	fileID := fs.AddVirtual("case.sg", content)

	bag := diag.NewBag(10)
	// added out of position order on purpose
	escape := diag.New(
		diag.SevError,
		diag.RgnEscape,
		source.Span{File: fileID, Start: 42, End: 44},
		"borrowed data escapes the function body",
	)
	escape.WithNote(source.Span{File: fileID, Start: 31, End: 32}, "`x` declared here")
	bag.Add(escape)
	bag.Add(diag.New(
		diag.SevWarning,
		diag.RgnOutlives,
		source.Span{File: fileID, Start: 13, End: 20},
		"lifetime may not live long enough",
	))

	var buf bytes.Buffer
	if err := Short(&buf, bag, fs); err != nil {
		t.Fatalf("Short() error: %v", err)
	}

	want := "warning RGN3002 case.sg:1:14 lifetime may not live long enough\n" +
		"note RGN3001 case.sg:2:9 `x` declared here\n" +
		"error RGN3001 case.sg:3:5 borrowed data escapes the function body\n"
	if got := buf.String(); got != want {
		t.Fatalf("Unexpected short output:\ngot:\n%q\nwant:\n%q", got, want)
	}
}

func TestShortKeepsLoaderEntries(t *testing.T) {
	fs := source.NewFileSet()
	fileID := fs.AddVirtual("case.bundle.toml", []byte("[bundle]\nschema = 9\n"))

	bag := diag.NewBag(4)
	bag.Add(diag.New(
		diag.SevError,
		diag.BndBadSchema,
		source.Span{File: fileID, Start: 9, End: 19},
		"unsupported bundle schema 9",
	))

	var buf bytes.Buffer
	if err := Short(&buf, bag, fs); err != nil {
		t.Fatalf("Short() error: %v", err)
	}

	if !strings.Contains(buf.String(), "error BND1003 case.bundle.toml:2:1 unsupported bundle schema 9") {
		t.Fatalf("loader diagnostics must stay in short output, got:\n%s", buf.String())
	}
}

func TestShortEmptyBag(t *testing.T) {
	fs := source.NewFileSet()
	bag := diag.NewBag(1)

	var buf bytes.Buffer
	if err := Short(&buf, bag, fs); err != nil {
		t.Fatalf("Short() error: %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("Expected no output for an empty bag, got %q", buf.String())
	}
}

package diagfmt

import (
	"io"

	"tenure/internal/diag"
	"tenure/internal/source"
)

// Short renders one line per diagnostic (and per note):
//
//	error RGN3001 src/demo.sg:1:24 borrowed data escapes the function body
//
// The sort is stable across runs, which makes this the format golden-file
// tests compare against.
func Short(w io.Writer, bag *diag.Bag, fs *source.FileSet) error {
	out := diag.FormatShortDiagnostics(bag.Items(), fs, true)
	if out == "" {
		return nil
	}
	_, err := io.WriteString(w, out+"\n")
	return err
}

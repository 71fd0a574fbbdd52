package diag

import (
	"tenure/internal/source"
)

// Note attaches secondary context to a diagnostic. A zero Span marks a
// note with no source location.
type Note struct {
	Span source.Span
	Msg  string
}

// Diagnostic is the central record every producer emits and every
// formatter consumes.
type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Primary  source.Span
	Notes    []Note
	Fixes    []*Fix
}

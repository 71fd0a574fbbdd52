package region

import (
	"fmt"

	"tenure/internal/diag"
	"tenure/internal/fix"
)

// suggestStaticReturn attaches the `'static` opaque-return suggestion to
// the diagnostic under construction. It applies when data with lifetime
// fr is forced to outlive `'static` and the function returns an opaque
// type: the opaque type captures fr, so it must either name fr as a
// bound or the caller must stop demanding `'static`.
//
// frName is passed in so the region is not named twice on one
// diagnostic.
func (inf *Inference) suggestStaticReturn(b *diag.ReportBuilder, fr, outlivedFr RegionID, frName Name) {
	_, frOK := inf.Universals.External(fr)
	outExt, outOK := inf.Universals.External(outlivedFr)
	if !frOK || !outOK || outExt.Kind != ExternalStatic {
		return
	}
	ret := inf.Body.Func.Return
	if ret == nil || !ret.Opaque {
		return
	}

	// The return type already demands `'static`; adding fr as a bound
	// would not help, the lifetime itself has to change.
	if ret.HasStaticBound {
		b.WithNote(ret.Span, fmt.Sprintf("consider replacing `%s` with `'static`", frName.Text))
		return
	}

	snippet, ok := inf.Files.Snippet(ret.Span)
	if !ok {
		return
	}
	suggestable := frName.Text
	if frName.Source == NameSynthesized {
		suggestable = "'_"
	}
	title := fmt.Sprintf(
		"to allow this opaque return type to capture borrowed data with lifetime `%s`, add `%s` as a constraint",
		frName.Text, suggestable)
	b.WithFixSuggestion(fix.ReplaceSpan(
		title, ret.Span,
		fmt.Sprintf("%s + %s", snippet, suggestable), snippet,
		fix.WithID("opaque-return-bound"), fix.Preferred(),
	))
}

package region

import (
	"fmt"

	"tenure/internal/diag"
)

// ReportViolation renders the violated obligation `fr: outlivedFr` as a
// user diagnostic. The blamed constraint decides the shape: categories
// that move data out of the body (assignment, call argument) from a
// local region into a non-local one read as "borrowed data escapes";
// everything else is the general outlives error. A configured
// SpecializedReporter gets first refusal when both regions map back to
// user-facing ones.
func (inf *Inference) ReportViolation(fr, outlivedFr RegionID, rep diag.Reporter) error {
	blame, err := inf.BestBlame(fr, outlivedFr)
	if err != nil {
		return err
	}

	if inf.Specialized != nil {
		_, frOK := inf.Universals.External(fr)
		_, outOK := inf.Universals.External(outlivedFr)
		if frOK && outOK && inf.Specialized.Report(inf, fr, outlivedFr, blame, rep) {
			return nil
		}
	}

	frLocal := inf.Universals.IsLocal(fr)
	outLocal := inf.Universals.IsLocal(outlivedFr)

	switch blame.Category {
	case CategoryAssignment, CategoryCallArgument:
		if frLocal && !outLocal {
			inf.reportEscapingData(fr, outlivedFr, blame, rep)
			return nil
		}
	}
	inf.reportGeneral(fr, outlivedFr, outLocal, blame, rep)
	return nil
}

// bodyKind is the wording for the analyzed body in messages.
func (inf *Inference) bodyKind() string {
	if inf.Body.Func.Closure {
		return "closure"
	}
	return "function"
}

// reportEscapingData renders the escape shape: a reference valid only
// inside the body is stored somewhere that outlives it. Reverts to the
// general shape when neither region maps to a variable (nothing concrete
// to point at), and for assignments in plain functions, where the
// generic wording reads better than an "escape".
func (inf *Inference) reportEscapingData(fr, outlivedFr RegionID, blame Blame, rep diag.Reporter) {
	frVar, frSpan, frOK := inf.Namer.VarAndSpan(fr)
	outVar, outSpan, outOK := inf.Namer.VarAndSpan(outlivedFr)

	if (!frOK && !outOK) ||
		(blame.Category == CategoryAssignment && !inf.Body.Func.Closure) {
		inf.reportGeneral(fr, outlivedFr, false, blame, rep)
		return
	}

	escapesFrom := inf.bodyKind()
	b := diag.ReportError(rep, diag.RgnEscape, blame.Span,
		fmt.Sprintf("borrowed data escapes outside of %s", escapesFrom))
	if outOK && outVar != "" {
		b.WithNote(outSpan, fmt.Sprintf(
			"`%s` is declared here, outside of the %s body", outVar, escapesFrom))
	}
	if frOK && frVar != "" {
		b.WithNote(frSpan, fmt.Sprintf(
			"`%s` is a reference that is only valid in the %s body", frVar, escapesFrom))
		b.WithNote(blame.Span, fmt.Sprintf(
			"`%s` escapes the %s body here", frVar, escapesFrom))
	}
	b.Emit()
}

// reportGeneral renders the plain outlives error. Region names are
// resolved through a per-diagnostic synthesizer so that the same region
// mentioned twice keeps one name and invented names stay dense ('1, '2).
func (inf *Inference) reportGeneral(fr, outlivedFr RegionID, outLocal bool, blame Blame, rep diag.Reporter) {
	names := newNameSynthesizer(inf.Namer)
	frName := names.name(fr)
	outName := names.name(outlivedFr)

	b := diag.ReportError(rep, diag.RgnOutlives, blame.Span, "unsatisfied lifetime constraints")
	if blame.Category == CategoryReturn && outLocal {
		b.WithNote(blame.Span, fmt.Sprintf(
			"%s was supposed to return data with lifetime `%s` but it is returning data with lifetime `%s`",
			inf.bodyKind(), outName.Text, frName.Text))
	} else {
		b.WithNote(blame.Span, fmt.Sprintf(
			"%srequires that `%s` must outlive `%s`",
			blame.Category.Phrase(), frName.Text, outName.Text))
	}
	inf.suggestStaticReturn(b, fr, outlivedFr, frName)
	b.Emit()
}

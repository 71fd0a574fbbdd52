package diag

import (
	"testing"

	"tenure/internal/source"
)

func TestBagLimit(t *testing.T) {
	bag := NewBag(2)

	if !bag.Add(NewError(RgnOutlives, source.Span{}, "one")) {
		t.Fatal("first Add() rejected")
	}
	if !bag.Add(NewError(RgnOutlives, source.Span{}, "two")) {
		t.Fatal("second Add() rejected")
	}
	if bag.Add(NewError(RgnOutlives, source.Span{}, "three")) {
		t.Fatal("Add() beyond capacity accepted")
	}
	if bag.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", bag.Len())
	}
}

func TestBagCapClamped(t *testing.T) {
	bag := NewBag(1 << 16)
	if bag.Cap() != 65535 {
		t.Fatalf("Cap() = %d, want 65535", bag.Cap())
	}
	if !bag.Add(NewError(RgnOutlives, source.Span{}, "kept")) {
		t.Fatal("Add() rejected on a clamped bag")
	}

	if got := NewBag(-1).Cap(); got != 0 {
		t.Fatalf("Cap() for negative max = %d, want 0", got)
	}
}

func TestBagSortOrder(t *testing.T) {
	bag := NewBag(8)
	bag.Add(New(SevInfo, ObsTimings, source.Span{File: 1, Start: 5, End: 6}, "timings"))
	bag.Add(New(SevError, RgnOutlives, source.Span{File: 0, Start: 9, End: 10}, "late"))
	bag.Add(New(SevError, RgnEscape, source.Span{File: 0, Start: 2, End: 4}, "early"))
	bag.Add(New(SevWarning, RgnInfo, source.Span{File: 0, Start: 2, End: 4}, "same span, lower severity"))

	bag.Sort()

	items := bag.Items()
	wantOrder := []string{"early", "same span, lower severity", "late", "timings"}
	for i, want := range wantOrder {
		if items[i].Message != want {
			t.Errorf("items[%d].Message = %q, want %q", i, items[i].Message, want)
		}
	}
}

func TestBagDedup(t *testing.T) {
	span := source.Span{File: 0, Start: 1, End: 2}
	bag := NewBag(8)
	bag.Add(NewError(RgnOutlives, span, "msg a"))
	bag.Add(NewError(RgnOutlives, span, "msg b")) // same code+span, dropped
	bag.Add(NewError(RgnEscape, span, "msg c"))

	bag.Dedup()

	if bag.Len() != 2 {
		t.Fatalf("Len() after Dedup = %d, want 2", bag.Len())
	}
}

func TestBagMergeGrows(t *testing.T) {
	a := NewBag(1)
	a.Add(NewError(RgnOutlives, source.Span{}, "a"))

	b := NewBag(1)
	b.Add(NewError(RgnEscape, source.Span{}, "b"))

	a.Merge(b)

	if a.Len() != 2 {
		t.Fatalf("Len() after Merge = %d, want 2", a.Len())
	}
	if !a.HasErrors() {
		t.Fatal("HasErrors() = false after merging errors")
	}
}

func TestDedupReporter(t *testing.T) {
	bag := NewBag(8)
	r := NewDedupReporter(BagReporter{Bag: bag})

	span := source.Span{File: 0, Start: 3, End: 7}
	r.Report(RgnOutlives, SevError, span, "same", nil, nil)
	r.Report(RgnOutlives, SevError, span, "same", nil, nil)
	r.Report(RgnOutlives, SevError, span, "different", nil, nil)

	if bag.Len() != 2 {
		t.Fatalf("bag.Len() = %d, want 2", bag.Len())
	}
}

func TestReportBuilderEmitOnce(t *testing.T) {
	bag := NewBag(8)
	b := ReportError(BagReporter{Bag: bag}, RgnEscape, source.Span{File: 0, Start: 0, End: 1}, "escapes")
	b.WithNote(source.Span{File: 0, Start: 2, End: 3}, "declared here")
	b.Emit()
	b.Emit()

	if bag.Len() != 1 {
		t.Fatalf("bag.Len() = %d, want 1", bag.Len())
	}
	d := bag.Items()[0]
	if len(d.Notes) != 1 || d.Notes[0].Msg != "declared here" {
		t.Fatalf("notes = %+v, want one 'declared here' note", d.Notes)
	}
}

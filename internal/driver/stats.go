package driver

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// statsPrinter groups large counts (12,345) in stats lines.
var statsPrinter = message.NewPrinter(language.English)

// StatsLine renders a one-line run summary in key=value form, suitable
// for the terminal and for grepping out of logs.
func (r *Result) StatsLine() string {
	diags := 0
	if r.Bag != nil {
		diags = r.Bag.Len()
	}
	return statsPrinter.Sprintf("bundles=%d violations=%d diagnostics=%d failed=%d",
		r.Bundles, r.Violations, diags, r.Failed)
}

// Package region explains region (lifetime) inference failures.
//
// # Purpose
//
//   - Hold the solver's leftovers for one analyzed body: regions, outlives
//     constraints with categories and source locations, the SCC partition,
//     liveness points, and the universal-region table.
//   - Re-derive the constraint path behind an unprovable `fr: outlived_fr`
//     obligation and pick the single constraint worth blaming.
//   - Render the blame as a user diagnostic through internal/diag, including
//     the machine-applicable `'static` opaque-return suggestion.
//
// # Scope
//
// The package does not solve constraints; the solver ran elsewhere and
// recorded its state into a bundle (see internal/bundle for ingestion). It
// also does not format output — diagnostics flow through diag.Reporter and
// are rendered by internal/diagfmt.
//
// # Data model
//
// Inference assembles the collaborators and carries the operations:
//
//   - ConstraintSet / ConstraintGraph — dense arena of OutlivesConstraint
//     records plus forward adjacency. The `'static` region is special-cased:
//     its outgoing edges are synthesized (one per region, category Internal),
//     since `'static` outlives everything whether or not the solver recorded
//     explicit constraints.
//   - Equivalence — SCC partition of the graph. Regions in one group
//     constrain each other both ways, so they denote the same lifetime.
//     Bundles may ship the partition; ComputeGroups derives it otherwise.
//   - LivenessValues — per-region live points over Location{Block, Statement}.
//   - UniversalRegions — which regions are universally quantified, which are
//     local to the body, and the mapping back to user-facing regions
//     (`'static`, named, anonymous).
//   - Body / NameTable — span tables and naming for messages.
//
// # Blame selection
//
// FindPath runs a breadth-first search along outgoing constraints, so the
// first hit is a shortest path. BestBlame scans that path backward for the
// last edge with an actionable category that is not internal to the target's
// group; when none qualifies it falls back to sorting by category
// preference. ReportViolation then picks the diagnostic shape: escaping
// borrowed data for assignments and call arguments that leak a local region
// into a non-local one, the general "unsatisfied lifetime constraints"
// otherwise.
package region

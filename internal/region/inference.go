package region

import (
	"tenure/internal/diag"
	"tenure/internal/source"
)

// SpecializedReporter gets first refusal on a violation before the
// standard shapes run. Implementations produce tailored messages for
// recognizable patterns; returning true consumes the violation.
type SpecializedReporter interface {
	Report(inf *Inference, fr, outlivedFr RegionID, blame Blame, rep diag.Reporter) bool
}

// InferenceParams collects everything NewInference needs. Groups may be
// nil; the partition is then computed from the constraints.
type InferenceParams struct {
	NumRegions  uint32
	Constraints *ConstraintSet
	Groups      *Equivalence
	Liveness    *LivenessValues
	Universals  *UniversalRegions
	Body        *Body
	Namer       RegionNamer
	Files       *source.FileSet
	Specialized SpecializedReporter
}

// Inference is the assembled engine state for one analyzed body: the
// constraint set and its graph, the group partition, liveness, the
// universal-region table, body metadata, and the naming service. All
// blame and reporting operations hang off it.
type Inference struct {
	Constraints *ConstraintSet
	Groups      *Equivalence
	Liveness    *LivenessValues
	Universals  *UniversalRegions
	Body        *Body
	Namer       RegionNamer
	Files       *source.FileSet
	Specialized SpecializedReporter

	graph      *ConstraintGraph
	numRegions uint32
}

// NewInference builds the constraint graph and, when the params carry no
// precomputed partition, derives the groups with Tarjan.
func NewInference(p InferenceParams) *Inference {
	graph := BuildGraph(p.Constraints, p.NumRegions)
	groups := p.Groups
	if groups == nil {
		groups = ComputeGroups(p.Constraints, graph, p.Universals.Static())
	}
	return &Inference{
		Constraints: p.Constraints,
		Groups:      groups,
		Liveness:    p.Liveness,
		Universals:  p.Universals,
		Body:        p.Body,
		Namer:       p.Namer,
		Files:       p.Files,
		Specialized: p.Specialized,
		graph:       graph,
		numRegions:  p.NumRegions,
	}
}

// NumRegions reports how many regions the inference covers.
func (inf *Inference) NumRegions() int { return int(inf.numRegions) }

// Graph exposes the constraint graph for debugging dumps.
func (inf *Inference) Graph() *ConstraintGraph { return inf.graph }

// EachOutgoing walks r's outgoing constraints with the static region's
// synthetic edges in place.
func (inf *Inference) EachOutgoing(r RegionID, fn func(OutlivesConstraint)) {
	inf.graph.EachOutgoing(inf.Constraints, inf.Universals.Static(), r, fn)
}

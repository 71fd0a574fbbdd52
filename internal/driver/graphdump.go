package driver

import (
	"fmt"

	"tenure/internal/region"
)

// GraphRegion is one region row of a graph dump.
type GraphRegion struct {
	ID        string `json:"id"`
	Name      string `json:"name,omitempty"`
	Universal bool   `json:"universal,omitempty"`
	Local     bool   `json:"local,omitempty"`
	Static    bool   `json:"static,omitempty"`
	Group     int    `json:"group"`
}

// GraphEdge is one outlives constraint row. Synthetic marks the edges
// path search invents for the static region; they exist in no bundle.
type GraphEdge struct {
	Sup       string `json:"sup"`
	Sub       string `json:"sub"`
	Category  string `json:"category"`
	At        string `json:"at"`
	Synthetic bool   `json:"synthetic,omitempty"`
}

// GraphDump is the serializable view of an assembled constraint graph,
// in the exact edge view blame search walks.
type GraphDump struct {
	Fn          string        `json:"fn,omitempty"`
	NumRegions  int           `json:"num_regions"`
	Static      string        `json:"static,omitempty"`
	Regions     []GraphRegion `json:"regions"`
	Constraints []GraphEdge   `json:"constraints"`
	Groups      [][]string    `json:"groups,omitempty"`
}

// PathStep is one constraint along a dumped blame path.
type PathStep struct {
	Sup      string `json:"sup"`
	Sub      string `json:"sub"`
	Category string `json:"category"`
	At       string `json:"at"`
}

// DumpGraph flattens the inference for the graph command. Edges come
// from the same walk blame search uses, so the static region shows its
// synthetic outgoing edges rather than its recorded ones. Groups are
// listed only when withGroups is set.
func DumpGraph(inf *region.Inference, withGroups bool) *GraphDump {
	static := inf.Universals.Static()
	d := &GraphDump{
		Fn:         inf.Body.Func.Name,
		NumRegions: inf.NumRegions(),
	}
	if static.IsValid() {
		d.Static = static.String()
	}

	for i := 1; i <= inf.NumRegions(); i++ {
		r := region.RegionID(i)
		row := GraphRegion{
			ID:        r.String(),
			Universal: inf.Universals.IsUniversal(r),
			Local:     inf.Universals.IsLocal(r),
			Static:    r == static,
			Group:     int(inf.Groups.Group(r)),
		}
		if n, ok := inf.Namer.RegionName(r); ok {
			row.Name = n.Text
		}
		d.Regions = append(d.Regions, row)

		synthetic := r == static
		inf.EachOutgoing(r, func(c region.OutlivesConstraint) {
			d.Constraints = append(d.Constraints, GraphEdge{
				Sup:       c.Sup.String(),
				Sub:       c.Sub.String(),
				Category:  c.Category.String(),
				At:        c.Locations.String(),
				Synthetic: synthetic,
			})
		})
	}

	if withGroups {
		members := make([][]string, inf.Groups.Count()+1)
		for i := 1; i <= inf.NumRegions(); i++ {
			r := region.RegionID(i)
			if g := inf.Groups.Group(r); g.IsValid() {
				members[g] = append(members[g], r.String())
			}
		}
		for g := 1; g < len(members); g++ {
			if len(members[g]) > 0 {
				d.Groups = append(d.Groups, members[g])
			}
		}
	}

	return d
}

// DumpPath runs the same search the blame engine uses and returns the
// constraint chain from fr to outlived.
func DumpPath(inf *region.Inference, fr, outlived region.RegionID) ([]PathStep, error) {
	path, _, ok := inf.FindPath(fr, func(r region.RegionID) bool { return r == outlived })
	if !ok {
		return nil, fmt.Errorf("no constraint path from %s to %s", fr, outlived)
	}
	steps := make([]PathStep, 0, len(path))
	for _, c := range path {
		steps = append(steps, PathStep{
			Sup:      c.Sup.String(),
			Sub:      c.Sub.String(),
			Category: c.Category.String(),
			At:       c.Locations.String(),
		})
	}
	return steps, nil
}

package region

// Equivalence partitions regions into groups of mutual outlives: two
// regions in one group constrain each other in both directions, so they
// must denote the same lifetime. Checkers usually ship the partition in
// the bundle; when they do not, ComputeGroups derives it from the
// constraint graph.
type Equivalence struct {
	group []GroupID
	count uint32
}

// FromGroups wraps a precomputed assignment, indexed by region with
// slot 0 unused. Count is taken as the highest group seen.
func FromGroups(assign []GroupID) *Equivalence {
	var count uint32
	for _, g := range assign {
		if uint32(g) > count {
			count = uint32(g)
		}
	}
	return &Equivalence{group: assign, count: count}
}

// Group returns the group of r, or NoGroupID if r is out of range.
func (e *Equivalence) Group(r RegionID) GroupID {
	if !r.IsValid() || int(r) >= len(e.group) {
		return NoGroupID
	}
	return e.group[r]
}

// Same reports whether a and b share a group.
func (e *Equivalence) Same(a, b RegionID) bool {
	ga := e.Group(a)
	return ga.IsValid() && ga == e.Group(b)
}

// Count reports the number of groups.
func (e *Equivalence) Count() int { return int(e.count) }

// ComputeGroups runs Tarjan's algorithm over the constraint graph and
// assigns each strongly connected component a group. The walk uses the
// same edge view as path search, so the static region's synthetic edges
// participate: a region constrained to outlive `'static` lands in the
// static group.
func ComputeGroups(set *ConstraintSet, graph *ConstraintGraph, static RegionID) *Equivalence {
	n := graph.NumRegions()
	succ := make([][]RegionID, n+1)
	for r := 1; r <= n; r++ {
		graph.EachOutgoing(set, static, RegionID(r), func(c OutlivesConstraint) {
			succ[r] = append(succ[r], c.Sub)
		})
	}

	const undef = ^uint32(0)
	index := make([]uint32, n+1)
	low := make([]uint32, n+1)
	onStack := make([]bool, n+1)
	for i := range index {
		index[i] = undef
	}
	group := make([]GroupID, n+1)
	var next, count uint32
	var stack []RegionID

	type frame struct {
		node RegionID
		edge int
	}
	var frames []frame

	for root := 1; root <= n; root++ {
		if index[root] != undef {
			continue
		}
		frames = append(frames[:0], frame{node: RegionID(root)})
		for len(frames) > 0 {
			f := &frames[len(frames)-1]
			v := f.node
			if f.edge == 0 {
				index[v] = next
				low[v] = next
				next++
				stack = append(stack, v)
				onStack[v] = true
			}
			pushed := false
			for f.edge < len(succ[v]) {
				w := succ[v][f.edge]
				f.edge++
				if index[w] == undef {
					frames = append(frames, frame{node: w})
					pushed = true
					break
				}
				if onStack[w] && index[w] < low[v] {
					low[v] = index[w]
				}
			}
			if pushed {
				continue
			}
			if low[v] == index[v] {
				count++
				for {
					w := stack[len(stack)-1]
					stack = stack[:len(stack)-1]
					onStack[w] = false
					group[w] = GroupID(count)
					if w == v {
						break
					}
				}
			}
			frames = frames[:len(frames)-1]
			if len(frames) > 0 {
				parent := frames[len(frames)-1].node
				if low[v] < low[parent] {
					low[parent] = low[v]
				}
			}
		}
	}
	return &Equivalence{group: group, count: count}
}

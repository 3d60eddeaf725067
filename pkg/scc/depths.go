package scc

import (
	"cmp"
	"slices"
)

// Depths returns the depth of every component, indexed by component index.
// The depth of a component is the maximum depth among its predecessors plus
// one, and a component with no predecessors has depth zero. Self edges are
// ignored, so a lone self-looping component still sits at depth zero.
func (c *Components[V]) Depths() []int {
	succs := make([][]int, len(c.succ))
	for i, set := range c.succ {
		for j := range set {
			succs[i] = append(succs[i], j)
		}
	}
	return relaxDepths(succs)
}

// OrderByDepth returns the component indices sorted by depth, shallowest
// first. The order among components of equal depth is not specified.
func (c *Components[V]) OrderByDepth() []int {
	depths := c.Depths()
	order := make([]int, len(depths))
	for i := range order {
		order[i] = i
	}
	slices.SortFunc(order, func(a, b int) int {
		return cmp.Compare(depths[a], depths[b])
	})
	return order
}

// Depths computes component depths directly from a predecessor table, where
// entry j holds the components with an edge into j. It agrees with the
// Depths method: feeding it the Predecessors table of a result returns the
// same slice the method returns.
//
// Apart from self edges, which are ignored, the table must describe an
// acyclic relation. Entries pointing outside the table are ignored.
func Depths(predecessors []map[int]bool) []int {
	n := len(predecessors)
	succs := make([][]int, n)
	for j, preds := range predecessors {
		for p := range preds {
			if p >= 0 && p < n {
				succs[p] = append(succs[p], j)
			}
		}
	}
	return relaxDepths(succs)
}

// relaxDepths runs the worklist relaxation: every component starts at depth
// zero and each edge pushes its target to at least one past its source.
// Only strict increases propagate, so the loop settles once the longest
// paths are found.
func relaxDepths(succs [][]int) []int {
	depth := make([]int, len(succs))

	type entry struct {
		comp  int
		depth int
	}
	stack := make([]entry, 0, len(succs))
	for i := range succs {
		stack = append(stack, entry{comp: i})
	}

	for len(stack) > 0 {
		e := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if depth[e.comp] != 0 && e.depth <= depth[e.comp] {
			continue
		}
		depth[e.comp] = e.depth
		for _, s := range succs[e.comp] {
			if s != e.comp {
				stack = append(stack, entry{comp: s, depth: e.depth + 1})
			}
		}
	}
	return depth
}

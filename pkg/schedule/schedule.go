// Package schedule plans processing order over a condensed dependency
// graph.
//
// An edge from component i to component j in the condensation means i
// depends on j, so j must be handled first. Dependency depth puts every
// prerequisite of a component strictly deeper than the component itself,
// which makes the depth levels natural build stages.
package schedule

import (
	"maps"
	"slices"

	"github.com/ritzau/scc-analyzer/pkg/scc"
)

// Stage is one batch of components that can be processed together.
type Stage struct {
	Depth      int
	Components []int // component indices, ascending
}

// Stages returns batches in processing order, deepest stage first. Every
// dependency of a component sits in an earlier stage, and components
// within one stage never depend on each other, so a stage can run in
// parallel once its predecessors in the slice are done.
func Stages[V comparable](c *scc.Components[V]) []Stage {
	depths := c.Depths()
	if len(depths) == 0 {
		return nil
	}

	// Depth levels have no gaps: a component at depth k > 0 always has a
	// predecessor at depth k-1.
	buckets := make([][]int, slices.Max(depths)+1)
	for i, d := range depths {
		buckets[d] = append(buckets[d], i)
	}

	stages := make([]Stage, 0, len(buckets))
	for d := len(buckets) - 1; d >= 0; d-- {
		stages = append(stages, Stage{Depth: d, Components: buckets[d]})
	}
	return stages
}

// Order flattens Stages into a single processing order over all component
// indices, dependencies before dependents.
func Order[V comparable](c *scc.Components[V]) []int {
	var order []int
	for _, st := range Stages(c) {
		order = append(order, st.Components...)
	}
	return order
}

// EffectiveDeps returns the minimal prerequisite set of component i: its
// direct successors, sorted, with transitively implied edges removed. A
// cyclic component is not its own prerequisite. Out-of-range indices
// report false.
func EffectiveDeps[V comparable](c *scc.Components[V], i int) ([]int, bool) {
	direct, ok := c.DirectSuccessors(i)
	if !ok {
		return nil, false
	}
	return slices.Sorted(maps.Keys(direct)), true
}

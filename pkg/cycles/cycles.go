// Package cycles reports circular dependencies in a dependency graph.
package cycles

import (
	"sort"

	"github.com/ritzau/scc-analyzer/pkg/graph"
	"github.com/ritzau/scc-analyzer/pkg/scc"
)

// Cycle is one strongly connected group of mutually dependent nodes. A
// single node shows up only when it depends on itself.
type Cycle struct {
	Component int      // component index in the condensation
	Members   []string // node labels, sorted
}

// FindCycles condenses dg and returns its cyclic components, ordered by
// component index.
func FindCycles(dg *graph.DepGraph) []Cycle {
	return Collect(dg, dg.SCC())
}

// Collect extracts cyclic components from an already computed condensation
// of dg. Members are sorted so output stays stable across runs.
func Collect(dg *graph.DepGraph, comps *scc.Components[int64]) []Cycle {
	found := make([]Cycle, 0)
	for i, members := range comps.All() {
		if !comps.IsCyclic(i) {
			continue
		}
		labels := dg.Labels(members)
		sort.Strings(labels)
		found = append(found, Cycle{Component: i, Members: labels})
	}
	return found
}

// MemberCount returns how many nodes sit inside cycles.
func MemberCount(cycles []Cycle) int {
	n := 0
	for _, c := range cycles {
		n += len(c.Members)
	}
	return n
}

// Largest returns the size of the biggest cycle, or 0 when there is none.
func Largest(cycles []Cycle) int {
	largest := 0
	for _, c := range cycles {
		largest = max(largest, len(c.Members))
	}
	return largest
}

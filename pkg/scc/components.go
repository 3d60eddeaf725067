package scc

import (
	"iter"
	"maps"
	"slices"
)

// Components is the result of Compute: the partition of the visited vertices
// into strongly connected components plus the edges of the condensation.
//
// Queries never panic. Index-based lookups report absence for out-of-range
// indices and vertex-based lookups report absence for unknown vertices, so a
// caller can probe freely.
type Components[V comparable] struct {
	list  [][]V         // components in completion order
	index map[V]int     // vertex to component index
	succ  []map[int]bool // condensation successor sets, self edge iff cyclic
}

// Len returns the number of components.
func (c *Components[V]) Len() int {
	return len(c.list)
}

// IsEmpty reports whether no components were found, which happens exactly
// when the graph had no vertices.
func (c *Components[V]) IsEmpty() bool {
	return len(c.list) == 0
}

// All iterates the components in index order, yielding each index with its
// member slice. The sequence is restartable.
func (c *Components[V]) All() iter.Seq2[int, []V] {
	return slices.All(c.list)
}

// IndexOf returns the component index of v, or false if v was not part of
// the graph.
func (c *Components[V]) IndexOf(v V) (int, bool) {
	i, ok := c.index[v]
	return i, ok
}

// Component returns the members of component i. The slice is shared with the
// result and must not be modified.
func (c *Components[V]) Component(i int) ([]V, bool) {
	if i < 0 || i >= len(c.list) {
		return nil, false
	}
	return c.list[i], true
}

// ComponentOf returns the members of the component containing v.
func (c *Components[V]) ComponentOf(v V) ([]V, bool) {
	i, ok := c.index[v]
	if !ok {
		return nil, false
	}
	return c.list[i], true
}

// Successors returns the condensation successors of component i, including i
// itself when the component is cyclic. The sequence is restartable.
func (c *Components[V]) Successors(i int) (iter.Seq[int], bool) {
	if i < 0 || i >= len(c.succ) {
		return nil, false
	}
	return maps.Keys(c.succ[i]), true
}

// IsCyclic reports whether component i contains a cycle, meaning it has more
// than one member or a member with a self loop. Out-of-range indices report
// false.
func (c *Components[V]) IsCyclic(i int) bool {
	if i < 0 || i >= len(c.list) {
		return false
	}
	return len(c.list[i]) > 1 || c.succ[i][i]
}

// Predecessors derives the inverse of the condensation edges: entry j holds
// the set of components with an edge into j. Self edges are preserved. The
// table is built fresh on every call and is the caller's to keep.
func (c *Components[V]) Predecessors() []map[int]bool {
	preds := make([]map[int]bool, len(c.succ))
	for i := range preds {
		preds[i] = make(map[int]bool)
	}
	for i, succs := range c.succ {
		for j := range succs {
			preds[j][i] = true
		}
	}
	return preds
}

// DirectSuccessors returns the successors of component i that are not
// reachable through any other successor of i, excluding i itself. This is
// the local transitive reduction: the minimal set of edges out of i that
// preserves reachability.
//
// The walk marks each component at most once, so cyclic components and
// shared substructure terminate like everything else.
func (c *Components[V]) DirectSuccessors(i int) (map[int]bool, bool) {
	if i < 0 || i >= len(c.succ) {
		return nil, false
	}

	// Everything reachable from a successor of i through at least one edge
	// is indirect. Self edges contribute nothing and are skipped so that a
	// cyclic successor does not disqualify itself.
	seen := make(map[int]bool)
	indirect := make(map[int]bool)
	var stack []int
	for s := range c.succ[i] {
		if s != i {
			stack = append(stack, s)
		}
	}
	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[s] {
			continue
		}
		seen[s] = true
		for t := range c.succ[s] {
			if t == s {
				continue
			}
			indirect[t] = true
			stack = append(stack, t)
		}
	}

	direct := make(map[int]bool)
	for s := range c.succ[i] {
		if s != i && !indirect[s] {
			direct[s] = true
		}
	}
	return direct, true
}

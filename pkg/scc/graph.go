// Package scc computes strongly connected components and exposes the
// condensation of a directed graph as a queryable result structure.
//
// Callers describe their graph through the Graph capability, run Compute
// once, and then ask the returned Components about membership, condensation
// edges, depths, and orderings. The package does no I/O and keeps no global
// state, so it can sit under any loader or server.
package scc

import (
	"iter"
	"maps"
	"slices"
)

// Graph is the minimal capability the engine needs: enumerate the vertices
// and, for any vertex, enumerate its successors.
//
// Vertices must be finite. Duplicate vertices are tolerated; only the first
// occurrence is visited. Successor sequences must be restartable because the
// engine walks them once during traversal and once more while deriving
// condensation edges. A successor that never appears in Vertices is still
// visited and becomes part of the result.
type Graph[V comparable] interface {
	Vertices() iter.Seq[V]
	Successors(v V) iter.Seq[V]
}

// AdjacencyList adapts a dense index-based adjacency list. Vertex i's
// successors are the ith slice; vertices are 0 through len-1.
type AdjacencyList [][]int

func (g AdjacencyList) Vertices() iter.Seq[int] {
	return func(yield func(int) bool) {
		for i := range g {
			if !yield(i) {
				return
			}
		}
	}
}

// Successors yields the recorded successors of v. Indices outside the list
// are treated as vertices with no successors.
func (g AdjacencyList) Successors(v int) iter.Seq[int] {
	if v < 0 || v >= len(g) {
		return func(func(int) bool) {}
	}
	return slices.Values(g[v])
}

// AdjacencyMap adapts a key-based adjacency map. Every key is a vertex;
// successors are the value slices and may name keys absent from the map.
//
// Vertices iterates in Go map order, so component numbering can differ
// between runs. The partition itself does not.
type AdjacencyMap[V comparable] map[V][]V

func (g AdjacencyMap[V]) Vertices() iter.Seq[V] {
	return maps.Keys(g)
}

func (g AdjacencyMap[V]) Successors(v V) iter.Seq[V] {
	return slices.Values(g[v])
}

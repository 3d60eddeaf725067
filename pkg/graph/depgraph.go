package graph

import (
	"iter"
	"sort"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"

	"github.com/ritzau/scc-analyzer/pkg/scc"
)

// DepGraph is a directed dependency graph over string labels, backed by a
// gonum graph. Labels get dense int64 ids in insertion order, which keeps
// component numbering stable for a given input.
//
// gonum's simple graph rejects self edges, so those are kept in a side set
// and merged back in by the traversal adapter.
type DepGraph struct {
	g         *simple.DirectedGraph
	ids       map[string]int64
	labels    []string // id to label, ids are dense from 0
	selfLoops map[int64]bool
	edgeCount int
}

// NewDepGraph creates an empty dependency graph.
func NewDepGraph() *DepGraph {
	return &DepGraph{
		g:         simple.NewDirectedGraph(),
		ids:       make(map[string]int64),
		selfLoops: make(map[int64]bool),
	}
}

// AddNode ensures a node for label and returns its id.
func (dg *DepGraph) AddNode(label string) int64 {
	if id, exists := dg.ids[label]; exists {
		return id
	}
	id := int64(len(dg.labels))
	dg.ids[label] = id
	dg.labels = append(dg.labels, label)
	dg.g.AddNode(simple.Node(id))
	return id
}

// AddEdge records a dependency from one label on another, creating missing
// nodes. Duplicate edges collapse.
func (dg *DepGraph) AddEdge(from, to string) {
	fromID := dg.AddNode(from)
	toID := dg.AddNode(to)

	if fromID == toID {
		if !dg.selfLoops[fromID] {
			dg.selfLoops[fromID] = true
			dg.edgeCount++
		}
		return
	}
	if !dg.g.HasEdgeFromTo(fromID, toID) {
		dg.g.SetEdge(dg.g.NewEdge(dg.g.Node(fromID), dg.g.Node(toID)))
		dg.edgeCount++
	}
}

// ID returns the id of a label.
func (dg *DepGraph) ID(label string) (int64, bool) {
	id, ok := dg.ids[label]
	return id, ok
}

// Label returns the label of an id.
func (dg *DepGraph) Label(id int64) (string, bool) {
	if id < 0 || id >= int64(len(dg.labels)) {
		return "", false
	}
	return dg.labels[id], true
}

// Labels resolves a batch of ids, skipping unknown ones.
func (dg *DepGraph) Labels(ids []int64) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if label, ok := dg.Label(id); ok {
			out = append(out, label)
		}
	}
	return out
}

// NodeCount returns the number of nodes.
func (dg *DepGraph) NodeCount() int {
	return len(dg.labels)
}

// EdgeCount returns the number of distinct edges, self loops included.
func (dg *DepGraph) EdgeCount() int {
	return dg.edgeCount
}

// Nodes returns all labels in insertion order.
func (dg *DepGraph) Nodes() []string {
	return append([]string(nil), dg.labels...)
}

// Edges returns all edges as [from, to] label pairs, sorted for stable
// output.
func (dg *DepGraph) Edges() [][2]string {
	edges := make([][2]string, 0, dg.edgeCount)
	it := dg.g.Edges()
	for it.Next() {
		e := it.Edge()
		from, _ := dg.Label(e.From().ID())
		to, _ := dg.Label(e.To().ID())
		edges = append(edges, [2]string{from, to})
	}
	for id := range dg.selfLoops {
		label, _ := dg.Label(id)
		edges = append(edges, [2]string{label, label})
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i][0] != edges[j][0] {
			return edges[i][0] < edges[j][0]
		}
		return edges[i][1] < edges[j][1]
	})
	return edges
}

// Successors returns the labels the given label depends on, sorted.
func (dg *DepGraph) Successors(label string) []string {
	id, ok := dg.ids[label]
	if !ok {
		return nil
	}
	var out []string
	if dg.selfLoops[id] {
		out = append(out, label)
	}
	it := dg.g.From(id)
	for it.Next() {
		if l, ok := dg.Label(it.Node().ID()); ok {
			out = append(out, l)
		}
	}
	sort.Strings(out)
	return out
}

// SCC condenses the graph. Vertices are walked in id order, so the numbering
// is reproducible for the same input.
func (dg *DepGraph) SCC() *scc.Components[int64] {
	return scc.Compute[int64](depView{
		Adapter: Adapter{G: dg.g, SelfLoops: dg.selfLoops},
		n:       int64(len(dg.labels)),
	})
}

// Adapter presents any gonum directed graph, plus an optional self-loop
// overlay, as a traversable graph for the scc package.
type Adapter struct {
	G         graph.Directed
	SelfLoops map[int64]bool
}

func (a Adapter) Vertices() iter.Seq[int64] {
	return func(yield func(int64) bool) {
		nodes := a.G.Nodes()
		for nodes.Next() {
			if !yield(nodes.Node().ID()) {
				return
			}
		}
	}
}

func (a Adapter) Successors(v int64) iter.Seq[int64] {
	return func(yield func(int64) bool) {
		if a.SelfLoops[v] {
			if !yield(v) {
				return
			}
		}
		to := a.G.From(v)
		for to.Next() {
			if !yield(to.Node().ID()) {
				return
			}
		}
	}
}

// depView walks vertices in dense id order instead of gonum map order.
type depView struct {
	Adapter
	n int64
}

func (v depView) Vertices() iter.Seq[int64] {
	return func(yield func(int64) bool) {
		for id := int64(0); id < v.n; id++ {
			if !yield(id) {
				return
			}
		}
	}
}

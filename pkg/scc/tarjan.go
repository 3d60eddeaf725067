package scc

import "iter"

// Compute runs Tarjan's algorithm over g and returns its strongly connected
// components as a Components value.
//
// Component indices follow completion order, which is a reverse topological
// order of the condensation: every successor component of component i has an
// index no greater than i, with equality only for the self edge of a cyclic
// component. Within a component, vertices appear in the order they were
// popped off the traversal stack.
//
// The walk is iterative with an explicit frame stack, so graph depth is
// bounded by memory rather than by goroutine stack growth.
func Compute[V comparable](g Graph[V]) *Components[V] {
	t := &tarjan[V]{
		graph:   g,
		indices: make(map[V]int),
	}
	for v := range g.Vertices() {
		if _, visited := t.indices[v]; !visited {
			t.strongConnect(v)
		}
	}

	// Fold the discovery records into the final vertex to component map.
	index := make(map[V]int, len(t.indices))
	for v, di := range t.indices {
		index[v] = t.nodes[di].component
	}

	// Derive condensation edges from the original graph. A component points
	// to itself exactly when it is cyclic.
	succ := make([]map[int]bool, len(t.comps))
	for i, members := range t.comps {
		succ[i] = make(map[int]bool)
		for _, v := range members {
			for w := range g.Successors(v) {
				succ[i][index[w]] = true
			}
		}
	}

	return &Components[V]{list: t.comps, index: index, succ: succ}
}

// tarjan holds the traversal state. Discovery indices double as positions in
// the nodes slice, so per-vertex state lives in one dense allocation and the
// indices map is the only generic lookup.
type tarjan[V comparable] struct {
	graph   Graph[V]
	indices map[V]int // vertex to discovery index
	nodes   []node    // per-vertex state, indexed by discovery index
	stack   []V       // component stack
	comps   [][]V
}

type node struct {
	lowLink   int
	onStack   bool
	component int
}

// frame is one suspended vertex in the iterative walk. next and stop come
// from iter.Pull over the vertex's successor sequence.
type frame[V comparable] struct {
	v    V
	di   int // discovery index of v
	next func() (V, bool)
	stop func()
}

// strongConnect walks the subgraph reachable from root, finishing every
// component whose root lies on the path.
func (t *tarjan[V]) strongConnect(root V) {
	frames := []frame[V]{t.discover(root)}

	for len(frames) > 0 {
		f := &frames[len(frames)-1]

		// Advance through f's successors until one needs its own frame.
		descended := false
		for {
			w, ok := f.next()
			if !ok {
				break
			}
			wi, visited := t.indices[w]
			if !visited {
				frames = append(frames, t.discover(w))
				descended = true
				break
			}
			if t.nodes[wi].onStack && wi < t.nodes[f.di].lowLink {
				// On-stack successor: its discovery index caps our low link.
				t.nodes[f.di].lowLink = wi
			}
		}
		if descended {
			continue
		}

		// All successors handled. If f.v is a component root, pop it.
		f.stop()
		low := t.nodes[f.di].lowLink
		if low == f.di {
			t.popComponent(f.v)
		}

		frames = frames[:len(frames)-1]
		if n := len(frames); n > 0 {
			parent := &frames[n-1]
			if low < t.nodes[parent.di].lowLink {
				t.nodes[parent.di].lowLink = low
			}
		}
	}
}

// discover assigns v the next discovery index, pushes it on the component
// stack, and opens its successor cursor.
func (t *tarjan[V]) discover(v V) frame[V] {
	di := len(t.nodes)
	t.indices[v] = di
	t.nodes = append(t.nodes, node{lowLink: di, onStack: true, component: -1})
	t.stack = append(t.stack, v)

	next, stop := iter.Pull(t.graph.Successors(v))
	return frame[V]{v: v, di: di, next: next, stop: stop}
}

// popComponent pops the component stack down through root and records the
// finished component. Members keep pop order, so root comes out last.
func (t *tarjan[V]) popComponent(root V) {
	id := len(t.comps)
	var members []V
	for {
		w := t.stack[len(t.stack)-1]
		t.stack = t.stack[:len(t.stack)-1]
		wi := t.indices[w]
		t.nodes[wi].onStack = false
		t.nodes[wi].component = id
		members = append(members, w)
		if w == root {
			break
		}
	}
	t.comps = append(t.comps, members)
}

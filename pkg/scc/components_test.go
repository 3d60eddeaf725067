package scc

import (
	"maps"
	"slices"
	"sort"
	"testing"
)

func TestAbsentResults(t *testing.T) {
	c := Compute[int](AdjacencyList{0: {1}, 1: {}})

	if i, ok := c.IndexOf(42); ok {
		t.Errorf("IndexOf(42) = %d, true, want absent", i)
	}
	if m, ok := c.ComponentOf(42); ok {
		t.Errorf("ComponentOf(42) = %v, true, want absent", m)
	}
	for _, i := range []int{-1, c.Len(), c.Len() + 7} {
		if m, ok := c.Component(i); ok {
			t.Errorf("Component(%d) = %v, true, want absent", i, m)
		}
		if _, ok := c.Successors(i); ok {
			t.Errorf("Successors(%d) present, want absent", i)
		}
		if _, ok := c.DirectSuccessors(i); ok {
			t.Errorf("DirectSuccessors(%d) present, want absent", i)
		}
		if c.IsCyclic(i) {
			t.Errorf("IsCyclic(%d) = true, want false", i)
		}
	}
}

func TestComponentLookups(t *testing.T) {
	g := AdjacencyList{
		0: {1},
		1: {0, 2},
		2: {},
	}
	c := Compute[int](g)

	members, ok := c.Component(1)
	if !ok {
		t.Fatal("Component(1) absent")
	}
	sorted := append([]int(nil), members...)
	sort.Ints(sorted)
	if !slices.Equal(sorted, []int{0, 1}) {
		t.Errorf("Component(1) = %v, want {0,1}", sorted)
	}

	byVertex, ok := c.ComponentOf(0)
	if !ok {
		t.Fatal("ComponentOf(0) absent")
	}
	if &byVertex[0] != &members[0] {
		t.Error("ComponentOf and Component disagree on the backing component")
	}

	if i, ok := c.IndexOf(2); !ok || i != 0 {
		t.Errorf("IndexOf(2) = %d, %v, want 0, true", i, ok)
	}
}

func TestPredecessorsInvertSuccessors(t *testing.T) {
	for _, fix := range sccFixtures {
		t.Run(fix.name, func(t *testing.T) {
			c := Compute[int](fix.graph)
			preds := c.Predecessors()

			if len(preds) != c.Len() {
				t.Fatalf("Predecessors has %d entries, want %d", len(preds), c.Len())
			}
			want := make([]map[int]bool, c.Len())
			for i := range want {
				want[i] = make(map[int]bool)
			}
			for i, succs := range collectSuccessors(c) {
				for j := range succs {
					want[j][i] = true
				}
			}
			for j := range want {
				if !maps.Equal(preds[j], want[j]) {
					t.Errorf("Predecessors[%d] = %v, want %v", j, preds[j], want[j])
				}
			}
		})
	}
}

func TestPredecessorsKeepSelfEdges(t *testing.T) {
	c := Compute[int](AdjacencyList{0: {0}})
	preds := c.Predecessors()
	if !preds[0][0] {
		t.Errorf("Predecessors[0] = %v, want self edge kept", preds[0])
	}
}

func TestDirectSuccessorsDiamond(t *testing.T) {
	// x depends on a, b, and d, while a and b each depend on d. The edge
	// x to d is redundant, so only a and b are direct.
	g := AdjacencyMap[string]{
		"x": {"a", "b", "d"},
		"a": {"d"},
		"b": {"d"},
		"d": {},
	}
	c := Compute[string](g)

	ix, _ := c.IndexOf("x")
	ia, _ := c.IndexOf("a")
	ib, _ := c.IndexOf("b")

	direct, ok := c.DirectSuccessors(ix)
	if !ok {
		t.Fatal("DirectSuccessors absent for valid index")
	}
	want := map[int]bool{ia: true, ib: true}
	if !maps.Equal(direct, want) {
		t.Errorf("DirectSuccessors(x) = %v, want %v", direct, want)
	}
}

func TestDirectSuccessorsChain(t *testing.T) {
	// 0 -> 1 -> 2 plus the shortcut 0 -> 2. Only 1 is direct for 0.
	g := AdjacencyList{
		0: {1, 2},
		1: {2},
		2: {},
	}
	c := Compute[int](g)

	i0, _ := c.IndexOf(0)
	i1, _ := c.IndexOf(1)

	direct, _ := c.DirectSuccessors(i0)
	if !maps.Equal(direct, map[int]bool{i1: true}) {
		t.Errorf("DirectSuccessors(0) = %v, want only component of 1", direct)
	}
}

func TestDirectSuccessorsExcludesSelf(t *testing.T) {
	// The {0,1} component is cyclic, so its successor set contains itself.
	// The self index must not show up as a direct successor, and the walk
	// must terminate despite the self edge.
	g := AdjacencyList{
		0: {1},
		1: {0, 2},
		2: {},
	}
	c := Compute[int](g)

	ic, _ := c.IndexOf(0)
	it, _ := c.IndexOf(2)

	direct, ok := c.DirectSuccessors(ic)
	if !ok {
		t.Fatal("DirectSuccessors absent for valid index")
	}
	if !maps.Equal(direct, map[int]bool{it: true}) {
		t.Errorf("DirectSuccessors = %v, want only the tail component %d", direct, it)
	}
}

func TestDirectSuccessorsThroughCyclicMiddle(t *testing.T) {
	// a depends on the cyclic pair {b1,b2} and on c, and the pair also
	// depends on c. The self edge of the pair must not hide that c is
	// reachable through it.
	g := AdjacencyMap[string]{
		"a":  {"b1", "c"},
		"b1": {"b2"},
		"b2": {"b1", "c"},
		"c":  {},
	}
	c := Compute[string](g)

	ia, _ := c.IndexOf("a")
	ib, _ := c.IndexOf("b1")

	direct, ok := c.DirectSuccessors(ia)
	if !ok {
		t.Fatal("DirectSuccessors absent for valid index")
	}
	if !maps.Equal(direct, map[int]bool{ib: true}) {
		t.Errorf("DirectSuccessors(a) = %v, want only the cyclic pair %d", direct, ib)
	}
}

func TestDirectSuccessorsCyclicNeighborStaysDirect(t *testing.T) {
	// s has a self loop and nothing else reaches it, so it stays direct.
	g := AdjacencyMap[string]{
		"x": {"s", "t"},
		"s": {"s"},
		"t": {},
	}
	c := Compute[string](g)

	ix, _ := c.IndexOf("x")
	is, _ := c.IndexOf("s")
	it, _ := c.IndexOf("t")

	direct, _ := c.DirectSuccessors(ix)
	want := map[int]bool{is: true, it: true}
	if !maps.Equal(direct, want) {
		t.Errorf("DirectSuccessors(x) = %v, want %v", direct, want)
	}
}

func TestSuccessorsRestartable(t *testing.T) {
	c := Compute[int](sccFixtures[0].graph)

	succ, ok := c.Successors(c.Len() - 1)
	if !ok {
		t.Fatal("Successors absent for valid index")
	}
	first := slices.Sorted(succ)
	second := slices.Sorted(succ)
	if !slices.Equal(first, second) {
		t.Errorf("successor sequence not restartable: %v then %v", first, second)
	}

	all := c.All()
	n1 := 0
	for range all {
		n1++
	}
	n2 := 0
	for range all {
		n2++
	}
	if n1 != n2 || n1 != c.Len() {
		t.Errorf("All not restartable: %d then %d, want %d", n1, n2, c.Len())
	}
}

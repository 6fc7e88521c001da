package dag

import (
	"slices"
	"testing"
)

func TestRoot_ScenarioA(t *testing.T) {
	g := Build([]LogNode{
		{ID: "n1", Message: "m1"},
		{ID: "n2", Parents: []string{"n1"}, Message: "m2"},
	})

	root, ok := g.Root()
	if !ok || root != "n1" {
		t.Errorf("Root() = %q, %v, want n1, true", root, ok)
	}
	if got := g.TopologicalOrder(); !slices.Equal(got, []string{"n1", "n2"}) {
		t.Errorf("TopologicalOrder() = %v, want [n1 n2]", got)
	}
}

func TestRoot_SingleNode(t *testing.T) {
	g := Build([]LogNode{{ID: "n1"}})
	if root, ok := g.Root(); !ok || root != "n1" {
		t.Errorf("Root() = %q, %v, want n1, true", root, ok)
	}
	if got := g.Leaves(); !slices.Equal(got, []string{"n1"}) {
		t.Errorf("Leaves() = %v, want [n1]", got)
	}
}

func TestRoot_Empty(t *testing.T) {
	g := New()
	if _, ok := g.Root(); ok {
		t.Error("Root() on empty graph should report false")
	}
	if g.Roots() != nil {
		t.Errorf("Roots() = %v, want nil", g.Roots())
	}
}

func TestRoot_ForestUsesRegistrationOrder(t *testing.T) {
	g := Build([]LogNode{
		{ID: "x", Parents: []string{"y"}},
		{ID: "y"},
		{ID: "z"},
	})
	if root, _ := g.Root(); root != "y" {
		t.Errorf("Root() = %q, want y", root)
	}
	if got := g.Roots(); !slices.Equal(got, []string{"y", "z"}) {
		t.Errorf("Roots() = %v, want [y z]", got)
	}
}

func TestRoot_DanglingParentIsNotRoot(t *testing.T) {
	g := Build([]LogNode{
		{ID: "a", Parents: []string{"ghost"}},
		{ID: "b", Parents: []string{"a"}},
	})
	if _, ok := g.FindRoot(); ok {
		t.Error("FindRoot() should not pick a node with declared parents")
	}
	if got := g.Roots(); !slices.Equal(got, []string{"a"}) {
		t.Errorf("Roots() = %v, want [a]", got)
	}
}

func TestRoot_InvalidatedOnMutation(t *testing.T) {
	g := Build([]LogNode{{ID: "b"}})
	if root, _ := g.Root(); root != "b" {
		t.Fatalf("Root() = %q, want b", root)
	}

	g.AddNode(LogNode{ID: "a"})
	g.AddEdge("a", "b")

	if root, _ := g.Root(); root != "a" {
		t.Errorf("Root() after AddEdge = %q, want a", root)
	}
}

func TestTopologicalOrder_ScenarioC(t *testing.T) {
	g := Build([]LogNode{
		{ID: "a"},
		{ID: "b", Parents: []string{"a"}},
		{ID: "c"},
		{ID: "d", Parents: []string{"c"}},
	})

	order := g.TopologicalOrder()
	if len(order) != 4 {
		t.Fatalf("TopologicalOrder() = %v, want 4 ids", order)
	}
	pos := PosMap(order)
	if pos["a"] > pos["b"] {
		t.Errorf("a after b in %v", order)
	}
	if pos["c"] > pos["d"] {
		t.Errorf("c after d in %v", order)
	}
}

func TestTopologicalOrder_ConsistentWithEdges(t *testing.T) {
	g := Build([]LogNode{
		{ID: "e", Parents: []string{"c", "d"}},
		{ID: "d", Parents: []string{"b"}},
		{ID: "c", Parents: []string{"a", "b"}},
		{ID: "b", Parents: []string{"a"}},
		{ID: "a"},
		{ID: "f", Parents: []string{"e", "a"}},
	})

	order := g.TopologicalOrder()
	if len(order) != g.Size() {
		t.Fatalf("len(TopologicalOrder()) = %d, want %d", len(order), g.Size())
	}
	pos := PosMap(order)
	for _, e := range g.Edges() {
		if pos[e.From] >= pos[e.To] {
			t.Errorf("edge %s->%s violates order %v", e.From, e.To, order)
		}
	}
}

func TestTopologicalOrder_Deterministic(t *testing.T) {
	g := Build([]LogNode{
		{ID: "a"},
		{ID: "b", Parents: []string{"a"}},
		{ID: "c", Parents: []string{"a"}},
		{ID: "d"},
	})
	first := g.TopologicalOrder()
	for range 10 {
		if got := g.TopologicalOrder(); !slices.Equal(got, first) {
			t.Fatalf("TopologicalOrder() = %v, previously %v", got, first)
		}
		if root, _ := g.Root(); root != "a" {
			t.Fatalf("Root() = %q, want a", root)
		}
	}
	// Components are entered in registration order; children in edge order.
	if want := []string{"d", "a", "c", "b"}; !slices.Equal(first, want) {
		t.Errorf("TopologicalOrder() = %v, want %v", first, want)
	}
}

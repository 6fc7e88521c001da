package dag

import (
	"errors"
	"slices"
	"testing"
)

func TestAddNode_ReRegistration(t *testing.T) {
	g := New()
	g.AddNode(LogNode{ID: "n1", Message: "first"})
	g.AddNode(LogNode{ID: "n1", Message: "second", Level: "ERROR"})

	if g.Size() != 1 {
		t.Errorf("Size() = %d, want 1", g.Size())
	}
	n, ok := g.Node("n1")
	if !ok {
		t.Fatal("Node(n1) not found")
	}
	if n.Message != "second" || n.Level != "ERROR" {
		t.Errorf("Node(n1) = %+v, want replaced payload", n)
	}
	if got := g.IDs(); !slices.Equal(got, []string{"n1"}) {
		t.Errorf("IDs() = %v, want [n1]", got)
	}
}

func TestAddNode_ReplaceKeepsAcceptedParents(t *testing.T) {
	g := New()
	g.AddNode(LogNode{ID: "a"})
	g.AddNode(LogNode{ID: "b"})
	if !g.AddEdge("a", "b") {
		t.Fatal("AddEdge(a, b) = false")
	}

	g.AddNode(LogNode{ID: "b", Message: "replaced"})

	n, _ := g.Node("b")
	if !slices.Contains(n.Parents, "a") {
		t.Errorf("Parents = %v, want to contain a", n.Parents)
	}
	if err := g.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestAddNode_CopiesParents(t *testing.T) {
	parents := []string{"x"}
	g := New()
	g.AddNode(LogNode{ID: "n", Parents: parents})
	parents[0] = "mutated"

	n, _ := g.Node("n")
	if n.Parents[0] != "x" {
		t.Errorf("Parents[0] = %q, want x", n.Parents[0])
	}
}

func TestAddEdge(t *testing.T) {
	tests := []struct {
		name     string
		nodes    []string
		existing [][2]string
		from, to string
		want     EdgeResult
	}{
		{"valid", []string{"a", "b"}, nil, "a", "b", EdgeAdded},
		{"missing source", []string{"b"}, nil, "a", "b", EdgeRejectedMissingNode},
		{"missing target", []string{"a"}, nil, "a", "b", EdgeRejectedMissingNode},
		{"self loop", []string{"a"}, nil, "a", "a", EdgeRejectedCycle},
		{"duplicate", []string{"a", "b"}, [][2]string{{"a", "b"}}, "a", "b", EdgeExists},
		{"back edge", []string{"a", "b"}, [][2]string{{"a", "b"}}, "b", "a", EdgeRejectedCycle},
		{"long back edge", []string{"a", "b", "c"}, [][2]string{{"a", "b"}, {"b", "c"}}, "c", "a", EdgeRejectedCycle},
		{"diamond close", []string{"a", "b", "c"}, [][2]string{{"a", "b"}, {"b", "c"}}, "a", "c", EdgeAdded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New()
			for _, id := range tt.nodes {
				g.AddNode(LogNode{ID: id})
			}
			for _, e := range tt.existing {
				g.AddEdge(e[0], e[1])
			}
			before := g.EdgeCount()

			got := g.Link(tt.from, tt.to)
			if got != tt.want {
				t.Errorf("Link(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
			wantCount := before
			if tt.want == EdgeAdded {
				wantCount++
			}
			if g.EdgeCount() != wantCount {
				t.Errorf("EdgeCount() = %d, want %d", g.EdgeCount(), wantCount)
			}
			if HasCycle(g) {
				t.Error("HasCycle() = true after Link")
			}
		})
	}
}

func TestAddEdge_AppendsParentOnce(t *testing.T) {
	g := New()
	g.AddNode(LogNode{ID: "a"})
	g.AddNode(LogNode{ID: "b", Parents: []string{"a"}})
	g.AddEdge("a", "b")

	n, _ := g.Node("b")
	if !slices.Equal(n.Parents, []string{"a"}) {
		t.Errorf("Parents = %v, want [a]", n.Parents)
	}

	g.AddNode(LogNode{ID: "c"})
	g.AddEdge("c", "b")
	n, _ = g.Node("b")
	if !slices.Equal(n.Parents, []string{"a", "c"}) {
		t.Errorf("Parents = %v, want [a c]", n.Parents)
	}
}

func TestBuild_ScenarioB(t *testing.T) {
	g := Build([]LogNode{
		{ID: "n1"},
		{ID: "n2", Parents: []string{"n1"}},
	})

	if g.AddEdge("n2", "n1") {
		t.Error("AddEdge(n2, n1) = true, want false")
	}
	want := []Edge{{From: "n1", To: "n2"}}
	if got := g.Edges(); !slices.Equal(got, want) {
		t.Errorf("Edges() = %v, want %v", got, want)
	}
}

func TestBuild_ForwardReferences(t *testing.T) {
	// n1 names a parent that only appears later in the batch.
	g := Build([]LogNode{
		{ID: "n1", Parents: []string{"n0"}},
		{ID: "n0"},
	})
	if !g.HasEdge("n0", "n1") {
		t.Error("HasEdge(n0, n1) = false, want true")
	}
}

func TestBuild_RecordsRejections(t *testing.T) {
	g := Build([]LogNode{
		{ID: "a", Parents: []string{"c"}},
		{ID: "b", Parents: []string{"a", "ghost"}},
		{ID: "c", Parents: []string{"b"}},
	})

	// a←c is attempted first and accepted; b←a accepted; c←b would close a cycle.
	want := []RejectedEdge{
		{From: "ghost", To: "b", Reason: EdgeRejectedMissingNode},
		{From: "b", To: "c", Reason: EdgeRejectedCycle},
	}
	if got := g.Rejected(); !slices.Equal(got, want) {
		t.Errorf("Rejected() = %v, want %v", got, want)
	}
	if err := g.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}

	// The declared parent stays listed even though no edge exists.
	n, _ := g.Node("c")
	if !slices.Contains(n.Parents, "b") {
		t.Errorf("Parents(c) = %v, want to keep declared b", n.Parents)
	}
	if g.InDegree("c") != 0 {
		t.Errorf("InDegree(c) = %d, want 0", g.InDegree("c"))
	}
}

func TestBuild_DuplicateDeclaredParent(t *testing.T) {
	g := Build([]LogNode{
		{ID: "a"},
		{ID: "b", Parents: []string{"a", "a"}},
	})
	if g.EdgeCount() != 1 {
		t.Errorf("EdgeCount() = %d, want 1", g.EdgeCount())
	}
	if len(g.Rejected()) != 0 {
		t.Errorf("Rejected() = %v, want none", g.Rejected())
	}
}

func TestEdgeResultText(t *testing.T) {
	for r := EdgeAdded; r <= EdgeRejectedMissingNode; r++ {
		b, err := r.MarshalText()
		if err != nil {
			t.Fatalf("MarshalText(%d) error: %v", r, err)
		}
		var back EdgeResult
		if err := back.UnmarshalText(b); err != nil {
			t.Fatalf("UnmarshalText(%s) error: %v", b, err)
		}
		if back != r {
			t.Errorf("round trip %v = %v", r, back)
		}
	}
	var r EdgeResult
	if err := r.UnmarshalText([]byte("bogus")); err == nil {
		t.Error("UnmarshalText(bogus) should fail")
	}
}

func TestValidate_DetectsInconsistentParents(t *testing.T) {
	g := Build([]LogNode{{ID: "a"}, {ID: "b", Parents: []string{"a"}}})
	// Simulate corruption of graph-owned data.
	n, _ := g.Node("b")
	n.Parents = nil

	if err := g.Validate(); !errors.Is(err, ErrInconsistentParents) {
		t.Errorf("Validate() = %v, want ErrInconsistentParents", err)
	}
}

// TestAcyclicityProperty drives a dense sequence of insertions, including
// every back edge, and checks the invariant after each step.
func TestAcyclicityProperty(t *testing.T) {
	ids := []string{"a", "b", "c", "d", "e", "f"}
	g := New()
	for _, id := range ids {
		g.AddNode(LogNode{ID: id})
	}
	for _, from := range ids {
		for _, to := range ids {
			g.AddEdge(from, to)
			if HasCycle(g) {
				t.Fatalf("HasCycle() = true after AddEdge(%s, %s)", from, to)
			}
		}
	}
	for i := len(ids) - 1; i >= 0; i-- {
		for j := range ids {
			g.AddEdge(ids[i], ids[j])
			if HasCycle(g) {
				t.Fatalf("HasCycle() = true after AddEdge(%s, %s)", ids[i], ids[j])
			}
		}
	}
	if err := g.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

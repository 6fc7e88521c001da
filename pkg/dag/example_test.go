package dag_test

import (
	"fmt"

	"github.com/matzehuels/causalog/pkg/dag"
)

func ExampleBuild() {
	// A disk failure causes a write error, which causes a request to fail.
	g := dag.Build([]dag.LogNode{
		{ID: "n1", Level: "ERROR", Message: "disk full"},
		{ID: "n2", Level: "ERROR", Message: "write failed", Parents: []string{"n1"}},
		{ID: "n3", Level: "WARN", Message: "request 500", Parents: []string{"n2"}},
	})

	root, _ := g.Root()
	fmt.Println("Nodes:", g.Size())
	fmt.Println("Edges:", g.EdgeCount())
	fmt.Println("Root:", root)
	fmt.Println("Order:", g.TopologicalOrder())
	// Output:
	// Nodes: 3
	// Edges: 2
	// Root: n1
	// Order: [n1 n2 n3]
}

func ExampleGraph_Link() {
	g := dag.Build([]dag.LogNode{
		{ID: "a"},
		{ID: "b", Parents: []string{"a"}},
	})

	fmt.Println(g.Link("b", "a"))
	fmt.Println(g.Link("a", "b"))
	fmt.Println(g.Link("a", "ghost"))
	fmt.Println("Rejected:", len(g.Rejected()))
	// Output:
	// cycle
	// exists
	// missing_node
	// Rejected: 2
}

func ExampleGraph_AllPaths() {
	g := dag.Build([]dag.LogNode{
		{ID: "a"},
		{ID: "b", Parents: []string{"a"}},
		{ID: "c", Parents: []string{"a"}},
		{ID: "d", Parents: []string{"b", "c"}},
	})

	for _, p := range g.AllPaths("a", "d") {
		fmt.Println(p)
	}
	// Output:
	// [a b d]
	// [a c d]
}

func ExampleGraph_Roots() {
	g := dag.Build([]dag.LogNode{
		{ID: "db-timeout"},
		{ID: "cache-evict"},
		{ID: "api-error", Parents: []string{"db-timeout", "cache-evict"}},
	})

	fmt.Println("Roots:", g.Roots())
	fmt.Println("Leaves:", g.Leaves())
	// Output:
	// Roots: [db-timeout cache-evict]
	// Leaves: [api-error]
}

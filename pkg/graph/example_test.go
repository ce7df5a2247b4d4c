package graph_test

import (
	"fmt"
	"strings"

	"github.com/matzehuels/nestview/pkg/graph"
)

func ExampleReadDocument() {
	input := `{
		"arrange": "TB",
		"nodes": {"children": [
			{"id": "start"},
			{"id": "dag", "value": {"label": "My DAG"}, "children": [
				{"id": "dag.upstream_join_id", "value": {"label": ""}},
				{"id": "dag.task"}
			]}
		]},
		"edges": [{"source_id": "start", "target_id": "dag.task"}]
	}`

	doc, err := graph.ReadDocument(strings.NewReader(input), graph.FormatJSON)
	if err != nil {
		fmt.Println("Error:", err)
		return
	}

	fmt.Println("direction:", doc.Direction())
	doc.Walk(func(n *graph.Node, depth int) bool {
		fmt.Printf("%s%s (%s) %q\n", strings.Repeat("  ", depth), n.ID, n.Role, n.Label())
		return true
	})
	// Output:
	// direction: DOWN
	// start (ordinary) "start"
	// dag (ordinary) "My DAG"
	//   dag.upstream_join_id (join) ""
	//   dag.task (ordinary) "dag.task"
}

func ExampleFillColor() {
	fmt.Println(graph.FillColor("fill:#FFCC00;"))
	fmt.Println(graph.FillColor("stroke:#000;"))
	// Output:
	// #FFCC00
	// #fff
}

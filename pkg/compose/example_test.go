package compose_test

import (
	"fmt"

	"github.com/matzehuels/nestview/pkg/compose"
	"github.com/matzehuels/nestview/pkg/geom"
	"github.com/matzehuels/nestview/pkg/oracle"
)

func ExampleFlatten() {
	root := &oracle.Node{
		ID: oracle.RootID,
		Children: []*oracle.Node{{
			ID: "A", Position: &geom.Point{X: 10, Y: 10}, HasChildren: true, Open: true,
			Children: []*oracle.Node{{
				ID: "B", Position: &geom.Point{X: 5, Y: 5}, HasChildren: true, Open: true,
				Children: []*oracle.Node{{ID: "C", Position: &geom.Point{X: 2, Y: 2}}},
			}},
		}},
	}

	model, _ := compose.Flatten(root, nil)
	for _, n := range model.Nodes {
		fmt.Printf("%s (%g,%g) parent=%q\n", n.ID, n.Position.X, n.Position.Y, n.ParentID)
	}
	// Output:
	// A (10,10) parent=""
	// B (15,15) parent="A"
	// C (17,17) parent="B"
}

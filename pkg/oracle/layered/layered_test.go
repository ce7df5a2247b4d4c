package layered

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/matzehuels/nestview/pkg/geom"
	"github.com/matzehuels/nestview/pkg/graph"
	"github.com/matzehuels/nestview/pkg/oracle"
	"github.com/matzehuels/nestview/pkg/project"
	"github.com/matzehuels/nestview/pkg/visibility"
)

func request(roots []graph.Node, edges []graph.Edge, vis *visibility.Set, dir graph.Direction) *oracle.Request {
	p := project.New(project.Options{}).Project(roots, edges, vis)
	return oracle.NewRequest(p, oracle.DefaultOptions(dir))
}

func chain() ([]graph.Node, []graph.Edge) {
	return []graph.Node{{ID: "a"}, {ID: "b"}, {ID: "c"}},
		[]graph.Edge{{Source: "a", Target: "b"}, {Source: "b", Target: "c"}}
}

func layout(t *testing.T, req *oracle.Request) (*oracle.Node, map[string]*oracle.Node) {
	t.Helper()
	root, err := New().Layout(context.Background(), req)
	if err != nil {
		t.Fatalf("Layout: %v", err)
	}
	return root, root.Index()
}

func TestDirections(t *testing.T) {
	tests := []struct {
		dir  graph.Direction
		less func(a, b geom.Point) bool
	}{
		{graph.DirectionRight, func(a, b geom.Point) bool { return a.X < b.X && a.Y == b.Y }},
		{graph.DirectionLeft, func(a, b geom.Point) bool { return a.X > b.X && a.Y == b.Y }},
		{graph.DirectionDown, func(a, b geom.Point) bool { return a.Y < b.Y && a.X == b.X }},
		{graph.DirectionUp, func(a, b geom.Point) bool { return a.Y > b.Y && a.X == b.X }},
	}
	for _, tt := range tests {
		t.Run(string(tt.dir), func(t *testing.T) {
			roots, edges := chain()
			_, idx := layout(t, request(roots, edges, nil, tt.dir))
			a, b, c := idx["a"].Pos(), idx["b"].Pos(), idx["c"].Pos()
			if !tt.less(a, b) || !tt.less(b, c) {
				t.Errorf("positions a=%v b=%v c=%v do not follow %s", a, b, c, tt.dir)
			}
		})
	}
}

func TestLayerSpacing(t *testing.T) {
	roots, edges := chain()
	_, idx := layout(t, request(roots, edges, nil, graph.DirectionDown))

	a, b := idx["a"], idx["b"]
	want := a.Pos().Y + a.Size.Height + oracle.DefaultLayerSpacing
	if got := b.Pos().Y; got != want {
		t.Errorf("b.Y = %v, want %v", got, want)
	}
}

func TestOpenGroupFitsChildren(t *testing.T) {
	roots := []graph.Node{
		{ID: "a"},
		{ID: "g", Children: []graph.Node{{ID: "g.x"}, {ID: "g.y"}}},
	}
	edges := []graph.Edge{
		{Source: "a", Target: "g.x"},
		{Source: "g.x", Target: "g.y"},
	}
	_, idx := layout(t, request(roots, edges, visibility.New("g"), graph.DirectionDown))

	g := idx["g"]
	pad := oracle.DefaultPadding
	for _, id := range []string{"g.x", "g.y"} {
		c := idx[id]
		p := c.Pos()
		if p.X < pad.Left || p.Y < pad.Top {
			t.Errorf("%s at %v intrudes into padding %+v", id, p, pad)
		}
		if p.X+c.Size.Width > g.Size.Width-pad.Right+1e-9 || p.Y+c.Size.Height > g.Size.Height-pad.Bottom+1e-9 {
			t.Errorf("%s at %v size %v overflows group size %v", id, p, c.Size, g.Size)
		}
	}
	if idx["g.x"].Pos().Y >= idx["g.y"].Pos().Y {
		t.Error("g.x should precede g.y inside the group")
	}
	if idx["a"].Pos().Y >= g.Pos().Y {
		t.Error("a should precede the group at the top level")
	}
}

func TestEdgeSectionsInOwnerFrame(t *testing.T) {
	roots := []graph.Node{
		{ID: "a"},
		{ID: "g", Children: []graph.Node{{ID: "g.x"}}},
	}
	edges := []graph.Edge{{Source: "a", Target: "g.x"}}
	root, idx := layout(t, request(roots, edges, visibility.New("g"), graph.DirectionDown))

	if len(root.Edges) != 1 || len(root.Edges[0].Sections) != 1 {
		t.Fatalf("root edges = %+v", root.Edges)
	}
	s := root.Edges[0].Sections[0]
	a := idx["a"]
	if want := a.Pos().Y + a.Size.Height; s.Start.Y != want {
		t.Errorf("start.Y = %v, want bottom of a %v", s.Start.Y, want)
	}
	if want := idx["g"].Pos().Y + idx["g.x"].Pos().Y; s.End.Y != want {
		t.Errorf("end.Y = %v, want top of g.x in root frame %v", s.End.Y, want)
	}
}

func TestCycleAndSelfLoop(t *testing.T) {
	roots := []graph.Node{{ID: "a"}, {ID: "b"}}
	edges := []graph.Edge{
		{Source: "a", Target: "b"},
		{Source: "b", Target: "a"},
		{Source: "a", Target: "a", Label: "retry"},
	}
	root, idx := layout(t, request(roots, edges, nil, graph.DirectionRight))

	if idx["a"].Pos() == idx["b"].Pos() {
		t.Error("cycle members should not overlap")
	}
	for _, e := range root.Edges {
		if len(e.Sections) == 0 {
			t.Errorf("edge %s has no route", e.ID)
		}
		if e.Source == e.Target && len(e.Sections[0].Bends) != 2 {
			t.Errorf("self loop %s should have two bends, got %+v", e.ID, e.Sections[0])
		}
	}
}

func TestWorkflow(t *testing.T) {
	doc, err := graph.ReadDocumentFile("../../graph/testdata/workflow.yaml")
	if err != nil {
		t.Fatalf("ReadDocumentFile: %v", err)
	}
	vis := visibility.New(doc.GroupIDs()...)
	p := project.New(project.Options{}).ProjectDocument(doc, vis)
	req := oracle.NewRequest(p, oracle.DefaultOptions(doc.Direction()))

	first, _ := layout(t, req)
	second, _ := layout(t, req)

	a, _ := json.Marshal(first)
	b, _ := json.Marshal(second)
	if string(a) != string(b) {
		t.Error("layout is not deterministic")
	}

	first.Walk(func(n *oracle.Node) {
		for i, c := range n.Children {
			if c.Position == nil {
				t.Errorf("%s has no position", c.ID)
				continue
			}
			for _, d := range n.Children[i+1:] {
				if overlaps(rect(c), rect(d)) {
					t.Errorf("siblings %s and %s overlap", c.ID, d.ID)
				}
			}
		}
	})
}

func TestCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	roots, edges := chain()
	if _, err := New().Layout(ctx, request(roots, edges, nil, graph.DirectionDown)); err == nil {
		t.Error("expected error for canceled context")
	}
}

func TestEmpty(t *testing.T) {
	root, err := New().Layout(context.Background(), request(nil, nil, nil, graph.DirectionDown))
	if err != nil {
		t.Fatalf("Layout: %v", err)
	}
	if root.ID != oracle.RootID || len(root.Children) != 0 {
		t.Errorf("root = %+v", root)
	}
}

func rect(n *oracle.Node) geom.Rect {
	return geom.Rect{Min: n.Pos(), Size: n.Size}
}

func overlaps(a, b geom.Rect) bool {
	return a.Min.X < b.Max().X && b.Min.X < a.Max().X &&
		a.Min.Y < b.Max().Y && b.Min.Y < a.Max().Y
}

package compose

import (
	"encoding/json"
	"slices"
	"testing"

	"github.com/matzehuels/nestview/pkg/diag"
	"github.com/matzehuels/nestview/pkg/geom"
	"github.com/matzehuels/nestview/pkg/graph"
	"github.com/matzehuels/nestview/pkg/oracle"
)

func at(x, y float64) *geom.Point { return &geom.Point{X: x, Y: y} }

func nodeIDs(m *Model) []string {
	ids := make([]string, len(m.Nodes))
	for i, n := range m.Nodes {
		ids[i] = n.ID
	}
	return ids
}

func edgeIDs(m *Model) []string {
	ids := make([]string, len(m.Edges))
	for i, e := range m.Edges {
		ids[i] = e.ID
	}
	return ids
}

func TestAbsolutePositions(t *testing.T) {
	root := &oracle.Node{
		ID: oracle.RootID,
		Children: []*oracle.Node{{
			ID: "A", Position: at(10, 10), HasChildren: true, Open: true,
			Children: []*oracle.Node{{
				ID: "B", Position: at(5, 5), HasChildren: true, Open: true,
				Children: []*oracle.Node{{ID: "C", Position: at(2, 2)}},
			}},
		}},
	}

	m, events := Flatten(root, nil)
	if len(events) != 0 {
		t.Errorf("unexpected diagnostics: %v", events)
	}
	if got := nodeIDs(m); !slices.Equal(got, []string{"A", "B", "C"}) {
		t.Fatalf("nodes = %v, want [A B C] (root skipped)", got)
	}

	want := map[string]struct {
		pos    geom.Point
		parent string
	}{
		"A": {geom.Point{X: 10, Y: 10}, ""},
		"B": {geom.Point{X: 15, Y: 15}, "A"},
		"C": {geom.Point{X: 17, Y: 17}, "B"},
	}
	for id, w := range want {
		n := m.Node(id)
		if n.Position != w.pos {
			t.Errorf("%s position = %v, want %v", id, n.Position, w.pos)
		}
		if n.ParentID != w.parent {
			t.Errorf("%s parent = %q, want %q", id, n.ParentID, w.parent)
		}
	}
}

func TestEdgeRoutesTranslated(t *testing.T) {
	root := &oracle.Node{
		ID: oracle.RootID,
		Children: []*oracle.Node{{
			ID: "g", Position: at(100, 50), HasChildren: true, Open: true,
			Children: []*oracle.Node{
				{ID: "x", Position: at(10, 10), Size: geom.Size{Width: 20, Height: 20}},
				{ID: "y", Position: at(10, 60), Size: geom.Size{Width: 20, Height: 20}},
			},
			Edges: []*oracle.Edge{{
				ID: "x-y", Source: "x", Target: "y",
				Sections: []oracle.Section{{
					Start: geom.Point{X: 20, Y: 30},
					Bends: []geom.Point{{X: 20, Y: 45}},
					End:   geom.Point{X: 20, Y: 60},
				}},
			}},
		}},
	}

	m, _ := Flatten(root, nil)
	e := m.Edge("x-y")
	if e == nil {
		t.Fatal("edge x-y missing")
	}
	want := []geom.Point{{X: 120, Y: 80}, {X: 120, Y: 95}, {X: 120, Y: 110}}
	if !slices.Equal(e.Points, want) {
		t.Errorf("points = %v, want %v", e.Points, want)
	}
}

func TestFallbacks(t *testing.T) {
	root := &oracle.Node{
		ID: oracle.RootID,
		Children: []*oracle.Node{
			{ID: "a", Size: geom.Size{Width: 10, Height: 10}},
			{ID: "b", Position: at(100, 0), Size: geom.Size{Width: 10, Height: 10}},
		},
		Edges: []*oracle.Edge{{ID: "a-b", Source: "a", Target: "b"}},
	}

	m, _ := Flatten(root, nil)
	if got := m.Node("a").Position; got != (geom.Point{}) {
		t.Errorf("missing position should fall back to origin, got %v", got)
	}
	want := []geom.Point{{X: 5, Y: 5}, {X: 105, Y: 5}}
	if got := m.Edge("a-b").Points; !slices.Equal(got, want) {
		t.Errorf("missing route should be center to center: got %v, want %v", got, want)
	}
}

func TestDeduplication(t *testing.T) {
	shared := &oracle.Edge{
		ID: "x-y", Source: "x", Target: "y",
		Sections: []oracle.Section{{Start: geom.Point{X: 1, Y: 1}, End: geom.Point{X: 2, Y: 2}}},
	}
	root := &oracle.Node{
		ID: oracle.RootID,
		Children: []*oracle.Node{
			{
				ID: "g", Position: at(10, 0), HasChildren: true, Open: true,
				Children: []*oracle.Node{{ID: "x"}, {ID: "y"}},
				Edges:    []*oracle.Edge{shared},
			},
			{ID: "x", Position: at(500, 500)},
		},
		Edges: []*oracle.Edge{
			{ID: "x-y", Source: "x", Target: "y"},
			{ID: "g-x", Source: "g", Target: "x"},
		},
	}

	m, events := Flatten(root, nil)
	if got := nodeIDs(m); !slices.Equal(got, []string{"g", "x", "y"}) {
		t.Errorf("nodes = %v, want [g x y]", got)
	}
	if got := m.Node("x").Position; got != (geom.Point{X: 10, Y: 0}) {
		t.Errorf("first x should win, got position %v", got)
	}
	if got := edgeIDs(m); !slices.Equal(got, []string{"x-y", "g-x"}) {
		t.Errorf("edges = %v, want [x-y g-x]", got)
	}
	if got := m.Edge("x-y").Points[0]; got != (geom.Point{X: 11, Y: 1}) {
		t.Errorf("deeper scope should win for x-y, got start %v", got)
	}
	if got := events.Subjects(diag.DuplicateID); !slices.Equal(got, []string{"x"}) {
		t.Errorf("duplicate diagnostics = %v, want [x]", got)
	}
}

func TestDanglingAndMalformed(t *testing.T) {
	root := &oracle.Node{
		ID: oracle.RootID,
		Children: []*oracle.Node{
			{ID: "a"},
			{ID: "", Children: []*oracle.Node{{ID: "lost"}}},
		},
		Edges: []*oracle.Edge{{ID: "a-lost", Source: "a", Target: "lost"}},
	}

	m, events := Flatten(root, nil)
	if got := nodeIDs(m); !slices.Equal(got, []string{"a"}) {
		t.Errorf("nodes = %v, want [a]", got)
	}
	if len(m.Edges) != 0 {
		t.Errorf("edges = %v, want none", edgeIDs(m))
	}
	if events.Count(diag.MalformedNode) != 1 || events.Count(diag.DanglingEdge) != 1 {
		t.Errorf("events = %v", events)
	}
}

func TestNullEntries(t *testing.T) {
	root := &oracle.Node{
		ID: oracle.RootID,
		Children: []*oracle.Node{
			{ID: "a", Position: at(5, 5), Children: []*oracle.Node{nil, {ID: "b", Position: at(1, 1)}}},
			nil,
		},
		Edges: []*oracle.Edge{nil, {ID: "a-b", Source: "a", Target: "b"}},
	}

	m, events := Flatten(root, nil)
	if got := nodeIDs(m); !slices.Equal(got, []string{"a", "b"}) {
		t.Errorf("nodes = %v, want [a b]", got)
	}
	if got := edgeIDs(m); !slices.Equal(got, []string{"a-b"}) {
		t.Errorf("edges = %v, want [a-b]", got)
	}
	if got := m.Node("b").Position; got != (geom.Point{X: 6, Y: 6}) {
		t.Errorf("b position = %v, want (6,6)", got)
	}
	if got := events.Count(diag.MalformedNode); got != 3 {
		t.Errorf("malformed_node events = %d, want 3: %v", got, events)
	}
}

func TestActivation(t *testing.T) {
	root := &oracle.Node{
		ID: oracle.RootID,
		Children: []*oracle.Node{
			{ID: "closed", HasChildren: true},
			{ID: "open", HasChildren: true, Open: true, Children: []*oracle.Node{
				{ID: "open.join_id", Role: graph.JoinMarker},
			}},
			{ID: "leaf"},
		},
	}

	var activated []string
	m, _ := Flatten(root, func(id string) { activated = append(activated, id) })

	for id, want := range map[string]bool{"closed": true, "open": true, "leaf": false, "open.join_id": false} {
		if got := m.Node(id).Activatable; got != want {
			t.Errorf("%s Activatable = %v, want %v", id, got, want)
		}
	}
	if !m.Node("open.join_id").Hidden {
		t.Error("join markers should be hidden")
	}
	if m.Node("closed").Open || !m.Node("open").Open {
		t.Error("Open should follow the layout result")
	}

	m.Activate("closed")
	if !slices.Equal(activated, []string{"closed"}) {
		t.Errorf("activated = %v", activated)
	}

	data, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if _, ok := decoded["Activate"]; ok {
		t.Error("Activate must not be serialized")
	}
}

func TestNonRootTop(t *testing.T) {
	m, _ := Flatten(&oracle.Node{ID: "solo", Position: at(3, 4)}, nil)
	if got := nodeIDs(m); !slices.Equal(got, []string{"solo"}) {
		t.Fatalf("nodes = %v", got)
	}
	if m.Node("solo").Position != (geom.Point{X: 3, Y: 4}) {
		t.Errorf("position = %v", m.Node("solo").Position)
	}
}

func TestEmpty(t *testing.T) {
	m, events := Flatten(nil, nil)
	if len(m.Nodes) != 0 || len(m.Edges) != 0 || len(events) != 0 {
		t.Errorf("nil root should give an empty model, got %+v", m)
	}
	data, _ := json.Marshal(m)
	if string(data) != `{"nodes":[],"edges":[]}` {
		t.Errorf("empty model JSON = %s", data)
	}
	if m.Bounds() != (geom.Rect{}) {
		t.Errorf("empty bounds = %v", m.Bounds())
	}
}

func TestBounds(t *testing.T) {
	m := &Model{
		Nodes: []Node{
			{ID: "a", Position: geom.Point{X: 10, Y: 10}, Size: geom.Size{Width: 10, Height: 10}},
			{ID: "b", Position: geom.Point{X: 50, Y: 0}, Size: geom.Size{Width: 10, Height: 10}},
		},
		Edges: []Edge{{ID: "a-b", Points: []geom.Point{{X: 20, Y: 15}, {X: 50, Y: 40}}}},
	}
	want := geom.Rect{Min: geom.Point{X: 10, Y: 0}, Size: geom.Size{Width: 50, Height: 40}}
	if got := m.Bounds(); got != want {
		t.Errorf("Bounds() = %v, want %v", got, want)
	}
}

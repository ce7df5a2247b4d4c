package compose

import (
	"math"

	"github.com/matzehuels/nestview/pkg/diag"
	"github.com/matzehuels/nestview/pkg/geom"
	"github.com/matzehuels/nestview/pkg/graph"
	"github.com/matzehuels/nestview/pkg/oracle"
)

// ActivateFunc is invoked by the rendering layer with the id of an
// activated node.
type ActivateFunc func(id string)

// Node is a positioned node in absolute coordinates.
type Node struct {
	ID       string     `json:"id"`
	Position geom.Point `json:"position"`
	Size     geom.Size  `json:"size"`
	// ParentID is the enclosing open node, for containment and clipping.
	ParentID    string         `json:"parent_id,omitempty"`
	Label       string         `json:"label"`
	StyleHints  map[string]any `json:"style_hints,omitempty"`
	Role        graph.Role     `json:"role"`
	Open        bool           `json:"open,omitempty"`
	Activatable bool           `json:"activatable,omitempty"`
	// Hidden nodes take part in layout but are not drawn.
	Hidden bool `json:"hidden,omitempty"`
}

// Rect returns the node's absolute bounds.
func (n Node) Rect() geom.Rect {
	return geom.Rect{Min: n.Position, Size: n.Size}
}

// Fill returns the background colour from the node's style hints.
func (n Node) Fill() string {
	style, _ := n.StyleHints["style"].(string)
	return graph.FillColor(style)
}

// Edge is a routed edge in absolute coordinates.
type Edge struct {
	ID     string       `json:"id"`
	Source string       `json:"source"`
	Target string       `json:"target"`
	Points []geom.Point `json:"points"`
	Label  string       `json:"label,omitempty"`
}

// Model is the flat render model.
type Model struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`

	// Activate toggles the node with the given id. It may be nil.
	Activate ActivateFunc `json:"-"`
}

// Node returns the node with the given id, or nil.
func (m *Model) Node(id string) *Node {
	for i := range m.Nodes {
		if m.Nodes[i].ID == id {
			return &m.Nodes[i]
		}
	}
	return nil
}

// Edge returns the edge with the given id, or nil.
func (m *Model) Edge(id string) *Edge {
	for i := range m.Edges {
		if m.Edges[i].ID == id {
			return &m.Edges[i]
		}
	}
	return nil
}

// Bounds returns the smallest rectangle containing every node and edge
// point. An empty model has zero bounds.
func (m *Model) Bounds() geom.Rect {
	if len(m.Nodes) == 0 && len(m.Edges) == 0 {
		return geom.Rect{}
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	grow := func(p geom.Point) {
		minX, minY = math.Min(minX, p.X), math.Min(minY, p.Y)
		maxX, maxY = math.Max(maxX, p.X), math.Max(maxY, p.Y)
	}
	for _, n := range m.Nodes {
		grow(n.Position)
		grow(n.Rect().Max())
	}
	for _, e := range m.Edges {
		for _, p := range e.Points {
			grow(p)
		}
	}
	return geom.Rect{
		Min:  geom.Point{X: minX, Y: minY},
		Size: geom.Size{Width: maxX - minX, Height: maxY - minY},
	}
}

// =============================================================================
// Flatten
// =============================================================================

// Flatten converts a layout result into a render model. A nil root yields
// an empty model; null children and edges are skipped with a malformed_node
// event. The result is not modified.
func Flatten(root *oracle.Node, activate ActivateFunc) (*Model, diag.Events) {
	f := &flattener{
		model: &Model{Nodes: []Node{}, Edges: []Edge{}, Activate: activate},
		index: make(map[string]int),
	}
	if root != nil {
		if root.ID == oracle.RootID {
			for _, c := range root.Children {
				f.visit(c, "", geom.Point{})
			}
			f.collect(root, geom.Point{})
		} else {
			f.visit(root, "", geom.Point{})
		}
	}
	f.emitEdges()
	return f.model, f.sink.Events()
}

type ownedEdge struct {
	edge   *oracle.Edge
	origin geom.Point
}

type flattener struct {
	model   *Model
	index   map[string]int
	pending []ownedEdge
	sink    diag.Sink
}

// visit emits n and its subtree, then queues n's edges. Edges are queued
// after the children's so deeper scopes win id conflicts.
func (f *flattener) visit(n *oracle.Node, parent string, origin geom.Point) {
	if n == nil {
		f.sink.Add(diag.MalformedNode, parent, "layout result contains a null node, skipped")
		return
	}
	if n.ID == "" {
		f.sink.Add(diag.MalformedNode, parent, "layout result contains a node without id, subtree skipped")
		return
	}
	if _, seen := f.index[n.ID]; seen {
		f.sink.Add(diag.DuplicateID, n.ID, "node already emitted, later occurrence dropped")
		return
	}

	abs := origin.Add(n.Pos())
	f.index[n.ID] = len(f.model.Nodes)
	f.model.Nodes = append(f.model.Nodes, Node{
		ID:          n.ID,
		Position:    abs,
		Size:        n.Size,
		ParentID:    parent,
		Label:       n.Label,
		StyleHints:  n.StyleHints,
		Role:        n.Role,
		Open:        n.Open && len(n.Children) > 0,
		Activatable: n.HasChildren,
		Hidden:      n.Role == graph.JoinMarker,
	})

	for _, c := range n.Children {
		f.visit(c, n.ID, abs)
	}
	f.collect(n, abs)
}

func (f *flattener) collect(n *oracle.Node, origin geom.Point) {
	for _, e := range n.Edges {
		if e == nil {
			f.sink.Add(diag.MalformedNode, n.ID, "layout result contains a null edge, skipped")
			continue
		}
		f.pending = append(f.pending, ownedEdge{edge: e, origin: origin})
	}
}

func (f *flattener) emitEdges() {
	seen := make(map[string]bool, len(f.pending))
	for _, p := range f.pending {
		e := p.edge
		if seen[e.ID] {
			continue
		}
		src, okS := f.index[e.Source]
		dst, okT := f.index[e.Target]
		if !okS || !okT {
			f.sink.Add(diag.DanglingEdge, e.ID, "edge endpoint not in layout result, edge dropped")
			continue
		}
		seen[e.ID] = true

		var pts []geom.Point
		for _, s := range e.Sections {
			pts = append(pts, geom.Translate(s.Points(), p.origin)...)
		}
		if len(pts) == 0 {
			pts = geom.StraightPath(f.model.Nodes[src].Rect(), f.model.Nodes[dst].Rect())
		}
		f.model.Edges = append(f.model.Edges, Edge{
			ID:     e.ID,
			Source: e.Source,
			Target: e.Target,
			Points: pts,
			Label:  e.Label,
		})
	}
}

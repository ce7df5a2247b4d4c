package project

import (
	"github.com/matzehuels/nestview/pkg/diag"
	"github.com/matzehuels/nestview/pkg/geom"
	"github.com/matzehuels/nestview/pkg/graph"
)

// Node is a visible node in the layout request.
type Node struct {
	ID           string         `json:"id"`
	Label        string         `json:"label"`
	DisplayLabel string         `json:"display_label"`
	Size         geom.Size      `json:"size"`
	Role         graph.Role     `json:"role"`
	StyleHints   map[string]any `json:"style_hints,omitempty"`
	HasChildren  bool           `json:"has_children,omitempty"`
	Open         bool           `json:"open,omitempty"`

	// Children is non-empty only when the node is open.
	Children []*Node `json:"children,omitempty"`
	// Edges are the edges internal to this node's open subtree.
	Edges []Edge `json:"edges,omitempty"`
}

// Edge is an edge whose endpoints both name visible nodes.
type Edge struct {
	ID        string    `json:"id"`
	Source    string    `json:"source"`
	Target    string    `json:"target"`
	Label     string    `json:"label,omitempty"`
	LabelID   string    `json:"label_id,omitempty"`
	LabelSize geom.Size `json:"label_size,omitempty"`

	// Index is the position of the originating raw edge in the input.
	Index int `json:"index"`
	// Rewritten is set when an endpoint was moved to a collapsed ancestor.
	Rewritten bool `json:"rewritten,omitempty"`
}

// DroppedEdge records an input edge that does not appear in the projection.
type DroppedEdge struct {
	Index  int        `json:"index"`
	Edge   graph.Edge `json:"edge"`
	Reason diag.Kind  `json:"reason"`
}

// Projection is the result of projecting a forest through a visibility set.
type Projection struct {
	Roots       []*Node       `json:"nodes"`
	Edges       []Edge        `json:"edges"`
	Dropped     []DroppedEdge `json:"dropped,omitempty"`
	Diagnostics diag.Events   `json:"diagnostics,omitempty"`
}

// Walk calls fn for every visible node in depth-first pre-order together
// with the id of its parent ("" for roots).
func (p *Projection) Walk(fn func(n *Node, parent string)) {
	var walk func(nodes []*Node, parent string)
	walk = func(nodes []*Node, parent string) {
		for _, n := range nodes {
			fn(n, parent)
			walk(n.Children, n.ID)
		}
	}
	walk(p.Roots, "")
}

// Node returns the visible node with the given id, or nil.
func (p *Projection) Node(id string) *Node {
	var found *Node
	p.Walk(func(n *Node, _ string) {
		if found == nil && n.ID == id {
			found = n
		}
	})
	return found
}

// NodeIDs returns the ids of all visible nodes in pre-order.
func (p *Projection) NodeIDs() []string {
	var ids []string
	p.Walk(func(n *Node, _ string) { ids = append(ids, n.ID) })
	return ids
}

// AllEdges returns every edge in the projection: the top-level edges first,
// then each open node's internal edges in pre-order.
func (p *Projection) AllEdges() []Edge {
	out := append([]Edge(nil), p.Edges...)
	p.Walk(func(n *Node, _ string) { out = append(out, n.Edges...) })
	return out
}

// NodeCount returns the number of visible nodes.
func (p *Projection) NodeCount() int {
	n := 0
	p.Walk(func(*Node, string) { n++ })
	return n
}

// EdgeCount returns the number of edges across all scopes.
func (p *Projection) EdgeCount() int {
	n := len(p.Edges)
	p.Walk(func(node *Node, _ string) { n += len(node.Edges) })
	return n
}

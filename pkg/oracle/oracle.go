package oracle

import (
	"context"

	"github.com/matzehuels/nestview/pkg/geom"
	"github.com/matzehuels/nestview/pkg/graph"
	"github.com/matzehuels/nestview/pkg/project"
)

// RootID is the id of the synthetic node wrapping the top level of a result.
const RootID = "root"

// Oracle computes a layout for a request.
type Oracle interface {
	Layout(ctx context.Context, req *Request) (*Node, error)
}

// Func adapts a function to the Oracle interface.
type Func func(ctx context.Context, req *Request) (*Node, error)

// Layout calls f.
func (f Func) Layout(ctx context.Context, req *Request) (*Node, error) {
	return f(ctx, req)
}

// =============================================================================
// Request
// =============================================================================

// Default spacing and padding values.
const (
	DefaultNodeNodeSpacing  = 40.0
	DefaultLayerSpacing     = 50.0
	DefaultEdgeNodeSpacing  = 20.0
	DefaultEdgeEdgeSpacing  = 20.0
	DefaultEdgeLabelSpacing = 10.0
)

// DefaultPadding is the padding inside open nodes. The large top inset
// leaves room for the group's own label.
var DefaultPadding = geom.Insets{Top: 80, Left: 15, Bottom: 15, Right: 15}

// Options are the layout hints sent with every request.
type Options struct {
	Direction        graph.Direction `json:"direction"`
	NodeNodeSpacing  float64         `json:"node_node_spacing"`
	LayerSpacing     float64         `json:"layer_spacing"`
	EdgeNodeSpacing  float64         `json:"edge_node_spacing"`
	EdgeEdgeSpacing  float64         `json:"edge_edge_spacing"`
	EdgeLabelSpacing float64         `json:"edge_label_spacing"`
	Padding          geom.Insets     `json:"padding"`
}

// DefaultOptions returns the default options with the given direction.
func DefaultOptions(dir graph.Direction) Options {
	o := Options{Direction: dir}
	o.SetDefaults()
	return o
}

// SetDefaults fills zero fields with defaults.
func (o *Options) SetDefaults() {
	if o.Direction == "" {
		o.Direction = graph.DefaultDirection
	}
	if o.NodeNodeSpacing <= 0 {
		o.NodeNodeSpacing = DefaultNodeNodeSpacing
	}
	if o.LayerSpacing <= 0 {
		o.LayerSpacing = DefaultLayerSpacing
	}
	if o.EdgeNodeSpacing <= 0 {
		o.EdgeNodeSpacing = DefaultEdgeNodeSpacing
	}
	if o.EdgeEdgeSpacing <= 0 {
		o.EdgeEdgeSpacing = DefaultEdgeEdgeSpacing
	}
	if o.EdgeLabelSpacing <= 0 {
		o.EdgeLabelSpacing = DefaultEdgeLabelSpacing
	}
	if o.Padding == (geom.Insets{}) {
		o.Padding = DefaultPadding
	}
}

// Request is the input of one layout round trip.
type Request struct {
	Nodes   []*project.Node `json:"nodes"`
	Edges   []project.Edge  `json:"edges"`
	Options Options         `json:"options"`
}

// NewRequest builds a request from a projection.
func NewRequest(p *project.Projection, opts Options) *Request {
	opts.SetDefaults()
	return &Request{Nodes: p.Roots, Edges: p.Edges, Options: opts}
}

// =============================================================================
// Result
// =============================================================================

// Node is a laid-out node. Position is relative to the parent's origin and
// is nil when the oracle did not report one.
type Node struct {
	ID          string         `json:"id"`
	Position    *geom.Point    `json:"position,omitempty"`
	Size        geom.Size      `json:"size"`
	Label       string         `json:"label,omitempty"`
	Role        graph.Role     `json:"role"`
	StyleHints  map[string]any `json:"style_hints,omitempty"`
	HasChildren bool           `json:"has_children,omitempty"`
	Open        bool           `json:"open,omitempty"`
	Children    []*Node        `json:"children,omitempty"`
	Edges       []*Edge        `json:"edges,omitempty"`
}

// Edge is a routed edge. Sections are in the frame of the owning node.
type Edge struct {
	ID       string    `json:"id"`
	Source   string    `json:"source"`
	Target   string    `json:"target"`
	Label    string    `json:"label,omitempty"`
	Sections []Section `json:"sections,omitempty"`
}

// Section is one routed piece of an edge.
type Section struct {
	Start geom.Point   `json:"start"`
	Bends []geom.Point `json:"bends,omitempty"`
	End   geom.Point   `json:"end"`
}

// Points returns the section as an ordered point sequence.
func (s Section) Points() []geom.Point {
	out := make([]geom.Point, 0, len(s.Bends)+2)
	out = append(out, s.Start)
	out = append(out, s.Bends...)
	return append(out, s.End)
}

// Skeleton returns a result tree shaped like the request, carrying every
// node attribute and edge but no positions or routes. Oracles fill it in.
func Skeleton(req *Request) *Node {
	root := &Node{ID: RootID, HasChildren: true, Open: true}
	root.Children = skeletonNodes(req.Nodes)
	root.Edges = skeletonEdges(req.Edges)
	return root
}

func skeletonNodes(nodes []*project.Node) []*Node {
	if len(nodes) == 0 {
		return nil
	}
	out := make([]*Node, len(nodes))
	for i, n := range nodes {
		out[i] = &Node{
			ID:          n.ID,
			Size:        n.Size,
			Label:       n.DisplayLabel,
			Role:        n.Role,
			StyleHints:  n.StyleHints,
			HasChildren: n.HasChildren,
			Open:        n.Open,
			Children:    skeletonNodes(n.Children),
			Edges:       skeletonEdges(n.Edges),
		}
	}
	return out
}

func skeletonEdges(edges []project.Edge) []*Edge {
	if len(edges) == 0 {
		return nil
	}
	out := make([]*Edge, len(edges))
	for i, e := range edges {
		out[i] = &Edge{ID: e.ID, Source: e.Source, Target: e.Target, Label: e.Label}
	}
	return out
}

// Walk calls fn for n and every descendant in pre-order.
func (n *Node) Walk(fn func(*Node)) {
	if n == nil {
		return
	}
	fn(n)
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// Index maps every node id in the tree to its node.
func (n *Node) Index() map[string]*Node {
	idx := make(map[string]*Node)
	n.Walk(func(x *Node) { idx[x.ID] = x })
	return idx
}

// Pos returns the position, or the origin when absent.
func (n *Node) Pos() geom.Point {
	if n.Position == nil {
		return geom.Point{}
	}
	return *n.Position
}

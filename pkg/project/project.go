package project

import (
	"fmt"
	"math"
	"strings"

	"github.com/matzehuels/nestview/pkg/diag"
	"github.com/matzehuels/nestview/pkg/geom"
	"github.com/matzehuels/nestview/pkg/graph"
	"github.com/matzehuels/nestview/pkg/measure"
	"github.com/matzehuels/nestview/pkg/visibility"
)

// =============================================================================
// Options
// =============================================================================

// Default node dimensions.
const (
	DefaultMinWidth        = 120.0
	DefaultNodeHeight      = 50.0
	DefaultLabelPadding    = 16.0
	DefaultJoinSize        = 10.0
	DefaultGateSize        = 36.0
	DefaultEdgeLabelHeight = 16.0
)

// Indicator glyphs appended to the labels of nodes with children.
const (
	OpenGlyph   = "▾"
	ClosedGlyph = "▸"
)

// Options configures a Projector. Zero values select the defaults.
type Options struct {
	// Measurer sizes labels. Nil selects measure.Approx.
	Measurer measure.Measurer

	// ResolveDottedIDs resolves an unknown endpoint id to its longest dotted
	// prefix that names a node ("dag.task_x" → "dag").
	ResolveDottedIDs bool

	MinWidth        float64
	NodeHeight      float64
	LabelPadding    float64
	JoinSize        float64
	GateSize        float64
	EdgeLabelHeight float64
}

func (o *Options) setDefaults() {
	if o.Measurer == nil {
		o.Measurer = measure.Approx{}
	}
	if o.MinWidth <= 0 {
		o.MinWidth = DefaultMinWidth
	}
	if o.NodeHeight <= 0 {
		o.NodeHeight = DefaultNodeHeight
	}
	if o.LabelPadding <= 0 {
		o.LabelPadding = DefaultLabelPadding
	}
	if o.JoinSize <= 0 {
		o.JoinSize = DefaultJoinSize
	}
	if o.GateSize <= 0 {
		o.GateSize = DefaultGateSize
	}
	if o.EdgeLabelHeight <= 0 {
		o.EdgeLabelHeight = DefaultEdgeLabelHeight
	}
}

// =============================================================================
// Projector
// =============================================================================

// Projector builds layout requests. It holds no per-call state and is safe
// for concurrent use.
type Projector struct {
	opts Options
}

// New creates a Projector.
func New(opts Options) *Projector {
	opts.setDefaults()
	return &Projector{opts: opts}
}

// ProjectDocument projects a document's forest and edges.
func (p *Projector) ProjectDocument(doc *graph.Document, vis *visibility.Set) *Projection {
	return p.Project(doc.Roots(), doc.Edges, vis)
}

// Project projects roots and edges through vis. Nodes are expected to carry
// their role (see graph.Normalize). The inputs are not modified.
func (p *Projector) Project(roots []graph.Node, edges []graph.Edge, vis *visibility.Set) *Projection {
	run := &projection{
		opts:    &p.opts,
		vis:     vis,
		entries: make(map[string]*entry),
	}
	run.index(roots, "", "", "root")

	out := &Projection{}
	out.Roots = run.buildNodes(roots)

	a := newArena(edges)
	run.placeEdges(a)

	out.Edges = a.edges("")
	for id, n := range run.visible {
		n.Edges = a.edges(id)
	}
	out.Dropped = a.dropped()
	out.Diagnostics = run.sink.Events()
	return out
}

// entry is the index record of one raw node.
type entry struct {
	node   *graph.Node
	parent string
	open   bool
	rep    string
}

// projection is the working state of a single Project call.
type projection struct {
	opts    *Options
	vis     *visibility.Set
	entries map[string]*entry
	visible map[string]*Node
	ids     map[string]string // edge id → pair key
	sink    diag.Sink
}

// index records every well-formed node and computes its representative.
// collapsed is the id of the closed ancestor hiding this level, or "".
func (r *projection) index(nodes []graph.Node, parent, collapsed, path string) {
	for i := range nodes {
		n := &nodes[i]
		where := fmt.Sprintf("%s.children[%d]", path, i)
		if n.ID == "" {
			r.sink.Add(diag.MalformedNode, "", "node at %s has no id, subtree skipped", where)
			continue
		}
		if _, dup := r.entries[n.ID]; dup {
			r.sink.Add(diag.DuplicateID, n.ID, "node id %q repeated at %s, first occurrence kept", n.ID, where)
			continue
		}

		e := &entry{
			node:   n,
			parent: parent,
			open:   n.HasChildren() && r.vis.Has(n.ID),
		}
		r.entries[n.ID] = e

		childCollapsed := collapsed
		switch {
		case collapsed != "":
			e.rep = collapsed
		case e.open:
			e.rep = n.ID
		default:
			e.rep = n.ID
			childCollapsed = n.ID
		}
		r.index(n.Children, n.ID, childCollapsed, where)
	}
}

// buildNodes creates layout nodes for the visible part of nodes.
func (r *projection) buildNodes(nodes []graph.Node) []*Node {
	if r.visible == nil {
		r.visible = make(map[string]*Node)
	}
	var out []*Node
	for i := range nodes {
		n := &nodes[i]
		e, ok := r.entries[n.ID]
		if n.ID == "" || !ok || e.node != n {
			continue
		}
		ln := r.layoutNode(n, e)
		if e.open {
			ln.Children = r.buildNodes(n.Children)
		}
		r.visible[n.ID] = ln
		out = append(out, ln)
	}
	return out
}

func (r *projection) layoutNode(n *graph.Node, e *entry) *Node {
	label := n.Label()
	display := label
	if n.HasChildren() {
		glyph := ClosedGlyph
		if e.open {
			glyph = OpenGlyph
		}
		display = strings.TrimSpace(label + " " + glyph)
	}
	return &Node{
		ID:           n.ID,
		Label:        label,
		DisplayLabel: display,
		Size:         r.nodeSize(n.Role, display),
		Role:         n.Role,
		StyleHints:   n.StyleHints(),
		HasChildren:  n.HasChildren(),
		Open:         e.open,
	}
}

func (r *projection) nodeSize(role graph.Role, display string) geom.Size {
	switch role {
	case graph.JoinMarker:
		return geom.Size{Width: r.opts.JoinSize, Height: r.opts.JoinSize}
	case graph.Gate:
		return geom.Size{Width: r.opts.GateSize, Height: r.opts.GateSize}
	}
	text := r.opts.Measurer.Measure(display)
	return geom.Size{
		Width:  math.Max(r.opts.MinWidth, math.Ceil(text.Width+2*r.opts.LabelPadding)),
		Height: r.opts.NodeHeight,
	}
}

// =============================================================================
// Edge placement
// =============================================================================

// placeEdges decides every slot of the arena in input order.
func (r *projection) placeEdges(a *arena) {
	r.ids = make(map[string]string)
	pairs := make(map[string]bool)

	for i := 0; i < a.len(); i++ {
		raw := a.raw(i)
		subject := graph.EdgeID(raw.Source, raw.Target)

		src, okSrc := r.resolve(raw.Source)
		dst, okDst := r.resolve(raw.Target)
		if !okSrc || !okDst {
			missing := raw.Source
			if okSrc {
				missing = raw.Target
			}
			r.sink.Add(diag.DanglingEdge, subject, "edge endpoint %q does not name a node, edge dropped", missing)
			a.drop(i, diag.DanglingEdge)
			continue
		}

		rewritten := src != raw.Source || dst != raw.Target
		if src == dst && rewritten {
			r.sink.Add(diag.DegenerateEdge, subject, "edge collapsed into %q, edge dropped", src)
			a.drop(i, diag.DegenerateEdge)
			continue
		}

		pair := src + "\x00" + dst
		if pairs[pair] {
			if rewritten {
				r.sink.Add(diag.MergedEdge, subject, "edge folded into %s", graph.EdgeID(src, dst))
				a.drop(i, diag.MergedEdge)
			} else {
				r.sink.Add(diag.DuplicateID, subject, "edge repeated in input, first occurrence kept")
				a.drop(i, diag.DuplicateID)
			}
			continue
		}
		pairs[pair] = true

		e := Edge{
			ID:        r.edgeID(src, dst, pair),
			Source:    src,
			Target:    dst,
			Label:     raw.Label,
			Index:     i,
			Rewritten: rewritten,
		}
		if raw.Label != "" {
			e.LabelID = graph.LabelID(src, dst)
			e.LabelSize = geom.Size{
				Width:  r.opts.Measurer.Measure(raw.Label).Width,
				Height: r.opts.EdgeLabelHeight,
			}
		}
		a.attach(i, r.scope(src, dst), e)
	}
}

// resolve maps an endpoint id to the visible node that represents it.
func (r *projection) resolve(id string) (string, bool) {
	if e, ok := r.entries[id]; ok {
		return e.rep, true
	}
	if !r.opts.ResolveDottedIDs {
		return "", false
	}
	for i := strings.LastIndexByte(id, '.'); i > 0; i = strings.LastIndexByte(id[:i], '.') {
		if e, ok := r.entries[id[:i]]; ok {
			return e.rep, true
		}
	}
	return "", false
}

// edgeID derives a unique id for the pair. Distinct pairs that format to the
// same id ("a-b"+"c" and "a"+"b-c") are disambiguated with a numeric suffix.
func (r *projection) edgeID(src, dst, pair string) string {
	base := graph.EdgeID(src, dst)
	id := base
	for n := 2; ; n++ {
		owner, taken := r.ids[id]
		if !taken || owner == pair {
			break
		}
		id = fmt.Sprintf("%s#%d", base, n)
	}
	if id != base {
		r.sink.Add(diag.DuplicateID, base, "edge id already used by another pair, renamed to %s", id)
	}
	r.ids[id] = pair
	return id
}

// scope returns the id of the lowest open node strictly containing both
// endpoints, or "" for the top level.
func (r *projection) scope(src, dst string) string {
	above := make(map[string]bool)
	for p := r.entries[src].parent; p != ""; p = r.entries[p].parent {
		above[p] = true
	}
	for p := r.entries[dst].parent; p != ""; p = r.entries[p].parent {
		if above[p] {
			return p
		}
	}
	return ""
}

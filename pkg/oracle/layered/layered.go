package layered

import (
	"context"
	"math"

	"github.com/matzehuels/nestview/pkg/errors"
	"github.com/matzehuels/nestview/pkg/geom"
	"github.com/matzehuels/nestview/pkg/graph"
	"github.com/matzehuels/nestview/pkg/oracle"
)

// Engine is the name reported to caches and metrics.
const Engine = "layered"

// DefaultSweeps is the number of barycenter passes per scope.
const DefaultSweeps = 4

// Oracle is the layered layout oracle. The zero value is ready to use.
type Oracle struct {
	// Sweeps is the number of crossing-reduction passes. Zero selects
	// DefaultSweeps.
	Sweeps int
}

// New returns a layered oracle with default settings.
func New() *Oracle {
	return &Oracle{Sweeps: DefaultSweeps}
}

// Layout implements oracle.Oracle.
func (o *Oracle) Layout(ctx context.Context, req *oracle.Request) (*oracle.Node, error) {
	if req == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "nil layout request")
	}
	opts := req.Options
	opts.SetDefaults()

	sweeps := o.Sweeps
	if sweeps <= 0 {
		sweeps = DefaultSweeps
	}

	root := oracle.Skeleton(req)
	l := &layouter{
		opts:    opts,
		sweeps:  sweeps,
		nodes:   root.Index(),
		parents: make(map[string]*oracle.Node),
	}
	root.Walk(func(n *oracle.Node) {
		for _, c := range n.Children {
			l.parents[c.ID] = n
		}
	})

	if err := l.place(ctx, root, geom.Insets{}); err != nil {
		return nil, err
	}
	root.Position = &geom.Point{}
	return root, nil
}

var _ oracle.Oracle = (*Oracle)(nil)

// =============================================================================
// Scope placement
// =============================================================================

type layouter struct {
	opts    oracle.Options
	sweeps  int
	nodes   map[string]*oracle.Node
	parents map[string]*oracle.Node
}

// place lays out the children of n, recursing into open children first,
// then sizes n to fit its content plus pad.
func (l *layouter) place(ctx context.Context, n *oracle.Node, pad geom.Insets) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, c := range n.Children {
		if c.Open && len(c.Children) > 0 {
			if err := l.place(ctx, c, l.opts.Padding); err != nil {
				return err
			}
		}
	}
	if len(n.Children) == 0 {
		return nil
	}

	g := newDigraph(len(n.Children))
	member := make(map[string]int, len(n.Children))
	for i, c := range n.Children {
		member[c.ID] = i
	}
	labeled := false
	for _, e := range n.Edges {
		s, okS := l.lift(n, e.Source, member)
		t, okT := l.lift(n, e.Target, member)
		if okS && okT {
			g.add(s, t)
		}
		if e.Label != "" {
			labeled = true
		}
	}

	rank, err := layers(g.acyclic())
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "layering scope %q", n.ID)
	}
	rows := order(g, rank, l.sweeps)

	content := l.arrange(n, rows, labeled, pad)
	width := content.Width + pad.Left + pad.Right
	height := content.Height + pad.Top + pad.Bottom
	n.Size = geom.Size{
		Width:  math.Max(n.Size.Width, width),
		Height: math.Max(n.Size.Height, height),
	}

	for _, e := range n.Edges {
		l.route(n, e)
	}
	return nil
}

// lift maps an endpoint id to the index of the child of scope containing it.
func (l *layouter) lift(scope *oracle.Node, id string, member map[string]int) (int, bool) {
	for x := l.nodes[id]; x != nil; x = l.parents[x.ID] {
		if p := l.parents[x.ID]; p == scope {
			i, ok := member[x.ID]
			return i, ok
		}
	}
	return 0, false
}

// arrange positions the children of n layer by layer and returns the size
// of the occupied area.
func (l *layouter) arrange(n *oracle.Node, rows [][]int, labeled bool, pad geom.Insets) geom.Size {
	dir := l.opts.Direction
	horizontal := dir.Horizontal()

	extent := func(c *oracle.Node) (main, cross float64) {
		if horizontal {
			return c.Size.Width, c.Size.Height
		}
		return c.Size.Height, c.Size.Width
	}

	layerGap := l.opts.LayerSpacing
	if labeled {
		layerGap += 2 * l.opts.EdgeLabelSpacing
	}

	thickness := make([]float64, len(rows))
	breadth := make([]float64, len(rows))
	maxBreadth := 0.0
	for k, row := range rows {
		for i, v := range row {
			m, c := extent(n.Children[v])
			thickness[k] = math.Max(thickness[k], m)
			breadth[k] += c
			if i > 0 {
				breadth[k] += l.opts.NodeNodeSpacing
			}
		}
		maxBreadth = math.Max(maxBreadth, breadth[k])
	}

	totalMain := 0.0
	offset := make([]float64, len(rows))
	for k := range rows {
		if k > 0 {
			totalMain += layerGap
		}
		offset[k] = totalMain
		totalMain += thickness[k]
	}

	for k, row := range rows {
		cross := (maxBreadth - breadth[k]) / 2
		for _, v := range row {
			c := n.Children[v]
			m, cr := extent(c)
			main := offset[k] + (thickness[k]-m)/2
			if dir.Reversed() {
				main = totalMain - main - m
			}
			p := geom.Point{X: main, Y: cross}
			if !horizontal {
				p = geom.Point{X: cross, Y: main}
			}
			p = p.Add(geom.Point{X: pad.Left, Y: pad.Top})
			c.Position = &p
			cross += cr + l.opts.NodeNodeSpacing
		}
	}

	if horizontal {
		return geom.Size{Width: totalMain, Height: maxBreadth}
	}
	return geom.Size{Width: maxBreadth, Height: totalMain}
}

// =============================================================================
// Routing
// =============================================================================

// rectIn returns the rectangle of the node id in the frame of scope.
func (l *layouter) rectIn(scope *oracle.Node, id string) (geom.Rect, bool) {
	n := l.nodes[id]
	if n == nil {
		return geom.Rect{}, false
	}
	var origin geom.Point
	for x := n; x != scope; x = l.parents[x.ID] {
		if x == nil {
			return geom.Rect{}, false
		}
		origin = origin.Add(x.Pos())
	}
	return geom.Rect{Min: origin, Size: n.Size}, true
}

func (l *layouter) route(scope *oracle.Node, e *oracle.Edge) {
	src, okS := l.rectIn(scope, e.Source)
	dst, okT := l.rectIn(scope, e.Target)
	if !okS || !okT {
		return
	}
	if e.Source == e.Target {
		e.Sections = []oracle.Section{selfLoop(src, l.opts.EdgeNodeSpacing)}
		return
	}
	e.Sections = []oracle.Section{orthogonal(src, dst, l.opts.Direction)}
}

// orthogonal routes from the border of src facing the flow direction to the
// opposite border of dst, with two bends halfway between them. Edges that
// run against the flow, or between nested rectangles, are drawn straight
// between the centers.
func orthogonal(src, dst geom.Rect, dir graph.Direction) oracle.Section {
	sc, dc := src.Center(), dst.Center()
	var start, end geom.Point
	var forward bool
	switch dir {
	case graph.DirectionLeft:
		start, end = geom.Point{X: src.Min.X, Y: sc.Y}, geom.Point{X: dst.Max().X, Y: dc.Y}
		forward = end.X < start.X
	case graph.DirectionDown:
		start, end = geom.Point{X: sc.X, Y: src.Max().Y}, geom.Point{X: dc.X, Y: dst.Min.Y}
		forward = end.Y > start.Y
	case graph.DirectionUp:
		start, end = geom.Point{X: sc.X, Y: src.Min.Y}, geom.Point{X: dc.X, Y: dst.Max().Y}
		forward = end.Y < start.Y
	default:
		start, end = geom.Point{X: src.Max().X, Y: sc.Y}, geom.Point{X: dst.Min.X, Y: dc.Y}
		forward = end.X > start.X
	}
	if !forward {
		return oracle.Section{Start: sc, End: dc}
	}

	s := oracle.Section{Start: start, End: end}
	if dir.Horizontal() {
		if start.Y != end.Y {
			mid := (start.X + end.X) / 2
			s.Bends = []geom.Point{{X: mid, Y: start.Y}, {X: mid, Y: end.Y}}
		}
	} else if start.X != end.X {
		mid := (start.Y + end.Y) / 2
		s.Bends = []geom.Point{{X: start.X, Y: mid}, {X: end.X, Y: mid}}
	}
	return s
}

// selfLoop draws a small rectangular loop on the trailing side of r.
func selfLoop(r geom.Rect, d float64) oracle.Section {
	c := r.Center()
	q := r.Size.Height / 4
	x := r.Max().X
	return oracle.Section{
		Start: geom.Point{X: x, Y: c.Y - q},
		Bends: []geom.Point{{X: x + d, Y: c.Y - q}, {X: x + d, Y: c.Y + q}},
		End:   geom.Point{X: x, Y: c.Y + q},
	}
}

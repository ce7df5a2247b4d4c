// Package svg renders a compose.Model as a standalone SVG document.
//
// Nodes are drawn in model order, so open groups lie beneath their
// children, and edges are drawn last as polylines with an arrow head. Hidden
// nodes (join markers) are skipped. Activatable nodes carry a hint line and
// a data-activatable attribute a host page can bind to.
package svg

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/matzehuels/nestview/pkg/compose"
	"github.com/matzehuels/nestview/pkg/geom"
	"github.com/matzehuels/nestview/pkg/graph"
)

// DefaultMargin is the blank border around the drawing.
const DefaultMargin = 20.0

// Hint is the text shown under the label of activatable nodes.
const Hint = "(Expand/Collapse)"

const (
	fontSize     = 14.0
	hintFontSize = 10.0
	groupLabelDY = 24.0
)

// Options configures rendering.
type Options struct {
	Theme  string
	Margin float64
	// NoHints suppresses the expand/collapse hint line.
	NoHints bool
}

// Render returns the SVG for m. Unknown themes fall back to DefaultTheme.
func Render(m *compose.Model, opts Options) []byte {
	theme, err := LookupTheme(opts.Theme)
	if err != nil {
		theme = themes[DefaultTheme]
	}
	margin := opts.Margin
	if margin <= 0 {
		margin = DefaultMargin
	}

	bounds := m.Bounds()
	origin := geom.Point{X: margin - bounds.Min.X, Y: margin - bounds.Min.Y}
	width := bounds.Size.Width + 2*margin
	height := bounds.Size.Height + 2*margin

	r := &renderer{theme: theme, origin: origin, hints: !opts.NoHints}
	fmt.Fprintf(&r.buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.1f %.1f" width="%.0f" height="%.0f">`+"\n",
		width, height, width, height)
	r.defs()
	fmt.Fprintf(&r.buf, `  <rect width="100%%" height="100%%" fill="%s"/>`+"\n", theme.Background)

	for _, n := range m.Nodes {
		if !n.Hidden {
			r.node(n)
		}
	}
	for _, e := range m.Edges {
		r.edge(e)
	}
	r.buf.WriteString("</svg>\n")
	return r.buf.Bytes()
}

type renderer struct {
	buf    bytes.Buffer
	theme  Theme
	origin geom.Point
	hints  bool
}

func (r *renderer) defs() {
	fmt.Fprintf(&r.buf, `  <defs>
    <marker id="arrow" viewBox="0 0 10 10" refX="10" refY="5" markerWidth="8" markerHeight="8" orient="auto-start-reverse">
      <path d="M 0 0 L 10 5 L 0 10 z" fill="%s"/>
    </marker>
  </defs>
`, r.theme.Edge)
}

func (r *renderer) node(n compose.Node) {
	p := n.Position.Add(r.origin)
	fill := r.theme.NodeFill
	if style, _ := n.StyleHints["style"].(string); strings.Contains(style, "fill:") {
		fill = n.Fill()
	}
	rx, _ := graph.Value(n.StyleHints).Number("rx")

	fmt.Fprintf(&r.buf, `  <g id="node-%s" class="node"`, escapeXML(n.ID))
	if n.Activatable {
		r.buf.WriteString(` data-activatable="true"`)
	}
	r.buf.WriteString(">\n")
	fmt.Fprintf(&r.buf, `    <rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" rx="%.1f" fill="%s" stroke="%s"/>`+"\n",
		p.X, p.Y, n.Size.Width, n.Size.Height, rx, escapeXML(fill), r.theme.Stroke)

	cx := p.X + n.Size.Width/2
	cy := p.Y + n.Size.Height/2
	if n.Open {
		cy = p.Y + groupLabelDY
	}
	if n.Role == graph.Gate {
		cy = p.Y + n.Size.Height + fontSize
	}
	r.text(cx, cy, fontSize, r.theme.Text, n.Label)
	if r.hints && n.Activatable && !n.Open {
		r.text(cx, cy+fontSize, hintFontSize, r.theme.Hint, Hint)
	}
	r.buf.WriteString("  </g>\n")
}

func (r *renderer) edge(e compose.Edge) {
	if len(e.Points) < 2 {
		return
	}
	var d strings.Builder
	for i, p := range e.Points {
		p = p.Add(r.origin)
		cmd := "L"
		if i == 0 {
			cmd = "M"
		}
		if i > 0 {
			d.WriteByte(' ')
		}
		fmt.Fprintf(&d, "%s %.1f %.1f", cmd, p.X, p.Y)
	}
	fmt.Fprintf(&r.buf, `  <path id="edge-%s" class="edge" d="%s" fill="none" stroke="%s" stroke-width="2" marker-end="url(#arrow)"/>`+"\n",
		escapeXML(e.ID), d.String(), r.theme.Edge)

	if e.Label != "" {
		mid := e.Points[len(e.Points)/2].Add(r.origin)
		if len(e.Points)%2 == 0 {
			a := e.Points[len(e.Points)/2-1].Add(r.origin)
			mid = geom.Point{X: (a.X + mid.X) / 2, Y: (a.Y + mid.Y) / 2}
		}
		r.text(mid.X, mid.Y-4, hintFontSize, r.theme.Text, e.Label)
	}
}

func (r *renderer) text(x, y, size float64, fill, s string) {
	fmt.Fprintf(&r.buf, `    <text x="%.1f" y="%.1f" font-family="sans-serif" font-size="%.0f" fill="%s" text-anchor="middle" dominant-baseline="middle">%s</text>`+"\n",
		x, y, size, fill, escapeXML(s))
}

func escapeXML(s string) string {
	var buf bytes.Buffer
	xml.EscapeText(&buf, []byte(s))
	return buf.String()
}

package graphviz

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/matzehuels/nestview/pkg/oracle"
)

// pointsPerInch converts pixel sizes to Graphviz inches. One pixel is one
// point.
const pointsPerInch = 72.0

// ToDOT converts a request to a DOT digraph.
func ToDOT(req *oracle.Request) string {
	opts := req.Options
	opts.SetDefaults()

	w := &dotWriter{open: make(map[string]bool)}
	root := oracle.Skeleton(req)
	root.Walk(func(n *oracle.Node) {
		if n.ID != oracle.RootID && n.Open && len(n.Children) > 0 {
			w.open[n.ID] = true
		}
	})

	w.line(0, "digraph %q {", "nestview")
	w.line(1, "rankdir=%s;", opts.Direction.Arrange())
	w.line(1, "compound=true;")
	w.line(1, "nodesep=%s;", inches(opts.NodeNodeSpacing))
	w.line(1, "ranksep=%s;", inches(opts.LayerSpacing))
	w.line(1, `node [shape=box, fixedsize=true, label=""];`)
	w.line(1, "edge [arrowsize=0.5];")

	w.nodes(1, root.Children, opts)
	w.edges(1, root.Edges)
	w.line(0, "}")
	return w.buf.String()
}

// anchorName is the DOT name of the invisible node representing an open
// node as an edge endpoint.
func anchorName(id string) string {
	return "anchor#" + id
}

func clusterName(id string) string {
	return "cluster_" + id
}

func inches(px float64) string {
	return strconv.FormatFloat(px/pointsPerInch, 'f', 4, 64)
}

type dotWriter struct {
	buf  bytes.Buffer
	open map[string]bool
}

func (w *dotWriter) line(depth int, format string, args ...any) {
	for i := 0; i < depth; i++ {
		w.buf.WriteString("  ")
	}
	fmt.Fprintf(&w.buf, format, args...)
	w.buf.WriteByte('\n')
}

func (w *dotWriter) nodes(depth int, nodes []*oracle.Node, opts oracle.Options) {
	for _, n := range nodes {
		if !w.open[n.ID] {
			w.line(depth, "%q [id=%q, width=%s, height=%s];",
				n.ID, n.ID, inches(n.Size.Width), inches(n.Size.Height))
			continue
		}
		pad := opts.Padding
		margin := max(pad.Left, pad.Right, pad.Bottom)
		w.line(depth, "subgraph %q {", clusterName(n.ID))
		w.line(depth+1, "id=%q;", n.ID)
		w.line(depth+1, "label=%q;", n.Label)
		w.line(depth+1, `labeljust="l";`)
		w.line(depth+1, "margin=%s;", strconv.FormatFloat(margin, 'f', 1, 64))
		w.line(depth+1, "%q [shape=point, width=0.01, style=invis];", anchorName(n.ID))
		w.nodes(depth+1, n.Children, opts)
		w.edges(depth+1, n.Edges)
		w.line(depth, "}")
	}
}

func (w *dotWriter) edges(depth int, edges []*oracle.Edge) {
	for _, e := range edges {
		src, dst := e.Source, e.Target
		attrs := fmt.Sprintf("id=%q", e.ID)
		if w.open[src] {
			attrs += fmt.Sprintf(", ltail=%q", clusterName(src))
			src = anchorName(src)
		}
		if w.open[dst] {
			attrs += fmt.Sprintf(", lhead=%q", clusterName(dst))
			dst = anchorName(dst)
		}
		if e.Label != "" {
			attrs += fmt.Sprintf(", label=%q, fontsize=10", e.Label)
		}
		w.line(depth, "%q -> %q [%s];", src, dst, attrs)
	}
}

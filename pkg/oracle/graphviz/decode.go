package graphviz

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/matzehuels/nestview/pkg/geom"
	"github.com/matzehuels/nestview/pkg/oracle"
)

// output is the subset of Graphviz's JSON output the decoder reads.
type output struct {
	BB      string   `json:"bb"`
	Objects []object `json:"objects"`
	Edges   []edge   `json:"edges"`
}

// object is a node or a subgraph. Clusters carry bb, nodes carry pos.
type object struct {
	Name   string `json:"name"`
	ID     string `json:"id"`
	BB     string `json:"bb"`
	Pos    string `json:"pos"`
	Width  string `json:"width"`
	Height string `json:"height"`
}

type edge struct {
	ID  string `json:"id"`
	Pos string `json:"pos"`
}

// decode applies Graphviz JSON output to the skeleton root in place.
func decode(data []byte, root *oracle.Node) error {
	var out output
	if err := json.Unmarshal(data, &out); err != nil {
		return fmt.Errorf("decode graphviz output: %w", err)
	}
	bb, err := parseBox(out.BB)
	if err != nil {
		return fmt.Errorf("graph bb: %w", err)
	}
	height := bb[3]
	flip := func(p geom.Point) geom.Point { return geom.Point{X: p.X - bb[0], Y: height - p.Y} }

	abs := make(map[string]geom.Rect)
	for _, o := range out.Objects {
		if o.ID == "" {
			continue
		}
		switch {
		case o.BB != "":
			b, err := parseBox(o.BB)
			if err != nil {
				return fmt.Errorf("cluster %s bb: %w", o.ID, err)
			}
			topLeft := flip(geom.Point{X: b[0], Y: b[3]})
			abs[o.ID] = geom.Rect{Min: topLeft, Size: geom.Size{Width: b[2] - b[0], Height: b[3] - b[1]}}
		case o.Pos != "":
			c, err := parsePoint(o.Pos)
			if err != nil {
				return fmt.Errorf("node %s pos: %w", o.ID, err)
			}
			w, _ := strconv.ParseFloat(o.Width, 64)
			h, _ := strconv.ParseFloat(o.Height, 64)
			size := geom.Size{Width: w * pointsPerInch, Height: h * pointsPerInch}
			c = flip(c)
			abs[o.ID] = geom.Rect{Min: geom.Point{X: c.X - size.Width/2, Y: c.Y - size.Height/2}, Size: size}
		}
	}

	owners := make(map[string]*oracle.Node)
	edges := make(map[string]*oracle.Edge)
	var apply func(n *oracle.Node, origin geom.Point)
	apply = func(n *oracle.Node, origin geom.Point) {
		for _, e := range n.Edges {
			edges[e.ID] = e
			owners[e.ID] = n
		}
		for _, c := range n.Children {
			r, ok := abs[c.ID]
			if !ok {
				continue
			}
			p := r.Min.Sub(origin)
			c.Position = &p
			if c.Open && len(c.Children) > 0 {
				c.Size = r.Size
			}
			apply(c, r.Min)
		}
	}
	root.Position = &geom.Point{}
	root.Size = geom.Size{Width: bb[2] - bb[0], Height: bb[3] - bb[1]}
	apply(root, geom.Point{})

	for _, ge := range out.Edges {
		e, ok := edges[ge.ID]
		if !ok || ge.Pos == "" {
			continue
		}
		pts, err := parseSpline(ge.Pos)
		if err != nil {
			return fmt.Errorf("edge %s pos: %w", ge.ID, err)
		}
		var origin geom.Point
		if owner := owners[ge.ID]; owner != root {
			origin = abs[owner.ID].Min
		}
		for i := range pts {
			pts[i] = flip(pts[i]).Sub(origin)
		}
		s := oracle.Section{Start: pts[0], End: pts[len(pts)-1]}
		if len(pts) > 2 {
			s.Bends = pts[1 : len(pts)-1]
		}
		e.Sections = []oracle.Section{s}
	}
	return nil
}

// parseBox parses "llx,lly,urx,ury".
func parseBox(s string) ([4]float64, error) {
	var b [4]float64
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return b, fmt.Errorf("malformed box %q", s)
	}
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return b, fmt.Errorf("malformed box %q: %w", s, err)
		}
		b[i] = v
	}
	return b, nil
}

// parsePoint parses "x,y".
func parsePoint(s string) (geom.Point, error) {
	x, y, ok := strings.Cut(s, ",")
	if !ok {
		return geom.Point{}, fmt.Errorf("malformed point %q", s)
	}
	px, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
	if err != nil {
		return geom.Point{}, fmt.Errorf("malformed point %q: %w", s, err)
	}
	py, err := strconv.ParseFloat(strings.TrimSpace(y), 64)
	if err != nil {
		return geom.Point{}, fmt.Errorf("malformed point %q: %w", s, err)
	}
	return geom.Point{X: px, Y: py}, nil
}

// parseSpline parses an edge pos attribute: optional "s,x,y" and "e,x,y"
// arrow endpoints followed by the spline control points. The result runs
// from the start endpoint (or first control point) to the end endpoint (or
// last control point).
func parseSpline(s string) ([]geom.Point, error) {
	var start, end *geom.Point
	var ctrl []geom.Point
	for _, f := range strings.Fields(strings.ReplaceAll(s, ";", " ")) {
		switch {
		case strings.HasPrefix(f, "s,"):
			p, err := parsePoint(f[2:])
			if err != nil {
				return nil, err
			}
			start = &p
		case strings.HasPrefix(f, "e,"):
			p, err := parsePoint(f[2:])
			if err != nil {
				return nil, err
			}
			end = &p
		default:
			p, err := parsePoint(f)
			if err != nil {
				return nil, err
			}
			ctrl = append(ctrl, p)
		}
	}
	if len(ctrl) == 0 {
		return nil, fmt.Errorf("no control points in %q", s)
	}
	var pts []geom.Point
	if start != nil {
		pts = append(pts, *start)
	}
	pts = append(pts, ctrl...)
	if end != nil {
		pts = append(pts, *end)
	}
	return pts, nil
}

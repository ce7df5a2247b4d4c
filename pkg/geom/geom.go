// Package geom holds the small geometry vocabulary shared by the projector,
// the layout oracles and the composer.
package geom

import "math"

// Point is a position in a 2D coordinate frame. Y grows downwards.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns p translated by o.
func (p Point) Add(o Point) Point {
	return Point{X: p.X + o.X, Y: p.Y + o.Y}
}

// Sub returns p - o.
func (p Point) Sub(o Point) Point {
	return Point{X: p.X - o.X, Y: p.Y - o.Y}
}

// Size is a width/height pair.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Insets is padding around the content of an open node.
type Insets struct {
	Top    float64 `json:"top" toml:"top"`
	Left   float64 `json:"left" toml:"left"`
	Bottom float64 `json:"bottom" toml:"bottom"`
	Right  float64 `json:"right" toml:"right"`
}

// Rect is an axis-aligned rectangle given by its top-left corner and size.
type Rect struct {
	Min  Point
	Size Size
}

// Center returns the center point of r.
func (r Rect) Center() Point {
	return Point{X: r.Min.X + r.Size.Width/2, Y: r.Min.Y + r.Size.Height/2}
}

// Max returns the bottom-right corner of r.
func (r Rect) Max() Point {
	return Point{X: r.Min.X + r.Size.Width, Y: r.Min.Y + r.Size.Height}
}

// Union returns the smallest rectangle containing both r and o.
// A zero-sized r is treated as empty.
func (r Rect) Union(o Rect) Rect {
	if r.Size == (Size{}) {
		return o
	}
	minX := math.Min(r.Min.X, o.Min.X)
	minY := math.Min(r.Min.Y, o.Min.Y)
	maxX := math.Max(r.Max().X, o.Max().X)
	maxY := math.Max(r.Max().Y, o.Max().Y)
	return Rect{Min: Point{X: minX, Y: minY}, Size: Size{Width: maxX - minX, Height: maxY - minY}}
}

// Translate returns a copy of pts with every point moved by origin.
func Translate(pts []Point, origin Point) []Point {
	if pts == nil {
		return nil
	}
	out := make([]Point, len(pts))
	for i, p := range pts {
		out[i] = p.Add(origin)
	}
	return out
}

// StraightPath returns the two-point path from the center of src to the
// center of dst.
func StraightPath(src, dst Rect) []Point {
	return []Point{src.Center(), dst.Center()}
}

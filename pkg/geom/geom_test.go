package geom

import (
	"reflect"
	"testing"
)

func TestTranslate(t *testing.T) {
	pts := []Point{{1, 2}, {3, 4}}
	got := Translate(pts, Point{10, 20})
	want := []Point{{11, 22}, {13, 24}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Translate() = %v, want %v", got, want)
	}
	if pts[0] != (Point{1, 2}) {
		t.Error("Translate should not modify its input")
	}
	if Translate(nil, Point{1, 1}) != nil {
		t.Error("Translate(nil) should return nil")
	}
}

func TestStraightPath(t *testing.T) {
	src := Rect{Min: Point{0, 0}, Size: Size{Width: 100, Height: 50}}
	dst := Rect{Min: Point{200, 100}, Size: Size{Width: 10, Height: 10}}
	got := StraightPath(src, dst)
	want := []Point{{50, 25}, {205, 105}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("StraightPath() = %v, want %v", got, want)
	}
}

func TestRectUnion(t *testing.T) {
	tests := []struct {
		name string
		a, b Rect
		want Rect
	}{
		{
			name: "empty receiver",
			a:    Rect{},
			b:    Rect{Min: Point{5, 5}, Size: Size{10, 10}},
			want: Rect{Min: Point{5, 5}, Size: Size{10, 10}},
		},
		{
			name: "disjoint",
			a:    Rect{Min: Point{0, 0}, Size: Size{10, 10}},
			b:    Rect{Min: Point{20, 5}, Size: Size{10, 20}},
			want: Rect{Min: Point{0, 0}, Size: Size{30, 25}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Union(tt.b); got != tt.want {
				t.Errorf("Union() = %v, want %v", got, tt.want)
			}
		})
	}
}

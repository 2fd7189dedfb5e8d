package element

import (
	"fmt"
	"math"
)

// Point is a screen coordinate in pixels.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Distance returns the Euclidean distance between two points.
func (p Point) Distance(q Point) float64 {
	dx := float64(p.X - q.X)
	dy := float64(p.Y - q.Y)
	return math.Sqrt(dx*dx + dy*dy)
}

// Rect is an axis-aligned rectangle in absolute screen coordinates.
//
// (X1, Y1) is the top-left corner and (X2, Y2) the bottom-right corner.
// A valid rectangle has X1 < X2 and Y1 < Y2.
type Rect struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// Region scopes detection and OCR. It is always in absolute screen coordinates.
type Region = Rect

// R is shorthand for constructing a Rect.
func R(x1, y1, x2, y2 int) Rect {
	return Rect{X1: x1, Y1: y1, X2: x2, Y2: y2}
}

// Around builds the rectangle centered on p extending pad pixels in each direction.
func Around(p Point, pad int) Rect {
	return Rect{X1: p.X - pad, Y1: p.Y - pad, X2: p.X + pad, Y2: p.Y + pad}
}

// Width returns X2 - X1.
func (r Rect) Width() int { return r.X2 - r.X1 }

// Height returns Y2 - Y1.
func (r Rect) Height() int { return r.Y2 - r.Y1 }

// Valid reports whether the rectangle has positive width and height.
func (r Rect) Valid() bool { return r.X1 < r.X2 && r.Y1 < r.Y2 }

// Area returns the rectangle's area, or 0 for an invalid rectangle.
func (r Rect) Area() int {
	if !r.Valid() {
		return 0
	}
	return r.Width() * r.Height()
}

// Center returns the integer center point.
func (r Rect) Center() Point {
	return Point{X: (r.X1 + r.X2) / 2, Y: (r.Y1 + r.Y2) / 2}
}

// Contains reports whether p lies inside the rectangle (edges inclusive).
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X1 && p.X <= r.X2 && p.Y >= r.Y1 && p.Y <= r.Y2
}

// Intersect returns the overlapping rectangle. The result is invalid
// (zero area) when the rectangles do not overlap.
func (r Rect) Intersect(o Rect) Rect {
	return Rect{
		X1: max(r.X1, o.X1),
		Y1: max(r.Y1, o.Y1),
		X2: min(r.X2, o.X2),
		Y2: min(r.Y2, o.Y2),
	}
}

// IntersectionArea returns the area shared by both rectangles, 0 if disjoint.
func (r Rect) IntersectionArea(o Rect) int {
	return r.Intersect(o).Area()
}

// Overlaps reports whether both rectangles share a positive area.
func (r Rect) Overlaps(o Rect) bool {
	return r.IntersectionArea(o) > 0
}

// Touches reports whether the rectangles overlap or share an edge.
func (r Rect) Touches(o Rect) bool {
	return !(r.X2 < o.X1 || r.X1 > o.X2 || r.Y2 < o.Y1 || r.Y1 > o.Y2)
}

// Expand grows the rectangle by pad pixels on every side.
func (r Rect) Expand(pad int) Rect {
	return Rect{X1: r.X1 - pad, Y1: r.Y1 - pad, X2: r.X2 + pad, Y2: r.Y2 + pad}
}

// Clamp restricts the rectangle to lie within bounds.
func (r Rect) Clamp(bounds Rect) Rect {
	return Rect{
		X1: min(max(r.X1, bounds.X1), bounds.X2),
		Y1: min(max(r.Y1, bounds.Y1), bounds.Y2),
		X2: max(min(r.X2, bounds.X2), bounds.X1),
		Y2: max(min(r.Y2, bounds.Y2), bounds.Y1),
	}
}

// Translate shifts the rectangle by (dx, dy).
func (r Rect) Translate(dx, dy int) Rect {
	return Rect{X1: r.X1 + dx, Y1: r.Y1 + dy, X2: r.X2 + dx, Y2: r.Y2 + dy}
}

// Union returns the smallest rectangle containing both.
func (r Rect) Union(o Rect) Rect {
	return Rect{
		X1: min(r.X1, o.X1),
		Y1: min(r.Y1, o.Y1),
		X2: max(r.X2, o.X2),
		Y2: max(r.Y2, o.Y2),
	}
}

// Key returns the cache key for the rectangle in the form x1_y1_x2_y2.
func (r Rect) Key() string {
	return fmt.Sprintf("%d_%d_%d_%d", r.X1, r.Y1, r.X2, r.Y2)
}

// String implements fmt.Stringer.
func (r Rect) String() string {
	return fmt.Sprintf("(%d,%d)-(%d,%d)", r.X1, r.Y1, r.X2, r.Y2)
}

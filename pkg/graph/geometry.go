package graph

import "math"

// Point is a 2-D coordinate.
type Point struct {
	X float64 `json:"x" yaml:"x" bson:"x"`
	Y float64 `json:"y" yaml:"y" bson:"y"`
}

// Add returns p translated by q.
func (p Point) Add(q Point) Point { return Point{X: p.X + q.X, Y: p.Y + q.Y} }

// Sub returns p - q.
func (p Point) Sub(q Point) Point { return Point{X: p.X - q.X, Y: p.Y - q.Y} }

// Finite reports whether both coordinates are finite.
func (p Point) Finite() bool { return finite(p.X) && finite(p.Y) }

// Extent is an axis-aligned box given by its minimum and maximum corners,
// the [[minX, minY], [maxX, maxY]] pair used by camera operations.
type Extent struct {
	Min Point `json:"min"`
	Max Point `json:"max"`
}

// NewExtent builds an extent from its corner coordinates.
func NewExtent(minX, minY, maxX, maxY float64) Extent {
	return Extent{Min: Point{X: minX, Y: minY}, Max: Point{X: maxX, Y: maxY}}
}

// RectExtent builds the extent of the rectangle at (x, y) with the given size.
func RectExtent(x, y, w, h float64) Extent {
	return NewExtent(x, y, x+w, y+h)
}

// Width returns the horizontal size.
func (e Extent) Width() float64 { return e.Max.X - e.Min.X }

// Height returns the vertical size.
func (e Extent) Height() float64 { return e.Max.Y - e.Min.Y }

// Center returns the midpoint.
func (e Extent) Center() Point {
	return Point{X: (e.Min.X + e.Max.X) / 2, Y: (e.Min.Y + e.Max.Y) / 2}
}

// Valid reports whether the extent is finite with positive width and height.
func (e Extent) Valid() bool {
	return e.Min.Finite() && e.Max.Finite() && e.Width() > 0 && e.Height() > 0
}

// Pad grows the extent by dx horizontally and dy vertically on every side.
func (e Extent) Pad(dx, dy float64) Extent {
	return NewExtent(e.Min.X-dx, e.Min.Y-dy, e.Max.X+dx, e.Max.Y+dy)
}

// Union returns the smallest extent containing both e and o.
func (e Extent) Union(o Extent) Extent {
	return NewExtent(
		math.Min(e.Min.X, o.Min.X), math.Min(e.Min.Y, o.Min.Y),
		math.Max(e.Max.X, o.Max.X), math.Max(e.Max.Y, o.Max.Y),
	)
}

// Intersect returns the overlap of e and o. The result is not Valid when
// they do not overlap.
func (e Extent) Intersect(o Extent) Extent {
	return NewExtent(
		math.Max(e.Min.X, o.Min.X), math.Max(e.Min.Y, o.Min.Y),
		math.Min(e.Max.X, o.Max.X), math.Min(e.Max.Y, o.Max.Y),
	)
}

// Rect returns the extent as x, y, width, height.
func (e Extent) Rect() (x, y, w, h float64) {
	return e.Min.X, e.Min.Y, e.Width(), e.Height()
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

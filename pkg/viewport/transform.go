package viewport

import (
	"math"
	"strconv"

	"github.com/matzehuels/lineagraph/pkg/graph"
)

// Transform is the camera: screen = content*K + (X, Y).
type Transform struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	K float64 `json:"k"`
}

// Identity is the transform with scale 1 and no translation.
var Identity = Transform{K: 1}

// Apply maps a content point to screen space.
func (t Transform) Apply(p graph.Point) graph.Point {
	return graph.Point{X: p.X*t.K + t.X, Y: p.Y*t.K + t.Y}
}

// Invert maps a screen point back to content space.
func (t Transform) Invert(p graph.Point) graph.Point {
	return graph.Point{X: (p.X - t.X) / t.K, Y: (p.Y - t.Y) / t.K}
}

// InvertExtent maps a screen-space box to content space.
func (t Transform) InvertExtent(e graph.Extent) graph.Extent {
	return graph.Extent{Min: t.Invert(e.Min), Max: t.Invert(e.Max)}
}

// Valid reports whether every component is finite and K is non-zero.
func (t Transform) Valid() bool {
	return finite(t.X) && finite(t.Y) && finite(t.K) && t.K != 0
}

// OrIdentity returns t when valid and [Identity] otherwise.
func (t Transform) OrIdentity() Transform {
	if t.Valid() {
		return t
	}
	return Identity
}

// String formats the transform as an SVG matrix.
func (t Transform) String() string {
	k := fmtNum(t.K)
	return "matrix(" + k + ",0,0," + k + "," + fmtNum(t.X) + "," + fmtNum(t.Y) + ")"
}

// approxEqual compares transforms with a tolerance suited to pixel space.
func (t Transform) approxEqual(o Transform) bool {
	const eps = 1e-9
	return math.Abs(t.X-o.X) <= eps && math.Abs(t.Y-o.Y) <= eps && math.Abs(t.K-o.K) <= eps
}

func fmtNum(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

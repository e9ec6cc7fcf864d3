package viewport

import (
	"math"

	"github.com/matzehuels/lineagraph/pkg/graph"
)

// Clamp limits v to [lo, hi]. NaN clamps to lo. Callers keep lo <= hi.
func Clamp(v, lo, hi float64) float64 {
	switch {
	case math.IsNaN(v), v < lo:
		return lo
	case v > hi:
		return hi
	default:
		return v
	}
}

// ScaleToContainer returns the largest scale at which content fits inside
// container. It returns 0 for degenerate content.
func ScaleToContainer(content, container graph.Extent) float64 {
	if content.Width() <= 0 || content.Height() <= 0 {
		return 0
	}
	return math.Min(container.Width()/content.Width(), container.Height()/content.Height())
}

// CenterInContainer returns the transform at scale k that puts the center of
// item on the center of container.
func CenterInContainer(k float64, item, container graph.Extent) Transform {
	ic, cc := item.Center(), container.Center()
	return Transform{X: cc.X - ic.X*k, Y: cc.Y - ic.Y*k, K: k}
}

// ConstrainToExtent keeps a transform from zooming out past the scale at
// which content fits the container, and keeps the content covering the
// container on each axis where it is larger, or centered where it is smaller.
func ConstrainToExtent(t Transform, container, content graph.Extent) Transform {
	fit := ScaleToContainer(content, container)
	if fit <= 0 || !t.Valid() {
		return t.OrIdentity()
	}
	k := math.Max(t.K, fit)
	return Transform{
		X: constrainAxis(t.X, k, container.Min.X, container.Max.X, content.Min.X, content.Max.X),
		Y: constrainAxis(t.Y, k, container.Min.Y, container.Max.Y, content.Min.Y, content.Max.Y),
		K: k,
	}
}

func constrainAxis(offset, k, cMin, cMax, dMin, dMax float64) float64 {
	size := (dMax - dMin) * k
	view := cMax - cMin
	if size <= view {
		return (cMin+cMax)/2 - (dMin+dMax)/2*k
	}
	// content edge may not move inside the container edge
	lo := cMax - dMax*k
	hi := cMin - dMin*k
	return Clamp(offset, lo, hi)
}

// fitTransform computes the transform that shows extent inside a w×h
// container with a fractional padding, clamped to [minK, maxK].
func fitTransform(e graph.Extent, w, h, padding, minK, maxK float64) (Transform, bool) {
	if !e.Valid() || w <= 0 || h <= 0 || !finite(w) || !finite(h) {
		return Transform{}, false
	}
	pad := 1 + math.Max(padding, 0)
	k := math.Min(w/(e.Width()*pad), h/(e.Height()*pad))
	k = Clamp(k, minK, maxK)
	t := CenterInContainer(k, e, graph.NewExtent(0, 0, w, h))
	return t, t.Valid()
}

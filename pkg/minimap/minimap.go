// Package minimap projects diagram content and the visible camera window into
// a small overview drawn in a corner of the container.
//
// The projection is read-only: it never changes the camera. [Project]
// returns false whenever the overview should not be drawn, which covers the
// "none" placement, non-positive sizes and a non-finite camera scale.
package minimap

import (
	"math"

	"github.com/matzehuels/lineagraph/pkg/errors"
	"github.com/matzehuels/lineagraph/pkg/graph"
	"github.com/matzehuels/lineagraph/pkg/viewport"
)

// Placement selects the container corner holding the overview.
type Placement string

// Placements.
const (
	None        Placement = "none"
	TopLeft     Placement = "top-left"
	TopRight    Placement = "top-right"
	BottomLeft  Placement = "bottom-left"
	BottomRight Placement = "bottom-right"
)

// Placements lists every placement value.
var Placements = []Placement{None, TopLeft, TopRight, BottomLeft, BottomRight}

// Defaults.
const (
	DefaultScale     = 1.0 / 8
	DefaultMargin    = 16.0
	DefaultPlacement = BottomLeft
)

// ParsePlacement validates s. The empty string yields [DefaultPlacement].
func ParsePlacement(s string) (Placement, error) {
	if s == "" {
		return DefaultPlacement, nil
	}
	for _, p := range Placements {
		if string(p) == s {
			return p, nil
		}
	}
	return "", errors.New(errors.ErrCodeInvalidInput, "invalid minimap placement %q", s)
}

// Input describes the main view the overview mirrors.
type Input struct {
	ContainerWidth  float64
	ContainerHeight float64
	ContentWidth    float64
	ContentHeight   float64
	// Scale maps content units to overview units. Zero means DefaultScale.
	Scale     float64
	Transform viewport.Transform
	Placement Placement
	Margin    float64
}

// Projection is where and how the overview is drawn.
type Projection struct {
	// Origin is the overview's top-left corner in container space.
	Origin graph.Point
	Scale  float64
	Width  float64
	Height float64
	// Lens is the part of the content visible through the camera, in
	// content coordinates and clipped to the content box. It has zero size
	// when the camera shows nothing of the content.
	Lens graph.Extent
}

// Project computes the overview for in. ok is false when nothing should be
// drawn.
func Project(in Input) (Projection, bool) {
	if in.Placement == None {
		return Projection{}, false
	}
	if !(in.ContainerWidth > 0 && in.ContainerHeight > 0 && in.ContentWidth > 0 && in.ContentHeight > 0) {
		return Projection{}, false
	}
	if !in.Transform.Valid() {
		return Projection{}, false
	}
	scale := in.Scale
	if scale == 0 {
		scale = DefaultScale
	}
	if !(scale > 0) || math.IsInf(scale, 0) {
		return Projection{}, false
	}

	p := Projection{
		Scale:  scale,
		Width:  in.ContentWidth * scale,
		Height: in.ContentHeight * scale,
	}
	p.Origin = origin(in, p.Width, p.Height)

	content := graph.NewExtent(0, 0, in.ContentWidth, in.ContentHeight)
	window := in.Transform.InvertExtent(graph.NewExtent(0, 0, in.ContainerWidth, in.ContainerHeight))
	p.Lens = clip(window, content)
	return p, true
}

func origin(in Input, w, h float64) graph.Point {
	m := in.Margin
	left, top := m, m
	right := in.ContainerWidth - w - m
	bottom := in.ContainerHeight - h - m
	switch in.Placement {
	case TopLeft:
		return graph.Point{X: left, Y: top}
	case TopRight:
		return graph.Point{X: right, Y: top}
	case BottomRight:
		return graph.Point{X: right, Y: bottom}
	default:
		return graph.Point{X: left, Y: bottom}
	}
}

// clip intersects e with bounds, collapsing to a zero-size box on the nearest
// edge when they do not overlap.
func clip(e, bounds graph.Extent) graph.Extent {
	minX := viewport.Clamp(math.Min(e.Min.X, e.Max.X), bounds.Min.X, bounds.Max.X)
	maxX := viewport.Clamp(math.Max(e.Min.X, e.Max.X), bounds.Min.X, bounds.Max.X)
	minY := viewport.Clamp(math.Min(e.Min.Y, e.Max.Y), bounds.Min.Y, bounds.Max.Y)
	maxY := viewport.Clamp(math.Max(e.Min.Y, e.Max.Y), bounds.Min.Y, bounds.Max.Y)
	return graph.NewExtent(minX, minY, maxX, maxY)
}

// Transform maps content coordinates into container space for the overview.
func (p Projection) Transform() viewport.Transform {
	return viewport.Transform{X: p.Origin.X, Y: p.Origin.Y, K: p.Scale}
}

// Map projects a content-space extent into container space.
func (p Projection) Map(e graph.Extent) graph.Extent {
	t := p.Transform()
	return graph.Extent{Min: t.Apply(e.Min), Max: t.Apply(e.Max)}
}

// ScreenLens is the lens in container space.
func (p Projection) ScreenLens() graph.Extent { return p.Map(p.Lens) }

// Bounds is the overview box in container space.
func (p Projection) Bounds() graph.Extent {
	return graph.RectExtent(p.Origin.X, p.Origin.Y, p.Width, p.Height)
}

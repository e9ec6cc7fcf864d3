// Package edge draws positioned edges as SVG.
//
// Straight edges are a single <line> from start to end; every other kind is a
// <polyline> through the start, bend and end points. Animated edges get a
// second, dashed copy of the same geometry whose dash offset loops forever to
// suggest flow. The copy is never drawn on the minimap or when reduced motion
// is requested, and documents embed [ReducedMotionCSS] so viewers that ask
// for reduced motion hide it too.
package edge

import (
	"html"
	"math"
	"strconv"

	svg "github.com/ajstarks/svgo/float"

	"github.com/matzehuels/lineagraph/pkg/graph"
)

// Defaults.
const (
	DefaultColor               = "#757575"
	DefaultStrokeWidth         = 2.0
	DefaultAnimatedStrokeWidth = 5.0
	DefaultLabelColor          = "#424242"
	DefaultFontSize            = 12.0
)

// FlowClass is the class of animated overlays.
const FlowClass = "lineage-edge-flow"

// ReducedMotionCSS hides flow overlays for viewers that prefer reduced motion.
const ReducedMotionCSS = `@media (prefers-reduced-motion: reduce) { .` + FlowClass + ` { display: none; } }`

// Flow animation: the dash offset runs from 60 to 0 every two seconds.
const (
	flowDash     = "0px 60px"
	flowFrom     = 60.0
	flowTo       = 0.0
	flowDuration = 2.0
)

// Options control how an edge is drawn. Zero values select the defaults.
type Options struct {
	MiniMap       bool
	ReducedMotion bool
	Color         string
	StrokeWidth   float64
	// AnimatedStrokeWidth is the overlay width when the edge has none.
	AnimatedStrokeWidth float64
	LabelColor          string
	FontSize            float64
}

func (o Options) withDefaults() Options {
	if o.Color == "" {
		o.Color = DefaultColor
	}
	if o.StrokeWidth <= 0 {
		o.StrokeWidth = DefaultStrokeWidth
	}
	if o.AnimatedStrokeWidth <= 0 {
		o.AnimatedStrokeWidth = DefaultAnimatedStrokeWidth
	}
	if o.LabelColor == "" {
		o.LabelColor = DefaultLabelColor
	}
	if o.FontSize <= 0 {
		o.FontSize = DefaultFontSize
	}
	return o
}

// ID returns the element id of the edge's base path.
func ID(e graph.PositionedEdge) string { return e.SourceNodeID + "-" + e.TargetNodeID }

// AnimatedID returns the element id of the edge's flow overlay.
func AnimatedID(e graph.PositionedEdge) string { return ID(e) + "-animated" }

// Animated reports whether Draw emits a flow overlay for e.
func Animated(e graph.PositionedEdge, opts Options) bool {
	return e.IsAnimated && !opts.MiniMap && !opts.ReducedMotion
}

// Draw writes e to canvas. Edges with non-finite geometry are skipped.
func Draw(canvas *svg.SVG, e graph.PositionedEdge, opts Options) {
	opts = opts.withDefaults()
	straight := e.Kind == graph.EdgeStraight
	pts := e.Points()
	if straight {
		pts = []graph.Point{e.StartPoint, e.EndPoint}
	}
	for _, p := range pts {
		if !p.Finite() {
			return
		}
	}

	color := e.Color
	if color == "" {
		color = opts.Color
	}
	base := e.StrokeWidth
	if base <= 0 {
		base = opts.StrokeWidth
	}

	path(canvas, straight, pts,
		attr("id", ID(e)),
		`fill="none"`,
		attr("stroke", color),
		attr("stroke-width", num(base)),
		`stroke-linejoin="round"`,
	)

	if !opts.MiniMap {
		drawLabel(canvas, e.Label, e.EndPoint.Y, opts)
	}

	if !Animated(e, opts) {
		return
	}
	overlay := e.StrokeWidth
	if overlay <= 0 {
		overlay = opts.AnimatedStrokeWidth
	}
	id := AnimatedID(e)
	path(canvas, straight, pts,
		attr("id", id),
		attr("class", FlowClass),
		`fill="none"`,
		`stroke-linecap="round"`,
		attr("stroke", color),
		attr("stroke-width", num(overlay)),
		`stroke-linejoin="round"`,
		attr("stroke-dasharray", flowDash),
	)
	canvas.Animate("#"+html.EscapeString(id), "stroke-dashoffset", flowFrom, flowTo, flowDuration, 0, `calcMode="linear"`)
}

func path(canvas *svg.SVG, straight bool, pts []graph.Point, s ...string) {
	if straight {
		canvas.Line(pts[0].X, pts[0].Y, pts[1].X, pts[1].Y, s...)
		return
	}
	xs := make([]float64, len(pts))
	ys := make([]float64, len(pts))
	for i, p := range pts {
		xs[i], ys[i] = p.X, p.Y
	}
	canvas.Polyline(xs, ys, s...)
}

// LabelY returns the baseline of a label anchored at y on an edge ending at
// endY. Labels below the end point drop further to clear the arrowhead;
// labels above it rise.
func LabelY(y, endY float64) float64 {
	if y-5 >= endY {
		return endY + 25
	}
	return endY - 15
}

func drawLabel(canvas *svg.SVG, l *graph.EdgeLabel, endY float64, opts Options) {
	if l == nil || l.Text == "" || !finite(l.X) || !finite(l.Y) {
		return
	}
	y := l.Y
	if finite(endY) {
		y = LabelY(l.Y, endY)
	}
	canvas.Text(l.X, y, l.Text,
		attr("fill", opts.LabelColor),
		attr("font-size", num(opts.FontSize)),
		`font-family="sans-serif"`,
	)
}

// attr formats an escaped name="value" pair. svgo copies arguments
// containing '=' verbatim.
func attr(name, value string) string {
	return name + `="` + html.EscapeString(value) + `"`
}

func num(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

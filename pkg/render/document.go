package render

import (
	"bytes"
	"html"
	"math"

	svg "github.com/ajstarks/svgo/float"

	"github.com/matzehuels/lineagraph/pkg/graph"
	"github.com/matzehuels/lineagraph/pkg/minimap"
	"github.com/matzehuels/lineagraph/pkg/render/edge"
	"github.com/matzehuels/lineagraph/pkg/scene"
	"github.com/matzehuels/lineagraph/pkg/viewport"
)

// Element ids of the document structure.
const (
	ViewportID    = "lineage-graph-viewport"
	NodesID       = "lineage-graph-nodes"
	EdgesID       = "lineage-graph-edges"
	MiniMapID     = "lineage-graph-minimap"
	MiniMapMaskID = "miniMapMask"
	IndicatorID   = "lineage-graph-rendering"
	EmptyID       = "lineage-graph-empty"
)

// DefaultWidth and DefaultHeight size documents whose container size is
// unknown and whose content is empty.
const (
	DefaultWidth  = 800.0
	DefaultHeight = 600.0
)

const indicatorHeight = 4.0

// Option configures [RenderSVG].
type Option func(*document)

type document struct {
	width, height float64
	transform     viewport.Transform
	registry      *Registry
	placement     minimap.Placement
	miniMapScale  float64
	miniMapMargin float64
	reducedMotion bool
	hideDotGrid   bool
	background    string
	dots          string
	emptyMessage  string
	rendering     bool
	edgeOpts      edge.Options
	title         string
}

// WithSize sets the container size. Without it the document is as large as
// the content.
func WithSize(w, h float64) Option { return func(d *document) { d.width, d.height = w, h } }

// WithTransform sets the camera. Invalid transforms render as identity.
func WithTransform(t viewport.Transform) Option { return func(d *document) { d.transform = t } }

// WithRegistry sets the node renderers.
func WithRegistry(r *Registry) Option { return func(d *document) { d.registry = r } }

// WithMiniMap sets the overview placement and scale. A zero scale selects
// [minimap.DefaultScale].
func WithMiniMap(p minimap.Placement, scale float64) Option {
	return func(d *document) { d.placement, d.miniMapScale = p, scale }
}

// WithReducedMotion suppresses edge flow animation.
func WithReducedMotion() Option { return func(d *document) { d.reducedMotion = true } }

// WithHideDotGrid drops the dots from the background pattern.
func WithHideDotGrid() Option { return func(d *document) { d.hideDotGrid = true } }

// WithColors overrides the background and dot colors. Empty values keep
// the defaults.
func WithColors(background, dots string) Option {
	return func(d *document) {
		if background != "" {
			d.background = background
		}
		if dots != "" {
			d.dots = dots
		}
	}
}

// WithEmptyMessage sets the text shown when there are no nodes.
func WithEmptyMessage(msg string) Option { return func(d *document) { d.emptyMessage = msg } }

// WithRendering shows the progress indicator.
func WithRendering(on bool) Option { return func(d *document) { d.rendering = on } }

// WithEdgeOptions sets edge colors and widths.
func WithEdgeOptions(o edge.Options) Option { return func(d *document) { d.edgeOpts = o } }

// WithTitle sets the document title.
func WithTitle(t string) Option { return func(d *document) { d.title = t } }

func newDocument(opts ...Option) document {
	d := document{
		transform:     viewport.Identity,
		registry:      DefaultRegistry(),
		placement:     minimap.DefaultPlacement,
		miniMapMargin: minimap.DefaultMargin,
		background:    DefaultBackgroundColor,
		dots:          DefaultDotGridColor,
	}
	for _, opt := range opts {
		opt(&d)
	}
	d.transform = d.transform.OrIdentity()
	return d
}

// RenderSVG draws s as a standalone SVG document: background, nodes
// (containers before their children), edges, the minimap, and the empty
// message or progress indicator when applicable.
func RenderSVG(s *scene.Scene, opts ...Option) []byte {
	d := newDocument(opts...)
	cw, ch := s.Size()
	w, h := d.width, d.height
	if !(w > 0) || !(h > 0) {
		w, h = cw, ch
	}
	if !(w > 0) || !(h > 0) {
		w, h = DefaultWidth, DefaultHeight
	}

	var buf bytes.Buffer
	canvas := svg.New(&buf)
	canvas.Start(w, h, `viewBox="0 0 `+num(w)+" "+num(h)+`"`)
	if d.title != "" {
		canvas.Title(d.title)
	}
	canvas.Style("text/css", edge.ReducedMotionCSS)

	proj, showMiniMap := minimap.Project(minimap.Input{
		ContainerWidth:  w,
		ContainerHeight: h,
		ContentWidth:    cw,
		ContentHeight:   ch,
		Scale:           d.miniMapScale,
		Transform:       d.transform,
		Placement:       d.placement,
		Margin:          d.miniMapMargin,
	})

	canvas.Def()
	writeDotPattern(canvas, d.transform.K, d.background, d.dots, d.hideDotGrid)
	if showMiniMap {
		writeMiniMapMask(canvas, proj)
	}
	canvas.DefEnd()

	canvas.Group(attr("id", ViewportID), attr("transform", d.transform.String()))
	fillBackground(canvas, d.transform.InvertExtent(graph.NewExtent(0, 0, w, h)))
	d.drawScene(canvas, s, false)
	canvas.Gend()

	if showMiniMap {
		d.drawMiniMap(canvas, s, proj)
	}
	if s.Empty() && d.emptyMessage != "" {
		canvas.Text(w/2, h/2, d.emptyMessage,
			attr("id", EmptyID),
			`text-anchor="middle"`,
			`dominant-baseline="central"`,
			`font-family="sans-serif"`,
			`font-size="16"`,
			`fill="#616161"`,
		)
	}
	if d.rendering {
		writeIndicator(canvas, w, h, d.reducedMotion)
	}
	canvas.End()
	return buf.Bytes()
}

func (d *document) drawScene(canvas *svg.SVG, s *scene.Scene, mini bool) {
	if s.Empty() {
		return
	}
	if !mini {
		canvas.Group(attr("id", NodesID))
	} else {
		canvas.Group()
	}
	for _, f := range s.Nodes {
		nr, ok := d.registry.Lookup(f.Node.Kind)
		if !ok {
			continue
		}
		nr.Draw(canvas, NodeView{
			Node:        f.Node,
			Position:    f.Absolute,
			Depth:       f.Depth,
			IsContainer: len(f.Node.Children) > 0,
			MiniMap:     mini,
		})
	}
	canvas.Gend()

	if !mini {
		canvas.Group(attr("id", EdgesID))
	} else {
		canvas.Group()
	}
	eo := d.edgeOpts
	eo.MiniMap = mini
	eo.ReducedMotion = eo.ReducedMotion || d.reducedMotion
	for _, e := range s.Edges {
		edge.Draw(canvas, e, eo)
	}
	canvas.Gend()
}

// writeMiniMapMask defines a mask that is opaque over the overview and
// transparent over the lens. It belongs inside <defs>.
func writeMiniMapMask(canvas *svg.SVG, p minimap.Projection) {
	x, y, w, h := p.Bounds().Rect()
	canvas.Mask(MiniMapMaskID, x, y, w, h, `maskUnits="userSpaceOnUse"`)
	canvas.Rect(x, y, w, h, `fill="white"`)
	lx, ly, lw, lh := p.ScreenLens().Rect()
	canvas.Rect(lx, ly, lw, lh, `fill="black"`)
	canvas.MaskEnd()
}

func (d *document) drawMiniMap(canvas *svg.SVG, s *scene.Scene, p minimap.Projection) {
	x, y, w, h := p.Bounds().Rect()
	canvas.Group(attr("id", MiniMapID), `pointer-events="none"`)
	canvas.Rect(x, y, w, h, attr("fill", d.background), `stroke="#9e9e9e"`, `stroke-width="1"`)
	canvas.Group(attr("transform", p.Transform().String()))
	d.drawScene(canvas, s, true)
	canvas.Gend()
	canvas.Rect(x, y, w, h, `fill="#000000"`, `fill-opacity="0.15"`, attr("mask", "url(#"+MiniMapMaskID+")"))
	lx, ly, lw, lh := p.ScreenLens().Rect()
	canvas.Rect(lx, ly, lw, lh, `fill="none"`, `stroke="#1976d2"`, `stroke-width="1"`, `class="lineage-graph-lens"`)
	canvas.Gend()
}

// writeIndicator draws an indeterminate progress bar along the bottom edge.
func writeIndicator(canvas *svg.SVG, w, h float64, reducedMotion bool) {
	canvas.Group(attr("id", IndicatorID))
	canvas.Rect(0, h-indicatorHeight, w, indicatorHeight, `fill="#bbdefb"`)
	bar := w / 3
	canvas.Rect(0, h-indicatorHeight, bar, indicatorHeight, `id="lineage-graph-rendering-bar"`, `fill="#1976d2"`)
	if !reducedMotion {
		canvas.Animate("#lineage-graph-rendering-bar", "x", -bar, w, 1.5, 0)
	}
	canvas.Gend()
}

func attr(name, value string) string {
	return name + `="` + html.EscapeString(value) + `"`
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

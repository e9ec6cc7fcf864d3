package render

import (
	"fmt"
	"strconv"

	svg "github.com/ajstarks/svgo/float"

	"github.com/matzehuels/lineagraph/pkg/graph"
	"github.com/matzehuels/lineagraph/pkg/layout"
)

// NodeView is a node ready to draw: the positioned node together with its
// absolute top-left corner.
type NodeView struct {
	Node        *graph.PositionedNode
	Position    graph.Point
	Depth       int
	IsContainer bool
	// MiniMap is set when drawing into the overview. Renderers should
	// draw a simplified shape and skip text.
	MiniMap bool
}

// NodeRenderer draws the payload of one node kind. LayoutOptions sizes the
// node before layout; Draw paints it afterwards at its placed position.
type NodeRenderer interface {
	LayoutOptions(n graph.Node) layout.NodeOptions
	Draw(canvas *svg.SVG, v NodeView)
}

// Registry maps node kinds to renderers.
type Registry struct {
	byKind   map[string]NodeRenderer
	fallback NodeRenderer
}

// NewRegistry creates a registry. fallback draws kinds without a renderer;
// when nil such nodes are laid out with [layout.DefaultResolver] and not
// drawn.
func NewRegistry(fallback NodeRenderer) *Registry {
	return &Registry{byKind: make(map[string]NodeRenderer), fallback: fallback}
}

// DefaultRegistry returns a registry that draws every kind as a box.
func DefaultRegistry() *Registry { return NewRegistry(BoxRenderer{}) }

// Register binds kind to r, replacing any earlier renderer.
func (r *Registry) Register(kind string, nr NodeRenderer) {
	r.byKind[kind] = nr
}

// Lookup returns the renderer for kind, or the fallback.
func (r *Registry) Lookup(kind string) (NodeRenderer, bool) {
	if r == nil {
		return nil, false
	}
	if nr, ok := r.byKind[kind]; ok {
		return nr, true
	}
	return r.fallback, r.fallback != nil
}

// Resolver adapts the registry for [layout.BuildRequest].
func (r *Registry) Resolver() layout.OptionsResolver {
	return func(n graph.Node) layout.NodeOptions {
		if nr, ok := r.Lookup(n.Kind); ok {
			return nr.LayoutOptions(n)
		}
		return layout.DefaultResolver(n)
	}
}

// =============================================================================
// Box Renderer
// =============================================================================

// BoxRenderer draws leaves as rounded boxes with a centered label and
// containers as tinted panels with a header. The label is taken from a
// "label" or "name" entry of the node data, falling back to the id.
type BoxRenderer struct {
	Fill          string
	ContainerFill string
	Stroke        string
	TextColor     string
	FontSize      float64
}

const (
	boxFill          = "#ffffff"
	boxContainerFill = "#f5f5f5"
	boxStroke        = "#9e9e9e"
	boxText          = "#212121"
	boxFontSize      = 13.0
	boxRadius        = 6.0
)

// LayoutOptions implements [NodeRenderer] with the default sizes.
func (BoxRenderer) LayoutOptions(n graph.Node) layout.NodeOptions {
	return layout.DefaultResolver(n)
}

// Draw implements [NodeRenderer].
func (b BoxRenderer) Draw(canvas *svg.SVG, v NodeView) {
	n := v.Node
	if n.Width <= 0 || n.Height <= 0 {
		return
	}
	fill := or(b.Fill, boxFill)
	if v.IsContainer {
		fill = or(b.ContainerFill, boxContainerFill)
	}
	stroke := or(b.Stroke, boxStroke)

	if v.MiniMap {
		canvas.Rect(v.Position.X, v.Position.Y, n.Width, n.Height, attr("fill", stroke), `fill-opacity="0.5"`)
		return
	}

	canvas.Roundrect(v.Position.X, v.Position.Y, n.Width, n.Height, boxRadius, boxRadius,
		attr("id", "node-"+n.ID),
		attr("class", "lineage-node"),
		attr("fill", fill),
		attr("stroke", stroke),
		`stroke-width="1"`,
	)

	size := b.FontSize
	if size <= 0 {
		size = boxFontSize
	}
	text := []string{
		attr("fill", or(b.TextColor, boxText)),
		attr("font-size", num(size)),
		`font-family="sans-serif"`,
	}
	if v.IsContainer {
		canvas.Text(v.Position.X+12, v.Position.Y+size+8, Label(n), append(text, `font-weight="bold"`)...)
		return
	}
	canvas.Text(v.Position.X+n.Width/2, v.Position.Y+n.Height/2, Label(n),
		append(text, `text-anchor="middle"`, `dominant-baseline="central"`)...)
}

// Label returns the display text of a node.
func Label(n *graph.PositionedNode) string {
	switch d := n.Data.(type) {
	case string:
		if d != "" {
			return d
		}
	case map[string]any:
		for _, key := range []string{"label", "name"} {
			if s, ok := d[key].(string); ok && s != "" {
				return s
			}
		}
	case fmt.Stringer:
		return d.String()
	}
	return n.ID
}

func or(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func num(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }

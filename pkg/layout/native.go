package layout

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/matzehuels/lineagraph/pkg/graph"
)

// =============================================================================
// Native Shapes
// =============================================================================

// NativeNode is a node in the layout engine's JSON graph format, the
// ELK JSON shape. The root of a request is a synthetic node with id
// [graph.RootContainer] whose children are the top-level graph nodes.
type NativeNode struct {
	ID            string            `json:"id"`
	X             float64           `json:"x,omitempty"`
	Y             float64           `json:"y,omitempty"`
	Width         float64           `json:"width,omitempty"`
	Height        float64           `json:"height,omitempty"`
	LayoutOptions map[string]string `json:"layoutOptions,omitempty"`
	Children      []NativeNode      `json:"children,omitempty"`
	Edges         []NativeEdge      `json:"edges,omitempty"`
}

// NativeEdge is a hyperedge in the engine's format. Positioned edges carry
// the id of the node whose coordinate space their sections are expressed in.
type NativeEdge struct {
	ID        string        `json:"id"`
	Sources   []string      `json:"sources"`
	Targets   []string      `json:"targets"`
	Container string        `json:"container,omitempty"`
	Sections  []Section     `json:"sections,omitempty"`
	Labels    []NativeLabel `json:"labels,omitempty"`
}

// Section is one routed stretch of an edge.
type Section struct {
	ID         string        `json:"id,omitempty"`
	StartPoint graph.Point   `json:"startPoint"`
	EndPoint   graph.Point   `json:"endPoint"`
	BendPoints []graph.Point `json:"bendPoints,omitempty"`
}

// NativeLabel is an edge label with its placed box.
type NativeLabel struct {
	ID     string  `json:"id,omitempty"`
	Text   string  `json:"text"`
	X      float64 `json:"x,omitempty"`
	Y      float64 `json:"y,omitempty"`
	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`
}

// Request is the graph sent to an [Engine].
type Request = NativeNode

// Response is the positioned graph an [Engine] returns.
type Response = NativeNode

// =============================================================================
// Layout Options
// =============================================================================

// Padding is the inner margin of a container node.
type Padding struct {
	Top, Left, Bottom, Right float64
}

// String formats the padding the way ELK parses it.
func (p Padding) String() string {
	return fmt.Sprintf("[top=%g,left=%g,bottom=%g,right=%g]", p.Top, p.Left, p.Bottom, p.Right)
}

// NodeOptions are the per-node sizing and layout hints attached to a request.
type NodeOptions struct {
	Width   float64
	Height  float64
	Padding *Padding
	Options map[string]string
}

// OptionsResolver computes the layout hints of one node, usually by
// dispatching on its kind.
type OptionsResolver func(graph.Node) NodeOptions

// Default node sizes used when no resolver is supplied.
const (
	DefaultNodeWidth  = 150
	DefaultNodeHeight = 48
)

// DefaultPadding is the container padding used by [DefaultResolver]. The top
// leaves room for a header.
var DefaultPadding = Padding{Top: 36, Left: 12, Bottom: 12, Right: 12}

// DefaultResolver sizes leaves at DefaultNodeWidth×DefaultNodeHeight and pads
// containers with DefaultPadding.
func DefaultResolver(n graph.Node) NodeOptions {
	if n.IsContainer() {
		p := DefaultPadding
		return NodeOptions{Padding: &p}
	}
	return NodeOptions{Width: DefaultNodeWidth, Height: DefaultNodeHeight}
}

// Label box estimate for the engine. Actual text metrics are a renderer
// concern.
const (
	labelCharWidth = 7
	labelHeight    = 16
)

// BaseOptions are the algorithm options set on every request root.
func BaseOptions(dir graph.Direction) map[string]string {
	return map[string]string{
		"elk.algorithm":                             "layered",
		"elk.direction":                             strings.ToUpper(string(dir.OrDefault())),
		"elk.hierarchyHandling":                     "INCLUDE_CHILDREN",
		"elk.edgeRouting":                           "ORTHOGONAL",
		"elk.spacing.nodeNode":                      "40",
		"elk.layered.spacing.nodeNodeBetweenLayers": "60",
	}
}

// BuildRequest converts a graph into the engine's native format. The
// resolver is called once per node, descendants included; a nil resolver
// uses [DefaultResolver].
func BuildRequest(nodes []graph.Node, edges []graph.Edge, dir graph.Direction, resolve OptionsResolver) *Request {
	if resolve == nil {
		resolve = DefaultResolver
	}
	req := &Request{
		ID:            graph.RootContainer,
		LayoutOptions: BaseOptions(dir),
		Children:      nativeNodes(nodes, resolve),
		Edges:         make([]NativeEdge, 0, len(edges)),
	}
	for _, e := range edges {
		ne := NativeEdge{ID: e.ID, Sources: []string{e.SourceNodeID}, Targets: []string{e.TargetNodeID}}
		if e.Label != "" {
			ne.Labels = []NativeLabel{{
				ID:     e.ID + "-label",
				Text:   e.Label,
				Width:  float64(utf8.RuneCountInString(e.Label) * labelCharWidth),
				Height: labelHeight,
			}}
		}
		req.Edges = append(req.Edges, ne)
	}
	return req
}

func nativeNodes(nodes []graph.Node, resolve OptionsResolver) []NativeNode {
	if len(nodes) == 0 {
		return nil
	}
	out := make([]NativeNode, 0, len(nodes))
	for _, n := range nodes {
		opts := resolve(n)
		nn := NativeNode{
			ID:       n.ID,
			Width:    opts.Width,
			Height:   opts.Height,
			Children: nativeNodes(n.Children, resolve),
		}
		if len(opts.Options) > 0 || opts.Padding != nil {
			nn.LayoutOptions = make(map[string]string, len(opts.Options)+1)
			for k, v := range opts.Options {
				nn.LayoutOptions[k] = v
			}
			if opts.Padding != nil {
				nn.LayoutOptions["elk.padding"] = opts.Padding.String()
			}
		}
		out = append(out, nn)
	}
	return out
}

// =============================================================================
// Response Conversion
// =============================================================================

// ToLayout rewrites an engine response into a positioned graph. Node kinds
// and payloads, and edge styling, are carried over from the request input
// by id. Each node's x,y becomes its BottomLeftCorner, relative to its
// parent; each edge's first section supplies its points.
func ToLayout(resp *Response, nodes []graph.Node, edges []graph.Edge) *graph.Layout {
	if resp == nil {
		return graph.EmptyLayout()
	}
	byID := make(map[string]graph.Node)
	indexNodes(nodes, byID)
	edgeByID := make(map[string]graph.Edge, len(edges))
	for _, e := range edges {
		edgeByID[e.ID] = e
	}

	l := &graph.Layout{
		Nodes:  positionedNodes(resp.Children, byID),
		Width:  resp.Width,
		Height: resp.Height,
	}
	if l.Nodes == nil {
		l.Nodes = []graph.PositionedNode{}
	}
	l.Edges = make([]graph.PositionedEdge, 0, len(edges))
	collectEdges(resp, edgeByID, &l.Edges)
	return l
}

func indexNodes(nodes []graph.Node, into map[string]graph.Node) {
	for _, n := range nodes {
		into[n.ID] = n
		indexNodes(n.Children, into)
	}
}

func positionedNodes(native []NativeNode, byID map[string]graph.Node) []graph.PositionedNode {
	if len(native) == 0 {
		return nil
	}
	out := make([]graph.PositionedNode, 0, len(native))
	for _, nn := range native {
		src := byID[nn.ID]
		out = append(out, graph.PositionedNode{
			ID:               nn.ID,
			Kind:             src.Kind,
			Data:             src.Data,
			BottomLeftCorner: graph.Point{X: nn.X, Y: nn.Y},
			Width:            nn.Width,
			Height:           nn.Height,
			Children:         positionedNodes(nn.Children, byID),
		})
	}
	return out
}

// collectEdges walks the response depth-first because engines may attach
// edges to the node that contains them instead of the root.
func collectEdges(n *NativeNode, byID map[string]graph.Edge, into *[]graph.PositionedEdge) {
	for _, ne := range n.Edges {
		*into = append(*into, positionedEdge(ne, n.ID, byID[ne.ID]))
	}
	for i := range n.Children {
		collectEdges(&n.Children[i], byID, into)
	}
}

func positionedEdge(ne NativeEdge, owner string, src graph.Edge) graph.PositionedEdge {
	pe := graph.PositionedEdge{
		ID:          ne.ID,
		Kind:        src.Kind,
		Container:   ne.Container,
		IsAnimated:  src.IsAnimated,
		Color:       src.Color,
		StrokeWidth: src.StrokeWidth,
	}
	if len(ne.Sources) > 0 {
		pe.SourceNodeID = ne.Sources[0]
	}
	if len(ne.Targets) > 0 {
		pe.TargetNodeID = ne.Targets[0]
	}
	if pe.Container == "" {
		pe.Container = owner
	}
	if len(ne.Sections) > 0 {
		s := ne.Sections[0]
		pe.StartPoint = s.StartPoint
		pe.EndPoint = s.EndPoint
		if len(s.BendPoints) > 0 {
			pe.BendPoints = append([]graph.Point(nil), s.BendPoints...)
		}
	}
	if len(ne.Labels) > 0 {
		lb := ne.Labels[0]
		pe.Label = &graph.EdgeLabel{Text: lb.Text, X: lb.X, Y: lb.Y, Width: lb.Width, Height: lb.Height}
	}
	return pe
}

package graphviz

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	gv "github.com/goccy/go-graphviz"
	"github.com/goccy/go-graphviz/cgraph"

	"github.com/matzehuels/lineagraph/pkg/graph"
	"github.com/matzehuels/lineagraph/pkg/layout"
)

// Graphviz runs in a shared WebAssembly instance; calls are serialized.
var runMu sync.Mutex

// Engine is a [layout.Engine] backed by Graphviz dot.
type Engine struct {
	logger *log.Logger
}

// Option configures an [Engine].
type Option func(*Engine)

// WithLogger sets the logger used for debug output.
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// New creates a Graphviz engine.
func New(opts ...Option) *Engine {
	e := &Engine{}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = log.Default()
	}
	return e
}

// Layout implements [layout.Engine]. Positions in the response are y-down
// and relative to the parent node; edge points are relative to the lowest
// container holding both endpoints.
func (e *Engine) Layout(ctx context.Context, req *layout.Request) (*layout.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dot := ToDOT(req)

	runMu.Lock()
	defer runMu.Unlock()

	g, err := render(ctx, dot)
	if err != nil {
		return nil, err
	}
	defer g.Close()

	resp, err := readResponse(g, req)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("graphviz layout", "nodes", len(req.Children), "edges", len(resp.Edges), "width", resp.Width, "height", resp.Height)
	return resp, nil
}

// render lays out dot and returns the annotated graph, parsed back.
func render(ctx context.Context, dot string) (*cgraph.Graph, error) {
	viz, err := gv.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer viz.Close()

	g, err := gv.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := viz.Render(ctx, g, gv.XDOT, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}

	out, err := gv.ParseBytes(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}
	return out, nil
}

// =============================================================================
// Reading Positions
// =============================================================================

type reader struct {
	top, left  float64
	nodes      map[string]*cgraph.Node
	abs        map[string]graph.Extent
	parent     map[string]string
	containers map[string]bool
}

func readResponse(g *cgraph.Graph, req *layout.Request) (*layout.Response, error) {
	bb, err := parseBox(g.GetStr("bb"))
	if err != nil {
		return nil, err
	}
	r := &reader{
		top:        bb.Max.Y,
		left:       bb.Min.X,
		nodes:      make(map[string]*cgraph.Node),
		abs:        make(map[string]graph.Extent),
		parent:     make(map[string]string),
		containers: make(map[string]bool),
	}
	if err := r.indexNodes(g); err != nil {
		return nil, err
	}

	children, err := r.readNodes(g, req.Children, graph.RootContainer, graph.Point{})
	if err != nil {
		return nil, err
	}
	edges, err := r.readEdges(g, req.Edges)
	if err != nil {
		return nil, err
	}
	return &layout.Response{
		ID:       req.ID,
		Width:    bb.Width(),
		Height:   bb.Height(),
		Children: children,
		Edges:    edges,
	}, nil
}

// flip converts a Graphviz point to y-down canvas space.
func (r *reader) flip(p graph.Point) graph.Point {
	return graph.Point{X: p.X - r.left, Y: r.top - p.Y}
}

func (r *reader) indexNodes(g *cgraph.Graph) error {
	n, err := g.FirstNode()
	for n != nil && err == nil {
		name, nerr := n.Name()
		if nerr != nil {
			return fmt.Errorf("read node name: %w", nerr)
		}
		r.nodes[name] = n
		n, err = g.NextNode(n)
	}
	if err != nil {
		return fmt.Errorf("read nodes: %w", err)
	}
	return nil
}

func (r *reader) readNodes(sub *cgraph.Graph, nodes []layout.NativeNode, parentID string, origin graph.Point) ([]layout.NativeNode, error) {
	if len(nodes) == 0 {
		return nil, nil
	}
	out := make([]layout.NativeNode, 0, len(nodes))
	for _, n := range nodes {
		var (
			ext      graph.Extent
			children []layout.NativeNode
			err      error
		)
		if len(n.Children) == 0 {
			ext, err = r.leafExtent(n.ID)
		} else {
			r.containers[n.ID] = true
			var cluster *cgraph.Graph
			cluster, ext, err = r.clusterExtent(sub, n.ID)
			if err == nil {
				r.abs[n.ID] = ext
				children, err = r.readNodes(cluster, n.Children, n.ID, ext.Min)
			}
		}
		if err != nil {
			return nil, err
		}
		r.abs[n.ID] = ext
		r.parent[n.ID] = parentID
		out = append(out, layout.NativeNode{
			ID:       n.ID,
			X:        ext.Min.X - origin.X,
			Y:        ext.Min.Y - origin.Y,
			Width:    ext.Width(),
			Height:   ext.Height(),
			Children: children,
		})
	}
	return out, nil
}

func (r *reader) leafExtent(id string) (graph.Extent, error) {
	n, ok := r.nodes[id]
	if !ok {
		return graph.Extent{}, fmt.Errorf("node %q missing from layout", id)
	}
	pos, err := parsePoint(n.GetStr("pos"))
	if err != nil {
		return graph.Extent{}, fmt.Errorf("node %q: %w", id, err)
	}
	w, err := parseInches(n.GetStr("width"))
	if err != nil {
		return graph.Extent{}, fmt.Errorf("node %q: %w", id, err)
	}
	h, err := parseInches(n.GetStr("height"))
	if err != nil {
		return graph.Extent{}, fmt.Errorf("node %q: %w", id, err)
	}
	c := r.flip(pos)
	return graph.RectExtent(c.X-w/2, c.Y-h/2, w, h), nil
}

func (r *reader) clusterExtent(parent *cgraph.Graph, id string) (*cgraph.Graph, graph.Extent, error) {
	cluster, err := parent.SubGraphByName(clusterName(id))
	if err != nil {
		return nil, graph.Extent{}, fmt.Errorf("container %q: %w", id, err)
	}
	if cluster == nil {
		return nil, graph.Extent{}, fmt.Errorf("container %q missing from layout", id)
	}
	box, err := parseBox(cluster.GetStr("bb"))
	if err != nil {
		return nil, graph.Extent{}, fmt.Errorf("container %q: %w", id, err)
	}
	tl := r.flip(graph.Point{X: box.Min.X, Y: box.Max.Y})
	return cluster, graph.RectExtent(tl.X, tl.Y, box.Width(), box.Height()), nil
}

func (r *reader) readEdges(g *cgraph.Graph, edges []layout.NativeEdge) ([]layout.NativeEdge, error) {
	byID := make(map[string]*cgraph.Edge)
	for _, n := range r.nodes {
		e, err := g.FirstOut(n)
		for e != nil && err == nil {
			if id := e.GetStr("id"); id != "" {
				byID[id] = e
			}
			e, err = g.NextOut(e)
		}
		if err != nil {
			return nil, fmt.Errorf("read edges: %w", err)
		}
	}

	out := make([]layout.NativeEdge, 0, len(edges))
	for _, ne := range edges {
		ce, ok := byID[ne.ID]
		if !ok || len(ne.Sources) == 0 || len(ne.Targets) == 0 {
			continue
		}
		sp, err := parseSpline(ce.GetStr("pos"))
		if err != nil {
			return nil, fmt.Errorf("edge %q: %w", ne.ID, err)
		}

		container := r.container(ne.Sources[0], ne.Targets[0])
		origin := r.origin(container)
		rel := func(p graph.Point) graph.Point { return r.flip(p).Sub(origin) }

		section := layout.Section{StartPoint: rel(sp.start), EndPoint: rel(sp.end)}
		for _, b := range sp.bends() {
			section.BendPoints = append(section.BendPoints, rel(b))
		}
		pe := layout.NativeEdge{
			ID:        ne.ID,
			Sources:   ne.Sources,
			Targets:   ne.Targets,
			Container: container,
			Sections:  []layout.Section{section},
		}
		if len(ne.Labels) > 0 {
			if lp, err := parsePoint(ce.GetStr("lp")); err == nil {
				lb := ne.Labels[0]
				c := rel(lp)
				lb.X, lb.Y = c.X-lb.Width/2, c.Y-lb.Height/2
				pe.Labels = []layout.NativeLabel{lb}
			}
		}
		out = append(out, pe)
	}
	return out, nil
}

// container returns the lowest container that holds both endpoints, or is
// one of them.
func (r *reader) container(src, dst string) string {
	seen := make(map[string]bool)
	for _, id := range r.ancestry(src) {
		seen[id] = true
	}
	for _, id := range r.ancestry(dst) {
		if !seen[id] {
			continue
		}
		if id == graph.RootContainer || r.containers[id] {
			return id
		}
		return r.parentOf(id)
	}
	return graph.RootContainer
}

func (r *reader) ancestry(id string) []string {
	var out []string
	for id != graph.RootContainer {
		out = append(out, id)
		id = r.parentOf(id)
	}
	return append(out, graph.RootContainer)
}

func (r *reader) parentOf(id string) string {
	if p, ok := r.parent[id]; ok {
		return p
	}
	return graph.RootContainer
}

func (r *reader) origin(container string) graph.Point {
	if ext, ok := r.abs[container]; ok {
		return ext.Min
	}
	return graph.Point{}
}

package layout

import (
	"context"

	"github.com/matzehuels/lineagraph/pkg/errors"
	"github.com/matzehuels/lineagraph/pkg/graph"
)

// Engine computes positions for a native request. Implementations run out of
// process or in a C library and are treated as pure functions of the request.
type Engine interface {
	Layout(ctx context.Context, req *Request) (*Response, error)
}

// EngineFunc adapts a function to the [Engine] interface.
type EngineFunc func(ctx context.Context, req *Request) (*Response, error)

// Layout calls f(ctx, req).
func (f EngineFunc) Layout(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}

// Run lays out g synchronously. An empty graph yields [graph.EmptyLayout]
// without calling the engine. Engine failures are wrapped as LAYOUT_FAILED.
func Run(ctx context.Context, eng Engine, g *graph.Graph, resolve OptionsResolver) (*graph.Layout, error) {
	if g == nil || len(g.Nodes) == 0 {
		return graph.EmptyLayout(), nil
	}
	resp, err := eng.Layout(ctx, BuildRequest(g.Nodes, g.Edges, g.Direction, resolve))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeLayoutFailed, err, "layout")
	}
	return ToLayout(resp, g.Nodes, g.Edges), nil
}

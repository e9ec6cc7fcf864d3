package pipeline

import (
	"context"
	"encoding/json"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/lineagraph/pkg/cache"
	"github.com/matzehuels/lineagraph/pkg/errors"
	"github.com/matzehuels/lineagraph/pkg/graph"
	"github.com/matzehuels/lineagraph/pkg/layout"
	"github.com/matzehuels/lineagraph/pkg/render"
	"github.com/matzehuels/lineagraph/pkg/scene"
	"github.com/matzehuels/lineagraph/pkg/viewport"
)

// Runner executes pipeline stages with caching. Both the CLI and the
// server use it so that caching behaves the same everywhere.
//
// The Runner holds no per-run state; one runner may serve many goroutines.
// Artifact keys do not cover the node renderer registry, so callers that
// draw with different registries should give each a [cache.ScopedKeyer].
type Runner struct {
	Cache      cache.Cache
	Keyer      cache.Keyer
	Logger     *log.Logger
	Engine     layout.Engine
	EngineName string
}

// NewRunner creates a runner around eng. A nil cache disables caching and
// a nil keyer uses [cache.DefaultKeyer].
func NewRunner(eng layout.Engine, engineName string, c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:      c,
		Keyer:      keyer,
		Logger:     logger,
		Engine:     eng,
		EngineName: engineName,
	}
}

// Execute lays out g, positions the camera and renders the document.
func (r *Runner) Execute(ctx context.Context, g *graph.Graph, opts Options) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	opts.setDefaults()
	if g == nil {
		g = &graph.Graph{}
	}

	result := &Result{}
	result.Stats.NodeCount = g.NodeCount()
	result.Stats.EdgeCount = len(g.Edges)

	start := time.Now()
	l, hit, err := r.LayoutWithCacheInfo(ctx, g, opts)
	if err != nil {
		return nil, err
	}
	result.Layout = l
	result.LayoutHash = layoutHash(l)
	result.Stats.LayoutTime = time.Since(start)
	result.CacheInfo.LayoutHit = hit
	r.Logger.Info("computed layout",
		"nodes", result.Stats.NodeCount,
		"edges", result.Stats.EdgeCount,
		"cached", hit,
		"duration", result.Stats.LayoutTime)

	start = time.Now()
	result.Scene = scene.Build(l)
	result.Transform, err = Camera(result.Scene, opts)
	if err != nil {
		return nil, err
	}
	svg, hit, err := r.renderScene(ctx, result.Scene, result.LayoutHash, result.Transform, opts)
	if err != nil {
		return nil, err
	}
	result.SVG = svg
	result.Stats.RenderTime = time.Since(start)
	result.CacheInfo.RenderHit = hit
	r.Logger.Info("rendered svg",
		"bytes", len(svg),
		"transform", result.Transform.String(),
		"cached", hit,
		"duration", result.Stats.RenderTime)
	return result, nil
}

// LayoutWithCacheInfo lays out g and reports whether the engine response
// came from the cache.
func (r *Runner) LayoutWithCacheInfo(ctx context.Context, g *graph.Graph, opts Options) (*graph.Layout, bool, error) {
	if err := opts.Validate(); err != nil {
		return nil, false, err
	}
	opts.setDefaults()
	if g == nil || len(g.Nodes) == 0 {
		return graph.EmptyLayout(), false, nil
	}
	req := layout.BuildRequest(g.Nodes, g.Edges, opts.direction(g), opts.Registry.Resolver())
	resp, hit, err := r.layout(ctx, req, opts.Refresh)
	if err != nil {
		return nil, false, errors.Wrap(errors.ErrCodeLayoutFailed, err, "layout")
	}
	return layout.ToLayout(resp, g.Nodes, g.Edges), hit, nil
}

// Layout implements [layout.Engine] with caching, so a runner can back a
// [layout.Bridge].
func (r *Runner) Layout(ctx context.Context, req *layout.Request) (*layout.Response, error) {
	resp, _, err := r.layout(ctx, req, false)
	return resp, err
}

func (r *Runner) layout(ctx context.Context, req *layout.Request, refresh bool) (*layout.Response, bool, error) {
	if r.Engine == nil {
		return nil, false, errors.New(errors.ErrCodeInvalidConfig, "no layout engine configured")
	}
	reqHash, err := cache.HashJSON(req)
	if err != nil {
		return nil, false, errors.Wrap(errors.ErrCodeInvalidInput, err, "encode layout request")
	}
	key := r.Keyer.LayoutKey(reqHash, cache.LayoutKeyOpts{
		Engine:    r.EngineName,
		Direction: req.LayoutOptions["elk.direction"],
	})

	if !refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			var resp layout.Response
			if err := json.Unmarshal(data, &resp); err == nil {
				r.Logger.Debug("layout cache hit", "key", key)
				return &resp, true, nil
			}
		}
	}

	resp, err := r.Engine.Layout(ctx, req)
	if err != nil {
		return nil, false, err
	}
	if data, err := json.Marshal(resp); err == nil {
		if err := r.Cache.Set(ctx, key, data, cache.TTLLayout); err != nil {
			r.Logger.Warn("cache layout", "error", err)
		}
	}
	return resp, false, nil
}

// RenderWithCacheInfo draws l with the camera described by opts and
// reports whether the document came from the cache.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, l *graph.Layout, opts Options) ([]byte, bool, error) {
	if err := opts.Validate(); err != nil {
		return nil, false, err
	}
	opts.setDefaults()
	sc := scene.Build(l)
	t, err := Camera(sc, opts)
	if err != nil {
		return nil, false, err
	}
	return r.renderScene(ctx, sc, layoutHash(l), t, opts)
}

// Render calls RenderWithCacheInfo and discards the cache hit info.
func (r *Runner) Render(ctx context.Context, l *graph.Layout, opts Options) ([]byte, error) {
	svg, _, err := r.RenderWithCacheInfo(ctx, l, opts)
	return svg, err
}

func (r *Runner) renderScene(ctx context.Context, sc *scene.Scene, lh string, t viewport.Transform, opts Options) ([]byte, bool, error) {
	key := ""
	if lh != "" {
		key = r.Keyer.ArtifactKey(lh, opts.ArtifactKeyOpts(t))
	}
	if key != "" && !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			return data, true, nil
		}
	}

	svg := render.RenderSVG(sc, opts.renderOptions(t)...)
	if len(svg) == 0 {
		return nil, false, errors.New(errors.ErrCodeRenderFailed, "empty document")
	}
	if key != "" {
		if err := r.Cache.Set(ctx, key, svg, cache.TTLArtifact); err != nil {
			r.Logger.Warn("cache artifact", "error", err)
		}
	}
	return svg, false, nil
}

// Close releases the cache.
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// layoutHash identifies a layout for artifact keys. Layouts that cannot be
// encoded yield "", which skips the artifact cache.
func layoutHash(l *graph.Layout) string {
	data, err := graph.MarshalLayout(l)
	if err != nil {
		return ""
	}
	return cache.Hash(data)
}

var _ layout.Engine = (*Runner)(nil)

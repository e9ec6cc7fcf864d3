package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/lineagraph/pkg/cache"
	"github.com/matzehuels/lineagraph/pkg/config"
	lgerrors "github.com/matzehuels/lineagraph/pkg/errors"
	"github.com/matzehuels/lineagraph/pkg/graph"
	"github.com/matzehuels/lineagraph/pkg/layout"
	"github.com/matzehuels/lineagraph/pkg/minimap"
	"github.com/matzehuels/lineagraph/pkg/viewport"
)

// rowEngine places the request's top-level children in a row, 200 units
// apart, and routes every edge straight across.
type rowEngine struct {
	calls atomic.Int32
	err   error
}

func (e *rowEngine) Layout(_ context.Context, req *layout.Request) (*layout.Response, error) {
	e.calls.Add(1)
	if e.err != nil {
		return nil, e.err
	}
	resp := &layout.Response{ID: req.ID, Width: float64(len(req.Children)) * 200, Height: 100}
	for i, c := range req.Children {
		c.X, c.Y = float64(i)*200, 20
		resp.Children = append(resp.Children, c)
	}
	for _, ne := range req.Edges {
		ne.Container = graph.RootContainer
		ne.Sections = []layout.Section{{StartPoint: graph.Point{X: 150, Y: 44}, EndPoint: graph.Point{X: 200, Y: 44}}}
		resp.Edges = append(resp.Edges, ne)
	}
	return resp, nil
}

func testGraph() *graph.Graph {
	return &graph.Graph{
		Nodes: []graph.Node{
			{ID: "orders", Data: map[string]any{"name": "Orders"}},
			{ID: "report"},
		},
		Edges: []graph.Edge{{ID: "e1", SourceNodeID: "orders", TargetNodeID: "report", IsAnimated: true}},
	}
}

func quietLogger() *log.Logger {
	l := log.New(&strings.Builder{})
	l.SetLevel(log.FatalLevel)
	return l
}

func TestExecute(t *testing.T) {
	eng := &rowEngine{}
	r := NewRunner(eng, "row", cache.NewMemoryCache(), nil, quietLogger())
	ctx := context.Background()

	res, err := r.Execute(ctx, testGraph(), Options{MiniMap: minimap.None})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Stats.NodeCount)
	assert.Equal(t, 1, res.Stats.EdgeCount)
	assert.False(t, res.CacheInfo.LayoutHit)
	assert.False(t, res.CacheInfo.RenderHit)
	require.Len(t, res.Layout.Nodes, 2)
	assert.Equal(t, 200.0, res.Layout.Nodes[1].BottomLeftCorner.X)
	assert.Equal(t, viewport.Identity, res.Transform, "content-sized documents start at identity")

	svg := string(res.SVG)
	assert.Contains(t, svg, `id="orders-report"`)
	assert.Contains(t, svg, ">Orders</text>")
	assert.NotContains(t, svg, "miniMapMask")

	res, err = r.Execute(ctx, testGraph(), Options{MiniMap: minimap.None})
	require.NoError(t, err)
	assert.True(t, res.CacheInfo.LayoutHit)
	assert.True(t, res.CacheInfo.RenderHit)
	assert.EqualValues(t, 1, eng.calls.Load())
}

func TestExecuteRefresh(t *testing.T) {
	eng := &rowEngine{}
	r := NewRunner(eng, "row", cache.NewMemoryCache(), nil, quietLogger())
	ctx := context.Background()

	_, err := r.Execute(ctx, testGraph(), Options{})
	require.NoError(t, err)
	res, err := r.Execute(ctx, testGraph(), Options{Refresh: true})
	require.NoError(t, err)
	assert.False(t, res.CacheInfo.LayoutHit)
	assert.EqualValues(t, 2, eng.calls.Load())
}

func TestExecuteDirectionChangesKey(t *testing.T) {
	eng := &rowEngine{}
	r := NewRunner(eng, "row", cache.NewMemoryCache(), nil, quietLogger())
	ctx := context.Background()

	_, err := r.Execute(ctx, testGraph(), Options{})
	require.NoError(t, err)
	res, err := r.Execute(ctx, testGraph(), Options{Direction: graph.DirectionDown})
	require.NoError(t, err)
	assert.False(t, res.CacheInfo.LayoutHit)
	assert.EqualValues(t, 2, eng.calls.Load())
}

func TestExecuteEngineError(t *testing.T) {
	r := NewRunner(&rowEngine{err: errors.New("engine down")}, "row", nil, nil, quietLogger())
	_, err := r.Execute(context.Background(), testGraph(), Options{})
	require.Error(t, err)
	assert.True(t, lgerrors.Is(err, lgerrors.ErrCodeLayoutFailed))
}

func TestExecuteEmptyGraph(t *testing.T) {
	eng := &rowEngine{}
	r := NewRunner(eng, "row", nil, nil, quietLogger())
	res, err := r.Execute(context.Background(), &graph.Graph{}, Options{EmptyMessage: "No data"})
	require.NoError(t, err)
	assert.Zero(t, eng.calls.Load(), "engine called for an empty graph")
	assert.Contains(t, string(res.SVG), ">No data</text>")
}

func TestExecuteInvalidOptions(t *testing.T) {
	r := NewRunner(&rowEngine{}, "row", nil, nil, quietLogger())
	tests := []struct {
		name string
		opts Options
	}{
		{"direction", Options{Direction: "sideways"}},
		{"size", Options{Width: -1}},
		{"minimap", Options{MiniMap: "middle"}},
		{"transform", Options{Transform: &viewport.Transform{K: 0}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Execute(context.Background(), testGraph(), tt.opts)
			assert.Error(t, err)
		})
	}
}

func TestRunnerAsBridgeEngine(t *testing.T) {
	eng := &rowEngine{}
	r := NewRunner(eng, "row", cache.NewMemoryCache(), nil, quietLogger())
	g := testGraph()
	ctx := context.Background()

	// Warm the cache through the pipeline, then let a bridge reuse it.
	_, _, err := r.LayoutWithCacheInfo(ctx, g, Options{})
	require.NoError(t, err)

	b := layout.New(r, layout.WithLogger(quietLogger()))
	defer b.Close()
	require.NoError(t, b.Request(g.Nodes, g.Edges, "", nil))
	st, err := b.Wait(ctx)
	require.NoError(t, err)
	require.NoError(t, st.Err)
	assert.Len(t, st.Layout.Nodes, 2)
	assert.EqualValues(t, 1, eng.calls.Load(), "bridge should hit the warmed cache")
}

func TestCamera(t *testing.T) {
	r := NewRunner(&rowEngine{}, "row", nil, nil, quietLogger())
	ctx := context.Background()
	l, _, err := r.LayoutWithCacheInfo(ctx, testGraph(), Options{})
	require.NoError(t, err)

	res, err := r.Execute(ctx, testGraph(), Options{Width: 800, Height: 600})
	require.NoError(t, err)
	assert.NotEqual(t, viewport.Identity, res.Transform, "sized documents auto-fit")

	explicit := viewport.Transform{X: 5, Y: 6, K: 2}
	res, err = r.Execute(ctx, testGraph(), Options{Width: 800, Height: 600, Transform: &explicit})
	require.NoError(t, err)
	assert.Equal(t, explicit, res.Transform)
	assert.Contains(t, string(res.SVG), "matrix(2,0,0,2,5,6)")

	res, err = r.Execute(ctx, testGraph(), Options{
		Width: 800, Height: 600,
		Camera: []viewport.Command{{Op: viewport.OpResetZoom}},
	})
	require.NoError(t, err)
	assert.Equal(t, viewport.Identity, res.Transform)

	_, err = r.Execute(ctx, testGraph(), Options{
		Width: 800, Height: 600,
		Camera: []viewport.Command{{Op: "spin"}},
	})
	assert.True(t, lgerrors.Is(err, lgerrors.ErrCodeInvalidInput))

	svg, hit, err := r.RenderWithCacheInfo(ctx, l, Options{Width: 400, Height: 300})
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Contains(t, string(svg), `width="400.00" height="300.00"`)
}

func TestArtifactKeyOpts(t *testing.T) {
	k := cache.NewDefaultKeyer()
	base := Options{Width: 800, Height: 600}
	a := k.ArtifactKey("h", base.ArtifactKeyOpts(viewport.Identity))
	for name, o := range map[string]Options{
		"reduced motion": {Width: 800, Height: 600, ReducedMotion: true},
		"minimap scale":  {Width: 800, Height: 600, MiniMapScale: 0.2},
		"colors":         {Width: 800, Height: 600, Background: "#000000"},
		"title":          {Width: 800, Height: 600, Title: "x"},
	} {
		if k.ArtifactKey("h", o.ArtifactKeyOpts(viewport.Identity)) == a {
			t.Errorf("%s does not change the artifact key", name)
		}
	}
	if k.ArtifactKey("h", base.ArtifactKeyOpts(viewport.Transform{K: 2})) == a {
		t.Error("transform does not change the artifact key")
	}
}

func TestNewEngine(t *testing.T) {
	eng, err := NewEngine(config.Layout{Engine: config.EngineGraphviz}, nil)
	require.NoError(t, err)
	assert.NotNil(t, eng)

	eng, err = NewEngine(config.Layout{Engine: config.EngineRemote, RemoteURL: "http://elk.local/layout"}, nil)
	require.NoError(t, err)
	assert.NotNil(t, eng)

	_, err = NewEngine(config.Layout{Engine: config.EngineRemote}, nil)
	assert.True(t, lgerrors.Is(err, lgerrors.ErrCodeInvalidConfig))

	_, err = NewEngine(config.Layout{Engine: "elk"}, nil)
	assert.True(t, lgerrors.Is(err, lgerrors.ErrCodeInvalidConfig))
}

func TestNewCache(t *testing.T) {
	ctx := context.Background()

	c, err := NewCache(ctx, config.Cache{Backend: config.CacheNone}, "")
	require.NoError(t, err)
	assert.IsType(t, cache.NullCache{}, c)

	c, err = NewCache(ctx, config.Cache{Backend: config.CacheFile}, t.TempDir())
	require.NoError(t, err)
	require.NoError(t, c.Set(ctx, "layout:x", []byte("1"), 0))
	_, hit, _ := c.Get(ctx, "layout:x")
	assert.True(t, hit)

	_, err = NewCache(ctx, config.Cache{Backend: "s3"}, "")
	assert.True(t, lgerrors.Is(err, lgerrors.ErrCodeInvalidConfig))
}

func TestNewRunnerFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Cache.Prefix = "test:"
	r, err := NewRunnerFromConfig(cfg, nil, quietLogger())
	require.NoError(t, err)
	assert.Equal(t, config.EngineGraphviz, r.EngineName)
	assert.Equal(t, "test:session:1", r.Keyer.SessionKey("1"))
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Layout.Direction = "down"
	cfg.Render.MiniMap = "top-right"
	cfg.Render.HideDotGrid = true

	opts := OptionsFromConfig(cfg)
	require.NoError(t, opts.Validate())
	assert.Equal(t, minimap.TopRight, opts.MiniMap)
	assert.True(t, opts.HideDotGrid)
	assert.Equal(t, "No data", opts.EmptyMessage)

	assert.Equal(t, graph.DirectionDown, opts.direction(&graph.Graph{}))
	assert.Equal(t, graph.DirectionUp, opts.direction(&graph.Graph{Direction: graph.DirectionUp}))
	opts.Direction = graph.DirectionLeft
	assert.Equal(t, graph.DirectionLeft, opts.direction(&graph.Graph{Direction: graph.DirectionUp}))
}

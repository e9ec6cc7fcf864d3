// Package pipeline runs the layout → scene → SVG pipeline shared by the
// CLI and the HTTP server.
//
// # Stages
//
//  1. Layout: build an engine request from the graph, run the engine, and
//     convert the response into a [graph.Layout]
//  2. Camera: build a [scene.Scene] and apply camera commands to a
//     [viewport.Controller] sized like the output document
//  3. Render: draw the scene with [render.RenderSVG]
//
// Engine responses and rendered documents are cached by a [Runner]. The
// runner is itself a [layout.Engine], so a [layout.Bridge] driving a live
// session shares the same cache:
//
//	runner := pipeline.NewRunner(engine, "graphviz", c, nil, logger)
//	bridge := layout.New(runner)
//
//	result, err := runner.Execute(ctx, g, pipeline.Options{Width: 1200, Height: 800})
//	os.WriteFile("lineage.svg", result.SVG, 0o644)
package pipeline

import (
	"strconv"
	"time"

	"github.com/matzehuels/lineagraph/pkg/cache"
	"github.com/matzehuels/lineagraph/pkg/errors"
	"github.com/matzehuels/lineagraph/pkg/graph"
	"github.com/matzehuels/lineagraph/pkg/minimap"
	"github.com/matzehuels/lineagraph/pkg/render"
	"github.com/matzehuels/lineagraph/pkg/scene"
	"github.com/matzehuels/lineagraph/pkg/viewport"
)

// FormatSVG is the only artifact format.
const FormatSVG = "svg"

// =============================================================================
// Options
// =============================================================================

// Options configure a pipeline run. The zero value renders at the content
// size with the default minimap and no camera commands.
type Options struct {
	// Direction overrides the graph's own direction when set.
	Direction graph.Direction

	// DefaultDirection applies to graphs that set no direction of their own.
	DefaultDirection graph.Direction

	// Refresh bypasses cache reads. Results are still written.
	Refresh bool

	// Width and Height size the document and the camera container. Zero
	// uses the content size.
	Width, Height float64

	// Camera commands are applied in order after the scene is built. When
	// empty and a size is set, the camera fits the content.
	Camera []viewport.Command

	// Transform, when set, is used as is and Camera is ignored.
	Transform *viewport.Transform

	// Viewport holds controller options such as the scale extent.
	Viewport []viewport.Option

	MiniMap       minimap.Placement
	MiniMapScale  float64
	ReducedMotion bool
	HideDotGrid   bool
	Background    string
	DotGrid       string
	EmptyMessage  string
	Title         string

	// Rendering draws the progress indicator, for documents served while a
	// newer layout is still running.
	Rendering bool

	// Registry sizes nodes before layout and draws them afterwards.
	Registry *render.Registry
}

func (o *Options) setDefaults() {
	if o.Registry == nil {
		o.Registry = render.DefaultRegistry()
	}
	if o.MiniMap == "" {
		o.MiniMap = minimap.DefaultPlacement
	}
}

// Validate checks values that would otherwise fail deep inside a stage.
func (o Options) Validate() error {
	if err := errors.ValidateDirection(string(o.Direction)); err != nil {
		return err
	}
	if err := errors.ValidateDirection(string(o.DefaultDirection)); err != nil {
		return err
	}
	if o.Width < 0 || o.Height < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "negative size %gx%g", o.Width, o.Height)
	}
	if o.MiniMap != "" {
		if _, err := minimap.ParsePlacement(string(o.MiniMap)); err != nil {
			return err
		}
	}
	if o.Transform != nil && !o.Transform.Valid() {
		return errors.New(errors.ErrCodeInvalidInput, "invalid transform %s", o.Transform.String())
	}
	return nil
}

func (o Options) direction(g *graph.Graph) graph.Direction {
	if o.Direction != "" {
		return o.Direction
	}
	if g.Direction != "" {
		return g.Direction
	}
	return o.DefaultDirection.OrDefault()
}

// renderOptions maps o onto [render.RenderSVG] options.
func (o Options) renderOptions(t viewport.Transform) []render.Option {
	opts := []render.Option{
		render.WithTransform(t),
		render.WithRegistry(o.Registry),
		render.WithMiniMap(o.MiniMap, o.MiniMapScale),
		render.WithColors(o.Background, o.DotGrid),
		render.WithEmptyMessage(o.EmptyMessage),
		render.WithTitle(o.Title),
		render.WithRendering(o.Rendering),
	}
	if o.Width > 0 && o.Height > 0 {
		opts = append(opts, render.WithSize(o.Width, o.Height))
	}
	if o.ReducedMotion {
		opts = append(opts, render.WithReducedMotion())
	}
	if o.HideDotGrid {
		opts = append(opts, render.WithHideDotGrid())
	}
	return opts
}

// ArtifactKeyOpts returns the cache key options of a document rendered
// with transform t.
func (o Options) ArtifactKeyOpts(t viewport.Transform) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Format:        FormatSVG,
		Width:         o.Width,
		Height:        o.Height,
		Transform:     t.String(),
		MiniMap:       string(o.MiniMap) + ":" + strconv.FormatFloat(o.MiniMapScale, 'g', -1, 64),
		ReducedMotion: o.ReducedMotion,
		HideDotGrid:   o.HideDotGrid,
		Colors:        o.Background + "," + o.DotGrid,
		EmptyMessage:  o.EmptyMessage,
		Title:         o.Title,
		Rendering:     o.Rendering,
	}
}

// =============================================================================
// Result
// =============================================================================

// Result holds the outputs of [Runner.Execute].
type Result struct {
	Layout     *graph.Layout
	LayoutHash string
	Scene      *scene.Scene
	Transform  viewport.Transform
	SVG        []byte
	Stats      Stats
	CacheInfo  CacheInfo
}

// Stats records sizes and stage timings.
type Stats struct {
	NodeCount  int
	EdgeCount  int
	LayoutTime time.Duration
	RenderTime time.Duration
}

// CacheInfo records which stages were served from the cache.
type CacheInfo struct {
	LayoutHit bool
	RenderHit bool
}

package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/lineagraph/pkg/errors"
	"github.com/matzehuels/lineagraph/pkg/graph"
	"github.com/matzehuels/lineagraph/pkg/minimap"
	"github.com/matzehuels/lineagraph/pkg/pipeline"
	"github.com/matzehuels/lineagraph/pkg/viewport"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output    string
	direction string
	noCache   bool
	refresh   bool

	width, height float64

	// Camera flags, applied in the order reset, fit, center, zoom, then
	// the commands in camera.
	reset      bool
	fit        bool
	padding    float64
	centerNode string
	zoom       float64
	camera     string

	minimap       string
	minimapScale  float64
	reducedMotion bool
	hideDotGrid   bool
	title         string
}

// renderCommand creates the render command for writing SVG documents.
func (c *CLI) renderCommand() *cobra.Command {
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render [graph.json|graph.yaml|layout.json|mongo:<name>]",
		Short: "Render a lineage graph or a computed layout to SVG",
		Long: `Render a lineage graph or a computed layout to SVG.

Graphs are laid out first (see 'layout'); layout files produced by 'layout'
are drawn directly. The camera starts fitted to the content when --width and
--height are set and at the identity otherwise. Camera flags then move it:

  --reset               reset to the identity transform
  --fit                 fit the content (with --padding)
  --center-node <id>    center a node, at --zoom when given
  --zoom <factor>       scale around the container center
  --camera <json>       a JSON array of camera commands, e.g.
                        '[{"op":"scaleZoom","factor":2}]'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRender(cmd.Context(), args[0], cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default: <input>.svg)")
	cmd.Flags().StringVarP(&opts.direction, "direction", "d", "", "flow direction: right, left, down, up")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "ignore cached layouts and documents")
	cmd.Flags().Float64Var(&opts.width, "width", 0, "document width (default: content width)")
	cmd.Flags().Float64Var(&opts.height, "height", 0, "document height (default: content height)")
	cmd.Flags().BoolVar(&opts.reset, "reset", false, "reset the camera to the identity")
	cmd.Flags().BoolVar(&opts.fit, "fit", false, "fit the content into the document")
	cmd.Flags().Float64Var(&opts.padding, "padding", viewport.DefaultPadding, "padding for --fit, as a fraction of the document")
	cmd.Flags().StringVar(&opts.centerNode, "center-node", "", "center the camera on a node")
	cmd.Flags().Float64Var(&opts.zoom, "zoom", 0, "zoom factor, or the target scale with --center-node")
	cmd.Flags().StringVar(&opts.camera, "camera", "", "JSON array of camera commands")
	cmd.Flags().StringVar(&opts.minimap, "minimap", "", "minimap placement: none, top-left, top-right, bottom-left, bottom-right")
	cmd.Flags().Float64Var(&opts.minimapScale, "minimap-scale", 0, "minimap size as a fraction of the document")
	cmd.Flags().BoolVar(&opts.reducedMotion, "reduced-motion", false, "draw edges without flow animation")
	cmd.Flags().BoolVar(&opts.hideDotGrid, "hide-dot-grid", false, "draw a plain background")
	cmd.Flags().StringVar(&opts.title, "title", "", "document title")

	return cmd
}

// cameraCommands turns the camera flags into controller commands.
func (o renderOpts) cameraCommands() ([]viewport.Command, error) {
	var cmds []viewport.Command
	if o.reset {
		cmds = append(cmds, viewport.Command{Op: viewport.OpResetZoom})
	}
	if o.fit {
		cmds = append(cmds, viewport.Command{Op: viewport.OpFitContent, Padding: o.padding})
	}
	if o.centerNode != "" {
		cmd := viewport.Command{Op: viewport.OpCenterOnPositionedNode, NodeID: o.centerNode}
		if o.zoom > 0 {
			z := o.zoom
			cmd.Zoom = &z
		}
		cmds = append(cmds, cmd)
	} else if o.zoom > 0 {
		cmds = append(cmds, viewport.Command{Op: viewport.OpScaleZoom, Factor: o.zoom})
	}
	if o.camera != "" {
		var extra []viewport.Command
		if err := json.Unmarshal([]byte(o.camera), &extra); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse --camera")
		}
		cmds = append(cmds, extra...)
	}
	return cmds, nil
}

// pipelineOptions layers the flags that were set over the config.
func (o renderOpts) pipelineOptions(base pipeline.Options, cmd *cobra.Command) (pipeline.Options, error) {
	opts := base
	camera, err := o.cameraCommands()
	if err != nil {
		return opts, err
	}
	opts.Camera = camera
	opts.Direction = graph.Direction(o.direction)
	opts.Refresh = o.refresh
	opts.Title = o.title

	flags := cmd.Flags()
	if flags.Changed("width") || flags.Changed("height") {
		opts.Width, opts.Height = o.width, o.height
	}
	if flags.Changed("minimap") {
		p, err := minimap.ParsePlacement(o.minimap)
		if err != nil {
			return opts, err
		}
		opts.MiniMap = p
	}
	if flags.Changed("minimap-scale") {
		opts.MiniMapScale = o.minimapScale
	}
	if flags.Changed("reduced-motion") {
		opts.ReducedMotion = o.reducedMotion
	}
	if flags.Changed("hide-dot-grid") {
		opts.HideDotGrid = o.hideDotGrid
	}
	return opts, opts.Validate()
}

// runRender lays out (when needed), positions the camera and writes the SVG.
func (c *CLI) runRender(ctx context.Context, arg string, cmd *cobra.Command, ro renderOpts) error {
	cfg, err := c.config()
	if err != nil {
		return err
	}
	opts, err := ro.pipelineOptions(pipeline.OptionsFromConfig(cfg), cmd)
	if err != nil {
		return err
	}
	in, err := c.loadInput(ctx, cfg, arg)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, cfg, ro.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	var (
		svg          []byte
		nodes, edges int
		steps        []cacheStep
	)
	if in.Layout != nil {
		c.Logger.Debug("rendering precomputed layout", "nodes", in.Layout.NodeCount())
		out, hit, err := runner.RenderWithCacheInfo(ctx, in.Layout, opts)
		if err != nil {
			return fmt.Errorf("render: %w", err)
		}
		svg = out
		nodes, edges = in.Layout.NodeCount(), len(in.Layout.Edges)
		steps = []cacheStep{{"svg", hit}}
	} else {
		spinner := newSpinner(ctx, os.Stderr, "Rendering...")
		spinner.Start()
		result, err := runner.Execute(ctx, in.Graph, opts)
		if err != nil {
			spinner.StopWithError("Render failed")
			return fmt.Errorf("render: %w", err)
		}
		spinner.Stop()
		svg = result.SVG
		nodes, edges = result.Stats.NodeCount, result.Stats.EdgeCount
		steps = []cacheStep{{"layout", result.CacheInfo.LayoutHit}, {"svg", result.CacheInfo.RenderHit}}
	}

	if ctx.Err() != nil {
		return ctx.Err()
	}

	path := outputPath(arg, ro.output, ".svg")
	if in.Layout != nil && ro.output == "" {
		path = outputPath(trimLayoutSuffix(arg), "", ".svg")
	}
	if err := os.WriteFile(path, svg, 0o644); err != nil {
		return fmt.Errorf("write output %s: %w", path, err)
	}

	printSuccess("Rendered SVG")
	printFile(path)
	printStats(nodes, edges, steps...)
	return nil
}

// trimLayoutSuffix maps "x.layout.json" to "x.json" so the document lands
// next to the graph as "x.svg".
func trimLayoutSuffix(path string) string {
	if base, ok := strings.CutSuffix(path, ".layout.json"); ok && base != "" {
		return base + ".json"
	}
	return path
}

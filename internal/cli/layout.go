package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/lineagraph/pkg/graph"
	"github.com/matzehuels/lineagraph/pkg/pipeline"
)

// layoutCommand creates the layout command for computing positioned graphs.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		output    string
		noCache   bool
		refresh   bool
		direction string
	)

	cmd := &cobra.Command{
		Use:   "layout [graph.json|graph.yaml|mongo:<name>]",
		Short: "Compute the layout of a lineage graph",
		Long: `Compute the layout of a lineage graph.

The layout command runs the configured engine (graphviz or a remote ELK
service) and writes the positioned graph as <input>.layout.json. The result
can be rendered later with 'render' without running the engine again.

Results are cached, keyed by the graph, its direction and the node sizes.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runLayout(cmd.Context(), args[0], output, direction, noCache, refresh)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.layout.json)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "ignore cached layouts")
	cmd.Flags().StringVarP(&direction, "direction", "d", "", "flow direction: right, left, down, up")

	return cmd
}

// runLayout loads the graph, computes the layout, and writes output.
func (c *CLI) runLayout(ctx context.Context, arg, output, direction string, noCache, refresh bool) error {
	cfg, err := c.config()
	if err != nil {
		return err
	}
	in, err := c.loadInput(ctx, cfg, arg)
	if err != nil {
		return err
	}
	if in.Graph == nil {
		return fmt.Errorf("%s is already a layout", arg)
	}

	runner, err := c.newRunner(ctx, cfg, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts := pipeline.OptionsFromConfig(cfg)
	opts.Direction = graph.Direction(direction)
	opts.Refresh = refresh

	spinner := newSpinner(ctx, os.Stderr, fmt.Sprintf("Computing %s layout...", runner.EngineName))
	spinner.Start()
	prog := newProgress(c.Logger)

	l, cacheHit, err := runner.LayoutWithCacheInfo(ctx, in.Graph, opts)
	if err != nil {
		spinner.StopWithError("Layout failed")
		return fmt.Errorf("compute layout: %w", err)
	}
	spinner.Stop()
	prog.done(fmt.Sprintf("Laid out %d nodes", l.NodeCount()))

	if ctx.Err() != nil {
		return ctx.Err()
	}

	path := outputPath(arg, output, ".layout.json")
	if err := graph.WriteLayoutFile(l, path); err != nil {
		return fmt.Errorf("write output %s: %w", path, err)
	}

	printSuccess("Layout complete")
	printFile(path)
	printStats(in.Graph.NodeCount(), len(in.Graph.Edges), cacheStep{"layout", cacheHit})
	printNewline()
	printNextStep("Render", appName+" render "+path)

	return nil
}

// Package cli implements the lineagraph command-line interface.
package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/lineagraph/pkg/buildinfo"
	"github.com/matzehuels/lineagraph/pkg/config"
	"github.com/matzehuels/lineagraph/pkg/graph"
	"github.com/matzehuels/lineagraph/pkg/pipeline"
	"github.com/matzehuels/lineagraph/pkg/source"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "lineagraph"

	// mongoScheme prefixes graph arguments that name a document in the
	// configured MongoDB source instead of a file.
	mongoScheme = "mongo:"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
	LogError = log.ErrorLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	cfg        *config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// quiet limits logging to errors and returns a func restoring the previous
// level.
func (c *CLI) quiet() (restore func()) {
	level := c.Logger.GetLevel()
	c.SetLogLevel(LogError)
	return func() { c.SetLogLevel(level) }
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Lineagraph lays out and renders data-lineage diagrams",
		Long: `Lineagraph lays out node-and-edge lineage graphs, nested into container
groups, and renders them as SVG with a pan/zoom camera and a minimap overview.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: $XDG_CONFIG_HOME/lineagraph/config.toml)")

	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.viewCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())

	return root
}

// config loads the configuration once per process.
func (c *CLI) config() (config.Config, error) {
	if c.cfg != nil {
		return *c.cfg, nil
	}
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return config.Config{}, err
	}
	c.Logger.Debug("loaded config", "path", c.configPath, "engine", cfg.Layout.Engine, "cache", cfg.Cache.Backend)
	c.cfg = &cfg
	return cfg, nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context, cfg config.Config, noCache bool) (*pipeline.Runner, error) {
	if noCache {
		cfg.Cache.Backend = config.CacheNone
	}
	dir, err := cacheDir()
	if err != nil {
		dir = ""
	}
	cc, err := pipeline.NewCache(ctx, cfg.Cache, dir)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunnerFromConfig(cfg, cc, c.Logger)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/lineagraph/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// outputPath derives an output file next to input, replacing its extension.
func outputPath(input, output, suffix string) string {
	if output != "" {
		return output
	}
	if strings.HasPrefix(input, mongoScheme) {
		return strings.TrimPrefix(input, mongoScheme) + suffix
	}
	return strings.TrimSuffix(input, filepath.Ext(input)) + suffix
}

// =============================================================================
// Input
// =============================================================================

// input is a loaded command argument: a graph to lay out, or a layout that
// was computed earlier.
type input struct {
	Graph  *graph.Graph
	Layout *graph.Layout
}

// loadInput reads arg as a graph file, a layout file, or a "mongo:<name>"
// document from the configured source.
func (c *CLI) loadInput(ctx context.Context, cfg config.Config, arg string) (input, error) {
	if name, ok := strings.CutPrefix(arg, mongoScheme); ok {
		g, err := c.loadMongoGraph(ctx, cfg, name)
		return input{Graph: g}, err
	}

	data, err := os.ReadFile(arg)
	if err != nil {
		return input{}, fmt.Errorf("read %s: %w", arg, err)
	}
	if graph.FormatFromPath(arg) == graph.FormatJSON && graph.IsLayoutDocument(data) {
		l, err := graph.UnmarshalLayout(data)
		return input{Layout: l}, err
	}
	g, err := graph.ReadGraph(bytes.NewReader(data), graph.FormatFromPath(arg))
	if err != nil {
		return input{}, fmt.Errorf("load graph %s: %w", arg, err)
	}
	return input{Graph: g}, nil
}

func (c *CLI) loadMongoGraph(ctx context.Context, cfg config.Config, name string) (*graph.Graph, error) {
	src, err := source.NewMongoSource(ctx, source.MongoOptions{
		URI:        cfg.Source.MongoURI,
		Database:   cfg.Source.Database,
		Collection: cfg.Source.Collection,
	})
	if err != nil {
		return nil, err
	}
	defer src.Close(ctx)
	c.Logger.Debug("reading graph from mongo", "name", name, "collection", cfg.Source.Collection)
	return src.Graph(ctx, name)
}

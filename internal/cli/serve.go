package cli

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/matzehuels/lineagraph/pkg/config"
	"github.com/matzehuels/lineagraph/pkg/observability/prom"
	"github.com/matzehuels/lineagraph/pkg/server"
	"github.com/matzehuels/lineagraph/pkg/session"
	"github.com/matzehuels/lineagraph/pkg/source"
)

type serveOpts struct {
	addr    string
	graphs  string
	noCache bool
}

// serveCommand creates the HTTP API server command.
func (c *CLI) serveCommand() *cobra.Command {
	var opts serveOpts

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the layout, camera and render API over HTTP",
		Long: `Serve the layout, camera and render API over HTTP.

Sessions keep a graph, its layout and a camera alive between requests and are
persisted to the configured cache so they survive restarts. Prometheus
metrics are exposed at /metrics.

Named graphs are served from the MongoDB source when [source] is configured,
or from a directory of graph files given with --graphs.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", "", "listen address (default from config, :8080)")
	cmd.Flags().StringVar(&opts.graphs, "graphs", "", "directory of graph files served under /api/v1/graphs")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching and session persistence")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, opts serveOpts) error {
	cfg, err := c.config()
	if err != nil {
		return err
	}
	if opts.addr != "" {
		cfg.Server.Addr = opts.addr
	}
	logger := loggerFromContext(ctx)

	runner, err := c.newRunner(ctx, cfg, opts.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	src, err := openSource(ctx, cfg, opts.graphs)
	if err != nil {
		return err
	}
	if src != nil {
		defer src.Close(context.WithoutCancel(ctx))
	}

	prom.New(prometheus.DefaultRegisterer).Register()

	srv := server.New(server.Options{
		Config: cfg,
		Runner: runner,
		Store:  session.NewCacheStore(runner.Cache, runner.Keyer),
		Source: src,
		Logger: logger,
	})
	defer srv.Close()

	printInfo("Listening on %s", cfg.Server.Addr)
	printKeyValue("engine", runner.EngineName)
	printKeyValue("cache", cfg.Cache.Backend)
	if src != nil {
		printKeyValue("graphs", sourceName(cfg, opts.graphs))
	}
	return srv.ListenAndServe(ctx, cfg.Server.Addr)
}

// openSource returns the configured graph source, or nil when there is none.
// A --graphs directory takes precedence over the MongoDB source.
func openSource(ctx context.Context, cfg config.Config, dir string) (source.Source, error) {
	switch {
	case dir != "":
		return source.NewFileSource(dir)
	case cfg.Source.MongoURI != "":
		return source.NewMongoSource(ctx, source.MongoOptions{
			URI:        cfg.Source.MongoURI,
			Database:   cfg.Source.Database,
			Collection: cfg.Source.Collection,
		})
	}
	return nil, nil
}

func sourceName(cfg config.Config, dir string) string {
	if dir != "" {
		return dir
	}
	return "mongodb " + cfg.Source.Database + "." + cfg.Source.Collection
}

package pipeline

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/lineagraph/pkg/cache"
	"github.com/matzehuels/lineagraph/pkg/config"
	"github.com/matzehuels/lineagraph/pkg/errors"
	"github.com/matzehuels/lineagraph/pkg/graph"
	"github.com/matzehuels/lineagraph/pkg/httputil"
	"github.com/matzehuels/lineagraph/pkg/layout"
	"github.com/matzehuels/lineagraph/pkg/layout/graphviz"
	"github.com/matzehuels/lineagraph/pkg/layout/remote"
)

// NewEngine builds the layout engine named by cfg.
func NewEngine(cfg config.Layout, logger *log.Logger) (layout.Engine, error) {
	switch cfg.Engine {
	case "", config.EngineGraphviz:
		return graphviz.New(graphviz.WithLogger(logger)), nil
	case config.EngineRemote:
		attempts := cfg.Retries
		if attempts <= 0 {
			attempts = 1
		}
		return remote.New(cfg.RemoteURL,
			remote.WithHTTPClient(httputil.NewHTTPClient(cfg.Timeout)),
			remote.WithRetry(attempts, httputil.DefaultDelay),
			remote.WithLogger(logger),
		)
	default:
		return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown layout engine %q", cfg.Engine)
	}
}

// NewRunnerFromConfig builds the engine named by cfg and wraps it in a
// runner over c.
func NewRunnerFromConfig(cfg config.Config, c cache.Cache, logger *log.Logger) (*Runner, error) {
	eng, err := NewEngine(cfg.Layout, logger)
	if err != nil {
		return nil, err
	}
	name := cfg.Layout.Engine
	if name == "" {
		name = config.EngineGraphviz
	}
	var keyer cache.Keyer
	if cfg.Cache.Prefix != "" {
		keyer = cache.NewScopedKeyer(nil, cfg.Cache.Prefix)
	}
	return NewRunner(eng, name, c, keyer, logger), nil
}

// NewCache opens the backend named by cfg. dir is the fallback directory
// of the file backend when cfg.Dir is empty. The result reports to the
// cache hooks.
func NewCache(ctx context.Context, cfg config.Cache, dir string) (cache.Cache, error) {
	switch cfg.Backend {
	case config.CacheNone:
		return cache.NewNullCache(), nil
	case config.CacheRedis:
		c, err := cache.NewRedisCache(ctx, cache.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeNetwork, err, "open redis cache")
		}
		return cache.Instrument(c), nil
	case "", config.CacheFile:
		if cfg.Dir != "" {
			dir = cfg.Dir
		}
		if dir == "" {
			return cache.NewNullCache(), nil
		}
		c, err := cache.NewFileCache(dir)
		if err != nil {
			return nil, err
		}
		return cache.Instrument(c), nil
	default:
		return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown cache backend %q", cfg.Backend)
	}
}

// OptionsFromConfig maps the render, layout and viewport sections onto
// pipeline options. Callers fill in the graph-specific fields.
func OptionsFromConfig(cfg config.Config) Options {
	r := cfg.Render
	return Options{
		DefaultDirection: graph.Direction(cfg.Layout.Direction),
		Width:            r.Width,
		Height:           r.Height,
		Viewport:         cfg.Viewport.ControllerOptions(),
		MiniMap:          r.Placement(),
		MiniMapScale:     r.MiniMapScale,
		ReducedMotion:    r.ReducedMotion,
		HideDotGrid:      r.HideDotGrid,
		Background:       r.BackgroundColor,
		DotGrid:          r.DotGridColor,
		EmptyMessage:     r.EmptyMessage,
	}
}

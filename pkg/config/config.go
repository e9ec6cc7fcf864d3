// Package config loads lineagraph settings from a TOML file.
//
// The default location is $XDG_CONFIG_HOME/lineagraph/config.toml (falling
// back to ~/.config). A missing file at the default location is not an
// error; every field has a default. Command-line flags override whatever is
// loaded here.
//
//	[layout]
//	engine = "remote"
//	remote_url = "http://elk:8080/layout"
//	timeout = "30s"
//
//	[render]
//	minimap = "top-right"
//
//	[cache]
//	backend = "redis"
//	redis_addr = "localhost:6379"
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"

	"github.com/matzehuels/lineagraph/pkg/errors"
	"github.com/matzehuels/lineagraph/pkg/graph"
	"github.com/matzehuels/lineagraph/pkg/minimap"
	"github.com/matzehuels/lineagraph/pkg/viewport"
)

const appName = "lineagraph"

// Layout engines.
const (
	EngineGraphviz = "graphviz"
	EngineRemote   = "remote"
)

// Cache backends.
const (
	CacheFile  = "file"
	CacheRedis = "redis"
	CacheNone  = "none"
)

// Config is the full configuration file.
type Config struct {
	Layout   Layout   `toml:"layout"`
	Viewport Viewport `toml:"viewport"`
	Render   Render   `toml:"render"`
	Cache    Cache    `toml:"cache"`
	Server   Server   `toml:"server"`
	Source   Source   `toml:"source"`
}

// Layout configures the layout bridge and its engine.
type Layout struct {
	Engine            string        `toml:"engine" validate:"oneof=graphviz remote"`
	Direction         string        `toml:"direction" validate:"omitempty,oneof=up down left right"`
	RemoteURL         string        `toml:"remote_url" validate:"omitempty,url"`
	KeepPreviousGraph bool          `toml:"keep_previous_graph"`
	Timeout           time.Duration `toml:"timeout" validate:"gte=0"`
	Retries           int           `toml:"retries" validate:"gte=0,lte=10"`
}

// Viewport configures camera controllers.
type Viewport struct {
	MinScale    float64       `toml:"min_scale" validate:"gt=0,lte=1,ltefield=MaxScale"`
	MaxScale    float64       `toml:"max_scale" validate:"gte=1"`
	Padding     float64       `toml:"padding" validate:"gte=0,lt=0.5"`
	Duration    time.Duration `toml:"duration" validate:"gte=0"`
	DisableZoom bool          `toml:"disable_zoom"`
}

// Render configures SVG output.
type Render struct {
	MiniMap         string  `toml:"minimap" validate:"omitempty,oneof=none top-left top-right bottom-left bottom-right"`
	MiniMapScale    float64 `toml:"minimap_scale" validate:"gte=0,lte=1"`
	ReducedMotion   bool    `toml:"reduced_motion"`
	HideDotGrid     bool    `toml:"hide_dot_grid"`
	BackgroundColor string  `toml:"background_color" validate:"omitempty,hexcolor"`
	DotGridColor    string  `toml:"dot_grid_color" validate:"omitempty,hexcolor"`
	EmptyMessage    string  `toml:"empty_message"`
	Width           float64 `toml:"width" validate:"gte=0"`
	Height          float64 `toml:"height" validate:"gte=0"`
}

// Cache selects and configures the cache backend.
type Cache struct {
	Backend       string `toml:"backend" validate:"oneof=file redis none"`
	Dir           string `toml:"dir"`
	RedisAddr     string `toml:"redis_addr" validate:"omitempty,hostname_port"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db" validate:"gte=0"`
	Prefix        string `toml:"prefix"`
}

// Server configures `lineagraph serve`.
type Server struct {
	Addr        string        `toml:"addr" validate:"required"`
	MaxBodySize int64         `toml:"max_body_size" validate:"gt=0"`
	SessionTTL  time.Duration `toml:"session_ttl" validate:"gte=0"`
}

// Source configures the MongoDB lineage source. It is unused when MongoURI
// is empty.
type Source struct {
	MongoURI   string `toml:"mongo_uri" validate:"omitempty,uri"`
	Database   string `toml:"database" validate:"required_with=MongoURI"`
	Collection string `toml:"collection" validate:"required_with=MongoURI"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Layout: Layout{
			Engine:            EngineGraphviz,
			Direction:         string(graph.DefaultDirection),
			KeepPreviousGraph: true,
			Timeout:           30 * time.Second,
			Retries:           3,
		},
		Viewport: Viewport{
			MinScale: viewport.DefaultMinScale,
			MaxScale: viewport.DefaultMaxScale,
			Padding:  viewport.DefaultPadding,
			Duration: viewport.DefaultDuration,
		},
		Render: Render{
			MiniMap:      string(minimap.DefaultPlacement),
			EmptyMessage: "No data",
		},
		Cache: Cache{
			Backend: CacheFile,
		},
		Server: Server{
			Addr:        ":8080",
			MaxBodySize: 8 << 20,
			SessionTTL:  time.Hour,
		},
		Source: Source{
			Database:   appName,
			Collection: "graphs",
		},
	}
}

// Path returns the default config file location.
func Path() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

// Load reads path on top of [Default] and validates the result. An empty
// path means the default location, which may be absent. An explicit path
// must exist.
func Load(path string) (Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		p, err := Path()
		if err != nil {
			return cfg, nil
		}
		path = p
	}

	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return cfg, nil
		}
		if os.IsNotExist(err) {
			return cfg, errors.Wrap(errors.ErrCodeFileNotFound, err, "config %s", path)
		}
		return cfg, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return cfg, errors.New(errors.ErrCodeInvalidConfig, "%s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Parse decodes TOML text on top of [Default] and validates the result.
func Parse(data string) (Config, error) {
	cfg := Default()
	if _, err := toml.Decode(data, &cfg); err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse config")
	}
	return cfg, cfg.Validate()
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks every section.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "%s", describe(err))
	}
	if c.Layout.Engine == EngineRemote && c.Layout.RemoteURL == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "layout.remote_url is required for the remote engine")
	}
	if c.Cache.Backend == CacheRedis && c.Cache.RedisAddr == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "cache.redis_addr is required for the redis backend")
	}
	return nil
}

// Placement returns the parsed minimap placement.
func (r Render) Placement() minimap.Placement {
	p, err := minimap.ParsePlacement(r.MiniMap)
	if err != nil {
		return minimap.DefaultPlacement
	}
	return p
}

// ControllerOptions converts the section to controller options.
func (v Viewport) ControllerOptions() []viewport.Option {
	opts := []viewport.Option{
		viewport.WithScaleExtent(v.MinScale, v.MaxScale),
		viewport.WithPadding(v.Padding),
		viewport.WithDuration(v.Duration),
	}
	if v.DisableZoom {
		opts = append(opts, viewport.WithInteractionDisabled())
	}
	return opts
}

func describe(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
	}
	return strings.Join(parts, "; ")
}

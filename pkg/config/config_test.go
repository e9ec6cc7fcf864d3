package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/matzehuels/lineagraph/pkg/errors"
	"github.com/matzehuels/lineagraph/pkg/minimap"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
	if !cfg.Layout.KeepPreviousGraph {
		t.Error("keep_previous_graph should default to true")
	}
	if cfg.Render.Placement() != minimap.BottomLeft {
		t.Errorf("default placement = %q", cfg.Render.Placement())
	}
}

func TestParse(t *testing.T) {
	cfg, err := Parse(`
[layout]
engine = "remote"
remote_url = "http://elk:8080/layout"
direction = "down"
timeout = "5s"

[viewport]
max_scale = 8.0
disable_zoom = true

[render]
minimap = "top-right"
background_color = "#ffffff"

[cache]
backend = "redis"
redis_addr = "localhost:6379"
`)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if cfg.Layout.Engine != EngineRemote || cfg.Layout.Direction != "down" {
		t.Errorf("layout = %+v", cfg.Layout)
	}
	if cfg.Layout.Timeout != 5*time.Second {
		t.Errorf("timeout = %v", cfg.Layout.Timeout)
	}
	if cfg.Viewport.MaxScale != 8 || cfg.Viewport.MinScale != Default().Viewport.MinScale {
		t.Errorf("viewport = %+v", cfg.Viewport)
	}
	if cfg.Render.Placement() != minimap.TopRight {
		t.Errorf("placement = %q", cfg.Render.Placement())
	}
	if n := len(cfg.Viewport.ControllerOptions()); n != 4 {
		t.Errorf("controller options = %d, want 4 with disable_zoom", n)
	}
}

func TestParseInvalid(t *testing.T) {
	tests := []struct {
		name string
		toml string
	}{
		{"bad engine", "[layout]\nengine = \"elk\""},
		{"remote without url", "[layout]\nengine = \"remote\""},
		{"bad url", "[layout]\nengine = \"remote\"\nremote_url = \"::nope\""},
		{"bad direction", "[layout]\ndirection = \"sideways\""},
		{"inverted scales", "[viewport]\nmin_scale = 5.0\nmax_scale = 2.0"},
		{"zero min scale", "[viewport]\nmin_scale = 0.0"},
		{"min scale above identity", "[viewport]\nmin_scale = 2.0"},
		{"max scale below identity", "[viewport]\nmin_scale = 0.1\nmax_scale = 0.5"},
		{"padding too large", "[viewport]\npadding = 0.5"},
		{"bad placement", "[render]\nminimap = \"center\""},
		{"bad color", "[render]\nbackground_color = \"white\""},
		{"bad backend", "[cache]\nbackend = \"s3\""},
		{"redis without addr", "[cache]\nbackend = \"redis\""},
		{"mongo without collection", "[source]\nmongo_uri = \"mongodb://localhost\"\ncollection = \"\""},
		{"syntax", "[layout\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.toml)
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, errors.ErrCodeInvalidConfig) {
				t.Errorf("code = %v, want INVALID_CONFIG", errors.GetCode(err))
			}
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("[server]\naddr = \":9090\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Server.Addr != ":9090" {
		t.Errorf("addr = %q", cfg.Server.Addr)
	}
}

func TestLoadUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[layout]\nengin = \"graphviz\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("Load() = %v, want INVALID_CONFIG", err)
	}
}

func TestLoadMissing(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("missing default config should not fail: %v", err)
	}
	if cfg.Layout.Engine != EngineGraphviz {
		t.Errorf("engine = %q", cfg.Layout.Engine)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("explicit missing path = %v, want FILE_NOT_FOUND", err)
	}
}

func TestPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	p, err := Path()
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join("/tmp/xdg", "lineagraph", "config.toml"); p != want {
		t.Errorf("Path() = %q, want %q", p, want)
	}
}

package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestExecuteVerbose(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	var buf bytes.Buffer
	c := New(&buf, LogInfo)
	if err := c.Execute(context.Background(), []string{"--verbose", "cache", "path"}); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if got := c.Logger.GetLevel(); got != log.DebugLevel {
		t.Errorf("log level = %v, want debug", got)
	}
}

func TestExecuteUnknownCommand(t *testing.T) {
	c := New(&bytes.Buffer{}, LogInfo)
	err := c.Execute(context.Background(), []string{"tower"})
	if err == nil || !strings.Contains(err.Error(), "unknown command") {
		t.Errorf("Execute(tower) error = %v, want unknown command", err)
	}
}

func TestCachePathUsesConfig(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.toml")
	writeFile(t, cfgPath, "[cache]\ndir = \""+filepath.ToSlash(filepath.Join(dir, "c"))+"\"\n")

	c := New(&bytes.Buffer{}, LogInfo)
	root := c.RootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"--config", cfgPath, "cache", "path"})
	if err := root.Execute(); err != nil {
		t.Fatalf("cache path error: %v", err)
	}
	if got := strings.TrimSpace(out.String()); got != filepath.ToSlash(filepath.Join(dir, "c")) {
		t.Errorf("cache path = %q", got)
	}
}

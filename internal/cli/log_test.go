package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestNewLoggerLevels(t *testing.T) {
	tests := []struct {
		name    string
		level   log.Level
		logFunc func(*log.Logger)
		wantLog bool
	}{
		{"info at info level", LogInfo, func(l *log.Logger) { l.Info("laid out") }, true},
		{"debug at info level", LogInfo, func(l *log.Logger) { l.Debug("cache hit") }, false},
		{"debug at debug level", LogDebug, func(l *log.Logger) { l.Debug("cache hit") }, true},
		{"warn at error level", LogError, func(l *log.Logger) { l.Warn("slow engine") }, false},
		{"error at error level", LogError, func(l *log.Logger) { l.Error("layout failed") }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.logFunc(newLogger(&buf, tt.level))
			if got := buf.Len() > 0; got != tt.wantLog {
				t.Errorf("got log output = %v, want %v", got, tt.wantLog)
			}
		})
	}
}

func TestProgressDone(t *testing.T) {
	var buf bytes.Buffer
	newProgress(newLogger(&buf, LogInfo)).done("Laid out 3 nodes")

	out := buf.String()
	if !strings.Contains(out, "Laid out 3 nodes (") || !strings.Contains(out, "s)") {
		t.Errorf("progress output = %q, want message with elapsed time", out)
	}
}

func TestQuietRestoresLevel(t *testing.T) {
	for _, level := range []log.Level{LogDebug, LogInfo} {
		c := New(&bytes.Buffer{}, level)

		restore := c.quiet()
		if got := c.Logger.GetLevel(); got != LogError {
			t.Errorf("level while quiet = %v, want error", got)
		}
		restore()
		if got := c.Logger.GetLevel(); got != level {
			t.Errorf("level after restore = %v, want %v", got, level)
		}
	}
}

func TestLoggerContext(t *testing.T) {
	if loggerFromContext(context.Background()) != log.Default() {
		t.Error("loggerFromContext without a logger should return log.Default()")
	}

	var buf bytes.Buffer
	c := New(&buf, LogInfo)
	ctx := withLogger(context.Background(), c.Logger)
	if loggerFromContext(ctx) != c.Logger {
		t.Fatal("loggerFromContext should return the CLI logger")
	}
	loggerFromContext(ctx).Info("serving", "addr", ":8080")
	if !strings.Contains(buf.String(), "addr=:8080") {
		t.Errorf("log output = %q, want addr field", buf.String())
	}
}

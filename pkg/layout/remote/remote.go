// Package remote implements a [layout.Engine] that delegates placement to an
// ELK-compatible HTTP service.
//
// The engine posts the native request as JSON and expects the positioned
// graph back in the same shape:
//
//	POST /layout
//	{"id":"root","layoutOptions":{"elk.direction":"RIGHT"},"children":[...],"edges":[...]}
//
// Transient failures (network errors, 5xx, 429) are retried with
// exponential backoff; the bridge's context bounds the total time.
package remote

import (
	"context"
	"net/http"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/lineagraph/pkg/buildinfo"
	"github.com/matzehuels/lineagraph/pkg/errors"
	"github.com/matzehuels/lineagraph/pkg/httputil"
	"github.com/matzehuels/lineagraph/pkg/layout"
)

// Engine posts layout requests to a remote service.
type Engine struct {
	url    string
	client *httputil.Client
	logger *log.Logger
}

// Option configures an [Engine].
type Option func(*config)

type config struct {
	http     *http.Client
	headers  map[string]string
	attempts int
	delay    time.Duration
	logger   *log.Logger
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cfg *config) { cfg.http = c }
}

// WithHeader adds a header to every request, for example an API key. It
// can also replace the default User-Agent.
func WithHeader(key, value string) Option {
	return func(cfg *config) {
		if cfg.headers == nil {
			cfg.headers = make(map[string]string)
		}
		cfg.headers[key] = value
	}
}

// WithRetry sets the retry policy.
func WithRetry(attempts int, delay time.Duration) Option {
	return func(cfg *config) { cfg.attempts, cfg.delay = attempts, delay }
}

// WithLogger sets the logger used for debug output.
func WithLogger(l *log.Logger) Option {
	return func(cfg *config) { cfg.logger = l }
}

// New creates an engine posting to url.
func New(url string, opts ...Option) (*Engine, error) {
	if url == "" {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "remote layout engine requires a url")
	}
	cfg := config{
		headers:  map[string]string{"User-Agent": buildinfo.UserAgent()},
		attempts: httputil.DefaultAttempts,
		delay:    httputil.DefaultDelay,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = log.Default()
	}
	return &Engine{
		url:    url,
		client: httputil.NewClient(cfg.http, cfg.headers).WithRetry(cfg.attempts, cfg.delay),
		logger: cfg.logger,
	}, nil
}

// Layout implements [layout.Engine].
func (e *Engine) Layout(ctx context.Context, req *layout.Request) (*layout.Response, error) {
	start := time.Now()
	var resp layout.Response
	if err := e.client.PostJSON(ctx, e.url, req, &resp); err != nil {
		return nil, err
	}
	if resp.ID == "" && len(resp.Children) == 0 && len(req.Children) > 0 {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "layout service returned an empty graph")
	}
	e.logger.Debug("remote layout", "url", e.url, "nodes", len(resp.Children), "elapsed", time.Since(start))
	return &resp, nil
}

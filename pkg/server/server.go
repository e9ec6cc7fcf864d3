// Package server exposes diagram sessions over HTTP.
//
// A session owns a layout bridge and a viewport controller, mirroring one
// interactive diagram surface. Clients push graphs, issue camera commands
// and fetch the current SVG:
//
//	POST   /api/v1/sessions               create from a graph
//	GET    /api/v1/sessions/{id}          state (?wait=1 blocks for the layout)
//	PUT    /api/v1/sessions/{id}/graph    request a new layout
//	PUT    /api/v1/sessions/{id}/size     resize the container
//	POST   /api/v1/sessions/{id}/camera   run a camera command
//	GET    /api/v1/sessions/{id}/svg      current document
//	DELETE /api/v1/sessions/{id}
//	POST   /api/v1/render                 stateless graph → SVG
//	GET    /api/v1/graphs                 names in the graph source
//	GET    /api/v1/graphs/{name}          one graph from the source
//	GET    /healthz
//	GET    /metrics
package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/lineagraph/pkg/config"
	"github.com/matzehuels/lineagraph/pkg/pipeline"
	"github.com/matzehuels/lineagraph/pkg/render"
	"github.com/matzehuels/lineagraph/pkg/session"
	"github.com/matzehuels/lineagraph/pkg/source"
)

// sweepInterval is how often idle live sessions are closed.
const sweepInterval = time.Minute

// Options configure a [Server].
type Options struct {
	Config   config.Config
	Runner   *pipeline.Runner
	Store    session.Store
	Registry *render.Registry
	Logger   *log.Logger

	// Source serves named graphs under /api/v1/graphs. Optional.
	Source source.Source

	// Gatherer backs /metrics. Nil uses prometheus.DefaultGatherer.
	Gatherer prometheus.Gatherer
}

// Server is the HTTP API. It is an http.Handler.
type Server struct {
	cfg      config.Config
	runner   *pipeline.Runner
	store    session.Store
	registry *render.Registry
	source   source.Source
	logger   *log.Logger
	router   chi.Router

	mu   sync.Mutex
	live map[string]*liveSession

	stop chan struct{}
	wg   sync.WaitGroup
	now  func() time.Time
}

// New creates a server and starts the idle-session sweeper. Close stops it.
func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Registry == nil {
		opts.Registry = render.DefaultRegistry()
	}
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}
	s := &Server{
		cfg:      opts.Config,
		runner:   opts.Runner,
		store:    opts.Store,
		registry: opts.Registry,
		source:   opts.Source,
		logger:   opts.Logger,
		live:     make(map[string]*liveSession),
		stop:     make(chan struct{}),
		now:      time.Now,
	}
	s.router = s.routes(opts.Gatherer)

	s.wg.Add(1)
	go s.sweepLoop()
	return s
}

func (s *Server) routes(g prometheus.Gatherer) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.limitBody)
		r.Post("/render", s.handleRender)
		r.Get("/graphs", s.handleListGraphs)
		r.Get("/graphs/{name}", s.handleGetGraph)
		r.Post("/sessions", s.handleCreateSession)
		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetSession)
			r.Delete("/", s.handleDeleteSession)
			r.Put("/graph", s.handleUpdateGraph)
			r.Put("/size", s.handleResize)
			r.Post("/camera", s.handleCamera)
			r.Get("/svg", s.handleSVG)
		})
	})
	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is canceled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.logger.Info("listening", "addr", addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// Close stops the sweeper and every live session.
func (s *Server) Close() error {
	select {
	case <-s.stop:
		return nil
	default:
		close(s.stop)
	}
	s.wg.Wait()

	s.mu.Lock()
	live := s.live
	s.live = make(map[string]*liveSession)
	s.mu.Unlock()
	for _, ls := range live {
		ls.close()
	}
	return nil
}

func (s *Server) sweepLoop() {
	defer s.wg.Done()
	t := time.NewTicker(sweepInterval)
	defer t.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-t.C:
			s.sweep()
		}
	}
}

// sweep closes live sessions idle for longer than the session TTL. Their
// persisted copies stay in the store until they expire there.
func (s *Server) sweep() int {
	ttl := s.sessionTTL()
	now := s.now()
	var idle []*liveSession

	s.mu.Lock()
	for id, ls := range s.live {
		if now.Sub(ls.lastUsed()) > ttl {
			idle = append(idle, ls)
			delete(s.live, id)
		}
	}
	s.mu.Unlock()

	for _, ls := range idle {
		ls.close()
		s.logger.Debug("closed idle session", "id", ls.id)
	}
	return len(idle)
}

func (s *Server) sessionTTL() time.Duration {
	if s.cfg.Server.SessionTTL > 0 {
		return s.cfg.Server.SessionTTL
	}
	return session.DefaultTTL
}

package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/lineagraph/pkg/errors"
	"github.com/matzehuels/lineagraph/pkg/graph"
	"github.com/matzehuels/lineagraph/pkg/observability"
	"github.com/matzehuels/lineagraph/pkg/pipeline"
	"github.com/matzehuels/lineagraph/pkg/session"
	"github.com/matzehuels/lineagraph/pkg/viewport"
)

// CreateSessionRequest is the body of POST /api/v1/sessions. The graph is
// given inline or by its name in the graph source.
type CreateSessionRequest struct {
	Graph  *graph.Graph `json:"graph" validate:"required_without=Name"`
	Name   string       `json:"name" validate:"omitempty,max=512"`
	Width  float64      `json:"width" validate:"gte=0"`
	Height float64      `json:"height" validate:"gte=0"`
}

// SizeRequest is the body of PUT /api/v1/sessions/{id}/size.
type SizeRequest struct {
	Width  float64 `json:"width" validate:"gte=0"`
	Height float64 `json:"height" validate:"gte=0"`
}

// CameraResponse reports the outcome of a camera command.
type CameraResponse struct {
	Changed   bool               `json:"changed"`
	Transform viewport.Transform `json:"transform"`
	Target    viewport.Transform `json:"target"`
}

// RenderRequest is the body of POST /api/v1/render.
type RenderRequest struct {
	Graph     *graph.Graph        `json:"graph" validate:"required"`
	Direction graph.Direction     `json:"direction" validate:"omitempty,oneof=up down left right"`
	Width     float64             `json:"width" validate:"gte=0"`
	Height    float64             `json:"height" validate:"gte=0"`
	Camera    []viewport.Command  `json:"camera" validate:"dive"`
	Transform *viewport.Transform `json:"transform"`
	Title     string              `json:"title"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	n := len(s.live)
	s.mu.Unlock()
	s.respondJSON(w, http.StatusOK, map[string]any{"status": "ok", "sessions": n})
}

// =============================================================================
// Sessions
// =============================================================================

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := decode(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	if req.Graph == nil {
		g, err := s.sourceGraph(r, req.Name)
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		req.Graph = g
	}
	if err := graph.Validate(req.Graph); err != nil {
		s.respondError(w, r, err)
		return
	}

	sess := session.New(req.Graph, s.sessionTTL())
	sess.Width, sess.Height = req.Width, req.Height
	ls, err := s.openLive(sess, false)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := s.persist(r.Context(), ls); err != nil {
		ls.close()
		s.respondError(w, r, err)
		return
	}
	s.register(ls)
	s.logger.Info("created session", "id", sess.ID, "nodes", req.Graph.NodeCount())
	s.respondJSON(w, http.StatusCreated, ls.state())
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	ls, err := s.lookup(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if wait, _ := strconv.ParseBool(r.URL.Query().Get("wait")); wait {
		if err := ls.wait(r.Context()); err != nil {
			s.respondError(w, r, errors.Wrap(errors.ErrCodeTimeout, err, "wait for layout"))
			return
		}
	}
	s.respondJSON(w, http.StatusOK, ls.state())
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := session.ValidateID(id); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.forget(id)
	if err := s.store.Delete(r.Context(), id); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleUpdateGraph replaces the graph and requests a new layout. The
// response is immediate; clients poll the session or pass ?wait=true.
func (s *Server) handleUpdateGraph(w http.ResponseWriter, r *http.Request) {
	ls, err := s.lookup(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	g, err := graph.ReadGraph(r.Body, bodyFormat(r))
	if err != nil {
		s.respondError(w, r, asInput(err))
		return
	}
	ls.setGraph(g)
	if err := ls.request(s.direction(g), s.registry.Resolver()); err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := s.persist(r.Context(), ls); err != nil {
		s.respondError(w, r, err)
		return
	}
	if wait, _ := strconv.ParseBool(r.URL.Query().Get("wait")); wait {
		if err := ls.wait(r.Context()); err != nil {
			s.respondError(w, r, errors.Wrap(errors.ErrCodeTimeout, err, "wait for layout"))
			return
		}
		s.respondJSON(w, http.StatusOK, ls.state())
		return
	}
	s.respondJSON(w, http.StatusAccepted, ls.state())
}

func (s *Server) handleResize(w http.ResponseWriter, r *http.Request) {
	ls, err := s.lookup(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	var req SizeRequest
	if err := decode(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	ls.sync()
	ls.ctrl.SetSize(req.Width, req.Height)
	if err := s.persist(r.Context(), ls); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, ls.state())
}

func (s *Server) handleCamera(w http.ResponseWriter, r *http.Request) {
	ls, err := s.lookup(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	var cmd viewport.Command
	if err := decode(r, &cmd); err != nil {
		s.respondError(w, r, err)
		return
	}
	ls.sync()
	changed, err := ls.ctrl.Apply(cmd)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	observability.Camera().OnCameraCommand(r.Context(), cmd.Op, changed)
	if err := s.persist(r.Context(), ls); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, CameraResponse{
		Changed:   changed,
		Transform: ls.ctrl.Transform(),
		Target:    ls.ctrl.Target(),
	})
}

// handleSVG draws the session at its current camera. While a layout is in
// flight the document carries the progress indicator.
func (s *Server) handleSVG(w http.ResponseWriter, r *http.Request) {
	ls, err := s.lookup(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if wait, _ := strconv.ParseBool(r.URL.Query().Get("wait")); wait {
		if err := ls.wait(r.Context()); err != nil {
			s.respondError(w, r, errors.Wrap(errors.ErrCodeTimeout, err, "wait for layout"))
			return
		}
	}
	st := ls.sync()
	t := ls.ctrl.Transform()
	width, height := ls.ctrl.Size()

	opts := s.renderOptions()
	opts.Width, opts.Height = width, height
	opts.Transform = &t
	opts.Rendering = st.IsRendering
	svg, hit, err := s.runner.RenderWithCacheInfo(r.Context(), st.Layout, opts)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeSVG(w, svg, hit)
}

// =============================================================================
// Graph source
// =============================================================================

func (s *Server) sourceGraph(r *http.Request, name string) (*graph.Graph, error) {
	if s.source == nil {
		return nil, errors.New(errors.ErrCodeUnsupported, "no graph source configured")
	}
	return s.source.Graph(r.Context(), name)
}

func (s *Server) handleListGraphs(w http.ResponseWriter, r *http.Request) {
	if s.source == nil {
		s.respondError(w, r, errors.New(errors.ErrCodeUnsupported, "no graph source configured"))
		return
	}
	names, err := s.source.Names(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	s.respondJSON(w, http.StatusOK, map[string][]string{"names": names})
}

func (s *Server) handleGetGraph(w http.ResponseWriter, r *http.Request) {
	g, err := s.sourceGraph(r, chi.URLParam(r, "name"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, g)
}

// =============================================================================
// Stateless rendering
// =============================================================================

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	var req RenderRequest
	if err := decode(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := graph.Validate(req.Graph); err != nil {
		s.respondError(w, r, err)
		return
	}
	opts := s.renderOptions()
	opts.Direction = req.Direction
	if req.Width > 0 || req.Height > 0 {
		opts.Width, opts.Height = req.Width, req.Height
	}
	opts.Camera = req.Camera
	opts.Transform = req.Transform
	opts.Title = req.Title

	result, err := s.runner.Execute(r.Context(), req.Graph, opts)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeSVG(w, result.SVG, result.CacheInfo.LayoutHit && result.CacheInfo.RenderHit)
}

func (s *Server) renderOptions() pipeline.Options {
	opts := pipeline.OptionsFromConfig(s.cfg)
	opts.Registry = s.registry
	return opts
}

func writeSVG(w http.ResponseWriter, svg []byte, cached bool) {
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("X-Cache", cacheHeader(cached))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(svg)
}

func cacheHeader(hit bool) string {
	if hit {
		return "HIT"
	}
	return "MISS"
}

func bodyFormat(r *http.Request) string {
	if strings.Contains(r.Header.Get("Content-Type"), "yaml") {
		return graph.FormatYAML
	}
	return graph.FormatJSON
}

// asInput tags decode failures that carry no code as bad input.
func asInput(err error) error {
	if errors.GetCode(err) != "" {
		return err
	}
	return errors.Wrap(errors.ErrCodeInvalidInput, err, "read graph")
}

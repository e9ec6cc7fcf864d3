package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/lineagraph/pkg/cache"
	"github.com/matzehuels/lineagraph/pkg/config"
	"github.com/matzehuels/lineagraph/pkg/errors"
	"github.com/matzehuels/lineagraph/pkg/graph"
	"github.com/matzehuels/lineagraph/pkg/layout"
	"github.com/matzehuels/lineagraph/pkg/observability"
	"github.com/matzehuels/lineagraph/pkg/observability/prom"
	"github.com/matzehuels/lineagraph/pkg/pipeline"
	"github.com/matzehuels/lineagraph/pkg/session"
	"github.com/matzehuels/lineagraph/pkg/source"
)

// rowEngine places top-level nodes in a row, 200 units apart.
type rowEngine struct{}

func (rowEngine) Layout(_ context.Context, req *layout.Request) (*layout.Response, error) {
	resp := &layout.Response{ID: req.ID, Width: float64(len(req.Children)) * 200, Height: 100}
	for i, c := range req.Children {
		c.X, c.Y = float64(i)*200, 20
		resp.Children = append(resp.Children, c)
	}
	for _, ne := range req.Edges {
		ne.Container = graph.RootContainer
		ne.Sections = []layout.Section{{StartPoint: graph.Point{X: 150, Y: 44}, EndPoint: graph.Point{X: 200, Y: 44}}}
		resp.Edges = append(resp.Edges, ne)
	}
	return resp, nil
}

const testGraphJSON = `{
	"nodes": [{"id": "orders", "data": {"name": "Orders"}}, {"id": "report"}],
	"edges": [{"id": "e1", "source_node_id": "orders", "target_node_id": "report"}]
}`

func quietLogger() *log.Logger {
	l := log.New(&strings.Builder{})
	l.SetLevel(log.FatalLevel)
	return l
}

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Viewport.Duration = 0
	cfg.Render.MiniMap = "none"
	return cfg
}

func newTestServer(t *testing.T, cfg config.Config, store session.Store) *Server {
	t.Helper()
	if store == nil {
		store = session.NewCacheStore(cache.NewMemoryCache(), nil)
	}
	logger := quietLogger()
	s := New(Options{
		Config:   cfg,
		Runner:   pipeline.NewRunner(rowEngine{}, "row", cache.NewMemoryCache(), nil, logger),
		Store:    store,
		Logger:   logger,
		Gatherer: prometheus.NewRegistry(),
	})
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func createSession(t *testing.T, s *Server) liveState {
	t.Helper()
	rec := do(t, s, http.MethodPost, "/api/v1/sessions",
		`{"graph": `+testGraphJSON+`, "width": 800, "height": 600}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeBody[liveState](t, rec)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, testConfig(), nil)
	rec := do(t, s, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","sessions":0}`, rec.Body.String())
}

func TestSessionLifecycle(t *testing.T) {
	s := newTestServer(t, testConfig(), nil)

	created := createSession(t, s)
	_, err := uuid.Parse(created.ID)
	require.NoError(t, err)
	base := "/api/v1/sessions/" + created.ID

	rec := do(t, s, http.MethodGet, base+"?wait=true", "")
	require.Equal(t, http.StatusOK, rec.Code)
	st := decodeBody[liveState](t, rec)
	assert.False(t, st.IsRendering)
	assert.Empty(t, st.Error)
	assert.Equal(t, 2, st.NodeCount)
	assert.Greater(t, st.Target.K, 1.0, "content is fitted into the container")
	assert.Equal(t, st.Target, st.Transform)

	rec = do(t, s, http.MethodPost, base+"/camera", `{"op": "scaleZoom", "factor": 0.5}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	cam := decodeBody[CameraResponse](t, rec)
	assert.True(t, cam.Changed)
	assert.InDelta(t, st.Target.K/2, cam.Target.K, 1e-9)

	rec = do(t, s, http.MethodGet, base+"/svg", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/svg+xml", rec.Header().Get("Content-Type"))
	svg := rec.Body.String()
	assert.Contains(t, svg, `id="orders-report"`)
	assert.Contains(t, svg, `width="800.00" height="600.00"`)
	assert.Contains(t, svg, cam.Target.String())
	assert.NotContains(t, svg, "lineage-graph-rendering")

	rec = do(t, s, http.MethodPut, base+"/size", `{"width": 1024, "height": 768}`)
	require.Equal(t, http.StatusOK, rec.Code)
	st = decodeBody[liveState](t, rec)
	assert.Equal(t, 1024.0, st.Width)
	assert.Equal(t, 768.0, st.Height)

	rec = do(t, s, http.MethodPut, base+"/graph?wait=true",
		`{"nodes": [{"id": "a"}, {"id": "b"}, {"id": "c"}]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	st = decodeBody[liveState](t, rec)
	assert.Equal(t, 3, st.NodeCount)

	rec = do(t, s, http.MethodDelete, base, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, s, http.MethodGet, base, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, errors.ErrCodeSessionNotFound, decodeBody[ErrorResponse](t, rec).Code)
}

func TestUpdateGraphAccepted(t *testing.T) {
	s := newTestServer(t, testConfig(), nil)
	created := createSession(t, s)

	req := httptest.NewRequest(http.MethodPut, "/api/v1/sessions/"+created.ID+"/graph",
		strings.NewReader("nodes:\n  - id: a\n"))
	req.Header.Set("Content-Type", "application/yaml")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
}

func TestSessionRestore(t *testing.T) {
	store := session.NewCacheStore(cache.NewMemoryCache(), nil)
	first := newTestServer(t, testConfig(), store)

	created := createSession(t, first)
	base := "/api/v1/sessions/" + created.ID
	require.Equal(t, http.StatusOK, do(t, first, http.MethodGet, base+"?wait=true", "").Code)
	rec := do(t, first, http.MethodPost, base+"/camera", `{"op": "scaleZoom", "factor": 0.5}`)
	require.Equal(t, http.StatusOK, rec.Code)
	saved := decodeBody[CameraResponse](t, rec).Target
	require.NoError(t, first.Close())

	second := newTestServer(t, testConfig(), store)
	rec = do(t, second, http.MethodGet, base+"?wait=true", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	st := decodeBody[liveState](t, rec)
	assert.Equal(t, 2, st.NodeCount)
	assert.InDelta(t, saved.K, st.Target.K, 1e-9)
	assert.InDelta(t, saved.X, st.Target.X, 1e-9)
	assert.InDelta(t, saved.Y, st.Target.Y, 1e-9)
	assert.Equal(t, 800.0, st.Width)
}

func TestConcurrentSessionAccess(t *testing.T) {
	s := newTestServer(t, testConfig(), nil)
	created := createSession(t, s)
	base := "/api/v1/sessions/" + created.ID

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			body := `{"nodes": [{"id": "a"}, {"id": "n` + string(rune('0'+i)) + `"}]}`
			rec := do(t, s, http.MethodPut, base+"/graph", body)
			assert.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
		}(i)
		go func() {
			defer wg.Done()
			rec := do(t, s, http.MethodGet, base, "")
			assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		}()
	}
	wg.Wait()

	rec := do(t, s, http.MethodGet, base+"?wait=true", "")
	require.Equal(t, http.StatusOK, rec.Code)
	st := decodeBody[liveState](t, rec)
	assert.False(t, st.IsRendering)
	assert.Equal(t, 2, st.NodeCount)

	s.mu.Lock()
	ls := s.live[created.ID]
	s.mu.Unlock()
	require.NotNil(t, ls)
	ls.mu.Lock()
	defer ls.mu.Unlock()
	assert.Equal(t, st.Token, ls.installed, "camera shows the newest layout")
	assert.Equal(t, 2, len(ls.ctrl.Scene().Nodes))
}

func TestSweep(t *testing.T) {
	s := newTestServer(t, testConfig(), nil)
	created := createSession(t, s)

	assert.Zero(t, s.sweep())
	s.now = func() time.Time { return time.Now().Add(2 * s.sessionTTL()) }
	assert.Equal(t, 1, s.sweep())

	s.mu.Lock()
	assert.Empty(t, s.live)
	s.mu.Unlock()

	// The persisted copy brings it back.
	rec := do(t, s, http.MethodGet, "/api/v1/sessions/"+created.ID+"?wait=true", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSessionErrors(t *testing.T) {
	s := newTestServer(t, testConfig(), nil)
	created := createSession(t, s)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
		code   errors.Code
	}{
		{"malformed id", http.MethodGet, "/api/v1/sessions/nope", "", http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"unknown id", http.MethodGet, "/api/v1/sessions/" + uuid.NewString(), "", http.StatusNotFound, errors.ErrCodeSessionNotFound},
		{"missing graph", http.MethodPost, "/api/v1/sessions", `{"width": 10}`, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"unknown field", http.MethodPost, "/api/v1/sessions", `{"graph": {"nodes": []}, "zoom": 2}`, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"duplicate node", http.MethodPost, "/api/v1/sessions", `{"graph": {"nodes": [{"id": "a"}, {"id": "a"}]}}`, http.StatusBadRequest, errors.ErrCodeInvalidGraph},
		{"negative size", http.MethodPut, "/api/v1/sessions/" + created.ID + "/size", `{"width": -1}`, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"missing op", http.MethodPost, "/api/v1/sessions/" + created.ID + "/camera", `{}`, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"unknown op", http.MethodPost, "/api/v1/sessions/" + created.ID + "/camera", `{"op": "spin"}`, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"extent required", http.MethodPost, "/api/v1/sessions/" + created.ID + "/camera", `{"op": "fitExtent"}`, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"bad graph body", http.MethodPut, "/api/v1/sessions/" + created.ID + "/graph", `{"nodes": [`, http.StatusBadRequest, errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.Equal(t, tt.code, decodeBody[ErrorResponse](t, rec).Code)
		})
	}
}

func TestRender(t *testing.T) {
	s := newTestServer(t, testConfig(), nil)
	body := `{"graph": ` + testGraphJSON + `, "width": 640, "height": 480, "title": "Lineage"}`

	rec := do(t, s, http.MethodPost, "/api/v1/render", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "image/svg+xml", rec.Header().Get("Content-Type"))
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	assert.Contains(t, rec.Body.String(), `width="640.00" height="480.00"`)
	assert.Contains(t, rec.Body.String(), "<title>Lineage</title>")
	first := rec.Body.Bytes()

	rec = do(t, s, http.MethodPost, "/api/v1/render", body)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))
	assert.True(t, bytes.Equal(first, rec.Body.Bytes()))

	rec = do(t, s, http.MethodPost, "/api/v1/render",
		`{"graph": `+testGraphJSON+`, "camera": [{"op": "centerOnPositionedNode", "node_id": "report", "zoom": 2}], "width": 100, "height": 100}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "matrix(2,0,0,2,")

	rec = do(t, s, http.MethodPost, "/api/v1/render", `{"graph": `+testGraphJSON+`, "camera": [{"op": "spin"}]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBodyLimit(t *testing.T) {
	cfg := testConfig()
	cfg.Server.MaxBodySize = 32
	s := newTestServer(t, cfg, nil)

	rec := do(t, s, http.MethodPost, "/api/v1/sessions", `{"graph": `+testGraphJSON+`}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeBody[ErrorResponse](t, rec).Message, "exceeds 32 bytes")
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	prom.New(reg).Register()
	t.Cleanup(observability.Reset)

	logger := quietLogger()
	s := New(Options{
		Config:   testConfig(),
		Runner:   pipeline.NewRunner(rowEngine{}, "row", nil, nil, logger),
		Store:    session.NewCacheStore(cache.NewMemoryCache(), nil),
		Logger:   logger,
		Gatherer: reg,
	})
	defer s.Close()

	require.Equal(t, http.StatusOK, do(t, s, http.MethodGet, "/healthz", "").Code)
	created := createSession(t, s)
	do(t, s, http.MethodPost, "/api/v1/sessions/"+created.ID+"/camera", `{"op": "resetZoom"}`)

	rec := do(t, s, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	out := rec.Body.String()
	assert.Contains(t, out, "lineagraph_http_requests_total")
	assert.Contains(t, out, `path="/healthz"`)
	assert.Contains(t, out, `path="/api/v1/sessions/{id}/camera"`)
	assert.Contains(t, out, `lineagraph_camera_commands_total{changed="`)
	assert.Contains(t, out, "lineagraph_layout_dispatched_total")
}

func TestGraphSource(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "warehouse.json"), []byte(testGraphJSON), 0o644))
	src, err := source.NewFileSource(dir)
	require.NoError(t, err)

	logger := quietLogger()
	s := New(Options{
		Config:   testConfig(),
		Runner:   pipeline.NewRunner(rowEngine{}, "row", nil, nil, logger),
		Store:    session.NewCacheStore(cache.NewMemoryCache(), nil),
		Source:   src,
		Logger:   logger,
		Gatherer: prometheus.NewRegistry(),
	})
	defer s.Close()

	rec := do(t, s, http.MethodGet, "/api/v1/graphs", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"names":["warehouse"]}`, rec.Body.String())

	rec = do(t, s, http.MethodGet, "/api/v1/graphs/warehouse", "")
	require.Equal(t, http.StatusOK, rec.Code)
	g := decodeBody[graph.Graph](t, rec)
	assert.Len(t, g.Nodes, 2)

	rec = do(t, s, http.MethodGet, "/api/v1/graphs/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, s, http.MethodPost, "/api/v1/sessions", `{"name": "warehouse", "width": 400, "height": 300}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	id := decodeBody[liveState](t, rec).ID
	rec = do(t, s, http.MethodGet, "/api/v1/sessions/"+id+"?wait=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, decodeBody[liveState](t, rec).NodeCount)
}

func TestGraphSourceUnconfigured(t *testing.T) {
	s := newTestServer(t, testConfig(), nil)
	rec := do(t, s, http.MethodGet, "/api/v1/graphs", "")
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
	rec = do(t, s, http.MethodPost, "/api/v1/sessions", `{"name": "warehouse"}`)
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}

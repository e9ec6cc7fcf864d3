package server

import (
	"context"
	"sync"
	"time"

	"github.com/matzehuels/lineagraph/pkg/errors"
	"github.com/matzehuels/lineagraph/pkg/graph"
	"github.com/matzehuels/lineagraph/pkg/layout"
	"github.com/matzehuels/lineagraph/pkg/scene"
	"github.com/matzehuels/lineagraph/pkg/session"
	"github.com/matzehuels/lineagraph/pkg/viewport"
)

// liveSession couples a persisted session with the bridge and camera that
// serve it while it is in use.
type liveSession struct {
	id     string
	bridge *layout.Bridge
	ctrl   *viewport.Controller
	memo   *scene.Memo

	mu   sync.Mutex
	sess *session.Session
	// restore holds a persisted camera to apply once the first non-empty
	// scene arrives. Installing a new scene re-arms auto-fit, so applying
	// it earlier would be lost.
	restore *viewport.Transform
	used    time.Time
	// installed is the token of the layout the camera shows.
	installed uint64
}

// liveState is the JSON view of a session.
type liveState struct {
	ID          string             `json:"id"`
	Token       uint64             `json:"token"`
	IsRendering bool               `json:"is_rendering"`
	Error       string             `json:"error,omitempty"`
	ErrorCode   errors.Code        `json:"error_code,omitempty"`
	Transform   viewport.Transform `json:"transform"`
	Target      viewport.Transform `json:"target"`
	Animating   bool               `json:"animating"`
	Width       float64            `json:"width"`
	Height      float64            `json:"height"`
	NodeCount   int                `json:"node_count"`
	ExpiresAt   time.Time          `json:"expires_at"`
	Layout      *graph.Layout      `json:"layout"`
}

// openLive starts a bridge and camera for sess and requests its layout.
// restored sessions keep their persisted camera.
func (s *Server) openLive(sess *session.Session, restored bool) (*liveSession, error) {
	ctrl, err := viewport.New(append(s.cfg.Viewport.ControllerOptions(),
		viewport.WithSize(sess.Width, sess.Height),
		viewport.WithLogger(s.logger),
	)...)
	if err != nil {
		return nil, err
	}
	ls := &liveSession{
		id: sess.ID,
		bridge: layout.New(s.runner,
			layout.WithKeepPreviousGraph(s.cfg.Layout.KeepPreviousGraph),
			layout.WithTimeout(s.cfg.Layout.Timeout),
			layout.WithLogger(s.logger),
		),
		ctrl: ctrl,
		memo: scene.NewMemo(),
		sess: sess,
		used: s.now(),
	}
	if restored && sess.Transform.Valid() {
		t := sess.Transform
		ls.restore = &t
	}
	if err := ls.request(s.direction(sess.Graph), s.registry.Resolver()); err != nil {
		ls.close()
		return nil, err
	}
	return ls, nil
}

// request lays out the current graph.
func (ls *liveSession) request(dir graph.Direction, resolve layout.OptionsResolver) error {
	ls.mu.Lock()
	g := ls.sess.Graph
	ls.mu.Unlock()
	return ls.bridge.Request(g.Nodes, g.Edges, dir, resolve)
}

// sync installs the latest layout into the camera and returns the bridge
// state it was taken from. Reading the state and installing it happen under
// ls.mu so concurrent requests cannot put an older scene back.
func (ls *liveSession) sync() layout.State {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	st := ls.bridge.State()
	if st.Token < ls.installed {
		return st
	}
	ls.installed = st.Token
	sc := ls.memo.Get(st.Layout)
	ls.ctrl.SetScene(sc)
	if ls.restore != nil && !sc.Empty() {
		ls.ctrl.SetTransform(*ls.restore)
		ls.restore = nil
	}
	return st
}

// wait blocks until the layout settles. A failed layout is reported in the
// state, not as an error.
func (ls *liveSession) wait(ctx context.Context) error {
	_, err := ls.bridge.Wait(ctx)
	if err != nil && !errors.Is(err, errors.ErrCodeLayoutFailed) {
		return err
	}
	return nil
}

// state snapshots the session for a response.
func (ls *liveSession) state() liveState {
	st := ls.sync()
	w, h := ls.ctrl.Size()

	ls.mu.Lock()
	defer ls.mu.Unlock()
	out := liveState{
		ID:          ls.id,
		Token:       st.Token,
		IsRendering: st.IsRendering,
		Transform:   ls.ctrl.Transform(),
		Target:      ls.ctrl.Target(),
		Animating:   ls.ctrl.Animating(),
		Width:       w,
		Height:      h,
		NodeCount:   st.Layout.NodeCount(),
		ExpiresAt:   ls.sess.ExpiresAt,
		Layout:      st.Layout,
	}
	if st.Err != nil {
		out.Error = errors.UserMessage(st.Err)
		out.ErrorCode = errors.GetCode(st.Err)
	}
	return out
}

// snapshot copies the persisted form with the current camera and extends
// its expiry.
func (ls *liveSession) snapshot(ttl time.Duration) *session.Session {
	t := ls.ctrl.Target()
	w, h := ls.ctrl.Size()

	ls.mu.Lock()
	defer ls.mu.Unlock()
	if ls.restore == nil {
		ls.sess.Transform = t
	}
	ls.sess.Width, ls.sess.Height = w, h
	ls.sess.Touch(ttl)
	cp := *ls.sess
	return &cp
}

func (ls *liveSession) setGraph(g *graph.Graph) {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	ls.sess.Graph = g
}

func (ls *liveSession) touch(now time.Time) {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	ls.used = now
}

func (ls *liveSession) lastUsed() time.Time {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	return ls.used
}

func (ls *liveSession) close() {
	_ = ls.bridge.Close()
}

// =============================================================================
// Registry of live sessions
// =============================================================================

// lookup returns the live session for id, reopening it from the store when
// this server has not seen it yet or has swept it.
func (s *Server) lookup(ctx context.Context, id string) (*liveSession, error) {
	if err := session.ValidateID(id); err != nil {
		return nil, err
	}
	s.mu.Lock()
	ls, ok := s.live[id]
	s.mu.Unlock()
	if ok {
		ls.touch(s.now())
		return ls, nil
	}

	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	opened, err := s.openLive(sess, true)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if ls, ok := s.live[id]; ok {
		// Lost a race with a concurrent restore.
		opened.close()
		ls.touch(s.now())
		return ls, nil
	}
	s.live[id] = opened
	s.logger.Debug("restored session", "id", id)
	return opened, nil
}

func (s *Server) register(ls *liveSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.live[ls.id] = ls
}

func (s *Server) forget(id string) {
	s.mu.Lock()
	ls, ok := s.live[id]
	delete(s.live, id)
	s.mu.Unlock()
	if ok {
		ls.close()
	}
}

// persist saves the current form of ls.
func (s *Server) persist(ctx context.Context, ls *liveSession) error {
	return s.store.Set(ctx, ls.snapshot(s.sessionTTL()))
}

func (s *Server) direction(g *graph.Graph) graph.Direction {
	if g != nil && g.Direction != "" {
		return g.Direction
	}
	return graph.Direction(s.cfg.Layout.Direction).OrDefault()
}

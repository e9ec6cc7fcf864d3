package layout

import (
	"context"
	"encoding/json"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/lineagraph/pkg/cache"
	"github.com/matzehuels/lineagraph/pkg/errors"
	"github.com/matzehuels/lineagraph/pkg/graph"
	"github.com/matzehuels/lineagraph/pkg/observability"
)

// State is the visible outcome of the layout lifecycle.
type State struct {
	// Layout is the positioned graph to draw. It is never nil.
	Layout *graph.Layout
	// IsRendering is true while the latest request is in flight.
	IsRendering bool
	// Err is the failure of the latest request, wrapped as LAYOUT_FAILED.
	Err error
	// Token identifies the latest request.
	Token uint64
}

// Option configures a [Bridge].
type Option func(*Bridge)

// WithKeepPreviousGraph controls whether the last good layout stays visible
// while a request is in flight and after it fails. Enabled by default.
func WithKeepPreviousGraph(keep bool) Option {
	return func(b *Bridge) { b.keepPrevious = keep }
}

// WithLogger sets the logger used for debug output.
func WithLogger(l *log.Logger) Option {
	return func(b *Bridge) { b.logger = l }
}

// WithTimeout bounds each engine call. Zero means no bound.
func WithTimeout(d time.Duration) Option {
	return func(b *Bridge) { b.timeout = d }
}

// Bridge runs layout requests on a background worker and publishes the
// results. Request never blocks; every dispatch carries a token from a
// monotonically increasing counter and only the result matching the latest
// token may change the visible state. Older results are dropped on arrival.
//
// Two goroutines back a bridge: the worker, the only caller of the engine,
// and a dispatch loop that applies results to the state. They talk through
// channels. Close stops both.
type Bridge struct {
	engine       Engine
	logger       *log.Logger
	keepPrevious bool
	timeout      time.Duration

	token   atomic.Uint64
	jobs    chan job
	results chan result
	done    chan struct{}
	ctx     context.Context
	stop    context.CancelFunc
	wg      sync.WaitGroup

	mu      sync.Mutex
	state   State
	lastKey string
	cancel  context.CancelFunc
	subs    []chan State
	closed  bool
}

type job struct {
	token uint64
	ctx   context.Context
	req   *Request
	nodes []graph.Node
	edges []graph.Edge
}

type result struct {
	job
	resp    *Response
	err     error
	elapsed time.Duration
}

// New starts a bridge around eng, which must not be nil.
func New(eng Engine, opts ...Option) *Bridge {
	ctx, stop := context.WithCancel(context.Background())
	b := &Bridge{
		engine:       eng,
		keepPrevious: true,
		jobs:         make(chan job, 1),
		results:      make(chan result),
		done:         make(chan struct{}),
		ctx:          ctx,
		stop:         stop,
		state:        State{Layout: graph.EmptyLayout()},
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.logger == nil {
		b.logger = log.Default()
	}
	b.wg.Add(2)
	go b.work()
	go b.dispatch()
	return b
}

// Request asks for a layout of the given graph. Input identical to the last
// request is ignored. An empty node list resolves immediately to an empty
// layout. A closed bridge returns a CLOSED error.
func (b *Bridge) Request(nodes []graph.Node, edges []graph.Edge, dir graph.Direction, resolve OptionsResolver) error {
	if err := errors.ValidateDirection(string(dir)); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return errors.New(errors.ErrCodeClosed, "layout bridge closed")
	}

	key := fingerprint(nodes, edges, dir)
	if key != "" && key == b.lastKey {
		return nil
	}
	b.lastKey = key

	token := b.token.Add(1)
	if b.cancel != nil {
		b.cancel()
		b.cancel = nil
	}

	if len(nodes) == 0 {
		b.state = State{Layout: graph.EmptyLayout(), Token: token}
		b.logger.Debug("empty layout", "token", token)
		b.publish()
		return nil
	}

	ctx, cancel := b.jobContext()
	b.cancel = cancel
	j := job{
		token: token,
		ctx:   ctx,
		req:   BuildRequest(nodes, edges, dir, resolve),
		nodes: slices.Clone(nodes),
		edges: slices.Clone(edges),
	}

	b.state.IsRendering = true
	b.state.Token = token
	if !b.keepPrevious {
		b.state.Layout = graph.EmptyLayout()
	}
	b.enqueue(j)

	count := (&graph.Graph{Nodes: nodes}).NodeCount()
	observability.Layout().OnLayoutDispatch(ctx, token, count)
	b.logger.Debug("layout dispatched", "token", token, "nodes", count, "edges", len(edges), "direction", dir.OrDefault())
	b.publish()
	return nil
}

// State returns a snapshot of the current state.
func (b *Bridge) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Updates returns a channel that receives the current state immediately and
// every later state change. Slow readers only see the latest state. The
// channel is closed by Close or Unsubscribe.
func (b *Bridge) Updates() <-chan State {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan State, 1)
	ch <- b.state
	if b.closed {
		close(ch)
		return ch
	}
	b.subs = append(b.subs, ch)
	return ch
}

// Unsubscribe stops and closes a channel returned by Updates.
func (b *Bridge) Unsubscribe(ch <-chan State) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, s := range b.subs {
		if (<-chan State)(s) == ch {
			b.subs = slices.Delete(b.subs, i, i+1)
			close(s)
			return
		}
	}
}

// Wait blocks until no request is in flight and returns the resulting state
// and its error.
func (b *Bridge) Wait(ctx context.Context) (State, error) {
	ch := b.Updates()
	defer b.Unsubscribe(ch)
	for {
		select {
		case s, ok := <-ch:
			if !ok {
				return b.State(), errors.New(errors.ErrCodeClosed, "layout bridge closed")
			}
			if !s.IsRendering {
				return s, s.Err
			}
		case <-ctx.Done():
			return b.State(), ctx.Err()
		}
	}
}

// Close cancels the in-flight request and stops the background goroutines.
// Subscriber channels are closed. Close is idempotent.
func (b *Bridge) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	if b.cancel != nil {
		b.cancel()
		b.cancel = nil
	}
	b.stop()
	close(b.done)
	b.mu.Unlock()

	b.wg.Wait()

	b.mu.Lock()
	for _, s := range b.subs {
		close(s)
	}
	b.subs = nil
	b.mu.Unlock()
	return nil
}

// =============================================================================
// Background
// =============================================================================

func (b *Bridge) work() {
	defer b.wg.Done()
	for {
		select {
		case <-b.done:
			return
		case j := <-b.jobs:
			if j.token != b.token.Load() {
				b.logger.Debug("skipping superseded layout", "token", j.token)
				continue
			}
			start := time.Now()
			resp, err := b.engine.Layout(j.ctx, j.req)
			select {
			case b.results <- result{job: j, resp: resp, err: err, elapsed: time.Since(start)}:
			case <-b.done:
				return
			}
		}
	}
}

func (b *Bridge) dispatch() {
	defer b.wg.Done()
	for {
		select {
		case <-b.done:
			return
		case r := <-b.results:
			b.apply(r)
		}
	}
}

func (b *Bridge) apply(r result) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	if r.token != b.token.Load() {
		observability.Layout().OnLayoutStale(r.ctx, r.token)
		b.logger.Debug("dropping stale layout", "token", r.token, "latest", b.token.Load())
		return
	}
	b.cancel = nil

	observability.Layout().OnLayoutComplete(r.ctx, r.token, r.elapsed, r.err)
	if r.err != nil {
		b.state.Err = errors.Wrap(errors.ErrCodeLayoutFailed, r.err, "layout")
		b.state.IsRendering = false
		if !b.keepPrevious {
			b.state.Layout = graph.EmptyLayout()
		}
		b.logger.Debug("layout failed", "token", r.token, "error", r.err)
		b.publish()
		return
	}

	b.state = State{Layout: ToLayout(r.resp, r.nodes, r.edges), Token: r.token}
	b.logger.Debug("layout resolved", "token", r.token, "nodes", b.state.Layout.NodeCount(), "elapsed", r.elapsed)
	b.publish()
}

// =============================================================================
// Internals (callers hold b.mu)
// =============================================================================

func (b *Bridge) jobContext() (context.Context, context.CancelFunc) {
	if b.timeout > 0 {
		return context.WithTimeout(b.ctx, b.timeout)
	}
	return context.WithCancel(b.ctx)
}

// enqueue replaces any queued job with j. A queued job is always superseded
// by a newer one, so dropping it loses nothing.
func (b *Bridge) enqueue(j job) {
	for {
		select {
		case b.jobs <- j:
			return
		default:
		}
		select {
		case <-b.jobs:
		default:
		}
	}
}

func (b *Bridge) publish() {
	for _, s := range b.subs {
		select {
		case <-s:
		default:
		}
		s <- b.state
	}
}

// fingerprint hashes the request inputs. Payloads that cannot be encoded
// yield "", which always dispatches.
func fingerprint(nodes []graph.Node, edges []graph.Edge, dir graph.Direction) string {
	data, err := json.Marshal(struct {
		Nodes     []graph.Node    `json:"nodes"`
		Edges     []graph.Edge    `json:"edges"`
		Direction graph.Direction `json:"direction"`
	}{nodes, edges, dir.OrDefault()})
	if err != nil {
		return ""
	}
	return cache.Hash(data)
}

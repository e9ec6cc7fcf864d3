package viewport

import (
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/lineagraph/pkg/errors"
	"github.com/matzehuels/lineagraph/pkg/graph"
	"github.com/matzehuels/lineagraph/pkg/scene"
)

// =============================================================================
// Defaults
// =============================================================================

const (
	// DefaultMinScale is the lower scale bound.
	DefaultMinScale = 0.1

	// DefaultMaxScale is the upper scale bound.
	DefaultMaxScale = 4.0

	// DefaultDuration is the length of animated camera transitions.
	DefaultDuration = 250 * time.Millisecond

	// DefaultPadding is the fractional margin used by auto-fit and FitExtent.
	DefaultPadding = 0.1
)

// =============================================================================
// Options
// =============================================================================

// Option configures a [Controller].
type Option func(*Controller)

// WithSize sets the container size in screen pixels.
func WithSize(width, height float64) Option {
	return func(c *Controller) { c.width, c.height = width, height }
}

// WithScaleExtent sets the allowed scale range.
func WithScaleExtent(minScale, maxScale float64) Option {
	return func(c *Controller) { c.minScale, c.maxScale = minScale, maxScale }
}

// WithDuration sets the length of animated transitions. Zero disables
// animation.
func WithDuration(d time.Duration) Option {
	return func(c *Controller) { c.duration = d }
}

// WithPadding sets the fractional padding used by auto-fit and FitExtent.
func WithPadding(p float64) Option {
	return func(c *Controller) { c.padding = p }
}

// WithClock replaces the wall clock, mainly for tests.
func WithClock(clock Clock) Option {
	return func(c *Controller) { c.clock = clock }
}

// WithLogger sets the logger used for debug output.
func WithLogger(l *log.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithInteractionDisabled makes Pan and ZoomAt no-ops. Imperative commands
// keep working.
func WithInteractionDisabled() Option {
	return func(c *Controller) { c.interactionDisabled = true }
}

// =============================================================================
// Controller
// =============================================================================

// Controller owns the camera transform of one diagram surface.
//
// Commands compute a target transform from the current target and the scene
// last passed to SetScene. A command whose target equals the current target
// does nothing. Animated commands start a transition from the transform
// visible right now; a later command replaces it. Every method is safe for
// concurrent use.
type Controller struct {
	mu sync.Mutex

	width, height       float64
	minScale, maxScale  float64
	duration            time.Duration
	padding             float64
	interactionDisabled bool
	clock               Clock
	logger              *log.Logger

	scene       *scene.Scene
	fingerprint string
	autoFit     bool
	tr          transition
}

// New creates a controller with the identity transform.
func New(opts ...Option) (*Controller, error) {
	c := &Controller{
		minScale: DefaultMinScale,
		maxScale: DefaultMaxScale,
		duration: DefaultDuration,
		padding:  DefaultPadding,
		clock:    systemClock{},
		tr:       transition{from: Identity, to: Identity},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = log.Default()
	}
	if !finite(c.minScale) || !finite(c.maxScale) || c.minScale <= 0 || c.minScale > c.maxScale {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "invalid scale extent [%v, %v]", c.minScale, c.maxScale)
	}
	// ResetZoom returns to identity, so scale 1 must be reachable.
	if c.minScale > 1 || c.maxScale < 1 {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "scale extent [%v, %v] must contain 1", c.minScale, c.maxScale)
	}
	if !finite(c.width) || !finite(c.height) || c.width < 0 || c.height < 0 {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "invalid container size %vx%v", c.width, c.height)
	}
	return c, nil
}

// ScaleExtent returns the configured scale bounds.
func (c *Controller) ScaleExtent() (minScale, maxScale float64) {
	return c.minScale, c.maxScale
}

// SetSize updates the container size. Invalid sizes are stored as zero,
// which turns geometry commands into no-ops until a real size arrives.
func (c *Controller) SetSize(width, height float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !finite(width) || width < 0 {
		width = 0
	}
	if !finite(height) || height < 0 {
		height = 0
	}
	c.width, c.height = width, height
	c.maybeAutoFit()
}

// Size returns the container size.
func (c *Controller) Size() (width, height float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.width, c.height
}

// SetScene installs the content the camera looks at. When the scene's
// fingerprint differs from the last one seen, auto-fit is re-armed and runs
// as soon as the container has a size. User interaction disarms it.
func (c *Controller) SetScene(s *scene.Scene) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scene = s
	if !s.Empty() && s.Fingerprint != c.fingerprint {
		c.fingerprint = s.Fingerprint
		c.autoFit = true
	}
	c.maybeAutoFit()
}

// Scene returns the current scene, which may be nil.
func (c *Controller) Scene() *scene.Scene {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.scene
}

// AutoFitPending reports whether the next usable scene/size will auto-fit.
func (c *Controller) AutoFitPending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.autoFit
}

// Transform returns the transform visible now, mid-transition if one is
// running. A degenerate transform is reported as the identity.
func (c *Controller) Transform() Transform {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current().OrIdentity()
}

// Target returns the transform the camera is moving to.
func (c *Controller) Target() Transform {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tr.to
}

// Animating reports whether a transition is in progress.
func (c *Controller) Animating() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tr.active(c.clock.Now())
}

// =============================================================================
// Imperative Commands
// =============================================================================

// CenterOption adjusts CenterOnExtent and CenterOnPositionedNode.
type CenterOption func(*centerConfig)

type centerConfig struct {
	zoom    float64
	hasZoom bool
}

// WithZoom centers at the given scale instead of the current one.
func WithZoom(k float64) CenterOption {
	return func(cc *centerConfig) { cc.zoom, cc.hasZoom = k, true }
}

// FitContent scales and centers the camera so every top-level node is
// visible, with padding as a fraction of the content size. The move is
// animated. It reports whether the target changed.
func (c *Controller) FitContent(padding float64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.autoFit = false
	return c.fitContent(padding)
}

// FitExtent fits an explicit content-space box. Boxes with non-positive
// width or height are ignored.
func (c *Controller) FitExtent(e graph.Extent, animate bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.autoFit = false
	if c.scene.Empty() {
		return false
	}
	t, ok := fitTransform(e, c.width, c.height, c.padding, c.minScale, c.maxScale)
	if !ok {
		return false
	}
	return c.setTarget(t, animate)
}

// CenterOnExtent moves the center of e to the center of the container,
// keeping the current scale unless WithZoom is given.
func (c *Controller) CenterOnExtent(e graph.Extent, opts ...CenterOption) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.autoFit = false
	return c.centerOn(e, opts)
}

// ScaleZoom multiplies the scale by factor, clamped to the scale extent,
// keeping the content point at the container center in place.
func (c *Controller) ScaleZoom(factor float64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.autoFit = false
	if c.scene.Empty() || c.width <= 0 || c.height <= 0 || !finite(factor) || factor <= 0 {
		return false
	}
	base := c.tr.to
	k := Clamp(base.K*factor, c.minScale, c.maxScale)
	center := graph.Point{X: c.width / 2, Y: c.height / 2}
	p := base.Invert(center)
	return c.setTarget(Transform{X: center.X - p.X*k, Y: center.Y - p.Y*k, K: k}, false)
}

// ResetZoom returns to the identity transform.
func (c *Controller) ResetZoom() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.autoFit = false
	return c.setTarget(Identity, false)
}

// SetTransform jumps to t without animation, as restoring a saved camera
// does. Invalid transforms are ignored. A scale outside the scale extent is
// clamped, keeping the content point at the container center in place.
func (c *Controller) SetTransform(t Transform) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !t.Valid() {
		return false
	}
	c.autoFit = false
	if k := Clamp(t.K, c.minScale, c.maxScale); k != t.K {
		center := graph.Point{X: c.width / 2, Y: c.height / 2}
		p := t.Invert(center)
		t = Transform{X: center.X - p.X*k, Y: center.Y - p.Y*k, K: k}
	}
	return c.setTarget(t, false)
}

// CenterOnPositionedNode centers the camera on the node with the given id.
// Unknown ids are ignored.
func (c *Controller) CenterOnPositionedNode(id string, opts ...CenterOption) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.autoFit = false
	e, ok := c.scene.NodeExtent(id)
	if !ok {
		return false
	}
	return c.centerOn(e, opts)
}

// =============================================================================
// User Gestures
// =============================================================================

// Pan moves the visible transform by (dx, dy) screen pixels.
func (c *Controller) Pan(dx, dy float64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.interactionDisabled || !finite(dx) || !finite(dy) {
		return false
	}
	c.autoFit = false
	t := c.current()
	t.X += dx
	t.Y += dy
	return c.setTarget(t, false)
}

// ZoomAt scales by factor around a screen point, as a mouse wheel does.
func (c *Controller) ZoomAt(p graph.Point, factor float64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.interactionDisabled || !p.Finite() || !finite(factor) || factor <= 0 {
		return false
	}
	c.autoFit = false
	base := c.current()
	k := Clamp(base.K*factor, c.minScale, c.maxScale)
	w := base.Invert(p)
	return c.setTarget(Transform{X: p.X - w.X*k, Y: p.Y - w.Y*k, K: k}, false)
}

// =============================================================================
// Internals (callers hold c.mu)
// =============================================================================

func (c *Controller) current() Transform {
	return c.tr.at(c.clock.Now(), c.width, c.height)
}

func (c *Controller) setTarget(t Transform, animate bool) bool {
	if !t.Valid() || t.approxEqual(c.tr.to) {
		return false
	}
	now := c.clock.Now()
	next := transition{from: c.current(), to: t, start: now}
	if animate {
		next.duration = c.duration
	}
	c.tr = next
	return true
}

func (c *Controller) fitContent(padding float64) bool {
	bounds, ok := c.scene.Bounds()
	if !ok {
		return false
	}
	t, ok := fitTransform(bounds, c.width, c.height, padding, c.minScale, c.maxScale)
	if !ok {
		return false
	}
	return c.setTarget(t, true)
}

func (c *Controller) centerOn(e graph.Extent, opts []CenterOption) bool {
	if c.scene.Empty() || c.width <= 0 || c.height <= 0 || !e.Min.Finite() || !e.Max.Finite() {
		return false
	}
	cfg := centerConfig{zoom: c.tr.to.K}
	for _, opt := range opts {
		opt(&cfg)
	}
	if !finite(cfg.zoom) || cfg.zoom <= 0 {
		return false
	}
	k := Clamp(cfg.zoom, c.minScale, c.maxScale)
	ctr := e.Center()
	return c.setTarget(Transform{X: c.width/2 - ctr.X*k, Y: c.height/2 - ctr.Y*k, K: k}, false)
}

// maybeAutoFit fits the content once the scene changed shape and nobody has
// touched the camera since.
func (c *Controller) maybeAutoFit() {
	if !c.autoFit || c.scene.Empty() || c.width <= 0 || c.height <= 0 {
		return
	}
	for _, f := range c.scene.Nodes {
		if f.Depth == 0 && !graph.RectExtent(0, 0, f.Node.Width, f.Node.Height).Valid() {
			return
		}
	}
	c.fitContent(c.padding)
	c.autoFit = false
	c.logger.Debug("auto-fit", "transform", c.tr.to.String(), "nodes", len(c.scene.Nodes))
}

// Package viewport implements the pan/zoom camera of a diagram surface.
//
// A [Transform] maps content coordinates to screen coordinates as
// screen = content*K + (X, Y). A [Controller] owns one transform and exposes
// the imperative control surface a host wires to buttons or shortcuts:
//
//	c, _ := viewport.New(viewport.WithSize(800, 600))
//	c.SetScene(scene.Build(layout)) // auto-fits on first use
//	c.ScaleZoom(2)
//	c.CenterOnPositionedNode("orders")
//	c.ResetZoom()
//
// The scale always stays within the configured extent (default 0.1 to 4);
// commands clamp instead of failing. Degenerate input such as empty extents,
// zero-sized containers or non-finite factors leaves the camera unchanged.
//
// Fit commands animate over [DefaultDuration]; the current transform during
// a transition is read with [Controller.Transform] and the destination with
// [Controller.Target].
package viewport

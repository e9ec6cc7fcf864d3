package pipeline

import (
	"slices"

	"github.com/matzehuels/lineagraph/pkg/scene"
	"github.com/matzehuels/lineagraph/pkg/viewport"
)

// Camera computes the transform of a static document. An explicit
// Transform wins. Otherwise a controller sized like the document receives
// the scene and then every command in order. With an explicit size the
// scene is auto-fitted first; a document sized to its content starts at
// the identity.
func Camera(sc *scene.Scene, opts Options) (viewport.Transform, error) {
	if opts.Transform != nil {
		return opts.Transform.OrIdentity(), nil
	}
	sized := opts.Width > 0 && opts.Height > 0
	w, h := opts.Width, opts.Height
	if !sized {
		w, h = sc.Size()
	}

	ctrl, err := viewport.New(append(slices.Clone(opts.Viewport), viewport.WithDuration(0))...)
	if err != nil {
		return viewport.Identity, err
	}
	ctrl.SetScene(sc)
	if !sized {
		ctrl.ResetZoom()
	}
	ctrl.SetSize(w, h)

	for _, cmd := range opts.Camera {
		if _, err := ctrl.Apply(cmd); err != nil {
			return viewport.Identity, err
		}
	}
	return ctrl.Target().OrIdentity(), nil
}

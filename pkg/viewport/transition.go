package viewport

import (
	"math"
	"time"

	"github.com/matzehuels/lineagraph/pkg/graph"
)

// Clock supplies the current time to transitions.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// transition moves the camera from one transform to another over a fixed
// duration. The zero value is an idle transition.
type transition struct {
	from, to Transform
	start    time.Time
	duration time.Duration
}

// at returns the transform at time now for a w×h container.
func (tr transition) at(now time.Time, w, h float64) Transform {
	if tr.duration <= 0 {
		return tr.to
	}
	p := float64(now.Sub(tr.start)) / float64(tr.duration)
	if p >= 1 {
		return tr.to
	}
	if p <= 0 {
		return tr.from
	}
	return interpolate(tr.from, tr.to, easeCubicInOut(p), w, h)
}

func (tr transition) active(now time.Time) bool {
	return tr.duration > 0 && now.Before(tr.start.Add(tr.duration))
}

// interpolate blends two transforms by keeping the content point under the
// container center on a straight line while the scale changes geometrically.
func interpolate(a, b Transform, p, w, h float64) Transform {
	center := graph.Point{X: w / 2, Y: h / 2}
	ca, cb := a.Invert(center), b.Invert(center)
	k := a.K * math.Pow(b.K/a.K, p)
	c := graph.Point{X: ca.X + (cb.X-ca.X)*p, Y: ca.Y + (cb.Y-ca.Y)*p}
	t := Transform{X: center.X - c.X*k, Y: center.Y - c.Y*k, K: k}
	if !t.Valid() {
		return b
	}
	return t
}

func easeCubicInOut(t float64) float64 {
	t *= 2
	if t <= 1 {
		return t * t * t / 2
	}
	t -= 2
	return (t*t*t + 2) / 2
}

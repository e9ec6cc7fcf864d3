package render

import (
	svg "github.com/ajstarks/svgo/float"

	"github.com/matzehuels/lineagraph/pkg/graph"
)

// DotPatternID is the id of the dot grid pattern.
const DotPatternID = "lineage-graph-dots"

// Background defaults.
const (
	DefaultBackgroundColor = "#fafafa"
	DefaultDotGridColor    = "#bdbdbd"
	dotGap                 = 16.0
	dotMinScreenGap        = 12.0
	dotScreenRadius        = 1.0
)

// DotGap returns the pattern spacing in content units at zoom k. The gap
// doubles until it is at least dotMinScreenGap pixels on screen, so zooming
// out thins the grid instead of filling it.
func DotGap(k float64) float64 {
	gap := dotGap
	if !(k > 0) || !finite(k) {
		return gap
	}
	for gap*k < dotMinScreenGap {
		gap *= 2
	}
	return gap
}

// writeDotPattern defines the background pattern. It belongs inside <defs>.
func writeDotPattern(canvas *svg.SVG, k float64, background, dots string, hideDots bool) {
	gap := DotGap(k)
	canvas.Pattern(DotPatternID, 0, 0, gap, gap, "user")
	canvas.Rect(0, 0, gap, gap, attr("fill", background))
	if !hideDots {
		r := dotScreenRadius
		if k > 0 && finite(k) {
			r /= k
		}
		canvas.Circle(gap/2, gap/2, r, attr("fill", dots))
	}
	canvas.PatternEnd()
}

// fillBackground covers area, given in content units, with the pattern.
func fillBackground(canvas *svg.SVG, area graph.Extent) {
	x, y, w, h := area.Rect()
	canvas.Rect(x, y, w, h, attr("fill", "url(#"+DotPatternID+")"), `class="lineage-graph-background"`)
}

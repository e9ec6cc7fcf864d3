package cli

import (
	"math"
	"strings"

	"github.com/matzehuels/lineagraph/pkg/graph"
	"github.com/matzehuels/lineagraph/pkg/minimap"
	"github.com/matzehuels/lineagraph/pkg/render"
	"github.com/matzehuels/lineagraph/pkg/scene"
	"github.com/matzehuels/lineagraph/pkg/viewport"
)

// Terminal cells stand for cellWidth×cellHeight screen pixels, so the
// camera works in the same units as an SVG document of the same size.
const (
	cellWidth  = 8.0
	cellHeight = 16.0
)

// raster is a character grid the viewer draws into.
type raster struct {
	cols, rows int
	cells      [][]rune
}

func newRaster(cols, rows int) *raster {
	cols, rows = max(cols, 0), max(rows, 0)
	r := &raster{cols: cols, rows: rows, cells: make([][]rune, rows)}
	for y := range r.cells {
		r.cells[y] = []rune(strings.Repeat(" ", cols))
	}
	return r
}

func (r *raster) set(x, y int, c rune) {
	if x >= 0 && y >= 0 && x < r.cols && y < r.rows {
		r.cells[y][x] = c
	}
}

// setEmpty writes c only over blank cells.
func (r *raster) setEmpty(x, y int, c rune) {
	if x >= 0 && y >= 0 && x < r.cols && y < r.rows && r.cells[y][x] == ' ' {
		r.cells[y][x] = c
	}
}

func (r *raster) String() string {
	lines := make([]string, r.rows)
	for y, row := range r.cells {
		lines[y] = string(row)
	}
	return strings.Join(lines, "\n")
}

// cellRect converts a screen-pixel extent to inclusive cell bounds.
func cellRect(e graph.Extent) (x0, y0, x1, y1 int) {
	x0 = int(math.Floor(e.Min.X / cellWidth))
	y0 = int(math.Floor(e.Min.Y / cellHeight))
	x1 = int(math.Ceil(e.Max.X/cellWidth)) - 1
	y1 = int(math.Ceil(e.Max.Y/cellHeight)) - 1
	return x0, y0, max(x1, x0), max(y1, y0)
}

func cellPoint(p graph.Point) (int, int) {
	return int(math.Floor(p.X / cellWidth)), int(math.Floor(p.Y / cellHeight))
}

type boxStyle struct{ tl, tr, bl, br, h, v rune }

var (
	boxLight = boxStyle{'┌', '┐', '└', '┘', '─', '│'}
	boxRound = boxStyle{'╭', '╮', '╰', '╯', '─', '│'}
	boxHeavy = boxStyle{'┏', '┓', '┗', '┛', '━', '┃'}
)

func (r *raster) box(x0, y0, x1, y1 int, s boxStyle) {
	for x := x0 + 1; x < x1; x++ {
		r.set(x, y0, s.h)
		r.set(x, y1, s.h)
	}
	for y := y0 + 1; y < y1; y++ {
		r.set(x0, y, s.v)
		r.set(x1, y, s.v)
	}
	r.set(x0, y0, s.tl)
	r.set(x1, y0, s.tr)
	r.set(x0, y1, s.bl)
	r.set(x1, y1, s.br)
}

func (r *raster) fill(x0, y0, x1, y1 int, c rune) {
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			r.set(x, y, c)
		}
	}
}

// text writes s starting at (x, y), clipped to maxWidth cells.
func (r *raster) text(x, y int, s string, maxWidth int) {
	i := 0
	for _, c := range s {
		if i >= maxWidth {
			break
		}
		r.set(x+i, y, c)
		i++
	}
}

// line draws a Bresenham line over blank cells.
func (r *raster) line(ax, ay, bx, by int, c rune) {
	dx, dy := abs(bx-ax), -abs(by-ay)
	sx, sy := sign(bx-ax), sign(by-ay)
	e := dx + dy
	for {
		r.setEmpty(ax, ay, c)
		if ax == bx && ay == by {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			ax += sx
		}
		if e2 <= dx {
			e += dx
			ay += sy
		}
	}
}

// drawScene rasterizes nodes, containers first, and then edges into the
// cells left blank. Labels are drawn when the box has room for them.
func (r *raster) drawScene(s *scene.Scene, t viewport.Transform) {
	if s.Empty() {
		return
	}
	for _, f := range s.Nodes {
		e := f.Extent()
		x0, y0, x1, y1 := cellRect(graph.Extent{Min: t.Apply(e.Min), Max: t.Apply(e.Max)})
		style := boxRound
		if len(f.Node.Children) > 0 {
			style = boxLight
		}
		r.fill(x0, y0, x1, y1, ' ')
		r.box(x0, y0, x1, y1, style)

		label := render.Label(f.Node)
		inner := x1 - x0 - 1
		switch {
		case inner <= 0:
		case len(f.Node.Children) > 0:
			r.text(x0+1, y0, label, inner)
		case y1-y0 >= 2:
			n := min(len([]rune(label)), inner)
			r.text(x0+1+(inner-n)/2, (y0+y1)/2, label, inner)
		}
	}
	for _, e := range s.Edges {
		pts := e.Points()
		for i := 1; i < len(pts); i++ {
			ax, ay := cellPoint(t.Apply(pts[i-1]))
			bx, by := cellPoint(t.Apply(pts[i]))
			r.line(ax, ay, bx, by, '·')
		}
	}
}

// drawMiniMap draws the overview with its lens. It reports whether there
// was room for it.
func (r *raster) drawMiniMap(s *scene.Scene, t viewport.Transform, p minimap.Placement, scale float64) bool {
	cw, ch := s.Size()
	proj, ok := minimap.Project(minimap.Input{
		ContainerWidth:  float64(r.cols) * cellWidth,
		ContainerHeight: float64(r.rows) * cellHeight,
		ContentWidth:    cw,
		ContentHeight:   ch,
		Scale:           scale,
		Transform:       t,
		Placement:       p,
		Margin:          cellHeight,
	})
	if !ok {
		return false
	}
	bx0, by0, bx1, by1 := cellRect(proj.Bounds())
	if bx1-bx0 < 3 || by1-by0 < 2 {
		return false
	}
	r.fill(bx0, by0, bx1, by1, ' ')
	for _, f := range s.Nodes {
		if len(f.Node.Children) > 0 {
			continue
		}
		x0, y0, x1, y1 := cellRect(proj.Map(f.Extent()))
		r.fill(max(x0, bx0+1), max(y0, by0+1), min(x1, bx1-1), min(y1, by1-1), '▒')
	}
	lx0, ly0, lx1, ly1 := cellRect(proj.ScreenLens())
	r.box(max(lx0, bx0), max(ly0, by0), min(lx1, bx1), min(ly1, by1), boxLight)
	r.box(bx0, by0, bx1, by1, boxHeavy)
	return true
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

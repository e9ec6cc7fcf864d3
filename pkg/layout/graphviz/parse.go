package graphviz

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/matzehuels/lineagraph/pkg/graph"
)

// Graphviz reports geometry in points with the origin at the bottom left.
// These helpers parse its attribute strings; callers flip y afterwards.

func parsePoint(s string) (graph.Point, error) {
	parts := strings.Split(strings.TrimSpace(s), ",")
	if len(parts) < 2 {
		return graph.Point{}, fmt.Errorf("invalid point %q", s)
	}
	x, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return graph.Point{}, fmt.Errorf("invalid point %q: %w", s, err)
	}
	y, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return graph.Point{}, fmt.Errorf("invalid point %q: %w", s, err)
	}
	return graph.Point{X: x, Y: y}, nil
}

// parseBox parses a "llx,lly,urx,ury" bounding box.
func parseBox(s string) (graph.Extent, error) {
	parts := strings.Split(strings.TrimSpace(s), ",")
	if len(parts) != 4 {
		return graph.Extent{}, fmt.Errorf("invalid bounding box %q", s)
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return graph.Extent{}, fmt.Errorf("invalid bounding box %q: %w", s, err)
		}
		v[i] = f
	}
	return graph.NewExtent(v[0], v[1], v[2], v[3]), nil
}

// parseInches parses a size attribute in inches and returns points.
func parseInches(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", s, err)
	}
	return v * pointsPerInch, nil
}

// spline is an edge route: the path endpoints and the B-spline control
// points between them.
type spline struct {
	start, end graph.Point
	controls   []graph.Point
}

// parseSpline parses an edge pos attribute of the form
// "[s,x,y ][e,x,y ]p0 c1 c2 p1 c3 c4 p2 ...". Only the first spline of a
// ';'-separated list is read.
func parseSpline(s string) (spline, error) {
	first, _, _ := strings.Cut(strings.TrimSpace(s), ";")
	var sp spline
	var hasStart, hasEnd bool
	for _, field := range strings.Fields(first) {
		switch {
		case strings.HasPrefix(field, "s,"):
			p, err := parsePoint(field[2:])
			if err != nil {
				return spline{}, err
			}
			sp.start, hasStart = p, true
		case strings.HasPrefix(field, "e,"):
			p, err := parsePoint(field[2:])
			if err != nil {
				return spline{}, err
			}
			sp.end, hasEnd = p, true
		default:
			p, err := parsePoint(field)
			if err != nil {
				return spline{}, err
			}
			sp.controls = append(sp.controls, p)
		}
	}
	if len(sp.controls) == 0 {
		return spline{}, fmt.Errorf("invalid edge position %q", s)
	}
	if !hasStart {
		sp.start = sp.controls[0]
	}
	if !hasEnd {
		sp.end = sp.controls[len(sp.controls)-1]
	}
	return sp, nil
}

// bends returns the on-curve points strictly between the first and last
// control point. They are the corners of the route.
func (sp spline) bends() []graph.Point {
	var out []graph.Point
	for i := 3; i < len(sp.controls)-1; i += 3 {
		out = append(out, sp.controls[i])
	}
	return out
}

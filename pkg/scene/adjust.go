package scene

import (
	"slices"

	"github.com/matzehuels/lineagraph/pkg/graph"
)

// AdjustEdges moves edge geometry from container space into canvas space by
// adding the container's absolute offset to every point and to the label
// anchor. Unknown containers fall back to (0,0). Edges whose source or
// target is not in idx are dropped. Input edges are not modified.
func AdjustEdges(edges []graph.PositionedEdge, offsets map[string]graph.Point, idx Index) []graph.PositionedEdge {
	out := make([]graph.PositionedEdge, 0, len(edges))
	for _, e := range edges {
		if _, ok := idx[e.SourceNodeID]; !ok {
			continue
		}
		if _, ok := idx[e.TargetNodeID]; !ok {
			continue
		}
		out = append(out, shift(e, offsets[e.Container]))
	}
	return out
}

func shift(e graph.PositionedEdge, d graph.Point) graph.PositionedEdge {
	e.StartPoint = e.StartPoint.Add(d)
	e.EndPoint = e.EndPoint.Add(d)
	if e.BendPoints != nil {
		e.BendPoints = slices.Clone(e.BendPoints)
		for i := range e.BendPoints {
			e.BendPoints[i] = e.BendPoints[i].Add(d)
		}
	}
	if e.Label != nil {
		l := *e.Label
		l.X += d.X
		l.Y += d.Y
		e.Label = &l
	}
	return e
}

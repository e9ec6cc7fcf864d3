package scene

import "github.com/matzehuels/lineagraph/pkg/graph"

// FlattenedNode is a positioned node together with its placement in canvas
// space. It is derived from a layout and never persisted.
type FlattenedNode struct {
	Node     *graph.PositionedNode
	ParentID string // empty for top-level nodes
	Depth    int
	Relative graph.Point
	Absolute graph.Point
}

// Extent returns the node's absolute bounding box.
func (f FlattenedNode) Extent() graph.Extent {
	return graph.RectExtent(f.Absolute.X, f.Absolute.Y, f.Node.Width, f.Node.Height)
}

// Flatten walks a positioned tree depth-first, parents before children, and
// accumulates each node's absolute position from its ancestors. The implicit
// root sits at (0,0).
func Flatten(nodes []graph.PositionedNode) []FlattenedNode {
	out := make([]FlattenedNode, 0, len(nodes))
	var walk func(nodes []graph.PositionedNode, parentID string, origin graph.Point, depth int)
	walk = func(nodes []graph.PositionedNode, parentID string, origin graph.Point, depth int) {
		for i := range nodes {
			n := &nodes[i]
			abs := origin.Add(n.BottomLeftCorner)
			out = append(out, FlattenedNode{
				Node:     n,
				ParentID: parentID,
				Depth:    depth,
				Relative: n.BottomLeftCorner,
				Absolute: abs,
			})
			walk(n.Children, n.ID, abs, depth+1)
		}
	}
	walk(nodes, "", graph.Point{}, 0)
	return out
}

// Index looks flattened nodes up by id.
type Index map[string]FlattenedNode

// NewIndex indexes flattened nodes by id. Later duplicates win.
func NewIndex(flat []FlattenedNode) Index {
	idx := make(Index, len(flat))
	for _, f := range flat {
		idx[f.Node.ID] = f
	}
	return idx
}

// Lookup returns the flattened node with the given id.
func (idx Index) Lookup(id string) (FlattenedNode, bool) {
	f, ok := idx[id]
	return f, ok
}

// Offsets maps every node id to its absolute origin. The root sentinel and
// any extra ids (such as the graph id the engine used for the canvas) map to
// (0,0) unless a node of the same id exists.
func Offsets(flat []FlattenedNode, rootIDs ...string) map[string]graph.Point {
	offsets := make(map[string]graph.Point, len(flat)+1+len(rootIDs))
	offsets[graph.RootContainer] = graph.Point{}
	for _, id := range rootIDs {
		offsets[id] = graph.Point{}
	}
	for _, f := range flat {
		offsets[f.Node.ID] = f.Absolute
	}
	return offsets
}

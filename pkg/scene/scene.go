package scene

import (
	"math"
	"strconv"
	"strings"

	"github.com/matzehuels/lineagraph/pkg/graph"
)

// Scene is a layout expanded into canvas space: every node with its absolute
// position, an id index, and edges adjusted into the same space.
type Scene struct {
	Layout      *graph.Layout
	Nodes       []FlattenedNode
	Index       Index
	Offsets     map[string]graph.Point
	Edges       []graph.PositionedEdge
	Fingerprint string
}

// Build flattens l and adjusts its edges. rootIDs are extra container ids
// that denote the canvas itself.
func Build(l *graph.Layout, rootIDs ...string) *Scene {
	if l == nil {
		l = graph.EmptyLayout()
	}
	flat := Flatten(l.Nodes)
	idx := NewIndex(flat)
	offsets := Offsets(flat, rootIDs...)
	return &Scene{
		Layout:      l,
		Nodes:       flat,
		Index:       idx,
		Offsets:     offsets,
		Edges:       AdjustEdges(l.Edges, offsets, idx),
		Fingerprint: Fingerprint(flat),
	}
}

// Empty reports whether the scene has no nodes.
func (s *Scene) Empty() bool { return s == nil || len(s.Nodes) == 0 }

// Bounds returns the bounding box of the top-level nodes. Nodes with
// non-finite or non-positive sizes are skipped. ok is false when no node
// contributes.
func (s *Scene) Bounds() (graph.Extent, bool) {
	if s.Empty() {
		return graph.Extent{}, false
	}
	var (
		box   graph.Extent
		found bool
	)
	for _, f := range s.Nodes {
		if f.Depth > 0 {
			continue
		}
		e := f.Extent()
		if !e.Valid() {
			continue
		}
		if !found {
			box, found = e, true
			continue
		}
		box = box.Union(e)
	}
	return box, found
}

// Size returns the content size. The layout's own size wins when positive;
// otherwise the far corner of the node bounds is used.
func (s *Scene) Size() (w, h float64) {
	if s.Empty() {
		return 0, 0
	}
	w, h = s.Layout.Width, s.Layout.Height
	if w > 0 && h > 0 {
		return w, h
	}
	if b, ok := s.Bounds(); ok {
		return math.Max(w, b.Max.X), math.Max(h, b.Max.Y)
	}
	return w, h
}

// NodeExtent returns the absolute bounding box of the node with the given id.
func (s *Scene) NodeExtent(id string) (graph.Extent, bool) {
	if s == nil {
		return graph.Extent{}, false
	}
	f, ok := s.Index.Lookup(id)
	if !ok {
		return graph.Extent{}, false
	}
	return f.Extent(), true
}

// Fingerprint identifies a placement by node ids, positions and sizes. Two layouts with equal fingerprints look the same on screen.
func Fingerprint(flat []FlattenedNode) string {
	var b strings.Builder
	for i, f := range flat {
		if i > 0 {
			b.WriteByte('|')
		}
		b.WriteString(f.Node.ID)
		b.WriteByte(':')
		b.WriteString(strconv.FormatFloat(f.Relative.X, 'f', -1, 64))
		b.WriteByte(':')
		b.WriteString(strconv.FormatFloat(f.Relative.Y, 'f', -1, 64))
		b.WriteByte(':')
		b.WriteString(strconv.FormatFloat(f.Node.Width, 'f', -1, 64))
		b.WriteByte(':')
		b.WriteString(strconv.FormatFloat(f.Node.Height, 'f', -1, 64))
	}
	return b.String()
}

// Memo rebuilds a scene only when the layout pointer changes.
// It is not safe for concurrent use.
type Memo struct {
	rootIDs []string
	last    *graph.Layout
	scene   *Scene
}

// NewMemo creates a memo that passes rootIDs to [Build].
func NewMemo(rootIDs ...string) *Memo {
	return &Memo{rootIDs: rootIDs}
}

// Get returns the scene for l, reusing the previous one when l is the same
// layout value.
func (m *Memo) Get(l *graph.Layout) *Scene {
	if m.scene != nil && m.last == l {
		return m.scene
	}
	m.last = l
	m.scene = Build(l, m.rootIDs...)
	return m.scene
}

package scene

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/matzehuels/lineagraph/pkg/graph"
)

func pt(x, y float64) graph.Point { return graph.Point{X: x, Y: y} }

func nestedLayout() *graph.Layout {
	return &graph.Layout{
		Nodes: []graph.PositionedNode{
			{
				ID: "root-node", BottomLeftCorner: pt(10, 20), Width: 200, Height: 100,
				Children: []graph.PositionedNode{
					{ID: "child", BottomLeftCorner: pt(15, 25), Width: 50, Height: 30},
				},
			},
			{ID: "sibling", BottomLeftCorner: pt(300, 0), Width: 40, Height: 40},
		},
		Edges: []graph.PositionedEdge{
			{ID: "e1", SourceNodeID: "child", TargetNodeID: "sibling", Container: graph.RootContainer,
				StartPoint: pt(75, 70), EndPoint: pt(300, 20)},
			{ID: "e2", SourceNodeID: "child", TargetNodeID: "gone", Container: graph.RootContainer},
		},
		Width: 340, Height: 120,
	}
}

func TestFlattenChildAbsolutePosition(t *testing.T) {
	flat := Flatten(nestedLayout().Nodes)
	if len(flat) != 3 {
		t.Fatalf("len = %d, want 3", len(flat))
	}

	idx := NewIndex(flat)
	child, ok := idx.Lookup("child")
	if !ok {
		t.Fatal("child not indexed")
	}
	if child.Absolute != pt(25, 45) {
		t.Errorf("child absolute = %v, want (25,45)", child.Absolute)
	}
	if child.Relative != pt(15, 25) {
		t.Errorf("child relative = %v", child.Relative)
	}
	if child.ParentID != "root-node" || child.Depth != 1 {
		t.Errorf("parent = %q depth = %d", child.ParentID, child.Depth)
	}
	if flat[0].Node.ID != "root-node" || flat[1].Node.ID != "child" {
		t.Errorf("order = %s, %s; want parent before child", flat[0].Node.ID, flat[1].Node.ID)
	}
}

func TestFlattenEmpty(t *testing.T) {
	if got := Flatten(nil); len(got) != 0 {
		t.Errorf("Flatten(nil) = %v", got)
	}
}

func TestOffsets(t *testing.T) {
	flat := Flatten(nestedLayout().Nodes)
	offsets := Offsets(flat, "graph-1")

	tests := map[string]graph.Point{
		graph.RootContainer: pt(0, 0),
		"graph-1":           pt(0, 0),
		"root-node":         pt(10, 20),
		"child":             pt(25, 45),
	}
	for id, want := range tests {
		if got, ok := offsets[id]; !ok || got != want {
			t.Errorf("offsets[%q] = %v (%v), want %v", id, got, ok, want)
		}
	}
}

func TestAdjustEdges(t *testing.T) {
	idx := Index{
		"a": {Node: &graph.PositionedNode{ID: "a"}},
		"b": {Node: &graph.PositionedNode{ID: "b"}},
	}
	offsets := map[string]graph.Point{"group": pt(10, 20), graph.RootContainer: {}}

	edges := []graph.PositionedEdge{
		{ID: "in-group", SourceNodeID: "a", TargetNodeID: "b", Container: "group",
			StartPoint: pt(1, 2), EndPoint: pt(5, 6), BendPoints: []graph.Point{pt(3, 4)},
			Label: &graph.EdgeLabel{Text: "l", X: 2, Y: 3}},
		{ID: "unknown-container", SourceNodeID: "a", TargetNodeID: "b", Container: "nowhere",
			StartPoint: pt(1, 2), EndPoint: pt(5, 6)},
		{ID: "dangling", SourceNodeID: "a", TargetNodeID: "missing", Container: "group"},
		{ID: "dangling-source", SourceNodeID: "missing", TargetNodeID: "b", Container: "group"},
	}

	got := AdjustEdges(edges, offsets, idx)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2 (dangling edges dropped)", len(got))
	}

	e := got[0]
	if e.StartPoint != pt(11, 22) || e.EndPoint != pt(15, 26) {
		t.Errorf("points = %v -> %v, want (11,22) -> (15,26)", e.StartPoint, e.EndPoint)
	}
	if e.BendPoints[0] != pt(13, 24) {
		t.Errorf("bend = %v, want (13,24)", e.BendPoints[0])
	}
	if e.Label.X != 12 || e.Label.Y != 23 {
		t.Errorf("label = %+v", e.Label)
	}
	if got[1].StartPoint != pt(1, 2) {
		t.Errorf("unknown container should use (0,0), got %v", got[1].StartPoint)
	}

	// Input is untouched.
	if edges[0].StartPoint != pt(1, 2) || edges[0].BendPoints[0] != pt(3, 4) || edges[0].Label.X != 2 {
		t.Errorf("input mutated: %+v", edges[0])
	}
}

func TestBuild(t *testing.T) {
	s := Build(nestedLayout())

	if len(s.Edges) != 1 || s.Edges[0].ID != "e1" {
		t.Errorf("edges = %+v, want only e1", s.Edges)
	}
	b, ok := s.Bounds()
	if !ok {
		t.Fatal("Bounds not found")
	}
	if b != graph.NewExtent(10, 0, 340, 120) {
		t.Errorf("Bounds = %v", b)
	}
	if w, h := s.Size(); w != 340 || h != 120 {
		t.Errorf("Size = %vx%v", w, h)
	}
	e, ok := s.NodeExtent("child")
	if !ok || e != graph.NewExtent(25, 45, 75, 75) {
		t.Errorf("NodeExtent(child) = %v %v", e, ok)
	}
	if _, ok := s.NodeExtent("missing"); ok {
		t.Error("NodeExtent(missing) should fail")
	}
}

func TestBuildNil(t *testing.T) {
	s := Build(nil)
	if !s.Empty() {
		t.Error("Build(nil) should be empty")
	}
	if _, ok := s.Bounds(); ok {
		t.Error("empty scene has no bounds")
	}
	if w, h := s.Size(); w != 0 || h != 0 {
		t.Errorf("Size = %vx%v", w, h)
	}
}

func TestBoundsSkipsInvalidNodes(t *testing.T) {
	s := Build(&graph.Layout{Nodes: []graph.PositionedNode{
		{ID: "ok", BottomLeftCorner: pt(0, 0), Width: 10, Height: 10},
		{ID: "flat", BottomLeftCorner: pt(100, 100), Width: 0, Height: 10},
	}})
	b, ok := s.Bounds()
	if !ok || b != graph.NewExtent(0, 0, 10, 10) {
		t.Errorf("Bounds = %v %v", b, ok)
	}
	if w, h := s.Size(); w != 10 || h != 10 {
		t.Errorf("Size from bounds = %vx%v", w, h)
	}
}

func TestFingerprint(t *testing.T) {
	a := Build(nestedLayout())
	b := Build(nestedLayout())
	if a.Fingerprint != b.Fingerprint {
		t.Error("equal layouts should share a fingerprint")
	}

	moved := nestedLayout()
	moved.Nodes[0].Children[0].BottomLeftCorner.X += 0.5
	if Build(moved).Fingerprint == a.Fingerprint {
		t.Error("moving a child should change the fingerprint")
	}

	resized := nestedLayout()
	resized.Nodes[0].Children[0].Height = 31
	if Build(resized).Fingerprint == a.Fingerprint {
		t.Error("resizing a child should change the fingerprint")
	}

	jitter := nestedLayout()
	jitter.Nodes[1].BottomLeftCorner.X += 0.01
	if Build(jitter).Fingerprint == a.Fingerprint {
		t.Error("sub-decimal movement should change the fingerprint")
	}

	want := "root-node:10:20:200:100|child:15:25:50:30|sibling:300:0:40:40"
	if a.Fingerprint != want {
		t.Errorf("Fingerprint = %q, want %q", a.Fingerprint, want)
	}
}

func TestMemo(t *testing.T) {
	m := NewMemo()
	l := nestedLayout()

	s1 := m.Get(l)
	s2 := m.Get(l)
	if s1 != s2 {
		t.Error("same layout pointer should reuse the scene")
	}
	if s3 := m.Get(nestedLayout()); s3 == s1 {
		t.Error("new layout pointer should rebuild the scene")
	}
}

// chain builds a single nested path whose relative offsets are xs[i], ys[i].
func chain(xs, ys []int) []graph.PositionedNode {
	n := min(len(xs), len(ys))
	var children []graph.PositionedNode
	for i := n - 1; i >= 0; i-- {
		children = []graph.PositionedNode{{
			ID:               string(rune('a' + i%26)) + string(rune('0'+i/26)),
			BottomLeftCorner: pt(float64(xs[i]), float64(ys[i])),
			Width:            10, Height: 10,
			Children: children,
		}}
	}
	return children
}

func TestFlattenProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	offsets := gen.SliceOfN(20, gen.IntRange(-500, 500))

	properties.Property("one entry per node", prop.ForAll(
		func(xs, ys []int) bool {
			nodes := chain(xs, ys)
			return len(Flatten(nodes)) == min(len(xs), len(ys))
		},
		offsets, offsets,
	))

	properties.Property("absolute equals sum of ancestor offsets", prop.ForAll(
		func(xs, ys []int) bool {
			flat := Flatten(chain(xs, ys))
			var sx, sy float64
			for i, f := range flat {
				sx += float64(xs[i])
				sy += float64(ys[i])
				if f.Absolute != pt(sx, sy) {
					return false
				}
			}
			return true
		},
		offsets, offsets,
	))

	properties.Property("adjust never mutates input", prop.ForAll(
		func(dx, dy int) bool {
			idx := Index{"a": {Node: &graph.PositionedNode{ID: "a"}}}
			in := []graph.PositionedEdge{{SourceNodeID: "a", TargetNodeID: "a", Container: "c",
				StartPoint: pt(1, 1), BendPoints: []graph.Point{pt(2, 2)}}}
			out := AdjustEdges(in, map[string]graph.Point{"c": pt(float64(dx), float64(dy))}, idx)
			return in[0].StartPoint == pt(1, 1) && in[0].BendPoints[0] == pt(2, 2) &&
				out[0].StartPoint == pt(1+float64(dx), 1+float64(dy))
		},
		gen.IntRange(-1000, 1000), gen.IntRange(-1000, 1000),
	))

	properties.TestingRun(t)
}

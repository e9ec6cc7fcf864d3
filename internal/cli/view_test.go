package cli

import (
	"context"
	"strings"
	"testing"

	"github.com/matzehuels/lineagraph/pkg/graph"
	"github.com/matzehuels/lineagraph/pkg/layout"
	"github.com/matzehuels/lineagraph/pkg/minimap"
	"github.com/matzehuels/lineagraph/pkg/scene"
	"github.com/matzehuels/lineagraph/pkg/viewport"
)

func testLayout() *graph.Layout {
	return &graph.Layout{
		Nodes: []graph.PositionedNode{
			{ID: "orders", Width: 160, Height: 64, Data: map[string]any{"name": "orders"}},
			{ID: "report", BottomLeftCorner: graph.Point{X: 320}, Width: 160, Height: 64},
		},
		Edges: []graph.PositionedEdge{
			{ID: "e1", SourceNodeID: "orders", TargetNodeID: "report", Container: graph.RootContainer,
				StartPoint: graph.Point{X: 160, Y: 32}, EndPoint: graph.Point{X: 320, Y: 32}},
		},
		Width: 480, Height: 64,
	}
}

func newTestViewModel(t *testing.T) *viewModel {
	t.Helper()
	ctrl, err := viewport.New(viewport.WithDuration(0))
	if err != nil {
		t.Fatalf("viewport.New() error: %v", err)
	}
	return &viewModel{
		ctx:       context.Background(),
		ctrl:      ctrl,
		memo:      scene.NewMemo(),
		dir:       graph.DirectionRight,
		padding:   viewport.DefaultPadding,
		placement: minimap.None,
	}
}

func TestDrawScene(t *testing.T) {
	r := newRaster(80, 10)
	r.drawScene(scene.Build(testLayout()), viewport.Identity)
	out := r.String()

	if got := len(strings.Split(out, "\n")); got != 10 {
		t.Errorf("rows = %d, want 10", got)
	}
	for _, want := range []string{"╭", "╯", "orders", "report", "·"} {
		if !strings.Contains(out, want) {
			t.Errorf("raster missing %q:\n%s", want, out)
		}
	}
}

func TestDrawSceneEmpty(t *testing.T) {
	r := newRaster(4, 2)
	r.drawScene(scene.Build(nil), viewport.Identity)
	if got := r.String(); got != "    \n    " {
		t.Errorf("empty raster = %q", got)
	}
}

func TestDrawMiniMap(t *testing.T) {
	sc := scene.Build(testLayout())
	r := newRaster(120, 40)
	if !r.drawMiniMap(sc, viewport.Identity, minimap.TopRight, 0.5) {
		t.Fatal("drawMiniMap() = false, want true")
	}
	if !strings.Contains(r.String(), "┏") {
		t.Errorf("minimap frame missing:\n%s", r.String())
	}

	r = newRaster(120, 40)
	if r.drawMiniMap(sc, viewport.Identity, minimap.None, 0.5) {
		t.Error("drawMiniMap() with placement none = true")
	}
}

func TestLine(t *testing.T) {
	r := newRaster(5, 5)
	r.set(2, 2, 'x')
	r.line(0, 0, 4, 4, '*')
	want := "*    \n *   \n  x  \n   * \n    *"
	if got := r.String(); got != want {
		t.Errorf("line =\n%s\nwant\n%s", got, want)
	}
}

func TestNextDirection(t *testing.T) {
	seen := map[graph.Direction]bool{}
	d := graph.Direction("")
	for range graph.Directions {
		d = nextDirection(d)
		seen[d] = true
	}
	if len(seen) != len(graph.Directions) {
		t.Errorf("visited %d directions, want %d", len(seen), len(graph.Directions))
	}
}

func TestViewModelKeys(t *testing.T) {
	m := newTestViewModel(t)
	m.setState(layout.State{Layout: testLayout()})
	m.resize(100, 30)

	if len(m.ids) != 2 {
		t.Fatalf("ids = %v, want 2 nodes", m.ids)
	}
	before := m.ctrl.Transform()
	if m.key("+") {
		t.Fatal("key(+) quit")
	}
	if after := m.ctrl.Transform(); after.K <= before.K {
		t.Errorf("zoom in: k %g -> %g", before.K, after.K)
	}

	m.key("n")
	if m.status != "centered orders" {
		t.Errorf("status = %q", m.status)
	}
	m.key("n")
	if m.status != "centered report" {
		t.Errorf("status = %q", m.status)
	}

	m.key("0")
	if k := m.ctrl.Transform().K; k != 1 {
		t.Errorf("reset zoom: k = %g, want 1", k)
	}
	for _, k := range []string{"q", "esc", "ctrl+c"} {
		if !m.key(k) {
			t.Errorf("key(%s) did not quit", k)
		}
	}
}

func TestViewModelView(t *testing.T) {
	m := newTestViewModel(t)
	if got := m.View(); got != "" {
		t.Errorf("View() before size = %q", got)
	}

	m.resize(100, 30)
	m.setState(layout.State{IsRendering: true})
	out := m.View()
	for _, want := range []string{"No data", "0 nodes", "laying out"} {
		if !strings.Contains(out, want) {
			t.Errorf("View() missing %q", want)
		}
	}

	m.setState(layout.State{Layout: testLayout()})
	out = m.View()
	for _, want := range []string{"orders", "2 nodes", "dir right"} {
		if !strings.Contains(out, want) {
			t.Errorf("View() missing %q", want)
		}
	}
}

package graph

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/lineagraph/pkg/errors"
)

const sampleJSON = `{
  "nodes": [
    {"id": "warehouse", "kind": "group", "children": [
      {"id": "orders", "kind": "dataset"},
      {"id": "customers", "kind": "dataset"}
    ]},
    {"id": "etl", "kind": "job", "data": {"owner": "data-eng"}}
  ],
  "edges": [
    {"id": "e1", "source_node_id": "orders", "target_node_id": "etl", "is_animated": true},
    {"id": "e2", "source_node_id": "customers", "target_node_id": "etl", "kind": "straight"}
  ],
  "direction": "left"
}`

const sampleYAML = `
nodes:
  - id: warehouse
    kind: group
    children:
      - id: orders
        kind: dataset
      - id: customers
        kind: dataset
  - id: etl
    kind: job
    data:
      owner: data-eng
edges:
  - id: e1
    source_node_id: orders
    target_node_id: etl
    is_animated: true
  - id: e2
    source_node_id: customers
    target_node_id: etl
    kind: straight
direction: left
`

func TestReadGraph(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		format string
	}{
		{"JSON", sampleJSON, FormatJSON},
		{"YAML", sampleYAML, FormatYAML},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := ReadGraph(strings.NewReader(tt.input), tt.format)
			if err != nil {
				t.Fatalf("ReadGraph: %v", err)
			}
			if got := g.NodeCount(); got != 4 {
				t.Errorf("NodeCount = %d, want 4", got)
			}
			if len(g.Edges) != 2 {
				t.Errorf("edges = %d, want 2", len(g.Edges))
			}
			if g.Direction != DirectionLeft {
				t.Errorf("Direction = %q, want left", g.Direction)
			}
			if !g.Nodes[0].IsContainer() {
				t.Error("warehouse should be a container")
			}
			if !g.Edges[0].IsAnimated || g.Edges[1].Kind != EdgeStraight {
				t.Errorf("edge attributes not decoded: %+v", g.Edges)
			}
			data, ok := g.Nodes[1].Data.(map[string]any)
			if !ok || data["owner"] != "data-eng" {
				t.Errorf("Data = %#v", g.Nodes[1].Data)
			}
		})
	}
}

func TestReadGraphValidation(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"duplicate nested id", `{"nodes":[{"id":"a","children":[{"id":"a"}]}],"edges":[]}`},
		{"missing node id", `{"nodes":[{"kind":"job"}],"edges":[]}`},
		{"missing edge target", `{"nodes":[{"id":"a"}],"edges":[{"id":"e","source_node_id":"a"}]}`},
		{"duplicate edge id", `{"nodes":[{"id":"a"},{"id":"b"}],"edges":[{"id":"e","source_node_id":"a","target_node_id":"b"},{"id":"e","source_node_id":"b","target_node_id":"a"}]}`},
		{"bad direction", `{"nodes":[{"id":"a"}],"edges":[],"direction":"sideways"}`},
		{"negative stroke", `{"nodes":[{"id":"a"}],"edges":[{"id":"e","source_node_id":"a","target_node_id":"a","stroke_width":-1}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadGraph(strings.NewReader(tt.input), FormatJSON)
			if !errors.Is(err, errors.ErrCodeInvalidGraph) {
				t.Errorf("err = %v, want INVALID_GRAPH", err)
			}
		})
	}
}

func TestUnresolvedEdgesAreValid(t *testing.T) {
	input := `{"nodes":[{"id":"a"}],"edges":[{"id":"e","source_node_id":"a","target_node_id":"gone"}]}`
	if _, err := ReadGraph(strings.NewReader(input), FormatJSON); err != nil {
		t.Errorf("dangling edge should be accepted: %v", err)
	}
}

func TestGraphRoundTripFile(t *testing.T) {
	g, err := ReadGraph(strings.NewReader(sampleJSON), FormatJSON)
	if err != nil {
		t.Fatal(err)
	}
	data, err := MarshalGraph(g)
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "graph.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	back, err := ReadGraphFile(path)
	if err != nil {
		t.Fatalf("ReadGraphFile: %v", err)
	}
	if back.NodeCount() != g.NodeCount() || len(back.Edges) != len(g.Edges) {
		t.Errorf("round trip changed the graph: %+v", back)
	}
}

func TestLayoutFile(t *testing.T) {
	l := &Layout{
		Nodes: []PositionedNode{{
			ID: "a", Width: 50, Height: 30, BottomLeftCorner: Point{X: 10, Y: 20},
			Children: []PositionedNode{{ID: "b", Width: 10, Height: 10}},
		}},
		Edges: []PositionedEdge{{
			ID: "e", SourceNodeID: "a", TargetNodeID: "b", Container: RootContainer,
			StartPoint: Point{X: 1, Y: 2}, EndPoint: Point{X: 5, Y: 6},
			Label: &EdgeLabel{Text: "feeds", X: 3, Y: 4},
		}},
		Width: 100, Height: 80,
	}

	path := filepath.Join(t.TempDir(), "layout.json")
	if err := WriteLayoutFile(l, path); err != nil {
		t.Fatal(err)
	}
	got, err := ReadLayoutFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.NodeCount() != 2 {
		t.Errorf("NodeCount = %d, want 2", got.NodeCount())
	}
	if got.Edges[0].Label == nil || got.Edges[0].Label.Text != "feeds" {
		t.Errorf("label lost: %+v", got.Edges[0])
	}

	data, _ := os.ReadFile(path)
	if !IsLayoutDocument(data) {
		t.Error("IsLayoutDocument should detect a layout")
	}
	if IsLayoutDocument([]byte(sampleJSON)) {
		t.Error("IsLayoutDocument should reject an input graph")
	}
}

func TestFormatFromPath(t *testing.T) {
	tests := map[string]string{
		"g.json": FormatJSON,
		"g.yaml": FormatYAML,
		"g.YML":  FormatYAML,
		"g":      FormatJSON,
	}
	for path, want := range tests {
		if got := FormatFromPath(path); got != want {
			t.Errorf("FormatFromPath(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestWriteGraph(t *testing.T) {
	var buf bytes.Buffer
	g := &Graph{Nodes: []Node{{ID: "a"}}, Edges: []Edge{}}
	if err := WriteGraph(g, &buf); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"id": "a"`) {
		t.Errorf("unexpected output: %s", buf.String())
	}
}

func TestEmptyLayout(t *testing.T) {
	l := EmptyLayout()
	if !l.IsEmpty() || l.Width != 0 || l.Height != 0 || l.Edges == nil {
		t.Errorf("EmptyLayout = %+v", l)
	}
	var nilLayout *Layout
	if !nilLayout.IsEmpty() || nilLayout.NodeCount() != 0 {
		t.Error("nil layout should be empty")
	}
}

func TestDirection(t *testing.T) {
	if Direction("").OrDefault() != DirectionRight {
		t.Error("empty direction should default to right")
	}
	if !DirectionLeft.Horizontal() || DirectionUp.Horizontal() {
		t.Error("Horizontal mismatch")
	}
}

func TestExtent(t *testing.T) {
	e := NewExtent(0, 0, 10, 20)
	if e.Width() != 10 || e.Height() != 20 {
		t.Errorf("size = %vx%v", e.Width(), e.Height())
	}
	if c := e.Center(); c != (Point{X: 5, Y: 10}) {
		t.Errorf("Center = %v", c)
	}
	if p := e.Pad(2, 2); p != NewExtent(-2, -2, 12, 22) {
		t.Errorf("Pad = %v", p)
	}
	if p := e.Pad(1, 3); p != NewExtent(-1, -3, 11, 23) {
		t.Errorf("Pad = %v", p)
	}
	if u := e.Union(NewExtent(-5, -5, 5, 5)); u != NewExtent(-5, -5, 10, 20) {
		t.Errorf("Union = %v", u)
	}
	if NewExtent(0, 0, 0, 10).Valid() {
		t.Error("zero-width extent should be invalid")
	}
	if e.Intersect(NewExtent(20, 20, 30, 30)).Valid() {
		t.Error("disjoint intersection should be invalid")
	}
	x, y, w, h := e.Rect()
	if x != 0 || y != 0 || w != 10 || h != 20 {
		t.Errorf("Rect = %v %v %v %v", x, y, w, h)
	}
}

func TestPositionedEdgePoints(t *testing.T) {
	e := PositionedEdge{
		StartPoint: Point{X: 0, Y: 0},
		BendPoints: []Point{{X: 50, Y: 50}, {X: 100, Y: 150}},
		EndPoint:   Point{X: 200, Y: 200},
	}
	pts := e.Points()
	if len(pts) != 4 || pts[0] != e.StartPoint || pts[3] != e.EndPoint {
		t.Errorf("Points = %v", pts)
	}
}

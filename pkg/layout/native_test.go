package layout

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/lineagraph/pkg/errors"
	"github.com/matzehuels/lineagraph/pkg/graph"
)

func TestBuildRequest(t *testing.T) {
	edges := []graph.Edge{
		{ID: "e1", SourceNodeID: "root-node", TargetNodeID: "child-node", Label: "reads"},
	}
	req := BuildRequest(testNodes, edges, graph.DirectionUp, nil)

	assert.Equal(t, graph.RootContainer, req.ID)
	assert.Equal(t, "UP", req.LayoutOptions["elk.direction"])
	assert.Equal(t, "INCLUDE_CHILDREN", req.LayoutOptions["elk.hierarchyHandling"])

	require.Len(t, req.Children, 1)
	container := req.Children[0]
	assert.Equal(t, DefaultPadding.String(), container.LayoutOptions["elk.padding"])
	require.Len(t, container.Children, 1)
	leaf := container.Children[0]
	assert.Equal(t, float64(DefaultNodeWidth), leaf.Width)
	assert.Equal(t, float64(DefaultNodeHeight), leaf.Height)
	assert.Nil(t, leaf.LayoutOptions)

	require.Len(t, req.Edges, 1)
	assert.Equal(t, []string{"root-node"}, req.Edges[0].Sources)
	assert.Equal(t, []string{"child-node"}, req.Edges[0].Targets)
	require.Len(t, req.Edges[0].Labels, 1)
	assert.Equal(t, "reads", req.Edges[0].Labels[0].Text)
	assert.Positive(t, req.Edges[0].Labels[0].Width)
}

func TestBuildRequestLabelWidthCountsRunes(t *testing.T) {
	edges := []graph.Edge{
		{ID: "ascii", SourceNodeID: "a", TargetNodeID: "b", Label: "abcd"},
		{ID: "umlaut", SourceNodeID: "a", TargetNodeID: "b", Label: "üüüü"},
	}
	req := BuildRequest(nil, edges, "", nil)

	require.Len(t, req.Edges, 2)
	assert.Equal(t, req.Edges[0].Labels[0].Width, req.Edges[1].Labels[0].Width)
}

func TestBuildRequestResolverOptions(t *testing.T) {
	resolver := func(n graph.Node) NodeOptions {
		if n.Kind == "child" {
			return NodeOptions{Width: 40, Height: 30, Options: map[string]string{"elk.portConstraints": "FIXED_SIDE"}}
		}
		return NodeOptions{Padding: &Padding{Top: 1, Left: 2, Bottom: 3, Right: 4}}
	}
	req := BuildRequest(testNodes, nil, "", resolver)

	assert.Equal(t, "RIGHT", req.LayoutOptions["elk.direction"])
	assert.Equal(t, "[top=1,left=2,bottom=3,right=4]", req.Children[0].LayoutOptions["elk.padding"])
	child := req.Children[0].Children[0]
	assert.Equal(t, 40.0, child.Width)
	assert.Equal(t, "FIXED_SIDE", child.LayoutOptions["elk.portConstraints"])
	assert.Empty(t, req.Edges)
}

func TestToLayout(t *testing.T) {
	t.Run("nil response", func(t *testing.T) {
		assert.Equal(t, graph.EmptyLayout(), ToLayout(nil, nil, nil))
	})

	t.Run("edges attached to containers", func(t *testing.T) {
		edges := []graph.Edge{{
			ID: "e1", SourceNodeID: "child-node", TargetNodeID: "root-node",
			Kind: graph.EdgeStraight, IsAnimated: true, Color: "#f00", StrokeWidth: 3,
		}}
		resp := &Response{
			ID: graph.RootContainer,
			Children: []NativeNode{{
				ID: "root-node", Width: 10, Height: 10,
				Edges: []NativeEdge{{ID: "e1", Sources: []string{"child-node"}, Targets: []string{"root-node"},
					Sections: []Section{{StartPoint: graph.Point{X: 1}, EndPoint: graph.Point{X: 2}}}}},
			}},
		}

		l := ToLayout(resp, testNodes, edges)
		require.Len(t, l.Edges, 1)
		e := l.Edges[0]
		assert.Equal(t, "root-node", e.Container)
		assert.Equal(t, graph.EdgeStraight, e.Kind)
		assert.True(t, e.IsAnimated)
		assert.Equal(t, "#f00", e.Color)
		assert.Equal(t, 3.0, e.StrokeWidth)
		assert.Nil(t, e.BendPoints)
		assert.Nil(t, e.Label)
		assert.Equal(t, map[string]any{"value": "root"}, l.Nodes[0].Data)
	})

	t.Run("bend points are copied", func(t *testing.T) {
		bends := []graph.Point{{X: 1, Y: 1}}
		resp := &Response{Edges: []NativeEdge{{ID: "e", Sections: []Section{{BendPoints: bends}}}}}
		l := ToLayout(resp, nil, nil)
		l.Edges[0].BendPoints[0].X = 99
		assert.Equal(t, 1.0, bends[0].X)
		assert.NotNil(t, l.Nodes)
	})
}

func TestRun(t *testing.T) {
	calls := 0
	eng := EngineFunc(func(ctx context.Context, req *Request) (*Response, error) {
		calls++
		return sized(10, 20), nil
	})

	l, err := Run(context.Background(), eng, &graph.Graph{}, nil)
	require.NoError(t, err)
	assert.True(t, l.IsEmpty())
	assert.Zero(t, calls)

	l, err = Run(context.Background(), eng, &graph.Graph{Nodes: testNodes}, nil)
	require.NoError(t, err)
	assert.Equal(t, 10.0, l.Width)
	assert.Equal(t, 1, calls)

	cause := stderrors.New("boom")
	failing := EngineFunc(func(context.Context, *Request) (*Response, error) { return nil, cause })
	_, err = Run(context.Background(), failing, &graph.Graph{Nodes: testNodes}, nil)
	assert.True(t, errors.Is(err, errors.ErrCodeLayoutFailed))
	assert.ErrorIs(t, err, cause)
}

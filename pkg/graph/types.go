package graph

// =============================================================================
// Constants
// =============================================================================

// RootContainer is the container id of edges expressed in canvas space.
const RootContainer = "root"

// Direction is the flow direction handed to the layout engine.
type Direction string

// Layout directions.
const (
	DirectionUp    Direction = "up"
	DirectionDown  Direction = "down"
	DirectionLeft  Direction = "left"
	DirectionRight Direction = "right"
)

// DefaultDirection is used when a request leaves the direction empty.
const DefaultDirection = DirectionRight

// Directions lists every supported direction in display order.
var Directions = []Direction{DirectionRight, DirectionLeft, DirectionDown, DirectionUp}

// OrDefault returns d, or [DefaultDirection] when d is empty.
func (d Direction) OrDefault() Direction {
	if d == "" {
		return DefaultDirection
	}
	return d
}

// Horizontal reports whether ranks advance along the x axis.
func (d Direction) Horizontal() bool {
	d = d.OrDefault()
	return d == DirectionLeft || d == DirectionRight
}

// EdgeKind selects how an edge is drawn.
type EdgeKind string

// Edge kinds. Anything else is drawn as an elbow.
const (
	EdgeStraight EdgeKind = "straight"
	EdgeElbow    EdgeKind = "elbow"
)

// =============================================================================
// Graph - Unpositioned Input
// =============================================================================

// Graph is the unpositioned input handed to the layout bridge.
type Graph struct {
	Nodes     []Node    `json:"nodes" yaml:"nodes" bson:"nodes" validate:"dive"`
	Edges     []Edge    `json:"edges" yaml:"edges" bson:"edges" validate:"dive"`
	Direction Direction `json:"direction,omitempty" yaml:"direction,omitempty" bson:"direction,omitempty" validate:"omitempty,oneof=up down left right"`
}

// Node is a diagram node. Container nodes own Children whose coordinates are
// laid out relative to the container.
type Node struct {
	ID       string `json:"id" yaml:"id" bson:"id" validate:"required,max=512"`
	Kind     string `json:"kind,omitempty" yaml:"kind,omitempty" bson:"kind,omitempty"`
	Data     any    `json:"data,omitempty" yaml:"data,omitempty" bson:"data,omitempty"`
	Children []Node `json:"children,omitempty" yaml:"children,omitempty" bson:"children,omitempty" validate:"dive"`
}

// IsContainer reports whether the node groups other nodes.
func (n *Node) IsContainer() bool { return len(n.Children) > 0 }

// Edge connects two node ids.
type Edge struct {
	ID           string   `json:"id" yaml:"id" bson:"id" validate:"required,max=512"`
	SourceNodeID string   `json:"source_node_id" yaml:"source_node_id" bson:"source_node_id" validate:"required"`
	TargetNodeID string   `json:"target_node_id" yaml:"target_node_id" bson:"target_node_id" validate:"required"`
	Kind         EdgeKind `json:"kind,omitempty" yaml:"kind,omitempty" bson:"kind,omitempty"`
	IsAnimated   bool     `json:"is_animated,omitempty" yaml:"is_animated,omitempty" bson:"is_animated,omitempty"`
	Color        string   `json:"color,omitempty" yaml:"color,omitempty" bson:"color,omitempty"`
	StrokeWidth  float64  `json:"stroke_width,omitempty" yaml:"stroke_width,omitempty" bson:"stroke_width,omitempty" validate:"gte=0"`
	Label        string   `json:"label,omitempty" yaml:"label,omitempty" bson:"label,omitempty"`
}

// =============================================================================
// Positioned Types
// =============================================================================

// PositionedNode is a node with concrete placement. BottomLeftCorner is
// relative to the parent node, or to the canvas origin for top-level nodes.
type PositionedNode struct {
	ID               string           `json:"id" bson:"id"`
	Kind             string           `json:"kind,omitempty" bson:"kind,omitempty"`
	Data             any              `json:"data,omitempty" bson:"data,omitempty"`
	BottomLeftCorner Point            `json:"bottom_left_corner" bson:"bottom_left_corner"`
	Width            float64          `json:"width" bson:"width"`
	Height           float64          `json:"height" bson:"height"`
	Children         []PositionedNode `json:"children,omitempty" bson:"children,omitempty"`
}

// EdgeLabel is a text label anchored near an edge path.
type EdgeLabel struct {
	Text   string  `json:"text" bson:"text"`
	X      float64 `json:"x" bson:"x"`
	Y      float64 `json:"y" bson:"y"`
	Width  float64 `json:"width,omitempty" bson:"width,omitempty"`
	Height float64 `json:"height,omitempty" bson:"height,omitempty"`
}

// PositionedEdge is an edge with routed geometry. Points are expressed in the
// coordinate space of Container until adjusted.
type PositionedEdge struct {
	ID           string     `json:"id" bson:"id"`
	SourceNodeID string     `json:"source_node_id" bson:"source_node_id"`
	TargetNodeID string     `json:"target_node_id" bson:"target_node_id"`
	Kind         EdgeKind   `json:"kind,omitempty" bson:"kind,omitempty"`
	StartPoint   Point      `json:"start_point" bson:"start_point"`
	EndPoint     Point      `json:"end_point" bson:"end_point"`
	BendPoints   []Point    `json:"bend_points,omitempty" bson:"bend_points,omitempty"`
	Label        *EdgeLabel `json:"label,omitempty" bson:"label,omitempty"`
	Container    string     `json:"container" bson:"container"`
	IsAnimated   bool       `json:"is_animated,omitempty" bson:"is_animated,omitempty"`
	Color        string     `json:"color,omitempty" bson:"color,omitempty"`
	StrokeWidth  float64    `json:"stroke_width,omitempty" bson:"stroke_width,omitempty"`
}

// Points returns start, bend and end points in path order.
func (e *PositionedEdge) Points() []Point {
	pts := make([]Point, 0, len(e.BendPoints)+2)
	pts = append(pts, e.StartPoint)
	pts = append(pts, e.BendPoints...)
	return append(pts, e.EndPoint)
}

// Layout is a positioned graph.
type Layout struct {
	Nodes  []PositionedNode `json:"nodes" bson:"nodes"`
	Edges  []PositionedEdge `json:"edges" bson:"edges"`
	Width  float64          `json:"width" bson:"width"`
	Height float64          `json:"height" bson:"height"`
}

// EmptyLayout returns the layout used when there is nothing to show.
func EmptyLayout() *Layout {
	return &Layout{
		Nodes: []PositionedNode{},
		Edges: []PositionedEdge{},
	}
}

// IsEmpty reports whether the layout has no nodes.
func (l *Layout) IsEmpty() bool { return l == nil || len(l.Nodes) == 0 }

// NodeCount returns the number of nodes including descendants.
func (l *Layout) NodeCount() int {
	if l == nil {
		return 0
	}
	return countPositioned(l.Nodes)
}

func countPositioned(nodes []PositionedNode) int {
	n := len(nodes)
	for i := range nodes {
		n += countPositioned(nodes[i].Children)
	}
	return n
}

// NodeCount returns the number of nodes including descendants.
func (g *Graph) NodeCount() int {
	return countNodes(g.Nodes)
}

func countNodes(nodes []Node) int {
	n := len(nodes)
	for i := range nodes {
		n += countNodes(nodes[i].Children)
	}
	return n
}

// Package graph provides the node/edge contracts shared by every lineagraph
// component.
//
// # Core Types
//
//   - [Graph], [Node], [Edge]: unpositioned input, possibly nested into
//     container nodes
//   - [Layout], [PositionedNode], [PositionedEdge]: output of a layout engine
//   - [Point], [Extent]: geometry used by camera operations
//
// A positioned node's BottomLeftCorner is relative to its parent container.
// A positioned edge's points are relative to the node named by its Container
// field (or the canvas when Container is [RootContainer]). Package scene
// turns both into absolute coordinates.
//
// # Serialization
//
// Graphs are read from JSON or YAML:
//
//	{
//	  "nodes": [{"id": "orders", "kind": "dataset"}, {"id": "etl", "kind": "job"}],
//	  "edges": [{"id": "e1", "source_node_id": "orders", "target_node_id": "etl"}]
//	}
//
// Layouts are written as JSON with snake_case keys. All wire types also carry
// BSON tags so they can be stored in MongoDB unchanged.
package graph

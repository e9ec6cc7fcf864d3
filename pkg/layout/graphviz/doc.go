// Package graphviz implements a [layout.Engine] on top of Graphviz dot,
// using [github.com/goccy/go-graphviz] so no system installation is needed.
//
// A request is written as DOT with one cluster per container node, laid out
// and rendered back to annotated DOT, then re-parsed to read node positions,
// cluster bounding boxes and edge splines. Graphviz measures in points with
// y pointing up; the engine converts everything to y-down coordinates where
// a node's position is relative to its parent and an edge's points are
// relative to the container that holds both of its endpoints.
package graphviz

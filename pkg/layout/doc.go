// Package layout turns an unpositioned graph into a positioned one.
//
// Placement itself is delegated to an [Engine], a pure function from a
// native request to a native response. The native shapes follow ELK's JSON
// graph format: a root node whose children are the graph's nodes, edges
// with sources and targets, and responses carrying x/y positions and routed
// edge sections. Two engines ship with the module:
//
//   - [github.com/matzehuels/lineagraph/pkg/layout/graphviz] runs Graphviz
//     in-process through a WebAssembly build
//   - [github.com/matzehuels/lineagraph/pkg/layout/remote] posts the request
//     to an ELK HTTP service
//
// # Bridge
//
// [Bridge] manages the request lifecycle for an interactive surface. The
// caller hands it nodes, edges and a direction whenever they change; the
// bridge converts them with [BuildRequest], dispatches them to a background
// worker and publishes a [State] when the result arrives:
//
//	b := layout.New(engine)
//	defer b.Close()
//
//	b.Request(g.Nodes, g.Edges, g.Direction, nil)
//	for s := range b.Updates() {
//	    if !s.IsRendering {
//	        draw(s.Layout)
//	    }
//	}
//
// Each dispatch carries a token. When a newer request is issued, the older
// one's context is cancelled, but engines are not required to stop: the
// bridge drops any result whose token is not the latest, so only the newest
// request can change what is visible.
package layout

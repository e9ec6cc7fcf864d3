// Package scene converts positioned layouts into canvas coordinates.
//
// Layout engines report each node relative to its parent container and each
// edge relative to the container named in its Container field. Rendering and
// camera math need one coordinate space, so this package provides:
//
//   - [Flatten]: one [FlattenedNode] per node, with absolute position equal
//     to the sum of relative positions along the ancestor chain
//   - [NewIndex]: O(1) lookup by node id
//   - [Offsets] and [AdjustEdges]: move edge geometry into canvas space and
//     drop edges whose endpoints are not in the node set
//   - [Fingerprint]: a comparable summary of ids, positions and sizes used to
//     decide when the camera should auto-fit again
//
// [Build] runs all of the above; [Memo] caches the result per layout pointer.
package scene

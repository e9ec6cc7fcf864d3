// Package render draws scenes as SVG documents.
//
// # Overview
//
// [RenderSVG] turns a [scene.Scene] into a self-contained SVG using
// github.com/ajstarks/svgo. The document is layered like the interactive
// canvas it mirrors:
//
//   - a dot-grid background pattern ([DotPatternID]) whose spacing adapts
//     to the zoom level
//   - the viewport group, transformed by the camera, holding nodes and then
//     edges so edges stay on top
//   - the minimap overview with its lens mask ([MiniMapMaskID])
//   - an empty-state message and a progress indicator
//
//	svg := render.RenderSVG(sc,
//	    render.WithSize(1200, 800),
//	    render.WithTransform(ctrl.Transform()),
//	    render.WithMiniMap(minimap.BottomRight, 0),
//	)
//
// # Node Renderers
//
// Node payloads are drawn by a [NodeRenderer] chosen by node kind from a
// [Registry]. A renderer also sizes its nodes before layout, so the same
// registry feeds [layout.BuildRequest] through [Registry.Resolver].
// [BoxRenderer] is the built-in fallback.
//
// Edges are drawn by the [edge] subpackage.
//
// [edge]: github.com/matzehuels/lineagraph/pkg/render/edge
package render

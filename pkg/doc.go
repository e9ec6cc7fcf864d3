// Package pkg provides the core libraries for lineagraph diagrams.
//
// # Overview
//
// Lineagraph lays out data-lineage graphs (nodes nested into container
// groups, joined by edges) and presents them through a pan/zoom camera with
// a minimap overview. The pkg directory is organized into four areas:
//
//  1. Model - [graph] types, [scene] flattening, [errors]
//  2. Layout - the [layout] bridge and its engines
//  3. Presentation - [viewport] camera, [minimap] projection, [render] SVG
//  4. Infrastructure - [pipeline], [cache], [session], [source], [server],
//     [config], [observability]
//
// # Architecture
//
// The data flow for one graph:
//
//	graph.Graph (JSON, YAML or MongoDB)
//	         ↓
//	    [layout] bridge (background worker, latest request wins)
//	         ↓
//	    graph.Layout (nested, relative coordinates)
//	         ↓
//	    [scene] (absolute coordinates, edges in canvas space)
//	         ↓
//	    [viewport] camera + [minimap] projection
//	         ↓
//	    [render] SVG
//
// # Quick Start
//
//	runner, _ := pipeline.NewRunnerFromConfig(config.Default(), cache.NewNullCache(), nil)
//	defer runner.Close()
//
//	g, _ := graph.ReadGraphFile("warehouse.json")
//	res, _ := runner.Execute(ctx, g, pipeline.Options{
//	    Width:  1200,
//	    Height: 800,
//	    Camera: []viewport.Command{{Op: viewport.OpCenterOnPositionedNode, NodeID: "orders"}},
//	})
//	os.WriteFile("warehouse.svg", res.SVG, 0o644)
//
// # Main Packages
//
// [graph] - Input graphs and positioned layouts, with JSON, YAML and BSON
// encodings and structural validation.
//
// [layout] - The layout bridge: a single background worker that hands the
// newest request to an [layout.Engine] and publishes only the latest result.
// Engines live in layout/graphviz (in process) and layout/remote (an
// ELK-compatible HTTP service).
//
// [scene] - Flattens a nested layout into absolute node positions and moves
// edges out of their containers into canvas space.
//
// [viewport] - The camera: fit, center, zoom and pan commands with clamped
// scale and animated transitions.
//
// [minimap] - Projects the content and the visible lens into a corner
// overview.
//
// [render] - SVG documents with a dot-grid background, pluggable node
// renderers, edges and the minimap.
//
// [pipeline] - Layout and render with caching, used by the CLI and the
// server alike.
//
// [server] - HTTP API for stateless renders and long-lived camera sessions.
//
// # Testing
//
//	go test ./pkg/...                    # All tests
//	go test ./pkg/viewport/...           # Specific package
//	go test -run Example                 # Examples only
package pkg

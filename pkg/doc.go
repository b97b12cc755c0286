// Package pkg provides the core libraries for dynlayout, a layout engine for
// dynamic graphs.
//
// # Overview
//
// A dynamic graph is a graph whose nodes, edges and attributes change over
// continuous time. dynlayout computes a trajectory for every node so that
// snapshots at any moment are readable and consecutive moments stay
// visually stable. The pkg directory is organized into four areas:
//
//  1. Time: [interval] and [evolution] store values over time
//  2. Graphs: [graph], [dyngraph] and [geom]
//  3. Layout: [spacetime], [fdl] and [multilevel]
//  4. Orchestration: [pipeline], [io], [render] and [cache]
//
// # Architecture
//
// The typical data flow:
//
//	dynamic graph JSON
//	         ↓
//	    [io] package (decode, validate presence intervals)
//	         ↓
//	    [spacetime] package (space-time cube: sample trajectories)
//	         ↓
//	    [fdl] / [multilevel] packages (force-directed refinement)
//	         ↓
//	    [dyngraph] snapshots → [render] (DOT, SVG, PDF, PNG)
//
// # Quick Start
//
//	g, _ := io.ImportDynamic("graph.json")
//	runner := pipeline.NewRunner(cache.NewNullCache(), nil, nil)
//	res, _ := runner.Layout(ctx, g, pipeline.Options{Algorithm: "multilevel"})
//	snap := res.Graph.SnapshotAt(5)
//	svg, _ := render.Render(snap, "svg", render.Options{})
//
// # Main Packages
//
// [interval] - Interval arithmetic and an augmented interval tree.
//
// [evolution] - Attribute values mapped over disjoint time intervals, with
// interpolation for numeric and point types.
//
// [dyngraph] - Nodes and edges carrying evolving attributes: presence,
// position, weight and edge bends.
//
// [spacetime] - The space-time cube: converts between evolving positions and
// time-sampled trajectory points, inserting, merging and removing bends.
//
// [fdl] - Modular force-directed layout over trajectory points.
//
// [multilevel] - Coarsening strategies and level-by-level placement for
// large graphs.
//
// [pipeline] - Option validation, layout caching and snapshot rendering used
// by both the CLI and the HTTP server.
//
// [errors] and [observability] - Coded errors and hooks for metrics.
package pkg

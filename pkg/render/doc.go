// Package render draws laid-out snapshots.
//
// # Overview
//
// A snapshot of a dynamic graph is a static graph whose node positions
// come from the layout. [ToDOT] turns it into Graphviz DOT source with every
// node pinned to its computed position, so Graphviz only draws and never
// moves anything:
//
//	snap := g.SnapshotAt(4.5)
//	dot := render.ToDOT(snap, render.Options{Labels: true})
//	svg, err := render.RenderSVG(dot)
//
// The neato engine is selected in the DOT source because it is the engine
// that honours pinned positions.
//
// # Format Conversion
//
// [ToPDF] and [ToPNG] convert SVG with the external rsvg-convert tool (from
// librsvg); [RenderPDF] and [RenderPNG] chain them after [RenderSVG].
//
// # Styling
//
// Node fill colours are taken from the snapshot's "color" attribute when
// present. Edge pen widths grow with edge weight, which makes coarse levels
// of a multilevel hierarchy readable.
package render

// Package io provides JSON import and export for dynamic graphs, static
// graphs and layout statistics.
//
// # Dynamic Graph Format
//
// A dynamic graph is an object with optional graph attributes and two
// arrays:
//
//	{
//	  "attributes": {"color": "#336699"},
//	  "nodes": [
//	    {"id": "a",
//	     "presence": [{"from": 0, "to": 10}],
//	     "position": [{"from": 0, "to": 10, "x": 0, "y": 0, "x2": 5, "y2": 5}]}
//	  ],
//	  "edges": [
//	    {"id": "a-b", "from": "a", "to": "b", "presence": [{"from": 2, "to": 8}]}
//	  ]
//	}
//
// # Spans
//
// Every time-dependent value is a list of spans. A span's "from" and "to"
// accept null for negative and positive infinity. Spans are closed on the
// left and open on the right unless "left_open" or "right_open" say
// otherwise; a span whose right bound is the last bound in its list is
// closed on the right, so that [0, 10] rather than [0, 10) is read for a
// single span.
//
// Position spans carry "x" and "y" and, for a moving node, "x2", "y2" and
// an "interpolation" name (linear, step, ease-in, ease-out, ease-in-out).
// Edge "points" spans carry control point lists in the same way.
//
// # Attributes
//
// Node, edge and graph "attributes" hold values constant over all time.
// Values are coerced with spf13/cast: booleans stay booleans, strings
// starting with '#' parse as colors, arrays of two or three numbers are
// coordinates and everything else must convert to a number.
//
// # Static Graphs and Statistics
//
// [WriteGraph] encodes a snapshot or mirror with node positions, kinds and
// owners. [WriteStats] encodes statistics as an ordered metric list.
package io

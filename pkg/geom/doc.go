// Package geom holds the closed set of value types carried by layout
// attributes and the small amount of 3-D geometry the layout engine needs.
//
// # Value Types
//
// Coordinates are plain [r3.Vec] values from gonum: X and Y are the drawing
// plane and Z is time once a dynamic graph has been embedded in the
// space-time cube. [ControlPoints] describe an edge curve and [Color] is an
// RGBA colour passed through to renderers untouched.
//
// # Degenerate Input
//
// Relations that need two distinct points, such as the line through a
// trajectory segment, report [ErrUndefinedGeometry] instead of producing
// NaN. Callers in the force engine treat that as a zero-magnitude result.
package geom

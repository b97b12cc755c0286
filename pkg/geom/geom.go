package geom

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/spatial/r3"
)

// ErrUndefinedGeometry is returned when a geometric relation is asked of
// degenerate input, for example a line through two coincident points.
var ErrUndefinedGeometry = errors.New("undefined geometry")

// Epsilon is the distance below which two points are treated as coincident.
const Epsilon = 1e-9

// ControlPoints are the interior bend points of an edge curve, ordered from
// the source endpoint to the target endpoint.
type ControlPoints []r3.Vec

// Clone returns an independent copy.
func (c ControlPoints) Clone() ControlPoints {
	if c == nil {
		return nil
	}
	out := make(ControlPoints, len(c))
	copy(out, c)
	return out
}

// Reversed returns the same curve traversed from target to source.
func (c ControlPoints) Reversed() ControlPoints {
	out := c.Clone()
	slices.Reverse(out)
	return out
}

// Color is an 8-bit RGBA colour.
type Color struct {
	R, G, B, A uint8
}

// Hex formats the colour as #rrggbb, or #rrggbbaa when not fully opaque.
func (c Color) Hex() string {
	if c.A == 0xff {
		return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
	}
	return fmt.Sprintf("#%02x%02x%02x%02x", c.R, c.G, c.B, c.A)
}

// ParseHex parses #rgb, #rrggbb or #rrggbbaa.
func ParseHex(s string) (Color, error) {
	c := Color{A: 0xff}
	var err error
	switch len(s) {
	case 4:
		_, err = fmt.Sscanf(s, "#%1x%1x%1x", &c.R, &c.G, &c.B)
		c.R, c.G, c.B = c.R*17, c.G*17, c.B*17
	case 7:
		_, err = fmt.Sscanf(s, "#%02x%02x%02x", &c.R, &c.G, &c.B)
	case 9:
		_, err = fmt.Sscanf(s, "#%02x%02x%02x%02x", &c.R, &c.G, &c.B, &c.A)
	default:
		err = fmt.Errorf("invalid color %q", s)
	}
	if err != nil {
		return Color{}, fmt.Errorf("parse color %q: %w", s, err)
	}
	return c, nil
}

// Finite reports whether every component of v is a finite number.
func Finite(v r3.Vec) bool {
	return !math.IsNaN(v.X) && !math.IsInf(v.X, 0) &&
		!math.IsNaN(v.Y) && !math.IsInf(v.Y, 0) &&
		!math.IsNaN(v.Z) && !math.IsInf(v.Z, 0)
}

// Sanitize returns v, or the zero vector if any component is NaN or infinite.
func Sanitize(v r3.Vec) r3.Vec {
	if Finite(v) {
		return v
	}
	return r3.Vec{}
}

// Planar drops the time component.
func Planar(v r3.Vec) r3.Vec {
	return r3.Vec{X: v.X, Y: v.Y}
}

// Distance is the Euclidean distance between a and b.
func Distance(a, b r3.Vec) float64 {
	return r3.Norm(r3.Sub(a, b))
}

// PlanarDistance is the distance between a and b ignoring time.
func PlanarDistance(a, b r3.Vec) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// Direction returns the unit vector from a to b. It returns
// ErrUndefinedGeometry when the points coincide.
func Direction(a, b r3.Vec) (r3.Vec, error) {
	d := r3.Sub(b, a)
	n := r3.Norm(d)
	if n < Epsilon {
		return r3.Vec{}, ErrUndefinedGeometry
	}
	return r3.Scale(1/n, d), nil
}

// Centroid returns the mean of points, or the zero vector for none.
func Centroid(points []r3.Vec) r3.Vec {
	if len(points) == 0 {
		return r3.Vec{}
	}
	var sum r3.Vec
	for _, p := range points {
		sum = r3.Add(sum, p)
	}
	return r3.Scale(1/float64(len(points)), sum)
}

// Segment is a straight piece between two points.
type Segment struct {
	A, B r3.Vec
}

// AtZ returns the point of the segment's supporting line whose Z equals z.
// Segments with no extent along Z have no such point and yield
// ErrUndefinedGeometry.
func (s Segment) AtZ(z float64) (r3.Vec, error) {
	dz := s.B.Z - s.A.Z
	if math.Abs(dz) < Epsilon {
		return r3.Vec{}, ErrUndefinedGeometry
	}
	f := (z - s.A.Z) / dz
	return r3.Add(s.A, r3.Scale(f, r3.Sub(s.B, s.A))), nil
}

// ClosestPoint returns the point on the segment nearest to p. A segment whose
// endpoints coincide yields ErrUndefinedGeometry together with A.
func (s Segment) ClosestPoint(p r3.Vec) (r3.Vec, error) {
	d := r3.Sub(s.B, s.A)
	l2 := r3.Norm2(d)
	if l2 < Epsilon*Epsilon {
		return s.A, ErrUndefinedGeometry
	}
	f := r3.Dot(r3.Sub(p, s.A), d) / l2
	f = math.Max(0, math.Min(1, f))
	return r3.Add(s.A, r3.Scale(f, d)), nil
}

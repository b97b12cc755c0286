package evolution

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/matzehuels/dynlayout/pkg/geom"
)

// LerpFloat blends two numbers.
func LerpFloat(a, b, f float64) float64 { return a + (b-a)*f }

// LerpBool keeps a until the blend completes.
func LerpBool(a, b bool, f float64) bool {
	if f < 1 {
		return a
	}
	return b
}

// LerpVec blends two coordinates component-wise.
func LerpVec(a, b r3.Vec, f float64) r3.Vec {
	return r3.Add(a, r3.Scale(f, r3.Sub(b, a)))
}

// LerpColor blends two colours channel by channel.
func LerpColor(a, b geom.Color, f float64) geom.Color {
	ch := func(x, y uint8) uint8 {
		return uint8(math.Round(LerpFloat(float64(x), float64(y), f)))
	}
	return geom.Color{R: ch(a.R, b.R), G: ch(a.G, b.G), B: ch(a.B, b.B), A: ch(a.A, b.A)}
}

// LerpControlPoints blends curves point by point. Curves with a different
// number of points cannot be blended and step instead.
func LerpControlPoints(a, b geom.ControlPoints, f float64) geom.ControlPoints {
	if len(a) != len(b) {
		if f < 1 {
			return a.Clone()
		}
		return b.Clone()
	}
	out := make(geom.ControlPoints, len(a))
	for i := range a {
		out[i] = LerpVec(a[i], b[i], f)
	}
	return out
}

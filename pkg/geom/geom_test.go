package geom

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestSanitize(t *testing.T) {
	assert.Equal(t, r3.Vec{X: 1, Y: 2, Z: 3}, Sanitize(r3.Vec{X: 1, Y: 2, Z: 3}))
	assert.Equal(t, r3.Vec{}, Sanitize(r3.Vec{X: math.NaN()}))
	assert.Equal(t, r3.Vec{}, Sanitize(r3.Vec{Z: math.Inf(-1)}))
}

func TestDirection(t *testing.T) {
	d, err := Direction(r3.Vec{}, r3.Vec{X: 3, Y: 4})
	require.NoError(t, err)
	assert.InDelta(t, 0.6, d.X, 1e-12)
	assert.InDelta(t, 0.8, d.Y, 1e-12)

	_, err = Direction(r3.Vec{X: 1}, r3.Vec{X: 1})
	assert.True(t, errors.Is(err, ErrUndefinedGeometry))
}

func TestSegmentAtZ(t *testing.T) {
	s := Segment{A: r3.Vec{X: 0, Z: 0}, B: r3.Vec{X: 10, Z: 10}}
	p, err := s.AtZ(2.5)
	require.NoError(t, err)
	assert.InDelta(t, 2.5, p.X, 1e-12)

	_, err = Segment{A: r3.Vec{Z: 1}, B: r3.Vec{X: 5, Z: 1}}.AtZ(1)
	assert.ErrorIs(t, err, ErrUndefinedGeometry)
}

func TestSegmentClosestPoint(t *testing.T) {
	s := Segment{A: r3.Vec{}, B: r3.Vec{X: 10}}
	p, err := s.ClosestPoint(r3.Vec{X: 4, Y: 3})
	require.NoError(t, err)
	assert.Equal(t, r3.Vec{X: 4}, p)

	p, err = s.ClosestPoint(r3.Vec{X: 20})
	require.NoError(t, err)
	assert.Equal(t, r3.Vec{X: 10}, p)

	_, err = Segment{A: r3.Vec{X: 1}, B: r3.Vec{X: 1}}.ClosestPoint(r3.Vec{})
	assert.ErrorIs(t, err, ErrUndefinedGeometry)
}

func TestCentroid(t *testing.T) {
	assert.Equal(t, r3.Vec{}, Centroid(nil))
	c := Centroid([]r3.Vec{{X: 0, Y: 0}, {X: 2, Y: 4}})
	assert.Equal(t, r3.Vec{X: 1, Y: 2}, c)
}

func TestColorHex(t *testing.T) {
	tests := []struct {
		in   string
		want Color
	}{
		{"#ff0000", Color{R: 255, A: 255}},
		{"#0f0", Color{G: 255, A: 255}},
		{"#00000080", Color{A: 0x80}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			c, err := ParseHex(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, c)
		})
	}

	assert.Equal(t, "#ff0000", Color{R: 255, A: 255}.Hex())
	_, err := ParseHex("red")
	assert.Error(t, err)
}

func TestControlPointsReversed(t *testing.T) {
	c := ControlPoints{{X: 1}, {X: 2}, {X: 3}}
	assert.Equal(t, ControlPoints{{X: 3}, {X: 2}, {X: 1}}, c.Reversed())
	assert.Equal(t, 1.0, c[0].X, "original untouched")
	assert.Nil(t, ControlPoints(nil).Reversed())
}

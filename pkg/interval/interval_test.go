package interval

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name        string
		left, right float64
		lc, rc      bool
		ok          bool
	}{
		{"closed", 0, 1, true, true, true},
		{"open", 0, 1, false, false, true},
		{"point", 3, 3, true, true, true},
		{"half-open point", 3, 3, true, false, false},
		{"open point", 3, 3, false, false, false},
		{"reversed", 2, 1, true, true, false},
		{"nan", math.NaN(), 1, true, true, false},
		{"unbounded", math.Inf(-1), math.Inf(1), true, true, true},
		{"infinite point", math.Inf(1), math.Inf(1), true, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := New(tt.left, tt.right, tt.lc, tt.rc)
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestInfiniteBoundsAreOpen(t *testing.T) {
	iv, ok := Closed(math.Inf(-1), 5)
	require.True(t, ok)
	assert.False(t, iv.IsLeftClosed())
	assert.True(t, iv.IsRightClosed())
	assert.False(t, iv.IsFinite())
	assert.True(t, iv.Contains(-1e300))
}

func TestContains(t *testing.T) {
	iv, _ := LeftClosed(0, 10)
	assert.True(t, iv.Contains(0))
	assert.True(t, iv.Contains(9.999))
	assert.False(t, iv.Contains(10))
	assert.False(t, iv.Contains(-0.1))
	assert.False(t, iv.Contains(math.NaN()))
}

func TestIntersection(t *testing.T) {
	got, ok := MustClosed(4, 6).Intersection(MustClosed(5, 8))
	require.True(t, ok)
	assert.Equal(t, MustClosed(5, 6), got)

	lc, _ := LeftClosed(4, 6)
	_, ok = MustClosed(6, 8).Intersection(lc)
	assert.False(t, ok, "[6,8] and [4,6) share no value")

	_, ok = MustClosed(6, 8).Intersection(MustClosed(4, 6))
	assert.True(t, ok, "[6,8] and [4,6] share 6")

	open, _ := Open(0, 10)
	got, ok = open.Intersection(MustClosed(0, 10))
	require.True(t, ok)
	assert.False(t, got.IsLeftClosed())
	assert.False(t, got.IsRightClosed())

	got, ok = Everything().Intersection(MustClosed(1, 2))
	require.True(t, ok)
	assert.Equal(t, MustClosed(1, 2), got)
}

func TestCompare(t *testing.T) {
	open, _ := Open(0, 5)
	lc, _ := LeftClosed(0, 5)
	assert.Equal(t, -1, MustClosed(0, 5).Compare(open), "closed left sorts first")
	assert.Equal(t, -1, lc.Compare(MustClosed(0, 5)), "open right sorts first")
	assert.Equal(t, 0, MustClosed(1, 2).Compare(MustClosed(1, 2)))
	assert.Equal(t, 1, MustClosed(2, 3).Compare(MustClosed(1, 9)))
}

func TestUnion(t *testing.T) {
	a, _ := LeftClosed(0, 2)
	b := MustClosed(2, 4)
	c, _ := Open(5, 6)
	d, _ := Open(6, 7)

	got := Union([]Interval{d, b, c, a})
	require.Len(t, got, 3)
	assert.Equal(t, MustClosed(0, 4), got[0])
	assert.Equal(t, c, got[1], "(5,6) and (6,7) do not touch")
	assert.Equal(t, d, got[2])

	assert.Nil(t, Union(nil))
}

func TestString(t *testing.T) {
	lc, _ := LeftClosed(0, 1.5)
	assert.Equal(t, "[0, 1.5)", lc.String())
	assert.Equal(t, "(-Inf, +Inf)", Everything().String())
}

package interval

import (
	"math"
	"slices"
	"strconv"
	"strings"
)

// Interval is a numeric range whose endpoints may each be open or closed.
//
// The zero value is the empty interval reported by constructors as not ok;
// use the constructors to obtain valid intervals.
type Interval struct {
	left, right             float64
	leftClosed, rightClosed bool
}

// New builds an interval from explicit bounds and closedness. It returns
// false when the bounds are NaN, reversed, or equal without both sides
// closed. Infinite bounds are forced open.
func New(left, right float64, leftClosed, rightClosed bool) (Interval, bool) {
	if math.IsNaN(left) || math.IsNaN(right) || left > right {
		return Interval{}, false
	}
	if math.IsInf(left, 0) {
		leftClosed = false
	}
	if math.IsInf(right, 0) {
		rightClosed = false
	}
	if left == right && !(leftClosed && rightClosed) {
		return Interval{}, false
	}
	return Interval{left: left, right: right, leftClosed: leftClosed, rightClosed: rightClosed}, true
}

// Closed returns [left, right].
func Closed(left, right float64) (Interval, bool) { return New(left, right, true, true) }

// Open returns (left, right).
func Open(left, right float64) (Interval, bool) { return New(left, right, false, false) }

// LeftClosed returns [left, right).
func LeftClosed(left, right float64) (Interval, bool) { return New(left, right, true, false) }

// RightClosed returns (left, right].
func RightClosed(left, right float64) (Interval, bool) { return New(left, right, false, true) }

// Point returns the single-point interval [x, x].
func Point(x float64) (Interval, bool) { return New(x, x, true, true) }

// Everything returns (-inf, +inf).
func Everything() Interval {
	return Interval{left: math.Inf(-1), right: math.Inf(1)}
}

// MustClosed is Closed for bounds known to be valid. It panics otherwise.
func MustClosed(left, right float64) Interval {
	iv, ok := Closed(left, right)
	if !ok {
		panic("interval: invalid closed bounds " + strconv.FormatFloat(left, 'g', -1, 64) + ", " + strconv.FormatFloat(right, 'g', -1, 64))
	}
	return iv
}

// Left returns the left bound.
func (i Interval) Left() float64 { return i.left }

// Right returns the right bound.
func (i Interval) Right() float64 { return i.right }

// IsLeftClosed reports whether the left bound belongs to the interval.
func (i Interval) IsLeftClosed() bool { return i.leftClosed }

// IsRightClosed reports whether the right bound belongs to the interval.
func (i Interval) IsRightClosed() bool { return i.rightClosed }

// IsFinite reports whether both bounds are finite.
func (i Interval) IsFinite() bool {
	return !math.IsInf(i.left, 0) && !math.IsInf(i.right, 0)
}

// IsPoint reports whether the interval holds exactly one value.
func (i Interval) IsPoint() bool { return i.left == i.right }

// Duration returns right - left, which is +inf for unbounded intervals.
func (i Interval) Duration() float64 { return i.right - i.left }

// Contains reports whether x lies inside the interval.
func (i Interval) Contains(x float64) bool {
	if x < i.left || x > i.right {
		return false
	}
	if x == i.left && !i.leftClosed {
		return false
	}
	if x == i.right && !i.rightClosed {
		return false
	}
	return true
}

// Intersection returns the common part of i and o, or false when they do
// not share a single value.
func (i Interval) Intersection(o Interval) (Interval, bool) {
	left, leftClosed := i.left, i.leftClosed
	switch {
	case o.left > left:
		left, leftClosed = o.left, o.leftClosed
	case o.left == left:
		leftClosed = leftClosed && o.leftClosed
	}

	right, rightClosed := i.right, i.rightClosed
	switch {
	case o.right < right:
		right, rightClosed = o.right, o.rightClosed
	case o.right == right:
		rightClosed = rightClosed && o.rightClosed
	}

	return New(left, right, leftClosed, rightClosed)
}

// Overlaps reports whether i and o share at least one value.
func (i Interval) Overlaps(o Interval) bool {
	_, ok := i.Intersection(o)
	return ok
}

// Touches reports whether i and o overlap or meet at a bound that one of
// them includes, so that their union is a single interval.
func (i Interval) Touches(o Interval) bool {
	if i.Overlaps(o) {
		return true
	}
	if i.right == o.left && (i.rightClosed || o.leftClosed) {
		return true
	}
	return o.right == i.left && (o.rightClosed || i.leftClosed)
}

// Hull returns the smallest interval covering both i and o.
func (i Interval) Hull(o Interval) Interval {
	out := i
	switch {
	case o.left < out.left:
		out.left, out.leftClosed = o.left, o.leftClosed
	case o.left == out.left:
		out.leftClosed = out.leftClosed || o.leftClosed
	}
	switch {
	case o.right > out.right:
		out.right, out.rightClosed = o.right, o.rightClosed
	case o.right == out.right:
		out.rightClosed = out.rightClosed || o.rightClosed
	}
	return out
}

// Compare orders intervals by left bound, then right bound. At an equal left
// bound a closed side sorts first; at an equal right bound an open side
// sorts first.
func (i Interval) Compare(o Interval) int {
	if c := compareLeft(i.left, i.leftClosed, o.left, o.leftClosed); c != 0 {
		return c
	}
	return compareRight(i.right, i.rightClosed, o.right, o.rightClosed)
}

// String renders the interval in the usual bracket notation, e.g. [0, 10).
func (i Interval) String() string {
	var b strings.Builder
	if i.leftClosed {
		b.WriteByte('[')
	} else {
		b.WriteByte('(')
	}
	b.WriteString(strconv.FormatFloat(i.left, 'g', -1, 64))
	b.WriteString(", ")
	b.WriteString(strconv.FormatFloat(i.right, 'g', -1, 64))
	if i.rightClosed {
		b.WriteByte(']')
	} else {
		b.WriteByte(')')
	}
	return b.String()
}

func compareLeft(a float64, aClosed bool, b float64, bClosed bool) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	case aClosed == bClosed:
		return 0
	case aClosed:
		return -1
	default:
		return 1
	}
}

func compareRight(a float64, aClosed bool, b float64, bClosed bool) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	case aClosed == bClosed:
		return 0
	case aClosed:
		return 1
	default:
		return -1
	}
}

// Union merges overlapping or touching intervals and returns the result
// sorted by left bound.
func Union(ivs []Interval) []Interval {
	if len(ivs) == 0 {
		return nil
	}
	sorted := slices.Clone(ivs)
	slices.SortFunc(sorted, Interval.Compare)

	out := []Interval{sorted[0]}
	for _, iv := range sorted[1:] {
		last := &out[len(out)-1]
		if last.Touches(iv) {
			*last = last.Hull(iv)
			continue
		}
		out = append(out, iv)
	}
	return out
}

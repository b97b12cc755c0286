package evolution

import (
	"fmt"
	"math"
	"strings"

	"github.com/matzehuels/dynlayout/pkg/interval"
)

// Interpolation names how a rect function moves between its two values.
type Interpolation int

const (
	// Linear blends at constant speed.
	Linear Interpolation = iota
	// Step holds the left value until the right bound is reached.
	Step
	// EaseIn starts slowly and accelerates.
	EaseIn
	// EaseOut starts quickly and decelerates.
	EaseOut
	// EaseInOut is slow at both ends (smoothstep).
	EaseInOut
)

var interpolationNames = [...]string{"linear", "step", "ease-in", "ease-out", "ease-in-out"}

func (k Interpolation) String() string {
	if k < 0 || int(k) >= len(interpolationNames) {
		return fmt.Sprintf("Interpolation(%d)", int(k))
	}
	return interpolationNames[k]
}

// ParseInterpolation maps a name such as "ease-in" to its kind. The empty
// string parses as Linear.
func ParseInterpolation(s string) (Interpolation, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return Linear, nil
	}
	for i, name := range interpolationNames {
		if s == name || s == strings.ReplaceAll(name, "-", "") {
			return Interpolation(i), nil
		}
	}
	return Linear, fmt.Errorf("unknown interpolation %q", s)
}

// Apply maps a progress fraction in [0, 1] to an eased fraction.
func (k Interpolation) Apply(f float64) float64 {
	f = math.Max(0, math.Min(1, f))
	switch k {
	case Step:
		if f < 1 {
			return 0
		}
		return 1
	case EaseIn:
		return f * f
	case EaseOut:
		return 1 - (1-f)*(1-f)
	case EaseInOut:
		return f * f * (3 - 2*f)
	default:
		return f
	}
}

// Lerp blends a towards b by fraction f in [0, 1].
type Lerp[T any] func(a, b T, f float64) T

// Function is one timed piece of an evolution.
type Function[T any] struct {
	iv     interval.Interval
	rect   bool
	left   T
	right  T
	interp Interpolation
}

// Const returns a function holding v across iv.
func Const[T any](iv interval.Interval, v T) Function[T] {
	return Function[T]{iv: iv, left: v, right: v}
}

// Rect returns a function moving from left at iv's left bound to right at
// its right bound.
func Rect[T any](iv interval.Interval, left, right T, interp Interpolation) Function[T] {
	return Function[T]{iv: iv, rect: true, left: left, right: right, interp: interp}
}

// Interval returns the span the function is defined on.
func (f Function[T]) Interval() interval.Interval { return f.iv }

// IsConst reports whether the function holds a single value.
func (f Function[T]) IsConst() bool { return !f.rect }

// LeftValue returns the value at the left bound.
func (f Function[T]) LeftValue() T { return f.left }

// RightValue returns the value at the right bound.
func (f Function[T]) RightValue() T { return f.right }

// Interpolation returns the blending kind. Constant functions report Linear.
func (f Function[T]) Interpolation() Interpolation { return f.interp }

// WithInterval returns a copy of f moved to iv.
func (f Function[T]) WithInterval(iv interval.Interval) Function[T] {
	f.iv = iv
	return f
}

// ValueAt evaluates the function at t. Rect functions over an unbounded or
// single-point interval evaluate to their left value.
func (f Function[T]) ValueAt(t float64, lerp Lerp[T]) T {
	if !f.rect || lerp == nil {
		return f.left
	}
	d := f.iv.Duration()
	if !f.iv.IsFinite() || d == 0 {
		return f.left
	}
	return lerp(f.left, f.right, f.interp.Apply((t-f.iv.Left())/d))
}

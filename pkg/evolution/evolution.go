package evolution

import (
	"errors"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/matzehuels/dynlayout/pkg/geom"
	"github.com/matzehuels/dynlayout/pkg/interval"
)

// ErrOverlap is returned by [Evolution.InsertStrict] when the new function's
// interval overlaps a stored one.
var ErrOverlap = errors.New("function overlaps an existing function")

// Evolution is a value over time: a default plus non-overlapping pieces.
//
// The zero value is not usable; use [New] or one of the typed constructors.
type Evolution[T any] struct {
	def  T
	lerp Lerp[T]
	fns  *interval.Tree[Function[T]]
}

// New creates an empty evolution. An empty evolution is the constant def.
func New[T any](def T, lerp Lerp[T]) *Evolution[T] {
	return &Evolution[T]{def: def, lerp: lerp, fns: interval.NewTree[Function[T]]()}
}

// NewPresence creates a presence evolution, absent unless stated otherwise.
func NewPresence() *Evolution[bool] { return New(false, LerpBool) }

// NewNumber creates a numeric evolution.
func NewNumber(def float64) *Evolution[float64] { return New(def, LerpFloat) }

// NewPosition creates a coordinate evolution.
func NewPosition(def r3.Vec) *Evolution[r3.Vec] { return New(def, LerpVec) }

// NewColor creates a colour evolution.
func NewColor(def geom.Color) *Evolution[geom.Color] { return New(def, LerpColor) }

// NewCurve creates a control-point evolution, straight by default.
func NewCurve() *Evolution[geom.ControlPoints] { return New(geom.ControlPoints(nil), LerpControlPoints) }

// Default returns the value used outside every function.
func (e *Evolution[T]) Default() T { return e.def }

// Lerp returns the blending function.
func (e *Evolution[T]) Lerp() Lerp[T] { return e.lerp }

// Len returns the number of stored functions.
func (e *Evolution[T]) Len() int { return e.fns.Len() }

// ValueAt returns the value at time t.
func (e *Evolution[T]) ValueAt(t float64) T {
	if f, ok := e.FunctionAt(t); ok {
		return f.ValueAt(t, e.lerp)
	}
	return e.def
}

// IsDefinedAt reports whether some function covers t.
func (e *Evolution[T]) IsDefinedAt(t float64) bool {
	_, ok := e.fns.AnyContaining(t)
	return ok
}

// FunctionAt returns the function covering t.
func (e *Evolution[T]) FunctionAt(t float64) (Function[T], bool) {
	entry, ok := e.fns.AnyContaining(t)
	return entry.Value, ok
}

// FirstValue returns the left value of the earliest function, or the default.
func (e *Evolution[T]) FirstValue() T {
	entry, ok := e.fns.First()
	if !ok {
		return e.def
	}
	return entry.Value.LeftValue()
}

// LastValue returns the right value of the latest function, or the default.
func (e *Evolution[T]) LastValue() T {
	entry, ok := e.fns.Last()
	if !ok {
		return e.def
	}
	return entry.Value.RightValue()
}

// Insert adds f without checking for overlap.
func (e *Evolution[T]) Insert(f Function[T]) {
	e.fns.Insert(f.Interval(), f)
}

// InsertStrict adds f unless it overlaps a stored function.
func (e *Evolution[T]) InsertStrict(f Function[T]) error {
	if _, ok := e.fns.AnyOverlapping(f.Interval()); ok {
		return ErrOverlap
	}
	e.Insert(f)
	return nil
}

// Delete removes a function stored under exactly iv.
func (e *Evolution[T]) Delete(iv interval.Interval) bool {
	_, ok := e.fns.Delete(iv)
	return ok
}

// Replace swaps the function stored under old for f.
// It reports false, leaving the evolution unchanged, when old is not stored.
func (e *Evolution[T]) Replace(old interval.Interval, f Function[T]) bool {
	if _, ok := e.fns.Delete(old); !ok {
		return false
	}
	e.Insert(f)
	return true
}

// Clear removes all functions.
func (e *Evolution[T]) Clear() { e.fns.Clear() }

// Functions returns every function ordered by interval.
func (e *Evolution[T]) Functions() []Function[T] {
	out := make([]Function[T], 0, e.fns.Len())
	for _, f := range e.fns.All() {
		out = append(out, f)
	}
	return out
}

// FunctionsOverlapping returns the functions whose interval overlaps iv.
func (e *Evolution[T]) FunctionsOverlapping(iv interval.Interval) []Function[T] {
	entries := e.fns.AllOverlapping(iv)
	out := make([]Function[T], len(entries))
	for i, entry := range entries {
		out[i] = entry.Value
	}
	return out
}

// Intervals returns the intervals of all functions in order.
func (e *Evolution[T]) Intervals() []interval.Interval {
	out := make([]interval.Interval, 0, e.fns.Len())
	for iv := range e.fns.All() {
		out = append(out, iv)
	}
	return out
}

// Clone returns an independent copy. Values are copied shallowly.
func (e *Evolution[T]) Clone() *Evolution[T] {
	c := New(e.def, e.lerp)
	for iv, f := range e.fns.All() {
		c.fns.Insert(iv, f)
	}
	return c
}

// Package evolution models attribute values that change over time.
//
// An [Evolution] is a default value plus a set of timed [Function] pieces
// kept in an [interval.Tree]. Asking for the value at time t returns the
// value of the piece containing t, or the default when no piece does:
//
//	pos := evolution.NewPosition(r3.Vec{})
//	pos.Insert(evolution.Rect(interval.MustClosed(0, 10),
//	    r3.Vec{X: 0}, r3.Vec{X: 10}, evolution.Linear))
//	pos.ValueAt(5) // {5 0 0}
//
// # Functions
//
// A [Function] is either constant over its interval or a "rect" that moves
// from a left value to a right value following an [Interpolation]. Values
// are blended by a [Lerp] chosen per value type; [LerpFloat], [LerpVec],
// [LerpColor], [LerpControlPoints] and [LerpBool] cover the closed set of
// attribute types.
//
// # Overlap
//
// Pieces are expected not to overlap. [Evolution.Insert] trusts the caller,
// [Evolution.InsertStrict] checks and returns [ErrOverlap]. When pieces do
// overlap, lookups return one of them without further guarantee.
//
// # Attributes
//
// Graphs hold evolutions of different value types side by side through the
// type-erased [Attribute] interface. [As] recovers the typed evolution.
package evolution

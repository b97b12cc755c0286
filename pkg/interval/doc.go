// Package interval provides numeric intervals with independently open or
// closed endpoints and a balanced interval tree over them.
//
// # Intervals
//
// An [Interval] is immutable. Constructors return the interval together
// with an ok flag; a false flag means "no interval" and is the answer for
// reversed bounds, NaN bounds and empty single points:
//
//	iv, ok := interval.Closed(4, 6)     // [4, 6]
//	_, ok = interval.LeftClosed(6, 6)   // ok == false, [6, 6) is empty
//
// Infinite bounds are always open, whatever the caller asked for.
//
// # Tree
//
// [Tree] is a red-black tree keyed by interval, where every node also
// records the largest right bound in its subtree. Point and range queries
// use that augmentation to skip subtrees that end before the query begins,
// giving O(log n + k) lookups. Several entries may share the same interval.
//
// The zero value is not usable; create trees with [NewTree].
// A Tree is not safe for concurrent use.
package interval

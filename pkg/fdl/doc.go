// Package fdl is a modular force-directed layout engine for static 3-D
// graphs, most importantly the space-time mirror of a dynamic graph.
//
// # Pipeline
//
// A [Layout] is assembled with a [Builder] from four ordered lists of
// components. Every iteration runs them in a fixed order:
//
//  1. every [Force] adds its contribution to the per-node displacement
//  2. every [PreMovement] filter edits the raw displacement
//  3. every [Constraint] caps or reshapes the displacement
//  4. positions are committed
//  5. every [PostProcessing] step may restructure the graph
//
// Displacements that are NaN or infinite are replaced by zero before they
// are committed, and forces return zero for coincident points, so a run
// never produces a non-finite position.
//
// # Components
//
// Forces: [Gravity], [ConnectionAttraction], [NodeRepulsion],
// [EdgeRepulsion], [TimeStraightening] and the optional [Nudge].
// Constraints: [DecreasingMaxMovement] and [MovementAcceleration].
// Pre-movement: [ForbidTimeShifting]. Post-processing:
// [FlexibleTimeTrajectories].
//
// [Standard] returns a builder preloaded with the usual space-time pipeline.
//
// # Determinism
//
// An iteration depends only on the current positions and the configured
// components. The only randomness is the [Nudge] force, whose noise field
// is derived from the builder seed.
package fdl

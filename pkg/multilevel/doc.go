// Package multilevel speeds up dynamic layout by solving a hierarchy of
// ever smaller graphs.
//
// # Coarsening
//
// Starting from the input graph (level 0), a [Coarsener] repeatedly merges
// nodes into clusters. Every cluster becomes one node of the next level;
// its presence is the union of its members' presence and its weight is the
// sum of their weights. Edges between clusters merge the same way.
//
// Coarsening stops when the graph is small enough ([Config.TargetSize]),
// when a step no longer shrinks it enough ([Config.MinShrink]), or at
// [Config.MaxDepth].
//
// # Refinement
//
// The coarsest level is flattened over time and placed by a fast
// [StaticLayout]. Then, from the coarsest level down, a [Placement] derives
// the initial positions of a level from the solved level above it, and a
// single force-directed run on the level's space-time mirror refines them.
//
// [StrategyFor] pairs coarseners with their matching placement by name.
package multilevel

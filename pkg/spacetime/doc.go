// Package spacetime embeds a dynamic graph in the space-time cube and writes
// solved positions back.
//
// [Synchroniser.Build] creates a static mirror [graph.Graph] whose Z axis is
// time. Each dynamic node becomes a chain of sample nodes joined by
// trajectory edges, each dynamic edge becomes connection edges between the
// samples of its endpoints that are nearest in time, and edge control
// points become bend nodes. The force engine then solves the mirror like
// any static graph.
//
// [Synchroniser.UpdateOriginal] reads the mirror back. Samples are regrouped
// by owner and sorted by time, so samples added or removed while the mirror
// was being solved are honoured, and each node's position evolution is
// rewritten with rect functions between consecutive samples.
//
// # Sampling
//
// In [Continuous] mode a node is sampled at the bounds of each presence
// interval and at the bounds of its position functions inside it. In
// [Discrete] mode it is sampled at the ticks Origin + k·Tick inside each
// presence interval, plus the interval's closed bounds.
package spacetime

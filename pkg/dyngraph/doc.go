// Package dyngraph provides dynamic graphs: nodes and directed edges whose
// every attribute is an [evolution.Evolution] over time.
//
// # Reserved Attributes
//
// Every node and edge carries [AttrPresence], an Evolution[bool] saying when
// it exists. Nodes also carry [AttrPosition] (Evolution[r3.Vec]) and edges
// carry [AttrEdgePoints] (Evolution[geom.ControlPoints]). Coarsened graphs
// add [AttrWeight]. Any other named attribute may be attached with
// SetAttribute.
//
// # Snapshots
//
// [Graph.SnapshotAt] extracts the static graph at one instant: a node is in
// the snapshot iff it is present at t, an edge iff it and both endpoints
// are present. Attribute values at t land in the snapshot's metadata.
//
// # Subgraphs
//
// Graphs form a tree. [Graph.Subgraph] creates a child that keeps an
// explicit parent pointer; [Graph.ResolveAttribute] walks that chain toward
// the root and returns the first match. Nodes added to a subgraph are added
// to every ancestor as well.
//
// # Time Inertia
//
// [Graph.AutocomputeTau] derives the τ constant that sets how strongly
// trajectories resist lateral movement, from the mean duration of finite
// presence intervals relative to the finite time span of the graph.
package dyngraph

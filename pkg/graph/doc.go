// Package graph provides the static attributed graph used for snapshots of a
// dynamic graph and for the space-time mirror the layout engine works on.
//
// # Overview
//
// A [Graph] holds nodes with a 3-D position and directed edges, at most one
// per ordered pair of endpoints. Nodes and edges keep insertion order, so
// iteration is deterministic and layout runs are reproducible for a fixed
// seed.
//
// # Basic Usage
//
//	g := graph.New(nil)
//	g.AddNode(graph.Node{ID: "a"})
//	g.AddNode(graph.Node{ID: "b", Pos: r3.Vec{X: 1}})
//	g.AddEdge(graph.Edge{From: "a", To: "b"})
//
// # Mirror Graphs
//
// When a dynamic graph is embedded in the space-time cube, every node of
// the mirror stands for one time sample of a dynamic node ([NodeKindSample])
// or one bend point of a dynamic edge ([NodeKindBend]). [Node.Owner] links
// it back to the dynamic element and [Node.Time] records the sample time.
// Edges are typed the same way: [EdgeKindTrajectory] joins consecutive
// samples of one node, [EdgeKindConnection] stands for a dynamic edge at one
// instant, and [EdgeKindBend] chains bend points.
//
// # Metadata
//
// Nodes, edges and the graph carry [Metadata] maps for attribute values
// that are not positions. Metadata maps are never nil once added.
//
// # Concurrency
//
// Graph is not safe for concurrent use. Clone before sharing.
package graph

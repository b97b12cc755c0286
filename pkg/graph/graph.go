package graph

import (
	"errors"
	"maps"
	"math"
	"slices"

	"gonum.org/v1/gonum/spatial/r3"
)

var (
	// ErrInvalidNodeID is returned by [Graph.AddNode] when the node ID is empty.
	ErrInvalidNodeID = errors.New("node ID must not be empty")

	// ErrDuplicateNodeID is returned by [Graph.AddNode] when a node with the
	// same ID already exists.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrUnknownSourceNode is returned by [Graph.AddEdge] when the From node
	// does not exist.
	ErrUnknownSourceNode = errors.New("unknown source node")

	// ErrUnknownTargetNode is returned by [Graph.AddEdge] when the To node
	// does not exist.
	ErrUnknownTargetNode = errors.New("unknown target node")

	// ErrDuplicateEdge is returned by [Graph.AddEdge] when an edge with the
	// same ordered endpoints already exists.
	ErrDuplicateEdge = errors.New("duplicate edge")
)

// Metadata stores arbitrary key-value pairs attached to nodes, edges or the
// graph. Snapshots put attribute values here.
type Metadata map[string]any

// NodeKind distinguishes plain nodes from the synthetic nodes of a mirror.
type NodeKind int

const (
	// NodeKindRegular is a node of a snapshot or of a static input graph.
	NodeKindRegular NodeKind = iota
	// NodeKindSample is one time sample of a dynamic node.
	NodeKindSample
	// NodeKindBend is one control point of a dynamic edge.
	NodeKindBend
)

func (k NodeKind) String() string {
	switch k {
	case NodeKindSample:
		return "sample"
	case NodeKindBend:
		return "bend"
	default:
		return "regular"
	}
}

// EdgeKind classifies mirror edges.
type EdgeKind int

const (
	// EdgeKindRegular is an edge of a snapshot or static input graph.
	EdgeKindRegular EdgeKind = iota
	// EdgeKindConnection stands for a dynamic edge at one instant.
	EdgeKindConnection
	// EdgeKindTrajectory joins consecutive samples of one dynamic node.
	EdgeKindTrajectory
	// EdgeKindBend joins an edge's endpoint samples through its bend points.
	EdgeKindBend
)

func (k EdgeKind) String() string {
	switch k {
	case EdgeKindConnection:
		return "connection"
	case EdgeKindTrajectory:
		return "trajectory"
	case EdgeKindBend:
		return "bend"
	default:
		return "regular"
	}
}

// Node is a vertex with a position. For mirror nodes Pos.Z is time.
type Node struct {
	ID   string
	Pos  r3.Vec
	Meta Metadata // never nil after AddNode

	// Kind marks synthetic mirror nodes.
	Kind NodeKind
	// Owner is the dynamic node (samples) or edge (bends) this node stands for.
	Owner string
	// Time is the sample time the node was created at.
	Time float64
	// Anchor marks samples created at fixed times: presence bounds, native
	// events and discrete ticks. Anchors never move in time and are never
	// removed by post-processing.
	Anchor bool
	// Index orders bend points along their edge.
	Index int
}

// EffectiveID returns Owner if set, otherwise the node's ID.
func (n Node) EffectiveID() string {
	if n.Owner != "" {
		return n.Owner
	}
	return n.ID
}

// Edge is a directed connection between two nodes.
type Edge struct {
	From   string
	To     string
	Kind   EdgeKind
	Owner  string   // dynamic edge or node this edge stands for
	Weight float64  // 0 is read as 1
	Meta   Metadata // never nil after AddEdge
}

// EffectiveWeight returns Weight, or 1 when unset.
func (e Edge) EffectiveWeight() float64 {
	if e.Weight == 0 {
		return 1
	}
	return e.Weight
}

type pair struct{ from, to string }

// Graph is a static directed graph with positioned nodes.
//
// The zero value is not usable; use [New].
type Graph struct {
	nodes    map[string]*Node
	order    []string
	edges    []*Edge
	index    map[pair]*Edge
	outgoing map[string][]string
	incoming map[string][]string
	meta     Metadata
}

// New creates an empty graph with optional graph-level metadata.
func New(meta Metadata) *Graph {
	if meta == nil {
		meta = Metadata{}
	}
	return &Graph{
		nodes:    make(map[string]*Node),
		index:    make(map[pair]*Edge),
		outgoing: make(map[string][]string),
		incoming: make(map[string][]string),
		meta:     meta,
	}
}

// Meta returns the graph-level metadata map.
func (g *Graph) Meta() Metadata { return g.meta }

// AddNode adds a node. The node's Meta is initialised if nil.
func (g *Graph) AddNode(n Node) error {
	if n.ID == "" {
		return ErrInvalidNodeID
	}
	if _, exists := g.nodes[n.ID]; exists {
		return ErrDuplicateNodeID
	}
	if n.Meta == nil {
		n.Meta = Metadata{}
	}
	g.nodes[n.ID] = &n
	g.order = append(g.order, n.ID)
	return nil
}

// AddEdge adds a directed edge between two existing nodes.
func (g *Graph) AddEdge(e Edge) error {
	if _, ok := g.nodes[e.From]; !ok {
		return ErrUnknownSourceNode
	}
	if _, ok := g.nodes[e.To]; !ok {
		return ErrUnknownTargetNode
	}
	key := pair{e.From, e.To}
	if _, ok := g.index[key]; ok {
		return ErrDuplicateEdge
	}
	if e.Meta == nil {
		e.Meta = Metadata{}
	}
	edge := &e
	g.edges = append(g.edges, edge)
	g.index[key] = edge
	g.outgoing[e.From] = append(g.outgoing[e.From], e.To)
	g.incoming[e.To] = append(g.incoming[e.To], e.From)
	return nil
}

// RemoveEdge removes the edge from→to if it exists.
func (g *Graph) RemoveEdge(from, to string) bool {
	key := pair{from, to}
	edge, ok := g.index[key]
	if !ok {
		return false
	}
	delete(g.index, key)
	g.edges = slices.DeleteFunc(g.edges, func(e *Edge) bool { return e == edge })
	g.outgoing[from] = slices.DeleteFunc(g.outgoing[from], func(s string) bool { return s == to })
	g.incoming[to] = slices.DeleteFunc(g.incoming[to], func(s string) bool { return s == from })
	return true
}

// RemoveNode removes a node together with its incident edges.
func (g *Graph) RemoveNode(id string) bool {
	if _, ok := g.nodes[id]; !ok {
		return false
	}
	for _, to := range slices.Clone(g.outgoing[id]) {
		g.RemoveEdge(id, to)
	}
	for _, from := range slices.Clone(g.incoming[id]) {
		g.RemoveEdge(from, id)
	}
	delete(g.nodes, id)
	delete(g.outgoing, id)
	delete(g.incoming, id)
	g.order = slices.DeleteFunc(g.order, func(s string) bool { return s == id })
	return true
}

// Node returns the node with the given ID. The pointer refers to the stored
// node, so position updates affect the graph.
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Edge returns the edge from→to.
func (g *Graph) Edge(from, to string) (*Edge, bool) {
	e, ok := g.index[pair{from, to}]
	return e, ok
}

// Nodes returns all nodes in insertion order.
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, len(g.order))
	for i, id := range g.order {
		out[i] = g.nodes[id]
	}
	return out
}

// Edges returns all edges in insertion order.
func (g *Graph) Edges() []*Edge { return slices.Clone(g.edges) }

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// Children returns the targets of the node's outgoing edges.
func (g *Graph) Children(id string) []string { return g.outgoing[id] }

// Parents returns the sources of the node's incoming edges.
func (g *Graph) Parents(id string) []string { return g.incoming[id] }

// Neighbors returns the node's adjacent IDs in both directions, without
// duplicates.
func (g *Graph) Neighbors(id string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, list := range [][]string{g.outgoing[id], g.incoming[id]} {
		for _, other := range list {
			if !seen[other] {
				seen[other] = true
				out = append(out, other)
			}
		}
	}
	return out
}

// Degree returns the number of edges incident to the node.
func (g *Graph) Degree(id string) int { return len(g.outgoing[id]) + len(g.incoming[id]) }

// CenterOfMass returns the mean node position, or the origin for an empty graph.
func (g *Graph) CenterOfMass() r3.Vec {
	if len(g.order) == 0 {
		return r3.Vec{}
	}
	var sum r3.Vec
	for _, id := range g.order {
		sum = r3.Add(sum, g.nodes[id].Pos)
	}
	return r3.Scale(1/float64(len(g.order)), sum)
}

// Bounds returns the component-wise minimum and maximum node positions.
func (g *Graph) Bounds() (lo, hi r3.Vec) {
	if len(g.order) == 0 {
		return r3.Vec{}, r3.Vec{}
	}
	lo = r3.Vec{X: math.Inf(1), Y: math.Inf(1), Z: math.Inf(1)}
	hi = r3.Vec{X: math.Inf(-1), Y: math.Inf(-1), Z: math.Inf(-1)}
	for _, id := range g.order {
		p := g.nodes[id].Pos
		lo = r3.Vec{X: math.Min(lo.X, p.X), Y: math.Min(lo.Y, p.Y), Z: math.Min(lo.Z, p.Z)}
		hi = r3.Vec{X: math.Max(hi.X, p.X), Y: math.Max(hi.Y, p.Y), Z: math.Max(hi.Z, p.Z)}
	}
	return lo, hi
}

// Clone returns a deep copy of the graph structure. Metadata maps are copied
// one level deep.
func (g *Graph) Clone() *Graph {
	c := New(maps.Clone(g.meta))
	for _, n := range g.Nodes() {
		cp := *n
		cp.Meta = maps.Clone(n.Meta)
		_ = c.AddNode(cp)
	}
	for _, e := range g.edges {
		cp := *e
		cp.Meta = maps.Clone(e.Meta)
		_ = c.AddEdge(cp)
	}
	return c
}

// NodeIDs extracts the ID from each node in a slice.
func NodeIDs(nodes []*Node) []string {
	ids := make([]string, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID
	}
	return ids
}

package dyngraph

import (
	"errors"
	"slices"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/matzehuels/dynlayout/pkg/evolution"
	"github.com/matzehuels/dynlayout/pkg/geom"
	"github.com/matzehuels/dynlayout/pkg/interval"
)

// Reserved attribute names.
const (
	AttrPresence   = "dyPresence"
	AttrPosition   = "nodePosition"
	AttrEdgePoints = "edgePoints"
	AttrWeight     = "weight"
	AttrColor      = "color"
)

var (
	// ErrInvalidID is returned when a node or edge ID is empty.
	ErrInvalidID = errors.New("id must not be empty")

	// ErrDuplicateNode is returned by [Graph.AddNode] for an ID already in use.
	ErrDuplicateNode = errors.New("duplicate node")

	// ErrDuplicateEdge is returned by [Graph.AddEdge] when the ID is taken or
	// an edge with the same ordered endpoints already exists.
	ErrDuplicateEdge = errors.New("duplicate edge")

	// ErrUnknownNode is returned when an edge endpoint or included node does
	// not exist.
	ErrUnknownNode = errors.New("unknown node")
)

// attributes is the named attribute set shared by nodes, edges and graphs.
type attributes map[string]evolution.Attribute

// Attribute returns the attribute stored under name.
func (a attributes) Attribute(name string) (evolution.Attribute, bool) {
	v, ok := a[name]
	return v, ok
}

// SetAttribute stores attr under name, replacing any previous value.
func (a attributes) SetAttribute(name string, attr evolution.Attribute) { a[name] = attr }

// AttributeNames returns the stored names in sorted order.
func (a attributes) AttributeNames() []string {
	names := make([]string, 0, len(a))
	for name := range a {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func (a attributes) clone() attributes {
	c := make(attributes, len(a))
	for name, attr := range a {
		c[name] = attr.CloneAttribute()
	}
	return c
}

// lookup returns the named attribute if it exists with type T. Unlike the
// accessors it never creates the attribute, so readers may share a graph.
func lookup[T any](a attributes, name string) (*evolution.Evolution[T], bool) {
	if attr, ok := a[name]; ok {
		return evolution.As[T](attr)
	}
	return nil, false
}

func typed[T any](a attributes, name string, create func() *evolution.Evolution[T]) *evolution.Evolution[T] {
	if attr, ok := a[name]; ok {
		if e, ok := evolution.As[T](attr); ok {
			return e
		}
	}
	e := create()
	a[name] = e
	return e
}

// Node is a dynamic node.
type Node struct {
	ID string
	attributes
}

// Presence returns when the node exists.
func (n *Node) Presence() *evolution.Evolution[bool] {
	return typed(n.attributes, AttrPresence, evolution.NewPresence)
}

// Position returns the node's position over time.
func (n *Node) Position() *evolution.Evolution[r3.Vec] {
	return typed(n.attributes, AttrPosition, func() *evolution.Evolution[r3.Vec] {
		return evolution.NewPosition(r3.Vec{})
	})
}

// Weight returns the node's weight, 1 unless set by coarsening.
func (n *Node) Weight() *evolution.Evolution[float64] {
	return typed(n.attributes, AttrWeight, func() *evolution.Evolution[float64] {
		return evolution.NewNumber(1)
	})
}

// SetPresent marks the node present on iv.
func (n *Node) SetPresent(iv interval.Interval) { n.Presence().Insert(evolution.Const(iv, true)) }

// PresentIntervals returns the intervals on which the node is present.
func (n *Node) PresentIntervals() []interval.Interval { return presentIntervals(n.attributes) }

// Edge is a directed dynamic edge.
type Edge struct {
	ID   string
	From string
	To   string
	attributes
}

// Presence returns when the edge exists.
func (e *Edge) Presence() *evolution.Evolution[bool] {
	return typed(e.attributes, AttrPresence, evolution.NewPresence)
}

// Points returns the edge's control points over time.
func (e *Edge) Points() *evolution.Evolution[geom.ControlPoints] {
	return typed(e.attributes, AttrEdgePoints, evolution.NewCurve)
}

// Weight returns the edge's weight, 1 unless set by coarsening.
func (e *Edge) Weight() *evolution.Evolution[float64] {
	return typed(e.attributes, AttrWeight, func() *evolution.Evolution[float64] {
		return evolution.NewNumber(1)
	})
}

// SetPresent marks the edge present on iv.
func (e *Edge) SetPresent(iv interval.Interval) { e.Presence().Insert(evolution.Const(iv, true)) }

// PresentIntervals returns the intervals on which the edge is present.
func (e *Edge) PresentIntervals() []interval.Interval { return presentIntervals(e.attributes) }

// Other returns the endpoint opposite to id.
func (e *Edge) Other(id string) string {
	if e.From == id {
		return e.To
	}
	return e.From
}

func presentIntervals(a attributes) []interval.Interval {
	p, ok := lookup[bool](a, AttrPresence)
	if !ok {
		return nil
	}
	var out []interval.Interval
	for _, f := range p.Functions() {
		if f.LeftValue() || f.RightValue() {
			out = append(out, f.Interval())
		}
	}
	return out
}

type pair struct{ from, to string }

// Graph is a dynamic graph, possibly a subgraph of another.
//
// The zero value is not usable; use [New].
type Graph struct {
	name     string
	parent   *Graph
	children []*Graph
	attributes

	nodes     map[string]*Node
	nodeOrder []string
	edges     map[string]*Edge
	edgeOrder []string
	pairs     map[pair]string
	incident  map[string][]string // node ID -> edge IDs
}

// New creates an empty root graph.
func New() *Graph { return newGraph("", nil) }

func newGraph(name string, parent *Graph) *Graph {
	return &Graph{
		name:       name,
		parent:     parent,
		attributes: attributes{},
		nodes:      make(map[string]*Node),
		edges:      make(map[string]*Edge),
		pairs:      make(map[pair]string),
		incident:   make(map[string][]string),
	}
}

// Name returns the subgraph name, empty for a root.
func (g *Graph) Name() string { return g.name }

// Parent returns the enclosing graph, or nil for a root.
func (g *Graph) Parent() *Graph { return g.parent }

// Children returns the direct subgraphs in creation order.
func (g *Graph) Children() []*Graph { return g.children }

// Root returns the top of the subgraph chain.
func (g *Graph) Root() *Graph {
	r := g
	for r.parent != nil {
		r = r.parent
	}
	return r
}

// Subgraph creates a named child graph with no members.
func (g *Graph) Subgraph(name string) *Graph {
	c := newGraph(name, g)
	g.children = append(g.children, c)
	return c
}

// ResolveAttribute looks name up on g and then on each ancestor; the first
// graph that defines it wins.
func (g *Graph) ResolveAttribute(name string) (evolution.Attribute, bool) {
	for cur := g; cur != nil; cur = cur.parent {
		if attr, ok := cur.attributes[name]; ok {
			return attr, true
		}
	}
	return nil, false
}

// ResolveNodeAttribute returns the node's own attribute, or the graph-level
// attribute of the same name resolved through the subgraph chain.
func (g *Graph) ResolveNodeAttribute(n *Node, name string) (evolution.Attribute, bool) {
	if attr, ok := n.attributes[name]; ok {
		return attr, true
	}
	return g.ResolveAttribute(name)
}

// AddNode creates a node with an empty presence and position. On a
// subgraph the node is created in every ancestor too.
func (g *Graph) AddNode(id string) (*Node, error) {
	if id == "" {
		return nil, ErrInvalidID
	}
	if _, ok := g.nodes[id]; ok {
		return nil, ErrDuplicateNode
	}
	var n *Node
	if g.parent != nil {
		if existing, ok := g.parent.nodes[id]; ok {
			n = existing
		} else {
			created, err := g.parent.AddNode(id)
			if err != nil {
				return nil, err
			}
			n = created
		}
	} else {
		n = &Node{ID: id, attributes: attributes{}}
		n.Presence()
		n.Position()
	}
	g.insertNode(n)
	return n, nil
}

func (g *Graph) insertNode(n *Node) {
	g.nodes[n.ID] = n
	g.nodeOrder = append(g.nodeOrder, n.ID)
}

// AddEdge creates a directed edge between two existing nodes. At most one
// edge may exist per ordered pair of endpoints.
func (g *Graph) AddEdge(id, from, to string) (*Edge, error) {
	if id == "" {
		return nil, ErrInvalidID
	}
	if _, ok := g.nodes[from]; !ok {
		return nil, ErrUnknownNode
	}
	if _, ok := g.nodes[to]; !ok {
		return nil, ErrUnknownNode
	}
	if _, ok := g.edges[id]; ok {
		return nil, ErrDuplicateEdge
	}
	if _, ok := g.pairs[pair{from, to}]; ok {
		return nil, ErrDuplicateEdge
	}
	var e *Edge
	if g.parent != nil {
		if existing, ok := g.parent.edges[id]; ok {
			e = existing
		} else {
			created, err := g.parent.AddEdge(id, from, to)
			if err != nil {
				return nil, err
			}
			e = created
		}
	} else {
		e = &Edge{ID: id, From: from, To: to, attributes: attributes{}}
		e.Presence()
	}
	g.insertEdge(e)
	return e, nil
}

func (g *Graph) insertEdge(e *Edge) {
	g.edges[e.ID] = e
	g.edgeOrder = append(g.edgeOrder, e.ID)
	g.pairs[pair{e.From, e.To}] = e.ID
	g.incident[e.From] = append(g.incident[e.From], e.ID)
	if e.To != e.From {
		g.incident[e.To] = append(g.incident[e.To], e.ID)
	}
}

// Include makes existing nodes of the parent graph members of this
// subgraph, together with every parent edge whose endpoints are both members.
func (g *Graph) Include(ids ...string) error {
	if g.parent == nil {
		return nil
	}
	for _, id := range ids {
		if _, ok := g.nodes[id]; ok {
			continue
		}
		n, ok := g.parent.nodes[id]
		if !ok {
			return ErrUnknownNode
		}
		g.insertNode(n)
	}
	for _, eid := range g.parent.edgeOrder {
		e := g.parent.edges[eid]
		if _, ok := g.edges[eid]; ok {
			continue
		}
		if _, ok := g.nodes[e.From]; !ok {
			continue
		}
		if _, ok := g.nodes[e.To]; ok {
			g.insertEdge(e)
		}
	}
	return nil
}

// RemoveEdge deletes the edge from this graph and all its subgraphs.
func (g *Graph) RemoveEdge(id string) bool {
	e, ok := g.edges[id]
	if !ok {
		return false
	}
	for _, c := range g.children {
		c.RemoveEdge(id)
	}
	delete(g.edges, id)
	delete(g.pairs, pair{e.From, e.To})
	g.edgeOrder = slices.DeleteFunc(g.edgeOrder, func(s string) bool { return s == id })
	for _, end := range []string{e.From, e.To} {
		g.incident[end] = slices.DeleteFunc(g.incident[end], func(s string) bool { return s == id })
	}
	return true
}

// RemoveNode deletes the node and its incident edges from this graph and
// all its subgraphs.
func (g *Graph) RemoveNode(id string) bool {
	if _, ok := g.nodes[id]; !ok {
		return false
	}
	for _, eid := range slices.Clone(g.incident[id]) {
		g.RemoveEdge(eid)
	}
	for _, c := range g.children {
		c.RemoveNode(id)
	}
	delete(g.nodes, id)
	delete(g.incident, id)
	g.nodeOrder = slices.DeleteFunc(g.nodeOrder, func(s string) bool { return s == id })
	return true
}

// Node returns the node with the given ID.
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Edge returns the edge with the given ID.
func (g *Graph) Edge(id string) (*Edge, bool) {
	e, ok := g.edges[id]
	return e, ok
}

// EdgeBetween returns the edge from→to.
func (g *Graph) EdgeBetween(from, to string) (*Edge, bool) {
	id, ok := g.pairs[pair{from, to}]
	if !ok {
		return nil, false
	}
	return g.edges[id], true
}

// Nodes returns the nodes in insertion order.
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, len(g.nodeOrder))
	for i, id := range g.nodeOrder {
		out[i] = g.nodes[id]
	}
	return out
}

// Edges returns the edges in insertion order.
func (g *Graph) Edges() []*Edge {
	out := make([]*Edge, len(g.edgeOrder))
	for i, id := range g.edgeOrder {
		out[i] = g.edges[id]
	}
	return out
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// IncidentEdges returns the edges touching the node, in insertion order.
func (g *Graph) IncidentEdges(id string) []*Edge {
	ids := g.incident[id]
	out := make([]*Edge, len(ids))
	for i, eid := range ids {
		out[i] = g.edges[eid]
	}
	return out
}

// Neighbors returns the IDs of nodes sharing an edge with id, without
// duplicates, in edge insertion order.
func (g *Graph) Neighbors(id string) []string {
	var out []string
	seen := map[string]bool{id: true}
	for _, eid := range g.incident[id] {
		other := g.edges[eid].Other(id)
		if !seen[other] {
			seen[other] = true
			out = append(out, other)
		}
	}
	return out
}

// Clone returns a deep copy of the graph's nodes, edges and graph
// attributes. The copy is a root: subgraphs are not carried over.
func (g *Graph) Clone() *Graph {
	c := New()
	c.attributes = g.attributes.clone()
	for _, n := range g.Nodes() {
		c.insertNode(&Node{ID: n.ID, attributes: n.attributes.clone()})
	}
	for _, e := range g.Edges() {
		c.insertEdge(&Edge{ID: e.ID, From: e.From, To: e.To, attributes: e.attributes.clone()})
	}
	return c
}

package dyngraph

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/matzehuels/dynlayout/pkg/graph"
	"github.com/matzehuels/dynlayout/pkg/interval"
)

// SnapshotAt returns the static graph at time t. A node is included iff it
// is present at t; an edge iff it is present at t and so are both its
// endpoints. Node positions are the position values at t with the time
// component cleared. Every other attribute is evaluated at t and stored in
// the node's, edge's or graph's metadata under its name.
func (g *Graph) SnapshotAt(t float64) *graph.Graph {
	meta := graph.Metadata{"time": t}
	for cur := g; cur != nil; cur = cur.parent {
		for _, name := range cur.AttributeNames() {
			if _, ok := meta[name]; !ok {
				meta[name] = cur.attributes[name].ValueAnyAt(t)
			}
		}
	}
	s := graph.New(meta)

	for _, n := range g.Nodes() {
		if !presentAt(n.attributes, t) {
			continue
		}
		pos := positionAt(n.attributes, t)
		node := graph.Node{ID: n.ID, Pos: r3.Vec{X: pos.X, Y: pos.Y}, Time: t, Meta: graph.Metadata{}}
		for _, name := range n.AttributeNames() {
			if name == AttrPresence || name == AttrPosition {
				continue
			}
			node.Meta[name] = n.attributes[name].ValueAnyAt(t)
		}
		_ = s.AddNode(node)
	}

	for _, e := range g.Edges() {
		if !presentAt(e.attributes, t) {
			continue
		}
		if _, ok := s.Node(e.From); !ok {
			continue
		}
		if _, ok := s.Node(e.To); !ok {
			continue
		}
		edge := graph.Edge{From: e.From, To: e.To, Owner: e.ID, Meta: graph.Metadata{}}
		for _, name := range e.AttributeNames() {
			if name == AttrPresence {
				continue
			}
			edge.Meta[name] = e.attributes[name].ValueAnyAt(t)
		}
		if w, ok := edge.Meta[AttrWeight].(float64); ok {
			edge.Weight = w
		}
		_ = s.AddEdge(edge)
	}
	return s
}

// TimeSpan returns the hull of all finite presence bounds of nodes and
// edges. It reports false when no presence interval has a finite bound.
func (g *Graph) TimeSpan() (interval.Interval, bool) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, t := range g.EventTimes() {
		lo = math.Min(lo, t)
		hi = math.Max(hi, t)
	}
	if lo > hi {
		return interval.Interval{}, false
	}
	return interval.Closed(lo, hi)
}

// EventTimes returns the sorted distinct finite bounds of every node and
// edge presence interval.
func (g *Graph) EventTimes() []float64 {
	var times []float64
	add := func(ivs []interval.Interval) {
		for _, iv := range ivs {
			for _, b := range []float64{iv.Left(), iv.Right()} {
				if !math.IsInf(b, 0) {
					times = append(times, b)
				}
			}
		}
	}
	for _, n := range g.Nodes() {
		add(n.PresentIntervals())
	}
	for _, e := range g.Edges() {
		add(e.PresentIntervals())
	}
	slices.Sort(times)
	return slices.Compact(times)
}

// Aggregate flattens the graph over time: every node and edge appears once,
// node positions are taken at the start of their first presence, and edge
// weights grow with the share of the time span the edge is present.
// Reciprocal edges collapse into the first one, which carries their summed
// weight.
func (g *Graph) Aggregate() *graph.Graph {
	span := 0.0
	if iv, ok := g.TimeSpan(); ok {
		span = iv.Duration()
	}
	out := graph.New(graph.Metadata{"aggregate": true})
	for _, n := range g.Nodes() {
		at := firstTime(n.PresentIntervals())
		pos := positionAt(n.attributes, at)
		_ = out.AddNode(graph.Node{
			ID:   n.ID,
			Pos:  r3.Vec{X: pos.X, Y: pos.Y},
			Meta: graph.Metadata{AttrWeight: weightAt(n.attributes, at)},
		})
	}
	for _, e := range g.Edges() {
		if e.From == e.To {
			continue
		}
		w := 1.0
		if span > 0 {
			w += presentDuration(e.PresentIntervals()) / span
		}
		if ex, ok := out.Edge(e.From, e.To); ok {
			ex.Weight += w
			continue
		}
		if ex, ok := out.Edge(e.To, e.From); ok {
			ex.Weight += w
			continue
		}
		_ = out.AddEdge(graph.Edge{From: e.From, To: e.To, Owner: e.ID, Weight: w})
	}
	return out
}

func firstTime(ivs []interval.Interval) float64 {
	if len(ivs) == 0 {
		return 0
	}
	if l := ivs[0].Left(); !math.IsInf(l, 0) {
		return l
	}
	if r := ivs[0].Right(); !math.IsInf(r, 0) {
		return r
	}
	return 0
}

func presentDuration(ivs []interval.Interval) float64 {
	total := 0.0
	for _, iv := range interval.Union(ivs) {
		if iv.IsFinite() {
			total += iv.Duration()
		}
	}
	return total
}

func presentAt(a attributes, t float64) bool {
	p, ok := lookup[bool](a, AttrPresence)
	return ok && p.ValueAt(t)
}

func positionAt(a attributes, t float64) r3.Vec {
	if p, ok := lookup[r3.Vec](a, AttrPosition); ok {
		return p.ValueAt(t)
	}
	return r3.Vec{}
}

// weightAt reads the weight attribute without creating it.
func weightAt(a attributes, t float64) float64 {
	if attr, ok := a[AttrWeight]; ok {
		if w, ok := attr.ValueAnyAt(t).(float64); ok {
			return w
		}
	}
	return 1
}

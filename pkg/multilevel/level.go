package multilevel

import (
	"fmt"
	"math"

	"github.com/matzehuels/dynlayout/pkg/dyngraph"
	"github.com/matzehuels/dynlayout/pkg/evolution"
	"github.com/matzehuels/dynlayout/pkg/geom"
	"github.com/matzehuels/dynlayout/pkg/interval"
)

// Role is the part a node plays in a solar system.
type Role int

const (
	RoleNone Role = iota
	RoleSun
	RolePlanet
	RoleMoon
)

func (r Role) String() string {
	switch r {
	case RoleSun:
		return "sun"
	case RolePlanet:
		return "planet"
	case RoleMoon:
		return "moon"
	default:
		return "none"
	}
}

// Coarsening records how one level maps onto the next coarser one.
type Coarsening struct {
	Coarsener string
	// Cluster maps every fine node to its coarse node.
	Cluster map[string]string
	// Center maps every coarse node to the fine node it was grown from.
	Center map[string]string
	// EdgeCluster maps fine edges between different clusters to their
	// coarse edge.
	EdgeCluster map[string]string
	// Role and Planet are only set by the solar merger. Planet maps each
	// moon to the planet it is attached to.
	Role   map[string]Role
	Planet map[string]string
}

// Members returns the fine nodes of coarse node c in fine graph order.
func (c *Coarsening) Members(fine *dyngraph.Graph, coarse string) []string {
	var out []string
	for _, n := range fine.Nodes() {
		if c.Cluster[n.ID] == coarse {
			out = append(out, n.ID)
		}
	}
	return out
}

// Level is one graph of the hierarchy.
type Level struct {
	Depth int
	Graph *dyngraph.Graph
	// Coarsening maps this level onto Depth+1. It is nil on the coarsest level.
	Coarsening *Coarsening
}

// Hierarchy is the sequence of levels from the input graph (Depth 0) to the
// coarsest one.
type Hierarchy struct {
	Levels []*Level
}

// Depth returns the number of coarsening steps.
func (h *Hierarchy) Depth() int { return len(h.Levels) - 1 }

// Finest returns the input level.
func (h *Hierarchy) Finest() *Level { return h.Levels[0] }

// Coarsest returns the last level.
func (h *Hierarchy) Coarsest() *Level { return h.Levels[len(h.Levels)-1] }

// Contract builds the coarse graph induced by the cluster assignment.
// Coarse nodes are named after their cluster; the presence of a cluster or
// merged edge is the union of its members' presence, and its weight is the
// sum of their weights. A merged edge takes the control points of its
// members, oriented along the merged edge; where members disagree the first
// one wins.
func Contract(fine *dyngraph.Graph, c *Coarsening) (*dyngraph.Graph, error) {
	coarse := dyngraph.New()
	presence := make(map[string][]interval.Interval)
	weight := make(map[string]float64)
	var order []string

	for _, n := range fine.Nodes() {
		cid, ok := c.Cluster[n.ID]
		if !ok {
			return nil, fmt.Errorf("node %q has no cluster", n.ID)
		}
		if _, seen := weight[cid]; !seen {
			order = append(order, cid)
		}
		presence[cid] = append(presence[cid], n.PresentIntervals()...)
		weight[cid] += readWeight(n)
	}
	for _, cid := range order {
		cn, err := coarse.AddNode(cid)
		if err != nil {
			return nil, err
		}
		for _, iv := range interval.Union(presence[cid]) {
			cn.SetPresent(iv)
		}
		cn.Weight().Insert(evolution.Const(interval.Everything(), weight[cid]))
	}

	c.EdgeCluster = make(map[string]string)
	edgePresence := make(map[string][]interval.Interval)
	edgeWeight := make(map[string]float64)
	edgePoints := make(map[string][]evolution.Function[geom.ControlPoints])
	var edgeOrder []string
	for _, e := range fine.Edges() {
		cu, cv := c.Cluster[e.From], c.Cluster[e.To]
		if cu == cv {
			continue
		}
		ce, ok := coarse.EdgeBetween(cu, cv)
		if !ok {
			ce, ok = coarse.EdgeBetween(cv, cu)
		}
		if !ok {
			var err error
			ce, err = coarse.AddEdge(edgeID(coarse, cu, cv), cu, cv)
			if err != nil {
				return nil, err
			}
			edgeOrder = append(edgeOrder, ce.ID)
		}
		c.EdgeCluster[e.ID] = ce.ID
		edgePresence[ce.ID] = append(edgePresence[ce.ID], e.PresentIntervals()...)
		edgeWeight[ce.ID] += readWeight(e)
		if pts, ok := pointsOf(e); ok {
			for _, f := range pts.Functions() {
				if ce.From != cu {
					f = reversedPoints(f)
				}
				edgePoints[ce.ID] = append(edgePoints[ce.ID], f)
			}
		}
	}
	for _, id := range edgeOrder {
		ce, _ := coarse.Edge(id)
		for _, iv := range interval.Union(edgePresence[id]) {
			ce.SetPresent(iv)
		}
		ce.Weight().Insert(evolution.Const(interval.Everything(), edgeWeight[id]))
		for _, f := range edgePoints[id] {
			_ = ce.Points().InsertStrict(f)
		}
	}
	return coarse, nil
}

// pointsOf returns the control points of e without creating the attribute.
func pointsOf(e *dyngraph.Edge) (*evolution.Evolution[geom.ControlPoints], bool) {
	attr, ok := e.Attribute(dyngraph.AttrEdgePoints)
	if !ok || attr.Len() == 0 {
		return nil, false
	}
	pts, ok := attr.(*evolution.Evolution[geom.ControlPoints])
	return pts, ok
}

func reversedPoints(f evolution.Function[geom.ControlPoints]) evolution.Function[geom.ControlPoints] {
	if f.IsConst() {
		return evolution.Const(f.Interval(), f.LeftValue().Reversed())
	}
	return evolution.Rect(f.Interval(), f.LeftValue().Reversed(), f.RightValue().Reversed(), f.Interpolation())
}

func edgeID(g *dyngraph.Graph, from, to string) string {
	id := from + "->" + to
	for k := 1; ; k++ {
		if _, taken := g.Edge(id); !taken {
			return id
		}
		id = fmt.Sprintf("%s->%s#%d", from, to, k)
	}
}

type attributed interface {
	Attribute(name string) (evolution.Attribute, bool)
	PresentIntervals() []interval.Interval
}

// readWeight returns the weight at the start of the first presence without
// creating the attribute.
func readWeight(a attributed) float64 {
	attr, ok := a.Attribute(dyngraph.AttrWeight)
	if !ok {
		return 1
	}
	t := 0.0
	if ivs := a.PresentIntervals(); len(ivs) > 0 && !math.IsInf(ivs[0].Left(), 0) {
		t = ivs[0].Left()
	}
	if w, ok := attr.ValueAnyAt(t).(float64); ok {
		return w
	}
	return 1
}

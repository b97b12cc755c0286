package multilevel

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/matzehuels/dynlayout/pkg/dyngraph"
	"github.com/matzehuels/dynlayout/pkg/evolution"
	"github.com/matzehuels/dynlayout/pkg/geom"
	"github.com/matzehuels/dynlayout/pkg/interval"
)

// Placement initialises the positions of a fine level from its solved
// coarse level.
type Placement interface {
	Name() string
	Place(fine, coarse *dyngraph.Graph, c *Coarsening, edgeLength float64)
}

// Identity gives every node the position of its cluster.
type Identity struct{}

func (Identity) Name() string { return "identity" }

func (Identity) Place(fine, coarse *dyngraph.Graph, c *Coarsening, _ float64) {
	for _, n := range fine.Nodes() {
		if cn, ok := coarse.Node(c.Cluster[n.ID]); ok {
			n.SetAttribute(dyngraph.AttrPosition, cn.Position().Clone())
		}
	}
}

// WeightedBarycenter keeps cluster centres at their cluster's position and
// places every other node at the average position of the clusters its edges
// lead to, weighted by edge weight. A node whose edges weigh nothing in total
// stays on its own cluster.
type WeightedBarycenter struct{}

func (WeightedBarycenter) Name() string { return "weighted-barycenter" }

func (WeightedBarycenter) Place(fine, coarse *dyngraph.Graph, c *Coarsening, _ float64) {
	for _, n := range fine.Nodes() {
		own, ok := coarse.Node(c.Cluster[n.ID])
		if !ok {
			continue
		}
		if c.Center[own.ID] == n.ID {
			n.SetAttribute(dyngraph.AttrPosition, own.Position().Clone())
			continue
		}

		var sources []*evolution.Evolution[r3.Vec]
		var weights []float64
		for _, e := range fine.IncidentEdges(n.ID) {
			other, ok := coarse.Node(c.Cluster[e.Other(n.ID)])
			if !ok {
				continue
			}
			sources = append(sources, other.Position())
			weights = append(weights, readWeight(e))
		}
		if len(sources) == 0 {
			sources, weights = append(sources, own.Position()), append(weights, 1)
		}
		ownPos := own.Position()
		n.SetAttribute(dyngraph.AttrPosition, sampled(func(t float64) r3.Vec {
			var sum r3.Vec
			total := 0.0
			for i, src := range sources {
				sum = r3.Add(sum, r3.Scale(weights[i], src.ValueAt(t)))
				total += weights[i]
			}
			if total <= 0 {
				return ownPos.ValueAt(t)
			}
			return r3.Scale(1/total, sum)
		}, append(sources, ownPos)...))
	}
}

// Solar places suns on their system's position, planets one edge length
// from their sun towards the systems they connect to, and moons half an edge
// length beyond their planet. Bodies without an outside connection are
// spread evenly around their sun.
type Solar struct{}

func (Solar) Name() string { return "solar" }

func (Solar) Place(fine, coarse *dyngraph.Graph, c *Coarsening, edgeLength float64) {
	if c.Role == nil {
		Identity{}.Place(fine, coarse, c, edgeLength)
		return
	}

	// Orbit slots for bodies without an outside direction.
	slot := make(map[string]int)
	count := make(map[string]int)
	for _, n := range fine.Nodes() {
		if c.Role[n.ID] != RoleSun {
			sys := c.Cluster[n.ID]
			slot[n.ID] = count[sys]
			count[sys]++
		}
	}

	planets := make(map[string]func(float64) r3.Vec)
	orbit := func(n *dyngraph.Node, radius float64) func(float64) r3.Vec {
		sys := c.Cluster[n.ID]
		sun, _ := coarse.Node(sys)
		var others []*evolution.Evolution[r3.Vec]
		for _, e := range fine.IncidentEdges(n.ID) {
			o := c.Cluster[e.Other(n.ID)]
			if o == sys {
				continue
			}
			if on, ok := coarse.Node(o); ok {
				others = append(others, on.Position())
			}
		}
		angle := 2 * math.Pi * float64(slot[n.ID]) / float64(max(count[sys], 1))
		fallback := r3.Vec{X: math.Cos(angle), Y: math.Sin(angle)}
		return func(t float64) r3.Vec {
			center := sun.Position().ValueAt(t)
			dir := fallback
			if len(others) > 0 {
				pts := make([]r3.Vec, len(others))
				for i, o := range others {
					pts[i] = o.ValueAt(t)
				}
				if d, err := geom.Direction(geom.Planar(center), geom.Planar(geom.Centroid(pts))); err == nil {
					dir = d
				}
			}
			return r3.Add(center, r3.Scale(radius, dir))
		}
	}

	for _, n := range fine.Nodes() {
		sun, ok := coarse.Node(c.Cluster[n.ID])
		if !ok {
			continue
		}
		switch c.Role[n.ID] {
		case RoleSun:
			n.SetAttribute(dyngraph.AttrPosition, sun.Position().Clone())
		case RolePlanet:
			f := orbit(n, edgeLength)
			planets[n.ID] = f
			n.SetAttribute(dyngraph.AttrPosition, sampled(f, sun.Position()))
		}
	}
	for _, n := range fine.Nodes() {
		if c.Role[n.ID] != RoleMoon {
			continue
		}
		sun, _ := coarse.Node(c.Cluster[n.ID])
		planet, ok := planets[c.Planet[n.ID]]
		if !ok {
			planet = orbit(n, edgeLength)
		}
		fallback := orbit(n, 1.5*edgeLength)
		n.SetAttribute(dyngraph.AttrPosition, sampled(func(t float64) r3.Vec {
			p := planet(t)
			d, err := geom.Direction(geom.Planar(sun.Position().ValueAt(t)), geom.Planar(p))
			if err != nil {
				return fallback(t)
			}
			return r3.Add(p, r3.Scale(edgeLength/2, d))
		}, sun.Position()))
	}
}

// sampled builds a piecewise linear position evolution by evaluating f at
// every finite function boundary of sources.
func sampled(f func(t float64) r3.Vec, sources ...*evolution.Evolution[r3.Vec]) *evolution.Evolution[r3.Vec] {
	var times []float64
	for _, src := range sources {
		for _, iv := range src.Intervals() {
			for _, t := range []float64{iv.Left(), iv.Right()} {
				if !math.IsInf(t, 0) {
					times = append(times, t)
				}
			}
		}
	}
	slices.Sort(times)
	times = slices.Compact(times)

	out := evolution.NewPosition(r3.Vec{})
	if len(times) == 0 {
		out.Insert(evolution.Const(interval.Everything(), f(0)))
		return out
	}
	first, last := times[0], times[len(times)-1]
	if iv, ok := interval.New(math.Inf(-1), first, false, false); ok {
		out.Insert(evolution.Const(iv, f(first)))
	}
	for i := 0; i+1 < len(times); i++ {
		iv, _ := interval.LeftClosed(times[i], times[i+1])
		out.Insert(evolution.Rect(iv, f(times[i]), f(times[i+1]), evolution.Linear))
	}
	if iv, ok := interval.New(last, math.Inf(1), true, false); ok {
		out.Insert(evolution.Const(iv, f(last)))
	}
	return out
}

// translate returns a copy of e with every value moved by off.
func translate(e *evolution.Evolution[r3.Vec], off r3.Vec) *evolution.Evolution[r3.Vec] {
	out := evolution.NewPosition(r3.Add(e.Default(), off))
	for _, f := range e.Functions() {
		if f.IsConst() {
			out.Insert(evolution.Const(f.Interval(), r3.Add(f.LeftValue(), off)))
			continue
		}
		out.Insert(evolution.Rect(f.Interval(), r3.Add(f.LeftValue(), off), r3.Add(f.RightValue(), off), f.Interpolation()))
	}
	return out
}

package fdl

import (
	"math"

	"github.com/ojrac/opensimplex-go"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/matzehuels/dynlayout/pkg/geom"
	"github.com/matzehuels/dynlayout/pkg/graph"
	"github.com/matzehuels/dynlayout/pkg/interval"
)

// Gravity pulls every node towards the planar centre of mass. Each iteration
// moves a node by Strength times its planar offset from the centre. Zero
// Strength means 1.
type Gravity struct {
	Strength float64
}

func (g Gravity) Compute(s *State, acc []r3.Vec) {
	if len(s.Nodes) == 0 {
		return
	}
	c := s.Graph.CenterOfMass()
	for i, n := range s.Nodes {
		acc[i] = r3.Add(acc[i], r3.Scale(strength(g.Strength), geom.Planar(r3.Sub(c, n.Pos))))
	}
}

// ConnectionAttraction pulls the endpoints of every non-trajectory edge
// together with magnitude d²/L, scaled by the edge weight.
type ConnectionAttraction struct {
	Strength float64
}

func (a ConnectionAttraction) Compute(s *State, acc []r3.Vec) {
	for _, l := range s.Links {
		if l.Kind == graph.EdgeKindTrajectory {
			continue
		}
		p, q := s.Pos(l.From), s.Pos(l.To)
		dir, err := geom.Direction(geom.Planar(p), geom.Planar(q))
		if err != nil {
			continue
		}
		d := geom.PlanarDistance(p, q)
		f := r3.Scale(strength(a.Strength)*l.Weight*d*d/s.EdgeLength, dir)
		acc[l.From] = r3.Add(acc[l.From], f)
		acc[l.To] = r3.Sub(acc[l.To], f)
	}
}

// NodeRepulsion pushes nodes apart with magnitude L²/d. When Window is
// positive only nodes whose times differ by at most Window interact, which
// keeps far-apart moments of a space-time cube independent. Samples of the
// same dynamic node never repel each other.
type NodeRepulsion struct {
	Strength float64
	Window   float64
}

func (r NodeRepulsion) Compute(s *State, acc []r3.Vec) {
	k := strength(r.Strength) * s.EdgeLength * s.EdgeLength
	for i := 0; i < len(s.Nodes); i++ {
		a := s.Nodes[i]
		for j := i + 1; j < len(s.Nodes); j++ {
			b := s.Nodes[j]
			if r.Window > 0 && math.Abs(a.Pos.Z-b.Pos.Z) > r.Window {
				continue
			}
			if a.EffectiveID() == b.EffectiveID() {
				continue
			}
			dir, err := geom.Direction(geom.Planar(b.Pos), geom.Planar(a.Pos))
			if err != nil {
				continue
			}
			f := r3.Scale(k/geom.PlanarDistance(a.Pos, b.Pos), dir)
			acc[i] = r3.Add(acc[i], f)
			acc[j] = r3.Sub(acc[j], f)
		}
	}
}

// EdgeRepulsion pushes nodes away from the trajectories of other dynamic
// nodes. Trajectory segments are indexed by their time span, so a node only
// visits the segments alive at its own time; the repelling point is the
// segment's position at that time.
type EdgeRepulsion struct {
	Strength float64
	// Cutoff ignores segments further than Cutoff·L away. Zero disables it.
	Cutoff float64
}

type trajectorySegment struct {
	link  int
	owner string
}

func (r EdgeRepulsion) Compute(s *State, acc []r3.Vec) {
	segments := interval.NewTree[trajectorySegment]()
	for li, l := range s.Links {
		if l.Kind != graph.EdgeKindTrajectory {
			continue
		}
		z1, z2 := s.Pos(l.From).Z, s.Pos(l.To).Z
		iv, ok := interval.Closed(math.Min(z1, z2), math.Max(z1, z2))
		if !ok {
			continue
		}
		segments.Insert(iv, trajectorySegment{link: li, owner: l.Owner})
	}
	if segments.Len() == 0 {
		return
	}

	k := strength(r.Strength) * s.EdgeLength * s.EdgeLength
	cutoff := r.Cutoff * s.EdgeLength
	for i, n := range s.Nodes {
		owner := n.EffectiveID()
		for _, e := range segments.AllContaining(n.Pos.Z) {
			if e.Value.owner == owner {
				continue
			}
			l := s.Links[e.Value.link]
			if l.From == i || l.To == i {
				continue
			}
			q, err := geom.Segment{A: s.Pos(l.From), B: s.Pos(l.To)}.AtZ(n.Pos.Z)
			if err != nil {
				continue
			}
			d := geom.PlanarDistance(n.Pos, q)
			if cutoff > 0 && d > cutoff {
				continue
			}
			dir, err := geom.Direction(geom.Planar(q), geom.Planar(n.Pos))
			if err != nil {
				continue
			}
			acc[i] = r3.Add(acc[i], r3.Scale(k/d, dir))
		}
	}
}

// TimeStraightening pulls every sample towards the planar average of its
// trajectory neighbours, so a node moves as little as possible between
// consecutive moments. The pull grows with τ. Samples that are free to move
// in time are additionally pulled to the temporal midpoint of their
// neighbours, which keeps trajectories monotonic along the time axis.
type TimeStraightening struct {
	Strength float64
}

func (t TimeStraightening) Compute(s *State, acc []r3.Vec) {
	adj := make([][]int, len(s.Nodes))
	for _, l := range s.Links {
		if l.Kind != graph.EdgeKindTrajectory {
			continue
		}
		adj[l.From] = append(adj[l.From], l.To)
		adj[l.To] = append(adj[l.To], l.From)
	}

	k := strength(t.Strength) * s.Tau
	for i, n := range s.Nodes {
		if len(adj[i]) == 0 {
			continue
		}
		pts := make([]r3.Vec, len(adj[i]))
		for j, o := range adj[i] {
			pts[j] = s.Pos(o)
		}
		c := geom.Centroid(pts)
		pull := r3.Scale(k, geom.Planar(r3.Sub(c, n.Pos)))
		if len(adj[i]) == 2 && n.Kind == graph.NodeKindSample && !n.Anchor {
			pull.Z = strength(t.Strength) * (c.Z - n.Pos.Z)
		}
		acc[i] = r3.Add(acc[i], pull)
	}
}

// Nudge adds a small planar displacement drawn from a seeded OpenSimplex
// field so coincident or perfectly symmetric nodes can separate. Its
// magnitude fades out over the run.
type Nudge struct {
	Strength float64
	Scale    float64
	Seed     int64

	noise opensimplex.Noise
}

// NewNudge returns a nudge force with the given strength and seed.
func NewNudge(strength float64, seed int64) *Nudge {
	return &Nudge{Strength: strength, Scale: 0.5, Seed: seed}
}

func (n *Nudge) Compute(s *State, acc []r3.Vec) {
	if n.noise == nil {
		n.noise = opensimplex.New(n.Seed)
	}
	scale := n.Scale
	if scale == 0 {
		scale = 0.5
	}
	m := n.Strength * s.EdgeLength * (1 - s.Progress())
	t := float64(s.Iteration) * 0.1
	for i, node := range s.Nodes {
		x, y := node.Pos.X*scale, node.Pos.Y*scale
		acc[i].X += m * n.noise.Eval3(x, y, t)
		acc[i].Y += m * n.noise.Eval3(x+100, y+100, t)
	}
}

// strength treats an unset strength as 1.
func strength(v float64) float64 {
	if v == 0 {
		return 1
	}
	return v
}

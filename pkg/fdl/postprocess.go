package fdl

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/matzehuels/dynlayout/pkg/geom"
	"github.com/matzehuels/dynlayout/pkg/graph"
)

// FlexibleTimeTrajectories adapts the number of samples along trajectories.
// A trajectory segment longer than MaxLength·L is split at its midpoint by a
// new sample. A non-anchor sample whose only edges are its two trajectory
// edges is removed when the trajectory is nearly straight there and the
// merged segment would not be split again.
type FlexibleTimeTrajectories struct {
	// MaxLength is the split threshold in edge lengths. Zero means 2.
	MaxLength float64
	// Straightness is the minimum cosine between the two segments at a
	// removable sample. Zero means 0.995.
	Straightness float64

	seq int
}

func (f *FlexibleTimeTrajectories) Process(s *State) bool {
	maxLen := f.MaxLength
	if maxLen <= 0 {
		maxLen = 2
	}
	maxLen *= s.EdgeLength
	straight := f.Straightness
	if straight <= 0 {
		straight = 0.995
	}

	changed := f.split(s.Graph, maxLen)
	if f.merge(s.Graph, maxLen, straight) {
		changed = true
	}
	return changed
}

func (f *FlexibleTimeTrajectories) split(g *graph.Graph, maxLen float64) bool {
	changed := false
	for _, e := range g.Edges() {
		if e.Kind != graph.EdgeKindTrajectory {
			continue
		}
		a, _ := g.Node(e.From)
		b, _ := g.Node(e.To)
		if geom.Distance(a.Pos, b.Pos) <= maxLen {
			continue
		}
		mid := r3.Scale(0.5, r3.Add(a.Pos, b.Pos))
		id := f.nextID(g, e.Owner)
		if err := g.AddNode(graph.Node{
			ID:    id,
			Pos:   mid,
			Kind:  graph.NodeKindSample,
			Owner: a.EffectiveID(),
			Time:  mid.Z,
		}); err != nil {
			continue
		}
		g.RemoveEdge(e.From, e.To)
		_ = g.AddEdge(graph.Edge{From: e.From, To: id, Kind: graph.EdgeKindTrajectory, Owner: e.Owner, Weight: e.Weight})
		_ = g.AddEdge(graph.Edge{From: id, To: e.To, Kind: graph.EdgeKindTrajectory, Owner: e.Owner, Weight: e.Weight})
		changed = true
	}
	return changed
}

func (f *FlexibleTimeTrajectories) merge(g *graph.Graph, maxLen, straight float64) bool {
	changed := false
	for _, n := range g.Nodes() {
		if n.Kind != graph.NodeKindSample || n.Anchor {
			continue
		}
		parents, children := g.Parents(n.ID), g.Children(n.ID)
		if len(parents) != 1 || len(children) != 1 {
			continue
		}
		in, _ := g.Edge(parents[0], n.ID)
		out, _ := g.Edge(n.ID, children[0])
		if in.Kind != graph.EdgeKindTrajectory || out.Kind != graph.EdgeKindTrajectory {
			continue
		}
		if _, exists := g.Edge(parents[0], children[0]); exists {
			continue
		}
		p, _ := g.Node(parents[0])
		c, _ := g.Node(children[0])
		if geom.Distance(p.Pos, c.Pos) > maxLen {
			continue
		}
		u, err := geom.Direction(p.Pos, n.Pos)
		if err != nil {
			continue
		}
		v, err := geom.Direction(n.Pos, c.Pos)
		if err != nil {
			continue
		}
		if r3.Dot(u, v) < straight {
			continue
		}
		g.RemoveNode(n.ID)
		_ = g.AddEdge(graph.Edge{From: p.ID, To: c.ID, Kind: graph.EdgeKindTrajectory, Owner: in.Owner, Weight: in.Weight})
		changed = true
	}
	return changed
}

func (f *FlexibleTimeTrajectories) nextID(g *graph.Graph, owner string) string {
	for {
		f.seq++
		id := fmt.Sprintf("%s@+%d", owner, f.seq)
		if _, taken := g.Node(id); !taken {
			return id
		}
	}
}

// ConnectionBending lets straight edges curve. Once the run has progressed
// past Start, the longest connection of every dynamic edge that has no bend
// points yet is split at its midpoint by a bend node, provided it is longer
// than MinLength·L. The bend node is then moved by the forces like any other
// node.
type ConnectionBending struct {
	// MinLength is the split threshold in edge lengths. Zero means 1.5.
	MinLength float64
	// Start is the progress from which edges are bent. Zero means 0.5.
	Start float64
}

func (b ConnectionBending) Process(s *State) bool {
	start := b.Start
	if start <= 0 {
		start = 0.5
	}
	if s.Progress() < start {
		return false
	}
	minLen := b.MinLength
	if minLen <= 0 {
		minLen = 1.5
	}
	minLen *= s.EdgeLength

	bent := make(map[string]bool)
	for _, n := range s.Nodes {
		if n.Kind == graph.NodeKindBend {
			bent[n.Owner] = true
		}
	}
	longest := make(map[string]Link)
	var owners []string
	for _, l := range s.Links {
		if l.Kind != graph.EdgeKindConnection || l.Owner == "" || bent[l.Owner] {
			continue
		}
		d := geom.PlanarDistance(s.Pos(l.From), s.Pos(l.To))
		if d <= minLen {
			continue
		}
		cur, seen := longest[l.Owner]
		if !seen {
			owners = append(owners, l.Owner)
		}
		if !seen || d > geom.PlanarDistance(s.Pos(cur.From), s.Pos(cur.To)) {
			longest[l.Owner] = l
		}
	}

	changed := false
	for _, owner := range owners {
		l := longest[owner]
		from, to := s.Nodes[l.From], s.Nodes[l.To]
		e, ok := s.Graph.Edge(from.ID, to.ID)
		if !ok {
			continue
		}
		mid := r3.Scale(0.5, r3.Add(from.Pos, to.Pos))
		id := fmt.Sprintf("%s~%g#0", owner, mid.Z)
		if err := s.Graph.AddNode(graph.Node{
			ID:    id,
			Pos:   mid,
			Kind:  graph.NodeKindBend,
			Owner: owner,
			Time:  mid.Z,
		}); err != nil {
			continue
		}
		s.Graph.RemoveEdge(from.ID, to.ID)
		_ = s.Graph.AddEdge(graph.Edge{From: from.ID, To: id, Kind: graph.EdgeKindBend, Owner: owner, Weight: e.Weight})
		_ = s.Graph.AddEdge(graph.Edge{From: id, To: to.ID, Kind: graph.EdgeKindBend, Owner: owner, Weight: e.Weight})
		changed = true
	}
	return changed
}

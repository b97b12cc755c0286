package multilevel

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/matzehuels/dynlayout/pkg/dyngraph"
	"github.com/matzehuels/dynlayout/pkg/evolution"
	"github.com/matzehuels/dynlayout/pkg/graph"
	"github.com/matzehuels/dynlayout/pkg/interval"
)

// StaticLayout places a static graph in the plane.
type StaticLayout interface {
	Name() string
	Layout(g *graph.Graph, rng *rand.Rand)
}

// FruchtermanReingold is the classic spring embedder: nodes repel with k²/d,
// edges attract with d²/k, and steps are capped by a temperature that cools
// geometrically. The optimal distance k is the edge length.
type FruchtermanReingold struct {
	Iterations int
	EdgeLength float64
}

func (FruchtermanReingold) Name() string { return "fruchterman-reingold" }

func (fr FruchtermanReingold) Layout(g *graph.Graph, rng *rand.Rand) {
	nodes := g.Nodes()
	if len(nodes) == 0 {
		return
	}
	k := fr.EdgeLength
	if k <= 0 {
		k = 1
	}
	iterations := fr.Iterations
	if iterations <= 0 {
		iterations = 200
	}
	side := k * math.Sqrt(float64(len(nodes)))

	index := make(map[string]int, len(nodes))
	pos := make([]r3.Vec, len(nodes))
	for i, n := range nodes {
		index[n.ID] = i
		pos[i] = r3.Vec{X: n.Pos.X, Y: n.Pos.Y}
		if pos[i] == (r3.Vec{}) {
			pos[i] = r3.Vec{X: (rng.Float64() - 0.5) * side, Y: (rng.Float64() - 0.5) * side}
		}
	}
	edges := g.Edges()

	temperature := side / 10
	disp := make([]r3.Vec, len(nodes))
	for it := 0; it < iterations; it++ {
		clear(disp)
		for i := range pos {
			for j := i + 1; j < len(pos); j++ {
				delta := r3.Sub(pos[i], pos[j])
				d := r3.Norm(delta)
				if d < 1e-9 {
					a := rng.Float64() * 2 * math.Pi
					delta, d = r3.Vec{X: math.Cos(a), Y: math.Sin(a)}, 1e-9
				}
				dist := math.Max(0.1*k, d)
				f := r3.Scale(k*k/dist/r3.Norm(delta), delta)
				disp[i] = r3.Add(disp[i], f)
				disp[j] = r3.Sub(disp[j], f)
			}
		}
		for _, e := range edges {
			i, j := index[e.From], index[e.To]
			delta := r3.Sub(pos[i], pos[j])
			d := r3.Norm(delta)
			if d < 1e-9 {
				continue
			}
			f := r3.Scale(e.EffectiveWeight()*d/k, delta) // d²/k along delta/d
			disp[i] = r3.Sub(disp[i], f)
			disp[j] = r3.Add(disp[j], f)
		}
		for i, v := range disp {
			m := r3.Norm(v)
			if m > temperature {
				v = r3.Scale(temperature/m, v)
			}
			pos[i] = r3.Add(pos[i], v)
		}
		temperature *= 0.95
	}

	for i, n := range nodes {
		n.Pos = pos[i]
	}
}

// flatten solves g as a static graph and writes the result as constant
// positions.
func flatten(g *dyngraph.Graph, layout StaticLayout, rng *rand.Rand) {
	agg := g.Aggregate()
	layout.Layout(agg, rng)
	for _, sn := range agg.Nodes() {
		n, ok := g.Node(sn.ID)
		if !ok {
			continue
		}
		pos := evolution.NewPosition(r3.Vec{})
		pos.Insert(evolution.Const(interval.Everything(), r3.Vec{X: sn.Pos.X, Y: sn.Pos.Y}))
		n.SetAttribute(dyngraph.AttrPosition, pos)
	}
}

package multilevel

import (
	"cmp"
	"slices"

	"github.com/matzehuels/dynlayout/pkg/dyngraph"
	"github.com/matzehuels/dynlayout/pkg/graph"
)

// Coarsener merges the nodes of a graph into clusters.
type Coarsener interface {
	Name() string
	Coarsen(g *dyngraph.Graph) (*dyngraph.Graph, *Coarsening, error)
}

// IndependentSet keeps a maximal independent set of nodes and merges every
// other node into its most strongly connected surviving neighbour. Nodes are
// visited in graph order, or by decreasing weighted degree when Weighted is
// set, so well connected nodes survive.
type IndependentSet struct {
	Weighted bool
}

func (s IndependentSet) Name() string {
	if s.Weighted {
		return "weighted-independent-set"
	}
	return "independent-set"
}

func (s IndependentSet) Coarsen(g *dyngraph.Graph) (*dyngraph.Graph, *Coarsening, error) {
	agg := g.Aggregate()
	order := graph.NodeIDs(agg.Nodes())
	rank := make(map[string]int, len(order))
	if s.Weighted {
		slices.SortStableFunc(order, func(a, b string) int {
			return cmp.Compare(weightedDegree(agg, b), weightedDegree(agg, a))
		})
	}
	for i, id := range order {
		rank[id] = i
	}

	survivor := make(map[string]bool)
	blocked := make(map[string]bool)
	for _, id := range order {
		if blocked[id] {
			continue
		}
		survivor[id] = true
		blocked[id] = true
		for _, nb := range agg.Neighbors(id) {
			blocked[nb] = true
		}
	}

	c := &Coarsening{
		Coarsener: s.Name(),
		Cluster:   make(map[string]string, len(order)),
		Center:    make(map[string]string),
	}
	for _, id := range order {
		if survivor[id] {
			c.Cluster[id] = id
			c.Center[id] = id
			continue
		}
		best, bestW := "", -1.0
		for _, nb := range agg.Neighbors(id) {
			if !survivor[nb] {
				continue
			}
			w := linkWeight(agg, id, nb)
			if w > bestW || (w == bestW && rank[nb] < rank[best]) {
				best, bestW = nb, w
			}
		}
		c.Cluster[id] = best
	}

	coarse, err := Contract(g, c)
	if err != nil {
		return nil, nil, err
	}
	return coarse, c, nil
}

// SolarMerger groups the graph into solar systems: suns are at least three
// hops apart, planets are the suns' neighbours and moons hang off planets.
// Each system becomes one coarse node.
type SolarMerger struct{}

func (SolarMerger) Name() string { return "solar-merger" }

func (m SolarMerger) Coarsen(g *dyngraph.Graph) (*dyngraph.Graph, *Coarsening, error) {
	agg := g.Aggregate()
	order := graph.NodeIDs(agg.Nodes())

	c := &Coarsening{
		Coarsener: m.Name(),
		Cluster:   make(map[string]string, len(order)),
		Center:    make(map[string]string),
		Role:      make(map[string]Role, len(order)),
		Planet:    make(map[string]string),
	}

	blocked := make(map[string]bool)
	var suns []string
	for _, id := range order {
		if blocked[id] {
			continue
		}
		suns = append(suns, id)
		blocked[id] = true
		for _, nb := range agg.Neighbors(id) {
			blocked[nb] = true
			for _, nb2 := range agg.Neighbors(nb) {
				blocked[nb2] = true
			}
		}
	}
	for _, sun := range suns {
		c.Role[sun] = RoleSun
		c.Cluster[sun] = sun
		c.Center[sun] = sun
	}
	for _, sun := range suns {
		for _, nb := range agg.Neighbors(sun) {
			if c.Role[nb] == RoleNone {
				c.Role[nb] = RolePlanet
				c.Cluster[nb] = sun
			}
		}
	}
	for _, id := range order {
		if c.Role[id] != RoleNone {
			continue
		}
		for _, nb := range agg.Neighbors(id) {
			if c.Role[nb] == RolePlanet {
				c.Role[id] = RoleMoon
				c.Cluster[id] = c.Cluster[nb]
				c.Planet[id] = nb
				break
			}
		}
		if c.Role[id] == RoleNone {
			c.Role[id] = RoleSun
			c.Cluster[id] = id
			c.Center[id] = id
		}
	}

	coarse, err := Contract(g, c)
	if err != nil {
		return nil, nil, err
	}
	return coarse, c, nil
}

func weightedDegree(g *graph.Graph, id string) float64 {
	total := 0.0
	for _, nb := range g.Neighbors(id) {
		total += linkWeight(g, id, nb)
	}
	return total
}

func linkWeight(g *graph.Graph, a, b string) float64 {
	w := 0.0
	if e, ok := g.Edge(a, b); ok {
		w += e.EffectiveWeight()
	}
	if e, ok := g.Edge(b, a); ok {
		w += e.EffectiveWeight()
	}
	return w
}

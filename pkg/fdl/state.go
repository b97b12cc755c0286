package fdl

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/matzehuels/dynlayout/pkg/graph"
)

// Link is an edge of the graph being laid out, by node index.
type Link struct {
	From, To int
	Kind     graph.EdgeKind
	Weight   float64
	Owner    string
}

// State is the view of the graph shared by all components during a run.
// Indices into Nodes stay valid for one iteration; post-processing that
// changes the graph causes a re-index before the next iteration.
type State struct {
	Graph *graph.Graph
	Nodes []*graph.Node
	Links []Link
	index map[string]int

	// Iteration is the zero-based index of the current iteration.
	Iteration int
	// Iterations is the total number of iterations of the run.
	Iterations int
	// EdgeLength is the desired distance between connected nodes.
	EdgeLength float64
	// Tau is the time-inertia constant.
	Tau float64
}

func newState(g *graph.Graph, iterations int, edgeLength, tau float64) *State {
	s := &State{Graph: g, Iterations: iterations, EdgeLength: edgeLength, Tau: tau}
	s.reindex()
	return s
}

// reindex rebuilds the node and link tables from the graph.
func (s *State) reindex() {
	s.Nodes = s.Graph.Nodes()
	s.index = make(map[string]int, len(s.Nodes))
	for i, n := range s.Nodes {
		s.index[n.ID] = i
	}
	edges := s.Graph.Edges()
	s.Links = make([]Link, 0, len(edges))
	for _, e := range edges {
		s.Links = append(s.Links, Link{
			From:   s.index[e.From],
			To:     s.index[e.To],
			Kind:   e.Kind,
			Weight: e.EffectiveWeight(),
			Owner:  e.Owner,
		})
	}
}

// Index returns the position of the node with the given ID in Nodes.
func (s *State) Index(id string) (int, bool) {
	i, ok := s.index[id]
	return i, ok
}

// Pos returns the position of node i.
func (s *State) Pos(i int) r3.Vec { return s.Nodes[i].Pos }

// Progress returns how far the run is, from 0 at the first iteration
// towards 1.
func (s *State) Progress() float64 {
	if s.Iterations <= 0 {
		return 0
	}
	return float64(s.Iteration) / float64(s.Iterations)
}

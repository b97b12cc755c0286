package fdl

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/matzehuels/dynlayout/pkg/dyngraph"
	"github.com/matzehuels/dynlayout/pkg/graph"
)

func compute(t *testing.T, g *graph.Graph, f Force) []r3.Vec {
	t.Helper()
	s := newState(g, 10, 1, 1)
	acc := make([]r3.Vec, len(s.Nodes))
	f.Compute(s, acc)
	return acc
}

func TestCoincidentNodesYieldZeroForce(t *testing.T) {
	g := staticGraph(t, r3.Vec{X: 1, Y: 1}, r3.Vec{X: 1, Y: 1})
	require.NoError(t, g.AddEdge(graph.Edge{From: "a", To: "b"}))

	for _, f := range []Force{ConnectionAttraction{}, NodeRepulsion{}, Gravity{Strength: 1}} {
		for _, v := range compute(t, g, f) {
			assert.Equal(t, r3.Vec{}, v)
		}
	}
}

func TestConnectionAttractionAndRepulsion(t *testing.T) {
	g := staticGraph(t, r3.Vec{}, r3.Vec{X: 2})
	require.NoError(t, g.AddEdge(graph.Edge{From: "a", To: "b"}))

	att := compute(t, g, ConnectionAttraction{})
	assert.InDelta(t, 4, att[0].X, 1e-9) // d²/L
	assert.InDelta(t, -4, att[1].X, 1e-9)

	rep := compute(t, g, NodeRepulsion{})
	assert.InDelta(t, -0.5, rep[0].X, 1e-9) // L²/d
	assert.InDelta(t, 0.5, rep[1].X, 1e-9)
}

func TestGravityDefaultStrength(t *testing.T) {
	g := staticGraph(t, r3.Vec{}, r3.Vec{X: 4, Z: 3})
	acc := compute(t, g, Gravity{})
	assert.Equal(t, r3.Vec{X: 2}, acc[0])
	assert.Equal(t, r3.Vec{X: -2}, acc[1], "gravity stays planar")
}

func TestNodeRepulsionWindow(t *testing.T) {
	g := staticGraph(t, r3.Vec{}, r3.Vec{X: 1, Z: 5})
	acc := compute(t, g, NodeRepulsion{Window: 1})
	assert.Equal(t, r3.Vec{}, acc[0])
	assert.Equal(t, r3.Vec{}, acc[1])
}

func TestEdgeRepulsion(t *testing.T) {
	g := graph.New(nil)
	require.NoError(t, g.AddNode(graph.Node{ID: "b0", Pos: r3.Vec{X: 1, Z: 0}, Kind: graph.NodeKindSample, Owner: "b"}))
	require.NoError(t, g.AddNode(graph.Node{ID: "b1", Pos: r3.Vec{X: 1, Z: 10}, Kind: graph.NodeKindSample, Owner: "b"}))
	require.NoError(t, g.AddEdge(graph.Edge{From: "b0", To: "b1", Kind: graph.EdgeKindTrajectory, Owner: "b"}))
	require.NoError(t, g.AddNode(graph.Node{ID: "a5", Pos: r3.Vec{Z: 5}, Kind: graph.NodeKindSample, Owner: "a"}))
	require.NoError(t, g.AddNode(graph.Node{ID: "a20", Pos: r3.Vec{Z: 20}, Kind: graph.NodeKindSample, Owner: "a"}))

	acc := compute(t, g, EdgeRepulsion{})
	s := newState(g, 1, 1, 1)
	i5, _ := s.Index("a5")
	i20, _ := s.Index("a20")
	ib, _ := s.Index("b0")
	assert.InDelta(t, -1, acc[i5].X, 1e-9)
	assert.Equal(t, r3.Vec{}, acc[i20])
	assert.Equal(t, r3.Vec{}, acc[ib])
}

func TestTimeStraightening(t *testing.T) {
	g := graph.New(nil)
	require.NoError(t, g.AddNode(graph.Node{ID: "a0", Pos: r3.Vec{Z: 0}, Kind: graph.NodeKindSample, Owner: "a", Anchor: true}))
	require.NoError(t, g.AddNode(graph.Node{ID: "a1", Pos: r3.Vec{X: 2, Z: 2}, Kind: graph.NodeKindSample, Owner: "a"}))
	require.NoError(t, g.AddNode(graph.Node{ID: "a2", Pos: r3.Vec{Z: 10}, Kind: graph.NodeKindSample, Owner: "a", Anchor: true}))
	require.NoError(t, g.AddEdge(graph.Edge{From: "a0", To: "a1", Kind: graph.EdgeKindTrajectory, Owner: "a"}))
	require.NoError(t, g.AddEdge(graph.Edge{From: "a1", To: "a2", Kind: graph.EdgeKindTrajectory, Owner: "a"}))

	acc := compute(t, g, TimeStraightening{})
	assert.InDelta(t, -2, acc[1].X, 1e-9)
	assert.InDelta(t, 3, acc[1].Z, 1e-9)
	assert.InDelta(t, 2, acc[0].X, 1e-9)
	assert.Zero(t, acc[0].Z)
}

func TestNudgeIsSeeded(t *testing.T) {
	g := staticGraph(t, r3.Vec{X: 0.3, Y: 0.7}, r3.Vec{X: -1.1, Y: 0.2})
	a := compute(t, g, NewNudge(1, 42))
	b := compute(t, g, NewNudge(1, 42))
	assert.Equal(t, a, b)
	for _, v := range a {
		assert.Zero(t, v.Z)
		assert.LessOrEqual(t, math.Abs(v.X), 2.0)
	}
}

func TestForbidTimeShifting(t *testing.T) {
	g := graph.New(nil)
	require.NoError(t, g.AddNode(graph.Node{ID: "anchor", Kind: graph.NodeKindSample, Anchor: true}))
	require.NoError(t, g.AddNode(graph.Node{ID: "free", Kind: graph.NodeKindSample}))
	require.NoError(t, g.AddNode(graph.Node{ID: "plain"}))
	s := newState(g, 1, 1, 1)

	disp := []r3.Vec{{Z: 1}, {Z: 1}, {Z: 1}}
	ForbidTimeShifting{}.Filter(s, disp)
	assert.Equal(t, []r3.Vec{{}, {Z: 1}, {}}, disp)

	disp = []r3.Vec{{Z: 1}, {Z: 1}, {Z: 1}}
	ForbidTimeShifting{All: true}.Filter(s, disp)
	assert.Equal(t, []r3.Vec{{}, {}, {}}, disp)
}

func TestMovementAcceleration(t *testing.T) {
	g := staticGraph(t, r3.Vec{})
	s := newState(g, 3, 1, 1)
	m := NewMovementAcceleration(0.5)

	disp := []r3.Vec{{X: 1}}
	m.Constrain(s, disp)
	assert.Equal(t, r3.Vec{X: 1}, disp[0])

	disp = []r3.Vec{{X: 1}}
	m.Constrain(s, disp)
	assert.InDelta(t, 1.5, disp[0].X, 1e-9)

	disp = []r3.Vec{{X: -1}}
	m.Constrain(s, disp)
	assert.InDelta(t, -0.5, disp[0].X, 1e-9)
}

func TestFlexibleTimeTrajectoriesSplits(t *testing.T) {
	g := graph.New(nil)
	require.NoError(t, g.AddNode(graph.Node{ID: "a0", Kind: graph.NodeKindSample, Owner: "a", Anchor: true}))
	require.NoError(t, g.AddNode(graph.Node{ID: "a1", Pos: r3.Vec{Z: 10}, Time: 10, Kind: graph.NodeKindSample, Owner: "a", Anchor: true}))
	require.NoError(t, g.AddEdge(graph.Edge{From: "a0", To: "a1", Kind: graph.EdgeKindTrajectory, Owner: "a"}))

	s := newState(g, 1, 1, 1)
	f := &FlexibleTimeTrajectories{}
	require.True(t, f.Process(s))

	assert.Equal(t, 3, g.NodeCount())
	assert.Equal(t, 2, g.EdgeCount())
	_, direct := g.Edge("a0", "a1")
	assert.False(t, direct)

	mid := g.Children("a0")[0]
	n, _ := g.Node(mid)
	assert.Equal(t, "a", n.Owner)
	assert.False(t, n.Anchor)
	assert.Equal(t, r3.Vec{Z: 5}, n.Pos)
	assert.Equal(t, []string{"a1"}, g.Children(mid))
}

func TestFlexibleTimeTrajectoriesMerges(t *testing.T) {
	build := func(mid r3.Vec) *graph.Graph {
		g := graph.New(nil)
		require.NoError(t, g.AddNode(graph.Node{ID: "a0", Kind: graph.NodeKindSample, Owner: "a", Anchor: true}))
		require.NoError(t, g.AddNode(graph.Node{ID: "m", Pos: mid, Kind: graph.NodeKindSample, Owner: "a"}))
		require.NoError(t, g.AddNode(graph.Node{ID: "a1", Pos: r3.Vec{Z: 1}, Kind: graph.NodeKindSample, Owner: "a", Anchor: true}))
		require.NoError(t, g.AddEdge(graph.Edge{From: "a0", To: "m", Kind: graph.EdgeKindTrajectory, Owner: "a"}))
		require.NoError(t, g.AddEdge(graph.Edge{From: "m", To: "a1", Kind: graph.EdgeKindTrajectory, Owner: "a"}))
		return g
	}

	straight := build(r3.Vec{Z: 0.5})
	require.True(t, (&FlexibleTimeTrajectories{}).Process(newState(straight, 1, 1, 1)))
	assert.Equal(t, 2, straight.NodeCount())
	_, ok := straight.Edge("a0", "a1")
	assert.True(t, ok)

	bent := build(r3.Vec{X: 0.5, Z: 0.5})
	assert.False(t, (&FlexibleTimeTrajectories{}).Process(newState(bent, 1, 1, 1)))
	assert.Equal(t, 3, bent.NodeCount())
}

func TestConnectionBending(t *testing.T) {
	g := graph.New(nil)
	require.NoError(t, g.AddNode(graph.Node{ID: "a0", Pos: r3.Vec{Z: 2}, Time: 2, Kind: graph.NodeKindSample, Owner: "a", Anchor: true}))
	require.NoError(t, g.AddNode(graph.Node{ID: "b0", Pos: r3.Vec{X: 4, Z: 2}, Time: 2, Kind: graph.NodeKindSample, Owner: "b", Anchor: true}))
	require.NoError(t, g.AddNode(graph.Node{ID: "c0", Pos: r3.Vec{Y: 1, Z: 2}, Time: 2, Kind: graph.NodeKindSample, Owner: "c", Anchor: true}))
	require.NoError(t, g.AddEdge(graph.Edge{From: "a0", To: "b0", Kind: graph.EdgeKindConnection, Owner: "ab"}))
	require.NoError(t, g.AddEdge(graph.Edge{From: "a0", To: "c0", Kind: graph.EdgeKindConnection, Owner: "ac"}))

	s := newState(g, 10, 1, 1)
	b := ConnectionBending{}
	assert.False(t, b.Process(s), "too early in the run")

	s.Iteration = 5
	require.True(t, b.Process(s))
	_, direct := g.Edge("a0", "b0")
	assert.False(t, direct)
	_, short := g.Edge("a0", "c0")
	assert.True(t, short, "short connections stay straight")

	bend, ok := g.Node("ab~2#0")
	require.True(t, ok)
	assert.Equal(t, graph.NodeKindBend, bend.Kind)
	assert.Equal(t, "ab", bend.Owner)
	assert.Equal(t, r3.Vec{X: 2, Z: 2}, bend.Pos)
	assert.Equal(t, []string{"b0"}, g.Children(bend.ID))

	s.reindex()
	assert.False(t, b.Process(s), "an edge is bent once")
}

func TestScatterDynamic(t *testing.T) {
	g := dyngraph.New()
	for _, id := range []string{"a", "b", "c"} {
		_, err := g.AddNode(id)
		require.NoError(t, err)
	}
	ScatterDynamic(g, 2, rand.New(rand.NewPCG(1, 1^0xdeadbeef)))
	for _, n := range g.Nodes() {
		require.Equal(t, 1, n.Position().Len())
		p := n.Position().ValueAt(3)
		assert.LessOrEqual(t, math.Hypot(p.X, p.Y), 2.0)
	}
}

package spacetime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/matzehuels/dynlayout/pkg/dyngraph"
	"github.com/matzehuels/dynlayout/pkg/evolution"
	"github.com/matzehuels/dynlayout/pkg/geom"
	"github.com/matzehuels/dynlayout/pkg/graph"
	"github.com/matzehuels/dynlayout/pkg/interval"
)

func twoNodes(t *testing.T) *dyngraph.Graph {
	t.Helper()
	g := dyngraph.New()
	for _, id := range []string{"a", "b"} {
		n, err := g.AddNode(id)
		require.NoError(t, err)
		n.SetPresent(interval.MustClosed(0, 10))
	}
	e, err := g.AddEdge("ab", "a", "b")
	require.NoError(t, err)
	e.SetPresent(interval.MustClosed(2, 8))
	return g
}

func sampleAt(t *testing.T, m *graph.Graph, owner string, at float64) *graph.Node {
	t.Helper()
	for _, n := range m.Nodes() {
		if n.Kind == graph.NodeKindSample && n.Owner == owner && n.Time == at {
			return n
		}
	}
	t.Fatalf("no sample of %s at %v", owner, at)
	return nil
}

func countEdges(m *graph.Graph, kind graph.EdgeKind) int {
	c := 0
	for _, e := range m.Edges() {
		if e.Kind == kind {
			c++
		}
	}
	return c
}

func TestBuildContinuous(t *testing.T) {
	s := New(twoNodes(t), Config{Mode: Continuous})
	m, err := s.Build()
	require.NoError(t, err)
	assert.Same(t, m, s.Mirror())

	// Each node is sampled at its presence bounds and at the edge's bounds.
	assert.Equal(t, 8, m.NodeCount())
	assert.Equal(t, 6, countEdges(m, graph.EdgeKindTrajectory))
	assert.Equal(t, 2, countEdges(m, graph.EdgeKindConnection))

	a0 := sampleAt(t, m, "a", 0)
	a2 := sampleAt(t, m, "a", 2)
	assert.True(t, a0.Anchor)
	assert.True(t, a2.Anchor, "event samples are pinned too")
	assert.Equal(t, 2.0, a2.Pos.Z, "time is the z axis")

	b2 := sampleAt(t, m, "b", 2)
	_, ok := m.Edge(a2.ID, b2.ID)
	assert.True(t, ok, "connection joins samples at the same time")
}

func TestBuildDiscrete(t *testing.T) {
	s := New(twoNodes(t), Config{Mode: Discrete, Tick: 2.5})
	m, err := s.Build()
	require.NoError(t, err)

	// Ticks 0, 2.5, 5, 7.5, 10 per node.
	assert.Equal(t, 10, m.NodeCount())
	assert.Equal(t, 8, countEdges(m, graph.EdgeKindTrajectory))
	// Samples 2.5, 5, 7.5 fall inside the edge's [2, 8].
	assert.Equal(t, 3, countEdges(m, graph.EdgeKindConnection))

	_, err = New(twoNodes(t), Config{Mode: Discrete}).Build()
	assert.ErrorIs(t, err, ErrInvalidTick)
}

func TestPresenceGapSplitsTrajectory(t *testing.T) {
	g := dyngraph.New()
	n, _ := g.AddNode("a")
	n.SetPresent(interval.MustClosed(0, 2))
	n.SetPresent(interval.MustClosed(5, 7))

	m, err := New(g, Config{}).Build()
	require.NoError(t, err)
	assert.Equal(t, 4, m.NodeCount())
	assert.Equal(t, 2, countEdges(m, graph.EdgeKindTrajectory), "no trajectory across the gap")
}

func TestUpdateOriginalWritesRects(t *testing.T) {
	g := twoNodes(t)
	b, _ := g.Node("b")
	b.Position().Insert(evolution.Rect(interval.MustClosed(0, 10), r3.Vec{}, r3.Vec{X: 10}, evolution.EaseIn))

	s := New(g, Config{})
	m, err := s.Build()
	require.NoError(t, err)

	sampleAt(t, m, "a", 2).Pos.X = 4
	sampleAt(t, m, "a", 8).Pos.X = 4
	s.UpdateOriginal()

	a, _ := g.Node("a")
	pos := a.Position()
	assert.InDelta(t, 0.0, pos.ValueAt(0).X, 1e-9)
	assert.InDelta(t, 2.0, pos.ValueAt(1).X, 1e-9)
	assert.InDelta(t, 4.0, pos.ValueAt(5).X, 1e-9)
	assert.InDelta(t, 0.0, pos.ValueAt(10).X, 1e-9)
	assert.Equal(t, 0.0, pos.ValueAt(10).Z, "time never leaks into positions")
	assert.Len(t, pos.Functions(), 3)

	for _, f := range b.Position().Functions() {
		assert.Equal(t, evolution.EaseIn, f.Interpolation(), "interpolation kind is preserved")
	}
}

func TestUpdateOriginalHonoursInsertedSamples(t *testing.T) {
	g := dyngraph.New()
	n, _ := g.AddNode("a")
	n.SetPresent(interval.MustClosed(0, 10))

	s := New(g, Config{})
	m, err := s.Build()
	require.NoError(t, err)
	require.NoError(t, m.AddNode(graph.Node{
		ID: "extra", Kind: graph.NodeKindSample, Owner: "a", Time: 5,
		Pos: r3.Vec{X: 6, Z: 5},
	}))
	s.UpdateOriginal()

	assert.InDelta(t, 6.0, n.Position().ValueAt(5).X, 1e-9)
	assert.InDelta(t, 3.0, n.Position().ValueAt(2.5).X, 1e-9)
}

func TestBendRoundTrip(t *testing.T) {
	g := twoNodes(t)
	e, _ := g.Edge("ab")
	e.Points().Insert(evolution.Const(interval.MustClosed(2, 8), geom.ControlPoints{{X: 0, Y: 5}}))

	s := New(g, Config{})
	m, err := s.Build()
	require.NoError(t, err)
	assert.Equal(t, 2, countEdges(m, graph.EdgeKindBend))

	var bend *graph.Node
	for _, n := range m.Nodes() {
		if n.Kind == graph.NodeKindBend {
			bend = n
		}
	}
	require.NotNil(t, bend)
	assert.Equal(t, 5.0, bend.Pos.Z)
	assert.Equal(t, "ab", bend.Owner)

	bend.Pos.Y = 9
	s.UpdateOriginal()
	pts := e.Points().ValueAt(5)
	require.Len(t, pts, 1)
	assert.Equal(t, 9.0, pts[0].Y)
}

func TestUpdateOriginalWritesNewBends(t *testing.T) {
	g := twoNodes(t)
	e, _ := g.Edge("ab")
	s := New(g, Config{})
	m, err := s.Build()
	require.NoError(t, err)
	require.Equal(t, 0, countEdges(m, graph.EdgeKindBend))

	require.NoError(t, m.AddNode(graph.Node{
		ID: "ab~5#0", Kind: graph.NodeKindBend, Owner: "ab", Time: 5,
		Pos: r3.Vec{X: 1, Y: 3, Z: 5},
	}))
	s.UpdateOriginal()

	require.Equal(t, 1, e.Points().Len())
	assert.Equal(t, geom.ControlPoints{{X: 1, Y: 3}}, e.Points().ValueAt(7))
	f, ok := e.Points().FunctionAt(5)
	require.True(t, ok)
	assert.Equal(t, interval.MustClosed(2, 8), f.Interval(), "held over the edge's presence")
}

func TestUpdateBeforeBuildIsNoop(t *testing.T) {
	g := twoNodes(t)
	s := New(g, Config{})
	s.UpdateOriginal()
	a, _ := g.Node("a")
	assert.Equal(t, 0, a.Position().Len())
}

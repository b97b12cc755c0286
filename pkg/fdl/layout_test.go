package fdl

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/matzehuels/dynlayout/pkg/dyngraph"
	"github.com/matzehuels/dynlayout/pkg/errors"
	"github.com/matzehuels/dynlayout/pkg/evolution"
	"github.com/matzehuels/dynlayout/pkg/geom"
	"github.com/matzehuels/dynlayout/pkg/graph"
	"github.com/matzehuels/dynlayout/pkg/interval"
	"github.com/matzehuels/dynlayout/pkg/spacetime"
	"github.com/matzehuels/dynlayout/pkg/stats"
)

// push adds the same displacement to every node.
type push struct{ v r3.Vec }

func (p push) Compute(_ *State, acc []r3.Vec) {
	for i := range acc {
		acc[i] = r3.Add(acc[i], p.v)
	}
}

func twoNodeGraph(t *testing.T) *dyngraph.Graph {
	t.Helper()
	g := dyngraph.New()
	for id, p := range map[string]r3.Vec{"a": {X: 0, Y: 0}, "b": {X: 4, Y: 2}} {
		n, err := g.AddNode(id)
		require.NoError(t, err)
		n.SetPresent(interval.MustClosed(0, 10))
		n.Position().Insert(evolution.Const(interval.Everything(), p))
	}
	e, err := g.AddEdge("ab", "a", "b")
	require.NoError(t, err)
	e.SetPresent(interval.MustClosed(2, 8))
	return g
}

func staticGraph(t *testing.T, pts ...r3.Vec) *graph.Graph {
	t.Helper()
	g := graph.New(nil)
	for i, p := range pts {
		require.NoError(t, g.AddNode(graph.Node{ID: string(rune('a' + i)), Pos: p}))
	}
	return g
}

func TestBuildWithoutForce(t *testing.T) {
	_, err := NewBuilder().AddConstraint(DecreasingMaxMovement{}).Build()
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeConfiguration, errors.GetCode(err))

	_, err = NewBuilder().AddForce(Gravity{}).EdgeLength(-1).Build()
	assert.True(t, errors.Is(err, errors.ErrCodeConfiguration))
}

func TestGravityEndToEnd(t *testing.T) {
	g := twoNodeGraph(t)

	s1 := g.SnapshotAt(1)
	assert.Equal(t, 2, s1.NodeCount())
	assert.Equal(t, 0, s1.EdgeCount())
	s5 := g.SnapshotAt(5)
	assert.Equal(t, 2, s5.NodeCount())
	assert.Equal(t, 1, s5.EdgeCount())

	sync := spacetime.New(g, spacetime.Config{})
	mirror, err := sync.Build()
	require.NoError(t, err)
	center := geom.Planar(mirror.CenterOfMass())

	layout, err := NewBuilder().AddForce(Gravity{Strength: 0.2}).Iterations(50).Build()
	require.NoError(t, err)
	assert.Equal(t, Idle, layout.Phase())
	st := layout.Run(mirror)
	assert.Equal(t, Done, layout.Phase())

	for _, n := range mirror.Nodes() {
		assert.InDelta(t, 0, geom.PlanarDistance(n.Pos, center), 1e-3, n.ID)
	}

	iters, ok := st.Value(stats.Iterations)
	require.True(t, ok)
	assert.Equal(t, 50.0, iters)
	mm, ok := st.Metric(stats.MaxMovement)
	require.True(t, ok)
	assert.Len(t, mm.Values, 50)
	_, ok = st.Metric(stats.RunningTime)
	assert.True(t, ok)

	sync.UpdateOriginal()
	for _, id := range []string{"a", "b"} {
		n, _ := g.Node(id)
		p := n.Position().ValueAt(5)
		assert.InDelta(t, center.X, p.X, 1e-3)
		assert.InDelta(t, center.Y, p.Y, 1e-3)
	}
}

func TestDecreasingMaxMovementNonIncreasing(t *testing.T) {
	g := staticGraph(t, r3.Vec{}, r3.Vec{X: 1}, r3.Vec{Y: 1})
	layout, err := NewBuilder().
		AddForce(push{v: r3.Vec{X: 1000, Y: -500}}).
		AddConstraint(DecreasingMaxMovement{Initial: 5}).
		Iterations(20).
		Build()
	require.NoError(t, err)

	mm, ok := layout.Run(g).Metric(stats.MaxMovement)
	require.True(t, ok)
	require.Len(t, mm.Values, 20)
	assert.InDelta(t, 5, mm.Values[0], 1e-9)
	for k := 1; k < len(mm.Values); k++ {
		assert.LessOrEqual(t, mm.Values[k], mm.Values[k-1])
	}
}

type nanForce struct{}

func (nanForce) Compute(_ *State, acc []r3.Vec) {
	for i := range acc {
		acc[i] = r3.Vec{X: math.NaN(), Y: math.Inf(1)}
	}
}

func TestNonFiniteDisplacementIsDropped(t *testing.T) {
	g := staticGraph(t, r3.Vec{X: 1, Y: 2})
	layout, err := NewBuilder().AddForce(nanForce{}).Iterations(3).Build()
	require.NoError(t, err)

	mm, _ := layout.Run(g).Metric(stats.MaxMovement)
	assert.Equal(t, []float64{0, 0, 0}, mm.Values)
	n, _ := g.Node("a")
	assert.Equal(t, r3.Vec{X: 1, Y: 2}, n.Pos)
}

func TestOnIteration(t *testing.T) {
	g := staticGraph(t, r3.Vec{}, r3.Vec{X: 2})
	var seen []int
	layout, err := NewBuilder().
		AddForce(Gravity{Strength: 0.1}).
		Iterations(4).
		OnIteration(func(info IterationInfo) { seen = append(seen, info.Iteration) }).
		Build()
	require.NoError(t, err)
	layout.Run(g)
	assert.Equal(t, []int{0, 1, 2, 3}, seen)
}

func TestStandardOnMirror(t *testing.T) {
	g := twoNodeGraph(t)
	sync := spacetime.New(g, spacetime.Config{})
	mirror, err := sync.Build()
	require.NoError(t, err)

	layout, err := Standard(Config{Iterations: 30, Gravity: 0.05, Acceleration: 0.5, Nudge: 0.1, Seed: 7, Flexible: true}).Build()
	require.NoError(t, err)
	st := layout.Run(mirror)

	for _, n := range mirror.Nodes() {
		assert.True(t, geom.Finite(n.Pos), n.ID)
		if n.Anchor {
			assert.Equal(t, n.Time, n.Pos.Z, "anchor %s drifted in time", n.ID)
		}
	}
	mm, _ := st.Metric(stats.MaxMovement)
	assert.Len(t, mm.Values, 30)

	sync.UpdateOriginal()
	a, _ := g.Node("a")
	assert.True(t, geom.Finite(a.Position().ValueAt(5)))
}

func TestDiscreteTicksStayOnTicks(t *testing.T) {
	g := dyngraph.New()
	for id, p := range map[string]r3.Vec{"a": {}, "b": {X: 3, Y: 1}} {
		n, err := g.AddNode(id)
		require.NoError(t, err)
		n.SetPresent(interval.MustClosed(0, 2.5))
		n.Position().Insert(evolution.Const(interval.Everything(), p))
	}
	e, err := g.AddEdge("ab", "a", "b")
	require.NoError(t, err)
	e.SetPresent(interval.MustClosed(0, 2.5))

	sync := spacetime.New(g, spacetime.Config{Mode: spacetime.Discrete, Tick: 1})
	mirror, err := sync.Build()
	require.NoError(t, err)
	layout, err := Standard(Config{Iterations: 50}).Build()
	require.NoError(t, err)
	layout.Run(mirror)

	ticks := 0
	for _, n := range mirror.Nodes() {
		if n.Kind != graph.NodeKindSample {
			continue
		}
		assert.Equal(t, n.Time, n.Pos.Z, "sample %s left its tick", n.ID)
		if n.Time == 1 || n.Time == 2 {
			ticks++
		}
	}
	assert.Equal(t, 4, ticks, "interior ticks of both nodes")

	// Written functions change exactly at the ticks.
	sync.UpdateOriginal()
	a, _ := g.Node("a")
	var bounds []float64
	for _, f := range a.Position().Functions() {
		bounds = append(bounds, f.Interval().Left())
	}
	assert.Contains(t, bounds, 1.0)
	assert.Contains(t, bounds, 2.0)
}

func TestStandardDefaults(t *testing.T) {
	layout, err := Standard(Config{}).Build()
	require.NoError(t, err)
	assert.Equal(t, DefaultIterations, layout.Iterations())
}

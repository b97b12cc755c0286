package fdl

import (
	"math"
	"math/rand/v2"

	"github.com/charmbracelet/log"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/matzehuels/dynlayout/pkg/dyngraph"
	"github.com/matzehuels/dynlayout/pkg/evolution"
	"github.com/matzehuels/dynlayout/pkg/interval"
)

// Config parameterises [Standard].
type Config struct {
	Iterations  int
	EdgeLength  float64
	Tau         float64
	MaxMovement float64 // initial movement cap; zero uses the edge length
	Gravity     float64
	// Acceleration enables MovementAcceleration with this factor.
	Acceleration float64
	// Nudge enables the noise force with this strength.
	Nudge float64
	Seed  int64
	// Flexible enables FlexibleTimeTrajectories.
	Flexible bool
	// Bends enables ConnectionBending.
	Bends  bool
	Logger *log.Logger
	// OnIteration, if set, is called after every iteration.
	OnIteration func(IterationInfo)
}

// Standard returns a builder preloaded with the space-time pipeline:
// attraction, node and trajectory repulsion, time straightening and gravity;
// pinned anchor times; a decreasing movement cap; optional acceleration,
// nudge, flexible trajectories and edge bending.
func Standard(cfg Config) *Builder {
	edge := cfg.EdgeLength
	if edge <= 0 {
		edge = DefaultEdgeLength
	}
	b := NewBuilder().EdgeLength(edge)
	if cfg.Iterations > 0 {
		b.Iterations(cfg.Iterations)
	}
	if cfg.Tau > 0 {
		b.Tau(cfg.Tau)
	}
	b.Logger(cfg.Logger).OnIteration(cfg.OnIteration).
		AddForce(
			ConnectionAttraction{Strength: 1},
			NodeRepulsion{Strength: 1, Window: edge},
			EdgeRepulsion{Strength: 0.5, Cutoff: 3},
			TimeStraightening{Strength: 0.5},
		)
	if cfg.Gravity > 0 {
		b.AddForce(Gravity{Strength: cfg.Gravity})
	}
	if cfg.Nudge > 0 {
		b.AddForce(NewNudge(cfg.Nudge, cfg.Seed))
	}
	b.AddPreMovement(ForbidTimeShifting{})
	if cfg.Acceleration > 0 {
		b.AddConstraint(NewMovementAcceleration(cfg.Acceleration))
	}
	b.AddConstraint(DecreasingMaxMovement{Initial: cfg.MaxMovement})
	if cfg.Flexible {
		b.AddPostProcessing(&FlexibleTimeTrajectories{})
	}
	if cfg.Bends {
		b.AddPostProcessing(ConnectionBending{})
	}
	return b
}

// ScatterDynamic gives every node of g without a position a constant random
// planar position inside a disc of the given radius.
func ScatterDynamic(g *dyngraph.Graph, radius float64, rng *rand.Rand) {
	for _, n := range g.Nodes() {
		pos := n.Position()
		if pos.Len() > 0 {
			continue
		}
		a := rng.Float64() * 2 * math.Pi
		r := radius * math.Sqrt(rng.Float64())
		pos.Insert(evolution.Const(interval.Everything(), r3.Vec{X: r * math.Cos(a), Y: r * math.Sin(a)}))
	}
}

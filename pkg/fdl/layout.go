package fdl

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/matzehuels/dynlayout/pkg/errors"
	"github.com/matzehuels/dynlayout/pkg/geom"
	"github.com/matzehuels/dynlayout/pkg/graph"
	"github.com/matzehuels/dynlayout/pkg/stats"
)

// Defaults used when the builder is not told otherwise.
const (
	DefaultIterations = 100
	DefaultEdgeLength = 1.0
	DefaultTau        = 1.0
)

// Force adds its contribution for every node to acc, which is indexed like
// State.Nodes.
type Force interface {
	Compute(s *State, acc []r3.Vec)
}

// PreMovement edits raw displacements before constraints apply.
type PreMovement interface {
	Filter(s *State, disp []r3.Vec)
}

// Constraint caps or reshapes displacements before they are committed.
type Constraint interface {
	Constrain(s *State, disp []r3.Vec)
}

// PostProcessing runs after positions are committed. It reports whether it
// changed the graph structure, in which case the state is re-indexed.
type PostProcessing interface {
	Process(s *State) bool
}

// Phase is the lifecycle state of a [Layout].
type Phase int

const (
	Idle Phase = iota
	Running
	Done
)

func (p Phase) String() string {
	switch p {
	case Running:
		return "running"
	case Done:
		return "done"
	default:
		return "idle"
	}
}

// IterationInfo is reported to the iteration observer.
type IterationInfo struct {
	Iteration   int
	Iterations  int
	MaxMovement float64
	Nodes       int
}

// Builder assembles a [Layout]. Components run in the order they were added.
type Builder struct {
	forces      []Force
	pre         []PreMovement
	constraints []Constraint
	post        []PostProcessing

	iterations int
	edgeLength float64
	tau        float64
	logger     *log.Logger
	observer   func(IterationInfo)
}

// NewBuilder returns a builder with default parameters and no components.
func NewBuilder() *Builder {
	return &Builder{
		iterations: DefaultIterations,
		edgeLength: DefaultEdgeLength,
		tau:        DefaultTau,
	}
}

// AddForce appends forces.
func (b *Builder) AddForce(f ...Force) *Builder { b.forces = append(b.forces, f...); return b }

// AddPreMovement appends pre-movement filters.
func (b *Builder) AddPreMovement(p ...PreMovement) *Builder { b.pre = append(b.pre, p...); return b }

// AddConstraint appends constraints.
func (b *Builder) AddConstraint(c ...Constraint) *Builder {
	b.constraints = append(b.constraints, c...)
	return b
}

// AddPostProcessing appends post-processing steps.
func (b *Builder) AddPostProcessing(p ...PostProcessing) *Builder { b.post = append(b.post, p...); return b }

// Iterations sets the number of iterations.
func (b *Builder) Iterations(n int) *Builder { b.iterations = n; return b }

// EdgeLength sets the desired edge length.
func (b *Builder) EdgeLength(d float64) *Builder { b.edgeLength = d; return b }

// Tau sets the time-inertia constant.
func (b *Builder) Tau(t float64) *Builder { b.tau = t; return b }

// Logger sets the logger for progress messages.
func (b *Builder) Logger(l *log.Logger) *Builder { b.logger = l; return b }

// OnIteration registers a callback invoked after every iteration.
func (b *Builder) OnIteration(fn func(IterationInfo)) *Builder { b.observer = fn; return b }

// Build finalises the layout. A layout without any force is a
// configuration error.
func (b *Builder) Build() (*Layout, error) {
	if len(b.forces) == 0 {
		return nil, errors.New(errors.ErrCodeConfiguration, "layout needs at least one force")
	}
	if b.iterations < 0 {
		return nil, errors.New(errors.ErrCodeConfiguration, "iterations must not be negative, got %d", b.iterations)
	}
	if err := errors.ValidatePositive("edge length", b.edgeLength); err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfiguration, err, "invalid edge length")
	}
	logger := b.logger
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Layout{
		forces:      append([]Force(nil), b.forces...),
		pre:         append([]PreMovement(nil), b.pre...),
		constraints: append([]Constraint(nil), b.constraints...),
		post:        append([]PostProcessing(nil), b.post...),
		iterations:  b.iterations,
		edgeLength:  b.edgeLength,
		tau:         b.tau,
		logger:      logger,
		observer:    b.observer,
	}, nil
}

// Layout runs the configured pipeline on a graph.
//
// A Layout is not safe for concurrent use: components such as
// [MovementAcceleration] keep per-run state.
type Layout struct {
	forces      []Force
	pre         []PreMovement
	constraints []Constraint
	post        []PostProcessing

	iterations int
	edgeLength float64
	tau        float64
	logger     *log.Logger
	observer   func(IterationInfo)
	phase      Phase
}

// Phase returns the lifecycle state.
func (l *Layout) Phase() Phase { return l.phase }

// Iterations returns the configured iteration count.
func (l *Layout) Iterations() int { return l.iterations }

// Run lays out g in place and returns RunningTime, Iterations and the
// per-iteration MaxMovement.
func (l *Layout) Run(g *graph.Graph) *stats.Statistics {
	l.phase = Running
	start := time.Now()
	st := stats.New()
	for _, c := range l.constraints {
		if r, ok := c.(interface{ reset() }); ok {
			r.reset()
		}
	}

	s := newState(g, l.iterations, l.edgeLength, l.tau)
	for k := 0; k < l.iterations; k++ {
		s.Iteration = k
		moved := l.step(s)
		st.Append(stats.MaxMovement, stats.UnitDistance, moved)

		if l.observer != nil {
			l.observer(IterationInfo{Iteration: k, Iterations: l.iterations, MaxMovement: moved, Nodes: len(s.Nodes)})
		}
		if k%25 == 0 {
			l.logger.Debug("fdl iteration", "iteration", k, "nodes", len(s.Nodes), "max_movement", moved)
		}
	}

	st.Set(stats.Iterations, stats.UnitCount, float64(l.iterations))
	st.SetDuration(stats.RunningTime, time.Since(start))
	l.phase = Done
	return st
}

// step runs one iteration and returns the largest committed displacement.
func (l *Layout) step(s *State) float64 {
	n := len(s.Nodes)
	disp := make([]r3.Vec, n)
	for _, f := range l.forces {
		f.Compute(s, disp)
	}
	sanitize(disp)
	for _, p := range l.pre {
		p.Filter(s, disp)
	}
	for _, c := range l.constraints {
		c.Constrain(s, disp)
	}
	sanitize(disp)

	maxMove := 0.0
	for i, d := range disp {
		s.Nodes[i].Pos = r3.Add(s.Nodes[i].Pos, d)
		if m := r3.Norm(d); m > maxMove {
			maxMove = m
		}
	}

	for _, p := range l.post {
		if p.Process(s) {
			s.reindex()
		}
	}
	return maxMove
}

func sanitize(disp []r3.Vec) {
	for i, d := range disp {
		disp[i] = geom.Sanitize(d)
	}
}

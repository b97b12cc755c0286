package fdl

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/matzehuels/dynlayout/pkg/graph"
)

// DecreasingMaxMovement caps every displacement at Initial·(N−k)/N in
// iteration k of N, so the largest step shrinks linearly and the run
// converges. An Initial of zero uses the edge length.
type DecreasingMaxMovement struct {
	Initial float64
}

// Cap returns the movement cap for the current iteration.
func (c DecreasingMaxMovement) Cap(s *State) float64 {
	initial := c.Initial
	if initial <= 0 {
		initial = s.EdgeLength
	}
	if s.Iterations <= 0 {
		return initial
	}
	return initial * float64(s.Iterations-s.Iteration) / float64(s.Iterations)
}

func (c DecreasingMaxMovement) Constrain(s *State, disp []r3.Vec) {
	limit := c.Cap(s)
	for i, d := range disp {
		if m := r3.Norm(d); m > limit {
			disp[i] = r3.Scale(limit/m, d)
		}
	}
}

// MovementAcceleration smooths velocity changes. A node that keeps moving in
// the same direction speeds up by up to Factor; a node that reverses slows
// down, but never below half its raw step.
type MovementAcceleration struct {
	Factor float64

	prev map[string]r3.Vec
}

// NewMovementAcceleration returns the constraint with the given factor.
func NewMovementAcceleration(factor float64) *MovementAcceleration {
	return &MovementAcceleration{Factor: factor}
}

func (m *MovementAcceleration) reset() { m.prev = nil }

func (m *MovementAcceleration) Constrain(s *State, disp []r3.Vec) {
	if m.prev == nil {
		m.prev = make(map[string]r3.Vec, len(disp))
	}
	hi := 1 + m.Factor
	for i, d := range disp {
		id := s.Nodes[i].ID
		if p, ok := m.prev[id]; ok {
			np, nd := r3.Norm(p), r3.Norm(d)
			if np > 0 && nd > 0 {
				cos := r3.Dot(p, d) / (np * nd)
				scale := math.Max(0.5, math.Min(hi, 1+m.Factor*cos))
				d = r3.Scale(scale, d)
				disp[i] = d
			}
		}
		m.prev[id] = d
	}
}

// ForbidTimeShifting zeroes the time component of displacements. By default
// only samples created at fixed times (anchors and regular nodes) are
// pinned; All pins every node.
type ForbidTimeShifting struct {
	All bool
}

func (f ForbidTimeShifting) Filter(s *State, disp []r3.Vec) {
	for i, n := range s.Nodes {
		if f.All || n.Kind != graph.NodeKindSample || n.Anchor {
			disp[i].Z = 0
		}
	}
}

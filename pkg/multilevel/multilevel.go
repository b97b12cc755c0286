package multilevel

import (
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/matzehuels/dynlayout/pkg/dyngraph"
	"github.com/matzehuels/dynlayout/pkg/errors"
	"github.com/matzehuels/dynlayout/pkg/evolution"
	"github.com/matzehuels/dynlayout/pkg/fdl"
	"github.com/matzehuels/dynlayout/pkg/geom"
	"github.com/matzehuels/dynlayout/pkg/interval"
	"github.com/matzehuels/dynlayout/pkg/spacetime"
	"github.com/matzehuels/dynlayout/pkg/stats"
)

// Defaults applied by [New] to zero config fields.
const (
	DefaultMinShrink  = 0.75
	DefaultTargetSize = 10
	DefaultMaxDepth   = 30
)

// Tuning selects how movement and iteration budgets scale with level size.
type Tuning int

const (
	// Limited shrinks the movement cap on large levels for stability.
	Limited Tuning = iota
	// NoLimit uses the same generous budget on every level.
	NoLimit
)

func (t Tuning) String() string {
	if t == NoLimit {
		return "no-limit"
	}
	return "limited"
}

// ParseTuning parses "limited" or "no-limit".
func ParseTuning(s string) (Tuning, error) {
	switch strings.ReplaceAll(strings.ToLower(s), "_", "-") {
	case "", "limited":
		return Limited, nil
	case "no-limit", "nolimit":
		return NoLimit, nil
	}
	return Limited, errors.New(errors.ErrCodeInvalidOption, "unknown tuning %q", s)
}

// budget returns the iteration count and initial movement cap for a level.
func (t Tuning) budget(iterations int, edgeLength float64, nodes, target int) (int, float64) {
	if t == NoLimit || nodes <= target {
		return iterations, 2 * edgeLength
	}
	f := math.Sqrt(float64(target) / float64(nodes))
	return iterations, edgeLength * math.Max(0.1, f)
}

// LevelInfo is reported to the level observer after each refined level.
type LevelInfo struct {
	Level    int
	Depth    int
	Nodes    int
	Edges    int
	Duration time.Duration
}

// Config configures a [MultiLevel] run.
type Config struct {
	Coarsener Coarsener
	Placement Placement
	Static    StaticLayout
	Tuning    Tuning
	// BendTransfer lets coarse levels bend their long edges and carries the
	// resulting control points down onto the fine edges they expand into.
	BendTransfer bool

	MinShrink  float64
	TargetSize int
	MaxDepth   int

	// Layout parameterises the per-level force-directed run. Its
	// Iterations and MaxMovement are adjusted per level by Tuning.
	Layout fdl.Config
	// Sync controls the space-time sampling of each level.
	Sync spacetime.Config

	Logger  *log.Logger
	OnLevel func(LevelInfo)
}

// MultiLevel runs the coarsen, solve and refine cycle.
type MultiLevel struct {
	cfg       Config
	logger    *log.Logger
	hierarchy *Hierarchy
}

// New validates cfg and fills defaults.
func New(cfg Config) (*MultiLevel, error) {
	if cfg.Coarsener == nil {
		return nil, errors.New(errors.ErrCodeConfiguration, "multilevel layout needs a coarsener")
	}
	if cfg.Placement == nil {
		return nil, errors.New(errors.ErrCodeConfiguration, "multilevel layout needs a placement")
	}
	if cfg.Static == nil {
		return nil, errors.New(errors.ErrCodeConfiguration, "multilevel layout needs a static layout")
	}
	if cfg.MinShrink == 0 {
		cfg.MinShrink = DefaultMinShrink
	}
	if err := errors.ValidateRatio("min shrink", cfg.MinShrink); err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfiguration, err, "invalid multilevel config")
	}
	if cfg.TargetSize <= 0 {
		cfg.TargetSize = DefaultTargetSize
	}
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = DefaultMaxDepth
	}
	if cfg.Layout.EdgeLength <= 0 {
		cfg.Layout.EdgeLength = fdl.DefaultEdgeLength
	}
	if cfg.Layout.Iterations <= 0 {
		cfg.Layout.Iterations = fdl.DefaultIterations
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &MultiLevel{cfg: cfg, logger: logger}, nil
}

// Hierarchy returns the hierarchy of the last run.
func (m *MultiLevel) Hierarchy() *Hierarchy { return m.hierarchy }

// Run lays out g in place. It reports RunningTime, HierarchyDepth,
// CoarseningTime and, per refined level from the coarsest down,
// LevelRunningTime and LevelNodeCount. The force-directed statistics of
// level i are kept under the prefix "Level<i>.".
func (m *MultiLevel) Run(g *dyngraph.Graph) (*stats.Statistics, error) {
	start := time.Now()
	st := stats.New()
	rng := rand.New(rand.NewPCG(uint64(m.cfg.Layout.Seed), uint64(m.cfg.Layout.Seed)^0xdeadbeef))

	h, err := m.coarsen(g)
	if err != nil {
		return nil, err
	}
	m.hierarchy = h
	st.Set(stats.HierarchyDepth, stats.UnitCount, float64(h.Depth()))
	st.SetDuration(stats.CoarseningTime, time.Since(start))
	m.logger.Info("coarsened", "depth", h.Depth(), "coarsest", h.Coarsest().Graph.NodeCount())

	flatten(h.Coarsest().Graph, m.cfg.Static, rng)

	for i := h.Depth(); i >= 0; i-- {
		lvlStart := time.Now()
		lvl := h.Levels[i]
		if i < h.Depth() {
			coarse := h.Levels[i+1].Graph
			m.cfg.Placement.Place(lvl.Graph, coarse, lvl.Coarsening, m.cfg.Layout.EdgeLength)
			if m.cfg.BendTransfer {
				transferBends(lvl.Graph, coarse, lvl.Coarsening)
			}
			separate(lvl.Graph, lvl.Coarsening, 0.05*m.cfg.Layout.EdgeLength, rng)
		}
		lst, err := m.refine(lvl)
		if err != nil {
			return nil, err
		}
		st.Merge(fmt.Sprintf("Level%d.", i), lst)

		d := time.Since(lvlStart)
		st.AppendDuration(stats.LevelRunningTime, d)
		st.Append(stats.LevelNodeCount, stats.UnitCount, float64(lvl.Graph.NodeCount()))
		m.logger.Info("refined level", "level", i, "nodes", lvl.Graph.NodeCount(), "elapsed", d)
		if m.cfg.OnLevel != nil {
			m.cfg.OnLevel(LevelInfo{
				Level:    i,
				Depth:    h.Depth(),
				Nodes:    lvl.Graph.NodeCount(),
				Edges:    lvl.Graph.EdgeCount(),
				Duration: d,
			})
		}
	}

	st.SetDuration(stats.RunningTime, time.Since(start))
	return st, nil
}

func (m *MultiLevel) coarsen(g *dyngraph.Graph) (*Hierarchy, error) {
	h := &Hierarchy{Levels: []*Level{{Depth: 0, Graph: g}}}
	for h.Depth() < m.cfg.MaxDepth {
		cur := h.Coarsest()
		n := cur.Graph.NodeCount()
		if n <= m.cfg.TargetSize {
			break
		}
		coarse, c, err := m.cfg.Coarsener.Coarsen(cur.Graph)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "coarsen level %d", cur.Depth)
		}
		if float64(coarse.NodeCount()) >= m.cfg.MinShrink*float64(n) {
			m.logger.Debug("coarsening stalled", "level", cur.Depth, "nodes", n, "coarse", coarse.NodeCount())
			break
		}
		cur.Coarsening = c
		h.Levels = append(h.Levels, &Level{Depth: cur.Depth + 1, Graph: coarse})
	}
	return h, nil
}

func (m *MultiLevel) refine(lvl *Level) (*stats.Statistics, error) {
	sync := spacetime.New(lvl.Graph, m.cfg.Sync)
	mirror, err := sync.Build()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "build space-time mirror of level %d", lvl.Depth)
	}

	cfg := m.cfg.Layout
	cfg.Iterations, cfg.MaxMovement = m.cfg.Tuning.budget(cfg.Iterations, cfg.EdgeLength, lvl.Graph.NodeCount(), m.cfg.TargetSize)
	if cfg.Logger == nil {
		cfg.Logger = m.logger
	}
	if m.cfg.BendTransfer && lvl.Depth > 0 {
		cfg.Bends = true
	}
	layout, err := fdl.Standard(cfg).Build()
	if err != nil {
		return nil, err
	}
	st := layout.Run(mirror)
	sync.UpdateOriginal()
	return st, nil
}

// transferBends gives every fine edge without control points of its own the
// curvature of the level above. An edge merged into a coarse edge takes its
// control points, reversed when it runs against the coarse edge. An edge
// inside a cluster gets one control point halfway between its placed
// endpoints, which the refinement is then free to move.
func transferBends(fine, coarse *dyngraph.Graph, c *Coarsening) {
	for _, e := range fine.Edges() {
		if _, ok := pointsOf(e); ok {
			continue
		}
		if c.Cluster[e.From] == c.Cluster[e.To] {
			bendInside(fine, e)
			continue
		}
		ce, ok := coarse.Edge(c.EdgeCluster[e.ID])
		if !ok {
			continue
		}
		pts, ok := pointsOf(ce)
		if !ok {
			continue
		}
		if ce.From == c.Cluster[e.From] {
			e.SetAttribute(dyngraph.AttrEdgePoints, pts.Clone())
			continue
		}
		for _, f := range pts.Functions() {
			e.Points().Insert(reversedPoints(f))
		}
	}
}

func bendInside(g *dyngraph.Graph, e *dyngraph.Edge) {
	from, ok := g.Node(e.From)
	if !ok {
		return
	}
	to, ok := g.Node(e.To)
	if !ok {
		return
	}
	for _, iv := range interval.Union(e.PresentIntervals()) {
		t := midTime(iv)
		mid := r3.Scale(0.5, r3.Add(from.Position().ValueAt(t), to.Position().ValueAt(t)))
		e.Points().Insert(evolution.Const(iv, geom.ControlPoints{{X: mid.X, Y: mid.Y}}))
	}
}

// midTime returns a finite representative time of iv.
func midTime(iv interval.Interval) float64 {
	lo, hi := iv.Left(), iv.Right()
	switch {
	case !math.IsInf(lo, 0) && !math.IsInf(hi, 0):
		return (lo + hi) / 2
	case !math.IsInf(lo, 0):
		return lo
	case !math.IsInf(hi, 0):
		return hi
	}
	return 0
}

// separate moves every node that is not a cluster centre by a small random
// planar offset so members placed on the same spot can repel each other.
func separate(g *dyngraph.Graph, c *Coarsening, radius float64, rng *rand.Rand) {
	for _, n := range g.Nodes() {
		if c.Center[c.Cluster[n.ID]] == n.ID {
			continue
		}
		a := rng.Float64() * 2 * math.Pi
		r := radius * math.Sqrt(rng.Float64())
		n.SetAttribute(dyngraph.AttrPosition, translate(n.Position(), r3.Vec{X: r * math.Cos(a), Y: r * math.Sin(a)}))
	}
}

// StrategyFor returns the coarsener and matching placement for a strategy
// name: "independent-set", "weighted-independent-set", "solar" or
// "identity" (independent set with identity placement).
func StrategyFor(name string) (Coarsener, Placement, error) {
	switch strings.ToLower(name) {
	case "", "independent-set", "is":
		return IndependentSet{}, WeightedBarycenter{}, nil
	case "weighted-independent-set", "weighted":
		return IndependentSet{Weighted: true}, WeightedBarycenter{}, nil
	case "solar", "solar-merger":
		return SolarMerger{}, Solar{}, nil
	case "identity":
		return IndependentSet{}, Identity{}, nil
	}
	return nil, nil, errors.New(errors.ErrCodeConfiguration, "unknown multilevel strategy %q", name)
}

// Strategies lists the names accepted by [StrategyFor].
func Strategies() []string {
	return []string{"independent-set", "weighted-independent-set", "solar", "identity"}
}

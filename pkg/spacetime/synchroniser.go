package spacetime

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/matzehuels/dynlayout/pkg/dyngraph"
	"github.com/matzehuels/dynlayout/pkg/evolution"
	"github.com/matzehuels/dynlayout/pkg/geom"
	"github.com/matzehuels/dynlayout/pkg/graph"
	"github.com/matzehuels/dynlayout/pkg/interval"
)

// ErrInvalidTick is returned by [Synchroniser.Build] in discrete mode when
// the tick is not a positive number.
var ErrInvalidTick = errors.New("discrete sampling needs a positive tick")

// maxTicks bounds the samples created for one presence interval.
const maxTicks = 100000

// Mode selects how node trajectories are sampled.
type Mode int

const (
	// Continuous samples at native event boundaries.
	Continuous Mode = iota
	// Discrete samples at fixed ticks.
	Discrete
)

func (m Mode) String() string {
	if m == Discrete {
		return "discrete"
	}
	return "continuous"
}

// Config holds sampling options.
type Config struct {
	Mode   Mode
	Origin float64 // first tick in discrete mode
	Tick   float64 // distance between ticks in discrete mode
}

// Synchroniser maintains the mirror of one dynamic graph.
type Synchroniser struct {
	dyn     *dyngraph.Graph
	cfg     Config
	mirror  *graph.Graph
	span    interval.Interval
	hasSpan bool
}

// New creates a synchroniser for g. Nothing is built until [Synchroniser.Build].
func New(g *dyngraph.Graph, cfg Config) *Synchroniser {
	return &Synchroniser{dyn: g, cfg: cfg}
}

// Graph returns the dynamic graph being synchronised.
func (s *Synchroniser) Graph() *dyngraph.Graph { return s.dyn }

// Mirror returns the last built mirror, or nil before Build.
func (s *Synchroniser) Mirror() *graph.Graph { return s.mirror }

// sample is one mirror node of a dynamic node.
type sample struct {
	id string
	t  float64
}

// Build creates a fresh mirror from the dynamic graph's current state.
func (s *Synchroniser) Build() (*graph.Graph, error) {
	if s.cfg.Mode == Discrete && !(s.cfg.Tick > 0) {
		return nil, ErrInvalidTick
	}
	s.span, s.hasSpan = s.dyn.TimeSpan()
	m := graph.New(graph.Metadata{"mode": s.cfg.Mode.String()})

	samples := make(map[string][]sample, s.dyn.NodeCount())
	for _, n := range s.dyn.Nodes() {
		ss, err := s.buildNode(m, n, s.edgeEvents(n))
		if err != nil {
			return nil, err
		}
		samples[n.ID] = ss
	}
	for _, e := range s.dyn.Edges() {
		if err := s.buildEdge(m, e, samples); err != nil {
			return nil, err
		}
	}
	s.mirror = m
	return m, nil
}

// edgeEvents returns the bounds of the windows in which the node's incident
// edges exist. Continuous sampling adds them so that every edge has
// samples of both endpoints to connect.
func (s *Synchroniser) edgeEvents(n *dyngraph.Node) []float64 {
	if s.cfg.Mode != Continuous {
		return nil
	}
	var out []float64
	for _, e := range s.dyn.IncidentEdges(n.ID) {
		from, _ := s.dyn.Node(e.From)
		to, _ := s.dyn.Node(e.To)
		for _, w := range windows(e.PresentIntervals(), from.PresentIntervals(), to.PresentIntervals()) {
			lo, hi := s.bounded(w)
			out = append(out, lo, hi)
		}
	}
	return out
}

func (s *Synchroniser) buildNode(m *graph.Graph, n *dyngraph.Node, extra []float64) ([]sample, error) {
	var all []sample
	pos := n.Position()
	for k, iv := range interval.Union(n.PresentIntervals()) {
		times := s.sampleTimes(iv, pos, extra)
		var prev string
		for i, t := range times {
			id := fmt.Sprintf("%s@%d.%d", n.ID, k, i)
			p := pos.ValueAt(t)
			err := m.AddNode(graph.Node{
				ID:     id,
				Pos:    r3.Vec{X: p.X, Y: p.Y, Z: t},
				Kind:   graph.NodeKindSample,
				Owner:  n.ID,
				Time:   t,
				Anchor: true,
			})
			if err != nil {
				return nil, fmt.Errorf("sample %s: %w", id, err)
			}
			if prev != "" {
				if err := m.AddEdge(graph.Edge{From: prev, To: id, Kind: graph.EdgeKindTrajectory, Owner: n.ID}); err != nil {
					return nil, fmt.Errorf("trajectory %s: %w", id, err)
				}
			}
			prev = id
			all = append(all, sample{id: id, t: t})
		}
	}
	return all, nil
}

// bounded clips an unbounded presence interval to the graph's time span.
// Without any finite reference the interval collapses to time zero.
func (s *Synchroniser) bounded(iv interval.Interval) (lo, hi float64) {
	lo, hi = iv.Left(), iv.Right()
	if s.hasSpan {
		if math.IsInf(lo, -1) {
			lo = math.Min(s.span.Left(), hi)
		}
		if math.IsInf(hi, 1) {
			hi = math.Max(s.span.Right(), lo)
		}
	}
	switch {
	case math.IsInf(lo, 0) && math.IsInf(hi, 0):
		return 0, 0
	case math.IsInf(lo, 0):
		lo = hi
	case math.IsInf(hi, 0):
		hi = lo
	}
	return lo, hi
}

func (s *Synchroniser) sampleTimes(iv interval.Interval, pos *evolution.Evolution[r3.Vec], extra []float64) []float64 {
	lo, hi := s.bounded(iv)
	times := []float64{lo, hi}
	for _, t := range extra {
		if t >= lo && t <= hi {
			times = append(times, t)
		}
	}

	switch s.cfg.Mode {
	case Discrete:
		k := math.Ceil((lo - s.cfg.Origin) / s.cfg.Tick)
		for n := 0; n < maxTicks; n++ {
			t := s.cfg.Origin + (k+float64(n))*s.cfg.Tick
			if t > hi {
				break
			}
			times = append(times, t)
		}
	default:
		for _, f := range pos.FunctionsOverlapping(iv) {
			for _, b := range []float64{f.Interval().Left(), f.Interval().Right()} {
				if b >= lo && b <= hi {
					times = append(times, b)
				}
			}
		}
	}
	slices.Sort(times)
	return slices.Compact(times)
}

// nearest returns the sample of ss closest in time to t.
func nearest(ss []sample, t float64) (sample, bool) {
	if len(ss) == 0 {
		return sample{}, false
	}
	best := ss[0]
	for _, c := range ss[1:] {
		if math.Abs(c.t-t) < math.Abs(best.t-t) {
			best = c
		}
	}
	return best, true
}

func within(ss []sample, lo, hi float64) []sample {
	var out []sample
	for _, c := range ss {
		if c.t >= lo && c.t <= hi {
			out = append(out, c)
		}
	}
	return out
}

func (s *Synchroniser) buildEdge(m *graph.Graph, e *dyngraph.Edge, samples map[string][]sample) error {
	from, _ := s.dyn.Node(e.From)
	to, _ := s.dyn.Node(e.To)
	if from == nil || to == nil || e.From == e.To {
		return nil
	}
	for _, window := range windows(e.PresentIntervals(), from.PresentIntervals(), to.PresentIntervals()) {
		lo, hi := s.bounded(window)
		us, vs := within(samples[e.From], lo, hi), within(samples[e.To], lo, hi)
		if len(us) == 0 || len(vs) == 0 {
			continue
		}
		var times []float64
		for _, c := range append(slices.Clone(us), vs...) {
			times = append(times, c.t)
		}
		slices.Sort(times)
		for _, t := range slices.Compact(times) {
			su, _ := nearest(us, t)
			sv, _ := nearest(vs, t)
			err := m.AddEdge(graph.Edge{From: su.id, To: sv.id, Kind: graph.EdgeKindConnection, Owner: e.ID})
			if err != nil && !errors.Is(err, graph.ErrDuplicateEdge) {
				return fmt.Errorf("connection %s: %w", e.ID, err)
			}
		}
		if err := s.buildBends(m, e, window, us, vs); err != nil {
			return err
		}
	}
	return nil
}

// windows intersects the edge's presence with both endpoints' presence.
func windows(edge, from, to []interval.Interval) []interval.Interval {
	var out []interval.Interval
	for _, a := range interval.Union(edge) {
		for _, b := range interval.Union(from) {
			ab, ok := a.Intersection(b)
			if !ok {
				continue
			}
			for _, c := range interval.Union(to) {
				if abc, ok := ab.Intersection(c); ok {
					out = append(out, abc)
				}
			}
		}
	}
	return out
}

func (s *Synchroniser) buildBends(m *graph.Graph, e *dyngraph.Edge, window interval.Interval, us, vs []sample) error {
	for _, f := range e.Points().FunctionsOverlapping(window) {
		iv, ok := f.Interval().Intersection(window)
		if !ok {
			continue
		}
		lo, hi := s.bounded(iv)
		tm := (lo + hi) / 2
		pts := f.ValueAt(tm, e.Points().Lerp())
		if len(pts) == 0 {
			continue
		}
		su, _ := nearest(us, tm)
		sv, _ := nearest(vs, tm)
		prev := su.id
		for i, p := range pts {
			id := fmt.Sprintf("%s~%g#%d", e.ID, tm, i)
			if err := m.AddNode(graph.Node{
				ID:    id,
				Pos:   r3.Vec{X: p.X, Y: p.Y, Z: tm},
				Kind:  graph.NodeKindBend,
				Owner: e.ID,
				Time:  tm,
				Index: i,
			}); err != nil {
				return fmt.Errorf("bend %s: %w", id, err)
			}
			if err := m.AddEdge(graph.Edge{From: prev, To: id, Kind: graph.EdgeKindBend, Owner: e.ID}); err != nil {
				return fmt.Errorf("bend edge %s: %w", id, err)
			}
			prev = id
		}
		if err := m.AddEdge(graph.Edge{From: prev, To: sv.id, Kind: graph.EdgeKindBend, Owner: e.ID}); err != nil {
			return fmt.Errorf("bend edge %s: %w", e.ID, err)
		}
	}
	return nil
}

// UpdateOriginal writes mirror positions back into the dynamic graph.
// Anchor samples keep their sample time; other samples take their time from
// the Z coordinate, so a layout that lets samples slide in time moves the
// written functions accordingly.
func (s *Synchroniser) UpdateOriginal() {
	if s.mirror == nil {
		return
	}
	samples := make(map[string][]*graph.Node)
	bends := make(map[string][]*graph.Node)
	for _, mn := range s.mirror.Nodes() {
		switch mn.Kind {
		case graph.NodeKindSample:
			samples[mn.Owner] = append(samples[mn.Owner], mn)
		case graph.NodeKindBend:
			bends[mn.Owner] = append(bends[mn.Owner], mn)
		}
	}
	for _, n := range s.dyn.Nodes() {
		if ss := samples[n.ID]; len(ss) > 0 {
			writePositions(n, ss)
		}
	}
	for _, e := range s.dyn.Edges() {
		if bs := bends[e.ID]; len(bs) > 0 {
			writeBends(e, bs)
		}
	}
}

func sampleTime(n *graph.Node) float64 {
	if n.Anchor {
		return n.Time
	}
	return n.Pos.Z
}

type timedPos struct {
	t float64
	p r3.Vec
}

func writePositions(n *dyngraph.Node, ss []*graph.Node) {
	pts := make([]timedPos, 0, len(ss))
	for _, mn := range ss {
		pts = append(pts, timedPos{t: sampleTime(mn), p: r3.Vec{X: mn.Pos.X, Y: mn.Pos.Y}})
	}
	slices.SortStableFunc(pts, func(a, b timedPos) int { return cmp.Compare(a.t, b.t) })
	pts = slices.CompactFunc(pts, func(a, b timedPos) bool { return a.t == b.t })

	pos := n.Position()
	presence := n.Presence()
	old := pos.Clone()
	pos.Clear()

	for _, run := range splitRuns(pts, presence) {
		first, last := run[0], run[len(run)-1]
		span := presenceAround(presence, first.t)
		if len(run) == 1 {
			pos.Insert(evolution.Const(span, first.p))
			continue
		}
		if span.Left() < first.t {
			if iv, ok := interval.New(span.Left(), first.t, span.IsLeftClosed(), false); ok {
				pos.Insert(evolution.Const(iv, first.p))
			}
		}
		for i := 0; i+1 < len(run); i++ {
			a, b := run[i], run[i+1]
			isLast := i+2 == len(run)
			iv, ok := interval.New(a.t, b.t, true, isLast && (span.Right() > b.t || span.IsRightClosed()))
			if !ok {
				continue
			}
			kind := evolution.Linear
			if f, ok := old.FunctionAt((a.t + b.t) / 2); ok && !f.IsConst() {
				kind = f.Interpolation()
			}
			pos.Insert(evolution.Rect(iv, a.p, b.p, kind))
		}
		if span.Right() > last.t {
			if iv, ok := interval.New(last.t, span.Right(), false, span.IsRightClosed()); ok {
				pos.Insert(evolution.Const(iv, last.p))
			}
		}
	}
}

// splitRuns cuts the time-sorted samples wherever the node is absent between
// two consecutive samples.
func splitRuns(pts []timedPos, presence *evolution.Evolution[bool]) [][]timedPos {
	var runs [][]timedPos
	start := 0
	for i := 1; i <= len(pts); i++ {
		if i < len(pts) && presence.ValueAt((pts[i-1].t+pts[i].t)/2) {
			continue
		}
		runs = append(runs, pts[start:i])
		start = i
	}
	return runs
}

// presenceAround returns the merged presence interval containing t, or the
// point t when the node is not present there.
func presenceAround(presence *evolution.Evolution[bool], t float64) interval.Interval {
	var ivs []interval.Interval
	for _, f := range presence.Functions() {
		if f.LeftValue() {
			ivs = append(ivs, f.Interval())
		}
	}
	for _, iv := range interval.Union(ivs) {
		if iv.Contains(t) || iv.Left() == t || iv.Right() == t {
			return iv
		}
	}
	p, _ := interval.Point(t)
	return p
}

func writeBends(e *dyngraph.Edge, bs []*graph.Node) {
	byTime := make(map[float64][]*graph.Node)
	var times []float64
	for _, b := range bs {
		if _, ok := byTime[b.Time]; !ok {
			times = append(times, b.Time)
		}
		byTime[b.Time] = append(byTime[b.Time], b)
	}
	slices.Sort(times)

	points := e.Points()
	for _, t := range times {
		group := byTime[t]
		slices.SortFunc(group, func(a, b *graph.Node) int { return cmp.Compare(a.Index, b.Index) })
		cps := make(geom.ControlPoints, len(group))
		for i, b := range group {
			cps[i] = r3.Vec{X: b.Pos.X, Y: b.Pos.Y}
		}
		f, ok := points.FunctionAt(t)
		if !ok {
			// Bends added during layout: hold the points over the presence
			// window they were created in.
			_ = points.InsertStrict(evolution.Const(presenceAround(e.Presence(), t), cps))
			continue
		}
		iv := f.Interval()
		if f.IsConst() {
			points.Replace(iv, evolution.Const(iv, cps))
		} else {
			points.Replace(iv, evolution.Rect(iv, cps, cps.Clone(), f.Interpolation()))
		}
	}
}

package dyngraph

import (
	"fmt"
	"math"
	"strings"

	"github.com/matzehuels/dynlayout/pkg/interval"
)

// TauMode selects which presence events feed [Graph.AutocomputeTau].
type TauMode int

const (
	// TauAll uses node and edge presence.
	TauAll TauMode = iota
	// TauNodesOnly ignores edges, for data where edges always exist while
	// both endpoints do.
	TauNodesOnly
	// TauEdgesOnly ignores nodes, for data where nodes are always present.
	TauEdgesOnly
)

func (m TauMode) String() string {
	switch m {
	case TauNodesOnly:
		return "nodes"
	case TauEdgesOnly:
		return "edges"
	default:
		return "all"
	}
}

// ParseTauMode parses "all", "nodes" or "edges".
func ParseTauMode(s string) (TauMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return TauAll, nil
	case "nodes", "nodes-only":
		return TauNodesOnly, nil
	case "edges", "edges-only":
		return TauEdgesOnly, nil
	}
	return TauAll, fmt.Errorf("unknown tau mode %q", s)
}

// AutocomputeTau derives the time-inertia constant: the mean duration of
// the finite presence intervals selected by mode, divided by the span from
// the earliest to the latest finite bound among them. Intervals with an
// infinite bound take no part. It reports false when there is no finite
// interval or the span is zero; callers then keep their configured τ.
func (g *Graph) AutocomputeTau(mode TauMode) (float64, bool) {
	var (
		sum   float64
		count int
		lo    = math.Inf(1)
		hi    = math.Inf(-1)
	)
	observe := func(ivs []interval.Interval) {
		for _, iv := range ivs {
			if !iv.IsFinite() {
				continue
			}
			sum += iv.Duration()
			count++
			lo = math.Min(lo, iv.Left())
			hi = math.Max(hi, iv.Right())
		}
	}
	if mode != TauEdgesOnly {
		for _, n := range g.Nodes() {
			observe(n.PresentIntervals())
		}
	}
	if mode != TauNodesOnly {
		for _, e := range g.Edges() {
			observe(e.PresentIntervals())
		}
	}
	if count == 0 || hi <= lo {
		return 0, false
	}
	return (sum / float64(count)) / (hi - lo), true
}

package pipeline

import (
	"math"
	"math/rand/v2"

	"github.com/matzehuels/dynlayout/pkg/dyngraph"
	"github.com/matzehuels/dynlayout/pkg/errors"
	"github.com/matzehuels/dynlayout/pkg/fdl"
	"github.com/matzehuels/dynlayout/pkg/multilevel"
	"github.com/matzehuels/dynlayout/pkg/spacetime"
	"github.com/matzehuels/dynlayout/pkg/stats"
)

// =============================================================================
// Layout Computation
// =============================================================================

// ComputeLayout lays out g in place and returns the run's statistics and
// the τ it used. It is synchronous and ignores the timeout; [Runner]
// applies budgets. opts must have been validated.
func ComputeLayout(g *dyngraph.Graph, opts Options) (*stats.Statistics, float64, error) {
	tau := ResolveTau(g, opts)
	cfg := fdlConfig(opts, tau)

	var (
		st  *stats.Statistics
		err error
	)
	if opts.IsMultilevel() {
		st, err = computeMultilevel(g, opts, cfg)
	} else {
		st, err = computeSingle(g, opts, cfg)
	}
	if err != nil {
		return nil, 0, err
	}
	st.Set(stats.Tau, stats.UnitNone, tau)
	return st, tau, nil
}

// ResolveTau returns opts.Tau, or the value computed from g with
// opts.TauMode when opts.Tau is zero. It falls back to fdl.DefaultTau when
// the graph has no finite presence.
func ResolveTau(g *dyngraph.Graph, opts Options) float64 {
	if opts.Tau > 0 {
		return opts.Tau
	}
	mode, _ := dyngraph.ParseTauMode(opts.TauMode)
	if tau, ok := g.AutocomputeTau(mode); ok {
		return tau
	}
	return fdl.DefaultTau
}

func fdlConfig(opts Options, tau float64) fdl.Config {
	return fdl.Config{
		Iterations:   opts.Iterations,
		EdgeLength:   opts.EdgeLength,
		Tau:          tau,
		MaxMovement:  opts.MaxMovement,
		Gravity:      opts.Gravity,
		Acceleration: opts.Acceleration,
		Nudge:        opts.Nudge,
		Seed:         opts.Seed,
		Flexible:     opts.Flexible,
		Logger:       opts.Logger,
		OnIteration:  opts.OnIteration,
	}
}

// computeSingle scatters unplaced nodes and runs one space-time layout.
func computeSingle(g *dyngraph.Graph, opts Options, cfg fdl.Config) (*stats.Statistics, error) {
	rng := rand.New(rand.NewPCG(uint64(opts.Seed), uint64(opts.Seed)^0xdeadbeef))
	radius := opts.EdgeLength * math.Sqrt(float64(max(g.NodeCount(), 1)))
	fdl.ScatterDynamic(g, radius, rng)

	sync := spacetime.New(g, opts.SyncConfig())
	mirror, err := sync.Build()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidOption, err, "build space-time mirror")
	}
	layout, err := fdl.Standard(cfg).Build()
	if err != nil {
		return nil, err
	}
	opts.Logger.Debug("running single-level layout", "samples", mirror.NodeCount(), "links", mirror.EdgeCount())
	st := layout.Run(mirror)
	sync.UpdateOriginal()
	return st, nil
}

func computeMultilevel(g *dyngraph.Graph, opts Options, cfg fdl.Config) (*stats.Statistics, error) {
	coarsener, placement, err := multilevel.StrategyFor(opts.Strategy)
	if err != nil {
		return nil, err
	}
	tuning, err := multilevel.ParseTuning(opts.Tuning)
	if err != nil {
		return nil, err
	}
	ml, err := multilevel.New(multilevel.Config{
		Coarsener:    coarsener,
		Placement:    placement,
		Static:       multilevel.FruchtermanReingold{EdgeLength: opts.EdgeLength},
		Tuning:       tuning,
		BendTransfer: opts.Bends,
		MinShrink:    opts.MinShrink,
		TargetSize:   opts.TargetSize,
		MaxDepth:     opts.MaxDepth,
		Layout:       cfg,
		Sync:         opts.SyncConfig(),
		Logger:       opts.Logger,
		OnLevel:      opts.OnLevel,
	})
	if err != nil {
		return nil, err
	}
	return ml.Run(g)
}

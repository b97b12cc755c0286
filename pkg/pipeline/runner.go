package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/dynlayout/pkg/cache"
	"github.com/matzehuels/dynlayout/pkg/dyngraph"
	"github.com/matzehuels/dynlayout/pkg/errors"
	dynio "github.com/matzehuels/dynlayout/pkg/io"
	"github.com/matzehuels/dynlayout/pkg/multilevel"
	"github.com/matzehuels/dynlayout/pkg/observability"
	"github.com/matzehuels/dynlayout/pkg/render"
	"github.com/matzehuels/dynlayout/pkg/stats"
)

// Cache key types reported to observability hooks.
const (
	keyTypeLayout   = "layout"
	keyTypeSnapshot = "snapshot"
)

// Runner encapsulates layout execution with caching and time budgets.
// Both CLI and API use this to avoid duplicating that logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store results. Multiple goroutines can safely use the same Runner with
// different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// cachedLayout is the cache payload of a layout run.
type cachedLayout struct {
	Graph json.RawMessage   `json:"graph"`
	Stats *stats.Statistics `json:"stats"`
	Tau   float64           `json:"tau"`
}

// Layout lays out a copy of g. The input graph is never modified.
//
// Results are cached by graph content and options unless opts.Refresh is
// set. A run that exceeds opts.Timeout returns an [errors.TimeoutError];
// a canceled ctx returns a CANCELED error. In both cases the abandoned run
// finishes in the background and its result is dropped.
func (r *Runner) Layout(ctx context.Context, g *dyngraph.Graph, opts Options) (*Result, error) {
	start := time.Now()
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	result := &Result{RunID: uuid.NewString()}
	logger := opts.Logger.With("run", result.RunID[:8])

	graphData, err := dynio.MarshalDynamic(g)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode graph for cache key")
	}
	result.GraphHash = cache.Hash(graphData)
	cacheKey := r.Keyer.LayoutKey(result.GraphHash, opts.LayoutKeyOpts())

	// Try cache first (unless refresh requested)
	if !opts.Refresh {
		if cached, ok := r.loadLayout(ctx, cacheKey); ok {
			result.Graph = cached.graph
			result.Stats = cached.stats
			result.Tau = cached.tau
			result.CacheHit = true
			result.Duration = time.Since(start)
			logger.Debug("layout cache hit", "key", cacheKey)
			return result, nil
		}
	}

	work := g.Clone()
	st, tau, err := r.run(ctx, work, opts, logger)
	if err != nil {
		return nil, err
	}
	result.Graph = work
	result.Stats = st
	result.Tau = tau
	result.Duration = time.Since(start)

	r.storeLayout(ctx, cacheKey, work, st, tau)
	logger.Info("computed layout",
		"algorithm", opts.Algorithm,
		"nodes", work.NodeCount(),
		"edges", work.EdgeCount(),
		"tau", tau,
		"duration", result.Duration)
	return result, nil
}

type outcome struct {
	stats *stats.Statistics
	tau   float64
	err   error
}

// run executes ComputeLayout in a background goroutine and waits for it,
// the budget or ctx, whichever comes first.
func (r *Runner) run(ctx context.Context, g *dyngraph.Graph, opts Options, logger *log.Logger) (*stats.Statistics, float64, error) {
	hooks := observability.Layout()
	hooks.OnLayoutStart(ctx, opts.Algorithm, g.NodeCount())
	start := time.Now()

	onLevel := opts.OnLevel
	levels := &levelGuard{fn: func(info multilevel.LevelInfo) {
		hooks.OnLevelComplete(ctx, info.Level, info.Nodes, info.Duration)
		if onLevel != nil {
			onLevel(info)
		}
	}}
	opts.OnLevel = levels.report
	opts.Logger = logger

	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- outcome{err: errors.New(errors.ErrCodeInternal, "layout panicked: %v", p)}
			}
		}()
		st, tau, err := ComputeLayout(g, opts)
		done <- outcome{stats: st, tau: tau, err: err}
	}()

	budget := opts.Timeout()
	timer := time.NewTimer(budget)
	defer timer.Stop()

	var out outcome
	select {
	case out = <-done:
	case <-timer.C:
		out.err = &errors.TimeoutError{Stage: opts.Algorithm, Budget: budget}
	case <-ctx.Done():
		out.err = errors.Wrap(errors.ErrCodeCanceled, ctx.Err(), "%s run canceled", opts.Algorithm)
	}
	levels.abandon()
	hooks.OnLayoutComplete(ctx, opts.Algorithm, time.Since(start), out.err)
	if out.err != nil {
		return nil, 0, out.err
	}
	return out.stats, out.tau, nil
}

// levelGuard forwards level reports until the run they belong to has
// returned. A run abandoned on timeout or cancel keeps computing in the
// background and must not report into a finished request.
type levelGuard struct {
	abandoned atomic.Bool
	fn        func(multilevel.LevelInfo)
}

func (g *levelGuard) report(info multilevel.LevelInfo) {
	if g.abandoned.Load() {
		return
	}
	g.fn(info)
}

func (g *levelGuard) abandon() { g.abandoned.Store(true) }

type loadedLayout struct {
	graph *dyngraph.Graph
	stats *stats.Statistics
	tau   float64
}

func (r *Runner) loadLayout(ctx context.Context, key string) (loadedLayout, bool) {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil || !hit {
		observability.Cache().OnCacheMiss(ctx, keyTypeLayout)
		return loadedLayout{}, false
	}
	var cached cachedLayout
	if err := json.Unmarshal(data, &cached); err != nil {
		observability.Cache().OnCacheMiss(ctx, keyTypeLayout)
		return loadedLayout{}, false
	}
	g, err := dynio.UnmarshalDynamic(cached.Graph)
	if err != nil {
		// If deserialization fails, fall through to recompute
		observability.Cache().OnCacheMiss(ctx, keyTypeLayout)
		return loadedLayout{}, false
	}
	if cached.Stats == nil {
		cached.Stats = stats.New()
	}
	observability.Cache().OnCacheHit(ctx, keyTypeLayout)
	return loadedLayout{graph: g, stats: cached.Stats, tau: cached.Tau}, true
}

func (r *Runner) storeLayout(ctx context.Context, key string, g *dyngraph.Graph, st *stats.Statistics, tau float64) {
	graphData, err := dynio.MarshalDynamic(g)
	if err != nil {
		return
	}
	data, err := json.Marshal(cachedLayout{Graph: graphData, Stats: st, Tau: tau})
	if err != nil {
		return
	}
	if err := r.Cache.Set(ctx, key, data, cache.LayoutTTL); err != nil {
		r.Logger.Warn("cache write failed", "key", key, "err", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, keyTypeLayout, len(data))
}

// SnapshotOptions configures [Runner.Snapshot].
type SnapshotOptions struct {
	Time   float64 `json:"time"`
	Format string  `json:"format,omitempty"`
	Scale  float64 `json:"scale,omitempty"`
	Labels bool    `json:"labels,omitempty"`
}

// Snapshot renders g at one time in the requested format (dot, svg, pdf or
// png) and reports whether the bytes came from the cache.
func (r *Runner) Snapshot(ctx context.Context, g *dyngraph.Graph, opts SnapshotOptions) ([]byte, bool, error) {
	if opts.Format == "" {
		opts.Format = "svg"
	}
	if err := errors.ValidateTime(opts.Time); err != nil {
		return nil, false, err
	}

	graphData, err := dynio.MarshalDynamic(g)
	if err != nil {
		return nil, false, errors.Wrap(errors.ErrCodeInternal, err, "encode graph for cache key")
	}
	cacheKey := r.Keyer.SnapshotKey(cache.Hash(graphData), cache.SnapshotKeyOpts{
		Time:   opts.Time,
		Format: opts.Format,
		Scale:  opts.Scale,
		Labels: opts.Labels,
	})
	if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
		observability.Cache().OnCacheHit(ctx, keyTypeSnapshot)
		return data, true, nil
	}
	observability.Cache().OnCacheMiss(ctx, keyTypeSnapshot)

	data, err := render.Render(g.SnapshotAt(opts.Time), opts.Format, render.Options{Scale: opts.Scale, Labels: opts.Labels})
	if err != nil {
		return nil, false, fmt.Errorf("render snapshot at %v: %w", opts.Time, err)
	}
	if err := r.Cache.Set(ctx, cacheKey, data, cache.SnapshotTTL); err == nil {
		observability.Cache().OnCacheSet(ctx, keyTypeSnapshot, len(data))
	}
	return data, false, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

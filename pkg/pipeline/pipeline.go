// Package pipeline runs dynamic graph layouts for the CLI and the HTTP
// service.
//
// This package owns everything between a decoded dynamic graph and a laid
// out one: option defaults and validation, options files, result caching,
// wall-clock budgets and snapshot rendering. By centralizing this logic,
// both entry points behave the same way.
//
// # Usage
//
// Create a Runner and lay out a graph:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    Algorithm: "multilevel",
//	    Strategy:  "solar",
//	}
//	result, err := runner.Layout(ctx, g, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	snap := result.Graph.SnapshotAt(4.5)
//
// The runner never modifies its input: the layout runs on a clone, which
// is returned in [Result.Graph]. When the run exceeds [Options.Timeout] the
// clone is abandoned and an [errors.TimeoutError] is returned.
//
// # Options Files
//
// [LoadOptionsFile] reads options from TOML, YAML or JSON. Field names are
// the snake_case names used by the HTTP API:
//
//	algorithm = "multilevel"
//	strategy = "weighted-independent-set"
//	iterations = 150
//	tau_mode = "nodes"
package pipeline

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/dynlayout/pkg/cache"
	"github.com/matzehuels/dynlayout/pkg/dyngraph"
	"github.com/matzehuels/dynlayout/pkg/errors"
	"github.com/matzehuels/dynlayout/pkg/fdl"
	"github.com/matzehuels/dynlayout/pkg/multilevel"
	"github.com/matzehuels/dynlayout/pkg/spacetime"
	"github.com/matzehuels/dynlayout/pkg/stats"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

const (
	// AlgorithmMultilevel coarsens, solves the coarsest level statically and
	// refines level by level.
	AlgorithmMultilevel = "multilevel"

	// AlgorithmSingle runs one space-time force-directed layout on the
	// input graph.
	AlgorithmSingle = "single"

	// SamplingContinuous samples trajectories at presence events.
	SamplingContinuous = "continuous"

	// SamplingDiscrete samples trajectories at fixed ticks.
	SamplingDiscrete = "discrete"

	// DefaultAlgorithm is the default layout algorithm.
	DefaultAlgorithm = AlgorithmMultilevel

	// DefaultSampling is the default trajectory sampling.
	DefaultSampling = SamplingContinuous

	// DefaultSeed is the default random seed for reproducibility.
	DefaultSeed = int64(42)

	// DefaultTimeout bounds one layout run.
	DefaultTimeout = 5 * time.Minute
)

// ValidAlgorithms is the set of supported layout algorithms.
var ValidAlgorithms = map[string]bool{
	AlgorithmMultilevel: true,
	AlgorithmSingle:     true,
}

// ValidSamplings is the set of supported sampling modes.
var ValidSamplings = map[string]bool{
	SamplingContinuous: true,
	SamplingDiscrete:   true,
}

// =============================================================================
// Options - Layout Configuration
// =============================================================================

// Options contains all configuration for a layout run.
// This struct supports JSON, TOML and YAML serialization.
type Options struct {
	// Algorithm options
	Algorithm string `json:"algorithm,omitempty" toml:"algorithm" yaml:"algorithm"`
	Strategy  string `json:"strategy,omitempty" toml:"strategy" yaml:"strategy"`
	Tuning    string `json:"tuning,omitempty" toml:"tuning" yaml:"tuning"`

	// Sampling options
	Sampling string  `json:"sampling,omitempty" toml:"sampling" yaml:"sampling"`
	Tick     float64 `json:"tick,omitempty" toml:"tick" yaml:"tick"`
	Origin   float64 `json:"origin,omitempty" toml:"origin" yaml:"origin"`

	// Force-directed options
	Iterations   int     `json:"iterations,omitempty" toml:"iterations" yaml:"iterations"`
	EdgeLength   float64 `json:"edge_length,omitempty" toml:"edge_length" yaml:"edge_length"`
	Tau          float64 `json:"tau,omitempty" toml:"tau" yaml:"tau"` // 0 computes τ from the graph
	TauMode      string  `json:"tau_mode,omitempty" toml:"tau_mode" yaml:"tau_mode"`
	MaxMovement  float64 `json:"max_movement,omitempty" toml:"max_movement" yaml:"max_movement"`
	Gravity      float64 `json:"gravity,omitempty" toml:"gravity" yaml:"gravity"`
	Acceleration float64 `json:"acceleration,omitempty" toml:"acceleration" yaml:"acceleration"`
	Nudge        float64 `json:"nudge,omitempty" toml:"nudge" yaml:"nudge"`
	Seed         int64   `json:"seed,omitempty" toml:"seed" yaml:"seed"`
	Flexible     bool    `json:"flexible,omitempty" toml:"flexible" yaml:"flexible"`

	// Multilevel options
	Bends      bool    `json:"bends,omitempty" toml:"bends" yaml:"bends"`
	MinShrink  float64 `json:"min_shrink,omitempty" toml:"min_shrink" yaml:"min_shrink"`
	TargetSize int     `json:"target_size,omitempty" toml:"target_size" yaml:"target_size"`
	MaxDepth   int     `json:"max_depth,omitempty" toml:"max_depth" yaml:"max_depth"`

	// Run options
	TimeoutSeconds float64 `json:"timeout_seconds,omitempty" toml:"timeout_seconds" yaml:"timeout_seconds"`
	Refresh        bool    `json:"refresh,omitempty" toml:"refresh" yaml:"refresh"`

	// Runtime options (not serialized)
	Logger      *log.Logger                `json:"-" toml:"-" yaml:"-"`
	OnLevel     func(multilevel.LevelInfo) `json:"-" toml:"-" yaml:"-"`
	OnIteration func(fdl.IterationInfo)    `json:"-" toml:"-" yaml:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// Result contains the outputs of a layout run.
type Result struct {
	// RunID identifies this run in logs and API responses.
	RunID string

	// Graph is the laid-out copy of the input.
	Graph *dyngraph.Graph

	// GraphHash is the content hash of the input graph.
	GraphHash string

	// Stats contains the metrics reported by the layout engine.
	Stats *stats.Statistics

	// Tau is the time-inertia constant the run used.
	Tau float64

	// CacheHit reports whether the layout came from the cache.
	CacheHit bool

	// Duration is the wall-clock time of the call.
	Duration time.Duration
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateAlgorithm checks that an algorithm name is valid.
func ValidateAlgorithm(algorithm string) error {
	if !ValidAlgorithms[algorithm] {
		return errors.New(errors.ErrCodeInvalidOption, "invalid algorithm: %q (must be one of: multilevel, single)", algorithm)
	}
	return nil
}

// ValidateSampling checks that a sampling mode is valid.
func ValidateSampling(sampling string) error {
	if !ValidSamplings[sampling] {
		return errors.New(errors.ErrCodeInvalidOption, "invalid sampling: %q (must be one of: continuous, discrete)", sampling)
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults applies defaults and checks every field.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	o.SetDefaults()
	if err := o.Validate(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// SetDefaults fills unset fields. Tau stays zero so that it is computed
// from the graph.
func (o *Options) SetDefaults() {
	if o.Algorithm == "" {
		o.Algorithm = DefaultAlgorithm
	}
	if o.Sampling == "" {
		o.Sampling = DefaultSampling
	}
	if o.Iterations == 0 {
		o.Iterations = fdl.DefaultIterations
	}
	if o.EdgeLength == 0 {
		o.EdgeLength = fdl.DefaultEdgeLength
	}
	if o.Seed == 0 {
		o.Seed = DefaultSeed
	}
	if o.MinShrink == 0 {
		o.MinShrink = multilevel.DefaultMinShrink
	}
	if o.TargetSize == 0 {
		o.TargetSize = multilevel.DefaultTargetSize
	}
	if o.MaxDepth == 0 {
		o.MaxDepth = multilevel.DefaultMaxDepth
	}
	if o.TimeoutSeconds == 0 {
		o.TimeoutSeconds = DefaultTimeout.Seconds()
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// Validate checks option values without changing them.
func (o *Options) Validate() error {
	if err := ValidateAlgorithm(o.Algorithm); err != nil {
		return err
	}
	if err := ValidateSampling(o.Sampling); err != nil {
		return err
	}
	if o.Sampling == SamplingDiscrete {
		if err := errors.ValidatePositive("tick", o.Tick); err != nil {
			return err
		}
	}
	if o.Iterations < 0 {
		return errors.New(errors.ErrCodeInvalidOption, "iterations must not be negative, got %d", o.Iterations)
	}
	if err := errors.ValidatePositive("edge_length", o.EdgeLength); err != nil {
		return err
	}
	if o.Tau < 0 {
		return errors.New(errors.ErrCodeInvalidOption, "tau must not be negative, got %v", o.Tau)
	}
	if _, err := dyngraph.ParseTauMode(o.TauMode); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidOption, err, "tau_mode")
	}
	if err := errors.ValidatePositive("timeout_seconds", o.TimeoutSeconds); err != nil {
		return err
	}
	if o.Algorithm == AlgorithmMultilevel {
		if _, _, err := multilevel.StrategyFor(o.Strategy); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidOption, err, "strategy")
		}
		if _, err := multilevel.ParseTuning(o.Tuning); err != nil {
			return err
		}
		if err := errors.ValidateRatio("min_shrink", o.MinShrink); err != nil {
			return err
		}
		if o.TargetSize < 1 {
			return errors.New(errors.ErrCodeInvalidOption, "target_size must be at least 1, got %d", o.TargetSize)
		}
	}
	return nil
}

// Timeout returns the run budget.
func (o *Options) Timeout() time.Duration {
	return time.Duration(o.TimeoutSeconds * float64(time.Second))
}

// IsMultilevel returns true if the multilevel algorithm is selected.
func (o *Options) IsMultilevel() bool {
	return o.Algorithm == "" || o.Algorithm == AlgorithmMultilevel
}

// SyncConfig returns the space-time sampling configuration.
func (o *Options) SyncConfig() spacetime.Config {
	cfg := spacetime.Config{Origin: o.Origin, Tick: o.Tick}
	if o.Sampling == SamplingDiscrete {
		cfg.Mode = spacetime.Discrete
	}
	return cfg
}

// LayoutKeyOpts returns cache key options for a layout run.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	k := cache.LayoutKeyOpts{
		Algorithm:  o.Algorithm,
		Sampling:   o.Sampling,
		Iterations: o.Iterations,
		EdgeLength: o.EdgeLength,
		Tau:        o.Tau,
		Seed:       o.Seed,
		Flexible:   o.Flexible,
	}
	if o.Sampling == SamplingDiscrete {
		k.Tick = o.Tick
	}
	if o.IsMultilevel() {
		k.Strategy = o.Strategy
		k.Tuning = o.Tuning
		k.Bends = o.Bends
	}
	return k
}

// =============================================================================
// Options Files
// =============================================================================

// LoadOptionsFile reads options from a .toml, .yaml, .yml or .json file.
// The result is not validated; flags may still override fields.
func LoadOptionsFile(path string) (Options, error) {
	var opts Options
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return opts, errors.Wrap(errors.ErrCodeFileNotFound, err, "read options %s", path)
		}
		return opts, errors.Wrap(errors.ErrCodeInternal, err, "read options %s", path)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		_, err = toml.Decode(string(data), &opts)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &opts)
	case ".json":
		err = json.Unmarshal(data, &opts)
	default:
		return opts, errors.New(errors.ErrCodeInvalidFormat, "unsupported options file type %q (want .toml, .yaml or .json)", ext)
	}
	if err != nil {
		return opts, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse options %s", path)
	}
	return opts, nil
}

package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	dynio "github.com/matzehuels/dynlayout/pkg/io"
	"github.com/matzehuels/dynlayout/pkg/multilevel"
	"github.com/matzehuels/dynlayout/pkg/pipeline"
)

// layoutCommand creates the layout command.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		output       string
		statsOutput  string
		configFile   string
		cacheBackend string
		showProgress bool
	)
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "layout [graph.json]",
		Short: "Compute a layout of a dynamic graph",
		Long: `Compute a layout of a dynamic graph.

The layout command reads a dynamic graph in JSON form, lays out its
space-time cube and writes the graph back with node positions and edge
bends over time. The output can be rendered at any time with 'snapshot'.

Options can be given as flags or in a TOML, YAML or JSON file passed with
--config; flags win over the file.

Results are cached by graph content and options.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if configFile != "" {
				file, err := pipeline.LoadOptionsFile(configFile)
				if err != nil {
					return err
				}
				mergeOptions(cmd.Flags(), &opts, file)
			}
			if output == "" {
				output = outputPath(args[0], ".layout.json")
			}
			return c.runLayout(cmd.Context(), args[0], output, statsOutput, cacheBackend, showProgress, opts)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.layout.json)")
	cmd.Flags().StringVar(&statsOutput, "stats", "", "write run statistics as JSON to this file")
	cmd.Flags().StringVarP(&configFile, "config", "c", "", "options file (.toml, .yaml or .json)")
	cmd.Flags().StringVar(&cacheBackend, "cache", cacheFile, "cache backend: file, memory, none or a redis:// URL")
	cmd.Flags().BoolVar(&showProgress, "progress", false, "show per-level progress")
	bindLayoutFlags(cmd.Flags(), &opts)

	return cmd
}

// bindLayoutFlags registers the pipeline options as flags. Zero defaults
// leave the choice to pipeline.Options.SetDefaults.
func bindLayoutFlags(fs *pflag.FlagSet, opts *pipeline.Options) {
	fs.StringVarP(&opts.Algorithm, "algorithm", "a", "", "layout algorithm: multilevel (default), single")
	fs.StringVar(&opts.Strategy, "strategy", "", "multilevel strategy: "+strings.Join(multilevel.Strategies(), ", "))
	fs.StringVar(&opts.Tuning, "tuning", "", "per-level movement budget: limited (default), no-limit")
	fs.BoolVar(&opts.Bends, "bends", false, "transfer edge bends between levels")
	fs.Float64Var(&opts.MinShrink, "min-shrink", 0, "stop coarsening when a level keeps more than this share of nodes")
	fs.IntVar(&opts.TargetSize, "target-size", 0, "stop coarsening at this many nodes")
	fs.IntVar(&opts.MaxDepth, "max-depth", 0, "maximum number of coarsening levels")

	fs.StringVar(&opts.Sampling, "sampling", "", "trajectory sampling: continuous (default), discrete")
	fs.Float64Var(&opts.Tick, "tick", 0, "sampling step for discrete sampling")
	fs.Float64Var(&opts.Origin, "origin", 0, "first sample time for discrete sampling")

	fs.IntVarP(&opts.Iterations, "iterations", "n", 0, "force-directed iterations per layout")
	fs.Float64Var(&opts.EdgeLength, "edge-length", 0, "desired edge length")
	fs.Float64Var(&opts.Tau, "tau", 0, "time-inertia constant (default: computed from the graph)")
	fs.StringVar(&opts.TauMode, "tau-mode", "", "presence used to compute tau: all (default), nodes, edges")
	fs.Float64Var(&opts.MaxMovement, "max-movement", 0, "initial cap on per-iteration movement")
	fs.Float64Var(&opts.Gravity, "gravity", 0, "pull towards the centre of mass")
	fs.Float64Var(&opts.Acceleration, "acceleration", 0, "cooling acceleration")
	fs.Float64Var(&opts.Nudge, "nudge", 0, "random displacement of coincident nodes")
	fs.Int64Var(&opts.Seed, "seed", 0, "random seed")
	fs.BoolVar(&opts.Flexible, "flexible", false, "use flexible time-edge lengths")

	fs.Float64Var(&opts.TimeoutSeconds, "timeout", 0, "run budget in seconds")
	fs.BoolVar(&opts.Refresh, "refresh", false, "ignore cached results")
}

// mergeOptions copies values from an options file into opts for every flag
// the user did not set.
func mergeOptions(fs *pflag.FlagSet, opts *pipeline.Options, file pipeline.Options) {
	fields := []struct {
		flag  string
		apply func()
	}{
		{"algorithm", func() { opts.Algorithm = file.Algorithm }},
		{"strategy", func() { opts.Strategy = file.Strategy }},
		{"tuning", func() { opts.Tuning = file.Tuning }},
		{"bends", func() { opts.Bends = file.Bends }},
		{"min-shrink", func() { opts.MinShrink = file.MinShrink }},
		{"target-size", func() { opts.TargetSize = file.TargetSize }},
		{"max-depth", func() { opts.MaxDepth = file.MaxDepth }},
		{"sampling", func() { opts.Sampling = file.Sampling }},
		{"tick", func() { opts.Tick = file.Tick }},
		{"origin", func() { opts.Origin = file.Origin }},
		{"iterations", func() { opts.Iterations = file.Iterations }},
		{"edge-length", func() { opts.EdgeLength = file.EdgeLength }},
		{"tau", func() { opts.Tau = file.Tau }},
		{"tau-mode", func() { opts.TauMode = file.TauMode }},
		{"max-movement", func() { opts.MaxMovement = file.MaxMovement }},
		{"gravity", func() { opts.Gravity = file.Gravity }},
		{"acceleration", func() { opts.Acceleration = file.Acceleration }},
		{"nudge", func() { opts.Nudge = file.Nudge }},
		{"seed", func() { opts.Seed = file.Seed }},
		{"flexible", func() { opts.Flexible = file.Flexible }},
		{"timeout", func() { opts.TimeoutSeconds = file.TimeoutSeconds }},
		{"refresh", func() { opts.Refresh = file.Refresh }},
	}
	for _, f := range fields {
		if !fs.Changed(f.flag) {
			f.apply()
		}
	}
}

// runLayout loads the graph, computes the layout, and writes output.
func (c *CLI) runLayout(ctx context.Context, input, output, statsOutput, backend string, showProgress bool, opts pipeline.Options) error {
	g, err := dynio.ImportDynamic(input)
	if err != nil {
		return fmt.Errorf("load graph %s: %w", input, err)
	}

	runner, err := c.newRunner(ctx, backend)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts.Logger = c.Logger

	var result *pipeline.Result
	if showProgress {
		result, err = runWithProgress(ctx, runner, g, opts)
	} else {
		spinner := newSpinnerWithContext(ctx, "Computing layout...")
		opts.OnLevel = func(info multilevel.LevelInfo) {
			if info.Level > 0 {
				spinner.SetMessage("Refining level %d of %d...", info.Level-1, info.Depth)
			}
		}
		spinner.Start()
		result, err = runner.Layout(ctx, g, opts)
		if err != nil {
			spinner.StopWithError("Layout failed")
		} else {
			spinner.Stop()
		}
	}
	if err != nil {
		return fmt.Errorf("compute layout: %w", err)
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	if err := dynio.ExportDynamic(result.Graph, output); err != nil {
		return fmt.Errorf("write output %s: %w", output, err)
	}
	if statsOutput != "" {
		if err := writeStats(result, statsOutput); err != nil {
			return err
		}
	}

	printSuccess("Layout complete")
	printFile(output)
	if statsOutput != "" {
		printFile(statsOutput)
	}
	printStats(g.NodeCount(), g.EdgeCount(), result.CacheHit)
	printKeyValue("tau", fmt.Sprintf("%.4g", result.Tau))
	printKeyValue("run", result.RunID)
	if result.Stats != nil && !result.CacheHit {
		printNewline()
		printRunStats(result.Stats)
	}
	printNewline()
	printNextStep("Render", appName+" snapshot --events "+output)

	return nil
}

func writeStats(result *pipeline.Result, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	if err := dynio.WriteStats(result.Stats, f); err != nil {
		return fmt.Errorf("write stats %s: %w", path, err)
	}
	return nil
}

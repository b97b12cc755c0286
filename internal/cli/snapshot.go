package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/dynlayout/pkg/errors"
	dynio "github.com/matzehuels/dynlayout/pkg/io"
	"github.com/matzehuels/dynlayout/pkg/pipeline"
	"github.com/matzehuels/dynlayout/pkg/render"
)

// snapshotCommand creates the snapshot command.
func (c *CLI) snapshotCommand() *cobra.Command {
	var (
		times        []float64
		events       bool
		outDir       string
		cacheBackend string
		opts         pipeline.SnapshotOptions
	)

	cmd := &cobra.Command{
		Use:   "snapshot [layout.json]",
		Short: "Render a laid-out dynamic graph at given times",
		Long: `Render a laid-out dynamic graph at given times.

Each requested time produces one file named <input>.t<time>.<format> in the
output directory. Use --events to render at every time a node or edge
appears or disappears.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(times) == 0 && !events {
				return errors.New(errors.ErrCodeInvalidOption, "no times given (use --time or --events)")
			}
			if !slices.Contains(render.Formats, opts.Format) {
				return errors.New(errors.ErrCodeInvalidOption, "unsupported format %q (must be one of: %s)", opts.Format, strings.Join(render.Formats, ", "))
			}
			return c.runSnapshot(cmd.Context(), args[0], times, events, outDir, cacheBackend, opts)
		},
	}

	cmd.Flags().Float64SliceVarP(&times, "time", "t", nil, "times to render (comma-separated)")
	cmd.Flags().BoolVar(&events, "events", false, "render at every presence event")
	cmd.Flags().StringVarP(&outDir, "output-dir", "o", "", "output directory (default: next to the input)")
	cmd.Flags().StringVarP(&opts.Format, "format", "f", "svg", "output format: "+strings.Join(render.Formats, ", "))
	cmd.Flags().Float64Var(&opts.Scale, "scale", render.DefaultScale, "coordinate scale")
	cmd.Flags().BoolVar(&opts.Labels, "labels", false, "label nodes with their IDs")
	cmd.Flags().StringVar(&cacheBackend, "cache", cacheFile, "cache backend: file, memory, none or a redis:// URL")

	return cmd
}

// runSnapshot renders every requested time concurrently.
func (c *CLI) runSnapshot(ctx context.Context, input string, times []float64, events bool, outDir, backend string, opts pipeline.SnapshotOptions) error {
	sw := newStopwatch(c.Logger)

	g, err := dynio.ImportDynamic(input)
	if err != nil {
		return fmt.Errorf("load graph %s: %w", input, err)
	}
	if events {
		times = append(times, g.EventTimes()...)
	}
	slices.Sort(times)
	times = slices.Compact(times)

	runner, err := c.newRunner(ctx, backend)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	if outDir == "" {
		outDir = filepath.Dir(input)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	base := filepath.Base(outputPath(input, ""))

	paths := make([]string, len(times))
	var cached atomic.Int32
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(runtime.GOMAXPROCS(0))
	for i, t := range times {
		eg.Go(func() error {
			o := opts
			o.Time = t
			data, hit, err := runner.Snapshot(ctx, g, o)
			if err != nil {
				return err
			}
			if hit {
				cached.Add(1)
			}
			paths[i] = filepath.Join(outDir, snapshotName(base, t, opts.Format))
			return os.WriteFile(paths[i], data, 0o644)
		})
	}
	if err := eg.Wait(); err != nil {
		return fmt.Errorf("render snapshots: %w", err)
	}

	sw.done("rendered snapshots", "count", len(times), "format", opts.Format)
	printSuccess("Snapshots complete")
	for _, p := range paths {
		printFile(p)
	}
	printDetail("%d of %d from cache", cached.Load(), len(times))
	return nil
}

func snapshotName(base string, t float64, format string) string {
	return fmt.Sprintf("%s.t%s.%s", base, strconv.FormatFloat(t, 'g', -1, 64), format)
}

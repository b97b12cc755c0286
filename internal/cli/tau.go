package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/dynlayout/pkg/dyngraph"
	"github.com/matzehuels/dynlayout/pkg/errors"
	dynio "github.com/matzehuels/dynlayout/pkg/io"
)

// tauCommand creates the tau command, which reports the time-inertia
// constant a layout of the graph would use.
func (c *CLI) tauCommand() *cobra.Command {
	var mode string

	cmd := &cobra.Command{
		Use:   "tau [graph.json]",
		Short: "Compute the time-inertia constant of a dynamic graph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := dyngraph.ParseTauMode(mode)
			if err != nil {
				return errors.Wrap(errors.ErrCodeInvalidOption, err, "tau mode")
			}
			g, err := dynio.ImportDynamic(args[0])
			if err != nil {
				return fmt.Errorf("load graph %s: %w", args[0], err)
			}

			printKeyValue("nodes", fmt.Sprintf("%d", g.NodeCount()))
			printKeyValue("edges", fmt.Sprintf("%d", g.EdgeCount()))
			if span, ok := g.TimeSpan(); ok {
				printKeyValue("span", span.String())
			}
			printKeyValue("events", fmt.Sprintf("%d", len(g.EventTimes())))

			tau, ok := g.AutocomputeTau(m)
			if !ok {
				printWarning("No finite presence intervals; layouts use tau = 1")
				return nil
			}
			printKeyValue("tau", StyleNumber.Render(fmt.Sprintf("%.6g", tau)))
			return nil
		},
	}

	cmd.Flags().StringVar(&mode, "mode", "all", "presence to average: all, nodes, edges")
	return cmd
}

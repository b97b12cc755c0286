package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/dynlayout/pkg/buildinfo"
)

// RootCommand creates the root cobra command with all subcommands registered.
//
// Logging goes to the CLI's logger: info level by default, debug with
// --verbose (registered by main). Commands print their results to stdout
// and their progress to stderr.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "dynlayout lays out dynamic graphs in space and time",
		Long: `dynlayout computes layouts of dynamic graphs, whose nodes and edges appear
and disappear over time, by laying out their space-time cube with a
force-directed, optionally multilevel, algorithm.`,
		Version:      buildinfo.Get().Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.snapshotCommand())
	root.AddCommand(c.tauCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.completionCommand())

	return root
}

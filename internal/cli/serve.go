package cli

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/matzehuels/dynlayout/internal/server"
	"github.com/matzehuels/dynlayout/pkg/cache"
)

// serveCommand creates the serve command, which runs the HTTP service.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr         string
		cacheBackend string
		namespace    string
		maxBody      int64
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve layouts and snapshots over HTTP",
		Long: `Serve layouts and snapshots over HTTP.

Routes:
  POST /v1/layout    lay out a dynamic graph
  POST /v1/snapshot  render a dynamic graph at one time
  GET  /healthz      liveness
  GET  /metrics      Prometheus metrics

The server shuts down gracefully on SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			runner, err := c.newRunner(ctx, cacheBackend)
			if err != nil {
				return fmt.Errorf("initialize runner: %w", err)
			}
			defer runner.Close()
			if namespace != "" {
				runner.Keyer = cache.NewScopedKeyer(runner.Keyer, namespace+":")
			}

			srv := server.New(server.Config{
				Addr:         addr,
				Runner:       runner,
				Logger:       c.Logger,
				MaxBodyBytes: maxBody,
			})
			if err := srv.ListenAndServe(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", server.DefaultAddr, "listen address")
	cmd.Flags().StringVar(&cacheBackend, "cache", cacheMemory, "cache backend: file, memory, none or a redis:// URL")
	cmd.Flags().StringVar(&namespace, "namespace", "", "prefix for cache keys, for deployments sharing one Redis")
	cmd.Flags().Int64Var(&maxBody, "max-body", server.DefaultMaxBodyBytes, "maximum request body in bytes")

	return cmd
}

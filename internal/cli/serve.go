package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/causalog/internal/server"
)

// serveCommand starts the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the analysis API over HTTP",
		Long: `Start the HTTP API. Requests share the configured cache and session
store; the X-Tenant header scopes cache keys per client.

Stop with Ctrl-C; in-flight requests get a few seconds to finish.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			runner, err := c.newRunner(ctx, runnerOpts{store: true})
			if err != nil {
				return err
			}
			defer runner.Close()

			if addr == "" {
				addr = c.Config.Server.Addr
			}
			srv := server.New(runner, server.Options{
				Addr:       addr,
				Timeout:    c.Config.Server.Timeout.Duration,
				PathLimits: c.Config.PathLimits(),
				Logger:     loggerFromContext(ctx),
			})
			return srv.ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, "+server.DefaultAddr+")")
	return cmd
}

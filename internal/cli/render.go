package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/causalog/pkg/pipeline"
)

// renderCommand creates the render command for drawing the causal graph.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		flags         analysisFlags
		output        string
		format        string
		detailed      bool
		showRejected  bool
		hideRedundant bool
		root          string
		sessionID     string
	)

	cmd := &cobra.Command{
		Use:   "render [file]",
		Short: "Render the causal graph with the chain highlighted",
		Long: `Render the causal graph as SVG (via Graphviz) or DOT source. The
extracted chain is drawn in red; --show-rejected adds dashed edges for the
links that were dropped during construction. --root limits the drawing to
what one record caused and highlights the longest chain starting there.

Pass --session to render a previously saved analysis instead of a file.`,
		Example: `  causalog render incident.json
  causalog render incident.json --format dot -o - | dot -Tpng > incident.png
  causalog render --session 6f1c... --show-rejected
  causalog render incident.json --all-roots --root x1`,
		Args: func(cmd *cobra.Command, args []string) error {
			if sessionID != "" {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := pipeline.ValidateFormat(format); err != nil {
				return err
			}

			ctx := cmd.Context()
			runner, err := c.newRunner(ctx, runnerOpts{noCache: flags.noCache, store: sessionID != ""})
			if err != nil {
				return err
			}
			defer runner.Close()

			var (
				res  *pipeline.Result
				opts pipeline.Options
				name string
			)
			if sessionID != "" {
				sess, err := runner.LoadSession(ctx, sessionID)
				if err != nil {
					return err
				}
				if res, err = pipeline.FromSession(sess); err != nil {
					return err
				}
				opts.CacheTTL = c.Config.Cache.TTL.Duration
				opts.Refresh = flags.refresh
				name = "session-" + shortID(sess.ID)
			} else {
				nodes, err := c.loadNodes(args[0], flags.inputFormat)
				if err != nil {
					return err
				}
				opts = c.options(flags, sourceName(args[0]))
				opts.Nodes = nodes
				if res, err = runner.Analyze(ctx, opts); err != nil {
					return err
				}
				name = strings.TrimSuffix(sourceName(args[0]), filepath.Ext(args[0]))
			}

			opts.Format = format
			opts.Detailed = detailed
			opts.ShowRejected = showRejected
			opts.HideRedundant = hideRedundant
			opts.Root = root

			spin := newSpinnerWithContext(ctx, "Rendering "+format+"...")
			spin.Start()
			out, cached, err := runner.RenderWithCacheInfo(ctx, res, opts)
			spin.Stop()
			if err != nil {
				return err
			}

			if output == "-" {
				_, err := stdout.Write(out)
				return err
			}
			if output == "" {
				output = name + "." + format
			}
			if err := os.WriteFile(output, out, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}

			status := "Rendered"
			if cached {
				status = "Rendered (cached)"
			}
			printSuccess("%s %d records", status, res.Stats.NodeCount)
			printFile(output)
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file, - for stdout (default: <input>.<format>)")
	cmd.Flags().StringVar(&format, "format", pipeline.DefaultFormat, "output format: svg, dot")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "include level and timestamp in node labels")
	cmd.Flags().BoolVar(&showRejected, "show-rejected", false, "draw rejected links as dashed edges")
	cmd.Flags().BoolVar(&hideRedundant, "hide-redundant", false, "hide edges implied by longer paths")
	cmd.Flags().StringVar(&root, "root", "", "draw only the records reachable from this id")
	cmd.Flags().StringVar(&sessionID, "session", "", "render a saved session instead of a file")

	return cmd
}

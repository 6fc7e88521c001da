package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/causalog/pkg/dag"
	"github.com/matzehuels/causalog/pkg/dag/transform"
	errs "github.com/matzehuels/causalog/pkg/errors"
	logio "github.com/matzehuels/causalog/pkg/io"
)

// buildGraph loads a batch and builds its graph without extracting a context.
func (c *CLI) buildGraph(cmd *cobra.Command, path, inputFormat string) (*dag.Graph, error) {
	nodes, err := c.loadNodes(path, inputFormat)
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, errs.New(errs.ErrCodeEmptyGraph, "%s: no log records", path)
	}
	if err := logio.ValidateNodes(nodes); err != nil {
		return nil, err
	}
	runner, err := c.newRunner(cmd.Context(), runnerOpts{noCache: true})
	if err != nil {
		return nil, err
	}
	defer runner.Close()
	return runner.Build(cmd.Context(), nodes), nil
}

// orderCommand prints the topological order of a batch.
func (c *CLI) orderCommand() *cobra.Command {
	var (
		inputFormat string
		layers      bool
	)

	cmd := &cobra.Command{
		Use:   "order <file>",
		Short: "Print records in causal order",
		Long: `Print record ids so that every cause precedes its effects. The order is
deterministic for a given batch.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := c.buildGraph(cmd, args[0], inputFormat)
			if err != nil {
				return err
			}
			if layers {
				for i, layer := range transform.Layers(g) {
					fmt.Fprintf(stdout, "%s %s\n", StyleNumber.Render(fmt.Sprintf("%d:", i)), strings.Join(layer, " "))
				}
				return nil
			}
			for _, id := range g.TopologicalOrder() {
				fmt.Fprintln(stdout, id)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&inputFormat, "input", "", "input encoding: json, jsonl, yaml")
	cmd.Flags().BoolVar(&layers, "layers", false, "group ids by depth from the roots")
	return cmd
}

// rootsCommand prints the root cause candidates and final effects of a batch.
func (c *CLI) rootsCommand() *cobra.Command {
	var inputFormat string

	cmd := &cobra.Command{
		Use:   "roots <file>",
		Short: "Print the root, all roots and all leaves",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := c.buildGraph(cmd, args[0], inputFormat)
			if err != nil {
				return err
			}
			if root, ok := g.Root(); ok {
				printKeyValue("root", root)
			}
			printList("Roots", g.Roots())
			printList("Leaves", g.Leaves())
			return nil
		},
	}

	cmd.Flags().StringVar(&inputFormat, "input", "", "input encoding: json, jsonl, yaml")
	return cmd
}

// pathsCommand enumerates the causal paths between two records.
func (c *CLI) pathsCommand() *cobra.Command {
	var (
		inputFormat string
		maxLength   int
		maxPaths    int
	)

	cmd := &cobra.Command{
		Use:   "paths <file> <src> <dst>",
		Short: "List every causal path from one record to another",
		Long: `List every path from src to dst. Enumeration is bounded by --max-length
(nodes per path) and --max-paths; the defaults come from the [paths] section
of the config file. Zero means unlimited.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, dst := args[1], args[2]
			for _, id := range []string{src, dst} {
				if err := errs.ValidateNodeID(id); err != nil {
					return err
				}
			}

			g, err := c.buildGraph(cmd, args[0], inputFormat)
			if err != nil {
				return err
			}
			for _, id := range []string{src, dst} {
				if _, ok := g.Node(id); !ok {
					return errs.New(errs.ErrCodeNodeNotFound, "node %q not found", id)
				}
			}

			lim := c.Config.PathLimits()
			if cmd.Flags().Changed("max-length") {
				lim.MaxLength = maxLength
			}
			if cmd.Flags().Changed("max-paths") {
				lim.MaxPaths = maxPaths
			}
			if lim.MaxLength < 0 || lim.MaxPaths < 0 {
				return errs.New(errs.ErrCodeInvalidInput, "path limits must not be negative")
			}

			paths := g.AllPathsWithLimits(src, dst, lim)
			if len(paths) == 0 {
				printInfo("No path from %s to %s", src, dst)
				return nil
			}
			for _, p := range paths {
				fmt.Fprintln(stdout, strings.Join(p, " "+iconArrow+" "))
			}
			if lim.MaxPaths > 0 && len(paths) == lim.MaxPaths {
				printWarning("stopped at --max-paths=%d", lim.MaxPaths)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&inputFormat, "input", "", "input encoding: json, jsonl, yaml")
	cmd.Flags().IntVar(&maxLength, "max-length", 0, "maximum nodes per path (default from config)")
	cmd.Flags().IntVar(&maxPaths, "max-paths", 0, "maximum number of paths (default from config)")
	return cmd
}

// exportCommand writes the built graph, rejected links included, as JSON.
func (c *CLI) exportCommand() *cobra.Command {
	var (
		inputFormat string
		output      string
		reduce      bool
		component   string
	)

	cmd := &cobra.Command{
		Use:   "export <file>",
		Short: "Export the built graph as JSON",
		Long: `Write a JSON snapshot of the built graph: records, accepted edges,
rejected links with their reason, and roots. --reduce drops edges implied by
longer paths. --component keeps only the records reachable from one id.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if component != "" {
				if err := errs.ValidateNodeID(component); err != nil {
					return err
				}
			}
			g, err := c.buildGraph(cmd, args[0], inputFormat)
			if err != nil {
				return err
			}
			if component != "" {
				if _, ok := g.Node(component); !ok {
					return errs.New(errs.ErrCodeNodeNotFound, "node %q not found", component)
				}
				g = transform.Component(g, component)
			}
			if reduce {
				g = transform.Reduce(g)
			}
			if output == "" || output == "-" {
				return logio.WriteGraph(stdout, g)
			}
			if err := logio.ExportGraph(g, output); err != nil {
				return err
			}
			printSuccess("Exported %d records, %d edges", g.Size(), g.EdgeCount())
			printFile(output)
			return nil
		},
	}

	cmd.Flags().StringVar(&inputFormat, "input", "", "input encoding: json, jsonl, yaml")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().BoolVar(&reduce, "reduce", false, "apply transitive reduction")
	cmd.Flags().StringVar(&component, "component", "", "export only the records reachable from this id")
	return cmd
}

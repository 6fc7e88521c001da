package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/causalog/pkg/pipeline"
)

// Output formats of the analyze command.
const (
	outputText = "text"
	outputJSON = "json"
)

// analyzeResult is the JSON form of an analysis printed by "analyze -f json".
type analyzeResult struct {
	RootCause   string   `json:"root_cause"`
	CausalChain []string `json:"causal_chain"`
	Root        string   `json:"root"`
	Chain       []string `json:"chain"`
	Rejected    int      `json:"rejected"`
	SessionID   string   `json:"session_id,omitempty"`
}

// analyzeCommand creates the analyze command for extracting the causal context.
func (c *CLI) analyzeCommand() *cobra.Command {
	var (
		flags  analysisFlags
		save   bool
		output string
	)

	cmd := &cobra.Command{
		Use:   "analyze <file>",
		Short: "Extract the root cause and causal chain from a batch of log records",
		Long: `Build the causal graph from a batch of log records and print the root
cause together with the longest causal chain leading away from it.

Records are read from a JSON array, a {"nodes": [...]} document, JSON Lines
or YAML. Use "-" to read JSON from standard input.`,
		Example: `  # Analyze a batch
  causalog analyze incident.json

  # One chain per independent root, concatenated
  causalog analyze incident.jsonl --all-roots --merge concat

  # Machine-readable context, saved for later
  causalog analyze incident.json -f json --save`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if output != outputText && output != outputJSON {
				return fmt.Errorf("invalid output format %q: must be text or json", output)
			}
			return c.runAnalyze(cmd, args[0], flags, save, output)
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&save, "save", false, "store the analysis as a session")
	cmd.Flags().StringVarP(&output, "format", "f", outputText, "output format: text, json")

	return cmd
}

func (c *CLI) runAnalyze(cmd *cobra.Command, path string, flags analysisFlags, save bool, output string) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)

	nodes, err := c.loadNodes(path, flags.inputFormat)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, runnerOpts{noCache: flags.noCache, store: save})
	if err != nil {
		return err
	}
	defer runner.Close()

	opts := c.options(flags, sourceName(path))
	opts.Nodes = nodes
	opts.Save = save

	res, err := runner.Analyze(ctx, opts)
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Analyzed %d records", res.Stats.NodeCount))

	if output == outputJSON {
		return printAnalyzeJSON(res)
	}
	printAnalyzeText(res, path)
	return nil
}

func printAnalyzeJSON(res *pipeline.Result) error {
	out := analyzeResult{
		RootCause:   res.Context.RootCause,
		CausalChain: res.Context.CausalChain,
		Root:        res.Chain.Root,
		Chain:       res.Chain.IDs,
		Rejected:    res.Stats.RejectedCount,
	}
	if res.Session != nil {
		out.SessionID = res.Session.ID
	}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func printAnalyzeText(res *pipeline.Result, path string) {
	printContext(res.Context)
	printStats(res.Stats.NodeCount, res.Stats.EdgeCount, res.Stats.RejectedCount, res.CacheHit)

	if len(res.Contexts) > 1 {
		printNewline()
		printInfo("%d independent roots", len(res.Contexts))
		for _, c := range res.Contexts {
			printDetail("%s (%d messages)", c.RootCause, len(c.CausalChain))
		}
	}

	if rejected := res.Graph.Rejected(); len(rejected) > 0 {
		printNewline()
		printRejected(rejected)
	}

	printNewline()
	if res.Session != nil {
		printSuccess("Saved session %s", res.Session.ID)
		printNextStep("Browse it", fmt.Sprintf("%s browse --session %s", appName, res.Session.ID))
		return
	}
	printNextStep("Render", fmt.Sprintf("%s render %s", appName, path))
}

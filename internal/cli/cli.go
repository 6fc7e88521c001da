// Package cli implements the causalog command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/causalog/pkg/buildinfo"
	"github.com/matzehuels/causalog/pkg/cache"
	"github.com/matzehuels/causalog/pkg/config"
	"github.com/matzehuels/causalog/pkg/dag"
	errs "github.com/matzehuels/causalog/pkg/errors"
	logio "github.com/matzehuels/causalog/pkg/io"
	"github.com/matzehuels/causalog/pkg/observability"
	"github.com/matzehuels/causalog/pkg/pipeline"
	"github.com/matzehuels/causalog/pkg/session"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for display.
const appName = "causalog"

// skipConfig annotates commands that must run without a readable config
// file, such as "config init".
const skipConfig = "causalog/skip-config"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// Config is loaded before any subcommand runs.
	Config *config.Config

	configPath string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Config: config.Default(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Causalog reconstructs root causes from structured logs",
		Long: `Causalog builds a causal graph from structured log records whose
parents were linked by an upstream extractor, rejects links that would form
cycles or point at unknown records, and extracts the root cause together
with the longest causal chain leading away from it.`,
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Annotations[skipConfig] == "" {
				if err := c.loadConfig(); err != nil {
					return err
				}
			}
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default "+config.DefaultPath()+")")

	root.AddCommand(c.analyzeCommand())
	root.AddCommand(c.orderCommand())
	root.AddCommand(c.rootsCommand())
	root.AddCommand(c.pathsCommand())
	root.AddCommand(c.exportCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.browseCommand())
	root.AddCommand(c.sessionCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// loadConfig reads the config file and applies its log level unless
// --verbose already asked for debug output. Logging hooks are registered in
// debug mode so cache and store activity shows up in the log.
func (c *CLI) loadConfig() error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	c.Config = cfg

	if c.Logger.GetLevel() != log.DebugLevel {
		if lvl, err := log.ParseLevel(strings.ToLower(cfg.Log.Level)); err == nil {
			c.Logger.SetLevel(lvl)
		}
	}
	if c.Logger.GetLevel() == log.DebugLevel {
		hooks := newLogHooks(c.Logger)
		observability.SetAnalysisHooks(hooks)
		observability.SetCacheHooks(hooks)
		observability.SetStoreHooks(hooks)
		observability.SetHTTPHooks(hooks)
	}
	return nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// runnerOpts selects which backends a command needs.
type runnerOpts struct {
	noCache bool // use a NullCache
	store   bool // open the session store
}

// newRunner creates a pipeline runner for CLI use. The session store is only
// opened on request so that plain analyses never dial a remote database.
func (c *CLI) newRunner(ctx context.Context, opts runnerOpts) (*pipeline.Runner, error) {
	var (
		ch  cache.Cache = cache.NewNullCache()
		err error
	)
	if !opts.noCache {
		ch, err = cache.Open(ctx, c.Config.CacheOptions())
		if err != nil {
			c.Logger.Warn("cache unavailable, continuing without", "backend", c.Config.Cache.Backend, "error", err)
			ch = cache.NewNullCache()
		}
	}

	var store session.Store
	if opts.store {
		store, err = c.openStore(ctx)
		if err != nil {
			_ = ch.Close()
			return nil, err
		}
	}
	return pipeline.NewRunner(ch, nil, store, loggerFromContext(ctx)), nil
}

func (c *CLI) openStore(ctx context.Context) (session.Store, error) {
	store, err := session.Open(ctx, c.Config.StoreOptions())
	if err != nil {
		return nil, fmt.Errorf("open session store (%s): %w", c.Config.Store.Backend, err)
	}
	return store, nil
}

// =============================================================================
// Options Helpers
// =============================================================================

// analysisFlags are shared by every command that runs an analysis.
type analysisFlags struct {
	inputFormat string
	allRoots    bool
	merge       string
	noCache     bool
	refresh     bool
}

func (f *analysisFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.inputFormat, "input", "", "input encoding: json, jsonl, yaml (default: from file extension)")
	cmd.Flags().BoolVar(&f.allRoots, "all-roots", false, "extract one chain per independent root and merge them")
	cmd.Flags().StringVar(&f.merge, "merge", "longest", "merge strategy with --all-roots: longest, concat")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&f.refresh, "refresh", false, "ignore cached results")
}

// options builds pipeline options for the records read from source.
func (c *CLI) options(f analysisFlags, source string) pipeline.Options {
	return pipeline.Options{
		Source:     source,
		AllRoots:   f.allRoots,
		Merge:      f.merge,
		Refresh:    f.refresh,
		CacheTTL:   c.Config.Cache.TTL.Duration,
		SessionTTL: c.Config.Store.TTL.Duration,
	}
}

// cacheDir returns the configured file cache directory.
func (c *CLI) cacheDir() string {
	if c.Config.Cache.Dir != "" {
		return c.Config.Cache.Dir
	}
	return config.CacheDir()
}

// loadNodes reads a batch from path. The encoding comes from --input when
// set, otherwise from the file extension. "-" reads standard input.
func (c *CLI) loadNodes(path, inputFormat string) ([]dag.LogNode, error) {
	if path != "-" && inputFormat == "" {
		nodes, err := logio.ImportNodes(path)
		if err != nil {
			return nil, err
		}
		c.warnDuplicates(nodes)
		return nodes, nil
	}

	format := logio.FormatJSON
	if inputFormat != "" {
		f, err := logio.ParseFormat(inputFormat)
		if err != nil {
			return nil, err
		}
		format = f
	}

	var r io.Reader = stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, errs.Wrap(errs.ErrCodeNotFound, err, "open %s", path)
			}
			return nil, errs.Wrap(errs.ErrCodeInvalidInput, err, "open %s", path)
		}
		defer f.Close()
		r = f
	}
	nodes, err := logio.ReadNodes(r, format)
	if err != nil {
		return nil, err
	}
	c.warnDuplicates(nodes)
	return nodes, nil
}

func (c *CLI) warnDuplicates(nodes []dag.LogNode) {
	if dup := logio.Duplicates(nodes); len(dup) > 0 {
		c.Logger.Warn("duplicate record ids, the last occurrence wins", "ids", strings.Join(dup, ", "))
	}
}

// sourceName labels a batch for sessions and output file names.
func sourceName(path string) string {
	if path == "-" {
		return "stdin"
	}
	return filepath.Base(path)
}

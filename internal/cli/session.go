package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	errs "github.com/matzehuels/causalog/pkg/errors"
	"github.com/matzehuels/causalog/pkg/pipeline"
	"github.com/matzehuels/causalog/pkg/session"
)

// sessionCommand creates the session management command.
func (c *CLI) sessionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "session",
		Aliases: []string{"sessions"},
		Short:   "Manage saved analyses",
		Long: `Manage analyses stored with "analyze --save". The backend is selected
by the [store] section of the config file.`,
	}

	cmd.AddCommand(c.sessionListCommand())
	cmd.AddCommand(c.sessionShowCommand())
	cmd.AddCommand(c.sessionDeleteCommand())
	cmd.AddCommand(c.sessionCleanupCommand())
	cmd.AddCommand(c.sessionPingCommand())

	return cmd
}

// withStore opens the session store for the duration of fn.
func (c *CLI) withStore(ctx context.Context, fn func(session.Store) error) error {
	store, err := c.openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

func (c *CLI) sessionListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved sessions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			runner, err := c.newRunner(ctx, runnerOpts{noCache: true, store: true})
			if err != nil {
				return err
			}
			defer runner.Close()

			list, err := runner.ListSessions(ctx)
			if err != nil {
				return err
			}
			if len(list) == 0 {
				printInfo("No saved sessions")
				return nil
			}
			fmt.Fprintln(stdout, sessionTable(list))
			return nil
		},
	}
}

func sessionTable(list []session.Summary) string {
	rows := make([][]string, 0, len(list))
	for _, s := range list {
		rows = append(rows, []string{
			s.ID,
			s.CreatedAt.Local().Format(time.DateTime),
			s.Source,
			fmt.Sprint(s.Nodes),
			fmt.Sprint(s.Rejected),
			truncateText(s.RootCause, 48),
		})
	}
	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("ID", "Created", "Source", "Records", "Rejected", "Root cause").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if col == 5 {
				return lipgloss.NewStyle().Foreground(colorRed)
			}
			return lipgloss.NewStyle().Foreground(colorWhite)
		}).
		Render()
}

func (c *CLI) sessionShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print the context of a saved session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			runner, err := c.newRunner(ctx, runnerOpts{noCache: true, store: true})
			if err != nil {
				return err
			}
			defer runner.Close()

			sess, err := runner.LoadSession(ctx, args[0])
			if err != nil {
				return err
			}
			res, err := pipeline.FromSession(sess)
			if err != nil {
				return err
			}

			printKeyValue("session", sess.ID)
			printKeyValue("source", sess.Source)
			printKeyValue("created", sess.CreatedAt.Local().Format(time.DateTime))
			if !sess.ExpiresAt.IsZero() {
				printKeyValue("expires", sess.ExpiresAt.Local().Format(time.DateTime))
			}
			printNewline()
			if sess.Context != nil {
				printContext(sess.Context)
				printNewline()
			}
			printChainNodes(res.Graph, res.Chain.IDs)
			printStats(res.Stats.NodeCount, res.Stats.EdgeCount, res.Stats.RejectedCount, false)
			if len(sess.Rejected) > 0 {
				printNewline()
				printRejected(sess.Rejected)
			}
			return nil
		},
	}
}

func (c *CLI) sessionDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>...",
		Aliases: []string{"rm"},
		Short:   "Delete saved sessions",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, id := range args {
				if err := errs.ValidateSessionID(id); err != nil {
					return err
				}
			}
			ctx := cmd.Context()
			runner, err := c.newRunner(ctx, runnerOpts{noCache: true, store: true})
			if err != nil {
				return err
			}
			defer runner.Close()

			for _, id := range args {
				if err := runner.DeleteSession(ctx, id); err != nil {
					return err
				}
				printSuccess("Deleted %s", id)
			}
			return nil
		},
	}
}

func (c *CLI) sessionCleanupCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Remove expired sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd.Context(), func(store session.Store) error {
				n, err := store.Cleanup(cmd.Context())
				if err != nil {
					return errs.Wrap(errs.ErrCodeStorage, err, "cleanup sessions")
				}
				printSuccess("Removed %d expired session(s)", n)
				return nil
			})
		},
	}
}

func (c *CLI) sessionPingCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check that the session store is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd.Context(), func(store session.Store) error {
				p, ok := store.(session.Pinger)
				if !ok {
					printSuccess("%s store is local", c.Config.Store.Backend)
					return nil
				}
				ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
				defer cancel()
				if err := p.Ping(ctx); err != nil {
					return errs.Wrap(errs.ErrCodeStorage, err, "ping %s", c.Config.Store.Backend)
				}
				printSuccess("%s store is reachable", c.Config.Store.Backend)
				return nil
			})
		},
	}
}

// truncateText shortens s to n runes with an ellipsis.
func truncateText(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

package cli

import (
	"fmt"
	"slices"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/causalog/pkg/dag"
	"github.com/matzehuels/causalog/pkg/pipeline"
)

// List styles
var (
	listDimStyle    = lipgloss.NewStyle().Foreground(colorDim)
	detailKeyStyle  = lipgloss.NewStyle().Foreground(colorGray).Width(10)
	detailPaneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorDim).
			Padding(0, 1)
)

// browseCommand opens an interactive view of an analysis.
func (c *CLI) browseCommand() *cobra.Command {
	var (
		flags     analysisFlags
		sessionID string
	)

	cmd := &cobra.Command{
		Use:   "browse [file]",
		Short: "Explore an analysis interactively",
		Long: `Open a terminal view listing every record in causal order. Records on
the extracted chain are highlighted; the pane below shows the selected
record with its accepted parents and children.

Keys: ↑/↓ or j/k move, c toggles chain-only, q quits.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if sessionID != "" {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			runner, err := c.newRunner(ctx, runnerOpts{noCache: flags.noCache, store: sessionID != ""})
			if err != nil {
				return err
			}
			defer runner.Close()

			var res *pipeline.Result
			if sessionID != "" {
				sess, err := runner.LoadSession(ctx, sessionID)
				if err != nil {
					return err
				}
				if res, err = pipeline.FromSession(sess); err != nil {
					return err
				}
			} else {
				nodes, err := c.loadNodes(args[0], flags.inputFormat)
				if err != nil {
					return err
				}
				opts := c.options(flags, sourceName(args[0]))
				opts.Nodes = nodes
				if res, err = runner.Analyze(ctx, opts); err != nil {
					return err
				}
			}

			p := tea.NewProgram(NewChainModel(res), tea.WithContext(ctx), tea.WithAltScreen())
			_, err = p.Run()
			return err
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&sessionID, "session", "", "browse a saved session instead of a file")
	return cmd
}

// =============================================================================
// ChainModel - Interactive chain browser
// =============================================================================

// ChainModel is the bubbletea model for browsing an analyzed graph.
type ChainModel struct {
	Graph     *dag.Graph
	RootCause string
	Order     []string
	Chain     map[string]int // id -> position on the chain
	ChainOnly bool
	Cursor    int
	Height    int
	Offset    int
}

// NewChainModel creates a browser over res, listing records in causal order.
func NewChainModel(res *pipeline.Result) ChainModel {
	m := ChainModel{
		Graph:  res.Graph,
		Order:  res.Graph.TopologicalOrder(),
		Chain:  map[string]int{},
		Height: 15,
	}
	if res.Context != nil {
		m.RootCause = res.Context.RootCause
	}
	if res.Chain != nil {
		m.Chain = dag.PosMap(res.Chain.IDs)
	}
	return m
}

// visible returns the ids currently listed.
func (m ChainModel) visible() []string {
	if !m.ChainOnly {
		return m.Order
	}
	ids := make([]string, 0, len(m.Chain))
	for _, id := range m.Order {
		if _, ok := m.Chain[id]; ok {
			ids = append(ids, id)
		}
	}
	return ids
}

// Selected returns the id under the cursor, or "" for an empty list.
func (m ChainModel) Selected() string {
	ids := m.visible()
	if m.Cursor < 0 || m.Cursor >= len(ids) {
		return ""
	}
	return ids[m.Cursor]
}

func (m ChainModel) Init() tea.Cmd {
	return nil
}

func (m ChainModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.visible())-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "c":
			selected := m.Selected()
			m.ChainOnly = !m.ChainOnly
			m.Cursor, m.Offset = 0, 0
			if i := slices.Index(m.visible(), selected); i >= 0 {
				m.Cursor = i
				if m.Cursor >= m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		}
	case tea.WindowSizeMsg:
		// Header, detail pane and footer take roughly twelve lines.
		m.Height = msg.Height - 12
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

func (m ChainModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Root cause: ") + StyleRootCause.Render(m.RootCause))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  c chain only  q quit"))
	b.WriteString("\n\n")

	ids := m.visible()
	end := min(m.Offset+m.Height, len(ids))

	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		id := ids[i]
		n, _ := m.Graph.Node(id)

		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		step := ""
		if pos, ok := m.Chain[id]; ok {
			step = fmt.Sprint(pos + 1)
		}
		rows = append(rows, []string{cursor, step, id, strings.ToUpper(n.Level), truncateText(n.Message, 60)})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "#", "Record", "Level", "Message").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			idx := m.Offset + row
			if idx >= len(ids) {
				return lipgloss.NewStyle()
			}
			_, onChain := m.Chain[ids[idx]]
			base := lipgloss.NewStyle()
			if idx == m.Cursor {
				base = base.Bold(true)
			}
			switch {
			case onChain && col == 1:
				return base.Foreground(colorCyan)
			case onChain:
				return base.Foreground(colorRed)
			case idx == m.Cursor:
				return base.Foreground(colorWhite)
			default:
				return base.Foreground(colorDim)
			}
		})

	b.WriteString(t.Render())
	b.WriteString("\n")
	b.WriteString(m.details())
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]  %d on chain", m.Cursor+1, len(ids), len(m.Chain))))

	return b.String()
}

// details renders the pane for the selected record.
func (m ChainModel) details() string {
	id := m.Selected()
	n, ok := m.Graph.Node(id)
	if !ok {
		return detailPaneStyle.Render(listDimStyle.Render("no records"))
	}

	line := func(k, v string) string {
		if v == "" {
			v = "-"
		}
		return detailKeyStyle.Render(k) + " " + StyleValue.Render(v)
	}
	lines := []string{
		line("id", n.ID),
		line("level", n.Level),
		line("time", n.Timestamp),
		line("message", n.Message),
		line("parents", strings.Join(m.Graph.Parents(id), ", ")),
		line("children", strings.Join(m.Graph.Children(id), ", ")),
	}
	if dropped := m.dropped(id); len(dropped) > 0 {
		lines = append(lines, detailKeyStyle.Render("rejected")+" "+StyleWarning.Render(strings.Join(dropped, ", ")))
	}
	return detailPaneStyle.Render(strings.Join(lines, "\n"))
}

// dropped lists the declared parents of id that were rejected, with reason.
func (m ChainModel) dropped(id string) []string {
	var out []string
	for _, r := range m.Graph.Rejected() {
		if r.To == id {
			out = append(out, fmt.Sprintf("%s (%s)", r.From, r.Reason))
		}
	}
	return out
}

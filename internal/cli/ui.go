package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/causalog/pkg/causal"
	"github.com/matzehuels/causalog/pkg/dag"
)

// stdout receives all user-facing output and stdin is read for "-"
// inputs. Tests replace both.
var (
	stdout io.Writer = os.Stdout
	stdin  io.Reader = os.Stdin
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - errors, root causes
	colorBlue   = lipgloss.Color("75")  // Light blue - commands
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Public Styles
// =============================================================================

var (
	// StyleTitle for main headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleRootCause for the root-cause line.
	StyleRootCause = lipgloss.NewStyle().Bold(true).Foreground(colorRed)

	// StyleDim for secondary/muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleNumber for numeric values.
	StyleNumber = lipgloss.NewStyle().Foreground(colorCyan)

	// StyleSuccess for success messages.
	StyleSuccess = lipgloss.NewStyle().Foreground(colorGreen)

	// StyleWarning for warning messages.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)
)

// =============================================================================
// Internal Styles
// =============================================================================

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleCached   = lipgloss.NewStyle().Foreground(colorGreen)
	styleComputed = lipgloss.NewStyle().Foreground(colorGray)

	styleCommand = lipgloss.NewStyle().Foreground(colorBlue)

	styleLevelError = lipgloss.NewStyle().Foreground(colorRed).Bold(true)
	styleLevelWarn  = lipgloss.NewStyle().Foreground(colorYellow)
	styleLevelOther = lipgloss.NewStyle().Foreground(colorGray)
)

// =============================================================================
// Icons
// =============================================================================

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
	iconCached  = "cached"
	iconFresh   = "fresh"
)

// =============================================================================
// Status Output
// =============================================================================

// printSuccess prints a success message.
func printSuccess(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(stdout, styleIconSuccess.Render(iconSuccess)+" "+msg)
}

// printError prints an error message.
func printError(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(stdout, styleIconError.Render(iconError)+" "+msg)
}

// printWarning prints a warning message.
func printWarning(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(stdout, styleIconWarning.Render(iconWarning)+" "+StyleWarning.Render(msg))
}

// printInfo prints an info/status message.
func printInfo(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(stdout, styleIconInfo.Render(iconInfo)+" "+msg)
}

// printDetail prints a detail line (indented).
func printDetail(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(stdout, "  "+StyleDim.Render(msg))
}

// printFile prints a file output line.
func printFile(path string) {
	fmt.Fprintln(stdout, "  "+StyleDim.Render(iconArrow)+" "+StyleValue.Render(path))
}

// printKeyValue prints a labeled value.
func printKeyValue(key, value string) {
	keyStyle := lipgloss.NewStyle().Foreground(colorGray).Width(12)
	fmt.Fprintln(stdout, keyStyle.Render(key)+" "+StyleValue.Render(value))
}

// printNextStep prints a suggested next command.
func printNextStep(description, cmd string) {
	fmt.Fprintln(stdout, StyleDim.Render(description+":")+" "+styleCommand.Render(cmd))
}

// printNewline prints an empty line.
func printNewline() {
	fmt.Fprintln(stdout)
}

// =============================================================================
// Analysis Output
// =============================================================================

// printStats prints graph statistics on a single line.
func printStats(nodes, edges, rejected int, cached bool) {
	parts := []string{
		fmt.Sprintf("%d records", nodes),
		fmt.Sprintf("%d edges", edges),
	}
	if rejected > 0 {
		parts = append(parts, fmt.Sprintf("%d rejected", rejected))
	}

	status := iconFresh
	statusStyle := styleComputed
	if cached {
		status = iconCached
		statusStyle = styleCached
	}

	var b strings.Builder
	b.WriteString("  ")
	for i, part := range parts {
		if i > 0 {
			b.WriteString(StyleDim.Render(" · "))
		}
		b.WriteString(StyleDim.Render(part))
	}
	b.WriteString(StyleDim.Render(" · ") + statusStyle.Render(status))
	fmt.Fprintln(stdout, b.String())
}

// printContext prints a root cause followed by its numbered chain.
func printContext(ctx *causal.Context) {
	fmt.Fprintln(stdout, StyleDim.Render("Root cause: ")+StyleRootCause.Render(ctx.RootCause))
	width := len(fmt.Sprint(len(ctx.CausalChain)))
	for i, msg := range ctx.CausalChain {
		num := fmt.Sprintf("%*d.", width, i+1)
		fmt.Fprintln(stdout, "  "+StyleNumber.Render(num)+" "+StyleValue.Render(msg))
	}
}

// printChainNodes prints the chain by id with level and message.
func printChainNodes(g *dag.Graph, ids []string) {
	for i, id := range ids {
		n, ok := g.Node(id)
		if !ok {
			continue
		}
		prefix := "  "
		if i > 0 {
			prefix = "  " + StyleDim.Render(iconArrow) + " "
		}
		fmt.Fprintln(stdout, prefix+StyleValue.Render(id)+" "+levelBadge(n.Level)+" "+StyleDim.Render(n.Message))
	}
}

// printRejected lists rejected edges with their reason.
func printRejected(rejected []dag.RejectedEdge) {
	if len(rejected) == 0 {
		return
	}
	printWarning("%d declared parent link(s) rejected", len(rejected))
	for _, r := range rejected {
		printDetail("%s %s %s (%s)", r.From, iconArrow, r.To, r.Reason)
	}
}

// printList prints ids one per line.
func printList(title string, ids []string) {
	fmt.Fprintln(stdout, StyleTitle.Render(title)+" "+StyleDim.Render(fmt.Sprintf("(%d)", len(ids))))
	for _, id := range ids {
		fmt.Fprintln(stdout, "  "+StyleValue.Render(id))
	}
}

func levelBadge(level string) string {
	if level == "" {
		return ""
	}
	label := "[" + strings.ToUpper(level) + "]"
	switch strings.ToUpper(level) {
	case "ERROR", "FATAL", "CRITICAL":
		return styleLevelError.Render(label)
	case "WARN", "WARNING":
		return styleLevelWarn.Render(label)
	default:
		return styleLevelOther.Render(label)
	}
}

// shortID abbreviates a session id for display and file names.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

package cli

import (
	"github.com/spf13/cobra"
)

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for causalog.

To load completions:

Bash:
  $ source <(causalog completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ causalog completion bash > /etc/bash_completion.d/causalog
  # macOS:
  $ causalog completion bash > $(brew --prefix)/etc/bash_completion.d/causalog

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. You can execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ causalog completion zsh > "${fpath[1]}/_causalog"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ causalog completion fish | source

  # To load completions for each session, execute once:
  $ causalog completion fish > ~/.config/fish/completions/causalog.fish

PowerShell:
  PS> causalog completion powershell | Out-String | Invoke-Expression

  # To load completions for every new session, run:
  PS> causalog completion powershell > causalog.ps1
  # and source this file from your PowerShell profile.
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(stdout)
			case "zsh":
				return cmd.Root().GenZshCompletion(stdout)
			case "fish":
				return cmd.Root().GenFishCompletion(stdout, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(stdout)
			}
			return nil
		},
	}

	return cmd
}

package commands

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/proboscis/claude-block-checker/internal/config"
	"github.com/proboscis/claude-block-checker/internal/logging"
	"github.com/proboscis/claude-block-checker/internal/output"
	"github.com/proboscis/claude-block-checker/internal/profiles"
)

// rootOptions holds the persistent flags shared by every command.
type rootOptions struct {
	json       bool
	detailed   bool
	profile    string
	configPath string
	logLevel   string
}

// load reads the configuration and builds the logger, applying --log-level.
func (o *rootOptions) load() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
		if err := cfg.Validate(); err != nil {
			return nil, zerolog.Nop(), err
		}
	}
	return cfg, logging.Setup(cfg.Logging), nil
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	o := &rootOptions{}

	root := &cobra.Command{
		Use:   "claude-block-checker",
		Short: "Check Claude usage blocks across profiles",
		Long: `Reconstruct the 5-hour Claude billing blocks of every profile under the
profiles directory, estimate how long each active block lasts before the
token limit, and recommend the profile with the most headroom.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			output.JSONMode = o.json
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd.Context(), o, o.profile)
		},
	}

	flags := root.PersistentFlags()
	flags.BoolVarP(&o.json, "json", "j", false, "Output in JSON format")
	flags.BoolVarP(&o.detailed, "detailed", "d", false, "Show burn rate, time to limit and projections")
	flags.StringVarP(&o.profile, "profile", "p", "", "Check a single profile")
	flags.StringVar(&o.configPath, "config", "", "Config file (default ~/.claude-block-checker/config.yaml)")
	flags.StringVar(&o.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	_ = root.RegisterFlagCompletionFunc("profile", completeProfileNames(o))
	_ = root.RegisterFlagCompletionFunc("log-level", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{"debug", "info", "warn", "error"}, cobra.ShellCompDirectiveNoFileComp
	})

	root.AddCommand(
		newCheckCmd(o),
		newListCmd(o),
		newWatchCmd(o),
		newServeCmd(o),
		newMCPCmd(o),
		newConfigCmd(o),
		newVersionCmd(),
		newCompletionCmd(),
	)
	return root
}

// completeProfileNames provides dynamic completion for profile names
func completeProfileNames(o *rootOptions) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if len(args) > 0 {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		cfg, err := config.Load(o.configPath)
		if err != nil {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		all, err := profiles.Discover(cfg.ProfilesDir)
		if err != nil {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		return profiles.Names(all), cobra.ShellCompDirectiveNoFileComp
	}
}

// newCompletionCmd generates shell completion scripts
func newCompletionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion script",
		Long: `Generate shell completion script for the specified shell.

Usage examples:
  # Bash
  source <(claude-block-checker completion bash)

  # Zsh
  source <(claude-block-checker completion zsh)

  # Fish
  claude-block-checker completion fish | source

  # PowerShell
  claude-block-checker completion powershell | Out-String | Invoke-Expression`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletionV2(out, true)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
			return fmt.Errorf("unsupported shell: %s", args[0])
		},
	}
}

// Execute runs the command tree and exits non-zero on failure.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		output.PrintError(err)
	}
}

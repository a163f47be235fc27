package commands

import (
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/proboscis/claude-block-checker/internal/app"
	mcpserver "github.com/proboscis/claude-block-checker/internal/mcp"
)

func newMCPCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Run an MCP server over stdio",
		Long: `Serve the list_profiles, check_blocks and recommend_profile tools over
stdio for MCP clients such as Claude Code:

  claude mcp add block-checker -- claude-block-checker mcp`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := o.load()
			if err != nil {
				return err
			}
			checker, err := app.NewChecker(cfg, nil, logger)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), shutdownSignals()...)
			defer stop()
			return mcpserver.RunServer(ctx, checker, Version)
		},
	}
}

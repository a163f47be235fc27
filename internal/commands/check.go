package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/proboscis/claude-block-checker/internal/app"
	"github.com/proboscis/claude-block-checker/internal/output"
	"github.com/proboscis/claude-block-checker/internal/report"
)

func newCheckCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:               "check [profile]",
		Short:             "Show the current block of every profile, or of one",
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: completeProfileNames(o),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := o.profile
			if len(args) == 1 {
				name = args[0]
			}
			return runCheck(cmd.Context(), o, name)
		},
	}
}

// runCheck analyses the named profile, or all profiles when name is empty,
// and prints the report.
func runCheck(ctx context.Context, o *rootOptions, name string) error {
	cfg, logger, err := o.load()
	if err != nil {
		return err
	}
	checker, err := app.NewChecker(cfg, nil, logger)
	if err != nil {
		return err
	}
	summary, err := checker.Check(ctx, name)
	if err != nil {
		return err
	}

	if output.JSONMode {
		output.PrintDocument(report.BuildExport(summary, o.detailed))
		return nil
	}
	return report.RenderText(output.Stdout, summary, report.Options{
		Detailed: o.detailed,
		Header:   name == "",
	})
}

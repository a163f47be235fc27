package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/proboscis/claude-block-checker/internal/app"
	"github.com/proboscis/claude-block-checker/internal/output"
	"github.com/proboscis/claude-block-checker/internal/profiles"
	"github.com/proboscis/claude-block-checker/internal/ui"
)

type listResult struct {
	ProfilesDir string             `json:"profiles_dir"`
	Profiles    []profiles.Profile `json:"profiles"`
}

func newListCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List the profiles in the profiles directory",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := o.load()
			if err != nil {
				return err
			}
			checker, err := app.NewChecker(cfg, nil, logger)
			if err != nil {
				return err
			}
			all, err := checker.Profiles()
			if err != nil {
				return err
			}
			output.Print(listResult{ProfilesDir: cfg.ProfilesDir, Profiles: all}, func() {
				if !o.detailed {
					for _, name := range profiles.Names(all) {
						fmt.Fprintln(output.Stdout, name)
					}
					return
				}
				ui.ShowHeader("Profiles in " + cfg.ProfilesDir)
				for i, p := range all {
					ui.ShowListItem(i+1, p.Name, p.Dir)
				}
			})
			return nil
		},
	}
}

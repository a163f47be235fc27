package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/proboscis/claude-block-checker/internal/config"
	"github.com/proboscis/claude-block-checker/internal/output"
	"github.com/proboscis/claude-block-checker/internal/ui"
)

func newConfigCmd(o *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "config",
		Aliases: []string{"c"},
		Short:   "Manage configuration",
		Long:    "Write a default config file or show the effective configuration",
	}
	cmd.AddCommand(newConfigInitCmd(o), newConfigShowCmd(o))
	return cmd
}

func newConfigInitCmd(o *rootOptions) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a commented default config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := o.configPath
			if path == "" {
				p, err := config.DefaultPath()
				if err != nil {
					return err
				}
				path = p
			}
			_, statErr := os.Stat(path)
			replaced := statErr == nil
			if err := config.WriteDefault(path, force); err != nil {
				return err
			}
			output.Print(map[string]any{"path": path, "replaced": replaced}, func() {
				if replaced {
					ui.ShowWarning("Replaced existing %s", path)
				}
				ui.ShowSuccess("Wrote %s", path)
				ui.ShowInfo("Any key can be overridden with a %s_ environment variable", config.EnvPrefix)
			})
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing file")
	return cmd
}

func newConfigShowCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Long:  "Print the configuration after defaults, the config file and CBC_ environment variables are applied",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := o.load()
			if err != nil {
				return err
			}
			data, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("encode config: %w", err)
			}
			output.Print(cfg, func() {
				fmt.Fprint(output.Stdout, string(data))
			})
			return nil
		},
	}
}

package commands

import (
	"context"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/proboscis/claude-block-checker/internal/app"
	"github.com/proboscis/claude-block-checker/internal/blocks"
	"github.com/proboscis/claude-block-checker/internal/output"
	"github.com/proboscis/claude-block-checker/internal/profiles"
	"github.com/proboscis/claude-block-checker/internal/report"
	"github.com/proboscis/claude-block-checker/internal/tui"
	"github.com/proboscis/claude-block-checker/internal/ui"
)

func newWatchCmd(o *rootOptions) *cobra.Command {
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Live dashboard of every profile's current block",
		Long: `Open a dashboard that refreshes whenever session logs change and on a
fixed interval. When stdout is not a terminal, or with --json, the report
is printed once per interval instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := o.load()
			if err != nil {
				return err
			}
			if interval > 0 {
				cfg.Watch.Interval = interval
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), shutdownSignals()...)
			defer stop()

			cache, err := profiles.NewFileCache(profiles.DefaultCacheSize)
			if err != nil {
				return err
			}
			checker, err := app.NewChecker(cfg, cache, logger)
			if err != nil {
				return err
			}
			refresh := func(ctx context.Context) (blocks.SummaryReport, error) {
				return checker.Check(ctx, o.profile)
			}

			if output.JSONMode || !isTerminal(os.Stdout) {
				return watchPlain(ctx, refresh, cfg.Watch.Interval, o.detailed)
			}

			var changes <-chan struct{}
			if w, err := profiles.NewWatcher(cfg.ProfilesDir, profiles.DefaultDebounce, logger); err != nil {
				logger.Warn().Err(err).Msg("file watching disabled")
			} else {
				go w.Run(ctx)
				changes = w.Changes()
			}
			return tui.Run(ctx, tui.Options{
				Refresh:    refresh,
				Changes:    changes,
				Interval:   cfg.Watch.Interval,
				TokenLimit: checker.Settings().TokenLimit,
				Detailed:   o.detailed,
			})
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", 0, "Refresh interval (default from config, 1m)")
	return cmd
}

// watchPlain prints a report every interval until ctx is cancelled. A
// failed refresh is reported and retried on the next tick.
func watchPlain(ctx context.Context, refresh tui.RefreshFunc, interval time.Duration, detailed bool) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		summary, err := refresh(ctx)
		switch {
		case ctx.Err() != nil:
			return nil
		case err != nil:
			ui.ShowError("Refresh failed", err)
		case output.JSONMode:
			output.PrintDocument(report.BuildExport(summary, detailed))
		default:
			if err := report.RenderText(output.Stdout, summary, report.Options{Detailed: detailed, Header: true}); err != nil {
				return err
			}
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

package commands

import (
	"context"
	"os/signal"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/proboscis/claude-block-checker/internal/app"
	"github.com/proboscis/claude-block-checker/internal/blocks"
	"github.com/proboscis/claude-block-checker/internal/config"
	"github.com/proboscis/claude-block-checker/internal/httpserver"
	mcpserver "github.com/proboscis/claude-block-checker/internal/mcp"
	"github.com/proboscis/claude-block-checker/internal/metrics"
	"github.com/proboscis/claude-block-checker/internal/profiles"
	"github.com/proboscis/claude-block-checker/internal/scheduler"
)

func newServeCmd(o *rootOptions) *cobra.Command {
	var listen, refresh string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve block summaries over HTTP, WebSocket, Prometheus and MCP",
		Long: `Keep the block summary of every profile up to date and expose it:

  GET /healthz              liveness and last refresh
  GET /api/summary          report JSON (?detailed=true for counts)
  GET /api/profiles/{name}  one profile
  GET /ws                   summary pushed on every refresh
  GET /metrics              Prometheus metrics
      /mcp                  MCP streamable HTTP transport

The summary is recomputed on the serve.refresh schedule, when session logs
change, and when an active block ends.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := o.load()
			if err != nil {
				return err
			}
			if listen != "" {
				cfg.Serve.Listen = listen
			}
			if refresh != "" {
				cfg.Serve.Refresh = refresh
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), shutdownSignals()...)
			defer stop()
			return runServe(ctx, cfg, serveLogger(o, cfg, logger))
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "Listen address (default from config, 127.0.0.1:9469)")
	cmd.Flags().StringVar(&refresh, "refresh", "", `Refresh schedule, cron or "@every 30s" (default from config)`)
	return cmd
}

// serveLogger uses info as the server's default level unless the user
// chose one.
func serveLogger(o *rootOptions, cfg *config.Config, logger zerolog.Logger) zerolog.Logger {
	if o.logLevel != "" || cfg.Logging.Level != config.Defaults().Logging.Level {
		return logger
	}
	return logger.Level(zerolog.InfoLevel)
}

func runServe(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	cache, err := profiles.NewFileCache(profiles.DefaultCacheSize)
	if err != nil {
		return err
	}
	checker, err := app.NewChecker(cfg, cache, logger)
	if err != nil {
		return err
	}
	monitor := app.NewMonitor(checker, logger)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewWithRegistry(reg, monitor)

	srv := httpserver.New(httpserver.Options{
		Source:   monitor,
		Gatherer: reg,
		MCP:      mcpserver.HTTPHandler(mcpserver.NewServer(checker, Version)),
		Version:  Version,
		Logger:   logger,
	})

	trigger := func(reason scheduler.Reason) {
		logger.Debug().Str("reason", string(reason)).Msg("refresh triggered")
		monitor.Refresh(ctx)
	}
	sched, err := scheduler.New(cfg.Serve.Refresh, trigger, logger)
	if err != nil {
		return err
	}

	monitor.OnRefresh(func(s blocks.SummaryReport, took time.Duration, err error) {
		m.ObserveRefresh(took, err)
		if err != nil {
			return
		}
		srv.Publish(s)
		sched.ExpireAt(app.ActiveBlockEnds(s), time.Now())
	})

	monitor.Refresh(ctx)

	if err := sched.Start(); err != nil {
		return err
	}
	defer sched.Stop()

	if w, err := profiles.NewWatcher(cfg.ProfilesDir, profiles.DefaultDebounce, logger); err != nil {
		logger.Warn().Err(err).Msg("file watching disabled")
	} else {
		go w.Run(ctx)
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case <-w.Changes():
					trigger(scheduler.ReasonFileEvent)
				}
			}
		}()
	}

	return srv.ListenAndServe(ctx, cfg.Serve.Listen)
}

package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"churchcal/internal/capture"
	appLog "churchcal/internal/log"
	"churchcal/internal/store"
	"churchcal/internal/web"
)

func addServe(topLevel *cobra.Command) {
	var (
		listen string
		debug  bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the calendar page and JSON API, refreshing events on a schedule.",
		Example: `
churchcal serve
churchcal serve --listen 127.0.0.1:9090 --debug
`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			rt, err := loadRuntime(configPath)
			if err != nil {
				return err
			}
			if listen != "" {
				rt.cfg.Listen = listen
			}
			if debug {
				appLog.SetLevel(appLog.LevelDebug)
			}

			appLog.Info("effective config",
				"listen", rt.cfg.Listen,
				"timezone", rt.cfg.Timezone,
				"week_start", rt.cfg.WeekStart,
				"default_view", rt.cfg.DefaultView,
				"refresh", rt.cfg.RefreshCron,
				"events_file", rt.cfg.EventsFile,
				"ics_count", len(rt.cfg.ICS),
				"capture", rt.cfg.Capture.Enabled,
			)

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			if err := rt.store.Refresh(ctx); err != nil {
				appLog.Warn("initial refresh incomplete", "err", err)
			}

			sched := store.NewScheduler()
			if err := sched.AddRefresh(ctx, rt.cfg.RefreshCron, rt.store); err != nil {
				return err
			}
			if rt.cfg.Capture.Enabled {
				opts := captureOptions(rt, "")
				if err := sched.Add(ctx, "capture", rt.cfg.Capture.Cron, func(ctx context.Context) error {
					return capture.Capture(ctx, opts)
				}); err != nil {
					return err
				}
			}
			sched.Start()
			defer sched.Stop()

			srv := web.NewServer(rt.cfg, rt.engine, rt.store, debug)
			err = srv.Run(ctx)
			appLog.Info("churchcal exiting")
			return err
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "HTTP listen address (overrides config if set)")
	cmd.Flags().BoolVar(&debug, "debug", os.Getenv("CHURCHCAL_DEBUG") != "", "Enable debug logging")

	topLevel.AddCommand(cmd)
}

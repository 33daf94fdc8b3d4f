package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/seyoungseyoung/GoldenEyeNavigator/internal/alerts"
	"github.com/seyoungseyoung/GoldenEyeNavigator/internal/server"
)

func newServeCmd(app *App) *cobra.Command {
	var (
		addr      string
		scheduler bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Long: `Serve the timing, subscription and advisor API, Prometheus metrics and a
health check.

When alerts are enabled in config.toml (or --scheduler is given) the daily
alert job also runs in-process on the configured cron schedule.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = app.Config.Server.Addr
			}

			timingSvc, err := app.timingService()
			if err != nil {
				return err
			}
			alertSvc, err := app.alertService(timingSvc)
			if err != nil {
				return err
			}

			if scheduler || app.Config.Alerts.Enabled {
				sched, err := alerts.NewScheduler(alertSvc, app.Config.Alerts.Schedule, app.Config.Alerts.Timezone, app.Logger)
				if err != nil {
					return err
				}
				sched.Start()
				defer func() {
					ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
					defer cancel()
					sched.Stop(ctx)
				}()
			}

			if app.Config.Server.CronSecret == "" {
				app.Logger.Warn().Msg("No cron secret configured, /api/cron is disabled")
			}

			adv, err := app.advisorService()
			if err != nil {
				return err
			}
			monitor, err := app.healthMonitor()
			if err != nil {
				return err
			}

			srv := server.New(timingSvc, alertSvc, server.Options{
				CronSecret: app.Config.Server.CronSecret,
				Metrics:    app.Metrics.Handler(),
				Version:    Version,
				Health:     monitor,
				Advisor:    adv,
			}, app.Logger).WithObserver(app.Metrics)

			return srv.Run(cmd.Context(), addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	cmd.Flags().BoolVar(&scheduler, "scheduler", false, "run the daily alert scheduler even if disabled in config")

	return cmd
}

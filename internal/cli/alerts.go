package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/seyoungseyoung/GoldenEyeNavigator/internal/alerts"
)

// addAlertCommands adds subscription and daily alert commands.
func addAlertCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newSubscribeCmd(app))
	rootCmd.AddCommand(newUnsubscribeCmd(app))
	rootCmd.AddCommand(newSubscriptionsCmd(app))
	rootCmd.AddCommand(newAlertsCmd(app))
}

func newSubscribeCmd(app *App) *cobra.Command {
	var style string

	cmd := &cobra.Command{
		Use:   "subscribe <email> <ticker>",
		Short: "Subscribe an email address to daily signals for a ticker",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			timingSvc, err := app.timingService()
			if err != nil {
				return err
			}
			svc, err := app.alertService(timingSvc)
			if err != nil {
				return err
			}

			sub, err := svc.Subscribe(cmd.Context(), args[0], args[1], style)
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(sub)
			}
			output.Success("✓ %s subscribed to %s", sub.Email, sub.Ticker)
			return nil
		},
	}

	cmd.Flags().StringVarP(&style, "style", "s", "", "trading style used for the daily analysis")
	return cmd
}

func newUnsubscribeCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "unsubscribe <email> <ticker>",
		Short: "Remove a subscription",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			svc, err := app.alertService(nil)
			if err != nil {
				return err
			}
			if err := svc.Unsubscribe(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(map[string]bool{"removed": true})
			}
			output.Success("✓ Unsubscribed")
			return nil
		},
	}
}

func newSubscriptionsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "subscriptions",
		Short: "List subscriptions",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			svc, err := app.alertService(nil)
			if err != nil {
				return err
			}
			subs, err := svc.List(cmd.Context())
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(subs)
			}
			if len(subs) == 0 {
				output.Dim("No subscriptions")
				return nil
			}
			table := NewTable(output, "EMAIL", "TICKER", "STYLE", "SINCE")
			for _, s := range subs {
				table.AddRow(s.Email, s.Ticker, s.TradingStyle, FormatDate(s.CreatedAt))
			}
			table.Render()
			return nil
		},
	}
}

func newAlertsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "alerts",
		Short: "Daily alert job",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "Analyse every subscribed ticker once and email the results",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			timingSvc, err := app.timingService()
			if err != nil {
				return err
			}
			svc, err := app.alertService(timingSvc)
			if err != nil {
				return err
			}

			report, err := svc.RunDaily(cmd.Context())
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(report)
			}
			printReport(output, report)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "next",
		Short: "Show the next scheduled run",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			sched, err := alerts.NewScheduler(nil, app.Config.Alerts.Schedule, app.Config.Alerts.Timezone, app.Logger)
			if err != nil {
				return err
			}
			next := sched.Next()
			if output.IsJSON() {
				return output.JSON(map[string]interface{}{
					"schedule": app.Config.Alerts.Schedule,
					"timezone": app.Config.Alerts.Timezone,
					"next":     next,
					"enabled":  app.Config.Alerts.Enabled,
				})
			}
			output.Printf("Next run: %s\n", next.Format("2006-01-02 15:04:05 MST"))
			if !app.Config.Alerts.Enabled {
				output.Warning("Alerts are disabled; 'navigator serve --scheduler' or alerts.enabled turns them on")
			}
			return nil
		},
	})

	return cmd
}

func printReport(output *Output, r alerts.Report) {
	output.Bold("Daily signal check")
	output.Printf("  Tickers: %d\n", r.Tickers)
	output.Printf("  Sent:    %s\n", output.Green(fmt.Sprint(r.Sent)))
	output.Printf("  Held:    %d\n", r.Held)
	if r.Failed > 0 {
		output.Printf("  Failed:  %s\n", output.Red(fmt.Sprint(r.Failed)))
	} else {
		output.Printf("  Failed:  0\n")
	}
	output.Printf("  Took:    %s\n", FormatDuration(r.Duration))

	if len(r.Errors) > 0 {
		output.Println()
		keys := make([]string, 0, len(r.Errors))
		for k := range r.Errors {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			output.Error("  %s: %s", k, r.Errors[k])
		}
	}
}

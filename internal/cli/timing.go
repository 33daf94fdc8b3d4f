package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/seyoungseyoung/GoldenEyeNavigator/internal/models"
	"github.com/seyoungseyoung/GoldenEyeNavigator/internal/timing"
)

func newTimingCmd(app *App) *cobra.Command {
	var (
		style   string
		resolve bool
		limit   int
	)

	cmd := &cobra.Command{
		Use:   "timing <ticker>",
		Short: "Model-selected indicators and a consolidated signal timeline",
		Long: `Fetch a year of daily prices, let the model pick three indicators for the
trading style, replay them and print the consolidated BUY/SELL timeline.

With --resolve the argument may be a company name; it is converted to a
ticker through the model when the price provider does not know it.`,
		Example: `  navigator timing AAPL
  navigator timing 005930.KS --style 장기투자
  navigator timing "Samsung Electronics" --resolve`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			svc, err := app.timingService()
			if err != nil {
				return err
			}

			query := strings.Join(args, " ")
			var analysis *timing.Analysis
			if resolve {
				analysis, err = svc.AnalyzeQuery(cmd.Context(), query, style)
			} else {
				analysis, err = svc.Analyze(cmd.Context(), query, style)
			}
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(analysis)
			}
			printAnalysis(output, analysis, limit)
			return nil
		},
	}

	cmd.Flags().StringVarP(&style, "style", "s", "", "trading style, e.g. 단기, 스윙, 장기")
	cmd.Flags().BoolVarP(&resolve, "resolve", "r", false, "resolve a company name to a ticker")
	cmd.Flags().IntVarP(&limit, "limit", "n", 15, "most recent timeline events to show (0 = all)")

	return cmd
}

func printAnalysis(output *Output, a *timing.Analysis, limit int) {
	latest, _ := a.PriceHistory.Latest()
	header := []string{
		fmt.Sprintf("Signal:  %s", output.Signal(a.FinalSignal)),
		fmt.Sprintf("Close:   %s (%s)", FormatPrice(latest.Close), FormatDate(latest.Date)),
		fmt.Sprintf("Change:  %s over the window, volume %s", FormatPercent(windowChange(a.PriceHistory)), FormatVolume(latest.Volume)),
		fmt.Sprintf("History: %d days, %d raw signals, %d after consolidation",
			len(a.PriceHistory), a.RawSignalCount, len(a.Timeline)),
	}
	if a.TradingStyle != "" {
		header = append(header, fmt.Sprintf("Style:   %s", a.TradingStyle))
	}
	output.Box(a.Ticker, header)
	output.Println()

	output.Bold("Recommended indicators")
	table := NewTable(output, "INDICATOR", "NAME", "PARAMS")
	for _, spec := range a.RecommendedIndicators {
		table.AddRow(string(spec.Name), spec.FullName, FormatParams(spec))
	}
	table.Render()
	output.Println()

	output.Bold("Signal timeline")
	events := a.Timeline
	if limit > 0 && len(events) > limit {
		output.Dim("Showing the last %d of %d events", limit, len(events))
		events = events[len(events)-limit:]
	}
	if len(events) == 0 {
		output.Dim("No signals in the window")
	} else {
		table = NewTable(output, "DATE", "SIDE", "CLOSE", "INDICATOR", "RATIONALE")
		for _, e := range events {
			table.AddRow(
				FormatDate(e.Date),
				output.Direction(e.Direction),
				FormatPrice(e.Close),
				string(e.Indicator),
				TruncateString(e.Rationale, 60),
			)
		}
		table.Render()
	}
	output.Println()

	output.Bold("Rationale")
	output.Println(a.Rationale)
}

// windowChange is the percent change from the first to the last close.
func windowChange(h models.PriceHistory) float64 {
	if len(h) < 2 || h[0].Close == 0 {
		return 0
	}
	return (h[len(h)-1].Close - h[0].Close) / h[0].Close * 100
}

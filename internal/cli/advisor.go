package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/seyoungseyoung/GoldenEyeNavigator/internal/advisor"
	apperrors "github.com/seyoungseyoung/GoldenEyeNavigator/internal/errors"
)

func addAdvisorCommands(root *cobra.Command, app *App) {
	root.AddCommand(newStrategyCmd(app))
	root.AddCommand(newAskCmd(app))
	root.AddCommand(newInsightCmd(app))
}

// profileFlag binds one survey answer. A number picks the answer by position.
type profileFlag struct {
	name    string
	usage   string
	choices []string
	dst     func(*advisor.Profile) *string
}

var profileFlags = []profileFlag{
	{"horizon", "time until retirement", advisor.RetirementHorizons, func(p *advisor.Profile) *string { return &p.RetirementHorizon }},
	{"income", "monthly income need", advisor.IncomeNeeds, func(p *advisor.Profile) *string { return &p.IncomeNeed }},
	{"assets", "total investable assets", advisor.AssetSizes, func(p *advisor.Profile) *string { return &p.AssetsSize }},
	{"tax", "tax sensitivity", advisor.TaxSensitivities, func(p *advisor.Profile) *string { return &p.TaxSensitivity }},
	{"theme", "preferred theme", advisor.ThemePreferences, func(p *advisor.Profile) *string { return &p.ThemePreference }},
	{"region", "preferred region", advisor.RegionPreferences, func(p *advisor.Profile) *string { return &p.RegionPreference }},
	{"management", "management style", advisor.ManagementStyles, func(p *advisor.Profile) *string { return &p.ManagementStyle }},
	{"risk", "risk tolerance", advisor.RiskTolerances, func(p *advisor.Profile) *string { return &p.RiskTolerance }},
}

func pickChoice(value string, choices []string) string {
	value = strings.TrimSpace(value)
	if i, err := strconv.Atoi(value); err == nil && i >= 1 && i <= len(choices) {
		return choices[i-1]
	}
	return value
}

func newStrategyCmd(app *App) *cobra.Command {
	var (
		profilePath string
		outPath     string
		name        string
		goals       string
		otherAssets string
	)
	answers := make([]string, len(profileFlags))

	cmd := &cobra.Command{
		Use:   "strategy",
		Short: "Draft a personalised investment strategy from survey answers",
		Long: `Send the investor survey to the model and print the drafted strategy: an
asset allocation summing to 100, 3 to 4 ETF or stock picks and a trading plan.

Answers come from --profile (a JSON file) and the flags below; flags win.
Each survey flag takes the Korean label or its 1-based position in the list.`,
		Example: `  navigator strategy --name 김투자 --horizon 4 --income 1 --assets 2 --tax 2 \
    --theme 2 --region 5 --management 2 --risk 4 --out strategy.json
  navigator strategy --profile profile.json --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			var profile advisor.Profile
			if profilePath != "" {
				if err := readJSONFile(profilePath, &profile); err != nil {
					return err
				}
			}
			if cmd.Flags().Changed("name") {
				profile.Name = name
			}
			if cmd.Flags().Changed("goals") {
				profile.RetirementGoals = goals
			}
			if cmd.Flags().Changed("other-assets") {
				profile.OtherAssets = otherAssets
			}
			for i, f := range profileFlags {
				if cmd.Flags().Changed(f.name) {
					*f.dst(&profile) = pickChoice(answers[i], f.choices)
				}
			}

			adv, err := app.advisorService()
			if err != nil {
				return err
			}
			strategy, err := adv.GenerateStrategy(cmd.Context(), profile)
			if err != nil {
				return err
			}

			if outPath != "" {
				data, err := json.MarshalIndent(strategy, "", "  ")
				if err != nil {
					return err
				}
				if err := os.WriteFile(outPath, append(data, '\n'), 0o644); err != nil {
					return fmt.Errorf("saving strategy: %w", err)
				}
			}
			if output.IsJSON() {
				return output.JSON(strategy)
			}
			printStrategy(output, strategy)
			if outPath != "" {
				output.Info("Strategy saved to %s; ask about it with --strategy %s", outPath, outPath)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&profilePath, "profile", "", "JSON file with the survey answers")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "save the strategy as JSON")
	cmd.Flags().StringVar(&name, "name", "", "investor name")
	cmd.Flags().StringVar(&goals, "goals", "", "retirement goals, free text")
	cmd.Flags().StringVar(&otherAssets, "other-assets", "", "other assets, free text")
	for i, f := range profileFlags {
		cmd.Flags().StringVar(&answers[i], f.name, "", choiceUsage(f.usage, f.choices))
	}
	return cmd
}

func choiceUsage(usage string, choices []string) string {
	numbered := make([]string, len(choices))
	for i, c := range choices {
		numbered[i] = fmt.Sprintf("%d=%s", i+1, c)
	}
	return usage + " (" + strings.Join(numbered, ", ") + ")"
}

func printStrategy(output *Output, s advisor.Strategy) {
	a := s.AssetAllocation
	output.Box(s.PortfolioName, []string{
		fmt.Sprintf("Stocks %s  Bonds %s  Cash %s", percent(a.Stocks), percent(a.Bonds), percent(a.Cash)),
	})
	output.Println()

	output.Bold("Recommendations")
	table := NewTable(output, "TICKER", "RATIONALE")
	for _, r := range s.Recommendations {
		table.AddRow(r.Ticker, r.Rationale)
	}
	table.Render()
	output.Println()

	output.Bold("Trading strategy")
	output.Println(s.TradingStrategy)
	output.Println()
	output.Bold("Why this strategy")
	output.Println(s.StrategyExplanation)
}

func percent(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + "%"
}

func newAskCmd(app *App) *cobra.Command {
	var strategyPath string

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask a financial question, optionally about a saved strategy",
		Example: `  navigator ask 분산 투자가 왜 중요한가요?
  navigator ask "내 채권 비중은 적절한가요?" --strategy strategy.json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			var strategy *advisor.Strategy
			if strategyPath != "" {
				strategy = &advisor.Strategy{}
				if err := readJSONFile(strategyPath, strategy); err != nil {
					return err
				}
			}

			adv, err := app.advisorService()
			if err != nil {
				return err
			}
			answer, err := adv.Ask(cmd.Context(), strings.Join(args, " "), strategy)
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(map[string]string{advisor.AnswerKey: answer})
			}
			if strategy != nil {
				output.Info("Based on %s", strategy.PortfolioName)
			}
			output.Println(answer)
			return nil
		},
	}

	cmd.Flags().StringVar(&strategyPath, "strategy", "", "strategy JSON saved by 'navigator strategy --out'")
	return cmd
}

func newInsightCmd(app *App) *cobra.Command {
	var newsPath string

	cmd := &cobra.Command{
		Use:   "insight [news]",
		Short: "Summarise market news and suggest actions",
		Example: `  navigator insight "연준이 기준금리를 동결했습니다."
  navigator insight --file news.txt`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			news := strings.Join(args, " ")
			if newsPath != "" {
				data, err := os.ReadFile(newsPath)
				if err != nil {
					return fmt.Errorf("reading news: %w", err)
				}
				news = string(data)
			}

			adv, err := app.advisorService()
			if err != nil {
				return err
			}
			insight, err := adv.AnalyzeMarket(cmd.Context(), news)
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(insight)
			}
			output.Bold("Market summary")
			output.Println(insight.MarketSummary)
			output.Println()
			output.Bold("Suggested actions")
			output.Println(insight.SuggestedActions)
			output.Println()
			output.Bold("Rationale")
			output.Println(insight.Rationale)
			return nil
		},
	}

	cmd.Flags().StringVarP(&newsPath, "file", "f", "", "read the news text from a file")
	return cmd
}

func readJSONFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return apperrors.NewValidationError("file", path, "invalid JSON: "+err.Error())
	}
	return nil
}

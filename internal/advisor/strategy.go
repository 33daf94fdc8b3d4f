package advisor

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	apperrors "github.com/seyoungseyoung/GoldenEyeNavigator/internal/errors"
	"github.com/seyoungseyoung/GoldenEyeNavigator/internal/llm"
)

// A final strategy recommends between MinRecommendations and MaxRecommendations holdings.
const (
	MinRecommendations = 3
	MaxRecommendations = 4
)

// Allocation splits the portfolio between stocks, bonds and cash, in percent.
type Allocation struct {
	Stocks float64 `json:"stocks"`
	Bonds  float64 `json:"bonds"`
	Cash   float64 `json:"cash"`
}

// Total is the sum of the three weights.
func (a Allocation) Total() float64 {
	return a.Stocks + a.Bonds + a.Cash
}

// Normalize rescales the weights to whole percentages summing to exactly 100.
// Cash absorbs the rounding. A zero total is left untouched.
func (a Allocation) Normalize() Allocation {
	total := a.Total()
	if total <= 0 || total == 100 {
		return a
	}
	stocks := math.Round(a.Stocks / total * 100)
	bonds := math.Round(a.Bonds / total * 100)
	return Allocation{Stocks: stocks, Bonds: bonds, Cash: 100 - stocks - bonds}
}

// Recommendation is one ETF or stock pick.
type Recommendation struct {
	Ticker    string `json:"ticker"`
	Rationale string `json:"rationale"`
}

// Strategy is a personalised investment strategy.
type Strategy struct {
	PortfolioName       string           `json:"portfolioName"`
	AssetAllocation     Allocation       `json:"assetAllocation"`
	Recommendations     []Recommendation `json:"etfStockRecommendations"`
	TradingStrategy     string           `json:"tradingStrategy"`
	StrategyExplanation string           `json:"strategyExplanation"`
}

// Final reports whether the strategy meets the delivered contract: a name,
// 3 to 4 recommendations and an allocation summing to 100.
func (s Strategy) Final() bool {
	n := len(s.Recommendations)
	return strings.TrimSpace(s.PortfolioName) != "" &&
		n >= MinRecommendations && n <= MaxRecommendations &&
		s.AssetAllocation.Total() == 100
}

// ParseStrategy converts a model answer into a Strategy. A draft may lack a
// portfolio name and carry any number of recommendations; a final strategy may not.
func ParseStrategy(obj llm.Object, final bool) (Strategy, error) {
	var (
		s          Strategy
		violations []apperrors.Violation
	)
	violate := func(field, format string, args ...any) {
		violations = append(violations, apperrors.Violation{Field: field, Message: fmt.Sprintf(format, args...)})
	}
	text := func(field string) string {
		v, ok := obj.String(field)
		if !ok || strings.TrimSpace(v) == "" {
			violate(field, "must be a non-empty string")
		}
		return strings.TrimSpace(v)
	}

	if name, ok := obj.String("portfolioName"); ok {
		s.PortfolioName = strings.TrimSpace(name)
	}
	if final && s.PortfolioName == "" {
		violate("portfolioName", "must be a non-empty string")
	}

	var alloc llm.Object
	if raw, ok := obj["assetAllocation"]; !ok {
		violate("assetAllocation", "missing")
	} else if err := json.Unmarshal(raw, &alloc); err != nil || alloc == nil {
		violate("assetAllocation", "must be an object")
	} else {
		for _, w := range []struct {
			key string
			dst *float64
		}{
			{"stocks", &s.AssetAllocation.Stocks},
			{"bonds", &s.AssetAllocation.Bonds},
			{"cash", &s.AssetAllocation.Cash},
		} {
			v, ok := alloc.Number(w.key)
			switch {
			case !ok:
				violate("assetAllocation."+w.key, "must be numeric")
			case v < 0 || v > 100:
				violate("assetAllocation."+w.key, "%v is outside 0-100", v)
			default:
				*w.dst = v
			}
		}
	}

	var entries []llm.Object
	if raw, ok := obj["etfStockRecommendations"]; !ok {
		violate("etfStockRecommendations", "missing")
	} else if err := json.Unmarshal(raw, &entries); err != nil || entries == nil {
		violate("etfStockRecommendations", "must be a list of objects")
	} else if final && (len(entries) < MinRecommendations || len(entries) > MaxRecommendations) {
		violate("etfStockRecommendations", "expected %d to %d entries, got %d", MinRecommendations, MaxRecommendations, len(entries))
	}
	for i, e := range entries {
		ticker, ok := e.String("ticker")
		if !ok || strings.TrimSpace(ticker) == "" {
			violate(fmt.Sprintf("etfStockRecommendations[%d].ticker", i), "must be a non-empty string")
			continue
		}
		rationale, _ := e.String("rationale")
		s.Recommendations = append(s.Recommendations, Recommendation{
			Ticker:    strings.ToUpper(strings.TrimSpace(ticker)),
			Rationale: strings.TrimSpace(rationale),
		})
	}

	s.TradingStrategy = text("tradingStrategy")
	s.StrategyExplanation = text("strategyExplanation")

	if final && len(violations) == 0 && s.AssetAllocation.Total() != 100 {
		violate("assetAllocation", "weights sum to %v, want 100", s.AssetAllocation.Total())
	}
	if len(violations) > 0 {
		source := "strategy_draft"
		if final {
			source = "strategy"
		}
		return Strategy{}, apperrors.NewSchemaError(source, violations)
	}
	return s, nil
}

// MarketInsight is the model's reading of user-supplied market news.
type MarketInsight struct {
	MarketSummary    string `json:"marketSummary"`
	SuggestedActions string `json:"suggestedActions"`
	Rationale        string `json:"rationale"`
}

func parseInsight(obj llm.Object) (MarketInsight, error) {
	var (
		insight    MarketInsight
		violations []apperrors.Violation
	)
	for _, f := range []struct {
		key string
		dst *string
	}{
		{"marketSummary", &insight.MarketSummary},
		{"suggestedActions", &insight.SuggestedActions},
		{"rationale", &insight.Rationale},
	} {
		v, ok := obj.String(f.key)
		if !ok || strings.TrimSpace(v) == "" {
			violations = append(violations, apperrors.Violation{Field: f.key, Message: "must be a non-empty string"})
			continue
		}
		*f.dst = strings.TrimSpace(v)
	}
	if len(violations) > 0 {
		return MarketInsight{}, apperrors.NewSchemaError("market_insight", violations)
	}
	return insight, nil
}

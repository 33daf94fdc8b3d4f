// Package selector asks the model to choose the technical indicators and the
// overall signal for a ticker, and validates the answer against the closed
// indicator set.
package selector

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	apperrors "github.com/seyoungseyoung/GoldenEyeNavigator/internal/errors"
	"github.com/seyoungseyoung/GoldenEyeNavigator/internal/llm"
	"github.com/seyoungseyoung/GoldenEyeNavigator/internal/models"
)

// RecentCloseCount is how many trailing closes are quoted to the model.
const RecentCloseCount = 30

// Invoker is the part of the LLM gateway the selector needs.
type Invoker interface {
	Invoke(ctx context.Context, conversation []llm.Message, systemPrompt, wrapKey string) (llm.Object, error)
}

// Selector chooses indicators for a ticker.
type Selector struct {
	invoker Invoker
	logger  zerolog.Logger
}

// New creates a selector over invoker.
func New(invoker Invoker, logger zerolog.Logger) *Selector {
	return &Selector{
		invoker: invoker,
		logger:  logger.With().Str("component", "selector").Logger(),
	}
}

// SelectIndicators returns exactly three validated indicators with parameters,
// the five-point final signal and the model's rationale. recentPrices may be nil
// when the history is fetched concurrently.
func (s *Selector) SelectIndicators(ctx context.Context, ticker, tradingStyle string, recentPrices models.PriceHistory) (models.RecommendedIndicatorSet, error) {
	ticker = strings.TrimSpace(ticker)
	if ticker == "" {
		return models.RecommendedIndicatorSet{}, apperrors.NewValidationError("ticker", ticker, "ticker is required")
	}

	conversation := []llm.Message{llm.UserMessage(userPrompt(ticker, tradingStyle, recentPrices))}
	obj, err := s.invoker.Invoke(ctx, conversation, selectionPrompt, "")
	if err != nil {
		return models.RecommendedIndicatorSet{}, fmt.Errorf("selecting indicators for %s: %w", ticker, err)
	}

	set, err := Validate(obj)
	if err != nil {
		s.logger.Warn().Err(err).Str("ticker", ticker).Str("raw", obj.JSON()).Msg("Indicator selection rejected")
		return models.RecommendedIndicatorSet{}, err
	}

	names := make([]string, len(set.Indicators))
	for i, spec := range set.Indicators {
		names[i] = string(spec.Name)
	}
	s.logger.Info().Str("ticker", ticker).Strs("indicators", names).
		Str("final_signal", string(set.FinalSignal)).Msg("Indicators selected")
	return set, nil
}

func userPrompt(ticker, tradingStyle string, recent models.PriceHistory) string {
	style := strings.TrimSpace(tradingStyle)
	if style == "" {
		style = "not specified"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Ticker: %s\nTrading style: %s\n", ticker, style)
	if len(recent) > 0 {
		tail := recent.Tail(RecentCloseCount)
		fmt.Fprintf(&b, "\nLast %d daily closes (oldest first):\n", len(tail))
		for _, p := range tail {
			fmt.Fprintf(&b, "%s %.2f\n", p.Day(), p.Close)
		}
	}
	return b.String()
}

// Validate checks a candidate answer and converts it into a RecommendedIndicatorSet.
// Every broken constraint is reported in a single SchemaError.
func Validate(obj llm.Object) (models.RecommendedIndicatorSet, error) {
	var (
		set        models.RecommendedIndicatorSet
		violations []apperrors.Violation
	)
	violate := func(field, format string, args ...any) {
		violations = append(violations, apperrors.Violation{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	var entries []json.RawMessage
	if raw, ok := obj["recommendedIndicators"]; !ok {
		violate("recommendedIndicators", "missing")
	} else if err := json.Unmarshal(raw, &entries); err != nil || entries == nil {
		violate("recommendedIndicators", "must be a list")
	} else if len(entries) != models.RequiredIndicatorCount {
		violate("recommendedIndicators", "expected exactly %d entries, got %d", models.RequiredIndicatorCount, len(entries))
	}

	seen := make(map[models.IndicatorName]bool)
	for i, entry := range entries {
		field := fmt.Sprintf("recommendedIndicators[%d]", i)
		spec, errs := parseSpec(field, entry)
		violations = append(violations, errs...)
		if len(errs) > 0 {
			continue
		}
		if seen[spec.Name] {
			violate(field+".name", "duplicate indicator %s", spec.Name)
			continue
		}
		seen[spec.Name] = true
		set.Indicators = append(set.Indicators, spec)
	}

	if raw, ok := obj.String("finalSignal"); !ok {
		violate("finalSignal", "missing or not a string")
	} else if sig, ok := models.ParseFinalSignal(raw); !ok {
		violate("finalSignal", "%q is not one of the five signal levels", raw)
	} else {
		set.FinalSignal = sig
	}

	if raw, ok := obj.String("rationale"); !ok || strings.TrimSpace(raw) == "" {
		violate("rationale", "must be a non-empty string")
	} else {
		set.Rationale = strings.TrimSpace(raw)
	}

	if len(violations) > 0 {
		return models.RecommendedIndicatorSet{}, apperrors.NewSchemaError("selector", violations)
	}
	return set, nil
}

func parseSpec(field string, entry json.RawMessage) (models.IndicatorSpec, []apperrors.Violation) {
	var violations []apperrors.Violation
	violate := func(f, format string, args ...any) {
		violations = append(violations, apperrors.Violation{Field: f, Message: fmt.Sprintf(format, args...)})
	}

	var obj llm.Object
	if err := json.Unmarshal(entry, &obj); err != nil || obj == nil {
		violate(field, "must be an object")
		return models.IndicatorSpec{}, violations
	}

	var spec models.IndicatorSpec
	if raw, ok := obj.String("name"); !ok {
		violate(field+".name", "missing or not a string")
	} else if name, ok := models.ParseIndicatorName(raw); !ok {
		violate(field+".name", "%q is not a supported indicator", raw)
	} else {
		spec.Name = name
	}

	spec.FullName, _ = obj.String("fullName")
	spec.FullName = strings.TrimSpace(spec.FullName)
	if spec.FullName == "" && spec.Name != "" {
		spec.FullName = spec.Name.Label()
	}

	rawParams, ok := obj["params"]
	var params map[string]json.RawMessage
	if !ok {
		violate(field+".params", "missing")
	} else if err := json.Unmarshal(rawParams, &params); err != nil || params == nil {
		violate(field+".params", "must be an object")
	} else {
		spec.Params = make(map[string]float64, len(params))
		keys := make([]string, 0, len(params))
		for k := range params {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			v, ok := llm.Number(params[k])
			if !ok {
				violate(field+".params."+k, "must be numeric")
				continue
			}
			spec.Params[k] = v
		}
	}

	return spec, violations
}

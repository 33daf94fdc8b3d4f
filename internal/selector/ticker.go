package selector

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	apperrors "github.com/seyoungseyoung/GoldenEyeNavigator/internal/errors"
	"github.com/seyoungseyoung/GoldenEyeNavigator/internal/llm"
)

// Resolution is the model's answer to a ticker lookup.
type Resolution struct {
	Success bool    `json:"success"`
	Ticker  *string `json:"ticker"`
	Reason  string  `json:"reason"`
}

// TickerResolver turns free-form company names into Yahoo Finance tickers.
type TickerResolver struct {
	invoker Invoker
	logger  zerolog.Logger
}

// NewTickerResolver creates a resolver over invoker.
func NewTickerResolver(invoker Invoker, logger zerolog.Logger) *TickerResolver {
	return &TickerResolver{
		invoker: invoker,
		logger:  logger.With().Str("component", "ticker_resolver").Logger(),
	}
}

// Resolve returns the ticker for query. A lookup the model declines is reported
// as ErrTickerNotFound carrying the model's reason.
func (r *TickerResolver) Resolve(ctx context.Context, query string) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", apperrors.NewValidationError("query", query, "query is required")
	}

	conversation := []llm.Message{
		llm.UserMessage(fmt.Sprintf("Convert the following user input into a stock ticker: %q", query)),
	}
	obj, err := r.invoker.Invoke(ctx, conversation, tickerPrompt, "")
	if err != nil {
		return "", fmt.Errorf("resolving ticker for %q: %w", query, err)
	}

	var res Resolution
	if err := obj.Decode(&res); err != nil {
		return "", apperrors.NewSchemaError("ticker_resolver", []apperrors.Violation{
			{Field: "success", Message: "answer does not match {success, ticker, reason}"},
		})
	}

	if !res.Success || res.Ticker == nil || strings.TrimSpace(*res.Ticker) == "" {
		reason := strings.TrimSpace(res.Reason)
		if reason == "" {
			reason = "no matching ticker"
		}
		r.logger.Info().Str("query", query).Str("reason", reason).Msg("Ticker not resolved")
		return "", apperrors.NewDataError("ticker", query, reason, apperrors.ErrTickerNotFound)
	}

	ticker := strings.ToUpper(strings.TrimSpace(*res.Ticker))
	r.logger.Debug().Str("query", query).Str("ticker", ticker).Msg("Ticker resolved")
	return ticker, nil
}

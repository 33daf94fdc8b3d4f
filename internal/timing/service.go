// Package timing runs the trading-timing pipeline for one ticker: price history
// and indicator selection, then signal computation and consolidation.
package timing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc"

	apperrors "github.com/seyoungseyoung/GoldenEyeNavigator/internal/errors"
	"github.com/seyoungseyoung/GoldenEyeNavigator/internal/marketdata"
	"github.com/seyoungseyoung/GoldenEyeNavigator/internal/models"
	"github.com/seyoungseyoung/GoldenEyeNavigator/internal/signals"
)

// IndicatorSelector picks the indicators for a ticker.
type IndicatorSelector interface {
	SelectIndicators(ctx context.Context, ticker, tradingStyle string, recentPrices models.PriceHistory) (models.RecommendedIndicatorSet, error)
}

// TickerResolver maps a free-form query to a ticker.
type TickerResolver interface {
	Resolve(ctx context.Context, query string) (string, error)
}

// Observer receives the outcome of every analysis.
type Observer interface {
	ObserveAnalysis(outcome string, duration time.Duration)
}

// Analysis is the result of one timing request.
type Analysis struct {
	Ticker                string                 `json:"ticker"`
	TradingStyle          string                 `json:"tradingStrategy,omitempty"`
	RecommendedIndicators []models.IndicatorSpec `json:"recommendedIndicators"`
	FinalSignal           models.FinalSignal     `json:"finalSignal"`
	FinalSignalLabel      string                 `json:"finalSignalLabel"`
	Rationale             string                 `json:"rationale"`
	PriceHistory          models.PriceHistory    `json:"historicalData"`
	Timeline              []models.SignalEvent   `json:"historicalSignals"`
	RawSignalCount        int                    `json:"rawSignalCount"`
	GeneratedAt           time.Time              `json:"generatedAt"`
}

// LatestClose returns the most recent close, or zero for an empty history.
func (a *Analysis) LatestClose() float64 {
	p, _ := a.PriceHistory.Latest()
	return p.Close
}

// Service wires the provider, selector and signal engine together.
type Service struct {
	prices   marketdata.Provider
	selector IndicatorSelector
	resolver TickerResolver
	engine   *signals.Engine
	logger   zerolog.Logger
	observer Observer
	now      func() time.Time
}

// NewService creates a timing service. resolver may be nil, in which case
// AnalyzeQuery only accepts tickers.
func NewService(prices marketdata.Provider, selector IndicatorSelector, resolver TickerResolver, engine *signals.Engine, logger zerolog.Logger) *Service {
	return &Service{
		prices:   prices,
		selector: selector,
		resolver: resolver,
		engine:   engine,
		logger:   logger.With().Str("component", "timing").Logger(),
		now:      time.Now,
	}
}

// WithObserver attaches an analysis observer.
func (s *Service) WithObserver(o Observer) *Service {
	s.observer = o
	return s
}

// Analyze fetches the price history and asks for indicators concurrently, then
// computes and consolidates the signal timeline. When both halves fail the
// price history error is returned.
func (s *Service) Analyze(ctx context.Context, ticker, tradingStyle string) (*Analysis, error) {
	start := time.Now()
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return nil, s.finish(start, apperrors.NewValidationError("ticker", ticker, "ticker is required"))
	}

	var (
		history          models.PriceHistory
		set              models.RecommendedIndicatorSet
		priceErr, selErr error
	)

	var wg conc.WaitGroup
	wg.Go(func() {
		history, priceErr = s.prices.Fetch(ctx, ticker)
	})
	wg.Go(func() {
		set, selErr = s.selector.SelectIndicators(ctx, ticker, tradingStyle, nil)
	})
	wg.Wait()

	if priceErr != nil {
		return nil, s.finish(start, fmt.Errorf("fetching prices for %s: %w", ticker, priceErr))
	}
	if selErr != nil {
		return nil, s.finish(start, selErr)
	}

	return s.build(start, ticker, tradingStyle, history, set), nil
}

// AnalyzeQuery accepts either a ticker or a company name. The query is first
// tried as a ticker; when the provider does not know it, the model resolves it
// and the history is fetched again. The selector then sees the recent closes.
func (s *Service) AnalyzeQuery(ctx context.Context, query, tradingStyle string) (*Analysis, error) {
	start := time.Now()
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, s.finish(start, apperrors.NewValidationError("query", query, "query is required"))
	}

	ticker := strings.ToUpper(query)
	history, err := s.prices.Fetch(ctx, ticker)
	if err != nil && s.resolver != nil && resolvable(err) {
		s.logger.Debug().Err(err).Str("query", query).Msg("Query is not a ticker, resolving")

		resolved, rerr := s.resolver.Resolve(ctx, query)
		if rerr != nil {
			return nil, s.finish(start, rerr)
		}
		ticker = resolved
		history, err = s.prices.Fetch(ctx, ticker)
	}
	if err != nil {
		return nil, s.finish(start, fmt.Errorf("fetching prices for %s: %w", ticker, err))
	}

	set, err := s.selector.SelectIndicators(ctx, ticker, tradingStyle, history)
	if err != nil {
		return nil, s.finish(start, err)
	}

	return s.build(start, ticker, tradingStyle, history, set), nil
}

func resolvable(err error) bool {
	switch apperrors.KindOf(err) {
	case apperrors.KindInvalidInstrument, apperrors.KindInvalidInput:
		return !errors.Is(err, apperrors.ErrEmptySeries)
	}
	return false
}

func (s *Service) build(start time.Time, ticker, tradingStyle string, history models.PriceHistory, set models.RecommendedIndicatorSet) *Analysis {
	raw := s.engine.Compute(history, set.Indicators)
	timeline := signals.AnnotateLatest(signals.Consolidate(raw), set.Rationale)

	s.logger.Info().
		Str("ticker", ticker).
		Int("points", len(history)).
		Int("raw_signals", len(raw)).
		Int("timeline", len(timeline)).
		Str("final_signal", string(set.FinalSignal)).
		Dur("duration", time.Since(start)).
		Msg("Timing analysis complete")
	s.finish(start, nil)

	return &Analysis{
		Ticker:                ticker,
		TradingStyle:          strings.TrimSpace(tradingStyle),
		RecommendedIndicators: set.Indicators,
		FinalSignal:           set.FinalSignal,
		FinalSignalLabel:      set.FinalSignal.Korean(),
		Rationale:             set.Rationale,
		PriceHistory:          history,
		Timeline:              timeline,
		RawSignalCount:        len(raw),
		GeneratedAt:           s.now().UTC(),
	}
}

func (s *Service) finish(start time.Time, err error) error {
	if s.observer != nil {
		outcome := "success"
		if err != nil {
			outcome = strings.ToLower(string(apperrors.KindOf(err)))
		}
		s.observer.ObserveAnalysis(outcome, time.Since(start))
	}
	if err != nil {
		s.logger.Warn().Err(err).Str("kind", string(apperrors.KindOf(err))).Msg("Timing analysis failed")
	}
	return err
}

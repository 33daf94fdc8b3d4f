// Package alerts manages daily signal subscriptions and the job that emails them.
package alerts

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/rs/zerolog"

	apperrors "github.com/seyoungseyoung/GoldenEyeNavigator/internal/errors"
	"github.com/seyoungseyoung/GoldenEyeNavigator/internal/logging"
	"github.com/seyoungseyoung/GoldenEyeNavigator/internal/models"
	"github.com/seyoungseyoung/GoldenEyeNavigator/internal/notify"
	"github.com/seyoungseyoung/GoldenEyeNavigator/internal/store"
	"github.com/seyoungseyoung/GoldenEyeNavigator/internal/timing"
)

// Analyzer runs the timing pipeline for a ticker.
type Analyzer interface {
	Analyze(ctx context.Context, ticker, tradingStyle string) (*timing.Analysis, error)
}

// Observer counts alert outcomes and completed runs.
type Observer interface {
	ObserveAlert(outcome string)
	ObserveAlertRun(d time.Duration)
}

// Report summarises one daily run.
type Report struct {
	Tickers  int               `json:"tickers"`
	Sent     int               `json:"sent"`
	Held     int               `json:"held"`
	Failed   int               `json:"failed"`
	Errors   map[string]string `json:"errors,omitempty"`
	Duration time.Duration     `json:"duration"`
}

// Service subscribes users and delivers their daily alerts.
type Service struct {
	store    store.SubscriptionStore
	analyzer Analyzer
	notifier notify.Notifier
	logger   zerolog.Logger
	observer Observer
	now      func() time.Time
}

// NewService creates an alert service.
func NewService(subs store.SubscriptionStore, analyzer Analyzer, notifier notify.Notifier, logger zerolog.Logger) *Service {
	return &Service{
		store:    subs,
		analyzer: analyzer,
		notifier: notifier,
		logger:   logger.With().Str("component", "alerts").Logger(),
		now:      time.Now,
	}
}

// WithObserver attaches an alert observer.
func (s *Service) WithObserver(o Observer) *Service {
	s.observer = o
	return s
}

// Subscribe analyses the ticker once to learn its indicators, stores the
// subscription and sends a welcome email listing them. A failed welcome email
// is logged; the subscription stays.
func (s *Service) Subscribe(ctx context.Context, email, ticker, tradingStyle string) (models.Subscription, error) {
	addr, err := ValidateEmail(email)
	if err != nil {
		return models.Subscription{}, err
	}
	ticker = store.NormalizeTicker(ticker)
	if ticker == "" {
		return models.Subscription{}, apperrors.NewValidationError("ticker", ticker, "ticker is required")
	}

	analysis, err := s.analyzer.Analyze(ctx, ticker, tradingStyle)
	if err != nil {
		return models.Subscription{}, fmt.Errorf("analysing %s for subscription: %w", ticker, err)
	}

	sub := models.Subscription{
		Email:        addr,
		Ticker:       analysis.Ticker,
		TradingStyle: strings.TrimSpace(tradingStyle),
		CreatedAt:    s.now().UTC(),
	}
	if err := s.store.Add(ctx, sub); err != nil {
		return models.Subscription{}, err
	}
	s.logger.Info().Str("email", logging.MaskEmail(addr)).Str("ticker", sub.Ticker).Msg("Subscribed")

	if err := s.notifier.SendWelcome(ctx, addr, sub.Ticker, analysis.RecommendedIndicators); err != nil {
		s.logger.Error().Err(err).Str("email", logging.MaskEmail(addr)).Str("ticker", sub.Ticker).Msg("Welcome email failed")
		s.observe("welcome_failed")
	} else {
		s.observe("welcome_sent")
	}
	return sub, nil
}

// Unsubscribe removes a subscription.
func (s *Service) Unsubscribe(ctx context.Context, email, ticker string) error {
	addr, err := ValidateEmail(email)
	if err != nil {
		return err
	}
	if err := s.store.Remove(ctx, addr, ticker); err != nil {
		return err
	}
	s.logger.Info().Str("email", logging.MaskEmail(addr)).Str("ticker", store.NormalizeTicker(ticker)).Msg("Unsubscribed")
	return nil
}

// List returns all subscriptions.
func (s *Service) List(ctx context.Context) ([]models.Subscription, error) {
	return s.store.List(ctx)
}

// RunDaily analyses every subscribed ticker once, using the trading style of
// its earliest subscriber, and emails all of its subscribers unless the signal
// is Hold. A failing ticker is logged and counted; the run continues.
func (s *Service) RunDaily(ctx context.Context) (Report, error) {
	start := time.Now()
	subs, err := s.store.List(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("listing subscriptions: %w", err)
	}

	groups, tickers := store.GroupByTicker(subs)
	report := Report{Tickers: len(tickers), Errors: map[string]string{}}
	s.logger.Info().Int("tickers", len(tickers)).Int("subscriptions", len(subs)).Msg("Running daily signal check")

	for _, ticker := range tickers {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		group := groups[ticker]
		log := s.logger.With().Str("ticker", ticker).Logger()

		analysis, err := s.analyzer.Analyze(ctx, ticker, group[0].TradingStyle)
		if err != nil {
			log.Error().Err(err).Str("kind", string(apperrors.KindOf(err))).Msg("Daily analysis failed")
			report.Failed++
			report.Errors[ticker] = err.Error()
			s.observe("analysis_failed")
			continue
		}

		if analysis.FinalSignal == models.Hold {
			log.Info().Msg("Signal is Hold, skipping email")
			report.Held++
			s.observe("held")
			continue
		}

		alert := alertFrom(analysis)
		for _, sub := range group {
			if err := s.notifier.SendSignal(ctx, sub.Email, alert); err != nil {
				log.Error().Err(err).Str("email", logging.MaskEmail(sub.Email)).Msg("Signal email failed")
				report.Failed++
				report.Errors[ticker+" "+sub.Email] = err.Error()
				s.observe("notify_failed")
				continue
			}
			report.Sent++
			s.observe("sent")
		}
	}

	if len(report.Errors) == 0 {
		report.Errors = nil
	}
	report.Duration = time.Since(start)
	if s.observer != nil {
		s.observer.ObserveAlertRun(report.Duration)
	}
	s.logger.Info().
		Int("sent", report.Sent).
		Int("held", report.Held).
		Int("failed", report.Failed).
		Dur("duration", report.Duration).
		Msg("Daily signal check finished")
	return report, nil
}

func alertFrom(a *timing.Analysis) models.SignalAlert {
	latest, _ := a.PriceHistory.Latest()
	return models.SignalAlert{
		Ticker:      a.Ticker,
		FinalSignal: a.FinalSignal,
		Indicators:  a.RecommendedIndicators,
		Rationale:   a.Rationale,
		LatestClose: latest.Close,
		AsOf:        latest.Date,
	}
}

func (s *Service) observe(outcome string) {
	if s.observer != nil {
		s.observer.ObserveAlert(outcome)
	}
}

// ValidateEmail returns the normalised bare address.
func ValidateEmail(email string) (string, error) {
	trimmed := strings.TrimSpace(email)
	addr, err := mail.ParseAddress(trimmed)
	if err != nil || addr.Address != trimmed || !strings.Contains(addr.Address[strings.LastIndex(addr.Address, "@")+1:], ".") {
		return "", apperrors.NewValidationError("email", email, "must be a valid email address")
	}
	return store.NormalizeEmail(addr.Address), nil
}

package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/seyoungseyoung/GoldenEyeNavigator/internal/advisor"
	"github.com/seyoungseyoung/GoldenEyeNavigator/internal/alerts"
	"github.com/seyoungseyoung/GoldenEyeNavigator/internal/llm"
	"github.com/seyoungseyoung/GoldenEyeNavigator/internal/marketdata"
	"github.com/seyoungseyoung/GoldenEyeNavigator/internal/notify"
	"github.com/seyoungseyoung/GoldenEyeNavigator/internal/resilience"
	"github.com/seyoungseyoung/GoldenEyeNavigator/internal/selector"
	"github.com/seyoungseyoung/GoldenEyeNavigator/internal/signals"
	"github.com/seyoungseyoung/GoldenEyeNavigator/internal/store"
	"github.com/seyoungseyoung/GoldenEyeNavigator/internal/timing"
)

// completer builds the model client for the configured provider. Missing
// credentials fail here, once, before any request is made.
func (a *App) completer() (llm.Completer, error) {
	if err := a.Config.RequireLLM(); err != nil {
		return nil, err
	}
	c := a.Config.LLM
	sampling := llm.Sampling{
		MaxTokens:     c.MaxTokens,
		Temperature:   c.Temperature,
		TopP:          c.TopP,
		TopK:          c.TopK,
		RepeatPenalty: c.RepeatPenalty,
	}

	switch c.Provider {
	case "clova":
		return llm.NewClovaCompleter(llm.ClovaConfig{
			BaseURL:   c.BaseURL,
			Model:     c.Model,
			APIKey:    a.Config.Credentials.Clova.APIKey,
			RequestID: a.Config.Credentials.Clova.RequestID,
			Sampling:  sampling,
			Timeout:   c.RequestTimeout,
		}), nil
	case "openai":
		return llm.NewOpenAICompleter(llm.OpenAIConfig{
			BaseURL:  c.BaseURL,
			Model:    c.Model,
			APIKey:   a.Config.Credentials.OpenAI.APIKey,
			Sampling: sampling,
		}), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", c.Provider)
	}
}

func (a *App) gateway() (*llm.Gateway, error) {
	completer, err := a.completer()
	if err != nil {
		return nil, err
	}
	opts := llm.Options{
		MaxAttempts: a.Config.LLM.MaxAttempts,
		RetryDelay:  a.Config.LLM.RetryDelay,
	}
	a.Logger.Debug().Str("provider", completer.Name()).Int("max_attempts", opts.MaxAttempts).Msg("Model gateway initialized")
	return llm.NewGateway(completer, opts, a.Logger).WithObserver(a.Metrics), nil
}

// priceProvider returns the configured price source. Yahoo sits behind a
// circuit breaker; the CSV source is local and is not guarded.
func (a *App) priceProvider() marketdata.Provider {
	if a.prices != nil {
		return a.prices
	}
	md := a.Config.MarketData
	if md.Provider == "csv" {
		a.prices = marketdata.NewCSVProvider(md.CSVDir, md.HistoryDays, a.Logger)
		return a.prices
	}
	yahoo := marketdata.NewYahooProvider(marketdata.YahooConfig{
		BaseURL: md.BaseURL,
		Limit:   md.HistoryDays,
		Timeout: md.Timeout,
	}, a.Logger)
	a.prices = marketdata.NewGuardedProvider(yahoo, resilience.DefaultBreakerConfig(), a.Logger)
	return a.prices
}

func (a *App) timingService() (*timing.Service, error) {
	gw, err := a.gateway()
	if err != nil {
		return nil, err
	}
	svc := timing.NewService(
		a.priceProvider(),
		selector.New(gw, a.Logger),
		selector.NewTickerResolver(gw, a.Logger),
		signals.NewEngine(a.Logger),
		a.Logger,
	)
	return svc.WithObserver(a.Metrics), nil
}

func (a *App) advisorService() (*advisor.Advisor, error) {
	gw, err := a.gateway()
	if err != nil {
		return nil, err
	}
	return advisor.New(gw, a.Logger), nil
}

func (a *App) subscriptionStore() (store.SubscriptionStore, error) {
	if a.subs != nil {
		return a.subs, nil
	}
	var (
		subs store.SubscriptionStore
		err  error
	)
	switch a.Config.Store.Driver {
	case "json":
		subs, err = store.NewJSONFileStore(a.Config.Store.Path)
	default:
		subs, err = store.NewSQLiteStore(a.Config.Store.Path)
	}
	if err != nil {
		return nil, fmt.Errorf("opening subscription store: %w", err)
	}
	a.subs = subs
	a.closers = append(a.closers, func() error {
		a.subs = nil
		return subs.Close()
	})
	a.Logger.Debug().Str("driver", a.Config.Store.Driver).Str("path", a.Config.Store.Path).Msg("Subscription store opened")
	return subs, nil
}

// notifier sends email when SMTP is configured and logs otherwise.
func (a *App) notifier() notify.Notifier {
	smtp := a.Config.Credentials.SMTP
	if !smtp.Configured() {
		a.Logger.Warn().Msg("SMTP not configured, alerts will only be logged")
		return notify.NewLogNotifier(a.Logger)
	}
	return notify.NewEmailNotifier(notify.EmailConfig{
		Host:     smtp.Host,
		Port:     smtp.Port,
		Username: smtp.Username,
		Password: smtp.Password,
		From:     smtp.From,
		SiteURL:  a.Config.Alerts.SiteURL,
	}, a.Logger)
}

// alertService wires the subscription flow. analyzer may be nil for commands
// that only read or delete subscriptions.
func (a *App) alertService(analyzer alerts.Analyzer) (*alerts.Service, error) {
	subs, err := a.subscriptionStore()
	if err != nil {
		return nil, err
	}
	return alerts.NewService(subs, analyzer, a.notifier(), a.Logger).WithObserver(a.Metrics), nil
}

// healthMonitor checks the subscription store and, when guarded, the price source.
func (a *App) healthMonitor() (*resilience.HealthMonitor, error) {
	subs, err := a.subscriptionStore()
	if err != nil {
		return nil, err
	}
	monitor := resilience.NewHealthMonitor(5 * time.Second)
	monitor.RegisterComponent("store", resilience.PingCheck(func(ctx context.Context) error {
		_, err := subs.List(ctx)
		return err
	}))
	if guarded, ok := a.priceProvider().(*marketdata.GuardedProvider); ok {
		monitor.RegisterComponent("market_data", guarded.Breaker().Check)
	}
	return monitor, nil
}

package marketdata

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	apperrors "github.com/seyoungseyoung/GoldenEyeNavigator/internal/errors"
	"github.com/seyoungseyoung/GoldenEyeNavigator/internal/models"
	"github.com/seyoungseyoung/GoldenEyeNavigator/internal/resilience"
)

// GuardedProvider fails fast while its upstream keeps failing. Unknown tickers
// and empty series do not count against the upstream.
type GuardedProvider struct {
	next    Provider
	breaker *resilience.Breaker
}

// NewGuardedProvider wraps next with a circuit breaker.
func NewGuardedProvider(next Provider, cfg resilience.BreakerConfig, logger zerolog.Logger) *GuardedProvider {
	cfg.Trips = upstreamFailure
	return &GuardedProvider{
		next:    next,
		breaker: resilience.NewBreaker(next.Name(), cfg, logger),
	}
}

func upstreamFailure(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	return errors.Is(err, apperrors.ErrFetchFailed) || errors.Is(err, apperrors.ErrUpstreamUnavailable)
}

// Name returns the wrapped provider's name.
func (g *GuardedProvider) Name() string { return g.next.Name() }

// Breaker exposes the breaker for health checks.
func (g *GuardedProvider) Breaker() *resilience.Breaker { return g.breaker }

// Fetch delegates to the wrapped provider unless the circuit is open.
func (g *GuardedProvider) Fetch(ctx context.Context, ticker string) (models.PriceHistory, error) {
	h, err := resilience.Call(ctx, g.breaker, func(ctx context.Context) (models.PriceHistory, error) {
		return g.next.Fetch(ctx, ticker)
	})
	if errors.Is(err, resilience.ErrCircuitOpen) {
		return nil, apperrors.NewDataError(g.next.Name(), ticker, "price source temporarily disabled", err)
	}
	return h, err
}

// Package marketdata fetches daily price histories for tickers.
package marketdata

import (
	"context"
	"math"
	"sort"
	"strings"

	apperrors "github.com/seyoungseyoung/GoldenEyeNavigator/internal/errors"
	"github.com/seyoungseyoung/GoldenEyeNavigator/internal/models"
)

// Provider returns the most recent daily bars for a ticker, oldest first.
type Provider interface {
	Name() string
	Fetch(ctx context.Context, ticker string) (models.PriceHistory, error)
}

func normalizeTicker(ticker string) (string, error) {
	t := strings.ToUpper(strings.TrimSpace(ticker))
	if t == "" {
		return "", apperrors.NewValidationError("ticker", ticker, "ticker is required")
	}
	if strings.ContainsAny(t, "/\\ \t\n") {
		return "", apperrors.NewValidationError("ticker", ticker, "ticker contains invalid characters")
	}
	return t, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// finish sorts by date, keeps the last bar of each day and trims to limit points.
func finish(h models.PriceHistory, limit int) models.PriceHistory {
	sort.SliceStable(h, func(i, j int) bool { return h[i].Date.Before(h[j].Date) })

	out := h[:0]
	for _, p := range h {
		if n := len(out); n > 0 && out[n-1].Day() == p.Day() {
			out[n-1] = p
			continue
		}
		out = append(out, p)
	}

	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out
}

func notFound(provider, ticker, message string) error {
	return apperrors.NewDataError(provider, ticker, message, apperrors.ErrTickerNotFound)
}

func emptySeries(provider, ticker string) error {
	return apperrors.NewDataError(provider, ticker, "no price data", apperrors.ErrEmptySeries)
}

func fetchFailed(provider, ticker, message string, err error) error {
	if err == nil {
		return apperrors.NewDataError(provider, ticker, message, apperrors.ErrFetchFailed)
	}
	return apperrors.NewDataError(provider, ticker, message, fetchError{err})
}

// fetchError marks a wrapped cause as a fetch failure while keeping it in the chain.
type fetchError struct{ err error }

func (e fetchError) Error() string        { return e.err.Error() }
func (e fetchError) Unwrap() error        { return e.err }
func (e fetchError) Is(target error) bool { return target == apperrors.ErrFetchFailed }

// Package notify delivers subscription emails.
package notify

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/seyoungseyoung/GoldenEyeNavigator/internal/logging"
	"github.com/seyoungseyoung/GoldenEyeNavigator/internal/models"
)

// Notifier defines the interface for sending subscriber notifications.
type Notifier interface {
	// SendWelcome confirms a new subscription and lists the indicators that will be used.
	SendWelcome(ctx context.Context, email, ticker string, indicators []models.IndicatorSpec) error
	// SendSignal delivers the daily signal digest for one ticker.
	SendSignal(ctx context.Context, email string, alert models.SignalAlert) error
}

// LogNotifier logs notifications instead of sending them. Used for dry runs
// and when SMTP is not configured.
type LogNotifier struct {
	logger zerolog.Logger
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier(logger zerolog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With().Str("component", "notify").Logger()}
}

func (n *LogNotifier) SendWelcome(_ context.Context, email, ticker string, indicators []models.IndicatorSpec) error {
	n.logger.Info().
		Str("to", logging.MaskEmail(email)).
		Str("ticker", ticker).
		Str("indicators", indicatorList(indicators)).
		Msg("Welcome notification (not sent)")
	return nil
}

func (n *LogNotifier) SendSignal(_ context.Context, email string, alert models.SignalAlert) error {
	n.logger.Info().
		Str("to", logging.MaskEmail(email)).
		Str("ticker", alert.Ticker).
		Str("signal", alert.FinalSignal.Korean()).
		Float64("close", alert.LatestClose).
		Msg("Signal notification (not sent)")
	return nil
}

func indicatorList(indicators []models.IndicatorSpec) string {
	names := make([]string, len(indicators))
	for i, ind := range indicators {
		names[i] = displayName(ind)
	}
	return strings.Join(names, ", ")
}

// displayName renders an indicator as "Full Name (NAME)".
func displayName(ind models.IndicatorSpec) string {
	full := ind.FullName
	if full == "" {
		full = ind.Name.Label()
	}
	if full == string(ind.Name) {
		return full
	}
	return full + " (" + string(ind.Name) + ")"
}

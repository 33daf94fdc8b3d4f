// Package signals turns model-chosen indicator specs into historical buy/sell events
// and consolidates them into a presentation-ready timeline.
package signals

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/seyoungseyoung/GoldenEyeNavigator/internal/analysis/indicators"
	"github.com/seyoungseyoung/GoldenEyeNavigator/internal/models"
)

// calculator emits the raw events of one indicator over a full history.
type calculator func(history models.PriceHistory, spec models.IndicatorSpec) ([]models.SignalEvent, error)

// Engine recomputes indicator signals deterministically over a price history.
type Engine struct {
	logger      zerolog.Logger
	calculators map[models.IndicatorName]calculator
}

// NewEngine creates an engine with the built-in RSI, MACD, Bollinger and Stochastic rules.
func NewEngine(logger zerolog.Logger) *Engine {
	return &Engine{
		logger: logger.With().Str("component", "signal_engine").Logger(),
		calculators: map[models.IndicatorName]calculator{
			models.IndicatorRSI:            rsiSignals,
			models.IndicatorMACD:           macdSignals,
			models.IndicatorBollingerBands: bollingerSignals,
			models.IndicatorStochastic:     stochasticSignals,
		},
	}
}

// Compute returns the concatenated, unsorted events of every spec. An indicator whose
// calculation fails (short history, invalid parameters) is logged and skipped.
func (e *Engine) Compute(history models.PriceHistory, specs []models.IndicatorSpec) []models.SignalEvent {
	var events []models.SignalEvent
	for _, spec := range specs {
		calc, ok := e.calculators[spec.Name]
		if !ok {
			e.logger.Warn().Str("indicator", string(spec.Name)).Msg("No calculator for indicator, skipping")
			continue
		}

		out, err := calc(history, spec)
		if err != nil {
			e.logger.Warn().
				Err(err).
				Str("indicator", string(spec.Name)).
				Interface("params", spec.Params).
				Int("points", len(history)).
				Msg("Indicator skipped")
			continue
		}

		e.logger.Debug().
			Str("indicator", string(spec.Name)).
			Int("events", len(out)).
			Msg("Indicator evaluated")
		events = append(events, out...)
	}
	return events
}

func event(history models.PriceHistory, i int, dir models.Direction, name models.IndicatorName, rationale string) models.SignalEvent {
	return models.SignalEvent{
		Date:      history[i].Date,
		Direction: dir,
		Rationale: rationale,
		Close:     history[i].Close,
		Indicator: name,
	}
}

func rsiSignals(history models.PriceHistory, spec models.IndicatorSpec) ([]models.SignalEvent, error) {
	period := spec.IntParam("period", 14)
	overbought := spec.Param("overbought", 70)
	oversold := spec.Param("oversold", 30)

	rsi, err := indicators.NewRSI(period).Calculate(history.Closes())
	if err != nil {
		return nil, fmt.Errorf("rsi(%d): %w", period, err)
	}
	return rsiEvents(history, rsi, overbought, oversold), nil
}

func rsiEvents(history models.PriceHistory, rsi indicators.Series, overbought, oversold float64) []models.SignalEvent {
	var out []models.SignalEvent
	for i := range history {
		v, ok := rsi.At(i)
		if !ok {
			continue
		}
		switch {
		case v < oversold:
			out = append(out, event(history, i, models.DirectionBuy, models.IndicatorRSI,
				fmt.Sprintf("RSI oversold: RSI (%.2f) fell below %g", v, oversold)))
		case v > overbought:
			out = append(out, event(history, i, models.DirectionSell, models.IndicatorRSI,
				fmt.Sprintf("RSI overbought: RSI (%.2f) rose above %g", v, overbought)))
		}
	}
	return out
}

func macdSignals(history models.PriceHistory, spec models.IndicatorSpec) ([]models.SignalEvent, error) {
	fast := spec.IntParam("fastPeriod", 12)
	slow := spec.IntParam("slowPeriod", 26)
	signal := spec.IntParam("signalPeriod", 9)

	res, err := indicators.NewMACD(fast, slow, signal).Calculate(history.Closes())
	if err != nil {
		return nil, fmt.Errorf("macd(%d,%d,%d): %w", fast, slow, signal, err)
	}
	return macdEvents(history, res.MACD, res.Signal), nil
}

// macdEvents evaluates crossovers only where both lines exist at both points.
func macdEvents(history models.PriceHistory, line, signal indicators.Series) []models.SignalEvent {
	var out []models.SignalEvent
	for i := 1; i < len(history); i++ {
		prevM, ok1 := line.At(i - 1)
		prevS, ok2 := signal.At(i - 1)
		currM, ok3 := line.At(i)
		currS, ok4 := signal.At(i)
		if !ok1 || !ok2 || !ok3 || !ok4 {
			continue
		}
		switch {
		case prevM < prevS && currM > currS:
			out = append(out, event(history, i, models.DirectionBuy, models.IndicatorMACD,
				"MACD golden cross: the MACD line crossed above the signal line"))
		case prevM > prevS && currM < currS:
			out = append(out, event(history, i, models.DirectionSell, models.IndicatorMACD,
				"MACD dead cross: the MACD line crossed below the signal line"))
		}
	}
	return out
}

func bollingerSignals(history models.PriceHistory, spec models.IndicatorSpec) ([]models.SignalEvent, error) {
	period := spec.IntParam("period", 20)
	mul := spec.Param("stdDev", 2)

	bands, err := indicators.NewBollingerBands(period, mul).Calculate(history.Closes())
	if err != nil {
		return nil, fmt.Errorf("bollinger(%d,%g): %w", period, mul, err)
	}

	var out []models.SignalEvent
	for i, p := range history {
		lower, ok := bands.Lower.At(i)
		if !ok {
			continue
		}
		upper, _ := bands.Upper.At(i)
		switch {
		case p.Close < lower:
			out = append(out, event(history, i, models.DirectionBuy, models.IndicatorBollingerBands,
				fmt.Sprintf("Close fell below the lower Bollinger Band (%.2f)", lower)))
		case p.Close > upper:
			out = append(out, event(history, i, models.DirectionSell, models.IndicatorBollingerBands,
				fmt.Sprintf("Close rose above the upper Bollinger Band (%.2f)", upper)))
		}
	}
	return out, nil
}

const (
	stochasticOversold   = 20
	stochasticOverbought = 80
)

func stochasticSignals(history models.PriceHistory, spec models.IndicatorSpec) ([]models.SignalEvent, error) {
	period := spec.IntParam("period", 14)
	signal := spec.IntParam("signalPeriod", 3)

	res, err := indicators.NewStochastic(period, signal).Calculate(history.Highs(), history.Lows(), history.Closes())
	if err != nil {
		return nil, fmt.Errorf("stochastic(%d,%d): %w", period, signal, err)
	}
	return stochasticEvents(history, res.K, res.D), nil
}

// stochasticEvents fires when both lines sat inside the oversold (overbought)
// zone on the previous bar and %K now closes above (below) %D.
func stochasticEvents(history models.PriceHistory, k, d indicators.Series) []models.SignalEvent {
	var out []models.SignalEvent
	for i := 1; i < len(history); i++ {
		prevK, ok1 := k.At(i - 1)
		prevD, ok2 := d.At(i - 1)
		currK, ok3 := k.At(i)
		currD, ok4 := d.At(i)
		if !ok1 || !ok2 || !ok3 || !ok4 {
			continue
		}
		switch {
		case prevK < stochasticOversold && prevD < stochasticOversold && currK > currD:
			out = append(out, event(history, i, models.DirectionBuy, models.IndicatorStochastic,
				"Stochastic %K crossed above %D in the oversold zone"))
		case prevK > stochasticOverbought && prevD > stochasticOverbought && currK < currD:
			out = append(out, event(history, i, models.DirectionSell, models.IndicatorStochastic,
				"Stochastic %K crossed below %D in the overbought zone"))
		}
	}
	return out
}

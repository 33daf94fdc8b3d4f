package indicators

import (
	"errors"
	"math"
	"slices"

	apperrors "github.com/seyoungseyoung/GoldenEyeNavigator/internal/errors"
)

var (
	// ErrInsufficientData is returned when the input is shorter than the indicator's warm-up.
	ErrInsufficientData = apperrors.ErrInsufficientData
	// ErrInvalidPeriod is returned for non-positive periods or multipliers.
	ErrInvalidPeriod = errors.New("invalid period")
)

// mean returns the arithmetic mean; NaN inputs propagate.
func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var total float64
	for _, v := range values {
		total += v
	}
	return total / float64(len(values))
}

// stdDev is the population standard deviation around m.
func stdDev(values []float64, m float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var ss float64
	for _, v := range values {
		ss += (v - m) * (v - m)
	}
	return math.Sqrt(ss / float64(len(values)))
}

// trailing returns the period values ending at index end.
func trailing(values []float64, end, period int) []float64 {
	return values[end-period+1 : end+1]
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// rangeOf returns the highest high and lowest low of a window.
func rangeOf(highs, lows []float64) (hi, lo float64) {
	return slices.Max(highs), slices.Min(lows)
}

package indicators

import (
	"fmt"
)

// BollingerResult holds the three bands, all sharing one offset.
type BollingerResult struct {
	Middle Series
	Upper  Series
	Lower  Series
}

// BollingerBands calculates Bollinger Bands.
type BollingerBands struct {
	period    int
	stdDevMul float64
}

// NewBollingerBands creates a new Bollinger Bands indicator.
func NewBollingerBands(period int, stdDevMul float64) *BollingerBands {
	return &BollingerBands{
		period:    period,
		stdDevMul: stdDevMul,
	}
}

func (b *BollingerBands) Name() string {
	return fmt.Sprintf("BollingerBands_%d_%.1f", b.period, b.stdDevMul)
}

func (b *BollingerBands) Period() int {
	return b.period - 1
}

// Calculate computes SMA bands at +/- stdDevMul population standard deviations.
func (b *BollingerBands) Calculate(closes []float64) (BollingerResult, error) {
	if b.period <= 0 || b.stdDevMul <= 0 {
		return BollingerResult{}, ErrInvalidPeriod
	}
	if len(closes) < b.period {
		return BollingerResult{}, ErrInsufficientData
	}

	n := len(closes) - b.period + 1
	middle := make([]float64, 0, n)
	upper := make([]float64, 0, n)
	lower := make([]float64, 0, n)

	for i := b.period - 1; i < len(closes); i++ {
		w := trailing(closes, i, b.period)
		sma := mean(w)
		width := b.stdDevMul * stdDev(w, sma)

		middle = append(middle, sma)
		upper = append(upper, sma+width)
		lower = append(lower, sma-width)
	}

	offset := b.Period()
	return BollingerResult{
		Middle: Series{Offset: offset, Values: middle},
		Upper:  Series{Offset: offset, Values: upper},
		Lower:  Series{Offset: offset, Values: lower},
	}, nil
}

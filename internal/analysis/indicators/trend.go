package indicators

import (
	"fmt"
)

// EMA calculates Exponential Moving Average.
type EMA struct {
	period int
}

// NewEMA creates a new EMA indicator.
func NewEMA(period int) *EMA {
	return &EMA{period: period}
}

func (e *EMA) Name() string {
	return fmt.Sprintf("EMA_%d", e.period)
}

func (e *EMA) Period() int {
	return e.period - 1
}

// Calculate computes the EMA seeded by the simple average of the first period values.
func (e *EMA) Calculate(values []float64) (Series, error) {
	if e.period <= 0 {
		return Series{}, ErrInvalidPeriod
	}
	if len(values) < e.period {
		return Series{}, ErrInsufficientData
	}
	return Series{Offset: e.period - 1, Values: CalculateEMA(values, e.period)}, nil
}

// CalculateEMA calculates EMA on raw values (helper for other indicators).
// The result holds len(values)-period+1 points, the first being the SMA seed.
func CalculateEMA(values []float64, period int) []float64 {
	if len(values) < period || period <= 0 {
		return nil
	}

	result := make([]float64, 0, len(values)-period+1)
	multiplier := 2.0 / float64(period+1)

	prev := mean(values[:period])
	result = append(result, prev)

	for i := period; i < len(values); i++ {
		prev = (values[i]-prev)*multiplier + prev
		result = append(result, prev)
	}

	return result
}

// MACDResult holds the MACD and signal lines.
type MACDResult struct {
	MACD   Series
	Signal Series
}

// Histogram returns MACD minus signal at input index i.
func (r MACDResult) Histogram(i int) (float64, bool) {
	m, ok := r.MACD.At(i)
	if !ok {
		return 0, false
	}
	s, ok := r.Signal.At(i)
	if !ok {
		return 0, false
	}
	return m - s, true
}

// MACD calculates Moving Average Convergence Divergence.
type MACD struct {
	fastPeriod   int
	slowPeriod   int
	signalPeriod int
}

// NewMACD creates a new MACD indicator.
func NewMACD(fast, slow, signal int) *MACD {
	return &MACD{
		fastPeriod:   fast,
		slowPeriod:   slow,
		signalPeriod: signal,
	}
}

func (m *MACD) Name() string {
	return fmt.Sprintf("MACD_%d_%d_%d", m.fastPeriod, m.slowPeriod, m.signalPeriod)
}

// Period returns the warm-up length of the signal line.
func (m *MACD) Period() int {
	return m.slowPeriod + m.signalPeriod - 2
}

// Calculate computes the MACD line (fast EMA minus slow EMA, defined from index
// slow-1) and its EMA signal line.
func (m *MACD) Calculate(closes []float64) (MACDResult, error) {
	if m.fastPeriod <= 0 || m.slowPeriod <= 0 || m.signalPeriod <= 0 {
		return MACDResult{}, ErrInvalidPeriod
	}
	if m.fastPeriod > m.slowPeriod {
		return MACDResult{}, fmt.Errorf("%w: fast period %d exceeds slow period %d", ErrInvalidPeriod, m.fastPeriod, m.slowPeriod)
	}
	if m.slowPeriod > len(closes) || m.signalPeriod > len(closes) || len(closes) < m.Period()+1 {
		return MACDResult{}, ErrInsufficientData
	}

	fastEMA := CalculateEMA(closes, m.fastPeriod)
	slowEMA := CalculateEMA(closes, m.slowPeriod)

	// fastEMA[j] belongs to input index fast-1+j; align it to the slow line.
	shift := m.slowPeriod - m.fastPeriod
	line := make([]float64, len(slowEMA))
	for j := range slowEMA {
		line[j] = fastEMA[j+shift] - slowEMA[j]
	}

	signal := CalculateEMA(line, m.signalPeriod)

	return MACDResult{
		MACD:   Series{Offset: m.slowPeriod - 1, Values: line},
		Signal: Series{Offset: m.Period(), Values: signal},
	}, nil
}

package indicators

import "fmt"

// RSI calculates the Relative Strength Index.
type RSI struct {
	period int
}

// NewRSI creates a new RSI indicator.
func NewRSI(period int) *RSI {
	return &RSI{period: period}
}

func (r *RSI) Name() string {
	return fmt.Sprintf("RSI_%d", r.period)
}

// Period returns the warm-up length: the first value belongs to input index period.
func (r *RSI) Period() int {
	return r.period
}

// Calculate computes the RSI over closing prices with Wilder smoothing seeded
// by a simple average. Values are rounded to two decimals.
func (r *RSI) Calculate(closes []float64) (Series, error) {
	if r.period <= 0 {
		return Series{}, ErrInvalidPeriod
	}
	if r.period >= len(closes) {
		return Series{}, ErrInsufficientData
	}

	n := len(closes)
	gains := make([]float64, n)
	losses := make([]float64, n)

	// Calculate gains and losses
	for i := 1; i < n; i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			gains[i] = change
		} else {
			losses[i] = -change
		}
	}

	values := make([]float64, 0, n-r.period)

	// First average using SMA
	avgGain := mean(gains[1 : r.period+1])
	avgLoss := mean(losses[1 : r.period+1])
	values = append(values, rsiValue(avgGain, avgLoss))

	// Subsequent values using Wilder smoothing
	for i := r.period + 1; i < n; i++ {
		avgGain = (avgGain*float64(r.period-1) + gains[i]) / float64(r.period)
		avgLoss = (avgLoss*float64(r.period-1) + losses[i]) / float64(r.period)
		values = append(values, rsiValue(avgGain, avgLoss))
	}

	return Series{Offset: r.period, Values: values}, nil
}

func rsiValue(avgGain, avgLoss float64) float64 {
	switch {
	case avgLoss == 0:
		return 100
	case avgGain == 0:
		return 0
	default:
		rs := avgGain / avgLoss
		return round2(100 - (100 / (1 + rs)))
	}
}

// StochasticResult holds the %K and %D lines.
type StochasticResult struct {
	K Series
	D Series
}

// Stochastic calculates the Stochastic Oscillator (%K and %D).
type Stochastic struct {
	period       int
	signalPeriod int
}

// NewStochastic creates a new Stochastic indicator.
func NewStochastic(period, signalPeriod int) *Stochastic {
	return &Stochastic{
		period:       period,
		signalPeriod: signalPeriod,
	}
}

func (s *Stochastic) Name() string {
	return fmt.Sprintf("Stochastic_%d_%d", s.period, s.signalPeriod)
}

// Period returns the warm-up length of the %D line.
func (s *Stochastic) Period() int {
	return s.period + s.signalPeriod - 2
}

// Calculate computes %K over the lookback window and %D as its simple average.
// A window whose high equals its low yields a %K of zero.
func (s *Stochastic) Calculate(highs, lows, closes []float64) (StochasticResult, error) {
	if s.period <= 0 || s.signalPeriod <= 0 {
		return StochasticResult{}, ErrInvalidPeriod
	}
	n := len(closes)
	if len(highs) != n || len(lows) != n {
		return StochasticResult{}, fmt.Errorf("stochastic: mismatched input lengths %d/%d/%d", len(highs), len(lows), n)
	}
	// Compare each period on its own first so huge values cannot wrap the sum.
	if s.period > n || s.signalPeriod > n || n < s.Period()+1 {
		return StochasticResult{}, ErrInsufficientData
	}

	k := make([]float64, 0, n-s.period+1)
	for i := s.period - 1; i < n; i++ {
		hi, lo := rangeOf(trailing(highs, i, s.period), trailing(lows, i, s.period))
		if hi == lo {
			k = append(k, 0)
			continue
		}
		k = append(k, 100*(closes[i]-lo)/(hi-lo))
	}

	// %D is the SMA of %K.
	d := make([]float64, 0, len(k)-s.signalPeriod+1)
	for j := s.signalPeriod - 1; j < len(k); j++ {
		d = append(d, mean(trailing(k, j, s.signalPeriod)))
	}

	return StochasticResult{
		K: Series{Offset: s.period - 1, Values: k},
		D: Series{Offset: s.Period(), Values: d},
	}, nil
}

package models

import (
	"math"
	"strings"
)

// IndicatorName is the closed set of indicators the model may choose from.
type IndicatorName string

const (
	IndicatorRSI            IndicatorName = "RSI"
	IndicatorMACD           IndicatorName = "MACD"
	IndicatorBollingerBands IndicatorName = "BollingerBands"
	IndicatorStochastic     IndicatorName = "Stochastic"
)

// AllIndicators lists the supported indicators in prompt order.
var AllIndicators = []IndicatorName{
	IndicatorRSI,
	IndicatorMACD,
	IndicatorBollingerBands,
	IndicatorStochastic,
}

var indicatorAliases = map[string]IndicatorName{
	"rsi":                                IndicatorRSI,
	"relativestrengthindex":              IndicatorRSI,
	"macd":                               IndicatorMACD,
	"movingaverageconvergencedivergence": IndicatorMACD,
	"bollingerbands":                     IndicatorBollingerBands,
	"bollingerband":                      IndicatorBollingerBands,
	"bollinger":                          IndicatorBollingerBands,
	"bb":                                 IndicatorBollingerBands,
	"stochastic":                         IndicatorStochastic,
	"stochasticoscillator":               IndicatorStochastic,
	"stoch":                              IndicatorStochastic,
}

// ParseIndicatorName maps a model-supplied label onto the closed set.
// Matching ignores case, spaces, underscores and hyphens.
func ParseIndicatorName(s string) (IndicatorName, bool) {
	key := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '_', '-', '.':
			return -1
		}
		return r
	}, strings.ToLower(strings.TrimSpace(s)))
	name, ok := indicatorAliases[key]
	return name, ok
}

// Label returns the human-readable name of the indicator.
func (n IndicatorName) Label() string {
	switch n {
	case IndicatorRSI:
		return "Relative Strength Index"
	case IndicatorMACD:
		return "Moving Average Convergence Divergence"
	case IndicatorBollingerBands:
		return "Bollinger Bands"
	case IndicatorStochastic:
		return "Stochastic Oscillator"
	default:
		return string(n)
	}
}

// DefaultParams returns the parameter defaults used when the model omits a field.
func (n IndicatorName) DefaultParams() map[string]float64 {
	switch n {
	case IndicatorRSI:
		return map[string]float64{"period": 14, "overbought": 70, "oversold": 30}
	case IndicatorMACD:
		return map[string]float64{"fastPeriod": 12, "slowPeriod": 26, "signalPeriod": 9}
	case IndicatorBollingerBands:
		return map[string]float64{"period": 20, "stdDev": 2}
	case IndicatorStochastic:
		return map[string]float64{"period": 14, "signalPeriod": 3}
	default:
		return nil
	}
}

// IndicatorSpec is one model-chosen indicator with concrete parameters.
type IndicatorSpec struct {
	Name     IndicatorName      `json:"name"`
	FullName string             `json:"fullName"`
	Params   map[string]float64 `json:"params"`
}

// Param returns the named parameter, falling back to def when absent.
func (s IndicatorSpec) Param(key string, def float64) float64 {
	if v, ok := s.Params[key]; ok {
		return v
	}
	return def
}

// IntParam returns the named parameter truncated to an int. NaN falls back to
// def and magnitudes beyond int32 are clamped.
func (s IndicatorSpec) IntParam(key string, def int) int {
	v := s.Param(key, float64(def))
	switch {
	case math.IsNaN(v):
		return def
	case v > math.MaxInt32:
		return math.MaxInt32
	case v < math.MinInt32:
		return math.MinInt32
	}
	return int(v)
}

// FinalSignal is the model's five-point judgment for the latest data point.
type FinalSignal string

const (
	StrongSell FinalSignal = "StrongSell"
	Sell       FinalSignal = "Sell"
	Hold       FinalSignal = "Hold"
	Buy        FinalSignal = "Buy"
	StrongBuy  FinalSignal = "StrongBuy"
)

// FinalSignals lists the scale from most bearish to most bullish.
var FinalSignals = []FinalSignal{StrongSell, Sell, Hold, Buy, StrongBuy}

var koreanSignalLabels = map[FinalSignal]string{
	StrongSell: "강한 매도",
	Sell:       "매도",
	Hold:       "보류",
	Buy:        "매수",
	StrongBuy:  "강한 매수",
}

// ParseFinalSignal accepts either the Korean label or the English name.
func ParseFinalSignal(s string) (FinalSignal, bool) {
	s = strings.TrimSpace(s)
	for sig, label := range koreanSignalLabels {
		if s == label || strings.EqualFold(s, string(sig)) {
			return sig, true
		}
	}
	switch strings.ToUpper(strings.ReplaceAll(s, " ", "_")) {
	case "STRONG_SELL":
		return StrongSell, true
	case "STRONG_BUY":
		return StrongBuy, true
	}
	return "", false
}

// Korean returns the label shown to users.
func (f FinalSignal) Korean() string {
	if label, ok := koreanSignalLabels[f]; ok {
		return label
	}
	return string(f)
}

// IsBullish reports whether the signal leans towards buying.
func (f FinalSignal) IsBullish() bool {
	return f == Buy || f == StrongBuy
}

// RecommendedIndicatorSet is the validated selector output for one request.
type RecommendedIndicatorSet struct {
	Indicators  []IndicatorSpec `json:"recommendedIndicators"`
	FinalSignal FinalSignal     `json:"finalSignal"`
	Rationale   string          `json:"rationale"`
}

// RequiredIndicatorCount is the number of indicators the model must select.
const RequiredIndicatorCount = 3

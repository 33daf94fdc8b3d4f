// Package models provides domain models for the trading-timing pipeline.
package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// DateLayout is the calendar-day format used for price points and signal events.
const DateLayout = "2006-01-02"

// PricePoint represents one daily OHLCV bar.
type PricePoint struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// Day returns the point's calendar day as YYYY-MM-DD.
func (p PricePoint) Day() string {
	return p.Date.Format(DateLayout)
}

// PriceHistory is an ascending, one-point-per-day series of daily bars.
// A history is owned by the request that fetched it and is never mutated.
type PriceHistory []PricePoint

// MaxHistoryPoints is the most recent trading-day window kept per ticker.
const MaxHistoryPoints = 252

// Closes returns the closing prices in order.
func (h PriceHistory) Closes() []float64 {
	out := make([]float64, len(h))
	for i, p := range h {
		out[i] = p.Close
	}
	return out
}

// Highs returns the high prices in order.
func (h PriceHistory) Highs() []float64 {
	out := make([]float64, len(h))
	for i, p := range h {
		out[i] = p.High
	}
	return out
}

// Lows returns the low prices in order.
func (h PriceHistory) Lows() []float64 {
	out := make([]float64, len(h))
	for i, p := range h {
		out[i] = p.Low
	}
	return out
}

// Latest returns the most recent point, or false for an empty history.
func (h PriceHistory) Latest() (PricePoint, bool) {
	if len(h) == 0 {
		return PricePoint{}, false
	}
	return h[len(h)-1], true
}

// Tail returns the last n points (or the whole history when shorter).
func (h PriceHistory) Tail(n int) PriceHistory {
	if n <= 0 {
		return nil
	}
	if len(h) <= n {
		return h
	}
	return h[len(h)-n:]
}

// Validate checks that dates strictly increase and prices are positive.
func (h PriceHistory) Validate() error {
	for i, p := range h {
		if p.Open <= 0 || p.High <= 0 || p.Low <= 0 || p.Close <= 0 {
			return &HistoryError{Index: i, Reason: "non-positive price"}
		}
		if p.Volume < 0 {
			return &HistoryError{Index: i, Reason: "negative volume"}
		}
		if i > 0 && !h[i-1].Date.Before(p.Date) {
			return &HistoryError{Index: i, Reason: "dates not strictly increasing"}
		}
	}
	return nil
}

// HistoryError describes a broken price history invariant.
type HistoryError struct {
	Index  int
	Reason string
}

func (e *HistoryError) Error() string {
	return fmt.Sprintf("invalid price history at index %d: %s", e.Index, e.Reason)
}

type pricePointJSON struct {
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume int64   `json:"volume"`
}

// MarshalJSON encodes the date as YYYY-MM-DD for chart consumers.
func (p PricePoint) MarshalJSON() ([]byte, error) {
	return json.Marshal(pricePointJSON{
		Date:   p.Day(),
		Open:   p.Open,
		High:   p.High,
		Low:    p.Low,
		Close:  p.Close,
		Volume: p.Volume,
	})
}

// UnmarshalJSON accepts the YYYY-MM-DD encoding produced by MarshalJSON.
func (p *PricePoint) UnmarshalJSON(data []byte) error {
	var raw pricePointJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	date, err := time.Parse(DateLayout, raw.Date)
	if err != nil {
		return fmt.Errorf("invalid date %q: %w", raw.Date, err)
	}
	*p = PricePoint{
		Date:   date,
		Open:   raw.Open,
		High:   raw.High,
		Low:    raw.Low,
		Close:  raw.Close,
		Volume: raw.Volume,
	}
	return nil
}

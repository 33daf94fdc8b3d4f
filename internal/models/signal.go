package models

import (
	"encoding/json"
	"time"
)

// Direction is the side of a historical signal.
type Direction string

const (
	DirectionBuy  Direction = "BUY"
	DirectionSell Direction = "SELL"
)

// SignalEvent is one buy/sell event on a price history date.
type SignalEvent struct {
	Date      time.Time     `json:"date"`
	Direction Direction     `json:"direction"`
	Rationale string        `json:"rationale"`
	Close     float64       `json:"close"`
	Indicator IndicatorName `json:"indicator,omitempty"`
}

// Day returns the event date as YYYY-MM-DD.
func (e SignalEvent) Day() string {
	return e.Date.Format(DateLayout)
}

// MarshalJSON encodes the date as YYYY-MM-DD.
func (e SignalEvent) MarshalJSON() ([]byte, error) {
	type alias SignalEvent
	return json.Marshal(struct {
		alias
		Date string `json:"date"`
	}{
		alias: alias(e),
		Date:  e.Day(),
	})
}

// Subscription is a daily alert registration for one ticker.
type Subscription struct {
	Email        string    `json:"email"`
	Ticker       string    `json:"ticker"`
	TradingStyle string    `json:"tradingStrategy,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// SignalAlert is the digest sent to subscribers once a day.
type SignalAlert struct {
	Ticker      string          `json:"ticker"`
	FinalSignal FinalSignal     `json:"finalSignal"`
	Indicators  []IndicatorSpec `json:"recommendedIndicators"`
	Rationale   string          `json:"rationale"`
	LatestClose float64         `json:"latestClose"`
	AsOf        time.Time       `json:"asOf"`
}

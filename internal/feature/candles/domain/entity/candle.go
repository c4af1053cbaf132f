// Package entity defines the domain models for the candles feature.
package entity

import "time"

// Candle is one daily OHLC bar. Timestamp is epoch milliseconds (UTC).
//
// low <= min(open, close) <= max(open, close) <= high is not enforced;
// upstream bars are accepted as long as every price is positive.
type Candle struct {
	Timestamp int64   `json:"timestamp"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
}

// Time returns the candle timestamp as a UTC time.Time.
func (c Candle) Time() time.Time {
	return time.UnixMilli(c.Timestamp).UTC()
}

// Positive reports whether every OHLC component is strictly positive.
func (c Candle) Positive() bool {
	return c.Open > 0 && c.High > 0 && c.Low > 0 && c.Close > 0
}

// At returns a copy of c re-stamped at t.
func (c Candle) At(t time.Time) Candle {
	c.Timestamp = t.UnixMilli()
	return c
}

// Package models defines the core domain entities: bars, indicator rows,
// alerts, and dedup keys.
package models

import (
	"errors"
	"time"
)

// Bar is one trading-day OHLCV observation for one instrument.
// Immutable once fetched.
type Bar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// Series is an ordered (date-ascending) sequence of bars for one instrument.
// Discarded after each evaluation cycle; never persisted.
type Series struct {
	Symbol string `json:"symbol"`
	Bars   []Bar  `json:"bars"`
}

// Validate checks series field constraints.
func (s *Series) Validate() error {
	if s.Symbol == "" {
		return errors.New("series symbol must not be empty")
	}
	for i, b := range s.Bars {
		if b.Date.IsZero() {
			return errors.New("bar date must not be zero")
		}
		if i > 0 && !s.Bars[i-1].Date.Before(b.Date) {
			return errors.New("bars must be ordered by date ascending")
		}
		if b.Close < 0 || b.Open < 0 || b.High < 0 || b.Low < 0 {
			return errors.New("bar prices must not be negative")
		}
		if b.Volume < 0 {
			return errors.New("bar volume must not be negative")
		}
	}
	return nil
}

// Closes returns the closing prices in series order.
func (s *Series) Closes() []float64 {
	closes := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		closes[i] = b.Close
	}
	return closes
}

// IndicatorRow is a bar augmented with the computed indicator values.
// Rows exist only where every indicator is defined.
type IndicatorRow struct {
	Bar

	RSI        float64
	EMA20      float64
	EMA50      float64
	MACD       float64
	MACDSignal float64

	// VolumeRatio is today's yen turnover relative to the trailing
	// 20-bar average turnover.
	VolumeRatio float64
	VolumeAlert bool

	BuyConfluence bool
}

package model

import "time"

// OHLCV represents a single candlestick bar.
type OHLCV struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// PriceSeries holds the candles fetched for one symbol during a tick, oldest first.
type PriceSeries struct {
	Symbol    string
	Interval  string
	Bars      []OHLCV
	FetchedAt time.Time
}

// Closes returns the closing prices of the series.
func (p *PriceSeries) Closes() []float64 {
	closes := make([]float64, len(p.Bars))
	for i, b := range p.Bars {
		closes[i] = b.Close
	}
	return closes
}

// Ticker is one row of the 24h rolling ticker.
type Ticker struct {
	Symbol             string
	LastPrice          float64
	PriceChangePercent float64
	Volume             float64 // base asset volume
	QuoteVolume        float64
}

// MarketSnapshot is everything the classifier sees for a symbol in one tick.
// Indicators is nil when the active strategy does not use candles.
type MarketSnapshot struct {
	Ticker     Ticker
	Indicators *IndicatorResult
}

package model

// IndicatorResult holds the technical indicators computed from a PriceSeries.
type IndicatorResult struct {
	RSI        float64 // 0 ~ 100
	MACD       float64
	Signal     float64
	Support    float64
	Resistance float64
}

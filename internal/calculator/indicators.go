package calculator

import (
	"fmt"

	"WhaleSentinel/internal/model"
)

// Params holds the indicator periods.
type Params struct {
	RSIPeriod  int
	MACDShort  int
	MACDLong   int
	MACDSignal int
}

// DefaultParams are the classic RSI(14) and MACD(12,26,9) settings.
var DefaultParams = Params{RSIPeriod: 14, MACDShort: 12, MACDLong: 26, MACDSignal: 9}

// MinBars is the shortest series ComputeIndicators accepts.
func (p Params) MinBars() int {
	n := p.MACDLong
	if p.RSIPeriod+1 > n {
		n = p.RSIPeriod + 1
	}
	return n
}

// ComputeIndicators derives all indicators from the closes of the series.
func ComputeIndicators(series *model.PriceSeries, p Params) (*model.IndicatorResult, error) {
	closes := series.Closes()
	if len(closes) < p.MinBars() {
		return nil, fmt.Errorf("%s: %d bars, need %d: %w", series.Symbol, len(closes), p.MinBars(), ErrInsufficientData)
	}

	rsi, err := CalculateRSI(closes, p.RSIPeriod)
	if err != nil {
		return nil, fmt.Errorf("rsi: %w", err)
	}
	macd, signal, err := CalculateMACD(closes, p.MACDShort, p.MACDLong, p.MACDSignal)
	if err != nil {
		return nil, fmt.Errorf("macd: %w", err)
	}
	support, resistance, err := CalculateSupportResistance(closes)
	if err != nil {
		return nil, fmt.Errorf("support/resistance: %w", err)
	}

	return &model.IndicatorResult{
		RSI:        rsi,
		MACD:       macd,
		Signal:     signal,
		Support:    support,
		Resistance: resistance,
	}, nil
}

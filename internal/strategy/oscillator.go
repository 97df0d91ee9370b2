package strategy

import (
	"fmt"

	"WhaleSentinel/internal/model"
)

// OscillatorRule flags oversold symbols with a bullish MACD crossover as
// entries and overbought symbols with a bearish crossover as exits.
type OscillatorRule struct {
	Oversold   float64
	Overbought float64
}

func (r *OscillatorRule) Name() string { return ModeOscillator }

func (r *OscillatorRule) NeedsIndicators() bool { return true }

func (r *OscillatorRule) Classify(snap model.MarketSnapshot, _ Presence) model.Classification {
	c := model.Classification{Symbol: snap.Ticker.Symbol, Rule: r.Name()}
	ind := snap.Indicators
	if ind == nil {
		return c
	}
	switch {
	case ind.RSI < r.Oversold && ind.MACD > ind.Signal:
		c.Kind = model.KindEntry
		c.Message = fmt.Sprintf("✅ Buy opportunity: %s is oversold, RSI = %.2f", c.Symbol, ind.RSI)
	case ind.RSI > r.Overbought && ind.MACD < ind.Signal:
		c.Kind = model.KindExit
		c.Message = fmt.Sprintf("⚠️ Exit warning: %s is overbought, RSI = %.2f", c.Symbol, ind.RSI)
	}
	return c
}

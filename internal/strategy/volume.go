package strategy

import (
	"fmt"

	"github.com/dustin/go-humanize"

	"WhaleSentinel/internal/model"
)

// VolumeShockRule flags sharp 24h drops on heavy quote volume as whale
// entries. A symbol still holding a whale alert that no longer qualifies
// is reported as an exit; alerts raised by other rules are left alone.
type VolumeShockRule struct {
	DropPct          float64
	HighVolumeCutoff float64
	HighVolumeFloor  float64
	BaseVolumeFloor  float64
}

func (r *VolumeShockRule) Name() string { return ModeVolume }

func (r *VolumeShockRule) NeedsIndicators() bool { return false }

// Floor returns the quote volume a ticker must exceed. Symbols already
// trading above the cutoff in base volume need the higher floor.
func (r *VolumeShockRule) Floor(t model.Ticker) float64 {
	if t.Volume > r.HighVolumeCutoff {
		return r.HighVolumeFloor
	}
	return r.BaseVolumeFloor
}

func (r *VolumeShockRule) Classify(snap model.MarketSnapshot, present Presence) model.Classification {
	t := snap.Ticker
	c := model.Classification{Symbol: t.Symbol, Rule: r.Name()}
	switch {
	case t.PriceChangePercent < r.DropPct && t.QuoteVolume > r.Floor(t):
		c.Kind = model.KindEntry
		c.Message = fmt.Sprintf("🐋 Whale entry: %s %.2f%% in 24h on %s quote volume",
			t.Symbol, t.PriceChangePercent, humanize.Comma(int64(t.QuoteVolume)))
	case raisedBy(present, t.Symbol, r.Name()):
		c.Kind = model.KindExit
		c.Message = fmt.Sprintf("🏃 Whales retreating: %s %.2f%% in 24h", t.Symbol, t.PriceChangePercent)
	}
	return c
}

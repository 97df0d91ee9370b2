package strategy

import (
	"fmt"

	"WhaleSentinel/internal/model"
)

// Presence is a read-only view of which symbols currently hold an alert.
type Presence interface {
	Has(symbol string) bool
}

// Rule classifies one market snapshot.
type Rule interface {
	Name() string
	// NeedsIndicators reports whether the rule reads snapshot indicators,
	// i.e. whether candles must be fetched.
	NeedsIndicators() bool
	Classify(snap model.MarketSnapshot, present Presence) model.Classification
}

const (
	ModeOscillator = "oscillator"
	ModeVolume     = "volume"
	ModeCombined   = "combined"
)

// Thresholds configures both rule families.
type Thresholds struct {
	RSIOversold   float64
	RSIOverbought float64

	PriceDropPct     float64 // negative, e.g. -3
	HighVolumeCutoff float64 // 24h base volume above which the high floor applies
	HighVolumeFloor  float64
	BaseVolumeFloor  float64
}

// DefaultThresholds mirror the classic oversold/overbought and whale settings.
var DefaultThresholds = Thresholds{
	RSIOversold:      30,
	RSIOverbought:    70,
	PriceDropPct:     -3,
	HighVolumeCutoff: 100_000_000,
	HighVolumeFloor:  5_000_000,
	BaseVolumeFloor:  1_000_000,
}

// New returns the rule set selected by mode.
func New(mode string, th Thresholds) (Rule, error) {
	switch mode {
	case ModeOscillator:
		return &OscillatorRule{Oversold: th.RSIOversold, Overbought: th.RSIOverbought}, nil
	case ModeVolume:
		return newVolumeRule(th), nil
	case ModeCombined:
		return &CombinedRule{Rules: []Rule{
			newVolumeRule(th),
			&OscillatorRule{Oversold: th.RSIOversold, Overbought: th.RSIOverbought},
		}}, nil
	default:
		return nil, fmt.Errorf("unknown strategy mode %q", mode)
	}
}

func newVolumeRule(th Thresholds) *VolumeShockRule {
	return &VolumeShockRule{
		DropPct:          th.PriceDropPct,
		HighVolumeCutoff: th.HighVolumeCutoff,
		HighVolumeFloor:  th.HighVolumeFloor,
		BaseVolumeFloor:  th.BaseVolumeFloor,
	}
}

// PresenceSet is a Presence backed by a plain set.
type PresenceSet map[string]struct{}

func (p PresenceSet) Has(symbol string) bool {
	_, ok := p[symbol]
	return ok
}

// Owners is a Presence that also reports which rule raised each alert.
// An empty owner is unknown, as for records restored from storage.
type Owners interface {
	Presence
	Owner(symbol string) string
}

// OwnedPresence maps each alerted symbol to the rule that raised it.
type OwnedPresence map[string]string

func (p OwnedPresence) Has(symbol string) bool {
	_, ok := p[symbol]
	return ok
}

func (p OwnedPresence) Owner(symbol string) string { return p[symbol] }

// raisedBy reports whether symbol holds an alert that rule may retract:
// one it raised itself or one of unknown origin.
func raisedBy(present Presence, symbol, rule string) bool {
	if present == nil || !present.Has(symbol) {
		return false
	}
	o, ok := present.(Owners)
	if !ok {
		return true
	}
	owner := o.Owner(symbol)
	return owner == "" || owner == rule
}

// ClassifyAll runs rule over every snapshot against the same presence view.
func ClassifyAll(rule Rule, snaps []model.MarketSnapshot, present Presence) []model.Classification {
	out := make([]model.Classification, len(snaps))
	for i, s := range snaps {
		out[i] = rule.Classify(s, present)
	}
	return out
}

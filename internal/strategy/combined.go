package strategy

import "WhaleSentinel/internal/model"

// CombinedRule evaluates every member rule. Any entry wins over any exit;
// the first member to report the winning kind supplies the message.
type CombinedRule struct {
	Rules []Rule
}

func (r *CombinedRule) Name() string { return ModeCombined }

func (r *CombinedRule) NeedsIndicators() bool {
	for _, rule := range r.Rules {
		if rule.NeedsIndicators() {
			return true
		}
	}
	return false
}

func (r *CombinedRule) Classify(snap model.MarketSnapshot, present Presence) model.Classification {
	var exit *model.Classification
	for _, rule := range r.Rules {
		c := rule.Classify(snap, present)
		switch c.Kind {
		case model.KindEntry:
			return c
		case model.KindExit:
			if exit == nil {
				exit = &c
			}
		}
	}
	if exit != nil {
		return *exit
	}
	return model.Classification{Symbol: snap.Ticker.Symbol, Rule: r.Name()}
}

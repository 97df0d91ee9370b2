package model

import "time"

// AlertRecord is the live alert kept for a symbol.
type AlertRecord struct {
	Symbol    string
	CreatedAt time.Time
	Kind      SignalKind
	Message   string
	Rule      string // rule behind the latest entry; empty when restored
}

// AlertView is what presenters render.
type AlertView struct {
	Symbol    string
	Message   string
	Kind      SignalKind
	AgeText   string
	CreatedAt time.Time
	Transient bool // shown for this tick only, not backed by a record
}

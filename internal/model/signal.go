package model

// SignalKind is the alert state a symbol is classified into.
type SignalKind string

const (
	KindNone  SignalKind = ""
	KindEntry SignalKind = "ENTRY"
	KindExit  SignalKind = "EXIT"
)

func (k SignalKind) String() string {
	if k == KindNone {
		return "NONE"
	}
	return string(k)
}

// Classification is the output of a strategy rule for one symbol.
type Classification struct {
	Symbol  string
	Kind    SignalKind
	Rule    string
	Message string
}

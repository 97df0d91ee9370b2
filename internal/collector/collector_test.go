package collector

import (
	"context"
	"errors"
	"testing"
	"time"

	"WhaleSentinel/internal/calculator"
	"WhaleSentinel/internal/model"
)

func risingBars(n int) []model.OHLCV {
	bars := make([]model.OHLCV, n)
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range bars {
		bars[i] = model.OHLCV{Time: start.Add(time.Duration(i) * time.Hour), Close: 10 + float64(i)}
	}
	return bars
}

func TestCollector_ListSymbols(t *testing.T) {
	src := &MockSource{Tickers: []model.Ticker{
		{Symbol: "AUSDT", QuoteVolume: 10},
		{Symbol: "BUSDT", QuoteVolume: 30},
		{Symbol: "CUSDT", QuoteVolume: 20},
	}}
	col := NewCollector(src, "1h", 100, 4, calculator.DefaultParams)

	tickers, err := col.ListSymbols(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(tickers) != 3 {
		t.Fatalf("expected 3 tickers, got %d", len(tickers))
	}

	col.MaxSymbols = 2
	tickers, _ = col.ListSymbols(context.Background())
	if len(tickers) != 2 || tickers[0].Symbol != "BUSDT" || tickers[1].Symbol != "CUSDT" {
		t.Errorf("expected top two by quote volume, got %+v", tickers)
	}

	col.MaxSymbols = 0
	col.Whitelist = []string{"AUSDT"}
	tickers, _ = col.ListSymbols(context.Background())
	if len(tickers) != 1 || tickers[0].Symbol != "AUSDT" {
		t.Errorf("expected whitelist to apply, got %+v", tickers)
	}
}

func TestCollector_ListSymbolsUnavailable(t *testing.T) {
	col := NewCollector(&MockSource{ListErr: ErrUpstreamUnavailable}, "1h", 100, 4, calculator.DefaultParams)
	if _, err := col.ListSymbols(context.Background()); !errors.Is(err, ErrUpstreamUnavailable) {
		t.Errorf("expected ErrUpstreamUnavailable, got %v", err)
	}
}

func TestCollector_CollectReportsFailedSymbols(t *testing.T) {
	src := &MockSource{
		Series: map[string][]model.OHLCV{
			"AUSDT": risingBars(60),
			"BUSDT": risingBars(60),
			"SHORT": risingBars(10),
		},
		CandleErrs: map[string]error{"DOWNUSDT": ErrCandlesUnavailable},
	}
	col := NewCollector(src, "1h", 100, 2, calculator.DefaultParams)
	tickers := []model.Ticker{{Symbol: "AUSDT"}, {Symbol: "DOWNUSDT"}, {Symbol: "BUSDT"}, {Symbol: "SHORT"}}

	snaps, failed := col.Collect(context.Background(), tickers, true)
	if len(snaps) != 4 {
		t.Fatalf("expected a snapshot per ticker, got %d", len(snaps))
	}
	for i, want := range []string{"AUSDT", "DOWNUSDT", "BUSDT", "SHORT"} {
		if snaps[i].Ticker.Symbol != want {
			t.Errorf("position %d: expected %s, got %s", i, want, snaps[i].Ticker.Symbol)
		}
	}
	if snaps[1].Indicators != nil || snaps[3].Indicators != nil {
		t.Error("failed symbols should carry nil indicators")
	}
	if snaps[2].Indicators == nil {
		t.Error("BUSDT should have indicators")
	}
	if snaps[0].Indicators == nil || snaps[0].Indicators.RSI != 100 {
		t.Errorf("expected RSI 100 for rising series, got %+v", snaps[0].Indicators)
	}
	if len(failed) != 2 {
		t.Fatalf("expected 2 failed symbols, got %d", len(failed))
	}
	if failed[0].Symbol != "DOWNUSDT" || !errors.Is(failed[0], ErrCandlesUnavailable) {
		t.Errorf("unexpected first failure: %v", failed[0])
	}
	if failed[1].Symbol != "SHORT" || !errors.Is(failed[1], calculator.ErrInsufficientData) {
		t.Errorf("unexpected second failure: %v", failed[1])
	}
}

func TestCollector_CollectWithoutIndicators(t *testing.T) {
	src := &MockSource{}
	col := NewCollector(src, "1h", 100, 2, calculator.DefaultParams)
	snaps, failed := col.Collect(context.Background(), []model.Ticker{{Symbol: "AUSDT"}}, false)
	if len(snaps) != 1 || snaps[0].Indicators != nil || failed != nil {
		t.Errorf("unexpected result: %+v %v", snaps, failed)
	}
	if src.Calls("AUSDT") != 0 {
		t.Error("candles should not be fetched when indicators are not needed")
	}
}

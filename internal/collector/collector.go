package collector

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"WhaleSentinel/internal/calculator"
	"WhaleSentinel/internal/model"
)

// MockSource returns controllable fixed data for development and testing.
type MockSource struct {
	Tickers    []model.Ticker
	Series     map[string][]model.OHLCV
	ListErr    error
	CandleErrs map[string]error

	mu    sync.Mutex
	calls map[string]int
}

func (m *MockSource) Name() string { return "mock" }

func (m *MockSource) ListTickers(_ context.Context) ([]model.Ticker, error) {
	if m.ListErr != nil {
		return []model.Ticker{}, m.ListErr
	}
	out := make([]model.Ticker, len(m.Tickers))
	copy(out, m.Tickers)
	return out, nil
}

func (m *MockSource) FetchCandles(ctx context.Context, symbol, interval string, limit int) (*model.PriceSeries, error) {
	m.mu.Lock()
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	m.calls[symbol]++
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err, ok := m.CandleErrs[symbol]; ok {
		return nil, err
	}
	bars, ok := m.Series[symbol]
	if !ok {
		bars = generateMockBars(100, limit)
	}
	if len(bars) > limit {
		bars = bars[len(bars)-limit:]
	}
	return &model.PriceSeries{Symbol: symbol, Interval: interval, Bars: bars, FetchedAt: time.Now()}, nil
}

// Calls returns how many times candles were requested for symbol.
func (m *MockSource) Calls(symbol string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[symbol]
}

func generateMockBars(basePrice float64, count int) []model.OHLCV {
	bars := make([]model.OHLCV, count)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i-count/2)*0.001)
		bars[i] = model.OHLCV{
			Time:   time.Now().Add(-time.Duration(count-i) * time.Hour),
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
		}
	}
	return bars
}

// Collector fetches tickers and candles and computes indicators per symbol.
type Collector struct {
	Source      MarketDataSource
	Interval    string
	Limit       int
	Concurrency int
	Params      calculator.Params
	Whitelist   []string
	MaxSymbols  int
}

// NewCollector creates a new Collector.
func NewCollector(source MarketDataSource, interval string, limit, concurrency int, params calculator.Params) *Collector {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Collector{
		Source:      source,
		Interval:    interval,
		Limit:       limit,
		Concurrency: concurrency,
		Params:      params,
	}
}

// ListSymbols returns the tickers to process this tick, after the whitelist
// and the max-symbols cap (highest quote volume first) are applied.
func (c *Collector) ListSymbols(ctx context.Context) ([]model.Ticker, error) {
	tickers, err := c.Source.ListTickers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list symbols from %s: %w", c.Source.Name(), err)
	}

	if len(c.Whitelist) > 0 {
		allowed := make(map[string]bool, len(c.Whitelist))
		for _, s := range c.Whitelist {
			allowed[s] = true
		}
		filtered := tickers[:0]
		for _, t := range tickers {
			if allowed[t.Symbol] {
				filtered = append(filtered, t)
			}
		}
		tickers = filtered
	}

	if c.MaxSymbols > 0 && len(tickers) > c.MaxSymbols {
		sort.SliceStable(tickers, func(i, j int) bool { return tickers[i].QuoteVolume > tickers[j].QuoteVolume })
		tickers = tickers[:c.MaxSymbols]
	}
	return tickers, nil
}

// Collect builds a snapshot per ticker. When withIndicators is set, candles
// are fetched with at most Concurrency requests in flight. Symbols whose
// candles or indicators are unavailable are reported and keep a snapshot
// with nil Indicators, so ticker-only rules still see them.
func (c *Collector) Collect(ctx context.Context, tickers []model.Ticker, withIndicators bool) ([]model.MarketSnapshot, []*SymbolFetchError) {
	if !withIndicators {
		snaps := make([]model.MarketSnapshot, len(tickers))
		for i, t := range tickers {
			snaps[i] = model.MarketSnapshot{Ticker: t}
		}
		return snaps, nil
	}

	results := make([]*model.IndicatorResult, len(tickers))
	errs := make([]*SymbolFetchError, len(tickers))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.Concurrency)
	for i, t := range tickers {
		i, t := i, t
		g.Go(func() error {
			ind, err := c.indicatorsFor(gctx, t.Symbol)
			if err != nil {
				errs[i] = &SymbolFetchError{Symbol: t.Symbol, Err: err}
				return nil
			}
			results[i] = ind
			return nil
		})
	}
	_ = g.Wait()

	snaps := make([]model.MarketSnapshot, len(tickers))
	var failed []*SymbolFetchError
	for i, t := range tickers {
		if errs[i] != nil {
			log.Printf("[WARN] %v", errs[i])
			failed = append(failed, errs[i])
		}
		snaps[i] = model.MarketSnapshot{Ticker: t, Indicators: results[i]}
	}
	return snaps, failed
}

func (c *Collector) indicatorsFor(ctx context.Context, symbol string) (*model.IndicatorResult, error) {
	series, err := c.Source.FetchCandles(ctx, symbol, c.Interval, c.Limit)
	if err != nil {
		return nil, err
	}
	return calculator.ComputeIndicators(series, c.Params)
}

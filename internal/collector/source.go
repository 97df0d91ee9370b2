package collector

import (
	"context"
	"errors"
	"fmt"

	"WhaleSentinel/internal/model"
)

var (
	// ErrUpstreamUnavailable means every host failed to list tickers.
	ErrUpstreamUnavailable = errors.New("upstream unavailable: all hosts failed")
	// ErrCandlesUnavailable means every host failed to return candles for a symbol.
	ErrCandlesUnavailable = errors.New("candles unavailable")
)

// MarketDataSource defines the interface for fetching market data.
type MarketDataSource interface {
	// ListTickers returns the 24h tickers of all symbols quoted in the configured asset.
	ListTickers(ctx context.Context) ([]model.Ticker, error)
	FetchCandles(ctx context.Context, symbol, interval string, limit int) (*model.PriceSeries, error)
	Name() string
}

// SymbolFetchError reports a symbol skipped for this tick.
type SymbolFetchError struct {
	Symbol string
	Err    error
}

func (e *SymbolFetchError) Error() string {
	return fmt.Sprintf("symbol fetch failed: %s: %v", e.Symbol, e.Err)
}

func (e *SymbolFetchError) Unwrap() error { return e.Err }

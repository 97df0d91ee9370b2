package collector

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	binance "github.com/adshao/go-binance/v2"

	"WhaleSentinel/internal/model"
)

// DefaultHosts are the equivalent Binance spot API hosts in priority order.
var DefaultHosts = []string{
	"https://api.binance.com",
	"https://api1.binance.com",
	"https://api2.binance.com",
	"https://api3.binance.com",
}

// BinanceSource implements MarketDataSource over a list of equivalent hosts.
// Each call tries the hosts in order and returns the first well-formed answer.
type BinanceSource struct {
	QuoteAsset string
	clients    []*binance.Client
}

// NewBinanceSource creates a source with optional proxy support.
func NewBinanceSource(hosts []string, quoteAsset, proxyURL string) *BinanceSource {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	httpClient := &http.Client{
		Timeout:   15 * time.Second,
		Transport: transport,
	}
	if len(hosts) == 0 {
		hosts = DefaultHosts
	}

	s := &BinanceSource{QuoteAsset: quoteAsset}
	for _, h := range hosts {
		c := binance.NewClient("", "")
		c.BaseURL = strings.TrimRight(h, "/")
		c.HTTPClient = httpClient
		s.clients = append(s.clients, c)
	}
	return s
}

func (s *BinanceSource) Name() string { return "binance" }

func (s *BinanceSource) ListTickers(ctx context.Context) ([]model.Ticker, error) {
	for _, c := range s.clients {
		stats, err := c.NewListPriceChangeStatsService().Do(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return []model.Ticker{}, ctx.Err()
			}
			log.Printf("[WARN] list tickers via %s: %v", c.BaseURL, err)
			continue
		}
		tickers, err := s.parseTickers(stats)
		if err != nil {
			log.Printf("[WARN] parse tickers from %s: %v", c.BaseURL, err)
			continue
		}
		return tickers, nil
	}
	return []model.Ticker{}, ErrUpstreamUnavailable
}

func (s *BinanceSource) parseTickers(stats []*binance.PriceChangeStats) ([]model.Ticker, error) {
	tickers := make([]model.Ticker, 0, len(stats))
	for _, st := range stats {
		if st == nil || !strings.HasSuffix(st.Symbol, s.QuoteAsset) {
			continue
		}
		t := model.Ticker{Symbol: st.Symbol}
		var err error
		if t.LastPrice, err = parseFloat(st.LastPrice); err != nil {
			return nil, fmt.Errorf("%s lastPrice: %w", st.Symbol, err)
		}
		if t.PriceChangePercent, err = parseFloat(st.PriceChangePercent); err != nil {
			return nil, fmt.Errorf("%s priceChangePercent: %w", st.Symbol, err)
		}
		if t.Volume, err = parseFloat(st.Volume); err != nil {
			return nil, fmt.Errorf("%s volume: %w", st.Symbol, err)
		}
		if t.QuoteVolume, err = parseFloat(st.QuoteVolume); err != nil {
			return nil, fmt.Errorf("%s quoteVolume: %w", st.Symbol, err)
		}
		tickers = append(tickers, t)
	}
	return tickers, nil
}

func (s *BinanceSource) FetchCandles(ctx context.Context, symbol, interval string, limit int) (*model.PriceSeries, error) {
	for _, c := range s.clients {
		klines, err := c.NewKlinesService().
			Symbol(symbol).
			Interval(interval).
			Limit(limit).
			Do(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			log.Printf("[WARN] fetch %s candles via %s: %v", symbol, c.BaseURL, err)
			continue
		}
		bars, err := parseKlines(klines)
		if err != nil {
			log.Printf("[WARN] parse %s candles from %s: %v", symbol, c.BaseURL, err)
			continue
		}
		return &model.PriceSeries{
			Symbol:    symbol,
			Interval:  interval,
			Bars:      bars,
			FetchedAt: time.Now(),
		}, nil
	}
	return nil, ErrCandlesUnavailable
}

func parseKlines(klines []*binance.Kline) ([]model.OHLCV, error) {
	bars := make([]model.OHLCV, 0, len(klines))
	for _, k := range klines {
		var (
			bar model.OHLCV
			err error
		)
		bar.Time = time.UnixMilli(k.OpenTime)
		if bar.Open, err = parseFloat(k.Open); err != nil {
			return nil, fmt.Errorf("open: %w", err)
		}
		if bar.High, err = parseFloat(k.High); err != nil {
			return nil, fmt.Errorf("high: %w", err)
		}
		if bar.Low, err = parseFloat(k.Low); err != nil {
			return nil, fmt.Errorf("low: %w", err)
		}
		if bar.Close, err = parseFloat(k.Close); err != nil {
			return nil, fmt.Errorf("close: %w", err)
		}
		if bar.Volume, err = parseFloat(k.Volume); err != nil {
			return nil, fmt.Errorf("volume: %w", err)
		}
		bars = append(bars, bar)
	}
	// Ensure chronological order
	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}

func parseFloat(s string) (float64, error) {
	return strconv.ParseFloat(s, 64)
}

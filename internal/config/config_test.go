package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"WhaleSentinel/internal/collector"
	"WhaleSentinel/internal/strategy"
)

var envKeys = []string{
	"TELEGRAM_BOT_TOKEN", "TELEGRAM_CHAT_ID", "BINANCE_HOSTS", "QUOTE_ASSET",
	"STRATEGY_MODE", "ALERT_TTL", "ALERT_STORE", "REDIS_ADDR", "REDIS_PASSWORD",
	"REDIS_DB", "ALERT_FILE_PATH", "ALERT_SQLITE_PATH", "RECORDER_SQLITE_PATH", "METRICS_ADDR", "HTTPS_PROXY", "REFRESH_CRON",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Alerts.TTL != 24*time.Hour {
		t.Errorf("TTL = %v, want 24h", cfg.Alerts.TTL)
	}
	if cfg.Strategy.Mode != strategy.ModeVolume || cfg.Alerts.Store != StoreMemory {
		t.Errorf("unexpected mode/store: %s/%s", cfg.Strategy.Mode, cfg.Alerts.Store)
	}
	if len(cfg.Exchange.Hosts) != len(collector.DefaultHosts) {
		t.Errorf("hosts = %v", cfg.Exchange.Hosts)
	}
	if cfg.Exchange.Interval != "1h" || cfg.Exchange.CandleLimit != 100 {
		t.Errorf("candle defaults = %s/%d", cfg.Exchange.Interval, cfg.Exchange.CandleLimit)
	}
	if cfg.Thresholds() != strategy.DefaultThresholds {
		t.Errorf("thresholds = %+v", cfg.Thresholds())
	}
	if cfg.TelegramEnabled() {
		t.Error("telegram should be disabled without credentials")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	yml := `
exchange:
  hosts: [api.example.com]
  quote_asset: BUSD
  whitelist: [BTCBUSD, ETHBUSD]
strategy:
  mode: combined
  price_drop_pct: -5
alerts:
  ttl: 6h
  store: sqlite
schedule:
  refresh_cron: "0 */5 * * * *"
`
	if err := os.WriteFile(path, []byte(yml), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("ALERT_TTL", "12h")
	t.Setenv("BINANCE_HOSTS", "a.example.com, b.example.com")
	t.Setenv("TELEGRAM_BOT_TOKEN", "tok")
	t.Setenv("TELEGRAM_CHAT_ID", "1")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Alerts.TTL != 12*time.Hour {
		t.Errorf("env should override ttl, got %v", cfg.Alerts.TTL)
	}
	if len(cfg.Exchange.Hosts) != 2 || cfg.Exchange.Hosts[1] != "b.example.com" {
		t.Errorf("hosts = %v", cfg.Exchange.Hosts)
	}
	if cfg.Exchange.QuoteAsset != "BUSD" || len(cfg.Exchange.Whitelist) != 2 {
		t.Errorf("exchange = %+v", cfg.Exchange)
	}
	if cfg.Strategy.Mode != strategy.ModeCombined || cfg.Strategy.PriceDropPct != -5 {
		t.Errorf("strategy = %+v", cfg.Strategy)
	}
	if cfg.Alerts.Store != StoreSQLite || cfg.Schedule.RefreshCron != "0 */5 * * * *" {
		t.Errorf("store/cron = %s/%s", cfg.Alerts.Store, cfg.Schedule.RefreshCron)
	}
	if !cfg.TelegramEnabled() {
		t.Error("telegram should be enabled")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoadSQLitePathsAreSeparate(t *testing.T) {
	clearEnv(t)
	t.Setenv("ALERT_STORE", "sqlite")
	t.Setenv("ALERT_SQLITE_PATH", "/var/lib/ws/alerts.db")
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Alerts.SQLitePath != "/var/lib/ws/alerts.db" {
		t.Errorf("alerts.sqlite_path = %q", cfg.Alerts.SQLitePath)
	}
	if cfg.Database.SQLitePath != "data/whale_sentinel.db" {
		t.Errorf("recorder path should keep its default, got %q", cfg.Database.SQLitePath)
	}

	t.Setenv("RECORDER_SQLITE_PATH", "/var/lib/ws/history.db")
	t.Setenv("ALERT_FILE_PATH", "/var/lib/ws/alerts.json")
	cfg, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Database.SQLitePath != "/var/lib/ws/history.db" || cfg.Alerts.FilePath != "/var/lib/ws/alerts.json" {
		t.Errorf("unexpected paths: %q %q", cfg.Database.SQLitePath, cfg.Alerts.FilePath)
	}
}

func TestLoadBadTTL(t *testing.T) {
	clearEnv(t)
	t.Setenv("ALERT_TTL", "forever")
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for invalid ALERT_TTL")
	}
}

func TestValidate(t *testing.T) {
	clearEnv(t)
	base, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"half telegram", func(c *Config) { c.Telegram.BotToken = "tok" }},
		{"unknown mode", func(c *Config) { c.Strategy.Mode = "astrology" }},
		{"unknown store", func(c *Config) { c.Alerts.Store = "etcd" }},
		{"negative ttl", func(c *Config) { c.Alerts.TTL = -time.Minute }},
		{"no hosts", func(c *Config) { c.Exchange.Hosts = nil }},
		{"short candles", func(c *Config) {
			c.Strategy.Mode = strategy.ModeOscillator
			c.Exchange.CandleLimit = 10
		}},
		{"inverted rsi", func(c *Config) { c.Strategy.RSIOversold = 80 }},
		{"positive drop", func(c *Config) { c.Strategy.PriceDropPct = 3 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := *base
			tt.mutate(&c)
			if err := c.Validate(); err == nil {
				t.Errorf("expected validation error")
			}
		})
	}
}

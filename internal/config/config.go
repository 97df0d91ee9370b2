package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"WhaleSentinel/internal/calculator"
	"WhaleSentinel/internal/collector"
	"WhaleSentinel/internal/strategy"
)

// Alert store backends.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreSQLite = "sqlite"
	StoreRedis  = "redis"
)

// Config holds all application configuration.
type Config struct {
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Exchange struct {
		Hosts       []string `yaml:"hosts"`
		QuoteAsset  string   `yaml:"quote_asset"`
		Interval    string   `yaml:"interval"`
		CandleLimit int      `yaml:"candle_limit"`
		Concurrency int      `yaml:"concurrency"`
		Whitelist   []string `yaml:"whitelist"`
		MaxSymbols  int      `yaml:"max_symbols"`
	} `yaml:"exchange"`
	Strategy struct {
		Mode             string  `yaml:"mode"`
		RSIOversold      float64 `yaml:"rsi_oversold"`
		RSIOverbought    float64 `yaml:"rsi_overbought"`
		PriceDropPct     float64 `yaml:"price_drop_pct"`
		HighVolumeCutoff float64 `yaml:"high_volume_cutoff"`
		HighVolumeFloor  float64 `yaml:"high_volume_floor"`
		BaseVolumeFloor  float64 `yaml:"base_volume_floor"`
	} `yaml:"strategy"`
	Alerts struct {
		TTL        time.Duration `yaml:"ttl"`
		Store      string        `yaml:"store"`
		FilePath   string        `yaml:"file_path"`
		SQLitePath string        `yaml:"sqlite_path"`
	} `yaml:"alerts"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix"`
	} `yaml:"redis"`
	Schedule struct {
		RefreshCron   string        `yaml:"refresh_cron"`
		RedisplayCron string        `yaml:"redisplay_cron"`
		TickTimeout   time.Duration `yaml:"tick_timeout"`
	} `yaml:"schedule"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Metrics struct {
		Addr string `yaml:"addr"`
	} `yaml:"metrics"`
	Proxy string `yaml:"proxy"`
}

// Load reads .env and the YAML file, then applies environment overrides and defaults.
func Load(path string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		c.Telegram.ChatID = v
	}
	if v := os.Getenv("BINANCE_HOSTS"); v != "" {
		c.Exchange.Hosts = splitList(v)
	}
	if v := os.Getenv("QUOTE_ASSET"); v != "" {
		c.Exchange.QuoteAsset = v
	}
	if v := os.Getenv("STRATEGY_MODE"); v != "" {
		c.Strategy.Mode = v
	}
	if v := os.Getenv("ALERT_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse ALERT_TTL: %w", err)
		}
		c.Alerts.TTL = ttl
	}
	if v := os.Getenv("ALERT_STORE"); v != "" {
		c.Alerts.Store = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		db, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse REDIS_DB: %w", err)
		}
		c.Redis.DB = db
	}
	if v := os.Getenv("ALERT_FILE_PATH"); v != "" {
		c.Alerts.FilePath = v
	}
	if v := os.Getenv("ALERT_SQLITE_PATH"); v != "" {
		c.Alerts.SQLitePath = v
	}
	if v := os.Getenv("RECORDER_SQLITE_PATH"); v != "" {
		c.Database.SQLitePath = v
	}
	if v := os.Getenv("METRICS_ADDR"); v != "" {
		c.Metrics.Addr = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		c.Proxy = v
	}
	if v := os.Getenv("REFRESH_CRON"); v != "" {
		c.Schedule.RefreshCron = v
	}
	return nil
}

func (c *Config) applyDefaults() {
	if len(c.Exchange.Hosts) == 0 {
		c.Exchange.Hosts = collector.DefaultHosts
	}
	if c.Exchange.QuoteAsset == "" {
		c.Exchange.QuoteAsset = "USDT"
	}
	if c.Exchange.Interval == "" {
		c.Exchange.Interval = "1h"
	}
	if c.Exchange.CandleLimit == 0 {
		c.Exchange.CandleLimit = 100
	}
	if c.Exchange.Concurrency == 0 {
		c.Exchange.Concurrency = 8
	}

	th := strategy.DefaultThresholds
	if c.Strategy.Mode == "" {
		c.Strategy.Mode = strategy.ModeVolume
	}
	if c.Strategy.RSIOversold == 0 {
		c.Strategy.RSIOversold = th.RSIOversold
	}
	if c.Strategy.RSIOverbought == 0 {
		c.Strategy.RSIOverbought = th.RSIOverbought
	}
	if c.Strategy.PriceDropPct == 0 {
		c.Strategy.PriceDropPct = th.PriceDropPct
	}
	if c.Strategy.HighVolumeCutoff == 0 {
		c.Strategy.HighVolumeCutoff = th.HighVolumeCutoff
	}
	if c.Strategy.HighVolumeFloor == 0 {
		c.Strategy.HighVolumeFloor = th.HighVolumeFloor
	}
	if c.Strategy.BaseVolumeFloor == 0 {
		c.Strategy.BaseVolumeFloor = th.BaseVolumeFloor
	}

	if c.Alerts.TTL == 0 {
		c.Alerts.TTL = 24 * time.Hour
	}
	if c.Alerts.Store == "" {
		c.Alerts.Store = StoreMemory
	}
	if c.Alerts.FilePath == "" {
		c.Alerts.FilePath = "data/alerts.json"
	}
	if c.Alerts.SQLitePath == "" {
		c.Alerts.SQLitePath = "data/alerts.db"
	}
	if c.Redis.Addr == "" {
		c.Redis.Addr = "localhost:6379"
	}

	if c.Schedule.RefreshCron == "" {
		c.Schedule.RefreshCron = "@every 60s"
	}
	if c.Schedule.RedisplayCron == "" {
		c.Schedule.RedisplayCron = "@every 15s"
	}
	if c.Schedule.TickTimeout == 0 {
		c.Schedule.TickTimeout = 45 * time.Second
	}
	if c.Database.SQLitePath == "" {
		c.Database.SQLitePath = "data/whale_sentinel.db"
	}
	if c.Metrics.Addr == "" {
		c.Metrics.Addr = ":9090"
	}
}

// Thresholds returns the rule thresholds carried by the config.
func (c *Config) Thresholds() strategy.Thresholds {
	return strategy.Thresholds{
		RSIOversold:      c.Strategy.RSIOversold,
		RSIOverbought:    c.Strategy.RSIOverbought,
		PriceDropPct:     c.Strategy.PriceDropPct,
		HighVolumeCutoff: c.Strategy.HighVolumeCutoff,
		HighVolumeFloor:  c.Strategy.HighVolumeFloor,
		BaseVolumeFloor:  c.Strategy.BaseVolumeFloor,
	}
}

// TelegramEnabled reports whether both Telegram credentials are set.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	if len(c.Exchange.Hosts) == 0 {
		return fmt.Errorf("exchange.hosts must not be empty")
	}
	if c.Exchange.Concurrency <= 0 {
		return fmt.Errorf("exchange.concurrency must be positive")
	}
	switch c.Strategy.Mode {
	case strategy.ModeOscillator, strategy.ModeVolume, strategy.ModeCombined:
	default:
		return fmt.Errorf("strategy.mode must be one of oscillator, volume, combined; got %q", c.Strategy.Mode)
	}
	if c.Strategy.Mode != strategy.ModeVolume && c.Exchange.CandleLimit < calculator.DefaultParams.MinBars() {
		return fmt.Errorf("exchange.candle_limit must be at least %d", calculator.DefaultParams.MinBars())
	}
	if c.Strategy.RSIOversold >= c.Strategy.RSIOverbought {
		return fmt.Errorf("strategy.rsi_oversold must be below rsi_overbought")
	}
	if c.Strategy.PriceDropPct >= 0 {
		return fmt.Errorf("strategy.price_drop_pct must be negative")
	}
	if c.Alerts.TTL <= 0 {
		return fmt.Errorf("alerts.ttl must be positive")
	}
	switch c.Alerts.Store {
	case StoreMemory, StoreFile, StoreSQLite, StoreRedis:
	default:
		return fmt.Errorf("alerts.store must be one of memory, file, sqlite, redis; got %q", c.Alerts.Store)
	}
	if c.Schedule.TickTimeout <= 0 {
		return fmt.Errorf("schedule.tick_timeout must be positive")
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"WhaleSentinel/internal/alertstore"
	"WhaleSentinel/internal/calculator"
	"WhaleSentinel/internal/collector"
	"WhaleSentinel/internal/config"
	"WhaleSentinel/internal/metrics"
	"WhaleSentinel/internal/notifier"
	"WhaleSentinel/internal/recorder"
	"WhaleSentinel/internal/scheduler"
	"WhaleSentinel/internal/strategy"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] WhaleSentinel starting...")

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init data source and collector
	source := collector.NewBinanceSource(cfg.Exchange.Hosts, cfg.Exchange.QuoteAsset, cfg.Proxy)
	log.Printf("[INFO] data source: %s (%d hosts)", source.Name(), len(cfg.Exchange.Hosts))
	col := collector.NewCollector(source, cfg.Exchange.Interval, cfg.Exchange.CandleLimit,
		cfg.Exchange.Concurrency, calculator.DefaultParams)
	col.Whitelist = cfg.Exchange.Whitelist
	col.MaxSymbols = cfg.Exchange.MaxSymbols

	rule, err := strategy.New(cfg.Strategy.Mode, cfg.Thresholds())
	if err != nil {
		log.Fatalf("[FATAL] init strategy: %v", err)
	}
	log.Printf("[INFO] strategy: %s", rule.Name())

	// Init alert store
	kv, closeKV, err := openKV(ctx, cfg)
	if err != nil {
		log.Fatalf("[FATAL] open alert store: %v", err)
	}
	defer closeKV()
	store, err := alertstore.NewStore(ctx, kv, cfg.Alerts.TTL)
	if err != nil {
		log.Fatalf("[FATAL] load alert store: %v", err)
	}
	log.Printf("[INFO] alert store: %s, %d alerts restored, ttl %v", cfg.Alerts.Store, store.Len(), store.TTL())

	// Init recorder
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	// Init presenters
	presenters := notifier.MultiPresenter{notifier.LogPresenter{}}
	var tn *notifier.TelegramNotifier
	if cfg.TelegramEnabled() {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
		presenters = append(presenters, notifier.NewTelegramPresenter(tn))
	}

	// Init metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)
	srv := &http.Server{Addr: cfg.Metrics.Addr, Handler: metricsMux(reg), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		log.Printf("[INFO] metrics listening on %s", cfg.Metrics.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("[ERROR] metrics server: %v", err)
		}
	}()

	// Init scheduler
	sched := scheduler.NewScheduler(ctx, col, rule, store, presenters, rec, m)
	sched.TickTimeout = cfg.Schedule.TickTimeout
	if err := sched.RegisterAll(cfg.Schedule.RefreshCron, cfg.Schedule.RedisplayCron); err != nil {
		log.Fatalf("[FATAL] register cron tasks: %v", err)
	}
	sched.Start()

	// Start Telegram polling
	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Println("[INFO] Telegram polling started")
	}

	// Optional: run immediately on start
	if os.Getenv("RUN_ON_START") == "true" {
		log.Println("[INFO] RUN_ON_START enabled, executing refresh now")
		go func() {
			if _, err := sched.RunTick(ctx); err != nil {
				log.Printf("[ERROR] initial tick: %v", err)
			}
		}()
	}

	log.Println("[INFO] WhaleSentinel is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[INFO] shutdown signal received, stopping...")
	cancel()
	sched.Stop()
	shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
	defer done()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[WARN] metrics server shutdown: %v", err)
	}
	log.Println("[INFO] WhaleSentinel stopped")
}

// openKV opens the configured alert persistence backend.
func openKV(ctx context.Context, cfg *config.Config) (alertstore.KV, func(), error) {
	noop := func() {}
	switch cfg.Alerts.Store {
	case config.StoreFile:
		kv, err := alertstore.NewFileKV(cfg.Alerts.FilePath)
		if err != nil {
			return nil, noop, err
		}
		return kv, noop, nil
	case config.StoreSQLite:
		kv, err := alertstore.NewSQLiteKV(cfg.Alerts.SQLitePath)
		if err != nil {
			return nil, noop, err
		}
		return kv, func() { kv.Close() }, nil
	case config.StoreRedis:
		client, err := alertstore.DialRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, noop, err
		}
		kv := alertstore.NewRedisKV(client, cfg.Redis.Prefix)
		return kv, func() { kv.Close() }, nil
	default:
		return alertstore.NewMemoryKV(), noop, nil
	}
}

func metricsMux(reg *prometheus.Registry) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(reg))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	return mux
}

package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"WhaleSentinel/internal/alertstore"
	"WhaleSentinel/internal/collector"
	"WhaleSentinel/internal/metrics"
	"WhaleSentinel/internal/model"
	"WhaleSentinel/internal/notifier"
	"WhaleSentinel/internal/recorder"
	"WhaleSentinel/internal/strategy"
)

// ErrTickInProgress is returned when a refresh is requested while one runs.
var ErrTickInProgress = errors.New("tick already in progress")

// TickReport summarizes one refresh tick.
type TickReport struct {
	RunID      uuid.UUID
	StartedAt  time.Time
	Duration   time.Duration
	Symbols    int
	Classified int
	Entries    int
	Exits      int
	Skipped    int
	Created    []string
	Expired    []string
	Transient  int
	Active     int
	Err        error
}

// Scheduler drives the refresh and redisplay jobs.
type Scheduler struct {
	Cron        *cron.Cron
	Collector   *collector.Collector
	Rule        strategy.Rule
	Store       *alertstore.Store
	Presenter   notifier.Presenter
	Recorder    recorder.Recorder
	Metrics     *metrics.Metrics // optional
	Ctx         context.Context
	TickTimeout time.Duration
	Now         func() time.Time

	tickMu   sync.Mutex // one refresh at a time
	renderMu sync.Mutex // orders renders; taken before mu, never under it

	mu        sync.Mutex // guards Store, transient and last
	transient []model.AlertView
	last      *TickReport
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, col *collector.Collector, rule strategy.Rule, store *alertstore.Store,
	presenter notifier.Presenter, rec recorder.Recorder, m *metrics.Metrics) *Scheduler {
	logger := cron.PrintfLogger(log.Default())
	return &Scheduler{
		Cron: cron.New(
			cron.WithSeconds(),
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		Collector:   col,
		Rule:        rule,
		Store:       store,
		Presenter:   presenter,
		Recorder:    rec,
		Metrics:     m,
		Ctx:         ctx,
		TickTimeout: 45 * time.Second,
		Now:         time.Now,
	}
}

// RegisterAll registers the refresh and redisplay jobs.
func (s *Scheduler) RegisterAll(refreshCron, redisplayCron string) error {
	if _, err := s.Cron.AddFunc(refreshCron, s.refreshJob); err != nil {
		return fmt.Errorf("register refresh job: %w", err)
	}
	if _, err := s.Cron.AddFunc(redisplayCron, s.redisplayJob); err != nil {
		return fmt.Errorf("register redisplay job: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler and waits for running jobs to return.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Println("[INFO] scheduler stopped")
}

func (s *Scheduler) refreshJob() {
	if _, err := s.RunTick(s.Ctx); err != nil {
		if errors.Is(err, ErrTickInProgress) {
			log.Println("[WARN] refresh skipped: previous tick still running")
			return
		}
		log.Printf("[ERROR] refresh tick: %v", err)
	}
}

func (s *Scheduler) redisplayJob() {
	if err := s.Redisplay(s.Ctx); err != nil {
		log.Printf("[ERROR] redisplay: %v", err)
	}
}

func (s *Scheduler) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// RunTick performs one refresh: list, collect, classify, apply, sweep, render.
// A listing failure aborts the tick without touching the store.
func (s *Scheduler) RunTick(ctx context.Context) (*TickReport, error) {
	if !s.tickMu.TryLock() {
		return nil, ErrTickInProgress
	}
	defer s.tickMu.Unlock()

	report := &TickReport{RunID: uuid.New(), StartedAt: s.now()}
	began := time.Now()

	fetchCtx := ctx
	if s.TickTimeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, s.TickTimeout)
		defer cancel()
	}

	tickers, err := s.Collector.ListSymbols(fetchCtx)
	if err != nil {
		report.Err = err
		report.Duration = time.Since(began)
		s.finish(report)
		s.mu.Lock()
		s.last = report
		s.mu.Unlock()
		return report, err
	}
	report.Symbols = len(tickers)

	snaps, failed := s.Collector.Collect(fetchCtx, tickers, s.Rule.NeedsIndicators())
	report.Skipped = len(failed)

	s.renderMu.Lock()
	defer s.renderMu.Unlock()

	s.mu.Lock()
	present := s.Store.Presence()
	classes := strategy.ClassifyAll(s.Rule, snaps, present)
	report.Classified = len(classes)

	now := s.now()
	s.transient = s.apply(ctx, report, classes, present, now)

	expired, err := s.Store.SweepExpired(ctx, now)
	if err != nil {
		log.Printf("[ERROR] sweep expired alerts: %v", err)
	}
	report.Expired = expired
	s.recordExpired(report.RunID, expired, now)

	report.Active = s.Store.Len()
	report.Transient = len(s.transient)
	views := s.views(now)
	s.mu.Unlock()

	s.render(ctx, views)

	report.Duration = time.Since(began)
	s.finish(report)
	s.mu.Lock()
	s.last = report
	s.mu.Unlock()
	return report, nil
}

// apply turns classifications into store mutations and returns the
// transient views for exits that have no record behind them.
func (s *Scheduler) apply(ctx context.Context, report *TickReport, classes []model.Classification,
	present strategy.Presence, now time.Time) []model.AlertView {
	var transient []model.AlertView
	for _, c := range classes {
		switch c.Kind {
		case model.KindEntry:
			report.Entries++
			created, err := s.Store.Create(ctx, c.Symbol, now)
			if err != nil {
				log.Printf("[ERROR] %v", err)
				continue
			}
			s.Store.Annotate(c.Symbol, model.KindEntry, c.Message)
			s.Store.SetRule(c.Symbol, c.Rule)
			if created {
				report.Created = append(report.Created, c.Symbol)
				log.Printf("[INFO] alert created: %s (%s)", c.Symbol, c.Rule)
				s.recordEvent(report.RunID, c.Symbol, recorder.EventCreated, c.Kind, c.Message, now)
			}
		case model.KindExit:
			report.Exits++
			if prev, ok := s.Store.Get(c.Symbol); ok && present.Has(c.Symbol) {
				s.Store.Annotate(c.Symbol, model.KindExit, c.Message)
				if prev.Kind != model.KindExit {
					s.recordEvent(report.RunID, c.Symbol, recorder.EventExit, c.Kind, c.Message, now)
				}
				continue
			}
			transient = append(transient, model.AlertView{
				Symbol:    c.Symbol,
				Message:   c.Message,
				Kind:      model.KindExit,
				AgeText:   notifier.FormatElapsed(0),
				CreatedAt: now,
				Transient: true,
			})
		}
		if s.Metrics != nil && c.Kind != model.KindNone {
			s.Metrics.Classifications.WithLabelValues(c.Kind.String()).Inc()
		}
	}
	return transient
}

// Redisplay sweeps expired records and re-renders with fresh age text.
func (s *Scheduler) Redisplay(ctx context.Context) error {
	s.renderMu.Lock()
	defer s.renderMu.Unlock()

	s.mu.Lock()
	now := s.now()
	expired, err := s.Store.SweepExpired(ctx, now)
	s.recordExpired(uuid.Nil, expired, now)
	if s.Metrics != nil {
		s.Metrics.AlertsActive.Set(float64(s.Store.Len()))
	}
	views := s.views(now)
	s.mu.Unlock()

	s.render(ctx, views)
	return err
}

// views returns the active records plus this tick's transient exits.
// Caller holds s.mu.
func (s *Scheduler) views(now time.Time) []model.AlertView {
	views := notifier.BuildViews(s.Store.Active(), now)
	for _, t := range s.transient {
		if s.Store.Has(t.Symbol) {
			continue
		}
		t.AgeText = notifier.FormatElapsed(now.Sub(t.CreatedAt))
		views = append(views, t)
	}
	return views
}

// render hands views to the presenter without holding s.mu, bounded by
// TickTimeout. Caller holds s.renderMu.
func (s *Scheduler) render(ctx context.Context, views []model.AlertView) {
	if s.TickTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.TickTimeout)
		defer cancel()
	}
	if err := s.Presenter.Render(ctx, views); err != nil {
		log.Printf("[ERROR] render alerts: %v", err)
	}
}

func (s *Scheduler) recordEvent(runID uuid.UUID, symbol, eventType string, kind model.SignalKind, msg string, at time.Time) {
	if err := s.Recorder.RecordAlertEvent(&recorder.AlertEvent{
		RunID:     runID,
		Symbol:    symbol,
		EventType: eventType,
		Kind:      kind,
		Message:   msg,
		At:        at,
	}); err != nil {
		log.Printf("[ERROR] record alert event: %v", err)
	}
}

func (s *Scheduler) recordExpired(runID uuid.UUID, symbols []string, at time.Time) {
	for _, sym := range symbols {
		log.Printf("[INFO] alert expired: %s", sym)
		s.recordEvent(runID, sym, recorder.EventExpired, model.KindNone, "", at)
	}
	if s.Metrics != nil {
		s.Metrics.AlertsExpired.Add(float64(len(symbols)))
	}
}

// finish logs the tick and records its summary and metrics.
func (s *Scheduler) finish(report *TickReport) {
	sum := &recorder.TickSummary{
		RunID:      report.RunID,
		StartedAt:  report.StartedAt,
		Duration:   report.Duration,
		Symbols:    report.Symbols,
		Classified: report.Classified,
		Entries:    report.Entries,
		Exits:      report.Exits,
		Skipped:    report.Skipped,
		Expired:    len(report.Expired),
		Active:     report.Active,
	}
	outcome := "ok"
	if report.Err != nil {
		outcome = "aborted"
		sum.Err = report.Err.Error()
		log.Printf("[ERROR] tick aborted: %v", report.Err)
	} else {
		log.Printf("[INFO] tick done in %v: %d symbols, %d entries, %d exits, %d skipped, %d expired, %d active",
			report.Duration.Round(time.Millisecond), report.Symbols, report.Entries, report.Exits,
			report.Skipped, len(report.Expired), report.Active)
	}
	if err := s.Recorder.RecordTick(sum); err != nil {
		log.Printf("[ERROR] record tick: %v", err)
	}

	if s.Metrics == nil {
		return
	}
	s.Metrics.Ticks.WithLabelValues(outcome).Inc()
	s.Metrics.TickDuration.Observe(report.Duration.Seconds())
	s.Metrics.SymbolFetchFailures.Add(float64(report.Skipped))
	s.Metrics.AlertsCreated.Add(float64(len(report.Created)))
	if report.Err == nil {
		s.Metrics.AlertsActive.Set(float64(report.Active))
	}
}

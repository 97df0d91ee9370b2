package notifier

import (
	"context"
	"errors"
	"log"
	"sync"

	"WhaleSentinel/internal/model"
)

// Presenter receives the full set of alerts to show after every tick.
type Presenter interface {
	Render(ctx context.Context, alerts []model.AlertView) error
	Clear(ctx context.Context) error
}

// LogPresenter writes the alert board to the process log.
type LogPresenter struct{}

func (LogPresenter) Render(_ context.Context, alerts []model.AlertView) error {
	log.Printf("[INFO] %d active alerts", len(alerts))
	for _, a := range alerts {
		log.Printf("[ALERT] %-6s %s (%s)", a.Kind, a.Message, a.AgeText)
	}
	return nil
}

func (LogPresenter) Clear(_ context.Context) error {
	log.Println("[INFO] alert board cleared")
	return nil
}

// TelegramPresenter pushes each alert to a chat once per symbol and kind.
// New alerts of one render are batched into as few messages as fit.
// A symbol that drops off the board is announced again when it returns.
type TelegramPresenter struct {
	Notifier   *TelegramNotifier
	MaxRetries int

	mu        sync.Mutex
	announced map[string]model.SignalKind
}

func NewTelegramPresenter(n *TelegramNotifier) *TelegramPresenter {
	return &TelegramPresenter{Notifier: n, MaxRetries: 3, announced: make(map[string]model.SignalKind)}
}

func (p *TelegramPresenter) Render(ctx context.Context, alerts []model.AlertView) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	seen := make(map[string]bool, len(alerts))
	var fresh []model.AlertView
	for _, a := range alerts {
		seen[a.Symbol] = true
		if kind, ok := p.announced[a.Symbol]; ok && kind == a.Kind {
			continue
		}
		fresh = append(fresh, a)
	}
	for sym := range p.announced {
		if !seen[sym] {
			delete(p.announced, sym)
		}
	}

	var errs []error
	for _, batch := range ChunkAlerts(fresh, maxMessageLen) {
		if err := p.Notifier.SendWithRetry(ctx, FormatAnnouncement(batch), p.MaxRetries); err != nil {
			errs = append(errs, err)
			continue
		}
		for _, a := range batch {
			p.announced[a.Symbol] = a.Kind
		}
	}
	return errors.Join(errs...)
}

func (p *TelegramPresenter) Clear(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.announced = make(map[string]model.SignalKind)
	return nil
}

// MultiPresenter fans out to several presenters.
type MultiPresenter []Presenter

func (m MultiPresenter) Render(ctx context.Context, alerts []model.AlertView) error {
	var errs []error
	for _, p := range m {
		if err := p.Render(ctx, alerts); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m MultiPresenter) Clear(ctx context.Context) error {
	var errs []error
	for _, p := range m {
		if err := p.Clear(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

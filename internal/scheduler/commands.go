package scheduler

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"WhaleSentinel/internal/model"
	"WhaleSentinel/internal/notifier"
	"WhaleSentinel/internal/recorder"
)

const helpText = "Available commands:\n" +
	"• /alerts - list active alerts\n" +
	"• /clear SYMBOL - remove an alert (/clear all removes every alert)\n" +
	"• /status - last tick summary\n" +
	"• /refresh - run a tick now"

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return helpText
	}
	// "/alerts@SomeBot" in group chats
	name, _, _ := strings.Cut(fields[0], "@")

	switch strings.ToLower(name) {
	case "/alerts":
		s.mu.Lock()
		defer s.mu.Unlock()
		return notifier.FormatAlertList(s.views(s.now()))
	case "/clear":
		if len(fields) < 2 {
			return "Usage: /clear SYMBOL"
		}
		return s.clear(strings.ToUpper(fields[1]))
	case "/status":
		s.mu.Lock()
		defer s.mu.Unlock()
		return formatStatus(s.last, s.Store.Len(), s.now())
	case "/refresh":
		report, err := s.RunTick(s.Ctx)
		if errors.Is(err, ErrTickInProgress) {
			return "⏳ A refresh is already running"
		}
		if err != nil {
			return fmt.Sprintf("❌ Refresh failed: %v", err)
		}
		return formatStatus(report, report.Active, s.now())
	default:
		return helpText
	}
}

func (s *Scheduler) clear(symbol string) string {
	s.renderMu.Lock()
	defer s.renderMu.Unlock()

	s.mu.Lock()
	now := s.now()
	var targets []string
	if symbol == "ALL" {
		for _, r := range s.Store.Active() {
			targets = append(targets, r.Symbol)
		}
	} else {
		if !s.Store.Has(symbol) {
			s.mu.Unlock()
			return fmt.Sprintf("No active alert for %s", symbol)
		}
		targets = []string{symbol}
	}

	var cleared []string
	for _, sym := range targets {
		if err := s.Store.Remove(s.Ctx, sym); err != nil {
			log.Printf("[ERROR] %v", err)
			continue
		}
		cleared = append(cleared, sym)
		s.recordEvent(uuid.Nil, sym, recorder.EventCleared, model.KindNone, "", now)
	}
	if s.Metrics != nil {
		s.Metrics.AlertsActive.Set(float64(s.Store.Len()))
	}
	if symbol == "ALL" {
		s.transient = nil
	}
	views := s.views(now)
	s.mu.Unlock()

	if symbol == "ALL" {
		if err := s.Presenter.Clear(s.Ctx); err != nil {
			log.Printf("[ERROR] clear presenter: %v", err)
		}
	}
	s.render(s.Ctx, views)

	if len(cleared) == 0 {
		if symbol == "ALL" {
			return "No active alerts"
		}
		return fmt.Sprintf("❌ Failed to clear %s", symbol)
	}
	return fmt.Sprintf("🧹 Cleared %s", strings.Join(cleared, ", "))
}

func formatStatus(r *TickReport, active int, now time.Time) string {
	if r == nil {
		return fmt.Sprintf("📊 No tick has run yet\nActive alerts: %d", active)
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📊 <b>Last tick</b> %s (%v)\n",
		notifier.FormatElapsed(now.Sub(r.StartedAt)), r.Duration.Round(time.Millisecond)))
	if r.Err != nil {
		b.WriteString(fmt.Sprintf("❌ Aborted: %v\n", r.Err))
	}
	b.WriteString(fmt.Sprintf("Symbols: %d, classified %d, skipped %d\n", r.Symbols, r.Classified, r.Skipped))
	b.WriteString(fmt.Sprintf("Entries: %d (new %d), exits %d, expired %d\n",
		r.Entries, len(r.Created), r.Exits, len(r.Expired)))
	b.WriteString(fmt.Sprintf("Active alerts: %d", active))
	return b.String()
}

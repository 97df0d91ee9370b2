package notifier

import (
	"fmt"
	"html"
	"strings"
	"time"

	"WhaleSentinel/internal/model"
)

// FormatElapsed renders how long ago something happened:
// under a minute "just now", then minutes, hours, and whole days.
func FormatElapsed(d time.Duration) string {
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return plural(int(d/time.Minute), "minute")
	case d < 24*time.Hour:
		return plural(int(d/time.Hour), "hour")
	default:
		return plural(int(d/(24*time.Hour)), "day")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s ago", unit)
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}

// RestoredMessage is shown for records loaded from storage before any
// classification has described them in this process.
func RestoredMessage(symbol string) string {
	return fmt.Sprintf("🔔 Active alert: %s", symbol)
}

// BuildViews turns records into presentable views aged at now.
func BuildViews(records []model.AlertRecord, now time.Time) []model.AlertView {
	views := make([]model.AlertView, 0, len(records))
	for _, r := range records {
		msg := r.Message
		if msg == "" {
			msg = RestoredMessage(r.Symbol)
		}
		views = append(views, model.AlertView{
			Symbol:    r.Symbol,
			Message:   msg,
			Kind:      r.Kind,
			AgeText:   FormatElapsed(now.Sub(r.CreatedAt)),
			CreatedAt: r.CreatedAt,
		})
	}
	return views
}

// FormatAlert renders one view as a single line.
func FormatAlert(v model.AlertView) string {
	return fmt.Sprintf("%s <i>(%s)</i>", html.EscapeString(v.Message), v.AgeText)
}

// maxMessageLen keeps a batch, header included, under Telegram's 4096 limit.
const maxMessageLen = 3900

// ChunkAlerts splits views into batches whose rendered lines fit in limit
// bytes. A single oversized line still gets its own batch.
func ChunkAlerts(views []model.AlertView, limit int) [][]model.AlertView {
	var (
		chunks [][]model.AlertView
		cur    []model.AlertView
		size   int
	)
	for _, v := range views {
		n := len(FormatAlert(v)) + 1
		if len(cur) > 0 && size+n > limit {
			chunks = append(chunks, cur)
			cur, size = nil, 0
		}
		cur = append(cur, v)
		size += n
	}
	if len(cur) > 0 {
		chunks = append(chunks, cur)
	}
	return chunks
}

// FormatAnnouncement renders newly raised alerts as one message.
func FormatAnnouncement(views []model.AlertView) string {
	if len(views) == 1 {
		return FormatAlert(views[0])
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🐋 <b>%d new alerts</b>\n\n", len(views)))
	for _, v := range views {
		b.WriteString(FormatAlert(v))
		b.WriteString("\n")
	}
	return b.String()
}

// FormatAlertList renders the active alerts for a chat reply.
func FormatAlertList(views []model.AlertView) string {
	if len(views) == 0 {
		return "🐋 <b>No active alerts</b>"
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🐋 <b>Active alerts</b> (%d)\n\n", len(views)))
	for _, v := range views {
		b.WriteString(FormatAlert(v))
		b.WriteString("\n")
	}
	return b.String()
}

package telegram

import (
	"fmt"
	"html"
	"strings"

	"github.com/pfrederiksen/buchloe-events/internal/event"
)

var (
	weekdays = [...]string{"So.", "Mo.", "Di.", "Mi.", "Do.", "Fr.", "Sa."}
	months   = [...]string{"", "Januar", "Februar", "März", "April", "Mai", "Juni",
		"Juli", "August", "September", "Oktober", "November", "Dezember"}
)

// FormatWhen renders the start and end of an event the way the town
// calendar shows it, e.g. "Di., 17.06.2025, 19:00 bis 22:00 Uhr".
func FormatWhen(evt event.Event) string {
	start := evt.Start.Time(nil)
	text := fmt.Sprintf("%s, %s", weekdays[start.Weekday()], start.Format("02.01.2006"))
	if !evt.Start.HasTime() {
		return text
	}

	text += ", " + start.Format("15:04")
	if evt.End.HasTime() && !evt.End.Equal(evt.Start) {
		text += " bis " + evt.End.Time(nil).Format("15:04")
	}
	return text + " Uhr"
}

// FormatEvent formats a single new event as a Telegram message
func FormatEvent(evt event.Event) string {
	var msg strings.Builder

	msg.WriteString("📅 <b>Neue Veranstaltung in Buchloe</b>\n\n")
	msg.WriteString(fmt.Sprintf("<b>%s</b>\n", html.EscapeString(event.CleanTitle(evt.Title))))
	msg.WriteString(fmt.Sprintf("🕖 %s\n", FormatWhen(evt)))

	if loc := event.CleanLocation(evt.Location); loc != "" {
		msg.WriteString(fmt.Sprintf("📍 %s\n", html.EscapeString(loc)))
	}

	if evt.URL != "" {
		msg.WriteString(fmt.Sprintf("\n🔗 <a href=\"%s\">Details</a>", html.EscapeString(evt.URL)))
	}

	return strings.TrimRight(msg.String(), "\n")
}

// FormatRemoved formats an event that disappeared from the listing
func FormatRemoved(evt event.Event) string {
	return fmt.Sprintf("❌ <b>Veranstaltung entfernt</b>\n\n<s>%s</s>\n🕖 %s",
		html.EscapeString(event.CleanTitle(evt.Title)), FormatWhen(evt))
}

// FormatDigest formats all changes of a run as one message, new events
// grouped by month in listing order.
func FormatDigest(result *event.DiffResult) string {
	if result == nil || !result.Changed() {
		return "Keine Änderungen im Veranstaltungskalender."
	}

	msg := "📬 <b>Buchloer Veranstaltungskalender</b>\n"
	msg += fmt.Sprintf("%d neu, %d entfernt\n", len(result.Added), len(result.Removed))

	var month string
	for _, evt := range result.Added {
		start := evt.Start.Time(nil)
		if m := fmt.Sprintf("%s %d", months[start.Month()], start.Year()); m != month {
			month = m
			msg += fmt.Sprintf("\n<b>%s</b>\n", month)
		}
		msg += fmt.Sprintf("  • %s: %s", start.Format("02.01."), html.EscapeString(event.CleanTitle(evt.Title)))
		if loc := event.CleanLocation(evt.Location); loc != "" {
			msg += fmt.Sprintf(" (%s)", html.EscapeString(loc))
		}
		msg += "\n"
	}

	if len(result.Removed) > 0 {
		msg += "\n<b>Entfernt</b>\n"
		for _, evt := range result.Removed {
			msg += fmt.Sprintf("  • <s>%s</s> (%s)\n", html.EscapeString(event.CleanTitle(evt.Title)), evt.Start.Time(nil).Format("02.01.2006"))
		}
	}

	return strings.TrimRight(msg, "\n")
}

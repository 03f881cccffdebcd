package notifier

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/pfrederiksen/buchloe-events/internal/event"
)

// DryRunNotifier prints the report without logging or persisting anything
type DryRunNotifier struct {
	w io.Writer
}

// NewDryRunNotifier creates a new dry-run notifier writing to w (stdout if nil)
func NewDryRunNotifier(w io.Writer) *DryRunNotifier {
	if w == nil {
		w = os.Stdout
	}
	return &DryRunNotifier{w: w}
}

// Notify prints the added and removed events
func (n *DryRunNotifier) Notify(_ context.Context, result *event.DiffResult) error {
	if result == nil || !result.Changed() {
		_, err := fmt.Fprintln(n.w, "No changes since last scrape.")
		return err
	}

	if err := printSection(n.w, "New", result.Added); err != nil {
		return err
	}
	return printSection(n.w, "Removed", result.Removed)
}

func printSection(w io.Writer, label string, events []event.Event) error {
	for i, evt := range events {
		if _, err := fmt.Fprintf(w, "--- %s event %d/%d ---\n", label, i+1, len(events)); err != nil {
			return err
		}
		fmt.Fprintln(w, formatEvent(evt))
		fmt.Fprintln(w)
	}
	return nil
}

// formatEvent renders an event as a short multi-line block
func formatEvent(evt event.Event) string {
	text := event.CleanTitle(evt.Title) + "\n"
	text += fmt.Sprintf("Wann: %s", evt.Start)
	if !evt.End.Equal(evt.Start) {
		text += fmt.Sprintf(" bis %s", evt.End)
	}
	text += "\n"

	if loc := event.CleanLocation(evt.Location); loc != "" {
		text += fmt.Sprintf("Wo: %s\n", loc)
	}
	if evt.URL != "" {
		text += fmt.Sprintf("Link: %s\n", evt.URL)
	}
	return text[:len(text)-1]
}

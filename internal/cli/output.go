package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/pfrederiksen/buchloe-events/internal/event"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

// ParseOutputFormat validates a --format value
func ParseOutputFormat(s string) (OutputFormat, error) {
	format := OutputFormat(s)
	if format != FormatText && format != FormatJSON {
		return "", fmt.Errorf("invalid format: %s (must be 'text' or 'json')", s)
	}
	return format, nil
}

// OutputResult contains data to be output
type OutputResult struct {
	CheckedAt     time.Time     `json:"checked_at"`
	NewEvents     []event.Event `json:"new_events"`
	RemovedEvents []event.Event `json:"removed_events"`
	EventCount    int           `json:"event_count"`
	TotalEvents   int           `json:"total_events"`
	Filter        string        `json:"filter,omitempty"`
	ShowAll       bool          `json:"show_all,omitempty"`
}

// WriteOutput writes the result in the specified format
func WriteOutput(w io.Writer, result *OutputResult, format OutputFormat, verbose bool) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, result)
	case FormatText:
		return writeText(w, result, verbose)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// writeJSON outputs results as JSON
func writeJSON(w io.Writer, result *OutputResult) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

// writeText outputs results as human-readable text
func writeText(w io.Writer, result *OutputResult, verbose bool) error {
	eventLabel := "new"
	eventPrefix := "NEW"
	if result.ShowAll {
		eventLabel = "events"
		eventPrefix = ""
	}

	if result.Filter != "" {
		fmt.Fprintf(w, "Filter: %s\n", result.Filter)
	}

	if result.EventCount == 0 && len(result.RemovedEvents) == 0 {
		if result.ShowAll {
			fmt.Fprintln(w, "No events found.")
		} else {
			fmt.Fprintln(w, "No new events found.")
		}
		return nil
	}

	for _, evt := range result.NewEvents {
		if eventPrefix != "" {
			fmt.Fprintf(w, "%s: %s\n", eventPrefix, evt)
		} else {
			fmt.Fprintf(w, "%s\n", evt)
		}
		if verbose {
			writeDetails(w, evt)
		}
	}
	for _, evt := range result.RemovedEvents {
		fmt.Fprintf(w, "REMOVED: %s\n", evt)
		if verbose {
			writeDetails(w, evt)
		}
	}

	fmt.Fprintf(w, "\nTotal: %d %s", result.EventCount, eventLabel)
	if len(result.RemovedEvents) > 0 {
		fmt.Fprintf(w, ", %d removed", len(result.RemovedEvents))
	}
	fmt.Fprintf(w, " (%d events in calendar)\n", result.TotalEvents)
	return nil
}

func writeDetails(w io.Writer, evt event.Event) {
	fmt.Fprintf(w, "     ID: %s\n", evt.Key().ID())
	if !evt.End.Equal(evt.Start) {
		fmt.Fprintf(w, "     Ends: %s\n", evt.End)
	}
	if evt.URL != "" {
		fmt.Fprintf(w, "     URL: %s\n", evt.URL)
	}
	if evt.Description != "" {
		fmt.Fprintf(w, "     %s\n", event.CleanDescription(evt.Description))
	}
}

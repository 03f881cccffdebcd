package notifier

import (
	"context"
	"fmt"

	"github.com/pfrederiksen/buchloe-events/internal/event"
	"github.com/pfrederiksen/buchloe-events/internal/logger"
)

// LogNotifier writes the run report to a logger
type LogNotifier struct {
	log *logger.Logger
}

// NewLogNotifier creates a notifier logging to l, or to the package default
// logger when l is nil.
func NewLogNotifier(l *logger.Logger) *LogNotifier {
	return &LogNotifier{log: l}
}

func (n *LogNotifier) logger() *logger.Logger {
	if n.log != nil {
		return n.log
	}
	return logger.Default()
}

// Notify logs one line per added and removed event
func (n *LogNotifier) Notify(_ context.Context, result *event.DiffResult) error {
	log := n.logger()
	if result == nil || !result.Changed() {
		log.Info("No new events found since last scrape.", nil)
		return nil
	}

	if len(result.Added) > 0 {
		log.Info(fmt.Sprintf("Found %d new events:", len(result.Added)), nil)
		for _, evt := range result.Added {
			log.Info("- "+evt.String(), nil)
		}
	} else {
		log.Info("No new events found since last scrape.", nil)
	}

	if len(result.Removed) > 0 {
		log.Info(fmt.Sprintf("Found %d removed events:", len(result.Removed)), nil)
		for _, evt := range result.Removed {
			log.Info(fmt.Sprintf("- %s was removed (previously scheduled for %s)", describe(evt), evt.Start), nil)
		}
	}
	return nil
}

func describe(evt event.Event) string {
	if evt.Location == "" {
		return evt.Title
	}
	return evt.Title + " at " + evt.Location
}

package notifier

import (
	"context"

	"github.com/pfrederiksen/buchloe-events/internal/event"
)

// Notifier defines the interface for reporting event changes
type Notifier interface {
	// Notify reports the added and removed events of one run
	Notify(ctx context.Context, result *event.DiffResult) error
}

// Multi fans a report out to several notifiers and returns the first error.
type Multi []Notifier

// Notify calls every notifier in order, even after a failure.
func (m Multi) Notify(ctx context.Context, result *event.DiffResult) error {
	var first error
	for _, n := range m {
		if err := n.Notify(ctx, result); err != nil && first == nil {
			first = err
		}
	}
	return first
}

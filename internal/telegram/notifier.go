package telegram

import (
	"context"
	"fmt"
	"time"

	"github.com/pfrederiksen/buchloe-events/internal/event"
	"github.com/pfrederiksen/buchloe-events/internal/logger"
)

const (
	// DefaultDigestThreshold is the number of changes above which a run is
	// sent as a single digest.
	DefaultDigestThreshold = 5
	messageDelay           = time.Second
)

// Sender delivers one message
type Sender interface {
	SendMessage(ctx context.Context, text string) error
}

// Notifier posts the changes of a run to Telegram
type Notifier struct {
	sender          Sender
	log             *logger.Logger
	digestThreshold int
	delay           time.Duration
}

// NewNotifier creates a Telegram notifier. A threshold <= 0 uses
// DefaultDigestThreshold.
func NewNotifier(sender Sender, digestThreshold int, log *logger.Logger) *Notifier {
	if digestThreshold <= 0 {
		digestThreshold = DefaultDigestThreshold
	}
	if log == nil {
		log = logger.Default()
	}
	return &Notifier{
		sender:          sender,
		log:             log,
		digestThreshold: digestThreshold,
		delay:           messageDelay,
	}
}

// Notify sends nothing when there are no changes, a digest for large
// changes and one message per event otherwise. It stops at the first
// failed message or when ctx is done.
func (n *Notifier) Notify(ctx context.Context, result *event.DiffResult) error {
	if result == nil || !result.Changed() {
		return nil
	}

	total := len(result.Added) + len(result.Removed)
	if total > n.digestThreshold {
		if err := n.sender.SendMessage(ctx, FormatDigest(result)); err != nil {
			return fmt.Errorf("sending digest: %w", err)
		}
		n.log.Info("Sent Telegram digest", logger.Fields{"changes": total})
		return nil
	}

	messages := make([]string, 0, total)
	for _, evt := range result.Added {
		messages = append(messages, FormatEvent(evt))
	}
	for _, evt := range result.Removed {
		messages = append(messages, FormatRemoved(evt))
	}

	for i, msg := range messages {
		if err := n.sender.SendMessage(ctx, msg); err != nil {
			return fmt.Errorf("sending message %d/%d: %w", i+1, len(messages), err)
		}

		// Rate limiting: wait between messages
		if i < len(messages)-1 && n.delay > 0 {
			if err := n.wait(ctx); err != nil {
				return fmt.Errorf("sent %d/%d messages: %w", i+1, len(messages), err)
			}
		}
	}
	n.log.Info("Sent Telegram messages", logger.Fields{"messages": len(messages)})
	return nil
}

func (n *Notifier) wait(ctx context.Context) error {
	timer := time.NewTimer(n.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

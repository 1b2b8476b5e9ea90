// Package notify delivers alert text to external channels. Alerts are fanned
// out to every registered sender (Telegram, Discord, Redis, the dashboard
// hub); a failing sender never blocks the others and is never retried.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/alanyoungcy/whalebot/internal/metrics"
)

// Sender is the interface that each notification channel must implement.
// Implementations must be safe for concurrent use.
type Sender interface {
	// Send delivers one rendered alert.
	Send(ctx context.Context, text string) error
	// Name returns a human-readable identifier for the sender (e.g. "telegram").
	Name() string
}

// Notifier dispatches alert text to one or more Senders.
type Notifier struct {
	senders []Sender
	logger  *slog.Logger
}

// NewNotifier creates a Notifier that will deliver to the given senders.
func NewNotifier(senders []Sender, logger *slog.Logger) *Notifier {
	return &Notifier{
		senders: senders,
		logger:  logger.With(slog.String("component", "notifier")),
	}
}

// Senders returns the names of the registered senders.
func (n *Notifier) Senders() []string {
	names := make([]string, 0, len(n.senders))
	for _, s := range n.senders {
		names = append(names, s.Name())
	}
	return names
}

// Notify sends text to every sender. Errors from individual senders are
// logged, counted, and returned as a combined error; a single sender failure
// does not prevent delivery to the remaining senders.
func (n *Notifier) Notify(ctx context.Context, text string) error {
	if len(n.senders) == 0 {
		return nil
	}

	var errs []string
	for _, s := range n.senders {
		if err := s.Send(ctx, text); err != nil {
			metrics.NotifyFailures.WithLabelValues(s.Name()).Inc()
			n.logger.ErrorContext(ctx, "sender failed",
				slog.String("sender", s.Name()),
				slog.String("error", err.Error()),
			)
			errs = append(errs, fmt.Sprintf("%s: %v", s.Name(), err))
		} else {
			n.logger.DebugContext(ctx, "notification sent",
				slog.String("sender", s.Name()),
			)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("notify: %d sender(s) failed: %s", len(errs), strings.Join(errs, "; "))
	}
	return nil
}

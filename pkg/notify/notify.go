package notify

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/gridpool/gridpool/pkg/log"
	"github.com/gridpool/gridpool/pkg/types"
)

// Notifier hands a job notification off toward its recipient.
// Delivery guarantees are the downstream system's concern: a failed
// handoff is logged by the caller and never rolls back the scheduling
// decision that produced it.
type Notifier interface {
	Notify(ctx context.Context, ev *types.NotificationEvent) error
}

// LogNotifier writes notifications to the structured log. It is the
// default sink for single-binary deployments without a message bus.
type LogNotifier struct {
	logger zerolog.Logger
}

// NewLogNotifier creates a log-backed notifier.
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{logger: log.WithComponent("notify")}
}

// Notify logs the notification.
func (n *LogNotifier) Notify(ctx context.Context, ev *types.NotificationEvent) error {
	n.logger.Info().
		Str("recipient", ev.RecipientNetID).
		Str("state", string(ev.State)).
		Str("date", ev.Date.Format(time.DateOnly)).
		Str("message", ev.Message).
		Msg("job notification")
	return nil
}

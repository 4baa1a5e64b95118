package notify

import (
	"context"
	"log/slog"

	"bookline/internal/usecase/commands"
)

// LogDispatcher stands in when no mail relay is configured: every send
// becomes a structured log line. Useful in development and in tests that
// assert on engine behavior rather than transport.
type LogDispatcher struct{}

func NewLogDispatcher() commands.Dispatcher {
	return &LogDispatcher{}
}

func (d *LogDispatcher) Send(_ context.Context, channel, recipient, subject, _ string) error {
	slog.Info("notification dispatched",
		"channel", channel,
		"recipient", recipient,
		"subject", subject)
	return nil
}

package commands

import (
	"context"

	"bookline/internal/domain/automation"
)

// Dispatcher is the outbound notification transport. Concrete email/SMS
// providers live outside the core; delivery guarantees end at this call.
type Dispatcher interface {
	Send(ctx context.Context, channel, recipient, subject, body string) error
}

// EventPublisher hands a lifecycle event off for asynchronous handling so
// notification work never sits on the caller's critical path.
type EventPublisher interface {
	Publish(event automation.Event)
}

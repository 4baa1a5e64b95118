package events

import (
	"context"
	"log/slog"
	"sync"

	"bookline/internal/domain/automation"
)

// Bus decouples event handling from the emitting request: publishing never
// blocks and handler failures are an operational concern, not the
// caller's. Delivery guarantees beyond the process live in the
// scheduled_triggers and delivery_records tables, so a dropped in-flight
// event on shutdown loses at most an immediate notification attempt.
type Bus struct {
	ch      chan automation.Event
	handler func(ctx context.Context, event automation.Event) error

	startOnce sync.Once
	stopOnce  sync.Once
	done      chan struct{}
	stopped   chan struct{}
}

func NewBus(size int, handler func(ctx context.Context, event automation.Event) error) *Bus {
	if size <= 0 {
		size = 64
	}
	return &Bus{
		ch:      make(chan automation.Event, size),
		handler: handler,
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

func (b *Bus) Publish(event automation.Event) {
	select {
	case b.ch <- event:
	default:
		slog.Error("event buffer full, dropping event",
			"event_type", event.Type, "entity_id", event.EntityID)
	}
}

func (b *Bus) Start() {
	b.startOnce.Do(func() {
		go b.run()
	})
}

func (b *Bus) Stop(ctx context.Context) error {
	b.stopOnce.Do(func() {
		close(b.done)
	})
	select {
	case <-b.stopped:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *Bus) run() {
	defer close(b.stopped)
	for {
		select {
		case event := <-b.ch:
			b.handle(event)
		case <-b.done:
			// Drain what is already buffered before shutting down.
			for {
				select {
				case event := <-b.ch:
					b.handle(event)
				default:
					return
				}
			}
		}
	}
}

func (b *Bus) handle(event automation.Event) {
	if err := b.handler(context.Background(), event); err != nil {
		slog.Error("event handling failed",
			"event_type", event.Type,
			"entity_id", event.EntityID,
			"error", err.Error())
	}
}

package components

import (
	"context"

	"bookline/internal/events"
	"bookline/internal/pkg/config"
	"bookline/internal/usecase/commands"

	"go.uber.org/fx"
)

var EventsModule = fx.Module("events",
	fx.Provide(
		fx.Annotate(
			NewEventBus,
			fx.As(new(commands.EventPublisher)),
		),
	),
)

func NewEventBus(lc fx.Lifecycle, cfg config.Config, engine commands.AutomationCommands) *events.Bus {
	bus := events.NewBus(cfg.Booking.EventBuffer, engine.EmitEvent)

	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			bus.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return bus.Stop(ctx)
		},
	})
	return bus
}

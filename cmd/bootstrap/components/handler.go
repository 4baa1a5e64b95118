package components

import (
	"bookline/internal/handler"
	"bookline/internal/handler/api"

	"go.uber.org/fx"
)

var HandlerModule = fx.Module("handler",
	fx.Provide(
		api.NewBookingHandler,
		api.NewAvailabilityHandler,
		api.NewAutomationHandler,
		api.NewInventoryHandler,
	),
	fx.Invoke(handler.NewRouter),
)

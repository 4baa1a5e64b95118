package components

import (
	"bookline/internal/infra/notify"
	"bookline/internal/pkg/clock"
	"bookline/internal/pkg/config"
	"bookline/internal/usecase/commands"
	"bookline/internal/usecase/queries"

	"go.uber.org/fx"
)

var UseCaseModule = fx.Module("usecase",
	usecaseBaseOption,
	usecaseQueriesModule,
	usecaseCommandsModule,
)

var usecaseBaseOption = fx.Provide(
	clock.NewRealClock,
	NewDispatcher,
)

// NewDispatcher falls back to log-only delivery when no relay is
// configured, so development setups work without SMTP.
func NewDispatcher(cfg config.Config) commands.Dispatcher {
	if cfg.Mail.Host == "" {
		return notify.NewLogDispatcher()
	}
	return notify.NewSMTPDispatcher(cfg)
}

var usecaseCommandsModule = fx.Module("usecase/commands",
	fx.Provide(
		commands.NewAutomationCommands,
		commands.NewBookingCommands,
		commands.NewInventoryCommands,
	),
)

var usecaseQueriesModule = fx.Module("usecase/queries",
	fx.Provide(
		queries.NewAvailabilityQueries,
		queries.NewBookingQueries,
	),
)

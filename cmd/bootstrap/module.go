package bootstrap

import (
	"bookline/cmd/bootstrap/components"

	"go.uber.org/fx"
)

var Module = fx.Options(
	ConfigModule,
	DBModule,
	components.RepositoryModule,
	components.UseCaseModule,
	components.EventsModule,
	components.WorkerModule,
	components.HandlerModule,
)

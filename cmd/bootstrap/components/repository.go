package components

import (
	"bookline/internal/infra/db"
	"bookline/internal/infra/readstore"
	repo_impl "bookline/internal/infra/repository"
	"bookline/internal/infra/uow"
	"bookline/internal/usecase/shared"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"
)

var RepositoryModule = fx.Module("repository",
	fx.Provide(
		NewDBTX,
		uow.NewPostgresUoW,
		repo_impl.NewTriggerRepository,
		repo_impl.NewDeliveryRepository,
		fx.Annotate(
			readstore.NewCommandReadStore,
			fx.As(new(shared.CommandReads)),
		),
		// Read-side stores for queries
		readstore.NewAvailabilityReadStore,
		readstore.NewBookingReadStore,
	),
)

func NewDBTX(pool *pgxpool.Pool) db.DBTX {
	return pool
}

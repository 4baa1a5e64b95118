package repository

import (
	"context"
	"time"

	"bookline/internal/infra"
	"bookline/internal/infra/db"
	"bookline/internal/usecase/shared"

	"github.com/google/uuid"
)

type DeliveryRepository struct {
	db db.DBTX
}

func NewDeliveryRepository(dbtx db.DBTX) shared.DeliveryRepository {
	return &DeliveryRepository{db: dbtx}
}

// TryInsert records a delivery iff no record with the same dedup key
// exists. ON CONFLICT DO NOTHING keeps the check-and-insert atomic, so
// concurrent senders of the same notification cannot both observe
// "not delivered yet".
func (r *DeliveryRepository) TryInsert(ctx context.Context, dedupKey, eventType string, entityID uuid.UUID, templateType, recipient string, sentAt time.Time) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`INSERT INTO delivery_records (id, dedup_key, event_type, entity_id, template_type, recipient, sent_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (dedup_key) DO NOTHING`,
		uuid.New(), dedupKey, eventType, entityID, templateType, recipient, sentAt,
	)
	if err != nil {
		return false, infra.WrapRepoErr("failed to insert delivery record", err)
	}
	return tag.RowsAffected() == 1, nil
}

// Delete removes a record after a failed send. Without this, the dedup
// key would make every retry of the same notification a silent no-op.
func (r *DeliveryRepository) Delete(ctx context.Context, dedupKey string) error {
	_, err := r.db.Exec(ctx,
		`DELETE FROM delivery_records WHERE dedup_key = $1`,
		dedupKey,
	)
	if err != nil {
		return infra.WrapRepoErr("failed to delete delivery record", err)
	}
	return nil
}

package repository

import (
	"context"
	"time"

	"bookline/internal/infra"
	"bookline/internal/infra/db"
	"bookline/internal/usecase/shared"

	"github.com/google/uuid"
)

type TriggerRepository struct {
	db db.DBTX
}

func NewTriggerRepository(dbtx db.DBTX) shared.TriggerRepository {
	return &TriggerRepository{db: dbtx}
}

func (r *TriggerRepository) Create(ctx context.Context, t shared.TriggerRecord) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO scheduled_triggers
		   (id, fire_at, event_type, entity_id, template_type, recipient, payload, status, attempts)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 0)`,
		t.ID, t.FireAt, t.EventType, t.EntityID, t.TemplateType, t.Recipient, t.Payload, t.Status,
	)
	if err != nil {
		return infra.WrapRepoErr("failed to insert scheduled trigger", err)
	}
	return nil
}

func (r *TriggerRepository) ListDue(ctx context.Context, now time.Time, limit int) ([]shared.TriggerRecord, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, fire_at, event_type, entity_id, template_type, recipient, payload, status, attempts, last_error
		 FROM scheduled_triggers
		 WHERE status = 'pending' AND fire_at <= $1
		 ORDER BY fire_at
		 LIMIT $2`,
		now, limit,
	)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list due triggers", err)
	}
	defer rows.Close()

	var records []shared.TriggerRecord
	for rows.Next() {
		var t shared.TriggerRecord
		if err := rows.Scan(&t.ID, &t.FireAt, &t.EventType, &t.EntityID, &t.TemplateType,
			&t.Recipient, &t.Payload, &t.Status, &t.Attempts, &t.LastError); err != nil {
			return nil, infra.WrapRepoErr("failed to scan trigger row", err)
		}
		records = append(records, t)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to read trigger rows", err)
	}
	return records, nil
}

// Claim is the only pending→processing edge. The status guard in the
// WHERE clause makes it atomic: of N workers racing on one trigger,
// exactly one sees RowsAffected == 1.
func (r *TriggerRepository) Claim(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE scheduled_triggers SET status = 'processing', updated_at = now()
		 WHERE id = $1 AND status = 'pending'`,
		id,
	)
	if err != nil {
		return false, infra.WrapRepoErr("failed to claim trigger", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *TriggerRepository) MarkSent(ctx context.Context, id uuid.UUID) error {
	return r.setStatus(ctx, id, shared.TriggerStatusSent)
}

func (r *TriggerRepository) MarkSkipped(ctx context.Context, id uuid.UUID) error {
	return r.setStatus(ctx, id, shared.TriggerStatusSkipped)
}

func (r *TriggerRepository) MarkFailed(ctx context.Context, id uuid.UUID, attempts int32, lastError string) error {
	_, err := r.db.Exec(ctx,
		`UPDATE scheduled_triggers
		 SET status = 'failed', attempts = $2, last_error = $3, updated_at = now()
		 WHERE id = $1`,
		id, attempts, lastError,
	)
	if err != nil {
		return infra.WrapRepoErr("failed to mark trigger failed", err)
	}
	return nil
}

func (r *TriggerRepository) Requeue(ctx context.Context, id uuid.UUID, fireAt time.Time, attempts int32, lastError string) error {
	_, err := r.db.Exec(ctx,
		`UPDATE scheduled_triggers
		 SET status = 'pending', fire_at = $2, attempts = $3, last_error = $4, updated_at = now()
		 WHERE id = $1`,
		id, fireAt, attempts, lastError,
	)
	if err != nil {
		return infra.WrapRepoErr("failed to requeue trigger", err)
	}
	return nil
}

func (r *TriggerRepository) setStatus(ctx context.Context, id uuid.UUID, status string) error {
	_, err := r.db.Exec(ctx,
		`UPDATE scheduled_triggers SET status = $2, updated_at = now() WHERE id = $1`,
		id, status,
	)
	if err != nil {
		return infra.WrapRepoErr("failed to update trigger status", err)
	}
	return nil
}

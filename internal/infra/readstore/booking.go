package readstore

import (
	"context"

	"bookline/internal/infra"
	"bookline/internal/infra/db"
	"bookline/internal/usecase/queries"

	"github.com/google/uuid"
)

type BookingReadStore struct {
	db db.DBTX
}

func NewBookingReadStore(dbtx db.DBTX) queries.BookingViewRepo {
	return &BookingReadStore{db: dbtx}
}

func (s *BookingReadStore) FindByID(ctx context.Context, id uuid.UUID) (*queries.BookingView, error) {
	var view queries.BookingView
	var note string
	err := s.db.QueryRow(ctx,
		`SELECT b.id, b.service_id, s.name, b.contact_id, c.name,
		        b.start_time, b.end_time, b.status, b.note, b.created_at, b.updated_at
		 FROM bookings b
		 JOIN services s ON s.id = b.service_id
		 JOIN contacts c ON c.id = b.contact_id
		 WHERE b.id = $1`,
		id,
	).Scan(&view.ID, &view.ServiceID, &view.ServiceName, &view.ContactID, &view.ContactName,
		&view.Start, &view.End, &view.Status, &note, &view.CreatedAt, &view.UpdatedAt)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to find booking view", err)
	}
	if note != "" {
		view.Note = &note
	}
	return &view, nil
}

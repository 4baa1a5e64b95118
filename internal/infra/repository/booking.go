package repository

import (
	"context"
	"time"

	"bookline/internal/domain/booking"
	"bookline/internal/infra"
	"bookline/internal/infra/db"
	"bookline/internal/usecase/shared"

	"github.com/google/uuid"
)

type BookingRepository struct {
	db db.DBTX
}

func NewBookingRepository(dbtx db.DBTX) shared.BookingRepository {
	return &BookingRepository{db: dbtx}
}

func (r *BookingRepository) LockService(ctx context.Context, serviceID uuid.UUID) error {
	var id uuid.UUID
	err := r.db.QueryRow(ctx,
		`SELECT id FROM services WHERE id = $1 FOR UPDATE`,
		serviceID,
	).Scan(&id)
	if err != nil {
		return infra.WrapRepoErr("failed to lock service row", err)
	}
	return nil
}

// CountOverlapping counts active bookings whose buffered interval touches
// [start, end). The buffer is folded into the bounds so the comparison
// stays a plain range predicate the partial index can serve.
func (r *BookingRepository) CountOverlapping(ctx context.Context, serviceID uuid.UUID, start, end time.Time, buffer time.Duration) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM bookings
		 WHERE service_id = $1
		   AND status IN ('pending', 'confirmed')
		   AND start_time < $3
		   AND end_time > $2`,
		serviceID, start.Add(-buffer), end.Add(buffer),
	).Scan(&count)
	if err != nil {
		return 0, infra.WrapRepoErr("failed to count overlapping bookings", err)
	}
	return count, nil
}

func (r *BookingRepository) Create(ctx context.Context, b *booking.Booking) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO bookings (id, service_id, contact_id, start_time, end_time, status, note)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		b.ID(), b.ServiceID(), b.ContactID(),
		b.TimeSlot().Start(), b.TimeSlot().End(),
		b.Status().String(), b.Note().String(),
	)
	if err != nil {
		return infra.WrapRepoErr("failed to insert booking", err)
	}
	return nil
}

func (r *BookingRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*booking.Booking, error) {
	var (
		bookingID, serviceID, contactID uuid.UUID
		start, end, createdAt, updated  time.Time
		status, note                    string
	)
	err := r.db.QueryRow(ctx,
		`SELECT id, service_id, contact_id, start_time, end_time, status, note, created_at, updated_at
		 FROM bookings WHERE id = $1 FOR UPDATE`,
		id,
	).Scan(&bookingID, &serviceID, &contactID, &start, &end, &status, &note, &createdAt, &updated)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to find booking", err)
	}

	slot, err := booking.NewTimeSlot(start, end)
	if err != nil {
		return nil, infra.WrapRepoErrKind(infra.KindDBFailure, "stored booking has invalid time slot", err)
	}
	parsed, ok := booking.ParseStatus(status)
	if !ok {
		return nil, infra.WrapRepoErrKind(infra.KindDBFailure, "stored booking has unknown status", nil)
	}
	return booking.ReconstructBooking(bookingID, serviceID, contactID, slot, parsed, booking.NewNote(note), createdAt, updated), nil
}

func (r *BookingRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status booking.Status) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE bookings SET status = $2, updated_at = now() WHERE id = $1`,
		id, status.String(),
	)
	if err != nil {
		return infra.WrapRepoErr("failed to update booking status", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErrKind(infra.KindNotFound, "booking not found", nil)
	}
	return nil
}

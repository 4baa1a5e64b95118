package readstore

import (
	"context"
	"time"

	"bookline/internal/domain/schedule"
	"bookline/internal/infra"
	"bookline/internal/infra/db"
	"bookline/internal/usecase/queries"

	"github.com/google/uuid"
)

type AvailabilityReadStore struct {
	db    db.DBTX
	hours *CommandReadStore
}

func NewAvailabilityReadStore(dbtx db.DBTX) queries.AvailabilityReadStore {
	return &AvailabilityReadStore{db: dbtx, hours: NewCommandReadStore(dbtx)}
}

func (s *AvailabilityReadStore) ServiceSpec(ctx context.Context, serviceID uuid.UUID) (*schedule.ServiceSpec, bool, error) {
	var (
		id          uuid.UUID
		durationMin int32
		bufferMin   int32
		capacity    int32
		active      bool
	)
	err := s.db.QueryRow(ctx,
		`SELECT id, duration_min, buffer_min, capacity, active FROM services WHERE id = $1`,
		serviceID,
	).Scan(&id, &durationMin, &bufferMin, &capacity, &active)
	if err != nil {
		wrapped := infra.WrapRepoErr("failed to load service spec", err)
		if infra.IsKind(wrapped, infra.KindNotFound) {
			return nil, false, nil
		}
		return nil, false, wrapped
	}
	return &schedule.ServiceSpec{
		ID:       id,
		Duration: time.Duration(durationMin) * time.Minute,
		Buffer:   time.Duration(bufferMin) * time.Minute,
		Capacity: int(capacity),
		Active:   active,
	}, true, nil
}

func (s *AvailabilityReadStore) WorkingHours(ctx context.Context, serviceID uuid.UUID) (schedule.WeekSchedule, error) {
	return s.hours.WorkingHoursByService(ctx, serviceID)
}

func (s *AvailabilityReadStore) ActiveBookingsBetween(ctx context.Context, serviceID uuid.UUID, from, to time.Time) ([]schedule.BookedInterval, error) {
	rows, err := s.db.Query(ctx,
		`SELECT start_time, end_time FROM bookings
		 WHERE service_id = $1
		   AND status IN ('pending', 'confirmed')
		   AND start_time < $3
		   AND end_time > $2
		 ORDER BY start_time`,
		serviceID, from, to,
	)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list active bookings", err)
	}
	defer rows.Close()

	var booked []schedule.BookedInterval
	for rows.Next() {
		var iv schedule.BookedInterval
		if err := rows.Scan(&iv.Start, &iv.End); err != nil {
			return nil, infra.WrapRepoErr("failed to scan booking interval", err)
		}
		booked = append(booked, iv)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to read booking intervals", err)
	}
	return booked, nil
}

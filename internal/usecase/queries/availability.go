package queries

import (
	"context"
	"time"

	"bookline/internal/domain/schedule"
	"bookline/internal/pkg/clock"
	"bookline/internal/pkg/config"
	"bookline/internal/pkg/errs"

	"github.com/google/uuid"
)

type AvailabilityQueries interface {
	// ComputeAvailability returns the ordered free slots of a service on a
	// date. The result is never cached; it always reflects the bookings
	// visible at call time.
	ComputeAvailability(ctx context.Context, serviceID uuid.UUID, date time.Time) ([]SlotView, error)
}

type AvailabilityReadStore interface {
	ServiceSpec(ctx context.Context, serviceID uuid.UUID) (*schedule.ServiceSpec, bool, error)
	WorkingHours(ctx context.Context, serviceID uuid.UUID) (schedule.WeekSchedule, error)
	ActiveBookingsBetween(ctx context.Context, serviceID uuid.UUID, from, to time.Time) ([]schedule.BookedInterval, error)
}

type availabilityQueriesImpl struct {
	store AvailabilityReadStore
	clock clock.Clock
	cfg   config.BookingConfig
}

func NewAvailabilityQueries(store AvailabilityReadStore, clk clock.Clock, cfg config.Config) AvailabilityQueries {
	return &availabilityQueriesImpl{store: store, clock: clk, cfg: cfg.Booking}
}

func (q *availabilityQueriesImpl) ComputeAvailability(ctx context.Context, serviceID uuid.UUID, date time.Time) ([]SlotView, error) {
	spec, found, err := q.store.ServiceSpec(ctx, serviceID)
	if err != nil {
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	if !found {
		return nil, errs.ErrServiceNotFound
	}
	// An inactive service is a known service with nothing bookable on it.
	if !spec.Active {
		return []SlotView{}, nil
	}
	spec.GridStep = q.cfg.SlotStep
	spec.MinLeadTime = q.cfg.MinLeadTime

	hours, err := q.store.WorkingHours(ctx, serviceID)
	if err != nil {
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}

	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	booked, err := q.store.ActiveBookingsBetween(ctx, serviceID, dayStart, dayStart.AddDate(0, 0, 1))
	if err != nil {
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}

	slots := schedule.BuildSlots(*spec, hours, dayStart, booked, q.clock.Now())
	views := make([]SlotView, len(slots))
	for i, s := range slots {
		views[i] = SlotView{Start: s.Start, End: s.End, Remaining: s.Remaining}
	}
	return views, nil
}

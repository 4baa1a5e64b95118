package readstore

import (
	"context"
	"time"

	"bookline/internal/domain/schedule"
	"bookline/internal/infra"
	"bookline/internal/infra/db"
	"bookline/internal/usecase/shared"

	"github.com/google/uuid"
)

// CommandReadStore serves the command side's point reads. It binds to a
// DBTX so the same queries run against the pool or inside a transaction.
type CommandReadStore struct {
	db db.DBTX
}

func NewCommandReadStore(dbtx db.DBTX) *CommandReadStore {
	return &CommandReadStore{db: dbtx}
}

func (s *CommandReadStore) ServiceByID(ctx context.Context, id uuid.UUID) (*shared.ServiceSnapshot, error) {
	var snap shared.ServiceSnapshot
	err := s.db.QueryRow(ctx,
		`SELECT id, name, duration_min, buffer_min, capacity, location, active
		 FROM services WHERE id = $1`,
		id,
	).Scan(&snap.ID, &snap.Name, &snap.DurationMin, &snap.BufferMin, &snap.Capacity, &snap.Location, &snap.Active)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to find service", err)
	}
	return &snap, nil
}

func (s *CommandReadStore) WorkingHoursByService(ctx context.Context, serviceID uuid.UUID) (schedule.WeekSchedule, error) {
	rows, err := s.db.Query(ctx,
		`SELECT weekday, open_min, close_min FROM working_hours WHERE service_id = $1`,
		serviceID,
	)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to load working hours", err)
	}
	defer rows.Close()

	week := make(schedule.WeekSchedule)
	for rows.Next() {
		var weekday int
		var window schedule.DayWindow
		if err := rows.Scan(&weekday, &window.OpenMin, &window.CloseMin); err != nil {
			return nil, infra.WrapRepoErr("failed to scan working hours row", err)
		}
		week[time.Weekday(weekday)] = window
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to read working hours rows", err)
	}
	return week, nil
}

func (s *CommandReadStore) ContactByID(ctx context.Context, id uuid.UUID) (*shared.ContactSnapshot, error) {
	var snap shared.ContactSnapshot
	err := s.db.QueryRow(ctx,
		`SELECT id, name, email, phone FROM contacts WHERE id = $1`,
		id,
	).Scan(&snap.ID, &snap.Name, &snap.Email, &snap.Phone)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to find contact", err)
	}
	return &snap, nil
}

func (s *CommandReadStore) BookingByID(ctx context.Context, id uuid.UUID) (*shared.BookingSnapshot, error) {
	var snap shared.BookingSnapshot
	err := s.db.QueryRow(ctx,
		`SELECT id, service_id, contact_id, start_time, end_time, status
		 FROM bookings WHERE id = $1`,
		id,
	).Scan(&snap.ID, &snap.ServiceID, &snap.ContactID, &snap.Start, &snap.End, &snap.Status)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to find booking", err)
	}
	return &snap, nil
}

func (s *CommandReadStore) TemplateByType(ctx context.Context, templateType string) (*shared.TemplateSnapshot, error) {
	var snap shared.TemplateSnapshot
	err := s.db.QueryRow(ctx,
		`SELECT type, subject, body FROM message_templates WHERE type = $1`,
		templateType,
	).Scan(&snap.Type, &snap.Subject, &snap.Body)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to find message template", err)
	}
	return &snap, nil
}

func (s *CommandReadStore) LatestFormStatusByContact(ctx context.Context, contactID uuid.UUID) (string, bool, error) {
	var status string
	err := s.db.QueryRow(ctx,
		`SELECT status FROM form_submissions
		 WHERE contact_id = $1
		 ORDER BY created_at DESC
		 LIMIT 1`,
		contactID,
	).Scan(&status)
	if err != nil {
		wrapped := infra.WrapRepoErr("failed to find form submission", err)
		if infra.IsKind(wrapped, infra.KindNotFound) {
			return "", false, nil
		}
		return "", false, wrapped
	}
	return status, true, nil
}

package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bookline/internal/domain/automation"
	"bookline/internal/domain/booking"
	"bookline/internal/domain/inventory"
	"bookline/internal/domain/schedule"
	"bookline/internal/infra"
	"bookline/internal/pkg/clock"
	"bookline/internal/pkg/config"
	"bookline/internal/pkg/errs"
	"bookline/internal/usecase/queries"
	"bookline/internal/usecase/shared"

	"github.com/google/uuid"
	"log/slog"
)

type CreateBookingParams struct {
	ServiceID uuid.UUID
	ContactID uuid.UUID
	Start     time.Time
	// AutoConfirm skips the pending state for staff callers or
	// no-approval-needed policies.
	AutoConfirm bool
	Note        *string
}

type BookingCommands interface {
	// CreateBooking inserts a booking after re-checking the slot under a
	// service-row lock; of two concurrent overlapping requests exactly one
	// succeeds, the other receives ErrSlotUnavailable.
	CreateBooking(ctx context.Context, params CreateBookingParams) (*queries.BookingView, error)
	// UpdateBookingStatus validates the transition table; completing a
	// booking applies auto-deduct inventory links in the same transaction.
	UpdateBookingStatus(ctx context.Context, id uuid.UUID, newStatus booking.Status) (*queries.BookingView, error)
}

type bookingCommandsImpl struct {
	uow            shared.UnitOfWork
	publisher      EventPublisher
	bookingQueries queries.BookingQueries
	clock          clock.Clock
	cfg            config.BookingConfig
	mail           config.MailConfig
}

func NewBookingCommands(
	uow shared.UnitOfWork,
	publisher EventPublisher,
	bookingQueries queries.BookingQueries,
	clk clock.Clock,
	cfg config.Config,
) BookingCommands {
	return &bookingCommandsImpl{
		uow:            uow,
		publisher:      publisher,
		bookingQueries: bookingQueries,
		clock:          clk,
		cfg:            cfg.Booking,
		mail:           cfg.Mail,
	}
}

func (c *bookingCommandsImpl) CreateBooking(ctx context.Context, params CreateBookingParams) (*queries.BookingView, error) {
	reads := c.uow.Reads()

	svc, err := reads.ServiceByID(ctx, params.ServiceID)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, errs.ErrServiceNotFound
		}
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	if !svc.Active {
		return nil, errs.ErrServiceNotFound
	}

	contact, err := reads.ContactByID(ctx, params.ContactID)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, errs.ErrContactNotFound
		}
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}

	hours, err := reads.WorkingHoursByService(ctx, params.ServiceID)
	if err != nil {
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}

	spec := serviceSpec(svc, c.cfg)
	if err := schedule.ValidateSlot(spec, hours, params.Start, c.clock.Now()); err != nil {
		return nil, errs.Mark(err, errs.ErrSlotUnavailable)
	}

	slot, err := booking.NewTimeSlot(params.Start, params.Start.Add(spec.Duration))
	if err != nil {
		return nil, errs.Mark(err, errs.ErrDomainValidation)
	}

	note := booking.NewNote("")
	if params.Note != nil {
		note = booking.NewNote(strings.TrimSpace(*params.Note))
	}
	entity := booking.NewBooking(params.ServiceID, params.ContactID, slot, params.AutoConfirm, note)

	err = c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		// The service-row lock serializes availability re-checks: the
		// loser of a race sees the winner's row in the recount.
		if err := tx.Bookings().LockService(ctx, params.ServiceID); err != nil {
			return err
		}
		count, err := tx.Bookings().CountOverlapping(ctx, params.ServiceID, slot.Start(), slot.End(), spec.Buffer)
		if err != nil {
			return err
		}
		if count >= spec.Capacity {
			return errs.ErrSlotUnavailable
		}
		return tx.Bookings().Create(ctx, entity)
	})
	if err != nil {
		if errors.Is(err, errs.ErrSlotUnavailable) {
			return nil, errs.ErrSlotUnavailable
		}
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}

	c.publisher.Publish(automation.Event{
		Type:       automation.EventBookingCreated,
		EntityID:   entity.ID(),
		Payload:    c.bookingPayload(entity, svc, contact),
		OccurredAt: c.clock.Now(),
	})

	return c.bookingQueries.GetByID(ctx, entity.ID())
}

func (c *bookingCommandsImpl) UpdateBookingStatus(ctx context.Context, id uuid.UUID, newStatus booking.Status) (*queries.BookingView, error) {
	var followUps []automation.Event
	var prevStatus booking.Status

	err := c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		followUps = followUps[:0]

		entity, err := tx.Bookings().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		prevStatus = entity.Status()

		if err := entity.Transition(newStatus); err != nil {
			return errs.Mark(err, errs.ErrInvalidTransition)
		}
		if err := tx.Bookings().UpdateStatus(ctx, id, newStatus); err != nil {
			return err
		}

		if newStatus == booking.StatusCompleted {
			events, err := c.applyAutoDeductions(ctx, tx, entity)
			if err != nil {
				return err
			}
			followUps = append(followUps, events...)
		}
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrInvalidTransition):
			return nil, errs.ErrInvalidTransition
		case errors.Is(err, errs.ErrInsufficientStock):
			return nil, errs.ErrInsufficientStock
		case infra.IsKind(err, infra.KindNotFound):
			return nil, errs.ErrBookingNotFound
		default:
			return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}
	}

	now := c.clock.Now()
	c.publisher.Publish(automation.Event{
		Type:     automation.EventBookingStatusChanged,
		EntityID: id,
		Payload: map[string]string{
			"previous_status": prevStatus.String(),
			"new_status":      newStatus.String(),
		},
		OccurredAt: now,
	})
	for _, ev := range followUps {
		c.publisher.Publish(ev)
	}

	return c.bookingQueries.GetByID(ctx, id)
}

// applyAutoDeductions decrements every linked item inside the booking's
// transaction. Any rejection aborts the status change; signal events are
// returned for publication after commit.
func (c *bookingCommandsImpl) applyAutoDeductions(ctx context.Context, tx shared.Tx, entity *booking.Booking) ([]automation.Event, error) {
	links, err := tx.Inventory().LinksByService(ctx, entity.ServiceID())
	if err != nil {
		return nil, err
	}

	var events []automation.Event
	now := c.clock.Now()
	reason := fmt.Sprintf("auto-deduct booking %s", entity.ID())

	for _, link := range links {
		item, err := tx.Inventory().FindItemForUpdate(ctx, link.ItemID)
		if err != nil {
			return nil, err
		}
		if !item.Active() || !item.AutoDeduct() {
			slog.Warn("skipping auto-deduct",
				"item_id", item.ID(), "booking_id", entity.ID(),
				"active", item.Active(), "auto_deduct", item.AutoDeduct())
			continue
		}

		adj, err := item.Adjust(-link.Quantity, inventory.ModeAuto, reason, false, now)
		if err != nil {
			if errors.Is(err, inventory.ErrInsufficientStock) {
				return nil, errs.Mark(err, errs.ErrInsufficientStock)
			}
			return nil, err
		}
		if _, err := tx.Inventory().AppendTransaction(ctx, adj); err != nil {
			return nil, err
		}
		if err := tx.Inventory().UpdateStock(ctx, item.ID(), adj.NewStock); err != nil {
			return nil, err
		}

		events = append(events, inventorySignalEvents(item, adj, now)...)
	}
	return events, nil
}

func (c *bookingCommandsImpl) bookingPayload(entity *booking.Booking, svc *shared.ServiceSnapshot, contact *shared.ContactSnapshot) map[string]string {
	start := entity.TimeSlot().Start()
	return map[string]string{
		automation.PayloadRecipient:    contact.Email,
		automation.PayloadContactID:    contact.ID.String(),
		automation.PayloadBookingStart: start.Format(time.RFC3339),
		"customer_name":                contact.Name,
		"service_name":                 svc.Name,
		"booking_date":                 start.Format("January 2, 2006"),
		"booking_time":                 start.Format("3:04 PM"),
		"location":                     svc.Location,
		"business_name":                c.mail.Business,
	}
}

func serviceSpec(svc *shared.ServiceSnapshot, cfg config.BookingConfig) schedule.ServiceSpec {
	return schedule.ServiceSpec{
		ID:          svc.ID,
		Duration:    time.Duration(svc.DurationMin) * time.Minute,
		Buffer:      time.Duration(svc.BufferMin) * time.Minute,
		Capacity:    int(svc.Capacity),
		Active:      svc.Active,
		GridStep:    cfg.SlotStep,
		MinLeadTime: cfg.MinLeadTime,
	}
}

func inventorySignalEvents(item *inventory.Item, adj inventory.Adjustment, at time.Time) []automation.Event {
	var events []automation.Event
	payload := map[string]string{
		"item_name":     item.Name(),
		"current_stock": fmt.Sprintf("%d", adj.NewStock),
		"threshold":     fmt.Sprintf("%d", item.Threshold()),
	}
	if item.SupplierEmail() != "" {
		payload[automation.PayloadSupplierEmail] = item.SupplierEmail()
	}

	for _, sig := range adj.Signals {
		switch sig {
		case inventory.SignalBackorder:
			events = append(events, automation.Event{
				Type:       automation.EventBackorder,
				EntityID:   item.ID(),
				Payload:    payload,
				OccurredAt: at,
			})
		case inventory.SignalLowStock:
			events = append(events, automation.Event{
				Type:       automation.EventInventoryLow,
				EntityID:   item.ID(),
				Payload:    payload,
				OccurredAt: at,
			})
		}
	}
	return events
}

package booking

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidTimeSlot   = errors.New("invalid time slot")
	ErrLeadTimeNotMet    = errors.New("lead time requirement not met")
	ErrInvalidTransition = errors.New("status transition not allowed")
	ErrBookingImmutable  = errors.New("booking is in a terminal state")
)

type Booking struct {
	id        uuid.UUID
	serviceID uuid.UUID
	contactID uuid.UUID
	timeSlot  TimeSlot
	status    Status
	note      Note
	createdAt time.Time
	updatedAt time.Time
}

func NewBooking(serviceID, contactID uuid.UUID, slot TimeSlot, confirmed bool, note Note) *Booking {
	status := StatusPending
	if confirmed {
		status = StatusConfirmed
	}
	return &Booking{
		id:        uuid.New(),
		serviceID: serviceID,
		contactID: contactID,
		timeSlot:  slot,
		status:    status,
		note:      note,
	}
}

func ReconstructBooking(
	id, serviceID, contactID uuid.UUID,
	slot TimeSlot,
	status Status,
	note Note,
	createdAt, updatedAt time.Time,
) *Booking {
	return &Booking{
		id:        id,
		serviceID: serviceID,
		contactID: contactID,
		timeSlot:  slot,
		status:    status,
		note:      note,
		createdAt: createdAt,
		updatedAt: updatedAt,
	}
}

// Transition applies the status transition table. Terminal states only
// accept audit note updates, never another transition.
func (b *Booking) Transition(next Status) error {
	if b.status.IsTerminal() {
		return ErrBookingImmutable
	}
	if !b.status.CanTransitionTo(next) {
		return ErrInvalidTransition
	}
	b.status = next
	return nil
}

func (b *Booking) AppendNote(note string) {
	if note == "" {
		return
	}
	if b.note.IsEmpty() {
		b.note = NewNote(note)
		return
	}
	b.note = NewNote(b.note.String() + "\n" + note)
}

func (b *Booking) ID() uuid.UUID        { return b.id }
func (b *Booking) ServiceID() uuid.UUID { return b.serviceID }
func (b *Booking) ContactID() uuid.UUID { return b.contactID }
func (b *Booking) TimeSlot() TimeSlot   { return b.timeSlot }
func (b *Booking) Status() Status       { return b.status }
func (b *Booking) Note() Note           { return b.note }
func (b *Booking) CreatedAt() time.Time { return b.createdAt }
func (b *Booking) UpdatedAt() time.Time { return b.updatedAt }

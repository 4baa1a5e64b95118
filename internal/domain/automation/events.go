package automation

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventLeadCaptured         EventType = "lead_captured"
	EventBookingCreated       EventType = "booking_created"
	EventBookingStatusChanged EventType = "booking_status_changed"
	EventFormSent             EventType = "form_sent"
	EventFormCompleted        EventType = "form_completed"
	EventInventoryLow         EventType = "inventory_low"
	EventBackorder            EventType = "backorder"
)

func ParseEventType(s string) (EventType, bool) {
	switch EventType(s) {
	case EventLeadCaptured, EventBookingCreated, EventBookingStatusChanged,
		EventFormSent, EventFormCompleted, EventInventoryLow, EventBackorder:
		return EventType(s), true
	}
	return "", false
}

// Event is a transient lifecycle fact; it only outlives dispatch through
// the scheduled_triggers and delivery_records tables.
type Event struct {
	Type       EventType
	EntityID   uuid.UUID
	Payload    map[string]string
	OccurredAt time.Time
}

// Well-known payload keys written by emitters and read by the engine.
const (
	PayloadRecipient     = "recipient"
	PayloadSupplierEmail = "supplier_email"
	PayloadBookingStart  = "booking_start"
	PayloadContactID     = "contact_id"
)

// DedupKey identifies one delivery per (event type, entity, template) for
// the lifetime of the system.
func DedupKey(eventType EventType, entityID uuid.UUID, template TemplateType) string {
	h := sha256.Sum256([]byte(string(eventType) + "|" + entityID.String() + "|" + string(template)))
	return hex.EncodeToString(h[:])
}

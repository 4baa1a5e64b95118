package automation

import "time"

type TemplateType string

const (
	TemplateWelcome             TemplateType = "welcome"
	TemplateBookingConfirmation TemplateType = "booking_confirmation"
	TemplateBookingReminder     TemplateType = "booking_reminder"
	TemplateFormReminder        TemplateType = "form_reminder"
	TemplateInventoryAlert      TemplateType = "inventory_alert"
)

type RecipientRole string

const (
	RoleContact  RecipientRole = "contact"
	RoleOwner    RecipientRole = "owner"
	RoleSupplier RecipientRole = "supplier"
)

type ActionKind string

const (
	ActionSendNow       ActionKind = "send_now"
	ActionScheduleAfter ActionKind = "schedule_after"
)

type OffsetBase string

const (
	FromEvent        OffsetBase = "event"
	FromBookingStart OffsetBase = "booking_start"
)

type Precondition string

const (
	PrecondNone           Precondition = ""
	PrecondBookingActive  Precondition = "booking_active"
	PrecondFormIncomplete Precondition = "form_incomplete"
)

// Action is a tagged variant: SendNow uses Template and Recipient only,
// ScheduleAfter additionally uses Offset, OffsetFrom and Precondition.
// Keeping it a closed table (rather than callbacks) keeps dispatch
// exhaustive and inspectable.
type Action struct {
	Kind         ActionKind
	Template     TemplateType
	Recipient    RecipientRole
	Offset       time.Duration
	OffsetFrom   OffsetBase
	Precondition Precondition
}

func SendNow(template TemplateType, recipient RecipientRole) Action {
	return Action{Kind: ActionSendNow, Template: template, Recipient: recipient}
}

func ScheduleAfter(offset time.Duration, from OffsetBase, template TemplateType, precond Precondition) Action {
	return Action{
		Kind:         ActionScheduleAfter,
		Template:     template,
		Recipient:    RoleContact,
		Offset:       offset,
		OffsetFrom:   from,
		Precondition: precond,
	}
}

// Rules maps lifecycle events to automation actions.
var Rules = map[EventType][]Action{
	EventLeadCaptured: {
		SendNow(TemplateWelcome, RoleContact),
		ScheduleAfter(24*time.Hour, FromEvent, TemplateFormReminder, PrecondFormIncomplete),
	},
	EventBookingCreated: {
		SendNow(TemplateBookingConfirmation, RoleContact),
		ScheduleAfter(-24*time.Hour, FromBookingStart, TemplateBookingReminder, PrecondBookingActive),
	},
	EventInventoryLow: {
		SendNow(TemplateInventoryAlert, RoleOwner),
		SendNow(TemplateInventoryAlert, RoleSupplier),
	},
	EventBackorder: {
		SendNow(TemplateInventoryAlert, RoleOwner),
	},
	// Status changes and form completions carry no sends of their own;
	// they matter as precondition state for already-scheduled triggers.
	EventBookingStatusChanged: {},
	EventFormSent:             {},
	EventFormCompleted:        {},
}

func ActionsFor(eventType EventType) []Action {
	return Rules[eventType]
}

// PreconditionFor looks up the guard a scheduled trigger must re-check at
// fire time. Triggers only store (event type, template); the precondition
// stays in the rule table so changing a rule affects in-flight triggers.
func PreconditionFor(eventType EventType, template TemplateType) Precondition {
	for _, a := range Rules[eventType] {
		if a.Kind == ActionScheduleAfter && a.Template == template {
			return a.Precondition
		}
	}
	return PrecondNone
}

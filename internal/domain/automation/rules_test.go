//go:build unit

package automation_test

import (
	"testing"
	"time"

	"bookline/internal/domain/automation"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRules(t *testing.T) {
	t.Run("lead captured sends welcome and schedules form reminder", func(t *testing.T) {
		actions := automation.ActionsFor(automation.EventLeadCaptured)
		require.Len(t, actions, 2)

		assert.Equal(t, automation.ActionSendNow, actions[0].Kind)
		assert.Equal(t, automation.TemplateWelcome, actions[0].Template)
		assert.Equal(t, automation.RoleContact, actions[0].Recipient)

		assert.Equal(t, automation.ActionScheduleAfter, actions[1].Kind)
		assert.Equal(t, automation.TemplateFormReminder, actions[1].Template)
		assert.Equal(t, 24*time.Hour, actions[1].Offset)
		assert.Equal(t, automation.FromEvent, actions[1].OffsetFrom)
		assert.Equal(t, automation.PrecondFormIncomplete, actions[1].Precondition)
	})

	t.Run("booking created schedules reminder before the booking starts", func(t *testing.T) {
		actions := automation.ActionsFor(automation.EventBookingCreated)
		require.Len(t, actions, 2)

		assert.Equal(t, automation.TemplateBookingConfirmation, actions[0].Template)

		assert.Equal(t, -24*time.Hour, actions[1].Offset)
		assert.Equal(t, automation.FromBookingStart, actions[1].OffsetFrom)
		assert.Equal(t, automation.PrecondBookingActive, actions[1].Precondition)
	})

	t.Run("inventory low alerts owner and supplier", func(t *testing.T) {
		actions := automation.ActionsFor(automation.EventInventoryLow)
		require.Len(t, actions, 2)
		assert.Equal(t, automation.RoleOwner, actions[0].Recipient)
		assert.Equal(t, automation.RoleSupplier, actions[1].Recipient)
	})

	t.Run("state events carry no actions", func(t *testing.T) {
		assert.Empty(t, automation.ActionsFor(automation.EventBookingStatusChanged))
		assert.Empty(t, automation.ActionsFor(automation.EventFormCompleted))
	})
}

func TestPreconditionFor(t *testing.T) {
	assert.Equal(t, automation.PrecondBookingActive,
		automation.PreconditionFor(automation.EventBookingCreated, automation.TemplateBookingReminder))
	assert.Equal(t, automation.PrecondFormIncomplete,
		automation.PreconditionFor(automation.EventLeadCaptured, automation.TemplateFormReminder))
	// Immediate sends have no fire-time guard.
	assert.Equal(t, automation.PrecondNone,
		automation.PreconditionFor(automation.EventBookingCreated, automation.TemplateBookingConfirmation))
	assert.Equal(t, automation.PrecondNone,
		automation.PreconditionFor(automation.EventInventoryLow, automation.TemplateInventoryAlert))
}

func TestParseEventType(t *testing.T) {
	for _, valid := range []string{"lead_captured", "booking_created", "booking_status_changed", "form_sent", "form_completed", "inventory_low", "backorder"} {
		_, ok := automation.ParseEventType(valid)
		assert.True(t, ok, valid)
	}
	_, ok := automation.ParseEventType("unknown_event")
	assert.False(t, ok)
}

func TestDedupKey(t *testing.T) {
	entityID := uuid.New()

	key := automation.DedupKey(automation.EventBookingCreated, entityID, automation.TemplateBookingConfirmation)
	assert.Len(t, key, 64)

	// Stable for the same inputs, distinct as soon as one input changes.
	assert.Equal(t, key, automation.DedupKey(automation.EventBookingCreated, entityID, automation.TemplateBookingConfirmation))
	assert.NotEqual(t, key, automation.DedupKey(automation.EventBookingCreated, entityID, automation.TemplateBookingReminder))
	assert.NotEqual(t, key, automation.DedupKey(automation.EventBookingCreated, uuid.New(), automation.TemplateBookingConfirmation))
	assert.NotEqual(t, key, automation.DedupKey(automation.EventLeadCaptured, entityID, automation.TemplateBookingConfirmation))
}

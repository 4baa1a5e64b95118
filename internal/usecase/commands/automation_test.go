//go:build unit

package commands_test

import (
	"errors"
	"testing"
	"time"

	"bookline/internal/domain/automation"
	"bookline/internal/infra"
	"bookline/internal/pkg/clock"
	"bookline/internal/pkg/config"
	"bookline/internal/pkg/errs"
	"bookline/internal/usecase/commands"
	"bookline/internal/usecase/shared"
	commandsmock "bookline/tests/mock/commands"
	sharedmock "bookline/tests/mock/shared"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

func notFoundErr() error {
	return infra.WrapRepoErr("find template", pgx.ErrNoRows)
}

func bookingLookupNotFound() error {
	return infra.WrapRepoErr("find booking", pgx.ErrNoRows)
}

type AutomationCommandsTestSuite struct {
	suite.Suite
	ctrl       *gomock.Controller
	triggers   *sharedmock.MockTriggerRepository
	deliveries *sharedmock.MockDeliveryRepository
	reads      *sharedmock.MockCommandReads
	dispatcher *commandsmock.MockDispatcher
	clock      *clock.MockClock
	engine     commands.AutomationCommands
}

var engineNow = time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC)

func (s *AutomationCommandsTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.triggers = sharedmock.NewMockTriggerRepository(s.ctrl)
	s.deliveries = sharedmock.NewMockDeliveryRepository(s.ctrl)
	s.reads = sharedmock.NewMockCommandReads(s.ctrl)
	s.dispatcher = commandsmock.NewMockDispatcher(s.ctrl)
	s.clock = clock.NewMockClock(engineNow)

	cfg := config.NewTestConfig()
	cfg.Mail.Business = "Acme Salon"
	s.engine = commands.NewAutomationCommands(s.triggers, s.deliveries, s.reads, s.dispatcher, s.clock, cfg)
}

func (s *AutomationCommandsTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

func TestAutomationCommandsSuite(t *testing.T) {
	suite.Run(t, new(AutomationCommandsTestSuite))
}

func confirmationTemplate() *shared.TemplateSnapshot {
	return &shared.TemplateSnapshot{
		Type:    "booking_confirmation",
		Subject: "Confirmed: {{service_name}}",
		Body:    "Hi {{customer_name}}, see you at {{booking_time}}.",
	}
}

func bookingCreatedEvent(bookingID uuid.UUID, start time.Time) automation.Event {
	return automation.Event{
		Type:     automation.EventBookingCreated,
		EntityID: bookingID,
		Payload: map[string]string{
			automation.PayloadRecipient:    "jamie@example.com",
			automation.PayloadContactID:    uuid.NewString(),
			automation.PayloadBookingStart: start.Format(time.RFC3339),
			"customer_name":                "Jamie",
			"service_name":                 "Haircut",
			"booking_time":                 "2:00 PM",
		},
		OccurredAt: engineNow,
	}
}

func (s *AutomationCommandsTestSuite) TestEmitEventBookingCreated() {
	bookingID := uuid.New()
	start := engineNow.Add(48 * time.Hour)
	event := bookingCreatedEvent(bookingID, start)

	s.reads.EXPECT().TemplateByType(gomock.Any(), "booking_confirmation").
		Return(confirmationTemplate(), nil)
	s.deliveries.EXPECT().TryInsert(gomock.Any(),
		automation.DedupKey(automation.EventBookingCreated, bookingID, automation.TemplateBookingConfirmation),
		"booking_created", bookingID, "booking_confirmation", "jamie@example.com", gomock.Any()).
		Return(true, nil)
	s.dispatcher.EXPECT().Send(gomock.Any(), "email", "jamie@example.com",
		"Confirmed: Haircut", "Hi Jamie, see you at 2:00 PM.").
		Return(nil)

	var created shared.TriggerRecord
	s.triggers.EXPECT().Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ any, t shared.TriggerRecord) error {
			created = t
			return nil
		})

	err := s.engine.EmitEvent(s.T().Context(), event)
	s.Require().NoError(err)

	// Reminder fires 24h before the booking starts, not relative to the event.
	s.Equal(start.Add(-24*time.Hour), created.FireAt)
	s.Equal("booking_reminder", created.TemplateType)
	s.Equal("jamie@example.com", created.Recipient)
	s.Equal(shared.TriggerStatusPending, created.Status)
	s.Equal(bookingID, created.EntityID)
}

func (s *AutomationCommandsTestSuite) TestEmitEventDuplicateDeliveryIsNoop() {
	bookingID := uuid.New()
	event := bookingCreatedEvent(bookingID, engineNow.Add(48*time.Hour))

	s.reads.EXPECT().TemplateByType(gomock.Any(), "booking_confirmation").
		Return(confirmationTemplate(), nil)
	s.deliveries.EXPECT().TryInsert(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(false, nil)
	// No Send expectation: the dispatcher must not be called again.
	s.triggers.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)

	s.Require().NoError(s.engine.EmitEvent(s.T().Context(), event))
}

func (s *AutomationCommandsTestSuite) TestEmitEventMissingTemplateSkips() {
	bookingID := uuid.New()
	event := bookingCreatedEvent(bookingID, engineNow.Add(48*time.Hour))

	s.reads.EXPECT().TemplateByType(gomock.Any(), "booking_confirmation").
		Return(nil, notFoundErr())
	s.triggers.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)

	s.Require().NoError(s.engine.EmitEvent(s.T().Context(), event))
}

func (s *AutomationCommandsTestSuite) TestEmitEventDispatchFailureDoesNotFailEmit() {
	bookingID := uuid.New()
	event := bookingCreatedEvent(bookingID, engineNow.Add(48*time.Hour))
	dedupKey := automation.DedupKey(automation.EventBookingCreated, bookingID, automation.TemplateBookingConfirmation)

	s.reads.EXPECT().TemplateByType(gomock.Any(), "booking_confirmation").
		Return(confirmationTemplate(), nil)
	s.deliveries.EXPECT().TryInsert(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(true, nil)
	s.dispatcher.EXPECT().Send(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(errors.New("smtp down"))
	// The failed send must release its record, or no retry can ever fire.
	s.deliveries.EXPECT().Delete(gomock.Any(), dedupKey).Return(nil)
	s.triggers.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)

	s.Require().NoError(s.engine.EmitEvent(s.T().Context(), event))
}

func (s *AutomationCommandsTestSuite) TestDispatchScheduledSendFailureReleasesRecord() {
	bookingID := uuid.New()
	trigger := shared.TriggerRecord{
		ID:           uuid.New(),
		EventType:    "booking_created",
		EntityID:     bookingID,
		TemplateType: "booking_reminder",
		Recipient:    "jamie@example.com",
		Payload:      map[string]string{"customer_name": "Jamie", "service_name": "Haircut"},
	}
	dedupKey := automation.DedupKey(automation.EventBookingCreated, bookingID, automation.TemplateBookingReminder)

	s.reads.EXPECT().TemplateByType(gomock.Any(), "booking_reminder").
		Return(&shared.TemplateSnapshot{Type: "booking_reminder", Subject: "Reminder", Body: "See you, {{customer_name}}"}, nil)
	s.deliveries.EXPECT().TryInsert(gomock.Any(), dedupKey, gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(true, nil)
	s.dispatcher.EXPECT().Send(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(errors.New("smtp down"))
	s.deliveries.EXPECT().Delete(gomock.Any(), dedupKey).Return(nil)

	err := s.engine.DispatchScheduled(s.T().Context(), trigger)
	s.Require().ErrorIs(err, errs.ErrDispatchFailed)
}

func (s *AutomationCommandsTestSuite) TestEmitEventSchedulePersistenceFailureSurfaces() {
	bookingID := uuid.New()
	event := bookingCreatedEvent(bookingID, engineNow.Add(48*time.Hour))

	s.reads.EXPECT().TemplateByType(gomock.Any(), "booking_confirmation").
		Return(confirmationTemplate(), nil)
	s.deliveries.EXPECT().TryInsert(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(true, nil)
	s.dispatcher.EXPECT().Send(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil)
	s.triggers.EXPECT().Create(gomock.Any(), gomock.Any()).Return(errors.New("insert failed"))

	err := s.engine.EmitEvent(s.T().Context(), event)
	s.Require().ErrorIs(err, errs.ErrDatabaseOperationFailed)
}

func (s *AutomationCommandsTestSuite) TestEmitEventUnknownType() {
	err := s.engine.EmitEvent(s.T().Context(), automation.Event{Type: "bogus", EntityID: uuid.New()})
	s.Require().ErrorIs(err, errs.ErrUnknownEventType)
}

func (s *AutomationCommandsTestSuite) TestEmitEventInventoryLowWithoutSupplier() {
	itemID := uuid.New()
	event := automation.Event{
		Type:     automation.EventInventoryLow,
		EntityID: itemID,
		Payload: map[string]string{
			"item_name":     "Shampoo",
			"current_stock": "2",
			"threshold":     "3",
		},
		OccurredAt: engineNow,
	}

	// Owner alert goes out; the supplier action is skipped for lack of a
	// recipient, so only one template fetch and one send happen.
	s.reads.EXPECT().TemplateByType(gomock.Any(), "inventory_alert").
		Return(&shared.TemplateSnapshot{Type: "inventory_alert", Subject: "Low: {{item_name}}", Body: "{{current_stock}} left"}, nil)
	s.deliveries.EXPECT().TryInsert(gomock.Any(), gomock.Any(), "inventory_low", itemID, "inventory_alert", "owner@test.local", gomock.Any()).
		Return(true, nil)
	s.dispatcher.EXPECT().Send(gomock.Any(), "email", "owner@test.local", "Low: Shampoo", "2 left").
		Return(nil)

	s.Require().NoError(s.engine.EmitEvent(s.T().Context(), event))
}

func (s *AutomationCommandsTestSuite) TestDispatchScheduledUsesStoredRecipient() {
	bookingID := uuid.New()
	trigger := shared.TriggerRecord{
		ID:           uuid.New(),
		EventType:    "booking_created",
		EntityID:     bookingID,
		TemplateType: "booking_reminder",
		Recipient:    "jamie@example.com",
		Payload:      map[string]string{"customer_name": "Jamie", "service_name": "Haircut"},
	}

	s.reads.EXPECT().TemplateByType(gomock.Any(), "booking_reminder").
		Return(&shared.TemplateSnapshot{Type: "booking_reminder", Subject: "Reminder: {{service_name}}", Body: "See you, {{customer_name}}"}, nil)
	s.deliveries.EXPECT().TryInsert(gomock.Any(),
		automation.DedupKey(automation.EventBookingCreated, bookingID, automation.TemplateBookingReminder),
		"booking_created", bookingID, "booking_reminder", "jamie@example.com", gomock.Any()).
		Return(true, nil)
	s.dispatcher.EXPECT().Send(gomock.Any(), "email", "jamie@example.com", "Reminder: Haircut", "See you, Jamie").
		Return(nil)

	s.Require().NoError(s.engine.DispatchScheduled(s.T().Context(), trigger))
}

//go:build e2e

package automation_test

import (
	"net/http"
	"testing"
	"time"

	reqdto "bookline/internal/handler/dto/request"
	"bookline/internal/infra/notify"
	"bookline/internal/infra/readstore"
	"bookline/internal/infra/repository"
	"bookline/internal/pkg/clock"
	"bookline/internal/usecase/commands"
	"bookline/internal/worker"
	"bookline/tests/common/dbtest"
	"bookline/tests/common/httptest"
	"bookline/tests/e2e"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

const eventsURL = "/api/events"

type automationSuite struct {
	e2e.SharedSuite
}

func TestAutomationSuite(t *testing.T) {
	t.Parallel()
	suite.Run(t, new(automationSuite))
}

// newScheduler builds a scheduler against the test database, so tests can
// drive trigger processing with explicit Tick calls instead of waiting for
// the polling loop.
func (s *automationSuite) newScheduler(now time.Time) *worker.Scheduler {
	reads := readstore.NewCommandReadStore(s.DB)
	engine := commands.NewAutomationCommands(
		repository.NewTriggerRepository(s.DB),
		repository.NewDeliveryRepository(s.DB),
		reads,
		notify.NewLogDispatcher(),
		clock.NewMockClock(now),
		s.Config,
	)
	return worker.NewScheduler(
		repository.NewTriggerRepository(s.DB),
		reads,
		engine,
		clock.NewMockClock(now),
		s.Config,
	)
}

func (s *automationSuite) emitLeadCaptured(contactID uuid.UUID) {
	rec := httptest.PerformRequest(s.T(), s.Router, http.MethodPost, eventsURL, reqdto.EmitEventRequest{
		Type:     "lead_captured",
		EntityID: contactID,
		Payload: map[string]string{
			"recipient":     "jamie@example.com",
			"contact_id":    contactID.String(),
			"customer_name": "Jamie",
		},
	})

	var body map[string]string
	httptest.AssertSuccessResponse(s.T(), rec, http.StatusAccepted, &body)
	s.Equal("accepted", body["status"])
}

func (s *automationSuite) waitForDelivery(entityID uuid.UUID, template string) {
	require.Eventually(s.T(), func() bool {
		var count int
		err := s.DB.QueryRow(s.T().Context(),
			"SELECT count(*) FROM delivery_records WHERE entity_id = $1 AND template_type = $2",
			entityID, template).Scan(&count)
		return err == nil && count == 1
	}, 5*time.Second, 50*time.Millisecond, "expected delivery record for "+template)
}

func (s *automationSuite) TestLeadCapturedFlow() {
	s.Run("success: welcome is sent once and a form reminder is scheduled", func() {
		contactID := dbtest.CreateTestContact(s.T(), s.DB, "Jamie Doe", "jamie@example.com")

		s.emitLeadCaptured(contactID)
		s.waitForDelivery(contactID, "welcome")

		var fireAt time.Time
		err := s.DB.QueryRow(s.T().Context(),
			"SELECT fire_at FROM scheduled_triggers WHERE entity_id = $1 AND template_type = 'form_reminder' AND status = 'pending'",
			contactID).Scan(&fireAt)
		require.NoError(s.T(), err)

		// Re-emitting the same event must not produce a second welcome.
		s.emitLeadCaptured(contactID)
		time.Sleep(200 * time.Millisecond)

		var count int
		err = s.DB.QueryRow(s.T().Context(),
			"SELECT count(*) FROM delivery_records WHERE entity_id = $1 AND template_type = 'welcome'",
			contactID).Scan(&count)
		require.NoError(s.T(), err)
		s.Equal(1, count, "duplicate event must be absorbed by the dedup key")
	})

	s.Run("success: due form reminder fires when the form is incomplete", func() {
		contactID := dbtest.CreateTestContact(s.T(), s.DB, "Jamie Doe", "jamie@example.com")
		s.emitLeadCaptured(contactID)
		s.waitForDelivery(contactID, "welcome")

		// Jump past the trigger's fire time and run one scheduler pass.
		now := time.Now().UTC().Add(25 * time.Hour)
		scheduler := s.newScheduler(now)
		require.NoError(s.T(), scheduler.Tick(s.T().Context(), now))

		var status string
		err := s.DB.QueryRow(s.T().Context(),
			"SELECT status FROM scheduled_triggers WHERE entity_id = $1 AND template_type = 'form_reminder'",
			contactID).Scan(&status)
		require.NoError(s.T(), err)
		s.Equal("sent", status)

		var count int
		err = s.DB.QueryRow(s.T().Context(),
			"SELECT count(*) FROM delivery_records WHERE entity_id = $1 AND template_type = 'form_reminder'",
			contactID).Scan(&count)
		require.NoError(s.T(), err)
		s.Equal(1, count)
	})

	s.Run("success: completed form cancels the reminder at fire time", func() {
		contactID := dbtest.CreateTestContact(s.T(), s.DB, "Jamie Doe", "jamie@example.com")
		s.emitLeadCaptured(contactID)
		s.waitForDelivery(contactID, "welcome")

		_, err := s.DB.Exec(s.T().Context(),
			"INSERT INTO form_submissions (contact_id, status) VALUES ($1, 'completed')", contactID)
		require.NoError(s.T(), err)

		now := time.Now().UTC().Add(25 * time.Hour)
		scheduler := s.newScheduler(now)
		require.NoError(s.T(), scheduler.Tick(s.T().Context(), now))

		var status string
		err = s.DB.QueryRow(s.T().Context(),
			"SELECT status FROM scheduled_triggers WHERE entity_id = $1 AND template_type = 'form_reminder'",
			contactID).Scan(&status)
		require.NoError(s.T(), err)
		s.Equal("skipped", status)

		var count int
		err = s.DB.QueryRow(s.T().Context(),
			"SELECT count(*) FROM delivery_records WHERE entity_id = $1 AND template_type = 'form_reminder'",
			contactID).Scan(&count)
		require.NoError(s.T(), err)
		s.Equal(0, count, "no reminder may be delivered for a completed form")
	})
}

func (s *automationSuite) TestEmitEventValidation() {
	s.Run("error: unknown event type returns 400", func() {
		rec := httptest.PerformRequest(s.T(), s.Router, http.MethodPost, eventsURL, reqdto.EmitEventRequest{
			Type:     "meteor_strike",
			EntityID: uuid.New(),
		})
		httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "Unknown event type")
	})
}

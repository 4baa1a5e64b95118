//go:build e2e

package booking_test

import (
	"net/http"
	nethttptest "net/http/httptest"
	"testing"
	"time"

	reqdto "bookline/internal/handler/dto/request"
	resdto "bookline/internal/handler/dto/response"
	"bookline/tests/common/dbtest"
	"bookline/tests/common/httptest"
	"bookline/tests/e2e"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

const (
	bookingsURL = "/api/bookings"
)

type bookingSuite struct {
	e2e.SharedSuite
}

func TestBookingSuite(t *testing.T) {
	t.Parallel()
	suite.Run(t, new(bookingSuite))
}

// bookableStart returns a start time inside working hours (11:00 UTC) a
// few days out, so lead-time and windowing never interfere.
func bookableStart() time.Time {
	day := time.Now().UTC().AddDate(0, 0, 3)
	return time.Date(day.Year(), day.Month(), day.Day(), 11, 0, 0, 0, time.UTC)
}

func (s *bookingSuite) createBooking(serviceID, contactID uuid.UUID, start time.Time) *nethttptest.ResponseRecorder {
	return httptest.PerformRequest(s.T(), s.Router, http.MethodPost, bookingsURL, reqdto.CreateBookingRequest{
		ServiceID: serviceID,
		ContactID: contactID,
		Start:     start,
	})
}

func (s *bookingSuite) TestCreateBooking() {
	s.Run("success: booking created and slot disappears from availability", func() {
		serviceID := dbtest.CreateTestService(s.T(), s.DB, "Haircut", 60, 0, 1)
		contactID := dbtest.CreateTestContact(s.T(), s.DB, "Jamie Doe", "jamie@example.com")
		start := bookableStart()

		rec := s.createBooking(serviceID, contactID, start)

		var created resdto.BookingResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusCreated, &created)
		s.Equal("pending", created.Status)
		s.Equal(serviceID, created.ServiceID)
		s.True(created.End.Equal(start.Add(time.Hour)))

		availURL := "/api/services/" + serviceID.String() + "/availability?date=" + start.Format("2006-01-02")
		availRec := httptest.PerformRequest(s.T(), s.Router, http.MethodGet, availURL, nil)

		var slots []resdto.SlotResponse
		httptest.AssertSuccessResponse(s.T(), availRec, http.StatusOK, &slots)
		for _, slot := range slots {
			s.False(slot.Start.Equal(start), "booked slot must not be offered again")
		}
	})

	s.Run("conflict: overlapping booking on a capacity-1 service is rejected", func() {
		serviceID := dbtest.CreateTestService(s.T(), s.DB, "Haircut", 60, 0, 1)
		firstContact := dbtest.CreateTestContact(s.T(), s.DB, "Jamie Doe", "jamie@example.com")
		secondContact := dbtest.CreateTestContact(s.T(), s.DB, "Alex Roe", "alex@example.com")
		start := bookableStart()

		first := s.createBooking(serviceID, firstContact, start)
		httptest.AssertSuccessResponse(s.T(), first, http.StatusCreated, nil)

		second := s.createBooking(serviceID, secondContact, start.Add(30*time.Minute))
		httptest.AssertErrorResponse(s.T(), second, http.StatusConflict, "not available")
	})

	s.Run("success: booking schedules a reminder trigger", func() {
		serviceID := dbtest.CreateTestService(s.T(), s.DB, "Haircut", 60, 0, 1)
		contactID := dbtest.CreateTestContact(s.T(), s.DB, "Jamie Doe", "jamie@example.com")
		start := bookableStart()

		rec := s.createBooking(serviceID, contactID, start)
		var created resdto.BookingResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusCreated, &created)

		// Event handling is asynchronous; poll for the scheduled trigger.
		require.Eventually(s.T(), func() bool {
			var count int
			err := s.DB.QueryRow(s.T().Context(),
				"SELECT count(*) FROM scheduled_triggers WHERE entity_id = $1 AND template_type = 'booking_reminder' AND status = 'pending'",
				created.ID).Scan(&count)
			return err == nil && count == 1
		}, 5*time.Second, 50*time.Millisecond, "reminder trigger was not scheduled")

		var fireAt time.Time
		err := s.DB.QueryRow(s.T().Context(),
			"SELECT fire_at FROM scheduled_triggers WHERE entity_id = $1 AND template_type = 'booking_reminder'",
			created.ID).Scan(&fireAt)
		require.NoError(s.T(), err)
		s.True(fireAt.Equal(start.Add(-24*time.Hour)), "reminder fires 24h before the booking")
	})

	s.Run("error: unknown service returns 404", func() {
		contactID := dbtest.CreateTestContact(s.T(), s.DB, "Jamie Doe", "jamie@example.com")
		rec := s.createBooking(uuid.New(), contactID, bookableStart())
		httptest.AssertErrorResponse(s.T(), rec, http.StatusNotFound, "Service not found")
	})
}

func (s *bookingSuite) TestUpdateBookingStatus() {
	s.Run("success: completing a booking deducts linked inventory", func() {
		serviceID := dbtest.CreateTestService(s.T(), s.DB, "Color Treatment", 60, 0, 1)
		contactID := dbtest.CreateTestContact(s.T(), s.DB, "Jamie Doe", "jamie@example.com")
		itemID := dbtest.CreateTestItem(s.T(), s.DB, "Color Tube", 10, 3, true)
		dbtest.LinkServiceItem(s.T(), s.DB, serviceID, itemID, 2)

		rec := s.createBooking(serviceID, contactID, bookableStart())
		var created resdto.BookingResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusCreated, &created)

		statusURL := bookingsURL + "/" + created.ID.String() + "/status"

		confirmRec := httptest.PerformRequest(s.T(), s.Router, http.MethodPatch, statusURL,
			reqdto.UpdateBookingStatusRequest{Status: "confirmed"})
		httptest.AssertSuccessResponse(s.T(), confirmRec, http.StatusOK, nil)

		completeRec := httptest.PerformRequest(s.T(), s.Router, http.MethodPatch, statusURL,
			reqdto.UpdateBookingStatusRequest{Status: "completed"})

		var completed resdto.BookingResponse
		httptest.AssertSuccessResponse(s.T(), completeRec, http.StatusOK, &completed)
		s.Equal("completed", completed.Status)

		var stock int32
		err := s.DB.QueryRow(s.T().Context(),
			"SELECT current_stock FROM inventory_items WHERE id = $1", itemID).Scan(&stock)
		require.NoError(s.T(), err)
		s.Equal(int32(8), stock)

		var txCount int
		err = s.DB.QueryRow(s.T().Context(),
			"SELECT count(*) FROM inventory_transactions WHERE item_id = $1 AND delta = -2", itemID).Scan(&txCount)
		require.NoError(s.T(), err)
		s.Equal(1, txCount)
	})

	s.Run("error: completing a pending booking is rejected", func() {
		serviceID := dbtest.CreateTestService(s.T(), s.DB, "Haircut", 60, 0, 1)
		contactID := dbtest.CreateTestContact(s.T(), s.DB, "Jamie Doe", "jamie@example.com")

		rec := s.createBooking(serviceID, contactID, bookableStart())
		var created resdto.BookingResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusCreated, &created)

		statusURL := bookingsURL + "/" + created.ID.String() + "/status"
		completeRec := httptest.PerformRequest(s.T(), s.Router, http.MethodPatch, statusURL,
			reqdto.UpdateBookingStatusRequest{Status: "completed"})
		httptest.AssertErrorResponse(s.T(), completeRec, http.StatusUnprocessableEntity, "transition not allowed")
	})

	s.Run("error: cancelled booking stays cancelled", func() {
		serviceID := dbtest.CreateTestService(s.T(), s.DB, "Haircut", 60, 0, 1)
		contactID := dbtest.CreateTestContact(s.T(), s.DB, "Jamie Doe", "jamie@example.com")

		rec := s.createBooking(serviceID, contactID, bookableStart())
		var created resdto.BookingResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusCreated, &created)

		statusURL := bookingsURL + "/" + created.ID.String() + "/status"
		cancelRec := httptest.PerformRequest(s.T(), s.Router, http.MethodPatch, statusURL,
			reqdto.UpdateBookingStatusRequest{Status: "cancelled"})
		httptest.AssertSuccessResponse(s.T(), cancelRec, http.StatusOK, nil)

		reviveRec := httptest.PerformRequest(s.T(), s.Router, http.MethodPatch, statusURL,
			reqdto.UpdateBookingStatusRequest{Status: "confirmed"})
		httptest.AssertErrorResponse(s.T(), reviveRec, http.StatusUnprocessableEntity, "transition not allowed")
	})
}

func (s *bookingSuite) TestAdjustStock() {
	s.Run("success: manual restock returns the transaction", func() {
		itemID := dbtest.CreateTestItem(s.T(), s.DB, "Shampoo", 5, 3, true)

		rec := httptest.PerformRequest(s.T(), s.Router, http.MethodPost,
			"/api/inventory/items/"+itemID.String()+"/adjustments",
			reqdto.AdjustStockRequest{Delta: 10, Reason: "restock"})

		var tx resdto.InventoryTransactionResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusCreated, &tx)
		s.Equal(int32(15), tx.NewStock)
	})

	s.Run("error: deduction below zero without override returns 409", func() {
		itemID := dbtest.CreateTestItem(s.T(), s.DB, "Shampoo", 2, 0, true)

		rec := httptest.PerformRequest(s.T(), s.Router, http.MethodPost,
			"/api/inventory/items/"+itemID.String()+"/adjustments",
			reqdto.AdjustStockRequest{Delta: -5, Reason: "correction"})
		httptest.AssertErrorResponse(s.T(), rec, http.StatusConflict, "below zero")
	})
}

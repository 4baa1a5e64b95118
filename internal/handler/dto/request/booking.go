package request

import (
	"time"

	"github.com/google/uuid"
)

type CreateBookingRequest struct {
	ServiceID   uuid.UUID `json:"service_id" binding:"required"`
	ContactID   uuid.UUID `json:"contact_id" binding:"required"`
	Start       time.Time `json:"start" binding:"required"`
	AutoConfirm bool      `json:"auto_confirm"`
	Note        *string   `json:"note"`
}

type UpdateBookingStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

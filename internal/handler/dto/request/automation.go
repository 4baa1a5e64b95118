package request

import (
	"github.com/google/uuid"
)

type EmitEventRequest struct {
	Type     string            `json:"type" binding:"required"`
	EntityID uuid.UUID         `json:"entity_id" binding:"required"`
	Payload  map[string]string `json:"payload"`
}

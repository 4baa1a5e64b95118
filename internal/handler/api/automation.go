package api

import (
	"net/http"

	"bookline/internal/domain/automation"
	reqdto "bookline/internal/handler/dto/request"
	"bookline/internal/pkg/clock"
	"bookline/internal/usecase/commands"

	"github.com/gin-gonic/gin"
)

type AutomationHandler struct {
	publisher commands.EventPublisher
	clock     clock.Clock
}

func NewAutomationHandler(publisher commands.EventPublisher, clk clock.Clock) *AutomationHandler {
	return &AutomationHandler{publisher: publisher, clock: clk}
}

// @Summary Emit lifecycle event
// @Description Hand a lifecycle event to the automation engine; processing is asynchronous
// @Tags events
// @Accept json
// @Produce json
// @Param request body reqdto.EmitEventRequest true "Event"
// @Success 202 {object} map[string]string
// @Failure 400 {object} map[string]string
// @Router /events [post]
func (h *AutomationHandler) EmitEvent(c *gin.Context) {
	var req reqdto.EmitEventRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return
	}

	eventType, ok := automation.ParseEventType(req.Type)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Unknown event type",
		})
		return
	}

	h.publisher.Publish(automation.Event{
		Type:       eventType,
		EntityID:   req.EntityID,
		Payload:    req.Payload,
		OccurredAt: h.clock.Now(),
	})

	c.JSON(http.StatusAccepted, gin.H{
		"status": "accepted",
	})
}

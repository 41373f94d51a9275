package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/indiancoinstore/coinstore-backend/internal/middleware"
	"github.com/indiancoinstore/coinstore-backend/internal/websocket"
)

type NotificationController struct {
	hub *websocket.Hub
}

func NewNotificationController(hub *websocket.Hub) *NotificationController {
	return &NotificationController{hub: hub}
}

// GetCurrent returns the visible notification, or null
// GET /api/v1/notifications/current
func (ctrl *NotificationController) GetCurrent(c *gin.Context) {
	s, ok := sessionFrom(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"notification": s.Notifier.Current(),
	})
}

// Dismiss hides the notification
// DELETE /api/v1/notifications/current
func (ctrl *NotificationController) Dismiss(c *gin.Context) {
	s, ok := sessionFrom(c)
	if !ok {
		return
	}
	s.Notifier.Hide()
	c.Status(http.StatusNoContent)
}

// Connect upgrades to a websocket that receives cart and notification events
// GET /api/v1/ws?token=...
func (ctrl *NotificationController) Connect(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	s, ok := sessionFrom(c)
	if !ok {
		return
	}

	if err := websocket.Serve(ctrl.hub, c.Writer, c.Request, s.ID); err != nil {
		log.Warn("WebSocket upgrade failed", map[string]interface{}{
			"session_id": s.ID,
			"error":      err.Error(),
		})
		return
	}
}

package controllers

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"writing-challenge-api/models"
)

const streamKeepAlive = 25 * time.Second

type eventSubscriber interface {
	Subscribe(userID uint) (<-chan models.NotificationEvent, func())
}

// StreamController pushes the caller's notification events as server-sent
// events.
type StreamController struct {
	hub eventSubscriber
}

func NewStreamController(hub eventSubscriber) *StreamController {
	return &StreamController{hub: hub}
}

// GET /api/v1/notifications/stream
func (h *StreamController) Stream(c *gin.Context) {
	uid, ok := getCurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	events, unsubscribe := h.hub.Subscribe(uid)
	defer unsubscribe()

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	keepAlive := time.NewTicker(streamKeepAlive)
	defer keepAlive.Stop()

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case ev, open := <-events:
			if !open {
				return false
			}
			c.SSEvent("notification", ev)
			return true
		case <-keepAlive.C:
			c.SSEvent("ping", gin.H{"at": time.Now().UTC()})
			return true
		}
	})
}

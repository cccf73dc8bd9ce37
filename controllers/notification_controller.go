package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"writing-challenge-api/models"
	"writing-challenge-api/services"
)

type notificationService interface {
	List(ctx context.Context, userID uint) ([]models.Notification, error)
	UnreadCount(ctx context.Context, userID uint) (int64, error)
	SetStatus(ctx context.Context, userID uint, notificationID string, target models.NotificationStatus) error
	SetAllStatus(ctx context.Context, userID uint, from, to models.NotificationStatus) (int64, error)
	Send(ctx context.Context, msg services.Message) (*services.DeliveryReport, error)
	SendMany(ctx context.Context, msgs []services.Message) (*services.DeliveryReport, error)
}

type NotificationController struct {
	notifications notificationService
}

func NewNotificationController(notifications notificationService) *NotificationController {
	return &NotificationController{notifications: notifications}
}

type setStatusReq struct {
	Status models.NotificationStatus `json:"status" binding:"required"`
}

type setAllStatusReq struct {
	From models.NotificationStatus `json:"from" binding:"required"`
	To   models.NotificationStatus `json:"to" binding:"required"`
}

type sendNotifReq struct {
	UserID  uint                    `json:"user_id" binding:"required"`
	Title   string                  `json:"title" binding:"required,max=255"`
	Content string                  `json:"content" binding:"max=5000"`
	Type    models.NotificationType `json:"type" binding:"required"`
}

func (r sendNotifReq) message() services.Message {
	return services.Message{To: r.UserID, Title: r.Title, Content: r.Content, Type: r.Type}
}

type sendBatchReq struct {
	Notifications []sendNotifReq `json:"notifications" binding:"required,min=1,dive"`
}

/* ==========================
   Recipient endpoints
   ========================== */

// GET /api/v1/notifications
func (h *NotificationController) List(c *gin.Context) {
	uid, ok := getCurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	items, err := h.notifications.List(c.Request.Context(), uid)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// GET /api/v1/notifications/unread-count
func (h *NotificationController) UnreadCount(c *gin.Context) {
	uid, ok := getCurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	n, err := h.notifications.UnreadCount(c.Request.Context(), uid)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread": n})
}

// PUT /api/v1/notifications/:id/status
func (h *NotificationController) SetStatus(c *gin.Context) {
	uid, ok := getCurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	var req setStatusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	if err := h.notifications.SetStatus(c.Request.Context(), uid, c.Param("id"), req.Status); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// PUT /api/v1/notifications/status
func (h *NotificationController) SetAllStatus(c *gin.Context) {
	uid, ok := getCurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	var req setAllStatusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	changed, err := h.notifications.SetAllStatus(c.Request.Context(), uid, req.From, req.To)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "updated": changed})
}

/* ==========================
   Admin endpoints
   ========================== */

// POST /api/v1/admin/notifications
func (h *NotificationController) Send(c *gin.Context) {
	var req sendNotifReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	report, err := h.notifications.Send(c.Request.Context(), req.message())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "report": report})
}

// POST /api/v1/admin/notifications/batch
func (h *NotificationController) SendBatch(c *gin.Context) {
	var req sendBatchReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	msgs := make([]services.Message, 0, len(req.Notifications))
	for _, n := range req.Notifications {
		msgs = append(msgs, n.message())
	}
	report, err := h.notifications.SendMany(c.Request.Context(), msgs)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "report": report})
}

package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"writing-challenge-api/controllers"
	"writing-challenge-api/middleware"
)

// Handlers groups the controllers mounted under /api/v1.
type Handlers struct {
	Challenges    *controllers.ChallengeController
	Notifications *controllers.NotificationController
	Stream        *controllers.StreamController
}

func SetupRoutes(router *gin.Engine, h Handlers, jwtSecret string) {
	// API v1 group
	v1 := router.Group("/api/v1")
	{
		// Protected routes (require authentication)
		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware(jwtSecret))
		{
			challenges := protected.Group("/challenges")
			{
				challenges.GET("", h.Challenges.List)
				challenges.GET("/:id", h.Challenges.Get)
				challenges.POST("", h.Challenges.Create)
			}

			notifications := protected.Group("/notifications")
			{
				notifications.GET("", h.Notifications.List)
				notifications.GET("/unread-count", h.Notifications.UnreadCount)
				notifications.GET("/stream", h.Stream.Stream)
				notifications.PUT("/status", h.Notifications.SetAllStatus)
				notifications.PUT("/:id/status", h.Notifications.SetStatus)
			}

			// Only admin can send notifications directly
			admin := protected.Group("/admin", middleware.RequireRole(middleware.RoleAdmin))
			{
				admin.POST("/notifications", h.Notifications.Send)
				admin.POST("/notifications/batch", h.Notifications.SendBatch)
			}
		}
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
	})
}

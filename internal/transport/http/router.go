package http

import (
	"availability-service/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func Router(svc service.Availability, log *zap.Logger) *gin.Engine {
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	h := NewAvailabilityHandler(svc, log)

	v1 := r.Group("/api/v1")
	{
		v1.POST("/hotels/:hotelID/maintenance", h.ApplyMaintenanceFeed)
		v1.DELETE("/hotels/:hotelID/maintenance", h.ReleaseMaintenance)
		v1.POST("/hotels/:hotelID/reconcile", h.Reconcile)
		v1.GET("/hotels/:hotelID/rooms/:roomID/availability", h.ListAvailability)
		v1.POST("/hotels/:hotelID/rooms/:roomID/provision", h.ProvisionRoomUnit)
		v1.POST("/hotels/:hotelID/rooms/:roomID/reservation", h.ApplyReservation)
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	})

	return r
}

package app

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"driveshare/internal/handler"
	"driveshare/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	BookingHandler *handler.BookingHandler
	HandoffHandler *handler.HandoffHandler
	TripHandler    *handler.TripHandler
	RedisClient    *redis.Client
	NewRelicApp    *newrelic.Application
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(gin.Logger())
	router.Use(middleware.CORSMiddleware())

	// Add New Relic middleware if enabled.
	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	router.Use(middleware.IdempotencyMiddleware(deps.RedisClient))

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// API v1 routes.
	v1 := router.Group("/v1")
	{
		// Booking routes.
		bookings := v1.Group("/bookings")
		{
			bookings.GET("/:id", deps.BookingHandler.GetBooking)
		}

		// Handoff verification routes, keyed by booking.
		handoff := v1.Group("/handoff")
		{
			handoff.POST("/:bookingId/verify", deps.HandoffHandler.Verify)
			handoff.GET("/:bookingId/status", deps.HandoffHandler.Status)
			handoff.POST("/:bookingId/confirm", deps.HandoffHandler.Confirm)
			handoff.POST("/:bookingId/bypass", deps.HandoffHandler.Bypass)
		}

		// Trip lifecycle routes, keyed by booking.
		trips := v1.Group("/trips")
		{
			trips.POST("/:bookingId/start", deps.TripHandler.StartTrip)
			trips.GET("/:bookingId", deps.TripHandler.GetTrip)
			trips.POST("/:bookingId/settlement", deps.TripHandler.PreviewSettlement)
			trips.POST("/:bookingId/end", deps.TripHandler.EndTrip)
		}
	}

	return router
}

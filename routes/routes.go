package routes

import (
	"time"

	"reservo/config"
	"reservo/handlers"
	"reservo/middleware"
	"reservo/models"
	"reservo/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterAvailabilityRoutes registers calendar, slot, hold and availability management endpoints.
func RegisterAvailabilityRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/availability")
	{
		// Public reads.
		api.GET("/calendar/:provider", hb.Availability.MonthCalendar)
		api.GET("/providers/:provider/timeslots", hb.Availability.DaySlots)
		api.GET("/providers/:provider/rules", hb.Availability.GetRules)
		api.GET("/providers/:provider/overrides", hb.Availability.ListOverrides)

		authed := api.Group("")
		authed.Use(middleware.JWTAuthMiddleware())
		authed.POST("/slots/hold", hb.Holds.Hold)
		authed.POST("/slots/release", hb.Holds.Release)
		authed.GET("/slots/holds", hb.Holds.Active)

		manage := authed.Group("/providers/:provider")
		manage.Use(middleware.RequireRole(models.RoleProvider, models.RoleAdmin))
		manage.PUT("/rules", hb.Availability.SetRules)
		manage.PUT("/overrides/:date", hb.Availability.UpsertOverride)
		manage.DELETE("/overrides/:date", hb.Availability.DeleteOverride)
	}
}

// RegisterProviderRoutes registers the service catalogue.
func RegisterProviderRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/providers")
	{
		api.GET("/:provider/services", hb.Catalogue.ListServices)
		api.PUT("/:provider/services",
			middleware.JWTAuthMiddleware(),
			middleware.RequireRole(models.RoleProvider, models.RoleAdmin),
			hb.Catalogue.SetServices)
	}
}

// RegisterBookingRoutes sets up the endpoints for the booking lifecycle.
func RegisterBookingRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	bookingGroup := r.Group("/api/bookings")
	{
		bookingGroup.Use(middleware.JWTAuthMiddleware())
		bookingGroup.POST("", middleware.RequireRole(models.RoleClient), hb.Bookings.Create)
		bookingGroup.GET("", hb.Bookings.List)
		bookingGroup.GET("/:id", hb.Bookings.Get)
		bookingGroup.PUT("/:id", hb.Bookings.UpdateStatus)
		bookingGroup.DELETE("/:id", hb.Bookings.Delete)
		bookingGroup.POST("/:id/complete", hb.Bookings.Complete)
		bookingGroup.POST("/:id/evidence", hb.Bookings.AddEvidence)
		bookingGroup.PUT("/:id/confirm", hb.Bookings.Confirm)
		bookingGroup.PUT("/:id/resolve-dispute", middleware.RequireRole(models.RoleAdmin), hb.Bookings.ResolveDispute)
		bookingGroup.PUT("/:id/reschedule", hb.Bookings.Reschedule)
		bookingGroup.PUT("/:id/cancel", hb.Bookings.Cancel)
	}
}

// RegisterWalletRoutes sets up provider wallet endpoints.
func RegisterWalletRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	walletGroup := r.Group("/api/wallet")
	{
		walletGroup.Use(middleware.JWTAuthMiddleware(), middleware.RequireRole(models.RoleProvider, models.RoleAdmin))
		walletGroup.GET("", hb.Wallet.Get)
		walletGroup.GET("/transactions", hb.Wallet.Transactions)
		walletGroup.GET("/verify", hb.Wallet.Verify)
	}
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.GET("/health", hb.Health.Health)
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.Use(utils.ErrorHandler())
	r.Use(middleware.RequestLogger())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type", utils.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", utils.RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(middleware.RateLimitMiddleware(config.AppConfig.MaxRequestsPerMin))

	RegisterHealthRoute(r, hb)
	RegisterAvailabilityRoutes(r, hb)
	RegisterProviderRoutes(r, hb)
	RegisterBookingRoutes(r, hb)
	RegisterWalletRoutes(r, hb)
}

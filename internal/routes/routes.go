package routes

import (
	"eyeclinic-server/internal/config"
	"eyeclinic-server/internal/handlers"
	"eyeclinic-server/internal/middleware"
	"eyeclinic-server/internal/models"
	"eyeclinic-server/internal/scheduler"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SetupRoutes configures the application routes.
func SetupRoutes(router *gin.Engine, db *gorm.DB, cfg *config.Config, sched *scheduler.Scheduler) {
	// Initialize handlers
	authHandler := handlers.NewAuthHandler(db, cfg)
	userHandler := handlers.NewUserHandler(db)
	appointmentHandler := handlers.NewAppointmentHandler(sched)
	linkHandler := handlers.NewAppointmentLinkHandler(sched)

	// Public routes (no authentication required)
	public := router.Group("/api/v1")
	{
		public.POST("/auth/login", authHandler.Login)

		// Website appointment intake
		public.POST("/appointments/public", appointmentHandler.CreatePublicAppointment)

		// Link-based self-scheduling flow
		linkRoutes := public.Group("/appointment-links/public/:token")
		{
			linkRoutes.GET("", linkHandler.GetLinkInfo)
			linkRoutes.GET("/slots", linkHandler.GetLinkSlots)
			linkRoutes.POST("/schedule", linkHandler.ScheduleViaLink)
		}
	}

	// Authenticated routes
	private := router.Group("/api/v1")
	private.Use(middleware.AuthMiddleware(cfg)) // Apply JWT authentication middleware
	{
		private.GET("/auth/profile", authHandler.GetProfile)

		// Staff user management routes
		userRoutes := private.Group("/users")
		{
			// Doctor listing is available to all authenticated staff
			userRoutes.GET("/doctors", userHandler.GetDoctors)

			// Admin-only routes
			adminRoutes := userRoutes.Group("")
			adminRoutes.Use(middleware.RoleAuthMiddleware(models.RoleAdmin)) // Only Admins
			{
				adminRoutes.POST("", userHandler.CreateUser)
				adminRoutes.GET("", userHandler.GetUsers)
				adminRoutes.GET("/:id", userHandler.GetUserByID)
				adminRoutes.PUT("/:id", userHandler.UpdateUser)
				adminRoutes.DELETE("/:id", userHandler.DeactivateUser)
			}
		}

		// Appointment routes
		appointmentRoutes := private.Group("/appointments")
		{
			appointmentRoutes.POST("", middleware.RoleAuthMiddleware(models.RoleAdmin, models.RoleReceptionist, models.RoleDoctor), appointmentHandler.CreateAppointment)
			appointmentRoutes.GET("", appointmentHandler.GetAppointments) // Doctors are scoped to their own schedule in the handler
			appointmentRoutes.GET("/available-slots", appointmentHandler.GetAvailableSlots)
			appointmentRoutes.GET("/doctor/:doctorId/schedule", appointmentHandler.GetDoctorSchedule)
			appointmentRoutes.GET("/:id", appointmentHandler.GetAppointmentByID)
			appointmentRoutes.PUT("/:id", middleware.RoleAuthMiddleware(models.RoleAdmin, models.RoleReceptionist, models.RoleDoctor), appointmentHandler.UpdateAppointment)
			appointmentRoutes.PATCH("/:id/status", appointmentHandler.UpdateAppointmentStatus)
			appointmentRoutes.PATCH("/:id/cancel", appointmentHandler.CancelAppointment)
		}

		// Link generation (staff only)
		private.POST("/appointment-links/generate", middleware.RoleAuthMiddleware(models.RoleAdmin, models.RoleReceptionist), linkHandler.GenerateLink)
	}

	// Simple health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "UP"})
	})
}

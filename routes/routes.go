package routes

import (
	"achievement-review-api/controllers"
	"achievement-review-api/middleware"
	"achievement-review-api/models"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(router *gin.Engine) {
	// API v1 group
	v1 := router.Group("/api/v1")
	{
		// Public routes
		public := v1.Group("")
		{
			// Health check
			public.GET("/health", func(c *gin.Context) {
				c.JSON(200, gin.H{
					"status":  "ok",
					"message": "Achievement Review API is running",
				})
			})
		}

		// Protected routes (require authentication)
		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware())
		{
			// Achievements
			achievements := protected.Group("/achievements")
			{
				// All roles can list and view within their own scope
				achievements.GET("", controllers.GetAchievements)
				achievements.GET("/:id", controllers.GetAchievement)
				achievements.GET("/:id/reviews", controllers.GetAchievementReviews)

				// Only students create and resubmit
				achievements.POST("", middleware.RequireRole(models.RoleStudent), controllers.CreateAchievement)
				achievements.POST("/:id/resubmit", middleware.RequireRole(models.RoleStudent), controllers.ResubmitAchievement)

				// Only institutional reviewers decide
				achievements.POST("/:id/approve", middleware.RequireRole(models.RoleReviewer), controllers.ApproveAchievement)
				achievements.POST("/:id/reject", middleware.RequireRole(models.RoleReviewer), controllers.RejectAchievement)
				achievements.POST("/:id/request-revision", middleware.RequireRole(models.RoleReviewer), controllers.RequestRevision)

				// Bulk transitions stay with the reviewer role; the oversight
				// role is read-only and keeps export.
				achievements.POST("/bulk", middleware.RequireRole(models.RoleReviewer), controllers.BulkApplyAchievements)
				achievements.POST("/export", middleware.RequireRole(models.RoleReviewer, models.RoleGovernment), controllers.ExportAchievements)
			}

			// Dashboard
			dashboard := protected.Group("/dashboard")
			{
				dashboard.GET("/stats", controllers.GetDashboardStats)
				dashboard.POST("/goals", controllers.GetGoalProgress)
			}
		}
	}
}

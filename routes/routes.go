package routes

import (
	"submission-review-api/controllers"
	"submission-review-api/middleware"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(router *gin.Engine) {
	// API v1 group
	v1 := router.Group("/api/v1")
	{
		// Public routes
		public := v1.Group("")
		{
			public.POST("/login", controllers.Login)

			public.GET("/health", func(c *gin.Context) {
				c.JSON(200, gin.H{
					"status":  "ok",
					"message": "Submission Review API is running",
				})
			})

			// Published calls are readable without authentication
			public.GET("/calls", controllers.GetCalls)
			public.GET("/calls/:id", controllers.GetCall)
		}

		// Protected routes (require authentication)
		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware())
		{
			// User profile
			protected.GET("/profile", controllers.GetProfile)
			protected.PUT("/change-password", controllers.ChangePassword)

			// Submissions
			protected.POST("/calls/:id/submissions", controllers.CreateSubmission)
			protected.GET("/submissions", controllers.GetMySubmissions)
			protected.GET("/submissions/:id", controllers.GetSubmission)
			protected.PUT("/submissions/:id", controllers.UpdateSubmission)
			protected.DELETE("/submissions/:id", controllers.DeleteSubmission)

			// Posters
			protected.POST("/submissions/:id/poster", controllers.UploadPoster)
			protected.GET("/submissions/:id/poster", controllers.DownloadPoster)

			// Author-facing aggregate, visibility gated
			protected.GET("/submissions/:id/scores", controllers.GetMySubmissionScores)

			// Score recording: admins or actively assigned evaluators;
			// the scoring service enforces the assignment check.
			protected.POST("/submissions/:id/evaluate-written", controllers.EvaluateWritten)
			protected.POST("/submissions/:id/evaluate-oral", controllers.EvaluateOral)

			// Notifications
			protected.GET("/notifications", controllers.GetNotifications)
			protected.POST("/notifications/:id/read", controllers.MarkNotificationRead)
			protected.POST("/notifications/read-all", controllers.MarkAllNotificationsRead)

			// Admin routes
			admin := protected.Group("/admin")
			admin.Use(middleware.RequireAdmin())
			{
				// Call management
				admin.GET("/calls", controllers.GetAdminCalls)
				admin.GET("/calls/:id", controllers.GetAdminCall)
				admin.POST("/calls", controllers.CreateCall)
				admin.PUT("/calls/:id", controllers.UpdateCall)
				admin.POST("/calls/:id/publish", controllers.PublishCall)
				admin.DELETE("/calls/:id", controllers.DeleteCall)
				admin.POST("/calls/:id/classify", controllers.ClassifyCall)

				// Review workflow
				admin.GET("/submissions", controllers.GetAllSubmissions)
				admin.GET("/submissions/:id/evaluators", controllers.GetEvaluators)
				admin.POST("/submissions/:id/evaluators", controllers.AssignEvaluators)
				admin.GET("/submissions/:id/scores", controllers.GetScores)
				admin.POST("/submissions/:id/score-visibility", controllers.SetScoreVisibility)
				admin.POST("/submissions/:id/final-status", controllers.SetFinalStatus)
			}
		}
	}
}

package controller

import (
	"github.com/gin-gonic/gin"

	"clarita-backend/internal/config"
	"clarita-backend/internal/service"
	"clarita-backend/pkg/middleware"
	"clarita-backend/utilities"
)

// RegisterRoutes wires the full API surface onto the router.
func RegisterRoutes(
	r *gin.Engine,
	cfg *config.APIConfig,
	authService service.AuthService,
	uploadService service.UploadService,
	quizService service.QuizService,
	attemptService service.AttemptService,
	statsService service.StatsService,
	exportService service.ExportService,
) {
	authCtrl := NewAuthController(authService)
	uploadCtrl := NewUploadController(uploadService)
	quizCtrl := NewQuizController(quizService, exportService)
	attemptCtrl := NewAttemptController(attemptService)
	userCtrl := NewUserController(quizService, statsService)

	api := r.Group("/api")

	// Auth routes are the only unauthenticated surface.
	auth := api.Group("/auth")
	{
		auth.POST("/signup", authCtrl.Signup)
		auth.POST("/signin", authCtrl.Signin)
		auth.POST("/refresh", authCtrl.Refresh)
	}

	protected := api.Group("")
	protected.Use(utilities.AuthMiddleware())
	{
		protected.POST("/auth/signout", authCtrl.Signout)
		protected.GET("/auth/me", authCtrl.Me)

		protected.POST("/upload", uploadCtrl.Upload)

		generate := protected.Group("")
		generate.Use(middleware.GenerationRateLimiter(cfg.Generation.RequestsPerMinute, cfg.Generation.Burst))
		{
			generate.POST("/quizzes", quizCtrl.Create)
			generate.POST("/quizzes/:id/regenerate", quizCtrl.Regenerate)
		}

		protected.GET("/quizzes/:id", quizCtrl.Get)
		protected.PATCH("/quizzes/:id", quizCtrl.Patch)
		protected.DELETE("/quizzes/:id", quizCtrl.Delete)
		protected.GET("/quizzes/:id/export", quizCtrl.Export)

		protected.POST("/quiz-attempts", attemptCtrl.Submit)
		protected.GET("/quizzes/:id/latest-attempt", attemptCtrl.Latest)
		protected.GET("/quizzes/:id/attempts", attemptCtrl.ListByQuiz)

		protected.GET("/user/statistics", userCtrl.Statistics)
		protected.GET("/user/uploads", uploadCtrl.ListUploads)
		protected.GET("/user/quizzes", userCtrl.ListQuizzes)
		protected.GET("/user/quiz-folders", userCtrl.ListQuizFolders)
	}
}

package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/stemsi/assessment-pipeline/internal/config"
	"github.com/stemsi/assessment-pipeline/internal/handler"
	"github.com/stemsi/assessment-pipeline/internal/metrics"
	"github.com/stemsi/assessment-pipeline/internal/middleware"
	"github.com/stemsi/assessment-pipeline/internal/response"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Question *handler.QuestionHandler
	Review   *handler.ReviewHandler
	Curation *handler.CurationHandler
	Quiz     *handler.QuizHandler
	Play     *handler.PlayHandler
	WS       *handler.WSHandler
	System   *handler.SystemHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
// submitLimiter throttles attempt submission per client IP.
func SetupRouter(handlers *Handlers, submitLimiter *middleware.RateLimiter, cfg *config.Config) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(gin.Recovery())

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID", middleware.PlayTokenHeader}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	router.Use(response.RequestIDMiddleware())
	router.Use(metrics.Middleware())
	router.Use(middleware.Brotli())

	router.NoRoute(func(c *gin.Context) {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	})

	router.GET("/health", handlers.System.Health)
	router.GET("/metrics", metrics.Handler())

	// ─── 1. Public Group (anonymous participants) ──────────────────────
	public := router.Group("/api/v1/public/quizzes/:slug")
	public.Use(middleware.NoStore())
	{
		public.GET("", handlers.Play.OpenQuiz)
		public.POST("/unlock", handlers.Play.UnlockQuiz)
		public.POST("/grade", middleware.RequirePlayToken(), handlers.Play.GradeAnswers)
		public.POST("/attempts",
			submitLimiter.Middleware(),
			middleware.RequirePlayToken(),
			handlers.Play.SubmitAttempt,
		)
	}

	// ─── 2. Admin Group ────────────────────────────────────────────────
	admin := router.Group("/api/v1/admin")
	{
		// Questions and moderation
		admin.POST("/questions/import", handlers.Question.ImportQuestions)
		admin.GET("/questions", handlers.Question.ListQuestions)
		admin.POST("/questions/bulk-delete", handlers.Question.BulkDeleteQuestions)
		admin.POST("/questions/batch-status", handlers.Review.BatchSetStatus)
		admin.GET("/questions/:id", handlers.Question.GetQuestion)
		admin.PATCH("/questions/:id", handlers.Review.SubmitEdits)
		admin.DELETE("/questions/:id", handlers.Question.DeleteQuestion)
		admin.POST("/questions/:id/approve", handlers.Review.Approve)
		admin.POST("/questions/:id/reject", handlers.Review.Reject)

		// Curation
		admin.POST("/curation/suggest", handlers.Curation.Suggest)

		// Quizzes
		admin.POST("/quizzes", handlers.Quiz.CreateQuiz)
		admin.GET("/quizzes", handlers.Quiz.ListQuizzes)
		admin.GET("/quizzes/:id", handlers.Quiz.GetQuiz)
		admin.PUT("/quizzes/:id/questions", handlers.Quiz.SetQuestions)
		admin.POST("/quizzes/:id/questions", handlers.Quiz.AddQuestion)
		admin.PATCH("/quizzes/:id/questions/:question_id", handlers.Quiz.UpdatePoints)
		admin.DELETE("/quizzes/:id/questions/:question_id", handlers.Quiz.RemoveQuestion)
		admin.POST("/quizzes/:id/publish", handlers.Quiz.PublishQuiz)
		admin.POST("/quizzes/:id/share", handlers.Quiz.EnableSharing)
		admin.DELETE("/quizzes/:id/share", handlers.Quiz.DisableSharing)
		admin.GET("/quizzes/:id/attempts", handlers.Quiz.ListAttempts)

		// System
		admin.GET("/system/queues", handlers.System.QueueStats)
	}

	// ─── 3. WebSocket Group ────────────────────────────────────────────
	ws := router.Group("/ws/v1/admin")
	{
		ws.GET("/review/stream", handlers.WS.ReviewStream)
	}

	return router
}

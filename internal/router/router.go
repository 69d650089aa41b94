package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/stemsi/lingua-backend/internal/config"
	"github.com/stemsi/lingua-backend/internal/handler"
	"github.com/stemsi/lingua-backend/internal/middleware"
	"github.com/stemsi/lingua-backend/internal/response"
)

// questionTypesMaxAge is how long clients may cache the type catalog.
const questionTypesMaxAge = 3600

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Evaluation *handler.EvaluationHandler
	Submission *handler.SubmissionHandler
	Question   *handler.QuestionHandler
	WS         *handler.WSHandler
	System     *handler.SystemHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
// ctx bounds background work owned by middlewares.
func SetupRouter(ctx context.Context, handlers *Handlers, cfg *config.Config) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	router.Use(middleware.Brotli())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	limiter := middleware.NewRateLimiter(ctx, cfg.RateLimitPerMinute, time.Minute)

	// ─── 1. Evaluator (stateless) ──────────────────────────────────────
	api := router.Group("/api/v1")
	api.Use(limiter.Middleware())
	{
		api.GET("/question-types", middleware.CacheControl(questionTypesMaxAge), handlers.Evaluation.ListQuestionTypes)
		api.POST("/evaluate", handlers.Evaluation.Evaluate)
	}

	// ─── 2. Submissions ────────────────────────────────────────────────
	submissions := api.Group("/submissions")
	submissions.Use(middleware.NoStore())
	{
		submissions.POST("", handlers.Submission.StartSubmission)
		submissions.GET("/:id", handlers.Submission.GetSubmission)
		submissions.PUT("/:id/answers/:question_id", handlers.Submission.SaveAnswer)
		submissions.POST("/:id/submit", handlers.Submission.Submit)
	}

	// ─── 3. WebSocket ──────────────────────────────────────────────────
	ws := router.Group("/ws/v1")
	{
		ws.GET("/submissions/:id/stream", handlers.WS.SubmissionStream)
	}

	// ─── 4. Authoring ──────────────────────────────────────────────────
	admin := api.Group("/admin")
	{
		admin.GET("/tasks/:task_id/questions", handlers.Question.ListQuestions)
		admin.POST("/tasks/:task_id/questions", handlers.Question.AddQuestions)
		admin.POST("/tasks/:task_id/refresh-cache", handlers.Question.RefreshCache)
		admin.GET("/system/status", handlers.System.Status)
		admin.GET("/system/metrics", handlers.System.MetricsSSE)
	}

	return router
}

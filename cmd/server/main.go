package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/stemsi/lingua-backend/internal/config"
	"github.com/stemsi/lingua-backend/internal/database"
	"github.com/stemsi/lingua-backend/internal/handler"
	"github.com/stemsi/lingua-backend/internal/logger"
	"github.com/stemsi/lingua-backend/internal/repository"
	"github.com/stemsi/lingua-backend/internal/router"
	"github.com/stemsi/lingua-backend/internal/service"
	"github.com/stemsi/lingua-backend/internal/validator"
	"github.com/stemsi/lingua-backend/internal/worker"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Msg("Starting Lingua Backend")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Initialize Repositories ───────────────────────────────────────
	questionRepo := repository.NewQuestionRepository(pool)
	answerRepo := repository.NewAnswerRepository(pool)
	submissionRepo := repository.NewSubmissionRepository(pool)

	// ─── Initialize Services ──────────────────────────────────────────
	questionCache := service.NewQuestionCache(questionRepo, rdb, cfg.QuestionCacheTTL, log)
	questionService := service.NewQuestionService(pool, questionRepo, questionCache, log)
	evaluationService := service.NewEvaluationService(pool, submissionRepo, answerRepo, questionCache, rdb, log)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Evaluation: handler.NewEvaluationHandler(log),
		Submission: handler.NewSubmissionHandler(evaluationService, log),
		Question:   handler.NewQuestionHandler(questionService, log),
		WS:         handler.NewWSHandler(evaluationService, log, cfg.AllowedOrigins),
		System:     handler.NewSystemHandler(pool, rdb, log),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())
	var workers sync.WaitGroup

	autosaveWorker := worker.NewAutosaveWorker(answerRepo, questionCache, rdb, log)
	scoringWorker := worker.NewScoringWorker(pool, answerRepo, rdb, log)

	workers.Add(2)
	go func() { defer workers.Done(); autosaveWorker.Start(workerCtx) }()
	go func() { defer workers.Done(); scoringWorker.Start(workerCtx) }()

	// ─── Prewarm Redis Caches ─────────────────────────────────────────
	// Tasks with open submissions are loaded before accepting traffic.
	if taskIDs, err := submissionRepo.ActiveTaskIDs(ctx); err != nil {
		log.Warn().Err(err).Msg("Cache prewarm failed")
	} else {
		questionCache.Prewarm(ctx, taskIDs)
	}

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(ctx, handlers, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop background workers and wait for queues to drain.
	workerCancel()
	workers.Wait()

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}

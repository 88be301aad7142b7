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

	"github.com/stemsi/assessment-pipeline/internal/classifier"
	"github.com/stemsi/assessment-pipeline/internal/config"
	"github.com/stemsi/assessment-pipeline/internal/curation"
	"github.com/stemsi/assessment-pipeline/internal/database"
	"github.com/stemsi/assessment-pipeline/internal/handler"
	"github.com/stemsi/assessment-pipeline/internal/logger"
	"github.com/stemsi/assessment-pipeline/internal/metrics"
	"github.com/stemsi/assessment-pipeline/internal/middleware"
	"github.com/stemsi/assessment-pipeline/internal/repository"
	"github.com/stemsi/assessment-pipeline/internal/router"
	"github.com/stemsi/assessment-pipeline/internal/scoring"
	"github.com/stemsi/assessment-pipeline/internal/service"
	"github.com/stemsi/assessment-pipeline/internal/validator"
	"github.com/stemsi/assessment-pipeline/internal/worker"
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
		Str("trust_mode", cfg.AttemptTrustMode).
		Msg("Starting assessment pipeline")

	// ─── Initialize Validator & Metrics ────────────────────────────────
	validator.Setup()
	metrics.Init()

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

	health := database.NewHealth(2*time.Second).
		Register("postgres", pool).
		Register("redis", database.PingFunc(func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}))

	// ─── Initialize Repositories ───────────────────────────────────────
	questionRepo := repository.NewQuestionRepository(pool)
	quizRepo := repository.NewQuizRepository(pool)
	attemptRepo := repository.NewAttemptRepository(pool)

	// ─── Classifier (optional) ─────────────────────────────────────────
	var cls service.Classifier
	if cfg.ClassifierURL != "" {
		client, err := classifier.NewClient(cfg.ClassifierURL, cfg.ClassifierAPIKey, cfg.ClassifierTimeout, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to build classifier client")
		}
		cls = client
	} else {
		log.Warn().Msg("CLASSIFIER_URL not set, curation suggestions disabled")
	}

	// ─── Initialize Services ──────────────────────────────────────────
	events := service.NewReviewEvents(rdb, log)
	questionService := service.NewQuestionService(questionRepo, events, cfg.BatchConcurrency, log)
	reviewService := service.NewReviewService(questionService, questionRepo, events, cfg.BatchConcurrency, log)
	curationService := service.NewCurationService(cls, questionService, curation.DefaultSource(), log)
	quizService := service.NewQuizService(quizRepo, questionService, attemptRepo, rdb, log)
	deliveryService := service.NewDeliveryService(
		quizRepo,
		questionService,
		rdb,
		service.NewPlayTokens(cfg.PlayTokenSecret, cfg.PlayTokenTTL),
		scoring.PolicyFor(cfg.AttemptTrustMode),
		cfg.PublicCacheTTL,
		log,
	)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Question: handler.NewQuestionHandler(questionService),
		Review:   handler.NewReviewHandler(reviewService),
		Curation: handler.NewCurationHandler(curationService),
		Quiz:     handler.NewQuizHandler(quizService),
		Play:     handler.NewPlayHandler(deliveryService),
		WS:       handler.NewWSHandler(events, log, cfg.AllowedOrigins),
		System:   handler.NewSystemHandler(health, rdb, log),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())
	var workers sync.WaitGroup

	attemptWorker := worker.NewAttemptWorker(attemptRepo, rdb, log)
	workers.Add(1)
	go func() {
		defer workers.Done()
		attemptWorker.Start(workerCtx)
	}()

	submitLimiter := middleware.NewRateLimiter(cfg.SubmitRatePerMinute, time.Minute)
	limiterStop := make(chan struct{})
	go submitLimiter.Run(limiterStop)

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(handlers, submitLimiter, cfg)

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
	close(limiterStop)

	// 2. Stop the attempt worker; it flushes its in-memory batch first.
	workerCancel()
	workers.Wait()

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}

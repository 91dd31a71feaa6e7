package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"golang.org/x/sync/errgroup"

	database "github.com/hireflow/hireflow-api/app/db"
	appLogger "github.com/hireflow/hireflow-api/app/logger"
	"github.com/hireflow/hireflow-api/app/observability/metrics"
	"github.com/hireflow/hireflow-api/app/tracer"
	"github.com/hireflow/hireflow-api/config"
	"github.com/hireflow/hireflow-api/internal/api/application"
	"github.com/hireflow/hireflow-api/internal/api/auth"
	"github.com/hireflow/hireflow-api/internal/api/candidate"
	"github.com/hireflow/hireflow-api/internal/api/job"
	"github.com/hireflow/hireflow-api/internal/router"
)

const tokenCleanupInterval = time.Hour

func main() {
	// Use standard log until slog is configured, in case godotenv fails.
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found or error loading:", err)
	}

	cfg, err := config.InitConfig()
	if err != nil {
		log.Fatalf("FATAL: Error initializing config: %v", err)
	}

	logger := setupLogger()
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Tracing and metrics before anything that records instruments.
	metricsHandler := tracer.InitTracingAndMetrics()
	metrics.InitAppMetrics()

	databaseURL := cfg.DatabaseURL()

	// Run migrations before initializing the main pool.
	if err := database.RunMigrations(databaseURL, logger); err != nil {
		logger.Error("Failed to run database migrations", slog.Any("error", err))
		os.Exit(1)
	}

	pool, err := database.Init(databaseURL, logger)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	if !database.WaitForDB(ctx, pool, logger) {
		logger.Error("Database not ready after waiting, exiting.")
		os.Exit(1)
	}

	// Dependency injection: repos, services, handlers.
	authRepo := auth.NewPostgresAuthRepo(pool, logger)
	authService := auth.NewAuthService(authRepo, &cfg, logger)
	authHandler := auth.NewAuthHandlerImpl(authService, logger)

	candidateRepo := candidate.NewPostgresCandidateRepo(pool, logger)
	candidateService := candidate.NewCandidateService(candidateRepo, logger)
	candidateHandler := candidate.NewCandidateHandlerImpl(candidateService, logger)

	jobRepo := job.NewPostgresJobRepo(pool, logger)
	jobService := job.NewJobService(jobRepo, logger)
	jobHandler := job.NewJobHandlerImpl(jobService, logger)

	applicationRepo := application.NewPostgresApplicationRepo(pool, logger)
	applicationService := application.NewApplicationService(applicationRepo, logger)
	applicationHandler := application.NewApplicationHandlerImpl(applicationService, logger)

	mainRouter := router.SetupRouter(&router.Config{
		AuthHandler:            authHandler,
		CandidateHandler:       candidateHandler,
		JobHandler:             jobHandler,
		ApplicationHandler:     applicationHandler,
		AuthenticateMiddleware: auth.Authenticate(logger, cfg.JWT, authService),
	})

	mux := chi.NewMux()
	mux.Use(middleware.RequestID)
	mux.Use(middleware.RealIP)
	mux.Use(appLogger.StructuredLogger(logger))
	mux.Use(middleware.Recoverer)
	mux.Use(middleware.StripSlashes)
	mux.Use(middleware.Timeout(cfg.Server.Timeout))
	mux.Use(middleware.Compress(5, "application/json"))
	mux.Mount("/", mainRouter)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.HTTPPort),
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	metricsMux := chi.NewMux()
	metricsMux.Handle("/metrics", metricsHandler)
	metricsSrv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.MetricsPort),
		Handler: metricsMux,
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		logger.Info("Starting metrics server", slog.String("address", metricsSrv.Addr))
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("metrics server: %w", err)
		}
		return nil
	})

	// Periodic sweep of expired refresh tokens so the table does not grow
	// without bound. Revoked-but-unexpired rows are kept until expiry.
	g.Go(func() error {
		ticker := time.NewTicker(tokenCleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gCtx.Done():
				return nil
			case <-ticker.C:
				removed, err := authService.CleanupExpiredTokens(gCtx)
				if err != nil {
					logger.Warn("Expired token cleanup failed", slog.Any("error", err))
					continue
				}
				if removed > 0 {
					logger.Info("Expired refresh tokens removed", slog.Int64("count", removed))
				}
			}
		}
	})

	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("Shutdown signal received, starting graceful shutdown...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server graceful shutdown failed", slog.Any("error", err))
		}
		if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Metrics server graceful shutdown failed", slog.Any("error", err))
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server exited with error", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("Application shut down complete.")
}

// setupLogger configures and returns the application logger.
func setupLogger() *slog.Logger {
	var logger *slog.Logger
	env := os.Getenv("APP_ENV")

	if env == "development" || env == "" {
		tintOpts := &tint.Options{
			Level:      slog.LevelDebug,
			TimeFormat: time.Kitchen,
			AddSource:  true,
		}
		logger = slog.New(tint.NewHandler(os.Stdout, tintOpts))
		log.Println("Initialized development logger (tint)")
	} else {
		jsonOpts := &slog.HandlerOptions{
			Level:     slog.LevelInfo,
			AddSource: false,
		}
		logger = slog.New(slog.NewJSONHandler(os.Stdout, jsonOpts))
		log.Println("Initialized production logger (JSON)")
	}
	return logger
}

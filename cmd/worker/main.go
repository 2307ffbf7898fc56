// Package main provides the entrypoint for the AriaMap batch worker.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/ariamap/ariamap/internal/database"
	"github.com/ariamap/ariamap/internal/datamap"
	"github.com/ariamap/ariamap/internal/health"
	"github.com/ariamap/ariamap/internal/kriging"
	"github.com/ariamap/ariamap/internal/measurement"
	"github.com/ariamap/ariamap/internal/model"
	"github.com/ariamap/ariamap/internal/pipeline"
	"github.com/ariamap/ariamap/internal/render"
	"github.com/ariamap/ariamap/internal/telemetry"
	"github.com/ariamap/ariamap/internal/weather"
	"github.com/ariamap/ariamap/internal/worker"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "ariamap-worker"

	// Setup structured logging
	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting AriaMap worker")

	// Worker also exposes a health endpoint for Cloud Run
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	otlpEndpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if otlpEndpoint == "" {
		otlpEndpoint = "localhost:4317"
	}

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	cfg := worker.ConfigFromEnv()
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid worker configuration")
	}

	// Initialize OpenTelemetry
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	telemetryEnabled := os.Getenv("OTEL_ENABLED") == "true"
	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    env,
		OTLPEndpoint:   otlpEndpoint,
		Enabled:        telemetryEnabled,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	// Connect to database
	dbConfig := database.ConfigFromEnv()
	pool, err := database.Connect(ctx, dbConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	log.Info().
		Str("host", dbConfig.Host).
		Str("database", dbConfig.Database).
		Msg("database connected")

	measurementRepo := measurement.NewPostgresRepository(pool)
	artifactRepo := datamap.NewPostgresRepository(pool)
	ingestion := measurement.NewService(measurement.ServiceConfig{
		Repository: measurementRepo,
		Logger:     log,
	})

	engine := kriging.NewEngine(kriging.EngineConfig{Logger: log})
	renderer := render.NewPNGRenderer(render.PNGRendererConfig{
		OutDir: cfg.MapsDir,
		Logger: log,
	})

	pipelineMetrics, err := pipeline.NewMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize pipeline metrics")
	}
	scheduler := pipeline.NewScheduler(pipeline.SchedulerConfig{
		Engine:    engine,
		Renderer:  renderer,
		Artifacts: artifactRepo,
		Logger:    log,
		Metrics:   pipelineMetrics,
	})

	// Model-backed health scoring
	modelClient := model.NewClient(model.ClientConfig{
		BaseURL: cfg.ModelServerURL,
		Logger:  log,
	})
	bundle, err := model.LoadBundle(cfg.BundlePath, modelClient, modelClient.AsSequenceModel())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load model bundle")
	}

	weatherStats, err := weather.LoadStats(cfg.WeatherStatsPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load climatology table")
	}
	estimator := health.NewEstimator(health.EstimatorConfig{
		Bundle:  bundle,
		Weather: weather.NewGenerator(weatherStats, 0),
		Engine:  engine,
		Logger:  log,
	})

	batchJob := worker.NewBatchJob(worker.BatchJobConfig{
		Ingestion: ingestion,
		Scheduler: scheduler,
		Estimator: estimator,
		Renderer:  renderer,
		Artifacts: artifactRepo,
		Logger:    log,
	})

	handler, err := worker.NewPubSubHandler(ctx, worker.PubSubConfig{
		ProjectID:        cfg.ProjectID,
		SubscriptionName: cfg.SubscriptionName,
		BatchJob:         batchJob,
		Logger:           log,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create pubsub handler")
	}
	defer handler.Close()

	// Health check server
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status":"healthy","version":%q}`, Version)
	})

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("health check server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("health server error")
		}
	}()

	// Start consuming measurement batches
	go func() {
		log.Info().
			Str("subscription", cfg.SubscriptionName).
			Msg("worker started, waiting for messages")

		if err := handler.Start(ctx); err != nil {
			log.Error().Err(err).Msg("pubsub receive stopped")
			cancel()
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down worker")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("health server forced to shutdown")
	}

	log.Info().Msg("worker stopped")
}

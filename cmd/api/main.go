// Package main provides the entrypoint for the AriaMap API server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/ariamap/ariamap/internal/api"
	"github.com/ariamap/ariamap/internal/api/middleware"
	"github.com/ariamap/ariamap/internal/auth"
	"github.com/ariamap/ariamap/internal/database"
	"github.com/ariamap/ariamap/internal/datamap"
	"github.com/ariamap/ariamap/internal/forecast"
	"github.com/ariamap/ariamap/internal/health"
	"github.com/ariamap/ariamap/internal/kriging"
	"github.com/ariamap/ariamap/internal/measurement"
	"github.com/ariamap/ariamap/internal/model"
	"github.com/ariamap/ariamap/internal/pipeline"
	"github.com/ariamap/ariamap/internal/render"
	"github.com/ariamap/ariamap/internal/telemetry"
	"github.com/ariamap/ariamap/internal/weather"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "ariamap-api"

	// Setup structured logging
	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting AriaMap API")

	// Get configuration from environment
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

	// Initialize OpenTelemetry
	ctx := context.Background()
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
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	if telemetryEnabled {
		log.Info().
			Str("otlp_endpoint", otlpEndpoint).
			Msg("OpenTelemetry initialized")
	}

	// Initialize metrics
	metrics, err := middleware.NewMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize metrics")
		os.Exit(1) //nolint:gocritic // intentional exit, telemetry cleanup is best-effort
	}

	// Connect to database
	dbConfig := database.ConfigFromEnv()
	pool, err := database.Connect(ctx, dbConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	log.Info().
		Str("host", dbConfig.Host).
		Int("port", dbConfig.Port).
		Str("database", dbConfig.Database).
		Msg("database connected")

	// Initialize JWT service (get signing key from environment)
	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		jwtSigningKey = "local-dev-signing-key-change-in-production"
		log.Warn().Msg("using default JWT signing key - not secure for production")
	}

	jwtService := auth.NewJWTService(auth.JWTConfig{
		SigningKey: jwtSigningKey,
		Issuer:     "https://api.ariamap.it",
		Audience:   "ariamap-api",
	})

	// Initialize stores
	measurementRepo := measurement.NewPostgresRepository(pool)
	artifactRepo := datamap.NewPostgresRepository(pool)

	// Interpolation engine and renderer, shared by the simulation and
	// health-map endpoints
	engine := kriging.NewEngine(kriging.EngineConfig{Logger: log})

	mapsDir := os.Getenv("MAPS_DIR")
	if mapsDir == "" {
		mapsDir = "maps"
	}
	renderer := render.NewPNGRenderer(render.PNGRendererConfig{
		OutDir: mapsDir,
		Logger: log,
	})

	simulator := pipeline.NewSimulator(pipeline.SimulatorConfig{
		Engine:   engine,
		Renderer: renderer,
		Logger:   log,
	})
	log.Info().Msg("simulation pipeline initialized")

	// Model-backed forecasting stack for the health-simulation endpoints
	modelServerURL := os.Getenv("MODEL_SERVER_URL")
	if modelServerURL == "" {
		modelServerURL = "http://localhost:8500"
	}
	modelClient := model.NewClient(model.ClientConfig{
		BaseURL: modelServerURL,
		Logger:  log,
	})

	bundlePath := os.Getenv("MODEL_BUNDLE_PATH")
	if bundlePath == "" {
		bundlePath = "models/manifest.json"
	}
	bundle, err := model.LoadBundle(bundlePath, modelClient, modelClient.AsSequenceModel())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load model bundle")
	}

	weatherStatsPath := os.Getenv("WEATHER_STATS_PATH")
	if weatherStatsPath == "" {
		weatherStatsPath = "models/weather_stats.json"
	}
	weatherStats, err := weather.LoadStats(weatherStatsPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load climatology table")
	}
	weatherGen := weather.NewGenerator(weatherStats, 0)

	forecaster := forecast.NewForecaster(forecast.ForecasterConfig{
		Bundle:  bundle,
		Weather: weatherGen,
		Logger:  log,
	})
	estimator := health.NewEstimator(health.EstimatorConfig{
		Bundle:  bundle,
		Weather: weatherGen,
		Engine:  engine,
		Logger:  log,
	})
	forecastService := forecast.NewService(forecast.ServiceConfig{
		Repository: measurementRepo,
		Forecaster: forecaster,
		Estimator:  estimator,
		Logger:     log,
	})
	log.Info().Msg("forecast service initialized")

	// Create router with configuration
	router := api.NewRouter(api.RouterConfig{
		Version:         Version,
		BuildTime:       BuildTime,
		Logger:          log,
		ServiceName:     serviceName,
		Metrics:         metrics,
		JWTService:      jwtService,
		Measurements:    measurementRepo,
		Artifacts:       artifactRepo,
		Simulator:       simulator,
		ForecastService: forecastService,
		Renderer:        renderer,
		Clock:           clockwork.NewRealClock(),
		MapsDir:         mapsDir,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		os.Exit(1)
	}

	log.Info().Msg("server stopped")
}

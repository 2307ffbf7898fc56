// Package api provides the HTTP API for AriaMap.
package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/ariamap/ariamap/internal/api/handler"
	"github.com/ariamap/ariamap/internal/api/middleware"
	"github.com/ariamap/ariamap/internal/auth"
	"github.com/ariamap/ariamap/internal/datamap"
	"github.com/ariamap/ariamap/internal/forecast"
	"github.com/ariamap/ariamap/internal/measurement"
	"github.com/ariamap/ariamap/internal/pipeline"
	"github.com/ariamap/ariamap/internal/render"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version         string
	BuildTime       string
	Logger          zerolog.Logger
	ServiceName     string
	Metrics         *middleware.Metrics
	JWTService      *auth.JWTService
	Measurements    measurement.Repository
	Artifacts       datamap.Repository
	Simulator       *pipeline.Simulator
	ForecastService *forecast.Service
	Renderer        render.Renderer
	Clock           clockwork.Clock
	MapsDir         string
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Set default service name if not provided
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "ariamap-api"
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)            // Generate/propagate request ID first
	r.Use(middleware.Tracing(serviceName)) // Distributed tracing
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware()) // HTTP metrics
	}
	r.Use(middleware.Logger(cfg.Logger))   // Structured logging
	r.Use(middleware.Recovery(cfg.Logger)) // Panic recovery
	r.Use(chimiddleware.RealIP)            // Real IP extraction
	r.Use(middleware.SecurityHeaders)      // Security headers (HSTS, CSP, etc.)
	r.Use(middleware.RequireTLS)           // TLS enforcement (enabled via REQUIRE_TLS=true)
	r.Use(middleware.ContentTypeJSON)      // JSON content type

	// Initialize handlers
	opsHandler := handler.NewOpsHandler(cfg.Version, cfg.BuildTime)
	measurementHandler := handler.NewMeasurementHandler(cfg.Measurements, cfg.Artifacts, cfg.Logger)
	simulationHandler := handler.NewSimulationHandler(cfg.Measurements, cfg.Simulator, cfg.Logger)
	healthSimHandler := handler.NewHealthSimulationHandler(cfg.ForecastService, cfg.Renderer, cfg.Artifacts, cfg.Logger, cfg.Clock)
	imagesHandler := handler.NewImagesHandler(cfg.MapsDir, cfg.Logger)

	// Role-gated middleware per endpoint category
	anyRole := middleware.RequireRoles(cfg.JWTService, auth.RoleAdmin, auth.RoleRegular, auth.RoleResearcher)
	researchRole := middleware.RequireRoles(cfg.JWTService, auth.RoleAdmin, auth.RoleResearcher)

	// Rate limits: simulations fit a kriging surface per pollutant and
	// are by far the most expensive calls.
	expensiveRateLimit := middleware.RateLimitByUser(middleware.ExpensiveRateLimit)
	standardRateLimit := middleware.RateLimitByIP(middleware.StandardRateLimit)

	// Liveness (public)
	r.Get("/health", opsHandler.HealthCheck)

	// Measurement ingestion (public, station-side)
	r.With(standardRateLimit).Post("/measurements", measurementHandler.AddMeasurement)

	// Latest generated map per pollutant
	r.With(anyRole, standardRateLimit).
		Get("/measurements/datamap/latest/{pollutant}", measurementHandler.LatestDataMap)

	// Tree-absorption simulation
	r.With(researchRole, expensiveRateLimit).Post("/simulations", simulationHandler.Run)

	// Forecast-driven health maps
	r.Route("/health-simulation/datamap", func(r chi.Router) {
		r.With(researchRole, expensiveRateLimit).Post("/", healthSimHandler.Run)
		r.With(researchRole, standardRateLimit).Get("/latest", healthSimHandler.Latest)
	})

	// Rendered map images, served as base64 JSON
	r.With(anyRole, standardRateLimit).
		Get("/images/{region}/{date}/{hour}/{filename}", imagesHandler.Serve)

	return r
}

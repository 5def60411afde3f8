// Package api provides the HTTP API for Skycast.
package api

import (
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/skycastlabs/skycast/internal/ai"
	"github.com/skycastlabs/skycast/internal/api/handler"
	"github.com/skycastlabs/skycast/internal/api/middleware"
	"github.com/skycastlabs/skycast/internal/dashboard"
	"github.com/skycastlabs/skycast/internal/featureflags"
	"github.com/skycastlabs/skycast/internal/geocode"
	"github.com/skycastlabs/skycast/internal/provider/resilience"
	"github.com/skycastlabs/skycast/internal/weather"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version            string
	BuildTime          string
	StartTime          time.Time
	Logger             zerolog.Logger
	ServiceName        string
	Metrics            *middleware.Metrics
	Geocoder           *geocode.Service
	Weather            *weather.Service
	Dashboard          *dashboard.Controller
	Assistant          *ai.Orchestrator
	Providers          *resilience.Registry
	FeatureFlagService *featureflags.Service
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Set default service name if not provided
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "skycast-api"
	}

	startTime := cfg.StartTime
	if startTime.IsZero() {
		startTime = time.Now()
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
	r.Use(middleware.CORS())               // Browser dashboards call from any origin
	r.Use(middleware.ContentTypeJSON)      // JSON content type

	// Initialize handlers
	opsHandler := handler.NewOpsHandler(cfg.Version, cfg.BuildTime, startTime, cfg.Providers)
	geocodeHandler := handler.NewGeocodeHandler(cfg.Geocoder)
	weatherHandler := handler.NewWeatherHandler(cfg.Geocoder, cfg.Weather)
	dashboardHandler := handler.NewDashboardHandler(cfg.Dashboard)
	insightHandler := handler.NewInsightHandler(cfg.Geocoder, cfg.Weather, cfg.Assistant)
	featureFlagsHandler := handler.NewFeatureFlagsHandler(cfg.FeatureFlagService)

	// Create rate limit middleware for different endpoint categories
	expensiveRateLimit := middleware.RateLimitByIP(middleware.ExpensiveRateLimit) // 30 req/min
	standardRateLimit := middleware.RateLimitByIP(middleware.StandardRateLimit)   // 100 req/min

	// API v1 routes
	r.Route("/v1", func(r chi.Router) {
		// Ops endpoints (public, never rate limited so probes keep working)
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			r.Get("/status", opsHandler.SystemStatus)

			// Feature flags management
			r.Route("/flags", func(r chi.Router) {
				r.Get("/", featureFlagsHandler.ListFeatureFlags)
				r.Put("/{key}", featureFlagsHandler.UpdateFeatureFlag)
			})
		})

		// Stateless lookups - standard rate limiting
		r.Group(func(r chi.Router) {
			r.Use(standardRateLimit)
			r.Get("/geocode", geocodeHandler.Resolve)
			r.Get("/weather/current", weatherHandler.Current)
			r.Get("/weather/forecast", weatherHandler.Forecast)
		})

		// Dashboard endpoints. Search and scene retry fan out to upstream
		// providers and the AI backend, so they get the strict tier.
		r.Route("/dashboard", func(r chi.Router) {
			r.With(standardRateLimit).Get("/", dashboardHandler.State)
			r.With(expensiveRateLimit, middleware.RequireJSON).Post("/search", dashboardHandler.Search)
			r.With(expensiveRateLimit).Post("/scene/retry", dashboardHandler.RetryScene)
		})

		// One-shot insight stream - strict rate limiting
		r.With(expensiveRateLimit).Get("/insight/stream", insightHandler.Stream)
	})

	return r
}

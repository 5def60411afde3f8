// Package main provides the entrypoint for the Skycast API server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/skycastlabs/skycast/internal/ai"
	"github.com/skycastlabs/skycast/internal/ai/gemini"
	"github.com/skycastlabs/skycast/internal/api"
	"github.com/skycastlabs/skycast/internal/api/middleware"
	"github.com/skycastlabs/skycast/internal/dashboard"
	"github.com/skycastlabs/skycast/internal/featureflags"
	"github.com/skycastlabs/skycast/internal/geocode"
	geoprovider "github.com/skycastlabs/skycast/internal/geocode/openmeteo"
	"github.com/skycastlabs/skycast/internal/provider/resilience"
	"github.com/skycastlabs/skycast/internal/telemetry"
	"github.com/skycastlabs/skycast/internal/weather"
	weatherprovider "github.com/skycastlabs/skycast/internal/weather/openmeteo"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "skycast-api"

	startTime := time.Now()

	// Load .env if present; real deployments use the environment directly.
	_ = godotenv.Load()

	// Setup structured logging
	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting Skycast API")

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

	sampleRatio := 1.0
	if raw := os.Getenv("OTEL_SAMPLE_RATIO"); raw != "" {
		if parsed, err := strconv.ParseFloat(raw, 64); err == nil {
			sampleRatio = parsed
		}
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
		SampleRatio:    sampleRatio,
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

	providerMetrics, err := telemetry.NewProviderMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize provider metrics")
		os.Exit(1)
	}

	// Upstream clients share one health registry so /v1/ops/status sees
	// every circuit. Dashboard-path clients never retry: a user is waiting.
	registry := resilience.NewRegistry()

	geocodeClient := resilience.NewClient(resilience.NoRetryClientConfig(geoprovider.ProviderName))
	registry.Register(geoprovider.ProviderName, geocodeClient)

	weatherClient := resilience.NewClient(resilience.NoRetryClientConfig(weatherprovider.ProviderName))
	registry.Register(weatherprovider.ProviderName, weatherClient)

	// Initialize the AI provider. A missing key is not an error: the
	// orchestrator falls back to its degraded mode.
	var aiProvider ai.Provider
	if apiKey := os.Getenv("GEMINI_API_KEY"); apiKey != "" {
		rc := resilience.NoRetryClientConfig(gemini.ProviderName)
		rc.Timeout = 60 * time.Second
		geminiClient := resilience.NewClient(rc)
		registry.Register(gemini.ProviderName, geminiClient)

		client := gemini.NewClient(gemini.ClientConfig{
			APIKey:     apiKey,
			HTTPClient: geminiClient,
			Logger:     log,
		})

		// Search fans out three generation calls, so allow a small burst.
		aiProvider = ai.NewRateLimitedProvider(client, 1, 3)
		log.Info().Str("provider", gemini.ProviderName).Msg("AI provider initialized")
	} else {
		log.Warn().Msg("GEMINI_API_KEY not set - AI features run in fallback mode")
	}

	// Initialize feature flags
	ffService := featureflags.NewService(featureflags.ServiceConfig{
		Logger: log,
	})
	log.Info().Msg("feature flags service initialized")

	// Initialize geocoding service
	geocoder := geocode.NewService(geocode.ServiceConfig{
		Provider: geoprovider.NewClient(geoprovider.ClientConfig{
			HTTPClient: geocodeClient,
			Logger:     log,
		}),
		Logger:  log,
		Metrics: providerMetrics,
	})
	log.Info().Msg("geocoding service initialized")

	// Initialize weather service
	weatherService := weather.NewService(weather.ServiceConfig{
		Provider: weatherprovider.NewClient(weatherprovider.ClientConfig{
			HTTPClient: weatherClient,
			Logger:     log,
		}),
		Logger:  log,
		Metrics: providerMetrics,
	})
	log.Info().Msg("weather service initialized")

	// Initialize the AI orchestrator
	assistant := ai.NewOrchestrator(ai.OrchestratorConfig{
		Provider: aiProvider,
		Flags:    ffService,
		Logger:   log,
	})

	// Initialize the dashboard controller
	controller := dashboard.NewController(dashboard.ControllerConfig{
		Geocoder:  geocoder,
		Weather:   weatherService,
		Assistant: assistant,
		Logger:    log,
	})
	log.Info().Msg("dashboard controller initialized")

	// Create router with configuration
	router := api.NewRouter(api.RouterConfig{
		Version:            Version,
		BuildTime:          BuildTime,
		StartTime:          startTime,
		Logger:             log,
		ServiceName:        serviceName,
		Metrics:            metrics,
		Geocoder:           geocoder,
		Weather:            weatherService,
		Dashboard:          controller,
		Assistant:          assistant,
		Providers:          registry,
		FeatureFlagService: ffService,
	})

	// Create HTTP server. The write timeout must outlast a full insight
	// stream.
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second,
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
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		os.Exit(1)
	}

	log.Info().Msg("server stopped")
}

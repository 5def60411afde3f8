// Package main provides the entrypoint for the Skycast cache-warming worker.
package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/skycastlabs/skycast/internal/featureflags"
	"github.com/skycastlabs/skycast/internal/geocode"
	geoprovider "github.com/skycastlabs/skycast/internal/geocode/openmeteo"
	"github.com/skycastlabs/skycast/internal/provider/resilience"
	"github.com/skycastlabs/skycast/internal/weather"
	weatherprovider "github.com/skycastlabs/skycast/internal/weather/openmeteo"
	"github.com/skycastlabs/skycast/internal/worker"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "skycast-worker"

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
		Msg("starting Skycast worker")

	// Worker also exposes a health endpoint for container platforms
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Warming runs in the background with nobody waiting, so these
	// clients retry with backoff instead of failing fast.
	geocodeClient := resilience.NewClient(resilience.DefaultClientConfig(geoprovider.ProviderName))
	weatherClient := resilience.NewClient(resilience.DefaultClientConfig(weatherprovider.ProviderName))

	ffService := featureflags.NewService(featureflags.ServiceConfig{
		Logger: log,
	})

	geocoder := geocode.NewService(geocode.ServiceConfig{
		Provider: geoprovider.NewClient(geoprovider.ClientConfig{
			HTTPClient: geocodeClient,
			Logger:     log,
		}),
		Logger: log,
	})

	weatherService := weather.NewService(weather.ServiceConfig{
		Provider: weatherprovider.NewClient(weatherprovider.ClientConfig{
			HTTPClient: weatherClient,
			Logger:     log,
		}),
		Logger: log,
	})

	prefetchConfig := worker.ConfigFromEnv()
	job := worker.NewPrefetchJob(worker.PrefetchJobConfig{
		Config:   prefetchConfig,
		Logger:   log,
		Geocoder: geocoder,
		Weather:  weatherService,
		Flags:    ffService,
	})

	log.Info().
		Int("cities", len(prefetchConfig.Cities)).
		Dur("interval", prefetchConfig.Interval).
		Msg("prefetch job configured")

	// Start the interval prefetch loop
	go job.RunEvery(ctx)

	// Start the on-demand refresh subscription when configured
	projectID := os.Getenv("PUBSUB_PROJECT_ID")
	subscription := os.Getenv("PUBSUB_SUBSCRIPTION")
	if projectID != "" && subscription != "" {
		handler, err := worker.NewPubSubHandler(ctx, worker.PubSubConfig{
			ProjectID:        projectID,
			SubscriptionName: subscription,
			Job:              job,
			Logger:           log,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create pubsub handler")
		}
		defer func() {
			if closeErr := handler.Close(); closeErr != nil {
				log.Error().Err(closeErr).Msg("failed to close pubsub client")
			}
		}()

		go func() {
			if err := handler.Start(ctx); err != nil && ctx.Err() == nil {
				log.Error().Err(err).Msg("pubsub handler stopped")
			}
		}()
	} else {
		log.Info().Msg("pubsub refresh disabled, no subscription configured")
	}

	// Create HTTP server for health checks
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"status":  "healthy",
			"version": Version,
		})
	})

	mux.HandleFunc("/metrics", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(job.MetricsSnapshot())
	})

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("health server listening")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("health server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down worker")
	cancel()

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("health server forced to shutdown")
	}

	log.Info().Msg("worker stopped")
}

package geocode

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/skycastlabs/skycast/internal/telemetry"
)

// Provider defines the interface for geocoding providers.
type Provider interface {
	// Resolve looks up a free-text city name and returns the best match.
	Resolve(ctx context.Context, city string) (*Location, error)

	// Name returns the provider name for logging.
	Name() string
}

// ServiceConfig holds configuration for the geocoding service.
type ServiceConfig struct {
	// Provider is the geocoding provider.
	Provider Provider

	// Logger for service operations.
	Logger zerolog.Logger

	// Metrics records provider call metrics. Optional; nil disables
	// recording.
	Metrics *telemetry.ProviderMetrics
}

// Service resolves city names to locations. Lookups are deliberately not
// cached: every search resolves fresh so a renamed or corrected query never
// pins an old match.
type Service struct {
	provider Provider
	logger   zerolog.Logger
	metrics  *telemetry.ProviderMetrics
}

// NewService creates a new geocoding service.
func NewService(cfg ServiceConfig) *Service {
	return &Service{
		provider: cfg.Provider,
		logger:   cfg.Logger,
		metrics:  cfg.Metrics,
	}
}

// Resolve resolves a city name to a location. The provider's first
// (highest-ranked) match wins; zero matches return ErrCityNotFound.
func (s *Service) Resolve(ctx context.Context, city string) (*Location, error) {
	city = strings.TrimSpace(city)
	if city == "" {
		return nil, ErrEmptyQuery
	}

	start := time.Now()
	loc, err := s.provider.Resolve(ctx, city)
	s.metrics.RecordRequest(s.provider.Name(), "resolve", time.Since(start), err)
	if err != nil {
		s.logger.Warn().
			Str("city", city).
			Str("provider", s.provider.Name()).
			Err(err).
			Msg("geocode lookup failed")
		return nil, err
	}

	s.logger.Debug().
		Str("city", city).
		Str("resolved", loc.Name).
		Str("country", loc.Country).
		Float64("lat", loc.Latitude).
		Float64("lon", loc.Longitude).
		Msg("resolved city")

	return loc, nil
}

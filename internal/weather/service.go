package weather

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/skycastlabs/skycast/internal/geocode"
	"github.com/skycastlabs/skycast/internal/telemetry"
)

// Provider defines the interface for weather data providers.
type Provider interface {
	// GetCurrent fetches current conditions plus air quality for a location.
	GetCurrent(ctx context.Context, loc geocode.Location, units UnitSystem) (*Snapshot, error)

	// GetForecast fetches the daily and hourly outlook for a location.
	GetForecast(ctx context.Context, loc geocode.Location, units UnitSystem) (*ForecastSet, error)

	// Name returns the provider name for logging.
	Name() string
}

// ServiceConfig holds configuration for the weather service.
type ServiceConfig struct {
	// Provider is the weather data provider.
	Provider Provider

	// Logger for service operations.
	Logger zerolog.Logger

	// CacheTTL is how long to cache fetched data (default: 5 minutes).
	CacheTTL time.Duration

	// CacheGridSize is the size of cache grid cells in degrees (default: 0.1).
	// Points within the same grid cell share cached data.
	CacheGridSize float64

	// Metrics records provider call and cache metrics. Optional; nil
	// disables recording.
	Metrics *telemetry.ProviderMetrics
}

// Service provides normalized weather data with short-lived caching.
//
// Provider failures always propagate: callers clear whatever they were
// showing and surface the error, so the service never substitutes stale
// data for a failed fetch.
type Service struct {
	provider      Provider
	logger        zerolog.Logger
	cacheTTL      time.Duration
	cacheGridSize float64
	metrics       *telemetry.ProviderMetrics

	mu              sync.RWMutex
	currentCache    map[string]*cachedSnapshot
	forecastCache   map[string]*cachedForecast
	lastCleanup     time.Time
	cleanupInterval time.Duration
}

type cachedSnapshot struct {
	snapshot  *Snapshot
	expiresAt time.Time
}

type cachedForecast struct {
	forecast  *ForecastSet
	expiresAt time.Time
}

// NewService creates a new weather service.
func NewService(cfg ServiceConfig) *Service {
	cacheTTL := cfg.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 5 * time.Minute
	}

	cacheGridSize := cfg.CacheGridSize
	if cacheGridSize == 0 {
		cacheGridSize = 0.1 // ~11km at equator
	}

	return &Service{
		provider:        cfg.Provider,
		logger:          cfg.Logger,
		cacheTTL:        cacheTTL,
		cacheGridSize:   cacheGridSize,
		metrics:         cfg.Metrics,
		currentCache:    make(map[string]*cachedSnapshot),
		forecastCache:   make(map[string]*cachedForecast),
		cleanupInterval: 5 * time.Minute,
	}
}

// GetCurrent returns current conditions for a location.
// Uses cached data if available and not expired.
func (s *Service) GetCurrent(ctx context.Context, loc geocode.Location, units UnitSystem) (*Snapshot, error) {
	if err := validateCoordinates(loc.Latitude, loc.Longitude); err != nil {
		return nil, err
	}

	cacheKey := s.cacheKey(loc, units)

	s.mu.RLock()
	if cached, ok := s.currentCache[cacheKey]; ok && time.Now().Before(cached.expiresAt) {
		s.mu.RUnlock()
		s.metrics.RecordCacheHit(s.provider.Name(), "current")
		return cached.snapshot, nil
	}
	s.mu.RUnlock()

	s.metrics.RecordCacheMiss(s.provider.Name(), "current")
	return s.fetchCurrent(ctx, loc, units, cacheKey)
}

// GetForecast returns the forecast for a location.
func (s *Service) GetForecast(ctx context.Context, loc geocode.Location, units UnitSystem) (*ForecastSet, error) {
	if err := validateCoordinates(loc.Latitude, loc.Longitude); err != nil {
		return nil, err
	}

	cacheKey := s.cacheKey(loc, units)

	s.mu.RLock()
	if cached, ok := s.forecastCache[cacheKey]; ok && time.Now().Before(cached.expiresAt) {
		s.mu.RUnlock()
		s.metrics.RecordCacheHit(s.provider.Name(), "forecast")
		return cached.forecast, nil
	}
	s.mu.RUnlock()

	s.metrics.RecordCacheMiss(s.provider.Name(), "forecast")
	return s.fetchForecast(ctx, loc, units, cacheKey)
}

// fetchCurrent fetches current conditions from the provider and updates the cache.
func (s *Service) fetchCurrent(ctx context.Context, loc geocode.Location, units UnitSystem, cacheKey string) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Double-check cache
	if cached, ok := s.currentCache[cacheKey]; ok && time.Now().Before(cached.expiresAt) {
		return cached.snapshot, nil
	}

	s.logger.Debug().
		Str("city", loc.Name).
		Float64("lat", loc.Latitude).
		Float64("lon", loc.Longitude).
		Str("provider", s.provider.Name()).
		Msg("fetching current conditions from provider")

	start := time.Now()
	snap, err := s.provider.GetCurrent(ctx, loc, units)
	s.metrics.RecordRequest(s.provider.Name(), "current", time.Since(start), err)
	if err != nil {
		s.logger.Error().Err(err).
			Str("city", loc.Name).
			Msg("failed to fetch current conditions")
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}

	s.currentCache[cacheKey] = &cachedSnapshot{
		snapshot:  snap,
		expiresAt: time.Now().Add(s.cacheTTL),
	}

	s.cleanupIfNeeded()

	return snap, nil
}

// fetchForecast fetches the forecast from the provider and updates the cache.
func (s *Service) fetchForecast(ctx context.Context, loc geocode.Location, units UnitSystem, cacheKey string) (*ForecastSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Double-check cache
	if cached, ok := s.forecastCache[cacheKey]; ok && time.Now().Before(cached.expiresAt) {
		return cached.forecast, nil
	}

	s.logger.Debug().
		Str("city", loc.Name).
		Float64("lat", loc.Latitude).
		Float64("lon", loc.Longitude).
		Str("provider", s.provider.Name()).
		Msg("fetching forecast from provider")

	start := time.Now()
	forecast, err := s.provider.GetForecast(ctx, loc, units)
	s.metrics.RecordRequest(s.provider.Name(), "forecast", time.Since(start), err)
	if err != nil {
		s.logger.Error().Err(err).
			Str("city", loc.Name).
			Msg("failed to fetch forecast")
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}

	s.forecastCache[cacheKey] = &cachedForecast{
		forecast:  forecast,
		expiresAt: time.Now().Add(s.cacheTTL),
	}

	s.cleanupIfNeeded()

	return forecast, nil
}

// cacheKey generates a cache key for a location and unit system.
// Groups nearby points into grid cells to reduce API calls.
func (s *Service) cacheKey(loc geocode.Location, units UnitSystem) string {
	gridLat := math.Floor(loc.Latitude/s.cacheGridSize) * s.cacheGridSize
	gridLon := math.Floor(loc.Longitude/s.cacheGridSize) * s.cacheGridSize
	return fmt.Sprintf("%.2f:%.2f:%s", gridLat, gridLon, units)
}

// cleanupIfNeeded removes expired entries if cleanup interval has passed.
func (s *Service) cleanupIfNeeded() {
	now := time.Now()
	if now.Sub(s.lastCleanup) < s.cleanupInterval {
		return
	}

	s.lastCleanup = now
	expired := 0

	for key, cached := range s.currentCache {
		if now.After(cached.expiresAt) {
			delete(s.currentCache, key)
			expired++
		}
	}

	for key, cached := range s.forecastCache {
		if now.After(cached.expiresAt) {
			delete(s.forecastCache, key)
			expired++
		}
	}

	if expired > 0 {
		s.logger.Debug().
			Int("expired_entries", expired).
			Msg("cleaned up expired weather cache entries")
	}
}

// InvalidateCache clears all cached data.
func (s *Service) InvalidateCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentCache = make(map[string]*cachedSnapshot)
	s.forecastCache = make(map[string]*cachedForecast)
}

// CacheStats returns cache statistics.
func (s *Service) CacheStats() CacheStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := time.Now()
	currentFresh := 0
	forecastFresh := 0

	for _, c := range s.currentCache {
		if now.Before(c.expiresAt) {
			currentFresh++
		}
	}
	for _, c := range s.forecastCache {
		if now.Before(c.expiresAt) {
			forecastFresh++
		}
	}

	return CacheStats{
		CurrentEntries:       len(s.currentCache),
		CurrentFreshEntries:  currentFresh,
		ForecastEntries:      len(s.forecastCache),
		ForecastFreshEntries: forecastFresh,
		Provider:             s.provider.Name(),
	}
}

// CacheStats contains cache statistics.
type CacheStats struct {
	CurrentEntries       int
	CurrentFreshEntries  int
	ForecastEntries      int
	ForecastFreshEntries int
	Provider             string
}

// validateCoordinates checks if coordinates are valid.
func validateCoordinates(lat, lon float64) error {
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return ErrInvalidCoordinates
	}
	return nil
}

package worker_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skycastlabs/skycast/internal/featureflags"
	"github.com/skycastlabs/skycast/internal/geocode"
	"github.com/skycastlabs/skycast/internal/weather"
	"github.com/skycastlabs/skycast/internal/worker"
)

// mockGeocodeProvider resolves any city except Atlantis. Coordinates are
// derived from the name so distinct cities land in distinct cache cells.
type mockGeocodeProvider struct {
	mu        sync.Mutex
	callCount int
}

func (m *mockGeocodeProvider) Name() string { return "mock-geocoding" }

func (m *mockGeocodeProvider) Resolve(_ context.Context, city string) (*geocode.Location, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount++

	if strings.EqualFold(city, "Atlantis") {
		return nil, geocode.ErrCityNotFound
	}

	return &geocode.Location{
		Name:      city,
		Country:   "Testland",
		Latitude:  10.0 + float64(len(city)),
		Longitude: 4.0,
	}, nil
}

func (m *mockGeocodeProvider) getCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// mockWeatherProvider returns fixed conditions and counts calls.
type mockWeatherProvider struct {
	mu            sync.Mutex
	currentCalls  int
	forecastCalls int
}

func (m *mockWeatherProvider) Name() string { return "mock-weather" }

func (m *mockWeatherProvider) GetCurrent(_ context.Context, loc geocode.Location, units weather.UnitSystem) (*weather.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.currentCalls++

	return &weather.Snapshot{
		Location:    loc,
		Description: "Clear sky",
		Icon:        "01d",
		Temperature: 18.0,
		Units:       units,
		FetchedAt:   time.Now(),
	}, nil
}

func (m *mockWeatherProvider) GetForecast(_ context.Context, loc geocode.Location, units weather.UnitSystem) (*weather.ForecastSet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.forecastCalls++

	return &weather.ForecastSet{
		Location:  loc,
		Units:     units,
		FetchedAt: time.Now(),
	}, nil
}

func (m *mockWeatherProvider) getCurrentCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.currentCalls
}

func (m *mockWeatherProvider) getForecastCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.forecastCalls
}

type jobFixture struct {
	job     *worker.PrefetchJob
	geocode *mockGeocodeProvider
	weather *mockWeatherProvider
	flags   *featureflags.Service
}

func newJobFixture(t *testing.T, cfg worker.PrefetchConfig) *jobFixture {
	t.Helper()

	geocodeProvider := &mockGeocodeProvider{}
	weatherProvider := &mockWeatherProvider{}
	flags := featureflags.NewService(featureflags.ServiceConfig{Logger: zerolog.Nop()})

	geocoder := geocode.NewService(geocode.ServiceConfig{
		Provider: geocodeProvider,
		Logger:   zerolog.Nop(),
	})
	weatherSvc := weather.NewService(weather.ServiceConfig{
		Provider: weatherProvider,
		Logger:   zerolog.Nop(),
	})

	return &jobFixture{
		job: worker.NewPrefetchJob(worker.PrefetchJobConfig{
			Config:   cfg,
			Logger:   zerolog.Nop(),
			Geocoder: geocoder,
			Weather:  weatherSvc,
			Flags:    flags,
		}),
		geocode: geocodeProvider,
		weather: weatherProvider,
		flags:   flags,
	}
}

func twoCityConfig() worker.PrefetchConfig {
	return worker.PrefetchConfig{
		Cities:       []string{"Oslo", "Bergen"},
		Units:        []weather.UnitSystem{weather.UnitsMetric},
		Concurrency:  1,
		Timeout:      time.Second,
		Interval:     time.Minute,
		WarmCurrent:  true,
		WarmForecast: true,
	}
}

func TestDefaultPrefetchConfig(t *testing.T) {
	cfg := worker.DefaultPrefetchConfig()

	assert.Equal(t, 3, cfg.Concurrency)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, 10*time.Minute, cfg.Interval)
	assert.True(t, cfg.WarmCurrent)
	assert.True(t, cfg.WarmForecast)
	assert.Equal(t, []weather.UnitSystem{weather.UnitsMetric}, cfg.Units)
	assert.NotEmpty(t, cfg.Cities)
}

func TestDefaultPrefetchCities(t *testing.T) {
	cities := worker.DefaultPrefetchCities()

	assert.GreaterOrEqual(t, len(cities), 5)
	assert.Contains(t, cities, "London")
}

func TestPrefetchConfig_Targets(t *testing.T) {
	cfg := worker.PrefetchConfig{
		Cities: []string{"Oslo", "Bergen"},
		Units:  []weather.UnitSystem{weather.UnitsMetric, weather.UnitsImperial},
	}

	targets := cfg.Targets()
	require.Len(t, targets, 4)
	assert.Equal(t, cfg.TotalTargets(), 4)

	assert.Equal(t, worker.Target{City: "Oslo", Units: weather.UnitsMetric}, targets[0])
	assert.Equal(t, worker.Target{City: "Oslo", Units: weather.UnitsImperial}, targets[1])
	assert.Equal(t, worker.Target{City: "Bergen", Units: weather.UnitsMetric}, targets[2])
}

func TestPrefetchConfig_Targets_DefaultUnits(t *testing.T) {
	cfg := worker.PrefetchConfig{Cities: []string{"Oslo"}}

	targets := cfg.Targets()
	require.Len(t, targets, 1)
	assert.Equal(t, weather.UnitsMetric, targets[0].Units)
	assert.Equal(t, 1, cfg.TotalTargets())
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("PREFETCH_CITIES", "Oslo, Bergen")
	t.Setenv("PREFETCH_UNITS", "kelvin,imperial")
	t.Setenv("PREFETCH_CONCURRENCY", "5")
	t.Setenv("PREFETCH_INTERVAL", "1m")

	cfg := worker.ConfigFromEnv()

	assert.Equal(t, []string{"Oslo", "Bergen"}, cfg.Cities)
	assert.Equal(t, []weather.UnitSystem{weather.UnitsImperial}, cfg.Units)
	assert.Equal(t, 5, cfg.Concurrency)
	assert.Equal(t, time.Minute, cfg.Interval)
}

func TestConfigFromEnv_Defaults(t *testing.T) {
	t.Setenv("PREFETCH_CITIES", "")
	t.Setenv("PREFETCH_CONCURRENCY", "not-a-number")

	cfg := worker.ConfigFromEnv()

	assert.Equal(t, worker.DefaultPrefetchCities(), cfg.Cities)
	assert.Equal(t, 3, cfg.Concurrency)
}

func TestPrefetchJob_Run(t *testing.T) {
	f := newJobFixture(t, twoCityConfig())

	result := f.job.Run(context.Background())

	require.NotNil(t, result)
	assert.NotEmpty(t, result.JobID)
	assert.False(t, result.Skipped)
	assert.Equal(t, 2, result.TotalTargets)
	assert.Equal(t, 2, result.Successful)
	assert.Equal(t, 0, result.Failed)
	assert.Empty(t, result.Errors)

	assert.Equal(t, 2, f.geocode.getCallCount())
	assert.Equal(t, 2, f.weather.getCurrentCalls())
	assert.Equal(t, 2, f.weather.getForecastCalls())

	metrics := f.job.GetMetrics()
	assert.Equal(t, int64(1), metrics.TotalRuns)
	assert.Equal(t, int64(2), metrics.SuccessfulWarms)
	assert.Equal(t, int64(2), metrics.CurrentWarms)
	assert.Equal(t, int64(2), metrics.ForecastWarms)
	assert.NotZero(t, metrics.LastRunAt)
	assert.Greater(t, metrics.LastRunDuration, time.Duration(0))
}

func TestPrefetchJob_Run_GeocodeFailure(t *testing.T) {
	cfg := twoCityConfig()
	cfg.Cities = []string{"Oslo", "Atlantis"}
	f := newJobFixture(t, cfg)

	result := f.job.Run(context.Background())

	assert.Equal(t, 1, result.Successful)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "geocode", result.Errors[0].Stage)
	assert.Equal(t, "Atlantis", result.Errors[0].Target.City)
	assert.Contains(t, result.Errors[0].Error, "city not found")

	// The failed city never reaches the weather provider
	assert.Equal(t, 1, f.weather.getCurrentCalls())
}

func TestPrefetchJob_Run_FlagDisabled(t *testing.T) {
	f := newJobFixture(t, twoCityConfig())
	f.flags.SetFlag(&featureflags.Flag{Key: featureflags.FlagWorkerPrefetch, Value: false})

	result := f.job.Run(context.Background())

	assert.True(t, result.Skipped)
	assert.Equal(t, 0, result.Successful)
	assert.Equal(t, 0, f.geocode.getCallCount())

	metrics := f.job.GetMetrics()
	assert.Equal(t, int64(1), metrics.SkippedRuns)
	assert.Equal(t, int64(0), metrics.TotalRuns)
}

func TestPrefetchJob_Run_WithConcurrency(t *testing.T) {
	cfg := twoCityConfig()
	cfg.Cities = []string{"Oslo", "Bergen", "Trondheim", "Stavanger", "Drammen", "Kristiansand"}
	cfg.Concurrency = 3
	f := newJobFixture(t, cfg)

	result := f.job.Run(context.Background())

	assert.Equal(t, 6, result.TotalTargets)
	assert.Equal(t, 6, result.Successful)
	assert.Equal(t, 0, result.Failed)
}

func TestPrefetchJob_Run_ContextCancellation(t *testing.T) {
	cfg := twoCityConfig()
	f := newJobFixture(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := f.job.Run(ctx)

	// Completes without hanging, even if not every target was processed
	require.NotNil(t, result)
}

func TestPrefetchJob_WarmCity(t *testing.T) {
	f := newJobFixture(t, twoCityConfig())

	err := f.job.WarmCity(context.Background(), "Oslo", weather.UnitsMetric)
	require.NoError(t, err)

	assert.Equal(t, 1, f.weather.getCurrentCalls())
	assert.Equal(t, 1, f.weather.getForecastCalls())

	metrics := f.job.GetMetrics()
	assert.Equal(t, int64(1), metrics.CurrentWarms)
	assert.Equal(t, int64(1), metrics.ForecastWarms)
}

func TestPrefetchJob_WarmCity_UnknownCity(t *testing.T) {
	f := newJobFixture(t, twoCityConfig())

	err := f.job.WarmCity(context.Background(), "Atlantis", weather.UnitsMetric)
	require.Error(t, err)
	assert.ErrorIs(t, err, geocode.ErrCityNotFound)

	assert.Equal(t, 0, f.weather.getCurrentCalls())
}

func TestPrefetchJob_WarmCity_IgnoresFlag(t *testing.T) {
	f := newJobFixture(t, twoCityConfig())
	f.flags.SetFlag(&featureflags.Flag{Key: featureflags.FlagWorkerPrefetch, Value: false})

	err := f.job.WarmCity(context.Background(), "Oslo", weather.UnitsMetric)
	require.NoError(t, err)
	assert.Equal(t, 1, f.weather.getCurrentCalls())
}

func TestPrefetchJob_RunEvery_StopsOnCancel(t *testing.T) {
	f := newJobFixture(t, twoCityConfig())

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		f.job.RunEvery(ctx)
		close(done)
	}()

	// The first run happens immediately; cancel afterwards.
	require.Eventually(t, func() bool {
		return f.job.GetMetrics().TotalRuns >= 1
	}, 2*time.Second, 10*time.Millisecond)

	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("RunEvery did not stop after cancellation")
	}
}

func TestNewPrefetchJob_DefaultConfig(t *testing.T) {
	f := newJobFixture(t, worker.PrefetchConfig{})

	metrics := f.job.GetMetrics()
	assert.Equal(t, int64(0), metrics.TotalRuns)
}

func TestPrefetchJob_MetricsSnapshot(t *testing.T) {
	f := newJobFixture(t, twoCityConfig())

	_ = f.job.Run(context.Background())

	snapshot := f.job.MetricsSnapshot()

	assert.Contains(t, snapshot, "total_runs")
	assert.Contains(t, snapshot, "skipped_runs")
	assert.Contains(t, snapshot, "successful_warms")
	assert.Contains(t, snapshot, "failed_warms")
	assert.Contains(t, snapshot, "current_warms")
	assert.Contains(t, snapshot, "forecast_warms")
	assert.Contains(t, snapshot, "last_run_at")
	assert.Contains(t, snapshot, "last_run_duration")
}

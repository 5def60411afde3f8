// Package worker provides the cache-warming jobs for Skycast.
package worker

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/skycastlabs/skycast/internal/weather"
)

// Target is one (city, unit system) pair the prefetch job keeps warm.
type Target struct {
	City  string
	Units weather.UnitSystem
}

// PrefetchConfig holds configuration for the cache prefetch job.
type PrefetchConfig struct {
	// Cities are the city names to keep warm.
	// If empty, uses DefaultPrefetchCities.
	Cities []string

	// Units are the unit systems to warm per city.
	// Default: metric only.
	Units []weather.UnitSystem

	// Concurrency is the number of concurrent warm operations.
	// Default: 3
	Concurrency int

	// Timeout is the timeout for warming one target.
	// Default: 30 seconds
	Timeout time.Duration

	// Interval is how often the interval loop re-runs the job.
	// Default: 10 minutes, slightly above the weather cache TTL so every
	// run refetches.
	Interval time.Duration

	// WarmCurrent enables current-conditions warming.
	// Default: true
	WarmCurrent bool

	// WarmForecast enables forecast warming.
	// Default: true
	WarmForecast bool
}

// DefaultPrefetchConfig returns the default prefetch configuration.
func DefaultPrefetchConfig() PrefetchConfig {
	return PrefetchConfig{
		Cities:       DefaultPrefetchCities(),
		Units:        []weather.UnitSystem{weather.UnitsMetric},
		Concurrency:  3,
		Timeout:      30 * time.Second,
		Interval:     10 * time.Minute,
		WarmCurrent:  true,
		WarmForecast: true,
	}
}

// DefaultPrefetchCities returns the default city list: the large metros a
// dashboard is most likely to be asked about.
func DefaultPrefetchCities() []string {
	return []string{
		"London",
		"New York",
		"Tokyo",
		"Paris",
		"Berlin",
		"Amsterdam",
		"San Francisco",
		"Singapore",
		"Sydney",
		"Toronto",
	}
}

// ConfigFromEnv builds a prefetch configuration from the environment,
// falling back to defaults for anything unset or unparsable.
//
//	PREFETCH_CITIES       comma-separated city names
//	PREFETCH_UNITS        comma-separated unit systems (metric, imperial)
//	PREFETCH_CONCURRENCY  worker pool size
//	PREFETCH_INTERVAL     Go duration, e.g. 10m
func ConfigFromEnv() PrefetchConfig {
	cfg := DefaultPrefetchConfig()

	if cities := splitList(os.Getenv("PREFETCH_CITIES")); len(cities) > 0 {
		cfg.Cities = cities
	}

	if names := splitList(os.Getenv("PREFETCH_UNITS")); len(names) > 0 {
		var units []weather.UnitSystem
		for _, name := range names {
			u, err := weather.ParseUnitSystem(name)
			if err != nil {
				continue
			}
			units = append(units, u)
		}
		if len(units) > 0 {
			cfg.Units = units
		}
	}

	if raw := os.Getenv("PREFETCH_CONCURRENCY"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			cfg.Concurrency = n
		}
	}

	if raw := os.Getenv("PREFETCH_INTERVAL"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d > 0 {
			cfg.Interval = d
		}
	}

	return cfg
}

// splitList splits a comma-separated list, trimming whitespace and dropping
// empty entries.
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// Targets returns every (city, units) pair the job warms, cities in
// configured order.
func (c PrefetchConfig) Targets() []Target {
	units := c.Units
	if len(units) == 0 {
		units = []weather.UnitSystem{weather.UnitsMetric}
	}

	var targets []Target
	for _, city := range c.Cities {
		for _, u := range units {
			targets = append(targets, Target{City: city, Units: u})
		}
	}
	return targets
}

// TotalTargets returns the number of (city, units) pairs to warm.
func (c PrefetchConfig) TotalTargets() int {
	units := len(c.Units)
	if units == 0 {
		units = 1
	}
	return len(c.Cities) * units
}

package weather

import (
	"errors"
	"time"

	"github.com/skycastlabs/skycast/internal/airquality"
	"github.com/skycastlabs/skycast/internal/geocode"
)

// Weather errors.
var (
	ErrProviderUnavailable = errors.New("weather provider unavailable")
	ErrInvalidCoordinates  = errors.New("invalid coordinates")
	ErrInvalidUnitSystem   = errors.New("invalid unit system")
)

// UnitSystem selects the temperature and precipitation units for a fetch.
// Wind speed is always meters/second in either system; downstream prompt
// templates assume it.
type UnitSystem string

const (
	UnitsMetric   UnitSystem = "metric"
	UnitsImperial UnitSystem = "imperial"
)

// ParseUnitSystem parses a unit system string. Empty input defaults to metric.
func ParseUnitSystem(s string) (UnitSystem, error) {
	switch UnitSystem(s) {
	case "":
		return UnitsMetric, nil
	case UnitsMetric:
		return UnitsMetric, nil
	case UnitsImperial:
		return UnitsImperial, nil
	default:
		return "", ErrInvalidUnitSystem
	}
}

// Snapshot is a normalized point-in-time weather reading for one location.
// A new snapshot replaces the previous one wholesale; fields are never mixed
// across fetches.
type Snapshot struct {
	// Location the snapshot was fetched for.
	Location geocode.Location

	// Condition description and icon code. Icon is a 2-digit condition id
	// plus a "d"/"n" daylight suffix (e.g. "10d").
	Description string
	Icon        string

	// Temperatures in the requested unit system.
	Temperature float64
	FeelsLike   float64
	TempMin     float64
	TempMax     float64

	// Humidity percentage (0-100).
	Humidity float64

	// Atmospheric pressure in hPa.
	Pressure float64

	// Wind data. Speed is m/s regardless of unit system.
	WindSpeed     float64
	WindDirection float64

	// Cloud cover percentage (0-100).
	CloudCover float64

	// Visibility in meters. The provider does not report visibility at
	// current-conditions resolution, so this carries a fixed default.
	Visibility float64

	// Dew point in the requested unit system.
	DewPoint float64

	// UV index.
	UVIndex float64

	// Precipitation in the requested unit system (mm or inch).
	Precipitation float64

	// AirQuality is nil when the provider had no data for the location.
	AirQuality *airquality.Reading

	// Sun times in the location's local zone.
	Sunrise time.Time
	Sunset  time.Time

	// UTCOffsetSeconds is the location's UTC offset.
	UTCOffsetSeconds int

	// Units the snapshot was fetched in.
	Units UnitSystem

	// FetchedAt is when the snapshot was retrieved.
	FetchedAt time.Time
}

// IsNight reports whether the snapshot's icon carries the night marker.
func (s *Snapshot) IsNight() bool {
	return len(s.Icon) > 0 && s.Icon[len(s.Icon)-1] == 'n'
}

// ForecastSet holds the daily and hourly outlook for one location.
type ForecastSet struct {
	Location geocode.Location

	// Daily summaries, oldest first, at most 5.
	Daily []DailyEntry

	// Hourly entries starting at the current hour, at most 24.
	Hourly []HourlyEntry

	// Units the forecast was fetched in.
	Units UnitSystem

	// FetchedAt is when the forecast was retrieved.
	FetchedAt time.Time
}

// DailyEntry is a one-day forecast summary.
type DailyEntry struct {
	// Time is a synthesized midday instant in the location's local zone.
	Time time.Time

	// Temperature is the midpoint of the day's max and min, not a true
	// daily average. FeelsLike reuses the day's max.
	Temperature float64
	TempMin     float64
	TempMax     float64
	FeelsLike   float64

	Icon        string
	Description string

	// Humidity and Pressure are fixed placeholders; the upstream forecast
	// endpoint does not report them at daily granularity.
	Humidity float64
	Pressure float64

	// PrecipProb is the precipitation probability percentage (0-100).
	PrecipProb float64
}

// HourlyEntry is a one-hour forecast slice.
type HourlyEntry struct {
	Time        time.Time
	Temperature float64
	Icon        string
	Description string

	// PrecipProb is the precipitation probability percentage (0-100).
	PrecipProb float64
}

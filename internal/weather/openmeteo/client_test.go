package openmeteo_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skycastlabs/skycast/internal/geocode"
	"github.com/skycastlabs/skycast/internal/provider/resilience"
	"github.com/skycastlabs/skycast/internal/weather"
	"github.com/skycastlabs/skycast/internal/weather/openmeteo"
)

// Trimmed from a real /v1/forecast response with current conditions.
const currentFixture = `{
	"latitude": 52.375,
	"longitude": 4.875,
	"utc_offset_seconds": 7200,
	"timezone": "Europe/Amsterdam",
	"timezone_abbreviation": "CEST",
	"current": {
		"time": "2026-08-22T14:15",
		"temperature_2m": 21.4,
		"relative_humidity_2m": 65,
		"apparent_temperature": 20.8,
		"is_day": 1,
		"precipitation": 0.2,
		"weather_code": 61,
		"cloud_cover": 80,
		"pressure_msl": 1012.5,
		"wind_speed_10m": 3.6,
		"wind_direction_10m": 220,
		"dew_point_2m": 14.2,
		"uv_index": 4.5
	},
	"daily": {
		"time": ["2026-08-22"],
		"temperature_2m_max": [24.1],
		"temperature_2m_min": [15.3],
		"sunrise": ["2026-08-22T06:42"],
		"sunset": ["2026-08-22T20:31"]
	}
}`

const airQualityFixture = `{
	"latitude": 52.4,
	"longitude": 4.9,
	"current": {
		"time": "2026-08-22T14:00",
		"us_aqi": 42,
		"pm2_5": 8.5,
		"pm10": 14.2,
		"nitrogen_dioxide": 18.3,
		"ozone": 61.0,
		"carbon_monoxide": 153.0
	}
}`

func amsterdam() geocode.Location {
	return geocode.Location{
		Name:      "Amsterdam",
		Country:   "Netherlands",
		Latitude:  52.37403,
		Longitude: 4.88969,
	}
}

// newTestServer serves canned forecast and air quality payloads from one
// endpoint pair.
func newTestServer(forecastBody, airQualityBody string) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/forecast", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(forecastBody))
	})
	mux.HandleFunc("/v1/air-quality", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(airQualityBody))
	})
	return httptest.NewServer(mux)
}

func newTestClient(serverURL string) *openmeteo.Client {
	return openmeteo.NewClient(openmeteo.ClientConfig{
		ForecastURL:   serverURL,
		AirQualityURL: serverURL,
		HTTPClient:    resilience.NewClient(resilience.NoRetryClientConfig("test")),
		Logger:        zerolog.Nop(),
	})
}

func TestClient_GetCurrent(t *testing.T) {
	server := newTestServer(currentFixture, airQualityFixture)
	defer server.Close()

	client := newTestClient(server.URL)

	snap, err := client.GetCurrent(context.Background(), amsterdam(), weather.UnitsMetric)
	require.NoError(t, err)

	assert.Equal(t, "Amsterdam", snap.Location.Name)
	assert.Equal(t, "Slight rain", snap.Description)
	assert.Equal(t, "10d", snap.Icon)
	assert.False(t, snap.IsNight())
	assert.InDelta(t, 21.4, snap.Temperature, 0.01)
	assert.InDelta(t, 20.8, snap.FeelsLike, 0.01)
	assert.InDelta(t, 15.3, snap.TempMin, 0.01)
	assert.InDelta(t, 24.1, snap.TempMax, 0.01)
	assert.InDelta(t, 65, snap.Humidity, 0.01)
	assert.InDelta(t, 1012.5, snap.Pressure, 0.01)
	assert.InDelta(t, 3.6, snap.WindSpeed, 0.01)
	assert.InDelta(t, 220, snap.WindDirection, 0.01)
	assert.InDelta(t, 80, snap.CloudCover, 0.01)
	assert.InDelta(t, 14.2, snap.DewPoint, 0.01)
	assert.InDelta(t, 4.5, snap.UVIndex, 0.01)
	assert.InDelta(t, 0.2, snap.Precipitation, 0.01)
	assert.Equal(t, float64(10000), snap.Visibility)
	assert.Equal(t, 7200, snap.UTCOffsetSeconds)
	assert.Equal(t, weather.UnitsMetric, snap.Units)
	assert.WithinDuration(t, time.Now(), snap.FetchedAt, time.Minute)

	require.NotNil(t, snap.AirQuality)
	assert.Equal(t, 42, snap.AirQuality.USAQI)
	assert.InDelta(t, 8.5, snap.AirQuality.PM25, 0.01)
	assert.InDelta(t, 153.0, snap.AirQuality.CO, 0.01)

	// Sunrise/sunset carry the location's zone
	assert.Equal(t, 6, snap.Sunrise.Hour())
	assert.Equal(t, 42, snap.Sunrise.Minute())
	assert.Equal(t, 20, snap.Sunset.Hour())
	_, offset := snap.Sunrise.Zone()
	assert.Equal(t, 7200, offset)
}

func TestClient_GetCurrent_RequestParameters(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/forecast", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "52.3740", q.Get("latitude"))
		assert.Equal(t, "4.8897", q.Get("longitude"))
		assert.Equal(t, "ms", q.Get("wind_speed_unit"))
		assert.Equal(t, "auto", q.Get("timezone"))
		assert.Equal(t, "1", q.Get("forecast_days"))
		assert.Empty(t, q.Get("temperature_unit"), "metric uses the API default")
		assert.Contains(t, q.Get("current"), "dew_point_2m")
		assert.Contains(t, q.Get("current"), "uv_index")
		assert.Contains(t, q.Get("daily"), "sunrise")

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(currentFixture))
	})
	mux.HandleFunc("/v1/air-quality", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "us_aqi,pm2_5,pm10,nitrogen_dioxide,ozone,carbon_monoxide", r.URL.Query().Get("current"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(airQualityFixture))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := newTestClient(server.URL)

	_, err := client.GetCurrent(context.Background(), amsterdam(), weather.UnitsMetric)
	require.NoError(t, err)
}

func TestClient_GetCurrent_ImperialUnits(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/forecast", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "fahrenheit", q.Get("temperature_unit"))
		assert.Equal(t, "inch", q.Get("precipitation_unit"))
		// Wind stays m/s in every unit system
		assert.Equal(t, "ms", q.Get("wind_speed_unit"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(currentFixture))
	})
	mux.HandleFunc("/v1/air-quality", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(airQualityFixture))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := newTestClient(server.URL)

	snap, err := client.GetCurrent(context.Background(), amsterdam(), weather.UnitsImperial)
	require.NoError(t, err)
	assert.Equal(t, weather.UnitsImperial, snap.Units)
}

func TestClient_GetCurrent_NightIcon(t *testing.T) {
	nightFixture := `{
		"utc_offset_seconds": 7200,
		"timezone_abbreviation": "CEST",
		"current": {
			"temperature_2m": 12.1,
			"apparent_temperature": 11.0,
			"is_day": 0,
			"weather_code": 0
		},
		"daily": {
			"time": ["2026-08-22"],
			"temperature_2m_max": [24.1],
			"temperature_2m_min": [15.3]
		}
	}`

	server := newTestServer(nightFixture, airQualityFixture)
	defer server.Close()

	client := newTestClient(server.URL)

	snap, err := client.GetCurrent(context.Background(), amsterdam(), weather.UnitsMetric)
	require.NoError(t, err)
	assert.Equal(t, "01n", snap.Icon)
	assert.True(t, snap.IsNight())
}

func TestClient_GetCurrent_NoAirQualityData(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "missing current block", body: `{"latitude": 52.4}`},
		{name: "null aqi", body: `{"current": {"time": "2026-08-22T14:00", "us_aqi": null}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newTestServer(currentFixture, tt.body)
			defer server.Close()

			client := newTestClient(server.URL)

			snap, err := client.GetCurrent(context.Background(), amsterdam(), weather.UnitsMetric)
			require.NoError(t, err)
			assert.Nil(t, snap.AirQuality)
		})
	}
}

func TestClient_GetCurrent_ForecastError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/forecast", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	mux.HandleFunc("/v1/air-quality", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(airQualityFixture))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := newTestClient(server.URL)

	_, err := client.GetCurrent(context.Background(), amsterdam(), weather.UnitsMetric)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetching current conditions")
}

func TestClient_GetCurrent_AirQualityError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/forecast", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(currentFixture))
	})
	mux.HandleFunc("/v1/air-quality", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := newTestClient(server.URL)

	_, err := client.GetCurrent(context.Background(), amsterdam(), weather.UnitsMetric)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetching air quality")
}

// forecastFixture builds a response whose hourly block brackets the current
// hour in the fixture's zone, so the window start is deterministic without
// injecting a clock.
func forecastFixture(t *testing.T, base time.Time, hours int) string {
	t.Helper()

	times := make([]string, hours)
	temps := make([]float64, hours)
	codes := make([]int, hours)
	precip := make([]int, hours)
	isDay := make([]int, hours)
	for i := 0; i < hours; i++ {
		times[i] = base.Add(time.Duration(i) * time.Hour).Format("2006-01-02T15:04")
		temps[i] = 15.5
		codes[i] = 61
		precip[i] = 55
		isDay[i] = 0
	}

	timesJSON, err := json.Marshal(times)
	require.NoError(t, err)
	tempsJSON, err := json.Marshal(temps)
	require.NoError(t, err)
	codesJSON, err := json.Marshal(codes)
	require.NoError(t, err)
	precipJSON, err := json.Marshal(precip)
	require.NoError(t, err)
	isDayJSON, err := json.Marshal(isDay)
	require.NoError(t, err)

	return fmt.Sprintf(`{
		"utc_offset_seconds": 7200,
		"timezone_abbreviation": "CEST",
		"daily": {
			"time": ["2026-03-10", "2026-03-11", "2026-03-12", "2026-03-13", "2026-03-14", "2026-03-15", "2026-03-16"],
			"weather_code": [3, 61, 0, 95, 71, 2, 1],
			"temperature_2m_max": [10.2, 8.4, 12.0, 9.1, 4.5, 11.3, 13.0],
			"temperature_2m_min": [2.1, 3.0, 1.5, 4.2, -1.0, 2.8, 3.3],
			"precipitation_probability_max": [15, 80, 5, 90, 60, 10, 0]
		},
		"hourly": {
			"time": %s,
			"temperature_2m": %s,
			"weather_code": %s,
			"precipitation_probability": %s,
			"is_day": %s
		}
	}`, timesJSON, tempsJSON, codesJSON, precipJSON, isDayJSON)
}

func TestClient_GetForecast(t *testing.T) {
	zone := time.FixedZone("CEST", 7200)
	base := time.Now().In(zone).Truncate(time.Hour).Add(-3 * time.Hour)

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/forecast", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "5", q.Get("forecast_days"))
		assert.Equal(t, "auto", q.Get("timezone"))
		assert.Contains(t, q.Get("daily"), "precipitation_probability_max")
		assert.Contains(t, q.Get("hourly"), "is_day")

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(forecastFixture(t, base, 30)))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := newTestClient(server.URL)

	set, err := client.GetForecast(context.Background(), amsterdam(), weather.UnitsMetric)
	require.NoError(t, err)

	assert.Equal(t, "Amsterdam", set.Location.Name)
	assert.Equal(t, weather.UnitsMetric, set.Units)

	// Seven days in the response, five kept
	require.Len(t, set.Daily, 5)

	first := set.Daily[0]
	assert.Equal(t, 12, first.Time.Hour(), "daily entries are pinned to midday")
	assert.Equal(t, 10, first.Time.Day())
	assert.Equal(t, time.March, first.Time.Month())
	assert.InDelta(t, 6.15, first.Temperature, 0.01, "midpoint of min and max")
	assert.InDelta(t, 2.1, first.TempMin, 0.01)
	assert.InDelta(t, 10.2, first.TempMax, 0.01)
	assert.InDelta(t, 10.2, first.FeelsLike, 0.01, "daily feels-like approximated by the max")
	assert.Equal(t, "04d", first.Icon, "daily icons always use the day variant")
	assert.Equal(t, "Overcast", first.Description)
	assert.InDelta(t, 50, first.Humidity, 0.01)
	assert.InDelta(t, 1013, first.Pressure, 0.01)
	assert.InDelta(t, 15, first.PrecipProb, 0.01)

	// The hourly window starts at the current hour in the location's zone
	// and is capped at 24 entries.
	require.Len(t, set.Hourly, 24)
	assert.WithinDuration(t, time.Now(), set.Hourly[0].Time, time.Hour)

	skipped := set.Hourly[0].Time.Sub(base)
	assert.GreaterOrEqual(t, skipped, 3*time.Hour, "past hours are dropped")
	assert.LessOrEqual(t, skipped, 4*time.Hour)

	assert.Equal(t, "10n", set.Hourly[0].Icon, "hourly icons follow per-hour is_day")
	assert.Equal(t, "Slight rain", set.Hourly[0].Description)
	assert.InDelta(t, 15.5, set.Hourly[0].Temperature, 0.01)
	assert.InDelta(t, 55, set.Hourly[0].PrecipProb, 0.01)
}

func TestClient_GetForecast_ServerError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/forecast", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := newTestClient(server.URL)

	_, err := client.GetForecast(context.Background(), amsterdam(), weather.UnitsMetric)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetching forecast")
}

func TestClient_Name(t *testing.T) {
	client := openmeteo.NewClient(openmeteo.ClientConfig{Logger: zerolog.Nop()})
	assert.Equal(t, openmeteo.ProviderName, client.Name())
}

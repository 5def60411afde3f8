// Package openmeteo implements the weather provider against the Open-Meteo
// forecast and air quality APIs.
package openmeteo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/skycastlabs/skycast/internal/airquality"
	"github.com/skycastlabs/skycast/internal/geocode"
	"github.com/skycastlabs/skycast/internal/provider/resilience"
	"github.com/skycastlabs/skycast/internal/weather"
)

const (
	// ProviderName identifies this weather provider.
	ProviderName = "open-meteo"

	// DefaultForecastURL is the Open-Meteo forecast API base URL.
	DefaultForecastURL = "https://api.open-meteo.com"

	// DefaultAirQualityURL is the Open-Meteo air quality API base URL.
	DefaultAirQualityURL = "https://air-quality-api.open-meteo.com"
)

const (
	// defaultVisibilityMeters fills the visibility field; the forecast
	// endpoint does not report visibility at current-conditions
	// resolution. Known approximation, kept on purpose.
	defaultVisibilityMeters = 10000

	// Daily entries carry placeholder pressure/humidity; the upstream
	// daily block has neither.
	placeholderPressureHPa = 1013
	placeholderHumidityPct = 50

	maxDailyEntries  = 5
	maxHourlyEntries = 24
	forecastDays     = 5
)

// Requested field sets.
const (
	currentFields = "temperature_2m,relative_humidity_2m,apparent_temperature,is_day," +
		"precipitation,weather_code,cloud_cover,pressure_msl,wind_speed_10m," +
		"wind_direction_10m,dew_point_2m,uv_index"
	currentDailyFields  = "temperature_2m_max,temperature_2m_min,sunrise,sunset"
	forecastDailyFields = "weather_code,temperature_2m_max,temperature_2m_min,precipitation_probability_max"
	hourlyFields        = "temperature_2m,weather_code,precipitation_probability,is_day"
	airQualityFields    = "us_aqi,pm2_5,pm10,nitrogen_dioxide,ozone,carbon_monoxide"
)

// Timestamp layouts used by the API (local time in the requested zone).
const (
	timeLayout = "2006-01-02T15:04"
	dateLayout = "2006-01-02"
	hourLayout = "2006-01-02T15"
)

// ClientConfig holds configuration for the Open-Meteo client.
type ClientConfig struct {
	// ForecastURL is the forecast API base URL (optional).
	ForecastURL string

	// AirQualityURL is the air quality API base URL (optional).
	AirQualityURL string

	// HTTPClient is the HTTP client to use (optional).
	// If nil, uses a resilient client with defaults.
	HTTPClient *resilience.Client

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client is an Open-Meteo API client. Both endpoints are keyless.
//
// Wind speed is always requested in m/s whatever the unit system; the
// insight prompt downstream assumes it.
type Client struct {
	forecastURL   string
	airQualityURL string
	httpClient    *resilience.Client
	logger        zerolog.Logger
}

// NewClient creates a new Open-Meteo client.
func NewClient(cfg ClientConfig) *Client {
	forecastURL := cfg.ForecastURL
	if forecastURL == "" {
		forecastURL = DefaultForecastURL
	}

	airQualityURL := cfg.AirQualityURL
	if airQualityURL == "" {
		airQualityURL = DefaultAirQualityURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = resilience.NewClient(resilience.DefaultClientConfig(ProviderName))
	}

	return &Client{
		forecastURL:   forecastURL,
		airQualityURL: airQualityURL,
		httpClient:    httpClient,
		logger:        cfg.Logger,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// GetCurrent fetches current conditions and air quality in parallel and joins
// them into one snapshot. Either call failing fails the fetch; air quality is
// only nil when the provider answered without data for the location.
func (c *Client) GetCurrent(ctx context.Context, loc geocode.Location, units weather.UnitSystem) (*weather.Snapshot, error) {
	currentURL := fmt.Sprintf("%s/v1/forecast?latitude=%.4f&longitude=%.4f&current=%s&daily=%s&timezone=auto&forecast_days=1&wind_speed_unit=ms%s",
		c.forecastURL, loc.Latitude, loc.Longitude, currentFields, currentDailyFields, unitsQuery(units))
	aqURL := fmt.Sprintf("%s/v1/air-quality?latitude=%.4f&longitude=%.4f&current=%s",
		c.airQualityURL, loc.Latitude, loc.Longitude, airQualityFields)

	var (
		wg     sync.WaitGroup
		fcResp forecastResponse
		fcErr  error
		aqResp airQualityResponse
		aqErr  error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		fcErr = c.getJSON(ctx, currentURL, &fcResp)
	}()
	go func() {
		defer wg.Done()
		aqErr = c.getJSON(ctx, aqURL, &aqResp)
	}()
	wg.Wait()

	if fcErr != nil {
		return nil, fmt.Errorf("fetching current conditions: %w", fcErr)
	}
	if aqErr != nil {
		return nil, fmt.Errorf("fetching air quality: %w", aqErr)
	}

	return c.toSnapshot(&fcResp, &aqResp, loc, units)
}

// GetForecast fetches the daily and hourly outlook in a single call.
func (c *Client) GetForecast(ctx context.Context, loc geocode.Location, units weather.UnitSystem) (*weather.ForecastSet, error) {
	reqURL := fmt.Sprintf("%s/v1/forecast?latitude=%.4f&longitude=%.4f&daily=%s&hourly=%s&timezone=auto&forecast_days=%d%s",
		c.forecastURL, loc.Latitude, loc.Longitude, forecastDailyFields, hourlyFields, forecastDays, unitsQuery(units))

	var resp forecastResponse
	if err := c.getJSON(ctx, reqURL, &resp); err != nil {
		return nil, fmt.Errorf("fetching forecast: %w", err)
	}

	return c.toForecastSet(&resp, loc, units)
}

// getJSON executes a GET request and decodes the JSON response into out.
func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}

	return nil
}

// unitsQuery returns the extra query parameters for a unit system. Metric is
// the API default.
func unitsQuery(units weather.UnitSystem) string {
	if units == weather.UnitsImperial {
		return "&temperature_unit=fahrenheit&precipitation_unit=inch"
	}
	return ""
}

// toSnapshot converts the joined forecast and air quality responses to the
// domain model.
func (c *Client) toSnapshot(resp *forecastResponse, aq *airQualityResponse, loc geocode.Location, units weather.UnitSystem) (*weather.Snapshot, error) {
	cur := resp.Current
	if cur == nil {
		return nil, fmt.Errorf("response missing current block")
	}

	zone := time.FixedZone(resp.TimezoneAbbreviation, resp.UTCOffsetSeconds)
	isDay := cur.IsDay == 1

	snap := &weather.Snapshot{
		Location:         loc,
		Description:      describeCode(cur.WeatherCode),
		Icon:             iconForCode(cur.WeatherCode, isDay),
		Temperature:      cur.Temperature,
		FeelsLike:        cur.ApparentTemperature,
		TempMin:          cur.Temperature,
		TempMax:          cur.Temperature,
		Humidity:         cur.Humidity,
		Pressure:         cur.PressureMSL,
		WindSpeed:        cur.WindSpeed,
		WindDirection:    cur.WindDirection,
		CloudCover:       cur.CloudCover,
		Visibility:       defaultVisibilityMeters,
		DewPoint:         cur.DewPoint,
		UVIndex:          cur.UVIndex,
		Precipitation:    cur.Precipitation,
		AirQuality:       aq.toReading(),
		UTCOffsetSeconds: resp.UTCOffsetSeconds,
		Units:            units,
		FetchedAt:        time.Now(),
	}

	if d := resp.Daily; d != nil {
		if len(d.TemperatureMax) > 0 {
			snap.TempMax = d.TemperatureMax[0]
		}
		if len(d.TemperatureMin) > 0 {
			snap.TempMin = d.TemperatureMin[0]
		}
		if len(d.Sunrise) > 0 {
			t, err := time.ParseInLocation(timeLayout, d.Sunrise[0], zone)
			if err != nil {
				return nil, fmt.Errorf("parsing sunrise: %w", err)
			}
			snap.Sunrise = t
		}
		if len(d.Sunset) > 0 {
			t, err := time.ParseInLocation(timeLayout, d.Sunset[0], zone)
			if err != nil {
				return nil, fmt.Errorf("parsing sunset: %w", err)
			}
			snap.Sunset = t
		}
	}

	return snap, nil
}

// toForecastSet converts a forecast response to the domain model.
func (c *Client) toForecastSet(resp *forecastResponse, loc geocode.Location, units weather.UnitSystem) (*weather.ForecastSet, error) {
	zone := time.FixedZone(resp.TimezoneAbbreviation, resp.UTCOffsetSeconds)

	set := &weather.ForecastSet{
		Location:  loc,
		Units:     units,
		FetchedAt: time.Now(),
	}

	if d := resp.Daily; d != nil {
		for i := 0; i < len(d.Time) && i < maxDailyEntries; i++ {
			if i >= len(d.WeatherCode) || i >= len(d.TemperatureMax) || i >= len(d.TemperatureMin) {
				break
			}

			day, err := time.ParseInLocation(dateLayout, d.Time[i], zone)
			if err != nil {
				return nil, fmt.Errorf("parsing daily time: %w", err)
			}

			tempMax := d.TemperatureMax[i]
			tempMin := d.TemperatureMin[i]

			entry := weather.DailyEntry{
				// Synthesized midday instant for the day.
				Time:        day.Add(12 * time.Hour),
				Temperature: (tempMax + tempMin) / 2,
				TempMin:     tempMin,
				TempMax:     tempMax,
				FeelsLike:   tempMax,
				Icon:        iconForCode(d.WeatherCode[i], true),
				Description: describeCode(d.WeatherCode[i]),
				Humidity:    placeholderHumidityPct,
				Pressure:    placeholderPressureHPa,
			}
			if i < len(d.PrecipProbMax) {
				entry.PrecipProb = float64(d.PrecipProbMax[i])
			}

			set.Daily = append(set.Daily, entry)
		}
	}

	if h := resp.Hourly; h != nil {
		// The window starts at the entry matching the current hour in the
		// location's zone and runs forward, truncating when the response
		// has fewer hours left.
		prefix := time.Now().In(zone).Format(hourLayout)
		start := 0
		for i, t := range h.Time {
			if strings.HasPrefix(t, prefix) {
				start = i
				break
			}
		}

		for i := start; i < len(h.Time) && len(set.Hourly) < maxHourlyEntries; i++ {
			if i >= len(h.Temperature) || i >= len(h.WeatherCode) {
				break
			}

			t, err := time.ParseInLocation(timeLayout, h.Time[i], zone)
			if err != nil {
				return nil, fmt.Errorf("parsing hourly time: %w", err)
			}

			hourIsDay := true
			if i < len(h.IsDay) {
				hourIsDay = h.IsDay[i] == 1
			}

			entry := weather.HourlyEntry{
				Time:        t,
				Temperature: h.Temperature[i],
				Icon:        iconForCode(h.WeatherCode[i], hourIsDay),
				Description: describeCode(h.WeatherCode[i]),
			}
			if i < len(h.PrecipProb) {
				entry.PrecipProb = float64(h.PrecipProb[i])
			}

			set.Hourly = append(set.Hourly, entry)
		}
	}

	return set, nil
}

// Open-Meteo API response structures.

type forecastResponse struct {
	Latitude             float64       `json:"latitude"`
	Longitude            float64       `json:"longitude"`
	UTCOffsetSeconds     int           `json:"utc_offset_seconds"`
	TimezoneAbbreviation string        `json:"timezone_abbreviation"`
	Current              *currentBlock `json:"current"`
	Daily                *dailyBlock   `json:"daily"`
	Hourly               *hourlyBlock  `json:"hourly"`
}

type currentBlock struct {
	Time                string  `json:"time"`
	Temperature         float64 `json:"temperature_2m"`
	Humidity            float64 `json:"relative_humidity_2m"`
	ApparentTemperature float64 `json:"apparent_temperature"`
	IsDay               int     `json:"is_day"`
	Precipitation       float64 `json:"precipitation"`
	WeatherCode         int     `json:"weather_code"`
	CloudCover          float64 `json:"cloud_cover"`
	PressureMSL         float64 `json:"pressure_msl"`
	WindSpeed           float64 `json:"wind_speed_10m"`
	WindDirection       float64 `json:"wind_direction_10m"`
	DewPoint            float64 `json:"dew_point_2m"`
	UVIndex             float64 `json:"uv_index"`
}

type dailyBlock struct {
	Time           []string  `json:"time"`
	WeatherCode    []int     `json:"weather_code"`
	TemperatureMax []float64 `json:"temperature_2m_max"`
	TemperatureMin []float64 `json:"temperature_2m_min"`
	Sunrise        []string  `json:"sunrise"`
	Sunset         []string  `json:"sunset"`
	PrecipProbMax  []int     `json:"precipitation_probability_max"`
}

type hourlyBlock struct {
	Time        []string  `json:"time"`
	Temperature []float64 `json:"temperature_2m"`
	WeatherCode []int     `json:"weather_code"`
	PrecipProb  []int     `json:"precipitation_probability"`
	IsDay       []int     `json:"is_day"`
}

type airQualityResponse struct {
	Current *airQualityBlock `json:"current"`
}

type airQualityBlock struct {
	USAQI *float64 `json:"us_aqi"`
	PM25  *float64 `json:"pm2_5"`
	PM10  *float64 `json:"pm10"`
	NO2   *float64 `json:"nitrogen_dioxide"`
	O3    *float64 `json:"ozone"`
	CO    *float64 `json:"carbon_monoxide"`
}

// toReading converts the air quality block to the domain model. Returns nil
// when the provider had no data for the location.
func (r *airQualityResponse) toReading() *airquality.Reading {
	cur := r.Current
	if cur == nil || cur.USAQI == nil {
		return nil
	}

	return &airquality.Reading{
		USAQI: int(*cur.USAQI),
		PM25:  deref(cur.PM25),
		PM10:  deref(cur.PM10),
		NO2:   deref(cur.NO2),
		O3:    deref(cur.O3),
		CO:    deref(cur.CO),
	}
}

func deref(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}

package handler

import (
	"errors"
	"net/http"

	"github.com/skycastlabs/skycast/internal/api/models"
	"github.com/skycastlabs/skycast/internal/api/response"
	"github.com/skycastlabs/skycast/internal/geocode"
	"github.com/skycastlabs/skycast/internal/weather"
)

// WeatherHandler handles stateless weather lookups: resolve the city, then
// fetch from the weather service.
type WeatherHandler struct {
	geocoder *geocode.Service
	weather  *weather.Service
}

// NewWeatherHandler creates a new WeatherHandler.
func NewWeatherHandler(geocoder *geocode.Service, weatherSvc *weather.Service) *WeatherHandler {
	return &WeatherHandler{
		geocoder: geocoder,
		weather:  weatherSvc,
	}
}

// Current handles GET /v1/weather/current?city=&units= - current conditions
// plus air quality for a city.
func (h *WeatherHandler) Current(w http.ResponseWriter, r *http.Request) {
	loc, units, ok := h.resolveParams(w, r)
	if !ok {
		return
	}

	snap, err := h.weather.GetCurrent(r.Context(), *loc, units)
	if err != nil {
		writeWeatherError(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, toWeatherSnapshot(snap))
}

// Forecast handles GET /v1/weather/forecast?city=&units= - daily and hourly
// outlook for a city.
func (h *WeatherHandler) Forecast(w http.ResponseWriter, r *http.Request) {
	loc, units, ok := h.resolveParams(w, r)
	if !ok {
		return
	}

	forecast, err := h.weather.GetForecast(r.Context(), *loc, units)
	if err != nil {
		writeWeatherError(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, toForecastSet(forecast))
}

// resolveParams parses the city and units query parameters and resolves the
// city. On failure it writes the problem response and returns ok=false.
func (h *WeatherHandler) resolveParams(w http.ResponseWriter, r *http.Request) (*geocode.Location, weather.UnitSystem, bool) {
	city := r.URL.Query().Get("city")

	units, err := weather.ParseUnitSystem(r.URL.Query().Get("units"))
	if err != nil {
		response.BadRequest(w, r, "invalid units", []models.FieldError{
			{Field: "units", Message: "must be metric or imperial"},
		})
		return nil, "", false
	}

	loc, err := h.geocoder.Resolve(r.Context(), city)
	if err != nil {
		writeGeocodeError(w, r, city, err)
		return nil, "", false
	}

	return loc, units, true
}

// writeWeatherError maps weather service errors to problem responses.
func writeWeatherError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, weather.ErrInvalidCoordinates):
		response.BadRequest(w, r, "invalid coordinates", nil)
	case errors.Is(err, weather.ErrProviderUnavailable):
		response.BadGateway(w, r, "weather provider unavailable")
	default:
		response.InternalError(w, r, "weather lookup failed")
	}
}

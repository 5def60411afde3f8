package handler

import (
	"errors"
	"net/http"

	"github.com/skycastlabs/skycast/internal/api/models"
	"github.com/skycastlabs/skycast/internal/api/response"
	"github.com/skycastlabs/skycast/internal/geocode"
)

// GeocodeHandler handles city resolution endpoints.
type GeocodeHandler struct {
	geocoder *geocode.Service
}

// NewGeocodeHandler creates a new GeocodeHandler.
func NewGeocodeHandler(geocoder *geocode.Service) *GeocodeHandler {
	return &GeocodeHandler{geocoder: geocoder}
}

// Resolve handles GET /v1/geocode?city= - resolve a city name to coordinates.
func (h *GeocodeHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	city := r.URL.Query().Get("city")

	loc, err := h.geocoder.Resolve(r.Context(), city)
	if err != nil {
		writeGeocodeError(w, r, city, err)
		return
	}

	response.JSON(w, r, http.StatusOK, toLocation(*loc))
}

// writeGeocodeError maps geocoding errors to problem responses. Shared with
// the weather handlers, which resolve the city first.
func writeGeocodeError(w http.ResponseWriter, r *http.Request, city string, err error) {
	switch {
	case errors.Is(err, geocode.ErrEmptyQuery):
		response.BadRequest(w, r, "city is required", []models.FieldError{
			{Field: "city", Message: "must not be empty"},
		})
	case errors.Is(err, geocode.ErrCityNotFound):
		response.NotFound(w, r, "city not found: "+city)
	default:
		response.BadGateway(w, r, "geocoding provider unavailable")
	}
}
